package commands

import (
	"context"
	"testing"

	"aaronromeo.com/sievefilters/pkg/mock"
	"aaronromeo.com/sievefilters/pkg/models/filtersset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFilter(name string) *filtersset.Filter {
	return &filtersset.Filter{
		Name:      name,
		MatchType: filtersset.MatchAnyOf,
		Conditions: []filtersset.Condition{
			{Target: "Subject", Operator: "contains", Value: name},
		},
		Actions: []filtersset.Action{{Name: "fileinto", Args: []string{"INBOX/" + name}}},
		Enabled: true,
	}
}

func newSet(names ...string) *filtersset.FiltersSet {
	fs := filtersset.New("main_script")
	for _, name := range names {
		fs.Filters = append(fs.Filters, newFilter(name))
	}
	return fs
}

func filterNames(fs *filtersset.FiltersSet) []string {
	names := []string{}
	for _, f := range fs.Filters {
		names = append(names, f.Name)
	}
	return names
}

func TestCommands(t *testing.T) {
	tests := []struct {
		name          string
		cmd           FilterCommand
		wantName      string
		wantFilters   []string
		expectedError string
	}{
		{
			name:        "add",
			cmd:         NewAddFilterCommand(newFilter("test3")),
			wantName:    "add",
			wantFilters: []string{"test1", "test2", "test3"},
		},
		{
			name:          "add duplicate",
			cmd:           NewAddFilterCommand(newFilter("test1")),
			wantName:      "add",
			wantFilters:   []string{"test1", "test2"},
			expectedError: "already exists",
		},
		{
			name:        "update renames in place",
			cmd:         NewUpdateFilterCommand("test1", newFilter("renamed")),
			wantName:    "update",
			wantFilters: []string{"renamed", "test2"},
		},
		{
			name:          "update missing",
			cmd:           NewUpdateFilterCommand("nope", newFilter("nope")),
			wantName:      "update",
			wantFilters:   []string{"test1", "test2"},
			expectedError: "filter not found",
		},
		{
			name:        "remove",
			cmd:         NewRemoveFilterCommand("test1"),
			wantName:    "remove",
			wantFilters: []string{"test2"},
		},
		{
			name:        "move up",
			cmd:         NewMoveUpCommand("test2"),
			wantName:    "moveup",
			wantFilters: []string{"test2", "test1"},
		},
		{
			name:        "move down",
			cmd:         NewMoveDownCommand("test1"),
			wantName:    "movedown",
			wantFilters: []string{"test2", "test1"},
		},
		{
			name:        "move down last is a no-op",
			cmd:         NewMoveDownCommand("test2"),
			wantName:    "movedown",
			wantFilters: []string{"test1", "test2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			executor := NewCommandExecutor(mock.SetupLogger(t))
			fs := newSet("test1", "test2")

			err := executor.ExecuteCommand(context.Background(), tt.cmd, fs)

			if tt.expectedError != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantFilters, filterNames(fs))
			assert.Equal(t, tt.wantName, tt.cmd.GetName())
			assert.NotEmpty(t, tt.cmd.GetDescription())
		})
	}
}

func TestToggleFilterCommand(t *testing.T) {
	executor := NewCommandExecutor(mock.SetupLogger(t))
	fs := newSet("test1")

	cmd := NewToggleFilterCommand("test1")
	require.NoError(t, executor.ExecuteCommand(context.Background(), cmd, fs))
	assert.False(t, cmd.Enabled)
	assert.False(t, fs.Get("test1").Enabled)

	cmd = NewToggleFilterCommand("test1")
	require.NoError(t, executor.ExecuteCommand(context.Background(), cmd, fs))
	assert.True(t, cmd.Enabled)

	err := executor.ExecuteCommand(context.Background(), NewToggleFilterCommand("missing"), fs)
	assert.ErrorIs(t, err, filtersset.ErrFilterNotFound)
}

func TestExecuteCommandsStopsOnError(t *testing.T) {
	executor := NewCommandExecutor(mock.SetupLogger(t))
	fs := newSet("test1", "test2")

	err := executor.ExecuteCommands(context.Background(), []FilterCommand{
		NewMoveDownCommand("test1"),
		NewRemoveFilterCommand("missing"),
		NewRemoveFilterCommand("test2"),
	}, fs)

	assert.ErrorIs(t, err, filtersset.ErrFilterNotFound)
	assert.Equal(t, []string{"test2", "test1"}, filterNames(fs))
}
