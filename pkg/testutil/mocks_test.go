package testutil

import (
	"context"
	"os"
	"testing"

	"aaronromeo.com/sievefilters/pkg/base"
	"aaronromeo.com/sievefilters/pkg/repositories"
	"aaronromeo.com/sievefilters/pkg/utils"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ repositories.FiltersSetRepository = (*MockFiltersSetRepository)(nil)
	_ utils.FileManager                 = (*MockFileManager)(nil)
)

func TestMockFiltersSetRepository(t *testing.T) {
	ctx := context.Background()
	mock := NewMockFiltersSetRepository(map[string]string{"b": "keep;\n", "a": "stop;\n"}, "a")

	scripts, err := mock.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []base.ScriptInfo{{Name: "a", Active: true}, {Name: "b"}}, scripts)

	assert.ErrorIs(t, mock.Delete(ctx, "a"), repositories.ErrActiveSetDeletion)
	assert.NoError(t, mock.Delete(ctx, "b"))
	_, err = mock.LoadRaw(ctx, "b")
	assert.ErrorIs(t, err, repositories.ErrFiltersSetNotFound)

	mock.SaveRawFunc = func(context.Context, string, string) error {
		return errors.New("quota exceeded")
	}
	assert.EqualError(t, mock.SaveRaw(ctx, "c", "keep;\n"), "quota exceeded")
	assert.Equal(t, []string{"c"}, mock.SavedScripts)
	assert.NotContains(t, mock.Scripts, "c")
}

func TestMockFileManager(t *testing.T) {
	mock := NewMockFileManager()

	err := mock.WriteFile("test.txt", []byte("content"), 0644)
	assert.NoError(t, err)
	assert.Equal(t, []byte("content"), mock.WrittenFiles["test.txt"])
	assert.Equal(t, 0644, int(mock.WrittenPerms["test.txt"]))

	data, err := mock.ReadFile("test.txt")
	assert.NoError(t, err)
	assert.Equal(t, "content", string(data))
	_, err = mock.ReadFile("missing.txt")
	assert.ErrorIs(t, err, os.ErrNotExist)

	mock.MkdirAllFunc = func(string, os.FileMode) error { return errors.New("read-only") }
	assert.Error(t, mock.MkdirAll("out", 0o755))
	assert.NotContains(t, mock.CreatedDirs, "out")
}
