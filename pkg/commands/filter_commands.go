// Package commands implements the filter edits applied to a filters set.
package commands

import (
	"context"
	"log/slog"

	"aaronromeo.com/sievefilters/pkg/models/filtersset"
)

// FilterCommand defines the interface for filters set edits.
type FilterCommand interface {
	Execute(ctx context.Context, fs *filtersset.FiltersSet) error
	GetName() string
	GetDescription() string
}

// AddFilterCommand appends a filter to the set.
type AddFilterCommand struct {
	Filter *filtersset.Filter
}

func NewAddFilterCommand(f *filtersset.Filter) *AddFilterCommand {
	return &AddFilterCommand{Filter: f}
}

func (c *AddFilterCommand) Execute(_ context.Context, fs *filtersset.FiltersSet) error {
	return fs.Add(c.Filter)
}

func (c *AddFilterCommand) GetName() string {
	return "add"
}

func (c *AddFilterCommand) GetDescription() string {
	return "Adds a filter at the end of the set"
}

// UpdateFilterCommand replaces a filter in place.
type UpdateFilterCommand struct {
	OldName string
	Filter  *filtersset.Filter
}

func NewUpdateFilterCommand(oldName string, f *filtersset.Filter) *UpdateFilterCommand {
	return &UpdateFilterCommand{OldName: oldName, Filter: f}
}

func (c *UpdateFilterCommand) Execute(_ context.Context, fs *filtersset.FiltersSet) error {
	return fs.Update(c.OldName, c.Filter)
}

func (c *UpdateFilterCommand) GetName() string {
	return "update"
}

func (c *UpdateFilterCommand) GetDescription() string {
	return "Replaces a filter keeping its position"
}

type RemoveFilterCommand struct {
	Name string
}

func NewRemoveFilterCommand(name string) *RemoveFilterCommand {
	return &RemoveFilterCommand{Name: name}
}

func (c *RemoveFilterCommand) Execute(_ context.Context, fs *filtersset.FiltersSet) error {
	return fs.Remove(c.Name)
}

func (c *RemoveFilterCommand) GetName() string {
	return "remove"
}

func (c *RemoveFilterCommand) GetDescription() string {
	return "Removes a filter from the set"
}

// ToggleFilterCommand flips a filter state. Enabled holds the new state
// once executed.
type ToggleFilterCommand struct {
	Name    string
	Enabled bool
}

func NewToggleFilterCommand(name string) *ToggleFilterCommand {
	return &ToggleFilterCommand{Name: name}
}

func (c *ToggleFilterCommand) Execute(_ context.Context, fs *filtersset.FiltersSet) error {
	enabled, err := fs.Toggle(c.Name)
	if err != nil {
		return err
	}
	c.Enabled = enabled
	return nil
}

func (c *ToggleFilterCommand) GetName() string {
	return "toggle"
}

func (c *ToggleFilterCommand) GetDescription() string {
	return "Enables or disables a filter"
}

type MoveUpCommand struct {
	Name string
}

func NewMoveUpCommand(name string) *MoveUpCommand {
	return &MoveUpCommand{Name: name}
}

func (c *MoveUpCommand) Execute(_ context.Context, fs *filtersset.FiltersSet) error {
	return fs.MoveUp(c.Name)
}

func (c *MoveUpCommand) GetName() string {
	return "moveup"
}

func (c *MoveUpCommand) GetDescription() string {
	return "Moves a filter one position up"
}

type MoveDownCommand struct {
	Name string
}

func NewMoveDownCommand(name string) *MoveDownCommand {
	return &MoveDownCommand{Name: name}
}

func (c *MoveDownCommand) Execute(_ context.Context, fs *filtersset.FiltersSet) error {
	return fs.MoveDown(c.Name)
}

func (c *MoveDownCommand) GetName() string {
	return "movedown"
}

func (c *MoveDownCommand) GetDescription() string {
	return "Moves a filter one position down"
}

// CommandExecutor runs commands against a filters set.
type CommandExecutor struct {
	logger *slog.Logger
}

// NewCommandExecutor creates a new CommandExecutor.
func NewCommandExecutor(logger *slog.Logger) *CommandExecutor {
	return &CommandExecutor{logger: logger}
}

// ExecuteCommand executes a command on a filters set with logging and error handling.
func (e *CommandExecutor) ExecuteCommand(ctx context.Context, cmd FilterCommand, fs *filtersset.FiltersSet) error {
	e.logger.InfoContext(ctx, "Starting command execution",
		slog.String("command", cmd.GetName()),
		slog.String("set", fs.Name))

	if err := cmd.Execute(ctx, fs); err != nil {
		e.logger.ErrorContext(ctx, "Command execution failed",
			slog.String("command", cmd.GetName()),
			slog.String("set", fs.Name),
			slog.String("error", err.Error()))
		return err
	}

	e.logger.InfoContext(ctx, "Command execution completed successfully",
		slog.String("command", cmd.GetName()))
	return nil
}

// ExecuteCommands executes commands in sequence, stopping at the first error.
func (e *CommandExecutor) ExecuteCommands(ctx context.Context, commands []FilterCommand, fs *filtersset.FiltersSet) error {
	for _, cmd := range commands {
		if err := e.ExecuteCommand(ctx, cmd, fs); err != nil {
			return err
		}
	}
	return nil
}
