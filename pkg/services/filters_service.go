// Package services provides the business operations behind the web views
// and the CLI. Services are bound to one authenticated mail session.
package services

import (
	"context"
	"log/slog"

	"aaronromeo.com/sievefilters/pkg/base"
	"aaronromeo.com/sievefilters/pkg/commands"
	"aaronromeo.com/sievefilters/pkg/models/filtersset"
	"aaronromeo.com/sievefilters/pkg/repositories"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

var (
	ErrFiltersSetNotFound = repositories.ErrFiltersSetNotFound
	ErrActiveSetDeletion  = repositories.ErrActiveSetDeletion
	ErrFilterNotFound     = filtersset.ErrFilterNotFound
	ErrFilterExists       = filtersset.ErrFilterExists
	ErrInvalidName        = filtersset.ErrInvalidName
	ErrFiltersSetExists   = errors.New("a filters set with this name already exists")
)

// ReservedNames collide with the web routes and cannot name a filters set.
var ReservedNames = []string{"newfs", "savefs", "submailboxes"}

// InvalidInputError marks a request the user can fix.
type InvalidInputError struct {
	Err error
}

func (e *InvalidInputError) Error() string {
	return e.Err.Error()
}

func (e *InvalidInputError) Unwrap() error {
	return e.Err
}

func invalid(err error) error {
	return &InvalidInputError{Err: err}
}

// FiltersService defines the filters set operations.
type FiltersService interface {
	ListSets(ctx context.Context) ([]base.ScriptInfo, error)
	GetSet(ctx context.Context, name string) (*filtersset.FiltersSet, error)
	DownloadSet(ctx context.Context, name string) (string, error)
	CreateSet(ctx context.Context, name string, activate bool) error
	DeleteSet(ctx context.Context, name string) error
	ActivateSet(ctx context.Context, name string) error
	SaveSet(ctx context.Context, name string, content string) error

	GetFilter(ctx context.Context, set string, name string) (*filtersset.Filter, error)
	AddFilter(ctx context.Context, set string, f *filtersset.Filter) error
	UpdateFilter(ctx context.Context, set string, oldName string, f *filtersset.Filter) error
	RemoveFilter(ctx context.Context, set string, name string) error
	ToggleFilter(ctx context.Context, set string, name string) (bool, error)
	MoveFilterUp(ctx context.Context, set string, name string) (*filtersset.FiltersSet, error)
	MoveFilterDown(ctx context.Context, set string, name string) (*filtersset.FiltersSet, error)
}

type FiltersOption func(*FiltersServiceImpl)

// WithLocalValidation loads raw scripts with go-sieve before sending them.
func WithLocalValidation(enabled bool) FiltersOption {
	return func(s *FiltersServiceImpl) {
		s.validateLocally = enabled
	}
}

func WithWriteCounter(counter metric.Int64Counter) FiltersOption {
	return func(s *FiltersServiceImpl) {
		s.writes = counter
	}
}

// FiltersServiceImpl implements the FiltersService interface.
type FiltersServiceImpl struct {
	repo            repositories.FiltersSetRepository
	executor        *commands.CommandExecutor
	logger          *slog.Logger
	validateLocally bool
	writes          metric.Int64Counter
}

// NewFiltersService creates a FiltersService storing sets in repo.
func NewFiltersService(repo repositories.FiltersSetRepository, logger *slog.Logger, opts ...FiltersOption) FiltersService {
	s := &FiltersServiceImpl{
		repo:            repo,
		executor:        commands.NewCommandExecutor(logger),
		logger:          logger,
		validateLocally: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.writes == nil {
		s.writes = ScriptWriteCounter()
	}
	return s
}

// ScriptWriteCounter returns the counter of scripts written to the server.
func ScriptWriteCounter() metric.Int64Counter {
	counter, err := otel.Meter(base.ServiceName).Int64Counter(
		"sievefilters.script.writes",
		metric.WithDescription("Sieve scripts written to the ManageSieve server"),
		metric.WithUnit("{script}"),
	)
	if err != nil {
		otel.Handle(err)
		return noop.Int64Counter{}
	}
	return counter
}

func (s *FiltersServiceImpl) ListSets(ctx context.Context) ([]base.ScriptInfo, error) {
	return s.repo.List(ctx)
}

// GetSet loads a filters set. A set the editor cannot represent is returned
// along with an error wrapping filtersset.ErrUnsupportedScript.
func (s *FiltersServiceImpl) GetSet(ctx context.Context, name string) (*filtersset.FiltersSet, error) {
	return s.repo.Load(ctx, name)
}

func (s *FiltersServiceImpl) DownloadSet(ctx context.Context, name string) (string, error) {
	return s.repo.LoadRaw(ctx, name)
}

// CreateSet stores an empty script called name.
func (s *FiltersServiceImpl) CreateSet(ctx context.Context, name string, activate bool) error {
	if err := validateSetName(name); err != nil {
		return err
	}
	scripts, err := s.repo.List(ctx)
	if err != nil {
		return err
	}
	for _, script := range scripts {
		if script.Name == name {
			return invalid(errors.Wrap(ErrFiltersSetExists, name))
		}
	}

	if err := s.save(ctx, "create", name, filtersset.New(name).String()); err != nil {
		return err
	}
	if activate {
		return s.repo.Activate(ctx, name)
	}
	return nil
}

func (s *FiltersServiceImpl) DeleteSet(ctx context.Context, name string) error {
	err := s.repo.Delete(ctx, name)
	if errors.Is(err, ErrActiveSetDeletion) {
		return invalid(err)
	}
	return err
}

func (s *FiltersServiceImpl) ActivateSet(ctx context.Context, name string) error {
	return s.repo.Activate(ctx, name)
}

// SaveSet replaces a script with content typed by the user.
func (s *FiltersServiceImpl) SaveSet(ctx context.Context, name string, content string) error {
	if err := validateSetName(name); err != nil {
		return err
	}
	if s.validateLocally {
		if err := filtersset.ValidateScript(content); err != nil {
			return invalid(err)
		}
	}
	return s.save(ctx, "save", name, content)
}

func (s *FiltersServiceImpl) GetFilter(ctx context.Context, set string, name string) (*filtersset.Filter, error) {
	fs, err := s.editable(ctx, set)
	if err != nil {
		return nil, err
	}
	f := fs.Get(name)
	if f == nil {
		return nil, errors.Wrap(ErrFilterNotFound, name)
	}
	return f, nil
}

func (s *FiltersServiceImpl) AddFilter(ctx context.Context, set string, f *filtersset.Filter) error {
	_, err := s.apply(ctx, set, commands.NewAddFilterCommand(f))
	return err
}

func (s *FiltersServiceImpl) UpdateFilter(ctx context.Context, set string, oldName string, f *filtersset.Filter) error {
	_, err := s.apply(ctx, set, commands.NewUpdateFilterCommand(oldName, f))
	return err
}

func (s *FiltersServiceImpl) RemoveFilter(ctx context.Context, set string, name string) error {
	_, err := s.apply(ctx, set, commands.NewRemoveFilterCommand(name))
	return err
}

// ToggleFilter enables or disables a filter and returns its new state.
func (s *FiltersServiceImpl) ToggleFilter(ctx context.Context, set string, name string) (bool, error) {
	cmd := commands.NewToggleFilterCommand(name)
	if _, err := s.apply(ctx, set, cmd); err != nil {
		return false, err
	}
	return cmd.Enabled, nil
}

func (s *FiltersServiceImpl) MoveFilterUp(ctx context.Context, set string, name string) (*filtersset.FiltersSet, error) {
	return s.apply(ctx, set, commands.NewMoveUpCommand(name))
}

func (s *FiltersServiceImpl) MoveFilterDown(ctx context.Context, set string, name string) (*filtersset.FiltersSet, error) {
	return s.apply(ctx, set, commands.NewMoveDownCommand(name))
}

// apply loads set, runs cmds on it in order and stores the result once.
// Nothing is stored when a command fails.
func (s *FiltersServiceImpl) apply(ctx context.Context, set string, cmds ...commands.FilterCommand) (*filtersset.FiltersSet, error) {
	fs, err := s.editable(ctx, set)
	if err != nil {
		return nil, err
	}
	if err := s.executor.ExecuteCommands(ctx, cmds, fs); err != nil {
		if errors.Is(err, ErrFilterNotFound) {
			return nil, err
		}
		return nil, invalid(err)
	}
	if err := s.save(ctx, cmds[0].GetName(), fs.Name, fs.String()); err != nil {
		return nil, err
	}
	return fs, nil
}

func (s *FiltersServiceImpl) editable(ctx context.Context, set string) (*filtersset.FiltersSet, error) {
	fs, err := s.repo.Load(ctx, set)
	if errors.Is(err, filtersset.ErrUnsupportedScript) {
		return nil, invalid(err)
	}
	return fs, err
}

func (s *FiltersServiceImpl) save(ctx context.Context, op string, name string, content string) error {
	if err := s.repo.SaveRaw(ctx, name, content); err != nil {
		return err
	}
	s.writes.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", op)))
	return nil
}

func validateSetName(name string) error {
	if err := filtersset.ValidateName(name); err != nil {
		return invalid(err)
	}
	for _, reserved := range ReservedNames {
		if name == reserved {
			return invalid(errors.Wrapf(ErrInvalidName, "%q is reserved", name))
		}
	}
	return nil
}
