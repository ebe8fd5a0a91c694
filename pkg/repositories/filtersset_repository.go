// Package repositories provides the data access layer for sievefilters.
// Filters sets are stored as sieve scripts on the ManageSieve server.
package repositories

import (
	"context"
	"log/slog"
	"sort"

	"aaronromeo.com/sievefilters/internal/managesieve"
	"aaronromeo.com/sievefilters/pkg/base"
	"aaronromeo.com/sievefilters/pkg/models/filtersset"
	"aaronromeo.com/sievefilters/pkg/utils"
	"github.com/pkg/errors"
)

var (
	ErrFiltersSetNotFound = errors.New("filters set not found")
	ErrActiveSetDeletion  = errors.New("the active filters set cannot be deleted")
)

// FiltersSetRepository defines the interface for filters set storage.
type FiltersSetRepository interface {
	List(ctx context.Context) ([]base.ScriptInfo, error)
	Load(ctx context.Context, name string) (*filtersset.FiltersSet, error)
	LoadRaw(ctx context.Context, name string) (string, error)
	Save(ctx context.Context, fs *filtersset.FiltersSet) error
	SaveRaw(ctx context.Context, name string, content string) error
	Delete(ctx context.Context, name string) error
	Activate(ctx context.Context, name string) error
}

// SieveFiltersSetRepository implements FiltersSetRepository over a
// ManageSieve session.
type SieveFiltersSetRepository struct {
	client base.SieveClient
	logger *slog.Logger
}

// NewSieveFiltersSetRepository creates a repository bound to client.
func NewSieveFiltersSetRepository(client base.SieveClient, logger *slog.Logger) FiltersSetRepository {
	return &SieveFiltersSetRepository{
		client: client,
		logger: logger,
	}
}

// List returns the scripts sorted by name.
func (r *SieveFiltersSetRepository) List(ctx context.Context) ([]base.ScriptInfo, error) {
	scripts, err := r.client.ListScripts(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to list scripts", slog.Any("error", utils.WrapError(err)))
		return nil, err
	}
	sort.Slice(scripts, func(i, j int) bool {
		return scripts[i].Name < scripts[j].Name
	})
	return scripts, nil
}

// Load fetches and parses a script. When the script cannot be edited with
// the filters editor the set is still returned, with Raw filled, together
// with an error wrapping filtersset.ErrUnsupportedScript.
func (r *SieveFiltersSetRepository) Load(ctx context.Context, name string) (*filtersset.FiltersSet, error) {
	content, err := r.LoadRaw(ctx, name)
	if err != nil {
		return nil, err
	}
	fs, err := filtersset.Parse(name, content)
	if err != nil {
		r.logger.InfoContext(ctx, "Script is not editable",
			slog.String("script", name),
			slog.String("reason", err.Error()))
	}
	return fs, err
}

func (r *SieveFiltersSetRepository) LoadRaw(ctx context.Context, name string) (string, error) {
	content, err := r.client.GetScript(ctx, name)
	if err != nil {
		return "", r.mapError(ctx, name, err)
	}
	return content, nil
}

func (r *SieveFiltersSetRepository) Save(ctx context.Context, fs *filtersset.FiltersSet) error {
	return r.SaveRaw(ctx, fs.Name, fs.String())
}

// SaveRaw checks the quota, then stores content.
func (r *SieveFiltersSetRepository) SaveRaw(ctx context.Context, name string, content string) error {
	if err := r.client.HaveSpace(ctx, name, len(content)); err != nil {
		return r.mapError(ctx, name, err)
	}
	if err := r.client.PutScript(ctx, name, content); err != nil {
		return r.mapError(ctx, name, err)
	}
	r.logger.InfoContext(ctx, "Script saved",
		slog.String("script", name),
		slog.Int("size", len(content)))
	return nil
}

func (r *SieveFiltersSetRepository) Delete(ctx context.Context, name string) error {
	if err := r.client.DeleteScript(ctx, name); err != nil {
		return r.mapError(ctx, name, err)
	}
	r.logger.InfoContext(ctx, "Script deleted", slog.String("script", name))
	return nil
}

func (r *SieveFiltersSetRepository) Activate(ctx context.Context, name string) error {
	if err := r.client.SetActive(ctx, name); err != nil {
		return r.mapError(ctx, name, err)
	}
	r.logger.InfoContext(ctx, "Script activated", slog.String("script", name))
	return nil
}

func (r *SieveFiltersSetRepository) mapError(ctx context.Context, name string, err error) error {
	switch {
	case managesieve.IsResponseCode(err, "NONEXISTENT"):
		return errors.Wrap(ErrFiltersSetNotFound, name)
	case managesieve.IsResponseCode(err, "ACTIVE"):
		return errors.Wrap(ErrActiveSetDeletion, name)
	}
	r.logger.ErrorContext(ctx, "ManageSieve command failed",
		slog.String("script", name),
		slog.Any("error", utils.WrapError(err)))
	return err
}
