// Package testutil provides function-field fakes shared by the service and
// CLI tests.
package testutil

import (
	"context"
	"os"
	"sort"

	"aaronromeo.com/sievefilters/pkg/base"
	"aaronromeo.com/sievefilters/pkg/models/filtersset"
	"aaronromeo.com/sievefilters/pkg/repositories"
	"github.com/pkg/errors"
)

// MockFiltersSetRepository keeps scripts in memory. Function fields
// override the default behaviour.
type MockFiltersSetRepository struct {
	ListFunc     func(ctx context.Context) ([]base.ScriptInfo, error)
	SaveRawFunc  func(ctx context.Context, name string, content string) error
	DeleteFunc   func(ctx context.Context, name string) error
	ActivateFunc func(ctx context.Context, name string) error

	Scripts map[string]string
	Active  string

	// Track calls for verification in tests
	SavedScripts []string
	Deleted      []string
}

// NewMockFiltersSetRepository creates a repository holding scripts.
func NewMockFiltersSetRepository(scripts map[string]string, active string) *MockFiltersSetRepository {
	m := &MockFiltersSetRepository{Scripts: map[string]string{}, Active: active}
	for name, content := range scripts {
		m.Scripts[name] = content
	}
	return m
}

func (m *MockFiltersSetRepository) List(ctx context.Context) ([]base.ScriptInfo, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	scripts := make([]base.ScriptInfo, 0, len(m.Scripts))
	for name := range m.Scripts {
		scripts = append(scripts, base.ScriptInfo{Name: name, Active: name == m.Active})
	}
	sort.Slice(scripts, func(i, j int) bool {
		return scripts[i].Name < scripts[j].Name
	})
	return scripts, nil
}

func (m *MockFiltersSetRepository) Load(ctx context.Context, name string) (*filtersset.FiltersSet, error) {
	content, err := m.LoadRaw(ctx, name)
	if err != nil {
		return nil, err
	}
	return filtersset.Parse(name, content)
}

func (m *MockFiltersSetRepository) LoadRaw(_ context.Context, name string) (string, error) {
	content, ok := m.Scripts[name]
	if !ok {
		return "", errors.Wrap(repositories.ErrFiltersSetNotFound, name)
	}
	return content, nil
}

func (m *MockFiltersSetRepository) Save(ctx context.Context, fs *filtersset.FiltersSet) error {
	return m.SaveRaw(ctx, fs.Name, fs.String())
}

func (m *MockFiltersSetRepository) SaveRaw(ctx context.Context, name string, content string) error {
	m.SavedScripts = append(m.SavedScripts, name)
	if m.SaveRawFunc != nil {
		if err := m.SaveRawFunc(ctx, name, content); err != nil {
			return err
		}
	}
	m.Scripts[name] = content
	return nil
}

func (m *MockFiltersSetRepository) Delete(ctx context.Context, name string) error {
	m.Deleted = append(m.Deleted, name)
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, name)
	}
	if _, ok := m.Scripts[name]; !ok {
		return errors.Wrap(repositories.ErrFiltersSetNotFound, name)
	}
	if name == m.Active {
		return errors.Wrap(repositories.ErrActiveSetDeletion, name)
	}
	delete(m.Scripts, name)
	return nil
}

func (m *MockFiltersSetRepository) Activate(ctx context.Context, name string) error {
	if m.ActivateFunc != nil {
		return m.ActivateFunc(ctx, name)
	}
	if _, ok := m.Scripts[name]; !ok && name != "" {
		return errors.Wrap(repositories.ErrFiltersSetNotFound, name)
	}
	m.Active = name
	return nil
}

// MockFileManager provides a mock implementation of utils.FileManager for testing.
// It tracks all file operations and allows injection of custom behavior and errors.
type MockFileManager struct {
	WriteFileFunc func(filename string, data []byte, perm os.FileMode) error
	MkdirAllFunc  func(path string, perm os.FileMode) error
	ReadFileFunc  func(filename string) ([]byte, error)

	// Track calls for verification in tests
	WrittenFiles map[string][]byte
	WrittenPerms map[string]os.FileMode
	CreatedDirs  map[string]os.FileMode
}

// NewMockFileManager creates a new MockFileManager with initialized tracking maps.
func NewMockFileManager() *MockFileManager {
	return &MockFileManager{
		WrittenFiles: make(map[string][]byte),
		WrittenPerms: make(map[string]os.FileMode),
		CreatedDirs:  make(map[string]os.FileMode),
	}
}

// WriteFile implements utils.FileManager.WriteFile for testing.
func (m *MockFileManager) WriteFile(filename string, data []byte, perm os.FileMode) error {
	if m.WriteFileFunc != nil {
		if err := m.WriteFileFunc(filename, data, perm); err != nil {
			return err
		}
	}
	m.WrittenFiles[filename] = data
	m.WrittenPerms[filename] = perm
	return nil
}

// MkdirAll implements utils.FileManager.MkdirAll for testing.
func (m *MockFileManager) MkdirAll(path string, perm os.FileMode) error {
	if m.MkdirAllFunc != nil {
		if err := m.MkdirAllFunc(path, perm); err != nil {
			return err
		}
	}
	m.CreatedDirs[path] = perm
	return nil
}

// ReadFile implements utils.FileManager.ReadFile for testing. Files written
// through the mock can be read back.
func (m *MockFileManager) ReadFile(filename string) ([]byte, error) {
	if m.ReadFileFunc != nil {
		return m.ReadFileFunc(filename)
	}
	data, ok := m.WrittenFiles[filename]
	if !ok {
		return nil, os.ErrNotExist
	}
	return data, nil
}
