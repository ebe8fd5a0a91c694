package filtersset

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/foxcpp/go-sieve"
	"github.com/pkg/errors"
)

// New returns an empty filters set.
func New(name string) *FiltersSet {
	return &FiltersSet{Name: name}
}

// ValidateName checks a filters set or filter name.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.Wrap(ErrInvalidName, "name cannot be empty")
	}
	if strings.TrimSpace(name) != name {
		return errors.Wrap(ErrInvalidName, "name cannot start or end with spaces")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return errors.Wrapf(ErrInvalidName, "name too long (max %d characters)", MaxNameLength)
	}
	if strings.ContainsAny(name, "\r\n\x00/") {
		return errors.Wrap(ErrInvalidName, "name contains invalid characters")
	}
	return nil
}

// Get returns the named filter or nil.
func (fs *FiltersSet) Get(name string) *Filter {
	idx := fs.index(name)
	if idx == -1 {
		return nil
	}
	return fs.Filters[idx]
}

func (fs *FiltersSet) index(name string) int {
	for i, f := range fs.Filters {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Add appends a filter at the end of the set.
func (fs *FiltersSet) Add(f *Filter) error {
	if err := f.Validate(); err != nil {
		return err
	}
	if fs.index(f.Name) != -1 {
		return errors.Wrap(ErrFilterExists, f.Name)
	}
	fs.Filters = append(fs.Filters, f)
	return nil
}

// Update replaces the filter called oldName, keeping its position.
func (fs *FiltersSet) Update(oldName string, f *Filter) error {
	idx := fs.index(oldName)
	if idx == -1 {
		return errors.Wrap(ErrFilterNotFound, oldName)
	}
	if err := f.Validate(); err != nil {
		return err
	}
	if f.Name != oldName && fs.index(f.Name) != -1 {
		return errors.Wrap(ErrFilterExists, f.Name)
	}
	fs.Filters[idx] = f
	return nil
}

func (fs *FiltersSet) Remove(name string) error {
	idx := fs.index(name)
	if idx == -1 {
		return errors.Wrap(ErrFilterNotFound, name)
	}
	fs.Filters = append(fs.Filters[:idx], fs.Filters[idx+1:]...)
	return nil
}

// Toggle flips the state of a filter and returns the new state.
func (fs *FiltersSet) Toggle(name string) (bool, error) {
	f := fs.Get(name)
	if f == nil {
		return false, errors.Wrap(ErrFilterNotFound, name)
	}
	f.Enabled = !f.Enabled
	return f.Enabled, nil
}

func (fs *FiltersSet) MoveUp(name string) error {
	idx := fs.index(name)
	if idx == -1 {
		return errors.Wrap(ErrFilterNotFound, name)
	}
	if idx > 0 {
		fs.Filters[idx-1], fs.Filters[idx] = fs.Filters[idx], fs.Filters[idx-1]
	}
	return nil
}

func (fs *FiltersSet) MoveDown(name string) error {
	idx := fs.index(name)
	if idx == -1 {
		return errors.Wrap(ErrFilterNotFound, name)
	}
	if idx < len(fs.Filters)-1 {
		fs.Filters[idx+1], fs.Filters[idx] = fs.Filters[idx], fs.Filters[idx+1]
	}
	return nil
}

// String renders the set as a sieve script.
func (fs *FiltersSet) String() string {
	reqs := append([]string(nil), fs.Requirements...)
	for _, f := range fs.Filters {
		for _, a := range f.Actions {
			if ext, ok := actionRequirements[a.Name]; ok {
				reqs = appendMissing(reqs, ext)
			}
		}
	}
	sort.Strings(reqs)

	var b strings.Builder
	if len(reqs) > 0 {
		fmt.Fprintf(&b, "require %s;\n\n", quoteList(reqs))
	}
	for i, f := range fs.Filters {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(f.String())
	}
	return b.String()
}

// Validate loads the rendered script with the sieve interpreter.
func (fs *FiltersSet) Validate() error {
	return ValidateScript(fs.String())
}

// SupportedExtensions are the extensions local validation accepts in
// require statements.
var SupportedExtensions = []string{
	"fileinto",
	"envelope",
	"encoded-character",
	"comparator-i;octet",
	"comparator-i;ascii-casemap",
	"comparator-i;ascii-numeric",
	"comparator-i;unicode-casemap",
	"imap4flags",
	"variables",
	"relational",
	"vacation",
	"copy",
	"regex",
}

// ValidateScript checks that content is a loadable sieve script.
func ValidateScript(content string) error {
	options := sieve.DefaultOptions()
	options.EnabledExtensions = SupportedExtensions
	if _, err := sieve.Load(strings.NewReader(content), options); err != nil {
		return errors.Wrap(err, "invalid sieve script")
	}
	return nil
}

func appendMissing(list []string, values ...string) []string {
	for _, v := range values {
		found := false
		for _, existing := range list {
			if existing == v {
				found = true
				break
			}
		}
		if !found {
			list = append(list, v)
		}
	}
	return list
}
