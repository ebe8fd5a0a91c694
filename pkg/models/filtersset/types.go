package filtersset

import (
	"github.com/pkg/errors"
)

const (
	MatchAnyOf = "anyof"
	MatchAllOf = "allof"
	MatchAll   = "all"

	TargetSize = "size"

	MaxNameLength = 128
)

var (
	ErrUnsupportedScript = errors.New("script cannot be edited with the filters editor")
	ErrFilterNotFound    = errors.New("filter not found")
	ErrFilterExists      = errors.New("a filter with this name already exists")
	ErrInvalidName       = errors.New("invalid name")
)

// HeaderOperators maps the editor operators to their sieve match type and
// whether the test is negated.
var HeaderOperators = map[string]struct {
	Tag    string
	Negate bool
}{
	"contains":    {"contains", false},
	"notcontains": {"contains", true},
	"is":          {"is", false},
	"isnot":       {"is", true},
	"matches":     {"matches", false},
	"notmatches":  {"matches", true},
}

var SizeOperators = []string{"over", "under"}

// ActionArity is the number of arguments each supported action takes.
var ActionArity = map[string]int{
	"fileinto": 1,
	"redirect": 1,
	"addflag":  1,
	"discard":  0,
	"keep":     0,
	"stop":     0,
}

// actionRequirements lists the extension each action needs, if any.
var actionRequirements = map[string]string{
	"fileinto": "fileinto",
	"addflag":  "imap4flags",
}

type Condition struct {
	Target   string `json:"target"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

type Action struct {
	Name string   `json:"name"`
	Args []string `json:"args,omitempty"`
}

type Filter struct {
	Name       string      `json:"name"`
	MatchType  string      `json:"match_type"`
	Conditions []Condition `json:"conditions"`
	Actions    []Action    `json:"actions"`
	Enabled    bool        `json:"enabled"`
}

// FiltersSet is a sieve script seen as an ordered list of named filters.
type FiltersSet struct {
	Name         string
	Requirements []string
	Filters      []*Filter
	Raw          string
}
