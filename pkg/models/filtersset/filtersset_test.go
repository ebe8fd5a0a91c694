package filtersset

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleScript = `require ["fileinto"];

# Filter: test1
if anyof (header :contains "Subject" "Test") {
    fileinto "Test";
}

# Filter: test2
if allof (header :is "From" "toto@toto.com", size :over 100K) {
    fileinto "Toto";
    stop;
}
`

func filterNames(fs *FiltersSet) []string {
	names := make([]string, 0, len(fs.Filters))
	for _, f := range fs.Filters {
		names = append(names, f.Name)
	}
	return names
}

func TestParse(t *testing.T) {
	fs, err := Parse("main_script", sampleScript)
	require.NoError(t, err)

	assert.Equal(t, "main_script", fs.Name)
	assert.Equal(t, []string{"fileinto"}, fs.Requirements)
	assert.Equal(t, []string{"test1", "test2"}, filterNames(fs))

	test2 := fs.Get("test2")
	require.NotNil(t, test2)
	assert.True(t, test2.Enabled)
	assert.Equal(t, MatchAllOf, test2.MatchType)
	assert.Equal(t, []Condition{
		{Target: "From", Operator: "is", Value: "toto@toto.com"},
		{Target: "size", Operator: "over", Value: "100K"},
	}, test2.Conditions)
	assert.Equal(t, []Action{
		{Name: "fileinto", Args: []string{"Toto"}},
		{Name: "stop"},
	}, test2.Actions)
}

func TestStringRoundTrip(t *testing.T) {
	fs, err := Parse("main_script", sampleScript)
	require.NoError(t, err)
	assert.Equal(t, sampleScript, fs.String())
}

func TestToggle(t *testing.T) {
	fs, err := Parse("main_script", sampleScript)
	require.NoError(t, err)

	enabled, err := fs.Toggle("test1")
	require.NoError(t, err)
	assert.False(t, enabled)

	script := fs.String()
	assert.Contains(t, script, "if false # anyof (header :contains \"Subject\" \"Test\")\n{\n")
	require.NoError(t, ValidateScript(script))

	reparsed, err := Parse("main_script", script)
	require.NoError(t, err)
	test1 := reparsed.Get("test1")
	require.NotNil(t, test1)
	assert.False(t, test1.Enabled)
	assert.Equal(t, []Condition{{Target: "Subject", Operator: "contains", Value: "Test"}}, test1.Conditions)

	enabled, err = reparsed.Toggle("test1")
	require.NoError(t, err)
	assert.True(t, enabled)
	assert.Equal(t, sampleScript, reparsed.String())

	_, err = fs.Toggle("missing")
	assert.True(t, errors.Is(err, ErrFilterNotFound))
}

func TestMove(t *testing.T) {
	tests := []struct {
		name  string
		move  func(fs *FiltersSet) error
		order []string
	}{
		{
			name:  "move last up",
			move:  func(fs *FiltersSet) error { return fs.MoveUp("test2") },
			order: []string{"test2", "test1"},
		},
		{
			name:  "move first down",
			move:  func(fs *FiltersSet) error { return fs.MoveDown("test1") },
			order: []string{"test2", "test1"},
		},
		{
			name:  "move first up is a no-op",
			move:  func(fs *FiltersSet) error { return fs.MoveUp("test1") },
			order: []string{"test1", "test2"},
		},
		{
			name:  "move last down is a no-op",
			move:  func(fs *FiltersSet) error { return fs.MoveDown("test2") },
			order: []string{"test1", "test2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs, err := Parse("main_script", sampleScript)
			require.NoError(t, err)
			require.NoError(t, tt.move(fs))
			assert.Equal(t, tt.order, filterNames(fs))

			script := fs.String()
			assert.Less(t,
				strings.Index(script, "# Filter: "+tt.order[0]),
				strings.Index(script, "# Filter: "+tt.order[1]))
		})
	}
}

func TestAddUpdateRemove(t *testing.T) {
	fs, err := Parse("main_script", sampleScript)
	require.NoError(t, err)

	spam := &Filter{
		Name:       "spam",
		MatchType:  MatchAnyOf,
		Conditions: []Condition{{Target: "X-Spam-Flag", Operator: "is", Value: "YES"}},
		Actions:    []Action{{Name: "addflag", Args: []string{`\Seen`}}, {Name: "fileinto", Args: []string{"Junk"}}},
		Enabled:    true,
	}
	require.NoError(t, fs.Add(spam))
	assert.True(t, errors.Is(fs.Add(spam), ErrFilterExists))

	script := fs.String()
	assert.True(t, strings.HasPrefix(script, `require ["fileinto", "imap4flags"];`))
	assert.Contains(t, script, `addflag "\\Seen";`)
	require.NoError(t, ValidateScript(script))

	renamed := *spam
	renamed.Name = "junk"
	require.NoError(t, fs.Update("spam", &renamed))
	assert.Equal(t, []string{"test1", "test2", "junk"}, filterNames(fs))
	assert.True(t, errors.Is(fs.Update("spam", &renamed), ErrFilterNotFound))

	clash := renamed
	clash.Name = "test1"
	assert.True(t, errors.Is(fs.Update("junk", &clash), ErrFilterExists))

	require.NoError(t, fs.Remove("test1"))
	assert.Equal(t, []string{"test2", "junk"}, filterNames(fs))
	assert.True(t, errors.Is(fs.Remove("test1"), ErrFilterNotFound))

	reparsed, err := Parse("main_script", fs.String())
	require.NoError(t, err)
	assert.Equal(t, filterNames(fs), filterNames(reparsed))
	assert.Equal(t, `\Seen`, reparsed.Get("junk").Actions[0].Args[0])
}

func TestParseUnsupported(t *testing.T) {
	tests := []struct {
		name   string
		script string
	}{
		{
			name:   "unnamed block",
			script: "if header :contains \"Subject\" \"x\" { discard; }\n",
		},
		{
			name:   "else branch",
			script: "# Filter: a\nif true { keep; } else { discard; }\n",
		},
		{
			name:   "unknown action",
			script: "require \"vacation\";\n# Filter: a\nif true { vacation \"away\"; }\n",
		},
		{
			name:   "unterminated string",
			script: "# Filter: a\nif header :is \"Subject \"x\" { keep; }\n",
		},
		{
			name:   "address test",
			script: "# Filter: a\nif address :is \"from\" \"a@b.c\" { keep; }\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs, err := Parse("raw", tt.script)
			assert.True(t, errors.Is(err, ErrUnsupportedScript), "got %v", err)
			assert.Equal(t, tt.script, fs.Raw)
		})
	}
}

func TestParseTolerance(t *testing.T) {
	script := `require "fileinto";
/* generated */
# Filter: single
if not header :comparator "i;ascii-casemap" :contains "Subject" "hello" {
    # keep everything else
    fileinto "Other";
}
# Filter: everything
if true {
    keep;
}
`
	fs, err := Parse("s", script)
	require.NoError(t, err)
	assert.Equal(t, []Condition{{Target: "Subject", Operator: "notcontains", Value: "hello"}}, fs.Get("single").Conditions)
	assert.Equal(t, MatchAnyOf, fs.Get("single").MatchType)
	assert.Equal(t, MatchAll, fs.Get("everything").MatchType)
	assert.Empty(t, fs.Get("everything").Conditions)
}

func TestFilterValidate(t *testing.T) {
	base := Filter{
		Name:       "f",
		MatchType:  MatchAnyOf,
		Conditions: []Condition{{Target: "Subject", Operator: "contains", Value: "x"}},
		Actions:    []Action{{Name: "discard"}},
	}

	tests := []struct {
		name    string
		mutate  func(f *Filter)
		wantErr string
	}{
		{name: "valid", mutate: func(f *Filter) {}},
		{name: "empty name", mutate: func(f *Filter) { f.Name = " " }, wantErr: "empty"},
		{name: "slash in name", mutate: func(f *Filter) { f.Name = "a/b" }, wantErr: "invalid characters"},
		{name: "newline in name", mutate: func(f *Filter) { f.Name = "first\nsecond" }, wantErr: "invalid characters"},
		{name: "carriage return in name", mutate: func(f *Filter) { f.Name = "first\rsecond" }, wantErr: "invalid characters"},
		{name: "longest name", mutate: func(f *Filter) { f.Name = strings.Repeat("a", MaxNameLength) }},
		{name: "longest multibyte name", mutate: func(f *Filter) { f.Name = strings.Repeat("é", MaxNameLength) }},
		{name: "name too long", mutate: func(f *Filter) { f.Name = strings.Repeat("a", MaxNameLength+1) }, wantErr: "too long"},
		{name: "no conditions", mutate: func(f *Filter) { f.Conditions = nil }, wantErr: "condition"},
		{name: "all without conditions", mutate: func(f *Filter) { f.MatchType = MatchAll; f.Conditions = nil }},
		{name: "no actions", mutate: func(f *Filter) { f.Actions = nil }, wantErr: "action"},
		{name: "bad operator", mutate: func(f *Filter) { f.Conditions[0].Operator = "near" }, wantErr: "unknown operator"},
		{name: "bad size", mutate: func(f *Filter) { f.Conditions[0] = Condition{Target: "size", Operator: "over", Value: "big"} }, wantErr: "invalid size"},
		{name: "missing fileinto folder", mutate: func(f *Filter) { f.Actions = []Action{{Name: "fileinto"}} }, wantErr: "argument"},
		{name: "bad redirect", mutate: func(f *Filter) { f.Actions = []Action{{Name: "redirect", Args: []string{"not an address"}}} }, wantErr: "redirect"},
		{name: "good redirect", mutate: func(f *Filter) { f.Actions = []Action{{Name: "redirect", Args: []string{"user@example.com"}}} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := base
			f.Conditions = append([]Condition(nil), base.Conditions...)
			tt.mutate(&f)
			err := f.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateScript(t *testing.T) {
	assert.NoError(t, ValidateScript(sampleScript))
	assert.Error(t, ValidateScript("if header {"))
}
