package filtersset

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/emersion/go-message/mail"
	"github.com/pkg/errors"
)

var sizeValue = regexp.MustCompile(`^[0-9]+[KMG]?$`)

// Validate checks the filter can be rendered and parsed back.
func (f *Filter) Validate() error {
	if err := ValidateName(f.Name); err != nil {
		return err
	}
	switch f.MatchType {
	case MatchAll:
	case MatchAnyOf, MatchAllOf:
		if len(f.Conditions) == 0 {
			return errors.New("at least one condition is required")
		}
	default:
		return errors.Errorf("unknown match type %q", f.MatchType)
	}
	for i, c := range f.Conditions {
		if err := c.validate(); err != nil {
			return errors.Wrapf(err, "condition %d", i+1)
		}
	}
	if len(f.Actions) == 0 {
		return errors.New("at least one action is required")
	}
	for i, a := range f.Actions {
		if err := a.validate(); err != nil {
			return errors.Wrapf(err, "action %d", i+1)
		}
	}
	return nil
}

func (c Condition) validate() error {
	if strings.ContainsAny(c.Target+c.Value, "\r\n") {
		return errors.New("line breaks are not allowed")
	}
	if c.Target == TargetSize {
		if c.Operator != "over" && c.Operator != "under" {
			return errors.Errorf("unknown size operator %q", c.Operator)
		}
		if !sizeValue.MatchString(strings.ToUpper(c.Value)) {
			return errors.Errorf("invalid size %q", c.Value)
		}
		return nil
	}
	if strings.TrimSpace(c.Target) == "" {
		return errors.New("header name is required")
	}
	if _, ok := HeaderOperators[c.Operator]; !ok {
		return errors.Errorf("unknown operator %q", c.Operator)
	}
	return nil
}

func (a Action) validate() error {
	arity, ok := ActionArity[a.Name]
	if !ok {
		return errors.Errorf("unknown action %q", a.Name)
	}
	if len(a.Args) != arity {
		return errors.Errorf("%s takes %d argument(s)", a.Name, arity)
	}
	for _, arg := range a.Args {
		if strings.TrimSpace(arg) == "" {
			return errors.Errorf("%s needs a value", a.Name)
		}
		if strings.ContainsAny(arg, "\r\n") {
			return errors.New("line breaks are not allowed")
		}
	}
	if a.Name == "redirect" {
		if _, err := mail.ParseAddress(a.Args[0]); err != nil {
			return errors.Wrapf(err, "invalid redirect address %q", a.Args[0])
		}
	}
	return nil
}

// Test renders the filter condition.
func (f *Filter) Test() string {
	if f.MatchType == MatchAll {
		return "true"
	}
	tests := make([]string, 0, len(f.Conditions))
	for _, c := range f.Conditions {
		tests = append(tests, c.String())
	}
	return fmt.Sprintf("%s (%s)", f.MatchType, strings.Join(tests, ", "))
}

func (c Condition) String() string {
	if c.Target == TargetSize {
		return fmt.Sprintf("size :%s %s", c.Operator, strings.ToUpper(c.Value))
	}
	def := HeaderOperators[c.Operator]
	test := fmt.Sprintf("header :%s %s %s", def.Tag, quote(c.Target), quote(c.Value))
	if def.Negate {
		return "not " + test
	}
	return test
}

func (a Action) String() string {
	if len(a.Args) == 0 {
		return a.Name + ";"
	}
	args := make([]string, 0, len(a.Args))
	for _, arg := range a.Args {
		args = append(args, quote(arg))
	}
	return fmt.Sprintf("%s %s;", a.Name, strings.Join(args, " "))
}

// String renders the marker comment and the if block. A disabled filter
// keeps its test in a comment behind "if false".
func (f *Filter) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s %s\n", filterMarker, f.Name)
	if f.Enabled {
		fmt.Fprintf(&b, "if %s {\n", f.Test())
	} else {
		fmt.Fprintf(&b, "if false # %s\n{\n", f.Test())
	}
	for _, a := range f.Actions {
		fmt.Fprintf(&b, "    %s\n", a.String())
	}
	b.WriteString("}\n")
	return b.String()
}
