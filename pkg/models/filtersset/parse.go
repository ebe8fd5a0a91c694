package filtersset

import (
	"strings"

	"github.com/pkg/errors"
)

const filterMarker = "Filter:"

type parser struct {
	tokens []token
	pos    int
}

// Parse reads a script produced by the filters editor. Scripts outside the
// supported grammar yield ErrUnsupportedScript; Raw is always set.
func Parse(name string, content string) (*FiltersSet, error) {
	fs := &FiltersSet{Name: name, Raw: content}
	tokens, err := lex(content)
	if err != nil {
		return fs, unsupported(err)
	}

	p := &parser{tokens: tokens}
	pending := ""
	for !p.done() {
		tok := p.next()
		switch {
		case tok.kind == tkComment:
			if marker, ok := markerName(tok.value); ok {
				pending = marker
			}
		case tok.is(tkIdent, "require"):
			reqs, err := p.stringOrList()
			if err != nil {
				return fs, unsupported(err)
			}
			if err := p.expect(tkSemicolon); err != nil {
				return fs, unsupported(err)
			}
			fs.Requirements = appendMissing(fs.Requirements, reqs...)
		case tok.is(tkIdent, "if"):
			if pending == "" {
				return fs, unsupported(errors.Errorf("line %d: unnamed if block", tok.line))
			}
			filter, err := p.filter(pending, tok.line)
			if err != nil {
				return fs, unsupported(err)
			}
			if fs.Get(filter.Name) != nil {
				return fs, unsupported(errors.Errorf("duplicate filter %q", filter.Name))
			}
			fs.Filters = append(fs.Filters, filter)
			pending = ""
		default:
			return fs, unsupported(errors.Errorf("line %d: unexpected %q", tok.line, tok.value))
		}
	}
	return fs, nil
}

func unsupported(err error) error {
	return errors.Wrap(ErrUnsupportedScript, err.Error())
}

func markerName(comment string) (string, bool) {
	text := strings.TrimSpace(comment)
	if !strings.HasPrefix(text, filterMarker) {
		return "", false
	}
	name := strings.TrimSpace(strings.TrimPrefix(text, filterMarker))
	return name, name != ""
}

func (p *parser) done() bool {
	return p.pos >= len(p.tokens)
}

func (p *parser) peek() (token, bool) {
	if p.done() {
		return token{}, false
	}
	return p.tokens[p.pos], true
}

func (p *parser) next() token {
	tok := p.tokens[p.pos]
	p.pos++
	return tok
}

// skipComments drops comments inside blocks and tests.
func (p *parser) skipComments() {
	for !p.done() && p.tokens[p.pos].kind == tkComment {
		p.pos++
	}
}

func (p *parser) expect(kind tokenKind) error {
	p.skipComments()
	tok, ok := p.peek()
	if !ok {
		return errors.New("unexpected end of script")
	}
	if tok.kind != kind {
		return errors.Errorf("line %d: unexpected %q", tok.line, tok.value)
	}
	p.pos++
	return nil
}

func (p *parser) stringOrList() ([]string, error) {
	p.skipComments()
	tok, ok := p.peek()
	if !ok {
		return nil, errors.New("unexpected end of script")
	}
	if tok.kind == tkString {
		p.pos++
		return []string{tok.value}, nil
	}
	if err := p.expect(tkLBracket); err != nil {
		return nil, err
	}
	var values []string
	for {
		p.skipComments()
		tok, ok := p.peek()
		if !ok {
			return nil, errors.New("unterminated string list")
		}
		if tok.kind != tkString {
			return nil, errors.Errorf("line %d: expected string, got %q", tok.line, tok.value)
		}
		p.pos++
		values = append(values, tok.value)
		p.skipComments()
		sep, ok := p.peek()
		if !ok {
			return nil, errors.New("unterminated string list")
		}
		p.pos++
		if sep.kind == tkRBracket {
			return values, nil
		}
		if sep.kind != tkComma {
			return nil, errors.Errorf("line %d: unexpected %q in string list", sep.line, sep.value)
		}
	}
}

func (p *parser) filter(name string, line int) (*Filter, error) {
	f := &Filter{Name: name, Enabled: true}

	tok, ok := p.peek()
	if ok && tok.is(tkIdent, "false") && p.pos+1 < len(p.tokens) {
		comment := p.tokens[p.pos+1]
		if comment.kind == tkComment && comment.line == tok.line {
			p.pos += 2
			if err := parseTestText(f, comment.value); err != nil {
				return nil, errors.Wrapf(err, "filter %q", name)
			}
			f.Enabled = false
		}
	}
	if f.Enabled {
		if err := p.test(f); err != nil {
			return nil, errors.Wrapf(err, "filter %q", name)
		}
	}

	if err := p.expect(tkLBrace); err != nil {
		return nil, errors.Wrapf(err, "filter %q", name)
	}
	for {
		p.skipComments()
		tok, ok := p.peek()
		if !ok {
			return nil, errors.Errorf("filter %q: block opened on line %d is not closed", name, line)
		}
		if tok.kind == tkRBrace {
			p.pos++
			break
		}
		action, err := p.action()
		if err != nil {
			return nil, errors.Wrapf(err, "filter %q", name)
		}
		f.Actions = append(f.Actions, action)
	}

	// elsif/else chains are not representable as a single filter
	if tok, ok := p.peek(); ok && (tok.is(tkIdent, "elsif") || tok.is(tkIdent, "else")) {
		return nil, errors.Errorf("filter %q: %s branches are not supported", name, tok.value)
	}
	return f, nil
}

func parseTestText(f *Filter, text string) error {
	tokens, err := lex(text)
	if err != nil {
		return err
	}
	p := &parser{tokens: tokens}
	if err := p.test(f); err != nil {
		return err
	}
	if !p.done() {
		return errors.Errorf("trailing %q after test", p.tokens[p.pos].value)
	}
	return nil
}

func (p *parser) test(f *Filter) error {
	p.skipComments()
	tok, ok := p.peek()
	if !ok {
		return errors.New("missing test")
	}
	switch {
	case tok.is(tkIdent, "true"):
		p.pos++
		f.MatchType = MatchAll
		return nil
	case tok.is(tkIdent, MatchAnyOf), tok.is(tkIdent, MatchAllOf):
		p.pos++
		f.MatchType = strings.ToLower(tok.value)
		if err := p.expect(tkLParen); err != nil {
			return err
		}
		for {
			cond, err := p.condition()
			if err != nil {
				return err
			}
			f.Conditions = append(f.Conditions, cond)
			p.skipComments()
			sep, ok := p.peek()
			if !ok {
				return errors.New("unterminated test list")
			}
			p.pos++
			if sep.kind == tkRParen {
				return nil
			}
			if sep.kind != tkComma {
				return errors.Errorf("line %d: unexpected %q in test list", sep.line, sep.value)
			}
		}
	default:
		cond, err := p.condition()
		if err != nil {
			return err
		}
		f.MatchType = MatchAnyOf
		f.Conditions = []Condition{cond}
		return nil
	}
}

func (p *parser) condition() (Condition, error) {
	p.skipComments()
	if p.done() {
		return Condition{}, errors.New("missing test")
	}
	tok := p.next()
	negate := false
	if tok.is(tkIdent, "not") {
		negate = true
		p.skipComments()
		if p.done() {
			return Condition{}, errors.New("missing test after not")
		}
		tok = p.next()
	}

	switch {
	case tok.is(tkIdent, "header"):
		matchTag := "is"
		for {
			p.skipComments()
			tag, ok := p.peek()
			if !ok || tag.kind != tkTag {
				break
			}
			p.pos++
			if strings.EqualFold(tag.value, "comparator") {
				if _, err := p.stringOrList(); err != nil {
					return Condition{}, err
				}
				continue
			}
			matchTag = strings.ToLower(tag.value)
		}
		names, err := p.stringOrList()
		if err != nil {
			return Condition{}, err
		}
		values, err := p.stringOrList()
		if err != nil {
			return Condition{}, err
		}
		if len(names) != 1 || len(values) != 1 {
			return Condition{}, errors.Errorf("line %d: header tests with lists are not supported", tok.line)
		}
		for op, def := range HeaderOperators {
			if def.Tag == matchTag && def.Negate == negate {
				return Condition{Target: names[0], Operator: op, Value: values[0]}, nil
			}
		}
		return Condition{}, errors.Errorf("line %d: unsupported match type :%s", tok.line, matchTag)
	case tok.is(tkIdent, TargetSize):
		if negate {
			return Condition{}, errors.Errorf("line %d: negated size tests are not supported", tok.line)
		}
		p.skipComments()
		if p.done() {
			return Condition{}, errors.New("missing size comparator")
		}
		tag := p.next()
		if tag.kind != tkTag || (!strings.EqualFold(tag.value, "over") && !strings.EqualFold(tag.value, "under")) {
			return Condition{}, errors.Errorf("line %d: size needs :over or :under", tag.line)
		}
		p.skipComments()
		if p.done() {
			return Condition{}, errors.New("missing size limit")
		}
		limit := p.next()
		if limit.kind != tkNumber {
			return Condition{}, errors.Errorf("line %d: expected a number, got %q", limit.line, limit.value)
		}
		return Condition{Target: TargetSize, Operator: strings.ToLower(tag.value), Value: strings.ToUpper(limit.value)}, nil
	default:
		return Condition{}, errors.Errorf("line %d: unsupported test %q", tok.line, tok.value)
	}
}

func (p *parser) action() (Action, error) {
	tok := p.next()
	if tok.kind != tkIdent {
		return Action{}, errors.Errorf("line %d: unexpected %q", tok.line, tok.value)
	}
	name := strings.ToLower(tok.value)
	arity, ok := ActionArity[name]
	if !ok {
		return Action{}, errors.Errorf("line %d: unsupported action %q", tok.line, tok.value)
	}
	action := Action{Name: name}
	for i := 0; i < arity; i++ {
		args, err := p.stringOrList()
		if err != nil {
			return Action{}, err
		}
		if len(args) != 1 {
			return Action{}, errors.Errorf("line %d: %s takes a single argument", tok.line, name)
		}
		action.Args = append(action.Args, args[0])
	}
	if err := p.expect(tkSemicolon); err != nil {
		return Action{}, err
	}
	return action, nil
}
