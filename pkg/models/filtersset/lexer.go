package filtersset

import (
	"strings"

	"github.com/pkg/errors"
)

type tokenKind int

const (
	tkIdent tokenKind = iota
	tkTag
	tkString
	tkNumber
	tkComment
	tkLParen
	tkRParen
	tkLBracket
	tkRBracket
	tkLBrace
	tkRBrace
	tkComma
	tkSemicolon
)

type token struct {
	kind  tokenKind
	value string
	line  int
}

func (t token) is(kind tokenKind, value string) bool {
	return t.kind == kind && strings.EqualFold(t.value, value)
}

// lex splits a sieve script into tokens. Hash comments are kept since the
// filter markers and disabled tests live in them; bracket comments are not.
func lex(src string) ([]token, error) {
	var tokens []token
	line := 1
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == '\n':
			line++
			i++
		case c == ' ' || c == '\t' || c == '\r':
			i++
		case c == '#':
			end := strings.IndexByte(src[i:], '\n')
			if end == -1 {
				end = len(src) - i
			}
			text := strings.TrimRight(src[i+1:i+end], "\r")
			tokens = append(tokens, token{kind: tkComment, value: text, line: line})
			i += end
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			end := strings.Index(src[i+2:], "*/")
			if end == -1 {
				return nil, errors.Errorf("line %d: unterminated comment", line)
			}
			line += strings.Count(src[i:i+2+end], "\n")
			i += end + 4
		case c == '"':
			value, n, err := lexQuoted(src[i:])
			if err != nil {
				return nil, errors.Wrapf(err, "line %d", line)
			}
			tokens = append(tokens, token{kind: tkString, value: value, line: line})
			line += strings.Count(src[i:i+n], "\n")
			i += n
		case c == ':':
			j := i + 1
			for j < len(src) && isIdentChar(src[j]) {
				j++
			}
			if j == i+1 {
				return nil, errors.Errorf("line %d: empty tag", line)
			}
			tokens = append(tokens, token{kind: tkTag, value: src[i+1 : j], line: line})
			i = j
		case c >= '0' && c <= '9':
			j := i
			for j < len(src) && src[j] >= '0' && src[j] <= '9' {
				j++
			}
			if j < len(src) && strings.IndexByte("KMGkmg", src[j]) >= 0 {
				j++
			}
			tokens = append(tokens, token{kind: tkNumber, value: src[i:j], line: line})
			i = j
		case isIdentChar(c):
			j := i
			for j < len(src) && isIdentChar(src[j]) {
				j++
			}
			word := src[i:j]
			if strings.EqualFold(word, "text") && j < len(src) && src[j] == ':' {
				value, n, err := lexMultiline(src[j+1:])
				if err != nil {
					return nil, errors.Wrapf(err, "line %d", line)
				}
				tokens = append(tokens, token{kind: tkString, value: value, line: line})
				line += strings.Count(src[j+1:j+1+n], "\n")
				i = j + 1 + n
				continue
			}
			tokens = append(tokens, token{kind: tkIdent, value: word, line: line})
			i = j
		default:
			kind, ok := punctuation[c]
			if !ok {
				return nil, errors.Errorf("line %d: unexpected character %q", line, c)
			}
			tokens = append(tokens, token{kind: kind, value: string(c), line: line})
			i++
		}
	}
	return tokens, nil
}

var punctuation = map[byte]tokenKind{
	'(': tkLParen,
	')': tkRParen,
	'[': tkLBracket,
	']': tkRBracket,
	'{': tkLBrace,
	'}': tkRBrace,
	',': tkComma,
	';': tkSemicolon,
}

func isIdentChar(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// lexQuoted reads a quoted string starting at src[0] == '"' and returns the
// unescaped value and the number of bytes consumed.
func lexQuoted(src string) (string, int, error) {
	var b strings.Builder
	for i := 1; i < len(src); i++ {
		switch src[i] {
		case '\\':
			if i+1 >= len(src) {
				return "", 0, errors.New("unterminated string")
			}
			i++
			b.WriteByte(src[i])
		case '"':
			return b.String(), i + 1, nil
		default:
			b.WriteByte(src[i])
		}
	}
	return "", 0, errors.New("unterminated string")
}

// lexMultiline reads the body of a "text:" string, up to and including the
// terminating dot line.
func lexMultiline(src string) (string, int, error) {
	eol := strings.IndexByte(src, '\n')
	if eol == -1 {
		return "", 0, errors.New("unterminated multi-line string")
	}
	i := eol + 1
	var lines []string
	for i < len(src) {
		end := strings.IndexByte(src[i:], '\n')
		if end == -1 {
			end = len(src) - i
		}
		text := strings.TrimRight(src[i:i+end], "\r")
		i += end + 1
		if text == "." {
			return strings.Join(lines, "\r\n"), min(i, len(src)), nil
		}
		if strings.HasPrefix(text, "..") {
			text = text[1:]
		}
		lines = append(lines, text)
	}
	return "", 0, errors.New("unterminated multi-line string")
}

// quote renders s as a sieve quoted string.
func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}

func quoteList(values []string) string {
	quoted := make([]string, 0, len(values))
	for _, v := range values {
		quoted = append(quoted, quote(v))
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
