package managesieve

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

type itemKind int

const (
	itemAtom itemKind = iota
	itemString
	itemCode
)

// item is one element of a server line: an atom, a quoted or literal
// string, or a parenthesized response code.
type item struct {
	kind  itemKind
	value string
}

// ResponseError is a NO or BYE response.
type ResponseError struct {
	Kind    string
	Code    string
	Message string
}

func (e *ResponseError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "command failed"
	}
	if e.Code != "" {
		return fmt.Sprintf("managesieve %s (%s): %s", e.Kind, e.Code, msg)
	}
	return fmt.Sprintf("managesieve %s: %s", e.Kind, msg)
}

// IsResponseCode reports whether err is a server response carrying code,
// e.g. "NONEXISTENT" or "ACTIVE".
func IsResponseCode(err error, code string) bool {
	var respErr *ResponseError
	if !errors.As(err, &respErr) {
		return false
	}
	head, _, _ := strings.Cut(respErr.Code, " ")
	return strings.EqualFold(head, code)
}

func isStatus(items []item) (string, bool) {
	if len(items) == 0 || items[0].kind != itemAtom {
		return "", false
	}
	switch status := strings.ToUpper(items[0].value); status {
	case "OK", "NO", "BYE":
		return status, true
	}
	return "", false
}

// statusError turns a status line into an error; OK yields nil.
func statusError(status string, items []item) error {
	if status == "OK" {
		return nil
	}
	respErr := &ResponseError{Kind: status}
	for _, it := range items[1:] {
		switch it.kind {
		case itemCode:
			respErr.Code = it.value
		case itemString:
			respErr.Message = it.value
		}
	}
	return respErr
}

// readItems reads one logical line. Literals may continue it over several
// physical lines.
func readItems(r *bufio.Reader) ([]item, error) {
	var items []item
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			if err == io.EOF && line == "" {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, errors.Wrap(err, "reading response")
		}
		line = strings.TrimRight(line, "\r\n")

		literal := -1
		for i := 0; i < len(line); {
			switch c := line[i]; {
			case c == ' ':
				i++
			case c == '"':
				value, n, err := unquote(line[i:])
				if err != nil {
					return nil, err
				}
				items = append(items, item{kind: itemString, value: value})
				i += n
			case c == '(':
				end := closingParen(line[i:])
				if end == -1 {
					return nil, errors.Errorf("unterminated response code in %q", line)
				}
				items = append(items, item{kind: itemCode, value: line[i+1 : i+end]})
				i += end + 1
			case c == '{' && strings.HasSuffix(line, "}"):
				size := strings.TrimSuffix(line[i+1:len(line)-1], "+")
				n, err := strconv.Atoi(size)
				if err != nil || n < 0 {
					return nil, errors.Errorf("invalid literal size in %q", line)
				}
				literal = n
				i = len(line)
			default:
				end := strings.IndexByte(line[i:], ' ')
				if end == -1 {
					end = len(line) - i
				}
				items = append(items, item{kind: itemAtom, value: line[i : i+end]})
				i += end
			}
		}

		if literal == -1 {
			return items, nil
		}
		buf := make([]byte, literal)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, errors.Wrap(err, "reading literal")
		}
		items = append(items, item{kind: itemString, value: string(buf)})
	}
}

func unquote(s string) (string, int, error) {
	var b strings.Builder
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			if i+1 >= len(s) {
				return "", 0, errors.Errorf("unterminated quoted string %q", s)
			}
			i++
			b.WriteByte(s[i])
		case '"':
			return b.String(), i + 1, nil
		default:
			b.WriteByte(s[i])
		}
	}
	return "", 0, errors.Errorf("unterminated quoted string %q", s)
}

func closingParen(s string) int {
	quoted := false
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			if quoted {
				i++
			}
		case '"':
			quoted = !quoted
		case ')':
			if !quoted {
				return i
			}
		}
	}
	return -1
}

// encodeString renders s as a quoted string, or as a non-synchronizing
// literal when quoting cannot carry it.
func encodeString(s string) string {
	if strings.ContainsAny(s, "\r\n\x00") || len(s) > 1024 {
		return fmt.Sprintf("{%d+}\r\n%s", len(s), s)
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}
