package mock

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"testing"

	gomock "go.uber.org/mock/gomock"
)

// setupLogger sets up a logger that only outputs if the test fails
func SetupLogger(t *testing.T) *slog.Logger {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	t.Cleanup(func() {
		if t.Failed() {
			os.Stdout.Write(buf.Bytes()) //nolint:errcheck
		}
	})

	return logger
}

// Custom matcher checking that a script contains every fragment, in order
type scriptMatcher struct {
	fragments []string
}

func (m scriptMatcher) Matches(x interface{}) bool {
	s, ok := x.(string)
	if !ok {
		return false
	}
	for _, fragment := range m.fragments {
		idx := strings.Index(s, fragment)
		if idx == -1 {
			return false
		}
		s = s[idx+len(fragment):]
	}
	return true
}

func (m scriptMatcher) String() string {
	return fmt.Sprintf("script containing %q in order", m.fragments)
}

// NewScriptMatcher returns a matcher for script content holding the fragments in order
func NewScriptMatcher(fragments ...string) gomock.Matcher {
	return scriptMatcher{fragments: fragments}
}
