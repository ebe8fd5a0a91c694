package utils

import (
	"io"
	"log/slog"

	"aaronromeo.com/sievefilters/pkg/base"
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

// NewLogger returns the otelslog bridge when telemetry is on, a JSON
// logger writing to w otherwise.
func NewLogger(w io.Writer, telemetryEnabled bool) *slog.Logger {
	if telemetryEnabled {
		return otelslog.NewLogger(base.ServiceName)
	}
	return slog.New(slog.NewJSONHandler(w, nil))
}
