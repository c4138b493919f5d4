// Package obs wires up graphd's structured logging. The durability and
// graph packages are silent by design (§4.4/§4.3 describe pure, testable
// state machines); only the command, the store and the HTTP adapter log,
// and they log through a [*slog.Logger] built here.
package obs

import (
	"io"
	"log/slog"
)

// NewLogger returns a [*slog.Logger] writing leveled text records to w.
// level is one of "debug", "info", "warn", "error"; an unrecognized value
// falls back to info.
func NewLogger(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: parseLevel(level)}))
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
