// Package logging configures the process-wide slog default and hands out
// component-scoped loggers. Engine packages stay silent; only the surfaces
// (CLI, server, MCP, store) log.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Init sets the global slog default. Format is "text" or "json"; anything
// else falls back to text. A nil writer means os.Stderr.
func Init(level slog.Level, format string, w ...io.Writer) {
	var out io.Writer = os.Stderr
	if len(w) > 0 && w[0] != nil {
		out = w[0]
	}

	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if format == "json" {
		h = slog.NewJSONHandler(out, opts)
	} else {
		h = slog.NewTextHandler(out, opts)
	}
	slog.SetDefault(slog.New(h))
}

// New returns a logger tagged with a "component" attribute.
func New(component string) *slog.Logger {
	return slog.Default().With(slog.String("component", component))
}

// ParseLevel maps a CLI-supplied level name to a slog.Level.
// Unrecognized names default to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
