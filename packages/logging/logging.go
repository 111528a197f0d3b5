// Package logging builds the diagnostic logger used across rest.
//
// Operator-facing output (responses, errors per block) is written by the
// output formatters. This logger carries everything else: config discovery,
// rate limiting, history writes and watch events.
package logging

import (
	"io"
	"log/slog"
	"strings"
)

// LevelSilent is above every standard level and suppresses all records.
const LevelSilent = slog.Level(100)

// NewLogger creates a text logger writing to w at the given level.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewDiscardLogger creates a logger that discards all output.
func NewDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: LevelSilent}))
}

// LevelFromVerbosity converts the -v count to a slog.Level.
// -v only shows response headers, so diagnostics start at -vv:
//   - quiet=true: nothing
//   - verbosity<2: warn
//   - verbosity=2: info
//   - verbosity>=3: debug
func LevelFromVerbosity(verbosity int, quiet bool) slog.Level {
	if quiet {
		return LevelSilent
	}
	switch {
	case verbosity >= 3:
		return slog.LevelDebug
	case verbosity == 2:
		return slog.LevelInfo
	default:
		return slog.LevelWarn
	}
}

// LevelFromString converts a level name to a slog.Level.
// Returns slog.LevelWarn for unrecognized strings.
func LevelFromString(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	case "silent", "off":
		return LevelSilent
	default:
		return slog.LevelWarn
	}
}
