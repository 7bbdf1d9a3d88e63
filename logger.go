package bitforest

import (
	"log/slog"
	"os"
)

// Logger emits index diagnostics: per-tree build progress and
// degenerate-split warnings. Logging never affects index semantics.
type Logger struct {
	*slog.Logger
}

// NewLogger wraps a slog handler. A nil handler discards all output.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.DiscardHandler
	}
	return &Logger{Logger: slog.New(handler)}
}

// NoopLogger returns a logger that discards all output.
func NoopLogger() *Logger {
	return NewLogger(nil)
}

// verboseLogger writes debug-level text to stderr; it is what SetVerbose
// installs when no logger was configured.
func verboseLogger() *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}
