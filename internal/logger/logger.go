// Package logger wires zerolog console loggers through context so the
// pipeline packages never hold a logger field of their own.
package logger

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
)

type contextKey struct{}

// New returns the default console logger at info level.
func New() zerolog.Logger {
	w := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(w).With().Timestamp().Caller().Logger()
}

// NewWithLevel parses level ("debug", "info", "warn", ...) and returns a
// console logger at that level. Unknown levels fall back to info.
func NewWithLevel(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return New().Level(lvl)
}

// WithContext stores log in ctx.
func WithContext(ctx context.Context, log zerolog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, log)
}

// FromContext returns the logger stored in ctx, or a fresh default logger
// when none was attached.
func FromContext(ctx context.Context) zerolog.Logger {
	if log, ok := ctx.Value(contextKey{}).(zerolog.Logger); ok {
		return log
	}
	return New()
}
