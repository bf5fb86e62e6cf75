// Package logger builds the application's structured logger.
package logger

import (
	"io"
	"log/slog"
)

// New returns a *slog.Logger configured for the given environment.
//
// Development (dev): human-readable text output at DEBUG level.
// Staging (staging): JSON output at DEBUG level.
// Production (prod): JSON output at INFO level.
//
// Callers pass os.Stderr: the roster menu owns stdout, so diagnostics go
// to the error stream.
func New(env string, w io.Writer) *slog.Logger {
	switch env {
	case "prod":
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	case "staging":
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	default: // "dev" and anything unrecognised
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
