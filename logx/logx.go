// Package logx provides named component loggers on top of log/slog.
// Loggers are for thread context only; nothing in an interrupt path logs.
package logx

import (
	"io"
	"log/slog"
)

// Logger returns the default logger tagged with a component name.
func Logger(component string) *slog.Logger {
	return slog.Default().With("component", component)
}

// SetOutput redirects the process default logger, at the given level.
func SetOutput(w io.Writer, level slog.Level) {
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}
