// Package logging provides implementations of the ports.Logger interface:
// a NopLogger that discards everything and a ConsoleLogger that writes text
// or JSON lines.
package logging

import (
	"context"

	"github.com/felixgeelhaar/jumpstart/internal/ports"
)

// NopLogger is a no-op logger that discards all messages.
type NopLogger struct{}

// NewNopLogger creates a new no-op logger.
func NewNopLogger() *NopLogger {
	return &NopLogger{}
}

// Debug does nothing.
func (l *NopLogger) Debug(_ context.Context, _ string, _ ...ports.Field) {}

// Info does nothing.
func (l *NopLogger) Info(_ context.Context, _ string, _ ...ports.Field) {}

// Warn does nothing.
func (l *NopLogger) Warn(_ context.Context, _ string, _ ...ports.Field) {}

// Error does nothing.
func (l *NopLogger) Error(_ context.Context, _ string, _ ...ports.Field) {}

// With returns itself.
func (l *NopLogger) With(_ ...ports.Field) ports.Logger {
	return l
}

// Level returns LevelError; nothing below it would be written anyway.
func (l *NopLogger) Level() ports.Level {
	return ports.LevelError
}

// FromContext returns the context logger, or a NopLogger when none is set.
func FromContext(ctx context.Context) ports.Logger {
	if logger := ports.LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return NewNopLogger()
}

var _ ports.Logger = (*NopLogger)(nil)
