package ports

import "context"

// FileLifecycle hooks into file overwrites performed during a run.
type FileLifecycle interface {
	// BeforeOverwrite runs before an existing file is replaced.
	// Returns nil if the file doesn't exist.
	BeforeOverwrite(ctx context.Context, path string) error
}

// NoopLifecycle is a no-op implementation of FileLifecycle.
type NoopLifecycle struct{}

// BeforeOverwrite does nothing.
func (n *NoopLifecycle) BeforeOverwrite(_ context.Context, _ string) error {
	return nil
}

var _ FileLifecycle = (*NoopLifecycle)(nil)
