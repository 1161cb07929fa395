// Package privilege holds an administrator grant for the duration of a run.
package privilege

import (
	"context"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/jumpstart/internal/ports"
)

// ErrDenied is returned when sudo refuses the grant.
var ErrDenied = errors.New("administrator privileges were not granted")

// Handle is a sudo timestamp owned by the run. Refresh extends it before each
// apply; Release revokes it when the run ends.
type Handle struct {
	runner ports.CommandRunner
	active bool
}

// Acquire validates sudo credentials, prompting the operator on the
// terminal when needed.
func Acquire(ctx context.Context, runner ports.CommandRunner) (*Handle, error) {
	if !runner.LookPath("sudo") {
		return nil, fmt.Errorf("%w: sudo is not installed", ErrDenied)
	}
	code, err := runner.RunAttached(ctx, "sudo", "-v")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDenied, err)
	}
	if code != 0 {
		return nil, ErrDenied
	}
	return &Handle{runner: runner, active: true}, nil
}

// Refresh extends the grant without prompting. A nil Handle is a no-op.
func (h *Handle) Refresh(ctx context.Context) error {
	if h == nil || !h.active {
		return nil
	}
	result, err := h.runner.Run(ctx, "sudo", "-n", "-v")
	if err != nil {
		return fmt.Errorf("refresh sudo timestamp: %w", err)
	}
	if !result.Success() {
		return fmt.Errorf("refresh sudo timestamp: %s", result.Diagnostic())
	}
	return nil
}

// Release revokes the grant. It is safe to call more than once.
func (h *Handle) Release(ctx context.Context) error {
	if h == nil || !h.active {
		return nil
	}
	h.active = false
	if _, err := h.runner.Run(ctx, "sudo", "-k"); err != nil {
		return fmt.Errorf("release sudo timestamp: %w", err)
	}
	return nil
}
