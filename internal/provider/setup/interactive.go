package setup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/jumpstart/internal/domain/reconcile"
	"github.com/felixgeelhaar/jumpstart/internal/domain/step"
	"github.com/felixgeelhaar/jumpstart/internal/ports"
)

// Interactive runs interactive-setup steps: it shows instructions, opens the
// application and waits, without a timeout, for the operator.
type Interactive struct {
	runner   ports.CommandRunner
	fs       ports.FileSystem
	prompter ports.Prompter
	now      func() time.Time
}

// NewInteractive creates an Interactive handler.
func NewInteractive(runner ports.CommandRunner, fs ports.FileSystem, prompter ports.Prompter) *Interactive {
	return &Interactive{runner: runner, fs: fs, prompter: prompter, now: time.Now}
}

// Probe reports Satisfied when the step's marker exists.
func (h *Interactive) Probe(_ context.Context, d step.Descriptor) (reconcile.Status, error) {
	s, err := step.As[*step.InteractiveSetup](d)
	if err != nil {
		return reconcile.Unsatisfied, err
	}
	return markerStatus(h.fs, s.Marker()), nil
}

// Apply walks the operator through the setup.
func (h *Interactive) Apply(ctx context.Context, d step.Descriptor) reconcile.Result {
	s, err := step.As[*step.InteractiveSetup](d)
	if err != nil {
		return reconcile.Failed(err)
	}
	if !h.prompter.Interactive() {
		return reconcile.Skipped("not running in an interactive terminal")
	}

	if s.BundleID() != "" {
		installed, err := appInstalled(ctx, h.runner, s.BundleID())
		if err != nil {
			return reconcile.Failedf("check %s is installed: %v", s.Name(), err)
		}
		if !installed {
			return reconcile.Skipped(fmt.Sprintf("%s is not installed", s.Name()))
		}
	}

	if s.Launch() != "" {
		action := fmt.Sprintf("Press Enter to open %s (or 's' to skip)", s.Launch())
		if r, done := h.wait(ctx, s, action); done {
			return r
		}
		result, err := h.runner.Run(ctx, "open", "-a", s.Launch())
		if err != nil {
			return reconcile.Failedf("open %s: %v", s.Launch(), err)
		}
		if !result.Success() {
			return reconcile.Failedf("open %s: %s", s.Launch(), result.Diagnostic())
		}
	}

	action := fmt.Sprintf("Press Enter when you've completed the setup for %s (or 's' to skip)", s.Name())
	if r, done := h.wait(ctx, s, action); done {
		return r
	}

	if err := writeMarker(h.fs, s.Marker(), h.now()); err != nil {
		return reconcile.Failedf("%v", err)
	}
	return reconcile.Applied("completed by operator")
}

// wait shows one prompt. done is true when the step ends here, with r as
// its result.
func (h *Interactive) wait(ctx context.Context, s *step.InteractiveSetup, action string) (r reconcile.Result, done bool) {
	resp, err := h.prompter.Wait(ctx, ports.Prompt{
		Title:        s.Name(),
		Instructions: s.Instructions(),
		Action:       action,
	})
	switch {
	case errors.Is(err, ports.ErrInterrupted):
		return reconcile.Failed(err), true
	case errors.Is(err, ports.ErrNotInteractive):
		return reconcile.Skipped("not running in an interactive terminal"), true
	case err != nil:
		return reconcile.Failedf("prompt: %v", err), true
	case resp == ports.PromptSkip:
		return reconcile.Skipped("skipped by operator"), true
	}
	return reconcile.Result{}, false
}

// appInstalled asks Spotlight whether an application with bundleID exists.
func appInstalled(ctx context.Context, runner ports.CommandRunner, bundleID string) (bool, error) {
	result, err := runner.Run(ctx, "mdfind", fmt.Sprintf("kMDItemCFBundleIdentifier == '%s'", bundleID))
	if err != nil {
		return false, err
	}
	return result.Success() && strings.TrimSpace(result.Stdout) != "", nil
}

var _ reconcile.Handler = (*Interactive)(nil)
