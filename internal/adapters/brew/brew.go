// Package brew adapts the Homebrew CLI to ports.PackageManager.
package brew

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/jumpstart/internal/ports"
)

// Manager hints understood by the adapter.
const (
	HintFormula = "formula"
	HintCask    = "cask"
)

// Manager runs brew through a CommandRunner.
type Manager struct {
	runner ports.CommandRunner
	binary string
}

// New creates a Manager that invokes "brew".
func New(runner ports.CommandRunner) *Manager {
	return &Manager{runner: runner, binary: "brew"}
}

// Name returns "brew".
func (m *Manager) Name() string {
	return "brew"
}

func kindFlag(hint string) (string, error) {
	switch hint {
	case "", HintFormula:
		return "--formula", nil
	case HintCask:
		return "--cask", nil
	default:
		return "", fmt.Errorf("unknown brew hint %q", hint)
	}
}

// Installed reports whether identifier is installed. brew list exits
// non-zero for packages that are not installed, which is not an error.
func (m *Manager) Installed(ctx context.Context, identifier, hint string) (bool, error) {
	flag, err := kindFlag(hint)
	if err != nil {
		return false, err
	}
	result, err := m.runner.Run(ctx, m.binary, "list", flag, identifier)
	if err != nil {
		return false, fmt.Errorf("brew list %s %s: %w", flag, identifier, err)
	}
	return result.Success(), nil
}

// Install runs brew install for identifier. A non-zero exit is returned in
// the result, not as an error.
func (m *Manager) Install(ctx context.Context, identifier, hint string) (ports.CommandResult, error) {
	flag, err := kindFlag(hint)
	if err != nil {
		return ports.CommandResult{}, err
	}
	args := []string{"install"}
	if flag == "--cask" {
		args = append(args, flag)
	}
	args = append(args, identifier)
	return m.runner.Run(ctx, m.binary, args...)
}

var _ ports.PackageManager = (*Manager)(nil)
