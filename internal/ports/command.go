// Package ports defines interfaces for external dependencies.
package ports

import (
	"context"
	"strings"
)

// CommandResult represents the result of executing a shell command.
type CommandResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Success returns true if the command exited with code 0.
func (r CommandResult) Success() bool {
	return r.ExitCode == 0
}

// Diagnostic returns the most useful output for a failed command: stderr when
// present, stdout otherwise.
func (r CommandResult) Diagnostic() string {
	if msg := strings.TrimSpace(r.Stderr); msg != "" {
		return msg
	}
	return strings.TrimSpace(r.Stdout)
}

// CommandCall records a command invocation.
type CommandCall struct {
	Command string
	Args    []string
	Stdin   string
}

// CommandRunner executes shell commands.
type CommandRunner interface {
	Run(ctx context.Context, command string, args ...string) (CommandResult, error)

	// RunWithInput executes a command with stdin attached to input.
	// Secrets handed to external CLIs travel this way, never through argv.
	RunWithInput(ctx context.Context, input string, command string, args ...string) (CommandResult, error)

	// RunAttached executes a command wired to the process terminal so the
	// command can prompt the operator. Output is not captured.
	RunAttached(ctx context.Context, command string, args ...string) (int, error)

	// LookPath reports whether command resolves to an executable on PATH.
	LookPath(command string) bool
}
