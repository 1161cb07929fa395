// Package command provides command execution adapters.
package command

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/felixgeelhaar/jumpstart/internal/ports"
)

// RealRunner executes actual shell commands.
type RealRunner struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// NewRealRunner creates a RealRunner whose attached commands use the
// process's standard streams.
func NewRealRunner() *RealRunner {
	return &RealRunner{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
}

// Run executes a command and returns the result.
func (r *RealRunner) Run(ctx context.Context, command string, args ...string) (ports.CommandResult, error) {
	return r.run(exec.CommandContext(ctx, command, args...))
}

// RunWithInput executes a command with input on stdin.
func (r *RealRunner) RunWithInput(ctx context.Context, input string, command string, args ...string) (ports.CommandResult, error) {
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Stdin = strings.NewReader(input)
	return r.run(cmd)
}

// RunAttached executes a command on the operator's terminal and returns its
// exit code.
func (r *RealRunner) RunAttached(ctx context.Context, command string, args ...string) (int, error) {
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Stdin = r.stdin
	cmd.Stdout = r.stdout
	cmd.Stderr = r.stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return -1, err
	}
	return 0, nil
}

// LookPath reports whether command is on PATH.
func (r *RealRunner) LookPath(command string) bool {
	_, err := exec.LookPath(command)
	return err == nil
}

func (r *RealRunner) run(cmd *exec.Cmd) (ports.CommandResult, error) {
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := ports.CommandResult{
		ExitCode: 0,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return result, err
	}

	return result, nil
}

var _ ports.CommandRunner = (*RealRunner)(nil)
