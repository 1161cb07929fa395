// Package mocks provides test doubles for testing.
package mocks

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/felixgeelhaar/jumpstart/internal/ports"
)

// CommandRunner is a thread-safe test double for ports.CommandRunner.
type CommandRunner struct {
	mu      sync.RWMutex
	results map[string]ports.CommandResult
	errors  map[string]error
	paths   map[string]bool
	calls   []ports.CommandCall
}

// NewCommandRunner creates a new CommandRunner mock.
func NewCommandRunner() *CommandRunner {
	return &CommandRunner{
		results: make(map[string]ports.CommandResult),
		errors:  make(map[string]error),
		paths:   make(map[string]bool),
		calls:   make([]ports.CommandCall, 0),
	}
}

// AddResult registers an expected command and its result.
func (m *CommandRunner) AddResult(command string, args []string, result ports.CommandResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[buildKey(command, args)] = result
}

// AddError registers an expected command that should return an error.
func (m *CommandRunner) AddError(command string, args []string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[buildKey(command, args)] = err
}

// SetPath controls what LookPath reports for command.
func (m *CommandRunner) SetPath(command string, found bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paths[command] = found
}

// Run executes a mock command.
func (m *CommandRunner) Run(_ context.Context, command string, args ...string) (ports.CommandResult, error) {
	return m.lookup(ports.CommandCall{Command: command, Args: args})
}

// RunWithInput executes a mock command and records its stdin.
func (m *CommandRunner) RunWithInput(_ context.Context, input string, command string, args ...string) (ports.CommandResult, error) {
	return m.lookup(ports.CommandCall{Command: command, Args: args, Stdin: input})
}

// RunAttached executes a mock command and returns the registered exit code.
func (m *CommandRunner) RunAttached(_ context.Context, command string, args ...string) (int, error) {
	result, err := m.lookup(ports.CommandCall{Command: command, Args: args})
	if err != nil {
		return -1, err
	}
	return result.ExitCode, nil
}

// LookPath reports what SetPath registered; unknown commands are not found.
func (m *CommandRunner) LookPath(command string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paths[command]
}

func (m *CommandRunner) lookup(call ports.CommandCall) (ports.CommandResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, call)
	m.mu.Unlock()

	m.mu.RLock()
	defer m.mu.RUnlock()

	key := buildKey(call.Command, call.Args)

	// Check for registered error first
	if err, ok := m.errors[key]; ok {
		return ports.CommandResult{}, err
	}
	if result, ok := m.results[key]; ok {
		return result, nil
	}
	return ports.CommandResult{}, fmt.Errorf("no mock result for command: %s %v", call.Command, call.Args)
}

// Calls returns all recorded command invocations.
func (m *CommandRunner) Calls() []ports.CommandCall {
	m.mu.RLock()
	defer m.mu.RUnlock()

	calls := make([]ports.CommandCall, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// Called reports whether command was invoked with exactly args.
func (m *CommandRunner) Called(command string, args ...string) bool {
	key := buildKey(command, args)
	for _, c := range m.Calls() {
		if buildKey(c.Command, c.Args) == key {
			return true
		}
	}
	return false
}

// Reset clears all registered results, errors, and recorded calls.
func (m *CommandRunner) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = make(map[string]ports.CommandResult)
	m.errors = make(map[string]error)
	m.paths = make(map[string]bool)
	m.calls = make([]ports.CommandCall, 0)
}

// buildKey creates a unique key for a command and its arguments.
func buildKey(command string, args []string) string {
	return command + ":" + strings.Join(args, ":")
}

// Ensure CommandRunner implements ports.CommandRunner.
var _ ports.CommandRunner = (*CommandRunner)(nil)
