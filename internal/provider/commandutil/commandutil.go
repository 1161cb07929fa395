// Package commandutil explains errors returned by a command runner.
package commandutil

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// ErrNotInstalled reports that a program could not be found.
var ErrNotInstalled = errors.New("not installed")

// IsCommandNotFound reports whether an error indicates a missing executable.
func IsCommandNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, ErrNotInstalled) {
		return true
	}
	var execErr *exec.Error
	if errors.As(err, &execErr) && errors.Is(execErr.Err, exec.ErrNotFound) {
		return true
	}
	var pathErr *os.PathError
	if errors.As(err, &pathErr) && errors.Is(pathErr.Err, os.ErrNotExist) {
		return true
	}
	return false
}

// Wrap describes a runner error for command. A missing executable becomes
// ErrNotInstalled so reports read "brew is not installed" rather than an
// exec error.
func Wrap(command string, err error) error {
	if err == nil {
		return nil
	}
	if IsCommandNotFound(err) {
		return fmt.Errorf("%s is %w", command, ErrNotInstalled)
	}
	return fmt.Errorf("run %s: %w", command, err)
}
