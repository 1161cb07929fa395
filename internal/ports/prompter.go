package ports

import (
	"context"
	"errors"
)

// Errors returned by Prompter implementations.
var (
	// ErrInterrupted is returned when the operator aborts a wait (Ctrl+C).
	ErrInterrupted = errors.New("interrupted while waiting for operator")
	// ErrNotInteractive is returned when there is no terminal to prompt on.
	ErrNotInteractive = errors.New("not running in an interactive terminal")
)

// PromptResponse is the operator's answer to a wait prompt.
type PromptResponse int

const (
	// PromptDone means the operator finished the manual work.
	PromptDone PromptResponse = iota
	// PromptSkip means the operator chose to skip this step.
	PromptSkip
)

// String returns the string representation of the response.
func (r PromptResponse) String() string {
	switch r {
	case PromptDone:
		return "done"
	case PromptSkip:
		return "skip"
	default:
		return "unknown"
	}
}

// Prompt describes what the operator is asked to do.
type Prompt struct {
	Title        string
	Instructions string
	Action       string // e.g. "Press Enter to open Slack"
}

// Prompter suspends the run until the operator signals completion.
// There is no timeout.
type Prompter interface {
	// Interactive reports whether an operator terminal is attached.
	Interactive() bool

	// Wait blocks until the operator answers. It returns ErrInterrupted when
	// the operator aborts, and ErrNotInteractive when no terminal is attached.
	Wait(ctx context.Context, prompt Prompt) (PromptResponse, error)
}
