// Package tui provides the terminal front end of a run: operator prompts
// for interactive setup steps and the end-of-run report.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/felixgeelhaar/jumpstart/internal/ports"
	"github.com/felixgeelhaar/jumpstart/internal/tui/ui"
)

// Prompter implements ports.Prompter with a bubbletea program per wait.
type Prompter struct {
	in          io.Reader
	out         io.Writer
	interactive bool
	keys        ui.KeyMap
	styles      ui.Styles
}

// PrompterOption configures a Prompter.
type PrompterOption func(*Prompter)

// WithIO replaces the terminal streams. interactive overrides terminal
// detection, which only inspects the process's own stdin and stdout.
func WithIO(in io.Reader, out io.Writer, interactive bool) PrompterOption {
	return func(p *Prompter) {
		p.in = in
		p.out = out
		p.interactive = interactive
	}
}

// NewPrompter creates a Prompter attached to the process terminal.
func NewPrompter(opts ...PrompterOption) *Prompter {
	p := &Prompter{
		in:          os.Stdin,
		out:         os.Stdout,
		interactive: IsTerminal(os.Stdin) && IsTerminal(os.Stdout),
		keys:        ui.DefaultKeyMap(),
		styles:      ui.DefaultStyles(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Interactive reports whether an operator terminal is attached.
func (p *Prompter) Interactive() bool {
	return p.interactive
}

// Wait shows the prompt and blocks until the operator presses Enter (done),
// s (skip) or Ctrl+C (interrupted). There is no timeout.
func (p *Prompter) Wait(ctx context.Context, prompt ports.Prompt) (ports.PromptResponse, error) {
	if !p.interactive {
		return ports.PromptSkip, ports.ErrNotInteractive
	}

	program := tea.NewProgram(
		newWaitModel(prompt, p.keys, p.styles),
		tea.WithContext(ctx),
		tea.WithInput(p.in),
		tea.WithOutput(p.out),
	)
	final, err := program.Run()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ports.PromptSkip, ctxErr
		}
		if errors.Is(err, tea.ErrInterrupted) {
			return ports.PromptSkip, ports.ErrInterrupted
		}
		return ports.PromptSkip, fmt.Errorf("prompt failed: %w", err)
	}

	m, ok := final.(waitModel)
	if !ok {
		return ports.PromptSkip, fmt.Errorf("unexpected model type")
	}
	if m.aborted {
		return ports.PromptSkip, ports.ErrInterrupted
	}
	return m.response, nil
}

var _ ports.Prompter = (*Prompter)(nil)
