package mocks

import (
	"context"
	"sync"

	"github.com/felixgeelhaar/jumpstart/internal/ports"
)

// Reply is one scripted answer to a prompt.
type Reply struct {
	Response ports.PromptResponse
	Err      error
}

// Prompter is a scripted test double for ports.Prompter. Replies are
// consumed in order; once exhausted every prompt answers PromptDone.
type Prompter struct {
	mu          sync.Mutex
	interactive bool
	replies     []Reply
	prompts     []ports.Prompt
}

// NewPrompter creates a Prompter mock.
func NewPrompter(interactive bool, replies ...Reply) *Prompter {
	return &Prompter{interactive: interactive, replies: replies}
}

// Interactive reports the configured terminal state.
func (p *Prompter) Interactive() bool {
	return p.interactive
}

// Wait records the prompt and returns the next scripted reply.
func (p *Prompter) Wait(ctx context.Context, prompt ports.Prompt) (ports.PromptResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prompts = append(p.prompts, prompt)
	if !p.interactive {
		return ports.PromptSkip, ports.ErrNotInteractive
	}
	if err := ctx.Err(); err != nil {
		return ports.PromptSkip, err
	}
	if len(p.replies) == 0 {
		return ports.PromptDone, nil
	}
	r := p.replies[0]
	p.replies = p.replies[1:]
	return r.Response, r.Err
}

// Prompts returns every prompt shown so far.
func (p *Prompter) Prompts() []ports.Prompt {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ports.Prompt(nil), p.prompts...)
}

var _ ports.Prompter = (*Prompter)(nil)
