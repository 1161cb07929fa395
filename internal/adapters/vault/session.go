package vault

import (
	"context"
	"errors"
	"sync"

	"github.com/felixgeelhaar/jumpstart/internal/ports"
)

// Errors reported by Session.
var (
	ErrCLIMissing       = errors.New("1Password CLI (op) is not installed")
	ErrNotAuthenticated = errors.New("1Password CLI is not signed in; run: op signin")
)

// Session checks 1Password authentication once per run. When signin is
// allowed and the CLI is signed out, it runs "op signin" attached to the
// terminal so the operator can authenticate.
type Session struct {
	runner ports.CommandRunner
	signin bool

	once sync.Once
	err  error
}

// NewSession creates a Session. signin enables the interactive fallback.
func NewSession(runner ports.CommandRunner, signin bool) *Session {
	return &Session{runner: runner, signin: signin}
}

// Ensure returns nil when op is usable. The outcome is cached for the
// lifetime of the Session.
func (s *Session) Ensure(ctx context.Context) error {
	s.once.Do(func() { s.err = s.check(ctx) })
	return s.err
}

func (s *Session) check(ctx context.Context) error {
	if !s.runner.LookPath("op") {
		return ErrCLIMissing
	}
	if s.whoami(ctx) {
		return nil
	}
	if !s.signin {
		return ErrNotAuthenticated
	}
	code, err := s.runner.RunAttached(ctx, "op", "signin")
	if err != nil || code != 0 || !s.whoami(ctx) {
		return ErrNotAuthenticated
	}
	return nil
}

func (s *Session) whoami(ctx context.Context) bool {
	result, err := s.runner.Run(ctx, "op", "whoami")
	return err == nil && result.Success()
}
