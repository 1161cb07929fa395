package mocks

import (
	"context"
	"sync"

	"github.com/felixgeelhaar/jumpstart/internal/domain/credential"
)

// CredentialProvider is a static test double for credential.Provider.
// References are keyed by their URI form.
type CredentialProvider struct {
	mu      sync.Mutex
	secrets map[string]string
	errors  map[string]error
	calls   []credential.Reference
}

// NewCredentialProvider creates a CredentialProvider mock.
func NewCredentialProvider() *CredentialProvider {
	return &CredentialProvider{
		secrets: make(map[string]string),
		errors:  make(map[string]error),
	}
}

// AddSecret registers the value ref resolves to.
func (p *CredentialProvider) AddSecret(ref credential.Reference, value string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.secrets[ref.String()] = value
}

// AddError registers an error for ref.
func (p *CredentialProvider) AddError(ref credential.Reference, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errors[ref.String()] = err
}

// Resolve returns the registered secret. Unregistered references are
// unavailable.
func (p *CredentialProvider) Resolve(_ context.Context, ref credential.Reference) (credential.Secret, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, ref)
	if err, ok := p.errors[ref.String()]; ok {
		return credential.Secret{}, err
	}
	if v, ok := p.secrets[ref.String()]; ok {
		return credential.NewSecret(v), nil
	}
	return credential.Secret{}, credential.Unavailable(ref, "item not found")
}

// Calls returns every resolved reference in order.
func (p *CredentialProvider) Calls() []credential.Reference {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]credential.Reference(nil), p.calls...)
}

var _ credential.Provider = (*CredentialProvider)(nil)
