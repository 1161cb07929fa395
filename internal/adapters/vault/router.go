// Package vault resolves credential references against secret backends:
// the 1Password CLI, age-encrypted files and environment variables.
//
// Resolved values are held in memory only. Nothing is cached on disk and
// no secret is ever passed on a command line.
package vault

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/jumpstart/internal/domain/credential"
)

// Router dispatches references to the provider registered for their backend.
type Router struct {
	backends map[string]credential.Provider
}

// NewRouter creates an empty Router.
func NewRouter() *Router {
	return &Router{backends: make(map[string]credential.Provider)}
}

// Register binds p to backend.
func (r *Router) Register(backend string, p credential.Provider) *Router {
	r.backends[backend] = p
	return r
}

// Resolve implements credential.Provider.
func (r *Router) Resolve(ctx context.Context, ref credential.Reference) (credential.Secret, error) {
	p, ok := r.backends[ref.Backend]
	if !ok {
		return credential.Secret{}, credential.Unavailable(ref, fmt.Sprintf("backend %q is not configured", ref.Backend))
	}
	return p.Resolve(ctx, ref)
}

var _ credential.Provider = (*Router)(nil)
