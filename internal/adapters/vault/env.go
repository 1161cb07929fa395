package vault

import (
	"context"
	"os"

	"github.com/felixgeelhaar/jumpstart/internal/domain/credential"
)

// Env resolves env:// references from the process environment.
type Env struct {
	lookup func(string) (string, bool)
}

// NewEnv creates an Env backend reading os.LookupEnv.
func NewEnv() *Env {
	return &Env{lookup: os.LookupEnv}
}

// Resolve returns the variable named by ref.Item.
func (e *Env) Resolve(_ context.Context, ref credential.Reference) (credential.Secret, error) {
	v, ok := e.lookup(ref.Item)
	if !ok || v == "" {
		return credential.Secret{}, credential.Unavailable(ref, "variable is not set")
	}
	return credential.NewSecret(v), nil
}

var _ credential.Provider = (*Env)(nil)
