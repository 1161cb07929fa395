// Package credential models references into a secret vault and the secret
// values they resolve to.
package credential

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrUnavailable is returned when a reference cannot be resolved: the vault
// is locked or unauthenticated, the item is missing, or the field is absent.
var ErrUnavailable = errors.New("credential unavailable")

// ErrInvalidReference is returned when a reference is malformed.
var ErrInvalidReference = errors.New("invalid credential reference")

// Vault backends.
const (
	BackendOnePassword = "op"
	BackendAge         = "age"
	BackendEnv         = "env"
)

// Reference points at one field of one vault item.
type Reference struct {
	Backend string
	Item    string
	Field   string
}

// ParseReference parses op://item/field, age://item/field or env://NAME.
// A bare "item/field" uses the 1Password backend.
func ParseReference(s string) (Reference, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Reference{}, fmt.Errorf("%w: empty", ErrInvalidReference)
	}
	backend := BackendOnePassword
	rest := s
	if scheme, after, ok := strings.Cut(s, "://"); ok {
		backend = scheme
		rest = after
	}
	if backend == BackendEnv {
		ref := Reference{Backend: BackendEnv, Item: rest}
		return ref, ref.Validate()
	}
	item, field, ok := strings.Cut(rest, "/")
	if !ok {
		return Reference{}, fmt.Errorf("%w: %q must be <item>/<field>", ErrInvalidReference, s)
	}
	item, err := url.PathUnescape(item)
	if err != nil {
		return Reference{}, fmt.Errorf("%w: %q: %v", ErrInvalidReference, s, err)
	}
	field, err = url.PathUnescape(field)
	if err != nil {
		return Reference{}, fmt.Errorf("%w: %q: %v", ErrInvalidReference, s, err)
	}
	ref := Reference{Backend: backend, Item: item, Field: field}
	return ref, ref.Validate()
}

// Validate checks that the reference names a known backend and is complete.
func (r Reference) Validate() error {
	switch r.Backend {
	case BackendOnePassword, BackendAge:
		if r.Item == "" || r.Field == "" {
			return fmt.Errorf("%w: %s reference needs item and field", ErrInvalidReference, r.Backend)
		}
	case BackendEnv:
		if r.Item == "" {
			return fmt.Errorf("%w: env reference needs a variable name", ErrInvalidReference)
		}
	default:
		return fmt.Errorf("%w: unknown backend %q", ErrInvalidReference, r.Backend)
	}
	return nil
}

// String returns the URI form. It never contains a secret.
func (r Reference) String() string {
	if r.Backend == BackendEnv {
		return "env://" + r.Item
	}
	return r.Backend + "://" + url.PathEscape(r.Item) + "/" + url.PathEscape(r.Field)
}

// Provider resolves references to secrets.
type Provider interface {
	Resolve(ctx context.Context, ref Reference) (Secret, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, ref Reference) (Secret, error)

// Resolve calls f.
func (f ProviderFunc) Resolve(ctx context.Context, ref Reference) (Secret, error) {
	return f(ctx, ref)
}

// Unavailable wraps cause as ErrUnavailable for ref.
func Unavailable(ref Reference, cause string) error {
	if cause == "" {
		return fmt.Errorf("%w: %s", ErrUnavailable, ref)
	}
	return fmt.Errorf("%w: %s: %s", ErrUnavailable, ref, cause)
}
