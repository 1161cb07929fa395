package reconcile

import (
	"context"
	"fmt"
	"sync"

	"github.com/felixgeelhaar/jumpstart/internal/domain/step"
)

// Handler probes and applies descriptors of one kind.
type Handler interface {
	// Probe observes state without mutating it. Absence is Unsatisfied,
	// not an error.
	Probe(ctx context.Context, d step.Descriptor) (Status, error)
	// Apply moves the system towards d. Failures are reported in the
	// result, never returned.
	Apply(ctx context.Context, d step.Descriptor) Result
}

// Registry maps step kinds to handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[step.Kind]Handler
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[step.Kind]Handler)}
}

// Register binds h to kind, replacing any previous handler.
func (r *Registry) Register(kind step.Kind, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[kind] = h
}

// Get returns the handler for kind.
func (r *Registry) Get(kind step.Kind) (Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoHandler, kind)
	}
	return h, nil
}

// Kinds returns the registered kinds in step.Kinds order.
func (r *Registry) Kinds() []step.Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []step.Kind
	for _, k := range step.Kinds() {
		if _, ok := r.handlers[k]; ok {
			out = append(out, k)
		}
	}
	return out
}
