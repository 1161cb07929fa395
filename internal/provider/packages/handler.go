// Package packages reconciles package steps against a package manager.
package packages

import (
	"context"

	"github.com/felixgeelhaar/jumpstart/internal/domain/reconcile"
	"github.com/felixgeelhaar/jumpstart/internal/domain/step"
	"github.com/felixgeelhaar/jumpstart/internal/ports"
	"github.com/felixgeelhaar/jumpstart/internal/provider/commandutil"
)

// Handler probes and installs packages.
type Handler struct {
	manager ports.PackageManager
}

// New creates a Handler backed by manager.
func New(manager ports.PackageManager) *Handler {
	return &Handler{manager: manager}
}

// Probe reports Satisfied when the package is in the installed set.
func (h *Handler) Probe(ctx context.Context, d step.Descriptor) (reconcile.Status, error) {
	p, err := step.As[*step.Package](d)
	if err != nil {
		return reconcile.Unsatisfied, err
	}
	installed, err := h.manager.Installed(ctx, p.Identifier(), p.Manager())
	if err != nil {
		return reconcile.Unsatisfied, err
	}
	if installed {
		return reconcile.Satisfied, nil
	}
	return reconcile.Unsatisfied, nil
}

// Apply installs the package. The manager's stderr becomes the failure reason.
func (h *Handler) Apply(ctx context.Context, d step.Descriptor) reconcile.Result {
	p, err := step.As[*step.Package](d)
	if err != nil {
		return reconcile.Failed(err)
	}
	result, err := h.manager.Install(ctx, p.Identifier(), p.Manager())
	if err != nil {
		return reconcile.Failedf("install %s: %v", p.Identifier(), commandutil.Wrap(h.manager.Name(), err))
	}
	if !result.Success() {
		return reconcile.Failedf("%s install %s failed: %s", h.manager.Name(), p.Identifier(), result.Diagnostic())
	}
	return reconcile.Applied("installed via " + h.manager.Name())
}

var _ reconcile.Handler = (*Handler)(nil)
