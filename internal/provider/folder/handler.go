// Package folder reconciles folder steps.
package folder

import (
	"context"

	"github.com/felixgeelhaar/jumpstart/internal/domain/reconcile"
	"github.com/felixgeelhaar/jumpstart/internal/domain/step"
	"github.com/felixgeelhaar/jumpstart/internal/ports"
)

const dirMode = 0o755

// Handler creates directories.
type Handler struct {
	fs ports.FileSystem
}

// New creates a Handler.
func New(fs ports.FileSystem) *Handler {
	return &Handler{fs: fs}
}

// Probe reports Satisfied when the path exists and is a directory.
func (h *Handler) Probe(_ context.Context, d step.Descriptor) (reconcile.Status, error) {
	f, err := step.As[*step.Folder](d)
	if err != nil {
		return reconcile.Unsatisfied, err
	}
	if h.fs.IsDir(ports.ExpandPath(f.Path())) {
		return reconcile.Satisfied, nil
	}
	return reconcile.Unsatisfied, nil
}

// Apply creates the directory and its parents.
func (h *Handler) Apply(_ context.Context, d step.Descriptor) reconcile.Result {
	f, err := step.As[*step.Folder](d)
	if err != nil {
		return reconcile.Failed(err)
	}
	path := ports.ExpandPath(f.Path())
	if h.fs.Exists(path) && !h.fs.IsDir(path) {
		return reconcile.Failedf("%s exists but is not a directory", path)
	}
	if err := h.fs.MkdirAll(path, dirMode); err != nil {
		return reconcile.Failedf("create %s: %v", path, err)
	}
	return reconcile.Applied("created " + path)
}

var _ reconcile.Handler = (*Handler)(nil)
