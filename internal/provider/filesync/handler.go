// Package filesync reconciles file-sync steps: the destination's content
// must equal the source's.
package filesync

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/felixgeelhaar/jumpstart/internal/domain/reconcile"
	"github.com/felixgeelhaar/jumpstart/internal/domain/step"
	"github.com/felixgeelhaar/jumpstart/internal/ports"
)

const parentMode = 0o755

// Handler copies files whose content differs.
type Handler struct {
	fs        ports.FileSystem
	lifecycle ports.FileLifecycle
}

// Option configures a Handler.
type Option func(*Handler)

// WithLifecycle runs lifecycle hooks before a destination is overwritten.
func WithLifecycle(l ports.FileLifecycle) Option {
	return func(h *Handler) { h.lifecycle = l }
}

// New creates a Handler.
func New(fs ports.FileSystem, opts ...Option) *Handler {
	h := &Handler{fs: fs, lifecycle: &ports.NoopLifecycle{}}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func paths(d step.Descriptor) (src, dest string, err error) {
	f, err := step.As[*step.FileSync](d)
	if err != nil {
		return "", "", err
	}
	return ports.ExpandPath(f.Source()), ports.ExpandPath(f.Destination()), nil
}

// Probe reports Satisfied when the destination exists and hashes equal to
// the source.
func (h *Handler) Probe(_ context.Context, d step.Descriptor) (reconcile.Status, error) {
	src, dest, err := paths(d)
	if err != nil {
		return reconcile.Unsatisfied, err
	}
	if !h.fs.Exists(dest) {
		return reconcile.Unsatisfied, nil
	}
	srcHash, err := h.fs.FileHash(src)
	if err != nil {
		return reconcile.Unsatisfied, fmt.Errorf("hash source: %w", err)
	}
	destHash, err := h.fs.FileHash(dest)
	if err != nil {
		return reconcile.Unsatisfied, fmt.Errorf("hash destination: %w", err)
	}
	if srcHash == destHash {
		return reconcile.Satisfied, nil
	}
	return reconcile.Unsatisfied, nil
}

// Apply creates the destination's parent and overwrites it with the source.
func (h *Handler) Apply(ctx context.Context, d step.Descriptor) reconcile.Result {
	src, dest, err := paths(d)
	if err != nil {
		return reconcile.Failed(err)
	}

	info, err := h.fs.Stat(src)
	if err != nil {
		return reconcile.Failedf("source unreadable: %v", err)
	}
	if info.IsDir {
		return reconcile.Failedf("source %s is a directory", src)
	}

	if err := h.fs.MkdirAll(filepath.Dir(dest), parentMode); err != nil {
		return reconcile.Failedf("destination unwritable: %v", err)
	}
	if h.fs.IsDir(dest) {
		return reconcile.Failedf("destination %s is a directory", dest)
	}
	if h.fs.Exists(dest) {
		if err := h.lifecycle.BeforeOverwrite(ctx, dest); err != nil {
			return reconcile.Failedf("prepare overwrite of %s: %v", dest, err)
		}
	}
	if err := h.fs.CopyFile(src, dest); err != nil {
		return reconcile.Failedf("destination unwritable: %v", err)
	}
	return reconcile.Applied(fmt.Sprintf("copied %s to %s", humanize.Bytes(uint64(info.Size)), dest))
}

var _ reconcile.Handler = (*Handler)(nil)
