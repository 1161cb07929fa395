// Package setup reconciles application setup steps: automated ones driven
// by vault secrets and interactive ones completed by the operator.
package setup

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/felixgeelhaar/jumpstart/internal/domain/reconcile"
	"github.com/felixgeelhaar/jumpstart/internal/ports"
)

// markerStatus reports Satisfied only when a marker is configured and exists.
func markerStatus(fs ports.FileSystem, marker string) reconcile.Status {
	if marker != "" && fs.Exists(ports.ExpandPath(marker)) {
		return reconcile.Satisfied
	}
	return reconcile.Unsatisfied
}

// writeMarker records completion. Existing markers are left alone so a
// marker that doubles as the action's own output is never clobbered.
func writeMarker(fs ports.FileSystem, marker string, now time.Time) error {
	if marker == "" {
		return nil
	}
	path := ports.ExpandPath(marker)
	if fs.Exists(path) {
		return nil
	}
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("write marker: %w", err)
	}
	if err := fs.WriteFile(path, []byte("completed "+now.UTC().Format(time.RFC3339)+"\n"), 0o644); err != nil {
		return fmt.Errorf("write marker: %w", err)
	}
	return nil
}
