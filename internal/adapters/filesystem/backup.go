package filesystem

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/jumpstart/internal/ports"
)

// BackupSuffix is appended to a file's path to name its backup copy.
const BackupSuffix = ".jumpstart.bak"

// BackupLifecycle keeps one backup copy of every file a run overwrites.
// Only the most recent previous content is kept.
type BackupLifecycle struct {
	fs ports.FileSystem
}

// NewBackupLifecycle creates a BackupLifecycle over fs.
func NewBackupLifecycle(fs ports.FileSystem) *BackupLifecycle {
	return &BackupLifecycle{fs: fs}
}

// BeforeOverwrite copies path to path+BackupSuffix when path exists.
func (b *BackupLifecycle) BeforeOverwrite(_ context.Context, path string) error {
	if !b.fs.Exists(path) || b.fs.IsDir(path) {
		return nil
	}
	if err := b.fs.CopyFile(path, path+BackupSuffix); err != nil {
		return fmt.Errorf("backing up %s: %w", path, err)
	}
	return nil
}

var _ ports.FileLifecycle = (*BackupLifecycle)(nil)
