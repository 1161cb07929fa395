package ports

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileInfo is the subset of file metadata the handlers look at.
type FileInfo struct {
	Size    int64
	Mode    os.FileMode
	ModTime time.Time
	IsDir   bool
}

// FileSystem is the filesystem as seen by probes and executors. Paths are
// already expanded; implementations never interpret "~".
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
	// WriteFile creates or truncates path with perm. perm is applied even
	// when the file already exists.
	WriteFile(path string, data []byte, perm os.FileMode) error
	Exists(path string) bool
	IsDir(path string) bool
	MkdirAll(path string, perm os.FileMode) error
	// FileHash returns a hex content digest. Two files with equal digests
	// have equal content; the algorithm is up to the implementation.
	FileHash(path string) (string, error)
	// CopyFile replaces dest with the content and mode of src. The parent of
	// dest must exist.
	CopyFile(src, dest string) error
	Stat(path string) (FileInfo, error)
}

// ExpandPath expands a leading ~ to the user's home directory. "~user"
// forms are left alone.
func ExpandPath(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
