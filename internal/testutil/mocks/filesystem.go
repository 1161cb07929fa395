package mocks

import (
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/zeebo/blake3"

	"github.com/felixgeelhaar/jumpstart/internal/ports"
)

// FileSystem is a thread-safe test double for ports.FileSystem.
type FileSystem struct {
	mu          sync.RWMutex
	files       map[string][]byte
	modes       map[string]os.FileMode
	dirs        map[string]bool
	writeErrors map[string]error
}

// NewFileSystem creates a new FileSystem mock.
func NewFileSystem() *FileSystem {
	return &FileSystem{
		files:       make(map[string][]byte),
		modes:       make(map[string]os.FileMode),
		dirs:        make(map[string]bool),
		writeErrors: make(map[string]error),
	}
}

func notFound(op, path string) error {
	return &fs.PathError{Op: op, Path: path, Err: fs.ErrNotExist}
}

// AddFile adds a file to the mock filesystem.
func (m *FileSystem) AddFile(path string, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = []byte(content)
	m.modes[path] = 0o644
}

// AddDir adds a directory to the mock filesystem.
func (m *FileSystem) AddDir(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dirs[path] = true
}

// FailWrites makes writes and copies to path return err.
func (m *FileSystem) FailWrites(path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErrors[path] = err
}

// Content returns a file's content and whether it exists.
func (m *FileSystem) Content(path string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	content, ok := m.files[path]
	return string(content), ok
}

// Mode returns the permission a file was last written with.
func (m *FileSystem) Mode(path string) os.FileMode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.modes[path]
}

// ReadFile reads a file from the mock filesystem.
func (m *FileSystem) ReadFile(path string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if content, ok := m.files[path]; ok {
		return append([]byte(nil), content...), nil
	}
	return nil, notFound("open", path)
}

// WriteFile writes a file to the mock filesystem.
func (m *FileSystem) WriteFile(path string, data []byte, perm os.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.writeErrors[path]; err != nil {
		return err
	}
	if m.dirs[path] {
		return fmt.Errorf("write %s: is a directory", path)
	}
	m.files[path] = append([]byte(nil), data...)
	m.modes[path] = perm
	return nil
}

// Exists checks if a path exists in the mock filesystem.
func (m *FileSystem) Exists(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, fileExists := m.files[path]
	return fileExists || m.dirs[path]
}

// IsDir checks if a path is a directory in the mock filesystem.
func (m *FileSystem) IsDir(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dirs[path]
}

// MkdirAll creates a directory and its parents in the mock filesystem.
func (m *FileSystem) MkdirAll(path string, _ os.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for p := filepath.Clean(path); ; p = filepath.Dir(p) {
		if _, isFile := m.files[p]; isFile {
			return fmt.Errorf("mkdir %s: not a directory", p)
		}
		if p == filepath.Dir(p) {
			break
		}
	}
	for p := filepath.Clean(path); p != filepath.Dir(p); p = filepath.Dir(p) {
		m.dirs[p] = true
	}
	return nil
}

// FileHash returns the hex BLAKE3 hash of a file in the mock filesystem.
func (m *FileSystem) FileHash(path string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	content, ok := m.files[path]
	if !ok {
		return "", notFound("open", path)
	}
	sum := blake3.Sum256(content)
	return hex.EncodeToString(sum[:]), nil
}

// CopyFile copies a file in the mock filesystem.
func (m *FileSystem) CopyFile(src, dest string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	content, ok := m.files[src]
	if !ok {
		return notFound("open", src)
	}
	if err := m.writeErrors[dest]; err != nil {
		return err
	}
	m.files[dest] = append([]byte(nil), content...)
	m.modes[dest] = m.modes[src]
	return nil
}

// Stat returns metadata about a file in the mock filesystem.
func (m *FileSystem) Stat(path string) (ports.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if content, ok := m.files[path]; ok {
		return ports.FileInfo{
			Size:    int64(len(content)),
			Mode:    m.modes[path],
			ModTime: time.Now(),
		}, nil
	}
	if m.dirs[path] {
		return ports.FileInfo{Mode: 0o755 | os.ModeDir, ModTime: time.Now(), IsDir: true}, nil
	}
	return ports.FileInfo{}, notFound("stat", path)
}

// Reset clears all files and directories.
func (m *FileSystem) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files = make(map[string][]byte)
	m.modes = make(map[string]os.FileMode)
	m.dirs = make(map[string]bool)
	m.writeErrors = make(map[string]error)
}

// Ensure FileSystem implements ports.FileSystem.
var _ ports.FileSystem = (*FileSystem)(nil)
