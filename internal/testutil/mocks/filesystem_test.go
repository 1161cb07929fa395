package mocks

import (
	"errors"
	"io/fs"
	"sync"
	"testing"
)

func TestFileSystem_ReadFile(t *testing.T) {
	m := NewFileSystem()
	m.AddFile("/home/user/.zshrc", "export PATH=$PATH:/usr/local/bin")

	content, err := m.ReadFile("/home/user/.zshrc")
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(content) != "export PATH=$PATH:/usr/local/bin" {
		t.Errorf("ReadFile() = %q", string(content))
	}
}

func TestFileSystem_ReadFile_NotFound(t *testing.T) {
	m := NewFileSystem()

	_, err := m.ReadFile("/nonexistent")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("ReadFile() error = %v, want fs.ErrNotExist", err)
	}
}

func TestFileSystem_WriteFileRecordsMode(t *testing.T) {
	m := NewFileSystem()

	if err := m.WriteFile("/home/user/.aws/credentials", []byte("x"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if got := m.Mode("/home/user/.aws/credentials"); got != 0o600 {
		t.Errorf("Mode() = %o, want 600", got)
	}
	if content, ok := m.Content("/home/user/.aws/credentials"); !ok || content != "x" {
		t.Errorf("Content() = %q, %v", content, ok)
	}
}

func TestFileSystem_FailWrites(t *testing.T) {
	m := NewFileSystem()
	m.AddFile("/src", "data")
	boom := errors.New("read-only file system")
	m.FailWrites("/dest", boom)

	if err := m.WriteFile("/dest", nil, 0o644); !errors.Is(err, boom) {
		t.Errorf("WriteFile() error = %v", err)
	}
	if err := m.CopyFile("/src", "/dest"); !errors.Is(err, boom) {
		t.Errorf("CopyFile() error = %v", err)
	}
}

func TestFileSystem_MkdirAll(t *testing.T) {
	m := NewFileSystem()

	if err := m.MkdirAll("/home/user/Projects/go", 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	for _, p := range []string{"/home", "/home/user", "/home/user/Projects", "/home/user/Projects/go"} {
		if !m.IsDir(p) {
			t.Errorf("IsDir(%s) = false", p)
		}
	}

	m.AddFile("/home/user/file", "x")
	if err := m.MkdirAll("/home/user/file/sub", 0o755); err == nil {
		t.Error("MkdirAll() through a file should fail")
	}
}

func TestFileSystem_FileHash(t *testing.T) {
	m := NewFileSystem()
	m.AddFile("/a", "same")
	m.AddFile("/b", "same")
	m.AddFile("/c", "different")

	a, _ := m.FileHash("/a")
	b, _ := m.FileHash("/b")
	c, _ := m.FileHash("/c")
	if a != b || a == c {
		t.Errorf("hashes a=%s b=%s c=%s", a, b, c)
	}
	if _, err := m.FileHash("/missing"); err == nil {
		t.Error("FileHash() should fail for missing file")
	}
}

func TestFileSystem_CopyFile(t *testing.T) {
	m := NewFileSystem()
	m.AddFile("/src", "content")

	if err := m.CopyFile("/src", "/dest"); err != nil {
		t.Fatalf("CopyFile() error = %v", err)
	}
	if content, _ := m.Content("/dest"); content != "content" {
		t.Errorf("dest = %q", content)
	}
	if err := m.CopyFile("/missing", "/dest"); err == nil {
		t.Error("CopyFile() should fail for missing source")
	}
}

func TestFileSystem_Stat(t *testing.T) {
	m := NewFileSystem()
	m.AddFile("/f", "12345")
	m.AddDir("/d")

	info, err := m.Stat("/f")
	if err != nil || info.Size != 5 || info.IsDir {
		t.Errorf("Stat(/f) = %+v, %v", info, err)
	}
	info, err = m.Stat("/d")
	if err != nil || !info.IsDir {
		t.Errorf("Stat(/d) = %+v, %v", info, err)
	}
	if _, err := m.Stat("/x"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Stat(/x) error = %v", err)
	}
}

func TestFileSystem_ThreadSafety(t *testing.T) {
	m := NewFileSystem()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			path := "/file" + string(rune('a'+idx%26))
			_ = m.WriteFile(path, []byte("x"), 0o644)
			_, _ = m.ReadFile(path)
			_ = m.Exists(path)
		}(i)
	}
	wg.Wait()
}
