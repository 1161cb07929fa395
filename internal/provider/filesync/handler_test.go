package filesync

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/jumpstart/internal/adapters/filesystem"
	"github.com/felixgeelhaar/jumpstart/internal/domain/reconcile"
	"github.com/felixgeelhaar/jumpstart/internal/domain/step"
	"github.com/felixgeelhaar/jumpstart/internal/testutil/mocks"
)

func newSync(t *testing.T, src, dest string) *step.FileSync {
	t.Helper()
	f, err := step.NewFileSync("", src, dest)
	require.NoError(t, err)
	return f
}

func TestHandler_Probe(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.AddFile("/dotfiles/.zshrc", "export EDITOR=vim\n")
	h := New(fs)
	ctx := context.Background()
	d := newSync(t, "/dotfiles/.zshrc", "/home/me/.zshrc")

	status, err := h.Probe(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, reconcile.Unsatisfied, status, "missing destination")

	fs.AddFile("/home/me/.zshrc", "export EDITOR=nano\n")
	status, err = h.Probe(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, reconcile.Unsatisfied, status, "different content")

	fs.AddFile("/home/me/.zshrc", "export EDITOR=vim\n")
	status, err = h.Probe(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, reconcile.Satisfied, status, "equal content")
}

func TestHandler_Probe_SourceMissingIsProbeError(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.AddFile("/home/me/.zshrc", "x")

	_, err := New(fs).Probe(context.Background(), newSync(t, "/dotfiles/.zshrc", "/home/me/.zshrc"))
	assert.Error(t, err)
}

// Destination content equals source content after a successful apply.
func TestHandler_Apply_CopyMakesContentEqual(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.AddFile("/dotfiles/.gitconfig", "[user]\n\tname = me\n")
	fs.AddFile("/home/me/.gitconfig", "stale")
	h := New(fs)
	d := newSync(t, "/dotfiles/.gitconfig", "/home/me/.gitconfig")

	r := h.Apply(context.Background(), d)
	require.Equal(t, reconcile.OutcomeApplied, r.Outcome, r.Reason)
	assert.Contains(t, r.Reason, "copied 18 B")

	content, _ := fs.Content("/home/me/.gitconfig")
	assert.Equal(t, "[user]\n\tname = me\n", content)

	status, err := h.Probe(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, reconcile.Satisfied, status)
}

func TestHandler_Apply_Failures(t *testing.T) {
	t.Run("source unreadable", func(t *testing.T) {
		r := New(mocks.NewFileSystem()).Apply(context.Background(), newSync(t, "/missing", "/home/me/x"))
		assert.Equal(t, reconcile.OutcomeFailed, r.Outcome)
		assert.Contains(t, r.Reason, "source unreadable")
	})

	t.Run("destination unwritable", func(t *testing.T) {
		fs := mocks.NewFileSystem()
		fs.AddFile("/src", "x")
		fs.FailWrites("/ro/dest", errors.New("read-only file system"))

		r := New(fs).Apply(context.Background(), newSync(t, "/src", "/ro/dest"))
		assert.Equal(t, reconcile.OutcomeFailed, r.Outcome)
		assert.Equal(t, "destination unwritable: read-only file system", r.Reason)
	})

	t.Run("parent is a file", func(t *testing.T) {
		fs := mocks.NewFileSystem()
		fs.AddFile("/src", "x")
		fs.AddFile("/home/me/.config", "not a dir")

		r := New(fs).Apply(context.Background(), newSync(t, "/src", "/home/me/.config/app.toml"))
		assert.Equal(t, reconcile.OutcomeFailed, r.Outcome)
		assert.Contains(t, r.Reason, "destination unwritable")
	})
}

type recordingLifecycle struct{ paths []string }

func (l *recordingLifecycle) BeforeOverwrite(_ context.Context, path string) error {
	l.paths = append(l.paths, path)
	return nil
}

func TestHandler_Apply_RunsLifecycleOnlyWhenOverwriting(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.AddFile("/src", "new")
	lc := &recordingLifecycle{}
	h := New(fs, WithLifecycle(lc))

	h.Apply(context.Background(), newSync(t, "/src", "/a"))
	fs.AddFile("/b", "old")
	h.Apply(context.Background(), newSync(t, "/src", "/b"))

	assert.Equal(t, []string{"/b"}, lc.paths)
}

func TestHandler_RealFileSystem(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "dotfiles", ".vimrc")
	dest := filepath.Join(dir, "home", "nested", ".vimrc")
	require.NoError(t, os.MkdirAll(filepath.Dir(src), 0o755))
	require.NoError(t, os.WriteFile(src, []byte("set number\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Dir(dest), 0o755))
	require.NoError(t, os.WriteFile(dest, []byte("old\n"), 0o644))

	rfs := filesystem.NewRealFileSystem()
	h := New(rfs, WithLifecycle(filesystem.NewBackupLifecycle(rfs)))
	d := newSync(t, src, dest)

	r := h.Apply(context.Background(), d)
	require.Equal(t, reconcile.OutcomeApplied, r.Outcome, r.Reason)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "set number\n", string(got))

	backup, err := os.ReadFile(dest + filesystem.BackupSuffix)
	require.NoError(t, err)
	assert.Equal(t, "old\n", string(backup))

	status, err := h.Probe(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, reconcile.Satisfied, status)
}
