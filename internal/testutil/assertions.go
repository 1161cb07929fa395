package testutil

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertFileEquals asserts that a file's content equals expected exactly.
func AssertFileEquals(t testing.TB, path, expected string, msgAndArgs ...interface{}) {
	t.Helper()

	content, err := os.ReadFile(path)
	require.NoError(t, err, "failed to read file: %s", path)
	assert.Equal(t, expected, string(content), msgAndArgs...)
}

// AssertFileMode asserts a file's permission bits.
func AssertFileMode(t testing.TB, path string, mode os.FileMode, msgAndArgs ...interface{}) {
	t.Helper()

	info, err := os.Stat(path)
	require.NoError(t, err, "failed to stat file: %s", path)
	assert.Equal(t, mode, info.Mode().Perm(), msgAndArgs...)
}

// AssertFileUnchanged asserts that fn leaves the file's content and
// modification time untouched.
func AssertFileUnchanged(t testing.TB, path string, fn func()) {
	t.Helper()

	before, err := os.Stat(path)
	require.NoError(t, err)
	content, err := os.ReadFile(path)
	require.NoError(t, err)

	fn()

	after, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime(), "%s was rewritten", path)
	AssertFileEquals(t, path, string(content))
}
