// Package testutil provides test helpers and utilities for jumpstart tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// WriteTempFile writes content to a file in the specified directory.
func WriteTempFile(t testing.TB, dir, filename, content string) string {
	t.Helper()

	path := filepath.Join(dir, filename)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755), "failed to create parent of %s", filename)
	err := os.WriteFile(path, []byte(content), 0o644)
	require.NoError(t, err, "failed to write temp file: %s", filename)

	return path
}

// WriteTempDir creates a subdirectory in the temp directory.
func WriteTempDir(t testing.TB, dir, dirname string) string {
	t.Helper()

	path := filepath.Join(dir, dirname)
	err := os.MkdirAll(path, 0o755)
	require.NoError(t, err, "failed to create temp subdirectory: %s", dirname)

	return path
}

// WriteDocument renders b and writes it to dir/filename.
func WriteDocument(t testing.TB, dir, filename string, b *DocumentBuilder) string {
	t.Helper()
	return WriteTempFile(t, dir, filename, b.ToYAML(t))
}
