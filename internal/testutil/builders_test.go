package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDocumentBuilder(t *testing.T) {
	doc := NewDocumentBuilder().
		WithPackage("git", "").
		WithPackage("slack", "cask").
		WithFolder("~/Projects").
		WithFileSetup("AWS", map[string]string{"key": "env://AWS_KEY"}, "~/.aws/key", `{{ secret "key" }}`).
		ToYAML(t)

	var parsed struct {
		Steps []map[string]any `yaml:"steps"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(doc), &parsed))
	require.Len(t, parsed.Steps, 4)
	assert.Equal(t, "package", parsed.Steps[0]["kind"])
	assert.NotContains(t, parsed.Steps[0], "manager")
	assert.Equal(t, "cask", parsed.Steps[1]["manager"])
	assert.Equal(t, "~/Projects", parsed.Steps[2]["path"])
	assert.Equal(t, map[string]any{"key": "env://AWS_KEY"}, parsed.Steps[3]["credentials"])
}

func TestWriteDocument(t *testing.T) {
	dir := t.TempDir()
	path := WriteDocument(t, dir, "nested/doc.yaml", NewDocumentBuilder().WithFolder("/tmp/x"))

	AssertFileEquals(t, path, "steps:\n    - kind: folder\n      path: /tmp/x\n")
	AssertFileMode(t, path, 0o644)
}

func TestAssertFileUnchanged(t *testing.T) {
	path := WriteTempFile(t, t.TempDir(), "a.txt", "alpha")
	AssertFileUnchanged(t, path, func() {})
}
