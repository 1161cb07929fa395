package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// DocumentBuilder builds canonical configuration documents for tests.
type DocumentBuilder struct {
	steps []map[string]any
}

// NewDocumentBuilder creates an empty document.
func NewDocumentBuilder() *DocumentBuilder {
	return &DocumentBuilder{}
}

func (b *DocumentBuilder) add(step map[string]any) *DocumentBuilder {
	b.steps = append(b.steps, step)
	return b
}

// WithPackage adds a package step. An empty manager is left out.
func (b *DocumentBuilder) WithPackage(identifier, manager string) *DocumentBuilder {
	s := map[string]any{"kind": "package", "identifier": identifier}
	if manager != "" {
		s["manager"] = manager
	}
	return b.add(s)
}

// WithFolder adds a folder step.
func (b *DocumentBuilder) WithFolder(path string) *DocumentBuilder {
	return b.add(map[string]any{"kind": "folder", "path": path})
}

// WithFileSync adds a file-sync step.
func (b *DocumentBuilder) WithFileSync(source, destination string) *DocumentBuilder {
	return b.add(map[string]any{"kind": "file-sync", "source": source, "destination": destination})
}

// WithInteractiveSetup adds an interactive setup that launches app.
func (b *DocumentBuilder) WithInteractiveSetup(app, instructions string) *DocumentBuilder {
	return b.add(map[string]any{"kind": "interactive-setup", "launch": app, "instructions": instructions})
}

// WithFileSetup adds an automated setup that renders template into path.
// creds maps aliases to references such as "env://AWS_KEY".
func (b *DocumentBuilder) WithFileSetup(name string, creds map[string]string, path, template string) *DocumentBuilder {
	return b.add(map[string]any{
		"kind":        "automated-setup",
		"name":        name,
		"credentials": creds,
		"action":      map[string]any{"type": "write-file", "path": path, "template": template},
	})
}

// ToYAML renders the document.
func (b *DocumentBuilder) ToYAML(t testing.TB) string {
	t.Helper()
	out, err := yaml.Marshal(map[string]any{"steps": b.steps})
	require.NoError(t, err)
	return string(out)
}
