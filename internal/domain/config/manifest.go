package config

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/jumpstart/internal/ports"
)

// DefaultManifest is the manifest file looked up when none is given.
const DefaultManifest = "jumpstart.yaml"

// VaultConfig configures the age vault backend.
type VaultConfig struct {
	AgeIdentity string `yaml:"age_identity,omitempty"`
	AgeDir      string `yaml:"age_dir,omitempty"`
}

// Manifest is the root configuration (jumpstart.yaml).
type Manifest struct {
	Documents []string    `yaml:"documents"`
	Vault     VaultConfig `yaml:"vault,omitempty"`
	Privilege bool        `yaml:"privilege,omitempty"`

	dir string
}

// ParseManifest parses a Manifest from YAML bytes. Unknown keys are rejected.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	for i, doc := range m.Documents {
		if doc == "" {
			return nil, &UserError{
				Code:    ErrCodeManifestInvalid,
				Message: "empty document path",
				Context: "documents[" + strconv.Itoa(i) + "]",
			}
		}
	}
	return &m, nil
}

// LoadManifest loads a manifest from the given path.
func (l *Loader) LoadManifest(path string) (*Manifest, error) {
	data, err := l.readFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, NewConfigNotFoundError(path)
		}
		return nil, err
	}
	m, err := ParseManifest(data)
	if err != nil {
		var ue *UserError
		if errors.As(err, &ue) {
			ue.Context = path + ": " + ue.Context
			return nil, ue
		}
		return nil, &UserError{
			Code:       ErrCodeManifestInvalid,
			Message:    "invalid manifest",
			Context:    path,
			Suggestion: "The manifest accepts documents, vault and privilege keys.",
			Underlying: err,
		}
	}
	m.dir = filepath.Dir(path)
	return m, nil
}

// DocumentPaths returns the document list with relative paths anchored at
// the manifest's directory.
func (m *Manifest) DocumentPaths() []string {
	out := make([]string, 0, len(m.Documents))
	for _, doc := range m.Documents {
		expanded := ports.ExpandPath(doc)
		if !filepath.IsAbs(expanded) && m.dir != "" {
			expanded = filepath.Join(m.dir, expanded)
		}
		out = append(out, expanded)
	}
	return out
}
