// Package config turns configuration documents into ordered step
// descriptors and reads the jumpstart manifest.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/felixgeelhaar/jumpstart/internal/domain/credential"
	"github.com/felixgeelhaar/jumpstart/internal/domain/step"
	"github.com/felixgeelhaar/jumpstart/internal/ports"
)

// Loader loads configuration documents from the filesystem.
type Loader struct {
	readFile func(path string) ([]byte, error)
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithFileSystem reads documents through fs instead of the os package.
func WithFileSystem(fsys ports.FileSystem) LoaderOption {
	return func(l *Loader) { l.readFile = fsys.ReadFile }
}

// NewLoader creates a new Loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{readFile: os.ReadFile}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load parses one document into descriptors, preserving document order.
func (l *Loader) Load(path string) ([]step.Descriptor, error) {
	data, err := l.readFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, NewConfigNotFoundError(path)
		}
		return nil, NewMalformedError(path, "", err)
	}
	return Parse(path, data)
}

// LoadAll parses every document before returning. The first malformed
// document aborts the load and no descriptors are returned.
func (l *Loader) LoadAll(paths []string) ([]step.Descriptor, error) {
	var all []step.Descriptor
	for _, path := range paths {
		steps, err := l.Load(path)
		if err != nil {
			return nil, err
		}
		all = append(all, steps...)
	}
	return all, nil
}

// Parse parses document data. path selects the format by extension, names
// the document in errors, and anchors relative file-sync sources.
func Parse(path string, data []byte) ([]step.Descriptor, error) {
	doc := filepath.Base(path)
	tree, err := decode(path, data)
	if err != nil {
		return nil, NewParseError(doc, err)
	}
	p := &parser{doc: doc, dir: filepath.Dir(path)}
	return p.document(tree)
}

type parser struct {
	doc string
	dir string
}

func (p *parser) fail(loc string, err error) error {
	return NewMalformedError(p.doc, loc, err)
}

// Top-level keys. Legacy lists are expanded first in this order, then steps.
var topLevelKeys = []string{"casks", "formulae", "folders", "interactive_apps", "steps"}

func (p *parser) document(tree map[string]any) ([]step.Descriptor, error) {
	root := node{fields: tree}
	if loc, err := root.only(topLevelKeys...); err != nil {
		return nil, p.fail(loc, err)
	}

	var out []step.Descriptor
	for _, section := range []struct {
		key     string
		manager string
	}{{"casks", step.ManagerCask}, {"formulae", step.ManagerFormula}} {
		ids, err := root.strings(section.key)
		if err != nil {
			return nil, p.fail(section.key, err)
		}
		for i, id := range ids {
			d, err := step.NewPackage("", id, section.manager)
			if err != nil {
				return nil, p.fail(fmt.Sprintf("%s[%d]", section.key, i), err)
			}
			out = append(out, d)
		}
	}

	folders, err := root.strings("folders")
	if err != nil {
		return nil, p.fail("folders", err)
	}
	for i, path := range folders {
		d, err := step.NewFolder("", path)
		if err != nil {
			return nil, p.fail(fmt.Sprintf("folders[%d]", i), err)
		}
		out = append(out, d)
	}

	apps, err := root.list("interactive_apps")
	if err != nil {
		return nil, p.fail("interactive_apps", err)
	}
	for i, item := range apps {
		loc := fmt.Sprintf("interactive_apps[%d]", i)
		n, err := asNode(loc, item)
		if err != nil {
			return nil, p.fail(loc, err)
		}
		ds, err := p.legacyApp(n)
		if err != nil {
			return nil, err
		}
		out = append(out, ds...)
	}

	steps, err := root.list("steps")
	if err != nil {
		return nil, p.fail("steps", err)
	}
	for i, item := range steps {
		loc := fmt.Sprintf("steps[%d]", i)
		n, err := asNode(loc, item)
		if err != nil {
			return nil, p.fail(loc, err)
		}
		d, err := p.step(n)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// step parses one canonical {kind, name, ...} entry.
func (p *parser) step(n node) (step.Descriptor, error) {
	rawKind, err := n.str("kind")
	if err != nil {
		return nil, p.fail(n.at("kind"), err)
	}
	if rawKind == "" {
		return nil, p.fail(n.at("kind"), fmt.Errorf("%w %q", step.ErrMissingField, "kind"))
	}
	kind, err := step.ParseKind(rawKind)
	if err != nil {
		return nil, p.fail(n.at("kind"), err)
	}

	var d step.Descriptor
	switch kind {
	case step.KindPackage:
		d, err = p.pkg(n)
	case step.KindFolder:
		d, err = p.folder(n)
	case step.KindFileSync:
		d, err = p.fileSync(n)
	case step.KindAutomatedSetup:
		d, err = p.automated(n)
	case step.KindInteractiveSetup:
		d, err = p.interactive(n)
	}
	if err != nil {
		var ue *UserError
		if errors.As(err, &ue) {
			return nil, err
		}
		return nil, p.fail(n.loc, err)
	}
	return d, nil
}

func (p *parser) strs(n node, keys ...string) ([]string, error) {
	out := make([]string, len(keys))
	for i, key := range keys {
		s, err := n.str(key)
		if err != nil {
			return nil, p.fail(n.at(key), err)
		}
		out[i] = s
	}
	return out, nil
}

func (p *parser) pkg(n node) (step.Descriptor, error) {
	if loc, err := n.only("kind", "name", "identifier", "manager"); err != nil {
		return nil, p.fail(loc, err)
	}
	v, err := p.strs(n, "name", "identifier", "manager")
	if err != nil {
		return nil, err
	}
	return step.NewPackage(v[0], v[1], v[2])
}

func (p *parser) folder(n node) (step.Descriptor, error) {
	if loc, err := n.only("kind", "name", "path"); err != nil {
		return nil, p.fail(loc, err)
	}
	v, err := p.strs(n, "name", "path")
	if err != nil {
		return nil, err
	}
	return step.NewFolder(v[0], v[1])
}

func (p *parser) fileSync(n node) (step.Descriptor, error) {
	if loc, err := n.only("kind", "name", "source", "destination"); err != nil {
		return nil, p.fail(loc, err)
	}
	v, err := p.strs(n, "name", "source", "destination")
	if err != nil {
		return nil, err
	}
	return step.NewFileSync(v[0], p.resolveSource(v[1]), v[2])
}

// resolveSource anchors a relative source at the document's directory.
func (p *parser) resolveSource(src string) string {
	src = strings.TrimSpace(src)
	if src == "" || filepath.IsAbs(src) || src == "~" || strings.HasPrefix(src, "~/") {
		return src
	}
	return filepath.Join(p.dir, src)
}

func (p *parser) interactive(n node) (step.Descriptor, error) {
	if loc, err := n.only("kind", "name", "launch", "instructions", "bundle_id", "marker"); err != nil {
		return nil, p.fail(loc, err)
	}
	v, err := p.strs(n, "name", "launch", "instructions", "bundle_id", "marker")
	if err != nil {
		return nil, err
	}
	return step.NewInteractiveSetup(v[0], v[1], v[2], v[3], v[4])
}

func (p *parser) automated(n node) (step.Descriptor, error) {
	if loc, err := n.only("kind", "name", "credentials", "action", "follow_up", "marker", "requires", "bundle_id"); err != nil {
		return nil, p.fail(loc, err)
	}
	v, err := p.strs(n, "name", "marker", "bundle_id")
	if err != nil {
		return nil, err
	}
	requires, err := n.strings("requires")
	if err != nil {
		return nil, p.fail(n.at("requires"), err)
	}
	creds, err := p.credentials(n)
	if err != nil {
		return nil, err
	}
	if !n.has("action") {
		return nil, p.fail(n.at("action"), fmt.Errorf("%w %q", step.ErrMissingField, "action"))
	}
	an, err := asNode(n.at("action"), n.fields["action"])
	if err != nil {
		return nil, p.fail(n.at("action"), err)
	}
	action, err := p.action(an)
	if err != nil {
		return nil, err
	}
	items, err := n.list("follow_up")
	if err != nil {
		return nil, p.fail(n.at("follow_up"), err)
	}
	followUps := make([]step.Action, 0, len(items))
	for i, item := range items {
		loc := fmt.Sprintf("%s[%d]", n.at("follow_up"), i)
		fn, err := asNode(loc, item)
		if err != nil {
			return nil, p.fail(loc, err)
		}
		a, err := p.action(fn)
		if err != nil {
			return nil, err
		}
		followUps = append(followUps, a)
	}
	return step.NewAutomatedSetup(v[0], creds, action,
		step.WithMarker(v[1]),
		step.WithRequires(requires...),
		step.WithApp(v[2]),
		step.WithFollowUp(followUps...),
	)
}

// credentials reads alias -> reference, where a reference is a URI string or
// a {backend, item, field, optional} mapping. Aliases are returned sorted.
func (p *parser) credentials(n node) ([]step.Credential, error) {
	raw, ok := n.fields["credentials"]
	if !ok || raw == nil {
		return nil, nil
	}
	cn, err := asNode(n.at("credentials"), raw)
	if err != nil {
		return nil, p.fail(n.at("credentials"), err)
	}
	aliases := make([]string, 0, len(cn.fields))
	for alias := range cn.fields {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)

	creds := make([]step.Credential, 0, len(aliases))
	for _, alias := range aliases {
		loc := cn.at(alias)
		var (
			ref      credential.Reference
			optional bool
		)
		switch v := cn.fields[alias].(type) {
		case string:
			ref, err = credential.ParseReference(v)
		case map[string]any:
			rn := node{loc: loc, fields: v}
			if bad, err := rn.only("backend", "item", "field", "optional"); err != nil {
				return nil, p.fail(bad, err)
			}
			if optional, err = rn.bool("optional"); err != nil {
				return nil, p.fail(rn.at("optional"), err)
			}
			var f []string
			if f, err = p.strs(rn, "backend", "item", "field"); err != nil {
				return nil, err
			}
			ref = credential.Reference{Backend: f[0], Item: f[1], Field: f[2]}
			if ref.Backend == "" {
				ref.Backend = credential.BackendOnePassword
			}
			err = ref.Validate()
		default:
			err = fmt.Errorf("expected a reference string or mapping, got %s", typeName(v))
		}
		if err != nil {
			return nil, p.fail(loc, err)
		}
		creds = append(creds, step.Credential{Alias: alias, Ref: ref, Optional: optional})
	}
	return creds, nil
}

func (p *parser) action(n node) (step.Action, error) {
	if loc, err := n.only("type", "path", "template", "mode", "entries", "command", "args", "stdin"); err != nil {
		return step.Action{}, p.fail(loc, err)
	}
	v, err := p.strs(n, "type", "path", "template", "command", "stdin")
	if err != nil {
		return step.Action{}, err
	}
	mode, err := n.mode("mode")
	if err != nil {
		return step.Action{}, p.fail(n.at("mode"), err)
	}
	args, err := n.strings("args")
	if err != nil {
		return step.Action{}, p.fail(n.at("args"), err)
	}
	items, err := n.list("entries")
	if err != nil {
		return step.Action{}, p.fail(n.at("entries"), err)
	}
	entries := make([]step.INIEntry, 0, len(items))
	for i, item := range items {
		loc := fmt.Sprintf("%s[%d]", n.at("entries"), i)
		en, err := asNode(loc, item)
		if err != nil {
			return step.Action{}, p.fail(loc, err)
		}
		if bad, err := en.only("section", "key", "value"); err != nil {
			return step.Action{}, p.fail(bad, err)
		}
		f, err := p.strs(en, "section", "key", "value")
		if err != nil {
			return step.Action{}, err
		}
		entries = append(entries, step.INIEntry{Section: f[0], Key: f[1], Value: f[2]})
	}
	return step.Action{
		Type:     v[0],
		Path:     v[1],
		Template: v[2],
		Mode:     mode,
		Entries:  entries,
		Command:  v[3],
		Args:     args,
		Stdin:    v[4],
	}, nil
}
