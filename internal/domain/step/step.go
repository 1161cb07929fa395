// Package step defines the step descriptors a configuration document is
// parsed into.
//
// A Descriptor is a tagged union over a closed set of kinds. Each kind has
// its own concrete type; the kind tag is fixed by the constructor and cannot
// change afterwards. Constructors validate required fields, so a descriptor
// that exists is always complete.
package step

import (
	"errors"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/jumpstart/internal/domain/credential"
	"github.com/felixgeelhaar/jumpstart/internal/validation"
)

// Kind is the variant tag of a Descriptor.
type Kind string

// Step kinds.
const (
	KindPackage          Kind = "package"
	KindFolder           Kind = "folder"
	KindFileSync         Kind = "file-sync"
	KindAutomatedSetup   Kind = "automated-setup"
	KindInteractiveSetup Kind = "interactive-setup"
)

// Kinds lists every known kind in declaration order.
func Kinds() []Kind {
	return []Kind{KindPackage, KindFolder, KindFileSync, KindAutomatedSetup, KindInteractiveSetup}
}

// ParseKind validates a kind tag.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.TrimSpace(s))
	for _, known := range Kinds() {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// String returns the kind tag.
func (k Kind) String() string {
	return string(k)
}

// Errors returned by descriptor constructors.
var (
	ErrUnknownKind  = errors.New("unknown step kind")
	ErrMissingField = errors.New("missing required field")
	ErrInvalidField = errors.New("invalid field")
)

func missing(field string) error {
	return fmt.Errorf("%w %q", ErrMissingField, field)
}

func invalid(field, reason string) error {
	return fmt.Errorf("%w %q: %s", ErrInvalidField, field, reason)
}

// check runs fn on value unless it is empty.
func check(field, value string, fn func(string) error) error {
	if value == "" {
		return nil
	}
	if err := fn(value); err != nil {
		return invalid(field, err.Error())
	}
	return nil
}

// Descriptor is one desired-state step.
type Descriptor interface {
	// Name is the human label shown in logs and reports.
	Name() string
	// Kind is the variant tag.
	Kind() Kind
}

type base struct {
	name string
	kind Kind
}

func (b base) Name() string { return b.name }
func (b base) Kind() Kind   { return b.kind }

func newBase(kind Kind, name, fallback string) base {
	name = strings.TrimSpace(name)
	if name == "" {
		name = fallback
	}
	return base{name: name, kind: kind}
}

// Package manager hints.
const (
	ManagerFormula = "formula"
	ManagerCask    = "cask"
)

// Package is a package that must be installed.
type Package struct {
	base
	identifier string
	manager    string
}

// NewPackage creates a Package descriptor. An empty manager defaults to
// ManagerFormula.
func NewPackage(name, identifier, manager string) (*Package, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, missing("identifier")
	}
	if err := check("identifier", identifier, validation.ValidatePackageName); err != nil {
		return nil, err
	}
	switch manager {
	case "":
		manager = ManagerFormula
	case ManagerFormula, ManagerCask:
	default:
		return nil, invalid("manager", fmt.Sprintf("must be %q or %q, got %q", ManagerFormula, ManagerCask, manager))
	}
	return &Package{
		base:       newBase(KindPackage, name, identifier),
		identifier: identifier,
		manager:    manager,
	}, nil
}

// Identifier is the package name known to the manager.
func (p *Package) Identifier() string { return p.identifier }

// Manager is the manager hint (formula or cask).
func (p *Package) Manager() string { return p.manager }

// Folder is a directory that must exist.
type Folder struct {
	base
	path string
}

// NewFolder creates a Folder descriptor. path may start with ~/.
func NewFolder(name, path string) (*Folder, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, missing("path")
	}
	if err := check("path", path, validation.ValidatePath); err != nil {
		return nil, err
	}
	return &Folder{base: newBase(KindFolder, name, path), path: path}, nil
}

// Path is the directory path as written in the document.
func (f *Folder) Path() string { return f.path }

// FileSync is a file whose destination content must equal its source.
type FileSync struct {
	base
	source      string
	destination string
}

// NewFileSync creates a FileSync descriptor.
func NewFileSync(name, source, destination string) (*FileSync, error) {
	source = strings.TrimSpace(source)
	destination = strings.TrimSpace(destination)
	if source == "" {
		return nil, missing("source")
	}
	if destination == "" {
		return nil, missing("destination")
	}
	if err := check("source", source, validation.ValidatePath); err != nil {
		return nil, err
	}
	if err := check("destination", destination, validation.ValidatePath); err != nil {
		return nil, err
	}
	return &FileSync{
		base:        newBase(KindFileSync, name, destination),
		source:      source,
		destination: destination,
	}, nil
}

// Source is the path copied from.
func (f *FileSync) Source() string { return f.source }

// Destination is the path copied to.
func (f *FileSync) Destination() string { return f.destination }

// Credential binds a vault reference to the alias templates use.
type Credential struct {
	Alias string
	Ref   credential.Reference
	// Optional credentials that cannot be resolved skip the step instead of
	// failing it.
	Optional bool
}

// Action kinds for AutomatedSetup.
const (
	ActionWriteFile = "write-file"
	ActionWriteINI  = "write-ini"
	ActionCommand   = "command"
)

// INIEntry is one key assignment in an INI file.
type INIEntry struct {
	Section string
	Key     string
	Value   string // template
}

// Action is what an AutomatedSetup does once its secrets are resolved.
type Action struct {
	Type     string
	Path     string     // write-file, write-ini
	Template string     // write-file
	Mode     uint32     // write-file, write-ini; 0 means 0600
	Entries  []INIEntry // write-ini
	Command  string     // command
	Args     []string   // command; never templated
	Stdin    string     // command; template
}

func (a Action) validate() error {
	switch a.Type {
	case ActionWriteFile:
		if a.Path == "" {
			return missing("action.path")
		}
		if err := check("action.path", a.Path, validation.ValidatePath); err != nil {
			return err
		}
		if a.Template == "" {
			return missing("action.template")
		}
	case ActionWriteINI:
		if a.Path == "" {
			return missing("action.path")
		}
		if err := check("action.path", a.Path, validation.ValidatePath); err != nil {
			return err
		}
		if len(a.Entries) == 0 {
			return missing("action.entries")
		}
		for i, e := range a.Entries {
			if e.Section == "" || e.Key == "" {
				return missing(fmt.Sprintf("action.entries[%d].section/key", i))
			}
		}
	case ActionCommand:
		if a.Command == "" {
			return missing("action.command")
		}
		if err := check("action.command", a.Command, validation.ValidateCommand); err != nil {
			return err
		}
	case "":
		return missing("action.type")
	default:
		return invalid("action.type", fmt.Sprintf("unknown action %q", a.Type))
	}
	return nil
}

// AutomatedSetup configures an application using secrets from the vault.
type AutomatedSetup struct {
	base
	credentials []Credential
	actions     []Action
	marker      string
	requires    []string
	bundleID    string
}

// AutomatedOption configures optional AutomatedSetup fields.
type AutomatedOption func(*AutomatedSetup)

// WithMarker sets the sentinel file that marks the setup as done.
func WithMarker(path string) AutomatedOption {
	return func(s *AutomatedSetup) { s.marker = strings.TrimSpace(path) }
}

// WithRequires lists binaries that must be on PATH for the setup to run.
func WithRequires(binaries ...string) AutomatedOption {
	return func(s *AutomatedSetup) { s.requires = append([]string(nil), binaries...) }
}

// WithApp gates the setup on an installed application bundle.
func WithApp(bundleID string) AutomatedOption {
	return func(s *AutomatedSetup) { s.bundleID = strings.TrimSpace(bundleID) }
}

// WithFollowUp appends actions that run, in order, after the first one
// succeeds. They share the step's secrets.
func WithFollowUp(actions ...Action) AutomatedOption {
	return func(s *AutomatedSetup) { s.actions = append(s.actions, actions...) }
}

// NewAutomatedSetup creates an AutomatedSetup descriptor. At least one
// credential is required.
func NewAutomatedSetup(name string, creds []Credential, action Action, opts ...AutomatedOption) (*AutomatedSetup, error) {
	if strings.TrimSpace(name) == "" {
		return nil, missing("name")
	}
	if len(creds) == 0 {
		return nil, missing("credentials")
	}
	seen := make(map[string]bool, len(creds))
	for i, c := range creds {
		if c.Alias == "" {
			return nil, missing(fmt.Sprintf("credentials[%d].alias", i))
		}
		if seen[c.Alias] {
			return nil, invalid("credentials", fmt.Sprintf("duplicate alias %q", c.Alias))
		}
		seen[c.Alias] = true
		if err := c.Ref.Validate(); err != nil {
			return nil, invalid(fmt.Sprintf("credentials[%d]", i), err.Error())
		}
	}
	s := &AutomatedSetup{
		base:        newBase(KindAutomatedSetup, name, ""),
		credentials: append([]Credential(nil), creds...),
		actions:     []Action{action},
	}
	for _, opt := range opts {
		opt(s)
	}
	for i, a := range s.actions {
		if err := a.validate(); err != nil {
			if i > 0 {
				return nil, fmt.Errorf("follow-up %d: %w", i, err)
			}
			return nil, err
		}
		s.actions[i] = a.clone()
	}
	if err := check("marker", s.marker, validation.ValidatePath); err != nil {
		return nil, err
	}
	if err := check("bundle_id", s.bundleID, validation.ValidateBundleID); err != nil {
		return nil, err
	}
	for i, bin := range s.requires {
		if err := validation.ValidateBinaryName(bin); err != nil {
			return nil, invalid(fmt.Sprintf("requires[%d]", i), err.Error())
		}
	}
	return s, nil
}

func (a Action) clone() Action {
	a.Entries = append([]INIEntry(nil), a.Entries...)
	a.Args = append([]string(nil), a.Args...)
	return a
}

// Credentials returns a copy of the credential bindings.
func (s *AutomatedSetup) Credentials() []Credential {
	return append([]Credential(nil), s.credentials...)
}

// Action returns the first action.
func (s *AutomatedSetup) Action() Action {
	return s.actions[0].clone()
}

// Actions returns every action in run order.
func (s *AutomatedSetup) Actions() []Action {
	out := make([]Action, len(s.actions))
	for i, a := range s.actions {
		out[i] = a.clone()
	}
	return out
}

// BundleID is the application the setup is gated on, or "".
func (s *AutomatedSetup) BundleID() string { return s.bundleID }

// Marker is the sentinel path, or "".
func (s *AutomatedSetup) Marker() string { return s.marker }

// Requires returns the binaries that must be on PATH.
func (s *AutomatedSetup) Requires() []string {
	return append([]string(nil), s.requires...)
}

// InteractiveSetup asks the operator to finish an application's setup by hand.
type InteractiveSetup struct {
	base
	launch       string
	instructions string
	bundleID     string
	marker       string
}

// NewInteractiveSetup creates an InteractiveSetup descriptor. launch, bundleID
// and marker are optional.
func NewInteractiveSetup(name, launch, instructions, bundleID, marker string) (*InteractiveSetup, error) {
	if strings.TrimSpace(name) == "" && strings.TrimSpace(launch) == "" {
		return nil, missing("name")
	}
	instructions = strings.TrimSpace(instructions)
	if instructions == "" {
		return nil, missing("instructions")
	}
	launch = strings.TrimSpace(launch)
	bundleID = strings.TrimSpace(bundleID)
	marker = strings.TrimSpace(marker)
	if err := check("launch", launch, validation.ValidateAppName); err != nil {
		return nil, err
	}
	if err := check("bundle_id", bundleID, validation.ValidateBundleID); err != nil {
		return nil, err
	}
	if err := check("marker", marker, validation.ValidatePath); err != nil {
		return nil, err
	}
	return &InteractiveSetup{
		base:         newBase(KindInteractiveSetup, name, launch),
		launch:       launch,
		instructions: instructions,
		bundleID:     bundleID,
		marker:       marker,
	}, nil
}

// Launch is the application to open, or "".
func (s *InteractiveSetup) Launch() string { return s.launch }

// Instructions is the text shown to the operator.
func (s *InteractiveSetup) Instructions() string { return s.instructions }

// BundleID identifies the installed application, or "".
func (s *InteractiveSetup) BundleID() string { return s.bundleID }

// Marker is the sentinel path, or "".
func (s *InteractiveSetup) Marker() string { return s.marker }

// As narrows d to the concrete descriptor type T.
func As[T Descriptor](d Descriptor) (T, error) {
	v, ok := d.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: unexpected descriptor %T for kind %s", ErrUnknownKind, d, d.Kind())
	}
	return v, nil
}

var (
	_ Descriptor = (*Package)(nil)
	_ Descriptor = (*Folder)(nil)
	_ Descriptor = (*FileSync)(nil)
	_ Descriptor = (*AutomatedSetup)(nil)
	_ Descriptor = (*InteractiveSetup)(nil)
)
