package step

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/jumpstart/internal/domain/credential"
)

func TestParseKind(t *testing.T) {
	for _, k := range Kinds() {
		got, err := ParseKind(string(k))
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}

	_, err := ParseKind("dotfile")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestNewPackage(t *testing.T) {
	p, err := NewPackage("", "git", "")
	require.NoError(t, err)
	assert.Equal(t, KindPackage, p.Kind())
	assert.Equal(t, "git", p.Name())
	assert.Equal(t, ManagerFormula, p.Manager())

	p, err = NewPackage("Slack", "slack", ManagerCask)
	require.NoError(t, err)
	assert.Equal(t, "Slack", p.Name())
	assert.Equal(t, ManagerCask, p.Manager())

	_, err = NewPackage("x", " ", "")
	assert.ErrorIs(t, err, ErrMissingField)

	_, err = NewPackage("x", "git", "apt")
	assert.ErrorIs(t, err, ErrInvalidField)

	p, err = NewPackage("", "hashicorp/tap/terraform", "")
	require.NoError(t, err)
	assert.Equal(t, "hashicorp/tap/terraform", p.Identifier())

	_, err = NewPackage("x", "git; rm -rf ~", "")
	assert.ErrorIs(t, err, ErrInvalidField)
	_, err = NewPackage("x", "--force", "")
	assert.ErrorIs(t, err, ErrInvalidField)
}

func TestNewFolder(t *testing.T) {
	f, err := NewFolder("", "~/Projects")
	require.NoError(t, err)
	assert.Equal(t, "~/Projects", f.Path())
	assert.Equal(t, "~/Projects", f.Name())
	assert.Equal(t, KindFolder, f.Kind())

	_, err = NewFolder("x", "")
	assert.ErrorIs(t, err, ErrMissingField)
	_, err = NewFolder("x", "/tmp/a\x00b")
	assert.ErrorIs(t, err, ErrInvalidField)
}

func TestNewFileSync(t *testing.T) {
	f, err := NewFileSync("zshrc", "dotfiles/.zshrc", "~/.zshrc")
	require.NoError(t, err)
	assert.Equal(t, "dotfiles/.zshrc", f.Source())
	assert.Equal(t, "~/.zshrc", f.Destination())

	_, err = NewFileSync("x", "", "~/.zshrc")
	assert.ErrorIs(t, err, ErrMissingField)
	_, err = NewFileSync("x", "a", "")
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestNewAutomatedSetup(t *testing.T) {
	creds := []Credential{
		{Alias: "key", Ref: credential.Reference{Backend: "op", Item: "aws", Field: "access key"}},
	}
	action := Action{Type: ActionWriteINI, Path: "~/.aws/credentials", Entries: []INIEntry{
		{Section: "default", Key: "aws_access_key_id", Value: `{{ secret "key" }}`},
	}}

	s, err := NewAutomatedSetup("AWS", creds, action, WithMarker("~/.aws/.done"), WithRequires("aws"))
	require.NoError(t, err)
	assert.Equal(t, KindAutomatedSetup, s.Kind())
	assert.Equal(t, "~/.aws/.done", s.Marker())
	assert.Equal(t, []string{"aws"}, s.Requires())

	// Accessors return copies.
	got := s.Credentials()
	got[0].Alias = "changed"
	assert.Equal(t, "key", s.Credentials()[0].Alias)
	a := s.Action()
	a.Entries[0].Key = "changed"
	assert.Equal(t, "aws_access_key_id", s.Action().Entries[0].Key)
}

func TestNewAutomatedSetup_Invalid(t *testing.T) {
	ok := Action{Type: ActionCommand, Command: "true"}
	ref := credential.Reference{Backend: "op", Item: "a", Field: "b"}
	one := []Credential{{Alias: "a", Ref: ref}}

	tests := []struct {
		name   string
		setup  string
		creds  []Credential
		action Action
		want   error
	}{
		{"no name", "", one, ok, ErrMissingField},
		{"no credentials", "x", nil, ok, ErrMissingField},
		{"empty credentials", "x", []Credential{}, ok, ErrMissingField},
		{"no action type", "x", one, Action{}, ErrMissingField},
		{"unknown action", "x", one, Action{Type: "reboot"}, ErrInvalidField},
		{"write-file without template", "x", one, Action{Type: ActionWriteFile, Path: "/tmp/x"}, ErrMissingField},
		{"write-ini without entries", "x", one, Action{Type: ActionWriteINI, Path: "/tmp/x"}, ErrMissingField},
		{"command without command", "x", one, Action{Type: ActionCommand}, ErrMissingField},
		{"missing alias", "x", []Credential{{Ref: ref}}, ok, ErrMissingField},
		{"duplicate alias", "x", []Credential{{Alias: "a", Ref: ref}, {Alias: "a", Ref: ref}}, ok, ErrInvalidField},
		{"bad reference", "x", []Credential{{Alias: "a", Ref: credential.Reference{Backend: "op"}}}, ok, ErrInvalidField},
		{"flag as command", "x", one, Action{Type: ActionCommand, Command: "--help"}, ErrInvalidField},
		{"control char in path", "x", one, Action{Type: ActionWriteFile, Path: "/tmp/x\n", Template: "t"}, ErrInvalidField},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAutomatedSetup(tt.setup, tt.creds, tt.action)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := NewAutomatedSetup("x", nil, ok)
	assert.ErrorIs(t, err, ErrMissingField)
	assert.Contains(t, err.Error(), `"credentials"`)

	_, err = NewAutomatedSetup("x", one, ok, WithRequires("aws", "../bin/evil"))
	assert.ErrorIs(t, err, ErrInvalidField)
	assert.Contains(t, err.Error(), "requires[1]")

	_, err = NewAutomatedSetup("x", one, ok, WithMarker("/tmp/\x00"))
	assert.ErrorIs(t, err, ErrInvalidField)

	_, err = NewAutomatedSetup("x", one, ok, WithApp("not a bundle"))
	assert.ErrorIs(t, err, ErrInvalidField)

	_, err = NewAutomatedSetup("x", one, ok, WithFollowUp(Action{Type: ActionWriteINI, Path: "/tmp/x"}))
	assert.ErrorIs(t, err, ErrMissingField)
	assert.Contains(t, err.Error(), "follow-up 1")
}

func TestNewAutomatedSetup_FollowUps(t *testing.T) {
	creds := []Credential{
		{Alias: "key", Ref: credential.Reference{Backend: "op", Item: "aws", Field: "access key"}},
		{Alias: "cluster", Ref: credential.Reference{Backend: "op", Item: "aws", Field: "EKS"}, Optional: true},
	}
	first := Action{Type: ActionWriteINI, Path: "~/.aws/credentials", Entries: []INIEntry{
		{Section: "default", Key: "aws_access_key_id", Value: `{{ secret "key" }}`},
	}}
	second := Action{Type: ActionCommand, Command: "aws", Args: []string{"sts", "get-caller-identity"}}

	s, err := NewAutomatedSetup("AWS", creds, first, WithFollowUp(second), WithApp("com.amazon.aws"))
	require.NoError(t, err)

	actions := s.Actions()
	require.Len(t, actions, 2)
	assert.Equal(t, ActionWriteINI, actions[0].Type)
	assert.Equal(t, ActionCommand, actions[1].Type)
	assert.Equal(t, first.Path, s.Action().Path)
	assert.Equal(t, "com.amazon.aws", s.BundleID())
	assert.True(t, s.Credentials()[1].Optional)

	actions[1].Args[0] = "changed"
	assert.Equal(t, "sts", s.Actions()[1].Args[0])
}

func TestNewInteractiveSetup(t *testing.T) {
	s, err := NewInteractiveSetup("", "Slack", "Sign in to your workspace", "com.tinyspeck.slackmacgap", "")
	require.NoError(t, err)
	assert.Equal(t, "Slack", s.Name())
	assert.Equal(t, "Slack", s.Launch())
	assert.Equal(t, KindInteractiveSetup, s.Kind())
	assert.Equal(t, "com.tinyspeck.slackmacgap", s.BundleID())

	_, err = NewInteractiveSetup("", "", "do it", "", "")
	assert.ErrorIs(t, err, ErrMissingField)
	_, err = NewInteractiveSetup("Slack", "", "", "", "")
	assert.ErrorIs(t, err, ErrMissingField)

	_, err = NewInteractiveSetup("", "-n", "do it", "", "")
	assert.ErrorIs(t, err, ErrInvalidField)
	_, err = NewInteractiveSetup("Slack", "Slack", "do it", "com.x' || true || '", "")
	assert.ErrorIs(t, err, ErrInvalidField)
	assert.Contains(t, err.Error(), "bundle_id")
}

func TestAs(t *testing.T) {
	var d Descriptor
	d, err := NewFolder("", "~/a")
	require.NoError(t, err)

	f, err := As[*Folder](d)
	require.NoError(t, err)
	assert.Equal(t, "~/a", f.Path())

	_, err = As[*Package](d)
	assert.ErrorIs(t, err, ErrUnknownKind)
}
