package ui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// KeyMap contains the key bindings used while waiting on the operator.
type KeyMap struct {
	Continue key.Binding
	Skip     key.Binding
	Abort    key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Continue: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "continue"),
		),
		Skip: key.NewBinding(
			key.WithKeys("s", "S"),
			key.WithHelp("s", "skip"),
		),
		Abort: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "abort step"),
		),
	}
}

// ShortHelp returns the bindings shown in the prompt footer.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Continue, k.Skip, k.Abort}
}

// IsContinue returns true if the key message confirms the prompt.
func (k KeyMap) IsContinue(msg tea.KeyMsg) bool {
	return key.Matches(msg, k.Continue)
}

// IsSkip returns true if the key message skips the step.
func (k KeyMap) IsSkip(msg tea.KeyMsg) bool {
	return key.Matches(msg, k.Skip)
}

// IsAbort returns true if the key message aborts the wait.
func (k KeyMap) IsAbort(msg tea.KeyMsg) bool {
	return key.Matches(msg, k.Abort)
}
