package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/jumpstart/internal/ports"
	"github.com/felixgeelhaar/jumpstart/internal/tui/ui"
)

// waitModel shows one operator prompt and quits on the first decisive key.
type waitModel struct {
	prompt ports.Prompt
	keys   ui.KeyMap
	styles ui.Styles
	help   help.Model

	width    int
	answered bool
	aborted  bool
	response ports.PromptResponse
}

func newWaitModel(prompt ports.Prompt, keys ui.KeyMap, styles ui.Styles) waitModel {
	return waitModel{
		prompt:   prompt,
		keys:     keys,
		styles:   styles,
		help:     help.New(),
		width:    80,
		response: ports.PromptSkip,
	}
}

func (m waitModel) Init() tea.Cmd {
	return nil
}

func (m waitModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.styles = m.styles.WithWidth(msg.Width)
		m.help.Width = msg.Width
	case tea.KeyMsg:
		switch {
		case m.keys.IsContinue(msg):
			m.answered, m.response = true, ports.PromptDone
			return m, tea.Quit
		case m.keys.IsSkip(msg):
			m.answered, m.response = true, ports.PromptSkip
			return m, tea.Quit
		case m.keys.IsAbort(msg):
			m.aborted = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m waitModel) View() string {
	if m.answered || m.aborted {
		return m.summary() + "\n"
	}

	var b strings.Builder
	b.WriteString(m.styles.Title.Render(m.prompt.Title))
	if m.prompt.Instructions != "" {
		b.WriteString("\n")
		b.WriteString(m.styles.Paragraph.Render(m.prompt.Instructions))
	}
	if m.prompt.Action != "" {
		b.WriteString("\n\n")
		b.WriteString(m.styles.Info.Render(m.prompt.Action))
	}
	body := m.styles.Panel.Render(b.String())
	return lipgloss.JoinVertical(lipgloss.Left, body, m.help.ShortHelpView(m.keys.ShortHelp())) + "\n"
}

func (m waitModel) summary() string {
	switch {
	case m.aborted:
		return m.styles.Error.Render("✗ " + m.prompt.Title + ": interrupted")
	case m.response == ports.PromptSkip:
		return m.styles.Warning.Render("↷ " + m.prompt.Title + ": skipped")
	default:
		return m.styles.Success.Render("✓ " + m.prompt.Title)
	}
}
