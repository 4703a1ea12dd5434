package uiutils

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/erikgeiser/promptkit/selection"
)

func newSelection(title string, items []string) *selection.Model[string] {
	ret := selection.NewModel(selection.New(title, items))
	ret.Filter = nil
	ret.KeyMap.Up = append(ret.KeyMap.Up, "k", "ctrl+p")
	ret.KeyMap.Down = append(ret.KeyMap.Down, "j", "ctrl+n")
	return ret
}

var promptKeys = []key.Binding{
	key.NewBinding(
		key.WithKeys("up", "k", "ctrl+p"),
		key.WithHelp("↑/k", "move up"),
	),
	key.NewBinding(
		key.WithKeys("down", "j", "ctrl+n"),
		key.WithHelp("↓/j", "move down"),
	),
	key.NewBinding(
		key.WithKeys("space", "enter"),
		key.WithHelp("space/enter", "select"),
	),
	key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "cancel"),
	),
}

// PromptModel asks the user to pick one of a list of items. The choice is
// passed to the callback, whose command is returned from Update.
type PromptModel struct {
	prompt    *selection.Model[string]
	help      help.Model
	items     []string
	shortcuts map[string]string
	keys      []key.Binding
	callback  func(string) tea.Cmd
	quitting  bool
}

func NewPromptModel(title string, items []string, callback func(string) tea.Cmd) *PromptModel {
	return &PromptModel{
		prompt:   newSelection(title, items),
		help:     help.New(),
		items:    items,
		keys:     promptKeys,
		callback: callback,
	}
}

// WithShortcut lets a single key pick item directly.
func (m *PromptModel) WithShortcut(k string, item string) *PromptModel {
	if m.shortcuts == nil {
		m.shortcuts = map[string]string{}
		m.keys = append([]key.Binding(nil), promptKeys...)
	}
	m.shortcuts[k] = item
	m.keys = append(m.keys, key.NewBinding(
		key.WithKeys(k),
		key.WithHelp(k, strings.ToLower(item)),
	))
	return m
}

func (m *PromptModel) Init() tea.Cmd {
	return m.prompt.Init()
}

func (m *PromptModel) View() string {
	// The base prompt has a new line. Leave the caller to decide whether to add a new line
	// after.
	ret := strings.TrimSpace(m.prompt.View())
	if !m.quitting {
		// Do not show help after finishing the selection.
		ret = lipgloss.JoinVertical(lipgloss.Top, ret, m.help.ShortHelpView(m.keys))
	}
	return ret
}

func (m *PromptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || m.quitting {
		return m, nil
	}
	switch keyMsg.String() {
	case " ", "enter":
		m.prompt.Update(keyMsg)
		c, err := m.prompt.Value()
		if err != nil {
			return m, ErrCmd(err)
		}
		return m, m.choose(c)
	case "ctrl+c":
		return m, tea.Quit
	}
	if item, ok := m.shortcuts[keyMsg.String()]; ok {
		return m, m.choose(item)
	}
	_, cmd := m.prompt.Update(keyMsg)
	return m, cmd
}

func (m *PromptModel) choose(item string) tea.Cmd {
	m.quitting = true
	return m.callback(item)
}
