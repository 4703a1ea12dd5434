package uiutils

import (
	"testing"

	"emperror.dev/errors"
	"github.com/aviator-co/gitstage/internal/stage"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
)

func runCmd(cmd tea.Cmd) tea.Msg {
	if cmd == nil {
		return nil
	}
	return cmd()
}

func TestPromptModelSelect(t *testing.T) {
	var chosen string
	m := NewPromptModel("Pick one", []string{"Yes", "No"}, func(s string) tea.Cmd {
		return func() tea.Msg { chosen = s; return nil }
	})
	m.Init()

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	runCmd(cmd)
	require.Equal(t, "Yes", chosen)

	// Further keys are ignored once a choice was made.
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.Nil(t, cmd)
}

func TestPromptModelShortcut(t *testing.T) {
	var chosen string
	m := NewPromptModel("Pick one", []string{"Yes", "No"}, func(s string) tea.Cmd {
		return func() tea.Msg { chosen = s; return nil }
	}).WithShortcut("n", "No")
	m.Init()
	require.Contains(t, m.View(), "no")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")})
	runCmd(cmd)
	require.Equal(t, "No", chosen)
	require.NotContains(t, m.View(), "move up")
}

func TestRenderError(t *testing.T) {
	require.Equal(t, "error: boom\n", RenderError(errors.New("boom")))

	out := RenderError(errors.WithStack(stage.ErrNotEnoughInformation))
	require.Contains(t, out, "user.email")
	require.Contains(t, out, "error: Not enough information to commit\n")
}

func TestBaseStackedViewStopsOnError(t *testing.T) {
	var vm BaseStackedView
	vm.AddView(SimpleMessageView{Message: "hello"})

	cmd := vm.Update(errors.New("failed"))
	require.NotNil(t, cmd)
	require.EqualError(t, vm.Err, "failed")
	require.Contains(t, vm.View(), "hello")
	require.Contains(t, vm.View(), "error: failed")
}
