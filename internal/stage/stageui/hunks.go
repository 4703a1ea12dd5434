// Package stageui contains the interactive views used to pick the hunks of a
// file to stage or unstage.
package stageui

import (
	"fmt"
	"strings"

	"github.com/aviator-co/gitstage/internal/git"
	"github.com/aviator-co/gitstage/internal/utils/colors"
	"github.com/aviator-co/gitstage/internal/utils/uiutils"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	answerYes  = "Yes"
	answerNo   = "No"
	answerRest = "Yes, and all remaining hunks"
	answerQuit = "No, and stop here"
)

type hunkAnswerMsg struct {
	answer string
}

// HunkPicker walks through the hunks of a patch and asks, for each one,
// whether it should be taken.
type HunkPicker struct {
	uiutils.BaseStackedView

	verb   string
	path   string
	hunks  []git.Hunk
	next   int
	chosen []git.Hunk
	done   bool
}

// NewHunkPicker returns a picker for the hunks of patch. verb is shown in the
// prompt (e.g., "Stage").
func NewHunkPicker(verb string, patch *git.Patch) *HunkPicker {
	return &HunkPicker{
		verb:  verb,
		path:  patch.Delta.Path(),
		hunks: patch.Hunks,
	}
}

func (m *HunkPicker) Init() tea.Cmd {
	return m.ask()
}

func (m *HunkPicker) ask() tea.Cmd {
	if m.next >= len(m.hunks) {
		m.done = true
		return tea.Quit
	}
	h := m.hunks[m.next]
	title := fmt.Sprintf("%s this hunk (%d/%d)?", m.verb, m.next+1, len(m.hunks))
	prompt := uiutils.NewPromptModel(
		title,
		[]string{answerYes, answerNo, answerRest, answerQuit},
		func(answer string) tea.Cmd {
			return func() tea.Msg { return hunkAnswerMsg{answer} }
		},
	).
		WithShortcut("y", answerYes).
		WithShortcut("n", answerNo).
		WithShortcut("a", answerRest).
		WithShortcut("q", answerQuit)
	return tea.Batch(
		m.AddView(uiutils.SimpleMessageView{Message: RenderHunk(m.path, h)}),
		m.AddView(prompt),
	)
}

func (m *HunkPicker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(hunkAnswerMsg); ok {
		return m, m.answer(msg.answer)
	}
	return m, m.BaseStackedView.Update(msg)
}

func (m *HunkPicker) answer(answer string) tea.Cmd {
	switch answer {
	case answerYes:
		m.chosen = append(m.chosen, m.hunks[m.next])
	case answerRest:
		m.chosen = append(m.chosen, m.hunks[m.next:]...)
		m.next = len(m.hunks)
		return m.ask()
	case answerQuit:
		m.next = len(m.hunks)
		return m.ask()
	}
	m.next++
	return m.ask()
}

func (m *HunkPicker) ExitError() error {
	return m.Err
}

// Chosen returns the hunks that were accepted, in patch order.
func (m *HunkPicker) Chosen() []git.Hunk {
	return m.chosen
}

// Done reports whether the picker finished without being cancelled.
func (m *HunkPicker) Done() bool {
	return m.done
}

// RenderHunk renders a hunk the way `git diff` prints it, with colors.
func RenderHunk(path string, h git.Hunk) string {
	sb := strings.Builder{}
	sb.WriteString(colors.FaintStyle.Render(path))
	sb.WriteString("\n")
	sb.WriteString(colors.HeaderStyle.Render(strings.TrimSuffix(h.Header, "\n")))
	for _, l := range h.Lines {
		if l.Origin.IsEOFMarker() {
			sb.WriteString("\n")
			sb.WriteString(colors.FaintStyle.Render(strings.TrimSpace(string(l.Content))))
			continue
		}
		line := string(l.Origin) + string(l.Content)
		switch l.Origin {
		case git.OriginAdded:
			line = colors.SuccessStyle.Render(line)
		case git.OriginDeleted:
			line = colors.FailureStyle.Render(line)
		}
		sb.WriteString("\n")
		sb.WriteString(line)
	}
	return strings.TrimRight(sb.String(), "\n")
}
