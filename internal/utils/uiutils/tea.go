package uiutils

import (
	"os"

	"emperror.dev/errors"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
)

// ErrNotATerminal is returned by RunBubbleTea for views that need input when
// stdin or stdout is not a terminal.
const ErrNotATerminal = errors.Sentinel("an interactive terminal is required")

type BubbleTeaModelWithExitHandling interface {
	// ExitError is called after finish running the program (tea.Quit).
	//
	// This is used as a return value of RunBubbleTea.
	ExitError() error

	tea.Model
}

func IsInteractive() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd())
}

// RunBubbleTea runs model until it quits. Interactive models refuse to run
// without a terminal; the others run with input disabled.
func RunBubbleTea(model BubbleTeaModelWithExitHandling, interactive bool) error {
	var opts []tea.ProgramOption
	if !IsInteractive() {
		if interactive {
			return errors.WithStack(ErrNotATerminal)
		}
		opts = []tea.ProgramOption{
			tea.WithInput(nil),
		}
	}
	p := tea.NewProgram(model, opts...)
	finalModel, err := p.Run()
	if err != nil {
		return err
	}
	if err := finalModel.(BubbleTeaModelWithExitHandling).ExitError(); err != nil {
		return err
	}
	return nil
}
