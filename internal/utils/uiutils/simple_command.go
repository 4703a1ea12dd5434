package uiutils

import tea "github.com/charmbracelet/bubbletea"

// SimpleCommandMsg asks BaseStackedView to run Cmd. Views use it to hand
// control back to the model that owns the stack.
type SimpleCommandMsg struct {
	Cmd tea.Cmd
}
