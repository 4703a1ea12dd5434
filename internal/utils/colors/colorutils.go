package colors

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
)

var (
	CliCmdC          = color.New(color.FgMagenta)
	SuccessC         = color.New(color.FgGreen)
	WarningC         = color.New(color.FgYellow)
	FailureC         = color.New(color.FgRed)
	TroubleshootingC = color.New(color.Faint)
	UserInputC       = color.New(color.FgCyan)
	FaintC           = color.New(color.Faint)
	BoldC            = color.New(color.Bold)
)

var (
	CliCmd          = CliCmdC.Sprint
	Success         = SuccessC.Sprint
	Warning         = WarningC.Sprint
	Failure         = FailureC.Sprint
	Troubleshooting = TroubleshootingC.Sprint
	UserInput       = UserInputC.Sprint
	Faint           = FaintC.Sprint
	Bold            = BoldC.Sprint
)

// Styles for the interactive views.
var (
	SuccessStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	FailureStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	ProgressStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	HeaderStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	FaintStyle    = lipgloss.NewStyle().Faint(true)
)
