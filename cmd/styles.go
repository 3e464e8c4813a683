package cmd

import "github.com/charmbracelet/lipgloss"

// Color palette shared by every command's console output.
const (
	ColorPrimary   = lipgloss.Color("#FF004D") // PICO-8 red
	ColorMuted     = lipgloss.Color("#83769C")
	ColorSuccess   = lipgloss.Color("#00E436")
	ColorError     = lipgloss.Color("#FF004D")
	ColorWarning   = lipgloss.Color("#FFA300")
	ColorHighlight = lipgloss.Color("#29ADFF")
	ColorVerbose   = lipgloss.Color("#C2C3C7")
)

var (
	// TitleStyle is for primary headers and section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	// SubtitleStyle is for secondary text.
	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorError)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	// CmdStyle is for paths and command names.
	CmdStyle = lipgloss.NewStyle().
			Foreground(ColorHighlight)

	VerboseStyle = lipgloss.NewStyle().
			Foreground(ColorVerbose)
)
