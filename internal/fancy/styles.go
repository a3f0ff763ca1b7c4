package fancy

import (
	"github.com/charmbracelet/lipgloss"
)

// ANSI 256 palette, one color per kind of element.
const (
	colorRoot   = lipgloss.Color("39")
	colorHeader = lipgloss.Color("15")
	colorInfo   = lipgloss.Color("250")
	colorBranch = lipgloss.Color("240")
	colorPart   = lipgloss.Color("45")
	colorState  = lipgloss.Color("208")
	colorEvent  = lipgloss.Color("228")
	colorFlag   = lipgloss.Color("201")
	colorValid  = lipgloss.Color("82")
	colorError  = lipgloss.Color("196")
)

// Styles shared by the CLI renderers.
var (
	RootStyle      = lipgloss.NewStyle().Foreground(colorRoot).Bold(true)
	HeaderStyle    = lipgloss.NewStyle().Foreground(colorHeader).Bold(true)
	InfoStyle      = lipgloss.NewStyle().Foreground(colorInfo).Italic(true)
	BranchStyle    = lipgloss.NewStyle().Foreground(colorBranch)
	ComponentStyle = lipgloss.NewStyle().Foreground(colorPart)
	StateStyle     = lipgloss.NewStyle().Foreground(colorState)
	EventStyle     = lipgloss.NewStyle().Foreground(colorEvent)
	FlagStyle      = lipgloss.NewStyle().Foreground(colorFlag)
	ValidStyle     = lipgloss.NewStyle().Foreground(colorValid)
	ErrorStyle     = lipgloss.NewStyle().Foreground(colorError)
)

// StateText styles a lifecycle state name
func StateText(text string) string {
	return StateStyle.Render(text)
}

// EventText styles a lifecycle event name
func EventText(text string) string {
	return EventStyle.Render(text)
}

// FlagText styles a descriptor flag; unset flags are dimmed.
func FlagText(name string, set bool) string {
	if !set {
		return BranchStyle.Render(name)
	}
	return FlagStyle.Render(name)
}

// ValidText styles valid status text (green)
func ValidText(text string) string {
	return ValidStyle.Render(text)
}

// ErrorText styles error text (red)
func ErrorText(text string) string {
	return ErrorStyle.Render(text)
}

// PathText styles file paths (gray)
func PathText(text string) string {
	return InfoStyle.Render(text)
}

// CountText styles count numbers (cyan)
func CountText(text string) string {
	return ComponentStyle.Render(text)
}
