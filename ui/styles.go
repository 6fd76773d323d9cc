package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	dimColor       = lipgloss.Color("7")
	accentColor    = lipgloss.Color("12")
	successColor   = lipgloss.Color("10")
	warningColor   = lipgloss.Color("11")
	dangerColor    = lipgloss.Color("9")
	highlightColor = lipgloss.Color("13")
	mutedColor     = lipgloss.Color("8")

	// Layer colours: cyan policy, amber alignment, violet witness.
	reflexColor  = lipgloss.Color("6")
	coreColor    = lipgloss.Color("3")
	witnessColor = lipgloss.Color("5")

	UserStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)

	// Agent turns
	AgentStyle = lipgloss.NewStyle().
			Foreground(accentColor)

	DimStyle = lipgloss.NewStyle().
			Foreground(dimColor)

	TitleStyle = lipgloss.NewStyle().
			Bold(true)

	StatusStyle = lipgloss.NewStyle().
			Foreground(dimColor)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(warningColor).
			Bold(true)

	HighlightStyle = lipgloss.NewStyle().
			Foreground(highlightColor).
			Bold(true)

	ReflexStyle  = lipgloss.NewStyle().Foreground(reflexColor).Bold(true)
	CoreStyle    = lipgloss.NewStyle().Foreground(coreColor).Bold(true)
	WitnessStyle = lipgloss.NewStyle().Foreground(witnessColor).Bold(true)

	InterventionStyle = lipgloss.NewStyle().Foreground(dangerColor).Bold(true)
	HarmonizedStyle   = lipgloss.NewStyle().Foreground(successColor).Bold(true)

	// Process card frame
	CardStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(mutedColor).
			Padding(0, 1)
)

// FormatFooter alternates keys and descriptions:
// FormatFooter("Esc", "Close") renders "Esc Close" with the description
// highlighted.
func FormatFooter(parts ...string) string {
	descStyle := lipgloss.NewStyle().Foreground(accentColor).Bold(true)
	var result []string
	for i := 0; i+1 < len(parts); i += 2 {
		result = append(result, parts[i]+" "+descStyle.Render(parts[i+1]))
	}
	return strings.Join(result, "  ")
}
