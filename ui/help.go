package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

func (a AppView) renderHelpModal(width, height int) string {
	kb := a.kb
	row := func(action, desc string) string {
		return fmt.Sprintf("• %-15s %s", kb.DisplayActionKey(action), desc)
	}

	blue := lipgloss.NewStyle().Foreground(accentColor)
	title := lipgloss.NewStyle().Bold(true).Foreground(successColor).Render("Linae - Keyboard Shortcuts")

	views := lipgloss.JoinVertical(lipgloss.Left,
		blue.Render("## Views"),
		row("view_terminal", "Execution console"),
		row("view_converter", "Concept converter"),
		row("view_manifesto", "Manifesto"),
		row("view_certificate", "Certificate of origin"),
		row("about", "About"),
		row("help", "Toggle this help"),
		row("quit", "Quit"),
	)

	console := lipgloss.JoinVertical(lipgloss.Left,
		blue.Render("## Console"),
		fmt.Sprintf("• %-15s %s", "Enter", "Submit turn"),
		fmt.Sprintf("• %-15s %s", "Alt+Enter", "New line"),
		row("attach_file", "Attach image or document"),
		row("clear_attachment", "Drop attachment"),
		row("copy_last_reply", "Copy last reply"),
		row("export", "Export transcript"),
		row("search_turns", "Search turns"),
		row("ping_provider", "Ping provider"),
		row("clear_input", "Clear input"),
	)

	navigation := lipgloss.JoinVertical(lipgloss.Left,
		blue.Render("## Navigation"),
		row("scroll_down", "Scroll down"),
		row("scroll_up", "Scroll up"),
		row("half_page_down", "Half page down"),
		row("half_page_up", "Half page up"),
		row("scroll_to_top", "Jump to top"),
		row("scroll_to_bottom", "Jump to bottom"),
	)

	converter := lipgloss.JoinVertical(lipgloss.Left,
		blue.Render("## Converter"),
		row("converter_mode", "Dictionary / Architecture"),
		fmt.Sprintf("• %-15s %s", "↑/↓", "Select concept"),
		fmt.Sprintf("• %-15s %s", "Esc", "Clear filter, then back"),
	)

	column := lipgloss.NewStyle().Width(46).PaddingLeft(2)
	columns := lipgloss.JoinHorizontal(lipgloss.Top,
		column.Render(lipgloss.JoinVertical(lipgloss.Left, views, "", converter)),
		column.Render(lipgloss.JoinVertical(lipgloss.Left, console, "", navigation)),
	)

	footer := DimStyle.Render(fmt.Sprintf("Press %s or Esc to close", kb.DisplayActionKey("help")))
	content := lipgloss.JoinVertical(lipgloss.Center, title, "", columns, "", footer)

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(mutedColor).
		Padding(1, 2)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box.Render(content))
}
