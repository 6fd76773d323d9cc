package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"linae/model"
	"linae/storage"
)

func (a AppView) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := &a.search
	switch msg.String() {
	case "esc":
		s.active = false
		s.input.Blur()
		return a, nil
	case "enter":
		if len(s.results) == 0 {
			return a, nil
		}
		a.highlight = s.results[s.selected].TurnIndex
		s.active = false
		s.input.Blur()
		a.refreshTranscript(false)
		a.scrollToTurn(a.highlight)
		return a, nil
	case a.kb.GetActionKey("list_down"), "ctrl+n", a.kb.GetActionKey("scroll_down"):
		if s.selected < len(s.results)-1 {
			s.selected++
		}
		return a, nil
	case a.kb.GetActionKey("list_up"), "ctrl+p", a.kb.GetActionKey("scroll_up"):
		if s.selected > 0 {
			s.selected--
		}
		return a, nil
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	s.results = storage.SearchTurns(a.session.Turns(), s.input.Value())
	s.selected = 0
	return a, cmd
}

func (a AppView) renderTurnSearch(width, height int) string {
	modalWidth := min(width-4, 100)
	s := a.search

	var results string
	switch {
	case len(s.results) == 0 && s.input.Value() == "":
		results = DimStyle.Render("Type to search this session...")
	case len(s.results) == 0:
		results = DimStyle.Render("No matches found")
	default:
		// Three lines per hit plus the frame.
		visible := max((height-12)/3, 1)
		start := 0
		if s.selected >= visible {
			start = s.selected - visible + 1
		}
		end := min(start+visible, len(s.results))

		results = fmt.Sprintf("Found %d matches:\n\n", len(s.results))
		if start > 0 {
			results += DimStyle.Render(fmt.Sprintf("↑ %d more above", start)) + "\n"
		}
		for i := start; i < end; i++ {
			m := s.results[i]
			role := UserStyle.Render("You")
			if m.Role == model.RoleAgent {
				role = AgentStyle.Render("Linae")
			}
			entry := fmt.Sprintf("%s [%s]\n  %s", role, m.Timestamp.Format("Jan 2, 3:04 PM"), m.Preview)
			if i == s.selected {
				entry = SelectedStyle.Render("> ") + entry
			} else {
				entry = "  " + entry
			}
			results += entry + "\n\n"
		}
		if end < len(s.results) {
			results += DimStyle.Render(fmt.Sprintf("↓ %d more below", len(s.results)-end))
		}
	}

	footer := FormatFooter("Type", "to search", "↑/↓", "Navigate", "Enter", "Jump", "Esc", "Close")
	content := lipgloss.JoinVertical(lipgloss.Left,
		TitleStyle.Render("Search Session"),
		"",
		s.input.View(),
		"",
		results,
		"",
		footer,
	)

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dimColor).
		Padding(1, 2).
		Width(modalWidth)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box.Render(content))
}
