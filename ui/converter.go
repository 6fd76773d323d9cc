package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"linae/lore"
)

type converterMode int

const (
	modeDictionary converterMode = iota
	modeArchitecture
)

// converterState backs the concept converter view.
type converterState struct {
	mode     converterMode
	input    textinput.Model
	selected int
	dict     *lore.Dictionary
	err      error
}

func newConverterState() converterState {
	in := textinput.New()
	in.Prompt = "Filter: "
	in.Placeholder = "philosophy or tech term"
	in.CharLimit = 64

	dict, err := lore.Concepts()
	return converterState{input: in, dict: dict, err: err}
}

// matches is the filtered mapping list.
func (c converterState) matches() []lore.Mapping {
	if c.dict == nil {
		return nil
	}
	return c.dict.Filter(c.input.Value())
}

func (a AppView) handleConverterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	c := &a.converter
	switch msg.String() {
	case "esc":
		if c.input.Value() != "" {
			c.input.SetValue("")
			c.selected = 0
			return a, nil
		}
		return a.switchView(ViewTerminal)
	case a.kb.GetActionKey("converter_mode"):
		if c.mode == modeDictionary {
			c.mode = modeArchitecture
			c.input.Blur()
			return a, nil
		}
		c.mode = modeDictionary
		cmd := c.input.Focus()
		return a, cmd
	case a.kb.GetActionKey("list_down"), "ctrl+n":
		if n := len(c.matches()); c.selected < n-1 {
			c.selected++
		}
		return a, nil
	case a.kb.GetActionKey("list_up"), "ctrl+p":
		if c.selected > 0 {
			c.selected--
		}
		return a, nil
	}

	if c.mode != modeDictionary {
		return a, nil
	}
	var cmd tea.Cmd
	c.input, cmd = c.input.Update(msg)
	c.selected = 0
	return a, cmd
}

func (a AppView) renderConverter(width, height int) string {
	c := a.converter
	if c.err != nil {
		return InterventionStyle.Render("Concept dictionary unavailable: " + c.err.Error())
	}

	title := lipgloss.NewStyle().Foreground(successColor).Bold(true).Render(c.dict.Title)
	tabs := DimStyle.Render("Dictionary") + "  " + SelectedStyle.Render("[Architecture]")
	if c.mode == modeDictionary {
		tabs = SelectedStyle.Render("[Dictionary]") + "  " + DimStyle.Render("Architecture")
	}

	head := []string{title, DimStyle.Render(c.dict.Subtitle), tabs, ""}
	feasibility := []string{"", DimStyle.Render(wordWrap(fmt.Sprintf("%q", c.dict.Feasibility), width-4))}

	room := height - len(head) - lipgloss.Height(strings.Join(feasibility, "\n"))
	var body string
	if c.mode == modeDictionary {
		body = a.renderDictionary(width, room)
	} else {
		body = renderArchitecture(c.dict.Architecture, width)
	}

	out := strings.Join(head, "\n") + "\n" + body + strings.Join(feasibility, "\n")
	return lipgloss.NewStyle().MaxHeight(height).Render(out)
}

func (a AppView) renderDictionary(width, room int) string {
	c := a.converter
	matches := c.matches()

	lines := []string{c.input.View(), ""}
	if len(matches) == 0 {
		lines = append(lines, DimStyle.Render("No matching concepts"))
		return strings.Join(lines, "\n") + "\n"
	}

	col := (width - 6) / 2
	if col < 12 {
		col = 12
	}

	// The description of the selected row takes up to four lines.
	visible := room - len(lines) - 5
	if visible < 1 {
		visible = 1
	}
	start := 0
	if c.selected >= visible {
		start = c.selected - visible + 1
	}
	end := min(start+visible, len(matches))

	row := lipgloss.NewStyle().Width(col)
	for i := start; i < end; i++ {
		m := matches[i]
		cursor := "  "
		left := CoreStyle.Render(m.Philosophy)
		if i == c.selected {
			cursor = SelectedStyle.Render("> ")
		}
		lines = append(lines, cursor+row.Render(left)+" → "+ReflexStyle.Render(m.Tech))
	}

	sel := matches[min(c.selected, len(matches)-1)]
	lines = append(lines, "", DimStyle.Render(wordWrap(sel.Description, width-4)))
	return strings.Join(lines, "\n") + "\n"
}

func renderArchitecture(arch lore.Architecture, width int) string {
	inner := width - 6
	if inner < 20 {
		inner = 20
	}

	lines := []string{
		TitleStyle.Render(arch.Heading),
		DimStyle.Render(wordWrap(arch.Summary, inner)),
		"",
	}
	layerStyles := []lipgloss.Style{ReflexStyle, CoreStyle, WitnessStyle}
	for i, t := range arch.Tiers {
		style := layerStyles[i%len(layerStyles)]
		lines = append(lines,
			style.Render(t.Layer)+DimStyle.Render("  ("+t.Map+")"),
			"  "+wordWrap(t.Tech, inner-2),
			"  "+InterventionStyle.Render("Risk: ")+wordWrap(t.Risk, inner-8),
			"",
		)
	}
	return strings.Join(lines, "\n")
}
