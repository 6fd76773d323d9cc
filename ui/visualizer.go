package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/NimbleMarkets/ntcharts/sparkline"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"linae/model"
	"linae/sequencer"
)

// trendLine draws the newest width values, one column each, on a fixed
// 0..100 scale.
func trendLine(values []float64, style lipgloss.Style, width int) string {
	if len(values) > width {
		values = values[len(values)-width:]
	}
	if len(values) == 0 {
		return ""
	}

	sl := sparkline.New(len(values), 1, sparkline.WithStyle(style), sparkline.WithMaxValue(100))
	for _, v := range values {
		sl.Push(model.ClampScore(v))
	}
	sl.Draw()
	return sl.View()
}

// gauge draws a filled bar of width cells for a 0..100 value.
func gauge(v float64, color lipgloss.Color, width int) string {
	if width < 1 {
		return ""
	}
	bar := progress.New(
		progress.WithWidth(width),
		progress.WithoutPercentage(),
		progress.WithSolidFill(string(color)),
	)
	return bar.ViewAs(model.ClampScore(v) / 100)
}

// resonanceColor grades a resonance score.
func resonanceColor(v float64) lipgloss.Color {
	switch {
	case v >= 80:
		return successColor
	case v >= 50:
		return warningColor
	default:
		return dangerColor
	}
}

// phaseCaption describes what the stack is doing in st.
func phaseCaption(st sequencer.State) string {
	switch st {
	case sequencer.ReflexGenerating:
		return "Generating Reflex..."
	case sequencer.Witnessing:
		return "Witness layer observing..."
	case sequencer.Aligning:
		return "Aligning with the core..."
	case sequencer.Vetoing:
		return "Veto: reflex overridden"
	case sequencer.Harmonizing:
		return "Harmonizing..."
	case sequencer.Ready:
		return "Response committed"
	default:
		return "WITNESS_LAYER_ACTIVE"
	}
}

// renderVisualizer draws the live layer state and the telemetry chart in
// five lines.
func (a AppView) renderVisualizer(width int) string {
	st := a.state
	resonance := a.session.Resonance()

	core := CoreStyle.Render("●")
	switch {
	case st == sequencer.Vetoing:
		core = InterventionStyle.Render("◉")
	case st.Busy():
		core = ReflexStyle.Render("◎")
	}

	activity := ""
	if a.busy() {
		activity = a.spinner.View() + " "
	}
	stateText := strings.ReplaceAll(st.String(), "_", " ")
	stateStyle := ReflexStyle
	if st == sequencer.Vetoing {
		stateStyle = InterventionStyle
	}

	meter := gauge(resonance, resonanceColor(resonance), 20)
	header := fmt.Sprintf("%s %s  %s%s   Resonance %s %s%%",
		core,
		stateStyle.Render(stateText),
		activity,
		DimStyle.Render(phaseCaption(st)),
		meter,
		formatScore(resonance),
	)

	samples := a.session.Metrics()
	opt := make([]float64, len(samples))
	res := make([]float64, len(samples))
	drift := make([]float64, len(samples))
	for i, s := range samples {
		opt[i] = s.Optimization
		res[i] = s.Resonance
		drift[i] = s.Drift
	}

	chartWidth := max(width-20, 1)
	rows := []string{
		header,
		chartRow(ReflexStyle, "L1 Bias     ", opt, chartWidth),
		chartRow(CoreStyle, "L2 Resonance", res, chartWidth),
		chartRow(InterventionStyle, "Drift       ", drift, chartWidth),
		DimStyle.Render(strings.Repeat("─", max(width, 1))),
	}
	for i, r := range rows[:4] {
		rows[i] = lipgloss.NewStyle().MaxWidth(width).Render(r)
	}
	return strings.Join(rows, "\n")
}

func chartRow(style lipgloss.Style, label string, values []float64, width int) string {
	last := "-"
	if n := len(values); n > 0 {
		last = formatScore(math.Round(values[n-1]))
	}
	return DimStyle.Render(label) + " " + trendLine(values, style, width) + " " + DimStyle.Render(last)
}
