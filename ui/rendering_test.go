package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"linae/model"
	"linae/sequencer"
)

func TestReflexPreview(t *testing.T) {
	long := strings.Repeat("a", 150)
	tests := []struct {
		in   string
		want string
	}{
		{in: "short", want: "short"},
		{in: strings.Repeat("b", 100), want: strings.Repeat("b", 100)},
		{in: long, want: strings.Repeat("a", 100) + "..."},
		{in: strings.Repeat("é", 120), want: strings.Repeat("é", 100) + "..."},
	}
	for _, tt := range tests {
		if got := reflexPreview(tt.in); got != tt.want {
			t.Errorf("reflexPreview(%d runes) = %d runes", len([]rune(tt.in)), len([]rune(got)))
		}
	}
}

func TestProcessCard(t *testing.T) {
	res := model.Result{
		ReflexResponse:   "Quick answer.",
		ReflexConfidence: 82,
		CoreAnalysis:     "Consistent.",
		ResonanceScore:   91,
		FinalResponse:    "Answer.",
	}

	card := stripANSI(renderProcessCard(res, 100))
	for _, want := range []string{"INTERNAL PROCESS", "HARMONIZED", "LAYER 1 (REFLEX)", "Confidence: 82%", "Resonance Score: 91/100"} {
		if !strings.Contains(card, want) {
			t.Errorf("card missing %q:\n%s", want, card)
		}
	}
	if strings.Contains(card, "LAYER 3") {
		t.Error("witness section shown without a meta analysis")
	}

	res.Intervention = true
	res.MetaAnalysis = "Drift observed."
	res.GroundingSources = []model.Citation{{Title: "Source A", URI: "https://example.com/a"}}
	card = stripANSI(renderProcessCard(res, 100))
	for _, want := range []string{"INTERVENTION", "LAYER 3 (WITNESS)", "Sources", "Source A"} {
		if !strings.Contains(card, want) {
			t.Errorf("card missing %q:\n%s", want, card)
		}
	}
}

func TestTrendLine(t *testing.T) {
	got := ansi.Strip(trendLine([]float64{0, 100, 50, -5, 200}, lipgloss.NewStyle(), 10))
	if w := lipgloss.Width(got); w != 5 {
		t.Errorf("trendLine width = %d, want one column per value", w)
	}
	if !strings.Contains(got, "█") {
		t.Errorf("trendLine = %q, want a full column for 100", got)
	}

	// Only the newest values fit.
	many := make([]float64, 50)
	if w := lipgloss.Width(ansi.Strip(trendLine(many, lipgloss.NewStyle(), 8))); w != 8 {
		t.Errorf("trendLine width = %d, want 8", w)
	}

	if got := trendLine(nil, lipgloss.NewStyle(), 10); got != "" {
		t.Errorf("trendLine(nil) = %q", got)
	}
}

func TestGauge(t *testing.T) {
	tests := []struct {
		v      float64
		width  int
		filled int
	}{
		{v: 50, width: 10, filled: 5},
		{v: 100, width: 4, filled: 4},
		{v: 0, width: 4, filled: 0},
		{v: 150, width: 2, filled: 2},
	}
	for _, tt := range tests {
		got := ansi.Strip(gauge(tt.v, successColor, tt.width))
		if w := lipgloss.Width(got); w != tt.width {
			t.Errorf("gauge(%v, %d) width = %d", tt.v, tt.width, w)
		}
		if n := strings.Count(got, "█"); n != tt.filled {
			t.Errorf("gauge(%v, %d) = %q, want %d filled cells", tt.v, tt.width, got, tt.filled)
		}
	}
	if got := gauge(50, successColor, 0); got != "" {
		t.Errorf("gauge with no width = %q", got)
	}
}

func TestResonanceColor(t *testing.T) {
	if resonanceColor(91) != successColor || resonanceColor(60) != warningColor || resonanceColor(10) != dangerColor {
		t.Error("resonance grading changed")
	}
}

func TestPhaseCaption(t *testing.T) {
	if got := phaseCaption(sequencer.ReflexGenerating); got != "Generating Reflex..." {
		t.Errorf("caption = %q", got)
	}
	if got := phaseCaption(sequencer.Idle); got != "WITNESS_LAYER_ACTIVE" {
		t.Errorf("caption = %q", got)
	}
}

func TestFormatScore(t *testing.T) {
	if got := formatScore(91); got != "91" {
		t.Errorf("formatScore(91) = %q", got)
	}
	if got := formatScore(82.5); got != "82.5" {
		t.Errorf("formatScore(82.5) = %q", got)
	}
}

func TestPostProcessMarkdownFramesCode(t *testing.T) {
	in := "intro\n" + codeBar + " x := 1\n" + codeBar + " y := 2\nafter"
	out := stripANSI(postProcessMarkdown(in, 20))
	lines := strings.Split(out, "\n")

	want := []string{"intro", strings.Repeat("━", 16), "x := 1", "y := 2", strings.Repeat("━", 16), "after"}
	if len(lines) != len(want) {
		t.Fatalf("lines = %q", lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}
