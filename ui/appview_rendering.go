package ui

import (
	"fmt"
	"regexp"
	"strings"

	markdown "github.com/MichaelMure/go-term-markdown"
	"github.com/charmbracelet/lipgloss"
	gomarkdown "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/parser"
	"github.com/muesli/reflow/truncate"

	"linae/lore"
	"linae/model"
)

const (
	reflexPreviewLen = 100
	emptyTranscript  = "Awaiting input to initiate dual-layer processing sequence..."
)

var (
	inlineCodeRegex = regexp.MustCompile(`(?s)\x1b\[44;3m(.*?)\x1b\[0m`)
	mdLinkRegex     = regexp.MustCompile(`\[([^\]]+)\]\((https?://[^\)]+)\)`)
	urlRegex        = regexp.MustCompile(`(https?://[^\s\x1b]+)`)
	ansiRegex       = regexp.MustCompile(`\x1b\[[0-9;]*m`)
)

// codeBar is the prefix go-term-markdown puts on code block lines.
const codeBar = "┃"

// refreshTranscript re-renders the session turns into the viewport.
func (a *AppView) refreshTranscript(gotoBottom bool) {
	turns := a.session.Turns()
	if len(turns) == 0 {
		a.turnOffsets = nil
		a.viewport.SetContent(DimStyle.Render(emptyTranscript))
		return
	}

	var b strings.Builder
	offsets := make([]int, len(turns))
	lines := 0
	for i, t := range turns {
		offsets[i] = lines
		block := a.renderTurn(i, t)
		b.WriteString(block)
		lines += strings.Count(block, "\n")
	}
	a.turnOffsets = offsets

	a.viewport.SetContent(b.String())
	if gotoBottom {
		a.viewport.GotoBottom()
	}
}

// scrollToTurn brings turn i to the top of the transcript.
func (a *AppView) scrollToTurn(i int) {
	if i < 0 || i >= len(a.turnOffsets) {
		return
	}
	a.viewport.SetYOffset(a.turnOffsets[i])
}

func (a *AppView) renderTurn(i int, t model.Turn) string {
	prefix := ""
	if i == a.highlight {
		prefix = HighlightStyle.Render(">>> ")
	}
	timestamp := DimStyle.Render(t.Timestamp.Format("[15:04]"))

	if t.Role == model.RoleUser {
		body := t.Content
		if note := attachmentNote(t); note != "" {
			if body != "" {
				body += "\n"
			}
			body += DimStyle.Render(note)
		}
		return formatUserMessage(prefix, timestamp, UserStyle.Render("You"), wordWrap(body, a.width-4))
	}

	header := fmt.Sprintf("%s%s %s\n", prefix, timestamp, AgentStyle.Render("Linae"))
	if t.Result == nil {
		// System notice, no process record.
		return header + InterventionStyle.Render(wordWrap(t.Content, a.width-4)) + "\n\n"
	}

	body, ok := a.rendered[t.ID]
	if !ok {
		body = renderMarkdown(t.Content, a.width)
		a.rendered[t.ID] = body
	}
	return header + body + "\n" + renderProcessCard(*t.Result, a.width) + "\n\n"
}

func attachmentNote(t model.Turn) string {
	switch {
	case t.Image != nil:
		return fmt.Sprintf("[image %s, %d bytes]", t.Image.MIMEType, len(t.Image.Data))
	case t.Document != nil:
		return fmt.Sprintf("[document %s]", t.Document.Name)
	}
	return ""
}

func formatUserMessage(prefix, timestamp, role, content string) string {
	bar := UserStyle.Render("┃")

	var b strings.Builder
	fmt.Fprintf(&b, "%s%s %s %s\n", prefix, bar, timestamp, role)
	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(&b, "%s %s\n", bar, line)
	}
	b.WriteString("\n")
	return b.String()
}

// reflexPreview caps the layer 1 reflex at 100 runes.
func reflexPreview(s string) string {
	r := []rune(s)
	if len(r) <= reflexPreviewLen {
		return s
	}
	return string(r[:reflexPreviewLen]) + "..."
}

// renderProcessCard shows the three layers behind one reply.
func renderProcessCard(res model.Result, width int) string {
	inner := width - 6
	if inner < 20 {
		inner = 20
	}

	badge := HarmonizedStyle.Render("HARMONIZED")
	if res.Intervention {
		badge = InterventionStyle.Render("INTERVENTION")
	}
	heading := DimStyle.Render("INTERNAL PROCESS")
	gap := inner - lipgloss.Width(heading) - lipgloss.Width(badge)
	if gap < 1 {
		gap = 1
	}

	lines := []string{
		heading + strings.Repeat(" ", gap) + badge,
		"",
		ReflexStyle.Render("LAYER 1 (REFLEX)"),
		DimStyle.Render(wordWrap(fmt.Sprintf("%q", reflexPreview(res.ReflexResponse)), inner)),
		DimStyle.Render(fmt.Sprintf("Confidence: %s%%", formatScore(res.ReflexConfidence))),
		"",
		CoreStyle.Render("LAYER 2 (ESSENCE)"),
		wordWrap(res.CoreAnalysis, inner),
		DimStyle.Render(fmt.Sprintf("Resonance Score: %s/100", formatScore(res.ResonanceScore))),
	}
	if res.MetaAnalysis != "" {
		lines = append(lines, "",
			WitnessStyle.Render("LAYER 3 (WITNESS)"),
			wordWrap(res.MetaAnalysis, inner))
	}
	if res.IsDrifting {
		lines = append(lines, InterventionStyle.Render("drift detected"))
	}
	if len(res.GroundingSources) > 0 {
		lines = append(lines, "", DimStyle.Render("Sources"))
		for i, c := range res.GroundingSources {
			title := c.Title
			if title == "" {
				title = c.URI
			}
			line := fmt.Sprintf("%d. %s %s", i+1, title, DimStyle.Render(c.URI))
			lines = append(lines, truncate.StringWithTail(line, uint(inner), "..."))
		}
	}

	return CardStyle.Width(inner + 2).Render(strings.Join(lines, "\n"))
}

// formatScore prints whole scores without decimals.
func formatScore(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.1f", v)
}

// renderMarkdown renders content for the terminal at width columns.
func renderMarkdown(content string, width int) string {
	if width < 24 {
		width = 24
	}
	// Bare URLs stay plain so terminals can make them clickable.
	p := parser.NewWithExtensions(markdown.Extensions() &^ parser.Autolink)
	doc := p.Parse([]byte(mdLinkRegex.ReplaceAllString(content, "$2")))
	out := gomarkdown.Render(doc, markdown.NewRenderer(width-4, 0))
	return strings.TrimRight(postProcessMarkdown(string(out), width), "\n")
}

func postProcessMarkdown(rendered string, width int) string {
	// Inline code: blue background becomes red text.
	rendered = inlineCodeRegex.ReplaceAllString(rendered, "\x1b[31m$1\x1b[0m")

	lines := strings.Split(rendered, "\n")
	out := make([]string, 0, len(lines))
	rule := "\x1b[90m" + strings.Repeat("━", max(width-4, 1)) + "\x1b[0m"
	inCode := false
	for _, line := range lines {
		i := strings.Index(line, codeBar)
		if i < 0 {
			if inCode {
				out = append(out, rule)
				inCode = false
			}
			out = append(out, urlRegex.ReplaceAllString(line, "\x1b[31m$1\x1b[0m"))
			continue
		}
		if !inCode {
			out = append(out, rule)
			inCode = true
		}
		code := line[i+len(codeBar):]
		out = append(out, strings.TrimPrefix(code, " "))
	}
	if inCode {
		out = append(out, rule)
	}
	return strings.Join(out, "\n")
}

func stripANSI(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

// refreshLore fills the manifesto or certificate viewport.
func (a *AppView) refreshLore() {
	switch a.view {
	case ViewManifesto:
		a.lore.SetContent(renderMarkdown(lore.Manifesto(), a.width))
	case ViewCertificate:
		a.lore.SetContent(renderMarkdown(lore.Certificate(a.startedAt), a.width))
	}
}

func (a AppView) renderTitleBar() string {
	name := lipgloss.NewStyle().Foreground(highlightColor).Bold(true).Render("LINAE")
	tagline := DimStyle.Render(" SAFE AGI STACK // LOCAL • GLOBAL • WITNESS")

	tabs := []string{"Terminal", "Converter", "Manifesto", "Certificate"}
	for i, t := range tabs {
		if View(i) == a.view {
			tabs[i] = SelectedStyle.Render("[" + t + "]")
		} else {
			tabs[i] = DimStyle.Render(t)
		}
	}

	dot := HarmonizedStyle.Render("●")
	if a.busy() {
		dot = WitnessStyle.Render("●")
	}
	if a.providerStatus != "" {
		dot = InterventionStyle.Render("●")
	}
	right := strings.Join(tabs, " ") + "  " + dot + " " + TitleStyle.Render(a.state.Status())

	left := name + tagline
	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		// Narrow terminals drop the tagline.
		left = name
		gap = max(a.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	}
	return left + strings.Repeat(" ", gap) + right
}

func (a AppView) renderStatusBar() string {
	if a.flash != "" {
		return SelectedStyle.Render(a.flash)
	}

	var parts []string
	switch a.view {
	case ViewConverter:
		parts = []string{
			"Tab", "Mode",
			"↑/↓", "Select",
			"Esc", "Back",
			a.kb.DisplayActionKey("help"), "Help",
		}
	case ViewManifesto, ViewCertificate:
		parts = []string{
			"j/k", "Scroll",
			"g/G", "Top/Bottom",
			"Esc", "Back",
			a.kb.DisplayActionKey("help"), "Help",
		}
	default:
		parts = []string{
			"Enter", "Send",
			a.kb.DisplayActionKey("attach_file"), "Attach",
			a.kb.DisplayActionKey("copy_last_reply"), "Copy",
			a.kb.DisplayActionKey("export"), "Export",
			a.kb.DisplayActionKey("search_turns"), "Search",
			a.kb.DisplayActionKey("help"), "Help",
			a.kb.DisplayActionKey("quit"), "Quit",
		}
	}
	return StatusStyle.Render(truncate.String(FormatFooter(parts...), uint(a.width)))
}
