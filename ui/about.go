package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const asciiArt = `
 ██╗     ██╗███╗   ██╗ █████╗ ███████╗
 ██║     ██║████╗  ██║██╔══██╗██╔════╝
 ██║     ██║██╔██╗ ██║███████║█████╗
 ██║     ██║██║╚██╗██║██╔══██║██╔══╝
 ███████╗██║██║ ╚████║██║  ██║███████╗
 ╚══════╝╚═╝╚═╝  ╚═══╝╚═╝  ╚═╝╚══════╝`

var features = []string{
	"Layer 1  Policy: execution and reflex",
	"Layer 2  Alignment: immutable ethics, global",
	"Layer 3  Witness: meta-monitoring",
	"",
	"Images and documents as turn attachments",
	"Neuro-symbolic concept converter",
	"Transcript export and opt-in turn archive",
}

func renderAboutModal(a AppView, width, height int) string {
	label := lipgloss.NewStyle().Foreground(accentColor).Bold(true)
	value := lipgloss.NewStyle().Foreground(dimColor)

	var sb strings.Builder
	sb.WriteString(lipgloss.NewStyle().Foreground(highlightColor).Bold(true).Render(asciiArt))
	sb.WriteString("\n\n")
	for _, f := range features {
		sb.WriteString(value.Render(f) + "\n")
	}
	sb.WriteString("\n")

	version := a.version
	if version == "" {
		version = "dev"
	}
	sb.WriteString(label.Render("Version: ") + value.Render(version) + "\n")
	if a.license != "" {
		sb.WriteString(label.Render("License: ") + value.Render(a.license) + "\n")
	}
	sb.WriteString(label.Render("Model:   ") + value.Render(a.modelName()) + "\n\n")
	sb.WriteString(value.Render("Press Esc or " + a.kb.DisplayActionKey("about") + " to close"))

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(mutedColor).
		Padding(1, 2)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box.Render(sb.String()))
}
