package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"linae/config"
	"linae/intake"
)

// attachmentLoadedMsg carries the result of reading a picked file.
type attachmentLoadedMsg struct {
	Path       string
	Attachment intake.Attachment
	Err        error
}

// loadAttachmentCmd reads path off the UI goroutine.
func loadAttachmentCmd(path string) tea.Cmd {
	return func() tea.Msg {
		att, err := intake.Load(path)
		return attachmentLoadedMsg{Path: path, Attachment: att, Err: err}
	}
}

// FilePickerState is the attach-file modal.
type FilePickerState struct {
	Active     bool
	Processing bool
	Picker     filepicker.Model
	Spinner    spinner.Model
}

func NewFilePickerState(startDir string) FilePickerState {
	fp := filepicker.New()
	fp.AllowedTypes = intake.Extensions()
	fp.Height = 10
	fp.DirAllowed = false
	fp.FileAllowed = true
	fp.ShowPermissions = false
	fp.ShowSize = true
	fp.ShowHidden = false

	if startDir == "" {
		startDir = config.GetHomeDir()
	}
	fp.CurrentDirectory = startDir

	fp.Styles.Directory = lipgloss.NewStyle().Foreground(accentColor).Bold(true)
	fp.Styles.File = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	fp.Styles.Selected = lipgloss.NewStyle().Foreground(successColor).Bold(true)
	fp.Styles.Cursor = lipgloss.NewStyle().Foreground(successColor)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return FilePickerState{Picker: fp, Spinner: sp}
}

// Activate opens the modal and reads the start directory.
func (fps *FilePickerState) Activate() tea.Cmd {
	fps.Active = true
	fps.Processing = false
	fps.Picker.Path = ""
	return fps.Picker.Init()
}

func (fps *FilePickerState) Reset() {
	fps.Active = false
	fps.Processing = false
	fps.Picker.Path = ""
}

// HandleKey feeds a key press to the picker. When a regular file is chosen
// it switches to Processing and returns the load command.
func (fps *FilePickerState) HandleKey(msg tea.KeyMsg) tea.Cmd {
	if fps.Processing {
		return nil
	}
	if msg.String() == "esc" {
		fps.Reset()
		return nil
	}

	var cmd tea.Cmd
	fps.Picker, cmd = fps.Picker.Update(msg)

	if ok, path := fps.Picker.DidSelectFile(msg); ok {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			fps.Processing = true
			return tea.Batch(loadAttachmentCmd(path), fps.Spinner.Tick)
		}
	}
	return cmd
}

func RenderFilePickerModal(state FilePickerState, width, height int) string {
	if width < 20 || height < 10 {
		return "Terminal too small"
	}
	modalWidth := modalWidthFor(80, width)

	if state.Processing {
		line := lipgloss.NewStyle().
			Bold(true).
			Align(lipgloss.Center).
			Width(modalWidth).
			Render(fmt.Sprintf("%s Reading file...", state.Spinner.View()))
		return RenderThreeSectionModal("Attach File", []string{line}, "Please wait", ModalTypeInfo, modalWidth, width, height)
	}

	contentStyle := lipgloss.NewStyle().Width(modalWidth).Align(lipgloss.Left)

	lines := []string{
		DimStyle.Render("  " + state.Picker.CurrentDirectory),
		"",
	}
	for _, line := range strings.Split(state.Picker.View(), "\n") {
		lines = append(lines, contentStyle.Render("  "+strings.TrimRight(line, " ")))
	}
	lines = append(lines, "", DimStyle.Render("  "+strings.Join(intake.Extensions(), " ")))

	footer := FormatFooter("j/k", "Navigate", "h/l", "Back/Open", "Enter", "Attach", "Esc", "Cancel")
	return RenderThreeSectionModal("Attach File", lines, footer, ModalTypeInfo, modalWidth, width, height)
}

// attachmentLabel names an attachment for the input prompt.
func attachmentLabel(path string, att intake.Attachment) string {
	name := filepath.Base(path)
	switch {
	case att.Image != nil:
		return fmt.Sprintf("image %s (%s)", name, att.Image.MIMEType)
	case att.Document != nil:
		return fmt.Sprintf("document %s (%d chars)", name, len([]rune(att.Document.Text)))
	default:
		return name
	}
}
