package ui

import (
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"linae/config"
	"linae/model"
	"linae/provider"
	"linae/sequencer"
	"linae/storage"
)

// exportDoneMsg reports a transcript export.
type exportDoneMsg struct {
	Path string
	Err  error
}

func (a AppView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.resize(msg.Width, msg.Height)
		return a, nil

	case spinner.TickMsg:
		var cmds []tea.Cmd
		if a.picker.Processing {
			var cmd tea.Cmd
			a.picker.Spinner, cmd = a.picker.Spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
		if msg.ID == a.spinner.ID() {
			if !a.busy() {
				a.spinning = false
			} else {
				var cmd tea.Cmd
				a.spinner, cmd = a.spinner.Update(msg)
				cmds = append(cmds, cmd)
			}
		}
		return a, tea.Batch(cmds...)

	case model.StateChangedMsg:
		a.state = msg.State
		if a.busy() {
			cmd := a.startSpinner()
			return a, cmd
		}
		return a, nil

	case model.TurnAppendedMsg:
		a.refreshTranscript(true)
		return a, nil

	case model.TurnResolvedMsg:
		return a.handleTurnResolved(msg)

	case model.ReplyCopiedMsg:
		if errors.Is(msg.Err, model.ErrNoReply) {
			cmd := a.setFlash("Nothing to copy yet")
			return a, cmd
		}
		if msg.Err != nil {
			a.logger.Warn("clipboard write failed", zap.Error(msg.Err))
			cmd := a.setFlash("Copy failed: " + msg.Err.Error())
			return a, cmd
		}
		cmd := a.setFlash("Copied last reply")
		return a, cmd

	case model.FlashTickMsg:
		if !time.Now().Before(a.flashUntil) {
			a.flash = ""
		}
		return a, nil

	case provider.PingProviderMsg:
		if msg.Valid {
			a.providerStatus = ""
			if msg.Model != "" {
				cmd := a.setFlash("Connected: " + msg.Model)
				return a, cmd
			}
			return a, nil
		}
		a.providerStatus = "offline"
		a.logger.Warn("provider ping failed", zap.String("provider", msg.ProviderID), zap.Error(msg.Err))
		if errors.Is(msg.Err, config.ErrMissingAPIKey) {
			a.showAlert("Missing API Key", msg.Err.Error(), ModalTypeWarning)
			return a, nil
		}
		cmd := a.setFlash("Provider unreachable")
		return a, cmd

	case exportDoneMsg:
		if msg.Err != nil {
			a.logger.Error("transcript export failed", zap.Error(msg.Err))
			a.showAlert("Export Failed", msg.Err.Error(), ModalTypeError)
			return a, nil
		}
		a.showAlert("Transcript Exported", msg.Path, ModalTypeInfo)
		return a, nil

	case attachmentLoadedMsg:
		a.picker.Reset()
		if msg.Err != nil {
			a.logger.Warn("attachment rejected", zap.String("path", msg.Path), zap.Error(msg.Err))
			a.showAlert("Cannot Attach File", msg.Err.Error(), ModalTypeError)
			return a, nil
		}
		att := msg.Attachment
		a.attachment = &att
		a.attachmentLabel = attachmentLabel(msg.Path, att)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	// Directory listings and other picker internals.
	if a.picker.Active {
		var cmd tea.Cmd
		a.picker.Picker, cmd = a.picker.Picker.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a AppView) handleTurnResolved(msg model.TurnResolvedMsg) (tea.Model, tea.Cmd) {
	a.pending = false
	a.state = a.session.State()
	a.refreshTranscript(true)

	switch {
	case msg.Err == nil:
		return a, nil
	case errors.Is(msg.Err, sequencer.ErrTurnInFlight):
		cmd := a.setFlash("A turn is already in flight")
		return a, cmd
	case errors.Is(msg.Err, model.ErrEmptySubmission):
		return a, nil
	case msg.Turn.ID != "":
		// The notice turn is already in the transcript.
		a.logger.Warn("turn failed", zap.Error(msg.Err))
		cmd := a.setFlash(msg.Err.Error())
		return a, cmd
	default:
		a.logger.Error("turn failed", zap.Error(msg.Err))
		a.showAlert("Turn Failed", msg.Err.Error(), ModalTypeError)
		return a, nil
	}
}

func (a AppView) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := msg.String()
	if k == "ctrl+c" {
		return a, tea.Quit
	}

	switch {
	case a.alert != nil:
		if k == "enter" || k == "esc" {
			a.alert = nil
		}
		return a, nil
	case a.picker.Active:
		cmd := a.picker.HandleKey(msg)
		return a, cmd
	case a.showHelp:
		if k == "esc" || k == a.kb.GetActionKey("help") {
			a.showHelp = false
		}
		return a, nil
	case a.showAbout:
		if k == "esc" || k == a.kb.GetActionKey("about") {
			a.showAbout = false
		}
		return a, nil
	case a.search.active:
		return a.handleSearchKey(msg)
	}

	switch k {
	case a.kb.GetActionKey("quit"):
		return a, tea.Quit
	case a.kb.GetActionKey("help"):
		a.showHelp = true
		return a, nil
	case a.kb.GetActionKey("about"):
		a.showAbout = true
		return a, nil
	case a.kb.GetActionKey("view_terminal"):
		return a.switchView(ViewTerminal)
	case a.kb.GetActionKey("view_converter"):
		return a.switchView(ViewConverter)
	case a.kb.GetActionKey("view_manifesto"):
		return a.switchView(ViewManifesto)
	case a.kb.GetActionKey("view_certificate"):
		return a.switchView(ViewCertificate)
	}

	switch a.view {
	case ViewConverter:
		return a.handleConverterKey(msg)
	case ViewManifesto, ViewCertificate:
		return a.handleLoreKey(msg)
	default:
		return a.handleTerminalKey(msg)
	}
}

func (a AppView) switchView(v View) (tea.Model, tea.Cmd) {
	a.view = v
	if v == ViewTerminal {
		a.converter.input.Blur()
		cmd := a.textarea.Focus()
		return a, cmd
	}
	a.textarea.Blur()
	switch v {
	case ViewConverter:
		cmd := a.converter.input.Focus()
		return a, cmd
	case ViewManifesto, ViewCertificate:
		a.converter.input.Blur()
		a.refreshLore()
		a.lore.GotoTop()
	}
	return a, nil
}

func (a AppView) handleTerminalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		return a.submit()
	case a.kb.GetActionKey("attach_file"):
		cmd := a.picker.Activate()
		return a, cmd
	case a.kb.GetActionKey("clear_attachment"):
		a.attachment = nil
		a.attachmentLabel = ""
		return a, nil
	case a.kb.GetActionKey("copy_last_reply"):
		return a, a.session.CopyLastReplyCmd()
	case a.kb.GetActionKey("export"):
		return a.export()
	case a.kb.GetActionKey("search_turns"):
		a.search.active = true
		a.search.input.SetValue("")
		a.search.results = nil
		a.search.selected = 0
		cmd := a.search.input.Focus()
		return a, cmd
	case a.kb.GetActionKey("ping_provider"):
		if a.gateway == nil {
			return a, nil
		}
		cmd := tea.Batch(a.setFlash("Pinging "+a.cfg.Provider+"..."), provider.PingProvider(a.gateway, a.cfg.Provider))
		return a, cmd
	case a.kb.GetActionKey("clear_input"):
		a.textarea.Reset()
		return a, nil
	case a.kb.GetActionKey("scroll_down"):
		a.viewport.SetYOffset(a.viewport.YOffset + 1)
		return a, nil
	case a.kb.GetActionKey("scroll_up"):
		a.viewport.SetYOffset(a.viewport.YOffset - 1)
		return a, nil
	case a.kb.GetActionKey("half_page_down"), "pgdown":
		a.viewport.HalfPageDown()
		return a, nil
	case a.kb.GetActionKey("half_page_up"), "pgup":
		a.viewport.HalfPageUp()
		return a, nil
	case a.kb.GetActionKey("scroll_to_top"):
		a.viewport.GotoTop()
		return a, nil
	case a.kb.GetActionKey("scroll_to_bottom"):
		a.viewport.GotoBottom()
		return a, nil
	}

	var cmd tea.Cmd
	a.textarea, cmd = a.textarea.Update(msg)
	return a, cmd
}

// submit sends the input and attachment as one turn. The input is kept
// while a turn is in flight.
func (a AppView) submit() (tea.Model, tea.Cmd) {
	sub := model.Submission{Text: strings.TrimSpace(a.textarea.Value())}
	if a.attachment != nil {
		sub.Image = a.attachment.Image
		sub.Document = a.attachment.Document
	}
	if sub.Empty() {
		return a, nil
	}
	if a.busy() {
		cmd := a.setFlash("A turn is already in flight")
		return a, cmd
	}

	a.textarea.Reset()
	a.attachment = nil
	a.attachmentLabel = ""
	a.pending = true
	a.highlight = -1

	cmd := tea.Batch(a.session.SubmitCmd(a.ctx, sub), a.startSpinner())
	return a, cmd
}

func (a AppView) export() (tea.Model, tea.Cmd) {
	turns := a.session.Turns()
	if len(turns) == 0 {
		cmd := a.setFlash("Nothing to export yet")
		return a, cmd
	}

	metrics := a.session.Metrics()
	resonance := a.session.Resonance()
	providerID := a.cfg.Provider
	modelName := a.modelName()
	exportDir := config.GetExportDir(a.cfg.DataDir())

	return a, func() tea.Msg {
		t := storage.NewTranscript(providerID, modelName, turns, metrics, resonance)
		path := storage.GenerateExportPath(exportDir, t.Name)
		return exportDoneMsg{Path: path, Err: storage.ExportToJSON(t, path)}
	}
}

func (a AppView) handleLoreKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return a.switchView(ViewTerminal)
	case a.kb.GetActionKey("scroll_down"), "j", "down":
		a.lore.SetYOffset(a.lore.YOffset + 1)
	case a.kb.GetActionKey("scroll_up"), "k", "up":
		a.lore.SetYOffset(a.lore.YOffset - 1)
	case a.kb.GetActionKey("half_page_down"), "pgdown", " ":
		a.lore.HalfPageDown()
	case a.kb.GetActionKey("half_page_up"), "pgup":
		a.lore.HalfPageUp()
	case a.kb.GetActionKey("scroll_to_top"), "g":
		a.lore.GotoTop()
	case a.kb.GetActionKey("scroll_to_bottom"), "G":
		a.lore.GotoBottom()
	}
	return a, nil
}
