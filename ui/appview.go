package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"linae/config"
	"linae/intake"
	"linae/model"
	"linae/provider"
	"linae/sequencer"
	"linae/storage"
)

// View selects the main panel.
type View int

const (
	ViewTerminal View = iota
	ViewConverter
	ViewManifesto
	ViewCertificate
)

func (v View) String() string {
	switch v {
	case ViewConverter:
		return "converter"
	case ViewManifesto:
		return "manifesto"
	case ViewCertificate:
		return "certificate"
	default:
		return "terminal"
	}
}

// Rows taken by everything around the transcript: title, visualizer panel,
// attachment line, input and status bar.
const chromeHeight = 12

const flashDuration = 3 * time.Second

// Options configures NewAppView. Session and Config are required.
type Options struct {
	Session *model.Session
	// Gateway is only used for the model name and the ping action.
	Gateway *provider.Gateway
	Config  *config.Config
	Logger  *zap.Logger
	Context context.Context
	Version string
	License string
}

// alert is an acknowledge-only modal.
type alert struct {
	title   string
	message string
	kind    ModalType
}

type searchState struct {
	active   bool
	input    textinput.Model
	results  []storage.TurnMatch
	selected int
}

// AppView is the root bubbletea model.
type AppView struct {
	ctx     context.Context
	session *model.Session
	gateway *provider.Gateway
	cfg     *config.Config
	kb      *config.KeyBindingsConfig
	logger  *zap.Logger
	version string
	license string

	width  int
	height int
	ready  bool
	view   View

	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model
	spinning bool

	state   sequencer.State
	pending bool

	// Markdown renders of agent turns keyed by turn id; reset on resize.
	rendered map[string]string
	// Index into session turns of the highlighted search hit, -1 for none.
	highlight int
	// First transcript line of each turn, for jumping to search hits.
	turnOffsets []int
	startedAt   time.Time

	attachment      *intake.Attachment
	attachmentLabel string
	picker          FilePickerState

	converter converterState
	lore      viewport.Model

	search searchState

	showHelp  bool
	showAbout bool
	alert     *alert

	flash      string
	flashUntil time.Time

	providerStatus string
}

func NewAppView(opts Options) AppView {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	kb := cfg.Keybindings
	if kb == nil {
		kb = config.DefaultKeybindings()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	ta := textarea.New()
	ta.Placeholder = "Enter command for processing..."
	ta.Focus()
	ta.CharLimit = 0
	ta.ShowLineNumbers = false
	ta.SetHeight(3)
	ta.SetWidth(80)
	// Enter submits; alt+enter breaks the line.
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter"))
	ta.SetPromptFunc(2, func(lineIdx int) string {
		if lineIdx == 0 {
			return "> "
		}
		return "| "
	})

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = lipgloss.NewStyle().Foreground(reflexColor)

	searchInput := textinput.New()
	searchInput.Prompt = "Search: "
	searchInput.CharLimit = 100

	return AppView{
		ctx:       ctx,
		session:   opts.Session,
		gateway:   opts.Gateway,
		cfg:       cfg,
		kb:        kb,
		logger:    logger,
		version:   opts.Version,
		license:   opts.License,
		viewport:  viewport.New(0, 0),
		textarea:  ta,
		spinner:   sp,
		state:     opts.Session.State(),
		rendered:  make(map[string]string),
		highlight: -1,
		startedAt: time.Now(),
		picker:    NewFilePickerState(""),
		converter: newConverterState(),
		lore:      viewport.New(0, 0),
		search:    searchState{input: searchInput},
	}
}

func (a AppView) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink}
	if a.gateway != nil {
		cmds = append(cmds, provider.PingProvider(a.gateway, a.cfg.Provider))
	}
	return tea.Batch(cmds...)
}

// busy reports whether a turn is running or the display sequence is still
// playing.
func (a AppView) busy() bool {
	return a.pending || a.state.Busy()
}

func (a AppView) modelName() string {
	if a.gateway != nil {
		if name := a.gateway.DisplayName(); name != "" {
			return name
		}
	}
	return a.cfg.Model
}

func (a AppView) View() string {
	if !a.ready {
		return "Initializing..."
	}
	if a.width < 40 || a.height < 16 {
		return "Terminal too small"
	}

	switch {
	case a.alert != nil:
		return RenderAcknowledgeModal(a.alert.title, a.alert.message, a.alert.kind, a.width, a.height)
	case a.picker.Active:
		return RenderFilePickerModal(a.picker, a.width, a.height)
	case a.showHelp:
		return a.renderHelpModal(a.width, a.height)
	case a.showAbout:
		return renderAboutModal(a, a.width, a.height)
	case a.search.active:
		return a.renderTurnSearch(a.width, a.height)
	}

	var body string
	switch a.view {
	case ViewConverter:
		body = a.renderConverter(a.width, a.height-3)
	case ViewManifesto, ViewCertificate:
		body = a.lore.View()
	default:
		body = a.renderTerminal()
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		a.renderTitleBar(),
		"",
		body,
		a.renderStatusBar(),
	)
}

func (a AppView) renderTerminal() string {
	attachment := DimStyle.Render("no attachment")
	if a.attachment != nil {
		attachment = HighlightStyle.Render("+ ") + a.attachmentLabel
	}
	return lipgloss.JoinVertical(
		lipgloss.Left,
		a.renderVisualizer(a.width),
		a.viewport.View(),
		attachment,
		a.textarea.View(),
	)
}

func (a *AppView) resize(width, height int) {
	a.width = width
	a.height = height

	vh := height - chromeHeight
	if vh < 3 {
		vh = 3
	}
	a.viewport.Width = width
	a.viewport.Height = vh
	a.textarea.SetWidth(width)
	a.lore.Width = width
	a.lore.Height = height - 3
	if a.lore.Height < 3 {
		a.lore.Height = 3
	}

	// Cached markdown was wrapped for the old width.
	a.rendered = make(map[string]string)
	a.ready = true
	a.refreshTranscript(true)
	a.refreshLore()
}

func (a *AppView) setFlash(msg string) tea.Cmd {
	a.flash = msg
	a.flashUntil = time.Now().Add(flashDuration)
	return model.FlashTick(flashDuration)
}

func (a *AppView) showAlert(title, message string, kind ModalType) {
	a.alert = &alert{title: title, message: message, kind: kind}
}

// startSpinner starts the tick loop unless it is already running.
func (a *AppView) startSpinner() tea.Cmd {
	if a.spinning {
		return nil
	}
	a.spinning = true
	return a.spinner.Tick
}
