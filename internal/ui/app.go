package ui

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/livelog/internal/logging"
	"github.com/five82/livelog/internal/prefs"
	"github.com/five82/livelog/internal/session"
	"github.com/five82/livelog/internal/state"
)

// View represents the current active view.
type View int

const (
	ViewFiles View = iota
	ViewLogs
	ViewAnalytics
)

// inputTarget names the filter the prompt edits.
type inputTarget int

const (
	inputNone inputTarget = iota
	inputListFilter
	inputContentFilter
)

// Options configures the UI.
type Options struct {
	Engine      Engine
	Prefs       prefs.Prefs
	PrefsPath   string
	InitialFile string
	ServerURL   string
	Tick        time.Duration
	Clipboard   io.Writer // OSC 52 sequences go here; nil uses os.Stdout
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx         context.Context
	engine      Engine
	keys        keyMap
	prefs       prefs.Prefs
	prefsPath   string
	serverURL   string
	initialFile string
	tick        time.Duration
	clipboard   io.Writer

	// UI state
	theme       Theme
	currentView View
	width       int
	height      int
	ready       bool
	showHelp    bool

	// Data state
	version  uint64
	snapshot session.Snapshot
	health   state.Snapshot
	files    []string

	// Files state
	fileCursor int

	// Log state
	logViewport viewport.Model
	follow      bool

	// Analytics state
	analyticsCursor int

	// Filter prompt
	input       textinput.Model
	inputTarget inputTarget
	inputPrev   string

	// Transient status line message
	status    string
	statusErr bool
	statusAt  time.Time
}

// New creates a new Bubble Tea model.
func New(ctx context.Context, opts Options) Model {
	if ctx == nil {
		ctx = context.Background()
	}

	tick := opts.Tick
	if tick <= 0 {
		tick = DefaultUIInterval
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	clipboard := opts.Clipboard
	if clipboard == nil {
		clipboard = os.Stdout
	}

	ti := textinput.New()
	ti.Prompt = "/"
	ti.Placeholder = "regex"
	ti.CharLimit = 256

	return Model{
		ctx:         ctx,
		engine:      opts.Engine,
		keys:        DefaultKeyMap(),
		prefs:       opts.Prefs,
		prefsPath:   prefsPath,
		serverURL:   opts.ServerURL,
		initialFile: opts.InitialFile,
		tick:        tick,
		clipboard:   clipboard,
		theme:       GetTheme(opts.Prefs.Theme),
		currentView: ViewFiles,
		follow:      true,
		input:       ti,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tickCmd(m.tick),
		loadFilesCmd(m.ctx, m.engine),
	}
	if m.initialFile != "" {
		cmds = append(cmds, openFileCmd(m.ctx, m.engine, m.initialFile))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.initLogViewport()
		}
		m.ready = true
		m.refresh()
		return m, nil

	case tickMsg:
		return m.handleTick(time.Time(msg))

	case filesLoadedMsg:
		if msg.err != nil {
			m.setStatus(msg.err.Error(), true)
		}
		m.refresh()
		return m, nil

	case fileOpenedMsg:
		return m.handleFileOpened(msg)

	case analyticsMsg:
		if errors.Is(msg.err, session.ErrSelectionChanged) {
			m.refresh()
			return m, nil
		}
		if msg.err != nil {
			m.setStatus(msg.err.Error(), true)
			m.refresh()
			return m, nil
		}
		m.analyticsCursor = 0
		m.currentView = ViewAnalytics
		m.refresh()
		return m, nil

	case polledMsg:
		if msg.err != nil && !errors.Is(msg.err, context.Canceled) {
			m.setStatus(msg.err.Error(), true)
		}
		m.refresh()
		return m, nil

	case copiedMsg:
		if msg.err != nil {
			m.setStatus("copy failed: "+msg.err.Error(), true)
		} else {
			m.setStatus("Copied "+msg.url, false)
		}
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	if m.inputTarget != inputNone {
		return m.handleInputKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.prefs.Theme = m.theme.Name
		m.savePrefs()
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.Tab):
		if m.currentView == ViewFiles {
			return m.showLogs()
		}
		m.leaveAnalytics()
		m.currentView = ViewFiles
		return m, nil

	case key.Matches(msg, m.keys.ViewFiles):
		m.leaveAnalytics()
		m.currentView = ViewFiles
		return m, nil

	case key.Matches(msg, m.keys.ViewLogs):
		return m.showLogs()

	case key.Matches(msg, m.keys.ViewAnalytics):
		if m.engine.AnalyticsOpen() {
			m.leaveAnalytics()
			m.currentView = ViewLogs
			return m, nil
		}
		if m.engine.Selected() == "" {
			m.setStatus("Open a file first", true)
			return m, nil
		}
		m.setStatus("Loading analytics...", false)
		return m, analyticsCmd(m.ctx, m.engine)

	case key.Matches(msg, m.keys.Filter):
		m.startInput()
		cmd := m.input.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.CopyURL):
		url, err := m.engine.DownloadURL()
		if err != nil {
			m.setStatus(err.Error(), true)
			return m, nil
		}
		return m, copyCmd(m.clipboard, url)

	case key.Matches(msg, m.keys.Escape):
		switch m.currentView {
		case ViewAnalytics:
			m.leaveAnalytics()
			m.currentView = ViewLogs
		case ViewLogs:
			m.currentView = ViewFiles
		}
		return m, nil
	}

	switch m.currentView {
	case ViewFiles:
		return m.handleFilesKey(msg)
	case ViewLogs:
		return m.handleLogsKey(msg)
	case ViewAnalytics:
		return m.handleAnalyticsKey(msg)
	}
	return m, nil
}

// handleInputKey edits the active filter. Every keystroke is applied so the
// view narrows while typing; esc restores the previous pattern.
func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.stopInput()
		return m, nil
	case tea.KeyEsc:
		m.applyFilter(m.inputPrev)
		m.stopInput()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.applyFilter(m.input.Value())
	return m, cmd
}

func (m *Model) startInput() {
	if m.currentView == ViewFiles {
		m.inputTarget = inputListFilter
		m.inputPrev = m.engine.ListFilter()
	} else {
		m.inputTarget = inputContentFilter
		m.inputPrev = m.engine.ContentFilter()
	}
	m.input.SetValue(m.inputPrev)
	m.input.CursorEnd()
}

func (m *Model) stopInput() {
	m.inputTarget = inputNone
	m.inputPrev = ""
	m.input.Blur()
}

func (m *Model) applyFilter(pattern string) {
	switch m.inputTarget {
	case inputListFilter:
		m.engine.SetListFilter(pattern)
		m.fileCursor = 0
	case inputContentFilter:
		m.engine.SetContentFilter(pattern)
		m.analyticsCursor = 0
	}
	m.refresh()
}

func (m Model) showLogs() (tea.Model, tea.Cmd) {
	if m.engine.AnalyticsOpen() {
		m.currentView = ViewAnalytics
		return m, nil
	}
	m.currentView = ViewLogs
	m.refresh()
	return m, nil
}

func (m *Model) leaveAnalytics() {
	if m.engine.AnalyticsOpen() {
		m.engine.CloseAnalytics()
		m.refresh()
	}
}

// handleTick re-reads the session when its version moved.
func (m Model) handleTick(now time.Time) (tea.Model, tea.Cmd) {
	m.health = m.engine.Health()
	if v := m.engine.Version(); v != m.version {
		m.refresh()
	}
	if m.status != "" && now.Sub(m.statusAt) > StatusLifetime {
		m.status = ""
		m.statusErr = false
	}
	return m, tickCmd(m.tick)
}

func (m Model) handleFileOpened(msg fileOpenedMsg) (tea.Model, tea.Cmd) {
	if errors.Is(msg.err, session.ErrNoSelection) {
		m.setStatus(msg.err.Error(), true)
		return m, nil
	}
	if msg.err != nil {
		// The file is open; only the grouping reset failed.
		m.setStatus(msg.err.Error(), true)
	}
	m.prefs.LastFile = msg.file
	m.savePrefs()
	m.follow = true
	m.currentView = ViewLogs
	m.refresh()
	return m, nil
}

// refresh copies the session state the views render.
func (m *Model) refresh() {
	if m.engine == nil {
		return
	}
	m.version = m.engine.Version()
	m.snapshot = m.engine.Snapshot()
	m.health = m.engine.Health()
	m.files = m.engine.VisibleFiles()
	m.fileCursor = clamp(m.fileCursor, 0, len(m.files)-1)
	m.analyticsCursor = clamp(m.analyticsCursor, 0, len(m.engine.VisibleAnalytics())-1)
	m.updateLogViewport()
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = logging.Redact(text)
	m.statusErr = isErr
	m.statusAt = time.Now()
}

func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
		log := logging.Component("ui")
		log.Warn().Err(err).Msg("save preferences")
	}
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder

	// Header line 1: logo + status
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	// Header line 2: command bar
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")

	// Main content
	b.WriteString(m.renderContent())

	return b.String()
}

// renderContent renders the main content area based on current view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewFiles:
		return m.renderFiles()
	case ViewLogs:
		return m.renderLogs()
	case ViewAnalytics:
		return m.renderAnalytics()
	default:
		return ""
	}
}

// Messages

type tickMsg time.Time

type filesLoadedMsg struct{ err error }

type fileOpenedMsg struct {
	file string
	err  error
}

type analyticsMsg struct{ err error }

type polledMsg struct{ err error }

type copiedMsg struct {
	url string
	err error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func loadFilesCmd(ctx context.Context, engine Engine) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, ActionTimeout)
		defer cancel()
		return filesLoadedMsg{err: engine.LoadFiles(ctx)}
	}
}

func openFileCmd(ctx context.Context, engine Engine, file string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, ActionTimeout)
		defer cancel()
		return fileOpenedMsg{file: file, err: engine.Open(ctx, file)}
	}
}

func analyticsCmd(ctx context.Context, engine Engine) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, ActionTimeout)
		defer cancel()
		return analyticsMsg{err: engine.OpenAnalytics(ctx)}
	}
}

func pollNowCmd(ctx context.Context, engine Engine) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, ActionTimeout)
		defer cancel()
		return polledMsg{err: engine.PollNow(ctx)}
	}
}

// Run starts the Bubble Tea program and blocks until the user quits or ctx
// is cancelled.
func Run(ctx context.Context, opts Options) error {
	m := New(ctx, opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
