package ui

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/relay/internal/clock"
	"github.com/five82/relay/internal/logfeed"
	"github.com/five82/relay/internal/notify"
	"github.com/five82/relay/internal/pairing"
	"github.com/five82/relay/internal/prefs"
	"github.com/five82/relay/internal/state"
)

const (
	defaultRefreshInterval = time.Second
	headerHeight           = 1
	footerHeight           = 2
)

// Options configure the dashboard.
type Options struct {
	Context context.Context
	BotID   string
	Logs    *logfeed.Controller
	Session *pairing.Session
	Store   *state.Store // optional; nil hides bot status
	Toasts  *Toasts
	Clock   clock.Clock
	Logger  *slog.Logger

	ThemeName string
	PrefsPath string
	// InitialPayload, when set, is shown as a pairing code right away.
	InitialPayload string
	RefreshEvery   time.Duration
}

// refreshMsg redraws time-dependent parts of the view.
type refreshMsg struct{}

// Model is the bubbletea model for the dashboard. The log feed and pairing
// session are driven exclusively from Update.
type Model struct {
	ctx     context.Context
	logs    *logfeed.Controller
	session *pairing.Session
	store   *state.Store
	toasts  *Toasts
	clock   clock.Clock
	logger  *slog.Logger

	keys     keyMap
	help     help.Model
	viewport viewport.Model
	theme    Theme

	botID          string
	prefsPath      string
	initialPayload string
	refreshEvery   time.Duration

	snapshot    state.Snapshot
	width       int
	height      int
	showHelp    bool
	showPairing bool
	follow      bool
}

// New builds a dashboard model. Logs and Session are required.
func New(opts Options) (Model, error) {
	if opts.Logs == nil || opts.Session == nil {
		return Model{}, errors.New("ui requires a log feed and a pairing session")
	}
	if strings.TrimSpace(opts.BotID) == "" {
		return Model{}, errors.New("ui requires a bot id")
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Toasts == nil {
		opts.Toasts = NewToasts(opts.Clock)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.RefreshEvery <= 0 {
		opts.RefreshEvery = defaultRefreshInterval
	}

	vp := viewport.New(0, 0)
	return Model{
		ctx:            opts.Context,
		logs:           opts.Logs,
		session:        opts.Session,
		store:          opts.Store,
		toasts:         opts.Toasts,
		clock:          opts.Clock,
		logger:         opts.Logger,
		keys:           DefaultKeyMap(),
		help:           help.New(),
		viewport:       vp,
		theme:          GetTheme(opts.ThemeName),
		botID:          strings.TrimSpace(opts.BotID),
		prefsPath:      opts.PrefsPath,
		initialPayload: strings.TrimSpace(opts.InitialPayload),
		refreshEvery:   opts.RefreshEvery,
		showPairing:    strings.TrimSpace(opts.InitialPayload) != "",
		follow:         true,
	}, nil
}

// Init opens the log feed and starts the refresh cadence.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.logs.Open(m.botID), m.refreshTick()}
	if m.initialPayload != "" {
		cmds = append(cmds, m.session.SetPayload(m.initialPayload))
	}
	return tea.Batch(cmds...)
}

// Update routes messages to the controllers and handles input.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-headerHeight-footerHeight, 1)
		m.syncLogs()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case refreshMsg:
		if m.ctx.Err() != nil {
			return m, m.quit()
		}
		if m.store != nil {
			m.snapshot = m.store.Snapshot()
		}
		return m, m.refreshTick()

	case logfeed.PairingDetectedMsg:
		if msg.BotID != m.logs.BotID() {
			return m, nil
		}
		m.logger.Info("pairing payload detected", "bot", msg.BotID, "entry", msg.EntryID)
		m.showPairing = true
		return m, m.session.SetPayload(msg.Token)

	case logfeed.ScanConfirmedMsg:
		if msg.BotID != m.logs.BotID() || m.session.Status() != pairing.Generated {
			return m, nil
		}
		if err := m.session.ConfirmScan(); err != nil {
			m.logger.Warn("scan confirmation ignored", "error", err)
		}
		return m, nil

	case logfeed.OpenedMsg, logfeed.FeedOpenedMsg, logfeed.HistoryMsg,
		logfeed.EntryMsg, logfeed.FeedFailedMsg, logfeed.EmptyCheckMsg:
		cmd := m.logs.Update(msg)
		m.syncLogs()
		return m, cmd

	case pairing.EncodedMsg, pairing.TickMsg:
		return m, m.session.Update(msg)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		if key.Matches(msg, m.keys.Help, m.keys.Escape, m.keys.Quit) {
			m.showHelp = false
		}
		return m, nil
	}

	if m.showPairing {
		switch {
		case key.Matches(msg, m.keys.Escape, m.keys.Pairing), msg.String() == "q":
			m.session.Close()
			m.showPairing = false
			return m, nil
		case key.Matches(msg, m.keys.Regenerate):
			cmd, err := m.session.Regenerate()
			if err != nil {
				m.toasts.Notify(notify.KindWarning, "Cannot regenerate", "Only an expired or failed code can be regenerated.")
			}
			return m, cmd
		case key.Matches(msg, m.keys.CopyPayload):
			if err := m.session.CopyPayload(); err != nil {
				m.reportPairingError(err)
			}
			return m, nil
		case key.Matches(msg, m.keys.SaveImage):
			if _, err := m.session.DownloadImage(); err != nil {
				m.reportPairingError(err)
			}
			return m, nil
		}
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, m.quit()
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
	case key.Matches(msg, m.keys.CycleTheme):
		m.cycleTheme()
		m.syncLogs()
	case key.Matches(msg, m.keys.Pairing):
		m.session.Await()
		m.showPairing = true
	case key.Matches(msg, m.keys.TogglePause):
		if m.logs.Paused() || m.logs.Connectivity() == logfeed.Disconnected {
			return m, m.logs.Resume()
		}
		m.logs.Pause()
	case key.Matches(msg, m.keys.Reload):
		return m, m.logs.Reload()
	case key.Matches(msg, m.keys.Clear):
		m.logs.Clear()
		m.syncLogs()
	case key.Matches(msg, m.keys.CopyLogs):
		m.export(logfeed.ExportText)
	case key.Matches(msg, m.keys.SaveLogs):
		m.export(logfeed.ExportDownload)
	case key.Matches(msg, m.keys.ToggleFollow):
		m.follow = !m.follow
		if m.follow {
			m.viewport.GotoBottom()
		}
	case key.Matches(msg, m.keys.Top):
		m.follow = false
		m.viewport.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		m.follow = true
		m.viewport.GotoBottom()
	case key.Matches(msg, m.keys.Up, m.keys.PageUp):
		m.follow = false
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	case key.Matches(msg, m.keys.Down, m.keys.PageDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		m.follow = m.viewport.AtBottom()
		return m, cmd
	}
	return m, nil
}

func (m Model) quit() tea.Cmd {
	m.logs.Close()
	m.session.Close()
	return tea.Quit
}

func (m Model) export(mode logfeed.ExportMode) {
	_, err := m.logs.Export(mode)
	switch {
	case err == nil:
	case errors.Is(err, logfeed.ErrNothingToExport):
		m.toasts.Notify(notify.KindWarning, "Nothing to export", "The log buffer is empty.")
	case errors.Is(err, logfeed.ErrNoExporter):
		m.toasts.Notify(notify.KindWarning, "Export unavailable", err.Error())
	default:
		// The controller already notified.
		m.logger.Warn("log export failed", "error", err)
	}
}

func (m Model) reportPairingError(err error) {
	switch {
	case errors.Is(err, pairing.ErrInvalidState):
		m.toasts.Notify(notify.KindWarning, "No pairing code", "Wait for a code to be generated.")
	case errors.Is(err, pairing.ErrNoExporter):
		m.toasts.Notify(notify.KindWarning, "Export unavailable", err.Error())
	default:
		m.logger.Warn("pairing export failed", "error", err)
	}
}

func (m *Model) cycleTheme() {
	m.theme = GetTheme(NextTheme(m.theme.Name))
	if m.prefsPath == "" {
		return
	}
	current, err := prefs.Load(m.prefsPath)
	if err != nil {
		m.logger.Warn("load prefs failed", "error", err)
	}
	current.Theme = m.theme.Name
	if err := prefs.Save(m.prefsPath, current); err != nil {
		m.logger.Warn("save prefs failed", "error", err)
	}
}

// syncLogs re-renders the buffer into the viewport.
func (m *Model) syncLogs() {
	m.viewport.SetContent(m.renderEntries())
	if m.follow {
		m.viewport.GotoBottom()
	}
}

func (m Model) refreshTick() tea.Cmd {
	clk, every := m.clock, m.refreshEvery
	return func() tea.Msg {
		<-clk.After(every)
		return refreshMsg{}
	}
}
