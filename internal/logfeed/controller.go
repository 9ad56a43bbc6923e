package logfeed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/relay/internal/botapi"
	"github.com/five82/relay/internal/clock"
	"github.com/five82/relay/internal/export"
	"github.com/five82/relay/internal/notify"
)

const (
	// DefaultHistoryLimit is how many entries Open and Reload fetch.
	DefaultHistoryLimit = 50
	// DefaultEmptyWindow is the silence after which an empty feed is flagged.
	DefaultEmptyWindow = 5 * time.Second

	pipeDepth = 256
)

// Connectivity is the live feed's connection state.
type Connectivity int

const (
	Idle Connectivity = iota
	Connecting
	Connected
	Disconnected
)

func (c Connectivity) String() string {
	switch c {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Disconnected:
		return "disconnected"
	default:
		return "idle"
	}
}

// ExportMode selects where Export sends the formatted log.
type ExportMode int

const (
	ExportText ExportMode = iota
	ExportDownload
)

// Options configures a Controller. Source is required; everything else has
// a usable default.
type Options struct {
	Source        botapi.LogSource
	Clock         clock.Clock
	Notifier      notify.Notifier
	Clipboard     export.Clipboard
	Saver         export.Saver
	Logger        *slog.Logger
	HistoryLimit  int
	Capacity      int
	PairingMarker string
	ScanMarker    string
	EmptyWindow   time.Duration
}

// Messages produced by the controller's commands. Each carries the sequence
// number of the request that produced it; Update drops stale ones.
type (
	// OpenedMsg completes Open: history plus the live feed. The two halves
	// are checked for staleness separately.
	OpenedMsg struct {
		Seq        uint64
		HistorySeq uint64
		BotID      string
		Entries    []botapi.LogEntry
		HistoryErr error
		Sub        botapi.Subscription
		FeedErr    error
	}
	// FeedOpenedMsg completes Resume.
	FeedOpenedMsg struct {
		Seq uint64
		Sub botapi.Subscription
		Err error
	}
	// HistoryMsg completes Reload.
	HistoryMsg struct {
		Seq     uint64
		Entries []botapi.LogEntry
		Err     error
	}
	// EntryMsg carries one pushed entry.
	EntryMsg struct {
		Seq   uint64
		Entry botapi.LogEntry
	}
	// FeedFailedMsg reports that the live feed ended without being released.
	FeedFailedMsg struct {
		Seq uint64
		Err error
	}
	// EmptyCheckMsg fires once the empty-feed window has elapsed.
	EmptyCheckMsg struct {
		Seq uint64
	}
)

// PairingDetectedMsg is emitted when a retained entry carries a pairing
// token. The controller does not consume it.
type PairingDetectedMsg struct {
	Token   string
	EntryID string
	BotID   string
}

// ScanConfirmedMsg is emitted when a retained entry carries the scan
// confirmation marker.
type ScanConfirmedMsg struct {
	EntryID string
	BotID   string
}

// livePipe carries entries from the source's callback goroutine to the
// event loop.
type livePipe struct {
	entries chan botapi.LogEntry
	closed  chan struct{}
	once    sync.Once
}

func newLivePipe() *livePipe {
	return &livePipe{
		entries: make(chan botapi.LogEntry, pipeDepth),
		closed:  make(chan struct{}),
	}
}

func (p *livePipe) push(e botapi.LogEntry) {
	select {
	case p.entries <- e:
	case <-p.closed:
	}
}

func (p *livePipe) close() { p.once.Do(func() { close(p.closed) }) }

// Controller presents one bot's log as a single deduplicated, time-ordered
// buffer fed by history and a live feed. All methods must be called from
// the event loop; asynchronous work runs in the returned commands.
type Controller struct {
	source      botapi.LogSource
	clock       clock.Clock
	notifier    notify.Notifier
	clipboard   export.Clipboard
	saver       export.Saver
	logger      *slog.Logger
	limit       int
	emptyWindow time.Duration
	pairing     Marker
	scan        Marker

	buffer *Buffer
	botID  string
	conn   Connectivity
	paused bool
	err    error

	sub        botapi.Subscription
	pipe       *livePipe
	feedCancel context.CancelFunc

	feedSeq    uint64
	historySeq uint64
	emptySeq   uint64

	emptyAdvisory bool
	emptyCancel   context.CancelFunc
	seenPairing   map[string]struct{}
	seenOrder     []string
}

// New returns an idle controller.
func New(opts Options) *Controller {
	c := &Controller{
		source:      opts.Source,
		clock:       opts.Clock,
		notifier:    opts.Notifier,
		clipboard:   opts.Clipboard,
		saver:       opts.Saver,
		logger:      opts.Logger,
		limit:       opts.HistoryLimit,
		emptyWindow: opts.EmptyWindow,
		pairing:     NewMarker(opts.PairingMarker),
		scan:        NewMarker(opts.ScanMarker),
		buffer:      NewBuffer(opts.Capacity),
		seenPairing: make(map[string]struct{}),
	}
	if c.clock == nil {
		c.clock = clock.Real()
	}
	if c.notifier == nil {
		c.notifier = notify.Discard
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.limit <= 0 {
		c.limit = DefaultHistoryLimit
	}
	if c.emptyWindow <= 0 {
		c.emptyWindow = DefaultEmptyWindow
	}
	if opts.PairingMarker == "" {
		c.pairing = NewMarker(DefaultPairingMarker)
	}
	if opts.ScanMarker == "" {
		c.scan = NewMarker(DefaultScanMarker)
	}
	return c
}

// BotID returns the bot the controller is attached to.
func (c *Controller) BotID() string { return c.botID }

// Connectivity returns the live feed state.
func (c *Controller) Connectivity() Connectivity { return c.conn }

// Paused reports whether the operator paused the feed.
func (c *Controller) Paused() bool { return c.paused }

// Entries returns the buffered entries, oldest first.
func (c *Controller) Entries() []botapi.LogEntry { return c.buffer.Entries() }

// Len returns the number of buffered entries.
func (c *Controller) Len() int { return c.buffer.Len() }

// Err returns the most recent failure, nil once it has been recovered.
func (c *Controller) Err() error { return c.err }

// Recovery returns the action that clears the current failure.
func (c *Controller) Recovery() Recovery {
	var connErr *ConnectionError
	if errors.As(c.err, &connErr) {
		return connErr.Recovery()
	}
	return RecoveryNone
}

// EmptyAdvisory reports that the feed has stayed empty past the silence
// window. It is cleared by the next retained entry.
func (c *Controller) EmptyAdvisory() bool { return c.emptyAdvisory }

// Open attaches the controller to botID: any held subscription is released,
// then the returned command fetches history and opens the live feed.
func (c *Controller) Open(botID string) tea.Cmd {
	botID = strings.TrimSpace(botID)
	c.releaseFeed()
	if botID != c.botID {
		c.buffer.Reset()
		c.forgetPairing()
	}
	c.botID = botID
	c.paused = false
	c.err = nil
	c.emptyAdvisory = false
	c.historySeq++
	c.emptySeq++
	c.conn = Connecting

	if botID == "" {
		c.err = &ConnectionError{Op: opOpenFeed, BotID: botID, Err: ErrNotOpen}
		c.conn = Disconnected
		return nil
	}

	ctx, pipe, seq := c.startFeed()
	source, limit, historySeq := c.source, c.limit, c.historySeq
	open := func() tea.Msg {
		msg := OpenedMsg{Seq: seq, HistorySeq: historySeq, BotID: botID}
		// History outlives a pause that lands mid-open, so it does not use
		// the feed's context.
		msg.Entries, msg.HistoryErr = source.FetchHistory(context.Background(), botID, limit)
		// A history failure does not stop the live feed from opening.
		msg.Sub, msg.FeedErr = source.OpenLiveFeed(ctx, botID, pipe.push)
		if msg.FeedErr == nil && msg.Sub == nil {
			msg.FeedErr = errors.New("source returned no subscription")
		}
		return msg
	}
	return tea.Batch(open, c.emptyCheck())
}

// Resume reopens the live feed after Pause or a feed failure. History is
// not refetched.
func (c *Controller) Resume() tea.Cmd {
	if c.botID == "" || c.conn == Connecting || c.conn == Connected {
		return nil
	}
	c.releaseFeed()
	c.paused = false
	c.conn = Connecting

	ctx, pipe, seq := c.startFeed()
	source, botID := c.source, c.botID
	return func() tea.Msg {
		sub, err := source.OpenLiveFeed(ctx, botID, pipe.push)
		if err == nil && sub == nil {
			err = errors.New("source returned no subscription")
		}
		return FeedOpenedMsg{Seq: seq, Sub: sub, Err: err}
	}
}

// Pause releases the live feed and keeps the buffer. Pushes are ignored
// until Resume.
func (c *Controller) Pause() {
	if c.botID == "" {
		return
	}
	c.releaseFeed()
	c.paused = true
	c.conn = Disconnected
}

// Reload refetches history and replaces the buffer with it. The live feed
// is left alone.
func (c *Controller) Reload() tea.Cmd {
	if c.botID == "" {
		return nil
	}
	c.historySeq++
	seq := c.historySeq
	source, botID, limit := c.source, c.botID, c.limit
	return func() tea.Msg {
		entries, err := source.FetchHistory(context.Background(), botID, limit)
		return HistoryMsg{Seq: seq, Entries: entries, Err: err}
	}
}

// Clear empties the local buffer. The bot's own log is unaffected.
func (c *Controller) Clear() {
	c.buffer.Reset()
}

// Close releases the live feed, discards in-flight results and returns the
// controller to Idle. Safe to call repeatedly.
func (c *Controller) Close() {
	c.releaseFeed()
	c.stopEmptyCheck()
	c.historySeq++
	c.emptySeq++
	c.buffer.Reset()
	c.forgetPairing()
	c.botID = ""
	c.conn = Idle
	c.paused = false
	c.err = nil
	c.emptyAdvisory = false
}

// OnEntry merges one entry into the buffer. The returned command emits
// PairingDetectedMsg or ScanConfirmedMsg when the retained entry carries a
// marker; it is nil otherwise.
func (c *Controller) OnEntry(entry botapi.LogEntry) tea.Cmd {
	if c.paused {
		return nil
	}
	entry = botapi.Normalize(entry, c.botID)
	if !c.buffer.Insert(entry) {
		return nil
	}
	c.emptyAdvisory = false
	return c.markerCmds(entry)
}

func (c *Controller) markerCmds(entry botapi.LogEntry) tea.Cmd {
	var cmds []tea.Cmd
	if c.scan.Match(entry.Message) {
		scanned := ScanConfirmedMsg{EntryID: entry.ID, BotID: entry.BotID}
		cmds = append(cmds, func() tea.Msg { return scanned })
	}
	if token, ok := c.pairing.Extract(entry.Message); ok {
		if c.markPairingSeen(entry.ID) {
			detected := PairingDetectedMsg{Token: token, EntryID: entry.ID, BotID: entry.BotID}
			cmds = append(cmds, func() tea.Msg { return detected })
		}
	}
	return tea.Batch(cmds...)
}

// Export writes the buffer in export format. Text mode copies it to the
// clipboard and returns an empty path; download mode saves a file and
// returns its path.
func (c *Controller) Export(mode ExportMode) (string, error) {
	entries := c.buffer.Entries()
	if len(entries) == 0 {
		return "", ErrNothingToExport
	}
	text := FormatEntries(entries)

	switch mode {
	case ExportDownload:
		if c.saver == nil {
			return "", ErrNoExporter
		}
		path, err := c.saver.SaveBlob([]byte(text), ExportFilename(c.botID, c.clock.Now()))
		if err != nil {
			c.notifier.Notify(notify.KindError, "Export failed", err.Error())
			return "", fmt.Errorf("save logs: %w", err)
		}
		c.notifier.Notify(notify.KindSuccess, "Logs saved", path)
		return path, nil
	default:
		if c.clipboard == nil {
			return "", ErrNoExporter
		}
		if err := c.clipboard.WriteText(text); err != nil {
			c.notifier.Notify(notify.KindError, "Copy failed", err.Error())
			return "", fmt.Errorf("copy logs: %w", err)
		}
		c.notifier.Notify(notify.KindSuccess, "Logs copied", fmt.Sprintf("%d entries", len(entries)))
		return "", nil
	}
}

// Update applies a message produced by one of the controller's commands.
// Messages from superseded requests are discarded; stale subscriptions are
// released.
func (c *Controller) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case OpenedMsg:
		return c.handleOpened(msg)
	case FeedOpenedMsg:
		return c.handleFeedOpened(msg)
	case HistoryMsg:
		return c.handleHistory(msg)
	case EntryMsg:
		if msg.Seq != c.feedSeq || c.pipe == nil {
			return nil
		}
		return tea.Batch(c.OnEntry(msg.Entry), c.waitForEntry())
	case FeedFailedMsg:
		return c.handleFeedFailed(msg)
	case EmptyCheckMsg:
		if msg.Seq != c.emptySeq || c.botID == "" {
			return nil
		}
		if c.buffer.Len() == 0 && !c.emptyAdvisory {
			c.emptyAdvisory = true
			c.notifier.Notify(notify.KindInfo, "No log entries yet",
				"The bot has not logged anything. Check that it is running.")
		}
	}
	return nil
}

func (c *Controller) handleOpened(msg OpenedMsg) tea.Cmd {
	if msg.BotID != c.botID {
		if msg.Sub != nil {
			msg.Sub.Release()
		}
		return nil
	}

	var cmds []tea.Cmd
	historyOK := false
	if msg.HistorySeq == c.historySeq {
		if msg.HistoryErr != nil {
			c.historyFailed(msg.HistoryErr)
		} else {
			historyOK = true
			cmds = append(cmds, c.applyHistory(msg.Entries, false))
		}
	}

	// Pause or a newer open superseded the feed half.
	if msg.Seq != c.feedSeq {
		if msg.Sub != nil {
			msg.Sub.Release()
		}
		return tea.Batch(cmds...)
	}

	if msg.FeedErr != nil {
		c.feedFailed(opOpenFeed, msg.FeedErr)
		return tea.Batch(cmds...)
	}
	c.sub = msg.Sub
	c.conn = Connected
	if historyOK {
		c.err = nil
	}
	c.logger.Info("live feed connected", "bot", c.botID, "history", len(msg.Entries))
	cmds = append(cmds, c.waitForEntry())
	return tea.Batch(cmds...)
}

func (c *Controller) handleFeedOpened(msg FeedOpenedMsg) tea.Cmd {
	if msg.Seq != c.feedSeq {
		if msg.Sub != nil {
			msg.Sub.Release()
		}
		return nil
	}
	if msg.Err != nil {
		c.feedFailed(opOpenFeed, msg.Err)
		return nil
	}
	c.sub = msg.Sub
	c.conn = Connected
	c.clearFeedError()
	c.logger.Info("live feed resumed", "bot", c.botID)
	return c.waitForEntry()
}

func (c *Controller) handleHistory(msg HistoryMsg) tea.Cmd {
	if msg.Seq != c.historySeq || c.botID == "" {
		return nil
	}
	if msg.Err != nil {
		c.historyFailed(msg.Err)
		return nil
	}
	var connErr *ConnectionError
	if errors.As(c.err, &connErr) && connErr.Op == opHistory {
		c.err = nil
	}
	return c.applyHistory(msg.Entries, true)
}

func (c *Controller) handleFeedFailed(msg FeedFailedMsg) tea.Cmd {
	if msg.Seq != c.feedSeq || c.sub == nil {
		return nil
	}
	err := msg.Err
	if err == nil {
		err = botapi.ErrFeedClosed
	}
	c.feedFailed(opFeed, err)
	return nil
}

// applyHistory loads fetched entries. Only the newest pairing token in the
// batch is emitted; older ones are superseded payloads.
func (c *Controller) applyHistory(entries []botapi.LogEntry, replace bool) tea.Cmd {
	normalized := make([]botapi.LogEntry, 0, len(entries))
	for _, e := range entries {
		normalized = append(normalized, botapi.Normalize(e, c.botID))
	}
	if replace {
		c.buffer.Replace(normalized)
	} else {
		for _, e := range normalized {
			c.buffer.Insert(e)
		}
	}
	if c.buffer.Len() > 0 {
		c.emptyAdvisory = false
	}

	var latest *PairingDetectedMsg
	var latestAt time.Time
	for _, e := range normalized {
		if !c.buffer.Contains(e.ID) {
			continue
		}
		token, ok := c.pairing.Extract(e.Message)
		if !ok {
			continue
		}
		if !c.markPairingSeen(e.ID) {
			continue
		}
		if latest == nil || !e.Timestamp.Before(latestAt) {
			latest = &PairingDetectedMsg{Token: token, EntryID: e.ID, BotID: e.BotID}
			latestAt = e.Timestamp
		}
	}
	if latest == nil {
		return nil
	}
	detected := *latest
	return func() tea.Msg { return detected }
}

func (c *Controller) historyFailed(err error) {
	c.err = &ConnectionError{Op: opHistory, BotID: c.botID, Err: err}
	c.logger.Warn("history fetch failed", "bot", c.botID, "error", err)
	c.notifier.Notify(notify.KindWarning, "History unavailable",
		fmt.Sprintf("Could not load recent logs for %s: %v", c.botID, err))
}

func (c *Controller) feedFailed(op string, err error) {
	c.releaseFeed()
	c.conn = Disconnected
	c.err = &ConnectionError{Op: op, BotID: c.botID, Err: err}
	c.logger.Error("live feed failed", "bot", c.botID, "op", op, "error", err)
	c.notifier.Notify(notify.KindError, "Live feed lost",
		fmt.Sprintf("%s: %v. Press resume to reconnect.", c.botID, err))
}

func (c *Controller) clearFeedError() {
	var connErr *ConnectionError
	if errors.As(c.err, &connErr) && connErr.Op != opHistory {
		c.err = nil
	}
}

// startFeed prepares the pipe and context for a new live feed and returns
// the sequence number that identifies it.
func (c *Controller) startFeed() (context.Context, *livePipe, uint64) {
	ctx, cancel := context.WithCancel(context.Background())
	c.feedCancel = cancel
	c.pipe = newLivePipe()
	c.feedSeq++
	return ctx, c.pipe, c.feedSeq
}

// releaseFeed drops the current subscription. Every path that gives up a
// feed goes through here.
func (c *Controller) releaseFeed() {
	if c.sub != nil {
		c.sub.Release()
		c.sub = nil
	}
	if c.feedCancel != nil {
		c.feedCancel()
		c.feedCancel = nil
	}
	if c.pipe != nil {
		c.pipe.close()
		c.pipe = nil
	}
	c.feedSeq++
}

func (c *Controller) waitForEntry() tea.Cmd {
	pipe, sub, seq := c.pipe, c.sub, c.feedSeq
	if pipe == nil || sub == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case e := <-pipe.entries:
			return EntryMsg{Seq: seq, Entry: e}
		default:
		}
		select {
		case e := <-pipe.entries:
			return EntryMsg{Seq: seq, Entry: e}
		case <-sub.Done():
			select {
			case e := <-pipe.entries:
				return EntryMsg{Seq: seq, Entry: e}
			default:
			}
			return FeedFailedMsg{Seq: seq, Err: sub.Err()}
		case <-pipe.closed:
			return nil
		}
	}
}

func (c *Controller) emptyCheck() tea.Cmd {
	c.stopEmptyCheck()
	ctx, cancel := context.WithCancel(context.Background())
	c.emptyCancel = cancel
	seq, clk, window := c.emptySeq, c.clock, c.emptyWindow
	return func() tea.Msg {
		select {
		case <-clk.After(window):
			return EmptyCheckMsg{Seq: seq}
		case <-ctx.Done():
			return nil
		}
	}
}

func (c *Controller) stopEmptyCheck() {
	if c.emptyCancel != nil {
		c.emptyCancel()
		c.emptyCancel = nil
	}
}

// markPairingSeen records a pairing entry id and reports whether it is new.
// Only the most recent Cap() ids are remembered.
func (c *Controller) markPairingSeen(id string) bool {
	if _, seen := c.seenPairing[id]; seen {
		return false
	}
	c.seenPairing[id] = struct{}{}
	c.seenOrder = append(c.seenOrder, id)
	if over := len(c.seenOrder) - c.buffer.Cap(); over > 0 {
		for _, old := range c.seenOrder[:over] {
			delete(c.seenPairing, old)
		}
		c.seenOrder = append(c.seenOrder[:0], c.seenOrder[over:]...)
	}
	return true
}

func (c *Controller) forgetPairing() {
	clear(c.seenPairing)
	c.seenOrder = c.seenOrder[:0]
}
