package pairing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/relay/internal/clock"
	"github.com/five82/relay/internal/export"
	"github.com/five82/relay/internal/notify"
)

const (
	// ValidityWindow is how long a generated code stays valid.
	ValidityWindow = 120 * time.Second
	// WarningThreshold is the remaining time at which a code is shown as
	// about to expire.
	WarningThreshold = 30 * time.Second

	tickInterval = time.Second
)

// Status is a pairing session's lifecycle state.
type Status int

const (
	Idle Status = iota
	Waiting
	Generating
	Generated
	Scanned
	Expired
	Error
)

func (s Status) String() string {
	switch s {
	case Waiting:
		return "waiting"
	case Generating:
		return "generating"
	case Generated:
		return "generated"
	case Scanned:
		return "scanned"
	case Expired:
		return "expired"
	case Error:
		return "error"
	default:
		return "idle"
	}
}

// EncodedMsg delivers the result of an encode started for Generation.
type EncodedMsg struct {
	Generation uint64
	Payload    string
	Image      Image
	Err        error
}

// TickMsg is one elapsed countdown second for Generation.
type TickMsg struct {
	Generation uint64
}

// SessionOptions wires a Session's collaborators. Encoder defaults to a
// QREncoder with DefaultOptions.
type SessionOptions struct {
	Encoder   Encoder
	Clock     clock.Clock
	Notifier  notify.Notifier
	Clipboard export.Clipboard
	Saver     export.Saver
	Logger    *slog.Logger
}

// Session drives one pairing handshake: encode, display, count down, and
// resolve to scanned or expired. Methods must be called from the event
// loop. Each new payload or close bumps the generation; encode results
// and ticks from older generations are dropped.
type Session struct {
	encoder   Encoder
	clock     clock.Clock
	notifier  notify.Notifier
	clipboard export.Clipboard
	saver     export.Saver
	logger    *slog.Logger

	status     Status
	payload    string
	image      *Image
	remaining  int
	generation uint64
	err        error

	// ctx scopes the current generation's encode and countdown.
	ctx    context.Context
	cancel context.CancelFunc
}

// NewSession returns an idle session.
func NewSession(opts SessionOptions) *Session {
	s := &Session{
		encoder:   opts.Encoder,
		clock:     opts.Clock,
		notifier:  opts.Notifier,
		clipboard: opts.Clipboard,
		saver:     opts.Saver,
		logger:    opts.Logger,
	}
	if s.encoder == nil {
		s.encoder = NewQREncoder(DefaultOptions())
	}
	if s.clock == nil {
		s.clock = clock.Real()
	}
	if s.notifier == nil {
		s.notifier = notify.Discard
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Status returns the current handshake state.
func (s *Session) Status() Status { return s.status }

// Payload returns the payload being shown, or the last one after a failure.
func (s *Session) Payload() string { return s.payload }

// Generation returns the counter that tags encode results and ticks.
func (s *Session) Generation() uint64 { return s.generation }

// Err returns the encode failure while the session is in Error.
func (s *Session) Err() error { return s.err }

// Image returns the rendered code while one is available.
func (s *Session) Image() (Image, bool) {
	if s.image == nil {
		return Image{}, false
	}
	return *s.image, true
}

// Remaining returns the countdown in whole seconds.
func (s *Session) Remaining() int { return s.remaining }

// ExpiringSoon reports whether a displayed code has WarningThreshold or
// less left.
func (s *Session) ExpiringSoon() bool {
	return s.status == Generated && time.Duration(s.remaining)*time.Second <= WarningThreshold
}

// Recovery returns the action that leaves the current terminal state.
func (s *Session) Recovery() Recovery {
	switch s.status {
	case Expired, Error:
		return RecoveryRegenerate
	default:
		return RecoveryNone
	}
}

// Await marks an idle session as waiting for its first payload.
func (s *Session) Await() {
	if s.status == Idle {
		s.status = Waiting
	}
}

// SetPayload starts encoding payload. A payload equal to the current one is
// ignored; anything else supersedes whatever the session was doing.
func (s *Session) SetPayload(payload string) tea.Cmd {
	payload = strings.TrimSpace(payload)
	if payload == "" || payload == s.payload {
		return nil
	}
	s.payload = payload
	return s.startEncode()
}

// Regenerate re-encodes the last payload after expiry or failure. Without
// a payload the session goes back to waiting.
func (s *Session) Regenerate() (tea.Cmd, error) {
	if s.status != Expired && s.status != Error {
		return nil, fmt.Errorf("regenerate from %s: %w", s.status, ErrInvalidState)
	}
	if s.payload == "" {
		s.stop()
		s.status = Waiting
		s.err = nil
		return nil, nil
	}
	return s.startEncode(), nil
}

func (s *Session) startEncode() tea.Cmd {
	s.stop()
	s.generation++
	ctx, cancel := context.WithCancel(context.Background())
	s.ctx, s.cancel = ctx, cancel
	s.status = Generating
	s.image = nil
	s.remaining = 0
	s.err = nil

	gen, payload, enc := s.generation, s.payload, s.encoder
	return func() tea.Msg {
		img, err := enc.Encode(ctx, payload)
		return EncodedMsg{Generation: gen, Payload: payload, Image: img, Err: err}
	}
}

// Update applies encode results and countdown ticks.
func (s *Session) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case EncodedMsg:
		if msg.Generation != s.generation || s.status != Generating {
			return nil
		}
		if msg.Err != nil {
			s.status = Error
			s.err = &EncodeError{PayloadLen: len(msg.Payload), Err: msg.Err}
			s.logger.Error("pairing code encode failed", "generation", msg.Generation, "error", msg.Err)
			s.notifier.Notify(notify.KindError, "Pairing code failed", "Could not render the code. Press regenerate to retry.")
			return nil
		}
		img := msg.Image
		s.image = &img
		s.status = Generated
		s.remaining = int(ValidityWindow / time.Second)
		s.logger.Info("pairing code ready", "generation", msg.Generation, "modules", img.Size())
		s.notifier.Notify(notify.KindInfo, "Pairing code ready", "Scan the code from the device to link it.")
		return s.scheduleTick()
	case TickMsg:
		if msg.Generation != s.generation || s.status != Generated {
			return nil
		}
		s.Tick()
		if s.status == Generated {
			return s.scheduleTick()
		}
	}
	return nil
}

// Tick counts down one second. At zero the code expires.
func (s *Session) Tick() {
	if s.status != Generated {
		return
	}
	if s.remaining > 0 {
		s.remaining--
	}
	if s.remaining == 0 {
		s.stop()
		s.status = Expired
		s.logger.Info("pairing code expired", "generation", s.generation)
		s.notifier.Notify(notify.KindWarning, "Pairing code expired", "Press regenerate for a new code.")
	}
}

// ConfirmScan records that the displayed code was scanned.
func (s *Session) ConfirmScan() error {
	if s.status != Generated {
		return fmt.Errorf("confirm scan from %s: %w", s.status, ErrInvalidState)
	}
	s.stop()
	s.status = Scanned
	s.logger.Info("pairing code scanned", "generation", s.generation)
	s.notifier.Notify(notify.KindSuccess, "Device paired", "The pairing code was scanned.")
	return nil
}

// CopyPayload copies the raw payload to the clipboard.
func (s *Session) CopyPayload() error {
	if s.status != Generated {
		return fmt.Errorf("copy payload from %s: %w", s.status, ErrInvalidState)
	}
	if s.clipboard == nil {
		return ErrNoExporter
	}
	if err := s.clipboard.WriteText(s.payload); err != nil {
		s.notifier.Notify(notify.KindError, "Copy failed", err.Error())
		return fmt.Errorf("copy payload: %w", err)
	}
	s.notifier.Notify(notify.KindSuccess, "Pairing code copied", "")
	return nil
}

// DownloadImage saves the rendered code as a PNG and returns its path.
func (s *Session) DownloadImage() (string, error) {
	if s.status != Generated || s.image == nil {
		return "", fmt.Errorf("download image from %s: %w", s.status, ErrInvalidState)
	}
	if s.saver == nil {
		return "", ErrNoExporter
	}
	name := "pairing-qr-" + s.clock.Now().Format("20060102-150405") + ".png"
	path, err := s.saver.SaveBlob(s.image.PNG, name)
	if err != nil {
		s.notifier.Notify(notify.KindError, "Save failed", err.Error())
		return "", fmt.Errorf("save image: %w", err)
	}
	s.notifier.Notify(notify.KindSuccess, "Pairing image saved", path)
	return path, nil
}

// Close cancels pending work, discards in-flight results and returns the
// session to Idle. Safe to call repeatedly.
func (s *Session) Close() {
	s.stop()
	s.generation++
	s.status = Idle
	s.payload = ""
	s.image = nil
	s.remaining = 0
	s.err = nil
}

func (s *Session) stop() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.ctx = nil
}

func (s *Session) scheduleTick() tea.Cmd {
	gen, clk, ctx := s.generation, s.clock, s.ctx
	if ctx == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case <-clk.After(tickInterval):
			return TickMsg{Generation: gen}
		case <-ctx.Done():
			return nil
		}
	}
}
