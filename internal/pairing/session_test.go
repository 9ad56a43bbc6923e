package pairing

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/relay/internal/clock"
	"github.com/five82/relay/internal/notify"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// gateEncoder holds every encode until release is closed and then succeeds
// regardless of cancellation.
type gateEncoder struct {
	release chan struct{}
	inner   Encoder
}

func newGateEncoder() *gateEncoder {
	return &gateEncoder{release: make(chan struct{}), inner: NewQREncoder(DefaultOptions())}
}

func (g *gateEncoder) Encode(_ context.Context, payload string) (Image, error) {
	<-g.release
	return g.inner.Encode(context.Background(), payload)
}

type failEncoder struct{ err error }

func (f failEncoder) Encode(context.Context, string) (Image, error) { return Image{}, f.err }

type recorder struct {
	mu     sync.Mutex
	titles []string
}

func (r *recorder) Notify(_ notify.Kind, title, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.titles = append(r.titles, title)
}

type memClipboard struct{ text string }

func (m *memClipboard) WriteText(text string) error {
	m.text = text
	return nil
}

type memSaver struct {
	name string
	data []byte
}

func (m *memSaver) SaveBlob(data []byte, filename string) (string, error) {
	m.name, m.data = filename, data
	return "/exports/" + filename, nil
}

func newTestSession(enc Encoder, clk clock.Clock) (*Session, *recorder) {
	rec := &recorder{}
	s := NewSession(SessionOptions{
		Encoder:  enc,
		Clock:    clk,
		Notifier: rec,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return s, rec
}

// generate drives s from a payload to Generated.
func generate(t *testing.T, s *Session, payload string) tea.Cmd {
	t.Helper()
	cmd := s.SetPayload(payload)
	require.NotNil(t, cmd)
	require.Equal(t, Generating, s.Status())
	return s.Update(cmd())
}

func TestSetPayloadGeneratesAndExpires(t *testing.T) {
	s, rec := newTestSession(nil, clock.Fake(epoch))
	s.Await()
	require.Equal(t, Waiting, s.Status())

	generate(t, s, "ABC")
	require.Equal(t, Generated, s.Status())
	assert.Equal(t, 120, s.Remaining())
	img, ok := s.Image()
	require.True(t, ok)
	assert.Equal(t, "ABC", decodePNG(t, img.PNG))

	for i := 0; i < 119; i++ {
		s.Tick()
		require.Equal(t, Generated, s.Status(), "tick %d", i+1)
	}
	assert.Equal(t, 1, s.Remaining())
	assert.True(t, s.ExpiringSoon())

	s.Tick()
	assert.Equal(t, Expired, s.Status())
	assert.Equal(t, 0, s.Remaining())
	assert.Equal(t, RecoveryRegenerate, s.Recovery())
	assert.Contains(t, rec.titles, "Pairing code expired")

	s.Tick()
	assert.Equal(t, Expired, s.Status(), "ticks after expiry do nothing")
}

func TestExpiringSoonThreshold(t *testing.T) {
	s, _ := newTestSession(nil, clock.Fake(epoch))
	generate(t, s, "ABC")
	for i := 0; i < 89; i++ {
		s.Tick()
	}
	assert.Equal(t, 31, s.Remaining())
	assert.False(t, s.ExpiringSoon())
	s.Tick()
	assert.True(t, s.ExpiringSoon())
}

func TestCountdownRunsOnClock(t *testing.T) {
	fake := clock.Fake(epoch)
	s, _ := newTestSession(nil, fake)
	tick := generate(t, s, "ABC")
	require.NotNil(t, tick)

	for want := 119; want >= 117; want-- {
		msgs := make(chan tea.Msg, 1)
		go func(cmd tea.Cmd) { msgs <- cmd() }(tick)
		fake.WaitForTimers(1)
		fake.Advance(time.Second)

		select {
		case msg := <-msgs:
			tick = s.Update(msg)
		case <-time.After(2 * time.Second):
			t.Fatal("tick did not fire")
		}
		assert.Equal(t, want, s.Remaining())
	}
}

func TestStaleEncodeIsDiscarded(t *testing.T) {
	s, _ := newTestSession(nil, clock.Fake(epoch))

	first := s.SetPayload("XYZ")
	second := s.SetPayload("DEF")
	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, uint64(2), s.Generation())

	// Stale result first: ignored, still generating.
	assert.Nil(t, s.Update(first()))
	assert.Equal(t, Generating, s.Status())

	s.Update(second())
	require.Equal(t, Generated, s.Status())
	assert.Equal(t, "DEF", s.Payload())
	img, _ := s.Image()
	assert.Equal(t, "DEF", decodePNG(t, img.PNG))
}

func TestStaleEncodeAfterNewerApplied(t *testing.T) {
	gate := newGateEncoder()
	close(gate.release)
	s, _ := newTestSession(gate, clock.Fake(epoch))

	first := s.SetPayload("XYZ")
	second := s.SetPayload("DEF")
	s.Update(second())
	s.Update(first())

	assert.Equal(t, Generated, s.Status())
	img, _ := s.Image()
	assert.Equal(t, "DEF", decodePNG(t, img.PNG))
}

func TestCloseDuringEncodeDiscardsResult(t *testing.T) {
	gate := newGateEncoder()
	s, _ := newTestSession(gate, clock.Fake(epoch))

	cmd := s.SetPayload("ABC")
	msgs := make(chan tea.Msg, 1)
	go func() { msgs <- cmd() }()

	s.Close()
	close(gate.release)
	msg := <-msgs
	encoded, ok := msg.(EncodedMsg)
	require.True(t, ok)
	require.NoError(t, encoded.Err, "encode resolves successfully after close")

	assert.Nil(t, s.Update(msg))
	assert.Equal(t, Idle, s.Status())
	_, hasImage := s.Image()
	assert.False(t, hasImage)
	assert.Empty(t, s.Payload())

	s.Close()
	assert.Equal(t, Idle, s.Status())
}

func TestCloseStopsCountdown(t *testing.T) {
	fake := clock.Fake(epoch)
	s, _ := newTestSession(nil, fake)
	tick := generate(t, s, "ABC")
	gen := s.Generation()

	s.Close()
	assert.Nil(t, tick(), "pending tick is cancelled")
	assert.Nil(t, s.Update(TickMsg{Generation: gen}))
	assert.Equal(t, Idle, s.Status())
	assert.Equal(t, 0, s.Remaining())
}

func TestSamePayloadIsNoop(t *testing.T) {
	s, _ := newTestSession(nil, clock.Fake(epoch))
	generate(t, s, "ABC")
	gen := s.Generation()
	assert.Nil(t, s.SetPayload("ABC"))
	assert.Nil(t, s.SetPayload("  "))
	assert.Equal(t, gen, s.Generation())
	assert.Equal(t, Generated, s.Status())
}

func TestEncodeFailureAndRegenerate(t *testing.T) {
	boom := errors.New("boom")
	enc := &switchEncoder{fail: boom}
	s, rec := newTestSession(enc, clock.Fake(epoch))

	cmd := s.SetPayload("ABC")
	s.Update(cmd())
	require.Equal(t, Error, s.Status())
	var encErr *EncodeError
	require.ErrorAs(t, s.Err(), &encErr)
	assert.ErrorIs(t, s.Err(), boom)
	assert.Equal(t, RecoveryRegenerate, s.Recovery())
	assert.Contains(t, rec.titles, "Pairing code failed")

	enc.fail = nil
	regen, err := s.Regenerate()
	require.NoError(t, err)
	require.NotNil(t, regen)
	assert.Equal(t, Generating, s.Status())
	s.Update(regen())
	assert.Equal(t, Generated, s.Status())
	assert.NoError(t, s.Err())
}

type switchEncoder struct {
	fail error
}

func (e *switchEncoder) Encode(ctx context.Context, payload string) (Image, error) {
	if e.fail != nil {
		return Image{}, e.fail
	}
	return NewQREncoder(DefaultOptions()).Encode(ctx, payload)
}

func TestRegenerateAfterExpiry(t *testing.T) {
	s, _ := newTestSession(nil, clock.Fake(epoch))
	generate(t, s, "ABC")
	for i := 0; i < 120; i++ {
		s.Tick()
	}
	require.Equal(t, Expired, s.Status())
	gen := s.Generation()

	cmd, err := s.Regenerate()
	require.NoError(t, err)
	assert.Greater(t, s.Generation(), gen)
	s.Update(cmd())
	assert.Equal(t, Generated, s.Status())
	assert.Equal(t, 120, s.Remaining())
	assert.Equal(t, "ABC", s.Payload())
}

func TestRegenerateOnlyFromTerminalStates(t *testing.T) {
	s, _ := newTestSession(nil, clock.Fake(epoch))
	_, err := s.Regenerate()
	assert.ErrorIs(t, err, ErrInvalidState)

	generate(t, s, "ABC")
	_, err = s.Regenerate()
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestGeneratedCannotReachError(t *testing.T) {
	s, _ := newTestSession(nil, clock.Fake(epoch))
	generate(t, s, "ABC")

	// A failed result for the current generation arriving late is ignored.
	assert.Nil(t, s.Update(EncodedMsg{Generation: s.Generation(), Err: errors.New("late")}))
	assert.Equal(t, Generated, s.Status())
}

func TestConfirmScan(t *testing.T) {
	s, rec := newTestSession(nil, clock.Fake(epoch))
	assert.ErrorIs(t, s.ConfirmScan(), ErrInvalidState)

	generate(t, s, "ABC")
	require.NoError(t, s.ConfirmScan())
	assert.Equal(t, Scanned, s.Status())
	assert.Contains(t, rec.titles, "Device paired")

	s.Tick()
	assert.Nil(t, s.Update(TickMsg{Generation: s.Generation()}))
	assert.Equal(t, Scanned, s.Status())
	assert.Equal(t, RecoveryNone, s.Recovery())
}

func TestCopyAndDownloadOnlyWhenGenerated(t *testing.T) {
	clip := &memClipboard{}
	saver := &memSaver{}
	s := NewSession(SessionOptions{Clock: clock.Fake(epoch), Clipboard: clip, Saver: saver})

	assert.ErrorIs(t, s.CopyPayload(), ErrInvalidState)
	_, err := s.DownloadImage()
	assert.ErrorIs(t, err, ErrInvalidState)

	generate(t, s, "ABC")
	require.NoError(t, s.CopyPayload())
	assert.Equal(t, "ABC", clip.text)

	path, err := s.DownloadImage()
	require.NoError(t, err)
	assert.Equal(t, "pairing-qr-20260301-120000.png", saver.name)
	assert.Equal(t, "/exports/pairing-qr-20260301-120000.png", path)
	assert.Equal(t, "ABC", decodePNG(t, saver.data))
	assert.Equal(t, Generated, s.Status(), "side effects do not change state")
}
