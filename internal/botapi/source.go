package botapi

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// ErrFeedClosed reports that the remote side ended a live feed cleanly.
var ErrFeedClosed = errors.New("live feed closed by server")

// LogSource is the log half of the bot API: a bounded history read and a
// push-based live feed.
type LogSource interface {
	FetchHistory(ctx context.Context, botID string, limit int) ([]LogEntry, error)
	OpenLiveFeed(ctx context.Context, botID string, onEntry func(LogEntry)) (Subscription, error)
}

// BotController is the control half of the bot API.
type BotController interface {
	FetchStatus(ctx context.Context, botID string) (*BotStatus, error)
	StartBot(ctx context.Context, botID string, spec BotSpec) (StartResult, error)
	StopBot(ctx context.Context, botID string) (StartResult, error)
}

// Subscription represents one open live feed. Release must be called on
// every exit path; it is safe to call repeatedly. Done is closed once the
// feed has ended, either by Release or by failure; Err reports the failure
// and is nil after a plain Release.
type Subscription interface {
	Release()
	Done() <-chan struct{}
	Err() error
}

// Handle is the Subscription used by relay's feed implementations.
type Handle struct {
	once     sync.Once
	done     chan struct{}
	cleanup  func()
	mu       sync.Mutex
	err      error
	released bool
}

// NewHandle returns an open Handle. cleanup runs exactly once when the
// handle is released or failed.
func NewHandle(cleanup func()) *Handle {
	return &Handle{done: make(chan struct{}), cleanup: cleanup}
}

// Release ends the feed. Repeated calls are no-ops.
func (h *Handle) Release() { h.finish(nil, true) }

// Fail ends the feed with err. Ignored if the handle already ended.
func (h *Handle) Fail(err error) {
	if err == nil {
		err = ErrFeedClosed
	}
	h.finish(err, false)
}

func (h *Handle) finish(err error, released bool) {
	h.once.Do(func() {
		h.mu.Lock()
		h.err = err
		h.released = released
		h.mu.Unlock()
		close(h.done)
		if h.cleanup != nil {
			h.cleanup()
		}
	})
}

// Done is closed when the feed ends.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Err returns the failure that ended the feed, nil if it is still open or
// was released.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Released reports whether the feed ended through Release.
func (h *Handle) Released() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}

var entryNamespace = uuid.MustParse("6f1d3c4e-8a2b-4f5e-9c7d-2b1a0e9f8d7c")

// Normalize fills fields a bot may omit. Entries without an id get one
// derived from their content, so the same record replayed over history and
// the live feed still deduplicates.
func Normalize(entry LogEntry, botID string) LogEntry {
	if strings.TrimSpace(entry.BotID) == "" {
		entry.BotID = botID
	}
	if entry.Level == "" {
		entry.Level = LevelInfo
	}
	if entry.ID == "" {
		key := entry.BotID + "\x00" + entry.Timestamp.UTC().Format("2006-01-02T15:04:05.000000000") +
			"\x00" + entry.Source + "\x00" + entry.Message
		entry.ID = uuid.NewSHA1(entryNamespace, []byte(key)).String()
	}
	return entry
}
