package ui

import (
	"sync"
	"time"

	"github.com/five82/relay/internal/clock"
	"github.com/five82/relay/internal/notify"
)

const (
	toastLifetime = 5 * time.Second
	maxToasts     = 3
)

// Toast is one in-app notification.
type Toast struct {
	Kind    notify.Kind
	Title   string
	Message string
	At      time.Time
}

// Toasts is a notify.Notifier that keeps recent notifications for the
// footer. Safe for concurrent use.
type Toasts struct {
	clock clock.Clock

	mu    sync.Mutex
	items []Toast
}

var _ notify.Notifier = (*Toasts)(nil)

// NewToasts returns an empty board. A nil clock uses the real one.
func NewToasts(clk clock.Clock) *Toasts {
	if clk == nil {
		clk = clock.Real()
	}
	return &Toasts{clock: clk}
}

// Notify records a toast, dropping the oldest beyond maxToasts.
func (t *Toasts) Notify(kind notify.Kind, title, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items = append(t.items, Toast{Kind: kind, Title: title, Message: message, At: t.clock.Now()})
	if len(t.items) > maxToasts {
		t.items = t.items[len(t.items)-maxToasts:]
	}
}

// Active prunes expired toasts and returns the rest, newest last.
func (t *Toasts) Active() []Toast {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.clock.Now()
	kept := t.items[:0]
	for _, item := range t.items {
		if now.Sub(item.At) < toastLifetime {
			kept = append(kept, item)
		}
	}
	t.items = kept
	return append([]Toast(nil), kept...)
}
