// Package notify delivers fire-and-forget operator notifications.
//
// Notifications are advisory: nothing in relay depends on their delivery
// for correctness. Controllers take a Notifier so tests can capture what
// would have been shown.
package notify

import (
	"context"
	"log/slog"
	"strings"

	"github.com/gen2brain/beeep"
)

// Kind classifies a notification.
type Kind string

const (
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
	KindWarning Kind = "warning"
	KindError   Kind = "error"
)

// Notifier shows a notification to the operator.
type Notifier interface {
	Notify(kind Kind, title, message string)
}

// Func adapts a function to Notifier.
type Func func(kind Kind, title, message string)

// Notify calls f.
func (f Func) Notify(kind Kind, title, message string) { f(kind, title, message) }

// Discard drops every notification.
var Discard Notifier = Func(func(Kind, string, string) {})

// Multi fans a notification out to several notifiers in order.
type Multi []Notifier

// Notify forwards to every non-nil notifier.
func (m Multi) Notify(kind Kind, title, message string) {
	for _, n := range m {
		if n != nil {
			n.Notify(kind, title, message)
		}
	}
}

// Log records notifications in the structured log.
type Log struct {
	Logger *slog.Logger
}

// Notify writes one record at a level matching kind.
func (l Log) Notify(kind Kind, title, message string) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Log(context.Background(), levelFor(kind), title, "kind", string(kind), "message", message)
}

func levelFor(kind Kind) slog.Level {
	switch kind {
	case KindError:
		return slog.LevelError
	case KindWarning:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// Desktop raises OS notifications for warnings and errors. Info and
// success notifications stay in the dashboard.
type Desktop struct {
	AppName string
	Logger  *slog.Logger
}

// Notify sends a desktop notification for warning and error kinds.
func (d Desktop) Notify(kind Kind, title, message string) {
	if kind != KindWarning && kind != KindError {
		return
	}
	name := strings.TrimSpace(d.AppName)
	if name == "" {
		name = "relay"
	}
	if err := beeep.Notify(name+": "+title, message, ""); err != nil && d.Logger != nil {
		d.Logger.Debug("desktop notification failed", "error", err)
	}
}
