package logfeed

import (
	"errors"
	"fmt"
)

var (
	// ErrNotOpen is returned by operations that need a bot selected.
	ErrNotOpen = errors.New("log feed not open")
	// ErrNothingToExport is returned when exporting an empty buffer.
	ErrNothingToExport = errors.New("no log entries to export")
	// ErrNoExporter is returned when the export destination is not configured.
	ErrNoExporter = errors.New("export destination not configured")
)

// Recovery names the operator action that clears a failure.
type Recovery string

const (
	RecoveryNone   Recovery = ""
	RecoveryReload Recovery = "reload"
	RecoveryResume Recovery = "resume"
)

// ConnectionError reports a failed history fetch or live feed.
type ConnectionError struct {
	Op    string
	BotID string
	Err   error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.BotID, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// Recovery returns the action that retries the failed operation.
func (e *ConnectionError) Recovery() Recovery {
	if e.Op == opHistory {
		return RecoveryReload
	}
	return RecoveryResume
}

const (
	opHistory  = "fetch history"
	opOpenFeed = "open live feed"
	opFeed     = "live feed"
)
