package pairing

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidState is returned when an operation is not allowed in the
	// session's current status.
	ErrInvalidState = errors.New("operation not valid in current pairing state")
	// ErrEmptyPayload is returned when encoding an empty payload.
	ErrEmptyPayload = errors.New("pairing payload is empty")
	// ErrNoExporter is returned when copy or save has no destination.
	ErrNoExporter = errors.New("export destination not configured")
)

// EncodeError reports that a payload could not be rendered.
type EncodeError struct {
	PayloadLen int
	Err        error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode pairing code (%d bytes): %v", e.PayloadLen, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// Recovery names the operator action that leaves a terminal state.
type Recovery string

const (
	RecoveryNone       Recovery = ""
	RecoveryRegenerate Recovery = "regenerate"
)
