package botapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const botTimestampLayout = "2006-01-02 15:04:05"

// Level is the severity of a log entry.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarn    Level = "warn"
	LevelError   Level = "error"
	LevelSuccess Level = "success"
)

// ParseLevel maps wire spellings onto the four known levels. Anything
// unrecognised is treated as info.
func ParseLevel(value string) Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "warn", "warning":
		return LevelWarn
	case "error", "err", "fatal":
		return LevelError
	case "success", "ok":
		return LevelSuccess
	default:
		return LevelInfo
	}
}

// Well-known metadata keys.
const (
	MetaProcessID = "processId"
	MetaMemory    = "memory"
	MetaSessionID = "sessionId"
)

// LogEntry is one diagnostic record emitted by a bot. Entries are never
// mutated once they enter a buffer.
type LogEntry struct {
	ID        string
	Timestamp time.Time
	Level     Level
	Message   string
	Source    string
	BotID     string
	Metadata  map[string]any
}

type logEntryWire struct {
	ID        string          `json:"id"`
	Timestamp json.RawMessage `json:"timestamp"`
	Level     string          `json:"level"`
	Message   string          `json:"message"`
	Source    string          `json:"source,omitempty"`
	BotID     string          `json:"botId"`
	Metadata  map[string]any  `json:"metadata,omitempty"`
}

// UnmarshalJSON accepts RFC3339 strings, the bot's local timestamp layout,
// or epoch milliseconds for the timestamp field.
func (e *LogEntry) UnmarshalJSON(data []byte) error {
	var wire logEntryWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	ts, err := parseWireTime(wire.Timestamp)
	if err != nil {
		return fmt.Errorf("entry %q: %w", wire.ID, err)
	}
	*e = LogEntry{
		ID:        strings.TrimSpace(wire.ID),
		Timestamp: ts,
		Level:     ParseLevel(wire.Level),
		Message:   wire.Message,
		Source:    strings.TrimSpace(wire.Source),
		BotID:     wire.BotID,
		Metadata:  wire.Metadata,
	}
	return nil
}

// MarshalJSON writes the timestamp as RFC3339Nano.
func (e LogEntry) MarshalJSON() ([]byte, error) {
	ts, err := json.Marshal(e.Timestamp.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return nil, err
	}
	return json.Marshal(logEntryWire{
		ID:        e.ID,
		Timestamp: ts,
		Level:     string(e.Level),
		Message:   e.Message,
		Source:    e.Source,
		BotID:     e.BotID,
		Metadata:  e.Metadata,
	})
}

// ProcessID returns the processId metadata value, if present.
func (e LogEntry) ProcessID() (string, bool) { return e.metaString(MetaProcessID) }

// Memory returns the memory metadata value, if present.
func (e LogEntry) Memory() (string, bool) { return e.metaString(MetaMemory) }

// SessionID returns the sessionId metadata value, if present.
func (e LogEntry) SessionID() (string, bool) { return e.metaString(MetaSessionID) }

func (e LogEntry) metaString(key string) (string, bool) {
	v, ok := e.Metadata[key]
	if !ok || v == nil {
		return "", false
	}
	switch val := v.(type) {
	case string:
		return val, true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	default:
		return fmt.Sprint(val), true
	}
}

// LogHistoryResponse mirrors GET /api/bots/{id}/logs.
type LogHistoryResponse struct {
	Entries []LogEntry `json:"entries"`
}

// BotStatus mirrors GET /api/bots/{id}/status.
type BotStatus struct {
	BotID     string `json:"botId"`
	Running   bool   `json:"running"`
	Connected bool   `json:"connected"`
	PID       int    `json:"pid"`
	Memory    string `json:"memory"`
	StartedAt string `json:"startedAt"`
	Platform  string `json:"platform"`
}

// ParsedStartedAt returns StartedAt as time.Time, zero when absent.
func (s BotStatus) ParsedStartedAt() time.Time {
	return parseTime(s.StartedAt)
}

// BotSpec describes how a bot should be started.
type BotSpec struct {
	Name     string            `json:"name" yaml:"name"`
	Platform string            `json:"platform" yaml:"platform"`
	Phone    string            `json:"phone,omitempty" yaml:"phone"`
	Session  string            `json:"session,omitempty" yaml:"session"`
	Options  map[string]string `json:"options,omitempty" yaml:"options"`
}

// StartResult mirrors the start/stop endpoints.
type StartResult struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	Data    *StartData `json:"data,omitempty"`
}

// StartData carries optional extras from a start call.
type StartData struct {
	PairingCode string `json:"pairingCode,omitempty"`
	SessionID   string `json:"sessionId,omitempty"`
}

// PairingPayload returns the initial pairing payload, if the bot sent one.
func (r StartResult) PairingPayload() (string, bool) {
	if r.Data == nil {
		return "", false
	}
	code := strings.TrimSpace(r.Data.PairingCode)
	return code, code != ""
}

func parseWireTime(raw json.RawMessage) (time.Time, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}, fmt.Errorf("missing timestamp")
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return time.Time{}, err
		}
		if t := parseTime(s); !t.IsZero() {
			return t, nil
		}
		return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
	}
	ms, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognised timestamp %s", raw)
	}
	return time.UnixMilli(ms).UTC(), nil
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	if t, err := time.ParseInLocation(botTimestampLayout, value, time.Local); err == nil {
		return t
	}
	return time.Time{}
}
