package logfeed

import (
	"strings"
	"unicode"
)

// Default marker literals in bot log messages.
const (
	DefaultPairingMarker = "PAIR_MARKER:"
	DefaultScanMarker    = "PAIR_CONFIRMED"
)

// Marker recognises a fixed literal inside log messages.
type Marker struct {
	literal string
}

// NewMarker returns a Marker for literal. An empty literal never matches.
func NewMarker(literal string) Marker {
	return Marker{literal: literal}
}

// Literal returns the marker text.
func (m Marker) Literal() string { return m.literal }

// Match reports whether message contains the marker.
func (m Marker) Match(message string) bool {
	return m.literal != "" && strings.Contains(message, m.literal)
}

// Extract returns the token that immediately follows the first occurrence
// of the marker, up to the next whitespace. Tokens may contain any other
// character, commas and '@' included.
func (m Marker) Extract(message string) (string, bool) {
	if m.literal == "" {
		return "", false
	}
	_, rest, ok := strings.Cut(message, m.literal)
	if !ok {
		return "", false
	}
	if end := strings.IndexFunc(rest, unicode.IsSpace); end >= 0 {
		rest = rest[:end]
	}
	if rest == "" {
		return "", false
	}
	return rest, true
}
