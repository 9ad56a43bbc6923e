package logfeed

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarkerExtract(t *testing.T) {
	m := NewMarker(DefaultPairingMarker)
	tests := []struct {
		name    string
		message string
		token   string
		ok      bool
	}{
		{"bare", "PAIR_MARKER:token123", "token123", true},
		{"embedded", "session ready PAIR_MARKER:abc.def rest", "abc.def", true},
		{"commas kept", "PAIR_MARKER:2@Xy,Zw==,ab\tnext", "2@Xy,Zw==,ab", true},
		{"stops at newline", "PAIR_MARKER:tok\nsecond line", "tok", true},
		{"first occurrence wins", "PAIR_MARKER:one PAIR_MARKER:two", "one", true},
		{"empty token", "PAIR_MARKER: nothing", "", false},
		{"no marker", "pairing code ready", "", false},
		{"case sensitive", "pair_marker:tok", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, ok := m.Extract(tt.message)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.token, token)
		})
	}
}

func TestMarkerEmptyLiteralNeverMatches(t *testing.T) {
	m := NewMarker("")
	_, ok := m.Extract("anything")
	assert.False(t, ok)
	assert.False(t, m.Match("anything"))
}

func TestScanMarkerMatch(t *testing.T) {
	m := NewMarker(DefaultScanMarker)
	assert.True(t, m.Match("device linked PAIR_CONFIRMED"))
	assert.False(t, m.Match("waiting for scan"))
}
