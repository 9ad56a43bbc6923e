package ui

import (
	"errors"
	"testing"
	"time"
)

func TestHumanizeDuration(t *testing.T) {
	cases := []struct {
		name string
		in   int64 // seconds
		want string
	}{
		{"negative", -5, "now"},
		{"subsecond", 0, "now"},
		{"seconds", 12, "12s"},
		{"minutes", 61, "1m"},
		{"hours_only", 2*60*60 + 10, "2h"},
		{"hours_minutes", 2*60*60 + 3*60, "2h 3m"},
		{"days", 24 * 60 * 60, "1d"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := humanizeDuration(timeSeconds(tc.in))
			if got != tc.want {
				t.Fatalf("humanizeDuration(%d) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestTruncateMiddle(t *testing.T) {
	if got := truncateMiddle("  ", 10); got != "" {
		t.Fatalf("truncateMiddle blank = %q, want empty", got)
	}
	if got := truncateMiddle("abcd", 2); got != "ab" {
		t.Fatalf("truncateMiddle limit<=3 = %q, want ab", got)
	}
	got := truncateMiddle("a/b/c/d/e", 7)
	if got == "a/b/c/d/e" {
		t.Fatalf("expected truncation")
	}
	if len([]rune(got)) > 7 {
		t.Fatalf("got %q (%d runes), want <=7", got, len([]rune(got)))
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("hello", 10); got != "hello" {
		t.Fatalf("truncate short = %q, want hello", got)
	}
	if got := truncate("hello world", 6); got != "hello…" {
		t.Fatalf("truncate = %q, want %q", got, "hello…")
	}
}

func TestFormatCountdown(t *testing.T) {
	cases := map[int]string{120: "2:00", 61: "1:01", 9: "0:09", -1: "0:00"}
	for in, want := range cases {
		if got := formatCountdown(in); got != want {
			t.Fatalf("formatCountdown(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestClassifyConnectionError(t *testing.T) {
	if got := classifyConnectionError(nil); got != "" {
		t.Fatalf("classifyConnectionError(nil) = %q, want empty", got)
	}
	if got := classifyConnectionError(errors.New("dial tcp: connection refused")); got != "OFFLINE" {
		t.Fatalf("classifyConnectionError = %q, want OFFLINE", got)
	}
	if got := classifyConnectionError(errors.New("boom")); got != "ERROR" {
		t.Fatalf("classifyConnectionError = %q, want ERROR", got)
	}
}

func timeSeconds(sec int64) time.Duration {
	return time.Duration(sec) * time.Second
}
