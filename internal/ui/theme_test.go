package ui

import "testing"

func TestThemeNames(t *testing.T) {
	names := ThemeNames()
	if len(names) != 2 {
		t.Fatalf("ThemeNames() returned %d names, want 2", len(names))
	}
	if names[0] != "Dracula" || names[1] != "Slate" {
		t.Fatalf("ThemeNames() = %v, want [Dracula Slate]", names)
	}
}

func TestNextTheme(t *testing.T) {
	if got := NextTheme("Dracula"); got != "Slate" {
		t.Fatalf("NextTheme(Dracula) = %q, want Slate", got)
	}
	if got := NextTheme("Slate"); got != "Dracula" {
		t.Fatalf("NextTheme(Slate) = %q, want Dracula", got)
	}
	if got := NextTheme("Unknown"); got != "Dracula" {
		t.Fatalf("NextTheme(Unknown) = %q, want Dracula", got)
	}
}

func TestGetTheme(t *testing.T) {
	if got := GetTheme("Slate").Name; got != "Slate" {
		t.Fatalf("GetTheme(Slate).Name = %q, want Slate", got)
	}
	if got := GetTheme("Unknown").Name; got != "Dracula" {
		t.Fatalf("GetTheme(Unknown).Name = %q, want Dracula (fallback)", got)
	}
}

func TestLevelColor(t *testing.T) {
	th := GetTheme("Dracula")
	if got := th.LevelColor(" WARN "); got != th.LevelColors["warn"] {
		t.Fatalf("LevelColor(WARN) = %q, want %q", got, th.LevelColors["warn"])
	}
	if got := th.LevelColor("trace"); got != th.Muted {
		t.Fatalf("LevelColor(trace) = %q, want %q", got, th.Muted)
	}
}

func TestEveryThemeColorsEveryState(t *testing.T) {
	states := []string{
		"idle", "connecting", "connected", "disconnected", "paused",
		"waiting", "generating", "generated", "scanned", "expired", "error",
	}
	for _, name := range ThemeNames() {
		th := GetTheme(name)
		for _, state := range states {
			if th.StateColors[state] == "" {
				t.Fatalf("theme %s has no color for state %q", name, state)
			}
		}
		for _, level := range []string{"info", "warn", "error", "success"} {
			if th.LevelColors[level] == "" {
				t.Fatalf("theme %s has no color for level %q", name, level)
			}
		}
	}
}
