package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the dashboard.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Escape     key.Binding

	// Log feed
	TogglePause  key.Binding
	Reload       key.Binding
	Clear        key.Binding
	CopyLogs     key.Binding
	SaveLogs     key.Binding
	ToggleFollow key.Binding

	// Pairing
	Pairing     key.Binding
	Regenerate  key.Binding
	CopyPayload key.Binding
	SaveImage   key.Binding

	// Navigation
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Top      key.Binding
	Bottom   key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Close dialog"),
		),

		TogglePause: key.NewBinding(
			key.WithKeys(" ", "space"),
			key.WithHelp("space", "Pause/resume"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Reload history"),
		),
		Clear: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "Clear"),
		),
		CopyLogs: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "Copy logs"),
		),
		SaveLogs: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "Save logs"),
		),
		ToggleFollow: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "Toggle follow"),
		),

		Pairing: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "Pairing code"),
		),
		Regenerate: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "Regenerate code"),
		),
		CopyPayload: key.NewBinding(
			key.WithKeys("Y"),
			key.WithHelp("Y", "Copy payload"),
		),
		SaveImage: key.NewBinding(
			key.WithKeys("S"),
			key.WithHelp("S", "Save PNG"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Scroll down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+u"),
			key.WithHelp("pgup", "Page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+d"),
			key.WithHelp("pgdown", "Page down"),
		),
		Top: key.NewBinding(
			key.WithKeys("home"),
			key.WithHelp("home", "Oldest entry"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Newest entry"),
		),
	}
}

// ShortHelp returns key bindings for the footer.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.TogglePause, k.Reload, k.CopyLogs, k.SaveLogs, k.Pairing, k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.TogglePause, k.Reload, k.Clear, k.CopyLogs, k.SaveLogs, k.ToggleFollow},
		{k.Pairing, k.Regenerate, k.CopyPayload, k.SaveImage},
		{k.Up, k.Down, k.PageUp, k.PageDown, k.Top, k.Bottom},
		{k.CycleTheme, k.Help, k.Escape, k.Quit},
	}
}

// pairingKeys is the short help shown inside the pairing dialog.
type pairingKeys keyMap

func (k pairingKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.CopyPayload, k.SaveImage, k.Regenerate, k.Escape}
}

func (k pairingKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
