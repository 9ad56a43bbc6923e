package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/relay/internal/botapi"
	"github.com/five82/relay/internal/logfeed"
	"github.com/five82/relay/internal/notify"
)

const (
	logTimeLayout = "15:04:05"
	maxBotIDWidth = 24
)

// View renders the dashboard.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	body := m.viewport.View()
	if m.showPairing {
		body = lipgloss.Place(
			m.width,
			m.viewport.Height,
			lipgloss.Center,
			lipgloss.Center,
			m.renderPairing(),
			lipgloss.WithWhitespaceChars(" "),
			lipgloss.WithWhitespaceForeground(lipgloss.Color(m.theme.Background)),
		)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		body,
		m.renderToasts(),
		m.renderFooter(),
	)
}

// renderHeader renders the status bar.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	parts := []string{
		bg.Render("relay", styles.Logo),
		bg.Render(truncateMiddle(m.botID, maxBotIDWidth), styles.Text.Bold(true)),
		m.connectivityBadge(styles),
		bg.Render("Entries:", styles.MutedText) + bg.Space() +
			bg.Render(fmt.Sprintf("%d", m.logs.Len()), styles.Text),
	}
	if !m.follow {
		parts = append(parts, bg.Render("SCROLL", styles.WarningText))
	}
	if status := m.renderBotStatus(styles, bg); status != "" {
		parts = append(parts, status)
	}
	if err := m.logs.Err(); err != nil {
		hint := ""
		switch m.logs.Recovery() {
		case logfeed.RecoveryReload:
			hint = " (r to reload)"
		case logfeed.RecoveryResume:
			hint = " (space to resume)"
		}
		parts = append(parts, bg.Render(truncate(err.Error(), 60)+hint, styles.DangerText))
	} else if m.logs.EmptyAdvisory() {
		parts = append(parts, bg.Render("No entries yet", styles.WarningText))
	}

	return styles.Header.Width(m.width).MaxHeight(headerHeight).Render(truncate(bg.Join(parts, "  "), max(m.width-2, 1)))
}

func (m Model) connectivityBadge(styles Styles) string {
	state := m.logs.Connectivity().String()
	if m.logs.Paused() {
		state = "paused"
	}
	return styles.StateStyle(state).Render(strings.ToUpper(state))
}

// renderBotStatus summarises the polled bot status, if any.
func (m Model) renderBotStatus(styles Styles, bg BgStyle) string {
	if m.store == nil {
		return ""
	}
	snap := m.snapshot
	if snap.IsOffline() {
		return bg.Render("API "+classifyConnectionError(snap.LastError), styles.DangerText)
	}
	if !snap.HasStatus {
		return ""
	}
	status := snap.Status
	var parts []string
	if status.Running {
		parts = append(parts, bg.Render("● RUNNING", styles.SuccessText))
	} else {
		parts = append(parts, bg.Render("● STOPPED", styles.DangerText))
	}
	if status.Running && !status.Connected {
		parts = append(parts, bg.Render("not linked", styles.WarningText))
	}
	if status.PID > 0 {
		parts = append(parts, bg.Render("pid", styles.FaintText)+bg.Space()+
			bg.Render(fmt.Sprintf("%d", status.PID), styles.MutedText))
	}
	if mem := strings.TrimSpace(status.Memory); mem != "" {
		parts = append(parts, bg.Render("mem", styles.FaintText)+bg.Space()+bg.Render(mem, styles.MutedText))
	}
	if up := snap.Uptime(m.clock.Now()); up > 0 {
		parts = append(parts, bg.Render("up", styles.FaintText)+bg.Space()+
			bg.Render(humanizeDuration(up), styles.MutedText))
	}
	return bg.Join(parts, "  ")
}

// renderEntries formats the buffer for the log viewport, one entry per line.
func (m Model) renderEntries() string {
	entries := m.logs.Entries()
	if len(entries) == 0 {
		return m.theme.Styles().FaintText.Render("Waiting for log entries...")
	}
	styles := m.theme.Styles()
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, m.renderEntry(e, styles))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderEntry(e botapi.LogEntry, styles Styles) string {
	source := strings.TrimSpace(e.Source)
	if source == "" {
		source = "system"
	}
	level := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.LevelColor(string(e.Level)))).
		Width(8).
		Render(strings.ToUpper(string(e.Level)))
	line := styles.FaintText.Render("["+e.Timestamp.Local().Format(logTimeLayout)+"]") + " " +
		level +
		styles.AccentText.Render(source+":") + " " +
		styles.Text.Render(singleLine(e.Message))
	if m.width > 0 {
		line = truncate(line, m.width)
	}
	return line
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func (m Model) renderToasts() string {
	styles := m.theme.Styles()
	active := m.toasts.Active()
	if len(active) == 0 {
		return ""
	}
	latest := active[len(active)-1]
	style := styles.InfoText
	switch latest.Kind {
	case notify.KindSuccess:
		style = styles.SuccessText
	case notify.KindWarning:
		style = styles.WarningText
	case notify.KindError:
		style = styles.DangerText
	}
	text := latest.Title
	if latest.Message != "" {
		text += ": " + latest.Message
	}
	return truncate(style.Render(text), max(m.width, 1))
}

func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	return styles.Footer.Width(m.width).Render(m.help.View(m.keys))
}
