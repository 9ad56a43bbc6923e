package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/relay/internal/pairing"
)

const qrQuietModules = 2

// qrStyle draws light modules as white blocks on black so the symbol scans
// regardless of the terminal palette.
var qrStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#FFFFFF")).
	Background(lipgloss.Color("#000000"))

// renderPairing renders the pairing dialog for the session's current state.
func (m Model) renderPairing() string {
	styles := m.theme.Styles()

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Pair device"))
	b.WriteString("\n\n")

	switch m.session.Status() {
	case pairing.Idle, pairing.Waiting:
		b.WriteString(styles.MutedText.Render("Waiting for the bot to publish a pairing code..."))
	case pairing.Generating:
		b.WriteString(styles.InfoText.Render("Generating code..."))
	case pairing.Generated:
		if img, ok := m.session.Image(); ok {
			b.WriteString(qrStyle.Render(strings.TrimRight(img.Terminal(qrQuietModules), "\n")))
			b.WriteString("\n\n")
		}
		countdown := "Expires in " + formatCountdown(m.session.Remaining())
		if m.session.ExpiringSoon() {
			b.WriteString(styles.WarningText.Bold(true).Render(countdown + " - scan now"))
		} else {
			b.WriteString(styles.MutedText.Render(countdown))
		}
	case pairing.Scanned:
		b.WriteString(styles.SuccessText.Render("Device paired"))
	case pairing.Expired:
		b.WriteString(styles.WarningText.Render("Code expired. Press g for a new one."))
	case pairing.Error:
		msg := "Could not render the code."
		if err := m.session.Err(); err != nil {
			msg = err.Error()
		}
		b.WriteString(styles.DangerText.Render(truncate(msg, 60)))
		b.WriteString("\n")
		b.WriteString(styles.MutedText.Render("Press g to retry."))
	}

	b.WriteString("\n\n")
	b.WriteString(m.help.View(pairingKeys(m.keys)))
	return styles.Modal.Render(b.String())
}
