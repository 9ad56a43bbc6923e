// Package ui provides the relay terminal dashboard.
//
// # Architecture Overview
//
// The dashboard is a single bubbletea Model. Its Update loop is the only
// place the log feed controller (logfeed.Controller) and the pairing
// session (pairing.Session) are touched: controller commands run in
// bubbletea's goroutines and come back as messages, which Update routes to
// the owning controller.
//
// # Package Structure
//
//   - model.go: Options, Model, message routing and key handling
//   - view.go: header, log viewport, toast line and footer
//   - pairing_view.go: the pairing dialog with the QR code and countdown
//   - toast.go: Toasts, an in-app notify.Notifier
//   - keys.go / help.go: key bindings and the help overlay
//   - theme.go / style_helpers.go: themes, styles and background helpers
//   - ui.go: Run, which owns the tea.Program
//
// # Glue
//
// The log feed reports pairing payloads as logfeed.PairingDetectedMsg and
// scan confirmations as logfeed.ScanConfirmedMsg. The model forwards the
// first to Session.SetPayload (opening the pairing dialog) and the second
// to Session.ConfirmScan. Messages for a bot other than the one currently
// open are ignored.
//
// # Key Bindings
//
//   - Space: Pause or resume the live feed
//   - r: Reload history (replaces the buffer)
//   - c: Clear the local buffer
//   - y / s: Copy logs to the clipboard / save them to the export dir
//   - f, G, home: Follow mode, newest, oldest
//   - p: Open the pairing dialog; esc or q closes it
//   - g / Y / S: Regenerate, copy payload, save PNG (pairing dialog)
//   - T: Cycle theme (persisted to prefs)
//   - ?: Help
//   - q or Ctrl+C: Quit
//
// # Usage Example
//
//	err := ui.Run(ui.Options{
//		Context: ctx,
//		BotID:   "support-bot",
//		Logs:    logs,
//		Session: session,
//		Store:   store,
//		Toasts:  toasts,
//	})
package ui
