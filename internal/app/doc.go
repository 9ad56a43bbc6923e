// Package app provides the orchestration layer for relay.
//
// # Overview
//
// This package wires together configuration, logging, the log source, the
// bot status poller and the UI. It is the composition root: every
// dependency is built here and handed down explicitly.
//
// # Architecture
//
//  1. Load ~/.config/relay/config.toml and apply RELAY_* / flag overrides
//  2. Open the JSON app log under state_dir (the TUI owns the terminal)
//  3. Pick the log source: the bot API (HTTP + WebSocket) or local files
//  4. Build the notifier fan-out: app log, desktop (optional), UI toasts
//  5. Build the log feed controller and the pairing session
//  6. Start the status poller when the bot API is available
//  7. Run the TUI and block until the user quits or the context ends
//
// # Components
//
//   - app.go: Run plus the constructors shared with the CLI
//   - logger.go: slog setup for the app log and console commands
//   - poller.go: background status polling with exponential backoff
//
// # Polling Behavior
//
// The poller fetches GET /api/bots/{id}/status every two seconds by
// default. Consecutive failures double the wait up to 30 seconds; the
// first success resets it. Polling feeds the header only. The live log
// feed never reconnects on its own.
//
// # Error Handling
//
// Fatal errors (returned from Run): invalid config, an unwritable state
// dir, no bot selected, or a UI failure. Poll failures are logged and
// shown in the header.
//
// # Usage Example
//
//	err := app.Run(ctx, app.Options{BotID: "support-bot"})
package app
