// Package botapi provides the client side of the bot control API.
//
// # Overview
//
// A bot process exposes a small HTTP API for lifecycle control and log
// access, plus a WebSocket stream that pushes log entries as they are
// written. This package wraps both behind two interfaces:
//
//   - LogSource: FetchHistory (bounded, most recent entries) and
//     OpenLiveFeed (push-based subscription)
//   - BotController: FetchStatus, StartBot, StopBot
//
// Client implements both. The logtail package provides a second LogSource
// backed by JSONL files on disk.
//
// # API Endpoints
//
//   - GET  /api/bots/{id}/logs?limit=N   history, {"entries": [...]}
//   - GET  /api/bots/{id}/status         runtime status
//   - POST /api/bots/{id}/start          body is a BotSpec
//   - POST /api/bots/{id}/stop
//   - WS   /api/bots/{id}/logs/stream    one JSON LogEntry per text frame
//
// # Subscriptions
//
// OpenLiveFeed returns a Subscription. The callback runs on a single reader
// goroutine, so entries are delivered in arrival order. Release closes the
// socket and may be called any number of times. When the connection drops,
// Done is closed and Err reports why; callers treat that as a lost feed and
// decide for themselves whether to reopen.
//
// The client pings every 30 seconds and expects traffic or a pong within
// 60 seconds, otherwise the read fails and the subscription ends.
//
// # Entry Normalization
//
// Timestamps arrive as RFC3339 strings, the bot's local "2006-01-02
// 15:04:05" layout, or epoch milliseconds. Entries without an id receive a
// deterministic one derived from their content, which keeps deduplication
// working when the same record shows up in both history and the live feed.
// Malformed entries are logged and skipped rather than failing the batch.
//
// # Error Handling
//
// Errors are wrapped with fmt.Errorf using the same vocabulary for every
// call:
//   - "execute request: dial tcp: connection refused"
//   - "api /api/bots/alpha/status returned status 500"
//   - "decode response: unexpected end of JSON input"
//   - "open live feed: ..." and "read live feed: ..."
package botapi
