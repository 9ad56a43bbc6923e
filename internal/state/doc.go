// Package state shares polled bot status between the background poller and
// the UI.
//
// The poller is the only writer; the UI reads copies through Snapshot on
// every render. A failed poll keeps the last good status and records the
// error, and two consecutive failures mark the bot API as offline. The
// store holds display data only: log entries and pairing state live with
// their controllers.
package state
