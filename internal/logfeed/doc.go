// Package logfeed merges a bot's historical and live log entries into one
// bounded, deduplicated, time-ordered view.
//
// # Buffer
//
// Buffer keeps at most 100 entries sorted by timestamp. Inserts are
// deduplicated by entry id; the merge step runs on every insert, so the
// buffer stays sorted even when the network reorders pushes. When the
// buffer overflows, the earliest entry is evicted.
//
// # Controller
//
// Controller owns a single live subscription and the buffer. It follows the
// bubbletea model: operations that wait on the network return a tea.Cmd,
// and the resulting messages come back through Update. Every message
// carries the sequence number of the request that produced it, and Update
// drops anything from a superseded request. A stale subscription is
// released as soon as it arrives.
//
// Connectivity moves Idle → Connecting → Connected, drops to Disconnected
// on Pause or feed failure, and returns to Connecting on Resume. There is
// no automatic reconnect: a lost feed stays lost until the operator
// resumes, and a failed history fetch stays failed until they reload.
//
// # Pairing Markers
//
// A retained entry whose message contains the pairing marker (default
// "PAIR_MARKER:") produces a PairingDetectedMsg carrying the token that
// follows it, up to the next whitespace. Each entry id emits at most once,
// and a history batch emits only its newest token. An entry containing the
// scan marker (default "PAIR_CONFIRMED") produces a ScanConfirmedMsg. The
// controller never consumes these messages itself.
//
// # Export
//
// Export renders the buffer as "[HH:MM:SS] LEVEL SOURCE: MESSAGE" lines,
// oldest first, and either copies the text to the clipboard or saves it as
// <bot>-logs-<YYYYMMDD-HHMMSS>.txt.
package logfeed
