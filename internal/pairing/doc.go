// Package pairing drives the QR pairing handshake for a bot session.
//
// A Session moves through Idle, Waiting, Generating, Generated, Scanned,
// Expired and Error. SetPayload starts an encode in a tea.Cmd; the
// resulting EncodedMsg is applied only if its generation still matches the
// session's, so a payload that was superseded or a session that was closed
// never shows a stale code. Once generated, a code is valid for 120
// seconds. The countdown is driven by TickMsg commands on the injected
// clock and ends in Expired; a scan confirmation ends it in Scanned. Encode
// failures and expiry both require an explicit Regenerate. Nothing retries
// on its own.
//
// QREncoder renders payloads with error correction level H, fixed module
// size and margin, so the PNG for a payload is always identical. Image
// also renders as half-block text for terminals.
package pairing
