// Package config loads relay's settings.
//
// # Configuration Discovery
//
// Load follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/relay/config.toml (default)
//  3. If the config file doesn't exist, fall back to hardcoded defaults
//  4. If the file exists but fields are missing/empty, use defaults
//
// ApplyOverrides then layers RELAY_* environment variables and bound CLI
// flags on top, through a viper instance built by NewViper. Flags win over
// the environment, which wins over the file.
//
// # Default Values
//
//   - Config file: ~/.config/relay/config.toml
//   - API endpoint: 127.0.0.1:8787
//   - Log source: api (the bot HTTP/WebSocket API); "file" reads
//     <log_dir>/<bot>.jsonl instead
//   - Log directory: ~/.local/share/relay/logs
//   - State directory: ~/.local/state/relay (relay.log lives here)
//   - Export directory: ~/Downloads
//   - Pairing marker: PAIR_MARKER:
//   - Scan marker: PAIR_CONFIRMED
//   - History limit: 50
//
// # Example
//
//	api_bind = "127.0.0.1:8787"
//	api_token = "…"
//	source = "api"
//	export_dir = "~/relay-exports"
//	history_limit = 50
//	desktop_notify = true
//
// # Path Expansion
//
// Paths starting with ~ are expanded to the user's home directory and made
// absolute. If expansion fails the original string is kept.
//
// # Error Handling
//
// A missing file is not an error. Read failures, malformed TOML and invalid
// values (an unknown source, a non-positive history limit) are returned
// wrapped with context such as "parse config: ...".
package config
