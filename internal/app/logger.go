package app

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/five82/relay/internal/config"
)

// NewLogger opens relay's own JSON log under the state dir. The TUI owns
// the terminal, so nothing is written to stderr. The returned func closes
// the file.
func NewLogger(cfg config.Config) (*slog.Logger, func() error, error) {
	path := cfg.AppLogPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create state dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open app log: %w", err)
	}
	handler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: ParseLogLevel(cfg.LogLevel)})
	return slog.New(handler), file.Close, nil
}

// NewConsoleLogger writes human-readable records to w, for CLI commands
// that do not take over the terminal.
func NewConsoleLogger(cfg config.Config, w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLogLevel(cfg.LogLevel)}))
}

// ParseLogLevel maps a config level name to a slog level, Info when unknown.
func ParseLogLevel(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
