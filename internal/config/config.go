package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

// Source selects where bot logs are read from.
const (
	SourceAPI  = "api"
	SourceFile = "file"
)

// Config holds relay's settings.
type Config struct {
	APIBind       string
	APIToken      string
	Source        string
	LogDir        string
	StateDir      string
	ExportDir     string
	PairingMarker string
	ScanMarker    string
	HistoryLimit  int
	LogLevel      string
	DesktopNotify bool
}

const (
	defaultConfigPath    = "~/.config/relay/config.toml"
	defaultAPIBind       = "127.0.0.1:8787"
	defaultLogDir        = "~/.local/share/relay/logs"
	defaultStateDir      = "~/.local/state/relay"
	defaultExportDir     = "~/Downloads"
	defaultPairingMarker = "PAIR_MARKER:"
	defaultScanMarker    = "PAIR_CONFIRMED"
	defaultHistoryLimit  = 50
	defaultLogLevel      = "info"
)

// Keys shared by the TOML file, RELAY_* environment variables and CLI flags.
const (
	KeyAPIBind       = "api_bind"
	KeyAPIToken      = "api_token"
	KeySource        = "source"
	KeyLogDir        = "log_dir"
	KeyStateDir      = "state_dir"
	KeyExportDir     = "export_dir"
	KeyPairingMarker = "pairing_marker"
	KeyScanMarker    = "scan_marker"
	KeyHistoryLimit  = "history_limit"
	KeyLogLevel      = "log_level"
	KeyDesktopNotify = "desktop_notify"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIBind:       defaultAPIBind,
		Source:        SourceAPI,
		LogDir:        mustExpand(defaultLogDir),
		StateDir:      mustExpand(defaultStateDir),
		ExportDir:     mustExpand(defaultExportDir),
		PairingMarker: defaultPairingMarker,
		ScanMarker:    defaultScanMarker,
		HistoryLimit:  defaultHistoryLimit,
		LogLevel:      defaultLogLevel,
	}
}

// Load locates and parses the relay config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIBind       string `toml:"api_bind"`
		APIToken      string `toml:"api_token"`
		Source        string `toml:"source"`
		LogDir        string `toml:"log_dir"`
		StateDir      string `toml:"state_dir"`
		ExportDir     string `toml:"export_dir"`
		PairingMarker string `toml:"pairing_marker"`
		ScanMarker    string `toml:"scan_marker"`
		HistoryLimit  int    `toml:"history_limit"`
		LogLevel      string `toml:"log_level"`
		DesktopNotify bool   `toml:"desktop_notify"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg.APIBind = orDefault(raw.APIBind, cfg.APIBind)
	cfg.APIToken = strings.TrimSpace(raw.APIToken)
	cfg.Source = orDefault(raw.Source, cfg.Source)
	cfg.LogDir = mustExpand(orDefault(raw.LogDir, defaultLogDir))
	cfg.StateDir = mustExpand(orDefault(raw.StateDir, defaultStateDir))
	cfg.ExportDir = mustExpand(orDefault(raw.ExportDir, defaultExportDir))
	cfg.PairingMarker = orDefault(raw.PairingMarker, cfg.PairingMarker)
	cfg.ScanMarker = orDefault(raw.ScanMarker, cfg.ScanMarker)
	if raw.HistoryLimit > 0 {
		cfg.HistoryLimit = raw.HistoryLimit
	}
	cfg.LogLevel = orDefault(raw.LogLevel, cfg.LogLevel)
	cfg.DesktopNotify = raw.DesktopNotify

	return cfg, cfg.Validate()
}

// ApplyOverrides layers values set in v over cfg. v is expected to carry
// RELAY_* environment bindings and any CLI flags bound to the Key
// constants; unset keys leave cfg untouched.
func ApplyOverrides(cfg Config, v *viper.Viper) (Config, error) {
	if v == nil {
		return cfg, nil
	}
	str := func(key string, dst *string) {
		if v.IsSet(key) {
			if s := strings.TrimSpace(v.GetString(key)); s != "" {
				*dst = s
			}
		}
	}
	str(KeyAPIBind, &cfg.APIBind)
	str(KeyAPIToken, &cfg.APIToken)
	str(KeySource, &cfg.Source)
	str(KeyLogDir, &cfg.LogDir)
	str(KeyStateDir, &cfg.StateDir)
	str(KeyExportDir, &cfg.ExportDir)
	str(KeyPairingMarker, &cfg.PairingMarker)
	str(KeyScanMarker, &cfg.ScanMarker)
	str(KeyLogLevel, &cfg.LogLevel)
	if v.IsSet(KeyHistoryLimit) {
		if n := v.GetInt(KeyHistoryLimit); n > 0 {
			cfg.HistoryLimit = n
		}
	}
	if v.IsSet(KeyDesktopNotify) {
		cfg.DesktopNotify = v.GetBool(KeyDesktopNotify)
	}
	cfg.LogDir = mustExpand(cfg.LogDir)
	cfg.StateDir = mustExpand(cfg.StateDir)
	cfg.ExportDir = mustExpand(cfg.ExportDir)
	return cfg, cfg.Validate()
}

// NewViper returns a viper instance bound to RELAY_* environment variables.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("RELAY")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// Validate reports settings relay cannot run with.
func (c Config) Validate() error {
	switch c.Source {
	case SourceAPI, SourceFile:
	default:
		return fmt.Errorf("invalid source %q: want %q or %q", c.Source, SourceAPI, SourceFile)
	}
	if c.HistoryLimit <= 0 {
		return fmt.Errorf("history_limit must be positive, got %d", c.HistoryLimit)
	}
	return nil
}

// AppLogPath returns where relay writes its own structured log.
func (c Config) AppLogPath() string {
	if strings.TrimSpace(c.StateDir) == "" {
		return mustExpand(defaultStateDir + "/relay.log")
	}
	return filepath.Join(c.StateDir, "relay.log")
}

func orDefault(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
