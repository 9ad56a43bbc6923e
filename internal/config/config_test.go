package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIBind != defaultAPIBind {
		t.Fatalf("APIBind = %q, want %q", cfg.APIBind, defaultAPIBind)
	}
	if cfg.Source != SourceAPI {
		t.Fatalf("Source = %q, want %q", cfg.Source, SourceAPI)
	}
	if cfg.HistoryLimit != 50 {
		t.Fatalf("HistoryLimit = %d, want 50", cfg.HistoryLimit)
	}
	if cfg.PairingMarker != "PAIR_MARKER:" || cfg.ScanMarker != "PAIR_CONFIRMED" {
		t.Fatalf("markers = %q/%q, want defaults", cfg.PairingMarker, cfg.ScanMarker)
	}

	wantLogDir, err := expandPath(defaultLogDir)
	if err != nil {
		t.Fatalf("expandPath(defaultLogDir) returned error: %v", err)
	}
	if cfg.LogDir != wantLogDir {
		t.Fatalf("LogDir = %q, want %q", cfg.LogDir, wantLogDir)
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`
api_bind = "  10.0.0.5:9999  "
api_token = " secret "
source = "file"
log_dir = "  ~/.relay/logs  "
export_dir = "~/exports"
pairing_marker = "QR:"
history_limit = 20
desktop_notify = true
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIBind != "10.0.0.5:9999" {
		t.Fatalf("APIBind = %q, want %q", cfg.APIBind, "10.0.0.5:9999")
	}
	if cfg.APIToken != "secret" {
		t.Fatalf("APIToken = %q, want secret", cfg.APIToken)
	}
	if cfg.Source != SourceFile {
		t.Fatalf("Source = %q, want file", cfg.Source)
	}
	if !strings.HasPrefix(cfg.LogDir, home) || !strings.HasPrefix(cfg.ExportDir, home) {
		t.Fatalf("dirs = %q, %q, want them under HOME %q", cfg.LogDir, cfg.ExportDir, home)
	}
	if cfg.PairingMarker != "QR:" || cfg.ScanMarker != defaultScanMarker {
		t.Fatalf("markers = %q/%q", cfg.PairingMarker, cfg.ScanMarker)
	}
	if cfg.HistoryLimit != 20 || !cfg.DesktopNotify {
		t.Fatalf("HistoryLimit = %d DesktopNotify = %v", cfg.HistoryLimit, cfg.DesktopNotify)
	}
}

func TestLoad_EmptyValuesUseDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`
api_bind = "   "
log_dir = ""
history_limit = 0
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIBind != defaultAPIBind {
		t.Fatalf("APIBind = %q, want %q", cfg.APIBind, defaultAPIBind)
	}
	if cfg.HistoryLimit != defaultHistoryLimit {
		t.Fatalf("HistoryLimit = %d, want %d", cfg.HistoryLimit, defaultHistoryLimit)
	}
	wantLogDir, err := expandPath(defaultLogDir)
	if err != nil {
		t.Fatalf("expandPath(defaultLogDir) returned error: %v", err)
	}
	if cfg.LogDir != wantLogDir {
		t.Fatalf("LogDir = %q, want %q", cfg.LogDir, wantLogDir)
	}
}

func TestLoad_InvalidTOMLFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`api_bind = [`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	_, err := Load(path)
	if err == nil {
		t.Fatalf("Load returned nil error, want parse error")
	}
	if !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("Load error = %q, want it to mention parse config", err.Error())
	}
}

func TestLoad_InvalidSourceFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`source = "grpc"`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "invalid source") {
		t.Fatalf("Load error = %v, want invalid source", err)
	}
}

func TestApplyOverrides_EnvAndFlags(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("RELAY_API_BIND", "192.168.1.10:9000")
	t.Setenv("RELAY_HISTORY_LIMIT", "75")

	v := NewViper()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String(KeySource, "", "")
	flags.String(KeyLogLevel, "", "")
	if err := v.BindPFlag(KeySource, flags.Lookup(KeySource)); err != nil {
		t.Fatalf("BindPFlag: %v", err)
	}
	if err := v.BindPFlag(KeyLogLevel, flags.Lookup(KeyLogLevel)); err != nil {
		t.Fatalf("BindPFlag: %v", err)
	}
	if err := flags.Parse([]string{"--source", "file"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	cfg, err := ApplyOverrides(Default(), v)
	if err != nil {
		t.Fatalf("ApplyOverrides returned error: %v", err)
	}
	if cfg.APIBind != "192.168.1.10:9000" {
		t.Fatalf("APIBind = %q, want env override", cfg.APIBind)
	}
	if cfg.HistoryLimit != 75 {
		t.Fatalf("HistoryLimit = %d, want 75", cfg.HistoryLimit)
	}
	if cfg.Source != SourceFile {
		t.Fatalf("Source = %q, want flag override", cfg.Source)
	}
	if cfg.LogLevel != defaultLogLevel {
		t.Fatalf("LogLevel = %q, want default when flag unchanged", cfg.LogLevel)
	}
}

func TestApplyOverrides_NilViper(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg := Default()
	got, err := ApplyOverrides(cfg, nil)
	if err != nil || got != cfg {
		t.Fatalf("ApplyOverrides(nil) = %#v, %v, want unchanged", got, err)
	}
}

func TestExpandPath_ExpandsTildeAndReturnsAbs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := expandPath("~/a/b")
	if err != nil {
		t.Fatalf("expandPath returned error: %v", err)
	}
	want := filepath.Join(home, "a/b")
	if got != want {
		t.Fatalf("expandPath = %q, want %q", got, want)
	}
}

func TestExpandPath_EmptyErrors(t *testing.T) {
	if _, err := expandPath("   "); err == nil {
		t.Fatalf("expandPath returned nil error, want error")
	}
}

func TestAppLogPath_DefaultsWhenStateDirEmpty(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	var cfg Config
	got := cfg.AppLogPath()
	if !strings.HasPrefix(got, home) {
		t.Fatalf("AppLogPath = %q, want it under HOME %q", got, home)
	}
	if !strings.HasSuffix(got, filepath.FromSlash("/relay.log")) {
		t.Fatalf("AppLogPath = %q, want it to end with /relay.log", got)
	}
}
