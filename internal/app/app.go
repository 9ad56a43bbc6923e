package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/five82/relay/internal/botapi"
	"github.com/five82/relay/internal/clock"
	"github.com/five82/relay/internal/config"
	"github.com/five82/relay/internal/export"
	"github.com/five82/relay/internal/logfeed"
	"github.com/five82/relay/internal/logtail"
	"github.com/five82/relay/internal/notify"
	"github.com/five82/relay/internal/pairing"
	"github.com/five82/relay/internal/prefs"
	"github.com/five82/relay/internal/state"
	"github.com/five82/relay/internal/ui"
)

// ErrNoBot is returned when no bot was named and none is remembered.
var ErrNoBot = errors.New("no bot selected")

// Options configure the relay dashboard.
type Options struct {
	ConfigPath string
	PrefsPath  string       // empty uses default ~/.config/relay/prefs.toml
	Viper      *viper.Viper // env and flag overrides; nil applies none
	BotID      string       // empty reuses the last watched bot
	PollEvery  time.Duration
	// InitialPayload is shown as a pairing code as soon as the UI starts.
	InitialPayload string
}

// LoadConfig reads the config file and layers env and flag overrides on top.
func LoadConfig(path string, v *viper.Viper) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	cfg, err = config.ApplyOverrides(cfg, v)
	if err != nil {
		return config.Config{}, fmt.Errorf("apply overrides: %w", err)
	}
	return cfg, nil
}

// Sources bundles the log source with the bot API client. Client is nil
// unless the config points at the API.
type Sources struct {
	Logs   botapi.LogSource
	Client *botapi.Client
}

// NewSources builds the configured log source.
func NewSources(cfg config.Config, logger *slog.Logger) (Sources, error) {
	client, err := botapi.NewClient(cfg.APIBind, botapi.WithToken(cfg.APIToken), botapi.WithLogger(logger))
	if err != nil {
		return Sources{}, fmt.Errorf("init bot api client: %w", err)
	}
	if cfg.Source == config.SourceFile {
		return Sources{Logs: logtail.NewFileSource(cfg.LogDir, logger)}, nil
	}
	return Sources{Logs: client, Client: client}, nil
}

// NewNotifier fans notifications out to the log, the desktop when enabled,
// and any extra notifiers.
func NewNotifier(cfg config.Config, logger *slog.Logger, extra ...notify.Notifier) notify.Notifier {
	out := notify.Multi{notify.Log{Logger: logger}}
	if cfg.DesktopNotify {
		out = append(out, notify.Desktop{AppName: "relay", Logger: logger})
	}
	return append(out, extra...)
}

// Run boots the relay TUI until the context is cancelled or the user quits.
func Run(ctx context.Context, opts Options) error {
	cfg, err := LoadConfig(opts.ConfigPath, opts.Viper)
	if err != nil {
		return err
	}

	logger, closeLog, err := NewLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	userPrefs, _ := prefs.Load(prefsPath)

	botID := strings.TrimSpace(opts.BotID)
	if botID == "" {
		botID = userPrefs.LastBot
	}
	if botID == "" {
		return ErrNoBot
	}
	if botID != userPrefs.LastBot {
		userPrefs.LastBot = botID
		if err := prefs.Save(prefsPath, userPrefs); err != nil {
			logger.Warn("save prefs failed", "error", err)
		}
	}

	sources, err := NewSources(cfg, logger)
	if err != nil {
		return err
	}

	clk := clock.Real()
	toasts := ui.NewToasts(clk)
	notifier := NewNotifier(cfg, logger, toasts)
	saver := export.DirSaver{Dir: userPrefs.ResolveExportDir(cfg.ExportDir)}
	clipboard := export.SystemClipboard{}

	logs := logfeed.New(logfeed.Options{
		Source:        sources.Logs,
		Clock:         clk,
		Notifier:      notifier,
		Clipboard:     clipboard,
		Saver:         saver,
		Logger:        logger.With("component", "logfeed"),
		HistoryLimit:  cfg.HistoryLimit,
		PairingMarker: cfg.PairingMarker,
		ScanMarker:    cfg.ScanMarker,
	})
	session := pairing.NewSession(pairing.SessionOptions{
		Clock:     clk,
		Notifier:  notifier,
		Clipboard: clipboard,
		Saver:     saver,
		Logger:    logger.With("component", "pairing"),
	})

	var store *state.Store
	if sources.Client != nil {
		store = &state.Store{}
		store.Reset(botID)
		poller := &Poller{
			Store:    store,
			Fetcher:  sources.Client,
			BotID:    botID,
			Interval: opts.PollEvery,
			Clock:    clk,
			Logger:   logger.With("component", "poller"),
		}
		poller.Start(ctx)
	}

	logger.Info("relay starting", "bot", botID, "source", cfg.Source)
	return ui.Run(ui.Options{
		Context:        ctx,
		BotID:          botID,
		Logs:           logs,
		Session:        session,
		Store:          store,
		Toasts:         toasts,
		Clock:          clk,
		Logger:         logger,
		ThemeName:      userPrefs.Theme,
		PrefsPath:      prefsPath,
		InitialPayload: opts.InitialPayload,
	})
}
