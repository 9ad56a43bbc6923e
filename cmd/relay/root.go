package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/five82/relay/internal/app"
	"github.com/five82/relay/internal/botapi"
	"github.com/five82/relay/internal/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// rootOptions carries the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	prefsPath  string
	viper      *viper.Viper
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{viper: config.NewViper()}

	root := &cobra.Command{
		Use:           "relay",
		Short:         "Watch bot logs and pair devices from the terminal",
		Long:          "relay follows a messaging bot's diagnostic log, surfaces the pairing codes it publishes, and renders them as QR codes to scan.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default ~/.config/relay/config.toml)")
	flags.StringVar(&opts.prefsPath, "prefs", "", "prefs file (default ~/.config/relay/prefs.toml)")
	flags.String("api-bind", "", "bot API address (host:port or URL)")
	flags.String("api-token", "", "bearer token for the bot API")
	flags.String("source", "", "log source: api or file")
	flags.String("log-dir", "", "directory of <bot>.jsonl files for the file source")
	flags.String("log-level", "", "app log level: debug, info, warn, error")
	bindFlags(opts.viper, flags, map[string]string{
		config.KeyAPIBind:  "api-bind",
		config.KeyAPIToken: "api-token",
		config.KeySource:   "source",
		config.KeyLogDir:   "log-dir",
		config.KeyLogLevel: "log-level",
	})

	root.AddCommand(
		newWatchCmd(opts),
		newStartCmd(opts),
		newStopCmd(opts),
		newLogsCmd(opts),
		newQRCmd(opts),
		newVersionCmd(),
	)
	return root
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		// Only fails for a nil flag, which would be a programming error.
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}
}

func (o *rootOptions) loadConfig() (config.Config, error) {
	return app.LoadConfig(o.configPath, o.viper)
}

// apiClient builds a bot API client logging to the command's stderr.
func (o *rootOptions) apiClient(cmd *cobra.Command) (*botapi.Client, config.Config, *slog.Logger, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, config.Config{}, nil, err
	}
	logger := app.NewConsoleLogger(cfg, cmd.ErrOrStderr())
	client, err := botapi.NewClient(cfg.APIBind, botapi.WithToken(cfg.APIToken), botapi.WithLogger(logger))
	if err != nil {
		return nil, config.Config{}, nil, err
	}
	return client, cfg, logger, nil
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := io.WriteString(cmd.OutOrStdout(), "relay "+version+"\n")
			return err
		},
	}
}
