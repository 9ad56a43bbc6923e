package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/relay/internal/app"
)

func newWatchCmd(opts *rootOptions) *cobra.Command {
	var poll time.Duration
	cmd := &cobra.Command{
		Use:   "watch [bot]",
		Short: "Open the log and pairing dashboard for a bot",
		Long:  "watch opens the dashboard for bot. Without an argument the last watched bot is reopened.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var botID string
			if len(args) == 1 {
				botID = args[0]
			}
			return app.Run(cmd.Context(), app.Options{
				ConfigPath: opts.configPath,
				PrefsPath:  opts.prefsPath,
				Viper:      opts.viper,
				BotID:      botID,
				PollEvery:  poll,
			})
		},
	}
	cmd.Flags().DurationVar(&poll, "poll", 0, "bot status refresh interval (default 2s)")
	return cmd
}
