package main

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/relay/internal/app"
	"github.com/five82/relay/internal/botapi"
	"github.com/five82/relay/internal/export"
	"github.com/five82/relay/internal/logfeed"
)

func newLogsCmd(opts *rootOptions) *cobra.Command {
	var (
		limit  int
		output string
		save   bool
	)
	cmd := &cobra.Command{
		Use:   "logs <bot>",
		Short: "Print a bot's recent log entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			botID := args[0]
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			logger := app.NewConsoleLogger(cfg, cmd.ErrOrStderr())
			sources, err := app.NewSources(cfg, logger)
			if err != nil {
				return err
			}
			if limit <= 0 {
				limit = cfg.HistoryLimit
			}

			entries, err := sources.Logs.FetchHistory(cmd.Context(), botID, limit)
			if err != nil {
				return fmt.Errorf("fetch history: %w", err)
			}
			buf := logfeed.NewBuffer(limit)
			for _, e := range entries {
				buf.Insert(botapi.Normalize(e, botID))
			}
			text := logfeed.FormatEntries(buf.Entries())

			out := cmd.OutOrStdout()
			var saver export.Saver
			var name string
			switch {
			case output != "" && output != "-":
				saver, name = export.DirSaver{Dir: filepath.Dir(output)}, filepath.Base(output)
			case save:
				saver = export.DirSaver{Dir: cfg.ExportDir}
				name = logfeed.ExportFilename(botID, time.Now())
			default:
				_, err := io.WriteString(out, text)
				return err
			}
			path, err := saver.SaveBlob([]byte(text), name)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(out, "saved %d entries to %s\n", buf.Len(), path)
			return err
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "number of entries (default history_limit)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	cmd.Flags().BoolVar(&save, "save", false, "save to the export dir with a timestamped name")
	return cmd
}
