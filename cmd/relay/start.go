package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/five82/relay/internal/app"
	"github.com/five82/relay/internal/botapi"
)

func newStartCmd(opts *rootOptions) *cobra.Command {
	var (
		specPath string
		watch    bool
	)
	cmd := &cobra.Command{
		Use:   "start <bot>",
		Short: "Start a bot and show its pairing code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			botID := args[0]
			spec, err := loadBotSpec(specPath, botID)
			if err != nil {
				return err
			}
			client, _, logger, err := opts.apiClient(cmd)
			if err != nil {
				return err
			}

			result, err := client.StartBot(cmd.Context(), botID, spec)
			if err != nil {
				return err
			}
			if !result.Success {
				return fmt.Errorf("start %s: %s", botID, strings.TrimSpace(result.Message))
			}
			logger.Info("bot started", "bot", botID, "client", client.ClientID())
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %s\n", botID, orText(result.Message, "started"))

			payload, hasPayload := result.PairingPayload()
			if watch {
				return app.Run(cmd.Context(), app.Options{
					ConfigPath:     opts.configPath,
					PrefsPath:      opts.prefsPath,
					Viper:          opts.viper,
					BotID:          botID,
					InitialPayload: payload,
				})
			}
			if !hasPayload {
				return nil
			}
			return writePairingCode(cmd, payload, "")
		},
	}
	cmd.Flags().StringVar(&specPath, "spec", "", "YAML bot spec file")
	cmd.Flags().BoolVar(&watch, "watch", false, "open the dashboard after starting")
	return cmd
}

func newStopCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stop <bot>",
		Short: "Stop a bot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, _, err := opts.apiClient(cmd)
			if err != nil {
				return err
			}
			result, err := client.StopBot(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !result.Success {
				return fmt.Errorf("stop %s: %s", args[0], strings.TrimSpace(result.Message))
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", args[0], orText(result.Message, "stopped"))
			return err
		},
	}
}

// loadBotSpec reads a YAML spec, defaulting the name to botID. An empty
// path yields a spec carrying only the name.
func loadBotSpec(path, botID string) (botapi.BotSpec, error) {
	spec := botapi.BotSpec{Name: botID}
	if strings.TrimSpace(path) == "" {
		return spec, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return botapi.BotSpec{}, fmt.Errorf("read bot spec: %w", err)
	}
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return botapi.BotSpec{}, fmt.Errorf("parse bot spec: %w", err)
	}
	if strings.TrimSpace(spec.Name) == "" {
		spec.Name = botID
	}
	if strings.TrimSpace(spec.Platform) == "" {
		return botapi.BotSpec{}, errors.New("parse bot spec: platform is required")
	}
	return spec, nil
}

func orText(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}
