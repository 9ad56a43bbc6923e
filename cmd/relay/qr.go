package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/relay/internal/export"
	"github.com/five82/relay/internal/pairing"
)

const terminalQuietModules = 2

func newQRCmd(_ *rootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "qr <payload>",
		Short: "Render a pairing payload as a QR code",
		Long:  "qr draws payload in the terminal. With --output, or when stdout is not a terminal, the PNG is written instead.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return writePairingCode(cmd, args[0], output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the PNG to this file")
	return cmd
}

// writePairingCode encodes payload and writes it to output as a PNG, to a
// terminal stdout as block art, or to a redirected stdout as a PNG.
func writePairingCode(cmd *cobra.Command, payload, output string) error {
	if strings.TrimSpace(payload) == "" {
		return pairing.ErrEmptyPayload
	}
	img, err := pairing.NewQREncoder(pairing.DefaultOptions()).Encode(cmd.Context(), payload)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case output != "" && output != "-":
		saver := export.DirSaver{Dir: filepath.Dir(output)}
		path, err := saver.SaveBlob(img.PNG, filepath.Base(output))
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "saved %s\n", path)
		return err
	case output == "" && isTerminal(out):
		_, err = fmt.Fprintf(out, "%s\nScan within %d seconds.\n",
			img.Terminal(terminalQuietModules), int(pairing.ValidityWindow.Seconds()))
		return err
	default:
		_, err = out.Write(img.PNG)
		return err
	}
}
