package ui

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the dashboard and blocks until the user quits or the options'
// context is cancelled.
func Run(opts Options) error {
	model, err := New(opts)
	if err != nil {
		return err
	}

	program := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(model.ctx),
	)
	_, err = program.Run()

	// The event loop has stopped; release whatever it still held.
	opts.Logs.Close()
	opts.Session.Close()

	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && model.ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}
