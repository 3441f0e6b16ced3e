package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/muurk/checkout/internal/logging"
)

// Run starts the interactive checkout and blocks until the user quits.
func Run(opts Options) error {
	if opts.NewLoader == nil {
		return fmt.Errorf("no SDK loader configured")
	}

	p := tea.NewProgram(NewAppModel(opts), tea.WithAltScreen())
	final, err := p.Run()

	if app, ok := final.(AppModel); ok {
		if cerr := app.Close(); cerr != nil {
			logging.Debug("Closing SDK connection", zap.Error(cerr))
		}
	}
	if err != nil {
		return fmt.Errorf("checkout UI failed: %w", err)
	}
	return nil
}
