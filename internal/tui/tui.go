package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the interactive console and blocks until the user quits.
func Run(cfg Config) error {
	applyColorProfilePreference()
	applyThemePreference()

	p := tea.NewProgram(newConsoleModel(cfg), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run console: %w", err)
	}
	return nil
}
