package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/theirongolddev/koshin/internal/config"
	"github.com/theirongolddev/koshin/internal/tui"
	"github.com/theirongolddev/koshin/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive contract dashboard",
	Args:  cobra.NoArgs,
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	// Stderr belongs to the alt screen while the dashboard runs.
	rt, err := openRuntime(cmd.Context(),
		logToFileByDefault(filepath.Join(config.StateDir(), "koshin-tui.log")))
	if err != nil {
		return err
	}
	defer rt.Close()

	theme.SetActive(rt.cfg.Appearance.Theme)

	// Force TrueColor profile so all background styling produces ANSI codes
	lipgloss.SetColorProfile(termenv.TrueColor)

	app := tui.NewApp(cmd.Context(), rt.manager, rt.cfg, configPath())
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context()))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
