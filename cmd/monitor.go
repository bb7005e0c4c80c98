package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/memlink-ipc/memlink/internal/ui/monitor"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Watch the domain's node and service registries live",
	Long: `Open a live census view of the domain. The view refreshes whenever a
node registers or deregisters, a process crashes, or a service is created
or removed.

Keys:
  r       refresh now
  q, esc  quit`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	model, err := monitor.New(cfg, scanOpts()...)
	if err != nil {
		return fmt.Errorf("starting registry watcher: %w", err)
	}

	p := tea.NewProgram(model, tea.WithAltScreen())
	_, runErr := p.Run()

	if closeErr := model.Close(); closeErr != nil && runErr == nil {
		runErr = closeErr
	}
	if runErr != nil {
		return fmt.Errorf("running monitor: %w", runErr)
	}
	return nil
}
