package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/memlink-ipc/memlink/internal/discovery"
	"github.com/memlink-ipc/memlink/internal/service"
)

var (
	nodeListJSON    bool
	nodeListCleanup bool
)

var (
	aliveStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	deadStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	inaccessibleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	undefinedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	dimStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

var nodeListCmd = &cobra.Command{
	Use:   "node:list",
	Short: "List all nodes of the domain with their liveness state",
	Long: `Scan the domain's node registry and print one line per node with its
classification:

  alive         the owning process holds the liveness lock
  dead          the process is gone but its registry entry remains
  inaccessible  the entry cannot be judged (permissions, partial entry)
  undefined     the entry disappeared mid-scan

Examples:
  # Human-readable census
  memlink node:list

  # JSON for scripting
  memlink node:list --json | jq '.[] | select(.state == "dead")'

  # Remove the residue of dead nodes after listing
  memlink node:list --cleanup`,
	RunE: runNodeList,
}

func init() {
	nodeListCmd.Flags().BoolVar(&nodeListJSON, "json", false, "output as JSON")
	nodeListCmd.Flags().BoolVar(&nodeListCleanup, "cleanup", false, "remove registry residue of dead nodes")
	rootCmd.AddCommand(nodeListCmd)
}

// nodeRow is the JSON shape of one census entry.
type nodeRow struct {
	ID    string `json:"id"`
	State string `json:"state"`
	Name  string `json:"name,omitempty"`
	Pid   int    `json:"pid,omitempty"`
}

func stateOf(s discovery.NodeState) nodeRow {
	row := nodeRow{ID: s.ID().String()}
	switch state := s.(type) {
	case discovery.Alive:
		row.State = "alive"
		if details, ok := state.Details(); ok {
			row.Name = details.Name.String()
			row.Pid = details.Pid
		}
	case discovery.Dead:
		row.State = "dead"
		if details, ok := state.Details(); ok {
			row.Name = details.Name.String()
			row.Pid = details.Pid
		}
	case discovery.Inaccessible:
		row.State = "inaccessible"
	default:
		row.State = "undefined"
	}
	return row
}

func styleFor(state string) lipgloss.Style {
	switch state {
	case "alive":
		return aliveStyle
	case "dead":
		return deadStyle
	case "inaccessible":
		return inaccessibleStyle
	default:
		return undefinedStyle
	}
}

func runNodeList(cmd *cobra.Command, args []string) error {
	var rows []nodeRow
	_, err := discovery.List[service.InterProcess](cmd.Context(), cfg, func(s discovery.NodeState) discovery.Progression {
		rows = append(rows, stateOf(s))
		return discovery.Continue
	}, scanOpts()...)
	if err != nil {
		return err
	}

	if nodeListJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if rows == nil {
			rows = []nodeRow{}
		}
		if err := encoder.Encode(rows); err != nil {
			return err
		}
	} else {
		if len(rows) == 0 {
			fmt.Println(dimStyle.Render("no nodes registered in " + cfg.NodeDir()))
		}
		for _, row := range rows {
			line := fmt.Sprintf("%-14s %s", styleFor(row.State).Render(row.State), row.ID)
			if row.Name != "" {
				line += dimStyle.Render(fmt.Sprintf("  %q pid=%d", row.Name, row.Pid))
			}
			fmt.Println(line)
		}
	}

	if nodeListCleanup {
		removed, err := discovery.CleanupDead(cmd.Context(), cfg, scanOpts()...)
		if err != nil {
			return fmt.Errorf("cleaning up dead nodes: %w", err)
		}
		fmt.Fprintf(os.Stderr, "removed %d dead node(s)\n", removed)
	}
	return nil
}
