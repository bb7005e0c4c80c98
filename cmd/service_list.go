package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/memlink-ipc/memlink/internal/service"
)

var serviceListJSON bool

var serviceListCmd = &cobra.Command{
	Use:   "service:list",
	Short: "List all services registered in the domain",
	Long: `Enumerate the domain's service registry and print every service with
its messaging pattern.

Examples:
  # Human-readable listing
  memlink service:list

  # JSON for scripting
  memlink service:list --json | jq '.[] | select(.messaging_pattern == "publish-subscribe")'`,
	RunE: runServiceList,
}

func init() {
	serviceListCmd.Flags().BoolVar(&serviceListJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(serviceListCmd)
}

// serviceRow is the JSON shape of one registry entry.
type serviceRow struct {
	Name       string            `json:"name"`
	ID         string            `json:"id"`
	Pattern    string            `json:"messaging_pattern"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Payload    string            `json:"payload_type,omitempty"`
}

func runServiceList(cmd *cobra.Command, args []string) error {
	configs, err := service.ListStatic(cfg)
	if err != nil {
		return err
	}

	rows := make([]serviceRow, 0, len(configs))
	for _, sc := range configs {
		row := serviceRow{
			Name:       sc.Name,
			ID:         sc.ServiceID,
			Pattern:    sc.Pattern.String(),
			Attributes: sc.Attributes,
		}
		if sc.PubSub != nil {
			row.Payload = sc.PubSub.Payload.TypeName
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })

	if serviceListJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(rows)
	}

	if len(rows) == 0 {
		fmt.Println(dimStyle.Render("no services registered in " + cfg.ServiceDir()))
		return nil
	}
	for _, row := range rows {
		line := fmt.Sprintf("%-18s %s", row.Pattern, row.Name)
		if row.Payload != "" {
			line += dimStyle.Render("  payload=" + row.Payload)
		}
		fmt.Println(line)
	}
	return nil
}
