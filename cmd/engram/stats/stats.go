// Package statscmder provides the stats command for inspecting graph and
// tier statistics.
package statscmder

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/engramlabs/engram/pkg/apiclient"
	"github.com/engramlabs/engram/pkg/cliui"
	"github.com/engramlabs/engram/pkg/config"
)

type statsCommander struct {
	owner     string
	apiTarget string
	jsonOut   bool
}

const statsLongDesc string = `Show statistics for the memory graph.

Reports memory and relationship counts, the per-type relationship histogram,
and the hot/cold tier distribution. With --owner the graph counts are scoped
to that owner; the tier distribution is always engine-wide.

Example:
  engram stats
  engram stats --owner ana
  engram stats --json`

const statsShortDesc string = "Show memory graph statistics"

func NewStatsCmd() *cobra.Command {
	cmder := &statsCommander{}

	cmd := &cobra.Command{
		Use:   "stats",
		Short: statsShortDesc,
		Long:  statsLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			cfger, err := config.NewConfiger(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			cfg, err := cfger.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			if !cmd.Flags().Changed("api-target") {
				cmder.apiTarget = cfg.API.Target
			}
			return nil
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmder.run()
		},
	}

	defaults := config.NewDefaultConfig()
	cmd.Flags().StringVarP(&cmder.owner, "owner", "o", os.Getenv("ENGRAM_OWNER"), "Scope graph counts to this owner")
	cmd.Flags().BoolVar(&cmder.jsonOut, "json", false, "Output raw JSON")
	cmd.Flags().StringVar(&cmder.apiTarget, "api-target", defaults.API.Target, "URL of a running engram API server")

	return cmd
}

func (c *statsCommander) run() error {
	client, err := apiclient.New(c.apiTarget, c.owner)
	if err != nil {
		return err
	}

	ctx := context.Background()

	graphStats, err := client.GraphStats(ctx)
	if err != nil {
		return err
	}
	tierStats, err := client.TierStats(ctx)
	if err != nil {
		return err
	}

	if c.jsonOut {
		out, err := json.MarshalIndent(map[string]any{
			"graph": graphStats,
			"tiers": tierStats,
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling stats: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}

	scope := "all owners"
	if c.owner != "" {
		scope = c.owner
	}
	fmt.Printf("\n  %s  %s\n\n", cliui.KeyStyle.Render("scope"), cliui.ValueStyle.Render(scope))

	printStat("memories", graphStats.TotalMemories)
	printStat("relationships", graphStats.TotalRelationships)
	for relType, count := range graphStats.RelationshipTypes {
		fmt.Printf("    %s %s\n",
			cliui.DimStyle.Render(fmt.Sprintf("%-16s", string(relType))),
			cliui.ValueStyle.Render(fmt.Sprintf("%d", count)),
		)
	}

	fmt.Println()
	printStat("hot tier", tierStats.HotCount)
	printStat("cold tier", tierStats.ColdCount)
	fmt.Printf("  %s  %s\n\n",
		cliui.KeyStyle.Render(fmt.Sprintf("%-16s", "hot ratio")),
		cliui.ValueStyle.Render(fmt.Sprintf("%.1f%%", tierStats.HotPercentage)),
	)

	return nil
}

func printStat(name string, value int) {
	fmt.Printf("  %s  %s\n",
		cliui.KeyStyle.Render(fmt.Sprintf("%-16s", name)),
		cliui.ValueStyle.Render(fmt.Sprintf("%d", value)),
	)
}
