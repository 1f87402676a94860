// Package exportcmder provides the export command for dumping the memory
// graph as JSON.
package exportcmder

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/engramlabs/engram/pkg/apiclient"
	"github.com/engramlabs/engram/pkg/config"
)

type exportCommander struct {
	owner     string
	output    string
	apiTarget string
}

const exportLongDesc string = `Export the memory graph as JSON.

Dumps every memory node and relationship edge, suitable for backup or for
visualization tooling. With --owner the export contains only that owner's
subgraph. Writes to stdout unless --output is given.

Example:
  engram export > graph.json
  engram export --owner ana --output ana.json`

const exportShortDesc string = "Export the memory graph as JSON"

func NewExportCmd() *cobra.Command {
	cmder := &exportCommander{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: exportShortDesc,
		Long:  exportLongDesc,
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
	cmd.Flags().StringVarP(&cmder.owner, "owner", "o", os.Getenv("ENGRAM_OWNER"), "Export only this owner's subgraph")
	cmd.Flags().StringVarP(&cmder.output, "output", "f", "", "Write to this file instead of stdout")
	cmd.Flags().StringVar(&cmder.apiTarget, "api-target", defaults.API.Target, "URL of a running engram API server")

	return cmd
}

func (c *exportCommander) run() error {
	client, err := apiclient.New(c.apiTarget, c.owner)
	if err != nil {
		return err
	}

	export, err := client.ExportGraph(context.Background())
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling export: %w", err)
	}

	if c.output == "" {
		fmt.Println(string(out))
		return nil
	}

	if err := os.WriteFile(c.output, append(out, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing export file: %w", err)
	}
	fmt.Fprintf(os.Stderr, "wrote %d nodes and %d edges to %s\n",
		len(export.Nodes), len(export.Edges), c.output)

	return nil
}
