// Package clearcmder provides the clear command for deleting all of an
// owner's data from the memory graph.
package clearcmder

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/engramlabs/engram/pkg/apiclient"
	"github.com/engramlabs/engram/pkg/cliui"
	"github.com/engramlabs/engram/pkg/config"
)

type clearCommander struct {
	owner     string
	yes       bool
	apiTarget string
}

const clearLongDesc string = `Delete all memories, relationships, and documents for an owner.

This removes the owner's data from the in-memory graph, the vector index,
and the document store. It cannot be undone. Prompts for confirmation
unless --yes is given.

Example:
  engram clear --owner ana
  engram clear --owner ana --yes`

const clearShortDesc string = "Delete all data for an owner"

func NewClearCmd() *cobra.Command {
	cmder := &clearCommander{}

	cmd := &cobra.Command{
		Use:   "clear",
		Short: clearShortDesc,
		Long:  clearLongDesc,
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
	cmd.Flags().StringVarP(&cmder.owner, "owner", "o", os.Getenv("ENGRAM_OWNER"), "Owner whose data to delete")
	cmd.Flags().BoolVarP(&cmder.yes, "yes", "y", false, "Skip the confirmation prompt")
	cmd.Flags().StringVar(&cmder.apiTarget, "api-target", defaults.API.Target, "URL of a running engram API server")

	return cmd
}

func (c *clearCommander) run() error {
	if c.owner == "" {
		return fmt.Errorf("owner is required (use --owner or set ENGRAM_OWNER)")
	}

	if !c.yes {
		fmt.Printf("Delete ALL data for owner %s? This cannot be undone. [y/N] ",
			cliui.KeyStyle.Render(c.owner))
		reader := bufio.NewReader(os.Stdin)
		answer, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("reading confirmation: %w", err)
		}
		answer = strings.ToLower(strings.TrimSpace(answer))
		if answer != "y" && answer != "yes" {
			fmt.Println("aborted")
			return nil
		}
	}

	client, err := apiclient.New(c.apiTarget, c.owner)
	if err != nil {
		return err
	}

	counts, err := client.ClearOwner(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("%s deleted %d memories, %d relationships, %d documents for %s\n",
		cliui.Mark(nil),
		counts["memories"], counts["relationships"], counts["documents"],
		cliui.ValueStyle.Render(c.owner),
	)

	return nil
}
