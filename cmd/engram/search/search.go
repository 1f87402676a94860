// Package searchcmder provides the search command for hybrid semantic and
// keyword search over the memory graph.
package searchcmder

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/engramlabs/engram/api"
	"github.com/engramlabs/engram/pkg/apiclient"
	"github.com/engramlabs/engram/pkg/cliui"
	"github.com/engramlabs/engram/pkg/config"
	"github.com/engramlabs/engram/pkg/search"
	"github.com/engramlabs/engram/pkg/utils"
)

var (
	rankStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	scoreStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	idStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	previewStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	staleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type searchCommander struct {
	query    string
	topK     int
	keywords []string
	all      bool
	quiet    bool
	render   bool

	owner     string
	apiTarget string
}

const searchLongDesc string = `Search memories via the Engram API.

Runs a hybrid semantic and keyword search over the owner's memory graph and
returns the most relevant memories, newest-information-first. Superseded
memories are excluded unless --all is given.

Use --quiet to output only memory ids, one per line. This is useful for
piping into scripts or the /memories/:id endpoints.

Example:
  engram search "where does ana live" --owner ana
  engram search "deployment checklist" --keywords deploy,k8s --top 10
  engram search "old addresses" --all
  engram search "lisbon" --quiet`

const searchShortDesc string = "Search the memory graph"

func NewSearchCmd() *cobra.Command {
	cmder := &searchCommander{}

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: searchShortDesc,
		Long:  searchLongDesc,
		Args:  cobra.ExactArgs(1),
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
		RunE: func(_ *cobra.Command, args []string) error {
			cmder.query = args[0]
			return cmder.run()
		},
	}

	defaults := config.NewDefaultConfig()
	cmd.Flags().IntVarP(&cmder.topK, "top", "k", 5, "Number of results to return")
	cmd.Flags().StringVarP(&cmder.owner, "owner", "o", os.Getenv("ENGRAM_OWNER"), "Owner whose memories to search")
	cmd.Flags().StringSliceVar(&cmder.keywords, "keywords", nil, "Keywords to blend into the ranking")
	cmd.Flags().BoolVar(&cmder.all, "all", false, "Include superseded memories in results")
	cmd.Flags().BoolVarP(&cmder.quiet, "quiet", "q", false, "Output only memory ids, one per line (for piping)")
	cmd.Flags().BoolVar(&cmder.render, "render", false, "Render full memory content as markdown instead of a preview")
	cmd.Flags().StringVar(&cmder.apiTarget, "api-target", defaults.API.Target, "URL of a running engram API server")

	return cmd
}

func (c *searchCommander) run() error {
	if c.owner == "" {
		return fmt.Errorf("owner is required (use --owner or set ENGRAM_OWNER)")
	}

	client, err := apiclient.New(c.apiTarget, c.owner)
	if err != nil {
		return err
	}

	req := api.SearchRequest{
		Query:    c.query,
		Limit:    c.topK,
		Keywords: c.keywords,
	}
	if c.all {
		onlyLatest := false
		req.OnlyLatest = &onlyLatest
		req.IncludeInactive = true
	}

	results, err := client.Search(context.Background(), req)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		if !c.quiet {
			fmt.Println("No memories found.")
		}
		return nil
	}

	if c.quiet {
		for _, result := range results {
			fmt.Println(result.Memory.ID)
		}
		return nil
	}

	fmt.Printf("\n%s %s\n\n",
		headerStyle.Render("Memories for:"),
		idStyle.Render(fmt.Sprintf("%q", c.query)),
	)

	for i, result := range results {
		c.printResult(i+1, result)
	}

	return nil
}

func (c *searchCommander) printResult(rank int, result search.Result) {
	fmt.Printf("  %s  %s  %s\n",
		rankStyle.Render(fmt.Sprintf("#%d", rank)),
		scoreStyle.Render(fmt.Sprintf("score: %.4f", result.Score)),
		idStyle.Render(result.Memory.ID),
	)

	if c.render {
		rendered, err := cliui.RenderMarkdown(result.Memory.Content)
		if err != nil {
			rendered = result.Memory.Content
		}
		fmt.Print(rendered)
	} else {
		preview := result.Memory.Content
		if result.Memory.Summary != "" {
			preview = result.Memory.Summary
		}
		preview = utils.Truncate(strings.ReplaceAll(preview, "\n", " "), 157)
		fmt.Printf("  %s\n", previewStyle.Render(preview))
	}

	if !result.Memory.IsLatest {
		fmt.Printf("  %s\n", staleStyle.Render("superseded"))
	}
	if result.Explanation != "" {
		fmt.Printf("  %s\n", dimStyle.Render(result.Explanation))
	}
	if len(result.RelatedIDs) > 0 {
		fmt.Printf("  %s\n", dimStyle.Render("related: "+strings.Join(result.RelatedIDs, ", ")))
	}

	fmt.Println()
}
