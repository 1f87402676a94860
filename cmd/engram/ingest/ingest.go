// Package ingestcmder provides the ingest command for adding notes, links,
// and files to the memory graph.
package ingestcmder

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/engramlabs/engram/pkg/apiclient"
	"github.com/engramlabs/engram/pkg/cliui"
	"github.com/engramlabs/engram/pkg/config"
	"github.com/engramlabs/engram/pkg/content"
	"github.com/engramlabs/engram/pkg/content/file"
	"github.com/engramlabs/engram/pkg/docstore"
)

type ingestCommander struct {
	text   string
	title  string
	source string
	link   string
	file   string

	owner     string
	apiTarget string
}

const ingestLongDesc string = `Ingest content into the memory graph.

The content is chunked, embedded, and linked to existing memories. Newer
information about the same topic supersedes older memories automatically.

Provide the note text as an argument, or use --link to fetch a web page,
or --file to read a local .txt or .md file.

Examples:
  engram ingest "Ana moved to Lisbon in June" --owner ana
  engram ingest --link https://example.com/article --owner ana
  engram ingest --file ./notes/standup.md --owner ana --title "Standup notes"`

const ingestShortDesc string = "Ingest content into the memory graph"

func NewIngestCmd() *cobra.Command {
	cmder := &ingestCommander{}

	cmd := &cobra.Command{
		Use:   "ingest [text]",
		Short: ingestShortDesc,
		Long:  ingestLongDesc,
		Args:  cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return resolveAPITarget(cmd, &cmder.apiTarget)
		},
		RunE: func(_ *cobra.Command, args []string) error {
			if len(args) > 0 {
				cmder.text = args[0]
			}
			return cmder.run()
		},
	}

	defaults := config.NewDefaultConfig()
	cmd.Flags().StringVarP(&cmder.owner, "owner", "o", os.Getenv("ENGRAM_OWNER"), "Owner the content belongs to")
	cmd.Flags().StringVarP(&cmder.title, "title", "t", "", "Title for the document")
	cmd.Flags().StringVarP(&cmder.source, "source", "s", "", "Source attribution for the document")
	cmd.Flags().StringVar(&cmder.link, "link", "", "URL to fetch and ingest")
	cmd.Flags().StringVar(&cmder.file, "file", "", "Local .txt or .md file to ingest")
	cmd.Flags().StringVar(&cmder.apiTarget, "api-target", defaults.API.Target, "URL of a running engram API server")

	return cmd
}

// resolveAPITarget fills the target from config when the flag is not set.
func resolveAPITarget(cmd *cobra.Command, target *string) error {
	if cmd.Flags().Changed("api-target") {
		return nil
	}

	configDir, _ := cmd.Flags().GetString("config-dir")
	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg, err := cfger.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	*target = cfg.API.Target
	return nil
}

func (c *ingestCommander) run() error {
	if c.owner == "" {
		return errors.New("owner is required (use --owner or set ENGRAM_OWNER)")
	}

	client, err := apiclient.New(c.apiTarget, c.owner)
	if err != nil {
		return err
	}

	ctx := context.Background()

	var doc *docstore.Document
	switch {
	case c.link != "":
		err = cliui.Step(os.Stdout, "fetching and ingesting "+c.link, func() error {
			doc, err = client.IngestLink(ctx, c.link)
			return err
		})
	case c.file != "":
		// Read the file locally so the server does not need filesystem
		// access to the client's machine.
		var extracted *content.Content
		extracted, err = file.NewProducer().Produce(ctx, c.file)
		if err != nil {
			return err
		}
		title := c.title
		if title == "" {
			title = extracted.Title
		}
		source := c.source
		if source == "" {
			source = c.file
		}
		err = cliui.Step(os.Stdout, "ingesting "+c.file, func() error {
			doc, err = client.IngestNote(ctx, extracted.Text, title, source)
			return err
		})
	case c.text != "":
		err = cliui.Step(os.Stdout, "ingesting note", func() error {
			doc, err = client.IngestNote(ctx, c.text, c.title, c.source)
			return err
		})
	default:
		return errors.New("provide note text, --link, or --file")
	}
	if err != nil {
		return err
	}

	fmt.Printf("\n  %s  %s\n", cliui.KeyStyle.Render("document"), cliui.ValueStyle.Render(doc.ID))
	fmt.Printf("  %s    %s\n", cliui.KeyStyle.Render("status"), cliui.ValueStyle.Render(string(doc.Status)))
	fmt.Printf("  %s  %s\n\n", cliui.KeyStyle.Render("memories"), cliui.ValueStyle.Render(fmt.Sprintf("%d", len(doc.MemoryIDs))))

	if doc.Status == docstore.StatusFailed {
		return fmt.Errorf("ingestion failed: %s", doc.ErrorMessage)
	}
	return nil
}
