// Package engramcmder
package engramcmder

import (
	"github.com/spf13/cobra"

	clearcmder "github.com/engramlabs/engram/cmd/engram/clear"
	configcmder "github.com/engramlabs/engram/cmd/engram/config"
	exportcmder "github.com/engramlabs/engram/cmd/engram/export"
	ingestcmder "github.com/engramlabs/engram/cmd/engram/ingest"
	searchcmder "github.com/engramlabs/engram/cmd/engram/search"
	servecmder "github.com/engramlabs/engram/cmd/engram/serve"
	statscmder "github.com/engramlabs/engram/cmd/engram/stats"
	watchcmder "github.com/engramlabs/engram/cmd/engram/watch"
	versioncmder "github.com/engramlabs/engram/cmd/version"
)

const engramLongDesc string = `Engram is a memory layer that turns notes into a knowledge graph.

Ingested text is chunked, embedded, and linked to what you already know:
newer information supersedes older versions, related notes connect, and
search blends meaning with keywords.

Run the server with:
  engram serve

Then work with memories:
  engram ingest "Ana moved to Lisbon in June"
  engram search "where does ana live"
  engram stats`

const engramShortDesc string = "Engram - memory knowledge graph"

func NewEngramCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "engram",
		Short: engramShortDesc,
		Long:  engramLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Directory containing the .engram/ config (default: walk up from cwd)")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(ingestcmder.NewIngestCmd())
	cmd.AddCommand(searchcmder.NewSearchCmd())
	cmd.AddCommand(statscmder.NewStatsCmd())
	cmd.AddCommand(exportcmder.NewExportCmd())
	cmd.AddCommand(clearcmder.NewClearCmd())
	cmd.AddCommand(watchcmder.NewWatchCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
