// Package configcmder provides the config command for managing persistent
// engram configuration stored in the .engram/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent engram configuration.

Configuration is stored as config.toml in the .engram/ directory and provides
default values for command flags. CLI flags always take precedence over
config file values.

Keys use dotted notation matching the TOML section structure:
  api.listen, api.target,
  vector_store.provider, vector_store.target, vector_store.path,
  docstore.provider, docstore.sqlite_path, docstore.postgres_dsn,
  embedding.provider, embedding.target, embedding.model, embedding.dimensions,
  chunking.size, chunking.overlap,
  graph.update_threshold, graph.extend_threshold,
  tiering.cold_enabled, tiering.hot_age_days,
  ingest.workers, ingest.queue_size,
  summary.enabled, summary.model,
  events.provider, events.brokers, events.topic

Use subcommands to get, set, or list configuration values:
  engram config set <key> <value>    Set a configuration value
  engram config get <key>            Get a configuration value
  engram config list                 List all configuration values

Examples:
  engram config set embedding.model nomic-embed-text
  engram config set graph.update_threshold 0.85
  engram config get vector_store.provider
  engram config list`

const configShortDesc string = "Manage persistent engram configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
