package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/engramlabs/engram/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the ENGRAM_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (ENGRAM_API_LISTEN, ENGRAM_VECTOR_STORE_TARGET, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dotdir resolution.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: ENGRAM_API_LISTEN, ENGRAM_EMBEDDING_MODEL, etc.
	v.SetEnvPrefix("ENGRAM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// API
	v.SetDefault("api.listen", d.API.Listen)
	v.SetDefault("api.target", d.API.Target)

	// Vector store
	v.SetDefault("vector_store.provider", d.VectorStore.Provider)
	v.SetDefault("vector_store.target", d.VectorStore.Target)
	v.SetDefault("vector_store.path", d.VectorStore.Path)
	v.SetDefault("vector_store.memory_collection", d.VectorStore.MemoryCollection)
	v.SetDefault("vector_store.relationship_collection", d.VectorStore.RelationshipCollection)

	// Docstore
	v.SetDefault("docstore.provider", d.Docstore.Provider)
	v.SetDefault("docstore.sqlite_path", d.Docstore.SQLitePath)
	v.SetDefault("docstore.postgres_dsn", d.Docstore.PostgresDS)

	// Embedding
	v.SetDefault("embedding.provider", d.Embedding.Provider)
	v.SetDefault("embedding.target", d.Embedding.Target)
	v.SetDefault("embedding.model", d.Embedding.Model)
	v.SetDefault("embedding.dimensions", d.Embedding.Dimensions)

	// Chunking
	v.SetDefault("chunking.size", d.Chunking.Size)
	v.SetDefault("chunking.overlap", d.Chunking.Overlap)

	// Graph
	v.SetDefault("graph.update_threshold", d.Graph.UpdateThreshold)
	v.SetDefault("graph.extend_threshold", d.Graph.ExtendThreshold)
	v.SetDefault("graph.neighbor_floor", d.Graph.NeighborFloor)
	v.SetDefault("graph.neighbor_limit", d.Graph.NeighborLimit)

	// Tiering
	v.SetDefault("tiering.cold_enabled", d.Tiering.ColdEnabled)
	v.SetDefault("tiering.hot_age_days", d.Tiering.HotAgeDays)
	v.SetDefault("tiering.hot_access_threshold", d.Tiering.HotAccessThreshold)

	// Ingest
	v.SetDefault("ingest.workers", d.Ingest.Workers)
	v.SetDefault("ingest.queue_size", d.Ingest.QueueSize)

	// Search
	v.SetDefault("search.semantic_weight", d.Search.SemanticWeight)
	v.SetDefault("search.min_score", d.Search.MinScore)

	// Summary
	v.SetDefault("summary.enabled", d.Summary.Enabled)
	v.SetDefault("summary.provider", d.Summary.Provider)
	v.SetDefault("summary.target", d.Summary.Target)
	v.SetDefault("summary.model", d.Summary.Model)

	// Events
	v.SetDefault("events.provider", d.Events.Provider)
	v.SetDefault("events.brokers", d.Events.Brokers)
	v.SetDefault("events.topic", d.Events.Topic)
}
