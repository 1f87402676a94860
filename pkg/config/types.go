package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Config represents the persistent engram configuration stored as config.toml
// in the .engram/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	API         APIConfig         `toml:"api"`
	VectorStore VectorStoreConfig `toml:"vector_store"`
	Docstore    DocstoreConfig    `toml:"docstore"`
	Embedding   EmbeddingConfig   `toml:"embedding"`
	Chunking    ChunkingConfig    `toml:"chunking"`
	Graph       GraphConfig       `toml:"graph"`
	Tiering     TieringConfig     `toml:"tiering"`
	Ingest      IngestConfig      `toml:"ingest"`
	Search      SearchConfig      `toml:"search"`
	Summary     SummaryConfig     `toml:"summary"`
	Events      EventsConfig      `toml:"events"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`

	// Target is the full URL CLI commands use to reach a running API
	// server (scheme + host + port).
	Target string `toml:"target,omitempty"`
}

// VectorStoreConfig holds similarity index settings.
type VectorStoreConfig struct {
	Provider string `toml:"provider,omitempty"`
	Target   string `toml:"target,omitempty"`

	// Path is the sqlite-vec database path when Provider is "sqlite".
	Path string `toml:"path,omitempty"`

	// Collection names for memory and relationship points.
	MemoryCollection       string `toml:"memory_collection,omitempty"`
	RelationshipCollection string `toml:"relationship_collection,omitempty"`
}

// DocstoreConfig holds document registry settings.
type DocstoreConfig struct {
	Provider   string `toml:"provider,omitempty"`
	SQLitePath string `toml:"sqlite_path,omitempty"`
	PostgresDS string `toml:"postgres_dsn,omitempty"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Model      string `toml:"model,omitempty"`
	Dimensions uint   `toml:"dimensions,omitempty"`
}

// ChunkingConfig holds text chunker settings.
type ChunkingConfig struct {
	Size    int `toml:"size,omitempty"`
	Overlap int `toml:"overlap,omitempty"`
}

// GraphConfig holds relationship detection thresholds.
type GraphConfig struct {
	UpdateThreshold float64 `toml:"update_threshold,omitempty"`
	ExtendThreshold float64 `toml:"extend_threshold,omitempty"`
	NeighborFloor   float64 `toml:"neighbor_floor,omitempty"`
	NeighborLimit   int     `toml:"neighbor_limit,omitempty"`
}

// TieringConfig holds hot/cold memory tier settings.
type TieringConfig struct {
	ColdEnabled        bool `toml:"cold_enabled"`
	HotAgeDays         int  `toml:"hot_age_days,omitempty"`
	HotAccessThreshold int  `toml:"hot_access_threshold,omitempty"`
}

// IngestConfig holds ingestion pipeline settings.
type IngestConfig struct {
	Workers   uint `toml:"workers,omitempty"`
	QueueSize uint `toml:"queue_size,omitempty"`
}

// SearchConfig holds search settings.
type SearchConfig struct {
	SemanticWeight float64 `toml:"semantic_weight,omitempty"`
	MinScore       float64 `toml:"min_score,omitempty"`
}

// SummaryConfig holds best-effort summarizer settings.
type SummaryConfig struct {
	Enabled  bool   `toml:"enabled"`
	Provider string `toml:"provider,omitempty"`
	Target   string `toml:"target,omitempty"`
	Model    string `toml:"model,omitempty"`
}

// EventsConfig holds event stream publisher settings.
type EventsConfig struct {
	Provider string `toml:"provider,omitempty"`
	Brokers  string `toml:"brokers,omitempty"`
	Topic    string `toml:"topic,omitempty"`
}

// BrokerList splits the comma-separated broker string.
func (e EventsConfig) BrokerList() []string {
	if e.Brokers == "" {
		return nil
	}
	parts := strings.Split(e.Brokers, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			brokers = append(brokers, trimmed)
		}
	}
	return brokers
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func stringKey(get func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *get(c) },
		set: func(c *Config, v string) error { *get(c) = v; return nil },
	}
}

func intKey(name string, get func(c *Config) *int) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if *get(c) == 0 {
				return ""
			}
			return strconv.Itoa(*get(c))
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*get(c) = n
			return nil
		},
	}
}

func floatKey(name string, get func(c *Config) *float64) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if *get(c) == 0 {
				return ""
			}
			return strconv.FormatFloat(*get(c), 'f', -1, 64)
		},
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*get(c) = f
			return nil
		},
	}
}

func uintKey(name string, get func(c *Config) *uint) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if *get(c) == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(*get(c)), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*get(c) = uint(n)
			return nil
		},
	}
}

func boolKey(name string, get func(c *Config) *bool) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return strconv.FormatBool(*get(c)) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*get(c) = b
			return nil
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"api.listen": stringKey(func(c *Config) *string { return &c.API.Listen }),
	"api.target": stringKey(func(c *Config) *string { return &c.API.Target }),

	"vector_store.provider":                stringKey(func(c *Config) *string { return &c.VectorStore.Provider }),
	"vector_store.target":                  stringKey(func(c *Config) *string { return &c.VectorStore.Target }),
	"vector_store.path":                    stringKey(func(c *Config) *string { return &c.VectorStore.Path }),
	"vector_store.memory_collection":       stringKey(func(c *Config) *string { return &c.VectorStore.MemoryCollection }),
	"vector_store.relationship_collection": stringKey(func(c *Config) *string { return &c.VectorStore.RelationshipCollection }),

	"docstore.provider":     stringKey(func(c *Config) *string { return &c.Docstore.Provider }),
	"docstore.sqlite_path":  stringKey(func(c *Config) *string { return &c.Docstore.SQLitePath }),
	"docstore.postgres_dsn": stringKey(func(c *Config) *string { return &c.Docstore.PostgresDS }),

	"embedding.provider": stringKey(func(c *Config) *string { return &c.Embedding.Provider }),
	"embedding.target":   stringKey(func(c *Config) *string { return &c.Embedding.Target }),
	"embedding.model":    stringKey(func(c *Config) *string { return &c.Embedding.Model }),
	"embedding.dimensions": uintKey("embedding.dimensions", func(c *Config) *uint { return &c.Embedding.Dimensions }),

	"chunking.size":    intKey("chunking.size", func(c *Config) *int { return &c.Chunking.Size }),
	"chunking.overlap": intKey("chunking.overlap", func(c *Config) *int { return &c.Chunking.Overlap }),

	"graph.update_threshold": floatKey("graph.update_threshold", func(c *Config) *float64 { return &c.Graph.UpdateThreshold }),
	"graph.extend_threshold": floatKey("graph.extend_threshold", func(c *Config) *float64 { return &c.Graph.ExtendThreshold }),
	"graph.neighbor_floor":   floatKey("graph.neighbor_floor", func(c *Config) *float64 { return &c.Graph.NeighborFloor }),
	"graph.neighbor_limit":   intKey("graph.neighbor_limit", func(c *Config) *int { return &c.Graph.NeighborLimit }),

	"tiering.cold_enabled":         boolKey("tiering.cold_enabled", func(c *Config) *bool { return &c.Tiering.ColdEnabled }),
	"tiering.hot_age_days":         intKey("tiering.hot_age_days", func(c *Config) *int { return &c.Tiering.HotAgeDays }),
	"tiering.hot_access_threshold": intKey("tiering.hot_access_threshold", func(c *Config) *int { return &c.Tiering.HotAccessThreshold }),

	"ingest.workers":    uintKey("ingest.workers", func(c *Config) *uint { return &c.Ingest.Workers }),
	"ingest.queue_size": uintKey("ingest.queue_size", func(c *Config) *uint { return &c.Ingest.QueueSize }),

	"search.semantic_weight": floatKey("search.semantic_weight", func(c *Config) *float64 { return &c.Search.SemanticWeight }),
	"search.min_score":       floatKey("search.min_score", func(c *Config) *float64 { return &c.Search.MinScore }),

	"summary.enabled":  boolKey("summary.enabled", func(c *Config) *bool { return &c.Summary.Enabled }),
	"summary.provider": stringKey(func(c *Config) *string { return &c.Summary.Provider }),
	"summary.target":   stringKey(func(c *Config) *string { return &c.Summary.Target }),
	"summary.model":    stringKey(func(c *Config) *string { return &c.Summary.Model }),

	"events.provider": stringKey(func(c *Config) *string { return &c.Events.Provider }),
	"events.brokers":  stringKey(func(c *Config) *string { return &c.Events.Brokers }),
	"events.topic":    stringKey(func(c *Config) *string { return &c.Events.Topic }),
}
