package config

const (
	defaultAPIListen = ":8080"
	defaultAPITarget = "http://localhost:8080"

	defaultVectorProvider         = "sqlite"
	defaultMemoryCollection       = "memories"
	defaultRelationshipCollection = "memory_relationships"

	defaultDocstoreProvider = "inmemory"

	defaultEmbeddingProvider   = "ollama"
	defaultEmbeddingTarget     = "http://localhost:11434"
	defaultEmbeddingModel      = "embeddinggemma"
	defaultEmbeddingDimensions = 768

	defaultChunkSize    = 500
	defaultChunkOverlap = 50

	defaultUpdateThreshold = 0.70
	defaultExtendThreshold = 0.60
	defaultNeighborFloor   = 0.55
	defaultNeighborLimit   = 5

	defaultHotAgeDays         = 30
	defaultHotAccessThreshold = 5

	defaultIngestWorkers   = 1
	defaultIngestQueueSize = 64

	defaultSemanticWeight = 0.7
	defaultSearchMinScore = 0.3

	defaultSummaryModel = "llama3.2"

	defaultEventsProvider = "nop"
	defaultEventsTopic    = "engram.documents"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		API: APIConfig{
			Listen: defaultAPIListen,
			Target: defaultAPITarget,
		},
		VectorStore: VectorStoreConfig{
			Provider:               defaultVectorProvider,
			MemoryCollection:       defaultMemoryCollection,
			RelationshipCollection: defaultRelationshipCollection,
		},
		Docstore: DocstoreConfig{
			Provider: defaultDocstoreProvider,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultEmbeddingProvider,
			Target:     defaultEmbeddingTarget,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
		},
		Chunking: ChunkingConfig{
			Size:    defaultChunkSize,
			Overlap: defaultChunkOverlap,
		},
		Graph: GraphConfig{
			UpdateThreshold: defaultUpdateThreshold,
			ExtendThreshold: defaultExtendThreshold,
			NeighborFloor:   defaultNeighborFloor,
			NeighborLimit:   defaultNeighborLimit,
		},
		Tiering: TieringConfig{
			ColdEnabled:        true,
			HotAgeDays:         defaultHotAgeDays,
			HotAccessThreshold: defaultHotAccessThreshold,
		},
		Ingest: IngestConfig{
			Workers:   defaultIngestWorkers,
			QueueSize: defaultIngestQueueSize,
		},
		Search: SearchConfig{
			SemanticWeight: defaultSemanticWeight,
			MinScore:       defaultSearchMinScore,
		},
		Summary: SummaryConfig{
			Enabled:  false,
			Provider: "ollama",
			Target:   defaultEmbeddingTarget,
			Model:    defaultSummaryModel,
		},
		Events: EventsConfig{
			Provider: defaultEventsProvider,
			Topic:    defaultEventsTopic,
		},
	}
}
