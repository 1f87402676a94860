// Package servecmder provides the serve command that runs the engram API
// server and its ingestion workers.
package servecmder

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/engramlabs/engram/api"
	"github.com/engramlabs/engram/api/mcp"
	"github.com/engramlabs/engram/pkg/chunk"
	"github.com/engramlabs/engram/pkg/config"
	"github.com/engramlabs/engram/pkg/docstore"
	docstoreutils "github.com/engramlabs/engram/pkg/docstore/utils"
	"github.com/engramlabs/engram/pkg/embeddings"
	"github.com/engramlabs/engram/pkg/embeddings/ollama"
	"github.com/engramlabs/engram/pkg/eventstream"
	eskafka "github.com/engramlabs/engram/pkg/eventstream/kafka"
	"github.com/engramlabs/engram/pkg/eventstream/nop"
	"github.com/engramlabs/engram/pkg/graph"
	"github.com/engramlabs/engram/pkg/ingest"
	"github.com/engramlabs/engram/pkg/ingest/worker"
	"github.com/engramlabs/engram/pkg/logger"
	"github.com/engramlabs/engram/pkg/search"
	"github.com/engramlabs/engram/pkg/summarize"
	sumollama "github.com/engramlabs/engram/pkg/summarize/ollama"
	"github.com/engramlabs/engram/pkg/tier"
	"github.com/engramlabs/engram/pkg/vector"
	vectorutils "github.com/engramlabs/engram/pkg/vector/utils"
)

type ServeCommander struct {
	listen            string
	vectorProvider    string
	vectorTarget      string
	vectorPath        string
	docstoreProvider  string
	embeddingProvider string
	embeddingTarget   string
	embeddingModel    string
	embeddingDims     uint
	eventsProvider    string
	eventsBrokers     string
	noMCP             bool

	debug   bool
	logJSON bool
	v       *viper.Viper
	logger  *zap.Logger
}

const serveLongDesc string = `Run the engram API server.

Starts the similarity indices, rehydrates the knowledge graph from the
durable index, and serves the HTTP API (including the MCP endpoint at /mcp)
until interrupted.

Examples:
  engram serve
  engram serve --listen :9090 --vector-store-provider qdrant --vector-store-target localhost:6334
  engram serve --docstore-provider sqlite --events-provider kafka --events-brokers localhost:9092`

const serveShortDesc string = "Run the engram API server"

// serveFlagKeys lists the registry flags the serve command binds to viper.
var serveFlagKeys = []string{
	config.FlagAPIListen,
	config.FlagVectorStoreProv,
	config.FlagVectorStoreTgt,
	config.FlagVectorStorePath,
	config.FlagDocstoreProv,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
	config.FlagEventsProvider,
	config.FlagEventsBrokers,
}

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return err
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, serveFlagKeys)
			cmder.v = v
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}
			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPIListen, &cmder.listen)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreProv, &cmder.vectorProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreTgt, &cmder.vectorTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStorePath, &cmder.vectorPath)
	config.AddStringFlag(cmd, config.Flags, config.FlagDocstoreProv, &cmder.docstoreProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingProv, &cmder.embeddingProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingTgt, &cmder.embeddingTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingModel, &cmder.embeddingModel)
	config.AddUintFlag(cmd, config.Flags, config.FlagEmbeddingDims, &cmder.embeddingDims)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventsProvider, &cmder.eventsProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventsBrokers, &cmder.eventsBrokers)
	cmd.Flags().BoolVar(&cmder.noMCP, "no-mcp", false, "Disable the MCP endpoint")
	cmd.Flags().BoolVar(&cmder.logJSON, "log-json", false, "Emit JSON logs instead of console output")

	return cmd
}

func (c *ServeCommander) run() error {
	if c.logJSON {
		c.logger = logger.NewJSONLogger(c.debug)
	} else {
		c.logger = logger.NewLogger(c.debug)
	}
	defer c.logger.Sync()

	ctx := context.Background()
	v := c.v

	// Embedding provider and similarity indices come up first; everything
	// else layers on top of them.
	embedder, err := c.createEmbedder()
	if err != nil {
		return err
	}
	defer embedder.Close()

	memIndex, err := c.createIndex(ctx, v.GetString("vector_store.memory_collection"), v.GetUint("embedding.dimensions"))
	if err != nil {
		return fmt.Errorf("creating memory index: %w", err)
	}
	defer memIndex.Close()

	// The relationship collection stores one-dimensional confidence
	// vectors, not embeddings; creating it at embedding width would make
	// the index reject every relationship upsert.
	relIndex, err := c.createIndex(ctx, v.GetString("vector_store.relationship_collection"), graph.RelationshipDimensions)
	if err != nil {
		return fmt.Errorf("creating relationship index: %w", err)
	}
	defer relIndex.Close()

	// Graph engine next, rehydrated before anything can serve reads.
	engine := graph.NewEngine(memIndex, relIndex, c.logger)
	engine.Hydrate(ctx)

	tiering := tier.NewManager(tier.Config{
		ColdEnabled:        v.GetBool("tiering.cold_enabled"),
		HotAgeDays:         v.GetInt("tiering.hot_age_days"),
		HotAccessThreshold: v.GetInt("tiering.hot_access_threshold"),
	}, c.logger)
	for _, memory := range engine.AllMemories("") {
		tiering.Track(memory)
	}

	documents, err := c.createDocstore(ctx)
	if err != nil {
		return fmt.Errorf("creating docstore: %w", err)
	}
	defer documents.Close()

	publisher, err := c.createPublisher()
	if err != nil {
		return fmt.Errorf("creating event publisher: %w", err)
	}
	defer publisher.Close()

	// Ingestion and search pipelines come last.
	policy := ingest.DefaultPolicy()
	policy.UpdateThreshold = v.GetFloat64("graph.update_threshold")
	policy.ExtendThreshold = v.GetFloat64("graph.extend_threshold")
	policy.NeighborFloor = v.GetFloat64("graph.neighbor_floor")
	policy.NeighborLimit = v.GetInt("graph.neighbor_limit")

	pipeline, err := ingest.NewPipeline(&ingest.Config{
		Engine:         engine,
		MemoryIndex:    memIndex,
		Embedder:       embedder,
		Docstore:       documents,
		Classifier:     ingest.NewClassifier(engine, memIndex, policy, c.logger),
		Chunker:        c.createChunker(),
		Tiering:        tiering,
		Summarizer:     c.createSummarizer(),
		Publisher:      publisher,
		EmbeddingModel: v.GetString("embedding.model"),
		Logger:         c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating pipeline: %w", err)
	}

	pool, err := worker.NewPool(&worker.Config{
		Pipeline:   pipeline,
		NumWorkers: v.GetUint("ingest.workers"),
		QueueSize:  v.GetUint("ingest.queue_size"),
		Logger:     c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating worker pool: %w", err)
	}

	searcher := search.NewService(engine, memIndex, embedder, tiering, c.logger)

	var mcpServer *mcp.Server
	if !c.noMCP {
		mcpServer, err = mcp.NewServer(mcp.Config{
			Searcher: searcher,
			Pipeline: pipeline,
			Logger:   c.logger,
		})
		if err != nil {
			return fmt.Errorf("creating MCP server: %w", err)
		}
	}

	apiServer := api.NewServer(api.Config{
		ListenAddr: v.GetString("api.listen"),
		Pipeline:   pipeline,
		Workers:    pool,
		Searcher:   searcher,
		Documents:  documents,
		Tiering:    tiering,
		MCP:        mcpServer,
	}, engine, c.logger)

	errChan := make(chan error, 1)
	go func() {
		if err := apiServer.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		pool.Close()
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	}

	// Stop accepting requests, then drain queued ingestions so accepted
	// documents still land in the graph.
	if err := apiServer.Shutdown(); err != nil {
		c.logger.Error("API server shutdown failed", zap.Error(err))
	}
	pool.Close()

	return nil
}

func (c *ServeCommander) createEmbedder() (embeddings.Embedder, error) {
	v := c.v
	provider := v.GetString("embedding.provider")
	switch provider {
	case "ollama":
		return ollama.NewEmbedder(ollama.EmbedderConfig{
			BaseURL: v.GetString("embedding.target"),
			Model:   v.GetString("embedding.model"),
		})
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", provider)
	}
}

func (c *ServeCommander) createIndex(ctx context.Context, collection string, dimensions uint) (vector.Driver, error) {
	v := c.v
	return vectorutils.NewVectorDriver(ctx, &vectorutils.NewVectorDriverOpts{
		ProviderType: v.GetString("vector_store.provider"),
		TargetURL:    v.GetString("vector_store.target"),
		DBPath:       v.GetString("vector_store.path"),
		Collection:   collection,
		Dimensions:   dimensions,
		Logger:       c.logger,
	})
}

func (c *ServeCommander) createDocstore(ctx context.Context) (docstore.Driver, error) {
	v := c.v
	return docstoreutils.NewDocstoreDriver(ctx, &docstoreutils.NewDocstoreDriverOpts{
		ProviderType: v.GetString("docstore.provider"),
		SQLitePath:   v.GetString("docstore.sqlite_path"),
		PostgresDSN:  v.GetString("docstore.postgres_dsn"),
	})
}

func (c *ServeCommander) createChunker() *chunk.Chunker {
	v := c.v
	return chunk.NewChunker(v.GetInt("chunking.size"), v.GetInt("chunking.overlap"))
}

func (c *ServeCommander) createSummarizer() summarize.Summarizer {
	v := c.v
	if !v.GetBool("summary.enabled") {
		return nil
	}

	summarizer, err := sumollama.NewSummarizer(sumollama.Config{
		BaseURL: v.GetString("summary.target"),
		Model:   v.GetString("summary.model"),
	})
	if err != nil {
		c.logger.Warn("summarizer unavailable, continuing without summaries", zap.Error(err))
		return nil
	}
	return summarizer
}

func (c *ServeCommander) createPublisher() (eventstream.Publisher, error) {
	v := c.v
	provider := v.GetString("events.provider")
	switch provider {
	case "", "nop":
		return nop.NewPublisher(), nil
	case "kafka":
		cfg := config.EventsConfig{Brokers: v.GetString("events.brokers")}
		return eskafka.NewPublisher(eskafka.Config{
			Brokers: cfg.BrokerList(),
			Topic:   v.GetString("events.topic"),
		}, c.logger)
	default:
		return nil, fmt.Errorf("unsupported events provider: %s", provider)
	}
}
