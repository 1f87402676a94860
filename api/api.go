package api

import (
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/engramlabs/engram/pkg/graph"
)

// Server is the API server for managing and querying the memory graph.
type Server struct {
	config Config
	engine *graph.Engine
	logger *zap.Logger
	app    *fiber.App
}

// NewServer creates a new API server.
// The engine is injected to allow sharing with other components
// (e.g., a CLI process embedding both the API and the ingestion workers).
func NewServer(config Config, engine *graph.Engine, logger *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config: config,
		engine: engine,
		logger: logger,
		app:    app,
	}

	app.Get("/ping", s.handlePing)
	app.Get("/health", s.handleHealth)

	app.Post("/documents/ingest", s.handleIngestNote)
	app.Post("/documents/ingest/link", s.handleIngestLink)
	app.Post("/documents/ingest/file", s.handleIngestFile)
	app.Get("/documents", s.handleListDocuments)
	app.Get("/documents/:id", s.handleGetDocument)
	app.Get("/documents/:id/memories", s.handleDocumentMemories)

	app.Post("/memories/search", s.handleSearchEndpoint)
	// Registered before /memories/:id so "timeline" is not read as an id.
	app.Get("/memories/timeline/:topic", s.handleTimeline)
	app.Get("/memories/:id", s.handleGetMemory)
	app.Get("/memories/:id/related", s.handleRelatedMemories)

	app.Get("/graph/export", s.handleGraphExport)
	app.Get("/graph/stats", s.handleGraphStats)
	app.Get("/tiers/stats", s.handleTierStats)

	app.Delete("/admin/owner-data", s.handleClearOwner)

	if config.MCP != nil {
		app.All("/mcp", adaptor.HTTPHandler(config.MCP.Handler()))
	}

	return s
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		zap.String("listen", s.config.ListenAddr),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
