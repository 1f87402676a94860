// Package mcp provides an MCP (Model Context Protocol) server for the
// Engram memory graph.
package mcp

import (
	"errors"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/engramlabs/engram/pkg/ingest"
	"github.com/engramlabs/engram/pkg/search"
	"github.com/engramlabs/engram/pkg/utils"
)

type Config struct {
	// Searcher answers memory_search and memory_related tool calls
	Searcher *search.Service

	// Pipeline runs ingestion for the ingest_note tool (optional,
	// enables ingest_note)
	Pipeline *ingest.Pipeline

	// Noop for empty MCP server
	Noop bool

	// Logger is the configured zap logger
	Logger *zap.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the memory tools.
func NewServer(c Config) (*Server, error) {
	s := &Server{
		config: c,
	}

	// Create the MCP server
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "engram",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	if c.Noop {
		// return the empty MCP server with no tools configured
		// if the noop flag is set (i.e., MCP capabilities are disabled)
		s.mcpServer = mcpServer
		return s, nil
	}

	if c.Searcher == nil {
		return nil, errors.New("search service is required")
	}
	if c.Logger == nil {
		return nil, errors.New("logger is required")
	}

	// Add tools
	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        searchToolName,
		Description: searchDescription,
	}, s.handleMemorySearch)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        relatedToolName,
		Description: relatedDescription,
	}, s.handleMemoryRelated)

	// Add the ingestion tool if a pipeline is configured
	if c.Pipeline != nil {
		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        ingestToolName,
			Description: ingestDescription,
		}, s.handleIngestNote)
	}

	s.mcpServer = mcpServer

	// Create a streamable HTTP net/http handler for stateless operations
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}
