// Package api provides an HTTP API server for ingesting documents and
// querying the memory knowledge graph.
package api

import (
	"github.com/engramlabs/engram/api/mcp"
	"github.com/engramlabs/engram/pkg/docstore"
	"github.com/engramlabs/engram/pkg/ingest"
	"github.com/engramlabs/engram/pkg/ingest/worker"
	"github.com/engramlabs/engram/pkg/search"
	"github.com/engramlabs/engram/pkg/tier"
)

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8080")
	ListenAddr string

	// Pipeline runs document ingestion.
	Pipeline *ingest.Pipeline

	// Workers, when set, processes note ingestion asynchronously; note
	// requests are accepted with a queued document and processed in the
	// background. When nil, ingestion runs inline.
	Workers *worker.Pool

	// Searcher answers memory search, lookup, and timeline queries.
	Searcher *search.Service

	// Documents is the document status registry.
	Documents docstore.Driver

	// Tiering tracks hot/cold memory placement.
	Tiering *tier.Manager

	// MCP, when set, is mounted at /mcp.
	MCP *mcp.Server
}
