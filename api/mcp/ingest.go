package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

var (
	ingestToolName    = "ingest_note"
	ingestDescription = "Store a note in the memory graph. The note is chunked, embedded, and linked to existing memories; superseded information is marked outdated automatically."
)

// IngestInput represents the input arguments for the ingest_note tool.
type IngestInput struct {
	Content string `json:"content" jsonschema:"the note text to remember"`
	Owner   string `json:"owner" jsonschema:"the owner the note belongs to"`
	Title   string `json:"title,omitempty" jsonschema:"optional title for the note"`
	Source  string `json:"source,omitempty" jsonschema:"optional source attribution"`
}

// IngestOutput represents the output of the ingest_note tool.
type IngestOutput struct {
	DocumentID string   `json:"document_id"`
	Status     string   `json:"status"`
	MemoryIDs  []string `json:"memory_ids"`
}

// handleIngestNote processes an ingestion request via MCP.
func (s *Server) handleIngestNote(ctx context.Context, _ *mcp.CallToolRequest, input IngestInput) (*mcp.CallToolResult, IngestOutput, error) {
	logger := s.config.Logger

	if input.Owner == "" {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: "owner is required"},
			},
		}, IngestOutput{}, nil
	}

	doc, err := s.config.Pipeline.IngestText(ctx, input.Owner, input.Content, input.Title, input.Source)
	if err != nil {
		logger.Error("failed to ingest note", zap.Error(err))
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Ingestion failed: %v", err)},
			},
		}, IngestOutput{}, nil
	}

	output := IngestOutput{
		DocumentID: doc.ID,
		Status:     string(doc.Status),
		MemoryIDs:  doc.MemoryIDs,
	}

	jsonBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal ingest output", zap.Error(err))
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Failed to serialize results: %v", err)},
			},
		}, IngestOutput{}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}
