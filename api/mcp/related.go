package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/engramlabs/engram/pkg/graph"
)

var (
	relatedToolName    = "memory_related"
	relatedDescription = "Walk the knowledge graph outward from a memory. Returns memories connected to it through updates, extends, derives, or similar relationships, up to the given depth."
)

// RelatedInput represents the input arguments for the memory_related tool.
type RelatedInput struct {
	MemoryID string `json:"memory_id" jsonschema:"the id of the memory to start from"`
	Owner    string `json:"owner" jsonschema:"the owner of the memory"`
	MaxDepth int    `json:"max_depth,omitempty" jsonschema:"traversal depth in hops (default: 2)"`
}

// RelatedMemory represents one memory reached by the traversal.
type RelatedMemory struct {
	ID       string `json:"id"`
	Content  string `json:"content"`
	Summary  string `json:"summary,omitempty"`
	IsLatest bool   `json:"is_latest"`
}

// RelatedOutput represents the output of the memory_related tool.
type RelatedOutput struct {
	MemoryID string          `json:"memory_id"`
	Related  []RelatedMemory `json:"related"`
	Count    int             `json:"count"`
}

// handleMemoryRelated processes a graph traversal request via MCP.
func (s *Server) handleMemoryRelated(_ context.Context, _ *mcp.CallToolRequest, input RelatedInput) (*mcp.CallToolResult, RelatedOutput, error) {
	if input.MemoryID == "" {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: "memory_id is required"},
			},
		}, RelatedOutput{}, nil
	}
	if input.Owner == "" {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: "owner is required"},
			},
		}, RelatedOutput{}, nil
	}

	maxDepth := input.MaxDepth
	if maxDepth <= 0 {
		maxDepth = 2
	}

	related, err := s.config.Searcher.Related(input.MemoryID, maxDepth, input.Owner)
	if errors.Is(err, graph.ErrAccessDenied) {
		// Denied reads as not found so ids cannot be probed across owners.
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: "memory not found"},
			},
		}, RelatedOutput{}, nil
	}
	if err != nil {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Traversal failed: %v", err)},
			},
		}, RelatedOutput{}, nil
	}

	memories := make([]RelatedMemory, 0, len(related))
	for _, memory := range related {
		memories = append(memories, RelatedMemory{
			ID:       memory.ID,
			Content:  memory.Content,
			Summary:  memory.Summary,
			IsLatest: memory.IsLatest,
		})
	}

	output := RelatedOutput{
		MemoryID: input.MemoryID,
		Related:  memories,
		Count:    len(memories),
	}

	jsonBytes, err := json.Marshal(output)
	if err != nil {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Failed to serialize results: %v", err)},
			},
		}, RelatedOutput{}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}
