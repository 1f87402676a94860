package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/engramlabs/engram/pkg/search"
)

var (
	searchToolName    = "memory_search"
	searchDescription = "Search stored memories using semantic search blended with keyword matching. Returns the most relevant memories for the owner, each with a relevance score, an explanation, and the ids of related memories in the knowledge graph."
)

// SearchInput represents the input arguments for the memory_search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the search query text to find relevant memories"`
	Owner string `json:"owner" jsonschema:"the owner whose memories to search"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"number of results to return (default: 5)"`
}

// SearchResult represents a single search result.
type SearchResult struct {
	ID          string   `json:"id"`
	Content     string   `json:"content"`
	Summary     string   `json:"summary,omitempty"`
	Score       float64  `json:"score"`
	Explanation string   `json:"explanation"`
	IsLatest    bool     `json:"is_latest"`
	RelatedIDs  []string `json:"related_memories"`
}

// SearchOutput represents the output of the memory_search tool.
type SearchOutput struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
	Count   int            `json:"count"`
}

// handleMemorySearch processes a search request.
func (s *Server) handleMemorySearch(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	logger := s.config.Logger

	if input.Owner == "" {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: "owner is required"},
			},
		}, SearchOutput{}, nil
	}

	// Default topK if not specified
	topK := input.TopK
	if topK <= 0 {
		topK = 5
	}

	logger.Debug("MCP search request",
		zap.String("query", input.Query),
		zap.String("owner", input.Owner),
		zap.Int("topK", topK),
	)

	query := search.NewQuery(input.Query, input.Owner)
	query.Limit = topK

	results, err := s.config.Searcher.Search(ctx, query)
	if err != nil {
		logger.Error("failed to search memories", zap.Error(err))
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Search failed: %v", err)},
			},
		}, SearchOutput{}, nil
	}

	searchResults := make([]SearchResult, 0, len(results))
	for _, result := range results {
		searchResults = append(searchResults, SearchResult{
			ID:          result.Memory.ID,
			Content:     result.Memory.Content,
			Summary:     result.Memory.Summary,
			Score:       result.Score,
			Explanation: result.Explanation,
			IsLatest:    result.Memory.IsLatest,
			RelatedIDs:  result.RelatedIDs,
		})
	}

	output := SearchOutput{
		Query:   input.Query,
		Results: searchResults,
		Count:   len(searchResults),
	}

	// Serialize the structured output as JSON for the text field
	// Per MCP spec: tools returning structured content should also return
	// serialized JSON in a TextContent block for backwards compatibility
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal search output", zap.Error(err))
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Failed to serialize results: %v", err)},
			},
		}, SearchOutput{}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}
