// Package search queries memories by combining semantic similarity with
// keyword overlap and graph context.
package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/engramlabs/engram/pkg/embeddings"
	"github.com/engramlabs/engram/pkg/graph"
	"github.com/engramlabs/engram/pkg/tier"
	"github.com/engramlabs/engram/pkg/vector"
)

const (
	// minScore is the relevance floor for semantic candidates.
	minScore = 0.3

	// overfetchFactor widens the index query so post-filtering still fills
	// the requested limit.
	overfetchFactor = 2

	defaultLimit          = 10
	defaultSemanticWeight = 0.7

	maxRelatedIDs    = 5
	timelineLimit    = 50
	relatedHopsDepth = 1
)

// Query describes one search request.
type Query struct {
	Text  string
	Owner string

	// Limit caps the number of results (defaults to 10).
	Limit int

	// Keywords, when present, blend a keyword-Jaccard score into the
	// ranking.
	Keywords []string

	// SemanticWeight balances semantic vs keyword score when keywords are
	// given (defaults to 0.7).
	SemanticWeight float64

	// OnlyLatest drops superseded memories; IncludeInactive keeps expired
	// ones.
	OnlyLatest      bool
	IncludeInactive bool
}

// NewQuery creates a query with the default limit, weighting, and
// latest-only filtering.
func NewQuery(text, owner string) Query {
	return Query{
		Text:           text,
		Owner:          owner,
		Limit:          defaultLimit,
		SemanticWeight: defaultSemanticWeight,
		OnlyLatest:     true,
	}
}

// Result is one scored search hit with its graph context.
type Result struct {
	Memory *graph.Memory `json:"memory"`

	// Score is the combined semantic and keyword relevance.
	Score float64 `json:"score"`

	// Explanation says, for humans, why the result ranked where it did.
	Explanation string `json:"explanation"`

	// RelatedIDs lists up to five memories one hop away in the graph.
	RelatedIDs []string `json:"related_memories"`
}

// Service executes searches against the similarity index and the graph.
type Service struct {
	engine      *graph.Engine
	memoryIndex vector.Driver
	embedder    embeddings.Embedder

	// tiering, when set, gets an access touch for every returned memory.
	tiering *tier.Manager

	logger *zap.Logger
}

// NewService creates a search service. The tier manager is optional.
func NewService(engine *graph.Engine, memoryIndex vector.Driver, embedder embeddings.Embedder, tiering *tier.Manager, logger *zap.Logger) *Service {
	return &Service{
		engine:      engine,
		memoryIndex: memoryIndex,
		embedder:    embedder,
		tiering:     tiering,
		logger:      logger,
	}
}

// Search embeds the query text, gathers semantic candidates, filters and
// re-ranks them, and records an access on every returned memory.
func (s *Service) Search(ctx context.Context, query Query) ([]Result, error) {
	if query.Limit <= 0 {
		query.Limit = defaultLimit
	}
	if query.SemanticWeight <= 0 {
		query.SemanticWeight = defaultSemanticWeight
	}

	queryVector, err := s.embedder.Embed(ctx, query.Text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	candidates, err := s.memoryIndex.Search(ctx, queryVector, vector.SearchOpts{
		Limit:          query.Limit * overfetchFactor,
		ScoreThreshold: minScore,
		Owner:          query.Owner,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search index: %w", err)
	}

	results := make([]Result, 0, len(candidates))
	for _, candidate := range candidates {
		memory := s.engine.Memory(candidate.ID, query.Owner)
		if memory == nil {
			continue
		}
		if query.OnlyLatest && !memory.IsLatest {
			continue
		}
		if !query.IncludeInactive && !memory.IsActive {
			continue
		}

		semanticScore := float64(candidate.Score)
		keywordScore := keywordJaccard(query.Keywords, memory.Keywords)

		combined := semanticScore
		if len(query.Keywords) > 0 {
			combined = query.SemanticWeight*semanticScore + (1-query.SemanticWeight)*keywordScore
		}

		results = append(results, Result{
			Memory:      s.touch(memory, query.Owner),
			Score:       combined,
			Explanation: explain(memory, semanticScore, keywordScore),
			RelatedIDs:  s.relatedIDs(memory.ID, query.Owner),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > query.Limit {
		results = results[:query.Limit]
	}

	s.logger.Debug("search completed",
		zap.String("owner", query.Owner),
		zap.Int("results", len(results)),
	)

	return results, nil
}

// Memory looks up one memory by id, recording the access.
func (s *Service) Memory(id, owner string) *graph.Memory {
	memory := s.engine.Memory(id, owner)
	if memory == nil {
		return nil
	}
	return s.touch(memory, owner)
}

// Related traverses the graph from the memory up to maxDepth hops.
func (s *Service) Related(id string, maxDepth int, owner string) ([]*graph.Memory, error) {
	return s.engine.Related(id, "", maxDepth, owner)
}

// Timeline returns memories about a topic sorted oldest first, including
// superseded versions so callers can see how the information evolved.
func (s *Service) Timeline(ctx context.Context, owner, topic string) ([]*graph.Memory, error) {
	query := NewQuery(topic, owner)
	query.Limit = timelineLimit
	query.OnlyLatest = false

	results, err := s.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	memories := make([]*graph.Memory, 0, len(results))
	for _, result := range results {
		memories = append(memories, result.Memory)
	}
	sort.SliceStable(memories, func(i, j int) bool {
		return memories[i].CreatedAt.Before(memories[j].CreatedAt)
	})

	return memories, nil
}

// touch records an access on the memory and nudges the tier cache.
func (s *Service) touch(memory *graph.Memory, owner string) *graph.Memory {
	touched := s.engine.RecordAccess(memory.ID, owner)
	if touched == nil {
		return memory
	}
	if s.tiering != nil {
		s.tiering.Get(touched.ID)
	}
	return touched
}

// relatedIDs lists up to five memories one hop away.
func (s *Service) relatedIDs(memoryID, owner string) []string {
	related, err := s.engine.Related(memoryID, "", relatedHopsDepth, owner)
	if err != nil || len(related) == 0 {
		return nil
	}
	if len(related) > maxRelatedIDs {
		related = related[:maxRelatedIDs]
	}

	ids := make([]string, 0, len(related))
	for _, memory := range related {
		ids = append(ids, memory.ID)
	}
	return ids
}

// explain builds the human-readable ranking explanation.
func explain(memory *graph.Memory, semanticScore, keywordScore float64) string {
	var parts []string

	switch {
	case semanticScore > 0.8:
		parts = append(parts, fmt.Sprintf("high semantic similarity (%.2f)", semanticScore))
	case semanticScore > 0.6:
		parts = append(parts, fmt.Sprintf("good semantic match (%.2f)", semanticScore))
	default:
		parts = append(parts, fmt.Sprintf("moderate relevance (%.2f)", semanticScore))
	}

	if keywordScore > 0 {
		parts = append(parts, fmt.Sprintf("keyword match (%.2f)", keywordScore))
	}
	if !memory.IsLatest {
		parts = append(parts, "older version")
	}

	return strings.Join(parts, "; ")
}

// keywordJaccard computes |intersection| / |union| over two keyword lists,
// case-insensitively.
func keywordJaccard(query, memory []string) float64 {
	if len(query) == 0 || len(memory) == 0 {
		return 0
	}

	querySet := make(map[string]struct{}, len(query))
	for _, kw := range query {
		querySet[strings.ToLower(kw)] = struct{}{}
	}
	memorySet := make(map[string]struct{}, len(memory))
	for _, kw := range memory {
		memorySet[strings.ToLower(kw)] = struct{}{}
	}

	intersection := 0
	for kw := range querySet {
		if _, ok := memorySet[kw]; ok {
			intersection++
		}
	}
	union := len(querySet) + len(memorySet) - intersection
	if union == 0 {
		return 0
	}

	return float64(intersection) / float64(union)
}
