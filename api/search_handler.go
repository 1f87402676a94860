package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/engramlabs/engram/pkg/graph"
	"github.com/engramlabs/engram/pkg/search"
)

const maxSearchLimit = 100

// SearchRequest is the body for POST /memories/search.
type SearchRequest struct {
	Query    string   `json:"query"`
	Limit    int      `json:"limit"`
	Keywords []string `json:"keywords"`

	// SemanticWeight defaults to 0.7 when omitted.
	SemanticWeight *float64 `json:"semantic_weight"`

	// OnlyLatest defaults to true when omitted.
	OnlyLatest *bool `json:"only_latest"`

	IncludeInactive bool `json:"include_inactive"`
}

// handleSearchEndpoint handles POST /memories/search requests.
func (s *Server) handleSearchEndpoint(c *fiber.Ctx) error {
	if s.config.Searcher == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
			Error: "search is not configured",
		})
	}

	owner, err := s.requireOwner(c)
	if err != nil {
		return err
	}

	var req SearchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "invalid request body",
		})
	}

	if req.Query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "query is required",
		})
	}
	if req.Limit < 0 || req.Limit > maxSearchLimit {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "limit must be between 1 and 100",
		})
	}

	query := search.NewQuery(req.Query, owner)
	query.Limit = req.Limit
	query.Keywords = req.Keywords
	query.IncludeInactive = req.IncludeInactive
	if req.SemanticWeight != nil {
		query.SemanticWeight = *req.SemanticWeight
	}
	if req.OnlyLatest != nil {
		query.OnlyLatest = *req.OnlyLatest
	}

	results, err := s.config.Searcher.Search(c.Context(), query)
	if err != nil {
		s.logger.Error("search failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: err.Error(),
		})
	}

	return c.JSON(results)
}

// handleGetMemory returns a single memory by id.
func (s *Server) handleGetMemory(c *fiber.Ctx) error {
	if s.config.Searcher == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
			Error: "search is not configured",
		})
	}

	owner, err := s.requireOwner(c)
	if err != nil {
		return err
	}

	memory := s.config.Searcher.Memory(c.Params("id"), owner)
	if memory == nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error: "memory not found",
		})
	}

	return c.JSON(memory)
}

// handleRelatedMemories returns memories reachable from the given memory.
// Query parameters:
//   - max_depth (optional, default 2): traversal depth in hops
func (s *Server) handleRelatedMemories(c *fiber.Ctx) error {
	if s.config.Searcher == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
			Error: "search is not configured",
		})
	}

	owner, err := s.requireOwner(c)
	if err != nil {
		return err
	}

	maxDepth, err := queryInt(c, "max_depth", 2)
	if err != nil || maxDepth < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "max_depth must be a non-negative integer",
		})
	}

	related, err := s.config.Searcher.Related(c.Params("id"), maxDepth, owner)
	if errors.Is(err, graph.ErrAccessDenied) {
		// Denied reads as not found so ids cannot be probed across owners.
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error: "memory not found",
		})
	}
	if err != nil {
		s.logger.Error("related traversal failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: err.Error(),
		})
	}
	if related == nil {
		related = []*graph.Memory{}
	}

	return c.JSON(related)
}

// handleTimeline returns the evolution of a topic, oldest memory first.
func (s *Server) handleTimeline(c *fiber.Ctx) error {
	if s.config.Searcher == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
			Error: "search is not configured",
		})
	}

	owner, err := s.requireOwner(c)
	if err != nil {
		return err
	}

	topic := c.Params("topic")
	timeline, err := s.config.Searcher.Timeline(c.Context(), owner, topic)
	if err != nil {
		s.logger.Error("timeline failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: err.Error(),
		})
	}

	return c.JSON(timeline)
}
