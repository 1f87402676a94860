package api

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// handleGraphExport returns the graph as a node/edge list for
// visualization, scoped to the requesting owner when the header is set.
func (s *Server) handleGraphExport(c *fiber.Ctx) error {
	return c.JSON(s.engine.ExportGraph(s.owner(c)))
}

// handleGraphStats returns graph-wide counts, scoped to the requesting
// owner when the header is set.
func (s *Server) handleGraphStats(c *fiber.Ctx) error {
	return c.JSON(s.engine.GraphStats(s.owner(c)))
}

// handleTierStats returns the hot/cold memory distribution.
func (s *Server) handleTierStats(c *fiber.Ctx) error {
	if s.config.Tiering == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
			Error: "tiering is not configured",
		})
	}
	return c.JSON(s.config.Tiering.TierStats())
}

// handleClearOwner removes every memory, relationship, and document owned
// by the requesting owner, from the graph, the indices, the tier cache,
// and the document registry.
func (s *Server) handleClearOwner(c *fiber.Ctx) error {
	owner, err := s.requireOwner(c)
	if err != nil {
		return err
	}

	result := s.engine.ClearOwner(c.Context(), owner)

	if s.config.Tiering != nil {
		s.config.Tiering.Remove(result.MemoryIDs)
	}

	documents := 0
	if s.config.Documents != nil {
		documents, err = s.config.Documents.DeleteByOwner(c.Context(), owner)
		if err != nil {
			s.logger.Error("failed to delete owner documents",
				zap.String("owner", owner),
				zap.Error(err),
			)
		}
	}

	return c.JSON(map[string]any{
		"memories":      result.Memories,
		"relationships": result.Relationships,
		"documents":     documents,
	})
}
