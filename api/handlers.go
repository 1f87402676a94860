package api

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
)

// ownerHeader carries the tenant identity resolved by whatever sits in
// front of the API. Only its value matters here.
const ownerHeader = "X-Engram-Owner"

// ErrorResponse is the JSON body for all error replies.
type ErrorResponse struct {
	Error string `json:"error"`
}

// owner returns the tenant id for the request, or "" when absent.
func (s *Server) owner(c *fiber.Ctx) string {
	return c.Get(ownerHeader)
}

// requireOwner extracts the tenant id or writes a 400 response.
func (s *Server) requireOwner(c *fiber.Ctx) (string, error) {
	owner := s.owner(c)
	if owner == "" {
		return "", c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: ownerHeader + " header is required",
		})
	}
	return owner, nil
}

// queryInt parses an integer query parameter, falling back to def when it
// is absent.
func queryInt(c *fiber.Ctx, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleHealth reports liveness plus a snapshot of graph-wide counts.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"stats":     s.engine.GraphStats(""),
	})
}
