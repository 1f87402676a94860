package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/engramlabs/engram/pkg/content/file"
	"github.com/engramlabs/engram/pkg/content/link"
	"github.com/engramlabs/engram/pkg/docstore"
	"github.com/engramlabs/engram/pkg/ingest"
	"github.com/engramlabs/engram/pkg/ingest/worker"
)

// IngestNoteRequest is the body for POST /documents/ingest.
type IngestNoteRequest struct {
	Content string `json:"content"`
	Title   string `json:"title"`
	Source  string `json:"source"`
}

// IngestLinkRequest is the body for POST /documents/ingest/link.
type IngestLinkRequest struct {
	URL string `json:"url"`
}

// IngestFileRequest is the body for POST /documents/ingest/file.
type IngestFileRequest struct {
	Path string `json:"path"`
}

// handleIngestNote ingests raw note text. With a worker pool configured the
// document is registered and queued, and the response is the queued record;
// otherwise the full pipeline runs before responding.
func (s *Server) handleIngestNote(c *fiber.Ctx) error {
	if s.config.Pipeline == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
			Error: "ingestion is not configured",
		})
	}

	owner, err := s.requireOwner(c)
	if err != nil {
		return err
	}

	var req IngestNoteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "invalid request body",
		})
	}

	if s.config.Workers != nil {
		return s.enqueueNote(c, owner, req)
	}

	doc, err := s.config.Pipeline.IngestText(c.Context(), owner, req.Content, req.Title, req.Source)
	if err != nil {
		return s.ingestError(c, err)
	}

	return c.JSON(doc)
}

// enqueueNote registers the document and hands it to the worker pool.
func (s *Server) enqueueNote(c *fiber.Ctx, owner string, req IngestNoteRequest) error {
	if err := ingest.ValidateNote(req.Content, req.Title, req.Source); err != nil {
		return s.ingestError(c, err)
	}

	doc := docstore.NewDocument(owner, req.Title, req.Source, docstore.TypeText)
	if err := s.config.Documents.Save(c.Context(), doc); err != nil {
		s.logger.Error("failed to register document", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "failed to register document",
		})
	}

	if !s.config.Workers.Enqueue(worker.Job{Document: doc, Text: req.Content}) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
			Error: "ingestion queue is full",
		})
	}

	return c.Status(fiber.StatusAccepted).JSON(doc)
}

// handleIngestLink fetches a URL and ingests its extracted text.
func (s *Server) handleIngestLink(c *fiber.Ctx) error {
	if s.config.Pipeline == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
			Error: "ingestion is not configured",
		})
	}

	owner, err := s.requireOwner(c)
	if err != nil {
		return err
	}

	var req IngestLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "invalid request body",
		})
	}
	if req.URL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "url is required",
		})
	}

	doc, err := s.config.Pipeline.IngestContent(c.Context(), owner, req.URL, docstore.TypeLink, link.NewProducer())
	if err != nil {
		return s.ingestError(c, err)
	}

	return c.JSON(doc)
}

// handleIngestFile reads a local text file and ingests its contents.
func (s *Server) handleIngestFile(c *fiber.Ctx) error {
	if s.config.Pipeline == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
			Error: "ingestion is not configured",
		})
	}

	owner, err := s.requireOwner(c)
	if err != nil {
		return err
	}

	var req IngestFileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "invalid request body",
		})
	}
	if req.Path == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "path is required",
		})
	}

	doc, err := s.config.Pipeline.IngestContent(c.Context(), owner, req.Path, docstore.TypeFile, file.NewProducer())
	if err != nil {
		return s.ingestError(c, err)
	}

	return c.JSON(doc)
}

// ingestError translates pipeline errors into status codes.
func (s *Server) ingestError(c *fiber.Ctx, err error) error {
	if errors.Is(err, ingest.ErrInvalidInput) {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}
	s.logger.Error("ingestion failed", zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: err.Error()})
}

// handleListDocuments returns the owner's documents, newest first.
func (s *Server) handleListDocuments(c *fiber.Ctx) error {
	owner, err := s.requireOwner(c)
	if err != nil {
		return err
	}

	docs, err := s.config.Documents.List(c.Context(), owner)
	if err != nil {
		s.logger.Error("failed to list documents", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "failed to list documents",
		})
	}

	return c.JSON(map[string]any{
		"count":     len(docs),
		"documents": docs,
	})
}

// handleGetDocument returns a single document record, including its
// processing status.
func (s *Server) handleGetDocument(c *fiber.Ctx) error {
	owner, err := s.requireOwner(c)
	if err != nil {
		return err
	}

	doc, err := s.config.Documents.Get(c.Context(), c.Params("id"), owner)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error: "document not found",
		})
	}

	return c.JSON(doc)
}

// handleDocumentMemories returns the memories created from a document.
// Query parameters:
//   - skip (optional, default 0): offset into the document's memory list
//   - limit (optional, default 50): maximum number of memories to return
func (s *Server) handleDocumentMemories(c *fiber.Ctx) error {
	owner, err := s.requireOwner(c)
	if err != nil {
		return err
	}

	skip, err := queryInt(c, "skip", 0)
	if err != nil || skip < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "skip must be a non-negative integer",
		})
	}
	limit, err := queryInt(c, "limit", 50)
	if err != nil || limit <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "limit must be a positive integer",
		})
	}

	doc, err := s.config.Documents.Get(c.Context(), c.Params("id"), owner)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error: "document not found",
		})
	}

	ids := doc.MemoryIDs
	if skip >= len(ids) {
		ids = nil
	} else {
		ids = ids[skip:]
	}
	if len(ids) > limit {
		ids = ids[:limit]
	}

	memories := make([]any, 0, len(ids))
	for _, id := range ids {
		if m := s.engine.Memory(id, owner); m != nil {
			memories = append(memories, m)
		}
	}

	return c.JSON(memories)
}
