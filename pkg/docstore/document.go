// Package docstore tracks ingested documents and their processing status.
package docstore

import (
	"time"

	"github.com/google/uuid"
)

// Status is the processing state of a document as it moves through the
// ingestion pipeline.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusExtracting Status = "extracting"
	StatusChunking   Status = "chunking"
	StatusEmbedding  Status = "embedding"
	StatusIndexing   Status = "indexing"
	StatusDone       Status = "done"
	StatusFailed     Status = "failed"
)

// DocumentType identifies where a document's content came from.
type DocumentType string

const (
	TypeText DocumentType = "text"
	TypeLink DocumentType = "link"
	TypeFile DocumentType = "file"
)

// Document is the registry record for a single ingested document. The
// document's content is not stored here; it lives in the memories the
// pipeline produced from it.
type Document struct {
	ID           string         `json:"id"`
	Owner        string         `json:"owner"`
	Title        string         `json:"title,omitempty"`
	Source       string         `json:"source,omitempty"`
	DocumentType DocumentType   `json:"document_type"`
	Status       Status         `json:"status"`
	ErrorMessage string         `json:"error_message,omitempty"`
	MemoryIDs    []string       `json:"memory_ids"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	ProcessedAt  *time.Time     `json:"processed_at,omitempty"`
}

// NewDocument creates a queued document record for the given owner.
func NewDocument(owner, title, source string, docType DocumentType) *Document {
	return &Document{
		ID:           uuid.NewString(),
		Owner:        owner,
		Title:        title,
		Source:       source,
		DocumentType: docType,
		Status:       StatusQueued,
		MemoryIDs:    []string{},
		CreatedAt:    time.Now().UTC(),
	}
}

// MarkDone records the produced memory IDs and stamps the completion time.
func (d *Document) MarkDone(memoryIDs []string) {
	now := time.Now().UTC()
	d.Status = StatusDone
	d.MemoryIDs = memoryIDs
	d.ProcessedAt = &now
}

// MarkFailed records the failure reason and stamps the completion time.
func (d *Document) MarkFailed(message string) {
	now := time.Now().UTC()
	d.Status = StatusFailed
	d.ErrorMessage = message
	d.ProcessedAt = &now
}
