// Package graph implements the memory knowledge graph: a directed multigraph
// of owner-scoped memories connected by typed relationships. The graph is an
// in-memory projection rebuilt from the vector index at startup; the index,
// not the graph, is the durable store.
package graph

import (
	"time"

	"github.com/google/uuid"
)

// previewLength bounds the content excerpt carried on export nodes.
const previewLength = 100

// Memory is one embedded, owner-scoped chunk of ingested content.
type Memory struct {
	ID string `json:"id"`

	// Owner is the tenant identifier scoping every query that touches this
	// memory. It never changes after creation.
	Owner string `json:"owner"`

	Content string `json:"content"`
	Summary string `json:"summary,omitempty"`

	// DocumentID identifies the parent document; ChunkIndex is the memory's
	// position within it.
	DocumentID string `json:"document_id"`
	ChunkIndex int    `json:"chunk_index"`

	// Embedding is the dense vector for the content. A memory without an
	// embedding cannot participate in relationship detection or search.
	Embedding      []float32 `json:"-"`
	EmbeddingModel string    `json:"embedding_model,omitempty"`

	// IsLatest flips to false when a later memory supersedes this one via an
	// UPDATES relationship. IsActive flips to false when the memory expires.
	IsLatest bool `json:"is_latest"`
	IsActive bool `json:"is_active"`

	Keywords []string       `json:"keywords,omitempty"`
	Entities []string       `json:"entities,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`

	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	AccessedAt time.Time `json:"accessed_at,omitempty"`

	// RelationshipIDs lists the relationships this memory is the source of.
	RelationshipIDs []string `json:"relationship_ids,omitempty"`

	AccessCount int `json:"access_count"`
}

// NewMemory creates a memory for one chunk of a document.
func NewMemory(owner, content, documentID string, chunkIndex int) *Memory {
	now := time.Now().UTC()
	return &Memory{
		ID:         uuid.NewString(),
		Owner:      owner,
		Content:    content,
		DocumentID: documentID,
		ChunkIndex: chunkIndex,
		IsLatest:   true,
		IsActive:   true,
		Metadata:   map[string]any{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Preview returns a truncated content excerpt for stats and export labels.
func (m *Memory) Preview() string {
	runes := []rune(m.Content)
	if len(runes) <= previewLength {
		return m.Content
	}
	return string(runes[:previewLength])
}

// Age returns how long ago the memory was created.
func (m *Memory) Age() time.Duration {
	return time.Since(m.CreatedAt)
}
