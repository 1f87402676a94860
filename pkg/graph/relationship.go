package graph

import (
	"time"

	"github.com/google/uuid"
)

// RelType labels the semantic connection a relationship asserts between two
// memories.
type RelType string

const (
	// RelUpdates marks new information superseding existing knowledge.
	RelUpdates RelType = "updates"
	// RelExtends marks new information elaborating existing knowledge.
	RelExtends RelType = "extends"
	// RelDerives marks a connection inferred from shared entities or keywords.
	RelDerives RelType = "derives"
	// RelSimilar marks semantically near-duplicate memories.
	RelSimilar RelType = "similar"
)

// RelTypes lists every relationship type in a stable order.
var RelTypes = []RelType{RelUpdates, RelExtends, RelDerives, RelSimilar}

// RelationshipDimensions is the vector width of persisted relationship
// points. Relationships exist for their payload; the vector is a
// one-dimensional confidence stand-in, so the relationship collection must
// be created with this dimension, not the embedding dimension.
const RelationshipDimensions uint = 1

// Relationship is a directed, typed edge between two memories of one owner.
// Multiple relationships of different types may connect the same pair.
type Relationship struct {
	ID string `json:"id"`

	FromMemoryID string  `json:"from_memory_id"`
	ToMemoryID   string  `json:"to_memory_id"`
	Type         RelType `json:"relationship_type"`

	// Confidence is always within [0,1].
	Confidence float64 `json:"confidence"`

	// SimilarityScore is only meaningful for embedding-derived relationships;
	// DERIVES edges carry confidence alone and leave it zero.
	SimilarityScore float64 `json:"similarity_score,omitempty"`

	// Reason explains, for humans, why the relationship was created.
	Reason string `json:"reason,omitempty"`

	Owner    string         `json:"owner"`
	Metadata map[string]any `json:"metadata,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// NewRelationship creates a relationship edge with a clamped confidence.
func NewRelationship(from, to string, relType RelType, confidence float64) *Relationship {
	return &Relationship{
		ID:           uuid.NewString(),
		FromMemoryID: from,
		ToMemoryID:   to,
		Type:         relType,
		Confidence:   ClampConfidence(confidence),
		Metadata:     map[string]any{},
		CreatedAt:    time.Now().UTC(),
	}
}

// ClampConfidence forces a confidence value into [0,1]. Upstream similarity
// scores occasionally carry floating-point artifacts like 1.0000001.
func ClampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
