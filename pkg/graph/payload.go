package graph

import (
	"time"
)

// MemoryPayload builds the persisted attribute map stored alongside a
// memory's vector in the index. The embedding itself travels as the point
// vector, not in the payload.
func MemoryPayload(m *Memory) map[string]any {
	return map[string]any{
		"owner":           m.Owner,
		"content":         m.Content,
		"summary":         m.Summary,
		"document_id":     m.DocumentID,
		"chunk_index":     m.ChunkIndex,
		"embedding_model": m.EmbeddingModel,
		"is_latest":       m.IsLatest,
		"is_active":       m.IsActive,
		"keywords":        m.Keywords,
		"entities":        m.Entities,
		"metadata":        m.Metadata,
		"created_at":      m.CreatedAt.Format(time.RFC3339),
	}
}

// MemoryFromPayload rebuilds a memory from a persisted payload. Unknown or
// malformed fields fall back to zero values; the embedding is not restored.
func MemoryFromPayload(id string, payload map[string]any) *Memory {
	createdAt := parseTime(payload["created_at"])
	return &Memory{
		ID:             id,
		Owner:          stringField(payload, "owner"),
		Content:        stringField(payload, "content"),
		Summary:        stringField(payload, "summary"),
		DocumentID:     stringField(payload, "document_id"),
		ChunkIndex:     intField(payload, "chunk_index"),
		EmbeddingModel: stringField(payload, "embedding_model"),
		IsLatest:       boolField(payload, "is_latest", true),
		IsActive:       boolField(payload, "is_active", true),
		Keywords:       stringSliceField(payload, "keywords"),
		Entities:       stringSliceField(payload, "entities"),
		Metadata:       mapField(payload, "metadata"),
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}
}

// relationshipPayload builds the persisted attribute map for a relationship
// point. It mirrors the memory payload layout.
func relationshipPayload(rel *Relationship) map[string]any {
	return map[string]any{
		"owner":             rel.Owner,
		"from_memory_id":    rel.FromMemoryID,
		"to_memory_id":      rel.ToMemoryID,
		"relationship_type": string(rel.Type),
		"confidence":        rel.Confidence,
		"similarity_score":  rel.SimilarityScore,
		"reason":            rel.Reason,
		"metadata":          rel.Metadata,
		"created_at":        rel.CreatedAt.Format(time.RFC3339),
	}
}

// relationshipFromPayload rebuilds a relationship from a persisted payload.
// Returns nil when either endpoint id is missing.
func relationshipFromPayload(id string, payload map[string]any) *Relationship {
	from := stringField(payload, "from_memory_id")
	to := stringField(payload, "to_memory_id")
	if from == "" || to == "" {
		return nil
	}

	relType := RelType(stringField(payload, "relationship_type"))
	if relType == "" {
		relType = RelSimilar
	}

	return &Relationship{
		ID:              id,
		Owner:           stringField(payload, "owner"),
		FromMemoryID:    from,
		ToMemoryID:      to,
		Type:            relType,
		Confidence:      ClampConfidence(floatField(payload, "confidence")),
		SimilarityScore: floatField(payload, "similarity_score"),
		Reason:          stringField(payload, "reason"),
		Metadata:        mapField(payload, "metadata"),
		CreatedAt:       parseTime(payload["created_at"]),
	}
}

func stringField(payload map[string]any, key string) string {
	s, _ := payload[key].(string)
	return s
}

func boolField(payload map[string]any, key string, fallback bool) bool {
	b, ok := payload[key].(bool)
	if !ok {
		return fallback
	}
	return b
}

// intField tolerates the numeric types JSON decoding and index drivers
// produce.
func intField(payload map[string]any, key string) int {
	switch v := payload[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func floatField(payload map[string]any, key string) float64 {
	switch v := payload[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

func stringSliceField(payload map[string]any, key string) []string {
	switch v := payload[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func mapField(payload map[string]any, key string) map[string]any {
	m, ok := payload[key].(map[string]any)
	if !ok {
		return map[string]any{}
	}
	return m
}

func parseTime(v any) time.Time {
	s, ok := v.(string)
	if !ok || s == "" {
		return time.Now().UTC()
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Now().UTC()
	}
	return t
}
