package graph

import "time"

// ExportNode is a serializable graph node for visualization.
type ExportNode struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	IsLatest    bool   `json:"is_latest"`
	IsActive    bool   `json:"is_active"`
	CreatedAt   string `json:"created_at"`
	FullContent string `json:"full_content"`
}

// ExportEdge is a serializable graph edge for visualization.
type ExportEdge struct {
	ID         string  `json:"id"`
	Source     string  `json:"source"`
	Target     string  `json:"target"`
	Type       RelType `json:"type"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason,omitempty"`
}

// Export is the full serializable graph.
type Export struct {
	Nodes []ExportNode `json:"nodes"`
	Edges []ExportEdge `json:"edges"`
	Stats Stats        `json:"stats"`
}

// ExportGraph returns a node/edge list for visualization, plus stats,
// owner-scoped when an owner is given.
func (e *Engine) ExportGraph(owner string) Export {
	e.mu.RLock()
	defer e.mu.RUnlock()

	export := Export{
		Nodes: []ExportNode{},
		Edges: []ExportEdge{},
		Stats: e.statsLocked(owner),
	}

	for _, m := range e.memories {
		if owner != "" && m.Owner != owner {
			continue
		}
		export.Nodes = append(export.Nodes, ExportNode{
			ID:          m.ID,
			Label:       m.Preview(),
			IsLatest:    m.IsLatest,
			IsActive:    m.IsActive,
			CreatedAt:   m.CreatedAt.Format(time.RFC3339),
			FullContent: m.Content,
		})
	}

	for _, rel := range e.relationships {
		if owner != "" && rel.Owner != owner {
			continue
		}
		export.Edges = append(export.Edges, ExportEdge{
			ID:         rel.ID,
			Source:     rel.FromMemoryID,
			Target:     rel.ToMemoryID,
			Type:       rel.Type,
			Confidence: rel.Confidence,
			Reason:     rel.Reason,
		})
	}

	return export
}
