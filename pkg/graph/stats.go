package graph

// Stats summarizes the graph, owner-scoped when an owner is given.
type Stats struct {
	TotalMemories      int             `json:"total_memories"`
	TotalRelationships int             `json:"total_relationships"`
	GraphNodes         int             `json:"graph_nodes"`
	GraphEdges         int             `json:"graph_edges"`
	RelationshipTypes  map[RelType]int `json:"relationship_types"`
}

// GraphStats counts memories, relationships and the per-type relationship
// histogram.
func (e *Engine) GraphStats(owner string) Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.statsLocked(owner)
}

func (e *Engine) statsLocked(owner string) Stats {
	stats := Stats{
		RelationshipTypes: map[RelType]int{},
	}
	for _, t := range RelTypes {
		stats.RelationshipTypes[t] = 0
	}

	for _, m := range e.memories {
		if owner != "" && m.Owner != owner {
			continue
		}
		stats.TotalMemories++
	}
	stats.GraphNodes = stats.TotalMemories

	for _, rel := range e.relationships {
		if owner != "" && rel.Owner != owner {
			continue
		}
		stats.TotalRelationships++
		stats.RelationshipTypes[rel.Type]++
	}
	stats.GraphEdges = stats.TotalRelationships

	return stats
}
