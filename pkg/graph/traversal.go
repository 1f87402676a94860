package graph

// Related returns the memories reachable from a seed within maxDepth hops.
// The traversal is breadth-first over both outgoing and incoming edges,
// treating the graph as undirected for reachability; each node is visited
// once at its first-discovery depth. An empty relType matches every edge
// type; a non-empty one filters per hop.
//
// A seed owned by someone else returns ErrAccessDenied; a nonexistent seed
// returns an empty list. maxDepth of 0 never expands past the seed.
func (e *Engine) Related(memoryID string, relType RelType, maxDepth int, owner string) ([]*Memory, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	seed, ok := e.memories[memoryID]
	if !ok {
		return nil, nil
	}
	if owner != "" && seed.Owner != owner {
		return nil, ErrAccessDenied
	}

	type queued struct {
		id    string
		depth int
	}

	var related []*Memory
	visited := map[string]struct{}{memoryID: {}}
	queue := []queued{{id: memoryID, depth: 0}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if current.depth >= maxDepth {
			continue
		}

		incident := make([]string, 0, len(e.outgoing[current.id])+len(e.incoming[current.id]))
		incident = append(incident, e.outgoing[current.id]...)
		incident = append(incident, e.incoming[current.id]...)

		for _, relID := range incident {
			rel, ok := e.relationships[relID]
			if !ok {
				continue
			}
			if relType != "" && rel.Type != relType {
				continue
			}
			if owner != "" && rel.Owner != owner {
				continue
			}

			neighborID := rel.ToMemoryID
			if neighborID == current.id {
				neighborID = rel.FromMemoryID
			}
			if _, seen := visited[neighborID]; seen {
				continue
			}

			neighbor, ok := e.memories[neighborID]
			if !ok {
				continue
			}
			if owner != "" && neighbor.Owner != owner {
				continue
			}

			visited[neighborID] = struct{}{}
			related = append(related, neighbor)
			queue = append(queue, queued{id: neighborID, depth: current.depth + 1})
		}
	}

	return related, nil
}
