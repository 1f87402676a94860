package graph

import (
	"context"

	"go.uber.org/zap"
)

// Hydrate re-populates the graph from the index's persisted payloads so it
// survives process restarts. It runs at most once per engine lifetime and is
// meant to be awaited explicitly at startup. Failures are logged and leave
// the graph empty; they are never fatal.
func (e *Engine) Hydrate(ctx context.Context) {
	e.mu.Lock()
	if e.hydrated {
		e.mu.Unlock()
		return
	}
	e.hydrated = true
	e.mu.Unlock()

	memoryPoints, err := e.memoryIndex.FetchAll(ctx, "")
	if err != nil {
		e.logger.Warn("memory index unavailable during graph hydration", zap.Error(err))
		return
	}
	for _, point := range memoryPoints {
		e.AddMemory(MemoryFromPayload(point.ID, point.Payload))
	}

	relationshipPoints, err := e.relationshipIndex.FetchAll(ctx, "")
	if err != nil {
		e.logger.Warn("relationship index unavailable during graph hydration", zap.Error(err))
		return
	}
	for _, point := range relationshipPoints {
		rel := relationshipFromPayload(point.ID, point.Payload)
		if rel == nil {
			e.logger.Warn("skipping malformed persisted relationship",
				zap.String("relationship_id", point.ID),
			)
			continue
		}
		e.AddRelationship(ctx, rel, false)
	}

	e.logger.Info("hydrated graph from index",
		zap.Int("memories", len(memoryPoints)),
		zap.Int("relationships", len(relationshipPoints)),
	)
}
