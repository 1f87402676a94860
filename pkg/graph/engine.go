package graph

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/engramlabs/engram/pkg/vector"
)

// Direction selects which incident edges a relationship query returns.
type Direction string

const (
	DirectionOutgoing Direction = "outgoing"
	DirectionIncoming Direction = "incoming"
	DirectionBoth     Direction = "both"
)

// Engine maintains the knowledge graph: memories by id, relationships by id,
// and adjacency between them. All mutations are serialized behind a single
// lock; reads take the shared side and never observe a torn write.
//
// The memory index stores memory points and the relationship index stores
// relationship points; both are only written here for durability and read
// back during Hydrate.
type Engine struct {
	mu sync.RWMutex

	memories      map[string]*Memory
	relationships map[string]*Relationship

	// outgoing and incoming map a memory id to the ids of its incident
	// relationships.
	outgoing map[string][]string
	incoming map[string][]string

	memoryIndex       vector.Driver
	relationshipIndex vector.Driver

	hydrated bool

	logger *zap.Logger
}

// NewEngine creates an empty graph engine. Call Hydrate once at startup to
// rebuild state from the index.
func NewEngine(memoryIndex, relationshipIndex vector.Driver, logger *zap.Logger) *Engine {
	return &Engine{
		memories:          map[string]*Memory{},
		relationships:     map[string]*Relationship{},
		outgoing:          map[string][]string{},
		incoming:          map[string][]string{},
		memoryIndex:       memoryIndex,
		relationshipIndex: relationshipIndex,
		logger:            logger,
	}
}

// AddMemory inserts a memory node. The insert is idempotent: if the id
// already exists the call is a no-op and the first write wins.
func (e *Engine) AddMemory(m *Memory) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.memories[m.ID]; exists {
		return
	}
	e.memories[m.ID] = m

	e.logger.Debug("added memory node to graph",
		zap.String("memory_id", m.ID),
		zap.String("owner", m.Owner),
	)
}

// AddRelationship inserts a relationship edge. Both endpoints must exist and
// share one owner; otherwise the relationship is dropped with a warning and
// false is returned. When persist is true the relationship is forwarded to
// the relationship index for durability; a persistence failure is logged but
// does not undo the graph insert.
func (e *Engine) AddRelationship(ctx context.Context, rel *Relationship, persist bool) bool {
	e.mu.Lock()

	from, fromOK := e.memories[rel.FromMemoryID]
	to, toOK := e.memories[rel.ToMemoryID]
	if !fromOK || !toOK {
		e.mu.Unlock()
		e.logger.Warn("skipping relationship because one of the memories is missing",
			zap.String("from", rel.FromMemoryID),
			zap.String("to", rel.ToMemoryID),
		)
		return false
	}
	if from.Owner != to.Owner {
		e.mu.Unlock()
		e.logger.Warn("skipping relationship between memories that belong to different owners",
			zap.String("from", rel.FromMemoryID),
			zap.String("to", rel.ToMemoryID),
		)
		return false
	}

	if rel.Owner == "" {
		rel.Owner = from.Owner
	}
	rel.Confidence = ClampConfidence(rel.Confidence)

	e.relationships[rel.ID] = rel
	e.outgoing[rel.FromMemoryID] = append(e.outgoing[rel.FromMemoryID], rel.ID)
	e.incoming[rel.ToMemoryID] = append(e.incoming[rel.ToMemoryID], rel.ID)

	if !containsString(from.RelationshipIDs, rel.ID) {
		from.RelationshipIDs = append(from.RelationshipIDs, rel.ID)
	}

	e.mu.Unlock()

	if persist {
		point := vector.Point{
			ID: rel.ID,
			// Relationship points exist for their payload; the vector is a
			// one-dimensional confidence stand-in.
			Vector:  []float32{float32(rel.Confidence)},
			Payload: relationshipPayload(rel),
		}
		if err := e.relationshipIndex.Upsert(ctx, point); err != nil {
			e.logger.Error("failed to persist relationship",
				zap.String("relationship_id", rel.ID),
				zap.Error(err),
			)
		}
	}

	e.logger.Debug("added relationship",
		zap.String("from", rel.FromMemoryID),
		zap.String("type", string(rel.Type)),
		zap.String("to", rel.ToMemoryID),
	)

	return true
}

// Memory returns a memory by id, scoped to the owner when one is given.
func (e *Engine) Memory(id, owner string) *Memory {
	e.mu.RLock()
	defer e.mu.RUnlock()

	m, ok := e.memories[id]
	if !ok {
		return nil
	}
	if owner != "" && m.Owner != owner {
		return nil
	}
	return m
}

// AllMemories returns every memory for the owner, or every memory when the
// owner is empty (only the hydration and maintenance paths omit it).
func (e *Engine) AllMemories(owner string) []*Memory {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]*Memory, 0, len(e.memories))
	for _, m := range e.memories {
		if owner != "" && m.Owner != owner {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Relationships returns the edges incident to a memory, filtered by type,
// direction and owner. An empty relType matches every type.
func (e *Engine) Relationships(memoryID string, relType RelType, direction Direction, owner string) []*Relationship {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var out []*Relationship

	appendMatching := func(ids []string) {
		for _, id := range ids {
			rel, ok := e.relationships[id]
			if !ok {
				continue
			}
			if relType != "" && rel.Type != relType {
				continue
			}
			if owner != "" && rel.Owner != owner {
				continue
			}
			out = append(out, rel)
		}
	}

	if direction == DirectionOutgoing || direction == DirectionBoth {
		appendMatching(e.outgoing[memoryID])
	}
	if direction == DirectionIncoming || direction == DirectionBoth {
		appendMatching(e.incoming[memoryID])
	}

	return out
}

// MarkOutdated sets is_latest=false on a memory. Never reversed
// automatically.
func (e *Engine) MarkOutdated(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	m, ok := e.memories[id]
	if !ok {
		return
	}
	m.IsLatest = false
	m.UpdatedAt = time.Now().UTC()

	e.logger.Debug("marked memory as outdated", zap.String("memory_id", id))
}

// RecordAccess bumps a memory's access count on retrieval and returns it,
// owner-scoped.
func (e *Engine) RecordAccess(id, owner string) *Memory {
	e.mu.Lock()
	defer e.mu.Unlock()

	m, ok := e.memories[id]
	if !ok {
		return nil
	}
	if owner != "" && m.Owner != owner {
		return nil
	}

	m.AccessCount++
	m.AccessedAt = time.Now().UTC()
	return m
}

// ClearResult reports what an owner-scoped clear removed.
type ClearResult struct {
	Memories      int      `json:"memories"`
	Relationships int      `json:"relationships"`
	MemoryIDs     []string `json:"memory_ids"`
}

// ClearOwner removes every memory and relationship owned by the given owner,
// including dangling relationship-id references left on surviving memories.
// The removed memory ids are returned so callers can purge dependent caches.
func (e *Engine) ClearOwner(ctx context.Context, owner string) ClearResult {
	if owner == "" {
		return ClearResult{MemoryIDs: []string{}}
	}

	e.mu.Lock()

	var memoryIDs []string
	for id, m := range e.memories {
		if m.Owner == owner {
			memoryIDs = append(memoryIDs, id)
		}
	}
	removedRels := map[string]struct{}{}
	for id, rel := range e.relationships {
		if rel.Owner == owner {
			removedRels[id] = struct{}{}
		}
	}

	for _, id := range memoryIDs {
		delete(e.memories, id)
		delete(e.outgoing, id)
		delete(e.incoming, id)
	}
	for id := range removedRels {
		delete(e.relationships, id)
	}

	// Strip dangling relationship references and adjacency entries from
	// surviving memories.
	for _, m := range e.memories {
		m.RelationshipIDs = filterStrings(m.RelationshipIDs, removedRels)
	}
	for id, ids := range e.outgoing {
		e.outgoing[id] = filterStrings(ids, removedRels)
	}
	for id, ids := range e.incoming {
		e.incoming[id] = filterStrings(ids, removedRels)
	}

	e.mu.Unlock()

	if err := e.memoryIndex.DeleteByOwner(ctx, owner); err != nil {
		e.logger.Error("failed to clear owner memories from index",
			zap.String("owner", owner),
			zap.Error(err),
		)
	}
	if err := e.relationshipIndex.DeleteByOwner(ctx, owner); err != nil {
		e.logger.Error("failed to clear owner relationships from index",
			zap.String("owner", owner),
			zap.Error(err),
		)
	}

	e.logger.Info("cleared owner data",
		zap.String("owner", owner),
		zap.Int("memories", len(memoryIDs)),
		zap.Int("relationships", len(removedRels)),
	)

	if memoryIDs == nil {
		memoryIDs = []string{}
	}
	return ClearResult{
		Memories:      len(memoryIDs),
		Relationships: len(removedRels),
		MemoryIDs:     memoryIDs,
	}
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func filterStrings(list []string, removed map[string]struct{}) []string {
	out := list[:0]
	for _, item := range list {
		if _, gone := removed[item]; !gone {
			out = append(out, item)
		}
	}
	return out
}
