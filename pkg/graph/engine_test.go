package graph_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/engramlabs/engram/pkg/graph"
	testutils "github.com/engramlabs/engram/pkg/utils/test"
	"github.com/engramlabs/engram/pkg/vector"
)

func vectorPoint(id, owner string) vector.Point {
	return vector.Point{
		ID:      id,
		Vector:  []float32{0.1, 0.2, 0.3},
		Payload: map[string]any{"owner": owner},
	}
}

var _ = Describe("Engine", func() {
	var (
		engine   *graph.Engine
		memIndex *testutils.MockVectorDriver
		relIndex *testutils.MockVectorDriver
		ctx      context.Context
	)

	newMemory := func(owner, content string) *graph.Memory {
		m := graph.NewMemory(owner, content, "doc-1", 0)
		m.Embedding = []float32{0.1, 0.2, 0.3}
		return m
	}

	BeforeEach(func() {
		ctx = context.Background()
		memIndex = testutils.NewMockVectorDriver()
		relIndex = testutils.NewMockVectorDriver()
		engine = graph.NewEngine(memIndex, relIndex, zap.NewNop())
	})

	Describe("AddMemory", func() {
		It("registers the memory for owner-scoped lookup", func() {
			m := newMemory("alice", "some fact")
			engine.AddMemory(m)

			Expect(engine.Memory(m.ID, "alice")).To(Equal(m))
		})

		It("hides the memory from other owners", func() {
			m := newMemory("alice", "some fact")
			engine.AddMemory(m)

			Expect(engine.Memory(m.ID, "bob")).To(BeNil())
		})

		It("is idempotent: the first write wins", func() {
			m := newMemory("alice", "original")
			engine.AddMemory(m)

			duplicate := *m
			duplicate.Content = "overwritten"
			engine.AddMemory(&duplicate)

			Expect(engine.Memory(m.ID, "alice").Content).To(Equal("original"))
			Expect(engine.AllMemories("alice")).To(HaveLen(1))
		})
	})

	Describe("AddRelationship", func() {
		var from, to *graph.Memory

		BeforeEach(func() {
			from = newMemory("alice", "newer fact")
			to = newMemory("alice", "older fact")
			engine.AddMemory(from)
			engine.AddMemory(to)
		})

		It("inserts the edge and appends the id to the source memory", func() {
			rel := graph.NewRelationship(from.ID, to.ID, graph.RelUpdates, 0.9)

			Expect(engine.AddRelationship(ctx, rel, false)).To(BeTrue())
			Expect(from.RelationshipIDs).To(ContainElement(rel.ID))

			rels := engine.Relationships(from.ID, "", graph.DirectionOutgoing, "alice")
			Expect(rels).To(HaveLen(1))
			Expect(rels[0].Type).To(Equal(graph.RelUpdates))
		})

		It("inherits the owner from the source memory", func() {
			rel := graph.NewRelationship(from.ID, to.ID, graph.RelSimilar, 0.8)
			engine.AddRelationship(ctx, rel, false)

			Expect(rel.Owner).To(Equal("alice"))
		})

		It("persists the relationship when asked", func() {
			rel := graph.NewRelationship(from.ID, to.ID, graph.RelSimilar, 0.8)
			engine.AddRelationship(ctx, rel, true)

			Expect(relIndex.Points).To(HaveKey(rel.ID))
			Expect(relIndex.Points[rel.ID].Payload["relationship_type"]).To(Equal("similar"))
		})

		It("does not persist when persist is false", func() {
			rel := graph.NewRelationship(from.ID, to.ID, graph.RelSimilar, 0.8)
			engine.AddRelationship(ctx, rel, false)

			Expect(relIndex.Points).To(BeEmpty())
		})

		It("drops relationships whose endpoints belong to different owners", func() {
			other := newMemory("bob", "bob's fact")
			engine.AddMemory(other)

			rel := graph.NewRelationship(from.ID, other.ID, graph.RelSimilar, 0.8)
			Expect(engine.AddRelationship(ctx, rel, true)).To(BeFalse())

			Expect(engine.GraphStats("").GraphEdges).To(BeZero())
			Expect(relIndex.Points).To(BeEmpty())
		})

		It("drops relationships with a missing endpoint", func() {
			rel := graph.NewRelationship(from.ID, "no-such-memory", graph.RelSimilar, 0.8)
			Expect(engine.AddRelationship(ctx, rel, true)).To(BeFalse())

			Expect(engine.GraphStats("").GraphEdges).To(BeZero())
		})

		It("allows multiple distinct edges between the same pair", func() {
			first := graph.NewRelationship(from.ID, to.ID, graph.RelSimilar, 0.8)
			second := graph.NewRelationship(from.ID, to.ID, graph.RelDerives, 0.4)

			Expect(engine.AddRelationship(ctx, first, false)).To(BeTrue())
			Expect(engine.AddRelationship(ctx, second, false)).To(BeTrue())

			Expect(engine.Relationships(from.ID, "", graph.DirectionOutgoing, "alice")).To(HaveLen(2))
		})

		It("clamps out-of-range confidences into [0,1]", func() {
			rel := graph.NewRelationship(from.ID, to.ID, graph.RelSimilar, 1.0000001)
			engine.AddRelationship(ctx, rel, false)

			Expect(rel.Confidence).To(BeNumerically("<=", 1.0))
			Expect(rel.Confidence).To(BeNumerically(">=", 0.0))
		})
	})

	Describe("Relationships", func() {
		var a, b, c *graph.Memory

		BeforeEach(func() {
			a = newMemory("alice", "a")
			b = newMemory("alice", "b")
			c = newMemory("alice", "c")
			engine.AddMemory(a)
			engine.AddMemory(b)
			engine.AddMemory(c)

			engine.AddRelationship(ctx, graph.NewRelationship(a.ID, b.ID, graph.RelUpdates, 0.9), false)
			engine.AddRelationship(ctx, graph.NewRelationship(c.ID, a.ID, graph.RelSimilar, 0.7), false)
		})

		It("filters by direction", func() {
			Expect(engine.Relationships(a.ID, "", graph.DirectionOutgoing, "")).To(HaveLen(1))
			Expect(engine.Relationships(a.ID, "", graph.DirectionIncoming, "")).To(HaveLen(1))
			Expect(engine.Relationships(a.ID, "", graph.DirectionBoth, "")).To(HaveLen(2))
		})

		It("filters by type", func() {
			rels := engine.Relationships(a.ID, graph.RelUpdates, graph.DirectionBoth, "")
			Expect(rels).To(HaveLen(1))
			Expect(rels[0].ToMemoryID).To(Equal(b.ID))
		})
	})

	Describe("MarkOutdated", func() {
		It("sets is_latest to false", func() {
			m := newMemory("alice", "stale fact")
			engine.AddMemory(m)

			engine.MarkOutdated(m.ID)
			Expect(m.IsLatest).To(BeFalse())
		})

		It("ignores unknown ids", func() {
			Expect(func() { engine.MarkOutdated("missing") }).NotTo(Panic())
		})
	})

	Describe("RecordAccess", func() {
		It("bumps the access count for the owner", func() {
			m := newMemory("alice", "fact")
			engine.AddMemory(m)

			Expect(engine.RecordAccess(m.ID, "alice")).NotTo(BeNil())
			Expect(engine.RecordAccess(m.ID, "alice")).NotTo(BeNil())
			Expect(m.AccessCount).To(Equal(2))
			Expect(m.AccessedAt.IsZero()).To(BeFalse())
		})

		It("refuses access for a different owner", func() {
			m := newMemory("alice", "fact")
			engine.AddMemory(m)

			Expect(engine.RecordAccess(m.ID, "bob")).To(BeNil())
			Expect(m.AccessCount).To(BeZero())
		})
	})

	Describe("ClearOwner", func() {
		It("removes the owner's memories and relationships and reports counts", func() {
			var aliceMemories []*graph.Memory
			for i := 0; i < 5; i++ {
				m := newMemory("alice", "alice fact")
				engine.AddMemory(m)
				aliceMemories = append(aliceMemories, m)
			}
			for i := 0; i < 3; i++ {
				engine.AddRelationship(ctx,
					graph.NewRelationship(aliceMemories[i].ID, aliceMemories[i+1].ID, graph.RelSimilar, 0.8),
					false,
				)
			}
			bobMemory := newMemory("bob", "bob fact")
			engine.AddMemory(bobMemory)

			result := engine.ClearOwner(ctx, "alice")

			Expect(result.Memories).To(Equal(5))
			Expect(result.Relationships).To(Equal(3))
			Expect(result.MemoryIDs).To(HaveLen(5))
			Expect(engine.AllMemories("alice")).To(BeEmpty())
			Expect(engine.AllMemories("bob")).To(HaveLen(1))
		})

		It("returns zero counts for an empty owner", func() {
			result := engine.ClearOwner(ctx, "")
			Expect(result.Memories).To(BeZero())
			Expect(result.Relationships).To(BeZero())
		})

		It("purges the owner's points from both indices", func() {
			m := newMemory("alice", "fact")
			engine.AddMemory(m)
			memIndex.Upsert(ctx, vectorPoint(m.ID, "alice"))
			memIndex.Upsert(ctx, vectorPoint("other", "bob"))

			engine.ClearOwner(ctx, "alice")

			Expect(memIndex.Points).NotTo(HaveKey(m.ID))
			Expect(memIndex.Points).To(HaveKey("other"))
		})
	})

	Describe("GraphStats", func() {
		It("reports owner-scoped counts and a per-type histogram", func() {
			a := newMemory("alice", "a")
			b := newMemory("alice", "b")
			engine.AddMemory(a)
			engine.AddMemory(b)
			engine.AddMemory(newMemory("bob", "bob fact"))
			engine.AddRelationship(ctx, graph.NewRelationship(a.ID, b.ID, graph.RelExtends, 0.7), false)

			stats := engine.GraphStats("alice")
			Expect(stats.TotalMemories).To(Equal(2))
			Expect(stats.TotalRelationships).To(Equal(1))
			Expect(stats.RelationshipTypes[graph.RelExtends]).To(Equal(1))
			Expect(stats.RelationshipTypes[graph.RelUpdates]).To(BeZero())
		})
	})

	Describe("ExportGraph", func() {
		It("exports truncated labels with full content alongside", func() {
			long := ""
			for i := 0; i < 30; i++ {
				long += "abcdefghij"
			}
			m := newMemory("alice", long)
			engine.AddMemory(m)

			export := engine.ExportGraph("alice")
			Expect(export.Nodes).To(HaveLen(1))
			Expect(export.Nodes[0].Label).To(HaveLen(100))
			Expect(export.Nodes[0].FullContent).To(Equal(long))
		})

		It("scopes edges to the owner", func() {
			a := newMemory("alice", "a")
			b := newMemory("alice", "b")
			engine.AddMemory(a)
			engine.AddMemory(b)
			engine.AddRelationship(ctx, graph.NewRelationship(a.ID, b.ID, graph.RelSimilar, 0.8), false)

			Expect(engine.ExportGraph("alice").Edges).To(HaveLen(1))
			Expect(engine.ExportGraph("bob").Edges).To(BeEmpty())
		})
	})
})
