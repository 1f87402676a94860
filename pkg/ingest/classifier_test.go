package ingest_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/engramlabs/engram/pkg/graph"
	"github.com/engramlabs/engram/pkg/ingest"
	testutils "github.com/engramlabs/engram/pkg/utils/test"
	"github.com/engramlabs/engram/pkg/vector"
)

var _ = Describe("Classifier", func() {
	var (
		ctx        context.Context
		memIndex   *testutils.MockVectorDriver
		relIndex   *testutils.MockVectorDriver
		engine     *graph.Engine
		classifier *ingest.Classifier
	)

	BeforeEach(func() {
		ctx = context.Background()
		memIndex = testutils.NewMockVectorDriver()
		relIndex = testutils.NewMockVectorDriver()
		engine = graph.NewEngine(memIndex, relIndex, zap.NewNop())
		classifier = ingest.NewClassifier(engine, memIndex, ingest.DefaultPolicy(), zap.NewNop())
	})

	// newMemory registers an embedded memory in the graph.
	newMemory := func(owner, text, docID string) *graph.Memory {
		m := graph.NewMemory(owner, text, docID, 0)
		m.Embedding = []float32{0.1, 0.2, 0.3}
		m.Keywords = ingest.ExtractKeywords(text)
		engine.AddMemory(m)
		return m
	}

	// neighbor makes the index return the memory as a search result.
	neighbor := func(m *graph.Memory, score float32) {
		memIndex.Results = append(memIndex.Results, vector.Result{
			Point: vector.Point{ID: m.ID, Payload: map[string]any{"owner": m.Owner}},
			Score: score,
		})
	}

	Describe("similarity bands", func() {
		It("classifies a contradicting high-similarity pair as UPDATES and outdates the existing memory", func() {
			existing := newMemory("alice", "I work as a Software Engineer at TechCorp", "doc-1")
			updated := newMemory("alice", "I now work as a Senior Engineering Manager at TechCorp", "doc-2")
			neighbor(existing, 0.88)

			detection := classifier.DetectRelationships(ctx, []*graph.Memory{updated})
			Expect(detection.Relationships).To(Equal(1))
			Expect(detection.ByType).To(HaveKeyWithValue("updates", 1))

			rels := engine.Relationships(updated.ID, graph.RelUpdates, graph.DirectionOutgoing, "alice")
			Expect(rels).To(HaveLen(1))
			Expect(rels[0].ToMemoryID).To(Equal(existing.ID))
			Expect(rels[0].Confidence).To(BeNumerically("~", 0.88, 0.001))
			Expect(rels[0].SimilarityScore).To(BeNumerically("~", 0.88, 0.001))
			Expect(rels[0].Reason).To(ContainSubstring("0.88"))

			Expect(engine.Memory(existing.ID, "alice").IsLatest).To(BeFalse())
		})

		It("treats differing numeric tokens as a contradiction signal", func() {
			existing := newMemory("alice", "My apartment rent is 1400 per month", "doc-1")
			updated := newMemory("alice", "My apartment rent is 1650 per month", "doc-2")
			neighbor(existing, 0.92)

			classifier.DetectRelationships(ctx, []*graph.Memory{updated})

			rels := engine.Relationships(updated.ID, graph.RelUpdates, graph.DirectionOutgoing, "alice")
			Expect(rels).To(HaveLen(1))
			Expect(engine.Memory(existing.ID, "alice").IsLatest).To(BeFalse())
		})

		It("classifies a non-contradicting near-duplicate as SIMILAR and keeps it latest", func() {
			existing := newMemory("alice", "I run every morning at 6 AM for 30 minutes", "doc-1")
			duplicate := newMemory("alice", "Every morning I run at 6 AM for 30 minutes", "doc-2")
			neighbor(existing, 0.95)

			detection := classifier.DetectRelationships(ctx, []*graph.Memory{duplicate})
			Expect(detection.ByType).To(HaveKeyWithValue("similar", 1))

			rels := engine.Relationships(duplicate.ID, graph.RelSimilar, graph.DirectionOutgoing, "alice")
			Expect(rels).To(HaveLen(1))
			Expect(engine.Memory(existing.ID, "alice").IsLatest).To(BeTrue())
		})

		It("classifies a longer elaboration in the middle band as EXTENDS", func() {
			existing := newMemory("alice", "Basil needs direct sun.", "doc-1")
			elaboration := newMemory("alice",
				"Basil needs direct sun, ideally six hours a day, plus moist well-drained soil and regular pinching to keep it from bolting.",
				"doc-2")
			neighbor(existing, 0.65)

			classifier.DetectRelationships(ctx, []*graph.Memory{elaboration})

			rels := engine.Relationships(elaboration.ID, graph.RelExtends, graph.DirectionOutgoing, "alice")
			Expect(rels).To(HaveLen(1))
		})

		It("classifies a middle-band pair of similar length as SIMILAR", func() {
			existing := newMemory("alice", "Basil grows best with direct sunlight.", "doc-1")
			similar := newMemory("alice", "Basil does well with direct sunlight.", "doc-2")
			neighbor(existing, 0.65)

			classifier.DetectRelationships(ctx, []*graph.Memory{similar})

			rels := engine.Relationships(similar.ID, graph.RelSimilar, graph.DirectionOutgoing, "alice")
			Expect(rels).To(HaveLen(1))
		})

		It("classifies low-band neighbors as SIMILAR with the score as confidence", func() {
			existing := newMemory("alice", "Sourdough starters need regular feeding.", "doc-1")
			related := newMemory("alice", "Baking bread well takes consistent practice.", "doc-2")
			neighbor(existing, 0.57)

			classifier.DetectRelationships(ctx, []*graph.Memory{related})

			rels := engine.Relationships(related.ID, graph.RelSimilar, graph.DirectionOutgoing, "alice")
			Expect(rels).To(HaveLen(1))
			Expect(rels[0].Confidence).To(BeNumerically("~", 0.57, 0.001))
		})

		It("clamps confidence for out-of-range scores", func() {
			existing := newMemory("alice", "Duplicate fact.", "doc-1")
			duplicate := newMemory("alice", "Duplicate fact again.", "doc-2")
			neighbor(existing, 1.0000001)

			classifier.DetectRelationships(ctx, []*graph.Memory{duplicate})

			rels := engine.Relationships(duplicate.ID, "", graph.DirectionOutgoing, "alice")
			Expect(rels).To(HaveLen(1))
			Expect(rels[0].Confidence).To(BeNumerically("<=", 1.0))
		})
	})

	Describe("neighbor filtering", func() {
		It("skips neighbors from the same document", func() {
			first := newMemory("alice", "Chunk one of the travel notes.", "doc-1")
			second := newMemory("alice", "Chunk two of the travel notes.", "doc-1")
			neighbor(first, 0.9)

			detection := classifier.DetectRelationships(ctx, []*graph.Memory{second})
			Expect(detection.Relationships).To(BeZero())
		})

		It("skips self-matches", func() {
			m := newMemory("alice", "A memory that matches itself in the index.", "doc-1")
			neighbor(m, 1.0)

			detection := classifier.DetectRelationships(ctx, []*graph.Memory{m})
			Expect(detection.Relationships).To(BeZero())
		})

		It("continues when the neighbor search fails", func() {
			memIndex.SearchErr = context.DeadlineExceeded
			m := newMemory("alice", "Search will fail for this memory.", "doc-1")

			detection := classifier.DetectRelationships(ctx, []*graph.Memory{m})
			Expect(detection.Relationships).To(BeZero())
		})
	})

	Describe("DERIVES detection", func() {
		It("links unlinked same-owner memories with overlapping keywords", func() {
			existing := newMemory("alice", "kubernetes cluster running in the homelab", "doc-1")
			fresh := newMemory("alice", "kubernetes cluster electricity budget", "doc-2")

			detection := classifier.DetectRelationships(ctx, []*graph.Memory{fresh})
			Expect(detection.ByType).To(HaveKeyWithValue("derives", 1))

			rels := engine.Relationships(fresh.ID, graph.RelDerives, graph.DirectionOutgoing, "alice")
			Expect(rels).To(HaveLen(1))
			Expect(rels[0].ToMemoryID).To(Equal(existing.ID))
			Expect(rels[0].Reason).To(ContainSubstring("overlap"))
			Expect(rels[0].Reason).To(ContainSubstring("kubernetes"))
			Expect(rels[0].SimilarityScore).To(BeZero())
		})

		It("does not add a DERIVES edge over an existing relationship", func() {
			existing := newMemory("alice", "kubernetes cluster running in the homelab", "doc-1")
			fresh := newMemory("alice", "kubernetes cluster electricity budget", "doc-2")
			neighbor(existing, 0.9)

			detection := classifier.DetectRelationships(ctx, []*graph.Memory{fresh})
			Expect(detection.Relationships).To(Equal(1))
			Expect(engine.Relationships(fresh.ID, graph.RelDerives, graph.DirectionOutgoing, "alice")).To(BeEmpty())
		})

		It("ignores memories of other owners", func() {
			newMemory("bob", "kubernetes cluster running in the homelab", "doc-1")
			fresh := newMemory("alice", "kubernetes cluster electricity budget", "doc-2")

			detection := classifier.DetectRelationships(ctx, []*graph.Memory{fresh})
			Expect(detection.Relationships).To(BeZero())
		})

		It("skips pairs below both thresholds", func() {
			newMemory("alice", "sourdough hydration ratios for rye flour", "doc-1")
			fresh := newMemory("alice", "winter tires ordered for the station wagon", "doc-2")

			detection := classifier.DetectRelationships(ctx, []*graph.Memory{fresh})
			Expect(detection.Relationships).To(BeZero())
		})
	})
})
