package search_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/engramlabs/engram/pkg/graph"
	"github.com/engramlabs/engram/pkg/search"
	testutils "github.com/engramlabs/engram/pkg/utils/test"
	"github.com/engramlabs/engram/pkg/vector"
)

var _ = Describe("Service", func() {
	var (
		ctx      context.Context
		memIndex *testutils.MockVectorDriver
		engine   *graph.Engine
		embedder *testutils.MockEmbedder
		service  *search.Service
	)

	BeforeEach(func() {
		ctx = context.Background()
		memIndex = testutils.NewMockVectorDriver()
		engine = graph.NewEngine(memIndex, testutils.NewMockVectorDriver(), zap.NewNop())
		embedder = testutils.NewMockEmbedder()
		service = search.NewService(engine, memIndex, embedder, nil, zap.NewNop())
	})

	// addMemory registers a memory and makes the index return it at the
	// given score.
	addMemory := func(owner, text string, keywords []string, score float32) *graph.Memory {
		m := graph.NewMemory(owner, text, "doc-"+text[:4], 0)
		m.Keywords = keywords
		engine.AddMemory(m)
		memIndex.Results = append(memIndex.Results, vector.Result{
			Point: vector.Point{ID: m.ID, Payload: map[string]any{"owner": owner}},
			Score: score,
		})
		return m
	}

	Describe("Search", func() {
		It("returns semantic candidates ranked by score", func() {
			low := addMemory("alice", "weak match about gardening", nil, 0.45)
			high := addMemory("alice", "strong match about gardening", nil, 0.9)

			results, err := service.Search(ctx, search.NewQuery("gardening", "alice"))
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(2))
			Expect(results[0].Memory.ID).To(Equal(high.ID))
			Expect(results[1].Memory.ID).To(Equal(low.ID))
		})

		It("blends keyword overlap into the ranking when keywords are given", func() {
			semantic := addMemory("alice", "semantic hit", []string{"running"}, 0.8)
			keyword := addMemory("alice", "keyword hit", []string{"marathon", "training"}, 0.7)

			query := search.NewQuery("race preparation", "alice")
			query.Keywords = []string{"marathon", "training"}
			query.SemanticWeight = 0.5

			results, err := service.Search(ctx, query)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(2))

			// 0.5*0.7 + 0.5*1.0 = 0.85 beats 0.5*0.8 + 0.5*0.0 = 0.40.
			Expect(results[0].Memory.ID).To(Equal(keyword.ID))
			Expect(results[0].Score).To(BeNumerically("~", 0.85, 0.001))
			Expect(results[1].Memory.ID).To(Equal(semantic.ID))
			Expect(results[1].Explanation).NotTo(ContainSubstring("keyword match"))
			Expect(results[0].Explanation).To(ContainSubstring("keyword match"))
		})

		It("drops superseded memories unless only_latest is disabled", func() {
			outdated := addMemory("alice", "old role at the company", nil, 0.9)
			engine.MarkOutdated(outdated.ID)

			results, err := service.Search(ctx, search.NewQuery("role", "alice"))
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(BeEmpty())

			query := search.NewQuery("role", "alice")
			query.OnlyLatest = false
			results, err = service.Search(ctx, query)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))
			Expect(results[0].Explanation).To(ContainSubstring("older version"))
		})

		It("drops inactive memories unless include_inactive is set", func() {
			inactive := addMemory("alice", "expired note", nil, 0.9)
			inactive.IsActive = false

			results, err := service.Search(ctx, search.NewQuery("note", "alice"))
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(BeEmpty())

			query := search.NewQuery("note", "alice")
			query.IncludeInactive = true
			results, err = service.Search(ctx, query)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))
		})

		It("never returns another owner's memories", func() {
			addMemory("bob", "private note about taxes", nil, 0.95)

			results, err := service.Search(ctx, search.NewQuery("taxes", "alice"))
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(BeEmpty())
		})

		It("truncates to the requested limit", func() {
			addMemory("alice", "first note", nil, 0.9)
			addMemory("alice", "second note", nil, 0.8)
			addMemory("alice", "third note", nil, 0.7)

			query := search.NewQuery("note", "alice")
			query.Limit = 2

			results, err := service.Search(ctx, query)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(2))
		})

		It("records an access on every returned memory", func() {
			m := addMemory("alice", "accessed note", nil, 0.9)

			_, err := service.Search(ctx, search.NewQuery("note", "alice"))
			Expect(err).NotTo(HaveOccurred())

			Expect(engine.Memory(m.ID, "alice").AccessCount).To(Equal(1))
		})

		It("includes related memory ids one hop away", func() {
			m := addMemory("alice", "linked note", nil, 0.9)
			other := graph.NewMemory("alice", "neighbor note", "doc-x", 0)
			engine.AddMemory(other)
			rel := graph.NewRelationship(m.ID, other.ID, graph.RelSimilar, 0.8)
			Expect(engine.AddRelationship(ctx, rel, false)).To(BeTrue())

			results, err := service.Search(ctx, search.NewQuery("note", "alice"))
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))
			Expect(results[0].RelatedIDs).To(ConsistOf(other.ID))
		})

		It("propagates embedding failures", func() {
			embedder.FailOn = "broken query"

			_, err := service.Search(ctx, search.NewQuery("broken query", "alice"))
			Expect(err).To(MatchError(ContainSubstring("embed")))
		})

		It("propagates index failures", func() {
			memIndex.SearchErr = errors.New("index down")

			_, err := service.Search(ctx, search.NewQuery("anything", "alice"))
			Expect(err).To(MatchError(ContainSubstring("index down")))
		})
	})

	Describe("Memory", func() {
		It("returns the memory and records the access", func() {
			m := addMemory("alice", "direct lookup", nil, 0.9)

			got := service.Memory(m.ID, "alice")
			Expect(got).NotTo(BeNil())
			Expect(got.AccessCount).To(Equal(1))
		})

		It("returns nil for another owner", func() {
			m := addMemory("alice", "direct lookup", nil, 0.9)
			Expect(service.Memory(m.ID, "bob")).To(BeNil())
		})
	})

	Describe("Timeline", func() {
		It("returns topic memories oldest first, including superseded versions", func() {
			older := addMemory("alice", "role: engineer at the firm", nil, 0.8)
			older.CreatedAt = time.Now().UTC().Add(-48 * time.Hour)
			engine.MarkOutdated(older.ID)
			newer := addMemory("alice", "role: manager at the firm", nil, 0.9)

			memories, err := service.Timeline(ctx, "alice", "role")
			Expect(err).NotTo(HaveOccurred())
			Expect(memories).To(HaveLen(2))
			Expect(memories[0].ID).To(Equal(older.ID))
			Expect(memories[1].ID).To(Equal(newer.ID))
		})
	})
})
