package worker_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/engramlabs/engram/pkg/docstore"
	"github.com/engramlabs/engram/pkg/docstore/inmemory"
	"github.com/engramlabs/engram/pkg/graph"
	"github.com/engramlabs/engram/pkg/ingest"
	"github.com/engramlabs/engram/pkg/ingest/worker"
	testutils "github.com/engramlabs/engram/pkg/utils/test"
)

var _ = Describe("Pool", func() {
	var (
		ctx      context.Context
		engine   *graph.Engine
		docs     *inmemory.Driver
		pipeline *ingest.Pipeline
	)

	BeforeEach(func() {
		ctx = context.Background()
		memIndex := testutils.NewMockVectorDriver()
		engine = graph.NewEngine(memIndex, testutils.NewMockVectorDriver(), zap.NewNop())
		docs = inmemory.NewDriver()

		var err error
		pipeline, err = ingest.NewPipeline(&ingest.Config{
			Engine:      engine,
			MemoryIndex: memIndex,
			Docstore:    docs,
			Embedder:    testutils.NewMockEmbedder(),
			Logger:      zap.NewNop(),
		})
		Expect(err).NotTo(HaveOccurred())
	})

	It("processes queued documents in the background", func() {
		pool, err := worker.NewPool(&worker.Config{
			Pipeline: pipeline,
			Logger:   zap.NewNop(),
		})
		Expect(err).NotTo(HaveOccurred())

		doc := docstore.NewDocument("alice", "Queued note", "", docstore.TypeText)
		Expect(docs.Save(ctx, doc)).To(Succeed())

		queued := pool.Enqueue(worker.Job{
			Document: doc,
			Text:     "The note text processed asynchronously by the worker pool.",
		})
		Expect(queued).To(BeTrue())

		// Close drains in-flight jobs before returning.
		pool.Close()

		stored, err := docs.Get(ctx, doc.ID, "alice")
		Expect(err).NotTo(HaveOccurred())
		Expect(stored.Status).To(Equal(docstore.StatusDone))
		Expect(engine.AllMemories("alice")).NotTo(BeEmpty())
	})

	It("drops jobs when the queue is full", func() {
		pool, err := worker.NewPool(&worker.Config{
			Pipeline:   pipeline,
			NumWorkers: 1,
			QueueSize:  1,
			Logger:     zap.NewNop(),
		})
		Expect(err).NotTo(HaveOccurred())
		defer pool.Close()

		// Saturate the single-slot queue faster than one worker can drain it.
		accepted := 0
		for range 50 {
			doc := docstore.NewDocument("alice", "Flood", "", docstore.TypeText)
			if pool.Enqueue(worker.Job{Document: doc, Text: "Queued faster than it drains."}) {
				accepted++
			}
		}
		Expect(accepted).To(BeNumerically(">=", 1))
		Expect(accepted).To(BeNumerically("<=", 50))
	})

	It("keeps running after a failed job", func() {
		embedder := testutils.NewMockEmbedder()
		embedder.FailOn = "This job will fail to embed cleanly."

		var err error
		pipeline, err = ingest.NewPipeline(&ingest.Config{
			Engine:      engine,
			MemoryIndex: testutils.NewMockVectorDriver(),
			Docstore:    docs,
			Embedder:    embedder,
			Logger:      zap.NewNop(),
		})
		Expect(err).NotTo(HaveOccurred())

		pool, err := worker.NewPool(&worker.Config{Pipeline: pipeline, Logger: zap.NewNop()})
		Expect(err).NotTo(HaveOccurred())

		failing := docstore.NewDocument("alice", "Failing", "", docstore.TypeText)
		Expect(docs.Save(ctx, failing)).To(Succeed())
		ok := docstore.NewDocument("alice", "Fine", "", docstore.TypeText)
		Expect(docs.Save(ctx, ok)).To(Succeed())

		Expect(pool.Enqueue(worker.Job{Document: failing, Text: "This job will fail to embed cleanly."})).To(BeTrue())
		Expect(pool.Enqueue(worker.Job{Document: ok, Text: "This one is processed normally afterwards."})).To(BeTrue())

		pool.Close()

		storedFailing, err := docs.Get(ctx, failing.ID, "alice")
		Expect(err).NotTo(HaveOccurred())
		Expect(storedFailing.Status).To(Equal(docstore.StatusFailed))

		storedOK, err := docs.Get(ctx, ok.ID, "alice")
		Expect(err).NotTo(HaveOccurred())
		Expect(storedOK.Status).To(Equal(docstore.StatusDone))
	})
})
