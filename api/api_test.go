package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gofiber/fiber/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/engramlabs/engram/pkg/docstore"
	"github.com/engramlabs/engram/pkg/docstore/inmemory"
	"github.com/engramlabs/engram/pkg/graph"
	"github.com/engramlabs/engram/pkg/ingest"
	"github.com/engramlabs/engram/pkg/ingest/worker"
	"github.com/engramlabs/engram/pkg/search"
	"github.com/engramlabs/engram/pkg/tier"
	testutils "github.com/engramlabs/engram/pkg/utils/test"
)

// testHarness bundles the server with the collaborators tests poke at
// directly.
type testHarness struct {
	server    *Server
	engine    *graph.Engine
	memIndex  *testutils.MockVectorDriver
	documents *inmemory.Driver
	tiering   *tier.Manager
	pipeline  *ingest.Pipeline
}

func newTestHarness() *testHarness {
	logger := zap.NewNop()
	memIndex := testutils.NewMockVectorDriver()
	relIndex := testutils.NewMockVectorDriver()
	embedder := testutils.NewMockEmbedder()

	engine := graph.NewEngine(memIndex, relIndex, logger)
	documents := inmemory.NewDriver()
	tiering := tier.NewManager(tier.Config{
		ColdEnabled:        true,
		HotAgeDays:         30,
		HotAccessThreshold: 5,
	}, logger)

	pipeline, err := ingest.NewPipeline(&ingest.Config{
		Engine:      engine,
		MemoryIndex: memIndex,
		Embedder:    embedder,
		Docstore:    documents,
		Tiering:     tiering,
		Logger:      logger,
	})
	Expect(err).NotTo(HaveOccurred())

	searcher := search.NewService(engine, memIndex, embedder, tiering, logger)

	server := NewServer(Config{
		ListenAddr: ":0",
		Pipeline:   pipeline,
		Searcher:   searcher,
		Documents:  documents,
		Tiering:    tiering,
	}, engine, logger)

	return &testHarness{
		server:    server,
		engine:    engine,
		memIndex:  memIndex,
		documents: documents,
		tiering:   tiering,
		pipeline:  pipeline,
	}
}

// do executes a request against the fiber app and decodes the JSON body.
func (h *testHarness) do(method, path, owner string, body any) (*http.Response, []byte) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		Expect(err).NotTo(HaveOccurred())
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, path, reader)
	Expect(err).NotTo(HaveOccurred())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if owner != "" {
		req.Header.Set(ownerHeader, owner)
	}

	resp, err := h.server.app.Test(req)
	Expect(err).NotTo(HaveOccurred())

	raw, err := io.ReadAll(resp.Body)
	Expect(err).NotTo(HaveOccurred())
	return resp, raw
}

func (h *testHarness) ingestNote(owner, content string) docstore.Document {
	resp, raw := h.do(http.MethodPost, "/documents/ingest", owner, IngestNoteRequest{
		Content: content,
		Title:   "note",
	})
	Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

	var doc docstore.Document
	Expect(json.Unmarshal(raw, &doc)).To(Succeed())
	return doc
}

var _ = Describe("Server", func() {
	var h *testHarness

	BeforeEach(func() {
		h = newTestHarness()
	})

	Describe("ping", func() {
		It("responds with pong", func() {
			resp, raw := h.do(http.MethodGet, "/ping", "", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			Expect(string(raw)).To(ContainSubstring("pong"))
		})
	})

	Describe("health", func() {
		It("reports healthy with graph stats", func() {
			resp, raw := h.do(http.MethodGet, "/health", "", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			Expect(string(raw)).To(ContainSubstring("healthy"))
			Expect(string(raw)).To(ContainSubstring("total_memories"))
		})
	})

	Describe("note ingestion", func() {
		It("requires the owner header", func() {
			resp, raw := h.do(http.MethodPost, "/documents/ingest", "", IngestNoteRequest{
				Content: "the quick brown fox jumps over the lazy dog",
			})
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
			Expect(string(raw)).To(ContainSubstring(ownerHeader))
		})

		It("rejects content that is too short", func() {
			resp, _ := h.do(http.MethodPost, "/documents/ingest", "ana", IngestNoteRequest{
				Content: "short",
			})
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})

		It("processes a note and returns the completed document", func() {
			doc := h.ingestNote("ana", "Ana moved to Lisbon in June and works remotely for a fintech startup.")
			Expect(doc.Status).To(Equal(docstore.StatusDone))
			Expect(doc.Owner).To(Equal("ana"))
			Expect(doc.MemoryIDs).NotTo(BeEmpty())
		})

		It("creates graph memories owned by the caller", func() {
			doc := h.ingestNote("ana", "Ana moved to Lisbon in June and works remotely for a fintech startup.")
			for _, id := range doc.MemoryIDs {
				Expect(h.engine.Memory(id, "ana")).NotTo(BeNil())
			}
		})
	})

	Describe("queued note ingestion", func() {
		var pool *worker.Pool

		BeforeEach(func() {
			var err error
			pool, err = worker.NewPool(&worker.Config{
				Pipeline:   h.pipeline,
				NumWorkers: 1,
				Logger:     zap.NewNop(),
			})
			Expect(err).NotTo(HaveOccurred())
			h.server.config.Workers = pool
		})

		AfterEach(func() {
			pool.Close()
		})

		It("accepts the note and processes it in the background", func() {
			resp, raw := h.do(http.MethodPost, "/documents/ingest", "ana", IngestNoteRequest{
				Content: "Ana moved to Lisbon in June and works remotely for a fintech startup.",
			})
			Expect(resp.StatusCode).To(Equal(fiber.StatusAccepted))

			var doc docstore.Document
			Expect(json.Unmarshal(raw, &doc)).To(Succeed())
			Expect(doc.Status).To(Equal(docstore.StatusQueued))

			Eventually(func() docstore.Status {
				stored, err := h.documents.Get(context.Background(), doc.ID, "ana")
				if err != nil {
					return ""
				}
				return stored.Status
			}).Should(Equal(docstore.StatusDone))
		})

		It("still validates before queueing", func() {
			resp, _ := h.do(http.MethodPost, "/documents/ingest", "ana", IngestNoteRequest{
				Content: "short",
			})
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})
	})

	Describe("document lookup", func() {
		It("lists the owner's documents newest first", func() {
			h.ingestNote("ana", "Ana moved to Lisbon in June and works remotely for a fintech startup.")
			h.ingestNote("ana", "Ana adopted a cat named Miso from the local shelter last weekend.")

			resp, raw := h.do(http.MethodGet, "/documents", "ana", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			Expect(string(raw)).To(ContainSubstring(`"count":2`))
		})

		It("returns a document by id", func() {
			doc := h.ingestNote("ana", "Ana moved to Lisbon in June and works remotely for a fintech startup.")

			resp, raw := h.do(http.MethodGet, "/documents/"+doc.ID, "ana", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			Expect(string(raw)).To(ContainSubstring(doc.ID))
		})

		It("hides documents from other owners", func() {
			doc := h.ingestNote("ana", "Ana moved to Lisbon in June and works remotely for a fintech startup.")

			resp, _ := h.do(http.MethodGet, "/documents/"+doc.ID, "bob", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))
		})

		It("returns 404 for an unknown document", func() {
			resp, _ := h.do(http.MethodGet, "/documents/nope", "ana", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))
		})

		It("returns the memories created from a document", func() {
			doc := h.ingestNote("ana", "Ana moved to Lisbon in June and works remotely for a fintech startup.")

			resp, raw := h.do(http.MethodGet, "/documents/"+doc.ID+"/memories", "ana", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			var memories []graph.Memory
			Expect(json.Unmarshal(raw, &memories)).To(Succeed())
			Expect(memories).To(HaveLen(len(doc.MemoryIDs)))
		})

		It("honors skip and limit on document memories", func() {
			doc := h.ingestNote("ana", "Ana moved to Lisbon in June and works remotely for a fintech startup.")

			resp, raw := h.do(http.MethodGet, "/documents/"+doc.ID+"/memories?skip=999", "ana", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			var memories []graph.Memory
			Expect(json.Unmarshal(raw, &memories)).To(Succeed())
			Expect(memories).To(BeEmpty())
		})

		It("rejects a negative limit", func() {
			doc := h.ingestNote("ana", "Ana moved to Lisbon in June and works remotely for a fintech startup.")

			resp, _ := h.do(http.MethodGet, "/documents/"+doc.ID+"/memories?limit=-1", "ana", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})
	})

	Describe("when ingestion is not configured", func() {
		It("returns 503", func() {
			bare := NewServer(Config{ListenAddr: ":0"}, h.engine, zap.NewNop())

			req, err := http.NewRequest(http.MethodPost, "/documents/ingest", nil)
			Expect(err).NotTo(HaveOccurred())
			req.Header.Set(ownerHeader, "ana")

			resp, err := bare.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusServiceUnavailable))
		})
	})
})
