package api

import (
	"encoding/json"
	"net/http"

	"github.com/gofiber/fiber/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/engramlabs/engram/pkg/graph"
)

var _ = Describe("graph endpoints", func() {
	var h *testHarness

	BeforeEach(func() {
		h = newTestHarness()
		h.ingestNote("ana", "Ana moved to Lisbon in June and works remotely for a fintech startup.")
		h.ingestNote("bob", "Bob is training for the Berlin marathon with a sixteen week plan.")
	})

	Describe("export", func() {
		It("returns the full graph without an owner header", func() {
			resp, raw := h.do(http.MethodGet, "/graph/export", "", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			var export graph.Export
			Expect(json.Unmarshal(raw, &export)).To(Succeed())
			Expect(export.Nodes).To(HaveLen(2))
		})

		It("scopes the export to the requesting owner", func() {
			resp, raw := h.do(http.MethodGet, "/graph/export", "ana", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			var export graph.Export
			Expect(json.Unmarshal(raw, &export)).To(Succeed())
			Expect(export.Nodes).To(HaveLen(1))
		})
	})

	Describe("stats", func() {
		It("scopes counts to the requesting owner", func() {
			resp, raw := h.do(http.MethodGet, "/graph/stats", "ana", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			var stats graph.Stats
			Expect(json.Unmarshal(raw, &stats)).To(Succeed())
			Expect(stats.TotalMemories).To(Equal(1))
		})
	})

	Describe("tier stats", func() {
		It("counts tracked memories", func() {
			resp, raw := h.do(http.MethodGet, "/tiers/stats", "", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			Expect(string(raw)).To(ContainSubstring(`"total_count":2`))
		})
	})

	Describe("clear owner data", func() {
		It("requires the owner header", func() {
			resp, _ := h.do(http.MethodDelete, "/admin/owner-data", "", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})

		It("removes the owner's memories and documents", func() {
			resp, raw := h.do(http.MethodDelete, "/admin/owner-data", "ana", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			var result map[string]int
			Expect(json.Unmarshal(raw, &result)).To(Succeed())
			Expect(result["memories"]).To(Equal(1))
			Expect(result["documents"]).To(Equal(1))

			Expect(h.engine.AllMemories("ana")).To(BeEmpty())

			listResp, _ := h.do(http.MethodGet, "/documents", "ana", nil)
			Expect(listResp.StatusCode).To(Equal(fiber.StatusOK))
		})

		It("leaves other owners untouched", func() {
			h.do(http.MethodDelete, "/admin/owner-data", "ana", nil)

			Expect(h.engine.AllMemories("bob")).To(HaveLen(1))

			resp, raw := h.do(http.MethodGet, "/documents", "bob", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			Expect(string(raw)).To(ContainSubstring(`"count":1`))
		})
	})
})
