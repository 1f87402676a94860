package mcp_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/engramlabs/engram/api/mcp"
	"github.com/engramlabs/engram/pkg/graph"
	"github.com/engramlabs/engram/pkg/search"
	testutils "github.com/engramlabs/engram/pkg/utils/test"
)

var _ = Describe("MCP Server", func() {
	var (
		server   *mcp.Server
		searcher *search.Service
	)

	BeforeEach(func() {
		logger := zap.NewNop()
		memIndex := testutils.NewMockVectorDriver()
		embedder := testutils.NewMockEmbedder()
		engine := graph.NewEngine(memIndex, testutils.NewMockVectorDriver(), logger)
		searcher = search.NewService(engine, memIndex, embedder, nil, logger)

		var err error
		server, err = mcp.NewServer(mcp.Config{
			Searcher: searcher,
			Logger:   logger,
		})
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("NewServer", func() {
		It("returns an error when the search service is nil", func() {
			_, err := mcp.NewServer(mcp.Config{
				Logger: zap.NewNop(),
			})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("search service is required"))
		})

		It("returns an error when logger is nil", func() {
			_, err := mcp.NewServer(mcp.Config{
				Searcher: searcher,
			})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("logger is required"))
		})

		It("creates a server with valid config", func() {
			Expect(server).NotTo(BeNil())
		})

		It("returns an HTTP handler", func() {
			handler := server.Handler()
			Expect(handler).NotTo(BeNil())
		})

		It("creates an empty server when noop is set", func() {
			noop, err := mcp.NewServer(mcp.Config{Noop: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(noop).NotTo(BeNil())
		})
	})
})
