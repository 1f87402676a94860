package link_test

import (
	"context"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/engramlabs/engram/pkg/content/link"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
	<title> Release Notes </title>
	<meta name="description" content="What changed in version 2.0">
	<style>body { color: red; }</style>
	<script>console.log("tracking");</script>
</head>
<body>
	<h1>Version 2.0</h1>
	<p>The storage layer was rewritten.</p>
	<noscript>Enable JavaScript.</noscript>
</body>
</html>`

var _ = Describe("Producer", func() {
	var (
		producer *link.Producer
		ctx      context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		producer = link.NewProducer()
	})

	It("extracts text, title, and description from a page", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(samplePage))
		}))
		defer server.Close()

		got, err := producer.Produce(ctx, server.URL)
		Expect(err).NotTo(HaveOccurred())

		Expect(got.Title).To(Equal("Release Notes"))
		Expect(got.Text).To(ContainSubstring("Version 2.0"))
		Expect(got.Text).To(ContainSubstring("The storage layer was rewritten."))
		Expect(got.Metadata).To(HaveKeyWithValue("link_description", "What changed in version 2.0"))
		Expect(got.Metadata).To(HaveKeyWithValue("source_url", server.URL))
		Expect(got.Metadata).To(HaveKeyWithValue("content_type", "link"))
	})

	It("drops script, style, and noscript content", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(samplePage))
		}))
		defer server.Close()

		got, err := producer.Produce(ctx, server.URL)
		Expect(err).NotTo(HaveOccurred())

		Expect(got.Text).NotTo(ContainSubstring("tracking"))
		Expect(got.Text).NotTo(ContainSubstring("color: red"))
		Expect(got.Text).NotTo(ContainSubstring("Enable JavaScript"))
	})

	It("rejects an empty url", func() {
		_, err := producer.Produce(ctx, "")
		Expect(err).To(HaveOccurred())
	})

	It("fails on non-2xx responses", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		_, err := producer.Produce(ctx, server.URL)
		Expect(err).To(MatchError(ContainSubstring("status 404")))
	})

	It("fails when the page has no textual content", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`<html><head><script>var x = 1;</script></head><body></body></html>`))
		}))
		defer server.Close()

		_, err := producer.Produce(ctx, server.URL)
		Expect(err).To(MatchError(ContainSubstring("textual content")))
	})
})
