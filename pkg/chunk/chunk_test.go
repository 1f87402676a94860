package chunk_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/engramlabs/engram/pkg/chunk"
)

var _ = Describe("Chunker", func() {
	Describe("Split", func() {
		It("returns a short document as a single chunk", func() {
			chunker := chunk.NewChunker(500, 50)

			chunks := chunker.Split("Just one short note.")
			Expect(chunks).To(Equal([]string{"Just one short note."}))
		})

		It("never returns an empty chunk list", func() {
			chunker := chunk.NewChunker(500, 50)

			Expect(chunker.Split("")).To(HaveLen(1))
			Expect(chunker.Split("no terminal punctuation at all")).To(HaveLen(1))
		})

		It("trims surrounding whitespace", func() {
			chunker := chunk.NewChunker(500, 50)

			chunks := chunker.Split("  A padded note.  ")
			Expect(chunks).To(Equal([]string{"A padded note."}))
		})

		It("splits on sentence boundaries without breaking sentences", func() {
			chunker := chunk.NewChunker(40, 10)

			text := "The first sentence is here. The second sentence follows. The third one closes."
			chunks := chunker.Split(text)

			Expect(len(chunks)).To(BeNumerically(">", 1))
			for _, c := range chunks {
				Expect(strings.HasSuffix(c, ".")).To(BeTrue())
			}
			joined := strings.Join(chunks, " ")
			Expect(joined).To(ContainSubstring("The first sentence is here."))
			Expect(joined).To(ContainSubstring("The second sentence follows."))
			Expect(joined).To(ContainSubstring("The third one closes."))
		})

		It("starts the next chunk fresh when the closed chunk exceeds the overlap", func() {
			chunker := chunk.NewChunker(20, 5)

			chunks := chunker.Split("Aaaa bbbb. Cccc dddd.")
			Expect(chunks).To(Equal([]string{"Aaaa bbbb.", "Cccc dddd."}))
		})

		It("carries the previous tail into the next chunk when the closed chunk is small", func() {
			chunker := chunk.NewChunker(20, 100)

			chunks := chunker.Split("Aaaa bbbb. Cccc dddd.")
			Expect(chunks).To(HaveLen(2))
			Expect(chunks[0]).To(Equal("Aaaa bbbb."))
			Expect(chunks[1]).To(Equal("Aaaa bbbb. Cccc dddd."))
		})

		It("keeps a single oversized sentence intact", func() {
			chunker := chunk.NewChunker(10, 2)

			long := "This single sentence is far longer than the configured chunk size."
			chunks := chunker.Split(long)
			Expect(chunks).To(Equal([]string{long}))
		})
	})
})
