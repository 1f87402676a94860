// Package chunk splits raw text into overlapping sentence-aligned segments
// bounded by a target size.
package chunk

import "strings"

const (
	// DefaultSize is the default target chunk size in characters.
	DefaultSize = 500

	// DefaultOverlap is the default soft overlap between chunks in characters.
	DefaultOverlap = 50
)

// Chunker splits text into chunks. Sentences are never split; the target size
// is a soft bound a single long sentence may exceed.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker creates a Chunker with the given target size and overlap.
// Non-positive values fall back to the defaults.
func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = DefaultSize
	}
	if overlap <= 0 {
		overlap = DefaultOverlap
	}
	return &Chunker{size: size, overlap: overlap}
}

// Split produces an ordered, non-empty sequence of chunks from text.
// Sentences are greedily accumulated until adding the next one would exceed
// the target size; the next chunk then restarts either with just the new
// sentence, or with the previous chunk's last sentence prepended when the
// closed chunk was shorter than the overlap. A document with no boundary
// crossings comes back as a single chunk.
func (c *Chunker) Split(text string) []string {
	text = strings.TrimSpace(text)

	sentences := splitSentences(text)

	var chunks []string
	var current []string
	currentLength := 0

	for _, sentence := range sentences {
		sentenceLength := len(sentence)

		if currentLength+sentenceLength > c.size && len(current) > 0 {
			closed := strings.Join(current, " ")
			chunks = append(chunks, closed)

			if len(closed) > c.overlap {
				current = []string{sentence}
				currentLength = sentenceLength
			} else {
				// Small-chunk case: seed the next chunk with the closed
				// chunk's tail to keep context continuity.
				current = append([]string{current[len(current)-1]}, sentence)
				currentLength = len(strings.Join(current, " "))
			}
		} else {
			current = append(current, sentence)
			currentLength += sentenceLength + 1
		}
	}

	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}

	if len(chunks) == 0 {
		return []string{text}
	}
	return chunks
}

// splitSentences splits text on terminal punctuation followed by whitespace,
// keeping the punctuation with its sentence.
func splitSentences(text string) []string {
	var sentences []string
	start := 0

	for i := 0; i < len(text); i++ {
		ch := text[i]
		if ch != '.' && ch != '!' && ch != '?' {
			continue
		}
		if i+1 >= len(text) || !isSpace(text[i+1]) {
			continue
		}

		sentences = append(sentences, text[start:i+1])

		// Consume the whitespace run between sentences.
		j := i + 1
		for j < len(text) && isSpace(text[j]) {
			j++
		}
		start = j
		i = j - 1
	}

	if start < len(text) {
		sentences = append(sentences, text[start:])
	}

	return sentences
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
