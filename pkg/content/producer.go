// Package content loads and normalizes document content from external
// sources before it enters the ingestion pipeline.
package content

import "context"

// Content is normalized plaintext extracted from a source, with whatever
// metadata the producer could recover about it.
type Content struct {
	Text     string
	Title    string
	Metadata map[string]any
}

// Producer extracts plaintext content from a source reference. The source's
// meaning depends on the producer: a URL for link producers, a filesystem
// path for file producers.
type Producer interface {
	Produce(ctx context.Context, source string) (*Content, error)
}
