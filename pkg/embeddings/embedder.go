// Package embeddings
package embeddings

import "context"

// Embedder provides text embedding capabilities.
// Implementations produce vectors of a fixed, deterministic dimension.
type Embedder interface {
	// Embed converts text into a vector embedding.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch converts several texts into vector embeddings in one call,
	// preserving input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Close releases any resources held by the embedder.
	Close() error
}
