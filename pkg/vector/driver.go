// Package vector provides interfaces and implementations for the similarity
// index that durably stores memory and relationship points.
package vector

import "context"

// Point represents a stored item with its embedding and payload.
type Point struct {
	// ID is a unique identifier for the point (the memory or relationship id).
	ID string

	// Vector is the embedding for the point. Relationship points carry a
	// one-dimensional confidence vector.
	Vector []float32

	// Payload holds the persisted attributes (content, owner, flags, ...).
	Payload map[string]any
}

// Result represents a search result with similarity score.
type Result struct {
	Point

	// Score represents the similarity score (higher = more similar).
	Score float32
}

// SearchOpts narrows a nearest-neighbor query.
type SearchOpts struct {
	// Limit is the maximum number of results (defaults to 10 when zero).
	Limit int

	// ScoreThreshold drops results scoring below it when > 0.
	ScoreThreshold float32

	// Owner restricts results to points whose payload owner matches.
	// Empty means no owner filter.
	Owner string
}

// Driver handles storage and retrieval of vector points for one collection.
// A process typically holds two drivers: one for memory points and one for
// relationship points.
type Driver interface {
	// Upsert stores a point. An existing point with the same ID is replaced.
	Upsert(ctx context.Context, point Point) error

	// UpsertBatch stores points in bulk with upsert semantics.
	UpsertBatch(ctx context.Context, points []Point) error

	// Search finds the points most similar to the given embedding.
	Search(ctx context.Context, embedding []float32, opts SearchOpts) ([]Result, error)

	// FetchAll returns every stored point's ID and payload (vectors omitted),
	// optionally scoped to an owner. Used to hydrate the graph at startup.
	FetchAll(ctx context.Context, owner string) ([]Point, error)

	// DeleteByOwner removes every point whose payload owner matches.
	DeleteByOwner(ctx context.Context, owner string) error

	// Close releases any resources held by the driver.
	Close() error
}
