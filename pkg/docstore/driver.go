package docstore

import "context"

// Driver defines the interface for persisting and retrieving document
// records in a storage backend. Save is an upsert: the pipeline calls it
// repeatedly as a document's status advances.
type Driver interface {
	// Save inserts or replaces a document record.
	Save(ctx context.Context, doc *Document) error

	// Get retrieves a document by ID. When owner is non-empty the
	// document must belong to that owner to be visible.
	Get(ctx context.Context, id, owner string) (*Document, error)

	// List returns all documents for the owner, newest first. An empty
	// owner returns every document.
	List(ctx context.Context, owner string) ([]*Document, error)

	// DeleteByOwner removes all documents for the owner and returns
	// how many were deleted.
	DeleteByOwner(ctx context.Context, owner string) (int, error)

	// Close closes the store and releases any resources.
	Close() error
}
