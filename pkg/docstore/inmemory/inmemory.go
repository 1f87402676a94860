// Package inmemory provides a map-backed document store.
package inmemory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/engramlabs/engram/pkg/docstore"
)

// Driver implements docstore.Driver using an in-memory map.
type Driver struct {
	mu sync.RWMutex

	// documents maps document ID to its record
	documents map[string]*docstore.Document
}

// NewDriver creates a new in-memory document store.
func NewDriver() *Driver {
	return &Driver{
		documents: make(map[string]*docstore.Document),
	}
}

// Save inserts or replaces a document record.
func (s *Driver) Save(_ context.Context, doc *docstore.Document) error {
	if doc == nil {
		return errors.New("cannot store nil document")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.documents[doc.ID] = doc
	return nil
}

// Get retrieves a document by ID, enforcing owner scoping when owner is set.
func (s *Driver) Get(_ context.Context, id, owner string) (*docstore.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.documents[id]
	if !ok {
		return nil, docstore.ErrNotFound{ID: id}
	}
	if owner != "" && doc.Owner != owner {
		return nil, docstore.ErrNotFound{ID: id}
	}

	return doc, nil
}

// List returns all documents for the owner, newest first.
func (s *Driver) List(_ context.Context, owner string) ([]*docstore.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]*docstore.Document, 0, len(s.documents))
	for _, doc := range s.documents {
		if owner != "" && doc.Owner != owner {
			continue
		}
		docs = append(docs, doc)
	}

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})

	return docs, nil
}

// DeleteByOwner removes all documents for the owner.
func (s *Driver) DeleteByOwner(_ context.Context, owner string) (int, error) {
	if owner == "" {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for id, doc := range s.documents {
		if doc.Owner == owner {
			delete(s.documents, id)
			deleted++
		}
	}

	return deleted, nil
}

// Count returns the number of documents in the store.
func (s *Driver) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.documents)
}

// Close is a no-op for the in-memory store.
func (s *Driver) Close() error {
	return nil
}
