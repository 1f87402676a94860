// Package sqlite provides a SQLite-backed document store.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/engramlabs/engram/pkg/docstore"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id            TEXT PRIMARY KEY,
	owner         TEXT NOT NULL,
	title         TEXT NOT NULL DEFAULT '',
	source        TEXT NOT NULL DEFAULT '',
	document_type TEXT NOT NULL,
	status        TEXT NOT NULL,
	error_message TEXT NOT NULL DEFAULT '',
	memory_ids    TEXT NOT NULL DEFAULT '[]',
	metadata      TEXT NOT NULL DEFAULT '{}',
	created_at    TEXT NOT NULL,
	processed_at  TEXT
);
CREATE INDEX IF NOT EXISTS idx_documents_owner ON documents(owner);
`

// Driver implements docstore.Driver using SQLite.
type Driver struct {
	db *sql.DB
}

// NewDriver creates a new SQLite-backed document store.
// The dbPath can be a file path or ":memory:" for an in-memory database.
func NewDriver(dbPath string) (*Driver, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Driver{db: db}, nil
}

// Save inserts or replaces a document record.
func (s *Driver) Save(ctx context.Context, doc *docstore.Document) error {
	if doc == nil {
		return errors.New("cannot store nil document")
	}

	memoryIDs, err := json.Marshal(doc.MemoryIDs)
	if err != nil {
		return fmt.Errorf("failed to encode memory ids: %w", err)
	}
	metadata, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	var processedAt any
	if doc.ProcessedAt != nil {
		processedAt = doc.ProcessedAt.UTC().Format(time.RFC3339Nano)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents
			(id, owner, title, source, document_type, status, error_message, memory_ids, metadata, created_at, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			error_message = excluded.error_message,
			memory_ids = excluded.memory_ids,
			metadata = excluded.metadata,
			processed_at = excluded.processed_at`,
		doc.ID, doc.Owner, doc.Title, doc.Source, string(doc.DocumentType),
		string(doc.Status), doc.ErrorMessage, string(memoryIDs), string(metadata),
		doc.CreatedAt.UTC().Format(time.RFC3339Nano), processedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}

	return nil
}

// Get retrieves a document by ID, enforcing owner scoping when owner is set.
func (s *Driver) Get(ctx context.Context, id, owner string) (*docstore.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner, title, source, document_type, status, error_message, memory_ids, metadata, created_at, processed_at
		FROM documents WHERE id = ?`, id)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, docstore.ErrNotFound{ID: id}
		}
		return nil, err
	}
	if owner != "" && doc.Owner != owner {
		return nil, docstore.ErrNotFound{ID: id}
	}

	return doc, nil
}

// List returns all documents for the owner, newest first.
func (s *Driver) List(ctx context.Context, owner string) ([]*docstore.Document, error) {
	query := `
		SELECT id, owner, title, source, document_type, status, error_message, memory_ids, metadata, created_at, processed_at
		FROM documents`
	args := []any{}
	if owner != "" {
		query += ` WHERE owner = ?`
		args = append(args, owner)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []*docstore.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	return docs, rows.Err()
}

// DeleteByOwner removes all documents for the owner.
func (s *Driver) DeleteByOwner(ctx context.Context, owner string) (int, error) {
	if owner == "" {
		return 0, nil
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE owner = ?`, owner)
	if err != nil {
		return 0, fmt.Errorf("failed to delete documents: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	return int(deleted), nil
}

// Close closes the underlying database handle.
func (s *Driver) Close() error {
	return s.db.Close()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*docstore.Document, error) {
	var (
		doc         docstore.Document
		docType     string
		status      string
		memoryIDs   string
		metadata    string
		createdAt   string
		processedAt sql.NullString
	)

	err := row.Scan(&doc.ID, &doc.Owner, &doc.Title, &doc.Source, &docType,
		&status, &doc.ErrorMessage, &memoryIDs, &metadata, &createdAt, &processedAt)
	if err != nil {
		return nil, err
	}

	doc.DocumentType = docstore.DocumentType(docType)
	doc.Status = docstore.Status(status)

	if err := json.Unmarshal([]byte(memoryIDs), &doc.MemoryIDs); err != nil {
		return nil, fmt.Errorf("failed to decode memory ids: %w", err)
	}
	if err := json.Unmarshal([]byte(metadata), &doc.Metadata); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}

	doc.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if processedAt.Valid {
		ts, err := time.Parse(time.RFC3339Nano, processedAt.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse processed_at: %w", err)
		}
		doc.ProcessedAt = &ts
	}

	return &doc, nil
}
