// Package ingest implements the ingestion pipeline: validate, chunk, embed,
// index, and link new content into the memory graph.
package ingest

import (
	"errors"
	"fmt"
)

const (
	minContentLength = 10
	maxContentLength = 1_000_000
	maxFieldLength   = 500
)

// ErrInvalidInput is returned when ingestion input fails validation.
// Validation failures surface immediately; ingestion never starts.
var ErrInvalidInput = errors.New("invalid ingestion input")

// ValidateNote checks note content and its optional title and source
// before the pipeline touches any collaborator.
func ValidateNote(content, title, source string) error {
	if len(content) < minContentLength {
		return fmt.Errorf("%w: content too short, minimum %d characters", ErrInvalidInput, minContentLength)
	}
	if len(content) > maxContentLength {
		return fmt.Errorf("%w: content too large, maximum %d characters", ErrInvalidInput, maxContentLength)
	}
	if len(title) > maxFieldLength {
		return fmt.Errorf("%w: title too long, maximum %d characters", ErrInvalidInput, maxFieldLength)
	}
	if len(source) > maxFieldLength {
		return fmt.Errorf("%w: source too long, maximum %d characters", ErrInvalidInput, maxFieldLength)
	}
	return nil
}
