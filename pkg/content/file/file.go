// Package file reads plaintext document content from the filesystem.
package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/engramlabs/engram/pkg/content"
)

// supportedExtensions lists the file types the producer can extract text from.
var supportedExtensions = map[string]struct{}{
	".txt": {},
	".md":  {},
}

// Producer implements content.Producer for local files.
type Producer struct{}

// NewProducer creates a file producer.
func NewProducer() *Producer {
	return &Producer{}
}

// Produce reads the file at the given path. The title defaults to the
// file name without its extension.
func (p *Producer) Produce(_ context.Context, source string) (*content.Content, error) {
	if source == "" {
		return nil, errors.New("file path is required for file ingestion")
	}

	ext := strings.ToLower(filepath.Ext(source))
	if _, ok := supportedExtensions[ext]; !ok {
		if ext == "" {
			ext = "unknown"
		}
		return nil, fmt.Errorf("unsupported file type: %s", ext)
	}

	raw, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	text := strings.TrimSpace(string(raw))
	if text == "" {
		return nil, errors.New("could not extract textual content from the file")
	}

	name := filepath.Base(source)
	title := strings.TrimSuffix(name, filepath.Ext(name))

	return &content.Content{
		Text:  text,
		Title: title,
		Metadata: map[string]any{
			"file_name":      name,
			"file_extension": ext,
			"content_type":   "file",
		},
	}, nil
}

var _ content.Producer = (*Producer)(nil)
