// Package summarize defines the optional text summarization contract used
// during ingestion. Summaries are best-effort: a failing or absent summarizer
// never blocks ingestion.
package summarize

import "context"

// Summarizer condenses a text span into a short summary.
type Summarizer interface {
	// Summarize returns a brief summary of the given text.
	Summarize(ctx context.Context, text string) (string, error)

	// Close releases resources held by the summarizer.
	Close() error
}
