// Package apiclient is a thin HTTP client for a running engram API server,
// used by the CLI commands.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/engramlabs/engram/api"
	"github.com/engramlabs/engram/pkg/docstore"
	"github.com/engramlabs/engram/pkg/graph"
	"github.com/engramlabs/engram/pkg/search"
	"github.com/engramlabs/engram/pkg/tier"
)

const ownerHeader = "X-Engram-Owner"

// Client talks to one engram API server on behalf of one owner.
type Client struct {
	target     string
	owner      string
	httpClient *http.Client
}

// New creates a client for the API server at target. The owner is sent on
// every request.
func New(target, owner string) (*Client, error) {
	if _, err := url.Parse(target); err != nil {
		return nil, fmt.Errorf("invalid API target URL: %w", err)
	}

	return &Client{
		target: target,
		owner:  owner,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}, nil
}

// IngestNote sends raw note text for ingestion.
func (c *Client) IngestNote(ctx context.Context, content, title, source string) (*docstore.Document, error) {
	var doc docstore.Document
	err := c.do(ctx, http.MethodPost, "/documents/ingest", api.IngestNoteRequest{
		Content: content,
		Title:   title,
		Source:  source,
	}, &doc)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// IngestLink asks the server to fetch and ingest a URL.
func (c *Client) IngestLink(ctx context.Context, link string) (*docstore.Document, error) {
	var doc docstore.Document
	err := c.do(ctx, http.MethodPost, "/documents/ingest/link", api.IngestLinkRequest{URL: link}, &doc)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// Document fetches one document record by id.
func (c *Client) Document(ctx context.Context, id string) (*docstore.Document, error) {
	var doc docstore.Document
	if err := c.do(ctx, http.MethodGet, "/documents/"+id, nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Search runs a memory search.
func (c *Client) Search(ctx context.Context, req api.SearchRequest) ([]search.Result, error) {
	var results []search.Result
	if err := c.do(ctx, http.MethodPost, "/memories/search", req, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// GraphStats fetches owner-scoped graph counts.
func (c *Client) GraphStats(ctx context.Context) (*graph.Stats, error) {
	var stats graph.Stats
	if err := c.do(ctx, http.MethodGet, "/graph/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// TierStats fetches the hot/cold distribution.
func (c *Client) TierStats(ctx context.Context) (*tier.Stats, error) {
	var stats tier.Stats
	if err := c.do(ctx, http.MethodGet, "/tiers/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// ExportGraph fetches the full owner-scoped graph.
func (c *Client) ExportGraph(ctx context.Context) (*graph.Export, error) {
	var export graph.Export
	if err := c.do(ctx, http.MethodGet, "/graph/export", nil, &export); err != nil {
		return nil, err
	}
	return &export, nil
}

// ClearOwner deletes all of the owner's data. It returns the removal
// counts keyed by kind (memories, relationships, documents).
func (c *Client) ClearOwner(ctx context.Context) (map[string]int, error) {
	counts := map[string]int{}
	if err := c.do(ctx, http.MethodDelete, "/admin/owner-data", nil, &counts); err != nil {
		return nil, err
	}
	return counts, nil
}

// do executes one JSON request/response round trip.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.target+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.owner != "" {
		req.Header.Set(ownerHeader, c.owner)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to engram API at %s: %w", c.target, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr api.ErrorResponse
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("request failed (HTTP %d): %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("request failed (HTTP %d): %s", resp.StatusCode, string(raw))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
