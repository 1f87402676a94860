// Package ollama implements pkg/summarize's Summarizer against Ollama's
// generate API.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/engramlabs/engram/pkg/summarize"
)

const (
	// DefaultModel is the default generation model used for summaries.
	DefaultModel = "llama3.2"

	// DefaultBaseURL is the default Ollama API URL.
	DefaultBaseURL = "http://localhost:11434"

	// minSummarizeLength skips summarization for short texts where a summary
	// adds nothing.
	minSummarizeLength = 120

	// maxPromptContent bounds how much raw content goes into the prompt.
	maxPromptContent = 8000
)

const summarizePrompt = `You are summarizing content for a personal knowledge base.
Given the raw text below, create a concise bullet summary (max 6 bullets) highlighting the key info.
If the text is mostly boilerplate or navigation, note that it could not be summarized usefully.

Return plain text with bullet points.

CONTENT:
%s
`

// Summarizer wraps Ollama's generate API.
type Summarizer struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// Config holds configuration for the Ollama summarizer.
type Config struct {
	// BaseURL is the Ollama API URL. Defaults to DefaultBaseURL if empty.
	BaseURL string

	// Model is the generation model to use. Defaults to DefaultModel if empty.
	Model string
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// NewSummarizer creates a summarizer backed by Ollama's generate API.
func NewSummarizer(cfg Config) (*Summarizer, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	return &Summarizer{
		baseURL: baseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}, nil
}

// Summarize returns a bullet summary of text, or an empty string for texts
// too short to be worth summarizing.
func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	if len(text) < minSummarizeLength {
		return "", nil
	}

	content := text
	if len(content) > maxPromptContent {
		content = content[:maxPromptContent]
	}

	reqBody := generateRequest{
		Model:  s.model,
		Prompt: fmt.Sprintf(summarizePrompt, content),
		Stream: false,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/api/generate", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, string(body))
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	return strings.TrimSpace(genResp.Response), nil
}

// Close releases resources held by the summarizer.
func (s *Summarizer) Close() error {
	// HTTP client doesn't require explicit cleanup
	return nil
}

var _ summarize.Summarizer = (*Summarizer)(nil)
