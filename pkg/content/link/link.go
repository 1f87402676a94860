// Package link fetches a URL and converts its HTML to plaintext.
package link

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/engramlabs/engram/pkg/content"
)

const defaultTimeout = 15 * time.Second

// Producer implements content.Producer for web links.
type Producer struct {
	httpClient *http.Client
}

// NewProducer creates a link producer with the default fetch timeout.
func NewProducer() *Producer {
	return &Producer{
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// Produce downloads the URL and extracts its textual content, page title,
// and meta description.
func (p *Producer) Produce(ctx context.Context, source string) (*content.Content, error) {
	if source == "" {
		return nil, errors.New("url is required for link ingestion")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch url: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("failed to fetch url: unexpected status %d", resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	page := extract(doc)
	if page.text == "" {
		return nil, errors.New("unable to extract textual content from the provided url")
	}

	return &content.Content{
		Text:  page.text,
		Title: page.title,
		Metadata: map[string]any{
			"source_url":       source,
			"link_title":       page.title,
			"link_description": page.description,
			"content_type":     "link",
		},
	}, nil
}

type page struct {
	text        string
	title       string
	description string
}

// extract walks the parsed document collecting visible text, the page
// title, and the meta description. Script, style, and noscript subtrees
// are skipped to reduce noise.
func extract(doc *html.Node) page {
	var (
		result  page
		builder strings.Builder
	)

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			case "title":
				if result.title == "" && n.FirstChild != nil {
					result.title = strings.TrimSpace(n.FirstChild.Data)
				}
				return
			case "meta":
				if metaName(n) == "description" {
					result.description = strings.TrimSpace(metaContent(n))
				}
			}
		}
		if n.Type == html.TextNode {
			builder.WriteString(n.Data)
			builder.WriteString("\n")
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	var lines []string
	for _, line := range strings.Split(builder.String(), "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	result.text = strings.Join(lines, "\n")

	return result
}

func metaName(n *html.Node) string {
	for _, attr := range n.Attr {
		if attr.Key == "name" {
			return attr.Val
		}
	}
	return ""
}

func metaContent(n *html.Node) string {
	for _, attr := range n.Attr {
		if attr.Key == "content" {
			return attr.Val
		}
	}
	return ""
}

var _ content.Producer = (*Producer)(nil)
