// Package summarize condenses article content into short summaries using
// the Cohere chat API.
package summarize

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"strings"
	"time"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"

	"marketbrief/config"
)

const (
	requestTimeout = 60 * time.Second

	// Long articles are truncated before the prompt; summaries only need
	// the opening of the piece.
	maxInputChars = 8000

	preamble = "You are a financial news editor. Summarize the article in " +
		"2-3 sentences for a market briefing. State the facts and figures; " +
		"no preamble, no opinions."
)

// Summarizer produces a short summary for article text.
type Summarizer interface {
	Summarize(ctx context.Context, title, content string) (string, error)
}

// CohereSummarizer implements Summarizer against the Cohere chat endpoint.
type CohereSummarizer struct {
	client *cohereclient.Client
	model  string
}

// NewCohereSummarizer builds a summarizer from configuration.
func NewCohereSummarizer(cfg config.CohereConfig) *CohereSummarizer {
	// Force HTTP/1.1 to avoid HTTP/2 protocol errors against the Cohere API
	httpClient := &http.Client{
		Timeout: requestTimeout,
		Transport: &http.Transport{
			TLSNextProto:      make(map[string]func(authority string, c *tls.Conn) http.RoundTripper),
			ForceAttemptHTTP2: false,
		},
	}
	client := cohereclient.NewClient(
		cohereclient.WithToken(cfg.APIKey),
		cohereclient.WithHTTPClient(httpClient),
	)
	return &CohereSummarizer{client: client, model: cfg.Model}
}

var _ Summarizer = (*CohereSummarizer)(nil)

// Summarize condenses the article. Empty content falls back to the title
// alone so the worker still produces something usable for headline items.
func (s *CohereSummarizer) Summarize(ctx context.Context, title, content string) (string, error) {
	content = strings.TrimSpace(content)
	if len(content) > maxInputChars {
		content = content[:maxInputChars]
	}

	message := "Title: " + title
	if content != "" {
		message += "\n\nArticle:\n" + content
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := s.client.Chat(ctx, &cohere.ChatRequest{
		Model:    cohere.String(s.model),
		Preamble: cohere.String(preamble),
		Message:  message,
	})
	if err != nil {
		return "", fmt.Errorf("cohere chat: %w", err)
	}

	summary := strings.TrimSpace(resp.Text)
	if summary == "" {
		return "", fmt.Errorf("cohere chat: empty response for %q", title)
	}
	return summary, nil
}
