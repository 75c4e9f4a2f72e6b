// Package extract enriches accepted articles with full text pulled from the
// article page itself.
package extract

import (
	"fmt"
	"time"

	readability "github.com/go-shiori/go-readability"
)

const defaultTimeout = 30 * time.Second

// Content is the extracted article body.
type Content struct {
	Text    string
	Excerpt string
	Author  string
}

// Extractor fetches and extracts readable content for a single URL. The
// pipeline calls it sequentially with a fixed inter-call delay; extraction
// failure marks the item and never aborts a pass.
type Extractor interface {
	Extract(pageURL string) (Content, error)
}

// ReadabilityExtractor implements Extractor with go-readability.
type ReadabilityExtractor struct {
	timeout time.Duration
}

// NewReadabilityExtractor builds an extractor; zero timeout uses the default.
func NewReadabilityExtractor(timeout time.Duration) *ReadabilityExtractor {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &ReadabilityExtractor{timeout: timeout}
}

var _ Extractor = (*ReadabilityExtractor)(nil)

func (e *ReadabilityExtractor) Extract(pageURL string) (Content, error) {
	if pageURL == "" {
		return Content{}, fmt.Errorf("article URL is empty")
	}

	article, err := readability.FromURL(pageURL, e.timeout)
	if err != nil {
		return Content{}, fmt.Errorf("readability extraction failed: %w", err)
	}

	return Content{
		Text:    article.TextContent,
		Excerpt: article.Excerpt,
		Author:  article.Byline,
	}, nil
}
