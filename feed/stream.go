package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"marketbrief/types"
)

const streamUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"

// indexTickers mark stream entries that link straight to an index quote page
// instead of an article. Those get a synthesized market-update item rather
// than a content fetch.
var indexTickers = []string{"indu:ind", "spx:ind"}

var relativeTimeRe = regexp.MustCompile(`(?i)(\d+)\s+(minute|hour|day)s?\s+ago`)

// StreamSource scrapes the provider's live news-stream page.
type StreamSource struct {
	client  *http.Client
	pageURL string
}

// NewStreamSource wires an HTTP client; nil uses a 20s-timeout default.
func NewStreamSource(client *http.Client, pageURL string) *StreamSource {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &StreamSource{client: client, pageURL: pageURL}
}

var _ Source = (*StreamSource)(nil)

// FetchItems retrieves and parses the stream page into raw feed items,
// preserving page order (newest first upstream).
func (s *StreamSource) FetchItems(ctx context.Context) ([]types.RawFeedItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", streamUserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request stream page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stream page returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse stream page: %w", err)
	}

	return s.extractItems(doc), nil
}

func (s *StreamSource) extractItems(doc *goquery.Document) []types.RawFeedItem {
	now := time.Now().UTC()
	var items []types.RawFeedItem

	doc.Find(".te-stream-item").Each(func(_ int, sel *goquery.Selection) {
		link := sel.Find(".te-stream-title").First()
		title := strings.TrimSpace(link.Text())
		if title == "" {
			return
		}

		href, _ := link.Attr("href")
		item := types.RawFeedItem{
			Title:     title,
			URL:       s.absoluteURL(href),
			Category:  strings.TrimSpace(sel.Find(".te-stream-category").First().Text()),
			Summary:   strings.TrimSpace(sel.Find(".te-stream-description").First().Text()),
			FetchedAt: now,
		}

		if published, ok := parseRelativeTime(sel.Find(".te-stream-time").First().Text(), now); ok {
			item.PublishedAt = published
		}

		if isIndexTicker(href) {
			// Quote-page entries have no article body; synthesize one from
			// the headline so the pipeline still carries the market move.
			item.Summary = fmt.Sprintf("Market Update: %s. For detailed data, visit: %s", title, item.URL)
			item.PublishedAt = now
		}

		items = append(items, item)
	})

	return items
}

func (s *StreamSource) absoluteURL(href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "http") {
		return href
	}

	base, err := url.Parse(s.pageURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

func isIndexTicker(href string) bool {
	lower := strings.ToLower(href)
	for _, ticker := range indexTickers {
		if strings.Contains(lower, ticker) {
			return true
		}
	}
	return false
}

// parseRelativeTime turns the stream's "2 hours ago" stamps into absolute
// times. Unparseable stamps report ok=false; the pipeline defaults those to
// the current watermark.
func parseRelativeTime(text string, now time.Time) (time.Time, bool) {
	match := relativeTimeRe.FindStringSubmatch(strings.TrimSpace(text))
	if match == nil {
		return time.Time{}, false
	}

	n, err := strconv.Atoi(match[1])
	if err != nil {
		return time.Time{}, false
	}

	var unit time.Duration
	switch strings.ToLower(match[2]) {
	case "minute":
		unit = time.Minute
	case "hour":
		unit = time.Hour
	case "day":
		unit = 24 * time.Hour
	default:
		return time.Time{}, false
	}
	return now.Add(-time.Duration(n) * unit), true
}
