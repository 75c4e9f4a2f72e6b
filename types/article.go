package types

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// RawFeedItem is a single entry as scraped from the upstream news stream.
// Nothing about it is guaranteed unique; the same story can reappear across
// polls with a reformatted URL or whitespace-varied title.
type RawFeedItem struct {
	Title       string    `json:"title"`
	URL         string    `json:"url,omitempty"`
	Category    string    `json:"category,omitempty"`
	Summary     string    `json:"summary,omitempty"`
	Author      string    `json:"author,omitempty"`
	PublishedAt time.Time `json:"published_at,omitempty"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// ArticleType is the coarse label assigned by the classification policy.
type ArticleType string

const (
	TypeEarnings     ArticleType = "earnings"
	TypeCentralBank  ArticleType = "central_bank"
	TypeEconomicData ArticleType = "economic_data"
	TypeMarketMove   ArticleType = "market_move"
	TypeGeneral      ArticleType = "general"
)

// Importance bounds for classified articles.
const (
	MinImportance = 1
	MaxImportance = 5
)

// ClassifiedArticle is a raw item that survived validation and dedup, plus
// its classification. Created during one ingestion pass, handed straight to
// persistence, never mutated again by the pipeline.
type ClassifiedArticle struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	URL         string      `json:"url"`
	Category    string      `json:"category,omitempty"`
	Content     string      `json:"content,omitempty"`
	Summary     string      `json:"summary,omitempty"`
	Author      string      `json:"author,omitempty"`
	PublishedAt time.Time   `json:"published_at"`
	FetchedAt   time.Time   `json:"fetched_at"`
	Type        ArticleType `json:"type"`
	Importance  int         `json:"importance"`
}

// GenerateID creates a short, stable ID by hashing the provided string input.
func GenerateID(input string) string {
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])[:16]
}
