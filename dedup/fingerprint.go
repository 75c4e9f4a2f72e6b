// Package dedup decides, across repeated polls of an unversioned upstream
// feed, which items have been seen before. Identity is a normalized
// url|title fingerprint; history is a capped FIFO of fingerprints in the
// shared fast cache plus a single watermark timestamp.
package dedup

import (
	"strings"

	"marketbrief/types"
)

// Fingerprint derives the stable identity key for a raw feed item. It is
// pure and total: an item with no URL gets a placeholder synthesized from
// the title so two URL-less items with the same title still collide.
func Fingerprint(item types.RawFeedItem) string {
	return Key(item.URL, item.Title)
}

// Key builds the normalized url|title composite used across all dedup tiers:
// the intra-pass accumulator, the cached fingerprint history, and the
// durable store's recent window.
func Key(url, title string) string {
	u := normalize(url)
	if u == "" {
		u = "item://" + normalize(title)
	}
	return u + "|" + normalize(title)
}

// normalize trims, lower-cases, and collapses internal whitespace. The
// upstream feed is observed to vary capitalization and spacing for the same
// story across polls.
func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), " ")
}
