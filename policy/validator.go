// Package policy holds the pure business rules applied to feed items:
// whether an item is worth ingesting, and how important it is. Everything
// here is a function of the item's own fields; no network, no state.
package policy

import (
	"strings"

	"marketbrief/types"
)

// minTitleLength filters out stubs like "CPI" or bare ticker fragments that
// the stream page emits for data points.
const minTitleLength = 10

// earningsMarker flags company-earnings items, which are always ingested.
const earningsMarker = "earnings"

// indicatorTerms is the allow-list of economic indicators considered
// market-moving regardless of where on the site they appear.
var indicatorTerms = []string{
	"inflation",
	"gdp",
	"unemployment",
	"interest rate",
	"retail sales",
	"housing",
	"consumer confidence",
	"consumer sentiment",
	"nonfarm payrolls",
	"jobless claims",
	"trade balance",
}

// denyTerms is the deny-list of low-value data-point categories. It is only
// consulted after every accept rule has had its chance, so an indicator
// match always wins over a deny match.
var denyTerms = []string{
	"precipitation",
	"rainfall",
	"average temperature",
	"co2 emissions",
	"emissions",
	"cocoa",
	"coffee",
	"lumber",
	"wool",
	"milk",
}

// IsValid decides whether a raw feed item is a genuine, substantive news
// item. Rules apply in priority order, first match wins. The final rule is
// deliberately permissive: anything not explicitly filtered is accepted.
// That favors recall over precision and is preserved as observed upstream
// behavior; tightening it is a policy decision, not a bug fix.
func IsValid(item types.RawFeedItem) bool {
	title := strings.TrimSpace(item.Title)
	lowerTitle := strings.ToLower(title)
	lowerURL := strings.ToLower(item.URL)

	// 1. Stub detection: missing/short titles, or a title that is just the
	// category label, signal a data point rather than an article.
	if len(title) < minTitleLength {
		return false
	}
	if item.Category != "" && strings.EqualFold(title, strings.TrimSpace(item.Category)) {
		return false
	}

	// 2. Earnings items are always substantive.
	if strings.Contains(lowerURL, earningsMarker) || strings.Contains(lowerTitle, earningsMarker) {
		return true
	}

	// 3. Stream-shaped URLs carrying an indicator term.
	if strings.Contains(lowerURL, "stream") && (containsAny(lowerURL, indicatorTerms) || containsAny(lowerTitle, indicatorTerms)) {
		return true
	}

	// 4. Indicator terms accept regardless of URL shape.
	if containsAny(lowerTitle, indicatorTerms) || containsAny(lowerURL, indicatorTerms) {
		return true
	}

	// 5. Known low-value categories.
	if containsAny(lowerTitle, denyTerms) || containsAny(lowerURL, denyTerms) {
		return false
	}

	// 6. Default-permissive fallback.
	return true
}

// MentionsIndicator reports whether the item's title or URL carries one of
// the important-indicator terms. Used by the pipeline's low-value drop rule.
func MentionsIndicator(item types.RawFeedItem) bool {
	return containsAny(strings.ToLower(item.Title), indicatorTerms) ||
		containsAny(strings.ToLower(item.URL), indicatorTerms)
}

func containsAny(s string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}
