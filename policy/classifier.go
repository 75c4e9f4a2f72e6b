package policy

import (
	"regexp"
	"strconv"
	"strings"

	"marketbrief/types"
)

// Classification weights. Importance starts at the minimum and accumulates
// rule contributions, capped at the maximum.
const (
	weightCentralBank = 2
	weightEarnings    = 1
	weightIndicator   = 1
	weightLargeMove   = 1

	// largeMoveThreshold is the percentage change considered market-moving.
	largeMoveThreshold = 2.0
)

var centralBankTerms = []string{
	"federal reserve",
	"fomc",
	"central bank",
	"rate decision",
	"rate hike",
	"rate cut",
	"fed ",
}

var marketKeywords = []string{
	"stocks",
	"futures",
	"bond",
	"yield",
	"dow",
	"s&p",
	"nasdaq",
	"treasury",
	"dollar",
	"rally",
	"sell-off",
	"plunge",
	"surge",
}

// typeRules is the ordered keyword table for the coarse type label; the
// first matching row wins.
var typeRules = []struct {
	articleType types.ArticleType
	terms       []string
}{
	{types.TypeEarnings, []string{earningsMarker}},
	{types.TypeCentralBank, centralBankTerms},
	{types.TypeEconomicData, indicatorTerms},
	{types.TypeMarketMove, marketKeywords},
}

var percentRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`)

// Classify assigns the coarse type label and importance score for a
// validated item. Pure function of the item's content and metadata so it can
// run inline in the ingestion loop.
func Classify(item types.RawFeedItem) (types.ArticleType, int) {
	text := strings.ToLower(item.Title + " " + item.URL + " " + item.Summary)

	importance := types.MinImportance
	if containsAny(text, centralBankTerms) {
		importance += weightCentralBank
	}
	if strings.Contains(text, earningsMarker) {
		importance += weightEarnings
	}
	if containsAny(text, indicatorTerms) {
		importance += weightIndicator
	}
	if hasLargeMove(text) {
		importance += weightLargeMove
	}
	if importance > types.MaxImportance {
		importance = types.MaxImportance
	}

	for _, rule := range typeRules {
		if containsAny(text, rule.terms) {
			return rule.articleType, importance
		}
	}
	return types.TypeGeneral, importance
}

// MentionsMarket reports whether the text carries any market-relevance
// keyword. Used with MentionsIndicator to drop minimum-importance items that
// slipped through the validator's permissive fallback.
func MentionsMarket(text string) bool {
	return containsAny(strings.ToLower(text), marketKeywords)
}

func hasLargeMove(text string) bool {
	for _, match := range percentRe.FindAllStringSubmatch(text, -1) {
		if v, err := strconv.ParseFloat(match[1], 64); err == nil && v >= largeMoveThreshold {
			return true
		}
	}
	return false
}
