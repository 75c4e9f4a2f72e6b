package policy

import (
	"testing"

	"marketbrief/types"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name           string
		item           types.RawFeedItem
		wantType       types.ArticleType
		wantImportance int
	}{
		{
			"plain item stays general at the floor",
			types.RawFeedItem{Title: "Company Announces New Product Line"},
			types.TypeGeneral,
			types.MinImportance,
		},
		{
			"central bank weighting",
			types.RawFeedItem{Title: "Fed Holds Rates Steady at September Meeting"},
			types.TypeCentralBank,
			3,
		},
		{
			"earnings with large move",
			types.RawFeedItem{Title: "Acme Shares Surge 5% After Earnings"},
			types.TypeEarnings,
			3,
		},
		{
			"indicator with large move",
			types.RawFeedItem{Title: "US Inflation Slows to 2.9%"},
			types.TypeEconomicData,
			3,
		},
		{
			"market move without indicator",
			types.RawFeedItem{Title: "Dow Plunges 3% at the Open"},
			types.TypeMarketMove,
			2,
		},
		{
			"small move does not count",
			types.RawFeedItem{Title: "Nasdaq Edges Up 0.3%"},
			types.TypeMarketMove,
			types.MinImportance,
		},
		{
			"summary text contributes",
			types.RawFeedItem{Title: "Morning Briefing for Investors", Summary: "The Federal Reserve signalled a rate cut."},
			types.TypeCentralBank,
			3,
		},
		{
			"importance capped at the maximum",
			types.RawFeedItem{Title: "Fed Rate Decision Looms as Earnings and Inflation Jump 3%"},
			types.TypeEarnings,
			types.MaxImportance,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			gotType, gotImportance := Classify(c.item)
			if gotType != c.wantType || gotImportance != c.wantImportance {
				t.Fatalf("Classify(%q) = %v, %d; want %v, %d",
					c.item.Title, gotType, gotImportance, c.wantType, c.wantImportance)
			}
		})
	}
}

func TestMentionsMarket(t *testing.T) {
	if !MentionsMarket("Treasury Yields Climb") {
		t.Fatal("expected market mention for treasury yields")
	}
	if MentionsMarket("Local Bakery Wins Award") {
		t.Fatal("unexpected market mention for bakery story")
	}
}
