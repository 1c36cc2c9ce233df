package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_market/internal/engine"
)

func TestSimpleSentiment(t *testing.T) {
	tests := []struct {
		text string
		want float64
	}{
		{"", 0},
		{"nothing to see", 0},
		{"Great tool, love it", 1},
		{"the worst, totally broken", -1},
		{"good idea but terrible UX and broken sync", -1.0 / 3},
		{"goodness is not a lexicon word", 0},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.InDelta(t, tt.want, SimpleSentiment(tt.text), 0.0001)
		})
	}
}

func TestKeywordOpportunityScore(t *testing.T) {
	assert.Equal(t, 1.0, KeywordOpportunityScore(40, 1, 25))
	assert.Equal(t, 0.15, KeywordOpportunityScore(0, 0, 0))
	assert.Equal(t, 0.5, KeywordOpportunityScore(10, 0, 5))
}

func TestSourceOf(t *testing.T) {
	assert.Equal(t, "reddit.com", sourceOf("https://www.Reddit.com/r/saas/1"))
	assert.Equal(t, "news.ycombinator.com", sourceOf("https://news.ycombinator.com/item?id=1"))
	assert.Equal(t, "unknown", sourceOf("not a url"))
	assert.Equal(t, "unknown", sourceOf(""))
}

func TestSignalKeyword(t *testing.T) {
	kws := []string{"invoicing", "CRM"}
	assert.Equal(t, "CRM", signalKeyword(kws, "our crm is a mess"))
	assert.Equal(t, "invoicing", signalKeyword(kws, "unrelated text"))
	assert.Empty(t, signalKeyword(nil, "anything"))
}

func TestDiscoverySignals(t *testing.T) {
	r := &DiscoveryReport{
		Keywords: []string{"invoicing", "crm"},
		PrimaryMarket: &PrimaryMarket{
			Signals: []SearchSignal{{SignalType: "pain", Title: "CRM is terrible", URL: "https://www.g2.com/x", RelevanceScore: 0.9}},
			Dimensions: map[string][]engine.SearchResult{
				"user_problems":   {{Title: "Invoicing hacks", Content: "love this", URL: "https://reddit.com/r/1", Score: 0.4}},
				"adjacent_market": {{Title: "Expense tools", URL: "", Score: 0.2}},
			},
		},
		QuickSignals: map[string][]SearchSignal{
			KindWorkflowGaps: {{SignalType: KindWorkflowGaps, Title: "w"}},
			KindAdjacent:     {{SignalType: KindAdjacent, Title: "a"}},
		},
	}

	got := DiscoverySignals(r)
	require.Len(t, got, 5)

	assert.Equal(t, "crm", got[0].Keyword)
	assert.Equal(t, "g2.com", got[0].Source)
	assert.Equal(t, -1.0, got[0].Sentiment)

	assert.Equal(t, "adjacent_market", got[1].SignalType, "dimensions are flattened in name order")
	assert.Equal(t, "unknown", got[1].Source)
	assert.Equal(t, "user_problems", got[2].SignalType)
	assert.Equal(t, 1.0, got[2].Sentiment)
	assert.Equal(t, "invoicing", got[2].Keyword)

	assert.Equal(t, KindAdjacent, got[3].SignalType)
	assert.Equal(t, KindWorkflowGaps, got[4].SignalType)
}

func TestDiscoverySignals_Empty(t *testing.T) {
	assert.Empty(t, DiscoverySignals(&DiscoveryReport{}))
}
