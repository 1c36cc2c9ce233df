package market

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_market/internal/engine"
)

func TestExtractKeySignals(t *testing.T) {
	data := map[string]any{
		"pain_points": []string{"a", "b", "c", "d"},
		"nested": map[string]any{
			"cost_notes": "very expensive subscriptions",
			"gap":        "short",
		},
	}
	ks := ExtractKeySignals(data)
	assert.Equal(t, []any{"a", "b", "c"}, ks.PainPoints)
	assert.Equal(t, []any{"very expensive subscriptions"}, ks.CostInefficiencies)
	assert.Empty(t, ks.MarketGaps, "strings of 10 chars or less are ignored")
	assert.Empty(t, ks.WorkflowBreaks)
}

func TestExtractKeySignals_Nil(t *testing.T) {
	ks := ExtractKeySignals(nil)
	assert.Empty(t, ks.PainPoints)
}

func TestExtractKeySignals_BucketCap(t *testing.T) {
	var items []map[string]any
	for range 5 {
		items = append(items, map[string]any{
			"problem_a": []string{"x1", "x2", "x3"},
			"problem_b": []string{"y1", "y2", "y3"},
		})
	}
	ks := ExtractKeySignals(map[string]any{"results": items})
	assert.Len(t, ks.PainPoints, maxSignalsPerBucket)
}

func TestExtractKeySignals_StableOrder(t *testing.T) {
	data := map[string]any{}
	for i := range 12 {
		data[fmt.Sprintf("problem_%02d", i)] = fmt.Sprintf("problem number %02d with billing", i)
	}
	first := ExtractKeySignals(data).PainPoints
	require.Len(t, first, maxSignalsPerBucket)
	assert.Equal(t, "problem number 00 with billing", first[0])
	for range 20 {
		assert.Equal(t, first, ExtractKeySignals(data).PainPoints)
	}
}

func TestProcessSearchResultsForSignals(t *testing.T) {
	long := strings.Repeat("z", 800)
	var outcomes []SearchOutcome
	for range 6 {
		outcomes = append(outcomes, SearchOutcome{
			Success: true,
			Results: []engine.SearchResult{
				{Title: "one", Content: long, URL: "https://a.example"},
				{Title: "two", Content: "short", Score: 0.9},
				{Title: "three", Content: "dropped"},
			},
		})
	}
	outcomes = append(outcomes, SearchOutcome{Success: false, Results: []engine.SearchResult{{Title: "x", Content: "y"}}})

	signals := ProcessSearchResultsForSignals(KindAdjacent, outcomes)
	require.Len(t, signals, 10)
	assert.Equal(t, KindAdjacent, signals[0].SignalType)
	assert.Equal(t, 0.5, signals[0].RelevanceScore)
	assert.Equal(t, 0.9, signals[1].RelevanceScore)
	assert.LessOrEqual(t, len([]rune(signals[0].Content)), 500)
	for _, s := range signals {
		assert.NotEqual(t, "three", s.Title)
	}
}

func TestProcessSearchResultsForSignals_SkipsEmpty(t *testing.T) {
	signals := ProcessSearchResultsForSignals(KindPrimary, []SearchOutcome{{
		Success: true,
		Results: []engine.SearchResult{{Title: "", Content: "c"}, {Title: "t", Content: ""}},
	}})
	assert.Empty(t, signals)
}

func TestProcessSocialSignal(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		sentiment string
		category  string
		urgency   string
	}{
		{"feature request", "I need a better way to export data from the dashboard", "neutral", "feature_request", "low"},
		{"pain point", "This app is broken and terrible, I hate the problem with sync", "negative", "pain_point", "medium"},
		{"praise", "Great product, love it, amazing support", "positive", "general_feedback", "low"},
		{"suggestion", "Maybe they could recommend presets", "neutral", "suggestion", "low"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := ProcessSocialSignal(tt.content, "twitter")
			assert.Equal(t, tt.sentiment, s.Sentiment)
			assert.Equal(t, tt.category, s.Category)
			assert.Equal(t, tt.urgency, s.Urgency)
			assert.Equal(t, "twitter", s.Source)
			assert.False(t, s.Timestamp.IsZero())
		})
	}
}

func TestCleanSignalText(t *testing.T) {
	assert.Equal(t, "Check now!!", cleanSignalText("Check https://x.com/foo   now!!  ©"))
	assert.Equal(t, `it's "quoted"`, cleanSignalText(`it's "quoted"`))
}

func TestCleanSignalText_Unicode(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Café app très lent, problème!", "Café app très lent, problème!"},
		{"Приложение не работает 😡", "Приложение не работает"},
		{"この機能が必要です", "この機能が必要です"},
		{"naïve résumé ✓", "naïve résumé"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cleanSignalText(tt.in), tt.in)
	}
}

func TestProcessSocialSignal_NonLatin(t *testing.T) {
	s := ProcessSocialSignal("Приложение не работает, need a fix", "twitter")
	assert.Equal(t, "Приложение не работает, need a fix", s.CleanedContent)
	assert.Contains(t, s.Keywords, "need")
}

func TestSpecificity(t *testing.T) {
	assert.Equal(t, "high", specificityOf("when i click the export button on the dashboard page"))
	assert.Equal(t, "medium", specificityOf("the workflow is slow"))
	assert.Equal(t, "low", specificityOf("meh"))
}

func TestSignalKeywordsIn_QuotedPhrases(t *testing.T) {
	kws := signalKeywordsIn(`I wish for "bulk edit" and "dark mode"`)
	assert.Contains(t, kws, "wish")
	assert.Contains(t, kws, "bulk edit")
	assert.Contains(t, kws, "dark mode")
}

func TestExtractLiminalSignals(t *testing.T) {
	llm := &scriptedLLM{fallback: `{"liminal_signals": [{"signal_type": "workflow_break", "market_a": "taxis", "market_b": "private cars"}]}`}
	withLLM(t, llm)

	dims := map[string][]engine.SearchResult{
		"upstream_markets": {{Title: "1"}, {Title: "2"}, {Title: "third hit never sent"}},
	}
	signals, err := ExtractLiminalSignals(context.Background(), []string{"rides"}, dims)
	require.NoError(t, err)
	require.Len(t, signals, 1)
	assert.Equal(t, "taxis", signals[0].MarketA)
	assert.NotContains(t, llm.prompts[0], "third hit never sent")
}
