package market

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_market/internal/engine"
)

const synthesisReply = `{
  "breakthrough_opportunities": [
    {
      "opportunity_name": "KitchenShare",
      "tagline": "Idle restaurant kitchens for food startups",
      "market_size_estimate": "$3 billion",
      "value_arbitrage": "significant",
      "network_effect": "strong",
      "implementation_mvp": "simple booking API",
      "revenue_model": "commission"
    },
    {"opportunity_name": "DeskFlow", "implementation_mvp": "complex robotics"}
  ],
  "connection_patterns": [{"pattern_name": "idle capacity", "evidence": "single string"}],
  "arbitrage_discoveries": [{"arbitrage_type": "time", "market_readiness": "high"}]
}`

func TestSynthesizeLiminalConnections(t *testing.T) {
	llm := &scriptedLLM{fallback: synthesisReply}
	withLLM(t, llm)

	in := SynthesisInput{Primary: map[string]any{"pain_points": []string{"slow invoicing"}}}
	s := SynthesizeLiminalConnections(context.Background(), in, []string{"invoicing"}, "")

	require.Empty(t, s.Error)
	require.Len(t, s.BreakthroughOpportunities, 2)
	first := s.BreakthroughOpportunities[0]
	assert.Equal(t, "KitchenShare", first.OpportunityName)
	require.NotNil(t, first.OpportunityScore)
	assert.Positive(t, *first.OpportunityScore)
	assert.Equal(t, DifficultyLow, first.ImplementationDifficulty)
	assert.Equal(t, DifficultyHigh, s.BreakthroughOpportunities[1].ImplementationDifficulty)
	assert.Equal(t, StringList{"single string"}, s.ConnectionPatterns[0].Evidence)
	assert.Equal(t, []string{"invoicing"}, s.Keywords)

	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], "Target market: general")
	assert.Contains(t, llm.prompts[0], "slow invoicing")
}

func TestSynthesizeLiminalConnections_Failure(t *testing.T) {
	withLLM(t, &scriptedLLM{err: errors.New("quota exceeded")})

	s := SynthesizeLiminalConnections(context.Background(), SynthesisInput{}, []string{"crm"}, "smb")
	assert.Contains(t, s.Error, "quota exceeded")
	assert.Empty(t, s.BreakthroughOpportunities)
	assert.Equal(t, "smb", s.TargetMarket)
}

func TestGenerateSearchQueries(t *testing.T) {
	q := GenerateSearchQueries([]string{"crm", "erp", "ignored"}, []string{KindPrimary, "unknown"})
	require.Contains(t, q, KindPrimary)
	assert.NotContains(t, q, "unknown")
	assert.Len(t, q[KindPrimary], 6)
	assert.Equal(t, "crm user problems complaints reddit", q[KindPrimary][0])
	for _, query := range q[KindPrimary] {
		assert.NotContains(t, query, "ignored")
	}
}

func TestParallelSearchExecution_CapsAtSix(t *testing.T) {
	var calls atomic.Int32
	withSearch(t, func(ctx context.Context, query, kind string, n int) ([]engine.SearchResult, error) {
		calls.Add(1)
		assert.Equal(t, engine.SearchTavilyQuick, kind)
		assert.Equal(t, 2, n)
		return echoSearch(ctx, query, kind, n)
	})
	queries := make([]string, 9)
	for i := range queries {
		queries[i] = fmt.Sprintf("q%d", i)
	}
	out := ParallelSearchExecution(context.Background(), KindAdjacent, queries)
	assert.Len(t, out, 6)
	assert.Equal(t, int32(6), calls.Load())
	assert.Equal(t, KindAdjacent, out[0].Task.MarketDimension)
}

func TestDiscoverCrossIndustry(t *testing.T) {
	withSearch(t, echoSearch)
	ci, err := DiscoverCrossIndustry(context.Background(), []string{"scheduling"})
	require.NoError(t, err)
	assert.Equal(t, 3, ci.Stats.Total)
	for _, industry := range crossIndustries {
		require.Len(t, ci.IndustryPatterns[industry], 1, industry)
		assert.Contains(t, ci.IndustryPatterns[industry][0].Title, industry)
	}
}

func TestDiscoveryRequiresKeywords(t *testing.T) {
	ctx := context.Background()
	_, err := DiscoverAdjacentMarkets(ctx, nil)
	assert.Error(t, err)
	_, err = DiscoverCrossIndustry(ctx, nil)
	assert.Error(t, err)
	_, err = DiscoverWorkflowGaps(ctx, nil)
	assert.Error(t, err)
	_, err = ParallelLiminalDiscovery(ctx, nil)
	assert.Error(t, err)
	_, err = ExecuteLiminalDiscovery(ctx, nil, "", DiscoveryOpts{})
	assert.Error(t, err)
}

func TestExecuteLiminalDiscovery_Quick(t *testing.T) {
	withLLM(t, &scriptedLLM{fallback: synthesisReply})
	withSearch(t, echoSearch)

	r, err := ExecuteLiminalDiscovery(context.Background(), []string{"invoicing"}, "freelancers", DiscoveryOpts{Quick: true})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, r.RunID)
	assert.Empty(t, r.Errors)
	assert.Equal(t, 4, r.Stats.Succeeded)
	require.Len(t, r.QuickSignals, 4)
	for _, kind := range AllKinds {
		assert.Len(t, r.QuickSignals[kind], 3, kind)
	}
	require.NotNil(t, r.Synthesis)
	assert.Len(t, r.Synthesis.BreakthroughOpportunities, 2)
	assert.Equal(t, "freelancers", r.Synthesis.TargetMarket)
	assert.Positive(t, r.ExecutionTime)
}

func TestExecuteLiminalDiscovery_SkipSynthesis(t *testing.T) {
	llm := &scriptedLLM{fallback: synthesisReply}
	withLLM(t, llm)
	withSearch(t, func(context.Context, string, string, int) ([]engine.SearchResult, error) {
		return nil, errors.New("search down")
	})

	r, err := ExecuteLiminalDiscovery(context.Background(), []string{"crm"}, "", DiscoveryOpts{Quick: true, SkipSynthesis: true})
	require.NoError(t, err)
	assert.Nil(t, r.Synthesis)
	assert.Zero(t, llm.calls())
	for _, kind := range AllKinds {
		assert.Empty(t, r.QuickSignals[kind])
	}
}

func TestSynthesisInput_PrefersQuickSignals(t *testing.T) {
	r := &DiscoveryReport{
		Adjacent:     &AdjacentMarkets{},
		QuickSignals: map[string][]SearchSignal{KindPrimary: {{Title: "p"}}},
	}
	in := r.synthesisInput()
	sigs, ok := in.Primary.([]SearchSignal)
	require.True(t, ok)
	assert.Equal(t, "p", sigs[0].Title)
	assert.IsType(t, []SearchSignal(nil), in.Adjacent, "quick signals replace the full adjacent report")
}
