package market

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scoringLLM() *scriptedLLM {
	return &scriptedLLM{rules: []rule{
		{"Analyze execution risks", `{"execution_risk_score": 12, "overall_risk_level": "medium"}`},
		{"Generate strategic recommendations", `{"overall_recommendation": "pursue", "confidence_level": "high", "next_immediate_actions": ["interview 10 buyers", "", "ship a waitlist"]}`},
		{"Analyze this portfolio", `{"portfolio_theme": "b2b workflow tools"}`},
		{"big-market", `{"market_attractiveness_score": 25}`},
		{"Analyze this market data", `{"market_attractiveness_score": 5}`},
		{"Analyze this competitive landscape", `{"competitive_advantage_score": 15}`},
		{"Analyze these demand signals", `{"demand_strength_score": "20"}`},
		{"Analyze these market trends", `{"trend_momentum_score": 10}`},
	}}
}

func TestCalculateAIOpportunityScore(t *testing.T) {
	llm := scoringLLM()
	withLLM(t, llm)

	s := CalculateAIOpportunityScore(context.Background(), ScoringInput{
		ID:         "opp-1",
		Name:       "ShiftSwap",
		MarketSize: map[string]any{"tam": "big-market"},
	})
	assert.Equal(t, "opp-1", s.OpportunityID)
	assert.Equal(t, 25.0, s.Components["market_attractiveness"])
	assert.Equal(t, 20.0, s.Components["demand_strength"], "string scores are parsed")
	assert.Equal(t, 12.0, s.Components["execution_risk"])
	assert.InDelta(t, 0.82, s.OverallScore, 0.0001)
	assert.Equal(t, "pursue", s.Recommendation)
	assert.Equal(t, "high", s.ConfidenceLevel)
	assert.Equal(t, []string{"interview 10 buyers", "ship a waitlist"}, s.NextActions)
	assert.Nil(t, s.Errors)
	assert.Equal(t, 6, llm.calls())
	for _, sys := range llm.systems {
		assert.Equal(t, scoringSystem, sys)
	}
}

func TestCalculateAIOpportunityScore_RiskFailureIsolated(t *testing.T) {
	llm := scoringLLM()
	llm.rules[0] = rule{"Analyze execution risks", `no json here`}
	withLLM(t, llm)

	s := CalculateAIOpportunityScore(context.Background(), ScoringInput{MarketSize: map[string]any{"tam": "big-market"}})
	require.Contains(t, s.Errors, "execution_risk")
	assert.Zero(t, s.Components["execution_risk"])
	assert.Equal(t, 25.0, s.Components["market_attractiveness"])
	assert.InDelta(t, 0.70, s.OverallScore, 0.0001)
}

func TestCalculateAIOpportunityScore_ClampsAndIsolatesFailures(t *testing.T) {
	llm := &scriptedLLM{rules: []rule{
		{"Analyze this market data", `{"market_attractiveness_score": 400}`},
		{"Analyze this competitive landscape", `not json`},
	}, fallback: `{}`}
	withLLM(t, llm)

	s := CalculateAIOpportunityScore(context.Background(), ScoringInput{Name: "x"})
	assert.Equal(t, 25.0, s.Components["market_attractiveness"], "scores are capped at the component max")
	assert.Zero(t, s.Components["competitive_advantage"])
	require.Contains(t, s.Errors, "competitive_advantage")
	assert.InDelta(t, 0.25, s.OverallScore, 0.0001)
	assert.Equal(t, "investigate", s.Recommendation)
	assert.Equal(t, "medium", s.ConfidenceLevel)
}

func TestRankOpportunitiesWithAI(t *testing.T) {
	withLLM(t, scoringLLM())

	r := RankOpportunitiesWithAI(context.Background(), []map[string]any{
		{"name": "Small", "market_size": map[string]any{"tam": "niche"}},
		{"name": "Big", "market_size": map[string]any{"tam": "big-market"}},
	})
	require.Len(t, r.Ranked, 2)
	assert.Equal(t, 2, r.Total)
	assert.Equal(t, "Big", r.Ranked[0].Name)
	assert.Equal(t, "opportunity_2", r.Ranked[0].OpportunityID)
	assert.InDelta(t, 0.62, r.Ranked[1].OverallScore, 0.0001)
	assert.Equal(t, map[string]int{"high_potential": 1, "medium_potential": 1, "low_potential": 0}, r.Distribution)
	assert.Equal(t, "high_potential", r.Focus)
	assert.Equal(t, "b2b workflow tools", r.Portfolio["portfolio_theme"])
}

func TestRankOpportunitiesWithAI_CancelledContext(t *testing.T) {
	withLLM(t, scoringLLM())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := RankOpportunitiesWithAI(ctx, []map[string]any{{"name": "a"}})
	assert.Empty(t, r.Ranked)
	assert.NotEmpty(t, r.Error)
	assert.Equal(t, "explore_alternatives", r.Focus)
}

func TestPortfolioDistribution(t *testing.T) {
	dist, focus := PortfolioDistribution([]AIScore{{OverallScore: 0.5}, {OverallScore: 0.1}})
	assert.Equal(t, 1, dist["medium_potential"])
	assert.Equal(t, 1, dist["low_potential"])
	assert.Equal(t, "medium_potential", focus)

	_, focus = PortfolioDistribution(nil)
	assert.Equal(t, "explore_alternatives", focus)
}
