package market

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strongOpportunity() Opportunity {
	return Opportunity{
		OpportunityName:    "ShiftSwap",
		Tagline:            "Idle kitchens for food startups",
		MarketSizeEstimate: "$5 billion",
		ValueArbitrage:     "Significant cost savings versus commercial leases",
		ExpensiveSide:      "commercial kitchen leases for new food brands",
		UnderutilizedSide:  "restaurant kitchens idle between services",
		RevenueModel:       "subscription plus booking fees",
		NetworkEffect:      "strong two-sided network effect",
		ImplementationMVP:  "simple API integration with booking calendars",
		WhyNow:             "remote work and AI technology trend drive digital adoption",
		CompetitiveMoat:    "data on kitchen utilisation",
	}
}

func TestCalculateOpportunityScore(t *testing.T) {
	o := strongOpportunity()
	o.ValueArbitrage = "high"
	o.WhyNow = strings.Repeat("timing ", 20)
	assert.InDelta(t, 0.85, CalculateOpportunityScore(o), 0.001)

	weak := CalculateOpportunityScore(Opportunity{})
	assert.InDelta(t, 0.43, weak, 0.011)
}

func TestAssessImplementationDifficulty(t *testing.T) {
	tests := []struct {
		mvp        string
		difficulty string
		ttm        string
	}{
		{"simple API wrapper", DifficultyLow, "3-6 months"},
		{"two-sided marketplace", DifficultyMedium, "6-12 months"},
		{"custom hardware fleet", DifficultyHigh, "12+ months"},
	}
	for _, tt := range tests {
		t.Run(tt.mvp, func(t *testing.T) {
			assert.Equal(t, tt.difficulty, AssessImplementationDifficulty(tt.mvp))
			assert.Equal(t, tt.ttm, EstimateTimeToMarket(tt.mvp))
		})
	}
}

func TestIdentifyRiskFactors_CappedAtFive(t *testing.T) {
	o := Opportunity{RevenueModel: "network fees", WhyNow: "compliance rules changed"}
	risks := IdentifyRiskFactors(o)
	require.Len(t, risks, 5)
	assert.Equal(t, "Regulatory complexity", risks[0])
	assert.Equal(t, "Chicken-and-egg problem (needs both sides)", risks[1])
	// field names are part of the scanned text, so competitive_moat always matches
	assert.Equal(t, "Competitive market entry", risks[2])
}

func TestSuccessIndicators(t *testing.T) {
	o := Opportunity{RevenueModel: "Subscription", ImplementationMVP: "marketplace"}
	got := SuccessIndicators(o)
	assert.Contains(t, got, "Supply-demand balance")
	assert.Contains(t, got, "Monthly recurring revenue growth")
	assert.Len(t, SuccessIndicators(Opportunity{}), 4)
}

func TestEnhanceOpportunity(t *testing.T) {
	o := EnhanceOpportunity(strongOpportunity())
	require.NotNil(t, o.OpportunityScore)
	assert.Positive(t, *o.OpportunityScore)
	assert.Equal(t, DifficultyLow, o.ImplementationDifficulty)
	assert.Equal(t, "3-6 months", o.TimeToMarket)
	assert.NotEmpty(t, o.RiskFactors)
	assert.NotEmpty(t, o.SuccessIndicators)

	again := EnhanceOpportunity(o)
	assert.Equal(t, o.RiskFactors, again.RiskFactors, "enhancing twice must not accumulate")
}

func TestCompositeScore(t *testing.T) {
	o := Opportunity{
		OpportunityScore:         new(0.9),
		MarketSizeEstimate:       "2 Billion",
		ImplementationDifficulty: DifficultyLow,
		WhyNow:                   strings.Repeat("x", 101),
	}
	assert.InDelta(t, 0.885, CompositeScore(o), 0.0001)
	assert.InDelta(t, 0.47, CompositeScore(Opportunity{}), 0.0001)
	assert.InDelta(t, 0.27, CompositeScore(Opportunity{OpportunityScore: new(0.0)}), 0.0001)

	var decoded Opportunity
	require.NoError(t, json.Unmarshal([]byte(`{"opportunity_score": 0}`), &decoded))
	assert.InDelta(t, 0.27, CompositeScore(decoded), 0.0001)
}

func TestClassifyTier(t *testing.T) {
	tests := []struct {
		score float64
		tier  string
		rec   string
	}{
		{0.8, "top_tier", "immediate_action"},
		{0.7, "high_potential", "strong_consider"},
		{0.5, "sleeper", "validate_further"},
		{0.49, "risky", "pass"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.tier, ClassifyTier(tt.score))
		assert.Equal(t, tt.rec, InvestmentRecommendation(tt.score))
	}
}

func TestRankLiminalOpportunities(t *testing.T) {
	top := Opportunity{
		OpportunityName:          "top",
		OpportunityScore:         new(0.95),
		MarketSizeEstimate:       "billion",
		ImplementationDifficulty: DifficultyLow,
		WhyNow:                   strings.Repeat("x", 120),
	}
	sleeper := Opportunity{OpportunityName: "sleeper", OpportunityScore: new(0.6), MarketSizeEstimate: "million"}
	risky := Opportunity{OpportunityName: "risky", OpportunityScore: new(0.1), ImplementationDifficulty: DifficultyHigh}

	r := RankLiminalOpportunities([]Opportunity{risky, sleeper, top})
	require.Len(t, r.Ranked, 3)
	assert.Equal(t, 3, r.Total)
	assert.Equal(t, "top", r.Ranked[0].OpportunityName)
	assert.Equal(t, "risky", r.Ranked[2].OpportunityName)
	require.Len(t, r.TopTier, 1)
	require.Len(t, r.Sleepers, 1)
	assert.Equal(t, "sleeper", r.Sleepers[0].OpportunityName)
	assert.Len(t, r.Methodology, 4)
}

func TestValidateConnectionStrength(t *testing.T) {
	v := ValidateConnectionStrength(strongOpportunity())
	assert.Equal(t, "ShiftSwap", v.OpportunityName)
	assert.Equal(t, "proceed", v.Recommendation)
	assert.Equal(t, "high", v.ConfidenceLevel)
	assert.Len(t, v.Factors, 6)
	assert.InDelta(t, 0.87, v.ConnectionStrength, 0.011)
	assert.NotEmpty(t, v.Evidence)

	empty := ValidateConnectionStrength(Opportunity{})
	assert.Equal(t, "Unknown", empty.OpportunityName)
	assert.Equal(t, "validate_further", empty.Recommendation)
	assert.Equal(t, "low", empty.ConfidenceLevel)
	assert.Empty(t, empty.Evidence)
}

func TestValidateMarketSize(t *testing.T) {
	assert.Equal(t, 1.0, validateMarketSize(Opportunity{MarketSizeEstimate: "1 trillion"}))
	assert.Equal(t, 0.9, validateMarketSize(Opportunity{MarketSizeEstimate: "$3 billion"}))
	assert.Equal(t, 0.8, validateMarketSize(Opportunity{MarketSizeEstimate: "billions"}))
	assert.Equal(t, 0.7, validateMarketSize(Opportunity{MarketSizeEstimate: "500 million"}))
	assert.Equal(t, 0.5, validateMarketSize(Opportunity{MarketSizeEstimate: "20 million"}))
	assert.Equal(t, 0.3, validateMarketSize(Opportunity{}))
}
