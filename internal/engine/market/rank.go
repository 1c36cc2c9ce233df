package market

import (
	"sort"
	"strings"
	"time"
)

// RankedOpportunity is an Opportunity with its ranking verdict.
type RankedOpportunity struct {
	Opportunity
	CompositeScore           float64 `json:"composite_score"`
	Tier                     string  `json:"tier"`
	InvestmentRecommendation string  `json:"investment_recommendation"`
}

// Ranking orders a set of opportunities by composite score.
type Ranking struct {
	RankedAt    time.Time           `json:"ranking_timestamp"`
	Total       int                 `json:"total_opportunities"`
	Ranked      []RankedOpportunity `json:"ranked_opportunities"`
	TopTier     []RankedOpportunity `json:"top_tier_opportunities"`
	Sleepers    []RankedOpportunity `json:"sleeper_opportunities"`
	Methodology []string            `json:"ranking_methodology"`
}

var rankingFactors = []string{
	"opportunity_score (40%)",
	"market_size (25%)",
	"implementation_feasibility (20%)",
	"timing_advantage (15%)",
}

// RankLiminalOpportunities scores, tiers and sorts opportunities, best first.
func RankLiminalOpportunities(opps []Opportunity) Ranking {
	r := Ranking{
		RankedAt:    time.Now().UTC(),
		Total:       len(opps),
		Ranked:      make([]RankedOpportunity, 0, len(opps)),
		Methodology: rankingFactors,
	}
	for _, o := range opps {
		score := CompositeScore(o)
		r.Ranked = append(r.Ranked, RankedOpportunity{
			Opportunity:              o,
			CompositeScore:           score,
			Tier:                     ClassifyTier(score),
			InvestmentRecommendation: InvestmentRecommendation(score),
		})
	}
	sort.SliceStable(r.Ranked, func(i, j int) bool {
		return r.Ranked[i].CompositeScore > r.Ranked[j].CompositeScore
	})
	for _, ro := range r.Ranked {
		switch ro.Tier {
		case "top_tier":
			r.TopTier = append(r.TopTier, ro)
		case "sleeper":
			r.Sleepers = append(r.Sleepers, ro)
		}
	}
	return r
}

// CompositeScore weights opportunity score 40%, market size 25%, feasibility
// 20% and timing 15%. A missing opportunity score counts as 0.5 and an unset
// difficulty as medium; an explicit 0 stays 0.
func CompositeScore(o Opportunity) float64 {
	oppScore := o.ScoreOr(0.5)

	size := 0.3
	switch ms := strings.ToLower(o.MarketSizeEstimate); {
	case strings.Contains(ms, "billion"):
		size = 0.9
	case strings.Contains(ms, "million"):
		size = 0.6
	}

	feasibility := 0.3
	switch o.ImplementationDifficulty {
	case DifficultyLow:
		feasibility = 0.9
	case DifficultyMedium, "":
		feasibility = 0.6
	}

	timing := 0.5
	if len(o.WhyNow) > 100 {
		timing = 0.8
	}

	return oppScore*0.4 + size*0.25 + feasibility*0.2 + timing*0.15
}

// ClassifyTier buckets a composite score.
func ClassifyTier(score float64) string {
	switch {
	case score >= 0.8:
		return "top_tier"
	case score >= 0.65:
		return "high_potential"
	case score >= 0.5:
		return "sleeper"
	}
	return "risky"
}

// InvestmentRecommendation maps a composite score to an action.
func InvestmentRecommendation(score float64) string {
	switch {
	case score >= 0.8:
		return "immediate_action"
	case score >= 0.65:
		return "strong_consider"
	case score >= 0.5:
		return "validate_further"
	}
	return "pass"
}
