package market

import (
	"math"
	"strings"

	"github.com/anatolykoptev/go_market/internal/engine"
)

// Difficulty levels.
const (
	DifficultyLow    = "low"
	DifficultyMedium = "medium"
	DifficultyHigh   = "high"
)

// CalculateOpportunityScore is the mean of four text heuristics: market size,
// arbitrage strength, why-now depth and network effect. Rounded to 2 decimals.
func CalculateOpportunityScore(o Opportunity) float64 {
	var size float64
	switch {
	case engine.ContainsAny(o.MarketSizeEstimate, "billion"):
		size = 0.9
	case engine.ContainsAny(o.MarketSizeEstimate, "million"):
		size = 0.7
	default:
		size = 0.5
	}

	var arbitrage float64
	switch {
	case engine.ContainsAny(o.ValueArbitrage, "high", "significant"):
		arbitrage = 0.8
	case engine.ContainsAny(o.ValueArbitrage, "medium", "moderate"):
		arbitrage = 0.6
	default:
		arbitrage = 0.4
	}

	timing := 0.5
	if len(o.WhyNow) > 100 {
		timing = 0.8
	}

	var network float64
	switch {
	case engine.ContainsAny(o.NetworkEffect, "strong", "viral"):
		network = 0.9
	case engine.ContainsAny(o.NetworkEffect, "moderate"):
		network = 0.6
	default:
		network = 0.3
	}

	return round2((size + arbitrage + timing + network) / 4)
}

// AssessImplementationDifficulty grades an MVP description.
func AssessImplementationDifficulty(mvp string) string {
	switch {
	case engine.ContainsAny(mvp, "simple", "basic", "existing", "api"):
		return DifficultyLow
	case engine.ContainsAny(mvp, "moderate", "platform", "marketplace"):
		return DifficultyMedium
	}
	return DifficultyHigh
}

// EstimateTimeToMarket maps an MVP description to a launch window.
func EstimateTimeToMarket(mvp string) string {
	switch AssessImplementationDifficulty(mvp) {
	case DifficultyLow:
		return "3-6 months"
	case DifficultyMedium:
		return "6-12 months"
	}
	return "12+ months"
}

// IdentifyRiskFactors lists at most five risks. Keyword checks run over the
// whole opportunity, field names included.
func IdentifyRiskFactors(o Opportunity) []string {
	text := lowerJSON(o)
	var risks []string
	if engine.ContainsAny(text, "regulated", "compliance", "legal") {
		risks = append(risks, "Regulatory complexity")
	}
	if engine.ContainsAny(o.RevenueModel, "network") {
		risks = append(risks, "Chicken-and-egg problem (needs both sides)")
	}
	if strings.Contains(text, "competitive") {
		risks = append(risks, "Competitive market entry")
	}
	risks = append(risks, "Market adoption speed", "Technology execution risk", "Customer acquisition cost")
	return risks[:min(5, len(risks))]
}

// SuccessIndicators lists the metrics that would prove the opportunity out.
func SuccessIndicators(o Opportunity) []string {
	out := []string{"User sign-up rate", "Transaction volume growth", "User retention rate", "Word-of-mouth referrals"}
	if strings.Contains(lowerJSON(o), "marketplace") {
		out = append(out, "Supply-demand balance")
	}
	if engine.ContainsAny(o.RevenueModel, "subscription") {
		out = append(out, "Monthly recurring revenue growth")
	}
	return out
}

// EnhanceOpportunity fills the heuristic fields of o.
func EnhanceOpportunity(o Opportunity) Opportunity {
	o.RiskFactors, o.SuccessIndicators = nil, nil
	o.OpportunityScore = new(CalculateOpportunityScore(o))
	o.ImplementationDifficulty = AssessImplementationDifficulty(o.ImplementationMVP)
	o.TimeToMarket = EstimateTimeToMarket(o.ImplementationMVP)
	o.RiskFactors = IdentifyRiskFactors(o)
	o.SuccessIndicators = SuccessIndicators(o)
	return o
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
