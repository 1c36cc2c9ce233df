package market

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/anatolykoptev/go_market/internal/engine"
)

// Validation is the go/no-go verdict on a single opportunity.
type Validation struct {
	OpportunityName    string             `json:"opportunity_name"`
	ValidatedAt        time.Time          `json:"validation_timestamp"`
	ConnectionStrength float64            `json:"connection_strength"`
	Factors            map[string]float64 `json:"validation_factors"`
	Recommendation     string             `json:"go_no_go_recommendation"`
	ConfidenceLevel    string             `json:"confidence_level"`
	Evidence           []string           `json:"validation_evidence"`
}

var timingSignals = []string{"covid", "remote", "digital", "mobile", "ai", "technology", "behavior", "trend"}

// ValidateConnectionStrength scores six validation factors and maps their
// mean to a recommendation band.
func ValidateConnectionStrength(o Opportunity) Validation {
	v := Validation{
		OpportunityName: orDefault(o.OpportunityName, "Unknown"),
		ValidatedAt:     time.Now().UTC(),
		Factors: map[string]float64{
			"market_size_viability": validateMarketSize(o),
			"arbitrage_strength":    validateArbitrage(o),
			"technical_feasibility": validateTechnicalFeasibility(o),
			"market_timing":         validateMarketTiming(o),
			"competitive_advantage": validateCompetitiveAdvantage(o),
			"scalability_potential": validateScalability(o),
		},
	}

	var sum float64
	for _, f := range v.Factors {
		sum += f
	}
	v.ConnectionStrength = round2(sum / float64(len(v.Factors)))

	switch s := sum / float64(len(v.Factors)); {
	case s >= 0.75:
		v.Recommendation, v.ConfidenceLevel = "proceed", "high"
	case s >= 0.6:
		v.Recommendation, v.ConfidenceLevel = "proceed_with_caution", "medium"
	case s >= 0.4:
		v.Recommendation, v.ConfidenceLevel = "validate_further", "low"
	default:
		v.Recommendation, v.ConfidenceLevel = "do_not_proceed", "very_low"
	}

	v.Evidence = validationEvidence(o, v.Factors)
	return v
}

func validateMarketSize(o Opportunity) float64 {
	size := strings.ToLower(orDefault(o.MarketSizeEstimate, "TBD"))
	switch {
	case strings.Contains(size, "trillion"):
		return 1.0
	case strings.Contains(size, "billion"):
		if strings.ContainsAny(size, "12345") {
			return 0.9
		}
		return 0.8
	case strings.Contains(size, "million"):
		if strings.Contains(size, "100") || strings.Contains(size, "500") {
			return 0.7
		}
		return 0.5
	}
	return 0.3
}

func validateArbitrage(o Opportunity) float64 {
	var score float64
	switch {
	case engine.ContainsAny(o.ValueArbitrage, "significant", "massive", "huge", "clear"):
		score += 0.4
	case engine.ContainsAny(o.ValueArbitrage, "good", "solid", "reasonable"):
		score += 0.3
	default:
		score += 0.1
	}
	if len(o.ExpensiveSide) > 20 && len(o.UnderutilizedSide) > 20 {
		score += 0.4
	} else {
		score += 0.2
	}
	return math.Min(score, 1.0)
}

func validateTechnicalFeasibility(o Opportunity) float64 {
	switch mvp := o.ImplementationMVP; {
	case engine.ContainsAny(mvp, "api", "existing", "simple", "basic"):
		return 0.9
	case engine.ContainsAny(mvp, "platform", "marketplace", "moderate"):
		return 0.7
	case engine.ContainsAny(mvp, "complex", "advanced", "difficult"):
		return 0.4
	}
	return 0.6
}

func validateMarketTiming(o Opportunity) float64 {
	score := 0.5
	score += math.Min(float64(engine.CountMatches(o.WhyNow, timingSignals))*0.1, 0.4)
	if len(o.WhyNow) > 100 {
		score += 0.1
	}
	return math.Min(score, 1.0)
}

func validateCompetitiveAdvantage(o Opportunity) float64 {
	var score float64
	switch {
	case engine.ContainsAny(o.NetworkEffect, "strong", "viral"):
		score += 0.4
	case engine.ContainsAny(o.NetworkEffect, "moderate"):
		score += 0.3
	default:
		score += 0.1
	}
	if engine.ContainsAny(o.CompetitiveMoat, "data", "scale", "brand", "switching") {
		score += 0.3
	} else {
		score += 0.2
	}
	return score
}

func validateScalability(o Opportunity) float64 {
	score := 0.5
	switch {
	case engine.ContainsAny(o.RevenueModel, "commission", "subscription", "platform"):
		score += 0.3
	case engine.ContainsAny(o.RevenueModel, "transaction", "usage"):
		score += 0.2
	}
	if engine.ContainsAny(o.NetworkEffect, "strong") {
		score += 0.2
	}
	return math.Min(score, 1.0)
}

func validationEvidence(o Opportunity, factors map[string]float64) []string {
	var ev []string
	if factors["market_size_viability"] >= 0.7 {
		ev = append(ev, fmt.Sprintf("Large addressable market: %s", orDefault(o.MarketSizeEstimate, "TBD")))
	}
	if factors["arbitrage_strength"] >= 0.7 {
		ev = append(ev, fmt.Sprintf("Clear value arbitrage: %s", orDefault(o.ValueArbitrage, "TBD")))
	}
	if factors["technical_feasibility"] >= 0.7 {
		ev = append(ev, fmt.Sprintf("Technically feasible MVP: %s", orDefault(o.ImplementationMVP, "TBD")))
	}
	if factors["market_timing"] >= 0.7 {
		ev = append(ev, "Market timing appears favorable based on current trends")
	}
	return ev
}
