package market

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anatolykoptev/go_market/internal/engine"
)

// Opportunity is a liminal business idea as produced by synthesis.
type Opportunity struct {
	OpportunityName    string `json:"opportunity_name"`
	Tagline            string `json:"tagline"`
	LiminalPosition    string `json:"liminal_position"`
	ExpensiveSide      string `json:"expensive_side"`
	UnderutilizedSide  string `json:"underutilized_side"`
	ValueArbitrage     string `json:"value_arbitrage"`
	TargetUsers        string `json:"target_users"`
	RevenueModel       string `json:"revenue_model"`
	NetworkEffect      string `json:"network_effect"`
	ImplementationMVP  string `json:"implementation_mvp"`
	MarketSizeEstimate string `json:"market_size_estimate"`
	UberAirbnbAnalogy  string `json:"uber_airbnb_analogy"`
	WhyNow             string `json:"why_now"`
	CompetitiveMoat    string `json:"competitive_moat"`

	OpportunityScore         *float64 `json:"opportunity_score,omitempty"`
	ImplementationDifficulty string   `json:"implementation_difficulty,omitempty"`
	TimeToMarket             string   `json:"time_to_market,omitempty"`
	RiskFactors              []string `json:"risk_factors,omitempty"`
	SuccessIndicators        []string `json:"success_indicators,omitempty"`
}

// ScoreOr returns the opportunity score, or def when none was set.
func (o Opportunity) ScoreOr(def float64) float64 {
	if o.OpportunityScore == nil {
		return def
	}
	return *o.OpportunityScore
}

// ConnectionPattern is a recurring way two markets fail to connect.
type ConnectionPattern struct {
	PatternName        string     `json:"pattern_name"`
	PatternDescription string     `json:"pattern_description"`
	ValueCreation      string     `json:"value_creation"`
	Evidence           StringList `json:"evidence"`
}

// ArbitrageDiscovery is a market inefficiency an opportunity can capture.
type ArbitrageDiscovery struct {
	ArbitrageType      string `json:"arbitrage_type"`
	MarketInefficiency string `json:"market_inefficiency"`
	ValueCaptureMethod string `json:"value_capture_method"`
	MarketReadiness    string `json:"market_readiness"`
}

// Synthesis is the LLM's reading of a whole discovery run.
type Synthesis struct {
	BreakthroughOpportunities []Opportunity        `json:"breakthrough_opportunities"`
	ConnectionPatterns        []ConnectionPattern  `json:"connection_patterns"`
	ArbitrageDiscoveries      []ArbitrageDiscovery `json:"arbitrage_discoveries"`
	Keywords                  []string             `json:"keywords,omitempty"`
	TargetMarket              string               `json:"target_market,omitempty"`
	Error                     string               `json:"error,omitempty"`
}

// SynthesisInput carries whichever discovery kinds are available.
type SynthesisInput struct {
	Primary       any `json:"primary_market,omitempty"`
	Adjacent      any `json:"adjacent_markets,omitempty"`
	CrossIndustry any `json:"cross_industry,omitempty"`
	WorkflowGaps  any `json:"workflow_gaps,omitempty"`
}

const synthesisPrompt = `You are a breakthrough business strategist who finds LIMINAL opportunities:
businesses that live in the space between established markets, the way Uber
connected expensive taxis with idle private cars and Airbnb connected
expensive hotels with spare rooms.

Keywords: %s
Target market: %s

Key signals extracted from parallel market discovery:
%s

Identify 3-5 breakthrough opportunities. For each, name the expensive side and
the underutilized side it connects, and how value moves between them.

Return a JSON object:
{
  "breakthrough_opportunities": [
    {
      "opportunity_name": "short name",
      "tagline": "one line pitch",
      "liminal_position": "between X and Y",
      "expensive_side": "what is overpriced or inefficient today",
      "underutilized_side": "the idle resource that can serve it",
      "value_arbitrage": "how value moves and how large the gap is",
      "target_users": "who pays, who supplies",
      "revenue_model": "commission, subscription, ...",
      "network_effect": "strong|moderate|weak and why",
      "implementation_mvp": "the simplest first version",
      "market_size_estimate": "e.g. $4B",
      "uber_airbnb_analogy": "X is the Uber of Y because...",
      "why_now": "what changed that makes this possible now",
      "competitive_moat": "what keeps competitors out"
    }
  ],
  "connection_patterns": [
    {"pattern_name": "", "pattern_description": "", "value_creation": "", "evidence": ["..."]}
  ],
  "arbitrage_discoveries": [
    {"arbitrage_type": "", "market_inefficiency": "", "value_capture_method": "", "market_readiness": "high|medium|low"}
  ]
}`

// SynthesizeLiminalConnections condenses discovery data into key signals and
// asks the LLM for breakthrough opportunities, each enhanced with heuristic
// scores. On failure the returned Synthesis carries Error and no opportunities.
func SynthesizeLiminalConnections(ctx context.Context, in SynthesisInput, keywords []string, targetMarket string) *Synthesis {
	out := &Synthesis{Keywords: keywords, TargetMarket: targetMarket}

	signals := ExtractKeySignals(in)
	prompt := fmt.Sprintf(synthesisPrompt,
		strings.Join(keywords, ", "),
		orDefault(targetMarket, "general"),
		jsonSnippet(signals, 3000))

	res, err := engine.CallLLMJSON[Synthesis](ctx, prompt, engine.CallOpts{Temperature: 0.6, MaxTokens: 4000})
	if err != nil {
		slog.Warn("synthesis: llm failed", slog.Any("error", err))
		out.Error = fmt.Sprintf("synthesis failed: %v", err)
		return out
	}

	out.ConnectionPatterns = res.ConnectionPatterns
	out.ArbitrageDiscoveries = res.ArbitrageDiscoveries
	out.BreakthroughOpportunities = make([]Opportunity, 0, len(res.BreakthroughOpportunities))
	for _, o := range res.BreakthroughOpportunities {
		out.BreakthroughOpportunities = append(out.BreakthroughOpportunities, EnhanceOpportunity(o))
	}
	return out
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
