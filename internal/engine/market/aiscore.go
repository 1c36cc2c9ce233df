package market

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/anatolykoptev/go_market/internal/engine"
)

// scoreComponent is one LLM analysis contributing to the 100-point AI score.
type scoreComponent struct {
	name        string // component_scores key
	analysis    string // ai_analysis key
	scoreField  string
	max         float64
	temperature float64
	prompt      string
}

const marketDynamicsPrompt = `Analyze this market data and score the opportunity.

Market data:
%s

Return a JSON object:
{
  "market_attractiveness_score": 0-25,
  "growth_potential_score": 0-15,
  "market_maturity": "emerging/growth/mature/declining",
  "size_category": "niche/mid-market/large/mega",
  "growth_drivers": ["..."],
  "market_constraints": ["..."],
  "revenue_potential": "low/medium/high/exceptional",
  "strategic_rationale": "explanation",
  "red_flags": ["..."],
  "confidence_level": "low/medium/high"
}
Weigh TAM/SAM/SOM realism, growth sustainability and willingness to pay. Be realistic.`

const competitionPrompt = `Analyze this competitive landscape and score the positioning opportunity.

Competition data:
%s

Return a JSON object:
{
  "competitive_advantage_score": 0-20,
  "market_entry_difficulty": "easy/moderate/hard/extremely_hard",
  "competitive_moats": ["..."],
  "differentiation_opportunities": ["..."],
  "competitive_threats": ["..."],
  "switching_costs": "low/medium/high",
  "network_effects": "none/weak/moderate/strong",
  "strategic_positioning": "analysis",
  "sustainable_advantage_potential": "low/medium/high"
}
Focus on strategic implications rather than counting competitors.`

const demandPrompt = `Analyze these demand signals.

Demand data:
%s

Return a JSON object:
{
  "demand_strength_score": 0-25,
  "market_readiness": "early/emerging/ready/mature",
  "customer_urgency": "low/moderate/high/critical",
  "willingness_to_pay": "low/moderate/high",
  "adoption_barriers": ["..."],
  "demand_catalysts": ["..."],
  "customer_segments": ["..."],
  "pain_point_severity": "nice_to_have/important/critical/existential",
  "demand_validation_confidence": "low/medium/high"
}
Distinguish expressed interest from actual purchase intent.`

const trendMomentumPrompt = `Analyze these market trends.

Trend data:
%s

Return a JSON object:
{
  "trend_momentum_score": 0-15,
  "trend_direction": "accelerating_positive/growing/stable/declining/accelerating_negative",
  "trend_sustainability": "temporary/short_term/medium_term/long_term/permanent",
  "technology_enablers": ["..."],
  "economic_tailwinds": ["..."],
  "economic_headwinds": ["..."],
  "momentum_sustainability": "fading/stable/building/accelerating",
  "timing_advantage": "early/optimal/late/missed"
}`

const executionRiskPrompt = `Analyze execution risks for this market opportunity.

Opportunity:
%s

Market analysis:
%s

Competition analysis:
%s

Return a JSON object:
{
  "execution_risk_score": 0-15 (higher means lower risk),
  "overall_risk_level": "low/medium/high/extreme",
  "technical_risks": ["..."],
  "market_risks": ["..."],
  "regulatory_risks": ["..."],
  "mitigation_strategies": {"technical": ["..."], "market": ["..."]},
  "critical_success_factors": ["..."],
  "failure_modes": ["..."]
}`

const strategyPrompt = `Generate strategic recommendations for this market opportunity.

Opportunity:
%s

Scoring analysis:
%s

Return a JSON object:
{
  "overall_recommendation": "strong_pursue/pursue/cautious_pursue/investigate/avoid",
  "confidence_level": "low/medium/high",
  "investment_thesis": "2-3 sentences",
  "strategic_approach": "blitzscale/measured_growth/niche_focus/wait_and_see",
  "go_to_market_strategy": "direct_sales/product_led/partnership/viral",
  "key_success_metrics": ["..."],
  "strategic_priorities": ["..."],
  "next_immediate_actions": ["...", "...", "..."]
}`

const portfolioPrompt = `Analyze this portfolio of scored opportunities:

%s

Return a JSON object:
{
  "portfolio_theme": "overall characteristics",
  "diversification_analysis": "assessment",
  "resource_allocation_strategy": "how to allocate resources",
  "portfolio_risks": ["..."],
  "portfolio_synergies": ["..."],
  "recommended_portfolio_approach": "focus/diversify/staged/opportunistic",
  "timing_strategy": "parallel/sequential/conditional",
  "portfolio_priorities": ["..."]
}`

var (
	marketComponent      = scoreComponent{"market_attractiveness", "market", "market_attractiveness_score", 25, 0.2, marketDynamicsPrompt}
	competitionComponent = scoreComponent{"competitive_advantage", "competition", "competitive_advantage_score", 20, 0.3, competitionPrompt}
	demandComponent      = scoreComponent{"demand_strength", "demand", "demand_strength_score", 25, 0.2, demandPrompt}
	trendComponent       = scoreComponent{"trend_momentum", "trends", "trend_momentum_score", 15, 0.3, trendMomentumPrompt}
	riskComponent        = scoreComponent{"execution_risk", "risks", "execution_risk_score", 15, 0.2, executionRiskPrompt}
)

// ScoringInput is the evidence for one opportunity.
type ScoringInput struct {
	ID          string         `json:"id,omitempty"`
	Name        string         `json:"name,omitempty"`
	MarketSize  map[string]any `json:"market_size,omitempty"`
	Competition map[string]any `json:"competition_analysis,omitempty"`
	Demand      map[string]any `json:"demand_validation,omitempty"`
	Trends      map[string]any `json:"trend_analysis,omitempty"`
	Context     map[string]any `json:"-"`
}

// AIScore is the LLM-driven 100-point score of one opportunity, normalised to [0,1].
type AIScore struct {
	OpportunityID     string                    `json:"opportunity_id,omitempty"`
	Name              string                    `json:"name,omitempty"`
	ScoredAt          time.Time                 `json:"timestamp"`
	OverallScore      float64                   `json:"overall_score"`
	Components        map[string]float64        `json:"component_scores"`
	Analysis          map[string]map[string]any `json:"ai_analysis"`
	StrategicInsights map[string]any            `json:"strategic_insights,omitempty"`
	Recommendation    string                    `json:"recommendation"`
	ConfidenceLevel   string                    `json:"confidence_level"`
	NextActions       []string                  `json:"next_actions"`
	Errors            map[string]string         `json:"errors,omitempty"`
}

// AIRanking is a set of AI-scored opportunities, best first.
type AIRanking struct {
	RankedAt     time.Time      `json:"timestamp"`
	Total        int            `json:"total_opportunities"`
	Ranked       []AIScore      `json:"ranked_opportunities"`
	Distribution map[string]int `json:"portfolio_distribution"`
	Focus        string         `json:"recommended_focus"`
	Portfolio    map[string]any `json:"ai_portfolio_analysis,omitempty"`
	Error        string         `json:"error,omitempty"`
}

const scoringSystem = "You are a venture analyst scoring early-stage market opportunities. Be realistic and reply with a single JSON object."

func analyze(ctx context.Context, c scoreComponent, args ...any) (map[string]any, error) {
	prompt := fmt.Sprintf(c.prompt, args...)
	res, err := engine.CallLLMSystemJSON[map[string]any](ctx, scoringSystem, prompt, engine.CallOpts{Temperature: c.temperature})
	if err != nil {
		return nil, fmt.Errorf("%s analysis: %w", c.analysis, err)
	}
	return *res, nil
}

// CalculateAIOpportunityScore runs the five component analyses through
// RunParallel in two stages: market, competition, demand and trend together,
// then execution risk, which reads the market and competition analyses. A
// strategy call over the component scores follows. A failed analysis scores 0.
func CalculateAIOpportunityScore(ctx context.Context, in ScoringInput) *AIScore {
	score := &AIScore{
		OpportunityID:   in.ID,
		Name:            in.Name,
		ScoredAt:        time.Now().UTC(),
		Components:      map[string]float64{},
		Analysis:        map[string]map[string]any{},
		Errors:          map[string]string{},
		Recommendation:  "investigate",
		ConfidenceLevel: "medium",
	}

	parallel := []struct {
		c    scoreComponent
		data map[string]any
	}{
		{marketComponent, in.MarketSize},
		{competitionComponent, in.Competition},
		{demandComponent, in.Demand},
		{trendComponent, in.Trends},
	}
	tasks := make([]engine.Task[map[string]any], len(parallel))
	for i, p := range parallel {
		tasks[i] = engine.Task[map[string]any]{
			Name: p.c.name,
			Run: func(ctx context.Context) (map[string]any, error) {
				return analyze(ctx, p.c, jsonSnippet(orEmpty(p.data), 4000))
			},
		}
	}
	opts := engine.Cfg.Parallel
	opts.Workers = len(tasks)
	opts.RequestDelay = 0
	opts.TaskTimeout = 60 * time.Second
	opts.CollectTimeout = 90 * time.Second
	outcomes, _ := engine.RunParallel(ctx, tasks, opts)
	for i, o := range outcomes {
		score.record(parallel[i].c, o.Value, o.Err)
	}

	market := jsonSnippet(orEmpty(score.Analysis[marketComponent.analysis]), 2000)
	competition := jsonSnippet(orEmpty(score.Analysis[competitionComponent.analysis]), 2000)
	riskTasks := []engine.Task[map[string]any]{{
		Name: riskComponent.name,
		Run: func(ctx context.Context) (map[string]any, error) {
			return analyze(ctx, riskComponent, jsonSnippet(orEmpty(in.Context), 4000), market, competition)
		},
	}}
	riskOut, _ := engine.RunParallel(ctx, riskTasks, opts)
	score.record(riskComponent, riskOut[0].Value, riskOut[0].Err)

	var total float64
	for _, v := range score.Components {
		total += v
	}
	score.OverallScore = math.Min(total/100, 1.0)

	strategy, err := analyze(ctx, scoreComponent{analysis: "strategy", temperature: 0.3, prompt: strategyPrompt},
		jsonSnippet(orEmpty(in.Context), 4000),
		jsonSnippet(map[string]any{"overall_score": score.OverallScore, "component_scores": score.Components}, 2000))
	if err != nil {
		score.Errors["strategy"] = err.Error()
	} else {
		score.StrategicInsights = strategy
		if r := toString(strategy["overall_recommendation"]); r != "" {
			score.Recommendation = r
		}
		if c := toString(strategy["confidence_level"]); c != "" {
			score.ConfidenceLevel = c
		}
		score.NextActions = toStrings(strategy["next_immediate_actions"])
	}
	if len(score.Errors) == 0 {
		score.Errors = nil
	}
	return score
}

func (s *AIScore) record(c scoreComponent, analysis map[string]any, err error) {
	if err != nil {
		slog.Warn("ai score: analysis failed", slog.String("component", c.name), slog.Any("error", err))
		s.Errors[c.name] = err.Error()
		s.Components[c.name] = 0
		return
	}
	s.Analysis[c.analysis] = analysis
	s.Components[c.name] = math.Max(0, math.Min(toFloat(analysis[c.scoreField]), c.max))
}

// RankOpportunitiesWithAI scores every opportunity, sorts best first and adds
// a portfolio view. A failed portfolio call leaves Portfolio empty.
func RankOpportunitiesWithAI(ctx context.Context, opps []map[string]any) *AIRanking {
	r := &AIRanking{RankedAt: time.Now().UTC(), Total: len(opps)}

	inputs := make([]ScoringInput, len(opps))
	for i, opp := range opps {
		inputs[i] = ScoringInput{
			ID:          orDefault(toString(opp["id"]), fmt.Sprintf("opportunity_%d", i+1)),
			Name:        orDefault(toString(opp["name"]), fmt.Sprintf("Opportunity %d", i+1)),
			MarketSize:  asMap(opp["market_size"]),
			Competition: asMap(opp["competition_analysis"]),
			Demand:      asMap(opp["demand_validation"]),
			Trends:      asMap(opp["trend_analysis"]),
			Context:     opp,
		}
	}
	for _, in := range inputs {
		if ctx.Err() != nil {
			r.Error = ctx.Err().Error()
			break
		}
		r.Ranked = append(r.Ranked, *CalculateAIOpportunityScore(ctx, in))
	}
	sort.SliceStable(r.Ranked, func(i, j int) bool { return r.Ranked[i].OverallScore > r.Ranked[j].OverallScore })

	r.Distribution, r.Focus = PortfolioDistribution(r.Ranked)
	if len(r.Ranked) == 0 {
		return r
	}

	summary := make([]map[string]any, len(r.Ranked))
	for i, s := range r.Ranked {
		summary[i] = map[string]any{
			"name":               s.Name,
			"score":              s.OverallScore,
			"recommendation":     s.Recommendation,
			"market_analysis":    s.Analysis[marketComponent.analysis],
			"strategic_insights": s.StrategicInsights,
		}
	}
	portfolio, err := analyze(ctx, scoreComponent{analysis: "portfolio", temperature: 0.3, prompt: portfolioPrompt}, jsonSnippet(summary, 6000))
	if err != nil {
		slog.Warn("ai score: portfolio analysis failed", slog.Any("error", err))
		return r
	}
	r.Portfolio = portfolio
	return r
}

// PortfolioDistribution counts high (≥0.7), medium and low (<0.4) scores and
// names the band to focus on.
func PortfolioDistribution(scores []AIScore) (map[string]int, string) {
	dist := map[string]int{"high_potential": 0, "medium_potential": 0, "low_potential": 0}
	for _, s := range scores {
		switch {
		case s.OverallScore >= 0.7:
			dist["high_potential"]++
		case s.OverallScore >= 0.4:
			dist["medium_potential"]++
		default:
			dist["low_potential"]++
		}
	}
	switch {
	case dist["high_potential"] > 0:
		return dist, "high_potential"
	case dist["medium_potential"] > 0:
		return dist, "medium_potential"
	}
	return dist, "explore_alternatives"
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}
