package market

import (
	"context"
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/anatolykoptev/go_market/internal/engine"
)

// ProcessedSignals buckets social signals by category.
type ProcessedSignals struct {
	Total           int                `json:"total_signals"`
	PainPoints      []SocialSignal     `json:"pain_points"`
	FeatureRequests []SocialSignal     `json:"feature_requests"`
	Complaints      []SocialSignal     `json:"complaints"`
	Suggestions     []SocialSignal     `json:"suggestions"`
	Sentiment       map[string]float64 `json:"sentiment_summary"`
}

// ProcessSocialSignals classifies every signal and routes it to its bucket.
// General feedback is counted in Total but kept in no bucket.
func ProcessSocialSignals(signals []SocialSignal) ProcessedSignals {
	ps := ProcessedSignals{Total: len(signals), Sentiment: map[string]float64{}}
	for _, s := range signals {
		switch s.Category {
		case "pain_point":
			ps.PainPoints = append(ps.PainPoints, s)
		case "feature_request":
			ps.FeatureRequests = append(ps.FeatureRequests, s)
		case "complaint":
			ps.Complaints = append(ps.Complaints, s)
		case "suggestion":
			ps.Suggestions = append(ps.Suggestions, s)
		}
		ps.Sentiment[s.Sentiment]++
	}
	if ps.Total > 0 {
		for k, v := range ps.Sentiment {
			ps.Sentiment[k] = v / float64(ps.Total)
		}
	}
	return ps
}

// SignalPattern is one recurring shape found across signals.
type SignalPattern struct {
	Type       string         `json:"type"`
	Indicators []string       `json:"indicators,omitempty"`
	Stage      string         `json:"stage,omitempty"`
	Source     string         `json:"source,omitempty"`
	Urgency    string         `json:"urgency,omitempty"`
	Frequency  int            `json:"frequency,omitempty"`
	Breakdown  map[string]int `json:"breakdown,omitempty"`
	Sources    []string       `json:"sources,omitempty"`
	Strength   string         `json:"strength,omitempty"`
	Evidence   string         `json:"evidence,omitempty"`
}

// PatternConnection links two pattern families.
type PatternConnection struct {
	Type        string   `json:"connection_type"`
	Description string   `json:"description"`
	Patterns    []string `json:"pattern_types"`
	Strength    string   `json:"strength"`
}

// TrendIndicator is a volume or sentiment trend read off the signals.
type TrendIndicator struct {
	Type      string `json:"trend_type"`
	Indicator string `json:"indicator"`
	Strength  string `json:"strength"`
}

// OpportunitySignal is an opportunity implied by the patterns.
type OpportunitySignal struct {
	Type            string `json:"opportunity_type"`
	Description     string `json:"description"`
	EvidenceCount   int    `json:"evidence_count,omitempty"`
	MarketReadiness string `json:"market_readiness"`
}

// PatternAnalysis is the heuristic pattern read of a set of social signals.
type PatternAnalysis struct {
	Context     string                     `json:"context"`
	AnalyzedAt  time.Time                  `json:"analyzed_at"`
	SignalCount int                        `json:"signal_count"`
	Categories  map[string]int             `json:"categories"`
	Patterns    map[string][]SignalPattern `json:"patterns"`
	Connections []PatternConnection        `json:"connections"`
	Trends      []TrendIndicator           `json:"trend_indicators"`
	Signals     []OpportunitySignal        `json:"opportunity_signals"`
	Confidence  float64                    `json:"pattern_confidence"`
}

const (
	workflowPatterns    = "workflow_patterns"
	integrationPatterns = "integration_patterns"
	journeyPatterns     = "user_journey_patterns"
	painPatterns        = "pain_point_patterns"
	solutionPatterns    = "solution_patterns"
)

var (
	workflowIndicators    = []string{"manual", "copy paste", "switch between", "export import", "back and forth", "multiple steps", "repetitive", "time consuming", "inefficient"}
	integrationIndicators = []string{"doesn't integrate", "no api", "can't connect", "sync", "import", "export", "between tools", "separate systems", "manual transfer"}
	journeyIndicators     = []string{"first time", "new user", "onboarding", "setup", "getting started", "learning curve", "confusing", "unclear", "documentation"}

	painKeywordCategory = map[string]string{
		"slow": "performance", "performance": "performance", "speed": "performance",
		"broken": "reliability", "error": "reliability", "bug": "reliability", "doesn't work": "reliability",
		"confusing": "usability", "difficult": "usability", "complicated": "usability",
		"manual": "efficiency", "repetitive": "efficiency", "time-consuming": "efficiency",
	}
	solutionCategories = []struct {
		name  string
		words []string
	}{
		{"automation", []string{"automation", "automatic", "auto"}},
		{"integration", []string{"integration", "connect", "sync"}},
		{"reporting", []string{"dashboard", "report", "analytics"}},
		{"mobile", []string{"mobile", "app", "phone"}},
	}
)

// IdentifyPatterns classifies raw texts with ProcessSocialSignal and looks
// for workflow, integration, onboarding, pain and solution patterns, the
// connections between them and the opportunities they imply.
func IdentifyPatterns(texts []string, source, marketContext string) *PatternAnalysis {
	signals := make([]SocialSignal, 0, len(texts))
	for _, t := range texts {
		if strings.TrimSpace(t) == "" {
			continue
		}
		signals = append(signals, ProcessSocialSignal(t, source))
	}
	return AnalyzeSignalPatterns(signals, marketContext)
}

// AnalyzeSignalPatterns runs the pattern heuristics over processed signals.
func AnalyzeSignalPatterns(signals []SocialSignal, marketContext string) *PatternAnalysis {
	ps := ProcessSocialSignals(signals)
	pa := &PatternAnalysis{
		Context:     marketContext,
		AnalyzedAt:  time.Now().UTC(),
		SignalCount: len(signals),
		Categories: map[string]int{
			"pain_points":      len(ps.PainPoints),
			"feature_requests": len(ps.FeatureRequests),
			"complaints":       len(ps.Complaints),
			"suggestions":      len(ps.Suggestions),
		},
		Patterns: map[string][]SignalPattern{
			workflowPatterns:    matchIndicators("workflow_inefficiency", ps.PainPoints, workflowIndicators),
			integrationPatterns: matchIndicators("integration_gap", slices.Concat(ps.PainPoints, ps.FeatureRequests), integrationIndicators),
			journeyPatterns:     journeyFriction(ps.Complaints),
			painPatterns:        painPointPatterns(ps.PainPoints),
			solutionPatterns:    solutionRequestPatterns(slices.Concat(ps.FeatureRequests, ps.Suggestions)),
		},
	}
	pa.Connections = patternConnections(pa.Patterns)
	pa.Trends = trendIndicators(ps)
	pa.Signals = opportunitySignals(pa)
	pa.Confidence = patternConfidence(pa)
	return pa
}

func matchIndicators(kind string, signals []SocialSignal, indicators []string) []SignalPattern {
	var out []SignalPattern
	for _, s := range signals {
		content := strings.ToLower(s.CleanedContent)
		var hits []string
		for _, ind := range indicators {
			if strings.Contains(content, ind) || slices.Contains(s.Keywords, ind) {
				hits = append(hits, ind)
			}
		}
		if len(hits) == 0 {
			continue
		}
		out = append(out, SignalPattern{
			Type:       kind,
			Indicators: hits,
			Source:     s.Source,
			Urgency:    s.Urgency,
			Evidence:   engine.TruncateRunes(content, 200, ""),
		})
	}
	return out
}

func journeyFriction(complaints []SocialSignal) []SignalPattern {
	out := matchIndicators("user_journey_friction", complaints, journeyIndicators)
	for i := range out {
		out[i].Stage = journeyStage(out[i].Evidence)
	}
	return out
}

func journeyStage(content string) string {
	switch {
	case engine.ContainsAny(content, "setup", "install", "getting started", "onboarding"):
		return "onboarding"
	case engine.ContainsAny(content, "first time", "new user", "learning"):
		return "initial_use"
	case engine.ContainsAny(content, "advanced", "power user", "customize"):
		return "advanced_use"
	}
	return "general_use"
}

// painPointPatterns groups pain points by the kind of pain their keywords
// name. A signal counts once per category and a category needs two signals
// to count as a pattern.
func painPointPatterns(pain []SocialSignal) []SignalPattern {
	byCategory := map[string][]SocialSignal{}
	for _, s := range pain {
		var seen []string
		for _, kw := range s.Keywords {
			if cat, ok := painKeywordCategory[kw]; ok && !slices.Contains(seen, cat) {
				seen = append(seen, cat)
				byCategory[cat] = append(byCategory[cat], s)
			}
		}
	}
	var out []SignalPattern
	for _, cat := range slices.Sorted(maps.Keys(byCategory)) {
		group := byCategory[cat]
		if len(group) < 2 {
			continue
		}
		urgency := map[string]int{}
		var sources []string
		for _, s := range group {
			urgency[s.Urgency]++
			if !slices.Contains(sources, s.Source) {
				sources = append(sources, s.Source)
			}
		}
		out = append(out, SignalPattern{
			Type:      cat + "_pain_pattern",
			Frequency: len(group),
			Breakdown: urgency,
			Sources:   sources,
		})
	}
	return out
}

// solutionRequestPatterns groups requests by the first solution category
// they mention. A category needs two requests; five make it strong.
func solutionRequestPatterns(requests []SocialSignal) []SignalPattern {
	byType := map[string][]SocialSignal{}
	for _, s := range requests {
		for _, c := range solutionCategories {
			if engine.ContainsAny(s.CleanedContent, c.words...) {
				byType[c.name] = append(byType[c.name], s)
				break
			}
		}
	}
	var out []SignalPattern
	for _, c := range solutionCategories {
		group := byType[c.name]
		if len(group) < 2 {
			continue
		}
		spec := map[string]int{}
		for _, s := range group {
			spec[s.Specificity]++
		}
		strength := "moderate"
		if len(group) >= 5 {
			strength = "strong"
		}
		out = append(out, SignalPattern{
			Type:      c.name + "_solution_pattern",
			Frequency: len(group),
			Breakdown: spec,
			Strength:  strength,
		})
	}
	return out
}

func patternConnections(p map[string][]SignalPattern) []PatternConnection {
	var out []PatternConnection
	wf, in := p[workflowPatterns], p[integrationPatterns]
	if len(wf) > 0 && len(in) > 0 {
		strength := "moderate"
		if len(wf) >= 3 && len(in) >= 3 {
			strength = "strong"
		}
		out = append(out, PatternConnection{
			Type:        "workflow_integration_nexus",
			Description: "Workflow inefficiencies stem from poor tool integration",
			Patterns:    []string{workflowPatterns, integrationPatterns},
			Strength:    strength,
		})
	}
	pain, sol := p[painPatterns], p[solutionPatterns]
	if len(pain) > 0 && len(sol) > 0 {
		strength := "moderate"
		if len(sol) >= 2 {
			strength = "strong"
		}
		out = append(out, PatternConnection{
			Type:        "pain_solution_alignment",
			Description: "User pain points align with requested solutions",
			Patterns:    []string{painPatterns, solutionPatterns},
			Strength:    strength,
		})
	}
	return out
}

func trendIndicators(ps ProcessedSignals) []TrendIndicator {
	var out []TrendIndicator
	if ps.Total >= 30 {
		strength := "moderate"
		if ps.Total >= 50 {
			strength = "strong"
		}
		out = append(out, TrendIndicator{
			Type:      "volume_increase",
			Indicator: fmt.Sprintf("High signal volume (%d signals) suggests growing interest", ps.Total),
			Strength:  strength,
		})
	}
	if neg := ps.Sentiment["negative"]; neg > 0.6 {
		out = append(out, TrendIndicator{
			Type:      "dissatisfaction_trend",
			Indicator: fmt.Sprintf("High negative sentiment (%.0f%%) indicates market frustration", neg*100),
			Strength:  "strong",
		})
	}
	return out
}

func opportunitySignals(pa *PatternAnalysis) []OpportunitySignal {
	var out []OpportunitySignal
	if n := len(pa.Patterns[integrationPatterns]); n >= 3 {
		out = append(out, OpportunitySignal{
			Type:            "integration_platform",
			Description:     "Strong demand for tool integration solutions",
			EvidenceCount:   n,
			MarketReadiness: "high",
		})
	}
	if n := len(pa.Patterns[workflowPatterns]); n >= 3 {
		out = append(out, OpportunitySignal{
			Type:            "workflow_automation",
			Description:     "Manual workflow pain points indicate automation opportunity",
			EvidenceCount:   n,
			MarketReadiness: "high",
		})
	}
	for _, c := range pa.Connections {
		if c.Type == "pain_solution_alignment" {
			out = append(out, OpportunitySignal{
				Type:            "solution_gap",
				Description:     "Clear alignment between user pain and solution requests",
				MarketReadiness: "medium",
			})
		}
	}
	return out
}

// patternConfidence averages signal volume (full at 30), pattern count
// (full at 10) and connection count (full at 3).
func patternConfidence(pa *PatternAnalysis) float64 {
	volume := math.Min(float64(pa.SignalCount)/30, 1)
	n := 0
	for _, list := range pa.Patterns {
		n += len(list)
	}
	diversity := math.Min(float64(n)/10, 1)
	connections := math.Min(float64(len(pa.Connections))/3, 1)
	return round2((volume + diversity + connections) / 3)
}

// --- Growth patterns ---

// GrowthPatterns is the LLM read of growth shapes in arbitrary market data.
type GrowthPatterns struct {
	GrowthPatterns       StringList `json:"growth_patterns"`
	MarketCycles         StringList `json:"market_cycles"`
	AdoptionCurves       StringList `json:"adoption_curves"`
	SaturationIndicators StringList `json:"saturation_indicators"`
	EmergingNiches       StringList `json:"emerging_niches"`
	OpportunityWindows   StringList `json:"opportunity_windows"`
	PatternConfidence    float64    `json:"pattern_confidence"`
}

const growthPatternsPrompt = `Analyze this market data and identify growth patterns and opportunities.

Market data: %s

Return a JSON object with:
- growth_patterns: growth patterns identified in the data
- market_cycles: cyclical patterns or seasonal trends
- adoption_curves: technology or product adoption patterns
- saturation_indicators: market saturation signals
- emerging_niches: new market niches or segments emerging
- opportunity_windows: specific opportunity windows with timing

Focus on actionable patterns that could represent business opportunities.`

// IdentifyGrowthPatterns asks the LLM for growth, cycle, adoption and
// saturation patterns in data. Confidence grows with the number of growth
// patterns and opportunity windows found and is reduced by saturation.
func IdentifyGrowthPatterns(ctx context.Context, data any) (*GrowthPatterns, error) {
	if data == nil {
		return nil, fmt.Errorf("growth patterns: market data is required")
	}
	gp, err := engine.CallLLMJSON[GrowthPatterns](ctx, fmt.Sprintf(growthPatternsPrompt, jsonSnippet(data, 6000)),
		engine.CallOpts{Temperature: 0.3})
	if err != nil {
		return nil, fmt.Errorf("growth patterns: %w", err)
	}
	gp.PatternConfidence = growthConfidence(gp)
	return gp, nil
}

func growthConfidence(gp *GrowthPatterns) float64 {
	score := math.Min(float64(len(gp.GrowthPatterns))*0.15, 0.45) +
		math.Min(float64(len(gp.OpportunityWindows))*0.1, 0.3) +
		math.Min(float64(len(gp.EmergingNiches))*0.05, 0.15)
	score -= math.Min(float64(len(gp.SaturationIndicators))*0.05, 0.15)
	return round2(clamp01(score))
}
