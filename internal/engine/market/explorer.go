package market

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anatolykoptev/go_market/internal/engine"
)

// CollectedContent is one search hit kept as evidence for an LLM analysis.
type CollectedContent struct {
	Query   string  `json:"query"`
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// collectContent runs every query through RunParallel and keeps up to
// maxResults hits per query with content cut to contentRunes. Hits without
// content are dropped. The second result counts failed queries.
func collectContent(ctx context.Context, stage, kind string, queries []string, maxResults, contentRunes int) ([]CollectedContent, int) {
	tasks := make([]engine.Task[[]CollectedContent], len(queries))
	for i, q := range queries {
		tasks[i] = engine.Task[[]CollectedContent]{
			Name: q,
			Run: func(ctx context.Context) ([]CollectedContent, error) {
				results, err := webSearch(ctx, q, kind, maxResults)
				if err != nil {
					return nil, err
				}
				var out []CollectedContent
				for _, r := range results[:min(maxResults, len(results))] {
					if strings.TrimSpace(r.Content) == "" {
						continue
					}
					out = append(out, CollectedContent{
						Query:   q,
						Title:   r.Title,
						URL:     r.URL,
						Content: engine.TruncateRunes(r.Content, contentRunes, ""),
						Score:   r.Score,
					})
				}
				return out, nil
			},
		}
	}
	opts := engine.Cfg.Parallel
	opts.Workers = 4
	opts.RequestDelay = 250 * time.Millisecond
	opts.TaskTimeout = 30 * time.Second
	opts.CollectTimeout = 90 * time.Second
	outcomes, stats := engine.RunParallel(ctx, tasks, opts)
	slog.Debug("explorer: collected", slog.String("stage", stage),
		slog.Int("queries", stats.Total), slog.Int("failed", stats.Failed))

	var all []CollectedContent
	for _, o := range outcomes {
		if o.Err != nil {
			logSkip(stage, o.Err)
			continue
		}
		all = append(all, o.Value...)
	}
	return all, stats.Failed
}

// sourceDomains lists the distinct sites content came from, in first-seen order.
func sourceDomains(items []CollectedContent) []string {
	seen := map[string]bool{}
	var out []string
	for _, it := range items {
		d := sourceOf(it.URL)
		if d == "unknown" || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}

func contentText(items []CollectedContent, limit, runes int) string {
	parts := make([]string, 0, limit)
	for _, it := range items[:min(limit, len(items))] {
		parts = append(parts, fmt.Sprintf("Query: %s\nTitle: %s\nContent: %s\nScore: %.2f",
			it.Query, it.Title, engine.TruncateRunes(it.Content, runes, ""), it.Score))
	}
	return strings.Join(parts, "\n\n")
}

// --- Market signal discovery ---

// PainCluster groups related user frustrations.
type PainCluster struct {
	ClusterName        FlexString `json:"cluster_name"`
	Description        FlexString `json:"description"`
	Frequency          FlexString `json:"frequency"`
	Severity           string     `json:"severity"`
	AffectedUsers      FlexString `json:"affected_users"`
	CurrentWorkarounds FlexString `json:"current_workarounds"`
	OpportunitySize    string     `json:"opportunity_size"`
}

// ExplorerWorkflowGap is a workflow breakdown users describe.
type ExplorerWorkflowGap struct {
	GapDescription      FlexString `json:"gap_description"`
	ToolsInvolved       StringList `json:"tools_involved"`
	ManualProcesses     FlexString `json:"manual_processes"`
	IntegrationFailures FlexString `json:"integration_failures"`
	TimeImpact          FlexString `json:"time_impact"`
	AutomationPotential string     `json:"automation_potential"`
}

// IntegrationOpportunity is a connection users want between systems.
type IntegrationOpportunity struct {
	IntegrationNeed     FlexString `json:"integration_need"`
	SystemsMentioned    StringList `json:"systems_mentioned"`
	UseCase             FlexString `json:"use_case"`
	CurrentAlternatives FlexString `json:"current_alternatives"`
	MarketGap           FlexString `json:"market_gap"`
}

// UnderservedSegment is a user group mainstream products miss.
type UnderservedSegment struct {
	SegmentDescription FlexString `json:"segment_description"`
	SpecificNeeds      FlexString `json:"specific_needs"`
	WhyUnderserved     FlexString `json:"why_underserved"`
	SizeIndicators     FlexString `json:"size_indicators"`
	WillingnessToPay   FlexString `json:"willingness_to_pay"`
}

// SignalOverview is the headline read of the collected content.
type SignalOverview struct {
	OverallSentiment  string     `json:"overall_sentiment"`
	PrimaryPainThemes StringList `json:"primary_pain_themes"`
	SignalStrength    string     `json:"signal_strength"`
	MarketMaturity    string     `json:"market_maturity"`
	UrgencyIndicators StringList `json:"urgency_indicators"`
}

// ConfidenceAssessment rates the evidence behind an analysis.
type ConfidenceAssessment struct {
	DataQuality       string `json:"data_quality"`
	SourceDiversity   string `json:"source_diversity"`
	SignalConsistency string `json:"signal_consistency"`
	OverallConfidence any    `json:"overall_confidence"`
}

// MarketSignals is the explorer's analysis of one problem space.
type MarketSignals struct {
	Context                  string                   `json:"context"`
	CollectedAt              time.Time                `json:"collected_at"`
	RawContentCollected      int                      `json:"raw_content_collected"`
	QueriesFailed            int                      `json:"queries_failed,omitempty"`
	SourceDomains            []string                 `json:"source_domains,omitempty"`
	Overview                 SignalOverview           `json:"ai_analysis"`
	PainPointClusters        []PainCluster            `json:"pain_point_clusters"`
	WorkflowGaps             []ExplorerWorkflowGap    `json:"workflow_gaps"`
	IntegrationOpportunities []IntegrationOpportunity `json:"integration_opportunities"`
	UnderservedSegments      []UnderservedSegment     `json:"underserved_segments"`
	EmergingBehaviors        []map[string]any         `json:"emerging_behaviors,omitempty"`
	SolutionDirections       []map[string]any         `json:"solution_directions,omitempty"`
	MarketTimingSignals      []map[string]any         `json:"market_timing_signals,omitempty"`
	Confidence               ConfidenceAssessment     `json:"confidence_assessment"`
	KeyInsights              StringList               `json:"key_insights"`
	SignalConfidence         float64                  `json:"signal_confidence"`
	Validation               *SignalValidation        `json:"validation,omitempty"`
	Error                    string                   `json:"error,omitempty"`
}

const explorerSystem = "You are a market signal explorer. You find genuine pain points and unmet needs in the spaces between established product categories. Reply with a single JSON object."

const marketSignalsPrompt = `Analyze this user-generated content about "%s" to discover market signals and opportunities.

Content to analyze:
%s

Return a JSON object with:
- ai_analysis: {overall_sentiment: frustrated/neutral/satisfied, primary_pain_themes: [], signal_strength: strong/moderate/weak, market_maturity: early/growing/mature, urgency_indicators: []}
- pain_point_clusters: [{cluster_name, description, frequency, severity: high/medium/low, affected_users, current_workarounds, opportunity_size: small/medium/large}]
- workflow_gaps: [{gap_description, tools_involved: [], manual_processes, integration_failures, time_impact, automation_potential: high/medium/low}]
- integration_opportunities: [{integration_need, systems_mentioned: [], use_case, current_alternatives, market_gap}]
- underserved_segments: [{segment_description, specific_needs, why_underserved, size_indicators, willingness_to_pay}]
- emerging_behaviors: [{behavior, driver, tools_needed, trend_strength}]
- solution_directions: [{solution_type, key_features: [], integration_requirements: [], user_priorities: [], differentiation_opportunities: []}]
- market_timing_signals: [{signal, implication, urgency}]
- confidence_assessment: {data_quality, source_diversity, signal_consistency, overall_confidence: number 0.0-1.0}
- key_insights: []

Focus on genuine market gaps and unmet needs, especially those between established product categories.`

// DiscoverMarketSignals searches pain-point and complaint angles for a problem
// space, then asks the LLM to cluster what users say. The analysis is
// cross-checked with ValidateSignalsCrossPlatform.
func DiscoverMarketSignals(ctx context.Context, queryContext string) (*MarketSignals, error) {
	queryContext = strings.TrimSpace(queryContext)
	if queryContext == "" {
		return nil, fmt.Errorf("market signals: context is required")
	}
	queries := []string{
		queryContext + " pain points small business",
		queryContext + " pain points enterprise",
		queryContext + " pain points individual users",
		queryContext + " problems frustrated users",
		queryContext + " doesn't work complaints",
		"alternatives to " + queryContext + " needed",
		queryContext + " workflow integration issues",
	}
	content, failed := collectContent(ctx, "market_signals", engine.SearchTavilyQuick, queries, 3, 2000)

	ms := &MarketSignals{
		Context:             queryContext,
		CollectedAt:         time.Now().UTC(),
		RawContentCollected: len(content),
		QueriesFailed:       failed,
		SourceDomains:       sourceDomains(content),
	}
	if len(content) == 0 {
		ms.Error = "no content collected"
		ms.Validation = ValidateSignalsCrossPlatform(ms)
		return ms, nil
	}

	prompt := fmt.Sprintf(marketSignalsPrompt, queryContext, contentText(content, 12, 800))
	analysis, err := engine.CallLLMSystemJSON[MarketSignals](ctx, explorerSystem, prompt, engine.CallOpts{Temperature: 0.3})
	if err != nil {
		slog.Warn("market signals: analysis failed", slog.String("context", queryContext), slog.Any("error", err))
		ms.Error = err.Error()
		ms.Validation = ValidateSignalsCrossPlatform(ms)
		return ms, nil
	}
	analysis.Context = ms.Context
	analysis.CollectedAt = ms.CollectedAt
	analysis.RawContentCollected = ms.RawContentCollected
	analysis.QueriesFailed = ms.QueriesFailed
	analysis.SourceDomains = ms.SourceDomains
	analysis.SignalConfidence = 0.5
	if analysis.Confidence.OverallConfidence != nil {
		analysis.SignalConfidence = clamp01(toFloat(analysis.Confidence.OverallConfidence))
	}
	analysis.Validation = ValidateSignalsCrossPlatform(analysis)
	return analysis, nil
}

// SignalValidation is the reliability read of a MarketSignals analysis.
type SignalValidation struct {
	Consistency     string   `json:"cross_platform_consistency"`
	ValidationScore float64  `json:"validation_score"`
	Sources         int      `json:"distinct_sources"`
	BoostFactors    []string `json:"confidence_boost_factors,omitempty"`
}

// ValidateSignalsCrossPlatform rates how consistent the discovered signals
// are. Two or more pain clusters rate high (0.8), one rates medium (0.6),
// none rates low (0.3). Boost factors note what backs the rating up.
func ValidateSignalsCrossPlatform(ms *MarketSignals) *SignalValidation {
	v := &SignalValidation{Consistency: "low", ValidationScore: 0.3}
	if ms == nil {
		return v
	}
	switch n := len(ms.PainPointClusters); {
	case n >= 2:
		v.Consistency, v.ValidationScore = "high", 0.8
	case n == 1:
		v.Consistency, v.ValidationScore = "medium", 0.6
	}
	v.Sources = len(ms.SourceDomains)
	if v.Sources >= 3 {
		v.BoostFactors = append(v.BoostFactors, fmt.Sprintf("signals seen on %d distinct sites", v.Sources))
	}
	if ms.RawContentCollected >= 10 {
		v.BoostFactors = append(v.BoostFactors, fmt.Sprintf("%d pieces of content collected", ms.RawContentCollected))
	}
	if len(ms.WorkflowGaps) > 0 && len(ms.IntegrationOpportunities) > 0 {
		v.BoostFactors = append(v.BoostFactors, "workflow gaps and integration needs point the same way")
	}
	if strings.EqualFold(ms.Overview.SignalStrength, "strong") {
		v.BoostFactors = append(v.BoostFactors, "signal strength rated strong")
	}
	return v
}

// --- Competitive gaps ---

// CompetitiveGap is an unmet need competitors leave open.
type CompetitiveGap struct {
	GapType            string     `json:"gap_type"`
	GapDescription     FlexString `json:"gap_description"`
	Evidence           FlexString `json:"evidence"`
	AffectedUsers      FlexString `json:"affected_users"`
	CurrentWorkarounds FlexString `json:"current_workarounds"`
	OpportunitySize    string     `json:"opportunity_size"`
}

// CompetitiveLandscapeSummary describes who already serves a domain.
type CompetitiveLandscapeSummary struct {
	MarketMaturity     string     `json:"market_maturity"`
	DominantPlayers    StringList `json:"dominant_players"`
	SolutionCategories StringList `json:"solution_categories"`
	PricingPatterns    StringList `json:"pricing_patterns"`
	TargetSegments     StringList `json:"target_segments"`
	CommonFeatures     StringList `json:"common_features"`
}

// CompetitiveGaps is the gap analysis of one market domain.
type CompetitiveGaps struct {
	MarketDomain            string                      `json:"market_domain"`
	AnalyzedAt              time.Time                   `json:"analyzed_at"`
	RawDataCollected        int                         `json:"raw_data_collected"`
	QueriesFailed           int                         `json:"queries_failed,omitempty"`
	Landscape               CompetitiveLandscapeSummary `json:"competitive_landscape"`
	IdentifiedGaps          []CompetitiveGap            `json:"identified_gaps"`
	MarketOpportunities     []map[string]any            `json:"market_opportunities"`
	PositioningStrategies   []map[string]any            `json:"positioning_strategies"`
	UnderservedNiches       []map[string]any            `json:"underserved_niches,omitempty"`
	InnovationOpportunities []map[string]any            `json:"innovation_opportunities,omitempty"`
	KeyInsights             StringList                  `json:"key_insights"`
	Error                   string                      `json:"error,omitempty"`
}

const competitiveGapsPrompt = `Analyze the competitive landscape and market gaps for "%s".

Research content:
%s

Return a JSON object with:
- competitive_landscape: {market_maturity: early/growth/mature/declining, dominant_players: [], solution_categories: [], pricing_patterns: [], target_segments: [], common_features: []}
- identified_gaps: [{gap_type: functionality/market/pricing/user_experience, gap_description, evidence, affected_users, current_workarounds, opportunity_size: large/medium/small}]
- market_opportunities: [{opportunity, target_segment, solution_approach, competitive_advantage, market_entry_strategy, timing: immediate/6_months/12_months}]
- positioning_strategies: [{strategy, differentiation, value_proposition, messaging_direction}]
- underserved_niches: [{niche_description, why_underserved, size_potential, entry_barriers: low/medium/high, solution_requirements}]
- innovation_opportunities: [{innovation_area, current_limitations, technology_enablers, user_impact}]
- key_insights: []

Focus on genuine gaps where new solutions could create significant value.`

// AnalyzeCompetitiveGaps searches competitor and gap angles for a domain and
// asks the LLM where incumbents fall short.
func AnalyzeCompetitiveGaps(ctx context.Context, marketDomain string) (*CompetitiveGaps, error) {
	marketDomain = strings.TrimSpace(marketDomain)
	if marketDomain == "" {
		return nil, fmt.Errorf("competitive gaps: market domain is required")
	}
	queries := []string{
		marketDomain + " competitors comparison",
		marketDomain + " market leaders pricing",
		marketDomain + " market gaps opportunities",
		marketDomain + " competitors limitations weaknesses",
		marketDomain + " unserved market segments",
		"why isn't there good " + marketDomain + " solution",
	}
	content, failed := collectContent(ctx, "competitive_gaps", engine.SearchTavily, queries, 3, 1500)

	cg := &CompetitiveGaps{
		MarketDomain:     marketDomain,
		AnalyzedAt:       time.Now().UTC(),
		RawDataCollected: len(content),
		QueriesFailed:    failed,
	}
	if len(content) == 0 {
		cg.Error = "no content collected"
		return cg, nil
	}

	prompt := fmt.Sprintf(competitiveGapsPrompt, marketDomain, contentText(content, 10, 700))
	analysis, err := engine.CallLLMSystemJSON[CompetitiveGaps](ctx, explorerSystem, prompt, engine.CallOpts{Temperature: 0.3})
	if err != nil {
		slog.Warn("competitive gaps: analysis failed", slog.String("domain", marketDomain), slog.Any("error", err))
		cg.Error = err.Error()
		return cg, nil
	}
	analysis.MarketDomain = cg.MarketDomain
	analysis.AnalyzedAt = cg.AnalyzedAt
	analysis.RawDataCollected = cg.RawDataCollected
	analysis.QueriesFailed = cg.QueriesFailed
	return analysis, nil
}

// --- Domain convergence ---

// ConvergenceOpportunities is the analysis of where several domains meet.
type ConvergenceOpportunities struct {
	Domains                       []string         `json:"domains"`
	AnalyzedAt                    time.Time        `json:"analyzed_at"`
	ContentCollected              int              `json:"content_collected"`
	ConvergencePoints             []map[string]any `json:"convergence_points"`
	CrossPollinationOpportunities []map[string]any `json:"cross_pollination_opportunities"`
	TechnologyBridges             []map[string]any `json:"technology_bridges"`
	MarketGaps                    []map[string]any `json:"liminal_market_gaps"`
	TimingAnalysis                map[string]any   `json:"timing_analysis,omitempty"`
	ActionableInsights            StringList       `json:"actionable_insights"`
	Error                         string           `json:"error,omitempty"`
}

const domainConvergencePrompt = `Analyze convergence opportunities between these domains: %s

Research content:
%s

Return a JSON object with:
- convergence_points: [{convergence_type: technology/market/business model, description, enabling_factors: [], market_opportunity, timeline}]
- cross_pollination_opportunities: [{opportunity, source_domain, target_domain, value_proposition, implementation_approach}]
- technology_bridges: [{bridge_technology, domains_connected: [], business_applications: [], adoption_barriers: []}]
- liminal_market_gaps: [{gap_description, affected_users, solution_requirements, market_readiness, competitive_landscape}]
- timing_analysis: {current_stage, acceleration_factors: [], optimal_entry_window, risk_factors: []}
- actionable_insights: []

Focus on genuine market gaps that exist between these domains.`

// IdentifyConvergenceOpportunities searches how two or more domains intersect
// and asks the LLM for convergence points, bridges and gaps between them.
func IdentifyConvergenceOpportunities(ctx context.Context, domains []string) (*ConvergenceOpportunities, error) {
	var clean []string
	for _, d := range domains {
		if d = strings.TrimSpace(d); d != "" {
			clean = append(clean, d)
		}
	}
	if len(clean) < 2 {
		return nil, fmt.Errorf("convergence: at least two domains are required")
	}
	joined := strings.Join(clean, " ")
	queries := []string{
		joined + " convergence integration opportunities",
		"intersection " + strings.Join(clean, " and ") + " emerging markets",
		joined + " cross-industry innovation trends",
		"hybrid solutions " + joined + " market opportunities",
	}
	content, _ := collectContent(ctx, "convergence", engine.SearchTavilyQuick, queries, 3, 1500)

	co := &ConvergenceOpportunities{Domains: clean, AnalyzedAt: time.Now().UTC(), ContentCollected: len(content)}
	if len(content) == 0 {
		co.Error = "no content collected"
		return co, nil
	}
	prompt := fmt.Sprintf(domainConvergencePrompt, strings.Join(clean, ", "), contentText(content, 6, 1500))
	analysis, err := engine.CallLLMJSON[ConvergenceOpportunities](ctx, prompt, engine.CallOpts{Temperature: 0.3})
	if err != nil {
		slog.Warn("convergence: analysis failed", slog.Any("domains", clean), slog.Any("error", err))
		co.Error = err.Error()
		return co, nil
	}
	analysis.Domains = co.Domains
	analysis.AnalyzedAt = co.AnalyzedAt
	analysis.ContentCollected = co.ContentCollected
	return analysis, nil
}

func clamp01(f float64) float64 {
	return max(0, min(1, f))
}
