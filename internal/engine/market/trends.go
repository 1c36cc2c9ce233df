package market

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anatolykoptev/go_market/internal/engine"
)

// SearchTrends aggregates trend insights across keyword searches.
type SearchTrends struct {
	Keywords          []string   `json:"keywords"`
	TrendDirection    string     `json:"trend_direction"`
	VolumeIndicators  StringList `json:"search_volume_indicators"`
	RelatedTrends     StringList `json:"related_trends"`
	EmergingSubtopics StringList `json:"emerging_subtopics"`
	GrowthSignals     StringList `json:"growth_signals"`
	QueriesFailed     int        `json:"queries_failed,omitempty"`
}

// IndustryMomentum aggregates momentum insights for one industry.
type IndustryMomentum struct {
	Industry          string     `json:"industry"`
	Keywords          []string   `json:"keywords"`
	GrowthIndicators  StringList `json:"growth_indicators"`
	InnovationSignals StringList `json:"innovation_signals"`
	InvestmentTrends  StringList `json:"investment_trends"`
	DisruptionSignals StringList `json:"disruption_signals"`
	KeyDrivers        StringList `json:"key_drivers"`
	Challenges        StringList `json:"challenges"`
	QueriesFailed     int        `json:"queries_failed,omitempty"`
}

type trendInsights struct {
	VolumeIndicators StringList `json:"volume_indicators"`
	RelatedTrends    StringList `json:"related_trends"`
	Subtopics        StringList `json:"subtopics"`
	GrowthSignals    StringList `json:"growth_signals"`
	Timeframe        FlexString `json:"timeframe"`
	Confidence       string     `json:"confidence"`
}

type momentumInsights struct {
	GrowthIndicators  StringList `json:"growth_indicators"`
	InnovationSignals StringList `json:"innovation_signals"`
	InvestmentTrends  StringList `json:"investment_trends"`
	DisruptionSignals StringList `json:"disruption_signals"`
	MarketDrivers     StringList `json:"market_drivers"`
	Challenges        StringList `json:"challenges"`
}

const trendInsightsPrompt = `Analyze these search results about "%s" trends and extract insights.

%s

Return a JSON object with:
- volume_indicators: search volume or popularity indicators
- related_trends: related trending topics
- subtopics: emerging subtopics or niches
- growth_signals: indicators of growth or decline
- timeframe: when these trends are occurring
- confidence: high/medium/low`

const momentumInsightsPrompt = `Analyze these search results about "%s" industry momentum and extract insights.

%s

Return a JSON object with:
- growth_indicators: growth metrics, market size data or expansion signals
- innovation_signals: new technologies, products or innovations
- investment_trends: funding and investment indicators
- disruption_signals: disruptions or new entrants
- market_drivers: key factors driving growth
- challenges: headwinds`

func resultsText(results []engine.SearchResult) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		parts = append(parts, fmt.Sprintf("Title: %s\nContent: %s", r.Title, engine.TruncateRunes(r.Content, 800, "")))
	}
	return strings.Join(parts, "\n\n")
}

// insightsPerQuery searches each query and runs one LLM extraction over its
// combined hits.
func insightsPerQuery[T any](ctx context.Context, queries []kwQuery, prompt string) ([]T, int) {
	tasks := make([]engine.Task[*T], len(queries))
	for i, q := range queries {
		tasks[i] = engine.Task[*T]{
			Name: q.query,
			Run: func(ctx context.Context) (*T, error) {
				results, err := webSearch(ctx, q.query, engine.SearchTavilyQuick, 3)
				if err != nil {
					return nil, err
				}
				if len(results) == 0 {
					return nil, fmt.Errorf("no results")
				}
				p := fmt.Sprintf(prompt, q.keyword, resultsText(results))
				return engine.CallLLMJSON[T](ctx, p, engine.CallOpts{Temperature: 0.3})
			},
		}
	}
	opts := engine.Cfg.Parallel
	opts.Workers = 4
	opts.RequestDelay = 500 * time.Millisecond
	opts.TaskTimeout = 60 * time.Second
	opts.CollectTimeout = 2 * time.Minute
	outcomes, stats := engine.RunParallel(ctx, tasks, opts)

	var out []T
	for _, o := range outcomes {
		if o.Err != nil {
			logSkip("trends", o.Err)
			continue
		}
		if o.Value != nil {
			out = append(out, *o.Value)
		}
	}
	return out, stats.Failed
}

// AnalyzeSearchTrends gathers popularity, related topics and growth signals
// for the first three keywords.
func AnalyzeSearchTrends(ctx context.Context, keywords []string) (*SearchTrends, error) {
	if len(keywords) == 0 {
		return nil, fmt.Errorf("search trends: no keywords")
	}
	queries := expandQueries(keywords, 3,
		"{kw} search trends 2024 growing popular",
		"{kw} market trends analysis report",
		"{kw} interest over time statistics",
		"{kw} trending topics related searches",
	)
	insights, failed := insightsPerQuery[trendInsights](ctx, queries, trendInsightsPrompt)

	st := &SearchTrends{Keywords: keywords, QueriesFailed: failed}
	for _, in := range insights {
		st.VolumeIndicators = append(st.VolumeIndicators, in.VolumeIndicators...)
		st.RelatedTrends = append(st.RelatedTrends, in.RelatedTrends...)
		st.EmergingSubtopics = append(st.EmergingSubtopics, in.Subtopics...)
		st.GrowthSignals = append(st.GrowthSignals, in.GrowthSignals...)
	}
	st.TrendDirection = directionOf(st.GrowthSignals)
	return st, nil
}

// TrackIndustryMomentum gathers growth, innovation, investment and disruption
// signals for an industry.
func TrackIndustryMomentum(ctx context.Context, industry string, keywords []string) (*IndustryMomentum, error) {
	industry = strings.TrimSpace(industry)
	if industry == "" {
		return nil, fmt.Errorf("industry momentum: industry is required")
	}
	queries := expandQueries([]string{industry}, 1,
		"{kw} industry growth 2024 market size",
		"{kw} investment funding trends venture capital",
		"{kw} innovation breakthrough technologies",
		"{kw} market disruption new players",
		"{kw} future outlook predictions 2025",
	)
	insights, failed := insightsPerQuery[momentumInsights](ctx, queries, momentumInsightsPrompt)

	m := &IndustryMomentum{Industry: industry, Keywords: keywords, QueriesFailed: failed}
	for _, in := range insights {
		m.GrowthIndicators = append(m.GrowthIndicators, in.GrowthIndicators...)
		m.InnovationSignals = append(m.InnovationSignals, in.InnovationSignals...)
		m.InvestmentTrends = append(m.InvestmentTrends, in.InvestmentTrends...)
		m.DisruptionSignals = append(m.DisruptionSignals, in.DisruptionSignals...)
		m.KeyDrivers = append(m.KeyDrivers, in.MarketDrivers...)
		m.Challenges = append(m.Challenges, in.Challenges...)
	}
	return m, nil
}

// directionOf applies the TrendDirection thresholds to free-text growth signals.
func directionOf(signals []string) string {
	if len(signals) == 0 {
		return "stable"
	}
	positive := 0
	for _, s := range signals {
		if engine.ContainsAny(s, "growth", "increase", "growing", "rising") {
			positive++
		}
	}
	n := float64(len(signals))
	switch p := float64(positive); {
	case p > n*0.6:
		return "growing"
	case p < n*0.3:
		return "declining"
	}
	return "stable"
}
