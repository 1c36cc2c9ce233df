package market

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/dustin/go-humanize"

	"github.com/anatolykoptev/go_market/internal/engine"
)

// PainSignal is a problem extracted from one search hit.
type PainSignal struct {
	PainPoint   string `json:"pain_point"`
	Severity    string `json:"severity"`
	Frequency   string `json:"frequency"`
	TargetUsers string `json:"target_users"`
	Opportunity string `json:"opportunity"`
	Source      string `json:"source"`
	Keyword     string `json:"keyword"`
}

// Competitor is a company or product found competing for a keyword.
type Competitor struct {
	Name           string     `json:"name"`
	Type           string     `json:"type"`
	MarketPosition string     `json:"market_position"`
	Strengths      StringList `json:"strengths"`
	Weaknesses     StringList `json:"weaknesses"`
}

// DemandIndicator is a statistic that hints at demand.
type DemandIndicator struct {
	Metric            string     `json:"metric"`
	Value             FlexString `json:"value"`
	Timeframe         string     `json:"timeframe"`
	SourceCredibility string     `json:"source_credibility"`
	GrowthDirection   string     `json:"growth_direction"`
}

// TrendSignal is a direction-of-travel statement about a market.
type TrendSignal struct {
	Trend      string `json:"trend"`
	Direction  string `json:"direction"`
	Timeframe  string `json:"timeframe"`
	Impact     string `json:"impact"`
	Confidence string `json:"confidence"`
}

// MarketSizePoint is one market valuation found on the web.
type MarketSizePoint struct {
	MarketSizeValue   FlexString `json:"market_size_value"`
	MarketSizeUnit    string     `json:"market_size_unit"`
	Timeframe         FlexString `json:"timeframe"`
	GeographicScope   string     `json:"geographic_scope"`
	MarketSegment     string     `json:"market_segment"`
	SourceCredibility string     `json:"source_credibility"`
}

// CompetitionAnalysis groups competitors and what the grouping implies.
type CompetitionAnalysis struct {
	Keywords            []string     `json:"keywords,omitempty"`
	SolutionType        string       `json:"solution_type,omitempty"`
	DirectCompetitors   []Competitor `json:"direct_competitors"`
	IndirectCompetitors []Competitor `json:"indirect_competitors"`
	MarketLeaders       []Competitor `json:"market_leaders"`
	CompetitionLevel    string       `json:"competition_level"`
	MarketConcentration string       `json:"market_concentration,omitempty"`
	MarketGaps          []string     `json:"market_gaps"`
	PricingInsights     []string     `json:"pricing_strategy_insights,omitempty"`
}

// DemandValidation scores how credible and growing demand looks.
type DemandValidation struct {
	Indicators  []DemandIndicator `json:"search_volume_indicators"`
	DemandScore float64           `json:"demand_score"`
}

// TrendAnalysis summarises trend signals into a direction.
type TrendAnalysis struct {
	TrendDirection   string        `json:"trend_direction"`
	GrowthIndicators []TrendSignal `json:"growth_indicators"`
}

// ResearchReport is the output of ComprehensiveResearch.
type ResearchReport struct {
	Timestamp          time.Time           `json:"timestamp"`
	Keywords           []string            `json:"keywords"`
	TargetAudience     string              `json:"target_audience,omitempty"`
	MarketSignals      []PainSignal        `json:"market_signals"`
	Competition        CompetitionAnalysis `json:"competition_analysis"`
	Demand             DemandValidation    `json:"demand_validation"`
	Trends             TrendAnalysis       `json:"trend_analysis"`
	OpportunityScore   float64             `json:"opportunity_score"`
	ActionableInsights []string            `json:"actionable_insights"`
	Errors             map[string]string   `json:"errors,omitempty"`
}

// MarketSize is a TAM/SAM/SOM estimate with its evidence.
type MarketSize struct {
	Keywords              []string          `json:"keywords"`
	TargetAudience        string            `json:"target_audience,omitempty"`
	TAM                   int64             `json:"tam_estimate"`
	SAM                   int64             `json:"sam_estimate"`
	SOM                   int64             `json:"som_estimate"`
	TAMDisplay            string            `json:"tam_display"`
	SAMDisplay            string            `json:"sam_display"`
	SOMDisplay            string            `json:"som_display"`
	CalculationConfidence string            `json:"calculation_confidence"`
	Assumptions           []string          `json:"assumptions"`
	Segments              []MarketSegment   `json:"market_segments"`
	GrowthRate            float64           `json:"growth_rate"`
	SizeConfidence        string            `json:"size_confidence"`
	DataSources           []MarketSizePoint `json:"data_sources"`
}

// MarketSegment is a named slice of a market.
type MarketSegment struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	SizeEstimate string `json:"size_estimate"`
}

const (
	painExtractPrompt = `Analyze this search result about "%s" and extract the pain point, problem or market gap it mentions.

Title: %s
Content: %s

Return a JSON object with:
- pain_point: the specific problem
- severity: high/medium/low
- frequency: high/medium/low
- target_users: who is affected
- opportunity: the business opportunity it represents`

	competitorExtractPrompt = `Analyze this search result about "%s" and extract companies, products or services mentioned as competitors or solutions.

Title: %s
Content: %s

Return a JSON array of competitors, each with:
- name
- type: software, service, platform, ...
- market_position: leader, challenger, niche, ...
- strengths: list
- weaknesses: list`

	demandExtractPrompt = `Analyze this search result about "%s" and extract demand indicators, market size data or usage statistics.

Title: %s
Content: %s

Return a JSON array of indicators, each with:
- metric
- value
- timeframe
- source_credibility: high/medium/low
- growth_direction: growth/decline/stable`

	trendExtractPrompt = `Analyze this search result about "%s" and extract trend information, predictions or market direction indicators.

Title: %s
Content: %s

Return a JSON array of trends, each with:
- trend
- direction: growing/declining/stable
- timeframe
- impact
- confidence: high/medium/low`

	marketSizeExtractPrompt = `Analyze this search result about the "%s" market and extract market size data, statistics or valuations.

Title: %s
Content: %s

Return a JSON array of data points, each with:
- market_size_value: e.g. "5.2 billion", "150M"
- market_size_unit: billion, million, USD, ...
- timeframe
- geographic_scope: global, US, Europe, ...
- market_segment
- source_credibility: high/medium/low`

	insightsPrompt = `Based on this market research data, write 5-7 specific, actionable business insights.

Research data:
%s

Cover market gaps, underserved segments, technology opportunities, business model innovations and go-to-market.
Return a JSON array of strings.`
)

// kwQuery is a search query tagged with the keyword it researches.
type kwQuery struct {
	keyword, query string
}

func expandQueries(keywords []string, limit int, templates ...string) []kwQuery {
	var out []kwQuery
	for _, kw := range firstN(keywords, limit) {
		for _, t := range templates {
			out = append(out, kwQuery{keyword: kw, query: strings.ReplaceAll(t, "{kw}", kw)})
		}
	}
	return out
}

// searchAndExtract searches every query and runs extract on each hit. Failed
// searches and failed extractions are skipped.
func searchAndExtract[T any](ctx context.Context, stage string, queries []kwQuery, maxResults int,
	extract func(ctx context.Context, r engine.SearchResult, keyword string) ([]T, error),
) []T {
	tasks := make([]engine.Task[[]T], len(queries))
	for i, q := range queries {
		tasks[i] = engine.Task[[]T]{
			Name: q.query,
			Run: func(ctx context.Context) ([]T, error) {
				results, err := webSearch(ctx, q.query, engine.SearchTavilyQuick, maxResults)
				if err != nil {
					return nil, err
				}
				var items []T
				for _, r := range results[:min(maxResults, len(results))] {
					got, err := extract(ctx, r, q.keyword)
					if err != nil {
						logSkip(stage, err)
						continue
					}
					items = append(items, got...)
				}
				return items, nil
			},
		}
	}

	opts := engine.Cfg.Parallel
	opts.Workers = 4
	opts.RequestDelay = 500 * time.Millisecond
	opts.TaskTimeout = 90 * time.Second
	opts.CollectTimeout = 3 * time.Minute
	outcomes, stats := engine.RunParallel(ctx, tasks, opts)
	slog.Debug("research: stage done", slog.String("stage", stage),
		slog.Int("queries", stats.Total), slog.Int("failed", stats.Failed))

	var all []T
	for _, o := range outcomes {
		if o.Err != nil {
			logSkip(stage, o.Err)
		}
		all = append(all, o.Value...)
	}
	return all
}

func extractPrompt(tmpl, keyword string, r engine.SearchResult) string {
	return fmt.Sprintf(tmpl, keyword, r.Title, engine.TruncateRunes(r.Content, 1000, ""))
}

func extractPain(ctx context.Context, r engine.SearchResult, keyword string) ([]PainSignal, error) {
	p, err := engine.CallLLMJSON[PainSignal](ctx, extractPrompt(painExtractPrompt, keyword, r), engine.CallOpts{Temperature: 0.3})
	if err != nil {
		return nil, fmt.Errorf("pain extraction: %w", err)
	}
	if p.PainPoint == "" {
		return nil, nil
	}
	p.Source = r.URL
	p.Keyword = keyword
	return []PainSignal{*p}, nil
}

func extractListFn[T any](tmpl string) func(ctx context.Context, r engine.SearchResult, keyword string) ([]T, error) {
	return func(ctx context.Context, r engine.SearchResult, keyword string) ([]T, error) {
		return callList[T](ctx, extractPrompt(tmpl, keyword, r), engine.CallOpts{Temperature: 0.3})
	}
}

// DiscoverPainSignals extracts pain signals for the first three keywords.
func DiscoverPainSignals(ctx context.Context, keywords []string) []PainSignal {
	queries := expandQueries(keywords, 3,
		"{kw} problems frustrating users",
		"{kw} doesn't work complaints",
		"alternatives to {kw} needed",
		"{kw} market gaps opportunities",
	)
	return searchAndExtract(ctx, "pain", queries, 3, extractPain)
}

// AnalyzeCompetition finds competitors for the first two keywords, keeping up
// to five direct competitors and three leaders per keyword.
func AnalyzeCompetition(ctx context.Context, keywords []string) CompetitionAnalysis {
	ca := CompetitionAnalysis{Keywords: keywords}
	for _, kw := range firstN(keywords, 2) {
		queries := expandQueries([]string{kw}, 1,
			"{kw} top companies market leaders",
			"best {kw} solutions software tools",
			"{kw} competitors comparison review",
		)
		found := searchAndExtract(ctx, "competition", queries, 3, extractListFn[Competitor](competitorExtractPrompt))
		ca.DirectCompetitors = append(ca.DirectCompetitors, found[:min(5, len(found))]...)
		ca.MarketLeaders = append(ca.MarketLeaders, found[:min(3, len(found))]...)
	}
	switch n := len(ca.DirectCompetitors); {
	case n < 3:
		ca.CompetitionLevel = "low"
	case n < 8:
		ca.CompetitionLevel = "medium"
	default:
		ca.CompetitionLevel = "high"
	}
	return ca
}

// ValidateDemand collects demand indicators for the first three keywords.
func ValidateDemand(ctx context.Context, keywords []string) DemandValidation {
	queries := expandQueries(keywords, 3,
		"{kw} market size statistics 2024",
		"{kw} growing demand trends",
		"how many people use {kw}",
		"{kw} market research report",
	)
	ind := searchAndExtract(ctx, "demand", queries, 2, extractListFn[DemandIndicator](demandExtractPrompt))
	return DemandValidation{Indicators: ind, DemandScore: DemandScore(ind)}
}

// AnalyzeTrends collects trend signals for the first two keywords.
func AnalyzeTrends(ctx context.Context, keywords []string) TrendAnalysis {
	queries := expandQueries(keywords, 2,
		"{kw} trends 2024 2025 future",
		"{kw} market growth predictions",
		"{kw} emerging technologies innovations",
		"{kw} industry outlook report",
	)
	signals := searchAndExtract(ctx, "trends", queries, 2, extractListFn[TrendSignal](trendExtractPrompt))
	return TrendAnalysis{TrendDirection: TrendDirection(signals), GrowthIndicators: signals}
}

// ComprehensiveResearch runs pain, competition, demand and trend research in
// parallel, then scores the opportunity and asks for actionable insights.
func ComprehensiveResearch(ctx context.Context, keywords []string, targetAudience string) (*ResearchReport, error) {
	if len(keywords) == 0 {
		return nil, fmt.Errorf("market research: no keywords")
	}
	report := &ResearchReport{
		Timestamp:      time.Now().UTC(),
		Keywords:       keywords,
		TargetAudience: targetAudience,
		Errors:         map[string]string{},
		Trends:         TrendAnalysis{TrendDirection: "stable"},
	}

	tasks := []engine.Task[any]{
		{Name: "market_signals", Run: func(ctx context.Context) (any, error) { return DiscoverPainSignals(ctx, keywords), nil }},
		{Name: "competition_analysis", Run: func(ctx context.Context) (any, error) { return AnalyzeCompetition(ctx, keywords), nil }},
		{Name: "demand_validation", Run: func(ctx context.Context) (any, error) { return ValidateDemand(ctx, keywords), nil }},
		{Name: "trend_analysis", Run: func(ctx context.Context) (any, error) { return AnalyzeTrends(ctx, keywords), nil }},
	}
	opts := engine.Cfg.Parallel
	opts.Workers = len(tasks)
	opts.RequestDelay = 0
	opts.TaskTimeout = 4 * time.Minute
	opts.CollectTimeout = 5 * time.Minute
	outcomes, _ := engine.RunParallel(ctx, tasks, opts)

	for _, o := range outcomes {
		if !o.Success {
			report.Errors[o.Name] = o.Err.Error()
			continue
		}
		switch v := o.Value.(type) {
		case []PainSignal:
			report.MarketSignals = v
		case CompetitionAnalysis:
			report.Competition = v
		case DemandValidation:
			report.Demand = v
		case TrendAnalysis:
			report.Trends = v
		}
	}
	if report.Competition.CompetitionLevel == "" {
		report.Competition.CompetitionLevel = "unknown"
	}

	report.OpportunityScore = ResearchOpportunityScore(report)
	report.ActionableInsights = GenerateInsights(ctx, report)
	if len(report.Errors) == 0 {
		report.Errors = nil
	}
	return report, nil
}

// GenerateInsights asks the LLM for insights, falling back to a single
// completion note.
func GenerateInsights(ctx context.Context, data any) []string {
	prompt := fmt.Sprintf(insightsPrompt, jsonSnippet(data, 6000))
	insights, err := callList[string](ctx, prompt, engine.CallOpts{Temperature: 0.4})
	if err != nil || len(insights) == 0 {
		if err != nil {
			slog.Warn("research: insights failed", slog.Any("error", err))
		}
		return []string{"Market research completed successfully"}
	}
	return insights
}

// AnalyzeCompetitiveLandscape researches competitors for a solution type and
// categorises them.
func AnalyzeCompetitiveLandscape(ctx context.Context, keywords []string, solutionType string) (*CompetitionAnalysis, error) {
	if len(keywords) == 0 {
		return nil, fmt.Errorf("competitive landscape: no keywords")
	}
	st := strings.TrimSpace(solutionType)
	ca := &CompetitionAnalysis{Keywords: keywords, SolutionType: st}
	for _, kw := range firstN(keywords, 2) {
		subject := strings.TrimSpace(kw + " " + st)
		queries := expandQueries([]string{subject}, 1,
			"{kw} competitors top companies",
			"best {kw} alternatives market leaders",
			"{kw} pricing comparison review",
			"{kw} market share leaders",
		)
		for i := range queries {
			queries[i].keyword = kw
		}
		found := searchAndExtract(ctx, "landscape", queries, 3, extractListFn[Competitor](competitorExtractPrompt))
		direct, indirect, leaders := CategorizeCompetitors(found)
		ca.DirectCompetitors = append(ca.DirectCompetitors, direct...)
		ca.IndirectCompetitors = append(ca.IndirectCompetitors, indirect...)
		ca.MarketLeaders = append(ca.MarketLeaders, leaders...)
	}
	ca.CompetitionLevel = AssessCompetitionLevel(ca)
	ca.MarketConcentration = AnalyzeMarketConcentration(ca)
	ca.MarketGaps = IdentifyCompetitionGaps(ca, keywords)
	if len(ca.DirectCompetitors) > 0 {
		ca.PricingInsights = []string{
			"Analyze competitor pricing pages for detailed pricing data",
			"Look for freemium vs. premium pricing models",
			"Identify pricing gaps in the market",
			"Consider value-based pricing opportunities",
		}
	}
	return ca, nil
}

// AnalyzeMarketSize estimates TAM, SAM and SOM from valuations found for the
// first three keywords.
func AnalyzeMarketSize(ctx context.Context, keywords []string, targetAudience string) (*MarketSize, error) {
	if len(keywords) == 0 {
		return nil, fmt.Errorf("market size: no keywords")
	}
	queries := expandQueries(keywords, 3,
		"{kw} market size 2024 billion",
		"{kw} industry size statistics global",
		"{kw} TAM total addressable market",
		"{kw} market research report value",
	)
	points := searchAndExtract(ctx, "market_size", queries, 3, extractListFn[MarketSizePoint](marketSizeExtractPrompt))

	ms := CalculateTAMSAMSOM(points, targetAudience)
	ms.Keywords = keywords
	ms.Segments = IdentifyMarketSegments(points, keywords)
	ms.GrowthRate = CalculateGrowthRate(points)
	switch n := len(points); {
	case n >= 3 && ms.TAM > 0:
		ms.SizeConfidence = "high"
	case n >= 2 && ms.TAM > 0:
		ms.SizeConfidence = "medium"
	default:
		ms.SizeConfidence = "low"
	}
	return ms, nil
}

// --- pure helpers ---

// CategorizeCompetitors splits competitors into direct (direct, software or
// platform types), indirect and leaders (leader or dominant position), capped
// at 10, 10 and 5.
func CategorizeCompetitors(comps []Competitor) (direct, indirect, leaders []Competitor) {
	for _, c := range comps {
		if engine.ContainsAny(c.MarketPosition, "leader", "dominant") {
			leaders = append(leaders, c)
		}
		if engine.ContainsAny(c.Type, "direct", "software", "platform") {
			direct = append(direct, c)
		} else {
			indirect = append(indirect, c)
		}
	}
	return direct[:min(10, len(direct))], indirect[:min(10, len(indirect))], leaders[:min(5, len(leaders))]
}

// AssessCompetitionLevel grades competition by direct and total counts.
func AssessCompetitionLevel(ca *CompetitionAnalysis) string {
	direct := len(ca.DirectCompetitors)
	total := direct + len(ca.IndirectCompetitors)
	switch {
	case direct <= 2 && total <= 5:
		return "low"
	case direct <= 5 && total <= 15:
		return "medium"
	}
	return "high"
}

// AnalyzeMarketConcentration classifies the market as fragmented, competitive
// or concentrated.
func AnalyzeMarketConcentration(ca *CompetitionAnalysis) string {
	leaders := len(ca.MarketLeaders)
	direct := len(ca.DirectCompetitors)
	switch {
	case leaders <= 1 && direct >= 8:
		return "fragmented"
	case leaders <= 3 && direct >= 5:
		return "competitive"
	}
	return "concentrated"
}

// IdentifyCompetitionGaps reports weaknesses shared by two or more direct
// competitors plus keyword-driven gaps, at most five.
func IdentifyCompetitionGaps(ca *CompetitionAnalysis, keywords []string) []string {
	counts := map[string]int{}
	var order []string
	for _, c := range ca.DirectCompetitors {
		for _, w := range c.Weaknesses {
			if counts[w] == 0 {
				order = append(order, w)
			}
			counts[w]++
		}
	}
	var gaps []string
	for _, w := range order {
		if counts[w] >= 2 {
			gaps = append(gaps, "Market gap: "+w)
		}
	}
	for _, kw := range keywords {
		switch strings.ToLower(kw) {
		case "integration", "automation", "workflow":
			gaps = append(gaps, fmt.Sprintf("Potential %s solution gap", kw))
		}
	}
	return gaps[:min(5, len(gaps))]
}

// DemandScore weighs high-credibility (0.3) and growth (0.4) indicators per
// indicator, capped at 1.
func DemandScore(ind []DemandIndicator) float64 {
	if len(ind) == 0 {
		return 0
	}
	var credible, growth int
	for _, i := range ind {
		if i.SourceCredibility == "high" {
			credible++
		}
		if i.GrowthDirection == "growth" {
			growth++
		}
	}
	return min((float64(credible)*0.3+float64(growth)*0.4)/float64(len(ind)), 1.0)
}

// TrendDirection is growing when more than 60% of signals mention growth or
// an increase, declining under 30%, stable otherwise.
func TrendDirection(signals []TrendSignal) string {
	if len(signals) == 0 {
		return "stable"
	}
	positive := 0
	for _, s := range signals {
		if text := lowerJSON(s); strings.Contains(text, "growth") || strings.Contains(text, "increase") {
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

// ResearchOpportunityScore combines pain severity, competition, demand and
// trend into [0,1].
func ResearchOpportunityScore(r *ResearchReport) float64 {
	high := 0
	for _, s := range r.MarketSignals {
		if s.Severity == "high" {
			high++
		}
	}
	score := min(float64(high)*0.1, 0.3)

	switch r.Competition.CompetitionLevel {
	case "low":
		score += 0.25
	case "medium":
		score += 0.15
	default:
		score += 0.05
	}

	score += min(r.Demand.DemandScore*0.25, 0.25)

	switch r.Trends.TrendDirection {
	case "growing":
		score += 0.2
	case "stable", "":
		score += 0.1
	default:
		score += 0.05
	}
	return round2(min(score, 1.0))
}

var (
	marketSizeRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(trillion|billion|million|thousand|tn|bn|mn|mm|t|b|m|k)?\b`)
	growthRe     = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%\s*growth`)
)

var sizeMultipliers = map[string]float64{
	"trillion": 1e12, "tn": 1e12, "t": 1e12,
	"billion": 1e9, "bn": 1e9, "b": 1e9,
	"million": 1e6, "mn": 1e6, "mm": 1e6, "m": 1e6,
	"thousand": 1e3, "k": 1e3,
}

// ParseMarketSize reads values like "$4.5B", "5.2 billion" or "150M". The
// unit must follow the number; the first number with a unit wins, otherwise
// the first bare number is returned as is.
func ParseMarketSize(s string) float64 {
	s = strings.ToLower(strings.NewReplacer(",", "", "$", "").Replace(s))
	matches := marketSizeRe.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return 0
	}
	for _, m := range matches {
		if m[2] == "" {
			continue
		}
		n, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		return n * sizeMultipliers[m[2]]
	}
	n, _ := strconv.ParseFloat(matches[0][1], 64)
	return n
}

// FormatMarketSize renders a dollar amount as "$4.5B", "$120M" or "$12,000".
func FormatMarketSize(v float64) string {
	switch {
	case v >= 1e12:
		return "$" + humanize.FtoaWithDigits(v/1e12, 1) + "T"
	case v >= 1e9:
		return "$" + humanize.FtoaWithDigits(v/1e9, 1) + "B"
	case v >= 1e6:
		return "$" + humanize.FtoaWithDigits(v/1e6, 1) + "M"
	}
	return "$" + humanize.Comma(int64(v))
}

// CalculateTAMSAMSOM takes the median valuation as TAM. SAM is 25% of TAM for
// a named audience and 15% otherwise; SOM is 3% of SAM.
func CalculateTAMSAMSOM(points []MarketSizePoint, targetAudience string) *MarketSize {
	ms := &MarketSize{TargetAudience: targetAudience, DataSources: points, CalculationConfidence: "medium"}

	var values []float64
	for _, p := range points {
		if v := ParseMarketSize(string(p.MarketSizeValue)); v > 0 {
			values = append(values, v)
		}
	}
	samShare := 0.15
	if strings.TrimSpace(targetAudience) != "" {
		samShare = 0.25
	}
	const somShare = 0.03

	if len(values) > 0 {
		sort.Float64s(values)
		tam := values[len(values)/2]
		ms.TAM = int64(tam)
		ms.SAM = int64(tam * samShare)
		ms.SOM = int64(float64(ms.SAM) * somShare)
		switch {
		case len(values) >= 3:
			ms.CalculationConfidence = "high"
		case len(values) >= 2:
			ms.CalculationConfidence = "medium"
		default:
			ms.CalculationConfidence = "low"
		}
	}
	ms.TAMDisplay = FormatMarketSize(float64(ms.TAM))
	ms.SAMDisplay = FormatMarketSize(float64(ms.SAM))
	ms.SOMDisplay = FormatMarketSize(float64(ms.SOM))
	ms.Assumptions = []string{
		fmt.Sprintf("TAM calculated from %d market size data points", len(values)),
		fmt.Sprintf("SAM estimated as %d%% of TAM based on target focus", int(samShare*100)),
		fmt.Sprintf("SOM estimated as %d%% of SAM for new market entrant", int(somShare*100)),
		"Calculations assume current market conditions and growth rates",
	}
	return ms
}

// IdentifyMarketSegments lists distinct segments named in the data plus
// enterprise, small business and startup keywords, at most five.
func IdentifyMarketSegments(points []MarketSizePoint, keywords []string) []MarketSegment {
	var segs []MarketSegment
	seen := map[string]bool{}
	for _, p := range points {
		if p.MarketSegment == "" || seen[p.MarketSegment] {
			continue
		}
		seen[p.MarketSegment] = true
		segs = append(segs, MarketSegment{
			Name:         p.MarketSegment,
			Description:  "Market segment focused on " + p.MarketSegment,
			SizeEstimate: "TBD",
		})
	}
	for _, kw := range keywords {
		switch strings.ToLower(kw) {
		case "enterprise", "small business", "startup":
			segs = append(segs, MarketSegment{
				Name:         titleCase(kw) + " Market",
				Description:  fmt.Sprintf("Market segment serving %s customers", kw),
				SizeEstimate: "TBD",
			})
		}
	}
	return segs[:min(5, len(segs))]
}

// CalculateGrowthRate averages "N% growth" mentions, defaulting to 5.
func CalculateGrowthRate(points []MarketSizePoint) float64 {
	var sum float64
	var n int
	for _, p := range points {
		text := lowerJSON(p)
		for _, m := range growthRe.FindAllStringSubmatch(text, 1) {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				sum += v
				n++
			}
		}
	}
	if n == 0 {
		return 5.0
	}
	return sum / float64(n)
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
	}
	return strings.Join(words, " ")
}
