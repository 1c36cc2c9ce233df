package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMarketSize(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"$4.5B", 4.5e9},
		{"5.2 billion", 5.2e9},
		{"150M", 150e6},
		{"$1,200,000", 1.2e6},
		{"2 trillion dollars", 2e12},
		{"30k users", 30e3},
		{"in 2024 the market was worth 3 billion", 3e9},
		{"42", 42},
		{"", 0},
		{"no numbers here", 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.InDelta(t, tt.want, ParseMarketSize(tt.in), 1)
		})
	}
}

func TestFormatMarketSize(t *testing.T) {
	assert.Equal(t, "$4.5B", FormatMarketSize(4.5e9))
	assert.Equal(t, "$120M", FormatMarketSize(120e6))
	assert.Equal(t, "$2T", FormatMarketSize(2e12))
	assert.Equal(t, "$12,000", FormatMarketSize(12000))
}

func TestCalculateTAMSAMSOM(t *testing.T) {
	points := []MarketSizePoint{
		{MarketSizeValue: "3 billion"},
		{MarketSizeValue: "1 billion"},
		{MarketSizeValue: "2 billion"},
		{MarketSizeValue: "unknown"},
	}
	ms := CalculateTAMSAMSOM(points, "small agencies")
	assert.Equal(t, int64(2e9), ms.TAM)
	assert.Equal(t, int64(5e8), ms.SAM)
	assert.InDelta(t, 1.5e7, float64(ms.SOM), 1)
	assert.Equal(t, "high", ms.CalculationConfidence)
	assert.Equal(t, "$2B", ms.TAMDisplay)
	assert.Equal(t, "$500M", ms.SAMDisplay)
	assert.Len(t, ms.Assumptions, 4)
	assert.Contains(t, ms.Assumptions[1], "25%")
}

func TestCalculateTAMSAMSOM_NoAudience(t *testing.T) {
	ms := CalculateTAMSAMSOM([]MarketSizePoint{{MarketSizeValue: "1 billion"}}, "")
	assert.InDelta(t, 1.5e8, float64(ms.SAM), 1)
	assert.Equal(t, "low", ms.CalculationConfidence)

	empty := CalculateTAMSAMSOM(nil, "")
	assert.Zero(t, empty.TAM)
	assert.Equal(t, "medium", empty.CalculationConfidence)
}

func TestCategorizeCompetitors(t *testing.T) {
	comps := []Competitor{
		{Name: "A", Type: "direct", MarketPosition: "market leader"},
		{Name: "B", Type: "SaaS platform"},
		{Name: "C", Type: "spreadsheet", MarketPosition: "dominant"},
		{Name: "D", Type: "agency"},
	}
	direct, indirect, leaders := CategorizeCompetitors(comps)
	assert.Len(t, direct, 2)
	assert.Len(t, indirect, 2)
	require.Len(t, leaders, 2)
	assert.Equal(t, "A", leaders[0].Name)
	assert.Equal(t, "C", leaders[1].Name)
}

func TestAssessCompetitionLevel(t *testing.T) {
	n := func(k int) []Competitor { return make([]Competitor, k) }
	assert.Equal(t, "low", AssessCompetitionLevel(&CompetitionAnalysis{DirectCompetitors: n(2), IndirectCompetitors: n(3)}))
	assert.Equal(t, "medium", AssessCompetitionLevel(&CompetitionAnalysis{DirectCompetitors: n(4), IndirectCompetitors: n(4)}))
	assert.Equal(t, "high", AssessCompetitionLevel(&CompetitionAnalysis{DirectCompetitors: n(6)}))

	assert.Equal(t, "fragmented", AnalyzeMarketConcentration(&CompetitionAnalysis{DirectCompetitors: n(8), MarketLeaders: n(1)}))
	assert.Equal(t, "competitive", AnalyzeMarketConcentration(&CompetitionAnalysis{DirectCompetitors: n(5), MarketLeaders: n(3)}))
	assert.Equal(t, "concentrated", AnalyzeMarketConcentration(&CompetitionAnalysis{DirectCompetitors: n(2), MarketLeaders: n(4)}))
}

func TestIdentifyCompetitionGaps(t *testing.T) {
	ca := &CompetitionAnalysis{DirectCompetitors: []Competitor{
		{Weaknesses: StringList{"no API", "pricey"}},
		{Weaknesses: StringList{"no API"}},
	}}
	gaps := IdentifyCompetitionGaps(ca, []string{"Automation", "crm"})
	assert.Equal(t, []string{"Market gap: no API", "Potential Automation solution gap"}, gaps)
}

func TestDemandScore(t *testing.T) {
	assert.Zero(t, DemandScore(nil))
	ind := []DemandIndicator{
		{SourceCredibility: "high", GrowthDirection: "growth"},
		{SourceCredibility: "high", GrowthDirection: "growth"},
	}
	assert.InDelta(t, 0.7, DemandScore(ind), 0.0001)
	assert.InDelta(t, 0.15, DemandScore([]DemandIndicator{{SourceCredibility: "high"}, {}}), 0.0001)
}

func TestTrendDirection(t *testing.T) {
	assert.Equal(t, "stable", TrendDirection(nil))
	growing := []TrendSignal{
		{Trend: "strong growth"}, {Direction: "increase"}, {Impact: "growth in SMB"}, {Trend: "flat"},
	}
	assert.Equal(t, "growing", TrendDirection(growing))
	assert.Equal(t, "declining", TrendDirection([]TrendSignal{{Trend: "shrinking"}, {Trend: "flat"}}))
	assert.Equal(t, "stable", TrendDirection([]TrendSignal{{Trend: "growth"}, {Trend: "flat"}}))
}

func TestDirectionOf(t *testing.T) {
	assert.Equal(t, "stable", directionOf(nil))
	assert.Equal(t, "growing", directionOf([]string{"Rising adoption", "growing demand"}))
	assert.Equal(t, "declining", directionOf([]string{"fewer buyers", "churn", "budget cuts", "growth"}))
}

func TestResearchOpportunityScore(t *testing.T) {
	r := &ResearchReport{
		MarketSignals: []PainSignal{{Severity: "high"}, {Severity: "high"}, {Severity: "high"}, {Severity: "high"}},
		Competition:   CompetitionAnalysis{CompetitionLevel: "low"},
		Demand:        DemandValidation{DemandScore: 0.7},
		Trends:        TrendAnalysis{TrendDirection: "growing"},
	}
	assert.InDelta(t, 0.93, ResearchOpportunityScore(r), 0.011)

	empty := &ResearchReport{}
	assert.InDelta(t, 0.15, ResearchOpportunityScore(empty), 0.0001)
}

func TestIdentifyMarketSegments(t *testing.T) {
	points := []MarketSizePoint{{MarketSegment: "SMB"}, {MarketSegment: "SMB"}, {MarketSegment: "Mid-market"}}
	segs := IdentifyMarketSegments(points, []string{"enterprise", "billing"})
	require.Len(t, segs, 3)
	assert.Equal(t, "SMB", segs[0].Name)
	assert.Equal(t, "Enterprise Market", segs[2].Name)
}

func TestCalculateGrowthRate(t *testing.T) {
	assert.Equal(t, 5.0, CalculateGrowthRate(nil))
	points := []MarketSizePoint{
		{MarketSegment: "12% growth per year"},
		{Timeframe: "8 % growth through 2030"},
	}
	assert.InDelta(t, 10.0, CalculateGrowthRate(points), 0.0001)
}
