package market

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentifyPatterns(t *testing.T) {
	texts := []string{
		"This is broken and slow, the export import is manual and repetitive. Terrible problem.",
		"Sync is broken and slow again, awful bug, a real problem.",
		"We need automation for invoices",
		"I wish there was automatic sync",
		"I hate the confusing onboarding, terrible and frustrated",
		"   ",
	}
	pa := IdentifyPatterns(texts, "reddit", "invoicing")

	assert.Equal(t, "invoicing", pa.Context)
	assert.Equal(t, 5, pa.SignalCount)
	assert.Equal(t, map[string]int{"pain_points": 2, "feature_requests": 2, "complaints": 1, "suggestions": 0}, pa.Categories)

	require.Len(t, pa.Patterns[workflowPatterns], 1)
	assert.Subset(t, pa.Patterns[workflowPatterns][0].Indicators, []string{"manual", "export import", "repetitive"})
	assert.Len(t, pa.Patterns[integrationPatterns], 3)

	require.Len(t, pa.Patterns[journeyPatterns], 1)
	assert.Equal(t, "onboarding", pa.Patterns[journeyPatterns][0].Stage)

	pain := pa.Patterns[painPatterns]
	require.Len(t, pain, 2)
	assert.Equal(t, "performance_pain_pattern", pain[0].Type)
	assert.Equal(t, "reliability_pain_pattern", pain[1].Type)
	assert.Equal(t, 2, pain[1].Frequency)
	assert.Equal(t, []string{"reddit"}, pain[1].Sources)

	solution := pa.Patterns[solutionPatterns]
	require.Len(t, solution, 1)
	assert.Equal(t, "automation_solution_pattern", solution[0].Type)
	assert.Equal(t, "moderate", solution[0].Strength)

	require.Len(t, pa.Connections, 2)
	assert.Equal(t, "workflow_integration_nexus", pa.Connections[0].Type)
	assert.Equal(t, "pain_solution_alignment", pa.Connections[1].Type)

	var kinds []string
	for _, s := range pa.Signals {
		kinds = append(kinds, s.Type)
	}
	assert.Equal(t, []string{"integration_platform", "solution_gap"}, kinds)
	assert.Empty(t, pa.Trends)

	// (5/30 + 8/10 + 2/3) / 3
	assert.InDelta(t, 0.54, pa.Confidence, 0.001)
}

func TestIdentifyPatterns_Empty(t *testing.T) {
	pa := IdentifyPatterns(nil, "", "crm")
	assert.Zero(t, pa.SignalCount)
	assert.Empty(t, pa.Connections)
	assert.Empty(t, pa.Signals)
	assert.Zero(t, pa.Confidence)
}

func TestAnalyzeSignalPatterns_Trends(t *testing.T) {
	var signals []SocialSignal
	for range 40 {
		signals = append(signals, SocialSignal{Category: "complaint", Sentiment: "negative"})
	}
	for range 10 {
		signals = append(signals, SocialSignal{Sentiment: "positive"})
	}
	pa := AnalyzeSignalPatterns(signals, "crm")
	require.Len(t, pa.Trends, 2)
	assert.Equal(t, "volume_increase", pa.Trends[0].Type)
	assert.Equal(t, "strong", pa.Trends[0].Strength)
	assert.Equal(t, "dissatisfaction_trend", pa.Trends[1].Type)
	assert.Contains(t, pa.Trends[1].Indicator, "80%")
}

func TestProcessSocialSignals(t *testing.T) {
	ps := ProcessSocialSignals([]SocialSignal{
		{Category: "pain_point", Sentiment: "negative"},
		{Category: "general_feedback", Sentiment: "neutral"},
		{Category: "suggestion", Sentiment: "neutral"},
		{Category: "feature_request", Sentiment: "positive"},
	})
	assert.Equal(t, 4, ps.Total)
	assert.Len(t, ps.PainPoints, 1)
	assert.Len(t, ps.Suggestions, 1)
	assert.Len(t, ps.FeatureRequests, 1)
	assert.Empty(t, ps.Complaints)
	assert.InDelta(t, 0.5, ps.Sentiment["neutral"], 0.001)
}

func TestIdentifyGrowthPatterns(t *testing.T) {
	llm := &scriptedLLM{fallback: `{
		"growth_patterns": ["usage doubling yearly", "SMB adoption"],
		"opportunity_windows": ["before the 2027 e-invoicing mandate"],
		"saturation_indicators": "crowded enterprise tier"
	}`}
	withLLM(t, llm)

	gp, err := IdentifyGrowthPatterns(context.Background(), map[string]any{"market": "invoicing", "growth_rate": 0.12})
	require.NoError(t, err)
	assert.Len(t, gp.GrowthPatterns, 2)
	assert.Equal(t, StringList{"crowded enterprise tier"}, gp.SaturationIndicators)
	// 0.3 growth + 0.1 window - 0.05 saturation
	assert.InDelta(t, 0.35, gp.PatternConfidence, 0.001)
	assert.Contains(t, llm.prompts[0], "growth_rate")

	_, err = IdentifyGrowthPatterns(context.Background(), nil)
	assert.Error(t, err)

	withLLM(t, &scriptedLLM{err: errors.New("quota exceeded")})
	_, err = IdentifyGrowthPatterns(context.Background(), map[string]any{"market": "crm"})
	assert.Error(t, err)
}
