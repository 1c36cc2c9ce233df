package market

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/anatolykoptev/go_market/internal/engine"
)

// GapSignal is one piece of evidence fed to the gap mapper.
type GapSignal struct {
	Content string `json:"content"`
	Source  string `json:"source,omitempty"`
	Type    string `json:"type,omitempty"`
}

// SignalThemes groups the recurring themes found across signals.
type SignalThemes struct {
	WorkflowGaps      StringList `json:"workflow_gaps"`
	TechnologyNeeds   StringList `json:"technology_needs"`
	IntegrationPoints StringList `json:"integration_points"`
	PainPointClusters StringList `json:"pain_point_clusters"`
	OpportunityAreas  StringList `json:"opportunity_areas"`
	MarketSegments    StringList `json:"market_segments"`
	UrgencyIndicators StringList `json:"urgency_indicators"`
}

// WorkflowIntersection is a point where tools or processes must hand off work.
type WorkflowIntersection struct {
	IntersectionType    string     `json:"intersection_type"`
	ToolsInvolved       StringList `json:"tools_involved"`
	FrictionPoints      StringList `json:"friction_points"`
	FrequencyIndicator  string     `json:"frequency_indicator"`
	AutomationPotential string     `json:"automation_potential"`
	BusinessImpact      string     `json:"business_impact"`
}

// TechnologyGap is a capability users ask for that no product provides.
type TechnologyGap struct {
	GapCategory          string     `json:"gap_category"`
	MissingCapability    FlexString `json:"missing_capability"`
	AffectedUsers        FlexString `json:"affected_users"`
	CurrentWorkarounds   FlexString `json:"current_workarounds"`
	MarketSizeIndicator  string     `json:"market_size_indicator"`
	TechnicalComplexity  string     `json:"technical_complexity"`
	CompetitiveLandscape string     `json:"competitive_landscape"`
}

// ConvergenceAnalysis lists where domains are coming together.
type ConvergenceAnalysis struct {
	ConvergenceTrends             StringList `json:"convergence_trends"`
	CrossPollinationOpportunities StringList `json:"cross_pollination_opportunities"`
	HybridSolutions               StringList `json:"hybrid_solutions"`
	TimingIndicators              StringList `json:"timing_indicators"`
	BarrierAnalysis               StringList `json:"barrier_analysis"`
	SuccessFactors                StringList `json:"success_factors"`
}

// LiminalSpace is an opportunity sitting between established categories.
type LiminalSpace struct {
	SpaceDescription         FlexString `json:"space_description"`
	AdjacentCategories       StringList `json:"adjacent_categories"`
	UnmetNeeds               StringList `json:"unmet_needs"`
	TargetUsers              StringList `json:"target_users"`
	OpportunitySize          string     `json:"opportunity_size"`
	MarketReadiness          string     `json:"market_readiness"`
	SolutionComplexity       string     `json:"solution_complexity"`
	DifferentiationPotential string     `json:"differentiation_potential"`
}

// GapMap is the connection map built from a set of signals.
type GapMap struct {
	MappedAt              time.Time              `json:"mapped_at"`
	SignalCount           int                    `json:"signal_count"`
	Themes                SignalThemes           `json:"themes"`
	WorkflowIntersections []WorkflowIntersection `json:"workflow_intersections"`
	TechnologyGaps        []TechnologyGap        `json:"technology_gaps"`
	Convergence           ConvergenceAnalysis    `json:"convergence_analysis"`
	LiminalSpaces         []LiminalSpace         `json:"liminal_spaces"`
	OpportunityScore      float64                `json:"opportunity_score"`
	Errors                map[string]string      `json:"errors,omitempty"`
}

var (
	workflowSignalWords = []string{"workflow", "process", "integration", "switch", "between"}
	techGapSignalWords  = []string{"missing", "doesn't exist", "no solution", "need", "lacking", "wish there was"}
)

const (
	themesPrompt = `Analyze these market signals and extract key themes, patterns and opportunities.

Signals: %s

Return a JSON object with:
- workflow_gaps: specific workflow problems mentioned
- technology_needs: missing technologies or capabilities
- integration_points: systems or tools that need to connect
- pain_point_clusters: related pain points grouped by theme
- opportunity_areas: potential business opportunities
- market_segments: specific user groups affected
- urgency_indicators: signals showing urgent need

Focus on patterns that indicate liminal market opportunities.`

	intersectionsPrompt = `Analyze these workflow-related signals to identify intersection points where multiple tools, systems or processes need to work together.

Workflow signals: %s

Return a JSON array of workflow intersections, each with:
- intersection_type: tool_integration, process_handoff, data_transfer or similar
- tools_involved: tools or systems mentioned
- friction_points: specific problems at the intersection
- frequency_indicator: high/medium/low
- automation_potential: high/medium/low
- business_impact: high/medium/low`

	techGapsPrompt = `Analyze these signals to identify technology gaps: missing capabilities, tools or solutions that users need.

Signals: %s

Return a JSON array of technology gaps, each with:
- gap_category: integration, automation, analytics, UI/UX or similar
- missing_capability: the capability that is missing
- affected_users: who is affected
- current_workarounds: how users cope today
- market_size_indicator: large/medium/small
- technical_complexity: high/medium/low
- competitive_landscape: none/few/many`

	signalConvergencePrompt = `Analyze these signals to identify convergence opportunities where different industries, technologies or domains are coming together.

Signals: %s

Look for cross-industry technology adoption, hybrid solutions, new use cases at industry intersections and technology transfer.

Return a JSON object with:
- convergence_trends
- cross_pollination_opportunities
- hybrid_solutions
- timing_indicators
- barrier_analysis
- success_factors`

	liminalSpacesPrompt = `Analyze this market connection data to identify liminal spaces: opportunities that exist between established market categories.

Connection data: %s

A liminal space sits between two or more established categories, has needs that traditional solutions miss, and has users underserved by current options.

Return a JSON array of liminal spaces, each with:
- space_description
- adjacent_categories
- unmet_needs
- target_users
- opportunity_size: large/medium/small
- market_readiness: high/medium/low
- solution_complexity: high/medium/low
- differentiation_potential: high/medium/low`
)

// signalDigest keeps the first limit signals, optionally only those matching
// one of words, with content cut to contentRunes.
func signalDigest(signals []GapSignal, limit, contentRunes int, words []string) []GapSignal {
	var out []GapSignal
	for _, s := range signals[:min(limit, len(signals))] {
		if len(words) > 0 && !engine.ContainsAny(s.Content, words...) {
			continue
		}
		out = append(out, GapSignal{
			Content: engine.TruncateRunes(s.Content, contentRunes, ""),
			Source:  orDefault(s.Source, "unknown"),
			Type:    s.Type,
		})
	}
	return out
}

// MapSignalConnections maps signals to themes, workflow intersections,
// technology gaps and convergence in one parallel stage, then asks for the
// liminal spaces the combined map implies. Workflow and technology analyses
// run only when some signal mentions them. A failed analysis leaves its
// section empty and is reported in Errors.
func MapSignalConnections(ctx context.Context, signals []GapSignal) (*GapMap, error) {
	if len(signals) == 0 {
		return nil, fmt.Errorf("gap map: no signals")
	}
	m := &GapMap{MappedAt: time.Now().UTC(), SignalCount: len(signals), Errors: map[string]string{}}

	var tasks []engine.Task[func()]
	add := func(name string, run func(ctx context.Context) (func(), error)) {
		tasks = append(tasks, engine.Task[func()]{Name: name, Run: run})
	}
	add("themes", func(ctx context.Context) (func(), error) {
		p := fmt.Sprintf(themesPrompt, jsonSnippet(signalDigest(signals, 20, 500, nil), 8000))
		t, err := engine.CallLLMJSON[SignalThemes](ctx, p, engine.CallOpts{Temperature: 0.3})
		if err != nil {
			return nil, err
		}
		return func() { m.Themes = *t }, nil
	})
	if wf := signalDigest(signals, 15, 300, workflowSignalWords); len(wf) > 0 {
		add("workflow_intersections", func(ctx context.Context) (func(), error) {
			p := fmt.Sprintf(intersectionsPrompt, jsonSnippet(wf, 5000))
			list, err := callList[WorkflowIntersection](ctx, p, engine.CallOpts{Temperature: 0.3})
			if err != nil {
				return nil, err
			}
			return func() { m.WorkflowIntersections = list }, nil
		})
	}
	if tg := signalDigest(signals, 15, 300, techGapSignalWords); len(tg) > 0 {
		add("technology_gaps", func(ctx context.Context) (func(), error) {
			p := fmt.Sprintf(techGapsPrompt, jsonSnippet(tg, 5000))
			list, err := callList[TechnologyGap](ctx, p, engine.CallOpts{Temperature: 0.3})
			if err != nil {
				return nil, err
			}
			return func() { m.TechnologyGaps = list }, nil
		})
	}
	add("convergence", func(ctx context.Context) (func(), error) {
		p := fmt.Sprintf(signalConvergencePrompt, jsonSnippet(signalDigest(signals, 20, 400, nil), 8000))
		c, err := engine.CallLLMJSON[ConvergenceAnalysis](ctx, p, engine.CallOpts{Temperature: 0.3})
		if err != nil {
			return nil, err
		}
		return func() { m.Convergence = *c }, nil
	})

	opts := engine.Cfg.Parallel
	opts.Workers = len(tasks)
	opts.RequestDelay = 0
	opts.TaskTimeout = 60 * time.Second
	opts.CollectTimeout = 90 * time.Second
	outcomes, _ := engine.RunParallel(ctx, tasks, opts)
	for _, o := range outcomes {
		if o.Err != nil {
			m.fail(o.Name, o.Err)
			continue
		}
		o.Value()
	}

	mapped := jsonSnippet(m, 6000)
	spaceTasks := []engine.Task[[]LiminalSpace]{{
		Name: "liminal_spaces",
		Run: func(ctx context.Context) ([]LiminalSpace, error) {
			return callList[LiminalSpace](ctx, fmt.Sprintf(liminalSpacesPrompt, mapped), engine.CallOpts{Temperature: 0.4})
		},
	}}
	spaces, _ := engine.RunParallel(ctx, spaceTasks, opts)
	if spaces[0].Err != nil {
		m.fail("liminal_spaces", spaces[0].Err)
	} else {
		m.LiminalSpaces = spaces[0].Value
	}

	m.OpportunityScore = EnhancedOpportunityScore(m)
	if len(m.Errors) == 0 {
		m.Errors = nil
	}
	return m, nil
}

func (m *GapMap) fail(stage string, err error) {
	slog.Warn("gap map: analysis failed", slog.String("stage", stage), slog.Any("error", err))
	m.Errors[stage] = err.Error()
}

// EnhancedOpportunityScore scores a gap map from 0 to 1. Opportunity areas
// and urgency indicators add up to 0.2 each. High-impact intersections,
// large-market technology gaps and high-readiness liminal spaces add 0.1
// apiece, capped at 0.2 per section.
func EnhancedOpportunityScore(m *GapMap) float64 {
	if m == nil {
		return 0
	}
	score := math.Min(float64(len(m.Themes.OpportunityAreas))*0.05, 0.2)
	score += math.Min(float64(len(m.Themes.UrgencyIndicators))*0.04, 0.2)

	var impact, large, ready int
	for _, i := range m.WorkflowIntersections {
		if strings.EqualFold(i.BusinessImpact, "high") {
			impact++
		}
	}
	for _, g := range m.TechnologyGaps {
		if strings.EqualFold(g.MarketSizeIndicator, "large") {
			large++
		}
	}
	for _, s := range m.LiminalSpaces {
		if strings.EqualFold(s.MarketReadiness, "high") {
			ready++
		}
	}
	score += math.Min(float64(impact)*0.1, 0.2)
	score += math.Min(float64(large)*0.1, 0.2)
	score += math.Min(float64(ready)*0.1, 0.2)
	return round2(math.Min(score, 1.0))
}
