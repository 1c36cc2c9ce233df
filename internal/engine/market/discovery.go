package market

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/anatolykoptev/go_market/internal/engine"
)

// Discovery kinds run by ExecuteLiminalDiscovery.
const (
	KindPrimary       = "primary_market"
	KindAdjacent      = "adjacent_markets"
	KindCrossIndustry = "cross_industry"
	KindWorkflowGaps  = "workflow_gaps"
)

// AllKinds lists every discovery kind in report order.
var AllKinds = []string{KindPrimary, KindAdjacent, KindCrossIndustry, KindWorkflowGaps}

var crossIndustries = []string{"healthcare", "finance", "retail"}

// PrimaryMarket is the liminal task set grouped by market dimension.
type PrimaryMarket struct {
	Keywords       []string                         `json:"keywords"`
	Dimensions     map[string][]engine.SearchResult `json:"market_dimensions"`
	Stats          engine.ExecutionStats            `json:"execution_stats"`
	LiminalSignals []LiminalSignal                  `json:"liminal_signals,omitempty"`
	Signals        []SearchSignal                   `json:"processed_signals,omitempty"`
}

// AdjacentMarkets holds what users do before, after, next to and instead of a product.
type AdjacentMarkets struct {
	Upstream      []engine.SearchResult `json:"upstream_markets"`
	Downstream    []engine.SearchResult `json:"downstream_markets"`
	Complementary []engine.SearchResult `json:"complementary_markets"`
	Substitutes   []engine.SearchResult `json:"substitute_markets"`
	Stats         engine.ExecutionStats `json:"execution_stats"`
}

// CrossIndustry holds how each keyword plays out per industry.
type CrossIndustry struct {
	IndustryPatterns map[string][]engine.SearchResult `json:"industry_patterns"`
	Stats            engine.ExecutionStats            `json:"execution_stats"`
}

// WorkflowGaps holds friction found around a product's workflow.
type WorkflowGaps struct {
	IntegrationGaps       []engine.SearchResult `json:"integration_gaps"`
	ManualFrictionPoints  []engine.SearchResult `json:"manual_friction_points"`
	ToolSwitchingCosts    []engine.SearchResult `json:"tool_switching_costs"`
	WorkflowBreakPatterns []engine.SearchResult `json:"workflow_break_patterns"`
	Stats                 engine.ExecutionStats `json:"execution_stats"`
}

// DiscoveryReport merges every discovery kind with the synthesis built on top.
type DiscoveryReport struct {
	RunID         uuid.UUID                 `json:"run_id"`
	Keywords      []string                  `json:"keywords"`
	TargetMarket  string                    `json:"target_market,omitempty"`
	PrimaryMarket *PrimaryMarket            `json:"primary_market,omitempty"`
	Adjacent      *AdjacentMarkets          `json:"adjacent_markets,omitempty"`
	CrossIndustry *CrossIndustry            `json:"cross_industry,omitempty"`
	WorkflowGaps  *WorkflowGaps             `json:"workflow_gaps,omitempty"`
	QuickSignals  map[string][]SearchSignal `json:"quick_signals,omitempty"`
	Errors        map[string]string         `json:"errors,omitempty"`
	Stats         engine.ExecutionStats     `json:"execution_stats"`
	Synthesis     *Synthesis                `json:"synthesis,omitempty"`
	ExecutionTime time.Duration             `json:"execution_time"`
	CreatedAt     time.Time                 `json:"created_at"`
}

// DiscoveryOpts tunes ExecuteLiminalDiscovery.
type DiscoveryOpts struct {
	// Quick replaces the full task sets with GenerateSearchQueries plus
	// ParallelSearchExecution per kind.
	Quick bool
	// SkipSynthesis returns the raw discovery without the LLM synthesis step.
	SkipSynthesis bool
}

// DiscoverAdjacentMarkets searches upstream, downstream, complementary and
// substitute markets for the first two keywords.
func DiscoverAdjacentMarkets(ctx context.Context, keywords []string) (*AdjacentMarkets, error) {
	if len(keywords) == 0 {
		return nil, fmt.Errorf("adjacent markets: no keywords")
	}
	var tasks []SearchTask
	for _, kw := range firstN(keywords, 2) {
		tasks = append(tasks,
			newTask("what do people use before "+kw, "tavily_quick", "upstream", 3, 3),
			newTask("what happens after "+kw, "tavily_quick", "downstream", 3, 3),
			newTask("alternatives to "+kw+" people combine", "tavily_quick", "complementary", 2, 3),
			newTask("workarounds for "+kw+" limitations", "tavily_quick", "substitutes", 2, 3),
		)
	}
	sortByPriority(tasks)

	outcomes, stats := NewSearchEngine(4, 400*time.Millisecond).Execute(ctx, tasks)
	groups := GroupByDimension(outcomes)
	return &AdjacentMarkets{
		Upstream:      groups["upstream"],
		Downstream:    groups["downstream"],
		Complementary: groups["complementary"],
		Substitutes:   groups["substitutes"],
		Stats:         stats,
	}, nil
}

// DiscoverCrossIndustry searches how the first two keywords work in other industries.
func DiscoverCrossIndustry(ctx context.Context, keywords []string) (*CrossIndustry, error) {
	if len(keywords) == 0 {
		return nil, fmt.Errorf("cross industry: no keywords")
	}
	var tasks []SearchTask
	for _, kw := range firstN(keywords, 2) {
		for _, industry := range crossIndustries {
			tasks = append(tasks, newTask(
				fmt.Sprintf("how %s works in %s industry", kw, industry),
				"tavily_quick", industry+"_patterns", 2, 3))
		}
	}

	outcomes, stats := NewSearchEngine(6, 300*time.Millisecond).Execute(ctx, tasks)
	patterns := make(map[string][]engine.SearchResult)
	for dim, results := range GroupByDimension(outcomes) {
		industry := strings.TrimSuffix(dim, "_patterns")
		patterns[industry] = append(patterns[industry], results...)
	}
	return &CrossIndustry{IndustryPatterns: patterns, Stats: stats}, nil
}

// DiscoverWorkflowGaps searches integration, manual-step, tool-switching and
// workflow-break friction for the first two keywords.
func DiscoverWorkflowGaps(ctx context.Context, keywords []string) (*WorkflowGaps, error) {
	if len(keywords) == 0 {
		return nil, fmt.Errorf("workflow gaps: no keywords")
	}
	var tasks []SearchTask
	for _, kw := range firstN(keywords, 2) {
		tasks = append(tasks,
			newTask(kw+" integration challenges problems", "tavily_quick", "integration_gaps", 3, 3),
			newTask("manual steps required with "+kw, "tavily_quick", "manual_friction", 3, 3),
			newTask("switching between "+kw+" and other tools", "tavily_quick", "tool_switching", 2, 3),
			newTask(kw+" workflow breaks interruptions", "tavily_quick", "workflow_breaks", 2, 3),
		)
	}
	sortByPriority(tasks)

	outcomes, stats := NewSearchEngine(4, 400*time.Millisecond).Execute(ctx, tasks)
	gaps := &WorkflowGaps{Stats: stats}
	for dim, results := range GroupByDimension(outcomes) {
		switch {
		case strings.Contains(dim, "integration"):
			gaps.IntegrationGaps = append(gaps.IntegrationGaps, results...)
		case strings.Contains(dim, "manual"):
			gaps.ManualFrictionPoints = append(gaps.ManualFrictionPoints, results...)
		case strings.Contains(dim, "switching"):
			gaps.ToolSwitchingCosts = append(gaps.ToolSwitchingCosts, results...)
		case strings.Contains(dim, "workflow"):
			gaps.WorkflowBreakPatterns = append(gaps.WorkflowBreakPatterns, results...)
		}
	}
	return gaps, nil
}

// ParallelLiminalDiscovery runs the liminal task set and asks the LLM for
// liminal signals in the grouped results. A failed LLM step is logged and
// leaves LiminalSignals empty.
func ParallelLiminalDiscovery(ctx context.Context, keywords []string) (*PrimaryMarket, error) {
	if len(keywords) == 0 {
		return nil, fmt.Errorf("liminal discovery: no keywords")
	}
	tasks := CreateLiminalSearchTasks(keywords)
	outcomes, stats := NewSearchEngine(6, 300*time.Millisecond).Execute(ctx, tasks)

	pm := &PrimaryMarket{
		Keywords:   keywords,
		Dimensions: GroupByDimension(outcomes),
		Stats:      stats,
		Signals:    ProcessSearchResultsForSignals(KindPrimary, outcomes),
	}
	if len(pm.Dimensions) == 0 {
		return pm, nil
	}
	signals, err := ExtractLiminalSignals(ctx, keywords, pm.Dimensions)
	if err != nil {
		slog.Warn("liminal discovery: signal extraction failed", slog.Any("error", err))
		return pm, nil
	}
	pm.LiminalSignals = signals
	return pm, nil
}

// GenerateSearchQueries builds three queries per keyword (first two) for each kind.
func GenerateSearchQueries(keywords []string, kinds []string) map[string][]string {
	templates := map[string][]string{
		KindPrimary: {
			"%s user problems complaints reddit",
			"%s market size statistics",
			"%s customer pain points reviews",
		},
		KindAdjacent: {
			"what do people use before %s",
			"what happens after using %s",
			"alternatives to %s people combine",
		},
		KindCrossIndustry: {
			"how %s works in different industries",
			"%s healthcare vs finance vs retail",
			"%s cost differences across sectors",
		},
		KindWorkflowGaps: {
			"%s integration problems challenges",
			"manual steps required with %s",
			"switching between %s and other tools",
		},
	}
	out := make(map[string][]string, len(kinds))
	for _, kind := range kinds {
		tmpl, ok := templates[kind]
		if !ok {
			continue
		}
		var queries []string
		for _, kw := range firstN(keywords, 2) {
			for _, t := range tmpl {
				queries = append(queries, fmt.Sprintf(t, kw))
			}
		}
		out[kind] = queries
	}
	return out
}

// ParallelSearchExecution runs at most six quick searches, three at a time.
func ParallelSearchExecution(ctx context.Context, kind string, queries []string) []SearchOutcome {
	if len(queries) > 6 {
		queries = queries[:6]
	}
	tasks := make([]SearchTask, len(queries))
	for i, q := range queries {
		tasks[i] = newTask(q, "tavily_quick", kind, 1, 2)
		tasks[i].Timeout = 10 * time.Second
	}
	outcomes, _ := NewSearchEngine(3, 0).Execute(ctx, tasks)
	return outcomes
}

// ExecuteLiminalDiscovery runs the four discovery kinds concurrently, records
// per-kind failures and synthesises opportunities from whatever succeeded.
func ExecuteLiminalDiscovery(ctx context.Context, keywords []string, targetMarket string, opts DiscoveryOpts) (*DiscoveryReport, error) {
	if len(keywords) == 0 {
		return nil, fmt.Errorf("liminal discovery: no keywords")
	}
	start := time.Now()
	report := &DiscoveryReport{
		RunID:        uuid.New(),
		Keywords:     keywords,
		TargetMarket: targetMarket,
		Errors:       map[string]string{},
		CreatedAt:    start.UTC(),
	}

	var tasks []engine.Task[any]
	if opts.Quick {
		tasks = quickKindTasks(keywords)
	} else {
		tasks = []engine.Task[any]{
			{Name: KindPrimary, Run: func(ctx context.Context) (any, error) { return ParallelLiminalDiscovery(ctx, keywords) }},
			{Name: KindAdjacent, Run: func(ctx context.Context) (any, error) { return DiscoverAdjacentMarkets(ctx, keywords) }},
			{Name: KindCrossIndustry, Run: func(ctx context.Context) (any, error) { return DiscoverCrossIndustry(ctx, keywords) }},
			{Name: KindWorkflowGaps, Run: func(ctx context.Context) (any, error) { return DiscoverWorkflowGaps(ctx, keywords) }},
		}
	}

	popts := engine.Cfg.Parallel
	popts.Workers = 4
	popts.RequestDelay = 0
	popts.TaskTimeout = 30 * time.Second
	popts.CollectTimeout = 45 * time.Second
	outcomes, stats := engine.RunParallel(ctx, tasks, popts)
	report.Stats = stats

	for _, o := range outcomes {
		if !o.Success {
			report.Errors[o.Name] = o.Err.Error()
			slog.Warn("liminal discovery: kind failed", slog.String("kind", o.Name), slog.Any("error", o.Err))
			continue
		}
		switch v := o.Value.(type) {
		case *PrimaryMarket:
			report.PrimaryMarket = v
		case *AdjacentMarkets:
			report.Adjacent = v
		case *CrossIndustry:
			report.CrossIndustry = v
		case *WorkflowGaps:
			report.WorkflowGaps = v
		case []SearchSignal:
			if report.QuickSignals == nil {
				report.QuickSignals = map[string][]SearchSignal{}
			}
			report.QuickSignals[o.Name] = v
		}
	}

	if !opts.SkipSynthesis && stats.Succeeded > 0 {
		report.Synthesis = SynthesizeLiminalConnections(ctx, report.synthesisInput(), keywords, targetMarket)
	}
	report.ExecutionTime = time.Since(start)

	slog.Info("liminal discovery: done",
		slog.String("run_id", report.RunID.String()),
		slog.Int("kinds_ok", stats.Succeeded),
		slog.Int("kinds_failed", stats.Failed),
		slog.Duration("elapsed", report.ExecutionTime))
	return report, nil
}

func quickKindTasks(keywords []string) []engine.Task[any] {
	queries := GenerateSearchQueries(keywords, AllKinds)
	tasks := make([]engine.Task[any], 0, len(AllKinds))
	for _, kind := range AllKinds {
		qs := queries[kind]
		tasks = append(tasks, engine.Task[any]{Name: kind, Run: func(ctx context.Context) (any, error) {
			outcomes := ParallelSearchExecution(ctx, kind, qs)
			return ProcessSearchResultsForSignals(kind, outcomes), nil
		}})
	}
	return tasks
}

func (r *DiscoveryReport) synthesisInput() SynthesisInput {
	in := SynthesisInput{}
	if r.PrimaryMarket != nil {
		in.Primary = r.PrimaryMarket
	}
	if r.Adjacent != nil {
		in.Adjacent = r.Adjacent
	}
	if r.CrossIndustry != nil {
		in.CrossIndustry = r.CrossIndustry
	}
	if r.WorkflowGaps != nil {
		in.WorkflowGaps = r.WorkflowGaps
	}
	if len(r.QuickSignals) > 0 {
		in.Primary = r.QuickSignals[KindPrimary]
		in.Adjacent = r.QuickSignals[KindAdjacent]
		in.CrossIndustry = r.QuickSignals[KindCrossIndustry]
		in.WorkflowGaps = r.QuickSignals[KindWorkflowGaps]
	}
	return in
}
