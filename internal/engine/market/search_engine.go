package market

import (
	"context"
	"sort"
	"time"

	"github.com/anatolykoptev/go_market/internal/engine"
)

// webSearch is swapped in tests.
var webSearch = engine.WebSearch

// SearchTask is one query in a parallel discovery batch.
type SearchTask struct {
	Query           string        `json:"query"`
	SearchType      string        `json:"search_type"` // tavily, tavily_quick, searxng
	MarketDimension string        `json:"market_dimension"`
	Priority        int           `json:"priority"`
	MaxResults      int           `json:"max_results"`
	Timeout         time.Duration `json:"timeout"`
}

// SearchOutcome is the result of one SearchTask.
type SearchOutcome struct {
	Task          SearchTask            `json:"task"`
	Results       []engine.SearchResult `json:"results"`
	Success       bool                  `json:"success"`
	ExecutionTime time.Duration         `json:"execution_time"`
	Error         string                `json:"error,omitempty"`
}

// SearchEngine fans SearchTasks out over engine.RunParallel.
type SearchEngine struct {
	opts engine.ParallelOpts
}

// NewSearchEngine returns an engine bounded to workers concurrent searches,
// starting at most one search per delay.
func NewSearchEngine(workers int, delay time.Duration) *SearchEngine {
	opts := engine.Cfg.Parallel
	opts.Workers = workers
	opts.RequestDelay = delay
	return &SearchEngine{opts: opts}
}

// newTask fills the task defaults.
func newTask(query, searchType, dimension string, priority, maxResults int) SearchTask {
	if priority == 0 {
		priority = 1
	}
	if maxResults == 0 {
		maxResults = 3
	}
	return SearchTask{
		Query:           query,
		SearchType:      searchType,
		MarketDimension: dimension,
		Priority:        priority,
		MaxResults:      maxResults,
		Timeout:         15 * time.Second,
	}
}

// Execute runs every task and returns one outcome per task, in task order.
func (e *SearchEngine) Execute(ctx context.Context, tasks []SearchTask) ([]SearchOutcome, engine.ExecutionStats) {
	ptasks := make([]engine.Task[[]engine.SearchResult], len(tasks))
	for i, t := range tasks {
		ptasks[i] = engine.Task[[]engine.SearchResult]{
			Name:     t.Query,
			Priority: t.Priority,
			Timeout:  t.Timeout,
			Run: func(ctx context.Context) ([]engine.SearchResult, error) {
				return webSearch(ctx, t.Query, searchKind(t.SearchType), t.MaxResults)
			},
		}
	}

	outcomes, stats := engine.RunParallel(ctx, ptasks, e.opts)
	out := make([]SearchOutcome, len(tasks))
	for i, o := range outcomes {
		out[i] = SearchOutcome{
			Task:          tasks[i],
			Results:       o.Value,
			Success:       o.Success,
			ExecutionTime: o.Elapsed,
		}
		if o.Err != nil {
			out[i].Error = o.Err.Error()
		}
	}
	return out, stats
}

func searchKind(searchType string) string {
	switch searchType {
	case "tavily":
		return engine.SearchTavily
	case "tavily_quick":
		return engine.SearchTavilyQuick
	}
	return engine.SearchSearXNGKind
}

// GroupByDimension buckets the results of successful outcomes by market dimension.
func GroupByDimension(outcomes []SearchOutcome) map[string][]engine.SearchResult {
	groups := make(map[string][]engine.SearchResult)
	for _, o := range outcomes {
		if !o.Success {
			continue
		}
		groups[o.Task.MarketDimension] = append(groups[o.Task.MarketDimension], o.Results...)
	}
	return groups
}

// CreateLiminalSearchTasks builds the ten-dimension liminal task set for the
// first two keywords, highest priority first.
func CreateLiminalSearchTasks(keywords []string) []SearchTask {
	var tasks []SearchTask
	for _, kw := range firstN(keywords, 2) {
		tasks = append(tasks,
			newTask(kw+" user problems complaints reddit", "tavily_quick", "primary_pain_points", 3, 4),
			newTask(kw+" market size industry analysis", "tavily", "primary_market_size", 2, 3),
			newTask("what do people use before "+kw, "tavily_quick", "upstream_markets", 3, 3),
			newTask("what happens after using "+kw, "tavily_quick", "downstream_markets", 3, 3),
			newTask("alternatives to "+kw+" that people combine", "tavily_quick", "complementary_markets", 2, 3),
			newTask("how "+kw+" works in different industries", "tavily", "cross_industry_patterns", 2, 3),
			newTask(kw+" integration challenges across sectors", "tavily_quick", "integration_failures", 2, 3),
			newTask("workflow breaks with "+kw+" manual steps", "tavily_quick", "workflow_gaps", 3, 3),
			newTask("switching between "+kw+" and other tools friction", "tavily_quick", "tool_switching_friction", 2, 3),
			newTask(kw+" expensive alternatives cheap underutilized", "tavily_quick", "arbitrage_opportunities", 2, 3),
		)
	}
	sortByPriority(tasks)
	return tasks
}

// sortByPriority orders tasks by descending priority, keeping insertion order for ties.
func sortByPriority(tasks []SearchTask) {
	sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].Priority > tasks[j].Priority })
}

func firstN(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
