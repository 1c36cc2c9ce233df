package market

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_market/internal/engine"
)

func TestSearchEngine_ExecuteIsolatesFailures(t *testing.T) {
	withSearch(t, func(ctx context.Context, query, kind string, n int) ([]engine.SearchResult, error) {
		if strings.Contains(query, "bad") {
			return nil, errors.New("upstream 500")
		}
		return echoSearch(ctx, query, kind, n)
	})

	tasks := []SearchTask{
		newTask("good one", "tavily", "dim_a", 1, 2),
		newTask("bad one", "tavily_quick", "dim_a", 3, 2),
		newTask("good two", "searxng", "dim_b", 2, 2),
	}
	out, stats := NewSearchEngine(4, 0).Execute(context.Background(), tasks)

	require.Len(t, out, 3)
	assert.Equal(t, "good one", out[0].Task.Query)
	assert.True(t, out[0].Success)
	assert.False(t, out[1].Success)
	assert.Contains(t, out[1].Error, "upstream 500")
	assert.True(t, out[2].Success)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.Succeeded)
	assert.Equal(t, 1, stats.Failed)
}

func TestSearchKind(t *testing.T) {
	assert.Equal(t, engine.SearchTavily, searchKind("tavily"))
	assert.Equal(t, engine.SearchTavilyQuick, searchKind("tavily_quick"))
	assert.Equal(t, engine.SearchSearXNGKind, searchKind("searxng"))
	assert.Equal(t, engine.SearchSearXNGKind, searchKind(""))
}

func TestGroupByDimension_SkipsFailures(t *testing.T) {
	hit := engine.SearchResult{Title: "t", Content: "c"}
	outcomes := []SearchOutcome{
		{Task: SearchTask{MarketDimension: "a"}, Results: []engine.SearchResult{hit, hit}, Success: true},
		{Task: SearchTask{MarketDimension: "a"}, Results: []engine.SearchResult{hit}, Success: true},
		{Task: SearchTask{MarketDimension: "b"}, Results: []engine.SearchResult{hit}, Success: false},
	}
	groups := GroupByDimension(outcomes)
	assert.Len(t, groups["a"], 3)
	assert.NotContains(t, groups, "b")
}

func TestCreateLiminalSearchTasks(t *testing.T) {
	tasks := CreateLiminalSearchTasks([]string{"invoicing", "payroll", "ignored"})
	require.Len(t, tasks, 20)

	for i := 1; i < len(tasks); i++ {
		assert.GreaterOrEqual(t, tasks[i-1].Priority, tasks[i].Priority, "tasks must be sorted by priority")
	}
	for _, task := range tasks {
		assert.NotContains(t, task.Query, "ignored")
		assert.Positive(t, task.MaxResults)
	}
	assert.Equal(t, "invoicing user problems complaints reddit", tasks[0].Query)
	assert.Equal(t, "primary_pain_points", tasks[0].MarketDimension)
}

func TestNewTaskDefaults(t *testing.T) {
	task := newTask("q", "searxng", "dim", 0, 0)
	assert.Equal(t, 1, task.Priority)
	assert.Equal(t, 3, task.MaxResults)
	assert.Positive(t, task.Timeout)
}
