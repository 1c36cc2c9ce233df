package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	SearchRequests    atomic.Int64
	TavilyRequests    atomic.Int64
	TavilyErrors      atomic.Int64
	LLMCalls          atomic.Int64
	LLMErrors         atomic.Int64
	FetchRequests     atomic.Int64
	FetchErrors       atomic.Int64
	DirectDDGRequests atomic.Int64
	ParallelTasks     atomic.Int64
	ParallelFailures  atomic.Int64
	ParallelTimeouts  atomic.Int64
	TwitterRequests   atomic.Int64
	PexelsRequests    atomic.Int64
	RendererDeploys   atomic.Int64
	DomainLookups     atomic.Int64
}

var metricKeys = []string{
	"search_requests", "tavily_requests", "tavily_errors",
	"llm_calls", "llm_errors",
	"fetch_requests", "fetch_errors",
	"direct_ddg_requests",
	"parallel_tasks", "parallel_failures", "parallel_timeouts",
	"twitter_requests", "pexels_requests", "renderer_deploys", "domain_lookups",
	"cache_hits", "cache_misses",
}

// GetMetrics returns a snapshot of all metrics including cache stats.
func GetMetrics() map[string]int64 {
	hits, misses := CacheStats()
	return map[string]int64{
		"search_requests":     metrics.SearchRequests.Load(),
		"tavily_requests":     metrics.TavilyRequests.Load(),
		"tavily_errors":       metrics.TavilyErrors.Load(),
		"llm_calls":           metrics.LLMCalls.Load(),
		"llm_errors":          metrics.LLMErrors.Load(),
		"fetch_requests":      metrics.FetchRequests.Load(),
		"fetch_errors":        metrics.FetchErrors.Load(),
		"direct_ddg_requests": metrics.DirectDDGRequests.Load(),
		"parallel_tasks":      metrics.ParallelTasks.Load(),
		"parallel_failures":   metrics.ParallelFailures.Load(),
		"parallel_timeouts":   metrics.ParallelTimeouts.Load(),
		"twitter_requests":    metrics.TwitterRequests.Load(),
		"pexels_requests":     metrics.PexelsRequests.Load(),
		"renderer_deploys":    metrics.RendererDeploys.Load(),
		"domain_lookups":      metrics.DomainLookups.Load(),
		"cache_hits":          hits,
		"cache_misses":        misses,
	}
}

// FormatMetrics returns metrics as a simple text format for HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	for _, k := range metricKeys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// Incrementors for the market sub-package.
func IncrTwitterRequests() { metrics.TwitterRequests.Add(1) }
func IncrPexelsRequests()  { metrics.PexelsRequests.Add(1) }
func IncrRendererDeploys() { metrics.RendererDeploys.Add(1) }
func IncrDomainLookups()   { metrics.DomainLookups.Add(1) }

// TrackOperation logs a warning if an operation takes longer than threshold.
func TrackOperation(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	if elapsed > 5*time.Second {
		slog.Warn("slow operation", slog.String("op", name), slog.Duration("elapsed", elapsed))
	}
	return err
}
