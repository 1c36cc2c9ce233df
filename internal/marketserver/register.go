package marketserver

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/anatolykoptev/go_market/internal/engine"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ToolCount is the number of tools RegisterTools adds.
const ToolCount = 31

// RegisterTools registers all market discovery tools on the given MCP server.
func RegisterTools(server *mcp.Server) {
	registerMarketSearch(server)

	registerLiminalDiscovery(server)
	registerParallelMarketSearch(server)
	registerAdjacentMarkets(server)
	registerCrossIndustry(server)
	registerWorkflowGaps(server)
	registerSynthesizeOpportunities(server)
	registerGapMap(server)
	registerMarketSignals(server)
	registerCompetitiveGaps(server)
	registerConvergenceOpportunities(server)

	registerValidateConnection(server)
	registerRankOpportunities(server)
	registerScoreOpportunities(server)

	registerMarketResearch(server)
	registerCompetitiveLandscape(server)
	registerMarketSize(server)
	registerTrendAnalysis(server)
	registerSocialSignals(server)
	registerSignalPatterns(server)
	registerGrowthPatterns(server)

	registerDomainCheck(server)
	registerBrandIdentity(server)
	registerLandingPage(server)
	registerSiteStatus(server)
	registerPitchDeck(server)
	registerMediaSearch(server)

	registerOpportunityTrackerAdd(server)
	registerOpportunityTrackerList(server)
	registerOpportunityTrackerUpdate(server)
	registerTopOpportunities(server)
}

func registerMarketSearch(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "market_search",
		Description: "Research a market question on the web (Tavily, SearXNG, DuckDuckGo) and return an LLM summary with cited sources. Focuses on market size, competitors, pricing and customer pain points. Use mode=raw to skip summarisation.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input engine.MarketSearchInput) (*mcp.CallToolResult, engine.SmartSearchOutput, error) {
		query := strings.TrimSpace(input.Query)
		if query == "" {
			return nil, engine.SmartSearchOutput{}, fmt.Errorf("query is required")
		}

		cacheKey := engine.CacheKey("market_search", query, input.Language, input.TimeRange, input.Depth, input.Mode)
		if cached, ok := engine.CacheGet(ctx, cacheKey); ok {
			return nil, cached, nil
		}

		opts := engine.PipelineOpts{
			Queries:     marketQueries(query, input.Depth),
			Instruction: engine.MarketAnalystInstruction,
			Mode:        input.Mode,
			Depth:       input.Depth,
		}
		if input.TimeRange != "" {
			extra, err := engine.SearchSearXNG(ctx, query, engine.NormLang(input.Language), input.TimeRange, "")
			if err != nil {
				slog.Warn("market_search: searxng time-range search failed", slog.Any("error", err))
			}
			opts.ExtraResults = extra
		}

		out, err := engine.RunSearchPipeline(ctx, query, opts)
		if err != nil {
			return nil, engine.SmartSearchOutput{}, fmt.Errorf("market search failed: %w", err)
		}
		if input.Mode != "raw" && input.Depth != "deep" {
			out = engine.FormatOutput(out, engine.DefaultOutputOpts)
		}
		engine.CacheSet(ctx, cacheKey, out)
		return nil, out, nil
	})
}

// marketQueries expands one question into the angles a market analyst would search.
func marketQueries(query, depth string) []engine.SearchQuery {
	kind := engine.SearchTavily
	if depth == "fast" {
		kind = engine.SearchTavilyQuick
	}
	queries := []engine.SearchQuery{
		{Query: query, Kind: kind},
		{Query: query + " market size", Kind: engine.SearchSearXNGKind},
		{Query: query + " competitors pricing", Kind: engine.SearchSearXNGKind},
	}
	if depth == "deep" {
		queries = append(queries,
			engine.SearchQuery{Query: query + " customer complaints reddit", Kind: engine.SearchSearXNGKind},
			engine.SearchQuery{Query: query + " industry growth trends", Kind: kind},
		)
	}
	return queries
}

// toolKey builds the cache key for a keyword-driven tool call.
func toolKey(tool string, keywords []string, extra ...string) string {
	parts := make([]string, 0, 2+len(keywords)+len(extra))
	parts = append(parts, tool, strconv.Itoa(len(keywords)))
	parts = append(parts, keywords...)
	return engine.CacheKey(append(parts, extra...)...)
}
