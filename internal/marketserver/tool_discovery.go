package marketserver

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/anatolykoptev/go_market/internal/engine/market"
	"github.com/anatolykoptev/go_market/internal/toolutil"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// DiscoveryInput is the input for liminal_discovery.
type DiscoveryInput struct {
	Keywords      []string `json:"keywords" jsonschema:"Seed keywords describing the market (up to 5)"`
	TargetMarket  string   `json:"target_market,omitempty" jsonschema:"Optional audience or market to focus on"`
	Quick         bool     `json:"quick,omitempty" jsonschema:"Run the short query set per kind instead of the full multi-dimension search"`
	SkipSynthesis bool     `json:"skip_synthesis,omitempty" jsonschema:"Return raw discovery data without LLM opportunity synthesis"`
}

// KeywordsInput is shared by the single-kind discovery tools.
type KeywordsInput struct {
	Keywords []string `json:"keywords" jsonschema:"Seed keywords describing the market (up to 5)"`
}

// ParallelSearchInput is the input for parallel_market_search.
type ParallelSearchInput struct {
	Keywords []string `json:"keywords" jsonschema:"Seed keywords (the first two are expanded into queries)"`
	Kinds    []string `json:"kinds,omitempty" jsonschema:"Discovery kinds: primary_market, adjacent_markets, cross_industry, workflow_gaps. Default: all"`
}

// ParallelSearchOutput groups quick-search signals by discovery kind.
type ParallelSearchOutput struct {
	Queries      map[string][]string              `json:"queries"`
	Signals      map[string][]market.SearchSignal `json:"signals"`
	TotalSignals int                              `json:"total_signals"`
	Failed       map[string]int                   `json:"failed_searches,omitempty"`
}

// SynthesizeInput is the input for synthesize_opportunities.
type SynthesizeInput struct {
	Keywords        []string `json:"keywords" jsonschema:"Seed keywords the research was run for"`
	TargetMarket    string   `json:"target_market,omitempty" jsonschema:"Optional audience or market to focus on"`
	PrimaryMarket   any      `json:"primary_market,omitempty" jsonschema:"Primary market research data"`
	AdjacentMarkets any      `json:"adjacent_markets,omitempty" jsonschema:"Adjacent market research data"`
	CrossIndustry   any      `json:"cross_industry,omitempty" jsonschema:"Cross-industry research data"`
	WorkflowGaps    any      `json:"workflow_gaps,omitempty" jsonschema:"Workflow gap research data"`
}

func registerLiminalDiscovery(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "liminal_discovery",
		Description: "Find liminal business opportunities between established markets (the Uber/Airbnb pattern). Searches the primary market, adjacent markets, cross-industry patterns and workflow gaps in parallel, then synthesises opportunities with an LLM. Results are stored in the intelligence database when one is configured.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input DiscoveryInput) (*mcp.CallToolResult, *market.DiscoveryReport, error) {
		keywords, err := toolutil.RequireKeywords(input.Keywords)
		if err != nil {
			return nil, nil, err
		}
		report, err := market.ExecuteLiminalDiscovery(ctx, keywords, input.TargetMarket, market.DiscoveryOpts{
			Quick:         input.Quick,
			SkipSynthesis: input.SkipSynthesis,
		})
		if err != nil {
			return nil, nil, err
		}
		persistDiscovery(ctx, report)
		return nil, report, nil
	})
}

// persistDiscovery stores signals and ranked opportunities of a run when the
// intelligence database is connected. Failures are logged, never returned.
func persistDiscovery(ctx context.Context, report *market.DiscoveryReport) {
	db := market.GetIntelDB()
	if db == nil {
		return
	}
	if err := db.SaveDiscovery(ctx, report); err != nil {
		slog.Warn("liminal_discovery: save signals failed", slog.String("run_id", report.RunID.String()), slog.Any("error", err))
	}
	if report.Synthesis == nil || len(report.Synthesis.BreakthroughOpportunities) == 0 {
		return
	}
	ranking := market.RankLiminalOpportunities(report.Synthesis.BreakthroughOpportunities)
	if err := db.SaveOpportunities(ctx, report.RunID, ranking.Ranked); err != nil {
		slog.Warn("liminal_discovery: save opportunities failed", slog.String("run_id", report.RunID.String()), slog.Any("error", err))
	}
}

func registerParallelMarketSearch(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "parallel_market_search",
		Description: "Run the quick discovery query set for each requested kind (three queries per keyword, at most six searches per kind) and return the extracted signals. Faster and cheaper than liminal_discovery; no LLM calls.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input ParallelSearchInput) (*mcp.CallToolResult, *ParallelSearchOutput, error) {
		keywords, err := toolutil.RequireKeywords(input.Keywords)
		if err != nil {
			return nil, nil, err
		}
		kinds, err := normKinds(input.Kinds)
		if err != nil {
			return nil, nil, err
		}

		cacheKey := toolKey("parallel_market_search", keywords, kinds...)
		out, err := toolutil.Cached(ctx, cacheKey, func(ctx context.Context) (*ParallelSearchOutput, error) {
			out := &ParallelSearchOutput{
				Queries: market.GenerateSearchQueries(keywords, kinds),
				Signals: make(map[string][]market.SearchSignal, len(kinds)),
			}
			for _, kind := range kinds {
				outcomes := market.ParallelSearchExecution(ctx, kind, out.Queries[kind])
				for _, o := range outcomes {
					if !o.Success {
						if out.Failed == nil {
							out.Failed = map[string]int{}
						}
						out.Failed[kind]++
					}
				}
				signals := market.ProcessSearchResultsForSignals(kind, outcomes)
				out.Signals[kind] = signals
				out.TotalSignals += len(signals)
			}
			return out, nil
		})
		if err != nil {
			return nil, nil, err
		}
		return nil, out, nil
	})
}

// normKinds defaults to every discovery kind and rejects unknown names.
func normKinds(in []string) ([]string, error) {
	if len(in) == 0 {
		return market.AllKinds, nil
	}
	var kinds []string
	for _, k := range in {
		if !slices.Contains(market.AllKinds, k) {
			return nil, fmt.Errorf("unknown kind %q (valid: %v)", k, market.AllKinds)
		}
		if !slices.Contains(kinds, k) {
			kinds = append(kinds, k)
		}
	}
	return kinds, nil
}

func registerAdjacentMarkets(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "adjacent_markets",
		Description: "Search upstream, downstream, complementary and substitute markets around the keywords. Returns grouped search results per relationship.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input KeywordsInput) (*mcp.CallToolResult, *market.AdjacentMarkets, error) {
		keywords, err := toolutil.RequireKeywords(input.Keywords)
		if err != nil {
			return nil, nil, err
		}
		out, err := toolutil.Cached(ctx, toolKey("adjacent_markets", keywords),
			func(ctx context.Context) (*market.AdjacentMarkets, error) {
				return market.DiscoverAdjacentMarkets(ctx, keywords)
			})
		if err != nil {
			return nil, nil, err
		}
		return nil, out, nil
	})
}

func registerCrossIndustry(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "cross_industry",
		Description: "Compare how the keywords are solved across healthcare, finance, retail and other industries to find cost and practice gaps worth arbitraging.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input KeywordsInput) (*mcp.CallToolResult, *market.CrossIndustry, error) {
		keywords, err := toolutil.RequireKeywords(input.Keywords)
		if err != nil {
			return nil, nil, err
		}
		out, err := toolutil.Cached(ctx, toolKey("cross_industry", keywords),
			func(ctx context.Context) (*market.CrossIndustry, error) {
				return market.DiscoverCrossIndustry(ctx, keywords)
			})
		if err != nil {
			return nil, nil, err
		}
		return nil, out, nil
	})
}

func registerWorkflowGaps(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "workflow_gaps",
		Description: "Find integration problems, manual steps and tool switching around the keywords: the places where users glue products together by hand.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input KeywordsInput) (*mcp.CallToolResult, *market.WorkflowGaps, error) {
		keywords, err := toolutil.RequireKeywords(input.Keywords)
		if err != nil {
			return nil, nil, err
		}
		out, err := toolutil.Cached(ctx, toolKey("workflow_gaps", keywords),
			func(ctx context.Context) (*market.WorkflowGaps, error) {
				return market.DiscoverWorkflowGaps(ctx, keywords)
			})
		if err != nil {
			return nil, nil, err
		}
		return nil, out, nil
	})
}

func registerSynthesizeOpportunities(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "synthesize_opportunities",
		Description: "Synthesise liminal opportunities from research data you already have (output of adjacent_markets, cross_industry, workflow_gaps or liminal_discovery). Returns breakthrough opportunities, connection patterns and arbitrage discoveries.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input SynthesizeInput) (*mcp.CallToolResult, *market.Synthesis, error) {
		keywords, err := toolutil.RequireKeywords(input.Keywords)
		if err != nil {
			return nil, nil, err
		}
		in := market.SynthesisInput{
			Primary:       input.PrimaryMarket,
			Adjacent:      input.AdjacentMarkets,
			CrossIndustry: input.CrossIndustry,
			WorkflowGaps:  input.WorkflowGaps,
		}
		if in.Primary == nil && in.Adjacent == nil && in.CrossIndustry == nil && in.WorkflowGaps == nil {
			return nil, nil, fmt.Errorf("at least one research section is required")
		}
		return nil, market.SynthesizeLiminalConnections(ctx, in, keywords, input.TargetMarket), nil
	})
}
