package marketserver

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strings"

	"github.com/anatolykoptev/go_market/internal/engine"
	"github.com/anatolykoptev/go_market/internal/engine/market"
	"github.com/anatolykoptev/go_market/internal/toolutil"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const maxGapSignals = 50

// GapMapInput is the input for gap_map.
type GapMapInput struct {
	Signals []market.GapSignal `json:"signals" jsonschema:"Market signals to map: user complaints, forum posts, review snippets (max 50)"`
}

// ExploreInput is the input for market_signals and competitive_gaps.
type ExploreInput struct {
	Context string `json:"context" jsonschema:"Market domain or problem space to explore, e.g. freelance invoicing"`
}

// ConvergenceInput is the input for convergence_opportunities.
type ConvergenceInput struct {
	Domains []string `json:"domains" jsonschema:"Two or more domains or industries whose intersection to explore"`
}

// PatternsInput is the input for signal_patterns.
type PatternsInput struct {
	Texts   []string `json:"texts" jsonschema:"Raw user-generated texts: posts, reviews, support tickets"`
	Source  string   `json:"source,omitempty" jsonschema:"Where the texts came from, e.g. reddit"`
	Context string   `json:"context,omitempty" jsonschema:"Market the texts are about"`
}

// GrowthInput is the input for growth_patterns.
type GrowthInput struct {
	MarketData map[string]any `json:"market_data" jsonschema:"Any market data: a research report, trend output, size figures"`
}

func registerGapMap(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "gap_map",
		Description: "Map market signals to themes, workflow intersections, technology gaps and cross-industry convergence, then identify the liminal spaces between established categories. Returns an opportunity score from 0 to 1.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input GapMapInput) (*mcp.CallToolResult, *market.GapMap, error) {
		var signals []market.GapSignal
		for _, s := range input.Signals {
			if s.Content = strings.TrimSpace(s.Content); s.Content != "" {
				signals = append(signals, s)
			}
		}
		if len(signals) == 0 {
			return nil, nil, errors.New("signals are required")
		}
		signals = signals[:min(maxGapSignals, len(signals))]
		raw, _ := json.Marshal(signals)
		out, err := toolutil.Cached(ctx, engine.CacheKey("gap_map", string(raw)),
			func(ctx context.Context) (*market.GapMap, error) {
				return market.MapSignalConnections(ctx, signals)
			})
		if err != nil {
			return nil, nil, err
		}
		return nil, out, nil
	})
}

func registerMarketSignals(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "market_signals",
		Description: "Explore a problem space for genuine user pain: searches complaint, alternative and integration angles, clusters pain points, workflow gaps, integration needs and underserved segments, and rates signal reliability.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input ExploreInput) (*mcp.CallToolResult, *market.MarketSignals, error) {
		topic := strings.TrimSpace(input.Context)
		if topic == "" {
			return nil, nil, errors.New("context is required")
		}
		out, err := toolutil.Cached(ctx, toolKey("market_signals", []string{topic}),
			func(ctx context.Context) (*market.MarketSignals, error) {
				return market.DiscoverMarketSignals(ctx, topic)
			})
		if err != nil {
			return nil, nil, err
		}
		return nil, out, nil
	})
}

func registerCompetitiveGaps(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "competitive_gaps",
		Description: "Find where incumbents fall short in a market domain: landscape summary, functionality, pricing and segment gaps, entry opportunities and positioning strategies.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input ExploreInput) (*mcp.CallToolResult, *market.CompetitiveGaps, error) {
		domain := strings.TrimSpace(input.Context)
		if domain == "" {
			return nil, nil, errors.New("context is required")
		}
		out, err := toolutil.Cached(ctx, toolKey("competitive_gaps", []string{domain}),
			func(ctx context.Context) (*market.CompetitiveGaps, error) {
				return market.AnalyzeCompetitiveGaps(ctx, domain)
			})
		if err != nil {
			return nil, nil, err
		}
		return nil, out, nil
	})
}

func registerConvergenceOpportunities(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "convergence_opportunities",
		Description: "Explore where two or more domains converge: convergence points, cross-pollination, bridging technologies, gaps at the intersection and entry timing.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input ConvergenceInput) (*mcp.CallToolResult, *market.ConvergenceOpportunities, error) {
		domains := toolutil.NormKeywords(input.Domains)
		if len(domains) < 2 {
			return nil, nil, errors.New("at least two domains are required")
		}
		out, err := toolutil.Cached(ctx, toolKey("convergence_opportunities", domains),
			func(ctx context.Context) (*market.ConvergenceOpportunities, error) {
				return market.IdentifyConvergenceOpportunities(ctx, domains)
			})
		if err != nil {
			return nil, nil, err
		}
		return nil, out, nil
	})
}

func registerSignalPatterns(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "signal_patterns",
		Description: "Classify raw user texts and find workflow, integration, onboarding, pain and solution-request patterns, the links between them and the opportunities they imply. Keyword heuristics only, no web or LLM calls.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(_ context.Context, _ *mcp.CallToolRequest, input PatternsInput) (*mcp.CallToolResult, *market.PatternAnalysis, error) {
		if !slices.ContainsFunc(input.Texts, func(t string) bool { return strings.TrimSpace(t) != "" }) {
			return nil, nil, errors.New("texts are required")
		}
		source := strings.TrimSpace(input.Source)
		if source == "" {
			source = "unknown"
		}
		return nil, market.IdentifyPatterns(input.Texts, source, strings.TrimSpace(input.Context)), nil
	})
}

func registerGrowthPatterns(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "growth_patterns",
		Description: "Read growth patterns, market cycles, adoption curves, saturation signals, emerging niches and opportunity windows out of any market data, with a pattern confidence.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input GrowthInput) (*mcp.CallToolResult, *market.GrowthPatterns, error) {
		if len(input.MarketData) == 0 {
			return nil, nil, errors.New("market_data is required")
		}
		raw, err := json.Marshal(input.MarketData)
		if err != nil {
			return nil, nil, err
		}
		out, err := toolutil.Cached(ctx, engine.CacheKey("growth_patterns", string(raw)),
			func(ctx context.Context) (*market.GrowthPatterns, error) {
				return market.IdentifyGrowthPatterns(ctx, input.MarketData)
			})
		if err != nil {
			return nil, nil, err
		}
		return nil, out, nil
	})
}
