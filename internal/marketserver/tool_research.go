package marketserver

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/anatolykoptev/go_market/internal/engine/market"
	"github.com/anatolykoptev/go_market/internal/toolutil"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ResearchInput is the input for market_research and market_size.
type ResearchInput struct {
	Keywords       []string `json:"keywords" jsonschema:"Keywords describing the market"`
	TargetAudience string   `json:"target_audience,omitempty" jsonschema:"Optional audience used to narrow SAM and SOM"`
}

// LandscapeInput is the input for competitive_landscape.
type LandscapeInput struct {
	Keywords     []string `json:"keywords" jsonschema:"Keywords describing the market"`
	SolutionType string   `json:"solution_type,omitempty" jsonschema:"Kind of product you plan to build, e.g. saas, marketplace, mobile app"`
}

// TrendInput is the input for trend_analysis.
type TrendInput struct {
	Keywords []string `json:"keywords" jsonschema:"Keywords to analyse"`
	Industry string   `json:"industry,omitempty" jsonschema:"Optional industry; adds funding, adoption and regulatory momentum"`
}

// TrendOutput combines live search trends with stored signal history.
type TrendOutput struct {
	SearchTrends *market.SearchTrends     `json:"search_trends"`
	Momentum     *market.IndustryMomentum `json:"industry_momentum,omitempty"`
	History      []market.TrendSummary    `json:"signal_history,omitempty"`
	Warnings     []string                 `json:"warnings,omitempty"`
}

// SocialInput is the input for social_signals.
type SocialInput struct {
	Topic string `json:"topic" jsonschema:"Topic or product category to listen for on Twitter/X"`
	Limit int    `json:"limit,omitempty" jsonschema:"Max tweets to analyse (default 30, max 100)"`
}

func registerMarketResearch(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "market_research",
		Description: "Comprehensive market research: pain signals, competition, demand validation, trends and market size for the keywords, with LLM insights and an overall opportunity score.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input ResearchInput) (*mcp.CallToolResult, *market.ResearchReport, error) {
		keywords, err := toolutil.RequireKeywords(input.Keywords)
		if err != nil {
			return nil, nil, err
		}
		out, err := toolutil.Cached(ctx, toolKey("market_research", keywords, input.TargetAudience),
			func(ctx context.Context) (*market.ResearchReport, error) {
				return market.ComprehensiveResearch(ctx, keywords, input.TargetAudience)
			})
		if err != nil {
			return nil, nil, err
		}
		return nil, out, nil
	})
}

func registerCompetitiveLandscape(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "competitive_landscape",
		Description: "Map direct and indirect competitors and market leaders for the keywords, assess competition level and market concentration, and list gaps a new entrant could use.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input LandscapeInput) (*mcp.CallToolResult, *market.CompetitionAnalysis, error) {
		keywords, err := toolutil.RequireKeywords(input.Keywords)
		if err != nil {
			return nil, nil, err
		}
		out, err := toolutil.Cached(ctx, toolKey("competitive_landscape", keywords, input.SolutionType),
			func(ctx context.Context) (*market.CompetitionAnalysis, error) {
				return market.AnalyzeCompetitiveLandscape(ctx, keywords, input.SolutionType)
			})
		if err != nil {
			return nil, nil, err
		}
		return nil, out, nil
	})
}

func registerMarketSize(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "market_size",
		Description: "Estimate TAM, SAM and SOM from published market size figures, with growth rate, segments and a confidence level.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input ResearchInput) (*mcp.CallToolResult, *market.MarketSize, error) {
		keywords, err := toolutil.RequireKeywords(input.Keywords)
		if err != nil {
			return nil, nil, err
		}
		out, err := toolutil.Cached(ctx, toolKey("market_size", keywords, input.TargetAudience),
			func(ctx context.Context) (*market.MarketSize, error) {
				return market.AnalyzeMarketSize(ctx, keywords, input.TargetAudience)
			})
		if err != nil {
			return nil, nil, err
		}
		return nil, out, nil
	})
}

func registerTrendAnalysis(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "trend_analysis",
		Description: "Analyse search trends for the keywords and, with an industry, its funding and adoption momentum. When the intelligence database is configured, adds 30-day signal history per keyword.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input TrendInput) (*mcp.CallToolResult, *TrendOutput, error) {
		keywords, err := toolutil.RequireKeywords(input.Keywords)
		if err != nil {
			return nil, nil, err
		}

		out := &TrendOutput{}
		out.SearchTrends, err = market.AnalyzeSearchTrends(ctx, keywords)
		if err != nil {
			return nil, nil, err
		}
		if industry := strings.TrimSpace(input.Industry); industry != "" {
			out.Momentum, err = market.TrackIndustryMomentum(ctx, industry, keywords)
			if err != nil {
				out.Warnings = append(out.Warnings, "industry momentum: "+err.Error())
			}
		}

		if db := market.GetIntelDB(); db != nil {
			for _, kw := range keywords {
				s, err := db.MarketTrendSummary(ctx, kw)
				if err != nil {
					slog.Warn("trend_analysis: history failed", slog.String("keyword", kw), slog.Any("error", err))
					continue
				}
				out.History = append(out.History, *s)
			}
		}
		return nil, out, nil
	})
}

func registerSocialSignals(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "social_signals",
		Description: "Listen to Twitter/X for pain points, complaints and feature requests about a topic. Returns sentiment, category and urgency breakdowns, top keywords and the most engaged pain points.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input SocialInput) (*mcp.CallToolResult, *market.SocialSummary, error) {
		topic := strings.TrimSpace(input.Topic)
		if topic == "" {
			return nil, nil, errors.New("topic is required")
		}
		limit := toolutil.Limit(input.Limit, 30, 100)
		out, err := toolutil.Cached(ctx, toolKey("social_signals", []string{topic}, strconv.Itoa(limit)),
			func(ctx context.Context) (*market.SocialSummary, error) {
				return market.SearchSocialSignals(ctx, topic, limit)
			})
		if err != nil {
			return nil, nil, err
		}
		return nil, out, nil
	})
}
