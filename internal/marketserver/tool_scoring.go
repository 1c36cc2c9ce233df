package marketserver

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/anatolykoptev/go_market/internal/engine/market"
	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ValidateInput is the input for validate_connection.
type ValidateInput struct {
	Opportunity market.Opportunity `json:"opportunity" jsonschema:"Opportunity to validate (as returned by liminal_discovery or synthesize_opportunities)"`
}

// RankInput is the input for rank_opportunities.
type RankInput struct {
	Opportunities []market.Opportunity `json:"opportunities" jsonschema:"Opportunities to rank"`
	Enhance       bool                 `json:"enhance,omitempty" jsonschema:"Recompute heuristic score, difficulty, time to market, risks and success indicators before ranking"`
	Save          bool                 `json:"save,omitempty" jsonschema:"Store the ranking in the intelligence database when configured"`
}

// ScoreInput is the input for score_opportunities.
type ScoreInput struct {
	Opportunities []map[string]any `json:"opportunities" jsonschema:"Opportunities with id, name and optional market_size, competition_analysis, demand_validation, trend_analysis objects"`
}

func registerValidateConnection(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "validate_connection",
		Description: "Score how strong the connection between the two sides of a liminal opportunity is: market size, value gap, network effects, timing, feasibility and moat. Returns a go/no-go recommendation with evidence. No external calls.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(_ context.Context, _ *mcp.CallToolRequest, input ValidateInput) (*mcp.CallToolResult, *market.Validation, error) {
		if strings.TrimSpace(input.Opportunity.OpportunityName) == "" {
			return nil, nil, errors.New("opportunity.opportunity_name is required")
		}
		v := market.ValidateConnectionStrength(input.Opportunity)
		return nil, &v, nil
	})
}

func registerRankOpportunities(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "rank_opportunities",
		Description: "Rank opportunities by composite score (opportunity score 40%, market size 25%, feasibility 20%, timing 15%) and split them into top-tier and sleeper sets. Optionally stores the ranking in the intelligence database.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input RankInput) (*mcp.CallToolResult, *market.Ranking, error) {
		if len(input.Opportunities) == 0 {
			return nil, nil, errors.New("opportunities are required")
		}
		opps := input.Opportunities
		if input.Enhance {
			opps = make([]market.Opportunity, len(input.Opportunities))
			for i, o := range input.Opportunities {
				opps[i] = market.EnhanceOpportunity(o)
			}
		}
		ranking := market.RankLiminalOpportunities(opps)

		if input.Save {
			if db := market.GetIntelDB(); db != nil {
				if err := db.SaveOpportunities(ctx, uuid.Nil, ranking.Ranked); err != nil {
					slog.Warn("rank_opportunities: save failed", slog.Any("error", err))
				}
			}
		}
		return nil, &ranking, nil
	})
}

func registerScoreOpportunities(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "score_opportunities",
		Description: "Score opportunities with the LLM on a 100-point scale (market, competition, demand, trends, execution) and add a portfolio recommendation. Slow: several LLM calls per opportunity.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input ScoreInput) (*mcp.CallToolResult, *market.AIRanking, error) {
		if len(input.Opportunities) == 0 {
			return nil, nil, errors.New("opportunities are required")
		}
		if len(input.Opportunities) > maxScored {
			input.Opportunities = input.Opportunities[:maxScored]
		}
		return nil, market.RankOpportunitiesWithAI(ctx, input.Opportunities), nil
	})
}

// maxScored bounds the number of opportunities one score_opportunities call sends to the LLM.
const maxScored = 10
