package marketserver

import (
	"context"
	"errors"

	"github.com/anatolykoptev/go_market/internal/engine/market"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// TopInput is the input for intel_top_opportunities.
type TopInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Max opportunities to return (default 10, max 100)"`
}

// TopOutput lists stored opportunities, best first.
type TopOutput struct {
	Opportunities []market.StoredOpportunity `json:"opportunities"`
	Total         int                        `json:"total"`
}

func registerOpportunityTrackerAdd(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "opportunity_tracker_add",
		Description: "Save an opportunity to the local tracker (SQLite). Status options: idea (default), researching, validating, building, launched, abandoned. Returns the assigned ID for future updates.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input market.TrackerAddInput) (*mcp.CallToolResult, *market.TrackerResult, error) {
		if input.Name == "" {
			return nil, nil, errors.New("name is required")
		}
		result, err := market.AddTrackedOpportunity(ctx, input)
		if err != nil {
			return nil, nil, err
		}
		return nil, result, nil
	})
}

func registerOpportunityTrackerList(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "opportunity_tracker_list",
		Description: "List tracked opportunities, best score first. Optionally filter by status and minimum score. Includes counts per status.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input market.TrackerListInput) (*mcp.CallToolResult, *market.TrackerListResult, error) {
		result, err := market.ListTrackedOpportunities(ctx, input)
		if err != nil {
			return nil, nil, err
		}
		return nil, result, nil
	})
}

func registerOpportunityTrackerUpdate(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "opportunity_tracker_update",
		Description: "Update status, notes or site URL of a tracked opportunity by ID. Get IDs from opportunity_tracker_list.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input market.TrackerUpdateInput) (*mcp.CallToolResult, *market.TrackerResult, error) {
		if input.ID <= 0 {
			return nil, nil, errors.New("id is required")
		}
		result, err := market.UpdateTrackedOpportunity(ctx, input)
		if err != nil {
			return nil, nil, err
		}
		return nil, result, nil
	})
}

func registerTopOpportunities(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "intel_top_opportunities",
		Description: "Return the best opportunities stored by past liminal_discovery and rank_opportunities runs, by composite score. Requires the intelligence database (DATABASE_URL).",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input TopInput) (*mcp.CallToolResult, *TopOutput, error) {
		db := market.GetIntelDB()
		if db == nil {
			return nil, nil, errors.New("intelligence database not configured")
		}
		opps, err := db.TopOpportunities(ctx, input.Limit)
		if err != nil {
			return nil, nil, err
		}
		if opps == nil {
			opps = []market.StoredOpportunity{}
		}
		return nil, &TopOutput{Opportunities: opps, Total: len(opps)}, nil
	})
}
