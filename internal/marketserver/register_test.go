package marketserver

import (
	"context"
	"encoding/json"
	"slices"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_market/internal/engine"
	"github.com/anatolykoptev/go_market/internal/engine/market"
)

// connect registers every tool on a fresh server and returns a client
// session talking to it over in-memory transports.
func connect(t *testing.T) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	server := mcp.NewServer(&mcp.Implementation{Name: "go_market", Version: "test"}, nil)
	RegisterTools(server)

	clientT, serverT := mcp.NewInMemoryTransports()
	ss, err := server.Connect(ctx, serverT, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "test"}, nil)
	cs, err := client.Connect(ctx, clientT, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

func call(t *testing.T, cs *mcp.ClientSession, name string, args any) *mcp.CallToolResult {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	return res
}

func decode[T any](t *testing.T, res *mcp.CallToolResult) T {
	t.Helper()
	require.False(t, res.IsError, "tool returned error: %s", errorText(res))
	data, err := json.Marshal(res.StructuredContent)
	require.NoError(t, err)
	var out T
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func errorText(res *mcp.CallToolResult) string {
	for _, c := range res.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func opportunityArgs(t *testing.T, o market.Opportunity) map[string]any {
	t.Helper()
	data, err := json.Marshal(o)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func TestRegisterTools_ListsEveryTool(t *testing.T) {
	cs := connect(t)
	res, err := cs.ListTools(context.Background(), &mcp.ListToolsParams{})
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	slices.Sort(names)
	assert.Len(t, names, ToolCount)
	assert.Equal(t, []string{
		"adjacent_markets",
		"brand_identity",
		"competitive_gaps",
		"competitive_landscape",
		"convergence_opportunities",
		"cross_industry",
		"domain_check",
		"gap_map",
		"growth_patterns",
		"intel_top_opportunities",
		"landing_page",
		"liminal_discovery",
		"market_research",
		"market_search",
		"market_signals",
		"market_size",
		"media_search",
		"opportunity_tracker_add",
		"opportunity_tracker_list",
		"opportunity_tracker_update",
		"parallel_market_search",
		"pitch_deck",
		"rank_opportunities",
		"score_opportunities",
		"signal_patterns",
		"site_status",
		"social_signals",
		"synthesize_opportunities",
		"trend_analysis",
		"validate_connection",
		"workflow_gaps",
	}, names)
}

func TestTools_RejectBlankInput(t *testing.T) {
	cs := connect(t)
	tests := []struct {
		tool string
		args map[string]any
		want string
	}{
		{"liminal_discovery", map[string]any{"keywords": []string{" ", ""}}, "keywords are required"},
		{"market_research", map[string]any{"keywords": []string{}}, "keywords are required"},
		{"market_search", map[string]any{"query": "  "}, "query is required"},
		{"domain_check", map[string]any{"name": " "}, "name is required"},
		{"social_signals", map[string]any{"topic": ""}, "topic is required"},
		{"site_status", map[string]any{"site_id": ""}, "site_id is required"},
		{"parallel_market_search", map[string]any{"keywords": []string{"crm"}, "kinds": []string{"nope"}}, `unknown kind "nope"`},
		{"synthesize_opportunities", map[string]any{"keywords": []string{"crm"}}, "at least one research section"},
		{"media_search", map[string]any{"query": "office", "kind": "gifs"}, `invalid kind "gifs"`},
		{"rank_opportunities", map[string]any{"opportunities": []any{}}, "opportunities are required"},
		{"gap_map", map[string]any{"signals": []any{map[string]any{"content": " "}}}, "signals are required"},
		{"market_signals", map[string]any{"context": ""}, "context is required"},
		{"competitive_gaps", map[string]any{"context": " "}, "context is required"},
		{"convergence_opportunities", map[string]any{"domains": []string{"fintech", "FinTech"}}, "at least two domains"},
		{"signal_patterns", map[string]any{"texts": []string{"", "  "}}, "texts are required"},
		{"growth_patterns", map[string]any{"market_data": map[string]any{}}, "market_data is required"},
	}
	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			res := call(t, cs, tt.tool, tt.args)
			require.True(t, res.IsError)
			assert.Contains(t, errorText(res), tt.want)
		})
	}
}

func TestValidateConnectionTool(t *testing.T) {
	cs := connect(t)
	o := market.Opportunity{
		OpportunityName:    "Kitchly",
		MarketSizeEstimate: "$5 billion",
		ValueArbitrage:     "Significant cost savings",
		NetworkEffect:      "strong two-sided network effect",
		WhyNow:             "remote work and AI trend",
		ImplementationMVP:  "simple API integration",
		CompetitiveMoat:    "utilisation data",
	}
	res := call(t, cs, "validate_connection", map[string]any{"opportunity": opportunityArgs(t, o)})
	v := decode[market.Validation](t, res)
	assert.Equal(t, "Kitchly", v.OpportunityName)
	assert.Equal(t, market.ValidateConnectionStrength(o).Recommendation, v.Recommendation)
	assert.Len(t, v.Factors, 6)
}

func TestRankOpportunitiesTool(t *testing.T) {
	cs := connect(t)
	weak := market.Opportunity{OpportunityName: "Weak"}
	strong := market.Opportunity{
		OpportunityName:    "Strong",
		MarketSizeEstimate: "$10 billion",
		ValueArbitrage:     "high",
		OpportunityScore:   new(0.9),
	}
	res := call(t, cs, "rank_opportunities", map[string]any{
		"opportunities": []any{opportunityArgs(t, weak), opportunityArgs(t, strong)},
	})
	r := decode[market.Ranking](t, res)
	require.Len(t, r.Ranked, 2)
	assert.Equal(t, "Strong", r.Ranked[0].OpportunityName)
	assert.Equal(t, 2, r.Total)
}

func TestSignalPatternsTool(t *testing.T) {
	cs := connect(t)
	res := call(t, cs, "signal_patterns", map[string]any{
		"texts": []string{
			"Sync is broken and slow, a real problem",
			"The export is broken and slow, terrible problem",
		},
		"context": "invoicing",
	})
	pa := decode[market.PatternAnalysis](t, res)
	assert.Equal(t, "invoicing", pa.Context)
	assert.Equal(t, 2, pa.SignalCount)
	assert.Equal(t, 2, pa.Categories["pain_points"])
	assert.Len(t, pa.Patterns["integration_patterns"], 2)
}

func TestOpportunityTrackerTools(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cs := connect(t)

	added := decode[market.TrackerResult](t, call(t, cs, "opportunity_tracker_add", map[string]any{
		"name":  "Kitchly",
		"score": 0.8,
	}))
	require.Positive(t, added.ID)

	res := call(t, cs, "opportunity_tracker_update", map[string]any{"id": 0, "notes": "x"})
	require.True(t, res.IsError)
	assert.Contains(t, errorText(res), "id is required")

	decode[market.TrackerResult](t, call(t, cs, "opportunity_tracker_update", map[string]any{
		"id":     added.ID,
		"status": "validating",
	}))

	list := decode[market.TrackerListResult](t, call(t, cs, "opportunity_tracker_list", map[string]any{}))
	require.Equal(t, 1, list.Total)
	assert.Equal(t, market.StatusValidating, list.Opportunities[0].Status)
}

func TestIntelTopOpportunities_NoDatabase(t *testing.T) {
	market.SetIntelDB(nil)
	cs := connect(t)
	res := call(t, cs, "intel_top_opportunities", map[string]any{})
	require.True(t, res.IsError)
	assert.Contains(t, errorText(res), "intelligence database not configured")
}

func TestMediaSearchTool_Fallback(t *testing.T) {
	engine.Init(engine.Config{})
	cs := connect(t)
	out := decode[market.MediaResult](t, call(t, cs, "media_search", map[string]any{"query": "software team", "kind": "both"}))
	assert.True(t, out.Fallback)
	assert.NotEmpty(t, out.Images)
	assert.NotEmpty(t, out.Videos)
}

func TestMarketQueries(t *testing.T) {
	fast := marketQueries("meal kits", "fast")
	require.Len(t, fast, 3)
	assert.Equal(t, engine.SearchTavilyQuick, fast[0].Kind)
	assert.Equal(t, "meal kits market size", fast[1].Query)

	deep := marketQueries("meal kits", "deep")
	require.Len(t, deep, 5)
	assert.Equal(t, engine.SearchTavily, deep[0].Kind)
	assert.Equal(t, "meal kits customer complaints reddit", deep[3].Query)
}

func TestNormKinds(t *testing.T) {
	all, err := normKinds(nil)
	require.NoError(t, err)
	assert.Equal(t, market.AllKinds, all)

	got, err := normKinds([]string{market.KindWorkflowGaps, market.KindWorkflowGaps, market.KindPrimary})
	require.NoError(t, err)
	assert.Equal(t, []string{market.KindWorkflowGaps, market.KindPrimary}, got)
}

func TestToolKey(t *testing.T) {
	a := toolKey("market_size", []string{"crm"}, "smb")
	assert.Equal(t, a, toolKey("market_size", []string{"crm"}, "smb"))
	assert.NotEqual(t, a, toolKey("market_research", []string{"crm"}, "smb"))
	assert.NotEqual(t, a, toolKey("market_size", []string{"crm", "smb"}))
	assert.NotEqual(t, toolKey("market_size", []string{"crm|smb"}), toolKey("market_size", []string{"crm", "smb"}))
}
