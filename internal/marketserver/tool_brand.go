package marketserver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anatolykoptev/go_market/internal/engine/market"
	"github.com/anatolykoptev/go_market/internal/toolutil"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// DomainInput is the input for domain_check.
type DomainInput struct {
	Name string `json:"name" jsonschema:"Brand name or domain, e.g. 'Kitchly' or kitchly.io"`
}

// BrandInput is the input for brand_identity.
type BrandInput struct {
	Opportunity market.Opportunity `json:"opportunity" jsonschema:"Opportunity to brand"`
	WithCopy    bool               `json:"with_copy,omitempty" jsonschema:"Also generate marketing copy (headlines, website, email and social)"`
}

// BrandOutput is a brand with optional marketing copy.
type BrandOutput struct {
	Brand *market.BrandIdentity `json:"brand"`
	Copy  *market.MarketingCopy `json:"marketing_copy,omitempty"`
}

// LandingInput is the input for landing_page.
type LandingInput struct {
	Opportunity market.Opportunity    `json:"opportunity" jsonschema:"Opportunity the page sells"`
	Brand       *market.BrandIdentity `json:"brand,omitempty" jsonschema:"Brand from brand_identity; generated when omitted"`
}

// SiteStatusInput is the input for site_status.
type SiteStatusInput struct {
	SiteID string `json:"site_id" jsonschema:"Site ID returned by landing_page or pitch_deck"`
}

// MediaInput is the input for media_search.
type MediaInput struct {
	Query       string `json:"query" jsonschema:"What the images or videos should show"`
	Kind        string `json:"kind,omitempty" jsonschema:"images (default), videos or both"`
	PerPage     int    `json:"per_page,omitempty" jsonschema:"Results per kind (default 5, max 80)"`
	Orientation string `json:"orientation,omitempty" jsonschema:"landscape (default), portrait or square"`
	Size        string `json:"size,omitempty" jsonschema:"Image size: large (default), medium or small"`
	MinWidth    int    `json:"min_width,omitempty" jsonschema:"Minimum width in pixels"`
	MinHeight   int    `json:"min_height,omitempty" jsonschema:"Minimum height in pixels"`
	MinDuration int    `json:"min_duration,omitempty" jsonschema:"Minimum video duration in seconds"`
	MaxDuration int    `json:"max_duration,omitempty" jsonschema:"Maximum video duration in seconds"`
}

func registerDomainCheck(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "domain_check",
		Description: "Check whether the .com domain for a brand name resolves. Taken domains come with up to five alternatives (get/try/app prefixes, .io, .co) and their availability.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input DomainInput) (*mcp.CallToolResult, *market.DomainCheck, error) {
		if strings.TrimSpace(input.Name) == "" {
			return nil, nil, errors.New("name is required")
		}
		out, err := market.CheckDomainAvailability(ctx, input.Name)
		if err != nil {
			return nil, nil, err
		}
		return nil, out, nil
	})
}

func registerBrandIdentity(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "brand_identity",
		Description: "Create a brand for an opportunity: name, tagline, positioning, personality, colour palette, messaging, domain suggestions with availability and trademark notes. Set with_copy for headlines, website, email and social copy.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input BrandInput) (*mcp.CallToolResult, *BrandOutput, error) {
		if strings.TrimSpace(input.Opportunity.OpportunityName) == "" {
			return nil, nil, errors.New("opportunity.opportunity_name is required")
		}
		brand, err := market.GenerateBrandIdentity(ctx, input.Opportunity)
		if err != nil {
			return nil, nil, err
		}
		out := &BrandOutput{Brand: brand}
		if input.WithCopy {
			out.Copy = market.GenerateMarketingCopy(ctx, brand, input.Opportunity)
		}
		return nil, out, nil
	})
}

func registerLandingPage(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "landing_page",
		Description: "Build a landing page for an opportunity (brand, copy, HTML template, CSS) and deploy it to the renderer service. Returns live, preview, analytics and dashboard URLs. When deployment fails the generated assets are returned instead.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input LandingInput) (*mcp.CallToolResult, *market.LandingPage, error) {
		if strings.TrimSpace(input.Opportunity.OpportunityName) == "" {
			return nil, nil, errors.New("opportunity.opportunity_name is required")
		}
		brand := input.Brand
		if brand == nil || brand.BrandName == "" {
			var err error
			brand, err = market.GenerateBrandIdentity(ctx, input.Opportunity)
			if err != nil {
				return nil, nil, err
			}
		}
		mc := market.GenerateMarketingCopy(ctx, brand, input.Opportunity)
		return nil, market.BuildAndDeployLanding(ctx, brand, mc), nil
	})
}

func registerSiteStatus(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "site_status",
		Description: "Get view count and engagement metrics (page views, CTA clicks, downloads, unique sessions) for a deployed landing page or pitch site.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input SiteStatusInput) (*mcp.CallToolResult, *market.SiteStatus, error) {
		if strings.TrimSpace(input.SiteID) == "" {
			return nil, nil, errors.New("site_id is required")
		}
		out, err := market.GetSiteStatus(ctx, input.SiteID)
		if err != nil {
			return nil, nil, err
		}
		return nil, out, nil
	})
}

func registerPitchDeck(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "pitch_deck",
		Description: "Generate an investor pitch for an opportunity: narrative, key metrics (market, financials, risk), executive summary. Pass market_size, competition or research from the research tools for sharper numbers. Set deploy to publish it on the renderer, optionally with a landing page.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input market.PitchInput) (*mcp.CallToolResult, *market.Pitch, error) {
		if strings.TrimSpace(input.Opportunity.OpportunityName) == "" {
			return nil, nil, errors.New("opportunity.opportunity_name is required")
		}
		return nil, market.GeneratePitch(ctx, input), nil
	})
}

func registerMediaSearch(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "media_search",
		Description: "Find stock images and videos on Pexels for landing pages and pitches. Without a Pexels key, or when Pexels fails, returns curated fallback media.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input MediaInput) (*mcp.CallToolResult, *market.MediaResult, error) {
		query := strings.TrimSpace(input.Query)
		if query == "" {
			return nil, nil, errors.New("query is required")
		}
		kind := strings.ToLower(strings.TrimSpace(input.Kind))
		switch kind {
		case "", market.MediaImages, market.MediaVideos, market.MediaBoth:
		default:
			return nil, nil, fmt.Errorf("invalid kind %q: use images, videos or both", input.Kind)
		}
		opts := market.MediaOpts{
			Orientation: input.Orientation,
			Size:        input.Size,
			MinWidth:    input.MinWidth,
			MinHeight:   input.MinHeight,
			MinDuration: input.MinDuration,
			MaxDuration: input.MaxDuration,
		}
		out := market.SearchMedia(ctx, query, kind, toolutil.Limit(input.PerPage, 5, 80), opts)
		return nil, out, nil
	})
}
