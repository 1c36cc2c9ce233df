package market

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/anatolykoptev/go_market/internal/engine"
)

// PitchInput carries whatever analysis is available for the pitch.
type PitchInput struct {
	Opportunity   Opportunity          `json:"opportunity"`
	Brand         *BrandIdentity       `json:"brand,omitempty"`
	MarketSize    *MarketSize          `json:"market_size,omitempty"`
	Competition   *CompetitionAnalysis `json:"competition,omitempty"`
	Research      *ResearchReport      `json:"research,omitempty"`
	ContactInfo   map[string]string    `json:"contact_info,omitempty"`
	CreateLanding bool                 `json:"create_landing_page"`
	Deploy        bool                 `json:"deploy"`
}

// InvestmentNarrative is the LLM's investor story.
type InvestmentNarrative struct {
	OpportunityName  string `json:"opportunity_name"`
	ElevatorPitch    string `json:"elevator_pitch"`
	ProblemStatement struct {
		PrimaryProblem       string `json:"primary_problem"`
		ProblemScope         string `json:"problem_scope"`
		CurrentSolutionsFail string `json:"current_solutions_fail"`
		QuantifiedPain       string `json:"quantified_pain"`
	} `json:"problem_statement"`
	SolutionOverview struct {
		CoreSolution   string     `json:"core_solution"`
		UniqueApproach string     `json:"unique_approach"`
		KeyBenefits    StringList `json:"key_benefits"`
		ProofPoints    StringList `json:"proof_points"`
	} `json:"solution_overview"`
	MarketOpportunity struct {
		MarketSize       string `json:"market_size"`
		GrowthTrajectory string `json:"growth_trajectory"`
		TimingRationale  string `json:"timing_rationale"`
	} `json:"market_opportunity"`
	CompetitiveAdvantage struct {
		Differentiation string `json:"differentiation"`
		BarriersToEntry string `json:"barriers_to_entry"`
		NetworkEffects  string `json:"network_effects"`
	} `json:"competitive_advantage"`
	BusinessModel struct {
		RevenueStreams StringList `json:"revenue_streams"`
		UnitEconomics  string     `json:"unit_economics"`
		Scalability    string     `json:"scalability"`
	} `json:"business_model"`
	GoToMarket struct {
		TargetCustomers     string `json:"target_customers"`
		CustomerAcquisition string `json:"customer_acquisition"`
	} `json:"go_to_market"`
	FinancialProjections struct {
		RevenueForecast string `json:"revenue_forecast"`
		FundingNeeds    string `json:"funding_needs"`
		UseOfFunds      string `json:"use_of_funds"`
	} `json:"financial_projections"`
	RiskMitigation struct {
		KeyRisks             StringList `json:"key_risks"`
		MitigationStrategies StringList `json:"mitigation_strategies"`
	} `json:"risk_mitigation"`
	InvestmentThesis struct {
		InvestmentHighlights StringList `json:"investment_highlights"`
		SuccessProbability   string     `json:"success_probability"`
		ExitPotential        string     `json:"exit_potential"`
	} `json:"investment_thesis"`
	RecommendedActions []struct {
		Action        string `json:"action"`
		Timeline      string `json:"timeline"`
		SuccessMetric string `json:"success_metric"`
	} `json:"recommended_actions"`
}

// PitchMetrics are the numbers behind the pitch.
type PitchMetrics struct {
	Market struct {
		TAM             int64   `json:"tam_estimate"`
		SAM             int64   `json:"sam_estimate"`
		SOM             int64   `json:"som_estimate"`
		GrowthRate      float64 `json:"growth_rate"`
		ConfidenceLevel string  `json:"confidence_level"`
	} `json:"market_metrics"`
	Opportunity struct {
		Score                    float64 `json:"opportunity_score"`
		ImplementationDifficulty string  `json:"implementation_difficulty"`
		TimeToMarket             string  `json:"time_to_market"`
	} `json:"opportunity_metrics"`
	Competitive struct {
		CompetitionLevel  string `json:"competition_level"`
		DirectCompetitors int    `json:"direct_competitors"`
		MarketGaps        int    `json:"market_gaps"`
	} `json:"competitive_metrics"`
	Financials struct {
		Year1Revenue  int64 `json:"year_1_revenue"`
		Year2Revenue  int64 `json:"year_2_revenue"`
		Year3Revenue  int64 `json:"year_3_revenue"`
		FundingNeeded int64 `json:"funding_needed"`
		CAC           int   `json:"customer_acquisition_cost"`
		LTV           int   `json:"lifetime_value"`
	} `json:"financial_estimates"`
	Risk struct {
		Competition float64 `json:"competition_risk"`
		Market      float64 `json:"market_risk"`
		Execution   float64 `json:"execution_risk"`
		Overall     float64 `json:"overall_risk"`
	} `json:"risk_scores"`
}

// ExecutiveSummary is the one-page view of a pitch.
type ExecutiveSummary struct {
	OpportunityName      string            `json:"opportunity_name"`
	Tagline              string            `json:"tagline"`
	InvestmentAsk        string            `json:"investment_ask"`
	MarketSize           string            `json:"market_size"`
	ProjectedRevenue     map[string]string `json:"projected_revenue"`
	KeyHighlights        []string          `json:"key_highlights"`
	ProblemSolved        string            `json:"problem_solved"`
	SolutionSummary      string            `json:"solution_summary"`
	CompetitiveAdvantage string            `json:"competitive_advantage"`
	UseOfFunds           string            `json:"use_of_funds"`
}

// Pitch is the generated pitch and its deployment state.
type Pitch struct {
	GeneratedAt      time.Time            `json:"generation_timestamp"`
	Narrative        *InvestmentNarrative `json:"investment_narrative"`
	Metrics          PitchMetrics         `json:"key_metrics"`
	Summary          ExecutiveSummary     `json:"executive_summary"`
	DeploymentStatus string               `json:"deployment_status"`
	SiteID           string               `json:"site_id,omitempty"`
	DocumentID       string               `json:"document_id,omitempty"`
	LandingPageURL   string               `json:"landing_page_url,omitempty"`
	PreviewURL       string               `json:"preview_url,omitempty"`
	MetricsURL       string               `json:"metrics_url,omitempty"`
	Warnings         []string             `json:"warnings,omitempty"`
}

const narrativePrompt = `Create a compelling startup investment narrative from this market analysis.
Turn the data into a story that would convince investors to fund this opportunity.

OPPORTUNITY:
%s

BRAND:
%s

MARKET SIZE:
%s

COMPETITIVE LANDSCAPE:
%s

Return a JSON object with: opportunity_name, elevator_pitch,
problem_statement{primary_problem, problem_scope, current_solutions_fail, quantified_pain},
solution_overview{core_solution, unique_approach, key_benefits[], proof_points[]},
market_opportunity{market_size, growth_trajectory, timing_rationale},
competitive_advantage{differentiation, barriers_to_entry, network_effects},
business_model{revenue_streams[], unit_economics, scalability},
go_to_market{target_customers, customer_acquisition},
financial_projections{revenue_forecast, funding_needs, use_of_funds},
risk_mitigation{key_risks[], mitigation_strategies[]},
investment_thesis{investment_highlights[], success_probability, exit_potential},
recommended_actions[{action, timeline, success_metric}].`

// GenerateNarrative asks the LLM for the investment narrative. On failure a
// minimal narrative built from the opportunity is returned with the error.
func GenerateNarrative(ctx context.Context, in PitchInput) (*InvestmentNarrative, error) {
	prompt := fmt.Sprintf(narrativePrompt,
		jsonSnippet(in.Opportunity, 2000),
		jsonSnippet(in.Brand, 1500),
		jsonSnippet(in.MarketSize, 1500),
		jsonSnippet(in.Competition, 1500),
	)
	n, err := engine.CallLLMJSON[InvestmentNarrative](ctx, prompt, engine.CallOpts{Temperature: 0.4, MaxTokens: 4000})
	if err != nil {
		fb := &InvestmentNarrative{
			OpportunityName: orDefault(in.Opportunity.OpportunityName, "Market Opportunity"),
			ElevatorPitch:   orDefault(in.Opportunity.Tagline, "Addressing market gaps through innovative solutions"),
		}
		fb.ProblemStatement.PrimaryProblem = "Market analysis indicates significant opportunity"
		fb.InvestmentThesis.InvestmentHighlights = StringList{"Market opportunity identified", "Competitive analysis completed"}
		return fb, fmt.Errorf("pitch narrative: %w", err)
	}
	if n.OpportunityName == "" {
		n.OpportunityName = orDefault(in.Opportunity.OpportunityName, "Market Opportunity")
	}
	return n, nil
}

// ExtractKeyMetrics derives market, financial and risk numbers. Missing
// market sizing uses TAM 1M, SAM 100K, SOM 10K and 5% growth.
func ExtractKeyMetrics(in PitchInput) PitchMetrics {
	var m PitchMetrics
	m.Market.TAM, m.Market.SAM, m.Market.SOM = 1_000_000, 100_000, 10_000
	m.Market.GrowthRate = 5.0
	m.Market.ConfidenceLevel = "medium"
	if ms := in.MarketSize; ms != nil && ms.TAM > 0 {
		m.Market.TAM, m.Market.SAM, m.Market.SOM = ms.TAM, ms.SAM, ms.SOM
		if ms.GrowthRate > 0 {
			m.Market.GrowthRate = ms.GrowthRate
		}
		m.Market.ConfidenceLevel = orDefault(ms.CalculationConfidence, "medium")
	}

	o := in.Opportunity
	m.Opportunity.Score = o.ScoreOr(0.5)
	m.Opportunity.ImplementationDifficulty = orDefault(o.ImplementationDifficulty, DifficultyMedium)
	m.Opportunity.TimeToMarket = orDefault(o.TimeToMarket, "6-12 months")

	m.Competitive.CompetitionLevel = "medium"
	c := in.Competition
	if c == nil && in.Research != nil {
		c = &in.Research.Competition
	}
	if c != nil {
		m.Competitive.CompetitionLevel = orDefault(c.CompetitionLevel, "medium")
		m.Competitive.DirectCompetitors = len(c.DirectCompetitors)
		m.Competitive.MarketGaps = len(c.MarketGaps)
	}

	som := float64(m.Market.SOM)
	m.Financials.Year1Revenue = int64(som * 0.1)
	m.Financials.Year2Revenue = int64(som * 0.3)
	m.Financials.Year3Revenue = int64(som * 0.6)
	m.Financials.FundingNeeded = int64(som * 0.2)
	m.Financials.CAC = 100
	m.Financials.LTV = 1000

	m.Risk.Competition = 0.7
	if m.Competitive.CompetitionLevel == "low" {
		m.Risk.Competition = 0.3
	}
	m.Risk.Market = 0.5
	if m.Market.ConfidenceLevel == "high" {
		m.Risk.Market = 0.2
	}
	m.Risk.Execution = 0.4
	m.Risk.Overall = round2((m.Risk.Competition + m.Risk.Market + m.Risk.Execution) / 3)
	return m
}

func dollars(v int64) string { return "$" + humanize.Comma(v) }

// BuildExecutiveSummary combines the narrative and metrics.
func BuildExecutiveSummary(n *InvestmentNarrative, m PitchMetrics) ExecutiveSummary {
	return ExecutiveSummary{
		OpportunityName: orDefault(n.OpportunityName, "Market Opportunity"),
		Tagline:         orDefault(n.ElevatorPitch, "Transforming market opportunities into business success"),
		InvestmentAsk:   dollars(m.Financials.FundingNeeded),
		MarketSize:      dollars(m.Market.TAM),
		ProjectedRevenue: map[string]string{
			"year_1": dollars(m.Financials.Year1Revenue),
			"year_2": dollars(m.Financials.Year2Revenue),
			"year_3": dollars(m.Financials.Year3Revenue),
		},
		KeyHighlights: []string{
			dollars(m.Market.TAM) + " total addressable market",
			fmt.Sprintf("%.1f%% market growth rate", m.Market.GrowthRate),
			fmt.Sprintf("%d key competitive advantages", len(n.SolutionOverview.KeyBenefits)),
			fmt.Sprintf("%d identified market gaps", m.Competitive.MarketGaps),
		},
		ProblemSolved:        orDefault(n.ProblemStatement.PrimaryProblem, "Market opportunity identified"),
		SolutionSummary:      orDefault(n.SolutionOverview.CoreSolution, "Innovative market solution"),
		CompetitiveAdvantage: orDefault(n.CompetitiveAdvantage.Differentiation, "Unique market positioning"),
		UseOfFunds:           orDefault(n.FinancialProjections.UseOfFunds, "Product development and market expansion"),
	}
}

type pitchDeployRequest struct {
	PitchName            string           `json:"pitch_name"`
	ExecutiveSummary     ExecutiveSummary `json:"executive_summary"`
	PresentationMetadata map[string]any   `json:"presentation_metadata"`
	CreateLandingPage    bool             `json:"create_landing_page"`
	LandingPageData      map[string]any   `json:"landing_page_data,omitempty"`
}

type pitchDeployResponse struct {
	Success        bool   `json:"success"`
	DocumentID     string `json:"document_id"`
	SiteID         string `json:"site_id"`
	LandingPageURL string `json:"landing_page_url"`
	PreviewURL     string `json:"preview_url"`
}

// GeneratePitch builds the narrative, metrics and executive summary, then
// optionally publishes the pitch through the renderer. Narrative and deploy
// failures degrade to warnings.
func GeneratePitch(ctx context.Context, in PitchInput) *Pitch {
	p := &Pitch{GeneratedAt: time.Now().UTC(), DeploymentStatus: "skipped"}

	n, err := GenerateNarrative(ctx, in)
	if err != nil {
		p.Warnings = append(p.Warnings, err.Error())
		slog.Warn("pitch: narrative fallback", slog.Any("error", err))
	}
	p.Narrative = n
	p.Metrics = ExtractKeyMetrics(in)
	p.Summary = BuildExecutiveSummary(n, p.Metrics)

	if !in.Deploy {
		return p
	}
	if err := deployPitch(ctx, p, in); err != nil {
		p.DeploymentStatus = "failed"
		p.Warnings = append(p.Warnings, err.Error())
		return p
	}
	p.DeploymentStatus = "success"
	return p
}

func deployPitch(ctx context.Context, p *Pitch, in PitchInput) error {
	landing := map[string]any{
		"market_highlights": p.Metrics.Market,
		"contact_info":      in.ContactInfo,
	}
	if in.Brand != nil {
		landing["custom_branding"] = in.Brand.Visual
	}
	req := pitchDeployRequest{
		PitchName:        p.Summary.OpportunityName,
		ExecutiveSummary: p.Summary,
		PresentationMetadata: map[string]any{
			"title":                p.Summary.OpportunityName,
			"subtitle":             p.Summary.Tagline,
			"generated_by":         "go_market",
			"generation_timestamp": p.GeneratedAt.Format(time.RFC3339),
		},
		CreateLandingPage: in.CreateLanding,
		LandingPageData:   landing,
	}
	engine.IncrRendererDeploys()
	res, err := callRenderer[pitchDeployResponse](ctx, http.MethodPost, "/api/pitch/deploy", req)
	if err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("renderer rejected pitch %q", req.PitchName)
	}
	p.DocumentID = res.DocumentID
	p.SiteID = res.SiteID
	p.LandingPageURL = res.LandingPageURL
	p.PreviewURL = res.PreviewURL
	if res.SiteID != "" {
		base, _ := rendererBase()
		p.MetricsURL = base + "/api/sites/" + url.PathEscape(res.SiteID) + "/metrics"
	}
	return nil
}
