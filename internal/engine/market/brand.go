package market

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/anatolykoptev/go_market/internal/engine"
)

// BrandPersonality describes voice and tone.
type BrandPersonality struct {
	Voice  string     `json:"voice"`
	Tone   string     `json:"tone"`
	Traits StringList `json:"personality_traits"`
}

// VisualIdentity holds palette and typography hints.
type VisualIdentity struct {
	ColorPalette StringList `json:"color_palette"`
	Typography   FlexString `json:"typography"`
	ImageryStyle FlexString `json:"imagery_style"`
}

// MessagingFramework is the message hierarchy for copywriting.
type MessagingFramework struct {
	PrimaryMessage        string     `json:"primary_message"`
	SupportingMessages    StringList `json:"supporting_messages"`
	DifferentiationPoints StringList `json:"differentiation_points"`
}

// BrandIdentity is a brand generated for one opportunity.
type BrandIdentity struct {
	OpportunityName         string             `json:"opportunity_name"`
	BrandName               string             `json:"brand_name"`
	Tagline                 string             `json:"tagline"`
	PositioningStatement    string             `json:"positioning_statement"`
	ValueProposition        string             `json:"value_proposition"`
	TargetAudience          string             `json:"target_audience"`
	Personality             BrandPersonality   `json:"brand_personality"`
	Visual                  VisualIdentity     `json:"visual_identity"`
	Messaging               MessagingFramework `json:"messaging_framework"`
	DomainSuggestions       []DomainOption     `json:"domain_suggestions"`
	TrademarkConsiderations []string           `json:"trademark_considerations"`
}

const brandPrompt = `Create a comprehensive brand identity for this market opportunity:

%s

Return a JSON object:
{
  "brand_name": "memorable, unique brand name",
  "tagline": "compelling 3-7 word tagline",
  "positioning_statement": "one sentence positioning vs competitors",
  "value_proposition": "clear value statement for target users",
  "target_audience": "specific target customer description",
  "brand_personality": {"voice": "...", "tone": "...", "personality_traits": ["..."]},
  "visual_identity": {"color_palette": ["#primary", "#secondary", "#accent"], "typography": "...", "imagery_style": "..."},
  "messaging_framework": {"primary_message": "...", "supporting_messages": ["..."], "differentiation_points": ["..."]}
}

Focus on liminal positioning: how this sits between existing categories.`

// GenerateBrandIdentity asks the LLM for a brand, then attaches domain
// suggestions with live availability and trademark notes.
func GenerateBrandIdentity(ctx context.Context, o Opportunity) (*BrandIdentity, error) {
	prompt := fmt.Sprintf(brandPrompt, jsonSnippet(o, 4000))
	b, err := engine.CallLLMJSON[BrandIdentity](ctx, prompt, engine.CallOpts{Temperature: 0.3})
	if err != nil {
		return nil, fmt.Errorf("brand identity: %w", err)
	}
	b.OpportunityName = orDefault(o.OpportunityName, "Unknown Opportunity")
	if strings.TrimSpace(b.BrandName) == "" {
		b.BrandName = b.OpportunityName
	}
	if suggestions := DomainSuggestions(b.BrandName); len(suggestions) > 0 {
		b.DomainSuggestions = checkOptions(ctx, suggestions)
	}
	b.TrademarkConsiderations = TrademarkConsiderations(b.BrandName)
	return b, nil
}

// DomainSuggestions lists three primary and five alternative domains for a
// brand name.
func DomainSuggestions(brandName string) []DomainOption {
	base := DomainBase(brandName)
	if base == "" {
		return nil
	}
	var out []DomainOption
	for _, d := range []string{base + ".com", base + ".io", base + ".co"} {
		out = append(out, DomainOption{Domain: d, Priority: "high", Recommendation: "primary_option"})
	}
	for _, d := range []string{"get" + base + ".com", base + "app.com", base + "hq.com", base + "pro.com", "try" + base + ".com"} {
		out = append(out, DomainOption{Domain: d, Priority: "medium", Recommendation: "alternative_option"})
	}
	return out
}

// TrademarkConsiderations returns the standard clearance checklist plus
// name-specific warnings.
func TrademarkConsiderations(brandName string) []string {
	if strings.TrimSpace(brandName) == "" {
		return []string{"No brand name provided for assessment"}
	}
	out := []string{
		"Conduct comprehensive trademark search before final selection",
		"Check for existing trademarks in relevant business categories",
		"Consider international trademark implications",
		"Verify domain availability for primary brand name",
		"Search for existing companies with similar names",
	}
	if len(strings.Fields(brandName)) > 2 {
		out = append(out, "Multi-word names may be harder to trademark")
	}
	if strings.IndexFunc(brandName, unicode.IsDigit) >= 0 {
		out = append(out, "Names with numbers may face trademark challenges")
	}
	return out
}

// AdCopy holds short-form ad variants per network.
type AdCopy struct {
	GoogleAds   StringList `json:"google_ads"`
	FacebookAds StringList `json:"facebook_ads"`
}

// WebsiteCopy is the section copy of a landing page.
type WebsiteCopy struct {
	HeroHeadline    string `json:"hero_headline"`
	HeroSubheadline string `json:"hero_subheadline"`
	ProblemSection  string `json:"problem_section"`
	SolutionSection string `json:"solution_section"`
	BenefitsSection string `json:"benefits_section"`
	HowItWorks      string `json:"how_it_works"`
	CTAPrimary      string `json:"cta_primary"`
	CTASecondary    string `json:"cta_secondary"`
}

// EmailMessage is one email in a sequence.
type EmailMessage struct {
	Subject string `json:"subject"`
	Preview string `json:"preview"`
	Body    string `json:"body"`
}

// MarketingCopy is the full copy package for a brand.
type MarketingCopy struct {
	BrandName         string                    `json:"brand_name"`
	Headlines         StringList                `json:"headlines"`
	Taglines          StringList                `json:"taglines"`
	ValuePropositions StringList                `json:"value_propositions"`
	AdCopy            AdCopy                    `json:"ad_copy"`
	WebsiteCopy       WebsiteCopy               `json:"website_copy"`
	EmailSequences    map[string][]EmailMessage `json:"email_sequences"`
	SocialCopy        map[string][]string       `json:"social_media_copy"`
	Errors            map[string]string         `json:"errors,omitempty"`
}

type coreCopy struct {
	Headlines         StringList `json:"headlines"`
	Taglines          StringList `json:"taglines"`
	ValuePropositions StringList `json:"value_propositions"`
	AdCopy            AdCopy     `json:"ad_copy"`
}

const coreCopyPrompt = `Create marketing copy for this brand and opportunity.

Brand: %s
Opportunity: %s

Return a JSON object:
{
  "headlines": ["primary landing headline", "alternative headline", "email subject headline"],
  "taglines": ["3-word tagline", "5-word tagline", "7-word tagline"],
  "value_propositions": ["outcome-focused", "process-focused", "competitive differentiation"],
  "ad_copy": {"google_ads": ["30-char headline", "90-char description"], "facebook_ads": ["primary text (125 chars)", "headline (40 chars)"]}
}

Focus on liminal positioning and immediate user benefits.`

const websiteCopyPrompt = `Generate website copy sections for this brand.

Brand: %s
Value proposition: %s
Target audience: %s
Opportunity: %s

Return a JSON object with hero_headline, hero_subheadline, problem_section,
solution_section, benefits_section, how_it_works, cta_primary, cta_secondary.
Make it specific to %s and avoid generic "workflow automation" language.`

// GenerateMarketingCopy runs the core copy and website copy LLM calls in
// parallel. Website copy falls back to a template; email and social copy are
// templated from the brand.
func GenerateMarketingCopy(ctx context.Context, b *BrandIdentity, o Opportunity) *MarketingCopy {
	mc := &MarketingCopy{
		BrandName:      b.BrandName,
		EmailSequences: EmailSequences(b.BrandName),
		SocialCopy:     SocialCopy(b.BrandName, b.ValueProposition),
		Errors:         map[string]string{},
	}
	brandJSON := jsonSnippet(b, 3000)
	oppJSON := jsonSnippet(o, 3000)

	tasks := []engine.Task[any]{
		{Name: "core_copy", Run: func(ctx context.Context) (any, error) {
			return engine.CallLLMJSON[coreCopy](ctx, fmt.Sprintf(coreCopyPrompt, brandJSON, oppJSON), engine.CallOpts{Temperature: 0.3})
		}},
		{Name: "website_copy", Run: func(ctx context.Context) (any, error) {
			p := fmt.Sprintf(websiteCopyPrompt, b.BrandName, b.ValueProposition, b.TargetAudience, oppJSON, b.BrandName)
			return engine.CallLLMJSON[WebsiteCopy](ctx, p, engine.CallOpts{Temperature: 0.3})
		}},
	}
	opts := engine.Cfg.Parallel
	opts.Workers = 2
	opts.RequestDelay = 0
	opts.TaskTimeout = 90 * time.Second
	opts.CollectTimeout = 2 * time.Minute
	outcomes, _ := engine.RunParallel(ctx, tasks, opts)

	mc.WebsiteCopy = FallbackWebsiteCopy(b)
	for _, out := range outcomes {
		if !out.Success {
			mc.Errors[out.Name] = out.Err.Error()
			slog.Warn("marketing copy: step failed", slog.String("step", out.Name), slog.Any("error", out.Err))
			continue
		}
		switch v := out.Value.(type) {
		case *coreCopy:
			mc.Headlines = v.Headlines
			mc.Taglines = v.Taglines
			mc.ValuePropositions = v.ValuePropositions
			mc.AdCopy = v.AdCopy
		case *WebsiteCopy:
			if v.HeroHeadline != "" {
				mc.WebsiteCopy = *v
			}
		}
	}
	if len(mc.Errors) == 0 {
		mc.Errors = nil
	}
	return mc
}

// FallbackWebsiteCopy is the templated copy used when the LLM is unavailable.
func FallbackWebsiteCopy(b *BrandIdentity) WebsiteCopy {
	name := orDefault(b.BrandName, "Solution")
	value := orDefault(b.ValueProposition, "Transform your workflow")
	audience := orDefault(b.TargetAudience, "teams")
	return WebsiteCopy{
		HeroHeadline:    "Finally, " + strings.ToLower(value),
		HeroSubheadline: name + " bridges the gap between your existing tools to eliminate manual work and reduce errors.",
		ProblemSection: fmt.Sprintf("**The Problem %s Face**\n\nYou're switching between multiple tools, copying data manually, "+
			"and losing time on tasks that should be automated.", titleCase(audience)),
		SolutionSection: fmt.Sprintf("**How %s Works**\n\n%s sits in the gap between your existing tools, automatically handling "+
			"the connections and data transfers that currently require manual work.", name, name),
		BenefitsSection: "**What You'll Achieve**\n\n- Eliminate manual data entry between systems\n" +
			"- Reduce errors from copy-paste workflows\n- Save hours every week on repetitive tasks",
		HowItWorks: fmt.Sprintf("**Simple Integration**\n\n1. **Connect**: Link %s to your existing tools\n"+
			"2. **Configure**: Set up the automated workflows you need\n"+
			"3. **Automate**: Watch as manual processes become seamless automation", name),
		CTAPrimary:   "Start Automating Your Workflow",
		CTASecondary: "See " + name + " in Action",
	}
}

// EmailSequences returns the welcome and nurture sequences for a brand.
func EmailSequences(brandName string) map[string][]EmailMessage {
	name := orDefault(brandName, "Solution")
	return map[string][]EmailMessage{
		"welcome_sequence": {
			{
				Subject: "Welcome to " + name + " - Your workflow just got easier",
				Preview: "Here's what happens next...",
				Body:    "Thanks for joining " + name + "! You're about to eliminate the manual work that's been slowing down your workflow.",
			},
			{
				Subject: "The #1 workflow killer (and how to fix it)",
				Preview: "It's not what you think...",
				Body:    "The biggest productivity killer isn't big problems. It's the small friction points between your tools that add up to hours every week.",
			},
			{
				Subject: "See " + name + " in action (2-minute demo)",
				Preview: "Watch this quick demo...",
				Body:    "Here's a quick demo showing exactly how " + name + " eliminates the manual work between your existing tools.",
			},
		},
		"nurture_sequence": {
			{
				Subject: "Case study: How TeamX saved 15 hours/week",
				Preview: "Real results from real users",
				Body:    "See how one team used " + name + " to eliminate manual data entry and save 15 hours per week.",
			},
			{
				Subject: "The hidden cost of manual workflows",
				Preview: "It's more than just time...",
				Body:    "Manual workflows don't just waste time. They introduce errors, create bottlenecks and prevent scaling.",
			},
		},
	}
}

// SocialCopy returns per-network post drafts.
func SocialCopy(brandName, valueProp string) map[string][]string {
	name := orDefault(brandName, "Solution")
	value := orDefault(valueProp, "workflow automation")
	return map[string][]string{
		"twitter_posts": {
			"Stop copying data between tools manually. " + name + " automates the connections your workflow needs.",
			"The gap between your tools is where productivity goes to die. " + name + " bridges those gaps automatically.",
			"Manual workflows don't scale. " + value + " does. See how: [link]",
		},
		"linkedin_posts": {
			"Productivity insight: the biggest workflow bottlenecks aren't in your tools, they're between your tools. " +
				name + " automates the manual handoffs that slow teams down.",
			"Team efficiency tip: audit your manual processes this week. Any task you repeat between different tools is a candidate for " + name + ".",
		},
		"facebook_posts": {
			"Tired of switching between multiple tools and copying data manually? " + name + " connects your existing tools so you can focus on work that matters.",
			"Save hours every week by automating the busy work between your favorite tools. See how " + name + " works: [link]",
		},
	}
}
