package market

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/anatolykoptev/go_market/internal/engine"
)

// DesignRequirements constrain the generated landing page.
type DesignRequirements struct {
	DesignStyle        string   `json:"design_style"`
	LayoutComplexity   string   `json:"layout_complexity"`
	ColorPalette       []string `json:"color_palette"`
	TypographyStyle    string   `json:"typography_style"`
	BrandVoice         string   `json:"brand_voice"`
	PersonalityTraits  []string `json:"personality_traits"`
	ConversionFocus    string   `json:"conversion_focus"`
	MobilePriority     bool     `json:"mobile_priority"`
	AccessibilityLevel string   `json:"accessibility_level"`
	AnimationLevel     string   `json:"animation_level"`
}

// SiteAssets is what the renderer needs to build a page.
type SiteAssets struct {
	HTMLTemplate string         `json:"html_template"`
	CSSStyles    string         `json:"css_styles"`
	JavaScript   string         `json:"javascript"`
	Config       map[string]any `json:"config"`
}

type Feature struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type Testimonial struct {
	Quote   string `json:"quote"`
	Author  string `json:"author"`
	Title   string `json:"title"`
	Company string `json:"company"`
}

type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// ContentData fills the landing template.
type ContentData struct {
	BrandName    string           `json:"brand_name"`
	Tagline      string           `json:"tagline"`
	Headline     string           `json:"headline"`
	Description  string           `json:"description"`
	Features     []Feature        `json:"features"`
	PricingPlans []map[string]any `json:"pricing_plans"`
	Testimonials []Testimonial    `json:"testimonials"`
	FAQs         []FAQ            `json:"faqs"`
}

// DeployRequest is the body of POST /api/deploy.
type DeployRequest struct {
	SiteName    string         `json:"site_name"`
	Assets      SiteAssets     `json:"assets"`
	ContentData ContentData    `json:"content_data"`
	MetaData    map[string]any `json:"meta_data,omitempty"`
	Analytics   map[string]any `json:"analytics,omitempty"`
}

// DeployResult is the renderer's reply to a deploy.
type DeployResult struct {
	Success          bool   `json:"success"`
	SiteID           string `json:"site_id"`
	LiveURL          string `json:"live_url"`
	PreviewURL       string `json:"preview_url"`
	Status           string `json:"status"`
	PerformanceScore int    `json:"performance_score"`
	SEOScore         int    `json:"seo_score"`
	ConversionScore  int    `json:"conversion_score"`
}

// LandingPage is the outcome of building and deploying a landing page.
type LandingPage struct {
	DeploymentStatus string              `json:"deployment_status"`
	BrandName        string              `json:"brand_name"`
	SiteID           string              `json:"site_id,omitempty"`
	LiveURL          string              `json:"live_url,omitempty"`
	PreviewURL       string              `json:"preview_url,omitempty"`
	AnalyticsURL     string              `json:"analytics_url,omitempty"`
	DashboardURL     string              `json:"dashboard_url,omitempty"`
	Design           *DesignRequirements `json:"design_requirements,omitempty"`
	Functionality    []string            `json:"functionality,omitempty"`
	TestingChecklist []string            `json:"testing_checklist,omitempty"`
	Error            string              `json:"error,omitempty"`
	FallbackAssets   *SiteAssets         `json:"fallback_assets,omitempty"`
}

var defaultPalette = []string{"#2563eb", "#1e40af", "#3b82f6"}

// DesignRequirementsFor maps brand personality to a design style.
func DesignRequirementsFor(b *BrandIdentity) DesignRequirements {
	traits := make([]string, 0, len(b.Personality.Traits))
	for _, t := range b.Personality.Traits {
		traits = append(traits, strings.ToLower(strings.TrimSpace(t)))
	}
	voice := orDefault(b.Personality.Voice, "professional")
	lv := strings.ToLower(voice)

	style := "modern-minimal"
	switch {
	case slices.Contains(traits, "innovative") || strings.Contains(lv, "cutting-edge"):
		style = "futuristic-bold"
	case slices.Contains(traits, "friendly") || strings.Contains(lv, "approachable"):
		style = "warm-friendly"
	case slices.Contains(traits, "premium") || strings.Contains(lv, "luxury"):
		style = "premium-elegant"
	}

	palette := []string(b.Visual.ColorPalette)
	if len(palette) == 0 {
		palette = defaultPalette
	}
	return DesignRequirements{
		DesignStyle:        style,
		LayoutComplexity:   "medium",
		ColorPalette:       palette,
		TypographyStyle:    orDefault(string(b.Visual.Typography), "modern-sans"),
		BrandVoice:         voice,
		PersonalityTraits:  traits,
		ConversionFocus:    "early_signup",
		MobilePriority:     true,
		AccessibilityLevel: "wcag_aa",
		AnimationLevel:     "subtle",
	}
}

// ValidateTemplate parses tmpl as an html/template and renders it against
// sample content.
func ValidateTemplate(tmpl string) error {
	t, err := template.New("landing").Option("missingkey=zero").Parse(tmpl)
	if err != nil {
		return fmt.Errorf("template syntax: %w", err)
	}
	sample := map[string]any{
		"brand_name":    "Test Brand",
		"headline":      "Test Headline",
		"description":   "Test Description",
		"tagline":       "Test Tagline",
		"features":      []any{map[string]any{"title": "Test Feature", "description": "Test Description", "icon": "*"}},
		"testimonials":  []any{map[string]any{"quote": "Test Quote", "author": "Test Author", "title": "Test Title"}},
		"faqs":          []any{map[string]any{"question": "Test Question?", "answer": "Test Answer"}},
		"pricing_plans": []any{},
		"current_year":  time.Now().Year(),
		"site_id":       "test",
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, sample); err != nil {
		return fmt.Errorf("template render: %w", err)
	}
	return nil
}

const htmlTemplatePrompt = `Create a complete HTML landing page template.

Brand: %s
Copy: %s
Design requirements: %s

Rules:
1. Use Go html/template syntax for all dynamic content, e.g. {{.brand_name}}.
2. Available fields: brand_name, tagline, headline, description, features, pricing_plans, testimonials, faqs, current_year.
3. Loop lists with {{range .features}}{{.title}} {{.description}}{{end}}.
4. No embedded CSS or JavaScript: the renderer injects them.
5. Add data-track attributes to CTAs and forms.
6. Design style: %s.

Return only the HTML.`

// GenerateHTMLTemplate asks the LLM for a page template and falls back to the
// built-in one when the call fails or the result does not validate.
func GenerateHTMLTemplate(ctx context.Context, b *BrandIdentity, mc *MarketingCopy, d DesignRequirements) string {
	prompt := fmt.Sprintf(htmlTemplatePrompt, jsonSnippet(b, 2000), jsonSnippet(mc, 2000), jsonSnippet(d, 1000), d.DesignStyle)
	raw, err := engine.CallLLMWith(ctx, prompt, engine.CallOpts{Temperature: 0.3})
	if err != nil {
		slog.Warn("landing: template generation failed", slog.Any("error", err))
		return fallbackTemplate
	}
	tmpl := stripHTMLFences(raw)
	if err := ValidateTemplate(tmpl); err != nil {
		slog.Warn("landing: generated template invalid, using fallback", slog.Any("error", err))
		return fallbackTemplate
	}
	return tmpl
}

func stripHTMLFences(s string) string {
	s = strings.TrimSpace(s)
	for _, p := range []string{"```html", "```"} {
		s = strings.TrimPrefix(s, p)
	}
	return strings.TrimSpace(strings.TrimSuffix(s, "```"))
}

const fallbackTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.headline}} | {{.brand_name}}</title>
    <meta name="description" content="{{.description}}">
</head>
<body>
    <header class="header">
        <div class="container">
            <div class="logo">{{.brand_name}}</div>
            <button class="cta-nav" data-track="nav-cta">Get Started</button>
        </div>
    </header>
    <section class="hero">
        <div class="container">
            <h1>{{.headline}}</h1>
            <p>{{.description}}</p>
            <button class="cta-primary" data-track="cta-primary">Get Started</button>
        </div>
    </section>
    <section class="features">
        <div class="container">
            <h2>Why Choose {{.brand_name}}?</h2>
            <div class="features-grid">
                {{range .features}}
                <div class="feature-card" data-track="feature-click">
                    <h3>{{.title}}</h3>
                    <p>{{.description}}</p>
                </div>
                {{end}}
            </div>
        </div>
    </section>
    <section class="testimonials">
        <div class="container">
            <h2>What Our Customers Say</h2>
            <div class="testimonials-grid">
                {{range .testimonials}}
                <div class="testimonial-card">
                    <p>"{{.quote}}"</p>
                    <div class="author">- {{.author}}, {{.title}}</div>
                </div>
                {{end}}
            </div>
        </div>
    </section>
    <section class="faq">
        <div class="container">
            <h2>Frequently Asked Questions</h2>
            <div class="faq-list">
                {{range .faqs}}
                <div class="faq-item">
                    <h3>{{.question}}</h3>
                    <p>{{.answer}}</p>
                </div>
                {{end}}
            </div>
        </div>
    </section>
    <section class="cta-section">
        <div class="container">
            <h2>Ready to Get Started?</h2>
            <form class="signup-form" data-track="form-submit">
                <input type="email" name="email" placeholder="Enter your email" required>
                <button type="submit">Start Free Trial</button>
            </form>
        </div>
    </section>
    <footer class="footer">
        <div class="container">
            <p>&copy; {{.current_year}} {{.brand_name}}. All rights reserved.</p>
        </div>
    </footer>
</body>
</html>`

const cssTemplate = `/* {brand} */
* { margin: 0; padding: 0; box-sizing: border-box; }
body { font-family: 'Inter', -apple-system, BlinkMacSystemFont, sans-serif; line-height: 1.6; }
.container { max-width: 1200px; margin: 0 auto; padding: 0 20px; }
.header { background: white; padding: 1rem 0; border-bottom: 1px solid #e5e7eb; }
.header .container { display: flex; justify-content: space-between; align-items: center; }
.logo { font-size: 1.5rem; font-weight: 700; color: {primary}; }
.cta-primary, .cta-nav {
    background: {primary};
    color: white;
    padding: 0.75rem 1.5rem;
    border: none;
    border-radius: 6px;
    font-weight: 600;
    cursor: pointer;
    transition: all 0.3s ease;
}
.hero { padding: 4rem 0; background: linear-gradient(135deg, #f8fafc 0%, #e2e8f0 100%); }
.hero h1 { font-size: 3rem; margin-bottom: 1rem; color: #1f2937; }
.hero p { font-size: 1.25rem; color: #6b7280; margin-bottom: 2rem; }
.features { padding: 4rem 0; }
.features-grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(300px, 1fr)); gap: 2rem; }
.feature-card { padding: 2rem; border-radius: 8px; background: #f8fafc; transition: all 0.3s ease; }
.cta-section { padding: 4rem 0; background: {primary}; color: white; text-align: center; }
@media (max-width: 768px) {
    .hero h1 { font-size: 2rem; }
    .features-grid { grid-template-columns: 1fr; }
}
`

// GenerateCSS renders the stylesheet in the brand's primary color.
func GenerateCSS(b *BrandIdentity, d DesignRequirements) string {
	primary := defaultPalette[0]
	if len(d.ColorPalette) > 0 && d.ColorPalette[0] != "" {
		primary = d.ColorPalette[0]
	}
	return strings.NewReplacer("{brand}", orDefault(b.BrandName, "Brand"), "{primary}", primary).Replace(cssTemplate)
}

// landingJS relies on the trackEvent function the renderer injects.
const landingJS = `document.addEventListener('click', function(e) {
    const el = e.target.closest('[data-track]');
    if (el) {
        const kind = el.getAttribute('data-track');
        trackEvent(kind + '_click', {element: kind, text: el.textContent.trim().substring(0, 50)});
    }
});
document.addEventListener('submit', function(e) {
    const form = e.target;
    if (!form.matches('[data-track="form-submit"]')) return;
    e.preventDefault();
    const email = new FormData(form).get('email');
    if (!email || !email.includes('@')) {
        alert('Please enter a valid email address');
        return;
    }
    trackEvent('form_submit', {form_type: 'signup', has_email: true});
    const btn = form.querySelector('button[type="submit"]');
    const label = btn.textContent;
    btn.textContent = 'Thank you!';
    btn.disabled = true;
    setTimeout(() => { btn.textContent = label; btn.disabled = false; form.reset(); }, 2000);
});
const scrollMarks = [25, 50, 75, 100];
const seenMarks = new Set();
window.addEventListener('scroll', function() {
    const pct = (window.scrollY / (document.body.scrollHeight - window.innerHeight)) * 100;
    scrollMarks.forEach(m => {
        if (pct >= m && !seenMarks.has(m)) {
            seenMarks.add(m);
            trackEvent('scroll_depth', {percentage: m});
        }
    });
});
`

var defaultFeatures = []Feature{
	{Title: "Easy Integration", Description: "Connect with your existing tools in minutes", Icon: "🔗"},
	{Title: "Save Time", Description: "Automate repetitive tasks and focus on what matters", Icon: "⏰"},
	{Title: "Secure & Reliable", Description: "Enterprise-grade security and 99.9% uptime", Icon: "🔒"},
}

var defaultTestimonials = []Testimonial{
	{Quote: "This solution transformed our workflow completely.", Author: "Sarah Johnson", Title: "Operations Manager", Company: "TechCorp"},
	{Quote: "We're saving 10+ hours per week on manual tasks.", Author: "Mike Chen", Title: "Team Lead", Company: "StartupXYZ"},
}

var defaultFAQs = []FAQ{
	{Question: "How quickly can I get started?", Answer: "Most teams are up and running within 15 minutes."},
	{Question: "Do you integrate with my existing tools?", Answer: "Yes, we support the most popular business tools and keep adding integrations."},
	{Question: "Is my data secure?", Answer: "We use enterprise-grade security and never store your sensitive data permanently."},
}

// PrepareContentData builds template content. Features come from the value
// propositions (at most six), else a default set.
func PrepareContentData(b *BrandIdentity, mc *MarketingCopy) ContentData {
	var features []Feature
	for i, vp := range mc.ValuePropositions {
		if i == 6 {
			break
		}
		features = append(features, Feature{Title: fmt.Sprintf("Feature %d", i+1), Description: vp, Icon: "⚡"})
	}
	if len(features) == 0 {
		features = defaultFeatures
	}

	headline := mc.WebsiteCopy.HeroHeadline
	if headline == "" && len(mc.Headlines) > 0 {
		headline = mc.Headlines[0]
	}
	return ContentData{
		BrandName:    orDefault(b.BrandName, "Demo Site"),
		Tagline:      b.Tagline,
		Headline:     orDefault(headline, "Transform Your Workflow"),
		Description:  orDefault(b.ValueProposition, "The best solution for your needs"),
		Features:     features,
		PricingPlans: []map[string]any{},
		Testimonials: defaultTestimonials,
		FAQs:         defaultFAQs,
	}
}

// SiteName is the lower-cased, dash-joined brand name.
func SiteName(brandName string) string {
	name := strings.Join(strings.Fields(strings.ToLower(brandName)), "-")
	return orDefault(name, "landing-page")
}

// BuildLanding assembles the full deploy request for a brand.
func BuildLanding(ctx context.Context, b *BrandIdentity, mc *MarketingCopy) (*DeployRequest, DesignRequirements, error) {
	design := DesignRequirementsFor(b)
	tmpl := GenerateHTMLTemplate(ctx, b, mc, design)
	if err := ValidateTemplate(tmpl); err != nil {
		return nil, design, fmt.Errorf("landing: %w", err)
	}
	content := PrepareContentData(b, mc)
	return &DeployRequest{
		SiteName: SiteName(b.BrandName),
		Assets: SiteAssets{
			HTMLTemplate: tmpl,
			CSSStyles:    GenerateCSS(b, design),
			JavaScript:   landingJS,
			Config: map[string]any{
				"responsive":          true,
				"analytics_enabled":   true,
				"conversion_tracking": true,
			},
		},
		ContentData: content,
		MetaData: map[string]any{
			"title":       content.BrandName + " - " + content.Tagline,
			"description": engine.TruncateRunes(content.Description, 160, ""),
			"keywords":    []string{strings.ToLower(content.BrandName)},
			"brand_style": b.Visual,
		},
		Analytics: map[string]any{
			"conversion_events":   []string{"cta-primary", "cta-secondary", "form-submit"},
			"engagement_tracking": true,
			"scroll_tracking":     true,
		},
	}, design, nil
}

// DeployLanding posts a site to the renderer.
func DeployLanding(ctx context.Context, req *DeployRequest) (*DeployResult, error) {
	engine.IncrRendererDeploys()
	res, err := callRenderer[DeployResult](ctx, http.MethodPost, "/api/deploy", req)
	if err != nil {
		return nil, err
	}
	if !res.Success || res.SiteID == "" {
		return nil, fmt.Errorf("renderer rejected deploy of %q", req.SiteName)
	}
	return res, nil
}

// BuildAndDeployLanding builds and deploys a landing page. A failed deploy
// still returns the generated assets.
func BuildAndDeployLanding(ctx context.Context, b *BrandIdentity, mc *MarketingCopy) *LandingPage {
	lp := &LandingPage{DeploymentStatus: "failed", BrandName: orDefault(b.BrandName, "Your Brand")}
	req, design, err := BuildLanding(ctx, b, mc)
	lp.Design = &design
	if err != nil {
		lp.Error = err.Error()
		return lp
	}
	res, err := DeployLanding(ctx, req)
	if err != nil {
		lp.Error = err.Error()
		lp.FallbackAssets = &req.Assets
		return lp
	}
	base, _ := rendererBase()
	lp.DeploymentStatus = "success"
	lp.SiteID = res.SiteID
	lp.LiveURL = res.LiveURL
	lp.PreviewURL = res.PreviewURL
	lp.AnalyticsURL = base + "/api/sites/" + res.SiteID + "/metrics"
	lp.DashboardURL = base + "/dashboard"
	lp.Functionality = []string{
		"Responsive single-page layout",
		fmt.Sprintf("%d product features", len(req.ContentData.Features)),
		fmt.Sprintf("%d customer testimonials", len(req.ContentData.Testimonials)),
		"Lead capture form with email validation",
		"Click, form and scroll-depth analytics",
	}
	lp.TestingChecklist = []string{
		"Test the main CTA button and form submission",
		"Verify mobile responsiveness",
		"Review all copy for clarity",
		"Share the live URL and watch conversion metrics",
		"Prepare follow-up sequences for " + lp.BrandName + " leads",
	}
	return lp
}
