package renderer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"maps"
	"regexp"
	"strings"
	"time"
)

// Assets are the raw files of a site as sent by the deploy client.
type Assets struct {
	HTMLTemplate string         `json:"html_template" binding:"required"`
	CSSStyles    string         `json:"css_styles"`
	JavaScript   string         `json:"javascript"`
	Config       map[string]any `json:"config"`
}

// RenderSite executes an html/template against content, then injects the
// stylesheet, the tracking script and the site's own JavaScript. content
// gains current_year, site_id and site_url.
func RenderSite(a Assets, content map[string]any, siteID, baseURL string) (string, error) {
	data := enrichContent(content, siteID, baseURL)
	tmpl, err := template.New("site").Parse(a.HTMLTemplate)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}
	out := buf.String()
	if css := strings.TrimSpace(a.CSSStyles); css != "" {
		out = injectBefore(out, headCloseRe, "<style>\n"+css+"\n</style>\n", true)
	}
	return injectBefore(out, bodyCloseRe, trackingScript(siteID, baseURL, a.JavaScript), false), nil
}

func enrichContent(content map[string]any, siteID, baseURL string) map[string]any {
	data := make(map[string]any, len(content)+3)
	maps.Copy(data, content)
	data["current_year"] = time.Now().Year()
	data["site_id"] = siteID
	data["site_url"] = baseURL + "/site/" + siteID
	return data
}

var (
	headCloseRe = regexp.MustCompile(`(?i)</head\s*>`)
	bodyCloseRe = regexp.MustCompile(`(?i)</body\s*>`)
	bodyOpenRe  = regexp.MustCompile(`(?i)<body(?:\s[^>]*)?>`)
)

// injectBefore inserts snippet before the last match of tag. Without a match
// the snippet is prepended or appended.
func injectBefore(doc string, tag *regexp.Regexp, snippet string, prepend bool) string {
	all := tag.FindAllStringIndex(doc, -1)
	if len(all) == 0 {
		if prepend {
			return snippet + doc
		}
		return doc + snippet
	}
	i := all[len(all)-1][0]
	return doc[:i] + snippet + doc[i:]
}

// trackingScript defines window.SITE_ID and trackEvent, then appends the
// site's JavaScript. Page views are counted server-side.
func trackingScript(siteID, baseURL, siteJS string) string {
	id, _ := json.Marshal(siteID)
	endpoint, _ := json.Marshal(baseURL + "/api/track")
	var sb strings.Builder
	sb.WriteString("<script>\n")
	fmt.Fprintf(&sb, "window.SITE_ID = %s;\n", id)
	fmt.Fprintf(&sb, `function trackEvent(eventType, eventData) {
    try {
        fetch(%s, {
            method: 'POST',
            headers: {'Content-Type': 'application/json'},
            keepalive: true,
            body: JSON.stringify({
                site_id: window.SITE_ID,
                event_type: eventType,
                event_data: eventData || {},
                timestamp: new Date().toISOString(),
                url: window.location.href
            })
        });
    } catch (e) {}
}
document.addEventListener('DOMContentLoaded', function() {
    document.querySelectorAll('[data-track="pdf-download"]').forEach(function(el) {
        el.addEventListener('click', function() { trackEvent('pdf_download', {href: el.href}); });
    });
});
`, endpoint)
	if js := strings.TrimSpace(siteJS); js != "" {
		sb.WriteString(js)
		sb.WriteString("\n")
	}
	sb.WriteString("</script>\n")
	return sb.String()
}

// Scores estimates quality scores for a rendered site: performance drops with
// page weight, SEO and conversion rise when meta data and analytics are set.
func Scores(html string, meta, analytics map[string]any) (performance, seo, conversion int) {
	performance = min(100, max(0, 95-len(html)/10000))
	seo = 85
	if len(meta) > 0 {
		seo = 98
	}
	conversion = 80
	if len(analytics) > 0 {
		conversion = 92
	}
	return performance, seo, conversion
}

// previewBanner marks a page as a preview. It goes right after the opening
// body tag.
func previewBanner(doc string, s *Site) string {
	banner := fmt.Sprintf(`<div style="position:fixed;top:0;left:0;right:0;background:#007bff;color:#fff;padding:10px;text-align:center;z-index:10000;font-family:Inter,sans-serif;font-size:14px">PREVIEW MODE - Site ID: %s | Created: %s</div>
<style>body { margin-top: 50px !important; }</style>
`, template.HTMLEscapeString(s.ID), s.CreatedAt.UTC().Format("2006-01-02 15:04"))
	loc := bodyOpenRe.FindStringIndex(doc)
	if loc == nil {
		return banner + doc
	}
	return doc[:loc[1]] + banner + doc[loc[1]:]
}

var pitchTemplate = template.Must(template.New("pitch").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.pitch_name}} - Investment Opportunity</title>
{{with .executive_summary}}<meta name="description" content="{{.tagline}}">{{end}}
<style>
* { margin: 0; padding: 0; box-sizing: border-box; }
body { font-family: 'Inter', -apple-system, sans-serif; line-height: 1.6; color: #1a202c; background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); min-height: 100vh; }
.container { max-width: 1100px; margin: 0 auto; padding: 0 20px; }
.hero { padding: 80px 20px; text-align: center; color: #fff; }
.hero h1 { font-size: 3rem; margin-bottom: 16px; }
.ask { display: inline-block; margin-top: 24px; padding: 12px 28px; border-radius: 999px; background: #fff; color: #4c51bf; font-weight: 700; }
.card { background: #fff; border-radius: 16px; padding: 32px; margin: 24px 0; box-shadow: 0 10px 30px rgba(0,0,0,0.1); }
.card h2 { margin-bottom: 12px; color: #4c51bf; }
.grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(200px, 1fr)); gap: 16px; }
.metric { background: #f7fafc; border-radius: 12px; padding: 16px; text-align: center; }
.metric strong { display: block; font-size: 1.4rem; }
.cta { display: inline-block; padding: 12px 24px; border-radius: 8px; background: #4c51bf; color: #fff; text-decoration: none; }
footer { text-align: center; color: #fff; padding: 40px 0; opacity: 0.8; }
</style>
</head>
<body>
<section class="hero">
<div class="container">
<h1>{{.pitch_name}}</h1>
{{with .executive_summary}}
<p>{{.tagline}}</p>
{{if .investment_ask}}<div class="ask">Raising {{.investment_ask}}</div>{{end}}
{{end}}
</div>
</section>
<main class="container">
{{with .executive_summary}}
<div class="card">
<h2>The Problem</h2>
<p>{{.problem_solved}}</p>
</div>
<div class="card">
<h2>Our Solution</h2>
<p>{{.solution_summary}}</p>
{{if .competitive_advantage}}<p><em>{{.competitive_advantage}}</em></p>{{end}}
</div>
<div class="card">
<h2>Market &amp; Traction</h2>
<div class="grid">
{{if .market_size}}<div class="metric"><strong>{{.market_size}}</strong>Market size</div>{{end}}
{{range $year, $revenue := .projected_revenue}}<div class="metric"><strong>{{$revenue}}</strong>{{$year}}</div>{{end}}
</div>
</div>
{{if .key_highlights}}
<div class="card">
<h2>Investment Highlights</h2>
<ul>{{range .key_highlights}}<li>{{.}}</li>{{end}}</ul>
</div>
{{end}}
{{if .use_of_funds}}
<div class="card">
<h2>Use of Funds</h2>
<p>{{.use_of_funds}}</p>
</div>
{{end}}
{{end}}
{{with .contact_info}}
<div class="card">
<h2>Contact</h2>
{{range $k, $v := .}}<p><strong>{{$k}}:</strong> {{$v}}</p>{{end}}
</div>
{{end}}
{{if .document_url}}
<div class="card">
<a class="cta" data-track="pdf-download" href="{{.document_url}}">Download the pitch</a>
</div>
{{end}}
</main>
<footer>&copy; {{.current_year}} {{.pitch_name}} &middot; Generated {{.generated_date}}</footer>
</body>
</html>
`))

// RenderPitch renders the built-in pitch landing page. data holds
// pitch_name, executive_summary and any landing page extras.
func RenderPitch(data map[string]any, siteID, baseURL string) (string, error) {
	content := enrichContent(data, siteID, baseURL)
	if _, ok := content["generated_date"]; !ok {
		content["generated_date"] = time.Now().UTC().Format("January 2, 2006")
	}
	var buf bytes.Buffer
	if err := pitchTemplate.Execute(&buf, content); err != nil {
		return "", fmt.Errorf("render pitch: %w", err)
	}
	return injectBefore(buf.String(), bodyCloseRe, trackingScript(siteID, baseURL, ""), false), nil
}
