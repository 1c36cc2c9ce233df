package renderer

import (
	"strconv"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const landingTemplate = `<!DOCTYPE html>
<html><head><title>{{.headline}} | {{.brand_name}}</title></head>
<body>
<h1>{{.headline}}</h1>
{{range .features}}<h3>{{.title}}</h3>{{end}}
<footer>&copy; {{.current_year}} {{.brand_name}} {{.site_id}}</footer>
</body></html>`

func TestRenderSite(t *testing.T) {
	content := map[string]any{
		"brand_name": "Kitchly",
		"headline":   "Rent a <kitchen>",
		"features": []any{
			map[string]any{"title": "Fast"},
			map[string]any{"title": "Cheap"},
		},
	}
	html, err := RenderSite(Assets{
		HTMLTemplate: landingTemplate,
		CSSStyles:    "body { color: red; }",
		JavaScript:   "console.log('site');",
	}, content, "abc123", "http://r.test")
	require.NoError(t, err)

	assert.Contains(t, html, "Rent a &lt;kitchen&gt;")
	assert.Contains(t, html, "<h3>Fast</h3><h3>Cheap</h3>")
	assert.Contains(t, html, strconv.Itoa(time.Now().Year())+" Kitchly abc123")
	assert.Less(t, strings.Index(html, "<style>"), strings.Index(html, "</head>"))
	assert.Contains(t, html, `window.SITE_ID = "abc123";`)
	assert.Contains(t, html, `"http://r.test/api/track"`)
	assert.Less(t, strings.Index(html, "console.log('site');"), strings.LastIndex(html, "</body>"))
	assert.NotContains(t, content, "site_id", "input content must not be mutated")
}

func TestRenderSite_TemplateError(t *testing.T) {
	_, err := RenderSite(Assets{HTMLTemplate: "{{.broken"}, nil, "x", "http://r.test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse template")
}

func TestRenderSite_NoBodyOrHead(t *testing.T) {
	html, err := RenderSite(Assets{HTMLTemplate: "<p>{{.site_url}}</p>", CSSStyles: "p{}"}, nil, "x", "http://r.test")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(html, "<style>"))
	assert.Contains(t, html, "<p>http://r.test/site/x</p>")
	assert.True(t, strings.HasSuffix(html, "</script>\n"))
}

func TestScores(t *testing.T) {
	p, seo, conv := Scores("<p>small</p>", nil, nil)
	assert.Equal(t, 95, p)
	assert.Equal(t, 85, seo)
	assert.Equal(t, 80, conv)

	p, seo, conv = Scores(strings.Repeat("x", 50000), map[string]any{"title": "t"}, map[string]any{"scroll_tracking": true})
	assert.Equal(t, 90, p)
	assert.Equal(t, 98, seo)
	assert.Equal(t, 92, conv)

	p, _, _ = Scores(strings.Repeat("x", 2_000_000), nil, nil)
	assert.Equal(t, 0, p)
}

func TestPreviewBanner(t *testing.T) {
	s := &Site{ID: "abc", CreatedAt: time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)}
	out := previewBanner(`<html><body class="x"><h1>Hi</h1></body></html>`, s)
	assert.Contains(t, out, `<body class="x"><div style=`)
	assert.Contains(t, out, "PREVIEW MODE - Site ID: abc | Created: 2026-03-01 10:30")

	out = previewBanner("<h1>Hi</h1>", s)
	assert.True(t, strings.HasPrefix(out, "<div"))
}

func TestRenderPitch(t *testing.T) {
	html, err := RenderPitch(map[string]any{
		"pitch_name": "Kitchly",
		"executive_summary": map[string]any{
			"tagline":           "Kitchens on demand",
			"investment_ask":    "$1.5M",
			"problem_solved":    "Idle commercial kitchens",
			"solution_summary":  "A booking marketplace",
			"key_highlights":    []any{"$5B market", "Two-sided network"},
			"projected_revenue": map[string]any{"year_1": "$500K"},
		},
		"contact_info": map[string]any{"email": "founders@kitchly.io"},
		"document_url": "http://r.test/api/pdf/d1/download",
	}, "s1", "http://r.test")
	require.NoError(t, err)

	assert.Contains(t, html, "<title>Kitchly - Investment Opportunity</title>")
	assert.Contains(t, html, "Raising $1.5M")
	assert.Contains(t, html, "<li>$5B market</li>")
	assert.Contains(t, html, "<strong>$500K</strong>year_1")
	assert.Contains(t, html, "founders@kitchly.io")
	assert.Contains(t, html, `data-track="pdf-download" href="http://r.test/api/pdf/d1/download"`)
	assert.Contains(t, html, `window.SITE_ID = "s1";`)
}

func TestRenderSite_MultiByteContent(t *testing.T) {
	// İ lower-cases to a longer byte sequence; offsets must come from the original text.
	tmpl := `<html><head><title>{{.city}}</title></HEAD><body><h1>{{.city}}</h1></BODY></html>`
	html, err := RenderSite(Assets{HTMLTemplate: tmpl, CSSStyles: "h1{}"},
		map[string]any{"city": strings.Repeat("İ", 20) + " İstanbul"}, "tr1", "http://r.test")
	require.NoError(t, err)

	assert.True(t, utf8.ValidString(html))
	assert.Contains(t, html, "<h1>"+strings.Repeat("İ", 20)+" İstanbul</h1>")
	assert.True(t, strings.HasSuffix(html, "</script>\n</BODY></html>"))
	assert.Contains(t, html, "</style>\n</HEAD>")
}

func TestPreviewBanner_MultiByteHead(t *testing.T) {
	s := &Site{ID: "tr", CreatedAt: time.Now()}
	doc := "<html><head><title>" + strings.Repeat("İ", 30) + "</title></head><BODY class=\"x\"><p>K</p></BODY></html>"
	out := previewBanner(doc, s)

	assert.True(t, utf8.ValidString(out))
	assert.Less(t, strings.Index(out, `<BODY class="x">`), strings.Index(out, "PREVIEW MODE"))
	assert.True(t, strings.HasPrefix(out, "<html><head><title>"+strings.Repeat("İ", 30)))
}

func TestInjectBefore_LastMatch(t *testing.T) {
	doc := `<body><pre>&lt;/body&gt;</pre><p></body></p></body>`
	out := injectBefore(doc, bodyCloseRe, "<X>", false)
	assert.True(t, strings.HasSuffix(out, "<X></body>"))
}
