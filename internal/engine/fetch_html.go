package engine

import (
	"context"
	"regexp"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
)

var (
	wsRe        = regexp.MustCompile(`[ \t]+`)
	blankLineRe = regexp.MustCompile(`\n{3,}`)
)

var noiseSelectors = strings.Join([]string{
	"script", "style", "noscript", "iframe", "svg", "form",
	"header", "footer", "nav", "aside",
	".advertisement", ".ad", ".sidebar", ".comments", ".cookie-banner",
	"[role=navigation]", "[role=banner]", "[role=contentinfo]",
}, ", ")

// FetchURLContent downloads a page and returns its title and main content as markdown.
func FetchURLContent(ctx context.Context, rawURL string) (title, content string, err error) {
	metrics.FetchRequests.Add(1)
	defer func() {
		if err != nil {
			metrics.FetchErrors.Add(1)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, cfg.FetchTimeout)
	defer cancel()

	resp, err := fetchWithRetry(ctx, rawURL)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	body, err := readResponseBody(resp)
	if err != nil {
		return "", "", err
	}
	title, content, err = extractPage(string(body))
	if err != nil {
		return "", "", err
	}
	return title, TruncateRunes(content, cfg.MaxContentChars, "..."), nil
}

// extractPage strips page chrome with goquery and converts the main block to markdown.
// Falls back to the block's plain text when conversion fails.
func extractPage(html string) (title, content string, err error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", "", err
	}

	title = strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title, _ = doc.Find(`meta[property="og:title"]`).First().Attr("content")
	}

	doc.Find(noiseSelectors).Remove()

	block := doc.Find("article, main, .content, .post-content, .article-content, #content").First()
	if block.Length() == 0 {
		block = doc.Find("body")
	}

	inner, err := goquery.OuterHtml(block)
	if err == nil {
		if md, mdErr := htmltomarkdown.ConvertString(inner); mdErr == nil && strings.TrimSpace(md) != "" {
			return title, normalizeText(md), nil
		}
	}
	return title, normalizeText(block.Text()), nil
}

func normalizeText(s string) string {
	s = wsRe.ReplaceAllString(s, " ")
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	s = strings.Join(lines, "\n")
	return strings.TrimSpace(blankLineRe.ReplaceAllString(s, "\n\n"))
}

// FetchContentsParallel fetches page content for each result whose URL is not in skip.
// Fetches run on a bounded pool without request pacing.
func FetchContentsParallel(ctx context.Context, results []SearchResult, skip map[string]bool) map[string]string {
	var tasks []Task[string]
	for _, r := range results {
		if skip[r.URL] || r.URL == "" {
			continue
		}
		u := r.URL
		tasks = append(tasks, Task[string]{
			Name: u,
			Run: func(ctx context.Context) (string, error) {
				_, text, err := FetchURLContent(ctx, u)
				return text, err
			},
		})
	}
	outcomes, _ := RunParallel(ctx, tasks, ParallelOpts{
		Workers:        max(cfg.MaxFetchURLs, 1),
		TaskTimeout:    cfg.FetchTimeout + 5*time.Second,
		CollectTimeout: cfg.FetchTimeout * 3,
	})

	contents := make(map[string]string, len(outcomes))
	for _, o := range outcomes {
		if o.Success && o.Value != "" {
			contents[o.Name] = o.Value
		}
	}
	return contents
}
