package engine

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const ddgHTMLEndpoint = "https://html.duckduckgo.com/html/"

// SearchDDGDirect queries the DuckDuckGo HTML lite endpoint with a browser TLS
// fingerprint. Used as an extra source for pain-point and complaint queries,
// where forum threads rank better than on SearXNG's default engines.
func SearchDDGDirect(ctx context.Context, bc *BrowserClient, query, region string) ([]SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if region == "" {
		region = "wt-wt"
	}
	metrics.DirectDDGRequests.Add(1)

	form := url.Values{"q": {query}, "kl": {region}, "df": {""}}
	headers := ChromeHeaders()
	headers["referer"] = "https://html.duckduckgo.com/"
	headers["content-type"] = "application/x-www-form-urlencoded"

	data, _, status, err := bc.Do("POST", ddgHTMLEndpoint, headers, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	if status != 200 {
		return nil, fmt.Errorf("ddg html status %d", status)
	}
	return parseDDGHTML(data)
}

// parseDDGHTML extracts organic results, skipping sponsored blocks.
func parseDDGHTML(data []byte) ([]SearchResult, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(data)))
	if err != nil {
		return nil, fmt.Errorf("goquery parse: %w", err)
	}

	var results []SearchResult
	doc.Find(".result, .web-result").Each(func(_ int, s *goquery.Selection) {
		if s.HasClass("result--ad") {
			return
		}
		link := s.Find("a.result__a, .result__title a").First()
		title := strings.TrimSpace(link.Text())
		href, ok := link.Attr("href")
		if !ok || title == "" {
			return
		}
		target := ddgUnwrapURL(href)
		if target == "" {
			return
		}
		results = append(results, SearchResult{
			Title:   title,
			Content: strings.TrimSpace(s.Find(".result__snippet").First().Text()),
			URL:     target,
			Score:   1.0,
			Source:  "ddg",
		})
	})
	return results, nil
}

// ddgUnwrapURL resolves DDG redirect links (//duckduckgo.com/l/?uddg=...).
func ddgUnwrapURL(href string) string {
	if strings.Contains(href, "uddg=") {
		if u, err := url.Parse(href); err == nil {
			if target := u.Query().Get("uddg"); target != "" {
				return target
			}
		}
	}
	if strings.HasPrefix(href, "http") {
		return href
	}
	return ""
}
