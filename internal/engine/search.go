package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// SearchSearXNG queries the SearXNG instance and returns raw results.
func SearchSearXNG(ctx context.Context, query, language, timeRange, engines string) ([]SearchResult, error) {
	u, err := url.Parse(cfg.SearxngURL + "/search")
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("format", "json")
	if language != "" && language != "all" {
		q.Set("language", language)
	}
	if timeRange != "" {
		q.Set("time_range", timeRange)
	}
	if engines != "" {
		q.Set("engines", engines)
	}
	u.RawQuery = q.Encode()

	metrics.SearchRequests.Add(1)

	resp, err := RetryHTTP(ctx, DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, err
		}
		return cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("searxng status %d", resp.StatusCode)
	}

	var data searxngResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, err
	}
	for i := range data.Results {
		data.Results[i].Source = "searxng"
	}
	return data.Results, nil
}

// FilterByScore removes results below minScore, keeping at least minKeep.
func FilterByScore(results []SearchResult, minScore float64, minKeep int) []SearchResult {
	var out []SearchResult
	for _, r := range results {
		if r.Score >= minScore {
			out = append(out, r)
		}
	}
	if len(out) < minKeep && len(results) >= minKeep {
		return results[:minKeep]
	}
	if len(out) < minKeep {
		return results
	}
	return out
}

// SearchDirect queries the DuckDuckGo scraper when enabled.
// Failures are non-fatal and return nil.
func SearchDirect(ctx context.Context, query string) []SearchResult {
	if cfg.BrowserClient == nil || !cfg.DirectDDG {
		return nil
	}
	results, err := RetryDo(ctx, DefaultRetryConfig, func() ([]SearchResult, error) {
		return SearchDDGDirect(ctx, cfg.BrowserClient, query, "wt-wt")
	})
	if err != nil {
		slog.Debug("ddg direct failed", slog.Any("error", err))
		return nil
	}
	return results
}

// RegistrableDomain returns the eTLD+1 of a URL host ("news.bbc.co.uk" → "bbc.co.uk").
// Falls back to the bare hostname when the public suffix list has no answer.
func RegistrableDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if d, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		return d
	}
	return host
}

// DedupByURL drops repeated URLs, keeping first occurrence.
func DedupByURL(results []SearchResult) []SearchResult {
	seen := make(map[string]bool, len(results))
	var out []SearchResult
	for _, r := range results {
		if r.URL == "" || seen[r.URL] {
			continue
		}
		seen[r.URL] = true
		out = append(out, r)
	}
	return out
}

// DedupByDomain limits results to maxPerDomain per registrable domain.
func DedupByDomain(results []SearchResult, maxPerDomain int) []SearchResult {
	counts := make(map[string]int)
	var out []SearchResult
	for _, r := range results {
		domain := RegistrableDomain(r.URL)
		if domain == "" {
			continue
		}
		if counts[domain] < maxPerDomain {
			out = append(out, r)
			counts[domain]++
		}
	}
	return out
}
