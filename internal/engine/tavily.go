package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// ErrNoTavilyKey is returned when TAVILY_API_KEY is not configured.
var ErrNoTavilyKey = errors.New("tavily: api key not configured")

// Search kinds accepted by WebSearch.
const (
	SearchTavily      = "tavily"       // advanced depth
	SearchTavilyQuick = "tavily_quick" // basic depth
	SearchSearXNGKind = "searxng"
)

// TavilyRequest is the body of POST /search.
type TavilyRequest struct {
	APIKey        string `json:"api_key"`
	Query         string `json:"query"`
	SearchDepth   string `json:"search_depth,omitempty"`
	MaxResults    int    `json:"max_results,omitempty"`
	IncludeAnswer bool   `json:"include_answer,omitempty"`
	Topic         string `json:"topic,omitempty"`
}

// TavilyResult is one hit in a Tavily response.
type TavilyResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// TavilyResponse is the decoded Tavily search response.
type TavilyResponse struct {
	Query   string         `json:"query"`
	Answer  string         `json:"answer"`
	Results []TavilyResult `json:"results"`
}

// TavilySearch calls the Tavily search API with retry on transient statuses.
func TavilySearch(ctx context.Context, req TavilyRequest) (*TavilyResponse, error) {
	if cfg.TavilyAPIKey == "" {
		return nil, ErrNoTavilyKey
	}
	req.APIKey = cfg.TavilyAPIKey
	if req.MaxResults <= 0 {
		req.MaxResults = 5
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	metrics.TavilyRequests.Add(1)
	endpoint := strings.TrimRight(cfg.TavilyBaseURL, "/") + "/search"
	resp, err := RetryHTTP(ctx, DefaultRetryConfig, func() (*http.Response, error) {
		hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		hreq.Header.Set("Content-Type", "application/json")
		return cfg.HTTPClient.Do(hreq)
	})
	if err != nil {
		metrics.TavilyErrors.Add(1)
		return nil, fmt.Errorf("tavily: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.TavilyErrors.Add(1)
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 300))
		return nil, fmt.Errorf("tavily: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out TavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		metrics.TavilyErrors.Add(1)
		return nil, fmt.Errorf("tavily: decode: %w", err)
	}
	return &out, nil
}

// WebSearch runs one query against the backend named by kind and normalises the hits.
// Tavily failures (or a missing key) fall back to SearXNG, then to the DDG scraper.
func WebSearch(ctx context.Context, query, kind string, maxResults int) ([]SearchResult, error) {
	if maxResults <= 0 {
		maxResults = 3
	}
	if kind == SearchTavily || kind == SearchTavilyQuick {
		depth := "advanced"
		if kind == SearchTavilyQuick {
			depth = "basic"
		}
		resp, err := TavilySearch(ctx, TavilyRequest{Query: query, SearchDepth: depth, MaxResults: maxResults})
		if err == nil {
			return tavilyToResults(resp, maxResults), nil
		}
		if !errors.Is(err, ErrNoTavilyKey) {
			slog.Debug("tavily failed, falling back to searxng", slog.String("query", query), slog.Any("error", err))
		}
	}

	var results []SearchResult
	var searxErr error
	if cfg.SearxngURL != "" {
		results, searxErr = SearchSearXNG(ctx, query, "all", "", "")
	}
	if len(results) == 0 {
		results = append(results, SearchDirect(ctx, query)...)
	}
	if len(results) == 0 && searxErr != nil {
		return nil, searxErr
	}
	results = DedupByURL(results)
	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results, nil
}

func tavilyToResults(resp *TavilyResponse, limit int) []SearchResult {
	out := make([]SearchResult, 0, len(resp.Results))
	for _, r := range resp.Results {
		out = append(out, SearchResult{
			Title:   r.Title,
			URL:     r.URL,
			Content: r.Content,
			Score:   r.Score,
			Source:  SearchTavily,
		})
		if len(out) == limit {
			break
		}
	}
	return out
}
