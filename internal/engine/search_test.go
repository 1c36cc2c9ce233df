package engine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFilterByScore(t *testing.T) {
	results := []SearchResult{
		{Title: "a", Score: 10.0},
		{Title: "b", Score: 5.0},
		{Title: "c", Score: 1.0},
		{Title: "d", Score: 0.5},
		{Title: "e", Score: 0.1},
	}

	t.Run("filters below threshold", func(t *testing.T) {
		if got := FilterByScore(results, 3.0, 1); len(got) != 2 {
			t.Errorf("expected 2 results, got %d", len(got))
		}
	})

	t.Run("respects minKeep", func(t *testing.T) {
		if got := FilterByScore(results, 100.0, 3); len(got) != 3 {
			t.Errorf("expected 3 results (minKeep), got %d", len(got))
		}
	})

	t.Run("returns all when fewer than minKeep", func(t *testing.T) {
		if got := FilterByScore(results[:2], 100.0, 5); len(got) != 2 {
			t.Errorf("expected 2 results (all available), got %d", len(got))
		}
	})
}

func TestRegistrableDomain(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://www.example.com/a", "example.com"},
		{"https://news.bbc.co.uk/story", "bbc.co.uk"},
		{"https://old.reddit.com/r/saas", "reddit.com"},
		{"://invalid", ""},
	}
	for _, tt := range tests {
		if got := RegistrableDomain(tt.in); got != tt.want {
			t.Errorf("RegistrableDomain(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDedupByDomain(t *testing.T) {
	results := []SearchResult{
		{Title: "a1", URL: "https://example.com/1"},
		{Title: "a2", URL: "https://blog.example.com/2"},
		{Title: "a3", URL: "https://www.example.com/3"},
		{Title: "b1", URL: "https://other.com/1"},
		{Title: "b2", URL: "https://other.com/2"},
	}

	t.Run("subdomains share a budget", func(t *testing.T) {
		got := DedupByDomain(results, 2)
		if len(got) != 4 {
			t.Fatalf("expected 4 results, got %d", len(got))
		}
		if got[2].Title != "b1" {
			t.Errorf("expected a3 to be dropped, got %q at index 2", got[2].Title)
		}
	})

	t.Run("skips invalid URLs", func(t *testing.T) {
		if got := DedupByDomain([]SearchResult{{URL: "://invalid"}}, 5); len(got) != 0 {
			t.Errorf("expected 0 results for invalid URL, got %d", len(got))
		}
	})
}

func TestDedupByURL(t *testing.T) {
	got := DedupByURL([]SearchResult{
		{URL: "https://a.com"}, {URL: ""}, {URL: "https://a.com"}, {URL: "https://b.com"},
	})
	if len(got) != 2 {
		t.Errorf("expected 2 unique results, got %d", len(got))
	}
}

func TestSearchSearXNG(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("format") != "json" {
			t.Errorf("format = %q, want json", r.URL.Query().Get("format"))
		}
		if r.URL.Query().Get("language") != "" {
			t.Errorf("language should be omitted for 'all'")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{"title":"Fleet tools","content":"market","url":"https://x.com","score":2.5}]}`))
	}))
	defer srv.Close()

	Init(Config{SearxngURL: srv.URL, HTTPClient: &http.Client{Timeout: 5 * time.Second}})

	got, err := SearchSearXNG(context.Background(), "fleet software", "all", "", "")
	if err != nil {
		t.Fatalf("SearchSearXNG error: %v", err)
	}
	if len(got) != 1 || got[0].Source != "searxng" || got[0].Score != 2.5 {
		t.Errorf("unexpected results: %+v", got)
	}
}
