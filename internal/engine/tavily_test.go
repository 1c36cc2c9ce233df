package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTavilySearch_RequestShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		var req TavilyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "tv-key", req.APIKey)
		assert.Equal(t, "basic", req.SearchDepth)
		assert.Equal(t, 4, req.MaxResults)
		_, _ = w.Write([]byte(`{"query":"q","results":[
			{"title":"A","url":"https://a.com","content":"alpha","score":0.9},
			{"title":"B","url":"https://b.com","content":"beta","score":0.5}]}`))
	}))
	defer srv.Close()

	Init(Config{TavilyAPIKey: "tv-key", TavilyBaseURL: srv.URL, HTTPClient: &http.Client{Timeout: 5 * time.Second}})

	got, err := WebSearch(context.Background(), "crm pain points", SearchTavilyQuick, 4)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "tavily", got[0].Source)
	assert.Equal(t, "alpha", got[0].Content)
}

func TestWebSearch_FallsBackToSearXNG(t *testing.T) {
	var tavilyHits atomic.Int32
	tavily := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tavilyHits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer tavily.Close()
	searx := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[
			{"title":"1","url":"https://1.com"},{"title":"2","url":"https://2.com"},
			{"title":"dup","url":"https://1.com"},{"title":"3","url":"https://3.com"}]}`))
	}))
	defer searx.Close()

	Init(Config{
		TavilyAPIKey:  "bad",
		TavilyBaseURL: tavily.URL,
		SearxngURL:    searx.URL,
		HTTPClient:    &http.Client{Timeout: 5 * time.Second},
	})

	got, err := WebSearch(context.Background(), "q", SearchTavily, 2)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, tavilyHits.Load(), int32(1))
	require.Len(t, got, 2)
	assert.Equal(t, "searxng", got[0].Source)
}

func TestWebSearch_NoKeySkipsTavily(t *testing.T) {
	searx := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[{"title":"1","url":"https://1.com"}]}`))
	}))
	defer searx.Close()
	Init(Config{SearxngURL: searx.URL})

	_, err := TavilySearch(context.Background(), TavilyRequest{Query: "x"})
	assert.ErrorIs(t, err, ErrNoTavilyKey)

	got, err := WebSearch(context.Background(), "x", SearchTavily, 3)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
