package market

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/anatolykoptev/go_market/internal/engine"
)

// scriptedLLM answers with the reply of the first rule whose key appears in
// the prompt, else with fallback.
type scriptedLLM struct {
	mu       sync.Mutex
	rules    []rule
	fallback string
	err      error
	prompts  []string
	systems  []string
}

type rule struct {
	contains string
	reply    string
}

func (s *scriptedLLM) Complete(_ context.Context, system, prompt string, _ engine.CallOpts) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	s.systems = append(s.systems, system)
	if s.err != nil {
		return "", s.err
	}
	for _, r := range s.rules {
		if strings.Contains(prompt, r.contains) {
			return r.reply, nil
		}
	}
	return s.fallback, nil
}

func (s *scriptedLLM) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

// withLLM installs llm as the engine completer for the test.
func withLLM(t *testing.T, llm engine.Completer) {
	t.Helper()
	engine.Init(engine.Config{LLMClient: llm})
	t.Cleanup(func() { engine.Init(engine.Config{}) })
}

// withSearch swaps the web search used by SearchEngine.
func withSearch(t *testing.T, fn func(ctx context.Context, query, kind string, n int) ([]engine.SearchResult, error)) {
	t.Helper()
	prev := webSearch
	webSearch = fn
	t.Cleanup(func() { webSearch = prev })
}

// echoSearch returns one hit per query that names the query.
func echoSearch(_ context.Context, query, _ string, _ int) ([]engine.SearchResult, error) {
	return []engine.SearchResult{{
		Title:   "About " + query,
		Content: "People say " + query + " is a real problem",
		URL:     "https://example.com/" + strings.ReplaceAll(query, " ", "-"),
		Score:   0.7,
	}}, nil
}
