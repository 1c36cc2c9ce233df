package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCompleter returns a canned reply and records the last call.
type fakeCompleter struct {
	reply    string
	err      error
	gotOpts   CallOpts
	gotSystem string
	gotCalls  int
}

func (f *fakeCompleter) Complete(_ context.Context, system, _ string, opts CallOpts) (string, error) {
	f.gotCalls++
	f.gotOpts = opts
	f.gotSystem = system
	return f.reply, f.err
}

func TestExtractJSONAnswer(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"valid json", `{"answer": "hello world"}`, "hello world"},
		{"escaped quotes", `{"answer": "use \"fmt.Println\" for output"}`, `use "fmt.Println" for output`},
		{"escaped newlines", `{"answer": "line1\nline2"}`, "line1\nline2"},
		{"no answer field", `{"result": "something"}`, ""},
		{"empty input", "", ""},
		{"malformed - no closing quote", `{"answer": "unclosed`, "unclosed"},
		{"extra whitespace", `{  "answer" :  "spaced out"  }`, "spaced out"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractJSONAnswer(tt.raw); got != tt.want {
				t.Errorf("ExtractJSONAnswer() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain object", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"prose around object", `Here you go: {"a":{"b":2}} hope it helps`, `{"a":{"b":2}}`},
		{"array", `Result: [1,2,3].`, `[1,2,3]`},
		{"no json", "nothing here", "nothing here"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSON(tt.raw))
		})
	}
}

func TestBuildSourcesText(t *testing.T) {
	results := []SearchResult{
		{Title: "Go Docs", URL: "https://go.dev/doc", Content: "Go is a language"},
		{Title: "Rust Docs", URL: "https://rust-lang.org", Content: "Rust is a language"},
	}
	contents := map[string]string{
		"https://go.dev/doc": "Full content of Go documentation page",
	}

	text := BuildSourcesText(results, contents, 1000)

	assert.Contains(t, text, "[1] Go Docs")
	assert.Contains(t, text, "[2] Rust Docs")
	assert.Contains(t, text, "Content: Full content")
	assert.Contains(t, text, "Snippet: Rust is a language")
	assert.NotContains(t, text, "Snippet: Go is a language")
}

func TestBuildSourcesTextTruncation(t *testing.T) {
	results := []SearchResult{{Title: "Long", URL: "https://example.com", Content: "short"}}
	contents := map[string]string{"https://example.com": strings.Repeat("x", 500)}

	text := BuildSourcesText(results, contents, 100)
	assert.Contains(t, text, "...")
	assert.NotContains(t, text, strings.Repeat("x", 101))
}

func TestCallLLM_NoProvider(t *testing.T) {
	Init(Config{})
	_, err := CallLLM(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrNoLLM)
}

func TestCallLLMWith_AppliesDefaults(t *testing.T) {
	fc := &fakeCompleter{reply: "```\nok\n```"}
	Init(Config{LLMClient: fc, LLMTemperature: 0.3, LLMMaxTokens: 4096})

	got, err := CallLLMWith(context.Background(), "hi", CallOpts{MaxTokens: 100})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 0.3, fc.gotOpts.Temperature)
	assert.Equal(t, 100, fc.gotOpts.MaxTokens)
}

func TestCallLLMSystem(t *testing.T) {
	fc := &fakeCompleter{reply: `{"score": 3}`}
	Init(Config{LLMClient: fc})

	_, err := CallLLMSystemJSON[map[string]any](context.Background(), "You are an analyst.", "rate", CallOpts{})
	require.NoError(t, err)
	assert.Equal(t, "You are an analyst.", fc.gotSystem)

	_, err = CallLLMWith(context.Background(), "hi", CallOpts{})
	require.NoError(t, err)
	assert.Empty(t, fc.gotSystem)
}

func TestCallLLMJSON(t *testing.T) {
	type verdict struct {
		Score int    `json:"score"`
		Label string `json:"label"`
	}

	t.Run("decodes wrapped object", func(t *testing.T) {
		fc := &fakeCompleter{reply: "Sure!\n```json\n{\"score\": 7, \"label\": \"good\"}\n```"}
		Init(Config{LLMClient: fc})
		v, err := CallLLMJSON[verdict](context.Background(), "rate", CallOpts{})
		require.NoError(t, err)
		assert.Equal(t, 7, v.Score)
		assert.Equal(t, "good", v.Label)
		assert.True(t, fc.gotOpts.JSON)
	})

	t.Run("parse error carries raw output", func(t *testing.T) {
		Init(Config{LLMClient: &fakeCompleter{reply: "not json at all"}})
		_, err := CallLLMJSON[verdict](context.Background(), "rate", CallOpts{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse:")
		assert.Contains(t, err.Error(), "not json at all")
	})

	t.Run("provider error propagates", func(t *testing.T) {
		boom := errors.New("quota")
		Init(Config{LLMClient: &fakeCompleter{err: boom}})
		_, err := CallLLMJSON[verdict](context.Background(), "rate", CallOpts{})
		assert.ErrorIs(t, err, boom)
	})
}

func TestSummarizeWithInstruction_FallsBackToRaw(t *testing.T) {
	Init(Config{LLMClient: &fakeCompleter{reply: "plain prose answer"}})
	out, err := SummarizeWithInstruction(context.Background(), "q", "", 100, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "plain prose answer", out.Answer)
}

func TestNewCompleter_UnknownProvider(t *testing.T) {
	_, err := NewCompleter(context.Background(), Config{LLMProvider: "mystery", LLMAPIKey: "k"})
	assert.Error(t, err)
}
