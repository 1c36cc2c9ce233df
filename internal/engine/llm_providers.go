package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anatolykoptev/go-kit/llm"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"google.golang.org/genai"
)

// NewCompleter builds the provider selected by c.LLMProvider.
func NewCompleter(ctx context.Context, c Config) (Completer, error) {
	switch strings.ToLower(c.LLMProvider) {
	case "", "openai":
		return NewKitCompleter(c), nil
	case "gemini":
		return NewGeminiCompleter(ctx, c.GeminiAPIKey, c.LLMModel)
	case "anthropic":
		return NewAnthropicCompleter(c.AnthropicAPIKey, c.LLMModel)
	}
	return nil, fmt.Errorf("llm: unknown provider %q", c.LLMProvider)
}

// --- OpenAI-compatible (go-kit) ---

type kitCompleter struct {
	client *llm.Client
}

// NewKitCompleter wraps the go-kit OpenAI-compatible client with key fallback.
func NewKitCompleter(c Config) Completer {
	return &kitCompleter{client: llm.NewClient(c.LLMAPIBase, c.LLMAPIKey, c.LLMModel,
		llm.WithFallbackKeys(c.LLMAPIKeyFallbacks),
		llm.WithMaxTokens(c.LLMMaxTokens),
		llm.WithTemperature(c.LLMTemperature),
		llm.WithHTTPClient(&http.Client{Timeout: 60 * time.Second}),
	)}
}

func (k *kitCompleter) Complete(ctx context.Context, system, prompt string, opts CallOpts) (string, error) {
	return k.client.Complete(ctx, system, prompt,
		llm.WithChatTemperature(opts.Temperature),
		llm.WithChatMaxTokens(opts.MaxTokens),
	)
}

// --- Gemini (genai SDK) ---

type geminiCompleter struct {
	client *genai.Client
	model  string
}

// NewGeminiCompleter creates a Gemini API client.
func NewGeminiCompleter(ctx context.Context, apiKey, model string) (Completer, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: GEMINI_API_KEY is required")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &geminiCompleter{client: client, model: model}, nil
}

func (g *geminiCompleter) Complete(ctx context.Context, system, prompt string, opts CallOpts) (string, error) {
	gc := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(opts.Temperature)),
		MaxOutputTokens: int32(opts.MaxTokens),
	}
	if opts.JSON {
		gc.ResponseMIMEType = "application/json"
	}
	if system != "" {
		gc.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), gc)
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", errors.New("gemini: empty response")
	}
	return text, nil
}

// --- Anthropic ---

type anthropicCompleter struct {
	client anthropic.Client
	model  anthropic.Model
}

// NewAnthropicCompleter creates an Anthropic Messages API client.
func NewAnthropicCompleter(apiKey, model string) (Completer, error) {
	if apiKey == "" {
		return nil, errors.New("anthropic: ANTHROPIC_API_KEY is required")
	}
	m := anthropic.Model(model)
	if model == "" || strings.HasPrefix(model, "gemini") || strings.HasPrefix(model, "gpt") {
		m = anthropic.ModelClaudeHaiku4_5
	}
	return &anthropicCompleter{client: anthropic.NewClient(option.WithAPIKey(apiKey)), model: m}, nil
}

func (a *anthropicCompleter) Complete(ctx context.Context, system, prompt string, opts CallOpts) (string, error) {
	params := anthropic.MessageNewParams{
		Model:       a.model,
		MaxTokens:   int64(opts.MaxTokens),
		Temperature: anthropic.Float(opts.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic: %w", err)
	}
	var sb strings.Builder
	for _, block := range resp.Content {
		sb.WriteString(block.Text)
	}
	if sb.Len() == 0 {
		return "", errors.New("anthropic: empty response")
	}
	return sb.String(), nil
}
