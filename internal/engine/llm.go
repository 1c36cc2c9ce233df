package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNoLLM is returned when no LLM provider was configured.
var ErrNoLLM = errors.New("llm: no provider configured")

// CallOpts overrides per-call generation settings. Zero values use the configured defaults.
type CallOpts struct {
	Temperature float64
	MaxTokens   int
	JSON        bool // ask the provider for a JSON response when it supports it
}

// Completer is the provider-neutral LLM interface used by every tool. An
// empty system prompt leaves the provider default.
type Completer interface {
	Complete(ctx context.Context, system, prompt string, opts CallOpts) (string, error)
}

// currentDate returns today's date in ISO 8601 format (UTC).
func currentDate() string {
	return time.Now().UTC().Format("2006-01-02")
}

type LLMStructuredOutput struct {
	Answer string     `json:"answer"`
	Facts  []FactItem `json:"facts,omitempty"`
}

// stripFences removes markdown code fences from LLM output.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// ExtractJSON trims prose around the outermost JSON object or array.
func ExtractJSON(s string) string {
	s = stripFences(s)
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return s
	}
	closer := "}"
	if s[start] == '[' {
		closer = "]"
	}
	end := strings.LastIndex(s, closer)
	if end <= start {
		return s
	}
	return s[start : end+1]
}

func (o CallOpts) resolve() CallOpts {
	if o.Temperature == 0 {
		o.Temperature = cfg.LLMTemperature
	}
	if o.MaxTokens == 0 {
		o.MaxTokens = cfg.LLMMaxTokens
	}
	return o
}

// CallLLM sends a prompt using the configured temperature and max_tokens.
func CallLLM(ctx context.Context, prompt string) (string, error) {
	return CallLLMWith(ctx, prompt, CallOpts{})
}

// CallLLMWith sends a prompt with per-call overrides and strips code fences.
func CallLLMWith(ctx context.Context, prompt string, opts CallOpts) (string, error) {
	return CallLLMSystem(ctx, "", prompt, opts)
}

// CallLLMSystem is CallLLMWith with a system prompt.
func CallLLMSystem(ctx context.Context, system, prompt string, opts CallOpts) (string, error) {
	if cfg.LLMClient == nil {
		return "", ErrNoLLM
	}
	metrics.LLMCalls.Add(1)
	resp, err := cfg.LLMClient.Complete(ctx, system, prompt, opts.resolve())
	if err != nil {
		metrics.LLMErrors.Add(1)
		return "", err
	}
	return stripFences(resp), nil
}

// CallLLMJSON sends a prompt and decodes the JSON response into T.
func CallLLMJSON[T any](ctx context.Context, prompt string, opts CallOpts) (*T, error) {
	return CallLLMSystemJSON[T](ctx, "", prompt, opts)
}

// CallLLMSystemJSON is CallLLMJSON with a system prompt.
func CallLLMSystemJSON[T any](ctx context.Context, system, prompt string, opts CallOpts) (*T, error) {
	opts.JSON = true
	raw, err := CallLLMSystem(ctx, system, prompt, opts)
	if err != nil {
		return nil, err
	}
	var out T
	if err := json.Unmarshal([]byte(ExtractJSON(raw)), &out); err != nil {
		return nil, fmt.Errorf("parse: %w (raw: %s)", err, TruncateRunes(raw, 200, "..."))
	}
	return &out, nil
}

// BuildSourcesText formats search results and their fetched content for LLM context.
func BuildSourcesText(results []SearchResult, contents map[string]string, contentLimit int) string {
	var sb strings.Builder
	for i, r := range results {
		fmt.Fprintf(&sb, "\n[%d] %s\nURL: %s\n", i+1, r.Title, r.URL)
		if c, ok := contents[r.URL]; ok && c != "" {
			if len(c) > contentLimit {
				c = c[:contentLimit] + "..."
			}
			fmt.Fprintf(&sb, "Content: %s\n", c)
		}
		if r.Content != "" {
			if _, ok := contents[r.URL]; !ok {
				fmt.Fprintf(&sb, "Snippet: %s\n", r.Content)
			}
		}
	}
	return sb.String()
}

// SummarizeWithInstruction summarizes search results using a custom LLM instruction.
func SummarizeWithInstruction(ctx context.Context, query, instruction string, contentLimit int, results []SearchResult, contents map[string]string) (*LLMStructuredOutput, error) {
	if instruction == "" {
		instruction = defaultInstruction
	}
	sources := BuildSourcesText(results, contents, contentLimit)
	prompt := fmt.Sprintf(promptBase, currentDate(), instruction, query, sources)

	raw, err := CallLLM(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var out LLMStructuredOutput
	if err := json.Unmarshal([]byte(ExtractJSON(raw)), &out); err != nil {
		if answer := ExtractJSONAnswer(raw); answer != "" {
			return &LLMStructuredOutput{Answer: answer}, nil
		}
		return &LLMStructuredOutput{Answer: raw}, nil
	}
	return &out, nil
}

// ExtractJSONAnswer extracts the "answer" field from malformed JSON
// where the value may contain unescaped newlines or special characters.
func ExtractJSONAnswer(raw string) string {
	prefix := `"answer"`
	idx := strings.Index(raw, prefix)
	if idx < 0 {
		return ""
	}
	rest := strings.TrimSpace(raw[idx+len(prefix):])
	if len(rest) == 0 || rest[0] != ':' {
		return ""
	}
	rest = strings.TrimSpace(rest[1:])
	if len(rest) == 0 || rest[0] != '"' {
		return ""
	}
	rest = rest[1:]

	var sb strings.Builder
	for i := 0; i < len(rest); i++ {
		if rest[i] == '\\' && i+1 < len(rest) {
			switch rest[i+1] {
			case '"':
				sb.WriteByte('"')
				i++
				continue
			case 'n':
				sb.WriteByte('\n')
				i++
				continue
			}
			sb.WriteByte(rest[i])
			continue
		}
		if rest[i] == '"' {
			return sb.String()
		}
		sb.WriteByte(rest[i])
	}
	return sb.String()
}
