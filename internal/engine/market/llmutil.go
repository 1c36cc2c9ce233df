package market

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/anatolykoptev/go_market/internal/engine"
)

// jsonSnippet renders v as indented JSON capped at limit runes, for prompts.
func jsonSnippet(v any, limit int) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return engine.TruncateRunes(string(data), limit, "")
}

// callList asks the LLM for a JSON array of T. Models in JSON mode often wrap
// the array in an object, so the first array-valued field is accepted too.
func callList[T any](ctx context.Context, prompt string, opts engine.CallOpts) ([]T, error) {
	opts.JSON = true
	raw, err := engine.CallLLMWith(ctx, prompt, opts)
	if err != nil {
		return nil, err
	}
	body := engine.ExtractJSON(raw)

	var list []T
	if err := json.Unmarshal([]byte(body), &list); err == nil {
		return list, nil
	}
	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &wrapped); err == nil {
		for _, v := range wrapped {
			if json.Unmarshal(v, &list) == nil {
				return list, nil
			}
		}
		var single T
		if json.Unmarshal([]byte(body), &single) == nil {
			return []T{single}, nil
		}
	}
	return nil, fmt.Errorf("parse list: (raw: %s)", engine.TruncateRunes(raw, 200, "..."))
}

// toFloat reads a number the LLM may have sent as a number or a string.
func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case json.Number:
		f, _ := n.Float64()
		return f
	case string:
		f, _ := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f
	}
	return 0
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func toStrings(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

// lowerJSON is the lower-cased JSON text of v, keys included.
func lowerJSON(v any) string {
	data, _ := json.Marshal(v)
	return strings.ToLower(string(data))
}

// StringList decodes a JSON string or an array. Non-string array items are
// kept as compact JSON text.
type StringList []string

func (s *StringList) UnmarshalJSON(data []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err == nil {
		out := make(StringList, 0, len(items))
		for _, raw := range items {
			var str string
			if json.Unmarshal(raw, &str) == nil {
				if str != "" {
					out = append(out, str)
				}
				continue
			}
			var buf bytes.Buffer
			if json.Compact(&buf, raw) != nil {
				continue
			}
			out = append(out, buf.String())
		}
		*s = out
		return nil
	}
	var one string
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	if one != "" {
		*s = StringList{one}
	}
	return nil
}

// FlexString decodes a JSON string or number as text.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return nil
	}
	*f = FlexString(n.String())
	return nil
}
