// Package toolutil provides shared helper functions for go_market MCP tools.
package toolutil

import (
	"context"
	"errors"
	"strings"

	"github.com/anatolykoptev/go_market/internal/engine"
)

// ErrNoKeywords is returned when a tool receives no usable keywords.
var ErrNoKeywords = errors.New("keywords are required")

// maxKeywords caps how many seed keywords one call may fan out over.
const maxKeywords = 5

// NormKeywords trims keywords, drops blanks and removes case-insensitive
// duplicates, keeping the first spelling seen.
func NormKeywords(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, kw := range in {
		kw = strings.Join(strings.Fields(kw), " ")
		if kw == "" {
			continue
		}
		k := strings.ToLower(kw)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, kw)
		if len(out) == maxKeywords {
			break
		}
	}
	return out
}

// RequireKeywords normalises keywords and fails when none remain.
func RequireKeywords(in []string) ([]string, error) {
	kws := NormKeywords(in)
	if len(kws) == 0 {
		return nil, ErrNoKeywords
	}
	return kws, nil
}

// Limit returns def when n <= 0 and caps n at max.
func Limit(n, def, max int) int {
	if n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

// Cached returns the engine-cached value for key, or runs fn and caches its
// result on success.
func Cached[T any](ctx context.Context, key string, fn func(context.Context) (T, error)) (T, error) {
	if out, ok := engine.CacheLoadJSON[T](ctx, key); ok {
		return out, nil
	}
	out, err := fn(ctx)
	if err != nil {
		return out, err
	}
	engine.CacheStoreJSON(ctx, key, out)
	return out, nil
}
