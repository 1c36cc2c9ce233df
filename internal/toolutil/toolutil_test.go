package toolutil

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_market/internal/engine"
)

func TestNormKeywords(t *testing.T) {
	got := NormKeywords([]string{"  food   trucks ", "", "Food Trucks", "kitchens", " ", "a", "b", "c", "d"})
	assert.Equal(t, []string{"food trucks", "kitchens", "a", "b", "c"}, got)
	assert.Empty(t, NormKeywords(nil))
}

func TestRequireKeywords(t *testing.T) {
	_, err := RequireKeywords([]string{" ", ""})
	assert.ErrorIs(t, err, ErrNoKeywords)

	kws, err := RequireKeywords([]string{"crm"})
	require.NoError(t, err)
	assert.Equal(t, []string{"crm"}, kws)
}

func TestLimit(t *testing.T) {
	assert.Equal(t, 10, Limit(0, 10, 50))
	assert.Equal(t, 10, Limit(-3, 10, 50))
	assert.Equal(t, 7, Limit(7, 10, 50))
	assert.Equal(t, 50, Limit(99, 10, 50))
}

type payload struct {
	N int `json:"n"`
}

func TestCached(t *testing.T) {
	engine.InitCache("", time.Minute, 100, time.Minute)
	ctx := context.Background()
	key := engine.CacheKey("toolutil_test", t.Name())

	calls := 0
	fn := func(context.Context) (*payload, error) {
		calls++
		return &payload{N: calls}, nil
	}

	first, err := Cached(ctx, key, fn)
	require.NoError(t, err)
	second, err := Cached(ctx, key, fn)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, first.N)
	assert.Equal(t, 1, second.N)
}

func TestCached_ErrorIsNotStored(t *testing.T) {
	engine.InitCache("", time.Minute, 100, time.Minute)
	ctx := context.Background()
	key := engine.CacheKey("toolutil_test", t.Name())

	_, err := Cached(ctx, key, func(context.Context) (payload, error) {
		return payload{}, errors.New("boom")
	})
	require.Error(t, err)

	out, err := Cached(ctx, key, func(context.Context) (payload, error) {
		return payload{N: 2}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, out.N)
}
