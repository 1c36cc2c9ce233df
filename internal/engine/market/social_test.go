package market

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_market/internal/engine"
)

func TestSocialQuery(t *testing.T) {
	assert.Equal(t, "invoicing "+painTerms, SocialQuery("  invoicing "))
	assert.Equal(t, "invoicing is so frustrating", SocialQuery("invoicing is so frustrating"))
	assert.Equal(t, "I wish my CRM synced", SocialQuery("I wish my CRM synced"))
}

func TestSummarizeSocial(t *testing.T) {
	post := func(category, sentiment string, likes int, kws ...string) SocialPost {
		return SocialPost{
			SocialSignal: SocialSignal{Category: category, Sentiment: sentiment, Urgency: "low", Keywords: kws},
			Likes:        likes,
		}
	}
	posts := []SocialPost{
		post("pain_point", "negative", 3, "Invoices", "sync"),
		post("feature_request", "neutral", 40, "invoices"),
		post("general", "positive", 100, "sync"),
		post("complaint", "negative", 12, "invoices"),
	}

	s := SummarizeSocial(posts)
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 2, s.Sentiment["negative"])
	assert.Equal(t, 1, s.Categories["general"])
	assert.Equal(t, 4, s.Urgency["low"])
	assert.Equal(t, []string{"invoices", "sync"}, s.TopKeywords)

	require.Len(t, s.PainPoints, 3)
	assert.Equal(t, 40, s.PainPoints[0].Likes, "pain points are ordered by engagement")
	assert.Equal(t, 12, s.PainPoints[1].Likes)
	assert.Equal(t, 3, s.PainPoints[2].Likes)
}

func TestSummarizeSocial_CapsPainPoints(t *testing.T) {
	var posts []SocialPost
	for i := range 15 {
		posts = append(posts, SocialPost{
			SocialSignal: SocialSignal{Category: "pain_point", Keywords: []string{fmt.Sprintf("k%02d", i)}},
		})
	}
	s := SummarizeSocial(posts)
	assert.Len(t, s.PainPoints, 10)
	assert.Len(t, s.TopKeywords, 10)
	assert.Equal(t, "k00", s.TopKeywords[0], "ties break alphabetically")
}

func TestSummarizeSocial_Empty(t *testing.T) {
	s := SummarizeSocial(nil)
	assert.Zero(t, s.Total)
	assert.NotNil(t, s.PainPoints)
	assert.Empty(t, s.TopKeywords)
}

func TestSearchSocialSignals_NoClient(t *testing.T) {
	engine.Init(engine.Config{})
	_, err := SearchSocialSignals(context.Background(), "invoicing", 10)
	assert.ErrorContains(t, err, "twitter client not configured")
}
