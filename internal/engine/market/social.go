package market

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/anatolykoptev/go_market/internal/engine"
)

// SocialPost is one processed post with its engagement.
type SocialPost struct {
	SocialSignal
	URL      string `json:"url"`
	Author   string `json:"author"`
	Likes    int    `json:"likes"`
	Retweets int    `json:"retweets"`
}

// SocialSummary aggregates processed posts for a topic.
type SocialSummary struct {
	Topic       string         `json:"topic"`
	Query       string         `json:"query"`
	Total       int            `json:"total"`
	Sentiment   map[string]int `json:"sentiment"`
	Categories  map[string]int `json:"categories"`
	Urgency     map[string]int `json:"urgency"`
	TopKeywords []string       `json:"top_keywords"`
	PainPoints  []SocialPost   `json:"pain_points"`
	Posts       []SocialPost   `json:"posts"`
}

// painTerms are appended to topic queries so the timeline leans toward
// complaints and requests.
const painTerms = `(frustrating OR annoying OR "wish there was" OR "why is there no" OR broken OR hate)`

// SocialQuery adds pain terms unless the topic already carries one.
func SocialQuery(topic string) string {
	topic = strings.TrimSpace(topic)
	if engine.ContainsAny(topic, "frustrat", "annoy", "wish", "broken", "hate") {
		return topic
	}
	return topic + " " + painTerms
}

// SearchSocialSignals pulls recent posts about a topic and runs every post
// through ProcessSocialSignal.
func SearchSocialSignals(ctx context.Context, topic string, limit int) (*SocialSummary, error) {
	tw := engine.Cfg.TwitterClient
	if tw == nil {
		return nil, errors.New("twitter client not configured")
	}
	if strings.TrimSpace(topic) == "" {
		return nil, errors.New("social signals: topic is required")
	}
	if limit <= 0 {
		limit = 30
	}
	limit = min(limit, 100)

	query := SocialQuery(topic)
	engine.IncrTwitterRequests()
	tweets, err := tw.SearchTimeline(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("twitter search: %w", err)
	}
	slog.Info("social signals", slog.Int("tweets", len(tweets)), slog.String("query", query))

	posts := make([]SocialPost, 0, len(tweets))
	for _, t := range tweets {
		sig := ProcessSocialSignal(t.Text, "twitter")
		sig.Timestamp = t.CreatedAt.UTC()
		posts = append(posts, SocialPost{
			SocialSignal: sig,
			URL:          "https://x.com/i/status/" + t.ID,
			Author:       t.AuthorID,
			Likes:        t.Likes,
			Retweets:     t.Retweets,
		})
	}
	s := SummarizeSocial(posts)
	s.Topic = topic
	s.Query = query
	return s, nil
}

// SummarizeSocial counts sentiment, category and urgency, ranks keywords by
// frequency and keeps pain points ordered by engagement.
func SummarizeSocial(posts []SocialPost) *SocialSummary {
	s := &SocialSummary{
		Total:      len(posts),
		Sentiment:  map[string]int{},
		Categories: map[string]int{},
		Urgency:    map[string]int{},
		PainPoints: []SocialPost{},
		Posts:      posts,
	}
	freq := map[string]int{}
	for _, p := range posts {
		s.Sentiment[p.Sentiment]++
		s.Categories[p.Category]++
		s.Urgency[p.Urgency]++
		for _, kw := range p.Keywords {
			freq[strings.ToLower(kw)]++
		}
		if p.Category == "pain_point" || p.Category == "complaint" || p.Category == "feature_request" {
			s.PainPoints = append(s.PainPoints, p)
		}
	}
	sort.SliceStable(s.PainPoints, func(i, j int) bool {
		return s.PainPoints[i].Likes+s.PainPoints[i].Retweets > s.PainPoints[j].Likes+s.PainPoints[j].Retweets
	})
	if len(s.PainPoints) > 10 {
		s.PainPoints = s.PainPoints[:10]
	}

	keywords := make([]string, 0, len(freq))
	for k := range freq {
		keywords = append(keywords, k)
	}
	sort.Slice(keywords, func(i, j int) bool {
		if freq[keywords[i]] != freq[keywords[j]] {
			return freq[keywords[i]] > freq[keywords[j]]
		}
		return keywords[i] < keywords[j]
	})
	s.TopKeywords = firstN(keywords, 10)
	return s
}
