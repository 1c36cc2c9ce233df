package market

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/anatolykoptev/go_market/internal/engine"
)

// KeySignals condenses discovery data for the synthesis prompt.
type KeySignals struct {
	PainPoints             []any `json:"pain_points"`
	MarketGaps             []any `json:"market_gaps"`
	UserFrustrations       []any `json:"user_frustrations"`
	CostInefficiencies     []any `json:"cost_inefficiencies"`
	WorkflowBreaks         []any `json:"workflow_breaks"`
	UnderutilizedResources []any `json:"underutilized_resources"`
}

const maxSignalsPerBucket = 10

var signalKeywords = struct {
	pain, gap, frustration, cost, workflow, underutilized []string
}{
	pain:          []string{"pain", "problem", "frustration", "issue"},
	gap:           []string{"gap", "missing", "need", "lack"},
	frustration:   []string{"frustrat", "complain", "annoy"},
	cost:          []string{"expensive", "cost", "price", "fee"},
	workflow:      []string{"manual", "switch", "break", "friction"},
	underutilized: []string{"unused", "idle", "underutilized", "spare"},
}

// ExtractKeySignals walks arbitrary discovery data and collects values stored
// under keys that name a signal: up to 3 items of a matching list, or a
// matching string longer than 10 characters. Only the first 5 elements of any
// list are walked.
func ExtractKeySignals(data any) KeySignals {
	var ks KeySignals
	if data == nil {
		return ks
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return ks
	}
	var tree any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return ks
	}

	ks.PainPoints = collectByKey(tree, signalKeywords.pain)
	ks.MarketGaps = collectByKey(tree, signalKeywords.gap)
	ks.UserFrustrations = collectByKey(tree, signalKeywords.frustration)
	ks.CostInefficiencies = collectByKey(tree, signalKeywords.cost)
	ks.WorkflowBreaks = collectByKey(tree, signalKeywords.workflow)
	ks.UnderutilizedResources = collectByKey(tree, signalKeywords.underutilized)
	return ks
}

func collectByKey(tree any, keywords []string) []any {
	var out []any
	var walk func(v any)
	walk = func(v any) {
		if len(out) >= maxSignalsPerBucket {
			return
		}
		switch node := v.(type) {
		case map[string]any:
			for _, key := range slices.Sorted(maps.Keys(node)) {
				val := node[key]
				if engine.ContainsAny(key, keywords...) {
					switch typed := val.(type) {
					case []any:
						out = append(out, typed[:min(3, len(typed))]...)
					case string:
						if len(typed) > 10 {
							out = append(out, typed)
						}
					}
				}
				walk(val)
			}
		case []any:
			for _, item := range node[:min(5, len(node))] {
				walk(item)
			}
		}
	}
	walk(tree)
	if len(out) > maxSignalsPerBucket {
		out = out[:maxSignalsPerBucket]
	}
	return out
}

// SearchSignal is a trimmed search hit tagged with the discovery kind that found it.
type SearchSignal struct {
	SignalType     string  `json:"signal_type"`
	Title          string  `json:"title"`
	Content        string  `json:"content"`
	URL            string  `json:"url"`
	RelevanceScore float64 `json:"relevance_score"`
}

// ProcessSearchResultsForSignals keeps the top 2 hits of every successful
// outcome, trims content to 500 runes and returns at most 10 signals.
func ProcessSearchResultsForSignals(kind string, outcomes []SearchOutcome) []SearchSignal {
	var signals []SearchSignal
	for _, o := range outcomes {
		if !o.Success {
			continue
		}
		for _, r := range o.Results[:min(2, len(o.Results))] {
			if r.Title == "" || r.Content == "" {
				continue
			}
			score := r.Score
			if score == 0 {
				score = 0.5
			}
			signals = append(signals, SearchSignal{
				SignalType:     kind,
				Title:          r.Title,
				Content:        engine.TruncateRunes(r.Content, 500, ""),
				URL:            r.URL,
				RelevanceScore: score,
			})
		}
	}
	if len(signals) > 10 {
		signals = signals[:10]
	}
	return signals
}

// LiminalSignal is an LLM-identified opportunity between two markets.
type LiminalSignal struct {
	SignalType             string `json:"signal_type"`
	OpportunityDescription string `json:"opportunity_description"`
	MarketA                string `json:"market_a"`
	MarketB                string `json:"market_b"`
	ConnectionGap          string `json:"connection_gap"`
	UserPain               string `json:"user_pain"`
	ArbitragePotential     string `json:"arbitrage_potential"`
	Evidence               string `json:"evidence"`
	UberAirbnbAnalogy      string `json:"uber_airbnb_analogy"`
}

const liminalSignalsPrompt = `Analyze these parallel market search results to identify LIMINAL OPPORTUNITY SIGNALS:
opportunities that exist between established markets, like Uber, Airbnb, DoorDash.

Search results by market dimension:
%s

Find signals indicating:
1. WORKFLOW BREAKS: where users switch between different services
2. ARBITRAGE GAPS: expensive solutions next to underutilized resources
3. INTEGRATION FAILURES: systems that should connect but don't
4. CROSS-INDUSTRY PATTERNS: similar problems across different sectors

Return a JSON object:
{"liminal_signals": [
  {
    "signal_type": "workflow_break|arbitrage_gap|integration_failure|cross_industry",
    "opportunity_description": "specific liminal opportunity",
    "market_a": "first market/industry",
    "market_b": "second market/industry",
    "connection_gap": "what gap exists between them",
    "user_pain": "specific user frustration",
    "arbitrage_potential": "economic opportunity",
    "evidence": "supporting evidence from search results",
    "uber_airbnb_analogy": "how this is like existing successes"
  }
]}`

// ExtractLiminalSignals asks the LLM for liminal signals in grouped search
// results. Only the first 2 hits per dimension are sent.
func ExtractLiminalSignals(ctx context.Context, keywords []string, dimensions map[string][]engine.SearchResult) ([]LiminalSignal, error) {
	trimmed := make(map[string][]engine.SearchResult, len(dimensions))
	for k, v := range dimensions {
		trimmed[k] = v[:min(2, len(v))]
	}
	data := map[string]any{"keywords": keywords, "market_dimensions": trimmed}
	prompt := fmt.Sprintf(liminalSignalsPrompt, jsonSnippet(data, 3000))

	signals, err := callList[LiminalSignal](ctx, prompt, engine.CallOpts{Temperature: 0.4})
	if err != nil {
		return nil, fmt.Errorf("liminal signals: %w", err)
	}
	return signals, nil
}

// --- Social signal heuristics ---

var (
	urlRe        = regexp.MustCompile(`https?://\S+`)
	spaceRe      = regexp.MustCompile(`\s+`)
	symbolRe     = regexp.MustCompile(`[^\p{L}\p{M}\p{N}_\s.,!?'"-]`)
	quotedRe     = regexp.MustCompile(`"([^"]*)"`)
	painWords    = []string{"frustrated", "annoying", "terrible", "horrible", "broken", "doesn't work", "hate", "problem", "issue", "bug", "error", "fail", "slow", "difficult", "confusing", "complicated", "time-consuming", "manual", "repetitive"}
	wantWords    = []string{"need", "want", "wish", "should", "could", "better", "improve", "fix", "solution", "alternative", "replacement", "upgrade", "feature", "option"}
	positiveWord = []string{"good", "great", "excellent", "awesome", "love", "like", "perfect", "amazing", "fantastic", "wonderful", "helpful", "useful", "easy"}
	negativeWord = []string{"bad", "terrible", "horrible", "hate", "awful", "worst", "broken", "frustrated", "annoying", "difficult", "slow", "confusing", "useless"}
	urgentWords  = []string{"urgent", "immediately", "asap", "critical", "emergency", "broken", "can't", "won't", "doesn't work", "not working", "failed", "error"}
	moderateWord = []string{"need", "should", "important", "problem", "issue", "fix", "help"}
	specificWord = []string{"when i", "if i", "step", "button", "page", "screen", "feature", "exactly", "specifically", "particular", "certain", "version", "api", "integration", "workflow", "process", "system", "platform", "dashboard", "report", "data", "export", "import"}
)

// SocialSignal is a processed piece of user-generated content.
type SocialSignal struct {
	Content        string    `json:"content"`
	Source         string    `json:"source"`
	CleanedContent string    `json:"cleaned_content"`
	Keywords       []string  `json:"keywords"`
	Sentiment      string    `json:"sentiment"`   // positive, negative, neutral
	Urgency        string    `json:"urgency"`     // high, medium, low
	Specificity    string    `json:"specificity"` // high, medium, low
	Category       string    `json:"category"`
	Timestamp      time.Time `json:"timestamp"`
}

// ProcessSocialSignal cleans content and classifies it with keyword heuristics.
func ProcessSocialSignal(content, source string) SocialSignal {
	s := SocialSignal{Content: content, Source: source, Timestamp: time.Now().UTC()}
	s.CleanedContent = cleanSignalText(content)
	s.Keywords = signalKeywordsIn(s.CleanedContent)
	s.Sentiment = sentimentOf(s.CleanedContent)
	s.Urgency = urgencyOf(s.CleanedContent)
	s.Specificity = specificityOf(s.CleanedContent)
	s.Category = categorize(s.CleanedContent, s.Sentiment)
	return s
}

func cleanSignalText(content string) string {
	content = urlRe.ReplaceAllString(content, "")
	content = spaceRe.ReplaceAllString(content, " ")
	content = symbolRe.ReplaceAllString(content, "")
	return strings.TrimSpace(content)
}

func signalKeywordsIn(content string) []string {
	if content == "" {
		return nil
	}
	lower := strings.ToLower(content)
	var found []string
	for _, kw := range append(append([]string{}, painWords...), wantWords...) {
		if strings.Contains(lower, kw) {
			found = append(found, kw)
		}
	}
	for i, m := range quotedRe.FindAllStringSubmatch(content, -1) {
		if i == 3 {
			break
		}
		found = append(found, m[1])
	}
	if len(found) > 10 {
		found = found[:10]
	}
	return found
}

func sentimentOf(content string) string {
	pos := engine.CountMatches(content, positiveWord)
	neg := engine.CountMatches(content, negativeWord)
	switch {
	case neg > pos+1:
		return "negative"
	case pos > neg+1:
		return "positive"
	}
	return "neutral"
}

func urgencyOf(content string) string {
	urgent := engine.CountMatches(content, urgentWords)
	moderate := engine.CountMatches(content, moderateWord)
	switch {
	case urgent >= 2:
		return "high"
	case urgent >= 1 || moderate >= 2:
		return "medium"
	}
	return "low"
}

func specificityOf(content string) string {
	n := engine.CountMatches(content, specificWord)
	switch {
	case n >= 3:
		return "high"
	case n >= 1:
		return "medium"
	}
	return "low"
}

func categorize(content, sentiment string) string {
	switch {
	case engine.ContainsAny(content, "need", "want", "wish", "should add", "feature request"):
		return "feature_request"
	case sentiment == "negative" && engine.ContainsAny(content, "problem", "issue", "broken", "doesn't work"):
		return "pain_point"
	case sentiment == "negative" && engine.ContainsAny(content, "frustrated", "hate", "terrible", "awful"):
		return "complaint"
	case engine.ContainsAny(content, "suggest", "recommend", "could", "might", "better"):
		return "suggestion"
	}
	return "general_feedback"
}

// logSkip records a dropped per-item LLM extraction.
func logSkip(stage string, err error) {
	slog.Debug("market: extraction skipped", slog.String("stage", stage), slog.Any("error", err))
}
