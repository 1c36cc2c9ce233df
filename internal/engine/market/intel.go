package market

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/anatolykoptev/go_market/internal/engine"
)

//go:embed schema/*.sql
var schemaFS embed.FS

var intelDB *IntelDB

// SetIntelDB sets the package-level intelligence store.
func SetIntelDB(db *IntelDB) { intelDB = db }

// GetIntelDB returns the package-level intelligence store (may be nil).
func GetIntelDB() *IntelDB { return intelDB }

// IntelDB stores discovery runs, their signals and ranked opportunities.
type IntelDB struct {
	pool *pgxpool.Pool
}

// ConnectIntelDB creates a pgx pool and runs schema migrations.
func ConnectIntelDB(ctx context.Context, databaseURL string) (*IntelDB, error) {
	if databaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	config.MaxConns = 10
	config.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	db := &IntelDB{pool: pool}
	if err := db.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	slog.Info("intel postgres connected", slog.String("addr", config.ConnConfig.Host))
	return db, nil
}

func (db *IntelDB) Close() {
	db.pool.Close()
}

func (db *IntelDB) runMigrations(ctx context.Context) error {
	entries, err := schemaFS.ReadDir("schema")
	if err != nil {
		return fmt.Errorf("read schema dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		data, err := schemaFS.ReadFile("schema/" + entry.Name())
		if err != nil {
			return fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		if _, err := db.pool.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("execute %s: %w", entry.Name(), err)
		}
		slog.Info("migration applied", slog.String("file", entry.Name()))
	}
	return nil
}

// StoredSignal is one market signal row derived from a discovery run.
type StoredSignal struct {
	Keyword        string
	Title          string
	Content        string
	URL            string
	Source         string
	SignalType     string
	Sentiment      float64
	RelevanceScore float64
}

// SaveDiscovery stores the report and every signal it carries in one transaction.
func (db *IntelDB) SaveDiscovery(ctx context.Context, r *DiscoveryReport) error {
	if r == nil {
		return errors.New("save discovery: nil report")
	}
	if r.RunID == uuid.Nil {
		r.RunID = uuid.New()
	}
	report, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("save discovery: marshal: %w", err)
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("save discovery: begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx,
		`INSERT INTO discovery_runs (id, keywords, target_market, succeeded, failed, report, created_at)
		 VALUES ($1::uuid, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO UPDATE SET report = EXCLUDED.report`,
		r.RunID.String(), r.Keywords, r.TargetMarket, r.Stats.Succeeded, r.Stats.Failed, report, createdAt(r.CreatedAt),
	); err != nil {
		return fmt.Errorf("save discovery: insert run: %w", err)
	}

	signals := DiscoverySignals(r)
	if len(signals) > 0 {
		batch := &pgx.Batch{}
		for _, s := range signals {
			batch.Queue(
				`INSERT INTO market_signals (run_id, keyword, title, content, url, source, signal_type, sentiment, relevance_score)
				 VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8, $9)`,
				r.RunID.String(), s.Keyword, s.Title, s.Content, s.URL, s.Source, s.SignalType, s.Sentiment, s.RelevanceScore,
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("save discovery: insert signals: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("save discovery: commit: %w", err)
	}
	slog.Info("discovery saved", slog.String("run_id", r.RunID.String()), slog.Int("signals", len(signals)))
	return nil
}

func createdAt(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}

// DiscoverySignals flattens the processed and quick signals of a report plus
// the primary market hits into rows keyed by the keyword they mention.
func DiscoverySignals(r *DiscoveryReport) []StoredSignal {
	var out []StoredSignal
	add := func(kind, title, content, link string, relevance float64) {
		out = append(out, StoredSignal{
			Keyword:        signalKeyword(r.Keywords, title+" "+content),
			Title:          engine.TruncateRunes(title, 300, ""),
			Content:        engine.TruncateRunes(content, 1000, ""),
			URL:            link,
			Source:         sourceOf(link),
			SignalType:     kind,
			Sentiment:      SimpleSentiment(title + " " + content),
			RelevanceScore: relevance,
		})
	}

	if r.PrimaryMarket != nil {
		for _, s := range r.PrimaryMarket.Signals {
			add(s.SignalType, s.Title, s.Content, s.URL, s.RelevanceScore)
		}
		dims := make([]string, 0, len(r.PrimaryMarket.Dimensions))
		for d := range r.PrimaryMarket.Dimensions {
			dims = append(dims, d)
		}
		sort.Strings(dims)
		for _, d := range dims {
			for _, hit := range r.PrimaryMarket.Dimensions[d] {
				add(d, hit.Title, hit.Content, hit.URL, hit.Score)
			}
		}
	}

	kinds := make([]string, 0, len(r.QuickSignals))
	for k := range r.QuickSignals {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		for _, s := range r.QuickSignals[k] {
			add(s.SignalType, s.Title, s.Content, s.URL, s.RelevanceScore)
		}
	}
	return out
}

func signalKeyword(keywords []string, text string) string {
	if len(keywords) == 0 {
		return ""
	}
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return kw
		}
	}
	return keywords[0]
}

func sourceOf(link string) string {
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

var (
	positiveWords = []string{"good", "great", "excellent", "amazing", "love", "best", "awesome", "fantastic", "perfect", "outstanding"}
	negativeWords = []string{"bad", "terrible", "awful", "hate", "worst", "horrible", "disappointing", "frustrating", "useless", "broken"}
)

// SimpleSentiment scores text in [-1, 1] as (pos-neg)/(pos+neg) over a small
// lexicon. Text with no lexicon hits is neutral.
func SimpleSentiment(text string) float64 {
	var pos, neg int
	for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z')
	}) {
		for _, p := range positiveWords {
			if w == p {
				pos++
			}
		}
		for _, n := range negativeWords {
			if w == n {
				neg++
			}
		}
	}
	if pos+neg == 0 {
		return 0
	}
	return float64(pos-neg) / float64(pos+neg)
}

// KeywordOpportunityScore blends mention volume, sentiment and source
// diversity into [0, 1].
func KeywordOpportunityScore(mentions int, avgSentiment float64, diversity int) float64 {
	volume := min(float64(mentions)/20, 1) * 0.4
	sentiment := ((avgSentiment + 1) / 2) * 0.3
	spread := min(float64(diversity)/10, 1) * 0.3
	return round2(volume + sentiment + spread)
}

// DailyTrend is the signal volume of one day.
type DailyTrend struct {
	Day          string  `json:"day"`
	Mentions     int     `json:"mentions"`
	AvgSentiment float64 `json:"avg_sentiment"`
}

// TrendSummary aggregates stored signals for one keyword.
type TrendSummary struct {
	Keyword          string       `json:"keyword"`
	MentionCount     int          `json:"mention_count"`
	AvgSentiment     float64      `json:"avg_sentiment"`
	SourceDiversity  int          `json:"source_diversity"`
	OpportunityScore float64      `json:"opportunity_score"`
	TopTitles        []string     `json:"top_titles"`
	Daily            []DailyTrend `json:"daily_trend"`
}

// MarketTrendSummary aggregates the last 30 days of signals for a keyword.
func (db *IntelDB) MarketTrendSummary(ctx context.Context, keyword string) (*TrendSummary, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, errors.New("trend summary: keyword is required")
	}
	s := &TrendSummary{Keyword: keyword, TopTitles: []string{}, Daily: []DailyTrend{}}

	err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(AVG(sentiment), 0), COUNT(DISTINCT source)
		 FROM market_signals
		 WHERE keyword ILIKE $1 AND created_at > now() - interval '30 days'`, keyword,
	).Scan(&s.MentionCount, &s.AvgSentiment, &s.SourceDiversity)
	if err != nil {
		return nil, fmt.Errorf("trend summary: aggregate: %w", err)
	}
	s.AvgSentiment = round2(s.AvgSentiment)
	s.OpportunityScore = KeywordOpportunityScore(s.MentionCount, s.AvgSentiment, s.SourceDiversity)

	rows, err := db.pool.Query(ctx,
		`SELECT title FROM market_signals
		 WHERE keyword ILIKE $1 AND title <> ''
		 ORDER BY relevance_score DESC, created_at DESC LIMIT 5`, keyword)
	if err != nil {
		return nil, fmt.Errorf("trend summary: titles: %w", err)
	}
	titles, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("trend summary: titles: %w", err)
	}
	s.TopTitles = append(s.TopTitles, titles...)

	rows, err = db.pool.Query(ctx,
		`SELECT to_char(date_trunc('day', created_at), 'YYYY-MM-DD'), COUNT(*), COALESCE(AVG(sentiment), 0)
		 FROM market_signals
		 WHERE keyword ILIKE $1 AND created_at > now() - interval '30 days'
		 GROUP BY 1 ORDER BY 1`, keyword)
	if err != nil {
		return nil, fmt.Errorf("trend summary: daily: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var d DailyTrend
		if err := rows.Scan(&d.Day, &d.Mentions, &d.AvgSentiment); err != nil {
			return nil, fmt.Errorf("trend summary: scan: %w", err)
		}
		d.AvgSentiment = round2(d.AvgSentiment)
		s.Daily = append(s.Daily, d)
	}
	return s, rows.Err()
}

// SaveOpportunities stores ranked opportunities under a discovery run.
func (db *IntelDB) SaveOpportunities(ctx context.Context, runID uuid.UUID, ranked []RankedOpportunity) error {
	if len(ranked) == 0 {
		return nil
	}
	var run any
	if runID != uuid.Nil {
		run = runID.String()
	}
	batch := &pgx.Batch{}
	for _, o := range ranked {
		data, err := json.Marshal(o)
		if err != nil {
			return fmt.Errorf("save opportunities: marshal %q: %w", o.OpportunityName, err)
		}
		batch.Queue(
			`INSERT INTO market_opportunities
			   (run_id, name, tagline, liminal_position, market_size_estimate,
			    opportunity_score, composite_score, tier, investment_recommendation, data)
			 VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			run, o.OpportunityName, o.Tagline, o.LiminalPosition, o.MarketSizeEstimate,
			o.ScoreOr(0), o.CompositeScore, o.Tier, o.InvestmentRecommendation, data,
		)
	}
	if err := db.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("save opportunities: %w", err)
	}
	return nil
}

// StoredOpportunity is a ranked opportunity read back from the store.
type StoredOpportunity struct {
	RankedOpportunity
	RunID   string    `json:"run_id,omitempty"`
	SavedAt time.Time `json:"saved_at"`
}

// TopOpportunities returns the best stored opportunities by composite score.
func (db *IntelDB) TopOpportunities(ctx context.Context, limit int) ([]StoredOpportunity, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	rows, err := db.pool.Query(ctx,
		`SELECT COALESCE(run_id::text, ''), data, created_at
		 FROM market_opportunities
		 ORDER BY composite_score DESC, created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("top opportunities: %w", err)
	}
	defer rows.Close()

	out := []StoredOpportunity{}
	for rows.Next() {
		var so StoredOpportunity
		var data []byte
		if err := rows.Scan(&so.RunID, &data, &so.SavedAt); err != nil {
			return nil, fmt.Errorf("top opportunities: scan: %w", err)
		}
		if err := json.Unmarshal(data, &so.RankedOpportunity); err != nil {
			slog.Warn("top opportunities: bad row", slog.Any("error", err))
			continue
		}
		out = append(out, so)
	}
	return out, rows.Err()
}
