package market

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	_ "modernc.org/sqlite"
)

// OpportunityStatus is the lifecycle stage of a tracked opportunity.
type OpportunityStatus string

const (
	StatusIdea        OpportunityStatus = "idea"
	StatusResearching OpportunityStatus = "researching"
	StatusValidating  OpportunityStatus = "validating"
	StatusBuilding    OpportunityStatus = "building"
	StatusLaunched    OpportunityStatus = "launched"
	StatusAbandoned   OpportunityStatus = "abandoned"
)

const validStatuses = "idea, researching, validating, building, launched, abandoned"

// TrackedOpportunity is a single entry in the opportunity tracker.
type TrackedOpportunity struct {
	ID         int64             `json:"id"`
	Name       string            `json:"name"`
	Tagline    string            `json:"tagline,omitempty"`
	Keywords   string            `json:"keywords,omitempty"`
	MarketSize string            `json:"market_size,omitempty"`
	Score      float64           `json:"score"`
	Status     OpportunityStatus `json:"status"`
	Notes      string            `json:"notes,omitempty"`
	SiteURL    string            `json:"site_url,omitempty"`
	CreatedAt  string            `json:"created_at"`
	UpdatedAt  string            `json:"updated_at"`
	UpdatedAgo string            `json:"updated_ago,omitempty"`
}

// TrackerAddInput is the input for opportunity_tracker_add.
type TrackerAddInput struct {
	Name       string  `json:"name"`
	Tagline    string  `json:"tagline,omitempty"`
	Keywords   string  `json:"keywords,omitempty"`
	MarketSize string  `json:"market_size,omitempty"`
	Score      float64 `json:"score,omitempty"`
	Status     string  `json:"status,omitempty"`
	Notes      string  `json:"notes,omitempty"`
	SiteURL    string  `json:"site_url,omitempty"`
}

// TrackerListInput is the input for opportunity_tracker_list.
type TrackerListInput struct {
	Status   string  `json:"status,omitempty"`
	MinScore float64 `json:"min_score,omitempty"`
	Limit    int     `json:"limit,omitempty"`
}

// TrackerUpdateInput is the input for opportunity_tracker_update.
type TrackerUpdateInput struct {
	ID      int64  `json:"id"`
	Status  string `json:"status,omitempty"`
	Notes   string `json:"notes,omitempty"`
	SiteURL string `json:"site_url,omitempty"`
}

// TrackerResult is the output for add/update operations.
type TrackerResult struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

// TrackerListResult is the output for list operations.
type TrackerListResult struct {
	Opportunities []TrackedOpportunity `json:"opportunities"`
	Total         int                  `json:"total"`
	ByStatus      map[string]int       `json:"by_status"`
}

var (
	trackerDB   *sql.DB
	trackerOnce sync.Once
	trackerErr  error
)

// openTrackerDB opens (or creates) the SQLite tracker database.
func openTrackerDB() (*sql.DB, error) {
	trackerOnce.Do(func() {
		dir := filepath.Join(os.Getenv("HOME"), ".go_market")
		if err := os.MkdirAll(dir, 0750); err != nil {
			trackerErr = fmt.Errorf("tracker: mkdir %s: %w", dir, err)
			return
		}
		db, err := sql.Open("sqlite", filepath.Join(dir, "tracker.db"))
		if err != nil {
			trackerErr = fmt.Errorf("tracker: open db: %w", err)
			return
		}
		db.SetMaxOpenConns(1) // SQLite: single writer
		if err := initTrackerSchema(db); err != nil {
			trackerErr = fmt.Errorf("tracker: init schema: %w", err)
			return
		}
		trackerDB = db
	})
	return trackerDB, trackerErr
}

func initTrackerSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS opportunities (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		name        TEXT NOT NULL,
		tagline     TEXT,
		keywords    TEXT,
		market_size TEXT,
		score       REAL NOT NULL DEFAULT 0,
		status      TEXT NOT NULL DEFAULT 'idea',
		notes       TEXT,
		site_url    TEXT,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`)
	return err
}

func validStatus(s string) bool {
	switch OpportunityStatus(s) {
	case StatusIdea, StatusResearching, StatusValidating, StatusBuilding, StatusLaunched, StatusAbandoned:
		return true
	}
	return false
}

// AddTrackedOpportunity saves a new opportunity to the tracker.
func AddTrackedOpportunity(ctx context.Context, input TrackerAddInput) (*TrackerResult, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, errors.New("opportunity_tracker_add: name is required")
	}
	if input.Score < 0 || input.Score > 1 {
		return nil, fmt.Errorf("opportunity_tracker_add: score %.2f out of range 0..1", input.Score)
	}
	status := strings.ToLower(input.Status)
	if status == "" {
		status = string(StatusIdea)
	}
	if !validStatus(status) {
		return nil, fmt.Errorf("opportunity_tracker_add: invalid status %q (valid: %s)", status, validStatuses)
	}

	db, err := openTrackerDB()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	res, err := db.ExecContext(ctx,
		`INSERT INTO opportunities (name, tagline, keywords, market_size, score, status, notes, site_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		input.Name, input.Tagline, input.Keywords, input.MarketSize, input.Score,
		status, input.Notes, input.SiteURL, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("opportunity_tracker_add: insert: %w", err)
	}

	id, _ := res.LastInsertId()
	return &TrackerResult{
		ID:      id,
		Message: fmt.Sprintf("Opportunity '%s' saved with status '%s' (id=%d)", input.Name, status, id),
	}, nil
}

// ListTrackedOpportunities returns tracked opportunities, best score first,
// optionally filtered by status and minimum score.
func ListTrackedOpportunities(ctx context.Context, input TrackerListInput) (*TrackerListResult, error) {
	db, err := openTrackerDB()
	if err != nil {
		return nil, err
	}

	limit := input.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	where := []string{"score >= ?"}
	args := []any{input.MinScore}
	if input.Status != "" {
		status := strings.ToLower(input.Status)
		if !validStatus(status) {
			return nil, fmt.Errorf("opportunity_tracker_list: invalid status %q", status)
		}
		where = append(where, "status = ?")
		args = append(args, status)
	}
	cond := strings.Join(where, " AND ")

	rows, err := db.QueryContext(ctx,
		`SELECT id, name, tagline, keywords, market_size, score, status, notes, site_url, created_at, updated_at
		 FROM opportunities WHERE `+cond+` ORDER BY score DESC, updated_at DESC LIMIT ?`,
		append(args, limit)...,
	)
	if err != nil {
		return nil, fmt.Errorf("opportunity_tracker_list: query: %w", err)
	}
	defer rows.Close()

	opps := []TrackedOpportunity{}
	for rows.Next() {
		var o TrackedOpportunity
		var tagline, keywords, marketSize, notes, siteURL sql.NullString
		if err := rows.Scan(&o.ID, &o.Name, &tagline, &keywords, &marketSize, &o.Score,
			&o.Status, &notes, &siteURL, &o.CreatedAt, &o.UpdatedAt); err != nil {
			continue
		}
		o.Tagline = tagline.String
		o.Keywords = keywords.String
		o.MarketSize = marketSize.String
		o.Notes = notes.String
		o.SiteURL = siteURL.String
		if t, err := time.Parse(time.RFC3339, o.UpdatedAt); err == nil {
			o.UpdatedAgo = humanize.Time(t)
		}
		opps = append(opps, o)
	}

	var total int
	db.QueryRowContext(ctx, `SELECT COUNT(*) FROM opportunities WHERE `+cond, args...).Scan(&total) //nolint:errcheck

	byStatus := map[string]int{}
	if srows, err := db.QueryContext(ctx, `SELECT status, COUNT(*) FROM opportunities GROUP BY status`); err == nil {
		for srows.Next() {
			var s string
			var n int
			if srows.Scan(&s, &n) == nil {
				byStatus[s] = n
			}
		}
		srows.Close()
	}

	return &TrackerListResult{Opportunities: opps, Total: total, ByStatus: byStatus}, nil
}

// UpdateTrackedOpportunity updates the status, notes and/or site URL of a
// tracked opportunity.
func UpdateTrackedOpportunity(ctx context.Context, input TrackerUpdateInput) (*TrackerResult, error) {
	if input.ID <= 0 {
		return nil, errors.New("opportunity_tracker_update: id is required")
	}
	if input.Status == "" && input.Notes == "" && input.SiteURL == "" {
		return nil, errors.New("opportunity_tracker_update: at least one of status, notes or site_url must be provided")
	}

	var sets []string
	var args []any
	if input.Status != "" {
		status := strings.ToLower(input.Status)
		if !validStatus(status) {
			return nil, fmt.Errorf("opportunity_tracker_update: invalid status %q", status)
		}
		sets = append(sets, "status=?")
		args = append(args, status)
	}
	if input.Notes != "" {
		sets = append(sets, "notes=?")
		args = append(args, input.Notes)
	}
	if input.SiteURL != "" {
		sets = append(sets, "site_url=?")
		args = append(args, input.SiteURL)
	}
	sets = append(sets, "updated_at=?")
	args = append(args, time.Now().UTC().Format(time.RFC3339), input.ID)

	db, err := openTrackerDB()
	if err != nil {
		return nil, err
	}
	res, err := db.ExecContext(ctx, `UPDATE opportunities SET `+strings.Join(sets, ", ")+` WHERE id=?`, args...)
	if err != nil {
		return nil, fmt.Errorf("opportunity_tracker_update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("opportunity_tracker_update: no opportunity with id %d", input.ID)
	}

	return &TrackerResult{
		ID:      input.ID,
		Message: fmt.Sprintf("Opportunity #%d updated successfully", input.ID),
	}, nil
}
