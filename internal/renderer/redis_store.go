package renderer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisPrefix = "renderer:"

// RedisStore keeps sites and documents in Redis so deployments survive
// restarts and can be shared by several renderer instances.
//
// Layout:
//
//	renderer:site:<id>        site JSON
//	renderer:doc:<id>         document JSON
//	renderer:docstats:<id>    hash: downloads, views
//	renderer:metrics:<id>     hash: counters, last_activity
//	renderer:sessions:<id>    set of session keys
//	renderer:sites            zset of site ids by creation time
//	renderer:docs             zset of document ids by creation time
type RedisStore struct {
	rdb    *redis.Client
	ttl    time.Duration // 0 = keep forever
	logger *slog.Logger
}

// NewRedisStore connects to redisURL and verifies the connection.
func NewRedisStore(ctx context.Context, redisURL string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("renderer: parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("renderer: redis ping: %w", err)
	}
	return NewRedisStoreFromClient(rdb, ttl), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl, logger: slog.Default().With(slog.String("component", "renderer.redis"))}
}

// WithLogger replaces the logger used for non-fatal store errors.
func (r *RedisStore) WithLogger(l *slog.Logger) *RedisStore {
	r.logger = l
	return r
}

// Close closes the underlying client.
func (r *RedisStore) Close() error { return r.rdb.Close() }

func key(kind, id string) string { return redisPrefix + kind + ":" + id }

func (r *RedisStore) expire(ctx context.Context, pipe redis.Pipeliner, keys ...string) {
	if r.ttl <= 0 {
		return
	}
	for _, k := range keys {
		pipe.Expire(ctx, k, r.ttl)
	}
}

func (r *RedisStore) SaveSite(ctx context.Context, s *Site) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("renderer: marshal site: %w", err)
	}
	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key("site", s.ID), data, r.ttl)
		pipe.ZAdd(ctx, redisPrefix+"sites", redis.Z{Score: float64(s.CreatedAt.Unix()), Member: s.ID})
		return nil
	})
	if err != nil {
		return fmt.Errorf("renderer: save site %s: %w", s.ID, err)
	}
	return nil
}

func (r *RedisStore) Site(ctx context.Context, id string) (*Site, error) {
	data, err := r.rdb.Get(ctx, key("site", id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("renderer: get site %s: %w", id, err)
	}
	var s Site
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("renderer: decode site %s: %w", id, err)
	}
	return &s, nil
}

// Sites returns all live sites, newest first. Ids whose site key expired are
// pruned from the index.
func (r *RedisStore) Sites(ctx context.Context) ([]*Site, error) {
	var out []*Site
	err := r.scanIndex(ctx, "sites", "site", func(data []byte) error {
		var s Site
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		out = append(out, &s)
		return nil
	})
	return out, err
}

func (r *RedisStore) DeleteSite(ctx context.Context, id string) error {
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key("site", id), key("metrics", id), key("sessions", id))
		pipe.ZRem(ctx, redisPrefix+"sites", id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("renderer: delete site %s: %w", id, err)
	}
	return nil
}

func (r *RedisStore) SaveDocument(ctx context.Context, d *Document) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("renderer: marshal document: %w", err)
	}
	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key("doc", d.ID), data, r.ttl)
		pipe.ZAdd(ctx, redisPrefix+"docs", redis.Z{Score: float64(d.CreatedAt.Unix()), Member: d.ID})
		return nil
	})
	if err != nil {
		return fmt.Errorf("renderer: save document %s: %w", d.ID, err)
	}
	return nil
}

func (r *RedisStore) Document(ctx context.Context, id string) (*Document, error) {
	data, err := r.rdb.Get(ctx, key("doc", id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("renderer: get document %s: %w", id, err)
	}
	return r.decodeDocument(ctx, data)
}

func (r *RedisStore) decodeDocument(ctx context.Context, data []byte) (*Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("renderer: decode document: %w", err)
	}
	stats, err := r.rdb.HGetAll(ctx, key("docstats", d.ID)).Result()
	if err != nil {
		return nil, fmt.Errorf("renderer: document stats %s: %w", d.ID, err)
	}
	d.Downloads = parseInt(stats["downloads"])
	d.Views = parseInt(stats["views"])
	return &d, nil
}

// Documents returns all live documents, newest first.
func (r *RedisStore) Documents(ctx context.Context) ([]*Document, error) {
	var out []*Document
	err := r.scanIndex(ctx, "docs", "doc", func(data []byte) error {
		d, err := r.decodeDocument(ctx, data)
		if err != nil {
			return err
		}
		out = append(out, d)
		return nil
	})
	return out, err
}

func (r *RedisStore) scanIndex(ctx context.Context, index, kind string, fn func([]byte) error) error {
	ids, err := r.rdb.ZRevRange(ctx, redisPrefix+index, 0, -1).Result()
	if err != nil {
		return fmt.Errorf("renderer: list %s: %w", index, err)
	}
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = key(kind, id)
	}
	vals, err := r.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return fmt.Errorf("renderer: load %s: %w", index, err)
	}
	var stale []any
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			stale = append(stale, ids[i])
			continue
		}
		if err := fn([]byte(s)); err != nil {
			return fmt.Errorf("renderer: decode %s %s: %w", kind, ids[i], err)
		}
	}
	if len(stale) > 0 {
		if err := r.rdb.ZRem(ctx, redisPrefix+index, stale...).Err(); err != nil {
			r.logger.Warn("prune stale index entries failed",
				slog.String("index", index), slog.Int("stale", len(stale)), slog.Any("error", err))
		}
	}
	return nil
}

func (r *RedisStore) RecordEvent(ctx context.Context, siteID, event, session string) error {
	n, err := r.rdb.Exists(ctx, key("site", siteID)).Result()
	if err != nil {
		return fmt.Errorf("renderer: check site %s: %w", siteID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return r.record(ctx, siteID, event, session)
}

func (r *RedisStore) record(ctx context.Context, siteID, event, session string) error {
	mk, sk := key("metrics", siteID), key("sessions", siteID)
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if c := counterFor(event); c != "" {
			pipe.HIncrBy(ctx, mk, c, 1)
		}
		pipe.HIncrBy(ctx, mk, "events", 1)
		pipe.HSet(ctx, mk, "last_activity", time.Now().UTC().Format(time.RFC3339))
		if session != "" {
			pipe.SAdd(ctx, sk, session)
		}
		r.expire(ctx, pipe, mk, sk)
		return nil
	})
	if err != nil {
		return fmt.Errorf("renderer: record %s for %s: %w", event, siteID, err)
	}
	return nil
}

func (r *RedisStore) CountDocumentAccess(ctx context.Context, id string, download bool) (*Document, error) {
	d, err := r.Document(ctx, id)
	if err != nil {
		return nil, err
	}
	field := "views"
	if download {
		field = "downloads"
	}
	sk := key("docstats", id)
	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, sk, field, 1)
		r.expire(ctx, pipe, sk)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("renderer: count %s for %s: %w", field, id, err)
	}
	if download {
		d.Downloads++
		if d.SiteID != "" {
			if err := r.RecordEvent(ctx, d.SiteID, EventPDFDownload, ""); err != nil && !errors.Is(err, ErrNotFound) {
				return nil, err
			}
		}
	} else {
		d.Views++
	}
	return d, nil
}

func (r *RedisStore) Metrics(ctx context.Context, siteID string) (SiteMetrics, error) {
	n, err := r.rdb.Exists(ctx, key("site", siteID)).Result()
	if err != nil {
		return SiteMetrics{}, fmt.Errorf("renderer: check site %s: %w", siteID, err)
	}
	if n == 0 {
		return SiteMetrics{}, ErrNotFound
	}
	var (
		hash  *redis.MapStringStringCmd
		count *redis.IntCmd
	)
	_, err = r.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		hash = pipe.HGetAll(ctx, key("metrics", siteID))
		count = pipe.SCard(ctx, key("sessions", siteID))
		return nil
	})
	if err != nil {
		return SiteMetrics{}, fmt.Errorf("renderer: metrics %s: %w", siteID, err)
	}
	h := hash.Val()
	m := SiteMetrics{
		PageViews:      parseInt(h["page_views"]),
		CTAClicks:      parseInt(h["cta_clicks"]),
		FormSubmits:    parseInt(h["form_submits"]),
		PDFDownloads:   parseInt(h["pdf_downloads"]),
		Events:         parseInt(h["events"]),
		UniqueSessions: count.Val(),
	}
	if ts, err := time.Parse(time.RFC3339, h["last_activity"]); err == nil {
		m.LastActivity = ts
	}
	return m, nil
}

func parseInt(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}
