package renderer

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeContract runs the behaviour every Store must share.
func storeContract(t *testing.T, st Store) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	_, err := st.Site(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, st.RecordEvent(ctx, "missing", EventPageView, ""), ErrNotFound)

	older := &Site{ID: newID(), Name: "Older", Kind: KindLanding, HTML: "<p>a</p>", CreatedAt: now.Add(-time.Hour)}
	newer := &Site{ID: newID(), Name: "Newer", Kind: KindPitch, HTML: "<p>b</p>", CreatedAt: now}
	require.NoError(t, st.SaveSite(ctx, older))
	require.NoError(t, st.SaveSite(ctx, newer))

	got, err := st.Site(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, "Older", got.Name)
	assert.Equal(t, "<p>a</p>", got.HTML)

	sites, err := st.Sites(ctx)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(sites), 2)
	assert.Equal(t, newer.ID, sites[0].ID)

	require.NoError(t, st.RecordEvent(ctx, older.ID, EventPageView, "10.0.0.1"))
	require.NoError(t, st.RecordEvent(ctx, older.ID, EventPageView, "10.0.0.1"))
	require.NoError(t, st.RecordEvent(ctx, older.ID, EventPageView, "10.0.0.2"))
	require.NoError(t, st.RecordEvent(ctx, older.ID, "cta-primary_click", ""))
	require.NoError(t, st.RecordEvent(ctx, older.ID, EventFormSubmit, ""))
	require.NoError(t, st.RecordEvent(ctx, older.ID, "scroll_depth", ""))

	m, err := st.Metrics(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), m.PageViews)
	assert.Equal(t, int64(1), m.CTAClicks)
	assert.Equal(t, int64(1), m.FormSubmits)
	assert.Equal(t, int64(6), m.Events)
	assert.Equal(t, int64(2), m.UniqueSessions)
	assert.False(t, m.LastActivity.IsZero())

	doc := &Document{
		ID:          newID(),
		Name:        "deck",
		Type:        "pitch_deck",
		ContentType: "application/pdf",
		Content:     []byte("%PDF-1.4"),
		SiteID:      older.ID,
		CreatedAt:   now,
	}
	require.NoError(t, st.SaveDocument(ctx, doc))

	d, err := st.CountDocumentAccess(ctx, doc.ID, true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), d.Downloads)
	_, err = st.CountDocumentAccess(ctx, doc.ID, false)
	require.NoError(t, err)

	d, err = st.Document(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), d.Content)
	assert.Equal(t, int64(1), d.Downloads)
	assert.Equal(t, int64(1), d.Views)

	m, err = st.Metrics(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), m.PDFDownloads)

	_, err = st.CountDocumentAccess(ctx, "missing", true)
	require.ErrorIs(t, err, ErrNotFound)

	docs, err := st.Documents(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, docs)

	require.NoError(t, st.DeleteSite(ctx, newer.ID))
	_, err = st.Site(ctx, newer.ID)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = st.Metrics(ctx, newer.ID)
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, st.DeleteSite(ctx, "missing"))
	sites, err = st.Sites(ctx)
	require.NoError(t, err)
	for _, s := range sites {
		assert.NotEqual(t, newer.ID, s.ID)
	}
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, NewMemoryStore())
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	require.NoError(t, st.SaveSite(ctx, &Site{ID: "a", Name: "A"}))

	s, err := st.Site(ctx, "a")
	require.NoError(t, err)
	s.Name = "changed"

	s, err = st.Site(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "A", s.Name)
}

func TestMemoryStore_DownloadOfOrphanDocument(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	require.NoError(t, st.SaveDocument(ctx, &Document{ID: "d", SiteID: "gone"}))

	d, err := st.CountDocumentAccess(ctx, "d", true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), d.Downloads)
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("RENDERER_TEST_REDIS_URL")
	if url == "" {
		t.Skip("RENDERER_TEST_REDIS_URL not set")
	}
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	rdb := redis.NewClient(opts)
	ctx := context.Background()
	require.NoError(t, rdb.Ping(ctx).Err())
	require.NoError(t, rdb.FlushDB(ctx).Err())
	t.Cleanup(func() {
		_ = rdb.FlushDB(context.Background()).Err()
		_ = rdb.Close()
	})

	storeContract(t, NewRedisStoreFromClient(rdb, time.Hour))
}

// zremFailHook makes every ZREM fail.
type zremFailHook struct{}

func (zremFailHook) DialHook(next redis.DialHook) redis.DialHook { return next }

func (zremFailHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		if cmd.Name() == "zrem" {
			err := errors.New("zrem refused")
			cmd.SetErr(err)
			return err
		}
		return next(ctx, cmd)
	}
}

func (zremFailHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func TestRedisStore_PruneFailureLogged(t *testing.T) {
	url := os.Getenv("RENDERER_TEST_REDIS_URL")
	if url == "" {
		t.Skip("RENDERER_TEST_REDIS_URL not set")
	}
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	rdb := redis.NewClient(opts)
	ctx := context.Background()
	require.NoError(t, rdb.FlushDB(ctx).Err())
	t.Cleanup(func() {
		_ = rdb.FlushDB(context.Background()).Err()
		_ = rdb.Close()
	})
	require.NoError(t, rdb.ZAdd(ctx, redisPrefix+"sites", redis.Z{Score: 1, Member: "expired"}).Err())
	rdb.AddHook(zremFailHook{})

	var buf bytes.Buffer
	st := NewRedisStoreFromClient(rdb, 0).WithLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	sites, err := st.Sites(ctx)
	require.NoError(t, err)
	assert.Empty(t, sites)
	assert.Contains(t, buf.String(), "prune stale index entries failed")
	assert.Contains(t, buf.String(), "zrem refused")
}

func TestCounterFor(t *testing.T) {
	tests := []struct {
		event string
		want  string
	}{
		{EventPageView, "page_views"},
		{EventFormSubmit, "form_submits"},
		{EventPDFDownload, "pdf_downloads"},
		{"cta-primary_click", "cta_clicks"},
		{"scroll_depth", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, counterFor(tt.event), tt.event)
	}
}

func TestDocumentSizeMB(t *testing.T) {
	d := &Document{Content: make([]byte, 1536*1024)}
	assert.InDelta(t, 1.5, d.SizeMB(), 0.001)
}
