package market

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_market/internal/engine"
)

const pexelsPhotos = `{"photos": [
  {"id": 101, "width": 4000, "height": 2600, "alt": "", "photographer": "Ana", "url": "https://pexels.com/photo/101",
   "avg_color": "#aabbcc", "src": {"large": "https://img/101-l.jpg", "medium": "https://img/101-m.jpg", "small": "https://img/101-s.jpg"}}
]}`

const pexelsVideos = `{"videos": [
  {"id": 7, "width": 1920, "height": 1080, "duration": 12, "url": "https://pexels.com/video/7", "image": "https://img/7.jpg",
   "user": {"name": "Bo"},
   "video_files": [
     {"quality": "sd", "width": 640, "link": "https://v/7-sd.mp4"},
     {"quality": "hd", "width": 1920, "link": "https://v/7-hd.mp4"},
     {"quality": "hd", "width": 1280, "link": "https://v/7-hd2.mp4"}
   ]}
]}`

func withPexels(t *testing.T, key string, h http.HandlerFunc) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	engine.Init(engine.Config{PexelsAPIKey: key, PexelsBaseURL: srv.URL})
	t.Cleanup(func() { engine.Init(engine.Config{}) })
}

func TestSearchMedia_Pexels(t *testing.T) {
	withPexels(t, "secret", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("Authorization"))
		assert.Equal(t, "portrait", r.URL.Query().Get("orientation"))
		switch r.URL.Path {
		case "/v1/search":
			assert.Equal(t, "800", r.URL.Query().Get("min_width"))
			_, _ = w.Write([]byte(pexelsPhotos))
		case "/videos/search":
			assert.Equal(t, "30", r.URL.Query().Get("max_duration"))
			_, _ = w.Write([]byte(pexelsVideos))
		default:
			http.NotFound(w, r)
		}
	})

	res := SearchMedia(context.Background(), " coffee shop ", MediaBoth, 3,
		MediaOpts{Orientation: "portrait", MinWidth: 800, MaxDuration: 30})

	assert.False(t, res.Fallback)
	assert.Equal(t, "coffee shop", res.Query)
	require.Len(t, res.Images, 1)
	img := res.Images[0]
	assert.Equal(t, "101", img.ID)
	assert.Equal(t, "coffee shop", img.Alt, "empty alt falls back to the query")
	assert.Equal(t, "https://img/101-l.jpg", img.URL)
	assert.Equal(t, "pexels", img.Source)

	require.Len(t, res.Videos, 1)
	v := res.Videos[0]
	assert.Equal(t, "https://v/7-hd.mp4", v.URLHD)
	assert.Equal(t, "https://v/7-sd.mp4", v.URLSD)
	assert.Equal(t, "https://v/7-sd.mp4", v.URLMobile)
	assert.Equal(t, "Bo", v.Author)
}

func TestSearchMedia_NoKeyFallsBack(t *testing.T) {
	withPexels(t, "", func(w http.ResponseWriter, _ *http.Request) {
		t.Error("pexels should not be called without a key")
	})
	res := SearchMedia(context.Background(), "software team", "", 0, MediaOpts{})
	assert.True(t, res.Fallback)
	require.Len(t, res.Images, 3)
	assert.Equal(t, "fallback_0", res.Images[0].ID)
	assert.Equal(t, "fallback_unsplash", res.Images[0].Source)
	assert.Empty(t, res.Videos)
}

func TestSearchMedia_ClientErrorFallsBack(t *testing.T) {
	withPexels(t, "bad", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})
	res := SearchMedia(context.Background(), "growth", MediaVideos, 5, MediaOpts{})
	assert.True(t, res.Fallback)
	assert.Len(t, res.Videos, 2)
	assert.Equal(t, "growth - business concept video", res.Videos[0].Alt)
}

func TestFallbackImages(t *testing.T) {
	assert.Len(t, FallbackImages("digital innovation", 10), 2)
	assert.Len(t, FallbackImages("pottery", 10), 7, "unknown topics mix every set")
	assert.Len(t, FallbackImages("pottery", 4), 4)
	assert.Len(t, FallbackVideos("x", 1), 1)
}
