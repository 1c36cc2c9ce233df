package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/anatolykoptev/go_market/internal/engine"
)

// Media kinds accepted by SearchMedia.
const (
	MediaImages = "images"
	MediaVideos = "videos"
	MediaBoth   = "both"
)

var errNoPexelsKey = errors.New("pexels: api key not configured")

// Image is one stock photo.
type Image struct {
	ID              string `json:"id"`
	Width           int    `json:"width"`
	Height          int    `json:"height"`
	Alt             string `json:"alt"`
	Photographer    string `json:"photographer"`
	PhotographerURL string `json:"photographer_url,omitempty"`
	PageURL         string `json:"pexels_url,omitempty"`
	URL             string `json:"url"`
	URLMedium       string `json:"url_medium,omitempty"`
	URLSmall        string `json:"url_small,omitempty"`
	AvgColor        string `json:"avg_color,omitempty"`
	Source          string `json:"source"`
}

// Video is one stock video.
type Video struct {
	ID           string `json:"id"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Duration     int    `json:"duration"`
	Alt          string `json:"alt"`
	Author       string `json:"author,omitempty"`
	PageURL      string `json:"pexels_url,omitempty"`
	URLHD        string `json:"url_hd,omitempty"`
	URLSD        string `json:"url_sd,omitempty"`
	URLMobile    string `json:"url_mobile,omitempty"`
	PreviewImage string `json:"preview_image,omitempty"`
	Source       string `json:"source"`
}

// MediaResult groups media for one query.
type MediaResult struct {
	Query    string  `json:"query"`
	Images   []Image `json:"images"`
	Videos   []Video `json:"videos"`
	Fallback bool    `json:"fallback,omitempty"`
}

// MediaOpts narrows a media search.
type MediaOpts struct {
	Orientation string // landscape (default), portrait, square
	Size        string // large (default), medium, small
	MinWidth    int
	MinHeight   int
	MinDuration int
	MaxDuration int
}

type pexelsPhoto struct {
	ID              int64             `json:"id"`
	Width           int               `json:"width"`
	Height          int               `json:"height"`
	Alt             string            `json:"alt"`
	Photographer    string            `json:"photographer"`
	PhotographerURL string            `json:"photographer_url"`
	URL             string            `json:"url"`
	AvgColor        string            `json:"avg_color"`
	Src             map[string]string `json:"src"`
}

type pexelsVideo struct {
	ID       int64  `json:"id"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Duration int    `json:"duration"`
	URL      string `json:"url"`
	Image    string `json:"image"`
	User     struct {
		Name string `json:"name"`
	} `json:"user"`
	Files []struct {
		Quality string `json:"quality"`
		Width   int    `json:"width"`
		Link    string `json:"link"`
	} `json:"video_files"`
}

// SearchMedia fetches Pexels images and/or videos. A missing key or a failed
// request yields fallback media instead of an error.
func SearchMedia(ctx context.Context, query, kind string, perPage int, opts MediaOpts) *MediaResult {
	query = strings.TrimSpace(query)
	if perPage <= 0 {
		perPage = 5
	}
	perPage = min(perPage, 80)
	if kind == "" {
		kind = MediaImages
	}
	res := &MediaResult{Query: query, Images: []Image{}, Videos: []Video{}}

	if kind == MediaImages || kind == MediaBoth {
		images, err := searchPexelsImages(ctx, query, perPage, opts)
		if err != nil {
			logMediaFallback("images", err)
			images = FallbackImages(query, perPage)
			res.Fallback = true
		}
		res.Images = images
	}
	if kind == MediaVideos || kind == MediaBoth {
		videos, err := searchPexelsVideos(ctx, query, perPage, opts)
		if err != nil {
			logMediaFallback("videos", err)
			videos = FallbackVideos(query, perPage)
			res.Fallback = true
		}
		res.Videos = videos
	}
	return res
}

func logMediaFallback(kind string, err error) {
	if errors.Is(err, errNoPexelsKey) {
		slog.Debug("pexels: no key, using fallback media", slog.String("kind", kind))
		return
	}
	slog.Warn("pexels: request failed, using fallback media", slog.String("kind", kind), slog.Any("error", err))
}

func pexelsGet[T any](ctx context.Context, path string, params url.Values) (*T, error) {
	if engine.Cfg.PexelsAPIKey == "" {
		return nil, errNoPexelsKey
	}
	engine.IncrPexelsRequests()
	endpoint := strings.TrimRight(engine.Cfg.PexelsBaseURL, "/") + path + "?" + params.Encode()
	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", engine.Cfg.PexelsAPIKey)
		return engine.Cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("pexels: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 300))
		return nil, fmt.Errorf("pexels: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("pexels: decode: %w", err)
	}
	return &out, nil
}

func searchPexelsImages(ctx context.Context, query string, perPage int, opts MediaOpts) ([]Image, error) {
	size := orDefault(opts.Size, "large")
	params := url.Values{
		"query":       {query},
		"per_page":    {strconv.Itoa(perPage)},
		"orientation": {orDefault(opts.Orientation, "landscape")},
		"size":        {size},
	}
	if opts.MinWidth > 0 {
		params.Set("min_width", strconv.Itoa(opts.MinWidth))
	}
	if opts.MinHeight > 0 {
		params.Set("min_height", strconv.Itoa(opts.MinHeight))
	}
	data, err := pexelsGet[struct {
		Photos []pexelsPhoto `json:"photos"`
	}](ctx, "/v1/search", params)
	if err != nil {
		return nil, err
	}

	images := make([]Image, 0, len(data.Photos))
	for _, p := range data.Photos {
		u := p.Src[size]
		if u == "" {
			u = p.Src["large"]
		}
		images = append(images, Image{
			ID:              strconv.FormatInt(p.ID, 10),
			Width:           p.Width,
			Height:          p.Height,
			Alt:             orDefault(p.Alt, query),
			Photographer:    p.Photographer,
			PhotographerURL: p.PhotographerURL,
			PageURL:         p.URL,
			URL:             u,
			URLMedium:       p.Src["medium"],
			URLSmall:        p.Src["small"],
			AvgColor:        p.AvgColor,
			Source:          "pexels",
		})
	}
	return images, nil
}

func searchPexelsVideos(ctx context.Context, query string, perPage int, opts MediaOpts) ([]Video, error) {
	params := url.Values{
		"query":       {query},
		"per_page":    {strconv.Itoa(perPage)},
		"orientation": {orDefault(opts.Orientation, "landscape")},
	}
	if opts.MinWidth > 0 {
		params.Set("min_width", strconv.Itoa(opts.MinWidth))
	}
	if opts.MinHeight > 0 {
		params.Set("min_height", strconv.Itoa(opts.MinHeight))
	}
	if opts.MinDuration > 0 {
		params.Set("min_duration", strconv.Itoa(opts.MinDuration))
	}
	if opts.MaxDuration > 0 {
		params.Set("max_duration", strconv.Itoa(opts.MaxDuration))
	}
	data, err := pexelsGet[struct {
		Videos []pexelsVideo `json:"videos"`
	}](ctx, "/videos/search", params)
	if err != nil {
		return nil, err
	}

	videos := make([]Video, 0, len(data.Videos))
	for _, v := range data.Videos {
		out := Video{
			ID:           strconv.FormatInt(v.ID, 10),
			Width:        v.Width,
			Height:       v.Height,
			Duration:     v.Duration,
			Alt:          query + " video",
			Author:       v.User.Name,
			PageURL:      v.URL,
			PreviewImage: v.Image,
			Source:       "pexels",
		}
		for _, f := range v.Files {
			switch {
			case f.Quality == "hd" && out.URLHD == "":
				out.URLHD = f.Link
			case f.Quality == "sd" && out.URLSD == "":
				out.URLSD = f.Link
			}
			if f.Width > 0 && f.Width <= 640 && out.URLMobile == "" {
				out.URLMobile = f.Link
			}
		}
		videos = append(videos, out)
	}
	return videos, nil
}

var fallbackImageSets = []struct {
	words  []string
	images []Image
}{
	{[]string{"business", "team", "professional", "office"}, []Image{
		{URL: "https://images.unsplash.com/photo-1486406146926-c627a92ad1ab?auto=format&fit=crop&w=2070&q=80", Alt: "Modern business building skyline"},
		{URL: "https://images.unsplash.com/photo-1504384308090-c894fdcc538d?auto=format&fit=crop&w=2070&q=80", Alt: "Business team collaboration meeting"},
		{URL: "https://images.unsplash.com/photo-1560472354-b33ff0c44a43?auto=format&fit=crop&w=2126&q=80", Alt: "Professional workspace setup"},
	}},
	{[]string{"tech", "software", "ai", "digital", "innovation"}, []Image{
		{URL: "https://images.unsplash.com/photo-1518709268805-4e9042af2176?auto=format&fit=crop&w=2125&q=80", Alt: "Technology and innovation concept"},
		{URL: "https://images.unsplash.com/photo-1581091226825-a6a2a5aee158?auto=format&fit=crop&w=2070&q=80", Alt: "AI and digital transformation"},
	}},
	{[]string{"workflow", "productivity", "process"}, []Image{
		{URL: "https://images.unsplash.com/photo-1553877522-43269d4ea984?auto=format&fit=crop&w=2070&q=80", Alt: "Team workflow and productivity"},
	}},
	{[]string{"success", "growth", "achievement"}, []Image{
		{URL: "https://images.unsplash.com/photo-1552664730-d307ca884978?auto=format&fit=crop&w=2070&q=80", Alt: "Success and achievement concept"},
	}},
}

// FallbackImages picks a themed set by query words, else a mix of all sets.
func FallbackImages(query string, count int) []Image {
	var picked []Image
	for _, set := range fallbackImageSets {
		if engine.ContainsAny(query, set.words...) {
			picked = set.images
			break
		}
	}
	if picked == nil {
		for _, set := range fallbackImageSets {
			picked = append(picked, set.images...)
		}
	}
	out := make([]Image, 0, min(count, len(picked)))
	for i, img := range picked {
		if i == count {
			break
		}
		img.ID = fmt.Sprintf("fallback_%d", i)
		img.Width, img.Height = 2070, 1380
		img.Photographer = "Unsplash Contributors"
		img.PhotographerURL = "https://unsplash.com"
		img.Source = "fallback_unsplash"
		out = append(out, img)
	}
	return out
}

// FallbackVideos returns placeholder videos labelled with the query.
func FallbackVideos(query string, count int) []Video {
	videos := []Video{
		{
			ID:           "fallback_video_1",
			Alt:          query + " - business concept video",
			Duration:     30,
			Width:        1920,
			Height:       1080,
			Author:       "Stock Video Creator",
			PreviewImage: "https://images.unsplash.com/photo-1486406146926-c627a92ad1ab?auto=format&fit=crop&w=400&q=80",
			Source:       "fallback",
		},
		{
			ID:           "fallback_video_2",
			Alt:          query + " - technology animation",
			Duration:     25,
			Width:        1920,
			Height:       1080,
			Author:       "Tech Video Creator",
			PreviewImage: "https://images.unsplash.com/photo-1518709268805-4e9042af2176?auto=format&fit=crop&w=400&q=80",
			Source:       "fallback",
		},
	}
	return videos[:min(count, len(videos))]
}
