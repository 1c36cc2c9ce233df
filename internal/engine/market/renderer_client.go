package market

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/anatolykoptev/go_market/internal/engine"
)

var errNoRenderer = errors.New("renderer URL not configured")

func rendererBase() (string, error) {
	base := strings.TrimRight(engine.Cfg.RendererURL, "/")
	if base == "" {
		return "", errNoRenderer
	}
	return base, nil
}

// callRenderer sends a JSON request to the renderer service and decodes the
// JSON reply into T. 429 and 5xx responses are retried.
func callRenderer[T any](ctx context.Context, method, path string, body any) (*T, error) {
	base, err := rendererBase()
	if err != nil {
		return nil, err
	}
	var payload []byte
	if body != nil {
		if payload, err = json.Marshal(body); err != nil {
			return nil, fmt.Errorf("renderer: marshal: %w", err)
		}
	}

	operation := func() (*T, error) {
		var rd io.Reader
		if payload != nil {
			rd = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, base+path, rd)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		resp, err := engine.Cfg.HTTPClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
		if err != nil {
			return nil, err
		}
		if engine.IsRetryableStatus(resp.StatusCode) {
			return nil, fmt.Errorf("status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, backoff.Permanent(fmt.Errorf("status %d: %s", resp.StatusCode, engine.TruncateRunes(string(data), 200, "...")))
		}
		var out T
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, backoff.Permanent(fmt.Errorf("decode: %w", err))
		}
		return &out, nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 5 * time.Second

	out, err := backoff.Retry(ctx, operation, backoff.WithBackOff(bo), backoff.WithMaxTries(3), backoff.WithMaxElapsedTime(30*time.Second))
	if err != nil {
		return nil, fmt.Errorf("renderer %s %s: %w", method, path, err)
	}
	return out, nil
}

// SiteStatus is the renderer's view of a deployed site.
type SiteStatus struct {
	SiteID    string         `json:"site_id"`
	SiteName  string         `json:"site_name"`
	CreatedAt string         `json:"created_at"`
	ViewCount int            `json:"view_count"`
	Metrics   map[string]any `json:"metrics"`
}

// GetSiteStatus fetches metrics for a deployed site.
func GetSiteStatus(ctx context.Context, siteID string) (*SiteStatus, error) {
	if strings.TrimSpace(siteID) == "" {
		return nil, errors.New("site status: site id is required")
	}
	return callRenderer[SiteStatus](ctx, http.MethodGet, "/api/sites/"+url.PathEscape(siteID)+"/metrics", nil)
}
