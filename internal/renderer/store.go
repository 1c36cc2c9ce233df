// Package renderer serves landing pages and pitch documents deployed by the
// go_market MCP tools, and collects engagement events for them.
package renderer

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a site or document does not exist.
var ErrNotFound = errors.New("not found")

// Site kinds.
const (
	KindLanding = "landing"
	KindPitch   = "pitch"
)

// Event types with a dedicated counter. Any other "*_click" event counts as a CTA click.
const (
	EventPageView    = "page_view"
	EventFormSubmit  = "form_submit"
	EventPDFDownload = "pdf_download"
)

// Site is a rendered, deployed page.
type Site struct {
	ID               string         `json:"site_id"`
	Name             string         `json:"site_name"`
	Kind             string         `json:"kind"`
	HTML             string         `json:"html"`
	ContentData      map[string]any `json:"content_data,omitempty"`
	MetaData         map[string]any `json:"meta_data,omitempty"`
	DocumentID       string         `json:"document_id,omitempty"`
	PerformanceScore int            `json:"performance_score"`
	SEOScore         int            `json:"seo_score"`
	ConversionScore  int            `json:"conversion_score"`
	CreatedAt        time.Time      `json:"created_at"`
}

// Document is a stored file: an uploaded PDF or a pitch deck summary.
type Document struct {
	ID          string         `json:"document_id"`
	Name        string         `json:"name"`
	Type        string         `json:"type"`
	ContentType string         `json:"content_type"`
	Content     []byte         `json:"content"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	SiteID      string         `json:"site_id,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	Downloads   int64          `json:"downloads"`
	Views       int64          `json:"views"`
}

// SizeMB is the content size in megabytes, rounded to two decimals.
func (d *Document) SizeMB() float64 {
	mb := float64(len(d.Content)) / (1024 * 1024)
	return float64(int64(mb*100+0.5)) / 100
}

// SiteMetrics are engagement counters for one site.
type SiteMetrics struct {
	PageViews      int64     `json:"page_views"`
	CTAClicks      int64     `json:"cta_clicks"`
	FormSubmits    int64     `json:"form_submits"`
	PDFDownloads   int64     `json:"pdf_downloads"`
	Events         int64     `json:"events"`
	UniqueSessions int64     `json:"unique_sessions"`
	LastActivity   time.Time `json:"last_activity,omitzero"`
}

// Store persists sites, documents and their counters.
type Store interface {
	SaveSite(ctx context.Context, s *Site) error
	Site(ctx context.Context, id string) (*Site, error)
	Sites(ctx context.Context) ([]*Site, error)
	// DeleteSite removes a site with its counters. Missing ids are not an error.
	DeleteSite(ctx context.Context, id string) error
	SaveDocument(ctx context.Context, d *Document) error
	Document(ctx context.Context, id string) (*Document, error)
	Documents(ctx context.Context) ([]*Document, error)
	// RecordEvent counts an event for a site. session is added to the unique
	// session set when non-empty.
	RecordEvent(ctx context.Context, siteID, event, session string) error
	// CountDocumentAccess bumps the download or view counter of a document.
	// Downloads of a document linked to a site also count as a pdf_download
	// event on that site.
	CountDocumentAccess(ctx context.Context, id string, download bool) (*Document, error)
	Metrics(ctx context.Context, siteID string) (SiteMetrics, error)
}

// newID returns a short random identifier.
func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// counterFor maps an event type to the counter it increments, or "".
func counterFor(event string) string {
	switch {
	case event == EventPageView:
		return "page_views"
	case event == EventFormSubmit:
		return "form_submits"
	case event == EventPDFDownload:
		return "pdf_downloads"
	case strings.HasSuffix(event, "_click"):
		return "cta_clicks"
	}
	return ""
}

// MemoryStore keeps everything in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	sites    map[string]*Site
	docs     map[string]*Document
	metrics  map[string]*SiteMetrics
	sessions map[string]map[string]struct{}
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sites:    make(map[string]*Site),
		docs:     make(map[string]*Document),
		metrics:  make(map[string]*SiteMetrics),
		sessions: make(map[string]map[string]struct{}),
	}
}

func (m *MemoryStore) SaveSite(_ context.Context, s *Site) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.sites[s.ID] = &cp
	if _, ok := m.metrics[s.ID]; !ok {
		m.metrics[s.ID] = &SiteMetrics{}
		m.sessions[s.ID] = make(map[string]struct{})
	}
	return nil
}

func (m *MemoryStore) Site(_ context.Context, id string) (*Site, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sites[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

// Sites returns all sites, newest first.
func (m *MemoryStore) Sites(_ context.Context) ([]*Site, error) {
	m.mu.RLock()
	out := make([]*Site, 0, len(m.sites))
	for _, s := range m.sites {
		cp := *s
		out = append(out, &cp)
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) DeleteSite(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sites, id)
	delete(m.metrics, id)
	delete(m.sessions, id)
	return nil
}

func (m *MemoryStore) SaveDocument(_ context.Context, d *Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *d
	m.docs[d.ID] = &cp
	return nil
}

func (m *MemoryStore) Document(_ context.Context, id string) (*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *d
	return &cp, nil
}

// Documents returns all documents, newest first.
func (m *MemoryStore) Documents(_ context.Context) ([]*Document, error) {
	m.mu.RLock()
	out := make([]*Document, 0, len(m.docs))
	for _, d := range m.docs {
		cp := *d
		out = append(out, &cp)
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) RecordEvent(_ context.Context, siteID, event, session string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recordLocked(siteID, event, session)
}

func (m *MemoryStore) recordLocked(siteID, event, session string) error {
	sm, ok := m.metrics[siteID]
	if !ok {
		return ErrNotFound
	}
	switch counterFor(event) {
	case "page_views":
		sm.PageViews++
	case "form_submits":
		sm.FormSubmits++
	case "pdf_downloads":
		sm.PDFDownloads++
	case "cta_clicks":
		sm.CTAClicks++
	}
	sm.Events++
	sm.LastActivity = time.Now().UTC()
	if session != "" {
		m.sessions[siteID][session] = struct{}{}
		sm.UniqueSessions = int64(len(m.sessions[siteID]))
	}
	return nil
}

func (m *MemoryStore) CountDocumentAccess(_ context.Context, id string, download bool) (*Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !download {
		d.Views++
	} else {
		d.Downloads++
		if d.SiteID != "" {
			// The linked site may have expired or never existed.
			_ = m.recordLocked(d.SiteID, EventPDFDownload, "")
		}
	}
	cp := *d
	return &cp, nil
}

func (m *MemoryStore) Metrics(_ context.Context, siteID string) (SiteMetrics, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sm, ok := m.metrics[siteID]
	if !ok {
		return SiteMetrics{}, ErrNotFound
	}
	return *sm, nil
}
