package renderer

import (
	"cmp"
	"encoding/base64"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"maps"
	"mime"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config configures the HTTP server.
type Config struct {
	BaseURL          string   // public URL used in returned links
	AllowedOrigins   []string // empty or "*" = any origin
	MaxDocumentBytes int      // decoded upload limit, default 20 MiB
	Version          string
}

// Server is the renderer HTTP API.
type Server struct {
	store    Store
	cfg      Config
	metrics  *Metrics
	registry *prometheus.Registry
}

// NewServer creates a server over store with its own metrics registry.
func NewServer(store Store, cfg Config) *Server {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080"
	}
	if cfg.MaxDocumentBytes <= 0 {
		cfg.MaxDocumentBytes = 20 << 20
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	reg := prometheus.NewRegistry()
	return &Server{store: store, cfg: cfg, metrics: NewMetrics(reg), registry: reg}
}

// Router builds the gin engine with every route.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(), s.metrics.Middleware(), cors.New(corsConfig(s.cfg.AllowedOrigins)))

	r.GET("/", s.health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
	r.GET("/dashboard", s.dashboard)

	r.GET("/site/:id", s.serveSite)
	r.GET("/preview/:id", s.previewSite)

	api := r.Group("/api")
	api.POST("/deploy", s.deploy)
	api.POST("/pitch/deploy", s.deployPitch)
	api.POST("/pdf/store", s.storeDocument)
	api.GET("/pdf/:id/download", s.documentContent(true))
	api.GET("/pdf/:id/view", s.documentContent(false))
	api.GET("/pdf/:id/info", s.documentInfo)
	api.POST("/track", s.track)
	api.GET("/sites", s.listSites)
	api.GET("/sites/:id/metrics", s.siteMetrics)
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("renderer: request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("took", time.Since(start)))
	}
}

func (s *Server) storageError(c *gin.Context, op string, err error) {
	slog.Error("renderer: storage error", slog.String("op", op), slog.Any("error", err))
	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "storage error"})
}

func badRequest(c *gin.Context, err error) {
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"success": false, "error": "request body too large"})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
}

func (s *Server) siteURL(id string) string     { return s.cfg.BaseURL + "/site/" + id }
func (s *Server) previewURL(id string) string  { return s.cfg.BaseURL + "/preview/" + id }
func (s *Server) documentURL(id string) string { return s.cfg.BaseURL + "/api/pdf/" + id }

type deployRequest struct {
	SiteName    string         `json:"site_name" binding:"required"`
	Assets      Assets         `json:"assets"`
	ContentData map[string]any `json:"content_data"`
	MetaData    map[string]any `json:"meta_data"`
	Analytics   map[string]any `json:"analytics"`
}

type deployResponse struct {
	Success          bool      `json:"success"`
	SiteID           string    `json:"site_id"`
	LiveURL          string    `json:"live_url"`
	PreviewURL       string    `json:"preview_url"`
	Status           string    `json:"status"`
	PerformanceScore int       `json:"performance_score"`
	SEOScore         int       `json:"seo_score"`
	ConversionScore  int       `json:"conversion_score"`
	CreatedAt        time.Time `json:"created_at"`
}

func (s *Server) deploy(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBody())
	var req deployRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	id := newID()
	html, err := RenderSite(req.Assets, req.ContentData, id, s.cfg.BaseURL)
	if err != nil {
		s.metrics.Deploys.WithLabelValues(KindLanding, "invalid").Inc()
		badRequest(c, err)
		return
	}
	site := &Site{
		ID:          id,
		Name:        req.SiteName,
		Kind:        KindLanding,
		HTML:        html,
		ContentData: req.ContentData,
		MetaData:    req.MetaData,
		CreatedAt:   time.Now().UTC(),
	}
	site.PerformanceScore, site.SEOScore, site.ConversionScore = Scores(html, req.MetaData, req.Analytics)
	if err := s.store.SaveSite(c.Request.Context(), site); err != nil {
		s.metrics.Deploys.WithLabelValues(KindLanding, "error").Inc()
		s.storageError(c, "save site", err)
		return
	}
	s.metrics.Deploys.WithLabelValues(KindLanding, "success").Inc()
	slog.Info("renderer: site deployed", slog.String("site_id", id), slog.String("name", req.SiteName))

	c.JSON(http.StatusOK, deployResponse{
		Success:          true,
		SiteID:           id,
		LiveURL:          s.siteURL(id),
		PreviewURL:       s.previewURL(id),
		Status:           "deployed",
		PerformanceScore: site.PerformanceScore,
		SEOScore:         site.SEOScore,
		ConversionScore:  site.ConversionScore,
		CreatedAt:        site.CreatedAt,
	})
}

type pitchRequest struct {
	PitchName            string         `json:"pitch_name" binding:"required"`
	ExecutiveSummary     map[string]any `json:"executive_summary" binding:"required"`
	PresentationMetadata map[string]any `json:"presentation_metadata"`
	CreateLandingPage    bool           `json:"create_landing_page"`
	LandingPageData      map[string]any `json:"landing_page_data"`
	PDFBase64            string         `json:"pdf_base64"`
}

type pitchResponse struct {
	Success        bool   `json:"success"`
	DocumentID     string `json:"document_id"`
	DocumentURL    string `json:"document_url"`
	SiteID         string `json:"site_id,omitempty"`
	LandingPageURL string `json:"landing_page_url,omitempty"`
	PreviewURL     string `json:"preview_url,omitempty"`
}

// deployPitch stores the pitch as a document (the supplied PDF, or the
// summary as JSON) and optionally publishes a landing page linked to it.
func (s *Server) deployPitch(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBody())
	var req pitchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ctx := c.Request.Context()
	now := time.Now().UTC()

	doc := &Document{
		ID:        newID(),
		Name:      req.PitchName,
		Type:      "pitch_deck",
		Metadata:  req.PresentationMetadata,
		CreatedAt: now,
	}
	if req.PDFBase64 != "" {
		content, err := s.decodeDocument(req.PDFBase64)
		if err != nil {
			c.JSON(statusFor(err), gin.H{"success": false, "error": err.Error()})
			return
		}
		doc.Content, doc.ContentType = content, "application/pdf"
	} else {
		content, err := json.Marshal(map[string]any{
			"pitch_name":            req.PitchName,
			"executive_summary":     req.ExecutiveSummary,
			"presentation_metadata": req.PresentationMetadata,
		})
		if err != nil {
			badRequest(c, err)
			return
		}
		doc.Content, doc.ContentType = content, "application/json"
	}

	resp := pitchResponse{Success: true, DocumentID: doc.ID, DocumentURL: s.documentURL(doc.ID) + "/download"}
	if req.CreateLandingPage {
		data := map[string]any{
			"pitch_name":            req.PitchName,
			"executive_summary":     req.ExecutiveSummary,
			"presentation_metadata": req.PresentationMetadata,
			"document_id":           doc.ID,
			"document_url":          resp.DocumentURL,
			"generated_date":        now.Format("January 2, 2006"),
		}
		maps.Copy(data, req.LandingPageData)

		id := newID()
		html, err := RenderPitch(data, id, s.cfg.BaseURL)
		if err != nil {
			s.metrics.Deploys.WithLabelValues(KindPitch, "invalid").Inc()
			badRequest(c, err)
			return
		}
		site := &Site{
			ID:          id,
			Name:        req.PitchName + " - Pitch Deck",
			Kind:        KindPitch,
			HTML:        html,
			ContentData: data,
			MetaData:    req.PresentationMetadata,
			DocumentID:  doc.ID,
			CreatedAt:   now,
		}
		site.PerformanceScore, site.SEOScore, site.ConversionScore = Scores(html, req.PresentationMetadata, nil)
		if err := s.store.SaveSite(ctx, site); err != nil {
			s.metrics.Deploys.WithLabelValues(KindPitch, "error").Inc()
			s.storageError(c, "save pitch site", err)
			return
		}
		doc.SiteID = id
		resp.SiteID = id
		resp.LandingPageURL = s.siteURL(id)
		resp.PreviewURL = s.previewURL(id)
	}

	if err := s.store.SaveDocument(ctx, doc); err != nil {
		if resp.SiteID != "" {
			s.metrics.Deploys.WithLabelValues(KindPitch, "error").Inc()
			if derr := s.store.DeleteSite(ctx, resp.SiteID); derr != nil {
				slog.Warn("renderer: rollback pitch site failed", slog.String("site_id", resp.SiteID), slog.Any("error", derr))
			}
		}
		s.storageError(c, "save pitch document", err)
		return
	}
	s.metrics.DocumentsStored.Inc()
	if resp.SiteID != "" {
		s.metrics.Deploys.WithLabelValues(KindPitch, "success").Inc()
	}
	slog.Info("renderer: pitch deployed",
		slog.String("document_id", doc.ID), slog.String("site_id", resp.SiteID), slog.String("name", req.PitchName))
	c.JSON(http.StatusOK, resp)
}

type documentRequest struct {
	PDFName          string         `json:"pdf_name" binding:"required"`
	PDFBase64        string         `json:"pdf_base64" binding:"required"`
	PDFType          string         `json:"pdf_type"`
	Metadata         map[string]any `json:"metadata"`
	AssociatedSiteID string         `json:"associated_site_id"`
}

var (
	errBadBase64   = errors.New("invalid base64 content")
	errTooLarge    = errors.New("document too large")
	errSiteUnknown = errors.New("associated site not found")
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, errTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errSiteUnknown):
		return http.StatusNotFound
	}
	return http.StatusBadRequest
}

// maxBody bounds a JSON body carrying a base64 document of MaxDocumentBytes.
func (s *Server) maxBody() int64 {
	return int64(s.cfg.MaxDocumentBytes)*4/3 + 64<<10
}

func (s *Server) decodeDocument(b64 string) ([]byte, error) {
	if i := strings.Index(b64, ";base64,"); i >= 0 && strings.HasPrefix(b64, "data:") {
		b64 = b64[i+len(";base64,"):]
	}
	content, err := base64.StdEncoding.DecodeString(strings.TrimSpace(b64))
	if err != nil {
		return nil, errBadBase64
	}
	if len(content) > s.cfg.MaxDocumentBytes {
		return nil, errTooLarge
	}
	return content, nil
}

func (s *Server) storeDocument(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBody())
	var req documentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ctx := c.Request.Context()
	content, err := s.decodeDocument(req.PDFBase64)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"success": false, "error": err.Error()})
		return
	}
	if req.AssociatedSiteID != "" {
		if _, err := s.store.Site(ctx, req.AssociatedSiteID); errors.Is(err, ErrNotFound) {
			c.JSON(statusFor(errSiteUnknown), gin.H{"success": false, "error": errSiteUnknown.Error()})
			return
		} else if err != nil {
			s.storageError(c, "check site", err)
			return
		}
	}

	doc := &Document{
		ID:          newID(),
		Name:        req.PDFName,
		Type:        cmp.Or(req.PDFType, "document"),
		ContentType: "application/pdf",
		Content:     content,
		Metadata:    req.Metadata,
		SiteID:      req.AssociatedSiteID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.SaveDocument(ctx, doc); err != nil {
		s.storageError(c, "save document", err)
		return
	}
	s.metrics.DocumentsStored.Inc()

	base := s.documentURL(doc.ID)
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"pdf_id":       doc.ID,
		"download_url": base + "/download",
		"view_url":     base + "/view",
		"info_url":     base + "/info",
		"file_size_mb": doc.SizeMB(),
	})
}

func (s *Server) documentContent(download bool) gin.HandlerFunc {
	disposition := "inline"
	if download {
		disposition = "attachment"
	}
	return func(c *gin.Context) {
		doc, err := s.store.CountDocumentAccess(c.Request.Context(), c.Param("id"), download)
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
			return
		}
		if err != nil {
			s.storageError(c, "document access", err)
			return
		}
		if download && doc.SiteID != "" {
			s.metrics.event(EventPDFDownload)
		}
		c.Header("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": fileName(doc)}))
		c.Header("Cache-Control", "no-cache")
		c.Data(http.StatusOK, doc.ContentType, doc.Content)
	}
}

func fileName(d *Document) string {
	name := d.Name
	switch d.ContentType {
	case "application/pdf":
		if !strings.HasSuffix(strings.ToLower(name), ".pdf") {
			name += ".pdf"
		}
	case "application/json":
		name += ".json"
	}
	return name
}

type documentInfo struct {
	DocumentID string         `json:"pdf_id"`
	Name       string         `json:"pdf_name"`
	Type       string         `json:"pdf_type"`
	SizeMB     float64        `json:"file_size_mb"`
	CreatedAt  time.Time      `json:"created_at"`
	SiteID     string         `json:"associated_site_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Downloads  int64          `json:"download_count"`
	Views      int64          `json:"view_count"`
	URLs       map[string]any `json:"urls"`
}

func (s *Server) info(d *Document) documentInfo {
	base := s.documentURL(d.ID)
	return documentInfo{
		DocumentID: d.ID,
		Name:       d.Name,
		Type:       d.Type,
		SizeMB:     d.SizeMB(),
		CreatedAt:  d.CreatedAt,
		SiteID:     d.SiteID,
		Metadata:   d.Metadata,
		Downloads:  d.Downloads,
		Views:      d.Views,
		URLs: map[string]any{
			"download": base + "/download",
			"view":     base + "/view",
			"info":     base + "/info",
		},
	}
}

func (s *Server) documentInfo(c *gin.Context) {
	doc, err := s.store.Document(c.Request.Context(), c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
		return
	}
	if err != nil {
		s.storageError(c, "get document", err)
		return
	}
	c.JSON(http.StatusOK, s.info(doc))
}

var notFoundPage = template.Must(template.New("notfound").Parse(`<!DOCTYPE html>
<html>
<head>
<title>Site Not Found</title>
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<style>
body { font-family: Inter, -apple-system, sans-serif; text-align: center; padding: 50px 20px; background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); color: #fff; min-height: 100vh; margin: 0; display: flex; align-items: center; justify-content: center; }
.container { background: rgba(255,255,255,0.1); padding: 40px; border-radius: 20px; max-width: 500px; }
code { background: rgba(255,255,255,0.2); padding: 5px 10px; border-radius: 6px; }
</style>
</head>
<body>
<div class="container">
<h1>Site Not Found</h1>
<p>The site you're looking for doesn't exist or has been removed.</p>
<p>Site ID: <code>{{.}}</code></p>
</div>
</body>
</html>
`))

func (s *Server) serveSite(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	site, err := s.store.Site(ctx, id)
	if errors.Is(err, ErrNotFound) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.Status(http.StatusNotFound)
		if err := notFoundPage.Execute(c.Writer, id); err != nil {
			slog.Warn("renderer: not found page", slog.Any("error", err))
		}
		return
	}
	if err != nil {
		s.storageError(c, "get site", err)
		return
	}
	if err := s.store.RecordEvent(ctx, id, EventPageView, c.ClientIP()); err != nil {
		slog.Warn("renderer: page view not recorded", slog.String("site_id", id), slog.Any("error", err))
	} else {
		s.metrics.event(EventPageView)
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(site.HTML))
}

func (s *Server) previewSite(c *gin.Context) {
	site, err := s.store.Site(c.Request.Context(), c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "site not found"})
		return
	}
	if err != nil {
		s.storageError(c, "get site", err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(previewBanner(site.HTML, site)))
}

type trackRequest struct {
	SiteID    string         `json:"site_id" binding:"required"`
	EventType string         `json:"event_type" binding:"required,max=64"`
	EventData map[string]any `json:"event_data"`
	Timestamp string         `json:"timestamp"`
	URL       string         `json:"url"`
}

// track records a browser event. Events for unknown sites are acknowledged
// with success=false so the page script never sees an error status.
func (s *Server) track(c *gin.Context) {
	var req trackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	err := s.store.RecordEvent(c.Request.Context(), req.SiteID, req.EventType, "")
	switch {
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusOK, gin.H{"success": false})
	case err != nil:
		s.storageError(c, "record event", err)
	default:
		s.metrics.event(req.EventType)
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

type siteMetricsResponse struct {
	SiteID           string         `json:"site_id"`
	SiteName         string         `json:"site_name"`
	Kind             string         `json:"kind"`
	CreatedAt        time.Time      `json:"created_at"`
	ViewCount        int64          `json:"view_count"`
	PerformanceScore int            `json:"performance_score"`
	SEOScore         int            `json:"seo_score"`
	ConversionScore  int            `json:"conversion_score"`
	Metrics          SiteMetrics    `json:"metrics"`
	Documents        []documentInfo `json:"associated_documents"`
}

func (s *Server) siteMetrics(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	site, err := s.store.Site(ctx, id)
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "site not found"})
		return
	}
	if err != nil {
		s.storageError(c, "get site", err)
		return
	}
	m, err := s.store.Metrics(ctx, id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		s.storageError(c, "get metrics", err)
		return
	}
	docs, err := s.store.Documents(ctx)
	if err != nil {
		s.storageError(c, "list documents", err)
		return
	}
	resp := siteMetricsResponse{
		SiteID:           site.ID,
		SiteName:         site.Name,
		Kind:             site.Kind,
		CreatedAt:        site.CreatedAt,
		ViewCount:        m.PageViews,
		PerformanceScore: site.PerformanceScore,
		SEOScore:         site.SEOScore,
		ConversionScore:  site.ConversionScore,
		Metrics:          m,
		Documents:        []documentInfo{},
	}
	for _, d := range docs {
		if d.SiteID == id {
			resp.Documents = append(resp.Documents, s.info(d))
		}
	}
	c.JSON(http.StatusOK, resp)
}

type siteSummary struct {
	SiteID    string      `json:"site_id"`
	SiteName  string      `json:"site_name"`
	Kind      string      `json:"kind"`
	CreatedAt time.Time   `json:"created_at"`
	LiveURL   string      `json:"live_url"`
	Metrics   SiteMetrics `json:"metrics"`
}

func (s *Server) summaries(c *gin.Context) ([]siteSummary, bool) {
	ctx := c.Request.Context()
	sites, err := s.store.Sites(ctx)
	if err != nil {
		s.storageError(c, "list sites", err)
		return nil, false
	}
	out := make([]siteSummary, 0, len(sites))
	for _, site := range sites {
		m, err := s.store.Metrics(ctx, site.ID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			s.storageError(c, "get metrics", err)
			return nil, false
		}
		out = append(out, siteSummary{
			SiteID:    site.ID,
			SiteName:  site.Name,
			Kind:      site.Kind,
			CreatedAt: site.CreatedAt,
			LiveURL:   s.siteURL(site.ID),
			Metrics:   m,
		})
	}
	return out, true
}

func (s *Server) listSites(c *gin.Context) {
	sites, ok := s.summaries(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"sites": sites, "total": len(sites)})
}

var dashboardPage = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html>
<head>
<title>Renderer Dashboard</title>
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<style>
body { font-family: Inter, -apple-system, sans-serif; margin: 0; padding: 32px; background: #f7fafc; color: #1a202c; }
.stats { display: flex; gap: 16px; margin-bottom: 24px; flex-wrap: wrap; }
.stat { background: #fff; border-radius: 12px; padding: 16px 24px; box-shadow: 0 2px 8px rgba(0,0,0,0.06); }
.stat strong { display: block; font-size: 1.6rem; }
table { width: 100%; border-collapse: collapse; background: #fff; border-radius: 12px; overflow: hidden; }
th, td { padding: 10px 14px; text-align: left; border-bottom: 1px solid #edf2f7; }
th { background: #edf2f7; }
</style>
</head>
<body>
<h1>Deployed Sites</h1>
<div class="stats">
<div class="stat"><strong>{{.TotalSites}}</strong>Sites</div>
<div class="stat"><strong>{{.TotalDocuments}}</strong>Documents</div>
<div class="stat"><strong>{{.TotalViews}}</strong>Page views</div>
<div class="stat"><strong>{{.TotalClicks}}</strong>CTA clicks</div>
<div class="stat"><strong>{{.TotalDownloads}}</strong>Downloads</div>
</div>
<table>
<tr><th>Site</th><th>Kind</th><th>Created</th><th>Views</th><th>Clicks</th><th>Forms</th><th>Sessions</th><th></th></tr>
{{range .Sites}}<tr>
<td>{{.SiteName}}<br><small>{{.SiteID}}</small></td>
<td>{{.Kind}}</td>
<td>{{.CreatedAt.Format "2006-01-02 15:04"}}</td>
<td>{{.Metrics.PageViews}}</td>
<td>{{.Metrics.CTAClicks}}</td>
<td>{{.Metrics.FormSubmits}}</td>
<td>{{.Metrics.UniqueSessions}}</td>
<td><a href="{{.LiveURL}}">open</a></td>
</tr>{{else}}<tr><td colspan="8">No sites deployed yet.</td></tr>{{end}}
</table>
</body>
</html>
`))

type dashboardData struct {
	Sites          []siteSummary
	TotalSites     int
	TotalDocuments int
	TotalViews     int64
	TotalClicks    int64
	TotalDownloads int64
}

func (s *Server) dashboard(c *gin.Context) {
	sites, ok := s.summaries(c)
	if !ok {
		return
	}
	docs, err := s.store.Documents(c.Request.Context())
	if err != nil {
		s.storageError(c, "list documents", err)
		return
	}
	data := dashboardData{Sites: sites, TotalSites: len(sites), TotalDocuments: len(docs)}
	for _, site := range sites {
		data.TotalViews += site.Metrics.PageViews
		data.TotalClicks += site.Metrics.CTAClicks
	}
	for _, d := range docs {
		data.TotalDownloads += d.Downloads
	}
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := dashboardPage.Execute(c.Writer, data); err != nil {
		slog.Warn("renderer: dashboard render", slog.Any("error", err))
	}
}

func (s *Server) health(c *gin.Context) {
	ctx := c.Request.Context()
	sites, err := s.store.Sites(ctx)
	if err != nil {
		s.storageError(c, "list sites", err)
		return
	}
	docs, err := s.store.Documents(ctx)
	if err != nil {
		s.storageError(c, "list documents", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"service":          "go_market renderer",
		"version":          s.cfg.Version,
		"status":           "active",
		"deployed_sites":   len(sites),
		"stored_documents": len(docs),
	})
}
