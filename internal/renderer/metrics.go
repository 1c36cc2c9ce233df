package renderer

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the renderer's Prometheus collectors.
type Metrics struct {
	Deploys         *prometheus.CounterVec
	Events          *prometheus.CounterVec
	DocumentsStored prometheus.Counter
	Requests        *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Deploys: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "renderer_deploys_total",
				Help: "Sites deployed, by kind and result",
			},
			[]string{"kind", "result"},
		),
		Events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "renderer_events_total",
				Help: "Engagement events recorded, by counter",
			},
			[]string{"counter"},
		),
		DocumentsStored: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "renderer_documents_stored_total",
				Help: "Documents stored (PDFs and pitch decks)",
			},
		),
		Requests: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "renderer_http_request_duration_seconds",
				Help:    "HTTP request latency by route and status",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
	}
	reg.MustRegister(m.Deploys, m.Events, m.DocumentsStored, m.Requests)
	return m
}

// Middleware observes request latency. Unmatched routes are grouped.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.Requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) event(name string) {
	counter := counterFor(name)
	if counter == "" {
		counter = "other"
	}
	m.Events.WithLabelValues(counter).Inc()
}
