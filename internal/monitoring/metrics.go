package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors exported on /metrics.
type Metrics struct {
	registry        *prometheus.Registry
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	Renders         *prometheus.CounterVec
	RenderBytes     prometheus.Histogram
}

// NewMetrics registers the collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{0.1, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		Renders: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fna_pdf_renders_total",
				Help: "PDF renders by outcome",
			},
			[]string{"result"},
		),
		RenderBytes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "fna_pdf_bytes",
				Help:    "Size of rendered PDFs",
				Buckets: prometheus.ExponentialBuckets(1024, 2, 8),
			},
		),
	}
	m.registry.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.Renders,
		m.RenderBytes,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
