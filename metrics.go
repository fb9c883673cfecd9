package folio

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for builds, page renders and
// GitHub fetches. Each App owns its own registry.
type Metrics struct {
	registry *prometheus.Registry

	pagesRendered *prometheus.CounterVec
	buildDuration prometheus.Histogram
	buildsTotal   *prometheus.CounterVec
	githubFetches *prometheus.CounterVec
	githubLatency prometheus.Histogram
	postsLoaded   prometheus.Gauge
}

// NewMetrics creates and registers the collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.pagesRendered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_pages_rendered_total",
			Help: "Total number of pages rendered",
		},
		[]string{"page", "mode"}, // mode: build, serve
	)
	m.buildDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "folio_build_duration_seconds",
		Help:    "Time taken by a full static build",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
	})
	m.buildsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_builds_total",
			Help: "Total number of static builds",
		},
		[]string{"status"}, // status: success, error
	)
	m.githubFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_github_fetches_total",
			Help: "Total number of pinned repository lookups",
		},
		[]string{"result"}, // result: success, error, snapshot, cached
	)
	m.githubLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "folio_github_fetch_duration_seconds",
		Help:    "Time taken to query the GitHub GraphQL API",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
	})
	m.postsLoaded = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "folio_posts",
		Help: "Number of posts loaded from the content directory",
	})

	m.registry.MustRegister(
		m.pagesRendered,
		m.buildDuration,
		m.buildsTotal,
		m.githubFetches,
		m.githubLatency,
		m.postsLoaded,
		collectors.NewGoCollector(),
	)
	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) pageRendered(page, mode string) {
	m.pagesRendered.WithLabelValues(page, mode).Inc()
}

func (m *Metrics) githubFetch(result string) {
	m.githubFetches.WithLabelValues(result).Inc()
}
