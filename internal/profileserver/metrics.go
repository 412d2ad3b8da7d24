package profileserver

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the request instrumentation of the server
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	patches  prometheus.Counter
	gatherer prometheus.Gatherer
}

// NewMetrics registers the server collectors on a fresh registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "birdmeal",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code", "method"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "birdmeal",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "code", "method"}),
		patches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "birdmeal",
			Name:      "favorites_patches_total",
			Help:      "Favorite sets replaced.",
		}),
		gatherer: reg,
	}
	reg.MustRegister(m.requests, m.duration, m.patches)
	return m
}

// instrument wraps h with counters labelled by route
func (m *Metrics) instrument(route string, h http.HandlerFunc) http.Handler {
	labels := prometheus.Labels{"route": route}
	return promhttp.InstrumentHandlerDuration(m.duration.MustCurryWith(labels),
		promhttp.InstrumentHandlerCounter(m.requests.MustCurryWith(labels), h))
}

// Handler serves the metrics in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
