// Package metrics holds the Prometheus collectors exported by the server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ficroll"

// Metrics groups the collectors on one registry so tests can build their
// own without touching the global default.
type Metrics struct {
	registry *prometheus.Registry

	Generate        *prometheus.CounterVec
	Fallbacks       *prometheus.CounterVec
	Autocomplete    *prometheus.CounterVec
	GenerateSeconds prometheus.Histogram
	RateLimited     *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Generate: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generate_total",
			Help:      "Generate requests by outcome (live, cache, feed, no_works, unavailable, invalid).",
		}, []string{"outcome"}),
		Fallbacks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_failures_total",
			Help:      "Live archive searches that failed, by reason.",
		}, []string{"reason"}),
		Autocomplete: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "autocomplete_total",
			Help:      "Fandom autocomplete answers by source (upstream, index, empty).",
		}, []string{"source"}),
		GenerateSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generate_duration_seconds",
			Help:      "Time spent answering generate requests.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
		}),
		RateLimited: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the per-client limiter, by route.",
		}, []string{"route"}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
