// Package metrics exposes Prometheus instrumentation for guidance computations.
package metrics

import (
	"net/http"
	"time"

	"github.com/jonathan/crna-guide/internal/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Cache lookup results.
const (
	CacheHit    = "hit"
	CacheMiss   = "miss"
	CacheError  = "error"
	CacheBypass = "bypass"
)

// Metrics holds the collectors. Each instance registers on its own Registerer so tests
// and multiple servers never collide on the default registry.
type Metrics struct {
	Computations   *prometheus.CounterVec
	Errors         *prometheus.CounterVec
	ReadinessScore prometheus.Histogram
	Duration       *prometheus.HistogramVec
	CacheLookups   *prometheus.CounterVec
}

// New creates and registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Computations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crna_guidance_computations_total",
				Help: "Total number of guidance computations by resulting stage and support mode",
			},
			[]string{"stage", "support_mode"},
		),
		Errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crna_guidance_errors_total",
				Help: "Total number of failed guidance requests by error kind",
			},
			[]string{"kind"},
		),
		ReadinessScore: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "crna_readiness_score",
				Help:    "Distribution of composite readiness scores",
				Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
			},
		),
		Duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crna_guidance_duration_seconds",
				Help:    "Duration of guidance computations in seconds",
				Buckets: prometheus.ExponentialBuckets(0.00005, 2, 12),
			},
			[]string{"source"},
		),
		CacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crna_guidance_cache_lookups_total",
				Help: "Total number of guidance cache lookups by result",
			},
			[]string{"result"},
		),
	}
}

// ObserveGuidance records one successful computation.
func (m *Metrics) ObserveGuidance(source string, state *types.GuidanceState, elapsed time.Duration) {
	m.Computations.WithLabelValues(string(state.ApplicationStage), string(state.SupportMode)).Inc()
	m.ReadinessScore.Observe(float64(state.Readiness.Score))
	m.Duration.WithLabelValues(source).Observe(elapsed.Seconds())
}

// ObserveError records one failed request.
func (m *Metrics) ObserveError(kind string) {
	m.Errors.WithLabelValues(kind).Inc()
}

// ObserveCache records one cache lookup.
func (m *Metrics) ObserveCache(result string) {
	m.CacheLookups.WithLabelValues(result).Inc()
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
