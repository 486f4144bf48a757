// Package metrics exposes clusterpulse's own operational counters on a
// Prometheus scrape endpoint.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors/version"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ppiankov/clusterpulse/internal/diff"
	"github.com/ppiankov/clusterpulse/internal/health"
)

// Set bundles the collectors the engine feeds each cycle.
type Set struct {
	registry *prometheus.Registry

	CyclesTotal   prometheus.Counter
	CycleDuration prometheus.Histogram
	ClusterHealth *prometheus.GaugeVec
	CollectErrors *prometheus.CounterVec
	Changes       *prometheus.CounterVec
}

// NewSet builds a fresh registry with all clusterpulse collectors plus
// build info registered.
func NewSet() *Set {
	s := &Set{
		registry: prometheus.NewRegistry(),
		CyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clusterpulse",
			Name:      "cycles_total",
			Help:      "Completed monitoring cycles.",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "clusterpulse",
			Name:      "cycle_duration_seconds",
			Help:      "Wall time of a full monitoring cycle.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
		}),
		ClusterHealth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "clusterpulse",
			Name:      "cluster_health",
			Help:      "Current verdict per cluster (0 healthy, 1 warning, 2 critical, 3 error).",
		}, []string{"cluster"}),
		CollectErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clusterpulse",
			Name:      "collect_errors_total",
			Help:      "Collection errors recorded on samples.",
		}, []string{"cluster"}),
		Changes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clusterpulse",
			Name:      "changes_total",
			Help:      "Detected changes by category.",
		}, []string{"cluster", "category"}),
	}

	s.registry.MustRegister(version.NewCollector("clusterpulse"))
	s.registry.MustRegister(s.CyclesTotal, s.CycleDuration, s.ClusterHealth, s.CollectErrors, s.Changes)
	return s
}

// ObserveCycle records one finished cycle.
func (s *Set) ObserveCycle(d time.Duration) {
	s.CyclesTotal.Inc()
	s.CycleDuration.Observe(d.Seconds())
}

// ObserveCluster records one cluster's outcome within a cycle.
func (s *Set) ObserveCluster(cluster string, verdict health.Verdict, collectErrors int, changes diff.ChangeSet) {
	s.ClusterHealth.WithLabelValues(cluster).Set(verdictValue(verdict))
	if collectErrors > 0 {
		s.CollectErrors.WithLabelValues(cluster).Add(float64(collectErrors))
	}

	count := func(category string, n int) {
		if n > 0 {
			s.Changes.WithLabelValues(cluster, category).Add(float64(n))
		}
	}
	count("new_problems", len(changes.NewProblems))
	count("resolved_problems", len(changes.ResolvedProblems))
	count("status_changes", len(changes.StatusChanges))
	count("resource_changes", len(changes.ResourceChanges))
}

// Handler serves the registry for scraping.
func (s *Set) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}

func verdictValue(v health.Verdict) float64 {
	switch v {
	case health.VerdictHealthy:
		return 0
	case health.VerdictWarning:
		return 1
	case health.VerdictCritical:
		return 2
	default:
		return 3
	}
}
