// Package metrics exposes pipeline counters in Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spigell/jobhackr/internal/jobs"
)

const namespace = "jobhackr"

// Application outcomes.
const (
	StatusSubmitted = "submitted"
	StatusFailed    = "failed"
	StatusDryRun    = "dry_run"
)

// Metrics is safe to use through a nil pointer; every method is then a no-op.
type Metrics struct {
	registry *prometheus.Registry

	JobsFetched    *prometheus.CounterVec
	SourceFailures *prometheus.CounterVec
	MatchScores    prometheus.Histogram
	GateOutcomes   *prometheus.CounterVec
	Applications   *prometheus.CounterVec
	QuotaLimitHits prometheus.Counter
	RunDuration    prometheus.Histogram
}

// New registers every collector on a dedicated registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		JobsFetched: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "jobs_fetched_total",
				Help:      "Total number of postings fetched per source",
			},
			[]string{"source"},
		),
		SourceFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "source_failures_total",
				Help:      "Total number of failed source fetches",
			},
			[]string{"source"},
		),
		MatchScores: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "match_score",
				Help:      "Distribution of match scores",
				Buckets:   prometheus.LinearBuckets(0, 10, 11),
			},
		),
		GateOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "gate_outcomes_total",
				Help:      "Scored jobs by gate outcome",
			},
			[]string{"outcome"},
		),
		Applications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "applications_total",
				Help:      "Applications by status",
			},
			[]string{"status"},
		),
		QuotaLimitHits: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "quota_limit_reached_total",
				Help:      "Runs that stopped on the application quota",
			},
		),
		RunDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Duration of a full pipeline run in seconds",
			},
		),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveFetch(reports []jobs.SourceReport) {
	if m == nil {
		return
	}
	for _, r := range reports {
		if r.Err != nil {
			m.SourceFailures.WithLabelValues(r.Source).Inc()
			continue
		}
		m.JobsFetched.WithLabelValues(r.Source).Add(float64(r.Fetched))
	}
}

func (m *Metrics) ObserveScore(score int) {
	if m == nil {
		return
	}
	m.MatchScores.Observe(float64(score))
}

func (m *Metrics) ObserveGate(selected, deduplicated, belowThreshold int, limitReached bool) {
	if m == nil {
		return
	}
	m.GateOutcomes.WithLabelValues("selected").Add(float64(selected))
	m.GateOutcomes.WithLabelValues("deduplicated").Add(float64(deduplicated))
	m.GateOutcomes.WithLabelValues("below_threshold").Add(float64(belowThreshold))
	if limitReached {
		m.QuotaLimitHits.Inc()
	}
}

func (m *Metrics) ObserveApplication(status string) {
	if m == nil {
		return
	}
	m.Applications.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveRun(started time.Time) {
	if m == nil {
		return
	}
	m.RunDuration.Observe(time.Since(started).Seconds())
}
