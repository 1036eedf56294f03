package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	SearchesTotal      *prometheus.CounterVec
	CandidatesResolved *prometheus.CounterVec
	AliasFallbacks     prometheus.Counter
	SourceErrors       prometheus.Counter
	DegradedTimelines  prometheus.Counter
	MatchScores        prometheus.Histogram
}

// New creates and registers all Prometheus metrics on the given registerer.
// Pass prometheus.DefaultRegisterer in main; tests use a fresh registry so
// repeated construction does not collide.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SearchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "praisa_searches_total",
			Help: "Identity searches processed, by search mode",
		}, []string{"mode"}),
		CandidatesResolved: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "praisa_candidates_resolved_total",
			Help: "Cross-source candidates resolved, by how they were found",
		}, []string{"found_via"}),
		AliasFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "praisa_alias_fallback_attempts_total",
			Help: "Alias fallback retries after direct search found nothing",
		}),
		SourceErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "praisa_source_errors_skipped_total",
			Help: "Per-source query failures skipped during candidate dispatch",
		}),
		DegradedTimelines: factory.NewCounter(prometheus.CounterOpts{
			Name: "praisa_degraded_timelines_total",
			Help: "Unified timelines returned without counterpart history",
		}),
		MatchScores: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "praisa_match_score",
			Help:    "Match scores returned by the external matcher",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		}),
	}
}

// IncrementSearch records one processed search for the given mode.
func (m *Metrics) IncrementSearch(mode string) {
	if m == nil {
		return
	}
	m.SearchesTotal.WithLabelValues(mode).Inc()
}

// IncrementResolved records one resolved candidate with its provenance.
func (m *Metrics) IncrementResolved(foundVia string) {
	if m == nil {
		return
	}
	m.CandidatesResolved.WithLabelValues(foundVia).Inc()
}

// IncrementAliasFallback records one alias fallback attempt.
func (m *Metrics) IncrementAliasFallback() {
	if m == nil {
		return
	}
	m.AliasFallbacks.Inc()
}

// IncrementSourceError records one skipped source failure.
func (m *Metrics) IncrementSourceError() {
	if m == nil {
		return
	}
	m.SourceErrors.Inc()
}

// IncrementDegradedTimeline records one partial (source-A-only) timeline.
func (m *Metrics) IncrementDegradedTimeline() {
	if m == nil {
		return
	}
	m.DegradedTimelines.Inc()
}

// ObserveMatchScore records a matcher score.
func (m *Metrics) ObserveMatchScore(score float64) {
	if m == nil {
		return
	}
	m.MatchScores.Observe(score)
}
