// Package metrics defines the Prometheus collectors recorded by the index
// engine and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors for one engine.
type Metrics struct {
	SearchQueriesTotal *prometheus.CounterVec
	SearchLatency      *prometheus.HistogramVec
	SearchResultsCount prometheus.Histogram
	SuggestionsTotal   prometheus.Counter
	CommitsTotal       *prometheus.CounterVec
	CommitDuration     prometheus.Histogram
	DocsIndexedTotal   prometheus.Counter
	DocsDeletedTotal   prometheus.Counter
	SyncsTotal         *prometheus.CounterVec
	SyncDuration       prometheus.Histogram
	SyncChangesTotal   *prometheus.CounterVec
	IndexedDocuments   prometheus.Gauge
	TrackedLabels      prometheus.Gauge
	ClassifierGuesses  prometheus.Counter

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them with reg. A nil reg gets a
// fresh registry so tests and multiple engines never collide.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		SearchQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sercha_docs_search_queries_total",
				Help: "Total search queries by mode and outcome (hit, zero_result, error).",
			},
			[]string{"mode", "outcome"},
		),
		SearchLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sercha_docs_search_latency_seconds",
				Help:    "Search latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"mode"},
		),
		SearchResultsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sercha_docs_search_results_count",
				Help:    "Number of documents returned per search.",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
			},
		),
		SuggestionsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "sercha_docs_suggestions_total",
				Help: "Total spelling suggestions returned.",
			},
		),
		CommitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sercha_docs_index_commits_total",
				Help: "Index transactions by outcome (committed, cancelled, failed).",
			},
			[]string{"outcome"},
		),
		CommitDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sercha_docs_index_commit_duration_seconds",
				Help:    "Time spent committing an index transaction.",
				Buckets: prometheus.DefBuckets,
			},
		),
		DocsIndexedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "sercha_docs_documents_indexed_total",
				Help: "Documents written to the index.",
			},
		),
		DocsDeletedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "sercha_docs_documents_deleted_total",
				Help: "Documents removed from the index.",
			},
		),
		SyncsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sercha_docs_syncs_total",
				Help: "Work directory synchronisations by outcome (ok, error).",
			},
			[]string{"outcome"},
		),
		SyncDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sercha_docs_sync_duration_seconds",
				Help:    "Duration of a work directory synchronisation.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
			},
		),
		SyncChangesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sercha_docs_sync_changes_total",
				Help: "Documents seen by synchronisation, by classification.",
			},
			[]string{"kind"},
		),
		IndexedDocuments: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "sercha_docs_indexed_documents",
				Help: "Documents currently in the registry.",
			},
		),
		TrackedLabels: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "sercha_docs_tracked_labels",
				Help: "Labels currently tracked by the engine.",
			},
		),
		ClassifierGuesses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "sercha_docs_classifier_guesses_total",
				Help: "Label guesses produced by the classifier bank.",
			},
		),
	}

	reg.MustRegister(
		m.SearchQueriesTotal,
		m.SearchLatency,
		m.SearchResultsCount,
		m.SuggestionsTotal,
		m.CommitsTotal,
		m.CommitDuration,
		m.DocsIndexedTotal,
		m.DocsDeletedTotal,
		m.SyncsTotal,
		m.SyncDuration,
		m.SyncChangesTotal,
		m.IndexedDocuments,
		m.TrackedLabels,
		m.ClassifierGuesses,
	)

	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	} else {
		m.gatherer = prometheus.DefaultGatherer
	}

	return m
}

// Handler returns an HTTP handler serving the registry these collectors
// were registered with.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
