// Package metrics defines the Prometheus metric collectors used by the
// search engine. Batch tools export them with WriteTextfile for the node
// exporter textfile collector.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus collectors for the engine.
type Metrics struct {
	SearchQueriesTotal *prometheus.CounterVec
	SearchLatency      *prometheus.HistogramVec
	SearchResultsCount prometheus.Histogram
	CacheHitsTotal     prometheus.Counter
	CacheMissesTotal   prometheus.Counter
	DocsIndexedTotal   prometheus.Counter
	IndexBuildsTotal   *prometheus.CounterVec
	IndexLoadsTotal    *prometheus.CounterVec
	IndexBuildDuration prometheus.Histogram
	ActiveIndexDocs    prometheus.Gauge
	ActiveIndexTerms   prometheus.Gauge
}

// New creates all collectors and registers them with reg. Passing a fresh
// prometheus.NewRegistry() keeps independent engines from colliding.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SearchQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docsearch_queries_total",
				Help: "Total search queries by result type (hit, zero_result, empty_query, no_index).",
			},
			[]string{"result_type"},
		),
		SearchLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "docsearch_query_latency_seconds",
				Help:    "Search query latency in seconds.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
			},
			[]string{"cache_status"},
		),
		SearchResultsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "docsearch_query_results_count",
				Help:    "Number of matching documents per search query.",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 500},
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "docsearch_cache_hits_total",
				Help: "Total number of result cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "docsearch_cache_misses_total",
				Help: "Total number of result cache misses.",
			},
		),
		DocsIndexedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "docsearch_docs_indexed_total",
				Help: "Total documents indexed across all builds.",
			},
		),
		IndexBuildsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docsearch_index_builds_total",
				Help: "Total index builds by status.",
			},
			[]string{"status"},
		),
		IndexLoadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docsearch_index_loads_total",
				Help: "Total serialized index loads by status.",
			},
			[]string{"status"},
		),
		IndexBuildDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "docsearch_index_build_duration_seconds",
				Help:    "Index build latency in seconds.",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
			},
		),
		ActiveIndexDocs: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "docsearch_active_index_documents",
				Help: "Number of documents in the active index.",
			},
		),
		ActiveIndexTerms: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "docsearch_active_index_terms",
				Help: "Number of distinct terms in the active index.",
			},
		),
	}

	reg.MustRegister(
		m.SearchQueriesTotal,
		m.SearchLatency,
		m.SearchResultsCount,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.DocsIndexedTotal,
		m.IndexBuildsTotal,
		m.IndexLoadsTotal,
		m.IndexBuildDuration,
		m.ActiveIndexDocs,
		m.ActiveIndexTerms,
	)

	return m
}

// WriteTextfile writes every metric gathered from g to path in the
// Prometheus text format.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
