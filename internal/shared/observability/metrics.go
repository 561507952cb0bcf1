package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "facet_parsing_seconds",
		Help:    "Time spent parsing a source file.",
		Buckets: prometheus.DefBuckets,
	})

	FilesParsed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "facet_files_parsed_total",
		Help: "Total number of source files parsed.",
	})

	ParseErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "facet_parse_errors_total",
		Help: "Total number of source files that failed to parse.",
	})

	StubBuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "facet_stub_build_seconds",
		Help:    "Time spent building one stub bundle.",
		Buckets: prometheus.DefBuckets,
	})

	StubCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "facet_stub_cache_hits_total",
		Help: "Total number of bundle requests served from cache.",
	})

	StubCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "facet_stub_cache_misses_total",
		Help: "Total number of bundle requests that required a build.",
	})

	StubCacheRebuilds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "facet_stub_cache_rebuilds_total",
		Help: "Total number of uncached builds for superseded declaration trees.",
	})

	ProjectedClasses = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "facet_projected_classes_total",
		Help: "Number of class views in the latest projection pass.",
	})

	ProjectionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "facet_projection_seconds",
		Help:    "Time spent on high-level projection tasks.",
		Buckets: prometheus.DefBuckets,
	}, []string{"task"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "facet_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	SnapshotsSavedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "facet_history_snapshots_total",
		Help: "Total number of projection snapshots written to history.",
	})
)
