package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inlinelog_parsing_seconds",
		Help:    "Time spent parsing a source file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"language"})

	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inlinelog_analysis_seconds",
		Help:    "Time spent on analysis tasks.",
		Buckets: prometheus.DefBuckets,
	}, []string{"task"})

	LogCallSitesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inlinelog_log_call_sites_total",
		Help: "Total number of logging call sites discovered, by enclosing context.",
	}, []string{"context"})

	AnalysisPassesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inlinelog_analysis_passes_total",
		Help: "Total number of analysis passes started.",
	})

	FetchRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inlinelog_fetch_requests_total",
		Help: "Total number of fetch resolutions, by outcome.",
	}, []string{"outcome"})

	FetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "inlinelog_fetch_seconds",
		Help:    "Latency of network fetches performed by the resolver.",
		Buckets: prometheus.DefBuckets,
	})

	FetchCacheEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "inlinelog_fetch_cache_entries",
		Help: "Current number of entries in the fetch response cache.",
	})

	StaleCompletionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inlinelog_stale_completions_total",
		Help: "Total number of fetch completions dropped because a newer pass superseded them.",
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inlinelog_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})
)
