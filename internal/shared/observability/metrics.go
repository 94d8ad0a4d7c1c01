package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	FilesScannedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "argspec_files_scanned_total",
		Help: "Total number of task files read during role analysis.",
	})

	FilesSkippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "argspec_files_skipped_total",
		Help: "Total number of task files that could not be read or parsed.",
	})

	MalformedExpressionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "argspec_malformed_expressions_total",
		Help: "Total number of template expressions that could not be analyzed.",
	})

	VariablesExcludedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "argspec_variables_excluded_total",
		Help: "Variables dropped by the reference filter, by reason.",
	}, []string{"reason"})

	RolesProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "argspec_roles_processed_total",
		Help: "Roles processed, by outcome.",
	}, []string{"status"})

	RoleAnalysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "argspec_role_analysis_seconds",
		Help:    "Time spent analyzing and emitting a single role.",
		Buckets: prometheus.DefBuckets,
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "argspec_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})
)
