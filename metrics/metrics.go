// Package metrics provides Prometheus metrics for scans, watch sessions and searches.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Scan metrics
	scansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "projctx_scans_total",
			Help: "Total number of project scans",
		},
		[]string{"trigger", "status"},
	)

	scanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "projctx_scan_duration_seconds",
			Help:    "Time to walk and analyze a project",
			Buckets: prometheus.DefBuckets,
		},
	)

	scannedFiles = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "projctx_scanned_files",
			Help: "Number of files seen by the last scan of a project",
		},
		[]string{"project"},
	)

	analysisCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "projctx_analysis_cache_lookups_total",
			Help: "File analysis cache lookups",
		},
		[]string{"result"},
	)

	// Watcher metrics
	watchEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "projctx_watch_events_total",
			Help: "Filesystem events received by watch sessions",
		},
		[]string{"event"},
	)

	watchRescansTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "projctx_watch_rescans_total",
			Help: "Rescans triggered by debounced filesystem changes",
		},
	)

	activeWatchSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "projctx_active_watch_sessions",
			Help: "Number of live watch sessions",
		},
	)

	// Knowledge metrics
	searchRequestsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "projctx_search_requests_total",
			Help: "Knowledge searches served",
		},
	)

	updatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "projctx_development_updates_total",
			Help: "Development log entries appended",
		},
		[]string{"type"},
	)

	semanticFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "projctx_semantic_index_failures_total",
			Help: "Semantic index calls that failed and were degraded",
		},
		[]string{"operation"},
	)

	indexedChunksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "projctx_indexed_chunks_total",
			Help: "Text chunks upserted into the semantic index",
		},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordScan records a finished scan.
func RecordScan(project, trigger string, files int, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	scansTotal.WithLabelValues(trigger, status).Inc()
	if err == nil {
		scanDuration.Observe(duration.Seconds())
		scannedFiles.WithLabelValues(project).Set(float64(files))
	}
}

// RecordCacheLookup records an analysis cache hit or miss.
func RecordCacheLookup(hit bool) {
	if hit {
		analysisCacheLookups.WithLabelValues("hit").Inc()
	} else {
		analysisCacheLookups.WithLabelValues("miss").Inc()
	}
}

// RecordWatchEvent records a filesystem event by kind.
func RecordWatchEvent(event string) {
	watchEventsTotal.WithLabelValues(event).Inc()
}

// RecordWatchRescan records a rescan triggered by the watcher.
func RecordWatchRescan() {
	watchRescansTotal.Inc()
}

// SetActiveWatchSessions sets the live watch session count.
func SetActiveWatchSessions(count int) {
	activeWatchSessions.Set(float64(count))
}

// RecordSearch records a served search.
func RecordSearch() {
	searchRequestsTotal.Inc()
}

// RecordUpdate records an appended development log entry.
func RecordUpdate(kind string) {
	updatesTotal.WithLabelValues(kind).Inc()
}

// RecordSemanticFailure records a degraded semantic index call.
func RecordSemanticFailure(operation string) {
	semanticFailuresTotal.WithLabelValues(operation).Inc()
}

// RecordIndexedChunks records chunks sent to the semantic index.
func RecordIndexedChunks(count int) {
	indexedChunksTotal.Add(float64(count))
}
