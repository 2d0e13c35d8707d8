package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slides_indexer_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "slides_indexer_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slides_indexer_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Catalog persistence metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slides_indexer_db_queries_total",
			Help: "Total number of catalog database operations",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "slides_indexer_db_query_duration_seconds",
			Help:    "Catalog database operation duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBTransactionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "slides_indexer_db_transaction_duration_seconds",
			Help:    "Catalog transaction duration in seconds by outcome",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"outcome"}, // "commit", "rollback"
	)

	DBSizeBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "slides_indexer_db_size_bytes",
			Help: "Size of SQLite catalog files in bytes",
		},
		[]string{"file"}, // "main", "wal", "shm"
	)

	DBRecoveredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "slides_indexer_db_recovered_total",
			Help: "Number of times a corrupt catalog file was moved aside and recreated",
		},
	)

	CatalogPersistErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slides_indexer_catalog_persist_errors_total",
			Help: "Total number of failed durable catalog writes",
		},
		[]string{"operation"},
	)

	CatalogEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "slides_indexer_catalog_entries",
			Help: "Number of catalog entries by kind",
		},
		[]string{"kind"},
	)

	CatalogDirectories = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slides_indexer_catalog_directories",
			Help: "Number of linked directories",
		},
	)
)

// Indexer metrics
var (
	IndexerRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slides_indexer_scan_runs_total",
			Help: "Total number of scans by terminal state",
		},
		[]string{"state"}, // "completed", "stopped", "failed"
	)

	IndexerLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slides_indexer_scan_last_run_timestamp",
			Help: "Timestamp of the last completed scan",
		},
	)

	IndexerLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slides_indexer_scan_last_run_duration_seconds",
			Help: "Duration of the last scan in seconds",
		},
	)

	IndexerFilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slides_indexer_scan_files_total",
			Help: "Files handled by the scanner by outcome",
		},
		[]string{"outcome"}, // "cached_quick", "cached_verified", "scanned", "failed", "removed"
	)

	IndexerIsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slides_indexer_scan_running",
			Help: "Whether a scan is currently running (1 = running, 0 = idle)",
		},
	)

	IndexerWarnings = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "slides_indexer_scan_warnings_total",
			Help: "Total number of non-fatal scan warnings",
		},
	)

	IndexerProgressDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "slides_indexer_progress_events_dropped_total",
			Help: "Progress events dropped because a subscriber was not keeping up",
		},
	)

	IndexerWatcherEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slides_indexer_watcher_events_total",
			Help: "Total number of filesystem watcher events",
		},
		[]string{"event_type"},
	)

	IndexerWatcherErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "slides_indexer_watcher_errors_total",
			Help: "Total number of filesystem watcher errors",
		},
	)

	IndexerWatchedDirectories = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slides_indexer_watched_directories",
			Help: "Number of directories currently being watched",
		},
	)
)

// Extraction metrics
var (
	ChecksumDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "slides_indexer_checksum_duration_seconds",
			Help:    "Time spent streaming a file through the checksum engine",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	ChecksumErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "slides_indexer_checksum_errors_total",
			Help: "Total number of checksum computations that failed",
		},
	)

	ExtractionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "slides_indexer_extraction_duration_seconds",
			Help:    "Content extraction duration in seconds by kind",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"kind"},
	)

	ExtractionTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slides_indexer_extractions_total",
			Help: "Total number of content extractions by kind and status",
		},
		[]string{"kind", "status"},
	)

	ExtractionTierAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slides_indexer_extraction_tier_attempts_total",
			Help: "Document extraction tier attempts by tier and result",
		},
		[]string{"tier", "result"}, // result: "meaningful", "empty", "error", "unavailable"
	)

	OCRPagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slides_indexer_ocr_pages_total",
			Help: "Pages passed through OCR by status",
		},
		[]string{"status"}, // "text", "empty", "error"
	)

	ExternalToolAvailable = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "slides_indexer_external_tool_available",
			Help: "Whether an external extraction tool was found (1) or not (0)",
		},
		[]string{"tool"},
	)
)

// Filesystem metrics
var (
	FilesystemOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "slides_indexer_filesystem_operation_duration_seconds",
			Help:    "Filesystem operation duration in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"volume", "operation"},
	)

	FilesystemOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slides_indexer_filesystem_operation_errors_total",
			Help: "Filesystem operation errors",
		},
		[]string{"volume", "operation"},
	)

	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slides_indexer_filesystem_retry_attempts_total",
			Help: "Retry attempts after stale file handle errors",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slides_indexer_filesystem_retry_success_total",
			Help: "Operations that succeeded after retrying",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slides_indexer_filesystem_retry_failures_total",
			Help: "Operations that failed after exhausting retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "slides_indexer_filesystem_retry_duration_seconds",
			Help:    "Total duration of retried filesystem operations",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slides_indexer_filesystem_stale_errors_total",
			Help: "Stale file handle (ESTALE) errors encountered",
		},
		[]string{"operation", "volume"},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slides_indexer_memory_usage_ratio",
			Help: "Heap allocation as a fraction of the configured memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slides_indexer_memory_paused",
			Help: "Whether scanning is paused for memory pressure (1 = paused)",
		},
	)

	MemoryPausesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "slides_indexer_memory_pauses_total",
			Help: "Number of times scanning paused for memory pressure",
		},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "slides_indexer_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
