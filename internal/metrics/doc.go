// Package metrics provides Prometheus instrumentation for the slides indexer.
//
// All metrics are prefixed with "slides_indexer_" and registered on the
// default registry through promauto, so they are exposed by promhttp.Handler
// on the metrics port.
//
// # Metric Categories
//
// ## HTTP Metrics
//
//   - HTTPRequestsTotal: requests by method, path, and status
//   - HTTPRequestDuration: request duration by method and path
//   - HTTPRequestsInFlight: requests currently being processed
//
// ## Catalog Persistence Metrics
//
//   - DBQueryTotal / DBQueryDuration: catalog database operations
//   - DBTransactionDuration: per-save transaction time by outcome
//   - DBSizeBytes: size of the SQLite main, WAL, and SHM files
//   - DBRecoveredTotal: corrupt catalog files moved aside
//   - CatalogPersistErrors: failed durable writes by operation
//   - CatalogEntries / CatalogDirectories: current catalog contents
//
// ## Indexer Metrics
//
//   - IndexerRunsTotal: scans by terminal state
//   - IndexerFilesTotal: files by outcome (cached_quick, cached_verified,
//     scanned, failed, removed)
//   - IndexerIsRunning, IndexerLastRunTimestamp, IndexerLastRunDuration
//   - IndexerWatcher*: filesystem watcher activity
//
// ## Extraction Metrics
//
//   - ChecksumDuration / ChecksumErrors
//   - ExtractionDuration / ExtractionTotal by kind
//   - ExtractionTierAttempts: PDF tier attempts by tier and result
//   - OCRPagesTotal: rasterized pages passed through OCR
//   - ExternalToolAvailable: pdftotext, pdftoppm, tesseract discovery
//
// ## Filesystem Metrics
//
// Recorded through the filesystem.Observer installed by
// NewFilesystemObserver:
//   - FilesystemOperationDuration / FilesystemOperationErrors
//   - FilesystemRetry* and FilesystemStaleErrors for NFS stale handles
//
// # Collector
//
// Collector periodically refreshes gauges that are cheaper to sample than
// to maintain inline: catalog entry counts (via StatsProvider) and the
// size of the database files.
//
// # Usage
//
//	metrics.InitializeMetrics()
//	collector := metrics.NewCollector(idx, dbPath, time.Minute)
//	collector.Start()
//	defer collector.Stop()
package metrics
