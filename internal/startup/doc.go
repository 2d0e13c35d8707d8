// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// Configuration comes from environment variables, optionally seeded from a
// .env file via [LoadEnvFiles]. [FromEnv] reads them without side effects;
// [LoadConfig] additionally prints the banner, echoes the values and calls
// [Config.Prepare] to resolve and validate paths.
//
//   - DATA_DIR: Directory holding catalog.db (default: ./data)
//   - LIBRARY_DIRS: Path-list of directories merged into the linked set at startup
//   - PORT: HTTP server port (default: 8080)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable or disable metrics server (default: true)
//   - INDEX_INTERVAL: Periodic rescan interval as Go duration, 0 disables (default: 0)
//   - WATCH_ENABLED: Rescan when linked directories change (default: true)
//   - WATCH_DEBOUNCE: Quiet period before a watch-triggered rescan (default: 2s)
//   - INDEX_WORKERS: Stat workers used while walking directories
//   - SKIP_HIDDEN: Ignore dot-files and dot-directories while scanning (default: false)
//   - CHECKSUM_ALGORITHM: sha256 or blake2b (default: sha256)
//   - OCR_ENABLED, OCR_MAX_PAGES, OCR_DPI, OCR_LANGUAGE: PDF OCR fallback
//   - VIPS_ENABLED: Rasterize PDF pages with libvips instead of pdftoppm (default: false)
//   - LOG_LEVEL: debug, info, warn, error (default: info)
//   - LOG_HEALTH_CHECKS: Log requests to the health endpoints (default: true)
//   - MEMORY_LIMIT, MEMORY_RATIO, GOMEMLIMIT: Go heap limit, see package memory
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo].
//
// # Lifecycle Logging
//
//   - [LogDatabaseInit]: Catalog database open time and corruption recovery
//   - [LogToolStatus]: External extraction tools found on PATH
//   - [LogIndexerInit], [LogIndexerStarted]: Rescan interval and watcher state
//   - [LogHTTPRoutes]: Registered HTTP routes (debug level)
//   - [LogServerStarted]: Server endpoints and startup duration
//   - [LogShutdownInitiated], [LogShutdownComplete]: Graceful shutdown
//
// # Example Usage
//
//	config, err := startup.LoadConfig()
//	if err != nil {
//	    startup.LogFatal("Configuration error: %v", err)
//	}
//	startup.LogIndexerInit(config.IndexInterval, config.WatchEnabled)
package startup
