package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"slides-indexer/internal/catalog"
	"slides-indexer/internal/checksum"
	"slides-indexer/internal/database"
	"slides-indexer/internal/extract"
	"slides-indexer/internal/filesystem"
	"slides-indexer/internal/handlers"
	"slides-indexer/internal/indexer"
	"slides-indexer/internal/logging"
	"slides-indexer/internal/memory"
	"slides-indexer/internal/metrics"
	"slides-indexer/internal/middleware"
	"slides-indexer/internal/startup"
)

func main() {
	startTime := time.Now()

	startup.LoadEnvFiles()
	logging.ResetLevel()
	memory.ConfigureFromEnv()

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)
	metrics.InitializeMetrics()
	filesystem.SetObserver(metrics.NewFilesystemObserver())
	setVolumes(config.DataDir, config.LibraryDirs)

	ctx := context.Background()

	dbStart := time.Now()
	db, info, err := database.New(ctx, config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to initialize database: %v", err)
	}
	defer db.Close()
	startup.LogDatabaseInit(time.Since(dbStart), info.CorruptPath)

	store, err := catalog.Open(ctx, db)
	if err != nil {
		startup.LogFatal("Failed to load catalog: %v", err)
	}

	tools := extract.ResolveTools()
	startup.LogToolStatus(tools)
	if config.VipsEnabled {
		extract.InitVips()
		defer extract.ShutdownVips()
	}

	sums, err := checksum.New(config.ChecksumAlgorithm)
	if err != nil {
		startup.LogFatal("Checksum configuration error: %v", err)
	}

	idx := indexer.New(store, extract.NewDefault(config.ExtractConfig(), tools), sums, tools)
	idx.SetIndexInterval(config.IndexInterval)
	walkerConfig := indexer.DefaultWalkerConfig()
	walkerConfig.SkipHidden = config.SkipHidden
	idx.SetWalkerConfig(walkerConfig)

	monitor := memory.NewMonitor(memory.DefaultConfig())
	monitor.Start()
	idx.SetThrottle(monitor)

	if len(config.LibraryDirs) > 0 {
		dirs := append(store.Directories(), config.LibraryDirs...)
		if _, err := idx.SubmitDirectories(ctx, dirs); err != nil {
			logging.Warn("Failed to link LIBRARY_DIRS: %v", err)
		}
	}

	var watcher *indexer.Watcher
	if config.WatchEnabled {
		watcher, err = indexer.NewWatcher(idx, config.WatchDebounce)
		if err != nil {
			logging.Warn("File watching disabled: %v", err)
		} else {
			watcher.Sync(store.Directories())
			watcher.Start()
		}
	}
	idx.SetOnDirectoriesChanged(func(dirs []string) {
		setVolumes(config.DataDir, dirs)
		if watcher != nil {
			watcher.Sync(dirs)
		}
	})

	startup.LogIndexerInit(config.IndexInterval, watcher != nil)
	idx.Start()
	startup.LogIndexerStarted()

	collector := metrics.NewCollector(store, config.DatabasePath, time.Minute)
	collector.Start()

	h := handlers.New(idx)
	router := mux.NewRouter()
	router.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))
	h.RegisterRoutes(router)
	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	handler := middleware.Compression(middleware.DefaultCompressionConfig())(
		middleware.Logger(loggingConfig)(router),
	)

	srv := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Scans answer when they finish and event streams stay open.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", handlers.MetricsHandler())
		metricsSrv = &http.Server{
			Addr:              ":" + config.MetricsPort,
			Handler:           metricsMux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	shutdownDone := make(chan struct{})
	go handleShutdown(shutdownDone, shutdownTargets{
		srv:        srv,
		metricsSrv: metricsSrv,
		idx:        idx,
		watcher:    watcher,
		collector:  collector,
		monitor:    monitor,
	})

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		startup.LogFatal("Server error: %v", err)
	}
	<-shutdownDone
}

// setVolumes labels filesystem metrics by volume: each linked directory
// is its own volume, plus the data directory.
func setVolumes(dataDir string, libraryDirs []string) {
	volumes := map[string][]string{"data": {dataDir}}
	for _, dir := range libraryDirs {
		volumes[dir] = []string{dir}
	}
	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(volumes))
}

type shutdownTargets struct {
	srv        *http.Server
	metricsSrv *http.Server
	idx        *indexer.Indexer
	watcher    *indexer.Watcher
	collector  *metrics.Collector
	monitor    *memory.Monitor
}

func handleShutdown(done chan<- struct{}, t shutdownTargets) {
	defer close(done)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if t.watcher != nil {
		startup.LogShutdownStep("Stopping file watcher")
		if err := t.watcher.Close(); err != nil {
			logging.Warn("Watcher close error: %v", err)
		}
		startup.LogShutdownStepComplete("File watcher stopped")
	}

	startup.LogShutdownStep("Stopping indexer")
	t.idx.StopScan()
	t.idx.Stop()
	t.monitor.Stop()
	startup.LogShutdownStepComplete("Indexer stopped")

	t.collector.Stop()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := t.srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}
	if t.metricsSrv != nil {
		if err := t.metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		}
	}

	startup.LogShutdownComplete()
}
