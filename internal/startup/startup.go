package startup

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"slides-indexer/internal/extract"
	"slides-indexer/internal/logging"
	"slides-indexer/internal/workers"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Config holds all application configuration
type Config struct {
	DataDir         string
	LibraryDirs     []string
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	IndexInterval   time.Duration
	WatchEnabled    bool
	WatchDebounce   time.Duration
	SkipHidden      bool
	LogHealthChecks bool

	ChecksumAlgorithm string
	OCREnabled        bool
	OCRMaxPages       int
	OCRDPI            int
	OCRLanguage       string
	VipsEnabled       bool

	// Derived paths
	DatabasePath string
}

// ExtractConfig returns the extractor settings selected by c.
func (c *Config) ExtractConfig() extract.Config {
	return extract.Config{
		OCREnabled: c.OCREnabled,
		OCR: extract.OCRConfig{
			MaxPages: c.OCRMaxPages,
			DPI:      c.OCRDPI,
			Language: c.OCRLanguage,
		},
		UseVips: c.VipsEnabled,
	}
}

// LoadEnvFiles loads variables from .env style files into the process
// environment. Variables already set win. Missing files are ignored.
func LoadEnvFiles(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				logging.Warn("Failed to load %s: %v", f, err)
			}
			continue
		}
		logging.Debug("Loaded environment from %s", f)
	}
}

// FromEnv reads the configuration from environment variables without
// logging or touching the filesystem.
func FromEnv() *Config {
	return &Config{
		DataDir:           getEnv("DATA_DIR", "./data"),
		LibraryDirs:       splitPathList(os.Getenv("LIBRARY_DIRS")),
		Port:              getEnv("PORT", "8080"),
		MetricsPort:       getEnv("METRICS_PORT", "9090"),
		MetricsEnabled:    getEnvBool("METRICS_ENABLED", true),
		IndexInterval:     getEnvDuration("INDEX_INTERVAL", 0),
		WatchEnabled:      getEnvBool("WATCH_ENABLED", true),
		WatchDebounce:     getEnvDuration("WATCH_DEBOUNCE", 2*time.Second),
		SkipHidden:        getEnvBool("SKIP_HIDDEN", false),
		LogHealthChecks:   getEnvBool("LOG_HEALTH_CHECKS", true),
		ChecksumAlgorithm: getEnv("CHECKSUM_ALGORITHM", "sha256"),
		OCREnabled:        getEnvBool("OCR_ENABLED", true),
		OCRMaxPages:       getEnvInt("OCR_MAX_PAGES", extract.DefaultOCRMaxPages),
		OCRDPI:            getEnvInt("OCR_DPI", extract.DefaultOCRDPI),
		OCRLanguage:       getEnv("OCR_LANGUAGE", extract.DefaultOCRLanguage),
		VipsEnabled:       getEnvBool("VIPS_ENABLED", false),
	}
}

// LoadConfig loads and validates configuration from environment variables
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	config := FromEnv()

	logging.Info("  DATA_DIR:            %s", config.DataDir)
	logging.Info("  LIBRARY_DIRS:        %s", strings.Join(config.LibraryDirs, ", "))
	logging.Info("  PORT:                %s", config.Port)
	logging.Info("  METRICS_PORT:        %s", config.MetricsPort)
	logging.Info("  METRICS_ENABLED:     %v", config.MetricsEnabled)
	logging.Info("  INDEX_INTERVAL:      %v", config.IndexInterval)
	logging.Info("  INDEX_WORKERS:       %d", workers.StatWorkers())
	logging.Info("  WATCH_ENABLED:       %v", config.WatchEnabled)
	logging.Info("  WATCH_DEBOUNCE:      %v", config.WatchDebounce)
	logging.Info("  SKIP_HIDDEN:         %v", config.SkipHidden)
	logging.Info("  CHECKSUM_ALGORITHM:  %s", config.ChecksumAlgorithm)
	logging.Info("  OCR_ENABLED:         %v", config.OCREnabled)
	logging.Info("  OCR_MAX_PAGES:       %d", config.OCRMaxPages)
	logging.Info("  OCR_DPI:             %d", config.OCRDPI)
	logging.Info("  OCR_LANGUAGE:        %s", config.OCRLanguage)
	logging.Info("  VIPS_ENABLED:        %v", config.VipsEnabled)
	logging.Info("  LOG_HEALTH_CHECKS:   %v", config.LogHealthChecks)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	if err := config.Prepare(); err != nil {
		return nil, err
	}

	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Catalog:     ENABLED (required)")
	logging.Info("    OCR:         %s", enabledString(config.OCREnabled))
	logging.Info("    Watching:    %s", enabledString(config.WatchEnabled))
	logging.Info("    Metrics:     %s", enabledString(config.MetricsEnabled))

	return config, nil
}

// Prepare makes paths absolute, derives DatabasePath, and creates the
// data directory if needed.
func (c *Config) Prepare() error {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	dataDir, err := filepath.Abs(c.DataDir)
	if err != nil {
		return fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	c.DataDir = dataDir
	c.DatabasePath = filepath.Join(dataDir, "catalog.db")
	logging.Info("  Data directory (absolute): %s", dataDir)

	for i, dir := range c.LibraryDirs {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("failed to resolve library directory %q: %w", dir, err)
		}
		c.LibraryDirs[i] = abs
		if err := checkDirectory(abs); err != nil {
			logging.Warn("  Library directory issue (%s): %v", abs, err)
		}
	}

	if err := ensureDirectory(dataDir, "data"); err != nil {
		return fmt.Errorf("data directory error: %w", err)
	}

	logging.Debug("  Testing data directory write access...")
	if err := testWriteAccess(dataDir); err != nil {
		return fmt.Errorf("data directory is not writable (required for catalog): %w", err)
	}
	logging.Info("  [OK] Data directory is writable")
	return nil
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

// LogDatabaseInit logs catalog database initialization
func LogDatabaseInit(duration time.Duration, recoveredFrom string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("CATALOG INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	if recoveredFrom != "" {
		logging.Warn("  Previous catalog was unreadable and was moved to %s", recoveredFrom)
		logging.Warn("  Starting with an empty catalog; the next scan rebuilds it")
	}
	logging.Info("  [OK] Catalog database initialized in %v", duration)
}

// LogToolStatus logs which external PDF tools were found.
func LogToolStatus(tools *extract.Toolset) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("PDF TOOLS")
	logging.Info("------------------------------------------------------------")

	for _, tool := range []struct{ name, path string }{
		{"pdftotext", tools.Pdftotext},
		{"pdftoppm", tools.Pdftoppm},
		{"tesseract", tools.Tesseract},
	} {
		if tool.path == "" {
			logging.Warn("  %-10s not found", tool.name)
			continue
		}
		logging.Info("  [OK] %-10s %s", tool.name, tool.path)
		if logging.IsDebugEnabled() {
			if v := toolVersion(tool.path); v != "" {
				logging.Debug("       version: %s", v)
			}
		}
	}
	if msg := tools.Warning(); msg != "" {
		logging.Warn("  %s", msg)
	}
}

// LogIndexerInit logs indexer initialization
func LogIndexerInit(interval time.Duration, watch bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("INDEXER INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	if interval > 0 {
		logging.Info("  Index interval: %v", interval)
	} else {
		logging.Info("  Index interval: disabled")
	}
	logging.Info("  File watching:  %s", enabledString(watch))
	logging.Info("  Starting indexer...")
}

// LogIndexerStarted logs successful indexer start
func LogIndexerStarted() {
	logging.Info("  [OK] Indexer started")
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   route.GetName(),
			})
		}
		return nil
	})

	return routes, err
}

// LogHTTPRoutes prints the request logging settings and, at debug level,
// every registered route grouped by its first path segments.
func LogHTTPRoutes(router *mux.Router, logHealthChecks bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP API")
	logging.Info("------------------------------------------------------------")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		byGroup := make(map[string][]RouteInfo)
		for _, route := range routes {
			group := getRouteGroup(route.Path)
			if group == "" {
				group = "root"
			}
			byGroup[group] = append(byGroup[group], route)
		}

		logging.Debug("  %d routes in %d groups", len(routes), len(byGroup))
		for _, group := range slices.Sorted(maps.Keys(byGroup)) {
			logging.Debug("  [%s]", group)
			for _, route := range byGroup[group] {
				logging.Debug("    %-6s %s", route.Method, route.Path)
			}
		}
	}

	if logHealthChecks {
		logging.Info("  Access log: W3C, health checks included")
	} else {
		logging.Info("  Access log: W3C, health checks omitted (LOG_HEALTH_CHECKS=false)")
	}
}

// getRouteGroup returns "api/<resource>" for API routes and the first
// segment otherwise.
func getRouteGroup(path string) string {
	first, rest, _ := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	if first == "api" && rest != "" {
		resource, _, _ := strings.Cut(rest, "/")
		return "api/" + resource
	}
	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs the listening endpoints once both servers are up.
func LogServerStarted(config ServerConfig) {
	base := "http://0.0.0.0:" + config.Port
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("READY (started in %v)", config.StartupDuration)
	logging.Info("------------------------------------------------------------")
	logging.Info("  Search:          %s/api/search?q=", base)
	logging.Info("  Scan progress:   %s/api/scan/events", base)
	logging.Info("  Health:          %s/health", base)
	if config.MetricsEnabled {
		logging.Info("  Metrics:         http://0.0.0.0:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("  Metrics:         disabled")
	}
	logging.Info("------------------------------------------------------------")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

func printBanner() {
	banner := `
------------------------------------------------------------
       _ _     _                 _           _
   ___| (_) __| | ___  ___      (_)_ __   __| | _____  __
  / __| | |/ _' |/ _ \/ __|_____| | '_ \ / _' |/ _ \ \/ /
  \__ \ | | (_| |  __/\__ \_____| | | | | (_| |  __/>  <
  |___/_|_|\__,_|\___||___/     |_|_| |_|\__,_|\___/_/\_\

------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if logging.IsDebugEnabled() {
		logging.Debug("  Goroutines:      %d", runtime.NumGoroutine())
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

// checkDirectory reports problems with an existing directory without creating it.
func checkDirectory(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

// toolVersion returns the first line a tool prints for -v, or "".
func toolVersion(path string) string {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	output, err := exec.CommandContext(ctx, path, "-v").CombinedOutput()
	if err != nil && len(output) == 0 {
		return ""
	}
	line, _, _ := strings.Cut(string(output), "\n")
	return strings.TrimSpace(line)
}

func splitPathList(value string) []string {
	var dirs []string
	for _, d := range filepath.SplitList(value) {
		if d = strings.TrimSpace(d); d != "" {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

// getEnvDuration accepts Go durations ("30m") and "0" to disable.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed < 0 {
		logging.Warn("Invalid duration for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
