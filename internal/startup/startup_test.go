package startup

import (
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"testing"
	"time"

	"github.com/gorilla/mux"
)

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()

	if info.Version != Version {
		t.Errorf("Version = %q, want %q", info.Version, Version)
	}
	if info.Commit != Commit {
		t.Errorf("Commit = %q, want %q", info.Commit, Commit)
	}
	if info.GoVersion != GoVersion {
		t.Errorf("GoVersion = %q, want %q", info.GoVersion, GoVersion)
	}
	if info.OS != runtime.GOOS || info.Arch != runtime.GOARCH {
		t.Errorf("OS/Arch = %s/%s, want %s/%s", info.OS, info.Arch, runtime.GOOS, runtime.GOARCH)
	}
}

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		set          bool
		defaultValue string
		want         string
	}{
		{name: "unset uses default", defaultValue: "fallback", want: "fallback"},
		{name: "empty uses default", value: "", set: true, defaultValue: "fallback", want: "fallback"},
		{name: "set value wins", value: "custom", set: true, defaultValue: "fallback", want: "custom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.set {
				t.Setenv("SLIDES_TEST_ENV", tt.value)
			}
			if got := getEnv("SLIDES_TEST_ENV", tt.defaultValue); got != tt.want {
				t.Errorf("getEnv() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "data")
	t.Setenv("DATA_DIR", dataDir)
	for _, key := range []string{
		"LIBRARY_DIRS", "PORT", "METRICS_PORT", "INDEX_INTERVAL", "WATCH_ENABLED",
		"WATCH_DEBOUNCE", "CHECKSUM_ALGORITHM", "OCR_ENABLED", "OCR_MAX_PAGES",
		"OCR_DPI", "OCR_LANGUAGE", "VIPS_ENABLED",
	} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.DataDir != dataDir {
		t.Errorf("DataDir = %q, want %q", cfg.DataDir, dataDir)
	}
	if want := filepath.Join(dataDir, "catalog.db"); cfg.DatabasePath != want {
		t.Errorf("DatabasePath = %q, want %q", cfg.DatabasePath, want)
	}
	if info, err := os.Stat(dataDir); err != nil || !info.IsDir() {
		t.Errorf("data directory was not created: %v", err)
	}
	if cfg.Port != "8080" || cfg.MetricsPort != "9090" {
		t.Errorf("ports = %s/%s, want 8080/9090", cfg.Port, cfg.MetricsPort)
	}
	if cfg.IndexInterval != 0 {
		t.Errorf("IndexInterval = %v, want disabled", cfg.IndexInterval)
	}
	if !cfg.WatchEnabled || cfg.WatchDebounce != 2*time.Second {
		t.Errorf("watch = %v/%v, want true/2s", cfg.WatchEnabled, cfg.WatchDebounce)
	}
	if cfg.ChecksumAlgorithm != "sha256" {
		t.Errorf("ChecksumAlgorithm = %q, want sha256", cfg.ChecksumAlgorithm)
	}
	if !cfg.OCREnabled || cfg.OCRMaxPages != 40 || cfg.OCRDPI != 120 || cfg.OCRLanguage != "eng" {
		t.Errorf("OCR settings = %v/%d/%d/%s", cfg.OCREnabled, cfg.OCRMaxPages, cfg.OCRDPI, cfg.OCRLanguage)
	}
	if cfg.VipsEnabled {
		t.Error("VipsEnabled should default to false")
	}
	if len(cfg.LibraryDirs) != 0 {
		t.Errorf("LibraryDirs = %v, want none", cfg.LibraryDirs)
	}
}

func TestLoadConfigLibraryDirs(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "a")
	b := filepath.Join(root, "b")
	if err := os.Mkdir(a, 0o755); err != nil {
		t.Fatal(err)
	}

	t.Setenv("DATA_DIR", filepath.Join(root, "data"))
	t.Setenv("LIBRARY_DIRS", a+string(filepath.ListSeparator)+" "+string(filepath.ListSeparator)+b)
	t.Setenv("INDEX_INTERVAL", "15m")
	t.Setenv("OCR_ENABLED", "false")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if want := []string{a, b}; !reflect.DeepEqual(cfg.LibraryDirs, want) {
		t.Errorf("LibraryDirs = %v, want %v", cfg.LibraryDirs, want)
	}
	if cfg.IndexInterval != 15*time.Minute {
		t.Errorf("IndexInterval = %v, want 15m", cfg.IndexInterval)
	}

	ec := cfg.ExtractConfig()
	if ec.OCREnabled {
		t.Error("ExtractConfig should carry OCR disabled")
	}
	if ec.OCR.MaxPages != 40 || ec.OCR.DPI != 120 || ec.OCR.Language != "eng" {
		t.Errorf("ExtractConfig OCR = %+v", ec.OCR)
	}
}

func TestLoadConfigDataDirIsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "data")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DATA_DIR", file)

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error when DATA_DIR is a file")
	}
}

func TestLoadEnvFiles(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	content := "SLIDES_TEST_FROM_FILE=loaded\nSLIDES_TEST_PRESET=file\n"
	if err := os.WriteFile(envFile, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("SLIDES_TEST_PRESET", "process")
	t.Setenv("SLIDES_TEST_FROM_FILE", "")
	if err := os.Unsetenv("SLIDES_TEST_FROM_FILE"); err != nil {
		t.Fatal(err)
	}

	LoadEnvFiles(envFile, filepath.Join(dir, "missing.env"))

	if got := os.Getenv("SLIDES_TEST_FROM_FILE"); got != "loaded" {
		t.Errorf("SLIDES_TEST_FROM_FILE = %q, want loaded", got)
	}
	if got := os.Getenv("SLIDES_TEST_PRESET"); got != "process" {
		t.Errorf("existing variable overwritten: %q", got)
	}
}

func TestGetRoutes(t *testing.T) {
	router := mux.NewRouter()
	noop := func(_ http.ResponseWriter, _ *http.Request) {}
	router.HandleFunc("/api/search", noop).Methods(http.MethodGet)
	router.HandleFunc("/api/scan", noop).Methods(http.MethodPost)
	router.HandleFunc("/livez", noop).Methods(http.MethodGet, http.MethodHead)

	routes, err := GetRoutes(router)
	if err != nil {
		t.Fatalf("GetRoutes: %v", err)
	}
	if len(routes) != 4 {
		t.Fatalf("got %d routes, want 4: %+v", len(routes), routes)
	}
	if routes[0].Method != http.MethodGet || routes[0].Path != "/api/search" {
		t.Errorf("first route = %+v", routes[0])
	}
}

func TestGetRouteGroup(t *testing.T) {
	tests := map[string]string{
		"/api/search":       "api/search",
		"/api/scan/events":  "api/scan",
		"/api/entries/{id}": "api/entries",
		"/health":           "health",
		"/":                 "",
	}
	for path, want := range tests {
		if got := getRouteGroup(path); got != want {
			t.Errorf("getRouteGroup(%q) = %q, want %q", path, got, want)
		}
	}
}
