package metrics

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

type mockStatsProvider struct {
	mu    sync.Mutex
	calls int
	stats Stats
}

func (m *mockStatsProvider) CatalogStats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.stats
}

func (m *mockStatsProvider) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func TestNewCollector(t *testing.T) {
	provider := &mockStatsProvider{}
	collector := NewCollector(provider, "/tmp/catalog.db", 5*time.Second)

	if collector == nil {
		t.Fatal("NewCollector returned nil")
	}
	if collector.statsProvider != provider {
		t.Error("statsProvider not set correctly")
	}
	if collector.dbPath != "/tmp/catalog.db" {
		t.Errorf("dbPath = %q, want %q", collector.dbPath, "/tmp/catalog.db")
	}
	if collector.interval != 5*time.Second {
		t.Errorf("interval = %v, want %v", collector.interval, 5*time.Second)
	}
	if collector.stopChan == nil {
		t.Error("stopChan not initialized")
	}
}

func TestCollectorStartStop(t *testing.T) {
	provider := &mockStatsProvider{stats: Stats{EntriesByKind: map[string]int{"pdf": 1}}}
	collector := NewCollector(provider, "", 20*time.Millisecond)

	collector.Start()
	time.Sleep(70 * time.Millisecond)
	collector.Stop()

	if provider.callCount() < 2 {
		t.Errorf("expected several collection cycles, got %d", provider.callCount())
	}
}

func TestCollectWithNilProvider(t *testing.T) {
	collector := NewCollector(nil, "", time.Second)

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("collect() panicked with nil provider: %v", r)
		}
	}()

	collector.collect()
}

func TestCollectSetsCatalogGauges(t *testing.T) {
	provider := &mockStatsProvider{
		stats: Stats{
			EntriesByKind: map[string]int{"pptx": 3, "pdf": 7},
			Directories:   2,
		},
	}
	collector := NewCollector(provider, "", time.Second)
	collector.collect()

	if got := testutil.ToFloat64(CatalogEntries.WithLabelValues("pptx")); got != 3 {
		t.Errorf("pptx entries = %v, want 3", got)
	}
	if got := testutil.ToFloat64(CatalogEntries.WithLabelValues("pdf")); got != 7 {
		t.Errorf("pdf entries = %v, want 7", got)
	}
	if got := testutil.ToFloat64(CatalogEntries.WithLabelValues("ppt")); got != 0 {
		t.Errorf("ppt entries = %v, want 0", got)
	}
	if got := testutil.ToFloat64(CatalogDirectories); got != 2 {
		t.Errorf("directories = %v, want 2", got)
	}
}

func TestCollectDBSize(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "catalog.db")
	if err := os.WriteFile(dbPath, make([]byte, 4096), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dbPath+"-wal", make([]byte, 128), 0o644); err != nil {
		t.Fatal(err)
	}

	NewCollector(nil, dbPath, time.Second).collectDBSize()

	if got := testutil.ToFloat64(DBSizeBytes.WithLabelValues("main")); got != 4096 {
		t.Errorf("main size = %v, want 4096", got)
	}
	if got := testutil.ToFloat64(DBSizeBytes.WithLabelValues("wal")); got != 128 {
		t.Errorf("wal size = %v, want 128", got)
	}
	if got := testutil.ToFloat64(DBSizeBytes.WithLabelValues("shm")); got != 0 {
		t.Errorf("shm size = %v, want 0", got)
	}
}
