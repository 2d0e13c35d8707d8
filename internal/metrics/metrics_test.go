package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsExist(t *testing.T) {
	tests := []struct {
		name   string
		metric interface{}
	}{
		{"HTTPRequestsTotal", HTTPRequestsTotal},
		{"HTTPRequestDuration", HTTPRequestDuration},
		{"HTTPRequestsInFlight", HTTPRequestsInFlight},
		{"DBQueryTotal", DBQueryTotal},
		{"DBQueryDuration", DBQueryDuration},
		{"DBTransactionDuration", DBTransactionDuration},
		{"DBSizeBytes", DBSizeBytes},
		{"DBRecoveredTotal", DBRecoveredTotal},
		{"CatalogPersistErrors", CatalogPersistErrors},
		{"CatalogEntries", CatalogEntries},
		{"IndexerRunsTotal", IndexerRunsTotal},
		{"IndexerFilesTotal", IndexerFilesTotal},
		{"IndexerIsRunning", IndexerIsRunning},
		{"ChecksumDuration", ChecksumDuration},
		{"ExtractionDuration", ExtractionDuration},
		{"ExtractionTierAttempts", ExtractionTierAttempts},
		{"OCRPagesTotal", OCRPagesTotal},
		{"FilesystemRetryAttempts", FilesystemRetryAttempts},
		{"FilesystemStaleErrors", FilesystemStaleErrors},
		{"AppInfo", AppInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.metric == nil {
				t.Errorf("%s metric is nil", tt.name)
			}
		})
	}
}

func TestInitializeMetricsPopulatesLabels(t *testing.T) {
	InitializeMetrics()

	if n := testutil.CollectAndCount(IndexerFilesTotal); n < 5 {
		t.Errorf("IndexerFilesTotal series = %d, want at least 5", n)
	}
	if n := testutil.CollectAndCount(ExtractionTierAttempts); n < 12 {
		t.Errorf("ExtractionTierAttempts series = %d, want at least 12", n)
	}
	if n := testutil.CollectAndCount(CatalogEntries); n < 3 {
		t.Errorf("CatalogEntries series = %d, want at least 3", n)
	}
}

func TestSetAppInfo(t *testing.T) {
	SetAppInfo("1.0.0", "abc123", "go1.25")

	if got := testutil.ToFloat64(AppInfo.WithLabelValues("1.0.0", "abc123", "go1.25")); got != 1 {
		t.Errorf("AppInfo = %v, want 1", got)
	}
}

func TestFilesystemObserver(t *testing.T) {
	obs := NewFilesystemObserver()

	before := testutil.ToFloat64(FilesystemOperationErrors.WithLabelValues("library", "stat"))
	obs.ObserveOperation("library", "stat", 0.001, errors.New("boom"))
	obs.ObserveOperation("library", "stat", 0.001, nil)
	if got := testutil.ToFloat64(FilesystemOperationErrors.WithLabelValues("library", "stat")); got != before+1 {
		t.Errorf("operation errors = %v, want %v", got, before+1)
	}

	beforeStale := testutil.ToFloat64(FilesystemStaleErrors.WithLabelValues("open", "data"))
	obs.ObserveStaleError("open", "data")
	if got := testutil.ToFloat64(FilesystemStaleErrors.WithLabelValues("open", "data")); got != beforeStale+1 {
		t.Errorf("stale errors = %v, want %v", got, beforeStale+1)
	}

	obs.ObserveRetryAttempt("open", "data")
	obs.ObserveRetrySuccess("open", "data")
	obs.ObserveRetryFailure("open", "data")
	obs.ObserveRetryDuration("open", "data", 0.05)
}

func TestStaleWarningOncePerVolume(t *testing.T) {
	obs := NewFilesystemObserver().(*volumeObserver)

	if !obs.firstStale("/decks") {
		t.Error("first stale handle on /decks should warn")
	}
	if obs.firstStale("/decks") {
		t.Error("second stale handle on /decks should not warn again")
	}
	if !obs.firstStale("data") {
		t.Error("a different volume should warn independently")
	}

	before := testutil.ToFloat64(FilesystemStaleErrors.WithLabelValues("readdir", "/decks"))
	obs.ObserveStaleError("readdir", "/decks")
	obs.ObserveStaleError("readdir", "/decks")
	if got := testutil.ToFloat64(FilesystemStaleErrors.WithLabelValues("readdir", "/decks")); got != before+2 {
		t.Errorf("stale errors = %v, want %v", got, before+2)
	}
}
