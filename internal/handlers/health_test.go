package handlers

import (
	"net/http"
	"testing"

	"slides-indexer/internal/indexer"
	"slides-indexer/internal/startup"
)

func TestHealthCheck(t *testing.T) {
	lastIndexed := int64(1700000000000)
	tests := []struct {
		name       string
		status     indexer.HealthStatus
		wantCode   int
		wantStatus string
	}{
		{
			name:       "starting",
			status:     indexer.HealthStatus{Scanning: true},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: statusStarting,
		},
		{
			name:       "healthy",
			status:     indexer.HealthStatus{Ready: true, Entries: 4, LastIndexedAt: &lastIndexed},
			wantCode:   http.StatusOK,
			wantStatus: statusHealthy,
		},
		{
			name:       "missing tools",
			status:     indexer.HealthStatus{Ready: true, MissingTools: []string{"tesseract"}},
			wantCode:   http.StatusOK,
			wantStatus: statusDegraded,
		},
		{
			name:       "initial scan failed",
			status:     indexer.HealthStatus{Ready: true, InitialScanError: "disk gone"},
			wantCode:   http.StatusOK,
			wantStatus: statusDegraded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newFakeService()
			svc.health = tt.status
			rec := serve(t, newTestRouter(svc), http.MethodGet, "/health", "")
			if rec.Code != tt.wantCode {
				t.Errorf("status code = %d, want %d", rec.Code, tt.wantCode)
			}
			var resp HealthResponse
			decode(t, rec, &resp)
			if resp.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", resp.Status, tt.wantStatus)
			}
			if resp.Version != startup.Version {
				t.Errorf("version = %q, want %q", resp.Version, startup.Version)
			}
			if resp.Entries != tt.status.Entries {
				t.Errorf("entries = %d, want %d", resp.Entries, tt.status.Entries)
			}
		})
	}
}

func TestHealthCheckLastIndexed(t *testing.T) {
	at := int64(1700000000000)
	svc := newFakeService()
	svc.health = indexer.HealthStatus{Ready: true, LastIndexedAt: &at}

	var resp HealthResponse
	decode(t, serve(t, newTestRouter(svc), http.MethodGet, "/health", ""), &resp)
	if resp.LastIndexed != "2023-11-14T22:13:20Z" {
		t.Errorf("lastIndexed = %q", resp.LastIndexed)
	}
}

func TestLivenessCheck(t *testing.T) {
	router := newTestRouter(newFakeService())

	rec := serve(t, router, http.MethodGet, "/livez", "")
	var body map[string]string
	decode(t, rec, &body)
	if rec.Code != http.StatusOK || body["status"] != "alive" {
		t.Errorf("GET /livez = %d %v", rec.Code, body)
	}

	rec = serve(t, router, http.MethodHead, "/livez", "")
	if rec.Code != http.StatusOK || rec.Body.Len() != 0 {
		t.Errorf("HEAD /livez = %d with %d body bytes", rec.Code, rec.Body.Len())
	}
}

func TestReadinessCheck(t *testing.T) {
	svc := newFakeService()
	router := newTestRouter(svc)

	if rec := serve(t, router, http.MethodGet, "/readyz", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("not ready status = %d, want 503", rec.Code)
	}
	svc.health.Ready = true
	if rec := serve(t, router, http.MethodGet, "/readyz", ""); rec.Code != http.StatusOK {
		t.Errorf("ready status = %d, want 200", rec.Code)
	}
}

func TestGetVersion(t *testing.T) {
	rec := serve(t, newTestRouter(newFakeService()), http.MethodGet, "/version", "")
	var info startup.BuildInfo
	decode(t, rec, &info)
	if info != startup.GetBuildInfo() {
		t.Errorf("version = %+v, want %+v", info, startup.GetBuildInfo())
	}
	if rec.Header().Get("Cache-Control") != "no-cache" {
		t.Error("version response should not be cached")
	}
}
