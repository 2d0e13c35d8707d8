package handlers

import (
	"net/http"
	"runtime"
	"time"

	"slides-indexer/internal/indexer"
	"slides-indexer/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusStarting = "starting"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status           string `json:"status"`
	Ready            bool   `json:"ready"`
	Version          string `json:"version"`
	Uptime           string `json:"uptime"`
	Scanning         bool   `json:"scanning"`
	LastIndexed      string `json:"lastIndexed,omitempty"`
	InitialScanError string `json:"initialScanError,omitempty"`

	Entries      int                   `json:"entries"`
	Directories  int                   `json:"directories"`
	MissingTools []string              `json:"missingTools,omitempty"`
	CurrentScan  *indexer.ScanProgress `json:"currentScan,omitempty"`
	LastScan     *indexer.Summary      `json:"lastScan,omitempty"`

	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck returns the health status of the service. Missing PDF tools
// or a failed initial scan report degraded but still answer 200 once ready.
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	hs := h.service.GetHealthStatus()

	response := HealthResponse{
		Status:       statusStarting,
		Ready:        hs.Ready,
		Version:      startup.Version,
		Uptime:       hs.Uptime,
		Scanning:     hs.Scanning,
		Entries:      hs.Entries,
		Directories:  hs.Directories,
		MissingTools: hs.MissingTools,
		CurrentScan:  hs.CurrentScan,
		LastScan:     hs.LastScan,
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
	}
	if hs.Ready {
		response.Status = statusHealthy
	}
	if hs.LastIndexedAt != nil {
		response.LastIndexed = time.UnixMilli(*hs.LastIndexedAt).UTC().Format(time.RFC3339)
	}
	if hs.InitialScanError != "" || len(hs.MissingTools) > 0 {
		response.InitialScanError = hs.InitialScanError
		if hs.Ready {
			response.Status = statusDegraded
		}
	}

	code := http.StatusOK
	if !hs.Ready {
		code = http.StatusServiceUnavailable
	}
	writeJSONStatusCode(w, code, response)
}

// LivenessCheck always answers 200 while the process serves requests.
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{"status": "alive"})
	}
}

// ReadinessCheck returns 200 only when the catalog can answer queries.
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	if h.service.GetHealthStatus().Ready {
		writeJSONStatus(w, "ready")
		return
	}
	writeJSONStatusCode(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
}
