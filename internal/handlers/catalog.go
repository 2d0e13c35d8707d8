package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"slides-indexer/internal/indexer"
	"slides-indexer/internal/logging"
)

const maxRequestBody = 1 << 20

// DirectoriesRequest is the body of PUT /api/directories.
type DirectoriesRequest struct {
	Directories []string `json:"directories"`
}

// SubmitDirectories replaces the linked directory set.
func (h *Handlers) SubmitDirectories(w http.ResponseWriter, r *http.Request) {
	var req DirectoriesRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	summary, err := h.service.SubmitDirectories(r.Context(), req.Directories)
	if err != nil {
		logging.Error("Failed to update directories: %v", err)
		writeJSONError(w, "Failed to update directories", http.StatusInternalServerError)
		return
	}
	writeJSONStatusCode(w, http.StatusOK, summary)
}

// RunScan scans all linked directories, or only ?dir= when given, and
// answers with the summary once the scan ends. A client disconnect does
// not stop the scan; use POST /api/scan/stop.
func (h *Handlers) RunScan(w http.ResponseWriter, r *http.Request) {
	dir := r.URL.Query().Get("dir")

	summary, err := h.service.RunScan(context.WithoutCancel(r.Context()), dir)
	switch {
	case errors.Is(err, indexer.ErrDirectoryNotLinked):
		writeJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, indexer.ErrScanInProgress):
		writeJSONError(w, "A scan is already running", http.StatusConflict)
	case err != nil:
		logging.Error("Scan failed: %v", err)
		writeJSONError(w, "Scan failed", http.StatusInternalServerError)
	default:
		writeJSONStatusCode(w, http.StatusOK, summary)
	}
}

// StopScan requests the running scan to stop after the current file.
func (h *Handlers) StopScan(w http.ResponseWriter, _ *http.Request) {
	stopped := h.service.StopScan()
	writeJSONStatusCode(w, http.StatusOK, map[string]bool{"stopped": stopped})
}

// ClearCatalog drops every entry. Linked directories are kept.
func (h *Handlers) ClearCatalog(w http.ResponseWriter, r *http.Request) {
	err := h.service.ClearCatalog(r.Context())
	switch {
	case errors.Is(err, indexer.ErrScanInProgress):
		writeJSONError(w, "Cannot clear the catalog while a scan is running", http.StatusConflict)
	case err != nil:
		logging.Error("Failed to clear catalog: %v", err)
		writeJSONError(w, "Failed to clear catalog", http.StatusInternalServerError)
	default:
		writeJSONStatus(w, "cleared")
	}
}

// Search answers GET /api/search?q=. An empty query returns every entry.
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	writeJSONStatusCode(w, http.StatusOK, h.service.Query(r.URL.Query().Get("q")))
}

// GetState returns the whole catalog.
func (h *Handlers) GetState(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	writeJSONStatusCode(w, http.StatusOK, h.service.State())
}

// GetEntry returns one entry by id.
func (h *Handlers) GetEntry(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.service.Find(mux.Vars(r)["id"])
	if !ok {
		writeJSONError(w, "Entry not found", http.StatusNotFound)
		return
	}
	writeJSONStatusCode(w, http.StatusOK, entry)
}
