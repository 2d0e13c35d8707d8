package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"slides-indexer/internal/catalog"
	"slides-indexer/internal/indexer"
)

// Service is the part of the indexer the API uses.
type Service interface {
	SubmitDirectories(ctx context.Context, paths []string) (indexer.Summary, error)
	RunScan(ctx context.Context, filter string) (indexer.Summary, error)
	StopScan() bool
	ClearCatalog(ctx context.Context) error
	Query(q string) indexer.SearchResponse
	State() catalog.Catalog
	Find(id string) (catalog.Entry, bool)
	Subscribe() (<-chan indexer.Event, func())
	GetHealthStatus() indexer.HealthStatus
}

var _ Service = (*indexer.Indexer)(nil)

type Handlers struct {
	service Service
}

func New(service Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes mounts the API and health routes on router.
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	router.HandleFunc("/livez", h.LivenessCheck).Methods(http.MethodGet, http.MethodHead)
	router.HandleFunc("/readyz", h.ReadinessCheck).Methods(http.MethodGet)
	router.HandleFunc("/version", h.GetVersion).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/directories", h.SubmitDirectories).Methods(http.MethodPut)
	api.HandleFunc("/scan", h.RunScan).Methods(http.MethodPost)
	api.HandleFunc("/scan/stop", h.StopScan).Methods(http.MethodPost)
	api.HandleFunc("/scan/events", h.ScanEvents).Methods(http.MethodGet)
	api.HandleFunc("/catalog", h.ClearCatalog).Methods(http.MethodDelete)
	api.HandleFunc("/search", h.Search).Methods(http.MethodGet)
	api.HandleFunc("/state", h.GetState).Methods(http.MethodGet)
	api.HandleFunc("/entries/{id}", h.GetEntry).Methods(http.MethodGet)
}
