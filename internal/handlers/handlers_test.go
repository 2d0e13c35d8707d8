package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"slides-indexer/internal/catalog"
	"slides-indexer/internal/doctypes"
	"slides-indexer/internal/indexer"
)

type fakeService struct {
	submitted []string
	scanDir   string
	scanErr   error
	scanCtx   context.Context
	clearErr  error
	stopped   bool
	query     string
	entries   map[string]catalog.Entry
	health    indexer.HealthStatus
	events    chan indexer.Event
	canceled  bool
}

func newFakeService() *fakeService {
	return &fakeService{entries: map[string]catalog.Entry{}, events: make(chan indexer.Event, 8)}
}

func (f *fakeService) SubmitDirectories(_ context.Context, paths []string) (indexer.Summary, error) {
	f.submitted = paths
	return indexer.Summary{State: indexer.StateIdle, Warnings: []string{}}, nil
}

func (f *fakeService) RunScan(ctx context.Context, filter string) (indexer.Summary, error) {
	f.scanDir = filter
	f.scanCtx = ctx
	if f.scanErr != nil {
		return indexer.Summary{}, f.scanErr
	}
	return indexer.Summary{State: indexer.StateCompleted, Scanned: 2, Warnings: []string{}}, nil
}

func (f *fakeService) StopScan() bool { return f.stopped }

func (f *fakeService) ClearCatalog(context.Context) error { return f.clearErr }

func (f *fakeService) Query(q string) indexer.SearchResponse {
	f.query = q
	items := []catalog.Entry{}
	for _, e := range f.entries {
		items = append(items, e)
	}
	return indexer.SearchResponse{Items: items, Total: len(items)}
}

func (f *fakeService) State() catalog.Catalog {
	return catalog.Catalog{Directories: []string{"/decks"}, Items: []catalog.Entry{}, Warnings: []string{}}
}

func (f *fakeService) Find(id string) (catalog.Entry, bool) {
	e, ok := f.entries[id]
	return e, ok
}

func (f *fakeService) Subscribe() (<-chan indexer.Event, func()) {
	return f.events, func() { f.canceled = true }
}

func (f *fakeService) GetHealthStatus() indexer.HealthStatus { return f.health }

func newTestRouter(svc Service) *mux.Router {
	router := mux.NewRouter()
	New(svc).RegisterRoutes(router)
	return router
}

func serve(t *testing.T, router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestSubmitDirectories(t *testing.T) {
	svc := newFakeService()
	router := newTestRouter(svc)

	rec := serve(t, router, http.MethodPut, "/api/directories", `{"directories":["/b","/a"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if want := []string{"/b", "/a"}; !reflect.DeepEqual(svc.submitted, want) {
		t.Errorf("submitted = %v, want %v", svc.submitted, want)
	}
	var summary indexer.Summary
	decode(t, rec, &summary)
	if summary.State != indexer.StateIdle {
		t.Errorf("State = %s, want idle", summary.State)
	}

	if rec := serve(t, router, http.MethodPut, "/api/directories", `not json`); rec.Code != http.StatusBadRequest {
		t.Errorf("bad body status = %d, want 400", rec.Code)
	}
}

func TestRunScanStatusCodes(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target string
		want   int
	}{
		{"all directories", nil, "/api/scan", http.StatusOK},
		{"single directory", nil, "/api/scan?dir=%2Fdecks", http.StatusOK},
		{"not linked", fmt.Errorf("%w: /x", indexer.ErrDirectoryNotLinked), "/api/scan?dir=%2Fx", http.StatusBadRequest},
		{"in progress", indexer.ErrScanInProgress, "/api/scan", http.StatusConflict},
		{"other failure", errors.New("boom"), "/api/scan", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newFakeService()
			svc.scanErr = tt.err
			rec := serve(t, newTestRouter(svc), http.MethodPost, tt.target, "")
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body)
			}
		})
	}
}

func TestRunScanPassesFilterAndDetachesContext(t *testing.T) {
	svc := newFakeService()
	rec := serve(t, newTestRouter(svc), http.MethodPost, "/api/scan?dir=%2Fdecks", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if svc.scanDir != "/decks" {
		t.Errorf("filter = %q, want /decks", svc.scanDir)
	}
	if svc.scanCtx.Done() != nil {
		t.Error("scan context should not end with the request")
	}
	var summary indexer.Summary
	decode(t, rec, &summary)
	if summary.Scanned != 2 || summary.State != indexer.StateCompleted {
		t.Errorf("summary = %+v", summary)
	}
}

func TestStopScan(t *testing.T) {
	svc := newFakeService()
	svc.stopped = true
	rec := serve(t, newTestRouter(svc), http.MethodPost, "/api/scan/stop", "")

	var body map[string]bool
	decode(t, rec, &body)
	if !body["stopped"] {
		t.Errorf("body = %v, want stopped", body)
	}
}

func TestClearCatalog(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"ok", nil, http.StatusOK},
		{"scanning", indexer.ErrScanInProgress, http.StatusConflict},
		{"persist failure", catalog.ErrPersist, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newFakeService()
			svc.clearErr = tt.err
			if rec := serve(t, newTestRouter(svc), http.MethodDelete, "/api/catalog", ""); rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestSearchAndEntries(t *testing.T) {
	svc := newFakeService()
	svc.entries["abc"] = catalog.Entry{ID: "abc", Path: "/decks/q3.pptx", Name: "q3.pptx", Kind: doctypes.KindPPTX}
	router := newTestRouter(svc)

	rec := serve(t, router, http.MethodGet, "/api/search?q=%22quarterly+review%22", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("search status = %d", rec.Code)
	}
	if svc.query != `"quarterly review"` {
		t.Errorf("query = %q", svc.query)
	}
	var resp indexer.SearchResponse
	decode(t, rec, &resp)
	if resp.Total != 1 || resp.Items[0].ID != "abc" {
		t.Errorf("response = %+v", resp)
	}

	rec = serve(t, router, http.MethodGet, "/api/entries/abc", "")
	var entry catalog.Entry
	decode(t, rec, &entry)
	if entry.Path != "/decks/q3.pptx" {
		t.Errorf("entry = %+v", entry)
	}

	if rec := serve(t, router, http.MethodGet, "/api/entries/missing", ""); rec.Code != http.StatusNotFound {
		t.Errorf("missing entry status = %d, want 404", rec.Code)
	}
}

func TestGetState(t *testing.T) {
	rec := serve(t, newTestRouter(newFakeService()), http.MethodGet, "/api/state", "")
	var c catalog.Catalog
	decode(t, rec, &c)
	if len(c.Directories) != 1 || c.Items == nil || c.Warnings == nil {
		t.Errorf("state = %+v", c)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	if rec := serve(t, newTestRouter(newFakeService()), http.MethodGet, "/api/scan", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}
