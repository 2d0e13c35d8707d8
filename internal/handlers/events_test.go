package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"slides-indexer/internal/indexer"
)

func TestScanEventsStream(t *testing.T) {
	svc := newFakeService()
	router := newTestRouter(svc)

	svc.events <- indexer.Event{Path: "/decks/a.pdf", Status: indexer.StatusScanning, Detail: "new file"}
	svc.events <- indexer.Event{Path: "/decks/a.pdf", Status: indexer.StatusSaved}
	svc.events <- indexer.Event{}
	close(svc.events)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/scan/events", http.NoBody))

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}
	want := ": connected\n\n" +
		`data: {"path":"/decks/a.pdf","status":"scanning","detail":"new file"}` + "\n\n" +
		`data: {"path":"/decks/a.pdf","status":"saved"}` + "\n\n" +
		"data: {}\n\n"
	if rec.Body.String() != want {
		t.Errorf("body\n got %q\nwant %q", rec.Body.String(), want)
	}
	if !svc.canceled {
		t.Error("subscription not canceled")
	}
}

func TestScanEventsClientDisconnect(t *testing.T) {
	svc := newFakeService()
	router := newTestRouter(svc)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/scan/events", http.NoBody).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		router.ServeHTTP(rec, req)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler did not return after client disconnect")
	}
	if !strings.HasPrefix(rec.Body.String(), ": connected") {
		t.Errorf("body = %q", rec.Body.String())
	}
	if !svc.canceled {
		t.Error("subscription not canceled")
	}
}
