package indexer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"slides-indexer/internal/catalog"
	"slides-indexer/internal/checksum"
	"slides-indexer/internal/doctypes"
	"slides-indexer/internal/extract"
)

var errBrokenDeck = errors.New("broken deck")

// fakeExtractor returns canned content and counts calls.
type fakeExtractor struct {
	mu      sync.Mutex
	calls   int
	empty   map[string]bool  // base name -> return empty content
	fail    map[string]error // base name -> error
	ocr     map[string]bool  // base name -> fire OnOCR
	onCall  func(n int)
	history []string
}

func newFakeExtractor() *fakeExtractor {
	return &fakeExtractor{
		empty: make(map[string]bool),
		fail:  make(map[string]error),
		ocr:   make(map[string]bool),
	}
}

func (f *fakeExtractor) Extract(_ context.Context, path string, kind doctypes.Kind, hooks extract.Hooks) (extract.Content, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.history = append(f.history, path)
	name := filepath.Base(path)
	empty, err, ocr, onCall := f.empty[name], f.fail[name], f.ocr[name], f.onCall
	f.mu.Unlock()

	if onCall != nil {
		defer onCall(n)
	}
	if err != nil {
		return extract.Content{}, err
	}
	if ocr && hooks.OnOCR != nil {
		hooks.OnOCR()
	}
	if empty {
		return extract.Content{Keywords: []string{}, Previews: []extract.Preview{}}, nil
	}
	data, readErr := os.ReadFile(path)
	if readErr != nil {
		return extract.Content{}, readErr
	}
	text := string(data)
	count := 1
	return extract.Content{
		Snippet:      text,
		Keywords:     []string{text},
		Previews:     []extract.Preview{{Index: 1, Text: text}},
		UnitCount:    &count,
		DocumentType: doctypes.DocumentTypePresentation,
	}, nil
}

func (f *fakeExtractor) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func allTools() *extract.Toolset {
	return &extract.Toolset{Pdftotext: "/bin/pdftotext", Pdftoppm: "/bin/pdftoppm", Tesseract: "/bin/tesseract"}
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type harness struct {
	root      string
	store     *catalog.Store
	persister catalog.Persister
	sums      *checksum.Engine
	extractor *fakeExtractor
	idx       *Indexer
}

func newHarness(t *testing.T, persister catalog.Persister, opts ...catalog.Option) *harness {
	t.Helper()
	if persister == nil {
		persister = catalog.NewMemoryPersister(catalog.Catalog{})
	}
	store, err := catalog.Open(context.Background(), persister, opts...)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	sums, err := checksum.New("")
	if err != nil {
		t.Fatal(err)
	}
	ext := newFakeExtractor()
	idx := New(store, ext, sums, allTools())
	idx.SetWalkerConfig(WalkerConfig{NumWorkers: 2, ChannelBuffer: 8})

	root := t.TempDir()
	if _, err := idx.SubmitDirectories(context.Background(), []string{root}); err != nil {
		t.Fatal(err)
	}
	return &harness{root: root, store: store, persister: persister, sums: sums, extractor: ext, idx: idx}
}

func (h *harness) scan(t *testing.T) Summary {
	t.Helper()
	s, err := h.idx.RunScan(context.Background(), "")
	if err != nil {
		t.Fatalf("RunScan: %v", err)
	}
	return s
}

// writeDoc writes content to name below the harness root with a fixed mtime.
func (h *harness) writeDoc(t *testing.T, name, content string, mtime time.Time) string {
	t.Helper()
	path := filepath.Join(h.root, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	touch(t, path, mtime)
	return path
}

func touch(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}
}

// collect gathers events until the end-of-scan sentinel.
func collect(t *testing.T, ch <-chan Event) []Event {
	t.Helper()
	var events []Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case e, ok := <-ch:
			if !ok || e.IsTerminal() {
				return events
			}
			events = append(events, e)
		case <-timeout:
			t.Fatal("timed out waiting for end of scan")
			return events
		}
	}
}
