package indexer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"

	"slides-indexer/internal/catalog"
	"slides-indexer/internal/extract"
	"slides-indexer/internal/filesystem"
	"slides-indexer/internal/logging"
	"slides-indexer/internal/metrics"
)

// ScanState is the lifecycle state of a scan.
type ScanState string

const (
	StateIdle      ScanState = "idle"
	StateScanning  ScanState = "scanning"
	StateCompleted ScanState = "completed"
	StateStopped   ScanState = "stopped"
	// StateFailed means the scan ran but its results could not be
	// finalized durably.
	StateFailed ScanState = "failed"
)

// Summary describes the outcome of a scan or a directory update.
type Summary struct {
	ScanID        string        `json:"scanId,omitempty"`
	State         ScanState     `json:"state"`
	Indexed       int           `json:"indexed"`
	Scanned       int           `json:"scanned"`
	Cached        int           `json:"cached"`
	Removed       int           `json:"removed"`
	Warnings      []string      `json:"warnings"`
	LastIndexedAt *int64        `json:"lastIndexedAt,omitempty"`
	Duration      time.Duration `json:"durationNs"`
}

// scanRun holds the working state of one scan.
type scanRun struct {
	id       string
	existing map[string]catalog.Entry
	found    map[string]struct{}
	warnings []string
	scanned  int
	cached   int
	removed  int
	stopped  bool
}

func (r *scanRun) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	logging.Warn("%s", msg)
	metrics.IndexerWarnings.Inc()
	r.warnings = append(r.warnings, msg)
}

func (r *scanRun) persistFailed(err error) {
	r.warn("Persist failed: %v", err)
}

// scan runs one pass over dirs. The caller holds the scan slot.
func (idx *Indexer) scan(ctx context.Context, dirs []string) Summary {
	start := time.Now()
	// Stopping a scan must not abort a write or an external tool mid-file.
	workCtx := context.WithoutCancel(ctx)

	run := &scanRun{
		id:       uuid.NewString(),
		existing: make(map[string]catalog.Entry),
		found:    make(map[string]struct{}),
	}
	for _, e := range idx.store.Query(func(e catalog.Entry) bool { return withinAny(e.Path, dirs) }) {
		run.existing[e.Path] = e
	}

	logging.Info("Starting scan %s: %d directories, %d cached entries", run.id, len(dirs), len(run.existing))
	idx.setCurrent(run.id, start)

	for _, dir := range dirs {
		if ctx.Err() != nil {
			run.stopped = true
			break
		}
		if !isDir(dir, idx.retry) {
			run.warn("Directory not found: %s", dir)
			continue
		}

		candidates, err := idx.walker.Walk(ctx, dir)
		for _, c := range candidates {
			run.found[c.Path] = struct{}{}
		}
		if err != nil && ctx.Err() == nil {
			run.warn("Failed to walk %s: %v", dir, err)
		}

		for _, c := range candidates {
			if ctx.Err() != nil || idx.wait(ctx) != nil {
				run.stopped = true
				break
			}
			idx.processFile(workCtx, run, c)
		}
		if run.stopped {
			break
		}
	}

	if !run.stopped && ctx.Err() != nil {
		run.stopped = true
	}
	if !run.stopped {
		idx.reconcileDeletions(workCtx, run)
	} else {
		logging.Info("Scan %s stopped, skipping deletion reconciliation", run.id)
	}

	warnings := idx.withToolWarning(run.warnings)
	state := StateCompleted
	if run.stopped {
		state = StateStopped
	}
	lastIndexedAt, err := idx.store.Finalize(workCtx, warnings, partialScope(dirs, idx.store.Directories())...)
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("Persist failed: %v", err))
		state = StateFailed
	}

	summary := Summary{
		ScanID:        run.id,
		State:         state,
		Indexed:       idx.store.Len(),
		Scanned:       run.scanned,
		Cached:        run.cached,
		Removed:       run.removed,
		Warnings:      nonNilStrings(warnings),
		LastIndexedAt: &lastIndexedAt,
		Duration:      time.Since(start),
	}

	metrics.IndexerRunsTotal.WithLabelValues(string(state)).Inc()
	metrics.IndexerLastRunTimestamp.Set(float64(time.Now().Unix()))
	metrics.IndexerLastRunDuration.Set(summary.Duration.Seconds())

	logging.Info("Scan %s %s: %d indexed, %d scanned, %d cached, %d removed, %d warnings in %v",
		run.id, state, summary.Indexed, summary.Scanned, summary.Cached, summary.Removed,
		len(summary.Warnings), summary.Duration)
	return summary
}

// processFile handles one candidate. Errors end up as warnings on run.
func (idx *Indexer) processFile(ctx context.Context, run *scanRun, c candidate) {
	if c.Err != nil {
		metrics.IndexerFilesTotal.WithLabelValues("failed").Inc()
		run.warn("Failed to read %s: %v", c.Path, c.Err)
		return
	}

	var existing *catalog.Entry
	if e, ok := run.existing[c.Path]; ok {
		existing = &e
	}

	decision := idx.detector.Detect(c.Path, c.ModifiedAt, existing)
	logging.Debug("%s: %s %s", c.Path, decision.Outcome, decision.Reason)

	switch decision.Outcome {
	case QuickHit:
		metrics.IndexerFilesTotal.WithLabelValues("cached_quick").Inc()
		run.cached++
		idx.publish(Event{Path: c.Path, Status: StatusCached})
		return

	case VerifiedHit:
		entry := existing.Clone()
		entry.ModifiedAt = c.ModifiedAt
		entry.UpdatedAt = idx.store.NowMillis()
		if err := idx.store.UpsertAndPersist(ctx, entry); err != nil {
			run.persistFailed(err)
		}
		metrics.IndexerFilesTotal.WithLabelValues("cached_verified").Inc()
		run.cached++
		idx.publish(Event{Path: c.Path, Status: StatusCached, Detail: "content unchanged"})
		return
	}

	idx.publish(Event{Path: c.Path, Status: StatusScanning, Detail: decision.Reason})

	hooks := extract.Hooks{OnOCR: func() {
		idx.publish(Event{Path: c.Path, Status: StatusOCR, Detail: "running OCR on page images"})
	}}
	content, err := idx.extractor.Extract(ctx, c.Path, c.Kind, hooks)
	if err != nil {
		metrics.IndexerFilesTotal.WithLabelValues("failed").Inc()
		run.warn("Failed to index %s %s: %v", c.Kind.Label(), c.Path, err)
		return
	}
	for _, w := range content.Warnings {
		logging.Debug("%s: %s", c.Path, w)
	}

	entry := buildEntry(c, decision.Checksum, content, existing, idx.store.NowMillis())
	if err := idx.store.UpsertAndPersist(ctx, entry); err != nil {
		run.persistFailed(err)
	}
	metrics.IndexerFilesTotal.WithLabelValues("scanned").Inc()
	run.scanned++
	idx.publish(Event{Path: c.Path, Status: StatusSaved})
}

// reconcileDeletions removes entries whose files were not found.
func (idx *Indexer) reconcileDeletions(ctx context.Context, run *scanRun) {
	paths := make([]string, 0, len(run.existing))
	for path := range run.existing {
		if _, ok := run.found[path]; !ok {
			paths = append(paths, path)
		}
	}
	slices.Sort(paths)

	for _, path := range paths {
		existed, err := idx.store.RemoveAndPersist(ctx, path)
		if err != nil {
			run.persistFailed(err)
		}
		if !existed {
			continue
		}
		metrics.IndexerFilesTotal.WithLabelValues("removed").Inc()
		run.removed++
		logging.Info("Removed from catalog (deleted): %s", path)
		idx.publish(Event{Path: path, Status: StatusRemoved})
	}
}

func buildEntry(c candidate, checksum string, content extract.Content, existing *catalog.Entry, now int64) catalog.Entry {
	slides := make([]catalog.SlidePreview, 0, len(content.Previews))
	for _, p := range content.Previews {
		slides = append(slides, catalog.SlidePreview{Index: p.Index, Text: p.Text})
	}
	createdAt := now
	if existing != nil && existing.CreatedAt != 0 {
		createdAt = existing.CreatedAt
	}
	return catalog.Entry{
		ID:           catalog.EntryID(c.Path),
		Path:         c.Path,
		Name:         filepath.Base(c.Path),
		Kind:         c.Kind,
		DocumentType: content.DocumentType,
		SlideCount:   content.UnitCount,
		Snippet:      content.Snippet,
		Keywords:     nonNilStrings(content.Keywords),
		Slides:       slides,
		ModifiedAt:   c.ModifiedAt,
		Checksum:     checksum,
		CreatedAt:    createdAt,
		UpdatedAt:    now,
	}
}

func withinAny(path string, dirs []string) bool {
	for _, d := range dirs {
		if catalog.PathWithin(path, d) {
			return true
		}
	}
	return false
}

func isDir(path string, retry filesystem.RetryConfig) bool {
	info, err := filesystem.StatWithRetry(path, retry)
	if err != nil {
		if !os.IsNotExist(err) {
			logging.Warn("Cannot stat directory %s: %v", path, err)
		}
		return false
	}
	return info.IsDir()
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func (idx *Indexer) wait(ctx context.Context) error {
	if idx.throttle == nil {
		return nil
	}
	return idx.throttle.Wait(ctx)
}

// partialScope returns dirs when they leave out some linked directory, and
// nil for a scan of everything.
func partialScope(dirs, linked []string) []string {
	for _, d := range linked {
		if !slices.Contains(dirs, d) {
			return dirs
		}
	}
	return nil
}
