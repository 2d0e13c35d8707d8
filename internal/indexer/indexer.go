package indexer

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"slides-indexer/internal/catalog"
	"slides-indexer/internal/doctypes"
	"slides-indexer/internal/extract"
	"slides-indexer/internal/filesystem"
	"slides-indexer/internal/logging"
	"slides-indexer/internal/metrics"
	"slides-indexer/internal/search"
)

var (
	// ErrScanInProgress is returned when a scan is requested while one is running.
	ErrScanInProgress = errors.New("scan already in progress")
	// ErrDirectoryNotLinked is returned when a scan targets a directory
	// that is not in the linked set.
	ErrDirectoryNotLinked = errors.New("directory not linked")
)

// Extractor turns a document into searchable content.
type Extractor interface {
	Extract(ctx context.Context, path string, kind doctypes.Kind, hooks extract.Hooks) (extract.Content, error)
}

// Indexer keeps the catalog in step with the linked directories.
type Indexer struct {
	store     *catalog.Store
	extractor Extractor
	detector  *ChangeDetector
	walker    *Walker
	retry     filesystem.RetryConfig
	progress  *Broadcaster
	throttle  Throttle

	toolsMu sync.RWMutex
	tools   *extract.Toolset

	indexInterval time.Duration
	stopChan      chan struct{}
	stopOnce      sync.Once
	startTime     time.Time

	scanMu               sync.Mutex
	scanning             bool
	cancelScan           context.CancelFunc
	current              *ScanProgress
	lastSummary          *Summary
	initialScanComplete  bool
	initialScanError     error
	onScanComplete       func(Summary)
	onDirectoriesChanged func([]string)
}

// ScanProgress describes the running scan.
type ScanProgress struct {
	ScanID    string    `json:"scanId"`
	StartedAt time.Time `json:"startedAt"`
}

// New creates an Indexer over store. tools may be nil when no external
// PDF tools are known.
func New(store *catalog.Store, extractor Extractor, sums Checksummer, tools *extract.Toolset) *Indexer {
	retry := filesystem.DefaultRetryConfig()
	return &Indexer{
		store:     store,
		extractor: extractor,
		detector:  NewChangeDetector(sums),
		walker:    NewWalker(DefaultWalkerConfig(), retry),
		retry:     retry,
		progress:  NewBroadcaster(0),
		tools:     tools,
		stopChan:  make(chan struct{}),
		startTime: time.Now(),
	}
}

// SetIndexInterval enables periodic rescans after Start. Zero disables them.
func (idx *Indexer) SetIndexInterval(interval time.Duration) {
	idx.indexInterval = interval
}

// SetWalkerConfig replaces the directory walker configuration.
func (idx *Indexer) SetWalkerConfig(config WalkerConfig) {
	idx.walker = NewWalker(config, idx.retry)
}

// skipsHidden reports whether dot-files and dot-directories are ignored.
func (idx *Indexer) skipsHidden() bool {
	return idx.walker.config.SkipHidden
}

// SetTools replaces the resolved external tool set.
func (idx *Indexer) SetTools(tools *extract.Toolset) {
	idx.toolsMu.Lock()
	defer idx.toolsMu.Unlock()
	idx.tools = tools
}

// Throttle holds the scan between files, for example under memory pressure.
type Throttle interface {
	Wait(ctx context.Context) error
}

// SetThrottle installs a throttle consulted before each file. Call it
// before Start.
func (idx *Indexer) SetThrottle(t Throttle) {
	idx.throttle = t
}

// SetOnScanComplete sets a callback invoked after every finished scan.
func (idx *Indexer) SetOnScanComplete(callback func(Summary)) {
	idx.scanMu.Lock()
	defer idx.scanMu.Unlock()
	idx.onScanComplete = callback
}

// SetOnDirectoriesChanged sets a callback invoked with the new linked set
// whenever SubmitDirectories succeeds in memory.
func (idx *Indexer) SetOnDirectoriesChanged(callback func([]string)) {
	idx.scanMu.Lock()
	defer idx.scanMu.Unlock()
	idx.onDirectoriesChanged = callback
}

// Start runs the initial scan in the background and, when an interval is
// set, schedules periodic rescans.
func (idx *Indexer) Start() {
	go func() {
		logging.Info("Starting initial scan in background...")
		_, err := idx.RunScan(context.Background(), "")
		idx.scanMu.Lock()
		idx.initialScanComplete = true
		idx.initialScanError = err
		idx.scanMu.Unlock()
		if err != nil {
			logging.Error("Initial scan error: %v", err)
		}
	}()

	if idx.indexInterval > 0 {
		go idx.periodicScan()
	}
}

// Stop ends background scheduling and stops a running scan.
func (idx *Indexer) Stop() {
	idx.stopOnce.Do(func() { close(idx.stopChan) })
	idx.StopScan()
}

func (idx *Indexer) periodicScan() {
	logging.Info("Periodic rescans every %v", idx.indexInterval)
	ticker := time.NewTicker(idx.indexInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			logging.Debug("Periodic rescan triggered")
			if _, err := idx.RunScan(context.Background(), ""); err != nil {
				if errors.Is(err, ErrScanInProgress) {
					logging.Info("Scan already in progress, skipping periodic rescan")
					continue
				}
				logging.Error("Periodic rescan failed: %v", err)
			}
		case <-idx.stopChan:
			return
		}
	}
}

// Scan runs one scan over dirs and returns its summary. Only one scan runs
// at a time. Canceling ctx or calling StopScan stops it between files.
func (idx *Indexer) Scan(ctx context.Context, dirs []string) (Summary, error) {
	scanCtx, ok := idx.tryStartScan(ctx)
	if !ok {
		return Summary{}, ErrScanInProgress
	}
	defer idx.publish(Event{})

	summary := idx.scan(scanCtx, catalog.SanitizeDirectories(dirs))
	idx.finishScan(summary)
	return summary, nil
}

// SubmitDirectories replaces the linked directory set without scanning.
func (idx *Indexer) SubmitDirectories(ctx context.Context, paths []string) (Summary, error) {
	dirs, err := idx.store.SetDirectories(ctx, paths)
	warnings := idx.withToolWarning(nil)
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("Persist failed: %v", err))
	}
	logging.Info("Linked directories updated: %s", strings.Join(dirs, ", "))
	metrics.CatalogDirectories.Set(float64(len(dirs)))

	idx.scanMu.Lock()
	callback := idx.onDirectoriesChanged
	idx.scanMu.Unlock()
	if callback != nil {
		callback(dirs)
	}

	return Summary{
		State:         StateIdle,
		Indexed:       idx.store.Len(),
		Warnings:      nonNilStrings(warnings),
		LastIndexedAt: idx.store.LastIndexedAt(),
	}, nil
}

// RunScan scans every linked directory, or only filter when it is set.
// filter must be one of the linked directories. With no linked
// directories the catalog is emptied.
func (idx *Indexer) RunScan(ctx context.Context, filter string) (Summary, error) {
	filter = strings.TrimSpace(filter)
	linked := idx.store.Directories()

	if filter != "" {
		if !slices.Contains(linked, filter) {
			return Summary{}, fmt.Errorf("%w: %s", ErrDirectoryNotLinked, filter)
		}
		return idx.Scan(ctx, []string{filter})
	}
	if len(linked) == 0 {
		return idx.resetEmpty(ctx)
	}
	return idx.Scan(ctx, linked)
}

// resetEmpty handles a scan with nothing linked: entries go away and only
// the tool warning remains.
func (idx *Indexer) resetEmpty(ctx context.Context) (Summary, error) {
	scanCtx, ok := idx.tryStartScan(ctx)
	if !ok {
		return Summary{}, ErrScanInProgress
	}
	defer idx.publish(Event{})

	workCtx := context.WithoutCancel(scanCtx)
	warnings := idx.withToolWarning(nil)
	state := StateCompleted
	if err := idx.store.Clear(workCtx); err != nil {
		warnings = append(warnings, fmt.Sprintf("Persist failed: %v", err))
		state = StateFailed
	}
	lastIndexedAt, err := idx.store.Finalize(workCtx, warnings)
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("Persist failed: %v", err))
		state = StateFailed
	}
	logging.Info("No linked directories, catalog emptied")

	summary := Summary{
		State:         state,
		Indexed:       idx.store.Len(),
		Warnings:      nonNilStrings(warnings),
		LastIndexedAt: &lastIndexedAt,
	}
	idx.finishScan(summary)
	return summary, nil
}

// StopScan asks the running scan to stop after the current file. It
// reports whether a scan was running.
func (idx *Indexer) StopScan() bool {
	idx.scanMu.Lock()
	defer idx.scanMu.Unlock()
	if !idx.scanning || idx.cancelScan == nil {
		return false
	}
	logging.Info("Stop requested for running scan")
	idx.cancelScan()
	return true
}

// ClearCatalog drops every entry so the next scan re-extracts everything.
// It holds the scan slot while clearing, so no scan can start meanwhile.
func (idx *Indexer) ClearCatalog(ctx context.Context) error {
	if _, ok := idx.tryStartScan(ctx); !ok {
		return ErrScanInProgress
	}
	defer idx.releaseScan()

	if err := idx.store.Clear(ctx); err != nil {
		return err
	}
	logging.Info("Catalog cleared")
	return nil
}

// SearchResponse is the result of Query.
type SearchResponse struct {
	Items         []catalog.Entry `json:"items"`
	Total         int             `json:"total"`
	LastIndexedAt *int64          `json:"lastIndexedAt,omitempty"`
}

// Query returns the entries matching q, most recently modified first.
func (idx *Indexer) Query(q string) SearchResponse {
	pattern := search.Parse(q)
	items := idx.store.Query(pattern.Match)
	slices.SortStableFunc(items, func(a, b catalog.Entry) int {
		return cmp.Compare(b.ModifiedAt, a.ModifiedAt)
	})
	return SearchResponse{
		Items:         items,
		Total:         len(items),
		LastIndexedAt: idx.store.LastIndexedAt(),
	}
}

// State returns the catalog with the current tool warning merged in.
func (idx *Indexer) State() catalog.Catalog {
	c := idx.store.Snapshot()
	c.Warnings = idx.withToolWarning(c.Warnings)
	if c.Items == nil {
		c.Items = []catalog.Entry{}
	}
	return c
}

// Find returns the entry with the given id.
func (idx *Indexer) Find(id string) (catalog.Entry, bool) {
	return idx.store.Find(id)
}

// Subscribe streams progress events. Call cancel when done.
func (idx *Indexer) Subscribe() (<-chan Event, func()) {
	return idx.progress.Subscribe()
}

// IsScanning reports whether a scan is running.
func (idx *Indexer) IsScanning() bool {
	idx.scanMu.Lock()
	defer idx.scanMu.Unlock()
	return idx.scanning
}

// LastSummary returns the summary of the last finished scan, if any.
func (idx *Indexer) LastSummary() (Summary, bool) {
	idx.scanMu.Lock()
	defer idx.scanMu.Unlock()
	if idx.lastSummary == nil {
		return Summary{}, false
	}
	return *idx.lastSummary, true
}

// HealthStatus contains health check information.
type HealthStatus struct {
	Ready            bool          `json:"ready"`
	Scanning         bool          `json:"scanning"`
	StartTime        time.Time     `json:"startTime"`
	Uptime           string        `json:"uptime"`
	LastIndexedAt    *int64        `json:"lastIndexedAt,omitempty"`
	InitialScanError string        `json:"initialScanError,omitempty"`
	Entries          int           `json:"entries"`
	Directories      int           `json:"directories"`
	MissingTools     []string      `json:"missingTools,omitempty"`
	CurrentScan      *ScanProgress `json:"currentScan,omitempty"`
	LastScan         *Summary      `json:"lastScan,omitempty"`
}

// GetHealthStatus returns detailed health information. The service is
// ready once the initial scan finished or a persisted catalog was loaded.
func (idx *Indexer) GetHealthStatus() HealthStatus {
	entries := idx.store.Len()

	idx.scanMu.Lock()
	status := HealthStatus{
		Ready:       idx.initialScanComplete || entries > 0,
		Scanning:    idx.scanning,
		StartTime:   idx.startTime,
		Uptime:      time.Since(idx.startTime).String(),
		Entries:     entries,
		Directories: len(idx.store.Directories()),
	}
	if idx.scanning && idx.current != nil {
		cur := *idx.current
		status.CurrentScan = &cur
	}
	if idx.lastSummary != nil {
		last := *idx.lastSummary
		status.LastScan = &last
	}
	if idx.initialScanError != nil {
		status.InitialScanError = idx.initialScanError.Error()
	}
	idx.scanMu.Unlock()

	status.LastIndexedAt = idx.store.LastIndexedAt()
	idx.toolsMu.RLock()
	status.MissingTools = idx.tools.Missing()
	idx.toolsMu.RUnlock()
	return status
}

func (idx *Indexer) tryStartScan(ctx context.Context) (context.Context, bool) {
	idx.scanMu.Lock()
	defer idx.scanMu.Unlock()
	if idx.scanning {
		return nil, false
	}
	scanCtx, cancel := context.WithCancel(ctx)
	idx.scanning = true
	idx.cancelScan = cancel
	idx.current = nil
	metrics.IndexerIsRunning.Set(1)
	return scanCtx, true
}

func (idx *Indexer) setCurrent(id string, started time.Time) {
	idx.scanMu.Lock()
	defer idx.scanMu.Unlock()
	idx.current = &ScanProgress{ScanID: id, StartedAt: started}
}

func (idx *Indexer) finishScan(summary Summary) {
	idx.scanMu.Lock()
	idx.releaseLocked()
	idx.lastSummary = &summary
	callback := idx.onScanComplete
	idx.scanMu.Unlock()

	if callback != nil {
		callback(summary)
	}
}

// releaseScan frees the scan slot without recording a summary.
func (idx *Indexer) releaseScan() {
	idx.scanMu.Lock()
	defer idx.scanMu.Unlock()
	idx.releaseLocked()
}

func (idx *Indexer) releaseLocked() {
	if idx.cancelScan != nil {
		idx.cancelScan()
	}
	idx.scanning = false
	idx.cancelScan = nil
	idx.current = nil
	metrics.IndexerIsRunning.Set(0)
}

func (idx *Indexer) publish(e Event) {
	idx.progress.Publish(e)
}

// withToolWarning appends the missing-tool message unless already present.
func (idx *Indexer) withToolWarning(warnings []string) []string {
	out := slices.Clone(warnings)
	idx.toolsMu.RLock()
	msg := idx.tools.Warning()
	idx.toolsMu.RUnlock()
	if msg != "" && !slices.Contains(out, msg) {
		out = append(out, msg)
	}
	return nonNilStrings(out)
}
