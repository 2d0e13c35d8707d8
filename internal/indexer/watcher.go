package indexer

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"slides-indexer/internal/catalog"
	"slides-indexer/internal/doctypes"
	"slides-indexer/internal/logging"
	"slides-indexer/internal/metrics"
)

// DefaultWatchDebounce is how long a directory must stay quiet before the
// watcher rescans it.
const DefaultWatchDebounce = 2 * time.Second

// Watcher rescans a linked directory after files below it change.
type Watcher struct {
	idx      *Indexer
	watcher  *fsnotify.Watcher
	debounce time.Duration
	tick     time.Duration

	mu      sync.Mutex
	roots   []string
	pending map[string]time.Time // linked dir -> last change

	ctx    context.Context
	cancel context.CancelFunc
	done   sync.WaitGroup
}

// NewWatcher creates a watcher for idx. Call Sync with the linked
// directories, then Start.
func NewWatcher(idx *Indexer, debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	tick := debounce / 4
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		idx:      idx,
		watcher:  fw,
		debounce: debounce,
		tick:     tick,
		pending:  make(map[string]time.Time),
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Start begins processing events.
func (w *Watcher) Start() {
	w.done.Add(2)
	go w.processEvents()
	go w.processPending()
}

// Close stops the watcher and releases its resources.
func (w *Watcher) Close() error {
	w.cancel()
	err := w.watcher.Close()
	w.done.Wait()
	return err
}

// Sync replaces the watched trees with dirs.
func (w *Watcher) Sync(dirs []string) {
	for _, path := range w.watcher.WatchList() {
		_ = w.watcher.Remove(path)
	}

	w.mu.Lock()
	w.roots = catalog.SanitizeDirectories(dirs)
	roots := w.roots
	w.mu.Unlock()

	for _, root := range roots {
		if err := w.addRecursive(root); err != nil {
			logging.Warn("Cannot watch %s: %v", root, err)
		}
	}
	metrics.IndexerWatchedDirectories.Set(float64(len(w.watcher.WatchList())))
	logging.Info("Watching %d linked directories (%d watches)", len(roots), len(w.watcher.WatchList()))
}

func (w *Watcher) addRecursive(root string) error {
	if _, err := os.Stat(root); err != nil {
		return err
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.idx.skipsHidden() && doctypes.IsHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			logging.Debug("Cannot watch %s: %v", path, err)
		}
		return nil
	})
}

func (w *Watcher) processEvents() {
	defer w.done.Done()
	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			metrics.IndexerWatcherErrors.Inc()
			logging.Warn("Watcher error: %v", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	name := filepath.Base(event.Name)
	if doctypes.IsTemporary(name) || (w.idx.skipsHidden() && doctypes.IsHidden(name)) {
		return
	}

	isNewDir := false
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			isNewDir = true
			if err := w.addRecursive(event.Name); err != nil {
				logging.Debug("Cannot watch new directory %s: %v", event.Name, err)
			}
		}
	}

	_, supported := doctypes.KindForPath(name)
	removed := event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
	if !supported && !isNewDir && !removed {
		return
	}

	metrics.IndexerWatcherEventsTotal.WithLabelValues(eventType(event)).Inc()

	root := w.rootFor(event.Name)
	if root == "" {
		return
	}
	logging.Debug("Change under %s: %s", root, event)

	w.mu.Lock()
	w.pending[root] = time.Now()
	w.mu.Unlock()
}

// rootFor returns the most specific linked directory containing path.
func (w *Watcher) rootFor(path string) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	best := ""
	for _, root := range w.roots {
		if catalog.PathWithin(path, root) && len(root) > len(best) {
			best = root
		}
	}
	return best
}

func (w *Watcher) processPending() {
	defer w.done.Done()
	ticker := time.NewTicker(w.tick)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			for _, root := range w.due(time.Now()) {
				w.rescan(root)
			}
		}
	}
}

// due removes and returns the roots that have been quiet long enough.
func (w *Watcher) due(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	var ready []string
	for root, changed := range w.pending {
		if now.Sub(changed) >= w.debounce {
			ready = append(ready, root)
			delete(w.pending, root)
		}
	}
	return ready
}

func (w *Watcher) rescan(root string) {
	logging.Info("Changes detected under %s, rescanning", root)
	_, err := w.idx.RunScan(w.ctx, root)
	switch {
	case err == nil:
	case errors.Is(err, ErrScanInProgress):
		// try again after the running scan
		w.mu.Lock()
		w.pending[root] = time.Now()
		w.mu.Unlock()
	case errors.Is(err, ErrDirectoryNotLinked):
		logging.Debug("Skipping rescan of %s: %v", root, err)
	default:
		logging.Error("Rescan of %s failed: %v", root, err)
	}
}

func eventType(event fsnotify.Event) string {
	switch {
	case event.Has(fsnotify.Create):
		return "create"
	case event.Has(fsnotify.Write):
		return "write"
	case event.Has(fsnotify.Remove):
		return "remove"
	case event.Has(fsnotify.Rename):
		return "rename"
	default:
		return "other"
	}
}
