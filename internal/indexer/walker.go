package indexer

import (
	"cmp"
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"slides-indexer/internal/doctypes"
	"slides-indexer/internal/filesystem"
	"slides-indexer/internal/logging"
	"slides-indexer/internal/workers"
)

// WalkerConfig configures the directory walker.
type WalkerConfig struct {
	// NumWorkers is the number of goroutines stat'ing candidate files.
	NumWorkers int
	// ChannelBuffer is the size of the work channel buffer.
	ChannelBuffer int
	// SkipHidden skips files and directories starting with ".". Off by
	// default: every supported file below a linked directory is indexed.
	SkipHidden bool
}

// DefaultWalkerConfig returns defaults that are safe on network shares.
// INDEX_WORKERS overrides the worker count.
func DefaultWalkerConfig() WalkerConfig {
	return WalkerConfig{
		NumWorkers:    workers.StatWorkers(),
		ChannelBuffer: 256,
	}
}

// candidate is a supported document found under a linked directory.
type candidate struct {
	Path       string
	Kind       doctypes.Kind
	ModifiedAt int64 // ms
	// Err is set when the file was found but could not be stat'ed.
	Err error
}

// Walker enumerates candidate documents below a directory. Directory
// traversal is sequential; the per-file stat runs on a small worker pool,
// since that is where network filesystems stall.
type Walker struct {
	config WalkerConfig
	retry  filesystem.RetryConfig

	found   atomic.Int64
	skipped atomic.Int64
}

// NewWalker creates a walker.
func NewWalker(config WalkerConfig, retry filesystem.RetryConfig) *Walker {
	if config.NumWorkers <= 0 {
		config.NumWorkers = 1
	}
	return &Walker{config: config, retry: retry}
}

// Walk returns the candidates below root ordered by path. When ctx is
// canceled mid-walk the partial list is returned with ctx.Err().
func (w *Walker) Walk(ctx context.Context, root string) ([]candidate, error) {
	start := time.Now()
	jobs := make(chan candidate, w.config.ChannelBuffer)
	results := make(chan candidate, w.config.ChannelBuffer)

	var wg sync.WaitGroup
	for i := 0; i < w.config.NumWorkers; i++ {
		wg.Add(1)
		go w.worker(ctx, jobs, results, &wg)
	}

	var all []candidate
	collected := make(chan struct{})
	go func() {
		defer close(collected)
		for c := range results {
			all = append(all, c)
		}
	}()

	walkErr := w.enqueue(ctx, root, jobs)
	close(jobs)
	wg.Wait()
	close(results)
	<-collected

	slices.SortFunc(all, func(a, b candidate) int { return cmp.Compare(a.Path, b.Path) })

	logging.Debug("Walked %s: %d candidates, %d skipped in %v", root, len(all), w.skipped.Load(), time.Since(start))

	if err := ctx.Err(); err != nil {
		return all, err
	}
	if walkErr != nil && !errors.Is(walkErr, fs.SkipAll) {
		return all, walkErr
	}
	return all, nil
}

func (w *Walker) enqueue(ctx context.Context, root string, jobs chan<- candidate) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return fs.SkipAll
		}
		if err != nil {
			logging.Warn("Error accessing path %s: %v", path, err)
			return nil
		}
		if path == root {
			return nil
		}

		name := d.Name()
		if w.config.SkipHidden && doctypes.IsHidden(name) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if doctypes.IsTemporary(name) {
			w.skipped.Add(1)
			return nil
		}
		kind, ok := doctypes.KindForPath(name)
		if !ok {
			return nil
		}

		select {
		case jobs <- candidate{Path: path, Kind: kind}:
		case <-ctx.Done():
			return fs.SkipAll
		}
		return nil
	})
}

func (w *Walker) worker(ctx context.Context, jobs <-chan candidate, results chan<- candidate, wg *sync.WaitGroup) {
	defer wg.Done()
	for c := range jobs {
		if ctx.Err() == nil {
			info, err := filesystem.StatWithRetry(c.Path, w.retry)
			if err != nil {
				c.Err = err
			} else {
				c.ModifiedAt = info.ModTime().UnixMilli()
			}
		} else {
			c.Err = ctx.Err()
		}
		w.found.Add(1)
		results <- c
	}
}

// Stats returns the totals across every Walk call.
func (w *Walker) Stats() (found, skipped int64) {
	return w.found.Load(), w.skipped.Load()
}
