package catalog

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"slides-indexer/internal/logging"
	"slides-indexer/internal/metrics"
)

// ErrPersist is returned when a change was applied in memory but could not
// be written durably.
var ErrPersist = errors.New("persist failed")

// Persister writes catalog changes to durable storage. Each call must be
// atomic: after a crash the storage reflects either all of it or none.
type Persister interface {
	LoadCatalog(ctx context.Context) (Catalog, error)
	SaveEntry(ctx context.Context, entry Entry) error
	DeleteEntry(ctx context.Context, path string) error
	SaveMeta(ctx context.Context, meta Meta) error
	SaveCatalog(ctx context.Context, c Catalog) error
}

// Store owns the in-memory catalog. Every mutation updates memory and the
// persister under one write lock, so readers never see a half-applied step.
//
// A failed write leaves the store stale: memory is ahead of the durable
// copy. While stale, every mutation writes the whole catalog instead of a
// single row, so the first write that succeeds catches the durable copy up.
type Store struct {
	mu            sync.RWMutex
	directories   []string
	items         map[string]Entry // keyed by path
	lastIndexedAt *int64
	warnings      []string
	stale         bool

	persister Persister
	now       func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used for catalog timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open loads the catalog from p.
func Open(ctx context.Context, p Persister, opts ...Option) (*Store, error) {
	s := &Store{
		items:     make(map[string]Entry),
		persister: p,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	c, err := p.LoadCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	s.directories = SanitizeDirectories(c.Directories)
	for _, e := range c.Items {
		e = e.normalize()
		s.items[e.Path] = e
	}
	s.lastIndexedAt = c.LastIndexedAt
	s.warnings = slices.Clone(c.Warnings)

	logging.Info("Catalog loaded: %d entries, %d linked directories", len(s.items), len(s.directories))
	return s, nil
}

// NowMillis returns the store clock in Unix milliseconds.
func (s *Store) NowMillis() int64 {
	return s.now().UnixMilli()
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Lookup returns a copy of the entry stored for path.
func (s *Store) Lookup(path string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.items[path]
	if !ok {
		return Entry{}, false
	}
	return e.Clone(), true
}

// Find returns a copy of the entry with the given id.
func (s *Store) Find(id string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.items {
		if e.ID == id {
			return e.Clone(), true
		}
	}
	return Entry{}, false
}

// Entries returns copies of all entries ordered by path.
func (s *Store) Entries() []Entry {
	return s.Query(nil)
}

// EntriesWithin returns copies of the entries located under dir.
func (s *Store) EntriesWithin(dir string) []Entry {
	return s.Query(func(e Entry) bool { return PathWithin(e.Path, dir) })
}

// Query returns copies of the entries accepted by match, ordered by path.
// A nil match accepts everything.
func (s *Store) Query(match func(Entry) bool) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, len(s.items))
	for _, e := range s.items {
		if match == nil || match(e) {
			out = append(out, e.Clone())
		}
	}
	slices.SortFunc(out, func(a, b Entry) int { return cmp.Compare(a.Path, b.Path) })
	return out
}

// Directories returns the linked directories.
func (s *Store) Directories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.directories)
}

// LastIndexedAt returns the time of the last finished scan in Unix ms.
func (s *Store) LastIndexedAt() *int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastIndexedAt == nil {
		return nil
	}
	v := *s.lastIndexedAt
	return &v
}

// SetDirectories replaces the linked directory set. It does not touch entries.
func (s *Store) SetDirectories(ctx context.Context, dirs []string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.directories = SanitizeDirectories(dirs)
	err := s.persistLocked(ctx, "directories", func() error {
		return s.persister.SaveMeta(ctx, s.metaLocked())
	})
	return slices.Clone(s.directories), err
}

// UpsertAndPersist stores entry, replacing any entry with the same path,
// and writes it durably before returning.
func (s *Store) UpsertAndPersist(ctx context.Context, entry Entry) error {
	entry = entry.normalize().Clone()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[entry.Path] = entry
	return s.persistLocked(ctx, "upsert", func() error {
		return s.persister.SaveEntry(ctx, entry)
	})
}

// RemoveAndPersist deletes the entry for path. It reports whether an entry
// existed.
func (s *Store) RemoveAndPersist(ctx context.Context, path string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[path]; !ok {
		return false, nil
	}
	delete(s.items, path)
	return true, s.persistLocked(ctx, "remove", func() error {
		return s.persister.DeleteEntry(ctx, path)
	})
}

// Clear drops every entry and warning. Linked directories are kept.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UnixMilli()
	s.items = make(map[string]Entry)
	s.lastIndexedAt = &now
	s.warnings = nil

	return s.persistLocked(ctx, "clear", func() error {
		return s.persister.SaveCatalog(ctx, s.snapshotLocked())
	})
}

// Finalize records the end of a scan: lastIndexedAt becomes now and the
// warnings replace the previous ones. It returns the new lastIndexedAt.
//
// A scan limited to some linked directories passes them as scope. Earlier
// warnings that mention a linked directory outside scope are then kept.
func (s *Store) Finalize(ctx context.Context, warnings []string, scope ...string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UnixMilli()
	s.lastIndexedAt = &now
	s.warnings = s.mergeWarningsLocked(warnings, scope)

	return now, s.persistLocked(ctx, "finalize", func() error {
		return s.persister.SaveMeta(ctx, s.metaLocked())
	})
}

func (s *Store) mergeWarningsLocked(warnings, scope []string) []string {
	merged := slices.Clone(warnings)
	if len(scope) == 0 {
		return merged
	}
	for _, w := range s.warnings {
		if slices.Contains(merged, w) || mentionsAny(w, scope) {
			continue
		}
		for _, dir := range s.directories {
			if !slices.Contains(scope, dir) && mentionsDir(w, dir) {
				merged = append(merged, w)
				break
			}
		}
	}
	return merged
}

func mentionsAny(warning string, dirs []string) bool {
	return slices.ContainsFunc(dirs, func(dir string) bool { return mentionsDir(warning, dir) })
}

// mentionsDir reports whether warning names dir or a path below it.
func mentionsDir(warning, dir string) bool {
	return strings.HasSuffix(warning, dir) ||
		strings.Contains(warning, dir+string(filepath.Separator)) ||
		strings.Contains(warning, dir+":")
}

// Stale reports whether memory holds changes the persister has not stored.
func (s *Store) Stale() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stale
}

// Snapshot returns a deep copy of the catalog with items ordered by path.
func (s *Store) Snapshot() Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// CatalogStats implements metrics.StatsProvider.
func (s *Store) CatalogStats() metrics.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byKind := make(map[string]int)
	for _, e := range s.items {
		byKind[string(e.Kind)]++
	}
	return metrics.Stats{EntriesByKind: byKind, Directories: len(s.directories)}
}

func (s *Store) snapshotLocked() Catalog {
	items := make([]Entry, 0, len(s.items))
	for _, e := range s.items {
		items = append(items, e.Clone())
	}
	slices.SortFunc(items, func(a, b Entry) int { return cmp.Compare(a.Path, b.Path) })

	meta := s.metaLocked()
	return Catalog{
		Directories:   meta.Directories,
		Items:         items,
		LastIndexedAt: meta.LastIndexedAt,
		Warnings:      meta.Warnings,
	}
}

func (s *Store) metaLocked() Meta {
	meta := Meta{
		Directories: slices.Clone(s.directories),
		Warnings:    slices.Clone(s.warnings),
	}
	if meta.Directories == nil {
		meta.Directories = []string{}
	}
	if meta.Warnings == nil {
		meta.Warnings = []string{}
	}
	if s.lastIndexedAt != nil {
		v := *s.lastIndexedAt
		meta.LastIndexedAt = &v
	}
	return meta
}

// persistLocked runs write, or a full catalog write while stale. Callers
// hold s.mu.
func (s *Store) persistLocked(ctx context.Context, op string, write func() error) error {
	if s.stale {
		write = func() error { return s.persister.SaveCatalog(ctx, s.snapshotLocked()) }
	}
	if err := write(); err != nil {
		s.stale = true
		return s.persistError(op, err)
	}
	if s.stale {
		logging.Info("Catalog durable copy caught up after earlier persist failure")
		s.stale = false
	}
	return nil
}

func (s *Store) persistError(op string, err error) error {
	metrics.CatalogPersistErrors.WithLabelValues(op).Inc()
	logging.Error("Catalog %s not persisted: %v", op, err)
	return fmt.Errorf("%w: %s: %w", ErrPersist, op, err)
}
