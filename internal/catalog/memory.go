package catalog

import (
	"cmp"
	"context"
	"slices"
	"sync"
)

// MemoryPersister keeps the catalog in memory. It backs one-shot runs that
// must not touch the database and is used as a test double.
type MemoryPersister struct {
	mu      sync.Mutex
	catalog Catalog
	// FailWith, when set, makes every write return it without applying.
	FailWith error
	// Writes counts successful write calls.
	Writes int
}

// NewMemoryPersister returns a persister seeded with c.
func NewMemoryPersister(c Catalog) *MemoryPersister {
	return &MemoryPersister{catalog: cloneCatalog(c)}
}

func (m *MemoryPersister) LoadCatalog(context.Context) (Catalog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneCatalog(m.catalog), nil
}

func (m *MemoryPersister) SaveEntry(_ context.Context, entry Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	m.Writes++
	for i, e := range m.catalog.Items {
		if e.Path == entry.Path {
			m.catalog.Items[i] = entry.Clone()
			return nil
		}
	}
	m.catalog.Items = append(m.catalog.Items, entry.Clone())
	slices.SortFunc(m.catalog.Items, func(a, b Entry) int { return cmp.Compare(a.Path, b.Path) })
	return nil
}

func (m *MemoryPersister) DeleteEntry(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	m.Writes++
	m.catalog.Items = slices.DeleteFunc(m.catalog.Items, func(e Entry) bool { return e.Path == path })
	return nil
}

func (m *MemoryPersister) SaveMeta(_ context.Context, meta Meta) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	m.Writes++
	m.catalog.Directories = slices.Clone(meta.Directories)
	m.catalog.Warnings = slices.Clone(meta.Warnings)
	m.catalog.LastIndexedAt = meta.LastIndexedAt
	return nil
}

func (m *MemoryPersister) SaveCatalog(_ context.Context, c Catalog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	m.Writes++
	m.catalog = cloneCatalog(c)
	return nil
}

// Stored returns a copy of what has been persisted so far.
func (m *MemoryPersister) Stored() Catalog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneCatalog(m.catalog)
}

func cloneCatalog(c Catalog) Catalog {
	out := Catalog{
		Directories: slices.Clone(c.Directories),
		Warnings:    slices.Clone(c.Warnings),
	}
	if c.LastIndexedAt != nil {
		v := *c.LastIndexedAt
		out.LastIndexedAt = &v
	}
	for _, e := range c.Items {
		out.Items = append(out.Items, e.Clone())
	}
	return out
}
