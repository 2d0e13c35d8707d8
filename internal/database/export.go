package database

import (
	"context"
	"encoding/json"
	"fmt"

	"slides-indexer/internal/catalog"
)

// ExportJSON renders the stored catalog as indented JSON. Entries are
// ordered by path, so two exports of the same catalog are byte-identical.
func (d *Database) ExportJSON(ctx context.Context) ([]byte, error) {
	c, err := d.LoadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	return MarshalCatalog(c)
}

// MarshalCatalog renders c in the export format.
func MarshalCatalog(c catalog.Catalog) ([]byte, error) {
	if c.Directories == nil {
		c.Directories = []string{}
	}
	if c.Items == nil {
		c.Items = []catalog.Entry{}
	}
	if c.Warnings == nil {
		c.Warnings = []string{}
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode catalog: %w", err)
	}
	return append(data, '\n'), nil
}
