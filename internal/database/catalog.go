package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"slides-indexer/internal/catalog"
	"slides-indexer/internal/doctypes"
)

var _ catalog.Persister = (*Database)(nil)

const entryColumns = `path, id, name, kind, document_type, slide_count, snippet,
	keywords, slides, modified_at, checksum, created_at, updated_at`

// LoadCatalog reads the complete catalog. Entries are ordered by path.
func (d *Database) LoadCatalog(ctx context.Context) (c catalog.Catalog, err error) {
	start := time.Now()
	defer func() { recordQuery("load_catalog", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	c.Directories, err = queryStrings(ctx, d.db, "SELECT path FROM directories ORDER BY position")
	if err != nil {
		return c, fmt.Errorf("load directories: %w", err)
	}
	c.Warnings, err = queryStrings(ctx, d.db, "SELECT message FROM warnings ORDER BY position")
	if err != nil {
		return c, fmt.Errorf("load warnings: %w", err)
	}
	c.LastIndexedAt, err = loadLastIndexedAt(ctx, d.db)
	if err != nil {
		return c, fmt.Errorf("load last indexed time: %w", err)
	}

	rows, err := d.db.QueryContext(ctx, "SELECT "+entryColumns+" FROM entries ORDER BY path")
	if err != nil {
		return c, fmt.Errorf("load entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		e, scanErr := scanEntry(rows)
		if scanErr != nil {
			return c, fmt.Errorf("load entries: %w", scanErr)
		}
		c.Items = append(c.Items, e)
	}
	if err = rows.Err(); err != nil {
		return c, fmt.Errorf("load entries: %w", err)
	}
	return c, nil
}

// SaveEntry inserts or replaces the entry at entry.Path.
func (d *Database) SaveEntry(ctx context.Context, entry catalog.Entry) error {
	return d.withTx(ctx, "save_entry", func(tx *sql.Tx) error {
		return insertEntry(ctx, tx, entry)
	})
}

// DeleteEntry removes the entry at path. Deleting a missing path is not an error.
func (d *Database) DeleteEntry(ctx context.Context, path string) error {
	return d.withTx(ctx, "delete_entry", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "DELETE FROM entries WHERE path = ?", path)
		return err
	})
}

// SaveMeta replaces directories, warnings and the last indexed time.
func (d *Database) SaveMeta(ctx context.Context, meta catalog.Meta) error {
	return d.withTx(ctx, "save_meta", func(tx *sql.Tx) error {
		return writeMeta(ctx, tx, meta)
	})
}

// SaveCatalog replaces everything stored with c.
func (d *Database) SaveCatalog(ctx context.Context, c catalog.Catalog) error {
	return d.withTx(ctx, "save_catalog", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM entries"); err != nil {
			return err
		}
		for _, e := range c.Items {
			if err := insertEntry(ctx, tx, e); err != nil {
				return err
			}
		}
		return writeMeta(ctx, tx, catalog.Meta{
			Directories:   c.Directories,
			LastIndexedAt: c.LastIndexedAt,
			Warnings:      c.Warnings,
		})
	})
}

func writeMeta(ctx context.Context, tx *sql.Tx, meta catalog.Meta) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM directories"); err != nil {
		return err
	}
	for i, dir := range meta.Directories {
		if _, err := tx.ExecContext(ctx, "INSERT INTO directories (path, position) VALUES (?, ?)", dir, i); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM warnings"); err != nil {
		return err
	}
	for i, msg := range meta.Warnings {
		if _, err := tx.ExecContext(ctx, "INSERT INTO warnings (position, message) VALUES (?, ?)", i, msg); err != nil {
			return err
		}
	}
	return storeLastIndexedAt(ctx, tx, meta.LastIndexedAt)
}

func insertEntry(ctx context.Context, tx *sql.Tx, e catalog.Entry) error {
	keywords, err := json.Marshal(nonNil(e.Keywords))
	if err != nil {
		return fmt.Errorf("encode keywords: %w", err)
	}
	slides := e.Slides
	if slides == nil {
		slides = []catalog.SlidePreview{}
	}
	slidesJSON, err := json.Marshal(slides)
	if err != nil {
		return fmt.Errorf("encode slides: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO entries (`+entryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			id = excluded.id,
			name = excluded.name,
			kind = excluded.kind,
			document_type = excluded.document_type,
			slide_count = excluded.slide_count,
			snippet = excluded.snippet,
			keywords = excluded.keywords,
			slides = excluded.slides,
			modified_at = excluded.modified_at,
			checksum = excluded.checksum,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at
	`,
		e.Path, e.ID, e.Name, string(e.Kind), nullString(string(e.DocumentType)),
		nullInt(e.SlideCount), e.Snippet, string(keywords), string(slidesJSON),
		e.ModifiedAt, nullString(e.Checksum), e.CreatedAt, e.UpdatedAt,
	)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (catalog.Entry, error) {
	var (
		e          catalog.Entry
		kind       string
		docType    sql.NullString
		slideCount sql.NullInt64
		keywords   string
		slides     string
		checksum   sql.NullString
	)
	err := row.Scan(&e.Path, &e.ID, &e.Name, &kind, &docType, &slideCount, &e.Snippet,
		&keywords, &slides, &e.ModifiedAt, &checksum, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return e, err
	}
	e.Kind = doctypes.Kind(kind)
	e.DocumentType = doctypes.DocumentType(docType.String)
	e.Checksum = checksum.String
	if slideCount.Valid {
		n := int(slideCount.Int64)
		e.SlideCount = &n
	}
	if err := json.Unmarshal([]byte(keywords), &e.Keywords); err != nil {
		return e, fmt.Errorf("decode keywords of %s: %w", e.Path, err)
	}
	if err := json.Unmarshal([]byte(slides), &e.Slides); err != nil {
		return e, fmt.Errorf("decode slides of %s: %w", e.Path, err)
	}
	e.Keywords = nonNil(e.Keywords)
	if e.Slides == nil {
		e.Slides = []catalog.SlidePreview{}
	}
	return e, nil
}

func queryStrings(ctx context.Context, db *sql.DB, query string) ([]string, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}
