package catalog

import (
	"crypto/sha1" //nolint:gosec // SHA-1 used for entry identifiers, not security
	"encoding/hex"
	"path/filepath"
	"slices"
	"strings"

	"slides-indexer/internal/doctypes"
)

// SlidePreview is the cleaned text of one slide or page. Index is 1-based.
type SlidePreview struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// Entry is one indexed document.
type Entry struct {
	ID           string                `json:"id"`
	Path         string                `json:"path"`
	Name         string                `json:"name"`
	Kind         doctypes.Kind         `json:"kind"`
	DocumentType doctypes.DocumentType `json:"documentType,omitempty"`
	SlideCount   *int                  `json:"slideCount,omitempty"`
	Snippet      string                `json:"snippet"`
	Keywords     []string              `json:"keywords"`
	Slides       []SlidePreview        `json:"slides"`
	// ModifiedAt is the file mtime in Unix milliseconds.
	ModifiedAt int64 `json:"modifiedAt"`
	// Checksum is the hex content digest; empty when it could not be computed.
	Checksum  string `json:"checksum,omitempty"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
}

// Catalog is the complete persisted index.
type Catalog struct {
	Directories   []string `json:"directories"`
	Items         []Entry  `json:"items"`
	LastIndexedAt *int64   `json:"lastIndexedAt,omitempty"`
	Warnings      []string `json:"warnings"`
}

// Meta is the part of the catalog that is not per-entry.
type Meta struct {
	Directories   []string
	LastIndexedAt *int64
	Warnings      []string
}

// EntryID derives the stable identifier of the entry at path.
func EntryID(path string) string {
	sum := sha1.Sum([]byte(path)) //nolint:gosec // SHA-1 used for entry identifiers, not security
	return hex.EncodeToString(sum[:])
}

// Clone returns a deep copy of e.
func (e Entry) Clone() Entry {
	c := e
	if e.SlideCount != nil {
		n := *e.SlideCount
		c.SlideCount = &n
	}
	c.Keywords = slices.Clone(e.Keywords)
	c.Slides = slices.Clone(e.Slides)
	return c
}

// normalize fills defaults so persisted and in-memory entries compare equal.
func (e Entry) normalize() Entry {
	if e.ID == "" {
		e.ID = EntryID(e.Path)
	}
	if e.Name == "" {
		e.Name = filepath.Base(e.Path)
	}
	if e.Keywords == nil {
		e.Keywords = []string{}
	}
	if e.Slides == nil {
		e.Slides = []SlidePreview{}
	}
	return e
}

// PathWithin reports whether path is dir itself or lies below it.
func PathWithin(path, dir string) bool {
	path = filepath.Clean(path)
	dir = filepath.Clean(dir)
	if path == dir {
		return true
	}
	if !strings.HasSuffix(dir, string(filepath.Separator)) {
		dir += string(filepath.Separator)
	}
	return strings.HasPrefix(path, dir)
}

// SanitizeDirectories trims entries, drops blanks, and removes duplicates
// while keeping first-seen order.
func SanitizeDirectories(dirs []string) []string {
	seen := make(map[string]struct{}, len(dirs))
	out := make([]string, 0, len(dirs))
	for _, d := range dirs {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	return out
}
