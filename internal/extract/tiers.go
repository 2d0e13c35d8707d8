package extract

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Tier names.
const (
	TierNative    = "native"
	TierPdftotext = "pdftotext"
	TierOCR       = "ocr"
)

// Pages is what a PDF tier recovered. PageCount and Geometry are zero when
// the tier cannot tell.
type Pages struct {
	Texts     []string
	PageCount int
	Geometry  *Geometry
}

// Tier is one strategy for getting text out of a PDF. Tiers are tried in
// order until one yields meaningful text.
type Tier interface {
	Name() string
	Available() bool
	Extract(ctx context.Context, path string, raw []byte) (Pages, error)
}

// PdftotextTier runs poppler's pdftotext in layout mode.
type PdftotextTier struct {
	Path string
}

func (t *PdftotextTier) Name() string    { return TierPdftotext }
func (t *PdftotextTier) Available() bool { return t != nil && t.Path != "" }

// Extract splits pdftotext output into pages on form feeds.
func (t *PdftotextTier) Extract(ctx context.Context, path string, _ []byte) (Pages, error) {
	cmd := exec.CommandContext(ctx, t.Path, "-layout", "-enc", "UTF-8", path, "-")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return Pages{}, fmt.Errorf("%w: pdftotext: %w - %s", ErrExtraction, err, strings.TrimSpace(stderr.String()))
	}

	var pages Pages
	for _, page := range strings.Split(stdout.String(), "\f") {
		if page = strings.TrimSpace(page); page != "" {
			pages.Texts = append(pages.Texts, page)
		}
	}
	return pages, nil
}
