package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"slides-indexer/internal/doctypes"
	"slides-indexer/internal/filesystem"
	"slides-indexer/internal/logging"
	"slides-indexer/internal/metrics"
)

// Content is the searchable text recovered from one document.
type Content struct {
	Snippet      string
	Keywords     []string
	Previews     []Preview
	UnitCount    *int
	DocumentType doctypes.DocumentType
	// Tier names the PDF tier that produced the text, if any.
	Tier     string
	Warnings []string
}

// Hooks lets callers observe slow extraction phases.
type Hooks struct {
	// OnOCR is called before the OCR tier starts on a PDF.
	OnOCR func()
}

// Config selects the PDF tiers built by NewDefault.
type Config struct {
	OCREnabled bool
	OCR        OCRConfig
	// UseVips rasterizes with libvips instead of pdftoppm when libvips is running.
	UseVips bool
}

// Extractor turns slide decks and PDFs into Content.
type Extractor struct {
	tiers []Tier
	retry filesystem.RetryConfig
}

// New returns an extractor that tries the given PDF tiers in order.
func New(tiers ...Tier) *Extractor {
	return &Extractor{tiers: tiers, retry: filesystem.DefaultRetryConfig()}
}

// NewDefault builds the native, pdftotext, and OCR tiers from the resolved tools.
func NewDefault(cfg Config, tools *Toolset) *Extractor {
	if tools == nil {
		tools = &Toolset{}
	}
	tiers := []Tier{NativeTier{}, &PdftotextTier{Path: tools.Pdftotext}}
	if cfg.OCREnabled {
		var rasterizer Rasterizer = &PdftoppmRasterizer{Path: tools.Pdftoppm}
		if cfg.UseVips && IsVipsAvailable() {
			rasterizer = VipsRasterizer{}
		}
		tiers = append(tiers, &OCRTier{
			Rasterizer: rasterizer,
			Tesseract:  tools.Tesseract,
			Config:     cfg.OCR.withDefaults(),
		})
	}
	return New(tiers...)
}

// Tiers returns the configured PDF tiers in order.
func (e *Extractor) Tiers() []Tier {
	return e.tiers
}

// Extract reads the document at path.
func (e *Extractor) Extract(ctx context.Context, path string, kind doctypes.Kind, hooks Hooks) (Content, error) {
	start := time.Now()

	var content Content
	var err error
	switch kind {
	case doctypes.KindPPTX:
		content, err = extractPPTX(path)
	case doctypes.KindPPT:
		content, err = extractPPT(path, e.retry)
	case doctypes.KindPDF:
		content, err = e.extractPDF(ctx, path, hooks)
	default:
		return Content{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, kind)
	}

	metrics.ExtractionDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.ExtractionTotal.WithLabelValues(string(kind), status).Inc()

	return content, err
}

func (e *Extractor) extractPDF(ctx context.Context, path string, hooks Hooks) (Content, error) {
	raw, err := filesystem.ReadFileWithRetry(path, e.retry)
	if err != nil {
		return Content{}, fmt.Errorf("%w: read %s: %w", ErrIO, path, err)
	}

	var (
		pageCount int
		geometry  *Geometry
		previews  []Preview
		combined  string
		winner    string
		returned  int
		warnings  []string
	)

	for _, tier := range e.tiers {
		name := tier.Name()
		if !tier.Available() {
			metrics.ExtractionTierAttempts.WithLabelValues(name, "unavailable").Inc()
			continue
		}
		if name == TierOCR && hooks.OnOCR != nil {
			hooks.OnOCR()
		}

		pages, err := tier.Extract(ctx, path, raw)
		if pageCount == 0 && pages.PageCount > 0 {
			pageCount = pages.PageCount
		}
		if geometry == nil && pages.Geometry != nil {
			geometry = pages.Geometry
		}
		if err != nil {
			metrics.ExtractionTierAttempts.WithLabelValues(name, "error").Inc()
			logging.Debug("PDF tier %s failed for %s: %v", name, filepath.Base(path), err)
			warnings = append(warnings, fmt.Sprintf("%s: %v", name, err))
			continue
		}

		p, c := BuildPreviews(pages.Texts)
		if len(p) == 0 || !HasMeaningfulText(c) {
			metrics.ExtractionTierAttempts.WithLabelValues(name, "empty").Inc()
			logging.Debug("PDF tier %s found no meaningful text in %s", name, filepath.Base(path))
			continue
		}

		metrics.ExtractionTierAttempts.WithLabelValues(name, "meaningful").Inc()
		previews, combined, winner, returned = p, c, name, len(pages.Texts)
		break
	}

	content := Content{
		DocumentType: doctypes.DocumentTypeBook,
		Tier:         winner,
		Warnings:     warnings,
	}
	if geometry != nil && geometry.Landscape() {
		content.DocumentType = doctypes.DocumentTypePresentation
	}

	switch {
	case pageCount > 0:
		content.UnitCount = &pageCount
	case returned > 0:
		content.UnitCount = &returned
	}

	if winner == "" {
		logging.Debug("No text recovered from %s", filepath.Base(path))
		return content, nil
	}

	content.Previews = previews
	content.Snippet = TruncateSnippet(combined)
	content.Keywords = DeriveKeywords(combined, previews)
	return content, nil
}
