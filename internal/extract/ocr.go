package extract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"

	"slides-indexer/internal/logging"
	"slides-indexer/internal/metrics"
)

// OCR defaults.
const (
	DefaultOCRMaxPages = 40
	DefaultOCRDPI      = 120
	DefaultOCRLanguage = "eng"

	// maxOCRWidth bounds rasterized pages before recognition.
	maxOCRWidth = 2480
	// ocrContrast is the imaging contrast adjustment in percent.
	ocrContrast = 20
)

var pageNumberPattern = regexp.MustCompile(`(\d+)\.png$`)

// Rasterizer renders PDF pages to PNG files in a directory and returns
// their paths in page order.
type Rasterizer interface {
	Name() string
	Available() bool
	Rasterize(ctx context.Context, pdfPath, outDir string, maxPages, dpi int) ([]string, error)
}

// PdftoppmRasterizer renders pages with poppler's pdftoppm.
type PdftoppmRasterizer struct {
	Path string
}

func (r *PdftoppmRasterizer) Name() string    { return "pdftoppm" }
func (r *PdftoppmRasterizer) Available() bool { return r != nil && r.Path != "" }

func (r *PdftoppmRasterizer) Rasterize(ctx context.Context, pdfPath, outDir string, maxPages, dpi int) ([]string, error) {
	prefix := filepath.Join(outDir, "page")
	cmd := exec.CommandContext(ctx, r.Path,
		"-png",
		"-r", strconv.Itoa(dpi),
		"-l", strconv.Itoa(maxPages),
		pdfPath,
		prefix,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: pdftoppm: %w - %s", ErrExtraction, err, strings.TrimSpace(stderr.String()))
	}
	return listPageImages(outDir)
}

// listPageImages returns the PNG files in dir ordered by trailing page number.
func listPageImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var images []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".png") {
			continue
		}
		images = append(images, filepath.Join(dir, e.Name()))
	}
	sort.Slice(images, func(i, j int) bool {
		a, b := pageNumber(images[i]), pageNumber(images[j])
		if a != b {
			return a < b
		}
		return images[i] < images[j]
	})
	return images, nil
}

func pageNumber(path string) int {
	m := pageNumberPattern.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

// OCRConfig tunes the OCR tier.
type OCRConfig struct {
	MaxPages int
	DPI      int
	Language string
}

func (c OCRConfig) withDefaults() OCRConfig {
	if c.MaxPages <= 0 {
		c.MaxPages = DefaultOCRMaxPages
	}
	if c.DPI <= 0 {
		c.DPI = DefaultOCRDPI
	}
	if c.Language == "" {
		c.Language = DefaultOCRLanguage
	}
	return c
}

// OCRTier rasterizes pages and runs tesseract on each one.
type OCRTier struct {
	Rasterizer Rasterizer
	Tesseract  string
	Config     OCRConfig
}

func (t *OCRTier) Name() string { return TierOCR }

func (t *OCRTier) Available() bool {
	return t != nil && t.Tesseract != "" && t.Rasterizer != nil && t.Rasterizer.Available()
}

// Extract returns one text per rasterized page, up to Config.MaxPages.
// Pages that fail recognition are kept as empty strings so numbering holds.
func (t *OCRTier) Extract(ctx context.Context, path string, _ []byte) (Pages, error) {
	cfg := t.Config.withDefaults()

	workDir, err := os.MkdirTemp("", "slides-ocr-*")
	if err != nil {
		return Pages{}, fmt.Errorf("%w: create ocr workspace: %w", ErrIO, err)
	}
	defer os.RemoveAll(workDir)

	images, err := t.Rasterizer.Rasterize(ctx, path, workDir, cfg.MaxPages, cfg.DPI)
	if err != nil {
		return Pages{}, err
	}
	if len(images) > cfg.MaxPages {
		images = images[:cfg.MaxPages]
	}
	logging.Debug("OCR: %d page images for %s via %s", len(images), filepath.Base(path), t.Rasterizer.Name())

	pages := Pages{Texts: make([]string, 0, len(images))}
	for _, img := range images {
		text, err := t.recognize(ctx, img, cfg.Language)
		switch {
		case err != nil:
			logging.Debug("OCR failed for %s: %v", img, err)
			metrics.OCRPagesTotal.WithLabelValues("error").Inc()
		case strings.TrimSpace(text) == "":
			metrics.OCRPagesTotal.WithLabelValues("empty").Inc()
		default:
			metrics.OCRPagesTotal.WithLabelValues("text").Inc()
		}
		pages.Texts = append(pages.Texts, text)
	}
	return pages, nil
}

func (t *OCRTier) recognize(ctx context.Context, imagePath, language string) (string, error) {
	prepared, err := preprocessPage(imagePath)
	if err != nil {
		// recognition still works on the raw render
		logging.Debug("OCR preprocessing skipped for %s: %v", imagePath, err)
		prepared = imagePath
	}

	cmd := exec.CommandContext(ctx, t.Tesseract, prepared, "stdout", "-l", language, "--psm", "6")
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return stdout.String(), nil
}

// preprocessPage writes a grayscale, contrast-boosted copy of the page,
// downscaled to maxOCRWidth, next to the original.
func preprocessPage(path string) (string, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return "", err
	}

	img = downscale(img, maxOCRWidth)
	prepared := imaging.AdjustContrast(imaging.Grayscale(img), ocrContrast)

	out := strings.TrimSuffix(path, filepath.Ext(path)) + "-prepared.png"
	if err := imaging.Save(prepared, out); err != nil {
		return "", err
	}
	return out, nil
}

// downscale shrinks img to maxWidth keeping the aspect ratio.
func downscale(img image.Image, maxWidth int) image.Image {
	b := img.Bounds()
	if b.Dx() <= maxWidth || b.Dx() == 0 {
		return img
	}
	height := max(1, b.Dy()*maxWidth/b.Dx())
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}
