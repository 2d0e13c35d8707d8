package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/davidbyttow/govips/v2/vips"

	"slides-indexer/internal/logging"
)

var (
	vipsInitialized bool
	vipsInitMutex   sync.Mutex
)

// InitVips starts libvips with logging routed through the application's
// log level. Call once at startup when VIPS_ENABLED is set.
func InitVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		return
	}

	level := vips.LogLevelWarning
	switch logging.GetLevel() {
	case logging.LevelDebug:
		level = vips.LogLevelInfo
	case logging.LevelWarn:
		level = vips.LogLevelError
	case logging.LevelError:
		level = vips.LogLevelCritical
	}
	vips.LoggingSettings(func(domain string, l vips.LogLevel, msg string) {
		switch l {
		case vips.LogLevelError, vips.LogLevelCritical:
			logging.Error("[%s] %s", domain, msg)
		case vips.LogLevelWarning:
			logging.Warn("[%s] %s", domain, msg)
		default:
			logging.Debug("[%s] %s", domain, msg)
		}
	}, level)

	// Rasterizing is sequential, one page at a time.
	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
	})

	vipsInitialized = true
	logging.Info("libvips initialized successfully (version: %s)", vips.Version)
}

// ShutdownVips releases libvips. It cannot be restarted afterwards.
func ShutdownVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		vips.Shutdown()
		vipsInitialized = false
		logging.Info("libvips shutdown complete")
	}
}

// IsVipsAvailable reports whether libvips has been started.
func IsVipsAvailable() bool {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()
	return vipsInitialized
}

// VipsRasterizer renders PDF pages in-process through libvips' poppler loader.
type VipsRasterizer struct{}

func (VipsRasterizer) Name() string    { return "libvips" }
func (VipsRasterizer) Available() bool { return IsVipsAvailable() }

func (VipsRasterizer) Rasterize(ctx context.Context, pdfPath, outDir string, maxPages, dpi int) ([]string, error) {
	first, err := loadPDFPage(pdfPath, 0, dpi)
	if err != nil {
		return nil, fmt.Errorf("%w: vips load %s: %w", ErrExtraction, filepath.Base(pdfPath), err)
	}
	total := first.Pages()
	first.Close()

	var images []string
	for page := 0; page < total && page < maxPages; page++ {
		if ctx.Err() != nil {
			return images, ctx.Err()
		}
		out := filepath.Join(outDir, fmt.Sprintf("page-%03d.png", page+1))
		if err := renderPDFPage(pdfPath, page, dpi, out); err != nil {
			logging.Debug("vips render failed for page %d of %s: %v", page+1, pdfPath, err)
			continue
		}
		images = append(images, out)
	}
	return images, nil
}

func loadPDFPage(path string, page, dpi int) (*vips.ImageRef, error) {
	params := vips.NewImportParams()
	params.Page.Set(page)
	params.NumPages.Set(1)
	params.Density.Set(dpi)
	return vips.LoadImageFromFile(path, params)
}

func renderPDFPage(path string, page, dpi int, out string) error {
	ref, err := loadPDFPage(path, page, dpi)
	if err != nil {
		return err
	}
	defer ref.Close()

	png, _, err := ref.ExportPng(vips.NewPngExportParams())
	if err != nil {
		return err
	}
	return os.WriteFile(out, png, 0o600)
}
