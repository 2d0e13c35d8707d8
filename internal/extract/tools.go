package extract

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"slides-indexer/internal/logging"
	"slides-indexer/internal/metrics"
)

// Toolset holds the resolved paths of the external PDF programs. An empty
// path means the program was not found.
type Toolset struct {
	Pdftotext string
	Pdftoppm  string
	Tesseract string
}

// ResolveTools looks up pdftotext, pdftoppm, and tesseract on PATH and in
// the platform's usual install directories.
func ResolveTools() *Toolset {
	t := &Toolset{
		Pdftotext: resolveCommand("pdftotext"),
		Pdftoppm:  resolveCommand("pdftoppm"),
		Tesseract: resolveCommand("tesseract"),
	}

	for name, path := range map[string]string{
		"pdftotext": t.Pdftotext,
		"pdftoppm":  t.Pdftoppm,
		"tesseract": t.Tesseract,
	} {
		if path == "" {
			metrics.ExternalToolAvailable.WithLabelValues(name).Set(0)
			continue
		}
		metrics.ExternalToolAvailable.WithLabelValues(name).Set(1)
		logging.Debug("  %s path: %s", name, path)
	}
	return t
}

// Missing lists the tools that were not found.
func (t *Toolset) Missing() []string {
	if t == nil {
		return []string{"pdftoppm", "tesseract", "pdftotext"}
	}
	var missing []string
	if t.Pdftoppm == "" {
		missing = append(missing, "pdftoppm")
	}
	if t.Tesseract == "" {
		missing = append(missing, "tesseract")
	}
	if t.Pdftotext == "" {
		missing = append(missing, "pdftotext")
	}
	return missing
}

// Err returns an ErrToolUnavailable error naming the missing tools, or nil.
func (t *Toolset) Err() error {
	missing := t.Missing()
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrToolUnavailable, strings.Join(missing, ", "))
}

// Warning returns the user-facing message about missing tools, or "".
func (t *Toolset) Warning() string {
	missing := t.Missing()
	if len(missing) == 0 {
		return ""
	}
	return fmt.Sprintf("PDF extraction tools missing: %s. Install poppler and tesseract to enable full PDF scanning.",
		strings.Join(missing, ", "))
}

func resolveCommand(name string) string {
	if path, err := exec.LookPath(name); err == nil {
		return path
	}

	candidates := []string{name}
	if runtime.GOOS == "windows" && !strings.HasSuffix(name, ".exe") {
		candidates = append(candidates, name+".exe")
	}
	for _, dir := range defaultCommandDirs() {
		for _, candidate := range candidates {
			path := filepath.Join(dir, candidate)
			if isExecutable(path) {
				return path
			}
		}
	}
	return ""
}

func defaultCommandDirs() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{"/opt/homebrew/bin", "/usr/local/bin", "/usr/bin", "/bin", "/opt/local/bin"}
	case "linux":
		return []string{"/usr/local/bin", "/usr/bin", "/bin", "/snap/bin"}
	case "windows":
		return []string{
			`C:\Program Files\Tesseract-OCR`,
			`C:\Program Files (x86)\Tesseract-OCR`,
			`C:\Program Files\poppler\bin`,
			`C:\Program Files (x86)\poppler\bin`,
		}
	}
	return nil
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
