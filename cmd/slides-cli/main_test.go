package main

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"slides-indexer/internal/catalog"
	"slides-indexer/internal/indexer"
)

// run executes the CLI with args against dataDir and returns stdout.
func run(t *testing.T, dataDir string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(append([]string{"--data-dir", dataDir}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRun(t *testing.T, dataDir string, args ...string) string {
	t.Helper()
	out, err := run(t, dataDir, args...)
	if err != nil {
		t.Fatalf("slides-cli %s: %v", strings.Join(args, " "), err)
	}
	return out
}

func writeDeck(t *testing.T, path string, slides ...string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	for i, text := range slides {
		w, err := zw.Create("ppt/slides/slide" + string(rune('1'+i)) + ".xml")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(`<p:sld><a:p><a:r><a:t>` + text + `</a:t></a:r></a:p></p:sld>`)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestCLIWorkflow(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "data")
	library := t.TempDir()
	writeDeck(t, filepath.Join(library, "quarterly.pptx"), "Quarterly revenue review", "Next steps")
	writeDeck(t, filepath.Join(library, "kickoff.pptx"), "Project kickoff")

	out := mustRun(t, dataDir, "dirs", "set", library)
	if strings.TrimSpace(out) != library {
		t.Errorf("dirs set output = %q, want %q", out, library)
	}

	out = mustRun(t, dataDir, "--json", "scan")
	var summary indexer.Summary
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("scan output %q: %v", out, err)
	}
	if summary.State != indexer.StateCompleted || summary.Scanned != 2 || summary.Indexed != 2 {
		t.Errorf("first scan = %+v", summary)
	}

	out = mustRun(t, dataDir, "--json", "scan")
	summary = indexer.Summary{}
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatal(err)
	}
	if summary.Scanned != 0 || summary.Cached != 2 {
		t.Errorf("second scan should be fully cached: %+v", summary)
	}

	out = mustRun(t, dataDir, "--json", "search", "revenue")
	var resp indexer.SearchResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Total != 1 || resp.Items[0].Name != "quarterly.pptx" {
		t.Errorf("search = %+v", resp)
	}
	if resp.Items[0].SlideCount == nil || *resp.Items[0].SlideCount != 2 {
		t.Errorf("slide count = %v, want 2", resp.Items[0].SlideCount)
	}

	out = mustRun(t, dataDir, "search", "kick*")
	if !strings.Contains(out, "kickoff.pptx") || !strings.Contains(out, "1 of 1 matching") {
		t.Errorf("text search output = %q", out)
	}

	first := mustRun(t, dataDir, "export")
	second := mustRun(t, dataDir, "export")
	if first != second {
		t.Error("exports of an unchanged catalog differ")
	}
	var exported catalog.Catalog
	if err := json.Unmarshal([]byte(first), &exported); err != nil {
		t.Fatal(err)
	}
	if len(exported.Items) != 2 {
		t.Errorf("exported %d entries, want 2", len(exported.Items))
	}

	exportFile := filepath.Join(t.TempDir(), "catalog.json")
	mustRun(t, dataDir, "export", "-o", exportFile)
	if data, err := os.ReadFile(exportFile); err != nil || string(data) != first {
		t.Errorf("file export differs from stdout export (err %v)", err)
	}

	out = mustRun(t, dataDir, "clear")
	if !strings.Contains(out, "Removed 2 entries.") {
		t.Errorf("clear output = %q", out)
	}

	out = mustRun(t, dataDir, "--json", "state")
	var state catalog.Catalog
	if err := json.Unmarshal([]byte(out), &state); err != nil {
		t.Fatal(err)
	}
	if len(state.Items) != 0 || len(state.Directories) != 1 {
		t.Errorf("state after clear = %+v", state)
	}
}

func TestCLIDirsAddRemove(t *testing.T) {
	dataDir := t.TempDir()
	a, b := t.TempDir(), t.TempDir()

	mustRun(t, dataDir, "dirs", "add", a)
	mustRun(t, dataDir, "dirs", "add", b, a)
	out := mustRun(t, dataDir, "--json", "dirs")
	var dirs []string
	if err := json.Unmarshal([]byte(out), &dirs); err != nil {
		t.Fatal(err)
	}
	if len(dirs) != 2 {
		t.Fatalf("dirs = %v, want two", dirs)
	}

	mustRun(t, dataDir, "dirs", "remove", a)
	out = mustRun(t, dataDir, "dirs")
	if strings.TrimSpace(out) != b {
		t.Errorf("dirs after remove = %q, want %q", out, b)
	}
}

func TestCLIScanUnlinkedDirectory(t *testing.T) {
	dataDir := t.TempDir()
	if _, err := run(t, dataDir, "scan", "--dir", t.TempDir()); err == nil {
		t.Fatal("expected error scanning an unlinked directory")
	}
}

func TestCLIUnknownLogLevel(t *testing.T) {
	if _, err := run(t, t.TempDir(), "--log-level", "loud", "dirs"); err == nil {
		t.Fatal("expected error for unknown log level")
	}
}

func TestCLITools(t *testing.T) {
	out := mustRun(t, t.TempDir(), "tools")
	for _, name := range []string{"pdftotext", "pdftoppm", "tesseract"} {
		if !strings.Contains(out, name) {
			t.Errorf("tools output missing %s: %q", name, out)
		}
	}
}
