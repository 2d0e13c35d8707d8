package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"slides-indexer/internal/doctypes"
)

func writeBytes(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExtractPPT(t *testing.T) {
	raw := []byte("\x00\x01\x02Budget Review 2024\x00\x00\x03\x04Quarterly planning session\x00\x7f")
	path := writeBytes(t, "legacy.ppt", raw)

	content, err := New().Extract(context.Background(), path, doctypes.KindPPT, Hooks{})
	if err != nil {
		t.Fatal(err)
	}
	want := "Budget Review Quarterly planning session"
	if content.Snippet != want {
		t.Errorf("Snippet = %q, want %q", content.Snippet, want)
	}
	if len(content.Previews) != 1 || content.Previews[0].Index != 1 || content.Previews[0].Text != want {
		t.Errorf("Previews = %+v", content.Previews)
	}
	if content.UnitCount != nil {
		t.Errorf("UnitCount = %v, want nil", *content.UnitCount)
	}
	if content.DocumentType != doctypes.DocumentTypePresentation {
		t.Errorf("DocumentType = %q", content.DocumentType)
	}
}

func TestExtractPPTWindows1252(t *testing.T) {
	// 0xE9 is é in Windows-1252
	path := writeBytes(t, "accents.ppt", []byte("\x00Caf\xe9 menu\x00"))

	content, err := New().Extract(context.Background(), path, doctypes.KindPPT, Hooks{})
	if err != nil {
		t.Fatal(err)
	}
	if content.Snippet != "Café menu" {
		t.Errorf("Snippet = %q", content.Snippet)
	}
}

func TestExtractPPTGibberishYieldsNothing(t *testing.T) {
	path := writeBytes(t, "binary.ppt", []byte(strings.Repeat("\x89Z#$%&*+", 20)))

	content, err := New().Extract(context.Background(), path, doctypes.KindPPT, Hooks{})
	if err != nil {
		t.Fatal(err)
	}
	if content.Snippet != "" || len(content.Previews) != 0 || len(content.Keywords) != 0 {
		t.Errorf("expected empty content, got %+v", content)
	}
}

func TestExtractPPTMissingFile(t *testing.T) {
	_, err := New().Extract(context.Background(), filepath.Join(t.TempDir(), "gone.ppt"), doctypes.KindPPT, Hooks{})
	if !errors.Is(err, ErrIO) {
		t.Fatalf("expected ErrIO, got %v", err)
	}
}
