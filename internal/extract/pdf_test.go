package extract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zlib"

	"slides-indexer/internal/doctypes"
)

// buildPDF assembles a minimal single-page PDF around one content stream.
func buildPDF(t *testing.T, stream string, flate bool, mediaBox string) []byte {
	t.Helper()

	data := []byte(stream)
	filter := ""
	if flate {
		var buf bytes.Buffer
		zw := zlib.NewWriter(&buf)
		if _, err := zw.Write(data); err != nil {
			t.Fatal(err)
		}
		if err := zw.Close(); err != nil {
			t.Fatal(err)
		}
		data = buf.Bytes()
		filter = " /Filter /FlateDecode"
	}

	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n")
	b.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	fmt.Fprintf(&b, "2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 /MediaBox [%s] >>\nendobj\n", mediaBox)
	b.WriteString("3 0 obj\n<< /Type /Page /Parent 2 0 R /Contents 4 0 R >>\nendobj\n")
	fmt.Fprintf(&b, "4 0 obj\n<< /Length %d%s >>\nstream\n", len(data), filter)
	b.Write(data)
	b.WriteString("\nendstream\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")
	return b.Bytes()
}

func writePDF(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.pdf")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseNativeFlateStream(t *testing.T) {
	raw := buildPDF(t, "BT /F1 12 Tf 72 712 Td (Quarterly revenue grew in the north) Tj ET", true, "0 0 842 595")

	pages := parseNative(raw)
	if pages.PageCount != 1 {
		t.Errorf("PageCount = %d, want 1", pages.PageCount)
	}
	if len(pages.Texts) != 1 || pages.Texts[0] != "Quarterly revenue grew in the north" {
		t.Errorf("Texts = %q", pages.Texts)
	}
	if pages.Geometry == nil || !pages.Geometry.Landscape() {
		t.Errorf("Geometry = %+v, want landscape", pages.Geometry)
	}
}

func TestParseNativeUncompressedHexString(t *testing.T) {
	// UTF-16BE with byte order mark: "Hi there"
	raw := buildPDF(t, "BT <FEFF00480069002000740068006500720065> Tj ET", false, "0 0 595 842")

	pages := parseNative(raw)
	if len(pages.Texts) != 1 || pages.Texts[0] != "Hi there" {
		t.Errorf("Texts = %q", pages.Texts)
	}
	if pages.Geometry == nil || pages.Geometry.Landscape() {
		t.Errorf("Geometry = %+v, want portrait", pages.Geometry)
	}
}

func TestDecodeLiteral(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`plain`, "plain"},
		{`a\(b\)c`, "a(b)c"},
		{`line\nbreak`, "line\nbreak"},
		{`\101\102C`, "ABC"},
		{`back\\slash`, `back\slash`},
		{`Caf\351`, "Café"},
		{`trailing\`, "trailing"},
	}

	for _, tt := range tests {
		if got := string(decodeLiteral([]byte(tt.in))); got != tt.want {
			t.Errorf("decodeLiteral(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDecodeHex(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"48656C6C6F", "Hello"},
		{"48 65 6c\n6c 6f", "Hello"},
		{"FFFE48006900", "Hi"},
		{"414", "A@"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := string(decodeHex([]byte(tt.in))); got != tt.want {
			t.Errorf("decodeHex(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFirstPageGeometryRotation(t *testing.T) {
	raw := []byte("3 0 obj\n<< /Type /Page /MediaBox [0 0 595 842] /Rotate 90 >>\nendobj\n")
	g := firstPageGeometry(raw)
	if g == nil || !g.Landscape() {
		t.Errorf("rotated portrait page should be landscape, got %+v", g)
	}
}

func TestFirstPageGeometryUnknown(t *testing.T) {
	if g := firstPageGeometry([]byte("%PDF-1.7 no pages here")); g != nil {
		t.Errorf("Geometry = %+v, want nil", g)
	}
}

func TestExtractPDFNativeOnly(t *testing.T) {
	path := writePDF(t, buildPDF(t, "BT (Distributed systems lecture notes) Tj ET", true, "0 0 612 792"))

	content, err := New(NativeTier{}).Extract(context.Background(), path, doctypes.KindPDF, Hooks{})
	if err != nil {
		t.Fatal(err)
	}
	if content.Tier != TierNative {
		t.Errorf("Tier = %q", content.Tier)
	}
	if content.Snippet != "Distributed systems lecture notes" {
		t.Errorf("Snippet = %q", content.Snippet)
	}
	if content.DocumentType != doctypes.DocumentTypeBook {
		t.Errorf("DocumentType = %q, want book", content.DocumentType)
	}
	if content.UnitCount == nil || *content.UnitCount != 1 {
		t.Errorf("UnitCount = %v, want 1", content.UnitCount)
	}
}

func TestExtractImageOnlyPDF(t *testing.T) {
	path := writePDF(t, buildPDF(t, "q 842 0 0 595 0 0 cm /Im1 Do Q", true, "0 0 842 595"))

	content, err := New(NativeTier{}).Extract(context.Background(), path, doctypes.KindPDF, Hooks{})
	if err != nil {
		t.Fatalf("image-only PDF should not fail: %v", err)
	}
	if content.Snippet != "" || len(content.Previews) != 0 || len(content.Keywords) != 0 {
		t.Errorf("expected empty text, got %+v", content)
	}
	if content.Tier != "" {
		t.Errorf("Tier = %q, want none", content.Tier)
	}
	if content.DocumentType != doctypes.DocumentTypePresentation {
		t.Errorf("DocumentType = %q, want presentation", content.DocumentType)
	}
}

func TestInflateCapsOutput(t *testing.T) {
	defer func(old int64) { maxInflatedStream = old }(maxInflatedStream)
	maxInflatedStream = 1 << 10

	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(bytes.Repeat([]byte{'A'}, 1<<20)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	out, err := inflate(buf.Bytes())
	if err != nil {
		t.Fatalf("inflate: %v", err)
	}
	if int64(len(out)) != maxInflatedStream {
		t.Errorf("inflated %d bytes, want cap of %d", len(out), maxInflatedStream)
	}
}

func TestInflateUnderCap(t *testing.T) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	_, _ = zw.Write([]byte("BT (Quarterly) Tj ET"))
	_ = zw.Close()

	out, err := inflate(buf.Bytes())
	if err != nil || string(out) != "BT (Quarterly) Tj ET" {
		t.Errorf("inflate = %q, %v", out, err)
	}
}
