package extract

import (
	"bytes"
	"context"
	"io"
	"math"
	"regexp"
	"strconv"
	"unicode/utf8"

	"github.com/klauspost/compress/zlib"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"slides-indexer/internal/logging"
)

var (
	pagePattern     = regexp.MustCompile(`/Type\s*/Page\b`)
	literalPattern  = regexp.MustCompile(`(?s)\((?:\\.|[^\\)])*\)`)
	hexPattern      = regexp.MustCompile(`<([0-9A-Fa-f\s]+)>`)
	mediaBoxPattern = regexp.MustCompile(`/MediaBox\s*\[\s*(-?[\d.]+)\s+(-?[\d.]+)\s+(-?[\d.]+)\s+(-?[\d.]+)\s*\]`)
	rotatePattern   = regexp.MustCompile(`/Rotate\s+(-?\d+)`)

	streamKeyword    = []byte("stream")
	endstreamKeyword = []byte("endstream")
	flateKeyword     = []byte("/FlateDecode")
)

// flateHeaderWindow is how far before a stream keyword the dictionary is
// searched for a FlateDecode filter.
const flateHeaderWindow = 256

// NativeTier pulls text straight out of the PDF's content streams.
type NativeTier struct{}

func (NativeTier) Name() string    { return TierNative }
func (NativeTier) Available() bool { return true }

// Extract returns one page per non-empty content stream, along with the
// page count and first page geometry when the document exposes them.
func (NativeTier) Extract(_ context.Context, _ string, raw []byte) (Pages, error) {
	return parseNative(raw), nil
}

func parseNative(raw []byte) Pages {
	pages := Pages{
		PageCount: len(pagePattern.FindAllIndex(raw, -1)),
		Geometry:  firstPageGeometry(raw),
	}

	cursor := 0
	for {
		pos := bytes.Index(raw[cursor:], streamKeyword)
		if pos < 0 {
			break
		}
		streamPos := cursor + pos
		dataStart := streamPos + len(streamKeyword)
		for dataStart < len(raw) && (raw[dataStart] == '\r' || raw[dataStart] == '\n') {
			dataStart++
		}
		if dataStart >= len(raw) {
			break
		}

		end := bytes.Index(raw[dataStart:], endstreamKeyword)
		if end < 0 {
			break
		}
		dataEnd := dataStart + end
		data := raw[dataStart:dataEnd]

		header := raw[max(0, streamPos-flateHeaderWindow):streamPos]
		if bytes.Contains(header, flateKeyword) {
			if inflated, err := inflate(data); err == nil {
				data = inflated
			}
		}

		if text := streamText(data); text != "" {
			pages.Texts = append(pages.Texts, text)
		}
		cursor = dataEnd + len(endstreamKeyword)
	}
	return pages
}

// maxInflatedStream caps the decompressed size of one content stream.
var maxInflatedStream int64 = 64 << 20

// inflate decompresses a FlateDecode stream. Output beyond
// maxInflatedStream is dropped.
func inflate(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	out, err := io.ReadAll(io.LimitReader(r, maxInflatedStream+1))
	if int64(len(out)) > maxInflatedStream {
		logging.Debug("FlateDecode stream exceeds %d bytes, truncating", maxInflatedStream)
		return out[:maxInflatedStream], nil
	}
	return out, err
}

// streamText collects literal and hex string operands from a content stream.
func streamText(stream []byte) string {
	var segments [][]byte
	for _, m := range literalPattern.FindAll(stream, -1) {
		if len(m) < 2 {
			continue
		}
		if s := decodeLiteral(m[1 : len(m)-1]); len(s) > 0 {
			segments = append(segments, s)
		}
	}
	for _, m := range hexPattern.FindAllSubmatch(stream, -1) {
		if s := decodeHex(m[1]); len(s) > 0 {
			segments = append(segments, s)
		}
	}
	return string(bytes.Join(segments, []byte(" ")))
}

// decodeLiteral resolves the escapes of a PDF literal string.
func decodeLiteral(in []byte) []byte {
	out := make([]byte, 0, len(in))
	for i := 0; i < len(in); i++ {
		c := in[i]
		if c != '\\' {
			out = append(out, c)
			continue
		}
		if i+1 >= len(in) {
			break
		}
		i++
		switch e := in[i]; e {
		case 'n':
			out = append(out, '\n')
		case 'r':
			out = append(out, '\r')
		case 't':
			out = append(out, '\t')
		case 'b':
			out = append(out, '\b')
		case 'f':
			out = append(out, '\f')
		case '0', '1', '2', '3', '4', '5', '6', '7':
			value := int(e - '0')
			for n := 0; n < 2 && i+1 < len(in) && in[i+1] >= '0' && in[i+1] <= '7'; n++ {
				i++
				value = value*8 + int(in[i]-'0')
			}
			out = append(out, byte(value))
		default:
			// \( \) \\ and unknown escapes keep the escaped byte
			out = append(out, e)
		}
	}
	return decodeEncoded(out)
}

// decodeHex decodes a <...> hex string. An odd trailing digit is padded with 0.
func decodeHex(in []byte) []byte {
	digits := make([]byte, 0, len(in))
	for _, c := range in {
		if !isPDFWhitespace(c) {
			digits = append(digits, c)
		}
	}
	if len(digits) == 0 {
		return nil
	}
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}

	out := make([]byte, 0, len(digits)/2)
	for i := 0; i < len(digits); i += 2 {
		v, err := strconv.ParseUint(string(digits[i:i+2]), 16, 8)
		if err != nil {
			continue
		}
		out = append(out, byte(v))
	}
	return decodeEncoded(out)
}

func isPDFWhitespace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', 0:
		return true
	}
	return false
}

// decodeEncoded turns PDF string bytes into UTF-8: UTF-16 when a byte
// order mark is present, UTF-8 when valid, Latin-1 otherwise.
func decodeEncoded(b []byte) []byte {
	if len(b) >= 2 && ((b[0] == 0xFE && b[1] == 0xFF) || (b[0] == 0xFF && b[1] == 0xFE)) {
		dec := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder()
		if out, err := dec.Bytes(b); err == nil {
			return out
		}
	}
	if utf8.Valid(b) {
		return b
	}
	if out, err := charmap.ISO8859_1.NewDecoder().Bytes(b); err == nil {
		return out
	}
	return b
}

// Geometry is a page size in PDF units after rotation.
type Geometry struct {
	Width  float64
	Height float64
}

// Landscape reports whether the page is wider than tall.
func (g Geometry) Landscape() bool {
	return g.Width > g.Height
}

// firstPageGeometry reads the MediaBox of the first page object, falling
// back to the first MediaBox in the file (usually inherited from /Pages).
func firstPageGeometry(raw []byte) *Geometry {
	loc := pagePattern.FindIndex(raw)
	if loc == nil {
		return nil
	}

	var obj []byte
	start := bytes.LastIndex(raw[:loc[0]], []byte(" obj"))
	if start < 0 {
		start = 0
	}
	end := bytes.Index(raw[loc[1]:], []byte("endobj"))
	if end >= 0 {
		obj = raw[start : loc[1]+end]
	} else {
		obj = raw[start:]
	}

	m := mediaBoxPattern.FindSubmatch(obj)
	if m == nil {
		m = mediaBoxPattern.FindSubmatch(raw)
	}
	if m == nil {
		return nil
	}

	var box [4]float64
	for i := range box {
		v, err := strconv.ParseFloat(string(m[i+1]), 64)
		if err != nil {
			return nil
		}
		box[i] = v
	}
	g := &Geometry{Width: math.Abs(box[2] - box[0]), Height: math.Abs(box[3] - box[1])}

	if r := rotatePattern.FindSubmatch(obj); r != nil {
		if deg, err := strconv.Atoi(string(r[1])); err == nil && ((deg%180)+180)%180 == 90 {
			g.Width, g.Height = g.Height, g.Width
		}
	}
	return g
}
