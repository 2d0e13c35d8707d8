package extract

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/encoding/charmap"

	"slides-indexer/internal/doctypes"
	"slides-indexer/internal/filesystem"
)

// extractPPT recovers readable text from a legacy binary deck by decoding
// the raw bytes as Windows-1252 and keeping printable runs.
func extractPPT(path string, retry filesystem.RetryConfig) (Content, error) {
	raw, err := filesystem.ReadFileWithRetry(path, retry)
	if err != nil {
		return Content{}, fmt.Errorf("%w: read %s: %w", ErrIO, path, err)
	}

	cleaned := CleanText(printableText(raw))

	content := Content{DocumentType: doctypes.DocumentTypePresentation}
	if cleaned == "" || IsGibberish(cleaned) {
		return content, nil
	}
	content.Previews = []Preview{{Index: 1, Text: cleaned}}
	content.Snippet = TruncateSnippet(cleaned)
	content.Keywords = DeriveKeywords(cleaned, content.Previews)
	return content, nil
}

func printableText(raw []byte) string {
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		decoded = raw
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			return r
		case r == unicode.ReplacementChar || !unicode.IsPrint(r):
			return ' '
		default:
			return r
		}
	}, string(decoded))
}
