package extract

import (
	"fmt"
	"html"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zip"

	"slides-indexer/internal/doctypes"
)

var (
	slidePartPattern = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)
	textRunPattern   = regexp.MustCompile(`(?s)<a:t(?:\s[^>]*)?>(.*?)</a:t>`)
)

type slidePart struct {
	number int
	file   *zip.File
}

// extractPPTX reads the slide XML parts of an Office Open XML deck in
// slide-number order.
func extractPPTX(path string) (Content, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return Content{}, fmt.Errorf("%w: open pptx %s: %w", ErrExtraction, path, err)
	}
	defer archive.Close()

	var parts []slidePart
	for _, f := range archive.File {
		m := slidePartPattern.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		parts = append(parts, slidePart{number: n, file: f})
	}
	if len(parts) == 0 {
		return Content{}, fmt.Errorf("%w: %s contains no slides", ErrExtraction, path)
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].number < parts[j].number })

	var previews []Preview
	var texts []string
	for i, part := range parts {
		xml, err := readZipFile(part.file)
		if err != nil {
			return Content{}, fmt.Errorf("%w: read %s in %s: %w", ErrExtraction, part.file.Name, path, err)
		}
		text := CleanText(textRuns(xml))
		if text == "" {
			continue
		}
		previews = append(previews, Preview{Index: i + 1, Text: text})
		texts = append(texts, text)
	}

	combined := strings.Join(texts, " ")
	count := len(parts)
	return Content{
		Snippet:      TruncateSnippet(combined),
		Keywords:     DeriveKeywords(combined, previews),
		Previews:     previews,
		UnitCount:    &count,
		DocumentType: doctypes.DocumentTypePresentation,
	}, nil
}

func readZipFile(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// textRuns joins the decoded contents of every <a:t> element.
func textRuns(xml string) string {
	var runs []string
	for _, m := range textRunPattern.FindAllStringSubmatch(xml, -1) {
		run := strings.TrimSpace(html.UnescapeString(m[1]))
		if run != "" {
			runs = append(runs, run)
		}
	}
	return strings.Join(runs, " ")
}
