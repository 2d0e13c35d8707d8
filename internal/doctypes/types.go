package doctypes

import (
	"path/filepath"
	"strings"
)

// Kind identifies the file format of an indexed document.
type Kind string

const (
	// KindPPTX is a modern container/XML slide deck.
	KindPPTX Kind = "pptx"
	// KindPPT is a legacy single-stream binary slide deck.
	KindPPT Kind = "ppt"
	// KindPDF is a page based document.
	KindPDF Kind = "pdf"
)

// DocumentType is the inferred presentation style of a document.
type DocumentType string

const (
	// DocumentTypePresentation is a landscape, slide-like document.
	DocumentTypePresentation DocumentType = "presentation"
	// DocumentTypeBook is a portrait, page-like document.
	DocumentTypeBook DocumentType = "book"
)

// Extensions maps lowercase file extensions to their Kind.
var Extensions = map[string]Kind{
	".pptx": KindPPTX,
	".ppt":  KindPPT,
	".pdf":  KindPDF,
}

// temporaryPrefix marks lock/owner files Office writes next to open decks.
const temporaryPrefix = "~$"

// KindForExt returns the Kind for a lowercase extension including the dot.
func KindForExt(ext string) (Kind, bool) {
	kind, ok := Extensions[ext]
	return kind, ok
}

// KindForPath classifies a path by its extension, case-insensitively.
func KindForPath(path string) (Kind, bool) {
	return KindForExt(strings.ToLower(filepath.Ext(path)))
}

// IsTemporary reports whether name is an Office temporary/owner file.
func IsTemporary(name string) bool {
	return strings.HasPrefix(filepath.Base(name), temporaryPrefix)
}

// IsHidden reports whether a file or directory name is hidden.
func IsHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

// Label returns a short human label used in warnings ("PDF", "PPTX", "PPT").
func (k Kind) Label() string {
	return strings.ToUpper(string(k))
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindPPTX, KindPPT, KindPDF:
		return true
	}
	return false
}
