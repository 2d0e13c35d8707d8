// Package doctypes provides shared type definitions for the document formats
// the indexer understands.
//
// This package is a dependency-free foundation that can be imported by the
// extractor, the catalog and the indexer without creating import cycles.
//
// # Kinds
//
//	doctypes.KindPPTX // modern, zip/XML based slide decks
//	doctypes.KindPPT  // legacy binary slide decks
//	doctypes.KindPDF  // page based documents
//
// Use KindForPath to classify a file by extension:
//
//	kind, ok := doctypes.KindForPath(path)
//	if !ok {
//	    // unsupported, skipped silently
//	}
//
// # Document types
//
// DocumentTypePresentation and DocumentTypeBook are inferred by the
// extractor, never set by users.
package doctypes
