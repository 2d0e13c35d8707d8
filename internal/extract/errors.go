package extract

import "errors"

var (
	// ErrUnsupportedFormat is returned for a kind the extractor cannot read.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrExtraction is returned when a document is malformed or yields no structure.
	ErrExtraction = errors.New("extraction failed")
	// ErrToolUnavailable marks a missing external program.
	ErrToolUnavailable = errors.New("tool unavailable")
	// ErrIO is returned when the document bytes cannot be read.
	ErrIO = errors.New("io error")
)
