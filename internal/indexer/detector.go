package indexer

import (
	"fmt"

	"slides-indexer/internal/catalog"
	"slides-indexer/internal/logging"
)

// Checksummer computes content digests.
type Checksummer interface {
	Sum(path string) (string, error)
}

// Outcome is the verdict of a change check.
type Outcome int

const (
	// Miss means the file must be extracted.
	Miss Outcome = iota
	// QuickHit means the modification time is unchanged.
	QuickHit
	// VerifiedHit means the time changed but the content digest did not.
	VerifiedHit
)

func (o Outcome) String() string {
	switch o {
	case QuickHit:
		return "quick_hit"
	case VerifiedHit:
		return "verified_hit"
	default:
		return "miss"
	}
}

// Decision is the result of ChangeDetector.Detect.
type Decision struct {
	Outcome Outcome
	// Checksum is the freshly computed digest, empty when it was not
	// computed or hashing failed.
	Checksum string
	// Reason explains a Miss.
	Reason string
}

// ChangeDetector decides whether a file needs re-extraction.
type ChangeDetector struct {
	sums Checksummer
}

// NewChangeDetector returns a detector hashing with sums.
func NewChangeDetector(sums Checksummer) *ChangeDetector {
	return &ChangeDetector{sums: sums}
}

// Detect compares the file at path, last modified at modifiedAt (ms),
// against the existing entry. existing is nil for unknown files. The
// checksum is only computed when the modification time differs.
func (d *ChangeDetector) Detect(path string, modifiedAt int64, existing *catalog.Entry) Decision {
	if existing != nil && existing.ModifiedAt == modifiedAt {
		return Decision{Outcome: QuickHit}
	}

	sum, err := d.sums.Sum(path)
	if err != nil {
		logging.Warn("Checksum failed for %s: %v", path, err)
		sum = ""
	}

	if existing == nil {
		return Decision{Outcome: Miss, Checksum: sum, Reason: "new file"}
	}
	if existing.Checksum != "" && sum != "" && existing.Checksum == sum {
		return Decision{Outcome: VerifiedHit, Checksum: sum}
	}
	return Decision{Outcome: Miss, Checksum: sum, Reason: missReason(existing.Checksum, sum)}
}

func missReason(old, current string) string {
	switch {
	case old == "" && current == "":
		return "both checksums missing"
	case old == "":
		return "existing has no checksum"
	case current == "":
		return "checksum unavailable"
	default:
		return fmt.Sprintf("checksum changed: %s.. -> %s..", shortSum(old), shortSum(current))
	}
}

func shortSum(sum string) string {
	if len(sum) > 8 {
		return sum[:8]
	}
	return sum
}
