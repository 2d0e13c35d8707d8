// Package checksum computes content digests of indexed files.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/crypto/blake2b"

	"slides-indexer/internal/filesystem"
	"slides-indexer/internal/metrics"
)

// ErrIO is returned when a file cannot be opened or read while hashing.
var ErrIO = errors.New("checksum: io error")

// ErrUnknownAlgorithm is returned by New for an unsupported algorithm name.
var ErrUnknownAlgorithm = errors.New("checksum: unknown algorithm")

// Algorithm names a digest function.
type Algorithm string

const (
	SHA256  Algorithm = "sha256"
	BLAKE2b Algorithm = "blake2b"
)

// chunkSize is the streaming buffer size.
const chunkSize = 8 * 1024

// Engine streams files through a hash and returns lowercase hex digests.
// It is safe for concurrent use.
type Engine struct {
	algorithm   Algorithm
	newHash     func() hash.Hash
	retryConfig filesystem.RetryConfig
	computed    atomic.Int64
}

// New returns an engine for the named algorithm. An empty name selects SHA256.
func New(name string) (*Engine, error) {
	algo := Algorithm(strings.ToLower(strings.TrimSpace(name)))
	if algo == "" {
		algo = SHA256
	}

	e := &Engine{algorithm: algo, retryConfig: filesystem.DefaultRetryConfig()}
	switch algo {
	case SHA256:
		e.newHash = sha256.New
	case BLAKE2b:
		e.newHash = func() hash.Hash {
			h, _ := blake2b.New256(nil) // only fails for oversized keys
			return h
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
	}
	return e, nil
}

// Algorithm returns the engine's digest algorithm.
func (e *Engine) Algorithm() Algorithm {
	return e.algorithm
}

// Computed returns how many digests have been attempted.
func (e *Engine) Computed() int64 {
	return e.computed.Load()
}

// Sum returns the hex digest of the file at path.
func (e *Engine) Sum(path string) (string, error) {
	e.computed.Add(1)
	start := time.Now()
	defer func() {
		metrics.ChecksumDuration.Observe(time.Since(start).Seconds())
	}()

	f, err := filesystem.OpenWithRetry(path, e.retryConfig)
	if err != nil {
		metrics.ChecksumErrors.Inc()
		return "", fmt.Errorf("%w: open %s: %w", ErrIO, path, err)
	}
	defer f.Close()

	sum, err := e.SumReader(f)
	if err != nil {
		metrics.ChecksumErrors.Inc()
		return "", fmt.Errorf("%w: read %s: %w", ErrIO, path, err)
	}
	return sum, nil
}

// SumReader hashes everything read from r.
func (e *Engine) SumReader(r io.Reader) (string, error) {
	h := e.newHash()
	buf := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(onlyWriter{h}, onlyReader{r}, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// onlyReader and onlyWriter hide ReaderFrom/WriterTo so CopyBuffer always
// streams through the fixed-size buffer.
type onlyReader struct{ io.Reader }

type onlyWriter struct{ io.Writer }
