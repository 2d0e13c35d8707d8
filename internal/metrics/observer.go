package metrics

import (
	"sync"

	"slides-indexer/internal/filesystem"
	"slides-indexer/internal/logging"
)

// volumeObserver feeds filesystem activity into the Filesystem* series.
// Volumes are the linked library directories plus "data" for the catalog
// directory, as labelled by the filesystem package's resolver.
type volumeObserver struct {
	mu         sync.Mutex
	staleWarns map[string]bool
}

// NewFilesystemObserver returns the observer main installs with
// filesystem.SetObserver. Besides counting, it warns once per volume when
// a stale file handle is seen, which usually means a linked share was
// remounted under the indexer.
func NewFilesystemObserver() filesystem.Observer {
	return &volumeObserver{staleWarns: make(map[string]bool)}
}

func (o *volumeObserver) ObserveOperation(volume, operation string, durationSeconds float64, err error) {
	FilesystemOperationDuration.WithLabelValues(volume, operation).Observe(durationSeconds)
	if err == nil {
		return
	}
	FilesystemOperationErrors.WithLabelValues(volume, operation).Inc()
}

func (o *volumeObserver) ObserveRetryAttempt(retryOp, volume string) {
	FilesystemRetryAttempts.WithLabelValues(retryOp, volume).Inc()
}

func (o *volumeObserver) ObserveRetrySuccess(retryOp, volume string) {
	FilesystemRetrySuccess.WithLabelValues(retryOp, volume).Inc()
}

func (o *volumeObserver) ObserveRetryFailure(retryOp, volume string) {
	FilesystemRetryFailures.WithLabelValues(retryOp, volume).Inc()
}

func (o *volumeObserver) ObserveRetryDuration(retryOp, volume string, durationSeconds float64) {
	FilesystemRetryDuration.WithLabelValues(retryOp, volume).Observe(durationSeconds)
}

func (o *volumeObserver) ObserveStaleError(retryOp, volume string) {
	FilesystemStaleErrors.WithLabelValues(retryOp, volume).Inc()
	if o.firstStale(volume) {
		logging.Warn("Stale file handle on volume %s during %s; the share may have been remounted", volume, retryOp)
	}
}

func (o *volumeObserver) firstStale(volume string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.staleWarns[volume] {
		return false
	}
	o.staleWarns[volume] = true
	return true
}
