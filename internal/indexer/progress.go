package indexer

import (
	"sync"

	"slides-indexer/internal/metrics"
)

// Status values carried by progress events.
const (
	StatusScanning = "scanning"
	StatusCached   = "cached"
	StatusOCR      = "ocr"
	StatusSaved    = "saved"
	StatusRemoved  = "removed"
)

// Event reports progress on one file. The zero Event marks the end of a scan.
type Event struct {
	Path   string `json:"path,omitempty"`
	Status string `json:"status,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// IsTerminal reports whether e is the end-of-scan sentinel.
func (e Event) IsTerminal() bool {
	return e == Event{}
}

const subscriberBuffer = 256

// Broadcaster fans events out to subscribers without ever blocking the
// publisher. A subscriber that falls behind loses events.
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[chan Event]struct{}
	buffer int
}

// NewBroadcaster returns a broadcaster whose subscribers buffer up to
// buffer events. Zero selects the default.
func NewBroadcaster(buffer int) *Broadcaster {
	if buffer <= 0 {
		buffer = subscriberBuffer
	}
	return &Broadcaster{subs: make(map[chan Event]struct{}), buffer: buffer}
}

// Subscribe registers a new subscriber. The returned cancel function
// unregisters it and closes the channel; it is safe to call more than once.
func (b *Broadcaster) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, b.buffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Publish delivers e to every subscriber that has room for it.
func (b *Broadcaster) Publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- e:
		default:
			metrics.IndexerProgressDropped.Inc()
		}
	}
}

// Subscribers returns the number of active subscribers.
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
