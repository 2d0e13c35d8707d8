package memory

import (
	"context"
	"math"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"slides-indexer/internal/logging"
	"slides-indexer/internal/metrics"
)

// Config holds memory backpressure settings.
type Config struct {
	// LimitBytes is the soft limit to measure against. Zero uses GOMEMLIMIT.
	LimitBytes int64

	// HighWaterMark is the usage fraction below which a paused scan resumes.
	HighWaterMark float64

	// CriticalWaterMark is the usage fraction at which scanning pauses.
	CriticalWaterMark float64

	// CheckInterval is how often heap usage is sampled.
	CheckInterval time.Duration
}

// DefaultConfig returns the defaults used by the server.
func DefaultConfig() Config {
	return Config{
		HighWaterMark:     0.7,
		CriticalWaterMark: 0.85,
		CheckInterval:     5 * time.Second,
	}
}

// Monitor samples heap usage and pauses scanning while it is critical.
// OCR of large scanned PDFs is the main source of pressure.
type Monitor struct {
	config Config
	limit  int64

	stopChan chan struct{}
	stopOnce sync.Once

	mu       sync.RWMutex
	current  uint64
	paused   bool
	resumeCh chan struct{}
}

// NewMonitor creates a monitor. Without a limit it never pauses.
func NewMonitor(config Config) *Monitor {
	limit := config.LimitBytes
	if limit == 0 {
		if goMemLimit := debug.SetMemoryLimit(-1); goMemLimit > 0 && goMemLimit < math.MaxInt64 {
			limit = goMemLimit
			logging.Info("Memory monitor using GOMEMLIMIT: %s", formatBytes(limit))
		}
	}
	if limit == 0 {
		logging.Debug("Memory monitor: no memory limit configured, backpressure disabled")
	}

	return &Monitor{
		config:   config,
		limit:    limit,
		stopChan: make(chan struct{}),
		resumeCh: make(chan struct{}),
	}
}

// Enabled reports whether a limit is being enforced.
func (m *Monitor) Enabled() bool {
	return m.limit > 0
}

// Start begins sampling in the background.
func (m *Monitor) Start() {
	if !m.Enabled() {
		return
	}
	go m.loop()
}

// Stop ends sampling and releases any waiting scan.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopChan) })
}

func (m *Monitor) loop() {
	interval := m.config.CheckInterval
	if interval <= 0 {
		interval = DefaultConfig().CheckInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			var stats runtime.MemStats
			runtime.ReadMemStats(&stats)
			m.observe(stats.Alloc)
		case <-m.stopChan:
			return
		}
	}
}

// observe updates pause state for the given heap allocation.
func (m *Monitor) observe(alloc uint64) {
	if !m.Enabled() {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.current = alloc
	usage := float64(alloc) / float64(m.limit)
	metrics.MemoryUsageRatio.Set(usage)

	switch {
	case !m.paused && usage >= m.config.CriticalWaterMark:
		logging.Warn("Memory critical (%.1f%% of %s), pausing scan", usage*100, formatBytes(m.limit))
		m.paused = true
		metrics.MemoryPaused.Set(1)
		metrics.MemoryPausesTotal.Inc()
		go runtime.GC()
	case m.paused && usage < m.config.HighWaterMark:
		logging.Info("Memory recovered (%.1f%% of %s), resuming scan", usage*100, formatBytes(m.limit))
		m.paused = false
		metrics.MemoryPaused.Set(0)
		close(m.resumeCh)
		m.resumeCh = make(chan struct{})
	}
}

// Wait blocks while usage is critical. It returns ctx.Err() if ctx ends
// first, and nil once usage recovers or the monitor stops.
func (m *Monitor) Wait(ctx context.Context) error {
	m.mu.RLock()
	if !m.paused {
		m.mu.RUnlock()
		return nil
	}
	resume := m.resumeCh
	m.mu.RUnlock()

	logging.Debug("Scan waiting for memory to recover")
	select {
	case <-resume:
		return nil
	case <-m.stopChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Paused reports whether scanning is currently held.
func (m *Monitor) Paused() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paused
}

// Stats returns the last sampled allocation, the limit, and their ratio.
func (m *Monitor) Stats() (current, limit int64, usage float64) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	current = math.MaxInt64
	if m.current <= math.MaxInt64 {
		current = int64(m.current)
	}
	if m.limit > 0 {
		usage = float64(m.current) / float64(m.limit)
	}
	return current, m.limit, usage
}
