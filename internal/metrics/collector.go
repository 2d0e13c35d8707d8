package metrics

import (
	"os"
	"time"

	"slides-indexer/internal/logging"
)

// StatsProvider interface for collecting stats
type StatsProvider interface {
	CatalogStats() Stats
}

// Stats holds the current catalog statistics
type Stats struct {
	EntriesByKind map[string]int
	Directories   int
}

// Collector periodically collects and updates catalog gauges
type Collector struct {
	statsProvider StatsProvider
	dbPath        string
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, dbPath string, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		dbPath:        dbPath,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	c.collectDBSize()

	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.CatalogStats()

	total := 0
	for _, kind := range []string{"pptx", "ppt", "pdf"} {
		count := stats.EntriesByKind[kind]
		total += count
		CatalogEntries.WithLabelValues(kind).Set(float64(count))
	}
	CatalogDirectories.Set(float64(stats.Directories))

	logging.Debug("Metrics collected: entries=%d, directories=%d", total, stats.Directories)
}

// collectDBSize records the size of the catalog database and its WAL/SHM
// sidecar files. Missing files report zero.
func (c *Collector) collectDBSize() {
	if c.dbPath == "" {
		return
	}
	files := map[string]string{
		"main": c.dbPath,
		"wal":  c.dbPath + "-wal",
		"shm":  c.dbPath + "-shm",
	}
	for label, path := range files {
		var size int64
		if info, err := os.Stat(path); err == nil {
			size = info.Size()
		}
		DBSizeBytes.WithLabelValues(label).Set(float64(size))
	}
}
