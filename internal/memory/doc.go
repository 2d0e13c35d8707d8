// Package memory keeps the indexer inside its container memory budget.
//
// [ConfigureFromEnv] derives GOMEMLIMIT from MEMORY_LIMIT (bytes or a
// suffixed size such as "2Gi") and MEMORY_RATIO. An explicit GOMEMLIMIT
// always wins.
//
// [Monitor] samples heap allocation against that limit. When usage crosses
// the critical mark the scan loop blocks in [Monitor.Wait] before the next
// file and resumes once usage drops below the high-water mark. Rendering
// and OCR of large scanned PDFs are what usually push it there.
//
//	memory.ConfigureFromEnv()
//	monitor := memory.NewMonitor(memory.DefaultConfig())
//	monitor.Start()
//	defer monitor.Stop()
//	idx.SetThrottle(monitor)
package memory
