/*
Package workers sizes the goroutine pools used while indexing.

Counts are derived from GOMAXPROCS rather than runtime.NumCPU, so a
container with a CPU limit gets a pool that matches the limit instead of
the host's core count.

Walking a linked directory is dominated by stat calls, which on network
shares mostly wait on the server. StatWorkers returns the pool size the
walker uses for that stage:

	n := workers.StatWorkers()

The INDEX_WORKERS environment variable overrides the computed count.
Values that are not positive integers are ignored.
*/
package workers
