/*
Package filesystem wraps the file operations the indexer performs on linked
directories (stat, open, read) with retry logic for NFS stale file handle
errors.

Libraries of slide decks and books commonly live on network shares. A scan
that hits ESTALE on one file would otherwise record a spurious extraction
failure, so Stat, Open, and ReadFile retry with capped exponential backoff:

	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())

Only ESTALE triggers a retry. Every other error is returned on the first
attempt.

# Metrics

Operations are labeled with a volume name resolved by longest-prefix match
against the configured directories:

	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string][]string{
	    "library": linkedDirs,
	    "data":    {dataDir},
	}))
	filesystem.SetObserver(metrics.NewFilesystemObserver())

With no observer installed, recording is skipped.
*/
package filesystem
