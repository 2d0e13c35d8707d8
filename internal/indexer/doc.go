// Package indexer keeps the document catalog in step with the linked
// directories.
//
// A scan walks each directory, skipping hidden entries and Office
// temporary files, and asks the ChangeDetector about every supported
// document:
//   - Quick hit: the modification time is unchanged, nothing is read.
//   - Verified hit: the time changed but the checksum did not; the entry
//     is re-committed with the new time.
//   - Miss: the document is extracted and the new entry is committed.
//
// Every commit goes through catalog.Store.UpsertAndPersist before the next
// file starts, so an interrupted scan loses at most the file in flight.
// StopScan is honored between files. Entries whose files disappeared are
// removed only after a scan that was not stopped.
//
// Progress is published as Event values through a non-blocking
// Broadcaster; the zero Event ends each scan.
//
// The indexer operates in multiple modes:
//   - Initial scan: on Start, in the background
//   - Periodic scan: when an index interval is set
//   - File watching: Watcher rescans the affected linked directory after
//     fsnotify events settle
//   - Manual: RunScan, usually through the HTTP API or the CLI
package indexer
