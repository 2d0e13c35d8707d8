// Package handlers provides the HTTP API of the slides indexer.
//
// It includes handlers for:
//   - Linking library directories and starting or stopping scans
//   - Searching the catalog and fetching single entries
//   - Streaming scan progress as server-sent events
//   - Health, readiness and version endpoints
package handlers
