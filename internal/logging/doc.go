// Package logging provides a simple leveled logging interface for the
// slides indexer.
//
// It supports the following log levels:
//   - DEBUG: per-file cache decisions, tool invocations
//   - INFO: scan start/summary, configuration
//   - WARN: recoverable failures (extraction, persistence, retries)
//   - ERROR: failures that need attention
//   - FATAL: startup errors that terminate the process
//
// The log level is configured via the LOG_LEVEL environment variable, or
// DEBUG=true, and can be overridden at runtime with SetLevel.
package logging
