package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, file := range []string{"main", "wal", "shm"} {
		DBSizeBytes.WithLabelValues(file)
	}

	for _, op := range []string{"load_catalog", "save_entry", "delete_entry", "save_meta", "save_catalog", "quick_check"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}

	for _, outcome := range []string{"commit", "rollback"} {
		DBTransactionDuration.WithLabelValues(outcome)
	}

	for _, op := range []string{"upsert", "remove", "clear", "directories", "finalize"} {
		CatalogPersistErrors.WithLabelValues(op)
	}

	for _, kind := range []string{"pptx", "ppt", "pdf"} {
		CatalogEntries.WithLabelValues(kind)
		ExtractionDuration.WithLabelValues(kind)
		ExtractionTotal.WithLabelValues(kind, "success")
		ExtractionTotal.WithLabelValues(kind, "error")
	}

	for _, state := range []string{"completed", "stopped", "failed"} {
		IndexerRunsTotal.WithLabelValues(state)
	}

	for _, outcome := range []string{"cached_quick", "cached_verified", "scanned", "failed", "removed"} {
		IndexerFilesTotal.WithLabelValues(outcome)
	}

	for _, tier := range []string{"native", "pdftotext", "ocr"} {
		for _, result := range []string{"meaningful", "empty", "error", "unavailable"} {
			ExtractionTierAttempts.WithLabelValues(tier, result)
		}
	}

	for _, status := range []string{"text", "empty", "error"} {
		OCRPagesTotal.WithLabelValues(status)
	}

	for _, tool := range []string{"pdftotext", "pdftoppm", "tesseract"} {
		ExternalToolAvailable.WithLabelValues(tool)
	}

	volumes := []string{"library", "data", "unknown"}
	for _, vol := range volumes {
		for _, op := range []string{"stat", "read", "open"} {
			FilesystemOperationDuration.WithLabelValues(vol, op)
			FilesystemOperationErrors.WithLabelValues(vol, op)
		}
		for _, op := range []string{"stat", "open"} {
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
			FilesystemRetryDuration.WithLabelValues(op, vol)
		}
	}
}
