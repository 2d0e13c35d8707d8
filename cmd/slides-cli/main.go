package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"slides-indexer/internal/logging"
	"slides-indexer/internal/startup"
)

func main() {
	startup.LoadEnvFiles()
	logging.ResetLevel()
	logging.SetOutput(os.Stderr)

	// The first interrupt stops a running scan between files.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
