package main

import (
	"context"
	"encoding/json"
	"fmt"

	"slides-indexer/internal/catalog"
	"slides-indexer/internal/checksum"
	"slides-indexer/internal/database"
	"slides-indexer/internal/extract"
	"slides-indexer/internal/indexer"
	"slides-indexer/internal/logging"
	"slides-indexer/internal/startup"
)

// app is one opened catalog with an indexer on top. Each command opens
// and closes its own.
type app struct {
	db    *database.Database
	store *catalog.Store
	idx   *indexer.Indexer
	tools *extract.Toolset
	vips  bool
}

func openApp(ctx context.Context, opts *options) (*app, error) {
	config := startup.FromEnv()
	config.DataDir = opts.dataDir
	config.LibraryDirs = nil
	if err := config.Prepare(); err != nil {
		return nil, err
	}

	db, info, err := database.New(ctx, config.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open catalog database: %w", err)
	}
	if info.Recovered {
		logging.Warn("Catalog database was unreadable and was moved to %s", info.CorruptPath)
	}

	store, err := catalog.Open(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	sums, err := checksum.New(config.ChecksumAlgorithm)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	tools := extract.ResolveTools()
	if config.VipsEnabled {
		extract.InitVips()
	}

	idx := indexer.New(store, extract.NewDefault(config.ExtractConfig(), tools), sums, tools)
	walkerConfig := indexer.DefaultWalkerConfig()
	walkerConfig.SkipHidden = config.SkipHidden
	idx.SetWalkerConfig(walkerConfig)

	return &app{
		db:    db,
		store: store,
		idx:   idx,
		tools: tools,
		vips:  config.VipsEnabled,
	}, nil
}

func (a *app) Close() error {
	if a.vips {
		extract.ShutdownVips()
	}
	return a.db.Close()
}

// withApp opens the catalog, runs fn, and closes it again.
func withApp(ctx context.Context, opts *options, fn func(*app) error) error {
	a, err := openApp(ctx, opts)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			logging.Warn("failed to close catalog: %v", cerr)
		}
	}()
	return fn(a)
}

func marshalIndent(v interface{}) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
