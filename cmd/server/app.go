package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/warp/manhour-engine/config"
	"github.com/warp/manhour-engine/generic"
	"github.com/warp/manhour-engine/manhour"
	"github.com/warp/manhour-engine/store/sqlite"
)

// options are the persistent flags shared by every command.
type options struct {
	envFile  string
	dbPath   string
	driver   string
	timezone string
}

// app is the wired service graph.
type app struct {
	cfg      config.Config
	cal      generic.Calendar
	store    *sqlite.Store
	orch     *manhour.Orchestrator
	recorder *manhour.Recorder
	logger   *log.Logger
}

func openApp(ctx context.Context, opts *options) (*app, error) {
	cfg, err := config.Load(opts.envFile)
	if err != nil {
		return nil, err
	}
	if opts.dbPath != "" {
		cfg.DBPath = opts.dbPath
	}
	if opts.driver != "" {
		cfg.DBDriver = opts.driver
	}
	if opts.timezone != "" {
		cfg.Timezone = opts.timezone
	}

	cal, err := cfg.Calendar()
	if err != nil {
		return nil, err
	}
	driver, err := sqlite.ParseDriver(cfg.DBDriver)
	if err != nil {
		return nil, err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	store, err := sqlite.Open(ctx, driver, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	logger := log.New(os.Stderr, "", log.LstdFlags)

	orch := manhour.NewOrchestrator(store, cal, logger)
	orch.Workers = cfg.Workers
	orch.Aggregator.DeductBreaks = cfg.DeductBreaks

	recorder, err := manhour.NewRecorder(store, cfg.NodeID)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &app{
		cfg:      cfg,
		cal:      cal,
		store:    store,
		orch:     orch,
		recorder: recorder,
		logger:   logger,
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Printf("Failed to close database: %v", err)
	}
}
