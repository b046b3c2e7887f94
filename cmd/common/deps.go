// Package common provides shared utilities for command implementations.
package common

import (
	"fmt"

	"github.com/partscout/partscout/internal/cache"
	"github.com/partscout/partscout/internal/config"
	"github.com/partscout/partscout/internal/fetch"
	"github.com/partscout/partscout/internal/logger"
	"github.com/partscout/partscout/internal/relevance"
	"github.com/partscout/partscout/internal/retry"
	"github.com/partscout/partscout/internal/scheduler"
)

// CommandDeps holds common dependencies for all commands.
// Use this instead of context.Value for type-safe dependency injection.
type CommandDeps struct {
	Logger    logger.Interface
	Config    config.Interface
	Cache     *cache.Store
	Scheduler *scheduler.Scheduler
}

// Validate ensures all required dependencies are present.
func (d CommandDeps) Validate() error {
	if d.Logger == nil {
		return fmt.Errorf("%w: %w", ErrInvalidDeps, ErrLoggerRequired)
	}
	if d.Config == nil {
		return fmt.Errorf("%w: %w", ErrInvalidDeps, ErrConfigRequired)
	}
	if d.Cache == nil {
		return fmt.Errorf("%w: %w", ErrInvalidDeps, ErrCacheRequired)
	}
	if d.Scheduler == nil {
		return fmt.Errorf("%w: %w", ErrInvalidDeps, ErrSchedulerRequired)
	}
	return nil
}

// NewCommandDeps loads configuration and builds the full dependency
// chain: logger, cache store, marketplace client, scheduler.
func NewCommandDeps(cfgFile string, debug bool) (*CommandDeps, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if debug {
		cfg.Logging.Level = "debug"
		cfg.Logging.Development = true
	}
	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	log, err := logger.New(cfg.GetLoggerConfig())
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	cacheCfg := cfg.GetCacheConfig()
	store, err := cache.New(cache.Options{
		Dir:      cacheCfg.Dir,
		MaxBytes: cacheCfg.MaxBytes,
	}, log.WithComponent("cache"))
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}

	client, err := fetch.NewTorob(*cfg.GetFetchConfig(), log.WithComponent("fetch"))
	if err != nil {
		return nil, fmt.Errorf("create marketplace client: %w", err)
	}

	schedCfg := cfg.GetSchedulerConfig()
	sched := scheduler.New(client, store, log, scheduler.Config{
		MaxWorkers:   schedCfg.MaxWorkers,
		PaceDelay:    schedCfg.PaceDelay,
		BatchTimeout: schedCfg.BatchTimeout,
		CacheTTL:     cacheCfg.TTL,
		Retry: retry.Policy{
			MaxAttempts:  schedCfg.Retry.MaxAttempts,
			InitialDelay: schedCfg.Retry.InitialDelay,
			MaxDelay:     schedCfg.Retry.MaxDelay,
		},
		Filter: relevance.Options{
			MinScore:     schedCfg.MinScore,
			CandidateCap: schedCfg.CandidateCap,
		},
	})

	deps := &CommandDeps{
		Logger:    log,
		Config:    cfg,
		Cache:     store,
		Scheduler: sched,
	}
	if err = deps.Validate(); err != nil {
		return nil, err
	}
	return deps, nil
}
