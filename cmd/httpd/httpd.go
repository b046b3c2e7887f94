// Package httpd implements the HTTP server command. It exposes the
// batch API and keeps the response cache swept on a schedule.
package httpd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/partscout/partscout/cmd/common"
	"github.com/partscout/partscout/internal/api"
)

const (
	errorChannelBufferSize = 1
	defaultShutdownTimeout = 30 * time.Second
)

// Command returns the httpd command.
func Command(cfgFile *string, debug *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "httpd",
		Short: "Run the batch fetch HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := common.NewCommandDeps(*cfgFile, *debug)
			if err != nil {
				return err
			}
			return run(deps)
		},
	}
}

func run(deps *common.CommandDeps) error {
	server := api.NewServer(api.Params{
		Config:    deps.Config.GetServerConfig(),
		Logger:    deps.Logger,
		Scheduler: deps.Scheduler,
		Cache:     deps.Cache,
	})

	sweeper, err := startSweeper(deps)
	if err != nil {
		return err
	}
	defer sweeper.Stop()

	errChan := make(chan error, errorChannelBufferSize)
	go func() {
		errChan <- server.Start()
	}()

	return runUntilInterrupt(deps, server, errChan)
}

// startSweeper schedules periodic expired-entry sweeps.
func startSweeper(deps *common.CommandDeps) (*cron.Cron, error) {
	schedule := deps.Config.GetCacheConfig().SweepSchedule
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		removed := deps.Cache.Sweep()
		if removed > 0 {
			deps.Logger.Info("cache sweep", "removed", removed)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	c.Start()
	return c, nil
}

// runUntilInterrupt blocks until the server fails or a shutdown signal
// arrives, then shuts down gracefully.
func runUntilInterrupt(deps *common.CommandDeps, server *api.Server, errChan <-chan error) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case sig := <-sigChan:
		deps.Logger.Info("shutdown signal received", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
