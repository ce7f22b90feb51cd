package main

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/asset-sync/internal/adapters/driving/http"
)

type runMode string

const (
	modeAll    runMode = "all"
	modeAPI    runMode = "api"
	modeWorker runMode = "worker"
)

func newServeCmd(use, short string, mode runMode) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), mode)
		},
	}
}

// serve runs the API server, the scheduler, or both until a shutdown signal
func serve(parent context.Context, mode runMode) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	logger.Info("asset-sync starting", "version", version, "mode", mode)

	ctx, cancel := signalContext(parent)
	defer cancel()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	g, gctx := errgroup.WithContext(ctx)

	if mode == modeAll || mode == modeWorker {
		if cfg.Scheduler.Enabled {
			if err := a.scheduler.Start(gctx); err != nil {
				return err
			}
			logger.Info("scheduler enabled", "lock_required", cfg.Scheduler.LockRequired)
			g.Go(func() error {
				<-gctx.Done()
				stopCtx, stop := context.WithTimeout(context.Background(), 5*time.Minute)
				defer stop()
				return a.scheduler.Stop(stopCtx)
			})
		} else {
			logger.Info("scheduler disabled via SCHEDULER_ENABLED=false")
			if mode == modeWorker {
				return errors.New("worker mode requires the scheduler to be enabled")
			}
		}
	}

	if mode == modeAll || mode == modeAPI {
		serverCfg := http.Config{
			Host:         cfg.Host,
			Port:         cfg.Port,
			Version:      version,
			CORSOrigins:  cfg.CORSOrigins,
			MaxBodyBytes: cfg.Webhook.MaxBodyBytes,
			Logger:       logger,
		}
		server := http.NewServer(serverCfg, http.Services{
			Auth:         a.authService,
			Integrations: a.integrationService,
			Syncs:        a.syncService,
			Webhooks:     a.webhookIngestor,
		}, a.metrics.Handler(), a.db, a.lock)

		g.Go(func() error {
			return server.Start(gctx)
		})
	}

	err = g.Wait()
	logger.Info("asset-sync stopped")
	return err
}
