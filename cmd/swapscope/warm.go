package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"swapScope/internal/config"
	"swapScope/internal/storage"
	"swapScope/internal/swapinfo"
)

func runWarm(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadWarm(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveMetrics(ctx, cfg.MetricsAddr, logger)

	rt, err := newApp(ctx, cfg.Config, cfg.Persist, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	logger.Info("warm start",
		zap.Uint64("chain_id", cfg.ChainID),
		zap.String("pool_source", cfg.PoolSource),
		zap.Duration("ttl", cfg.TTL),
		zap.Int("max_pools", cfg.MaxPools),
		zap.Int("top_routes", cfg.TopRoutes),
		zap.String("routes_out", cfg.RoutesOut),
		zap.Bool("persist", cfg.Persist),
	)

	report, err := rt.cache.WarmAll(ctx)
	var partial *swapinfo.WarmupPartialFailure
	switch {
	case errors.As(err, &partial):
		logger.Warn("warm-up finished with failures",
			zap.Int("failed_pairs", len(partial.FailedPairs)),
			zap.Error(partial.Err),
		)
	case err != nil:
		return err
	}

	if err := rt.export(ctx, cfg.RoutesOut, logger); err != nil {
		return err
	}

	pools := rt.pools.Last()
	if cfg.PoolsOut != "" {
		var sink storage.PoolSink = storage.NewJsonlStorage(cfg.PoolsOut)
		if err := sink.PutPools(ctx, pools); err != nil {
			return err
		}
		logger.Info("pools exported", zap.String("out", cfg.PoolsOut), zap.Int("pools", len(pools)))
	}

	if cfg.Persist {
		if cfg.PoolSource != config.PoolSourcePostgres {
			if err := rt.store.UpsertPools(ctx, cfg.ChainID, pools); err != nil {
				return err
			}
		}
		if err := rt.store.UpsertRoutes(ctx, rt.cache.Snapshot()); err != nil {
			return err
		}
		deleted, err := rt.store.DeleteExpiredRoutes(ctx, cfg.ChainID, time.Now())
		if err != nil {
			return err
		}
		logger.Info("postgres updated", zap.Int("pools", len(pools)), zap.Int64("expired_deleted", deleted))
	}

	logger.Info("warm done",
		zap.Int("pools", report.Pools),
		zap.Int("pairs", report.Pairs),
		zap.Int("cached", report.Cached),
		zap.Int("failed", report.Failed),
		zap.Duration("took", report.Duration),
	)
	return nil
}
