package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"swapScope/internal/config"
	"swapScope/internal/model"
	"swapScope/internal/pooldata"
	"swapScope/internal/sor"
	"swapScope/internal/storage"
	"swapScope/internal/storage/postgres"
	"swapScope/internal/swapinfo"
)

// recordingSource keeps the last pool set so commands can export or seed from it.
type recordingSource struct {
	inner swapinfo.PoolSource

	mu    sync.Mutex
	pools []model.Pool
}

func (r *recordingSource) GetPools(ctx context.Context) ([]model.Pool, error) {
	pools, err := r.inner.GetPools(ctx)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.pools = pools
	r.mu.Unlock()
	return pools, nil
}

func (r *recordingSource) Last() []model.Pool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pools
}

type app struct {
	cache   *swapinfo.Cache
	pools   *recordingSource
	store   *postgres.Store
	cleanup []func()
}

func (r *app) Close() {
	for i := len(r.cleanup) - 1; i >= 0; i-- {
		r.cleanup[i]()
	}
}

// newApp wires the pool source, route proposer and pair cache for a command.
func newApp(ctx context.Context, cfg config.Config, needStore bool, logger *zap.Logger) (*app, error) {
	rt := &app{}

	if needStore || cfg.PoolSource == config.PoolSourcePostgres {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		rt.cleanup = append(rt.cleanup, store.Close)
		if err := store.EnsureSchema(ctx); err != nil {
			rt.Close()
			return nil, err
		}
		rt.store = store
	}

	source, err := newPoolSource(cfg, rt.store, logger)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.pools = &recordingSource{inner: source}

	hopTokens, err := config.ParseAddresses(cfg.HopTokens)
	if err != nil {
		rt.Close()
		return nil, err
	}

	cache, err := swapinfo.New(swapinfo.Config{
		ChainID:    cfg.ChainID,
		TTL:        cfg.TTL,
		MaxPools:   cfg.MaxPools,
		TopRoutes:  cfg.TopRoutes,
		MaxEntries: cfg.MaxEntries,
	}, rt.pools, sor.HopProposer{HopTokens: hopTokens}, logger)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.cache = cache

	if err := rt.restore(ctx, cfg, logger); err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

func newPoolSource(cfg config.Config, store *postgres.Store, logger *zap.Logger) (swapinfo.PoolSource, error) {
	switch cfg.PoolSource {
	case config.PoolSourceFile:
		return pooldata.NewFile(cfg.PoolsFile), nil
	case config.PoolSourcePostgres:
		return pooldata.NewStored(store, cfg.ChainID), nil
	default:
		url := cfg.SubgraphURL
		if url == "" {
			url = pooldata.SubgraphURLByChain[cfg.ChainID]
		}
		if url == "" {
			return nil, fmt.Errorf("no subgraph url for chain %d", cfg.ChainID)
		}
		return pooldata.NewSubgraph(url, pooldata.SubgraphOptions{
			Retry: pooldata.RetryPolicy{
				MaxRetries: cfg.MaxRetries,
				BaseDelay:  cfg.RetryBackoff,
				MaxDelay:   30 * time.Second,
			},
		}, logger)
	}
}

// restore loads still-valid routes from the snapshot file and the database.
func (r *app) restore(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	if cfg.RoutesIn != "" {
		records, err := storage.ReadRoutes(cfg.RoutesIn)
		if err != nil {
			return err
		}
		restored := r.cache.Restore(records)
		logger.Info("routes restored", zap.String("from", cfg.RoutesIn), zap.Int("records", len(records)), zap.Int("restored", restored))
	}
	if r.store != nil {
		records, err := r.store.LoadRoutes(ctx, cfg.ChainID, time.Now())
		if err != nil {
			return err
		}
		restored := r.cache.Restore(records)
		logger.Info("routes restored", zap.String("from", "postgres"), zap.Int("restored", restored))
	}
	return nil
}

// export writes the cache snapshot to routesOut when set.
func (r *app) export(ctx context.Context, routesOut string, logger *zap.Logger) error {
	if routesOut == "" {
		return nil
	}
	records := r.cache.Snapshot()
	var sink storage.RouteSink = storage.NewJsonlStorage(routesOut)
	if err := sink.PutRoutes(ctx, records); err != nil {
		return err
	}
	logger.Info("routes exported", zap.String("out", routesOut), zap.Int("records", len(records)))
	return nil
}
