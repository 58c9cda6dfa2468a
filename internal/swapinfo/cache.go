package swapinfo

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"swapScope/internal/model"
	"swapScope/internal/sor"
	"swapScope/internal/telemetry"
)

const (
	DefaultTTL        = 30 * time.Minute
	DefaultTopRoutes  = 3
	DefaultMaxEntries = 100_000
	// DefaultFetchTimeout bounds a shared route fetch once it no longer follows a caller's context.
	DefaultFetchTimeout = 2 * time.Minute
)

// PoolSource supplies the full pool dataset.
type PoolSource interface {
	GetPools(ctx context.Context) ([]model.Pool, error)
}

// RouteProposer returns candidate paths ranked most liquid first.
type RouteProposer interface {
	CandidatePaths(tokenIn, tokenOut common.Address, graph *sor.PoolGraph, maxPools int) ([]sor.Path, error)
}

// Config controls cache behaviour.
type Config struct {
	ChainID    uint64
	TTL        time.Duration
	MaxPools   int
	TopRoutes  int
	MaxEntries int
	// FetchTimeout bounds one shared fetch. Zero selects DefaultFetchTimeout.
	FetchTimeout time.Duration
	Now          func() time.Time
}

// Entry is one cached pair. Entries are replaced whole, never edited.
type Entry struct {
	Pair      model.PairKey
	ExpiresAt time.Time
	Routes    []model.Route
}

// Expired reports whether the entry is stale at now.
func (e Entry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// Cache holds swap routes per directional token pair.
type Cache struct {
	cfg      Config
	pools    PoolSource
	proposer RouteProposer
	logger   *zap.Logger
	entries  *lru.Cache[model.PairKey, Entry]
	inflight singleflight.Group
}

// New builds a cache. Zero config values fall back to the defaults.
func New(cfg Config, pools PoolSource, proposer RouteProposer, logger *zap.Logger) (*Cache, error) {
	if pools == nil {
		return nil, fmt.Errorf("pool source is nil")
	}
	if proposer == nil {
		return nil, fmt.Errorf("route proposer is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.MaxPools <= 0 {
		cfg.MaxPools = sor.DefaultMaxPools
	}
	if cfg.TopRoutes <= 0 {
		cfg.TopRoutes = DefaultTopRoutes
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultMaxEntries
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	entries, err := lru.New[model.PairKey, Entry](cfg.MaxEntries)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}

	return &Cache{
		cfg:      cfg,
		pools:    pools,
		proposer: proposer,
		logger:   logger,
		entries:  entries,
	}, nil
}

// Get returns cached routes without doing I/O.
//
// With ignoreExpired the routes are returned whatever their age, and a missing pair
// yields an empty slice. Without it, missing and expired pairs both return (nil, false).
func (c *Cache) Get(taker, maker common.Address, ignoreExpired bool) ([]model.Route, bool) {
	entry, ok := c.entries.Get(model.PairKey{Taker: taker, Maker: maker})
	if !ok {
		telemetry.PairCacheMisses.WithLabelValues(telemetry.CacheGetLabel).Inc()
		if ignoreExpired {
			return []model.Route{}, false
		}
		return nil, false
	}
	if !ignoreExpired && entry.Expired(c.cfg.Now()) {
		telemetry.PairCacheMisses.WithLabelValues(telemetry.CacheGetLabel).Inc()
		return nil, false
	}

	telemetry.PairCacheHits.WithLabelValues(telemetry.CacheGetLabel).Inc()
	return model.CloneRoutes(entry.Routes), true
}

// Resolve returns fresh routes for the pair, fetching when the entry is missing or expired.
// It never fails: discovery errors are logged and yield an empty list.
func (c *Cache) Resolve(ctx context.Context, taker, maker common.Address) []model.Route {
	routes, err := c.TryResolve(ctx, taker, maker)
	if err != nil {
		c.logger.Warn("route discovery failed",
			zap.String("taker", taker.Hex()),
			zap.String("maker", maker.Hex()),
			zap.Error(err),
		)
		return []model.Route{}
	}
	return routes
}

// TryResolve behaves like Resolve but reports the *RouteDiscoveryError.
// Concurrent misses for the same pair share one fetch. The shared fetch does not follow
// any single caller's cancellation; each caller stops waiting when its own ctx is done.
// A failed fetch leaves any previous entry in place.
func (c *Cache) TryResolve(ctx context.Context, taker, maker common.Address) ([]model.Route, error) {
	key := model.PairKey{Taker: taker, Maker: maker}
	if entry, ok := c.entries.Get(key); ok && !entry.Expired(c.cfg.Now()) {
		telemetry.PairCacheHits.WithLabelValues(telemetry.CacheResolveLabel).Inc()
		return model.CloneRoutes(entry.Routes), nil
	}
	telemetry.PairCacheMisses.WithLabelValues(telemetry.CacheResolveLabel).Inc()

	results := c.inflight.DoChan(key.String(), func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.FetchTimeout)
		defer cancel()

		routes, err := c.fetchPair(fetchCtx, key)
		if err != nil {
			return nil, err
		}
		c.store(key, routes)
		return routes, nil
	})

	select {
	case <-ctx.Done():
		return []model.Route{}, &RouteDiscoveryError{Pair: key, Cause: ctx.Err()}
	case res := <-results:
		if res.Err != nil {
			return []model.Route{}, res.Err
		}
		return model.CloneRoutes(res.Val.([]model.Route)), nil
	}
}

func (c *Cache) fetchPair(ctx context.Context, key model.PairKey) ([]model.Route, error) {
	started := time.Now()
	pools, err := c.pools.GetPools(ctx)
	if err != nil {
		telemetry.RouteDiscoveryErrors.Inc()
		return nil, &RouteDiscoveryError{Pair: key, Cause: fmt.Errorf("fetch pools: %w", err)}
	}
	c.logger.Debug("pools fetched", zap.Int("pools", len(pools)), zap.Duration("took", time.Since(started)))

	return c.discover(sor.NewPoolGraph(pools), key)
}

func (c *Cache) discover(graph *sor.PoolGraph, key model.PairKey) ([]model.Route, error) {
	paths, err := c.proposer.CandidatePaths(key.Taker, key.Maker, graph, c.cfg.MaxPools)
	if err != nil {
		telemetry.RouteDiscoveryErrors.Inc()
		return nil, &RouteDiscoveryError{Pair: key, Cause: err}
	}
	if len(paths) > c.cfg.TopRoutes {
		paths = paths[:c.cfg.TopRoutes]
	}
	return sor.FormatPaths(paths), nil
}

func (c *Cache) store(key model.PairKey, routes []model.Route) {
	if routes == nil {
		routes = []model.Route{}
	}
	c.entries.Add(key, Entry{
		Pair:      key,
		ExpiresAt: c.cfg.Now().Add(c.cfg.TTL),
		Routes:    model.CloneRoutes(routes),
	})
}

// Evict drops one pair. It reports whether the pair was cached.
func (c *Cache) Evict(taker, maker common.Address) bool {
	return c.entries.Remove(model.PairKey{Taker: taker, Maker: maker})
}

// Clear drops every pair.
func (c *Cache) Clear() {
	c.entries.Purge()
}

// Len returns the number of cached pairs, stale ones included.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// Snapshot exports the cached pairs, oldest first.
func (c *Cache) Snapshot() []model.RouteRecord {
	keys := c.entries.Keys()
	records := make([]model.RouteRecord, 0, len(keys))
	for _, key := range keys {
		entry, ok := c.entries.Peek(key)
		if !ok {
			continue
		}
		records = append(records, model.RouteRecord{
			ChainID:    c.cfg.ChainID,
			TakerToken: key.Taker.Hex(),
			MakerToken: key.Maker.Hex(),
			ExpiresAt:  entry.ExpiresAt.UTC(),
			Routes:     model.CloneRoutes(entry.Routes),
		})
	}
	return records
}

// Restore loads exported pairs. Expired records and records for another chain are skipped.
func (c *Cache) Restore(records []model.RouteRecord) int {
	now := c.cfg.Now()
	restored := 0
	for _, record := range records {
		if c.cfg.ChainID != 0 && record.ChainID != 0 && record.ChainID != c.cfg.ChainID {
			continue
		}
		if !now.Before(record.ExpiresAt) {
			continue
		}
		if !common.IsHexAddress(record.TakerToken) || !common.IsHexAddress(record.MakerToken) {
			c.logger.Warn("skip record with invalid pair",
				zap.String("taker", record.TakerToken),
				zap.String("maker", record.MakerToken),
			)
			continue
		}
		key := model.NewPairKey(record.TakerToken, record.MakerToken)
		c.entries.Add(key, Entry{
			Pair:      key,
			ExpiresAt: record.ExpiresAt,
			Routes:    model.CloneRoutes(record.Routes),
		})
		restored++
	}
	return restored
}
