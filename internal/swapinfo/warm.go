package swapinfo

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"swapScope/internal/model"
	"swapScope/internal/sor"
	"swapScope/internal/telemetry"
)

// WarmupReport summarises a WarmAll pass.
type WarmupReport struct {
	Pools    int
	Pairs    int
	Cached   int
	Failed   int
	Duration time.Duration
}

// WarmAll fetches pools once and caches routes for every ordered pair of distinct tokens
// sharing a pool. The first pool to produce a pair wins for the pass. A failing pair is
// recorded and the pass carries on; the failures come back as *WarmupPartialFailure.
func (c *Cache) WarmAll(ctx context.Context) (WarmupReport, error) {
	started := time.Now()
	report := WarmupReport{}

	c.logger.Info("warm-up start")

	pools, err := c.pools.GetPools(ctx)
	if err != nil {
		telemetry.RouteDiscoveryErrors.Inc()
		return report, &RouteDiscoveryError{Cause: fmt.Errorf("fetch pools: %w", err)}
	}
	report.Pools = len(pools)
	graph := sor.NewPoolGraph(pools)

	seen := make(map[model.PairKey]struct{})
	var (
		failed []model.PairKey
		errs   error
	)

	for _, pool := range pools {
		tokens := pool.TokenAddresses()
		for _, from := range tokens {
			for _, to := range tokens {
				if from == to {
					continue
				}
				key := model.PairKey{Taker: from, Maker: to}
				if _, ok := seen[key]; ok {
					continue
				}
				seen[key] = struct{}{}

				select {
				case <-ctx.Done():
					report.Duration = time.Since(started)
					return report, ctx.Err()
				default:
				}

				report.Pairs++
				routes, err := c.discover(graph, key)
				if err != nil {
					report.Failed++
					failed = append(failed, key)
					errs = multierr.Append(errs, err)
					c.logger.Warn("warm-up pair failed", zap.Stringer("pair", key), zap.Error(err))
					continue
				}
				c.store(key, routes)
				report.Cached++
			}
		}
	}

	report.Duration = time.Since(started)
	telemetry.WarmupDuration.Set(report.Duration.Seconds())

	c.logger.Info("warm-up complete",
		zap.Int("pools", report.Pools),
		zap.Int("pairs", report.Pairs),
		zap.Int("cached", report.Cached),
		zap.Int("failed", report.Failed),
		zap.Duration("took", report.Duration),
	)

	if len(failed) > 0 {
		return report, &WarmupPartialFailure{FailedPairs: failed, Err: errs}
	}
	return report, nil
}
