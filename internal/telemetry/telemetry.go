package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	// CacheGetLabel marks synchronous reads from the pair cache.
	CacheGetLabel = "get"
	// CacheResolveLabel marks reads that may trigger a fetch.
	CacheResolveLabel = "resolve"
)

var (
	// swapscope_pair_cache_hits_total
	//
	// counter of pair cache lookups served from memory
	//
	// Has the following labels:
	// * op - get or resolve
	PairCacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swapscope_pair_cache_hits_total",
			Help: "Total number of pair cache hits",
		},
		[]string{"op"},
	)

	// swapscope_pair_cache_misses_total
	//
	// counter of pair cache lookups that found nothing usable
	PairCacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swapscope_pair_cache_misses_total",
			Help: "Total number of pair cache misses",
		},
		[]string{"op"},
	)

	// swapscope_route_discovery_errors_total
	RouteDiscoveryErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "swapscope_route_discovery_errors_total",
			Help: "Total number of failed route discoveries",
		},
	)

	// swapscope_simulation_errors_total
	SimulationErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "swapscope_simulation_errors_total",
			Help: "Total number of failed queryBatchSwap simulations",
		},
	)

	// swapscope_warmup_duration_seconds
	//
	// gauge holding the duration of the last full warm-up pass
	WarmupDuration = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "swapscope_warmup_duration_seconds",
			Help: "Duration of the last pair cache warm-up",
		},
	)
)

func init() {
	prometheus.MustRegister(PairCacheHits)
	prometheus.MustRegister(PairCacheMisses)
	prometheus.MustRegister(RouteDiscoveryErrors)
	prometheus.MustRegister(SimulationErrors)
	prometheus.MustRegister(WarmupDuration)
}
