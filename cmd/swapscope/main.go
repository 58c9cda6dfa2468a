package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}

	root := &cobra.Command{
		Use:          "swapscope",
		Short:        "Balancer V2 swap route cache and queryBatchSwap previews",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	warmCmd := &cobra.Command{
		Use:   "warm",
		Short: "Resolve and cache routes for every token pair sharing a pool",
		RunE:  runWarm,
	}
	addCommonFlags(warmCmd.Flags())
	warmCmd.Flags().String("routes-out", "./data/routes.jsonl", "route snapshot output JSONL")
	warmCmd.Flags().String("pools-out", "", "optional pool snapshot output JSONL")
	warmCmd.Flags().Bool("persist", false, "store pools and routes in Postgres")
	root.AddCommand(warmCmd)

	queryCmd := &cobra.Command{
		Use:   "query",
		Short: "Preview a taker>maker swap over the cached routes",
		RunE:  runQuery,
	}
	addCommonFlags(queryCmd.Flags())
	queryCmd.Flags().String("taker", "", "token sold")
	queryCmd.Flags().String("maker", "", "token bought")
	queryCmd.Flags().String("amount", "", "trade size in token units (base units with --raw)")
	queryCmd.Flags().String("kind", "in", "swap kind (in, out)")
	queryCmd.Flags().Bool("raw", false, "amounts are in base units")
	queryCmd.Flags().Uint("slippage-bps", 100, "slippage applied to the receive limit")
	queryCmd.Flags().String("routes-out", "", "optional route snapshot output JSONL")
	root.AddCommand(queryCmd)

	batchCmd := &cobra.Command{
		Use:   "batch",
		Short: "Merge routes for several tokens in to one token out and preview the batch",
		RunE:  runBatch,
	}
	addCommonFlags(batchCmd.Flags())
	batchCmd.Flags().StringSlice("tokens-in", nil, "tokens sold (comma-separated)")
	batchCmd.Flags().StringSlice("amounts-in", nil, "amounts sold, same order as tokens-in (comma-separated)")
	batchCmd.Flags().String("token-out", "", "token bought")
	batchCmd.Flags().Bool("raw", false, "amounts are in base units")
	batchCmd.Flags().String("routes-out", "", "optional route snapshot output JSONL")
	root.AddCommand(batchCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addCommonFlags(flags *pflag.FlagSet) {
	flags.String("rpc", "", "RPC URL")
	flags.Uint64("chain-id", 1, "chain id, selects the default subgraph")
	flags.String("vault", "", "Vault address (defaults to the canonical deployment)")
	flags.String("pool-source", "", "pool source (subgraph, file, postgres)")
	flags.String("subgraph", "", "Balancer V2 subgraph URL")
	flags.String("pools-file", "", "pool snapshot JSONL")
	flags.String("pg-dsn", "", "Postgres DSN")
	flags.String("routes-in", "", "route snapshot to restore before resolving")
	flags.Duration("ttl", 30*time.Minute, "route cache TTL")
	flags.Int("max-pools", 4, "candidate paths requested per pair")
	flags.Int("top-routes", 3, "routes kept per pair")
	flags.Int("max-entries", 100000, "maximum cached pairs")
	flags.StringSlice("hop-tokens", nil, "intermediate tokens for two-hop paths (comma-separated, empty means any)")
	flags.Int("max-retries", 3, "maximum retry attempts for pool fetches")
	flags.Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	flags.String("metrics-addr", "", "serve Prometheus metrics on this address")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

// serveMetrics exposes /metrics until ctx is done. An empty addr disables it.
func serveMetrics(ctx context.Context, addr string, logger *zap.Logger) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Info("metrics listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server stopped", zap.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
}
