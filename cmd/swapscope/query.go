package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"swapScope/internal/chain"
	"swapScope/internal/config"
	"swapScope/internal/model"
	"swapScope/internal/quote"
	"swapScope/internal/token"
	"swapScope/internal/vault"
)

// connectVault dials the RPC, checks the chain id and returns a simulator for the Vault.
func connectVault(ctx context.Context, cfg config.Config, logger *zap.Logger) (*chain.Client, *vault.Simulator, error) {
	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect rpc: %w", err)
	}

	chainID, err := chainClient.GetChainID(ctx)
	if err != nil {
		chainClient.Close()
		return nil, nil, fmt.Errorf("chain id: %w", err)
	}
	if chainID.Uint64() != cfg.ChainID {
		chainClient.Close()
		return nil, nil, fmt.Errorf("rpc chain id %d does not match configured chain id %d", chainID.Uint64(), cfg.ChainID)
	}

	vaultAddr := vault.DefaultAddress
	if cfg.Vault != "" {
		if vaultAddr, err = config.ParseAddress(cfg.Vault); err != nil {
			chainClient.Close()
			return nil, nil, err
		}
	}
	if err := chainClient.RequireContract(ctx, vaultAddr); err != nil {
		chainClient.Close()
		return nil, nil, err
	}

	sim, err := vault.NewSimulator(chainClient, vaultAddr, logger)
	if err != nil {
		chainClient.Close()
		return nil, nil, err
	}

	block, err := chainClient.LatestBlockNumber(ctx)
	if err != nil {
		chainClient.Close()
		return nil, nil, fmt.Errorf("latest block: %w", err)
	}
	logger.Info("vault connected",
		zap.Uint64("chain_id", cfg.ChainID),
		zap.String("vault", vaultAddr.Hex()),
		zap.Uint64("block", block),
	)
	return chainClient, sim, nil
}

func runQuery(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadQuery(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	taker, err := config.ParseAddress(cfg.Taker)
	if err != nil {
		return fmt.Errorf("taker: %w", err)
	}
	maker, err := config.ParseAddress(cfg.Maker)
	if err != nil {
		return fmt.Errorf("maker: %w", err)
	}
	if taker == maker {
		return fmt.Errorf("taker and maker must differ")
	}
	kind, err := model.ParseSwapKind(cfg.Kind)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveMetrics(ctx, cfg.MetricsAddr, logger)

	chainClient, sim, err := connectVault(ctx, cfg.Config, logger)
	if err != nil {
		return err
	}
	defer chainClient.Close()

	rt, err := newApp(ctx, cfg.Config, false, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	registry := token.NewRegistry(chainClient, logger)
	amountToken := taker
	if kind == model.GivenOut {
		amountToken = maker
	}
	amount, err := resolveAmount(ctx, registry, amountToken, cfg.Amount, cfg.Raw)
	if err != nil {
		return err
	}

	svc, err := quote.NewService(rt.cache, sim, logger)
	if err != nil {
		return err
	}

	logger.Info("query start",
		zap.String("taker", taker.Hex()),
		zap.String("maker", maker.Hex()),
		zap.Stringer("kind", kind),
		zap.String("amount", amount.String()),
		zap.String("vault", sim.Address().Hex()),
	)

	quotes, err := svc.QueryPair(ctx, taker, maker, kind, amount)
	if err != nil {
		return err
	}
	registry.Seed(rt.pools.Last())

	best, hasBest := quote.Best(kind, quotes)
	d := describer{ctx: ctx, registry: registry, logger: logger}
	out := make([]routeOutput, 0, len(quotes))
	for i, q := range quotes {
		row := routeOutput{
			Index: i,
			Path:  d.path(q.Route),
			Steps: d.steps(q.Route.Assets, q.Route.Steps),
		}
		balances, err := quote.CheckRoutePools(ctx, sim, q.Route)
		if err != nil {
			logger.Warn("route pool check failed", zap.Int("route", i), zap.Error(err))
			row.PoolCheck = err.Error()
		}
		row.Pools = d.pools(balances)
		if q.Err != nil {
			row.Error = q.Err.Error()
			out = append(out, row)
			continue
		}
		row.Best = hasBest && sameRoute(best.Route, q.Route)
		row.AmountIn = d.amount(taker, q.AmountIn)
		row.AmountOut = d.amount(maker, q.AmountOut)
		returnAmount := q.AmountOut
		if kind == model.GivenOut {
			returnAmount = q.AmountIn
		}
		row.Limits = bigStrings(vault.Limits(kind, q.Route.Assets, taker, maker, amount, returnAmount, cfg.SlippageBps))
		out = append(out, row)
	}

	if err := writeJSON(os.Stdout, out); err != nil {
		return err
	}
	return rt.export(ctx, cfg.RoutesOut, logger)
}

func sameRoute(a, b model.Route) bool {
	if len(a.Steps) != len(b.Steps) || len(a.Assets) != len(b.Assets) {
		return false
	}
	for i := range a.Steps {
		if a.Steps[i] != b.Steps[i] {
			return false
		}
	}
	for i := range a.Assets {
		if a.Assets[i] != b.Assets[i] {
			return false
		}
	}
	return true
}

func parseTokens(inputs []string) ([]common.Address, error) {
	tokens, err := config.ParseAddresses(inputs)
	if err != nil {
		return nil, err
	}
	seen := make(map[common.Address]struct{}, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			return nil, fmt.Errorf("duplicate token %s", t.Hex())
		}
		seen[t] = struct{}{}
	}
	return tokens, nil
}
