package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"swapScope/internal/config"
	"swapScope/internal/quote"
	"swapScope/internal/token"
)

func runBatch(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadBatch(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	tokensIn, err := parseTokens(cfg.TokensIn)
	if err != nil {
		return fmt.Errorf("tokens-in: %w", err)
	}
	tokenOut, err := config.ParseAddress(cfg.TokenOut)
	if err != nil {
		return fmt.Errorf("token-out: %w", err)
	}
	for _, t := range tokensIn {
		if t == tokenOut {
			return fmt.Errorf("token-out %s is also a token in", tokenOut.Hex())
		}
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
	amountsIn := make([]*big.Int, 0, len(tokensIn))
	for i, t := range tokensIn {
		amount, err := resolveAmount(ctx, registry, t, cfg.AmountsIn[i], cfg.Raw)
		if err != nil {
			return err
		}
		amountsIn = append(amountsIn, amount)
	}

	svc, err := quote.NewService(rt.cache, sim, logger)
	if err != nil {
		return err
	}

	logger.Info("batch start",
		zap.Int("tokens_in", len(tokensIn)),
		zap.String("token_out", tokenOut.Hex()),
		zap.String("vault", sim.Address().Hex()),
	)

	result, err := svc.QueryTokensIn(ctx, tokensIn, amountsIn, tokenOut)
	if err != nil {
		return err
	}
	registry.Seed(rt.pools.Last())

	d := describer{ctx: ctx, registry: registry, logger: logger}
	assets := make([]string, 0, len(result.Batch.Assets))
	for _, asset := range result.Batch.Assets {
		assets = append(assets, d.label(asset))
	}
	if err := writeJSON(os.Stdout, batchOutput{
		Assets:    assets,
		Steps:     d.steps(result.Batch.Assets, result.Batch.Steps),
		Deltas:    bigStrings(result.Deltas),
		TokenOut:  d.label(tokenOut),
		AmountOut: d.amount(tokenOut, result.AmountOut),
	}); err != nil {
		return err
	}
	return rt.export(ctx, cfg.RoutesOut, logger)
}
