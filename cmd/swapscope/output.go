package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"swapScope/internal/model"
	"swapScope/internal/quote"
	"swapScope/internal/token"
)

type stepOutput struct {
	PoolID   string `json:"pool_id"`
	AssetIn  string `json:"asset_in"`
	AssetOut string `json:"asset_out"`
	Amount   string `json:"amount"`
}

type poolOutput struct {
	PoolID   string            `json:"pool_id"`
	Balances map[string]string `json:"balances"`
}

type routeOutput struct {
	Index     int          `json:"index"`
	Best      bool         `json:"best,omitempty"`
	Path      string       `json:"path"`
	Steps     []stepOutput `json:"steps"`
	AmountIn  string       `json:"amount_in,omitempty"`
	AmountOut string       `json:"amount_out,omitempty"`
	Limits    []string     `json:"limits,omitempty"`
	Pools     []poolOutput `json:"pools,omitempty"`
	PoolCheck string       `json:"pool_check,omitempty"`
	Error     string       `json:"error,omitempty"`
}

type batchOutput struct {
	Assets    []string     `json:"assets"`
	Steps     []stepOutput `json:"steps"`
	Deltas    []string     `json:"deltas"`
	TokenOut  string       `json:"token_out"`
	AmountOut string       `json:"amount_out"`
}

func writeJSON(w io.Writer, value interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

// resolveAmount converts a CLI amount into base units of tokenAddr.
func resolveAmount(ctx context.Context, registry *token.Registry, tokenAddr common.Address, input string, raw bool) (*big.Int, error) {
	if raw {
		value, ok := new(big.Int).SetString(strings.TrimSpace(input), 10)
		if !ok || value.Sign() <= 0 {
			return nil, fmt.Errorf("invalid raw amount %q", input)
		}
		return value, nil
	}
	meta, err := registry.Lookup(ctx, tokenAddr)
	if err != nil {
		return nil, fmt.Errorf("token %s metadata: %w", tokenAddr.Hex(), err)
	}
	return token.ParseAmount(input, meta.Decimals)
}

// describer formats tokens and amounts with metadata when available.
type describer struct {
	ctx      context.Context
	registry *token.Registry
	logger   *zap.Logger
}

func (d describer) meta(address common.Address) (model.TokenMeta, bool) {
	meta, err := d.registry.Lookup(d.ctx, address)
	if err != nil {
		d.logger.Debug("token metadata unavailable", zap.String("token", address.Hex()), zap.Error(err))
		return model.TokenMeta{Address: address}, false
	}
	return meta, true
}

func (d describer) label(address common.Address) string {
	meta, _ := d.meta(address)
	return meta.Label()
}

func (d describer) amount(address common.Address, value *big.Int) string {
	if value == nil {
		return ""
	}
	meta, ok := d.meta(address)
	if !ok {
		return value.String()
	}
	return token.FormatAmount(value, meta.Decimals)
}

func (d describer) steps(assets []common.Address, steps []model.SwapStep) []stepOutput {
	out := make([]stepOutput, 0, len(steps))
	for _, step := range steps {
		out = append(out, stepOutput{
			PoolID:   step.PoolID,
			AssetIn:  d.label(assets[step.AssetInIndex]),
			AssetOut: d.label(assets[step.AssetOutIndex]),
			Amount:   step.Amount,
		})
	}
	return out
}

func (d describer) pools(balances []quote.PoolBalance) []poolOutput {
	out := make([]poolOutput, 0, len(balances))
	for _, pool := range balances {
		row := poolOutput{PoolID: pool.PoolID, Balances: make(map[string]string, len(pool.Tokens))}
		for _, t := range pool.Tokens {
			balance, ok := pool.BalanceOf(t)
			if !ok {
				continue
			}
			row.Balances[d.label(t)] = d.amount(t, balance)
		}
		out = append(out, row)
	}
	return out
}

func (d describer) path(route model.Route) string {
	labels := make([]string, 0, len(route.Assets))
	for _, asset := range route.Assets {
		labels = append(labels, d.label(asset))
	}
	return strings.Join(labels, " > ")
}

func bigStrings(values []*big.Int) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == nil {
			out = append(out, "0")
			continue
		}
		out = append(out, v.String())
	}
	return out
}
