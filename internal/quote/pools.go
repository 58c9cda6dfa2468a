package quote

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"swapScope/internal/model"
	"swapScope/internal/vault"
)

// PoolReader reads registered tokens and balances. *vault.Simulator satisfies it.
type PoolReader interface {
	GetPoolTokens(ctx context.Context, poolID string) (vault.PoolTokens, error)
}

// PoolBalance is the on-chain state of one pool used by a route.
type PoolBalance struct {
	PoolID   string
	Tokens   []common.Address
	Balances []*big.Int
}

// BalanceOf returns the pool balance of token.
func (p PoolBalance) BalanceOf(token common.Address) (*big.Int, bool) {
	for i, t := range p.Tokens {
		if t == token && i < len(p.Balances) && p.Balances[i] != nil {
			return p.Balances[i], true
		}
	}
	return nil, false
}

// CheckRoutePools reads each pool of route once, in step order. It fails on the first
// pool that is not registered, or that does not hold a positive balance of a token the
// route swaps through it. The balances read so far are returned either way.
func CheckRoutePools(ctx context.Context, reader PoolReader, route model.Route) ([]PoolBalance, error) {
	if err := route.Validate(); err != nil {
		return nil, err
	}

	index := make(map[string]int, len(route.Steps))
	out := make([]PoolBalance, 0, len(route.Steps))
	for i, step := range route.Steps {
		at, ok := index[step.PoolID]
		if !ok {
			state, err := reader.GetPoolTokens(ctx, step.PoolID)
			if err != nil {
				return out, fmt.Errorf("pool %s: %w", step.PoolID, err)
			}
			if len(state.Tokens) == 0 {
				return out, fmt.Errorf("pool %s: not registered", step.PoolID)
			}
			out = append(out, PoolBalance{PoolID: step.PoolID, Tokens: state.Tokens, Balances: state.Balances})
			at = len(out) - 1
			index[step.PoolID] = at
		}

		for _, asset := range []common.Address{route.Assets[step.AssetInIndex], route.Assets[step.AssetOutIndex]} {
			balance, ok := out[at].BalanceOf(asset)
			if !ok {
				return out, fmt.Errorf("step %d: pool %s does not hold %s", i, step.PoolID, asset.Hex())
			}
			if balance.Sign() <= 0 {
				return out, fmt.Errorf("step %d: pool %s has no %s balance", i, step.PoolID, asset.Hex())
			}
		}
	}
	return out, nil
}
