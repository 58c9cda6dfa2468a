// Package batch merges independently discovered routes into one Vault batch.
package batch

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"swapScope/internal/model"
)

// TokenAmount sets the trade size for every step touching Token.
type TokenAmount struct {
	Token  common.Address
	Amount *big.Int
}

// Merge builds one batch from several routes. Assets are unioned in first-seen order
// and each step's local indices are remapped into the unified list. Steps keep the
// input order. The input routes are left untouched.
func Merge(routes []model.Route) (model.BatchedRoute, error) {
	batched := model.BatchedRoute{
		Assets: []common.Address{},
		Steps:  []model.SwapStep{},
	}
	index := make(map[common.Address]int)

	for _, route := range routes {
		for _, asset := range route.Assets {
			if _, ok := index[asset]; ok {
				continue
			}
			index[asset] = len(batched.Assets)
			batched.Assets = append(batched.Assets, asset)
		}
	}

	for r, route := range routes {
		for s, step := range route.Steps {
			if step.AssetInIndex < 0 || step.AssetInIndex >= len(route.Assets) {
				return model.BatchedRoute{}, fmt.Errorf("route %d step %d: asset in index %d out of range", r, s, step.AssetInIndex)
			}
			if step.AssetOutIndex < 0 || step.AssetOutIndex >= len(route.Assets) {
				return model.BatchedRoute{}, fmt.Errorf("route %d step %d: asset out index %d out of range", r, s, step.AssetOutIndex)
			}
			step.AssetInIndex = index[route.Assets[step.AssetInIndex]]
			step.AssetOutIndex = index[route.Assets[step.AssetOutIndex]]
			batched.Steps = append(batched.Steps, step)
		}
	}

	return batched, nil
}

// UpdateAmounts returns a copy of batched with new trade sizes. A step whose input or
// output asset is a listed token takes that token's amount; later entries win. Tokens
// missing from the asset list are ignored.
func UpdateAmounts(batched model.BatchedRoute, amounts []TokenAmount) model.BatchedRoute {
	out := batched.Clone()
	for _, ta := range amounts {
		idx := out.IndexOf(ta.Token)
		if idx < 0 || ta.Amount == nil {
			continue
		}
		amount := ta.Amount.String()
		for i := range out.Steps {
			if out.Steps[i].AssetInIndex == idx || out.Steps[i].AssetOutIndex == idx {
				out.Steps[i].Amount = amount
			}
		}
	}
	return out
}

// AssetDelta returns the Vault delta for token. Positive means the Vault receives.
func AssetDelta(batched model.BatchedRoute, deltas []*big.Int, token common.Address) (*big.Int, error) {
	idx := batched.IndexOf(token)
	if idx < 0 {
		return nil, fmt.Errorf("token %s not in batch", token.Hex())
	}
	if idx >= len(deltas) || deltas[idx] == nil {
		return nil, fmt.Errorf("no delta for token %s at index %d", token.Hex(), idx)
	}
	return new(big.Int).Set(deltas[idx]), nil
}

// AsRoute views the batch as a single route for validation and simulation.
func AsRoute(batched model.BatchedRoute) model.Route {
	return model.Route{Assets: batched.Assets, Steps: batched.Steps}
}
