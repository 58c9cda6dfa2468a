package model

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// DefaultUserData is the empty calldata passed to pools that take no extra arguments.
const DefaultUserData = "0x"

// SwapStep is a single pool hop inside a Route. Asset indices refer to the owning
// asset list. An Amount of "0" chains the output of the previous step.
type SwapStep struct {
	PoolID        string `json:"pool_id"`
	AssetInIndex  int    `json:"asset_in_index"`
	AssetOutIndex int    `json:"asset_out_index"`
	Amount        string `json:"amount"`
	UserData      string `json:"user_data"`
}

// Route is a locally indexed asset list plus the steps that walk it.
type Route struct {
	Assets []common.Address `json:"assets"`
	Steps  []SwapStep       `json:"steps"`
}

// BatchedRoute is the result of merging several routes onto one asset list.
type BatchedRoute struct {
	Assets []common.Address `json:"assets"`
	Steps  []SwapStep       `json:"steps"`
}

// Validate checks that the asset list has no duplicates and every step index is in range.
func (r Route) Validate() error {
	seen := make(map[common.Address]struct{}, len(r.Assets))
	for _, asset := range r.Assets {
		if _, ok := seen[asset]; ok {
			return fmt.Errorf("duplicate asset %s", asset.Hex())
		}
		seen[asset] = struct{}{}
	}
	for i, step := range r.Steps {
		if step.AssetInIndex < 0 || step.AssetInIndex >= len(r.Assets) {
			return fmt.Errorf("step %d: asset in index %d out of range", i, step.AssetInIndex)
		}
		if step.AssetOutIndex < 0 || step.AssetOutIndex >= len(r.Assets) {
			return fmt.Errorf("step %d: asset out index %d out of range", i, step.AssetOutIndex)
		}
	}
	return nil
}

// EntryToken returns the input asset of the first step.
func (r Route) EntryToken() (common.Address, bool) {
	if len(r.Steps) == 0 {
		return common.Address{}, false
	}
	first := r.Steps[0]
	if first.AssetInIndex < 0 || first.AssetInIndex >= len(r.Assets) {
		return common.Address{}, false
	}
	return r.Assets[first.AssetInIndex], true
}

// ExitToken returns the output asset of the last step.
func (r Route) ExitToken() (common.Address, bool) {
	if len(r.Steps) == 0 {
		return common.Address{}, false
	}
	last := r.Steps[len(r.Steps)-1]
	if last.AssetOutIndex < 0 || last.AssetOutIndex >= len(r.Assets) {
		return common.Address{}, false
	}
	return r.Assets[last.AssetOutIndex], true
}

// Clone returns a deep copy so callers can rewrite amounts without touching cached data.
func (r Route) Clone() Route {
	return Route{
		Assets: append([]common.Address(nil), r.Assets...),
		Steps:  append([]SwapStep(nil), r.Steps...),
	}
}

// Clone returns a deep copy of the batched route.
func (b BatchedRoute) Clone() BatchedRoute {
	return BatchedRoute{
		Assets: append([]common.Address(nil), b.Assets...),
		Steps:  append([]SwapStep(nil), b.Steps...),
	}
}

// IndexOf returns the unified index of token or -1.
func (b BatchedRoute) IndexOf(token common.Address) int {
	for i, asset := range b.Assets {
		if asset == token {
			return i
		}
	}
	return -1
}

// CloneRoutes deep-copies a route list.
func CloneRoutes(routes []Route) []Route {
	if routes == nil {
		return nil
	}
	out := make([]Route, len(routes))
	for i, r := range routes {
		out[i] = r.Clone()
	}
	return out
}
