package sor

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"swapScope/internal/model"
)

// Hop is one swap through one pool.
type Hop struct {
	PoolID   string
	TokenIn  common.Address
	TokenOut common.Address
}

// Path is a candidate sequence of hops from an entry token to an exit token.
type Path struct {
	ID        string
	Hops      []Hop
	Liquidity decimal.Decimal
}

func newPath(hops []Hop, liquidity decimal.Decimal) Path {
	ids := make([]string, 0, len(hops))
	for _, hop := range hops {
		ids = append(ids, hop.PoolID)
	}
	return Path{
		ID:        strings.Join(ids, ""),
		Hops:      hops,
		Liquidity: liquidity,
	}
}

// TokenAddresses lists the unique tokens touched by the path in hop order.
func (p Path) TokenAddresses() []common.Address {
	seen := make(map[common.Address]struct{}, len(p.Hops)+1)
	out := make([]common.Address, 0, len(p.Hops)+1)
	add := func(token common.Address) {
		if _, ok := seen[token]; ok {
			return
		}
		seen[token] = struct{}{}
		out = append(out, token)
	}
	for _, hop := range p.Hops {
		add(hop.TokenIn)
		add(hop.TokenOut)
	}
	return out
}

// FormatPath converts a path into a Vault-ready route for a given-in swap.
// Every step amount is "0"; the caller sets the first amount at query time.
func FormatPath(p Path) model.Route {
	assets := p.TokenAddresses()
	index := make(map[common.Address]int, len(assets))
	for i, token := range assets {
		index[token] = i
	}

	steps := make([]model.SwapStep, 0, len(p.Hops))
	for _, hop := range p.Hops {
		steps = append(steps, model.SwapStep{
			PoolID:        hop.PoolID,
			AssetInIndex:  index[hop.TokenIn],
			AssetOutIndex: index[hop.TokenOut],
			Amount:        "0",
			UserData:      model.DefaultUserData,
		})
	}

	return model.Route{Assets: assets, Steps: steps}
}

// FormatPaths formats every path in order.
func FormatPaths(paths []Path) []model.Route {
	out := make([]model.Route, 0, len(paths))
	for _, p := range paths {
		out = append(out, FormatPath(p))
	}
	return out
}
