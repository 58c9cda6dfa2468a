package sor

import (
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"swapScope/internal/model"
)

// DefaultMaxPools bounds the number of candidate paths per pair.
const DefaultMaxPools = 4

// HopProposer finds direct paths and two-hop paths through intermediate tokens.
// Paths are ranked by normalised liquidity of the final hop, most liquid first.
type HopProposer struct {
	// HopTokens restricts intermediate tokens. Empty means any shared token.
	HopTokens []common.Address
}

// CandidatePaths returns at most maxPools ranked paths from tokenIn to tokenOut.
func (p HopProposer) CandidatePaths(tokenIn, tokenOut common.Address, graph *PoolGraph, maxPools int) ([]Path, error) {
	if graph == nil {
		return nil, fmt.Errorf("pool graph is nil")
	}
	if tokenIn == tokenOut {
		return nil, fmt.Errorf("token in and token out are equal: %s", tokenIn.Hex())
	}
	if maxPools <= 0 {
		maxPools = DefaultMaxPools
	}

	var direct []Path
	for _, id := range graph.PoolsWithPair(tokenIn, tokenOut) {
		pool, _ := graph.Pool(id)
		hop := Hop{PoolID: id, TokenIn: tokenIn, TokenOut: tokenOut}
		direct = append(direct, newPath([]Hop{hop}, NormalizedLiquidity(pool, tokenIn, tokenOut)))
	}

	var multi []Path
	for _, hopToken := range p.hopCandidates(tokenIn, tokenOut, graph) {
		first, _, ok := mostLiquidPool(graph, tokenIn, hopToken, "")
		if !ok {
			continue
		}
		second, secondLiq, ok := mostLiquidPool(graph, hopToken, tokenOut, first)
		if !ok {
			continue
		}
		hops := []Hop{
			{PoolID: first, TokenIn: tokenIn, TokenOut: hopToken},
			{PoolID: second, TokenIn: hopToken, TokenOut: tokenOut},
		}
		multi = append(multi, newPath(hops, secondLiq))
	}

	paths := append(direct, multi...)
	sort.SliceStable(paths, func(i, j int) bool {
		cmp := paths[i].Liquidity.Cmp(paths[j].Liquidity)
		if cmp != 0 {
			return cmp > 0
		}
		if len(paths[i].Hops) != len(paths[j].Hops) {
			return len(paths[i].Hops) < len(paths[j].Hops)
		}
		return paths[i].ID < paths[j].ID
	})

	if len(paths) > maxPools {
		paths = paths[:maxPools]
	}
	return paths, nil
}

func (p HopProposer) hopCandidates(tokenIn, tokenOut common.Address, graph *PoolGraph) []common.Address {
	allowed := make(map[common.Address]struct{}, len(p.HopTokens))
	for _, token := range p.HopTokens {
		allowed[token] = struct{}{}
	}

	outNeighbours := make(map[common.Address]struct{})
	for _, token := range graph.Neighbours(tokenOut) {
		outNeighbours[token] = struct{}{}
	}

	var out []common.Address
	for _, token := range graph.Neighbours(tokenIn) {
		if token == tokenOut {
			continue
		}
		if _, ok := outNeighbours[token]; !ok {
			continue
		}
		if len(allowed) > 0 {
			if _, ok := allowed[token]; !ok {
				continue
			}
		}
		out = append(out, token)
	}
	return out
}

func mostLiquidPool(graph *PoolGraph, tokenIn, tokenOut common.Address, exclude string) (string, decimal.Decimal, bool) {
	var (
		best    string
		bestLiq decimal.Decimal
		found   bool
	)
	for _, id := range graph.PoolsWithPair(tokenIn, tokenOut) {
		if id == exclude {
			continue
		}
		pool, _ := graph.Pool(id)
		liq := NormalizedLiquidity(pool, tokenIn, tokenOut)
		if !found || liq.GreaterThan(bestLiq) {
			best, bestLiq, found = id, liq, true
		}
	}
	return best, bestLiq, found
}

// NormalizedLiquidity ranks a pool for a hop in units of tokenOut.
// Weighted pools use balanceOut*wIn/(wIn+wOut); anything else uses balanceOut.
func NormalizedLiquidity(pool model.Pool, tokenIn, tokenOut common.Address) decimal.Decimal {
	in, okIn := pool.Token(tokenIn)
	out, okOut := pool.Token(tokenOut)
	if !okIn || !okOut {
		return decimal.Zero
	}
	if in.Weight != nil && out.Weight != nil {
		total := in.Weight.Add(*out.Weight)
		if total.IsPositive() {
			return out.Balance.Mul(*in.Weight).Div(total)
		}
	}
	return out.Balance
}
