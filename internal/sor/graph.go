package sor

import (
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"swapScope/internal/model"
)

// PoolGraph indexes pools by id and by the tokens they hold.
type PoolGraph struct {
	pools   map[string]model.Pool
	byToken map[common.Address][]string
}

// NewPoolGraph builds the lookup tables used by route proposers.
// Pools with fewer than two tokens cannot route and are dropped.
func NewPoolGraph(pools []model.Pool) *PoolGraph {
	g := &PoolGraph{
		pools:   make(map[string]model.Pool, len(pools)),
		byToken: make(map[common.Address][]string),
	}
	for _, pool := range pools {
		tokens := pool.TokenAddresses()
		if pool.ID == "" || len(tokens) < 2 {
			continue
		}
		if _, ok := g.pools[pool.ID]; ok {
			continue
		}
		g.pools[pool.ID] = pool
		for _, token := range tokens {
			g.byToken[token] = append(g.byToken[token], pool.ID)
		}
	}
	for token := range g.byToken {
		sort.Strings(g.byToken[token])
	}
	return g
}

// Pool returns a pool by id.
func (g *PoolGraph) Pool(id string) (model.Pool, bool) {
	pool, ok := g.pools[id]
	return pool, ok
}

// Len returns the number of routable pools.
func (g *PoolGraph) Len() int {
	return len(g.pools)
}

// PoolsWithPair returns the ids of pools holding both tokens.
func (g *PoolGraph) PoolsWithPair(a, b common.Address) []string {
	var out []string
	for _, id := range g.byToken[a] {
		if g.pools[id].Contains(b) {
			out = append(out, id)
		}
	}
	return out
}

// Neighbours returns every token sharing at least one pool with token, excluding itself.
func (g *PoolGraph) Neighbours(token common.Address) []common.Address {
	seen := make(map[common.Address]struct{})
	var out []common.Address
	for _, id := range g.byToken[token] {
		for _, other := range g.pools[id].TokenAddresses() {
			if other == token {
				continue
			}
			if _, ok := seen[other]; ok {
				continue
			}
			seen[other] = struct{}{}
			out = append(out, other)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Hex() < out[j].Hex()
	})
	return out
}
