package model

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Pool is a Balancer V2 pool record as served by the subgraph.
type Pool struct {
	ID          string           `json:"id"`
	Address     common.Address   `json:"address"`
	PoolType    string           `json:"pool_type"`
	SwapFee     decimal.Decimal  `json:"swap_fee"`
	Amp         *decimal.Decimal `json:"amp,omitempty"`
	TotalShares decimal.Decimal  `json:"total_shares"`
	Tokens      []PoolToken      `json:"tokens"`
	TokensList  []common.Address `json:"tokens_list"`
}

// PoolToken is a token balance inside a pool. Balances are in token units, not wei.
type PoolToken struct {
	Address   common.Address   `json:"address"`
	Balance   decimal.Decimal  `json:"balance"`
	Decimals  uint8            `json:"decimals"`
	Weight    *decimal.Decimal `json:"weight,omitempty"`
	PriceRate *decimal.Decimal `json:"price_rate,omitempty"`
}

// Token returns the pool entry for address.
func (p Pool) Token(address common.Address) (PoolToken, bool) {
	for _, t := range p.Tokens {
		if t.Address == address {
			return t, true
		}
	}
	return PoolToken{}, false
}

// Contains reports whether address is in the pool token list.
func (p Pool) Contains(address common.Address) bool {
	for _, t := range p.TokenAddresses() {
		if t == address {
			return true
		}
	}
	return false
}

// TokenAddresses prefers TokensList and falls back to Tokens.
func (p Pool) TokenAddresses() []common.Address {
	if len(p.TokensList) > 0 {
		return p.TokensList
	}
	out := make([]common.Address, 0, len(p.Tokens))
	for _, t := range p.Tokens {
		out = append(out, t.Address)
	}
	return out
}
