package model

import "github.com/ethereum/go-ethereum/common"

// TokenMeta captures ERC20 metadata used to display amounts.
type TokenMeta struct {
	Address  common.Address `json:"address"`
	Decimals uint8          `json:"decimals"`
	Symbol   string         `json:"symbol,omitempty"`
	Name     string         `json:"name,omitempty"`
}

// Label returns the symbol, or the address when the symbol is unknown.
func (m TokenMeta) Label() string {
	if m.Symbol != "" {
		return m.Symbol
	}
	return m.Address.Hex()
}
