package model

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// PairKey identifies a directional (taker, maker) pair. (A,B) and (B,A) are distinct.
type PairKey struct {
	Taker common.Address
	Maker common.Address
}

// NewPairKey builds a key from hex strings; casing does not matter.
func NewPairKey(taker, maker string) PairKey {
	return PairKey{
		Taker: common.HexToAddress(strings.TrimSpace(taker)),
		Maker: common.HexToAddress(strings.TrimSpace(maker)),
	}
}

func (k PairKey) String() string {
	return k.Taker.Hex() + ">" + k.Maker.Hex()
}
