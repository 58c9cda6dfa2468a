package model

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// SwapKind mirrors the Vault SwapKind enum.
type SwapKind uint8

const (
	GivenIn SwapKind = iota
	GivenOut
)

func (k SwapKind) String() string {
	switch k {
	case GivenIn:
		return "given_in"
	case GivenOut:
		return "given_out"
	default:
		return fmt.Sprintf("swap_kind(%d)", uint8(k))
	}
}

// ParseSwapKind accepts the CLI spellings used for exact-in and exact-out swaps.
func ParseSwapKind(input string) (SwapKind, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "", "in", "given_in", "exact_in", "exactin", "0":
		return GivenIn, nil
	case "out", "given_out", "exact_out", "exactout", "1":
		return GivenOut, nil
	default:
		return 0, fmt.Errorf("invalid swap kind: %s", input)
	}
}

// FundManagement is the Vault funds struct.
type FundManagement struct {
	Sender              common.Address
	FromInternalBalance bool
	Recipient           common.Address
	ToInternalBalance   bool
}
