package vault

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// SimulationError reports a failed queryBatchSwap preview.
type SimulationError struct {
	Assets []common.Address
	Cause  error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("query batch swap over %d assets: %v", len(e.Assets), e.Cause)
}

func (e *SimulationError) Unwrap() error {
	return e.Cause
}
