package swapinfo

import (
	"fmt"

	"swapScope/internal/model"
)

// RouteDiscoveryError reports a failed pool fetch or path search for a pair.
type RouteDiscoveryError struct {
	Pair  model.PairKey
	Cause error
}

func (e *RouteDiscoveryError) Error() string {
	if e.Pair == (model.PairKey{}) {
		return fmt.Sprintf("route discovery: %v", e.Cause)
	}
	return fmt.Sprintf("route discovery %s: %v", e.Pair, e.Cause)
}

func (e *RouteDiscoveryError) Unwrap() error {
	return e.Cause
}

// WarmupPartialFailure lists the pairs a warm-up pass could not resolve.
// Err combines the individual causes.
type WarmupPartialFailure struct {
	FailedPairs []model.PairKey
	Err         error
}

func (e *WarmupPartialFailure) Error() string {
	return fmt.Sprintf("warm-up failed for %d pairs: %v", len(e.FailedPairs), e.Err)
}

func (e *WarmupPartialFailure) Unwrap() error {
	return e.Err
}
