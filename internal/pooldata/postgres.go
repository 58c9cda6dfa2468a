package pooldata

import (
	"context"

	"swapScope/internal/model"
)

// PoolLoader reads a stored pool snapshot. *postgres.Store satisfies it.
type PoolLoader interface {
	LoadPools(ctx context.Context, chainID uint64) ([]model.Pool, error)
}

// Stored serves pools from a database snapshot for one chain.
type Stored struct {
	loader  PoolLoader
	chainID uint64
}

func NewStored(loader PoolLoader, chainID uint64) *Stored {
	return &Stored{loader: loader, chainID: chainID}
}

func (s *Stored) GetPools(ctx context.Context) ([]model.Pool, error) {
	return s.loader.LoadPools(ctx, s.chainID)
}
