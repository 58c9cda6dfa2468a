package storage

import (
	"context"

	"swapScope/internal/model"
)

// RouteSink receives cached pair routes.
type RouteSink interface {
	PutRoutes(ctx context.Context, records []model.RouteRecord) error
}

// PoolSink receives pool snapshots.
type PoolSink interface {
	PutPools(ctx context.Context, pools []model.Pool) error
}
