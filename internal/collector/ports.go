package collector

import (
	"context"

	"cryptocollector/internal/model"
)

// Gateway produces fresh market snapshots. Implemented by pkg/binance;
// tests substitute fakes.
type Gateway interface {
	FetchSnapshot(ctx context.Context, symbol string) (model.Snapshot, error)
}

// CacheWriter is the fast sink with expiry.
type CacheWriter interface {
	StoreSnapshot(ctx context.Context, s model.Snapshot) error
}

// DurableWriter is the persistent append-only sink.
type DurableWriter interface {
	AppendSnapshot(ctx context.Context, s model.Snapshot) error
}
