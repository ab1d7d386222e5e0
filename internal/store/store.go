package store

import (
	"context"

	"festmarket/internal/market"
)

// Store is the durable snapshot contract: overwrite-latest semantics, no
// history. Load returns (nil, nil) when no snapshot exists yet; callers fall
// back to the built-in default market.
type Store interface {
	Save(ctx context.Context, snap *market.Snapshot) error
	Load(ctx context.Context) (*market.Snapshot, error)
}
