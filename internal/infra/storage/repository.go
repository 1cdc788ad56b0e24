package storage

import (
	"context"

	"github.com/vietddude/salvage/internal/core/domain"
)

// SnapshotRepository handles persisted batch snapshots. Restore returns
// (nil, nil) when no snapshot exists for the batch; the recovery core
// treats an error and an absent snapshot the same way (fall through to the
// next source).
type SnapshotRepository interface {
	// Restore retrieves the latest snapshot for a batch
	Restore(ctx context.Context, batchID string) (*domain.PersistedSnapshot, error)

	// Save upserts a snapshot
	Save(ctx context.Context, snap *domain.PersistedSnapshot) error

	// Delete removes the snapshot for a batch
	Delete(ctx context.Context, batchID string) error
}
