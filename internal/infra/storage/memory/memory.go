package memory

import (
	"context"
	"sync"

	"github.com/vietddude/salvage/internal/core/domain"
)

// SnapshotRepo is an in-memory storage.SnapshotRepository. Used by tests
// and as the cache layer when no Redis is configured.
type SnapshotRepo struct {
	mu    sync.RWMutex
	snaps map[string]*domain.PersistedSnapshot
}

func NewSnapshotRepo() *SnapshotRepo {
	return &SnapshotRepo{snaps: make(map[string]*domain.PersistedSnapshot)}
}

func (r *SnapshotRepo) Restore(ctx context.Context, batchID string) (*domain.PersistedSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snaps[batchID], nil
}

func (r *SnapshotRepo) Save(ctx context.Context, snap *domain.PersistedSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps[snap.BatchID] = snap
	return nil
}

func (r *SnapshotRepo) Delete(ctx context.Context, batchID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.snaps, batchID)
	return nil
}
