package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/mystiq-app/waitlist-backend/internal/models"
)

// DefaultSnapshotRetention bounds the snapshot history of the in-memory and
// Redis stores
const DefaultSnapshotRetention = 2016 // one week at five minute intervals

type memorySnapshotRepository struct {
	mu        sync.RWMutex
	snapshots []models.WaitlistSnapshot // oldest first
	nextID    int64
	retention int
}

// NewMemorySnapshotRepository keeps the newest retention snapshots in memory
func NewMemorySnapshotRepository(retention int) SnapshotRepository {
	if retention <= 0 {
		retention = DefaultSnapshotRetention
	}
	return &memorySnapshotRepository{retention: retention}
}

func (r *memorySnapshotRepository) CreateSnapshot(_ context.Context, snapshot *models.WaitlistSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	snapshot.ID = r.nextID
	r.snapshots = append(r.snapshots, *snapshot)
	if over := len(r.snapshots) - r.retention; over > 0 {
		r.snapshots = append(r.snapshots[:0:0], r.snapshots[over:]...)
	}
	return nil
}

func (r *memorySnapshotRepository) GetLatestSnapshot(_ context.Context) (*models.WaitlistSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.snapshots) == 0 {
		return nil, nil
	}
	latest := r.snapshots[len(r.snapshots)-1]
	return &latest, nil
}

func (r *memorySnapshotRepository) GetSnapshots(_ context.Context, limit int) ([]*models.WaitlistSnapshot, error) {
	return r.collect(limit, func(models.WaitlistSnapshot) bool { return true }), nil
}

func (r *memorySnapshotRepository) GetSnapshotsByDateRange(_ context.Context, start, end time.Time) ([]*models.WaitlistSnapshot, error) {
	return r.collect(0, func(s models.WaitlistSnapshot) bool {
		return !s.Timestamp.Before(start) && !s.Timestamp.After(end)
	}), nil
}

// collect walks newest first; limit <= 0 means no limit
func (r *memorySnapshotRepository) collect(limit int, keep func(models.WaitlistSnapshot) bool) []*models.WaitlistSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.WaitlistSnapshot, 0)
	for i := len(r.snapshots) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		if s := r.snapshots[i]; keep(s) {
			out = append(out, &s)
		}
	}
	return out
}
