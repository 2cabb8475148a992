package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mystiq-app/waitlist-backend/internal/models"
)

// Snapshots are JSON documents in a capped list at <prefix>snapshots, newest at index 0
type redisSnapshotRepository struct {
	client    *redis.Client
	prefix    string
	retention int
}

// NewRedisSnapshotRepository keeps the newest retention snapshots in a Redis list
func NewRedisSnapshotRepository(client *redis.Client, prefix string, retention int) SnapshotRepository {
	if retention <= 0 {
		retention = DefaultSnapshotRetention
	}
	return &redisSnapshotRepository{client: client, prefix: prefix, retention: retention}
}

func (r *redisSnapshotRepository) listKey() string {
	return r.prefix + "snapshots"
}

func (r *redisSnapshotRepository) CreateSnapshot(ctx context.Context, snapshot *models.WaitlistSnapshot) error {
	id, err := r.client.Incr(ctx, r.prefix+"snapshot_seq").Result()
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	snapshot.ID = id

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, r.listKey(), payload)
	pipe.LTrim(ctx, r.listKey(), 0, int64(r.retention-1))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	return nil
}

func (r *redisSnapshotRepository) GetLatestSnapshot(ctx context.Context) (*models.WaitlistSnapshot, error) {
	raw, err := r.client.LIndex(ctx, r.listKey(), 0).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get latest snapshot: %w", err)
	}

	var snapshot models.WaitlistSnapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snapshot, nil
}

func (r *redisSnapshotRepository) GetSnapshots(ctx context.Context, limit int) ([]*models.WaitlistSnapshot, error) {
	raws, err := r.client.LRange(ctx, r.listKey(), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	return decodeSnapshots(raws, func(*models.WaitlistSnapshot) bool { return true })
}

func (r *redisSnapshotRepository) GetSnapshotsByDateRange(ctx context.Context, start, end time.Time) ([]*models.WaitlistSnapshot, error) {
	raws, err := r.client.LRange(ctx, r.listKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("query snapshots by date range: %w", err)
	}
	return decodeSnapshots(raws, func(s *models.WaitlistSnapshot) bool {
		return !s.Timestamp.Before(start) && !s.Timestamp.After(end)
	})
}

func decodeSnapshots(raws []string, keep func(*models.WaitlistSnapshot) bool) ([]*models.WaitlistSnapshot, error) {
	snapshots := make([]*models.WaitlistSnapshot, 0, len(raws))
	for _, raw := range raws {
		snapshot := &models.WaitlistSnapshot{}
		if err := json.Unmarshal([]byte(raw), snapshot); err != nil {
			return nil, fmt.Errorf("decode snapshot: %w", err)
		}
		if keep(snapshot) {
			snapshots = append(snapshots, snapshot)
		}
	}
	return snapshots, nil
}
