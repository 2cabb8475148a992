package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mystiq-app/waitlist-backend/internal/models"
	"github.com/mystiq-app/waitlist-backend/internal/repositories"
)

const (
	DefaultSnapshotLimit = 48
	MaxSnapshotLimit     = 500
)

// SnapshotQuery selects snapshot history. A zero From or To leaves that end
// of the range open.
type SnapshotQuery struct {
	Limit int
	From  time.Time
	To    time.Time
}

// SnapshotService records and serves the periodic waitlist snapshots
type SnapshotService struct {
	repo   repositories.SnapshotRepository
	logger *logrus.Logger
	now    func() time.Time
}

func NewSnapshotService(repo repositories.SnapshotRepository, logger *logrus.Logger) *SnapshotService {
	return &SnapshotService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// Record stores a snapshot of stats stamped with the current time
func (s *SnapshotService) Record(ctx context.Context, stats *models.WaitlistStats) (*models.WaitlistSnapshot, error) {
	snapshot := models.NewWaitlistSnapshot(stats, s.now())
	if err := s.repo.CreateSnapshot(ctx, snapshot); err != nil {
		return nil, models.NewDatabaseError("Failed to record snapshot", err)
	}

	s.logger.WithFields(logrus.Fields{
		"snapshot_id": snapshot.ID,
		"total_users": snapshot.TotalUsers,
	}).Debug("Waitlist snapshot recorded")
	return snapshot, nil
}

func (s *SnapshotService) Latest(ctx context.Context) (*models.WaitlistSnapshot, error) {
	snapshot, err := s.repo.GetLatestSnapshot(ctx)
	if err != nil {
		return nil, models.NewDatabaseError("Failed to get snapshot", err)
	}
	if snapshot == nil {
		return nil, models.NewNotFoundError("No snapshots recorded yet")
	}
	return snapshot, nil
}

// History returns snapshots newest first
func (s *SnapshotService) History(ctx context.Context, q SnapshotQuery) ([]*models.WaitlistSnapshot, error) {
	limit := q.Limit
	switch {
	case limit == 0:
		limit = DefaultSnapshotLimit
	case limit < 0 || limit > MaxSnapshotLimit:
		return nil, models.NewValidationError("Invalid limit", "limit must be between 1 and 500")
	}

	if q.From.IsZero() && q.To.IsZero() {
		snapshots, err := s.repo.GetSnapshots(ctx, limit)
		if err != nil {
			return nil, models.NewDatabaseError("Failed to get snapshots", err)
		}
		return snapshots, nil
	}

	to := q.To
	if to.IsZero() {
		to = s.now()
	}
	if q.From.After(to) {
		return nil, models.NewValidationError("Invalid date range", "from must not be after to")
	}

	snapshots, err := s.repo.GetSnapshotsByDateRange(ctx, q.From, to)
	if err != nil {
		return nil, models.NewDatabaseError("Failed to get snapshots", err)
	}
	if len(snapshots) > limit {
		snapshots = snapshots[:limit]
	}
	return snapshots, nil
}
