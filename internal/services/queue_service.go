package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/mystiq-app/waitlist-backend/internal/models"
	"github.com/mystiq-app/waitlist-backend/internal/ranking"
	"github.com/mystiq-app/waitlist-backend/internal/repositories"
	apperrors "github.com/mystiq-app/waitlist-backend/pkg/errors"
	"github.com/mystiq-app/waitlist-backend/pkg/metrics"
)

// Queue lookup strategies reported to metrics
const (
	lookupIndex = "index"
	lookupScan  = "scan"
)

// sharedLookupTimeout bounds a lookup shared by concurrent callers
const sharedLookupTimeout = 10 * time.Second

// QueueService answers queue position lookups. Positions are computed on
// every call and never cached.
type QueueService struct {
	repo    repositories.RegistrantRepository
	ranker  repositories.Ranker
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *logrus.Logger
}

// NewQueueService creates a queue service. Stores with a queue index answer
// positions directly; others are ranked by scanning every registrant.
func NewQueueService(repo repositories.RegistrantRepository, m *metrics.Metrics, logger *logrus.Logger) *QueueService {
	ranker, _ := repositories.AsRanker(repo)
	return &QueueService{
		repo:    repo,
		ranker:  ranker,
		metrics: m,
		logger:  logger,
	}
}

// Position returns the 1-based queue position of email. Concurrent lookups
// for the same email share one computation. The shared lookup is detached
// from any single caller's cancellation; each caller still stops waiting
// when its own ctx ends.
func (s *QueueService) Position(ctx context.Context, email string) (int, error) {
	ch := s.group.DoChan(email, func() (interface{}, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedLookupTimeout)
		defer cancel()

		start := time.Now()
		if s.ranker != nil {
			pos, err := s.ranker.Position(lookupCtx, email)
			s.metrics.RecordQueueLookup(lookupIndex, time.Since(start))
			return pos, err
		}

		all, err := s.repo.All(lookupCtx)
		if err != nil {
			return 0, err
		}
		pos, err := ranking.Position(all, email)
		s.metrics.RecordQueueLookup(lookupScan, time.Since(start))
		return pos, err
	})

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return 0, res.Err
		}
		return res.Val.(int), nil
	}
}

// Status returns the public queue view for one registrant
func (s *QueueService) Status(ctx context.Context, email string) (*models.QueueStatus, error) {
	email = normalizeEmail(email)

	registrant, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, models.NewDatabaseError("Failed to get queue status", err)
	}
	if registrant == nil {
		return nil, models.NewNotFoundError("User not found")
	}

	position, err := s.Position(ctx, email)
	if apperrors.IsNotFound(err) {
		// deleted between the lookup and the ranking
		return nil, models.NewNotFoundError("User not found")
	}
	if err != nil {
		return nil, models.NewInternalError("Failed to get queue status", err)
	}

	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, models.NewDatabaseError("Failed to get queue status", err)
	}

	s.logger.WithFields(logrus.Fields{
		"email":          email,
		"queue_position": position,
	}).Debug("Queue status served")

	return &models.QueueStatus{
		QueuePosition: position,
		TotalUsers:    total,
		ReferralCode:  registrant.ReferralCode,
		ReferralCount: registrant.ReferralCount,
		PriorityScore: registrant.PriorityScore,
	}, nil
}
