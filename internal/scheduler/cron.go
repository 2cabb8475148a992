package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/mystiq-app/waitlist-backend/internal/models"
	"github.com/mystiq-app/waitlist-backend/pkg/metrics"
)

const snapshotJobName = "Waitlist Snapshot"

// StatsSource supplies the aggregate waitlist counts
type StatsSource interface {
	Stats(ctx context.Context) (*models.WaitlistStats, error)
}

// SnapshotRecorder persists the counts taken by each snapshot run
type SnapshotRecorder interface {
	Record(ctx context.Context, stats *models.WaitlistStats) (*models.WaitlistSnapshot, error)
}

type CronScheduler struct {
	cron             *cron.Cron
	stats            StatsSource
	recorder         SnapshotRecorder
	metrics          *metrics.Metrics
	logger           *logrus.Logger
	snapshotSchedule string
	jobTimeout       time.Duration
	activeJobs       sync.WaitGroup
	shutdownCtx      context.Context
	shutdownCancel   context.CancelFunc
}

func NewCronScheduler(
	stats StatsSource,
	recorder SnapshotRecorder,
	m *metrics.Metrics,
	logger *logrus.Logger,
	snapshotSchedule string,
	jobTimeout time.Duration,
) *CronScheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &CronScheduler{
		cron:             cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		stats:            stats,
		recorder:         recorder,
		metrics:          m,
		logger:           logger,
		snapshotSchedule: snapshotSchedule,
		jobTimeout:       jobTimeout,
		shutdownCtx:      ctx,
		shutdownCancel:   cancel,
	}
}

// Start schedules the snapshot job, runs it once immediately so the gauges
// are populated at boot, and starts the cron loop.
func (s *CronScheduler) Start() error {
	job := s.createJobWrapper(snapshotJobName, s.snapshot)

	if _, err := s.cron.AddFunc(s.snapshotSchedule, job); err != nil {
		return fmt.Errorf("schedule %q: %w", snapshotJobName, err)
	}

	s.activeJobs.Add(1)
	go func() {
		defer s.activeJobs.Done()
		job()
	}()

	s.cron.Start()
	s.logger.WithField("snapshot_schedule", s.snapshotSchedule).Info("Cron scheduler started successfully")
	return nil
}

// snapshot refreshes the registrant gauges, logs the queue summary and
// records it when a recorder is configured
func (s *CronScheduler) snapshot(ctx context.Context) error {
	stats, err := s.stats.Stats(ctx)
	if err != nil {
		return fmt.Errorf("collect waitlist stats: %w", err)
	}

	s.metrics.UpdateRegistrantsCount("all", stats.TotalUsers)
	s.metrics.UpdateRegistrantsCount(models.StatusPending, stats.PendingUsers)
	s.metrics.UpdateRegistrantsCount(models.StatusApproved, stats.ApprovedUsers)
	s.metrics.UpdateRegistrantsCount(models.StatusRejected, stats.RejectedUsers)

	s.logger.WithFields(logrus.Fields{
		"total_users":        stats.TotalUsers,
		"pending_users":      stats.PendingUsers,
		"approved_users":     stats.ApprovedUsers,
		"rejected_users":     stats.RejectedUsers,
		"referred_users":     stats.ReferredUsers,
		"avg_priority_score": stats.AvgPriorityScore,
	}).Info("Waitlist snapshot")

	if s.recorder == nil {
		return nil
	}
	if _, err := s.recorder.Record(ctx, stats); err != nil {
		return fmt.Errorf("record waitlist snapshot: %w", err)
	}
	return nil
}

// createJobWrapper wraps a job with context, timeout, logging, metrics and panic recovery
func (s *CronScheduler) createJobWrapper(jobName string, jobFunc func(context.Context) error) func() {
	return func() {
		s.activeJobs.Add(1)
		defer s.activeJobs.Done()

		ctx, cancel := context.WithTimeout(s.shutdownCtx, s.jobTimeout)
		defer cancel()

		startTime := time.Now()

		s.logger.WithFields(logrus.Fields{
			"job":       jobName,
			"timestamp": startTime.UTC(),
		}).Debug("Starting scheduled job")

		defer func() {
			if r := recover(); r != nil {
				s.metrics.RecordSchedulerJob(jobName, false, time.Since(startTime))
				s.logger.WithFields(logrus.Fields{
					"job":   jobName,
					"panic": r,
				}).Error("Job panicked")
			}
		}()

		err := jobFunc(ctx)

		duration := time.Since(startTime)
		s.metrics.RecordSchedulerJob(jobName, err == nil, duration)

		if err != nil {
			s.logger.WithFields(logrus.Fields{
				"job":      jobName,
				"duration": duration.String(),
				"error":    err.Error(),
			}).Error("Job failed")
		} else {
			s.logger.WithFields(logrus.Fields{
				"job":      jobName,
				"duration": duration.String(),
			}).Debug("Job completed successfully")
		}

		if ctx.Err() == context.DeadlineExceeded {
			s.logger.WithFields(logrus.Fields{
				"job":     jobName,
				"timeout": s.jobTimeout.String(),
			}).Warn("Job timed out")
		}
	}
}

func (s *CronScheduler) Stop() {
	s.logger.Info("Stopping cron scheduler...")

	// Stop accepting new jobs
	ctx := s.cron.Stop()

	// Cancel all running jobs
	s.shutdownCancel()

	done := make(chan struct{})
	go func() {
		s.activeJobs.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("All jobs completed, cron scheduler stopped")
	case <-ctx.Done():
		s.logger.Info("Cron scheduler stopped")
	case <-time.After(1 * time.Minute):
		s.logger.Warn("Timeout waiting for jobs to complete, forcing shutdown")
	}
}

// GetSchedulerStatus returns the current status of the scheduler
func (s *CronScheduler) GetSchedulerStatus() map[string]interface{} {
	entries := s.cron.Entries()

	jobs := make([]map[string]interface{}, 0, len(entries))
	for _, entry := range entries {
		jobs = append(jobs, map[string]interface{}{
			"next_run": entry.Next,
			"prev_run": entry.Prev,
		})
	}

	return map[string]interface{}{
		"running":   len(entries) > 0,
		"job_count": len(entries),
		"jobs":      jobs,
	}
}
