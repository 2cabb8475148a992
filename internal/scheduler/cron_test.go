package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"

	"github.com/mystiq-app/waitlist-backend/internal/models"
	"github.com/mystiq-app/waitlist-backend/pkg/metrics"
)

type fakeStats struct {
	stats *models.WaitlistStats
	err   error
	panic bool
}

func (f *fakeStats) Stats(context.Context) (*models.WaitlistStats, error) {
	if f.panic {
		panic("stats exploded")
	}
	return f.stats, f.err
}

type fakeRecorder struct {
	recorded []*models.WaitlistStats
	err      error
}

func (f *fakeRecorder) Record(_ context.Context, stats *models.WaitlistStats) (*models.WaitlistSnapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.recorded = append(f.recorded, stats)
	return models.NewWaitlistSnapshot(stats, time.Now()), nil
}

func newTestScheduler(source StatsSource, schedule string) *CronScheduler {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return NewCronScheduler(source, nil, metrics.NewMetrics(), logger, schedule, time.Minute)
}

func TestNewCronScheduler(t *testing.T) {
	scheduler := newTestScheduler(&fakeStats{}, "@every 5m")

	if scheduler == nil {
		t.Fatal("Expected non-nil scheduler")
	}

	if scheduler.jobTimeout != time.Minute {
		t.Errorf("Expected job timeout of 1 minute, got %v", scheduler.jobTimeout)
	}

	if scheduler.cron == nil {
		t.Error("Expected non-nil cron instance")
	}
}

func TestCronScheduler_Snapshot(t *testing.T) {
	scheduler := newTestScheduler(&fakeStats{stats: &models.WaitlistStats{
		TotalUsers:    7,
		PendingUsers:  4,
		ApprovedUsers: 2,
		RejectedUsers: 1,
	}}, "@every 5m")

	scheduler.createJobWrapper(snapshotJobName, scheduler.snapshot)()

	expected := map[string]float64{"all": 7, "pending": 4, "approved": 2, "rejected": 1}
	for status, want := range expected {
		if got := testutil.ToFloat64(metrics.RegistrantsCount.WithLabelValues(status)); got != want {
			t.Errorf("Expected %s gauge %v, got %v", status, want, got)
		}
	}
}

func TestCronScheduler_SnapshotRecorded(t *testing.T) {
	stats := &models.WaitlistStats{TotalUsers: 3, PendingUsers: 3}
	scheduler := newTestScheduler(&fakeStats{stats: stats}, "@every 5m")
	recorder := &fakeRecorder{}
	scheduler.recorder = recorder

	if err := scheduler.snapshot(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(recorder.recorded) != 1 || recorder.recorded[0] != stats {
		t.Fatalf("Expected the collected stats to be recorded once, got %v", recorder.recorded)
	}

	recorder.err = errors.New("disk full")
	if err := scheduler.snapshot(context.Background()); err == nil {
		t.Fatal("Expected recorder error to fail the job")
	}
}

func TestCronScheduler_JobFailureAndPanic(t *testing.T) {
	failing := newTestScheduler(&fakeStats{err: errors.New("store down")}, "@every 5m")
	before := testutil.ToFloat64(metrics.SchedulerJobsTotal.WithLabelValues(snapshotJobName, "failure"))

	failing.createJobWrapper(snapshotJobName, failing.snapshot)()

	panicking := newTestScheduler(&fakeStats{panic: true}, "@every 5m")
	panicking.createJobWrapper(snapshotJobName, panicking.snapshot)()

	after := testutil.ToFloat64(metrics.SchedulerJobsTotal.WithLabelValues(snapshotJobName, "failure"))
	if after-before != 2 {
		t.Errorf("Expected 2 failed runs, got %v", after-before)
	}
}

func TestCronScheduler_StartRejectsBadSchedule(t *testing.T) {
	scheduler := newTestScheduler(&fakeStats{}, "every now and then")

	if err := scheduler.Start(); err == nil {
		t.Fatal("Expected error for invalid schedule")
	}
}

func TestCronScheduler_StartStop(t *testing.T) {
	scheduler := newTestScheduler(&fakeStats{stats: &models.WaitlistStats{}}, "@every 1h")

	if err := scheduler.Start(); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	status := scheduler.GetSchedulerStatus()
	if status["job_count"] != 1 {
		t.Errorf("Expected 1 scheduled job, got %v", status["job_count"])
	}
	if _, ok := status["jobs"]; !ok {
		t.Error("Expected 'jobs' key in status")
	}

	scheduler.Stop()
}
