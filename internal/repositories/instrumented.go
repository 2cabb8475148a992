package repositories

import (
	"context"
	"time"

	"github.com/mystiq-app/waitlist-backend/internal/models"
	"github.com/mystiq-app/waitlist-backend/pkg/metrics"
)

// instrumentedRepository records latency and errors for every store call
type instrumentedRepository struct {
	next    RegistrantRepository
	backend string
	metrics *metrics.Metrics
}

// NewInstrumentedRepository wraps next so each operation is observed under
// the given backend label.
func NewInstrumentedRepository(next RegistrantRepository, backend string, m *metrics.Metrics) RegistrantRepository {
	return &instrumentedRepository{next: next, backend: backend, metrics: m}
}

func (r *instrumentedRepository) observe(op string, start time.Time, err error) {
	r.metrics.RecordStoreOperation(r.backend, op, time.Since(start), err)
}

func (r *instrumentedRepository) Insert(ctx context.Context, registrant *models.Registrant) (bool, error) {
	start := time.Now()
	credited, err := r.next.Insert(ctx, registrant)
	r.observe("insert", start, err)
	return credited, err
}

func (r *instrumentedRepository) FindByEmail(ctx context.Context, email string) (*models.Registrant, error) {
	start := time.Now()
	reg, err := r.next.FindByEmail(ctx, email)
	r.observe("find_by_email", start, err)
	return reg, err
}

func (r *instrumentedRepository) FindByReferralCode(ctx context.Context, code string) (*models.Registrant, error) {
	start := time.Now()
	reg, err := r.next.FindByReferralCode(ctx, code)
	r.observe("find_by_referral_code", start, err)
	return reg, err
}

func (r *instrumentedRepository) IncrementReferral(ctx context.Context, code string, scoreDelta int) (bool, error) {
	start := time.Now()
	ok, err := r.next.IncrementReferral(ctx, code, scoreDelta)
	r.observe("increment_referral", start, err)
	return ok, err
}

func (r *instrumentedRepository) Count(ctx context.Context) (int, error) {
	start := time.Now()
	n, err := r.next.Count(ctx)
	r.observe("count", start, err)
	return n, err
}

func (r *instrumentedRepository) All(ctx context.Context) ([]*models.Registrant, error) {
	start := time.Now()
	all, err := r.next.All(ctx)
	r.observe("all", start, err)
	return all, err
}

func (r *instrumentedRepository) Position(ctx context.Context, email string) (int, error) {
	ranker, ok := r.next.(Ranker)
	if !ok {
		return 0, ErrRankerUnsupported
	}
	start := time.Now()
	pos, err := ranker.Position(ctx, email)
	r.observe("position", start, err)
	return pos, err
}

func (r *instrumentedRepository) UpdateStatus(ctx context.Context, email, status string) (bool, error) {
	start := time.Now()
	ok, err := r.next.UpdateStatus(ctx, email, status)
	r.observe("update_status", start, err)
	return ok, err
}

func (r *instrumentedRepository) UpdateStatusBulk(ctx context.Context, emails []string, status string) (int, error) {
	start := time.Now()
	n, err := r.next.UpdateStatusBulk(ctx, emails, status)
	r.observe("update_status_bulk", start, err)
	return n, err
}

func (r *instrumentedRepository) AddPriority(ctx context.Context, emails []string, delta int) (int, error) {
	start := time.Now()
	n, err := r.next.AddPriority(ctx, emails, delta)
	r.observe("add_priority", start, err)
	return n, err
}

func (r *instrumentedRepository) DeleteByEmails(ctx context.Context, emails []string) (int, error) {
	start := time.Now()
	n, err := r.next.DeleteByEmails(ctx, emails)
	r.observe("delete", start, err)
	return n, err
}

func (r *instrumentedRepository) Clear(ctx context.Context) (int, error) {
	start := time.Now()
	n, err := r.next.Clear(ctx)
	r.observe("clear", start, err)
	return n, err
}

// Ping forwards to the wrapped store when it talks to a server
func (r *instrumentedRepository) Ping(ctx context.Context) error {
	if pinger, ok := r.next.(Pinger); ok {
		return pinger.Ping(ctx)
	}
	return nil
}
