package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/mystiq-app/waitlist-backend/internal/models"
	"github.com/mystiq-app/waitlist-backend/internal/ranking"
	apperrors "github.com/mystiq-app/waitlist-backend/pkg/errors"
)

type memoryRegistrantRepository struct {
	mu          sync.RWMutex
	byEmail     map[string]*models.Registrant
	byCode      map[string]string // referral code -> email
	nextID      int64
	lastCreated time.Time
	now         func() time.Time
}

// NewMemoryRegistrantRepository creates a process-local registrant store
func NewMemoryRegistrantRepository() RegistrantRepository {
	return newMemoryRegistrantRepository(time.Now)
}

func newMemoryRegistrantRepository(now func() time.Time) *memoryRegistrantRepository {
	return &memoryRegistrantRepository{
		byEmail: make(map[string]*models.Registrant),
		byCode:  make(map[string]string),
		now:     now,
	}
}

func (r *memoryRegistrantRepository) Insert(_ context.Context, registrant *models.Registrant) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[registrant.Email]; exists {
		return false, apperrors.Wrapf(apperrors.ErrDuplicateEmail, "insert %s", registrant.Email)
	}
	if _, exists := r.byCode[registrant.ReferralCode]; exists {
		return false, apperrors.Wrapf(apperrors.ErrDuplicateReferralCode, "insert %s", registrant.ReferralCode)
	}

	// created_at doubles as the queue tie-break, keep it strictly increasing
	created := r.now().UTC()
	if !created.After(r.lastCreated) {
		created = r.lastCreated.Add(time.Nanosecond)
	}
	r.lastCreated = created
	r.nextID++

	registrant.ID = r.nextID
	registrant.CreatedAt = created

	credited := false
	if registrant.ReferredBy != "" {
		credited = r.incrementLocked(registrant.ReferredBy, ranking.ReferralReward)
	}

	stored := registrant.Clone()
	r.byEmail[stored.Email] = stored
	r.byCode[stored.ReferralCode] = stored.Email

	return credited, nil
}

func (r *memoryRegistrantRepository) FindByEmail(_ context.Context, email string) (*models.Registrant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byEmail[email].Clone(), nil
}

func (r *memoryRegistrantRepository) FindByReferralCode(_ context.Context, code string) (*models.Registrant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	email, ok := r.byCode[code]
	if !ok {
		return nil, nil
	}
	return r.byEmail[email].Clone(), nil
}

func (r *memoryRegistrantRepository) IncrementReferral(_ context.Context, code string, scoreDelta int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.incrementLocked(code, scoreDelta), nil
}

func (r *memoryRegistrantRepository) incrementLocked(code string, scoreDelta int) bool {
	email, ok := r.byCode[code]
	if !ok {
		return false
	}
	referrer := r.byEmail[email]
	referrer.ReferralCount++
	referrer.PriorityScore += scoreDelta
	return true
}

func (r *memoryRegistrantRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byEmail), nil
}

func (r *memoryRegistrantRepository) All(_ context.Context) ([]*models.Registrant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]*models.Registrant, 0, len(r.byEmail))
	for _, reg := range r.byEmail {
		all = append(all, reg.Clone())
	}
	return all, nil
}

func (r *memoryRegistrantRepository) UpdateStatus(_ context.Context, email, status string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.byEmail[email]
	if !ok {
		return false, nil
	}
	reg.Status = status
	return true, nil
}

func (r *memoryRegistrantRepository) UpdateStatusBulk(_ context.Context, emails []string, status string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	updated := 0
	for _, email := range dedupe(emails) {
		if reg, ok := r.byEmail[email]; ok {
			reg.Status = status
			updated++
		}
	}
	return updated, nil
}

func (r *memoryRegistrantRepository) AddPriority(_ context.Context, emails []string, delta int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	updated := 0
	for _, email := range dedupe(emails) {
		if reg, ok := r.byEmail[email]; ok {
			reg.PriorityScore += delta
			updated++
		}
	}
	return updated, nil
}

func (r *memoryRegistrantRepository) DeleteByEmails(_ context.Context, emails []string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	deleted := 0
	for _, email := range dedupe(emails) {
		reg, ok := r.byEmail[email]
		if !ok {
			continue
		}
		delete(r.byCode, reg.ReferralCode)
		delete(r.byEmail, email)
		deleted++
	}
	return deleted, nil
}

func (r *memoryRegistrantRepository) Clear(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.byEmail)
	r.byEmail = make(map[string]*models.Registrant)
	r.byCode = make(map[string]string)
	return n, nil
}
