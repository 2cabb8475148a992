package repositories

import (
	"context"
	"errors"

	"github.com/mystiq-app/waitlist-backend/internal/models"
)

//go:generate mockgen -destination=mocks/mock_registrant_repository.go -package=mocks . RegistrantRepository

// ErrRankerUnsupported is returned when a wrapped store has no ordered index
var ErrRankerUnsupported = errors.New("store does not maintain a queue index")

// RegistrantRepository is the identity store for waitlist registrants.
// Email and referral code are unique across all registrants.
type RegistrantRepository interface {
	// Insert stores a new registrant, assigning ID and CreatedAt. When
	// ReferredBy matches an existing referral code the referrer is credited
	// in the same atomic step, and the returned bool reports whether that
	// happened. Returns ErrDuplicateEmail or ErrDuplicateReferralCode
	// without mutating anything.
	Insert(ctx context.Context, registrant *models.Registrant) (bool, error)
	FindByEmail(ctx context.Context, email string) (*models.Registrant, error)
	FindByReferralCode(ctx context.Context, code string) (*models.Registrant, error)
	// IncrementReferral adds one referral and scoreDelta points to the owner
	// of code. Reports false, with no error, when no registrant owns code.
	IncrementReferral(ctx context.Context, code string, scoreDelta int) (bool, error)
	Count(ctx context.Context) (int, error)
	All(ctx context.Context) ([]*models.Registrant, error)

	// Moderation
	UpdateStatus(ctx context.Context, email, status string) (bool, error)
	UpdateStatusBulk(ctx context.Context, emails []string, status string) (int, error)
	AddPriority(ctx context.Context, emails []string, delta int) (int, error)
	DeleteByEmails(ctx context.Context, emails []string) (int, error)
	Clear(ctx context.Context) (int, error)
}

// Ranker is implemented by stores that keep an ordered queue index and can
// answer a position without scanning every registrant.
type Ranker interface {
	Position(ctx context.Context, email string) (int, error)
}

// AsRanker returns the store's Ranker if it maintains a queue index
func AsRanker(repo RegistrantRepository) (Ranker, bool) {
	if inst, ok := repo.(*instrumentedRepository); ok {
		if _, ok := inst.next.(Ranker); !ok {
			return nil, false
		}
		return inst, true
	}
	ranker, ok := repo.(Ranker)
	return ranker, ok
}

// Pinger is implemented by stores backed by a remote server
type Pinger interface {
	Ping(ctx context.Context) error
}

func dedupe(emails []string) []string {
	seen := make(map[string]struct{}, len(emails))
	out := make([]string, 0, len(emails))
	for _, e := range emails {
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}
