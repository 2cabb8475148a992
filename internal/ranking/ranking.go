// Package ranking holds the waitlist priority rules: how a registrant's score
// is derived at signup and how registrants are ordered in the queue.
package ranking

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/mystiq-app/waitlist-backend/internal/models"
	apperrors "github.com/mystiq-app/waitlist-backend/pkg/errors"
)

const (
	// TeaserMinLength is the answer length that must be exceeded to earn TeaserBonus
	TeaserMinLength = 20
	TeaserBonus     = 10
	InstagramBonus  = 5
	ReferredBonus   = 15

	// ReferralReward is added to a referrer for every registrant using their code
	ReferralReward = 20
)

// Score computes the signup score. It is evaluated once when the registrant
// is created and never recomputed from these inputs afterwards.
func Score(teaserLen int, hasInstagram, hasReferrer bool) int {
	score := 0
	if teaserLen > TeaserMinLength {
		score += TeaserBonus
	}
	if hasInstagram {
		score += InstagramBonus
	}
	if hasReferrer {
		score += ReferredBonus
	}
	return score
}

// ScoreFor applies Score to submitted form values. Teaser length is counted
// in characters, not bytes.
func ScoreFor(teaserAnswer, instagram, referredBy string) int {
	return Score(
		utf8.RuneCountInString(teaserAnswer),
		strings.TrimSpace(instagram) != "",
		strings.TrimSpace(referredBy) != "",
	)
}

// Less reports whether a is ahead of b in the queue: higher score first,
// then earlier signup, then lower ID.
func Less(a, b *models.Registrant) bool {
	if a.PriorityScore != b.PriorityScore {
		return a.PriorityScore > b.PriorityScore
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

// Compare is Less expressed as a three-way comparison for slices.SortFunc
func Compare(a, b *models.Registrant) int {
	switch {
	case Less(a, b):
		return -1
	case Less(b, a):
		return 1
	}
	return 0
}

// PositionOf returns the 1-based queue position of target among all
func PositionOf(all []*models.Registrant, target *models.Registrant) int {
	ahead := 0
	for _, r := range all {
		if r.Email == target.Email {
			continue
		}
		if Less(r, target) {
			ahead++
		}
	}
	return ahead + 1
}

// Position finds email in all and returns its 1-based queue position
func Position(all []*models.Registrant, email string) (int, error) {
	for _, r := range all {
		if r.Email == email {
			return PositionOf(all, r), nil
		}
	}
	return 0, apperrors.Wrapf(apperrors.ErrNotFound, "registrant %s", email)
}

// Sort orders registrants in queue order in place
func Sort(all []*models.Registrant) {
	slices.SortStableFunc(all, Compare)
}
