package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mystiq-app/waitlist-backend/internal/models"
	"github.com/mystiq-app/waitlist-backend/internal/ranking"
	"github.com/mystiq-app/waitlist-backend/internal/repositories"
)

const (
	// DefaultPriorityBoost is applied by a bulk boost without an explicit value
	DefaultPriorityBoost = 10

	clearConfirmation = "DELETE"

	timelineDays     = 30
	topReferrerLimit = 10

	highPriorityScore   = 20
	mediumPriorityScore = 10
)

// AdminService serves the moderation and reporting views of the waitlist
type AdminService struct {
	repo   repositories.RegistrantRepository
	logger *logrus.Logger
	now    func() time.Time
}

// NewAdminService creates a new admin service
func NewAdminService(repo repositories.RegistrantRepository, logger *logrus.Logger) *AdminService {
	return &AdminService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// Stats aggregates counts over every registrant
func (s *AdminService) Stats(ctx context.Context) (*models.WaitlistStats, error) {
	all, err := s.repo.All(ctx)
	if err != nil {
		return nil, models.NewDatabaseError("Failed to get stats", err)
	}

	stats := &models.WaitlistStats{TotalUsers: len(all)}
	totalScore := 0
	for _, r := range all {
		totalScore += r.PriorityScore
		if r.TeaserAnswer != "" {
			stats.AnsweredTeaser++
		}
		if r.ReferredBy != "" {
			stats.ReferredUsers++
		}
		if r.Instagram != "" {
			stats.HasInstagram++
		}
		switch r.Status {
		case models.StatusPending:
			stats.PendingUsers++
		case models.StatusApproved:
			stats.ApprovedUsers++
		case models.StatusRejected:
			stats.RejectedUsers++
		}
	}
	if len(all) > 0 {
		stats.AvgPriorityScore = float64(totalScore) / float64(len(all))
	}
	return stats, nil
}

// ListRegistrants returns every registrant in queue order
func (s *AdminService) ListRegistrants(ctx context.Context) (*models.RegistrantList, error) {
	all, err := s.repo.All(ctx)
	if err != nil {
		return nil, models.NewDatabaseError("Failed to get users", err)
	}
	ranking.Sort(all)

	users := make([]*models.RankedRegistrant, len(all))
	for i, r := range all {
		users[i] = &models.RankedRegistrant{Registrant: r, QueuePosition: i + 1}
	}
	return &models.RegistrantList{Total: len(users), Users: users}, nil
}

// GetRegistrant returns the full record for email
func (s *AdminService) GetRegistrant(ctx context.Context, email string) (*models.Registrant, error) {
	registrant, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, models.NewDatabaseError("Failed to get user", err)
	}
	if registrant == nil {
		return nil, models.NewNotFoundError("User not found")
	}
	return registrant, nil
}

// UpdateStatus moderates a single registrant
func (s *AdminService) UpdateStatus(ctx context.Context, email, status string) error {
	email = normalizeEmail(email)
	status = normalizeStatus(status)
	if !models.IsValidStatus(status) {
		return models.NewValidationError("Invalid status", status)
	}

	ok, err := s.repo.UpdateStatus(ctx, email, status)
	if err != nil {
		return models.NewDatabaseError("Failed to update user status", err)
	}
	if !ok {
		return models.NewNotFoundError("User not found")
	}

	s.logger.WithFields(logrus.Fields{
		"email":  email,
		"status": status,
	}).Info("Updated user status")
	return nil
}

// Bulk applies one action to every listed registrant. Unknown emails are
// skipped and not counted.
func (s *AdminService) Bulk(ctx context.Context, req *models.BulkRequest) (*models.BulkResult, error) {
	emails := make([]string, 0, len(req.Emails))
	for _, e := range req.Emails {
		if e = normalizeEmail(e); e != "" {
			emails = append(emails, e)
		}
	}
	if len(emails) == 0 {
		return nil, models.NewValidationError("No emails provided", "")
	}

	var (
		updated int
		err     error
	)
	switch req.Action {
	case models.BulkActionStatus:
		var status string
		jsonErr := json.Unmarshal(req.Value, &status)
		if status = normalizeStatus(status); jsonErr != nil || !models.IsValidStatus(status) {
			return nil, models.NewValidationError("Invalid status", string(req.Value))
		}
		updated, err = s.repo.UpdateStatusBulk(ctx, emails, status)
	case models.BulkActionPriorityBoost:
		delta, appErr := parseBoost(req.Value)
		if appErr != nil {
			return nil, appErr
		}
		updated, err = s.repo.AddPriority(ctx, emails, delta)
	case models.BulkActionDelete:
		updated, err = s.repo.DeleteByEmails(ctx, emails)
	default:
		return nil, models.NewValidationError("Unknown bulk action", req.Action)
	}
	if err != nil {
		return nil, models.NewDatabaseError("Failed to perform bulk update", err)
	}

	s.logger.WithFields(logrus.Fields{
		"action":  req.Action,
		"emails":  len(emails),
		"updated": updated,
	}).Info("Bulk action applied")

	return &models.BulkResult{
		Success:      true,
		Message:      fmt.Sprintf("%s applied to %d users", req.Action, updated),
		UpdatedCount: updated,
	}, nil
}

func normalizeStatus(status string) string {
	return strings.ToLower(strings.TrimSpace(status))
}

func parseBoost(raw json.RawMessage) (int, *models.AppError) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return DefaultPriorityBoost, nil
	}
	var boost models.FlexibleInt
	if err := json.Unmarshal(raw, &boost); err != nil {
		return 0, models.NewValidationError("Invalid priority boost", string(raw))
	}
	if !boost.Set || boost.Value == 0 {
		return DefaultPriorityBoost, nil
	}
	return boost.Value, nil
}

// Clear deletes every registrant when confirm is the literal "DELETE"
func (s *AdminService) Clear(ctx context.Context, confirm string) (int, error) {
	if confirm != clearConfirmation {
		return 0, models.NewValidationError("Confirmation required", `send {"confirm": "DELETE"}`)
	}

	deleted, err := s.repo.Clear(ctx)
	if err != nil {
		return 0, models.NewDatabaseError("Failed to clear database", err)
	}

	s.logger.WithField("deleted", deleted).Warn("Database cleared")
	return deleted, nil
}

// Referrals lists referral edges newest first. Registrants whose code did
// not match anyone are left out.
func (s *AdminService) Referrals(ctx context.Context) ([]models.Referral, error) {
	all, err := s.repo.All(ctx)
	if err != nil {
		return nil, models.NewDatabaseError("Failed to get referrals", err)
	}
	slices.SortStableFunc(all, bySignup)

	byCode := make(map[string]*models.Registrant, len(all))
	for _, r := range all {
		byCode[r.ReferralCode] = r
	}

	referrals := make([]models.Referral, 0)
	for _, r := range all {
		if r.ReferredBy == "" {
			continue
		}
		referrer, ok := byCode[r.ReferredBy]
		if !ok {
			continue
		}
		referrals = append(referrals, models.Referral{
			ID:              len(referrals) + 1,
			ReferrerEmail:   referrer.Email,
			ReferredEmail:   r.Email,
			ReferrerCode:    referrer.ReferralCode,
			ReferredCollege: r.CollegeName,
			CreatedAt:       r.CreatedAt,
		})
	}

	slices.Reverse(referrals)
	return referrals, nil
}

// Analytics builds the dashboard breakdowns
func (s *AdminService) Analytics(ctx context.Context) (*models.Analytics, error) {
	all, err := s.repo.All(ctx)
	if err != nil {
		return nil, models.NewDatabaseError("Failed to get analytics", err)
	}
	slices.SortStableFunc(all, bySignup)

	// today plus the 29 days before it
	since := s.now().UTC().Truncate(24*time.Hour).AddDate(0, 0, 1-timelineDays)

	analytics := &models.Analytics{
		RegistrationTimeline: make(map[string]int),
		CollegeDistribution:  make(map[string]int),
		ReferralStats:        models.ReferralStats{TopReferrers: make([]models.TopReferrer, 0)},
	}

	var referrers []*models.Registrant
	for _, r := range all {
		if !r.CreatedAt.Before(since) {
			analytics.RegistrationTimeline[r.CreatedAt.UTC().Format("2006-01-02")]++
		}
		analytics.CollegeDistribution[r.CollegeName]++

		switch {
		case r.PriorityScore >= highPriorityScore:
			analytics.PriorityDistribution.High++
		case r.PriorityScore >= mediumPriorityScore:
			analytics.PriorityDistribution.Medium++
		default:
			analytics.PriorityDistribution.Low++
		}

		if r.ReferredBy != "" {
			analytics.ReferralStats.TotalReferrals++
		}
		if r.ReferralCount > 0 {
			referrers = append(referrers, r)
		}
	}

	analytics.ReferralStats.ActiveReferrers = len(referrers)
	slices.SortStableFunc(referrers, func(a, b *models.Registrant) int {
		return b.ReferralCount - a.ReferralCount
	})
	for _, r := range referrers[:min(len(referrers), topReferrerLimit)] {
		analytics.ReferralStats.TopReferrers = append(analytics.ReferralStats.TopReferrers, models.TopReferrer{
			Email:         r.Email,
			ReferralCount: r.ReferralCount,
			College:       r.CollegeName,
		})
	}

	return analytics, nil
}

func bySignup(a, b *models.Registrant) int {
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	switch {
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	}
	return 0
}
