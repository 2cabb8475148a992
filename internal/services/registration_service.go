package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mystiq-app/waitlist-backend/internal/models"
	"github.com/mystiq-app/waitlist-backend/internal/ranking"
	"github.com/mystiq-app/waitlist-backend/internal/repositories"
	apperrors "github.com/mystiq-app/waitlist-backend/pkg/errors"
	"github.com/mystiq-app/waitlist-backend/pkg/metrics"
)

const (
	referralCodeLength   = 6
	referralCodeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

	minimumAge = 18
)

// Registration outcomes reported to metrics
const (
	resultSuccess   = "success"
	resultInvalid   = "invalid"
	resultDuplicate = "duplicate"
	resultError     = "error"
)

// RegistrationService admits new registrants to the waitlist
type RegistrationService struct {
	repo         repositories.RegistrantRepository
	queue        *QueueService
	metrics      *metrics.Metrics
	logger       *logrus.Logger
	codeAttempts int
	generateCode func() (string, error)
}

// NewRegistrationService creates a new registration service
func NewRegistrationService(
	repo repositories.RegistrantRepository,
	queue *QueueService,
	m *metrics.Metrics,
	logger *logrus.Logger,
	codeAttempts int,
) *RegistrationService {
	if codeAttempts < 1 {
		codeAttempts = 1
	}
	return &RegistrationService{
		repo:         repo,
		queue:        queue,
		metrics:      m,
		logger:       logger,
		codeAttempts: codeAttempts,
		generateCode: GenerateReferralCode,
	}
}

// Register validates the submission, stores the registrant with a fresh
// referral code, credits the referrer and returns the new queue position.
func (s *RegistrationService) Register(ctx context.Context, req *models.RegisterRequest) (*models.RegisterResponse, error) {
	normalizeRegisterRequest(req)

	if appErr := validateRegisterRequest(req); appErr != nil {
		s.metrics.RecordRegistration(resultInvalid)
		s.logger.WithFields(logrus.Fields{
			"email":  req.Email,
			"reason": appErr.Message,
		}).Info("Registration rejected")
		return nil, appErr
	}

	existing, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		s.metrics.RecordRegistration(resultError)
		return nil, models.NewDatabaseError("Registration failed", err)
	}
	if existing != nil {
		s.metrics.RecordRegistration(resultDuplicate)
		return nil, models.NewDuplicateEmailError(req.Email, nil)
	}

	registrant := &models.Registrant{
		Email:         req.Email,
		CollegeName:   req.CollegeName,
		Age:           req.Age.Value,
		City:          req.City,
		Instagram:     req.Instagram,
		TeaserAnswer:  req.TeaserAnswer,
		ReferredBy:    req.ReferredBy,
		PriorityScore: ranking.ScoreFor(req.TeaserAnswer, req.Instagram, req.ReferredBy),
		Status:        models.StatusPending,
	}

	credited, err := s.insertWithFreshCode(ctx, registrant)
	if err != nil {
		return nil, err
	}

	if registrant.ReferredBy != "" {
		s.metrics.RecordReferralCredit(credited)
		fields := logrus.Fields{
			"email":       registrant.Email,
			"referred_by": registrant.ReferredBy,
		}
		if credited {
			s.logger.WithFields(fields).Info("Referrer credited")
		} else {
			s.logger.WithFields(fields).Warn("Referral code not found")
		}
	}

	position, err := s.queue.Position(ctx, registrant.Email)
	if err != nil {
		s.metrics.RecordRegistration(resultError)
		return nil, models.NewInternalError("Registration failed", err)
	}
	total, err := s.repo.Count(ctx)
	if err != nil {
		s.metrics.RecordRegistration(resultError)
		return nil, models.NewDatabaseError("Registration failed", err)
	}

	s.metrics.RecordRegistration(resultSuccess)
	s.logger.WithFields(logrus.Fields{
		"email":          registrant.Email,
		"referral_code":  registrant.ReferralCode,
		"priority_score": registrant.PriorityScore,
		"queue_position": position,
		"total_users":    total,
	}).Info("User registered successfully")

	return &models.RegisterResponse{
		Success:       true,
		ReferralCode:  registrant.ReferralCode,
		QueuePosition: position,
		TotalUsers:    total,
		PriorityScore: registrant.PriorityScore,
	}, nil
}

// insertWithFreshCode draws referral codes until the store accepts one
func (s *RegistrationService) insertWithFreshCode(ctx context.Context, registrant *models.Registrant) (bool, error) {
	var lastErr error
	for attempt := 1; attempt <= s.codeAttempts; attempt++ {
		code, err := s.generateCode()
		if err != nil {
			s.metrics.RecordRegistration(resultError)
			return false, models.NewInternalError("Registration failed", err)
		}
		registrant.ReferralCode = code

		credited, err := s.repo.Insert(ctx, registrant)
		switch {
		case err == nil:
			return credited, nil
		case apperrors.Is(err, apperrors.ErrDuplicateReferralCode):
			s.metrics.RecordReferralCodeCollision()
			s.logger.WithFields(logrus.Fields{
				"code":    code,
				"attempt": attempt,
			}).Warn("Referral code collision, regenerating")
			lastErr = err
		case apperrors.Is(err, apperrors.ErrDuplicateEmail):
			// lost a race with a concurrent signup for the same email
			s.metrics.RecordRegistration(resultDuplicate)
			return false, models.NewDuplicateEmailError(registrant.Email, err)
		default:
			s.metrics.RecordRegistration(resultError)
			return false, models.NewDatabaseError("Registration failed", err)
		}
	}

	s.metrics.RecordRegistration(resultError)
	s.logger.WithField("attempts", s.codeAttempts).Error("Referral code space exhausted")
	return false, models.NewReferralCodeExhaustedError(s.codeAttempts, lastErr)
}

// GenerateReferralCode returns a random 6 character uppercase base-36 code
func GenerateReferralCode() (string, error) {
	// 252 is the largest multiple of 36 below 256; higher bytes are redrawn
	const limit = 252

	code := make([]byte, 0, referralCodeLength)
	buf := make([]byte, referralCodeLength*2)
	for len(code) < referralCodeLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			code = append(code, referralCodeAlphabet[int(b)%len(referralCodeAlphabet)])
			if len(code) == referralCodeLength {
				break
			}
		}
	}
	return string(code), nil
}

func normalizeRegisterRequest(req *models.RegisterRequest) {
	req.Email = normalizeEmail(req.Email)
	req.CollegeName = strings.TrimSpace(req.CollegeName)
	req.City = strings.TrimSpace(req.City)
	req.Instagram = strings.TrimSpace(req.Instagram)
	req.ReferredBy = strings.ToUpper(strings.TrimSpace(req.ReferredBy))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateRegisterRequest(req *models.RegisterRequest) *models.AppError {
	var missing []string
	if req.Email == "" {
		missing = append(missing, "email")
	}
	if req.CollegeName == "" {
		missing = append(missing, "college_name")
	}
	if !req.Age.Set {
		missing = append(missing, "age")
	}
	if req.City == "" {
		missing = append(missing, "city")
	}
	if len(missing) > 0 {
		return models.NewValidationError("Missing required fields", strings.Join(missing, ", "))
	}

	if !IsCollegeEmail(req.Email) {
		return models.NewValidationError("Please use your college email address", req.Email)
	}
	if req.Age.Value < minimumAge {
		return models.NewValidationError("You must be at least 18 years old", fmt.Sprintf("age %d", req.Age.Value))
	}
	return nil
}

// IsCollegeEmail reports whether the domain part looks academic: it must
// contain ".edu" or ".ac." (so "mit.edu" and "iitd.ac.in" pass, "edu.com" does not).
func IsCollegeEmail(email string) bool {
	at := strings.LastIndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return false
	}
	domain := email[at+1:]
	return strings.Contains(domain, ".edu") || strings.Contains(domain, ".ac.")
}
