package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mystiq-app/waitlist-backend/internal/models"
	"github.com/mystiq-app/waitlist-backend/internal/repositories"
	"github.com/mystiq-app/waitlist-backend/pkg/metrics"
)

type AdminServiceSuite struct {
	suite.Suite
	ctx      context.Context
	repo     repositories.RegistrantRepository
	register *RegistrationService
	svc      *AdminService
}

func TestAdminServiceSuite(t *testing.T) {
	suite.Run(t, new(AdminServiceSuite))
}

func (s *AdminServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.repo = repositories.NewMemoryRegistrantRepository()
	m := metrics.NewMetrics()
	queue := NewQueueService(s.repo, m, newTestLogger())
	s.register = NewRegistrationService(s.repo, queue, m, newTestLogger(), 5)
	s.svc = NewAdminService(s.repo, newTestLogger())
}

// seed registers a@mit.edu, then b (referred by a, with instagram) and
// c@iitd.ac.in (long teaser answer).
func (s *AdminServiceSuite) seed() string {
	a, err := s.register.Register(s.ctx, registerRequest("a@mit.edu", 20))
	s.Require().NoError(err)

	b := registerRequest("b@mit.edu", 22)
	b.ReferredBy = a.ReferralCode
	b.Instagram = "@b"
	_, err = s.register.Register(s.ctx, b)
	s.Require().NoError(err)

	c := &models.RegisterRequest{
		Email:        "c@iitd.ac.in",
		CollegeName:  "IIT Delhi",
		Age:          models.FlexibleInt{Value: 19, Set: true},
		City:         "Delhi",
		TeaserAnswer: "The answer is hidden in the stars above",
	}
	_, err = s.register.Register(s.ctx, c)
	s.Require().NoError(err)

	return a.ReferralCode
}

func (s *AdminServiceSuite) TestStats() {
	s.seed()

	stats, err := s.svc.Stats(s.ctx)
	s.Require().NoError(err)
	s.Equal(3, stats.TotalUsers)
	s.Equal(1, stats.AnsweredTeaser)
	s.Equal(1, stats.ReferredUsers)
	s.Equal(1, stats.HasInstagram)
	s.Equal(3, stats.PendingUsers)
	s.InDelta(float64(20+20+10)/3, stats.AvgPriorityScore, 0.0001)
}

func (s *AdminServiceSuite) TestStatsEmpty() {
	stats, err := s.svc.Stats(s.ctx)
	s.Require().NoError(err)
	s.Zero(stats.TotalUsers)
	s.Zero(stats.AvgPriorityScore)
}

func (s *AdminServiceSuite) TestListRegistrantsInQueueOrder() {
	s.seed()

	list, err := s.svc.ListRegistrants(s.ctx)
	s.Require().NoError(err)
	s.Equal(3, list.Total)

	// a and b both have 20, a signed up first
	expected := []string{"a@mit.edu", "b@mit.edu", "c@iitd.ac.in"}
	for i, u := range list.Users {
		s.Equal(expected[i], u.Email)
		s.Equal(i+1, u.QueuePosition)
	}
}

func (s *AdminServiceSuite) TestGetAndUpdateStatus() {
	s.seed()

	s.Require().NoError(s.svc.UpdateStatus(s.ctx, "B@mit.edu", "Approved"))

	reg, err := s.svc.GetRegistrant(s.ctx, "b@mit.edu")
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, reg.Status)

	err = s.svc.UpdateStatus(s.ctx, "b@mit.edu", "banished")
	requireAppError(s.T(), err, http.StatusBadRequest, "Invalid status")

	err = s.svc.UpdateStatus(s.ctx, "ghost@mit.edu", models.StatusRejected)
	requireAppError(s.T(), err, http.StatusNotFound, "User not found")

	_, err = s.svc.GetRegistrant(s.ctx, "ghost@mit.edu")
	requireAppError(s.T(), err, http.StatusNotFound, "User not found")
}

func (s *AdminServiceSuite) TestBulkStatus() {
	s.seed()

	res, err := s.svc.Bulk(s.ctx, &models.BulkRequest{
		Emails: []string{"a@mit.edu", "c@iitd.ac.in", "ghost@mit.edu"},
		Action: models.BulkActionStatus,
		Value:  json.RawMessage(`"rejected"`),
	})
	s.Require().NoError(err)
	s.Equal(2, res.UpdatedCount)
	s.Equal("status applied to 2 users", res.Message)

	stats, err := s.svc.Stats(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, stats.RejectedUsers)
	s.Equal(1, stats.PendingUsers)
}

func (s *AdminServiceSuite) TestBulkStatusNormalizesValue() {
	s.seed()

	res, err := s.svc.Bulk(s.ctx, &models.BulkRequest{
		Emails: []string{"b@mit.edu"},
		Action: models.BulkActionStatus,
		Value:  json.RawMessage(`" Approved "`),
	})
	s.Require().NoError(err)
	s.Equal(1, res.UpdatedCount)

	registrant, err := s.svc.GetRegistrant(s.ctx, "b@mit.edu")
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, registrant.Status)
}

func (s *AdminServiceSuite) TestBulkPriorityBoost() {
	s.seed()

	_, err := s.svc.Bulk(s.ctx, &models.BulkRequest{
		Emails: []string{"c@iitd.ac.in"},
		Action: models.BulkActionPriorityBoost,
	})
	s.Require().NoError(err)

	c, err := s.svc.GetRegistrant(s.ctx, "c@iitd.ac.in")
	s.Require().NoError(err)
	s.Equal(10+DefaultPriorityBoost, c.PriorityScore)

	_, err = s.svc.Bulk(s.ctx, &models.BulkRequest{
		Emails: []string{"c@iitd.ac.in"},
		Action: models.BulkActionPriorityBoost,
		Value:  json.RawMessage(`"25"`),
	})
	s.Require().NoError(err)

	list, err := s.svc.ListRegistrants(s.ctx)
	s.Require().NoError(err)
	s.Equal("c@iitd.ac.in", list.Users[0].Email)
	s.Equal(45, list.Users[0].PriorityScore)
}

func (s *AdminServiceSuite) TestBulkDelete() {
	s.seed()

	res, err := s.svc.Bulk(s.ctx, &models.BulkRequest{
		Emails: []string{"a@mit.edu"},
		Action: models.BulkActionDelete,
	})
	s.Require().NoError(err)
	s.Equal(1, res.UpdatedCount)

	count, err := s.repo.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, count)
}

func (s *AdminServiceSuite) TestBulkRejections() {
	tests := []struct {
		name    string
		req     *models.BulkRequest
		message string
	}{
		{"no emails", &models.BulkRequest{Action: models.BulkActionDelete}, "No emails provided"},
		{"blank emails", &models.BulkRequest{Emails: []string{" "}, Action: models.BulkActionDelete}, "No emails provided"},
		{"unknown action", &models.BulkRequest{Emails: []string{"a@mit.edu"}, Action: "promote"}, "Unknown bulk action"},
		{"bad status", &models.BulkRequest{Emails: []string{"a@mit.edu"}, Action: models.BulkActionStatus, Value: json.RawMessage(`"vip"`)}, "Invalid status"},
		{"bad boost", &models.BulkRequest{Emails: []string{"a@mit.edu"}, Action: models.BulkActionPriorityBoost, Value: json.RawMessage(`"lots"`)}, "Invalid priority boost"},
	}

	for _, tt := range tests {
		_, err := s.svc.Bulk(s.ctx, tt.req)
		requireAppError(s.T(), err, http.StatusBadRequest, tt.message)
	}
}

func (s *AdminServiceSuite) TestClear() {
	s.seed()

	_, err := s.svc.Clear(s.ctx, "yes")
	requireAppError(s.T(), err, http.StatusBadRequest, "Confirmation required")

	deleted, err := s.svc.Clear(s.ctx, "DELETE")
	s.Require().NoError(err)
	s.Equal(3, deleted)

	count, err := s.repo.Count(s.ctx)
	s.Require().NoError(err)
	s.Zero(count)
}

func (s *AdminServiceSuite) TestReferralsNewestFirst() {
	code := s.seed()

	d := registerRequest("d@mit.edu", 20)
	d.ReferredBy = code
	_, err := s.register.Register(s.ctx, d)
	s.Require().NoError(err)

	e := registerRequest("e@mit.edu", 20)
	e.ReferredBy = "NOPE00"
	_, err = s.register.Register(s.ctx, e)
	s.Require().NoError(err)

	referrals, err := s.svc.Referrals(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(referrals, 2)

	s.Equal("d@mit.edu", referrals[0].ReferredEmail)
	s.Equal(2, referrals[0].ID)
	s.Equal("b@mit.edu", referrals[1].ReferredEmail)
	s.Equal(1, referrals[1].ID)
	s.Equal("a@mit.edu", referrals[1].ReferrerEmail)
	s.Equal(code, referrals[1].ReferrerCode)
	s.Equal("MIT", referrals[1].ReferredCollege)
}

func (s *AdminServiceSuite) TestAnalytics() {
	s.seed()
	s.svc.now = func() time.Time { return time.Now().Add(time.Hour) }

	analytics, err := s.svc.Analytics(s.ctx)
	s.Require().NoError(err)

	total := 0
	for _, n := range analytics.RegistrationTimeline {
		total += n
	}
	s.Equal(3, total)

	s.Equal(map[string]int{"MIT": 2, "IIT Delhi": 1}, analytics.CollegeDistribution)
	s.Equal(models.PriorityDistribution{High: 2, Medium: 1, Low: 0}, analytics.PriorityDistribution)
	s.Equal(1, analytics.ReferralStats.TotalReferrals)
	s.Equal(1, analytics.ReferralStats.ActiveReferrers)
	s.Require().Len(analytics.ReferralStats.TopReferrers, 1)
	s.Equal(models.TopReferrer{Email: "a@mit.edu", ReferralCount: 1, College: "MIT"}, analytics.ReferralStats.TopReferrers[0])

	// registrations older than the window drop out of the timeline only
	s.svc.now = func() time.Time { return time.Now().AddDate(0, 0, 45) }
	analytics, err = s.svc.Analytics(s.ctx)
	s.Require().NoError(err)
	s.Empty(analytics.RegistrationTimeline)
	s.Len(analytics.CollegeDistribution, 2)
}

func (s *AdminServiceSuite) TestTopReferrersLimited() {
	for i := 0; i < 12; i++ {
		ref, err := s.register.Register(s.ctx, registerRequest(fmt.Sprintf("ref%d@mit.edu", i), 20))
		s.Require().NoError(err)
		for j := 0; j <= i%3; j++ {
			req := registerRequest(fmt.Sprintf("f%d-%d@mit.edu", i, j), 20)
			req.ReferredBy = ref.ReferralCode
			_, err := s.register.Register(s.ctx, req)
			s.Require().NoError(err)
		}
	}

	analytics, err := s.svc.Analytics(s.ctx)
	s.Require().NoError(err)
	s.Equal(12, analytics.ReferralStats.ActiveReferrers)
	s.Len(analytics.ReferralStats.TopReferrers, 10)
	s.Equal(3, analytics.ReferralStats.TopReferrers[0].ReferralCount)
	s.Equal("ref2@mit.edu", analytics.ReferralStats.TopReferrers[0].Email)
}
