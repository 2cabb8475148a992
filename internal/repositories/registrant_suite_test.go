package repositories

import (
	"context"
	"fmt"

	"github.com/stretchr/testify/suite"

	"github.com/mystiq-app/waitlist-backend/internal/models"
	"github.com/mystiq-app/waitlist-backend/internal/ranking"
	apperrors "github.com/mystiq-app/waitlist-backend/pkg/errors"
)

// registrantStoreSuite runs the same behaviour checks against every backend.
// Backends supply newRepo and, for shared servers, reset.
type registrantStoreSuite struct {
	suite.Suite
	newRepo func() RegistrantRepository
	reset   func()
	repo    RegistrantRepository
	ctx     context.Context
}

func (s *registrantStoreSuite) SetupTest() {
	if s.reset != nil {
		s.reset()
	}
	s.ctx = context.Background()
	s.repo = s.newRepo()
}

func newRegistrant(email, code, referredBy string, score int) *models.Registrant {
	return &models.Registrant{
		Email:         email,
		CollegeName:   "IIT Delhi",
		Age:           20,
		City:          "Delhi",
		ReferralCode:  code,
		ReferredBy:    referredBy,
		PriorityScore: score,
		Status:        models.StatusPending,
	}
}

func (s *registrantStoreSuite) insert(email, code, referredBy string, score int) *models.Registrant {
	reg := newRegistrant(email, code, referredBy, score)
	_, err := s.repo.Insert(s.ctx, reg)
	s.Require().NoError(err)
	return reg
}

func (s *registrantStoreSuite) TestInsertAssignsIdentity() {
	reg := s.insert("a@iitd.ac.in", "AAAAAA", "", 0)

	s.NotZero(reg.ID)
	s.False(reg.CreatedAt.IsZero())

	stored, err := s.repo.FindByEmail(s.ctx, "a@iitd.ac.in")
	s.Require().NoError(err)
	s.Require().NotNil(stored)
	s.Equal(reg.ID, stored.ID)
	s.Equal("AAAAAA", stored.ReferralCode)
	s.Equal("IIT Delhi", stored.CollegeName)
	s.Equal(20, stored.Age)
	s.Equal(models.StatusPending, stored.Status)
	s.True(reg.CreatedAt.Equal(stored.CreatedAt))
}

func (s *registrantStoreSuite) TestInsertDuplicateEmail() {
	s.insert("a@iitd.ac.in", "AAAAAA", "", 0)

	_, err := s.repo.Insert(s.ctx, newRegistrant("a@iitd.ac.in", "BBBBBB", "", 0))
	s.ErrorIs(err, apperrors.ErrDuplicateEmail)

	count, err := s.repo.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, count)

	byCode, err := s.repo.FindByReferralCode(s.ctx, "BBBBBB")
	s.Require().NoError(err)
	s.Nil(byCode)
}

func (s *registrantStoreSuite) TestInsertDuplicateReferralCode() {
	s.insert("a@iitd.ac.in", "AAAAAA", "", 0)

	_, err := s.repo.Insert(s.ctx, newRegistrant("b@iitd.ac.in", "AAAAAA", "", 0))
	s.ErrorIs(err, apperrors.ErrDuplicateReferralCode)

	missing, err := s.repo.FindByEmail(s.ctx, "b@iitd.ac.in")
	s.Require().NoError(err)
	s.Nil(missing)
}

func (s *registrantStoreSuite) TestDuplicateEmailDoesNotCreditReferrer() {
	s.insert("ref@iitd.ac.in", "REF001", "", 0)
	s.insert("a@iitd.ac.in", "AAAAAA", "REF001", 15)

	_, err := s.repo.Insert(s.ctx, newRegistrant("a@iitd.ac.in", "BBBBBB", "REF001", 15))
	s.Require().ErrorIs(err, apperrors.ErrDuplicateEmail)

	referrer, err := s.repo.FindByEmail(s.ctx, "ref@iitd.ac.in")
	s.Require().NoError(err)
	s.Equal(1, referrer.ReferralCount)
	s.Equal(ranking.ReferralReward, referrer.PriorityScore)
}

func (s *registrantStoreSuite) TestInsertOwnCodeAsReferrerIsNotCredited() {
	credited, err := s.repo.Insert(s.ctx, newRegistrant("a@iitd.ac.in", "ZZZZZZ", "ZZZZZZ", 15))
	s.Require().NoError(err)
	s.False(credited)

	stored, err := s.repo.FindByEmail(s.ctx, "a@iitd.ac.in")
	s.Require().NoError(err)
	s.Equal(0, stored.ReferralCount)
	s.Equal(15, stored.PriorityScore)
}

func (s *registrantStoreSuite) TestDuplicateReferralCodeDoesNotCreditReferrer() {
	s.insert("ref@iitd.ac.in", "REF001", "", 0)
	s.insert("a@iitd.ac.in", "AAAAAA", "", 0)

	_, err := s.repo.Insert(s.ctx, newRegistrant("b@iitd.ac.in", "AAAAAA", "REF001", 15))
	s.Require().ErrorIs(err, apperrors.ErrDuplicateReferralCode)

	referrer, err := s.repo.FindByEmail(s.ctx, "ref@iitd.ac.in")
	s.Require().NoError(err)
	s.Equal(0, referrer.ReferralCount)
	s.Equal(0, referrer.PriorityScore)
}

func (s *registrantStoreSuite) TestInsertCreditsReferrer() {
	s.insert("ref@iitd.ac.in", "REF001", "", 5)

	credited, err := s.repo.Insert(s.ctx, newRegistrant("a@iitd.ac.in", "AAAAAA", "REF001", 15))
	s.Require().NoError(err)
	s.True(credited)

	referrer, err := s.repo.FindByEmail(s.ctx, "ref@iitd.ac.in")
	s.Require().NoError(err)
	s.Equal(1, referrer.ReferralCount)
	s.Equal(5+ranking.ReferralReward, referrer.PriorityScore)

	newcomer, err := s.repo.FindByEmail(s.ctx, "a@iitd.ac.in")
	s.Require().NoError(err)
	s.Equal(0, newcomer.ReferralCount)
	s.Equal(15, newcomer.PriorityScore)
	s.Equal("REF001", newcomer.ReferredBy)
}

func (s *registrantStoreSuite) TestInsertUnknownReferrerIsNoop() {
	s.insert("ref@iitd.ac.in", "REF001", "", 0)

	credited, err := s.repo.Insert(s.ctx, newRegistrant("a@iitd.ac.in", "AAAAAA", "NOPE99", 15))
	s.Require().NoError(err)
	s.False(credited)

	referrer, err := s.repo.FindByEmail(s.ctx, "ref@iitd.ac.in")
	s.Require().NoError(err)
	s.Equal(0, referrer.ReferralCount)
	s.Equal(0, referrer.PriorityScore)

	count, err := s.repo.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, count)
}

func (s *registrantStoreSuite) TestIncrementReferral() {
	s.insert("ref@iitd.ac.in", "REF001", "", 0)

	ok, err := s.repo.IncrementReferral(s.ctx, "REF001", 7)
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.repo.IncrementReferral(s.ctx, "ZZZZZZ", 7)
	s.Require().NoError(err)
	s.False(ok)

	referrer, err := s.repo.FindByReferralCode(s.ctx, "REF001")
	s.Require().NoError(err)
	s.Require().NotNil(referrer)
	s.Equal(1, referrer.ReferralCount)
	s.Equal(7, referrer.PriorityScore)
}

func (s *registrantStoreSuite) TestFindMissing() {
	reg, err := s.repo.FindByEmail(s.ctx, "ghost@iitd.ac.in")
	s.NoError(err)
	s.Nil(reg)

	reg, err = s.repo.FindByReferralCode(s.ctx, "GHOST1")
	s.NoError(err)
	s.Nil(reg)
}

func (s *registrantStoreSuite) TestCreatedAtStrictlyIncreasing() {
	var prev *models.Registrant
	for i := 0; i < 20; i++ {
		reg := s.insert(fmt.Sprintf("u%d@iitd.ac.in", i), fmt.Sprintf("CODE%02d", i), "", 0)
		if prev != nil {
			s.True(reg.CreatedAt.After(prev.CreatedAt) || reg.ID > prev.ID)
		}
		prev = reg
	}

	all, err := s.repo.All(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 20)
}

func (s *registrantStoreSuite) TestAllRanksConsistently() {
	s.insert("low@iitd.ac.in", "LOW001", "", 0)
	s.insert("high@iitd.ac.in", "HIGH01", "", 30)
	s.insert("mid@iitd.ac.in", "MID001", "", 15)
	s.insert("mid2@iitd.ac.in", "MID002", "", 15)

	all, err := s.repo.All(s.ctx)
	s.Require().NoError(err)
	ranking.Sort(all)

	emails := make([]string, len(all))
	for i, r := range all {
		emails[i] = r.Email
	}
	s.Equal([]string{"high@iitd.ac.in", "mid@iitd.ac.in", "mid2@iitd.ac.in", "low@iitd.ac.in"}, emails)

	if ranker, ok := AsRanker(s.repo); ok {
		for i, email := range emails {
			pos, err := ranker.Position(s.ctx, email)
			s.Require().NoError(err)
			s.Equal(i+1, pos, email)
		}

		_, err := ranker.Position(s.ctx, "ghost@iitd.ac.in")
		s.ErrorIs(err, apperrors.ErrNotFound)
	}
}

func (s *registrantStoreSuite) TestUpdateStatus() {
	s.insert("a@iitd.ac.in", "AAAAAA", "", 0)

	ok, err := s.repo.UpdateStatus(s.ctx, "a@iitd.ac.in", models.StatusApproved)
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.repo.UpdateStatus(s.ctx, "ghost@iitd.ac.in", models.StatusApproved)
	s.Require().NoError(err)
	s.False(ok)

	reg, err := s.repo.FindByEmail(s.ctx, "a@iitd.ac.in")
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, reg.Status)
}

func (s *registrantStoreSuite) TestBulkOperations() {
	s.insert("a@iitd.ac.in", "AAAAAA", "", 0)
	s.insert("b@iitd.ac.in", "BBBBBB", "", 5)
	s.insert("c@iitd.ac.in", "CCCCCC", "", 10)

	n, err := s.repo.UpdateStatusBulk(s.ctx, []string{"a@iitd.ac.in", "b@iitd.ac.in", "a@iitd.ac.in", "ghost@iitd.ac.in"}, models.StatusRejected)
	s.Require().NoError(err)
	s.Equal(2, n)

	n, err = s.repo.AddPriority(s.ctx, []string{"b@iitd.ac.in", "c@iitd.ac.in"}, 10)
	s.Require().NoError(err)
	s.Equal(2, n)

	b, err := s.repo.FindByEmail(s.ctx, "b@iitd.ac.in")
	s.Require().NoError(err)
	s.Equal(15, b.PriorityScore)
	s.Equal(models.StatusRejected, b.Status)

	n, err = s.repo.DeleteByEmails(s.ctx, []string{"a@iitd.ac.in", "ghost@iitd.ac.in"})
	s.Require().NoError(err)
	s.Equal(1, n)

	// the deleted registrant's code is free again
	_, err = s.repo.Insert(s.ctx, newRegistrant("d@iitd.ac.in", "AAAAAA", "", 0))
	s.NoError(err)

	count, err := s.repo.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(3, count)
}

func (s *registrantStoreSuite) TestClear() {
	s.insert("a@iitd.ac.in", "AAAAAA", "", 0)
	s.insert("b@iitd.ac.in", "BBBBBB", "", 0)

	n, err := s.repo.Clear(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, n)

	count, err := s.repo.Count(s.ctx)
	s.Require().NoError(err)
	s.Zero(count)

	all, err := s.repo.All(s.ctx)
	s.Require().NoError(err)
	s.Empty(all)

	n, err = s.repo.Clear(s.ctx)
	s.Require().NoError(err)
	s.Zero(n)
}
