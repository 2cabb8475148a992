package repositories

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mystiq-app/waitlist-backend/internal/ranking"
)

func TestMemoryRegistrantRepository(t *testing.T) {
	suite.Run(t, &registrantStoreSuite{
		newRepo: NewMemoryRegistrantRepository,
	})
}

func TestMemoryRegistrantRepository_FrozenClock(t *testing.T) {
	frozen := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	repo := newMemoryRegistrantRepository(func() time.Time { return frozen })
	ctx := context.Background()

	first := newRegistrant("a@iitd.ac.in", "AAAAAA", "", 0)
	second := newRegistrant("b@iitd.ac.in", "BBBBBB", "", 0)
	_, err := repo.Insert(ctx, first)
	require.NoError(t, err)
	_, err = repo.Insert(ctx, second)
	require.NoError(t, err)

	assert.True(t, second.CreatedAt.After(first.CreatedAt))
	assert.True(t, ranking.Less(first, second))
}

func TestMemoryRegistrantRepository_ReturnsCopies(t *testing.T) {
	repo := NewMemoryRegistrantRepository()
	ctx := context.Background()

	reg := newRegistrant("a@iitd.ac.in", "AAAAAA", "", 0)
	_, err := repo.Insert(ctx, reg)
	require.NoError(t, err)

	reg.PriorityScore = 999
	found, err := repo.FindByEmail(ctx, "a@iitd.ac.in")
	require.NoError(t, err)
	found.Status = "tampered"

	again, err := repo.FindByEmail(ctx, "a@iitd.ac.in")
	require.NoError(t, err)
	assert.Equal(t, 0, again.PriorityScore)
	assert.Equal(t, "pending", again.Status)
}

func TestMemoryRegistrantRepository_ConcurrentReferrals(t *testing.T) {
	repo := NewMemoryRegistrantRepository()
	ctx := context.Background()

	_, err := repo.Insert(ctx, newRegistrant("ref@iitd.ac.in", "REF001", "", 0))
	require.NoError(t, err)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			reg := newRegistrant(fmt.Sprintf("u%d@iitd.ac.in", i), fmt.Sprintf("U%05d", i), "REF001", 15)
			_, err := repo.Insert(ctx, reg)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	referrer, err := repo.FindByEmail(ctx, "ref@iitd.ac.in")
	require.NoError(t, err)
	assert.Equal(t, n, referrer.ReferralCount)
	assert.Equal(t, n*ranking.ReferralReward, referrer.PriorityScore)

	_, ok := AsRanker(repo)
	assert.False(t, ok, "memory store has no queue index")
}
