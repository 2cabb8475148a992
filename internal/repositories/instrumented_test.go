package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/mystiq-app/waitlist-backend/internal/repositories/mocks"
	"github.com/mystiq-app/waitlist-backend/pkg/metrics"
)

func TestInstrumentedRepository_RecordsErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	inner := mocks.NewMockRegistrantRepository(ctrl)
	repo := NewInstrumentedRepository(inner, "mock", metrics.NewMetrics())
	ctx := context.Background()

	boom := errors.New("connection reset")
	inner.EXPECT().Count(ctx).Return(0, boom)
	inner.EXPECT().Count(ctx).Return(3, nil)

	before := testutil.ToFloat64(metrics.StoreErrorsTotal.WithLabelValues("mock", "count"))

	_, err := repo.Count(ctx)
	assert.ErrorIs(t, err, boom)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	after := testutil.ToFloat64(metrics.StoreErrorsTotal.WithLabelValues("mock", "count"))
	assert.Equal(t, float64(1), after-before)
}

func TestInstrumentedRepository_RankerPassthrough(t *testing.T) {
	ctrl := gomock.NewController(t)
	wrappedMock := NewInstrumentedRepository(mocks.NewMockRegistrantRepository(ctrl), "mock", metrics.NewMetrics())

	_, ok := AsRanker(wrappedMock)
	assert.False(t, ok)

	_, err := wrappedMock.(Ranker).Position(context.Background(), "a@iitd.ac.in")
	assert.ErrorIs(t, err, ErrRankerUnsupported)

	wrappedMemory := NewInstrumentedRepository(NewMemoryRegistrantRepository(), "memory", metrics.NewMetrics())
	_, ok = AsRanker(wrappedMemory)
	assert.False(t, ok)
}
