//go:build integration

package repositories

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func TestRedisRegistrantRepository(t *testing.T) {
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	addr, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(addr)
	require.NoError(t, err)

	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())

	suite.Run(t, &registrantStoreSuite{
		newRepo: func() RegistrantRepository {
			return NewRedisRegistrantRepository(client, "test:waitlist:")
		},
		reset: func() {
			require.NoError(t, client.FlushAll(ctx).Err())
		},
	})

	t.Run("snapshots", func(t *testing.T) {
		require.NoError(t, client.FlushAll(ctx).Err())
		testSnapshotRepository(t, NewRedisSnapshotRepository(client, "test:waitlist:", 0))
	})
}
