//go:build integration

package redisboard_test

import (
	"context"
	"os"
	"testing"

	"github.com/getpup/tournament-runtime/leaderboard"
	"github.com/getpup/tournament-runtime/leaderboard/redisboard"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDriver_Redis(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set, skipping integration test")
	}

	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	defer client.Close()

	ctx := context.Background()
	const id = 880001
	require.NoError(t, client.Del(ctx, redisboard.PointsKey(id), redisboard.MetaKey(id)).Err())

	d := redisboard.New(client, nil)
	require.NoError(t, d.Start(ctx, id))

	require.NoError(t, d.Accrue(ctx, "alice", 30))
	require.NoError(t, d.Accrue(ctx, "bob", 50))
	require.NoError(t, d.Accrue(ctx, "alice", 25))

	standings, err := d.Standings(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []leaderboard.Standing{
		{UserID: "alice", Points: 55, Position: 1},
		{UserID: "bob", Points: 50, Position: 2},
	}, standings)

	out, err := d.KnockedOut(ctx, "bob", 1)
	require.NoError(t, err)
	assert.True(t, out)

	_, err = d.Position(ctx, "carol")
	assert.ErrorIs(t, err, leaderboard.ErrNotRanked)

	require.NoError(t, d.Shutdown(ctx))
	meta, err := client.HGetAll(ctx, redisboard.MetaKey(id)).Result()
	require.NoError(t, err)
	assert.Contains(t, meta, "started_at")
	assert.Contains(t, meta, "stopped_at")
	assert.ErrorIs(t, d.Accrue(ctx, "alice", 1), leaderboard.ErrNotStarted)
}
