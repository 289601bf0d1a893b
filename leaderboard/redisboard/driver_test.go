package redisboard

import (
	"context"
	"testing"

	"github.com/getpup/tournament-runtime/leaderboard"
	"github.com/stretchr/testify/assert"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "leaderboard:7:points", PointsKey(7))
	assert.Equal(t, "leaderboard:7:meta", MetaKey(7))
}

func TestDriver_IdleBehaviour(t *testing.T) {
	// no client calls are made before Start
	d := New(nil, nil)
	ctx := context.Background()

	assert.NoError(t, d.Shutdown(ctx))
	assert.ErrorIs(t, d.Accrue(ctx, "u1", 10), leaderboard.ErrNotStarted)
}
