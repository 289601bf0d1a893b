// Package redisboard implements the leaderboard driver on Redis sorted sets.
package redisboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/getpup/tournament-runtime"
	"github.com/getpup/tournament-runtime/leaderboard"
	"github.com/redis/go-redis/v9"
)

// PointsKey is the sorted set holding points per user.
func PointsKey(leaderboardID int64) string {
	return fmt.Sprintf("leaderboard:%d:points", leaderboardID)
}

// MetaKey is the hash holding run bookkeeping.
func MetaKey(leaderboardID int64) string {
	return fmt.Sprintf("leaderboard:%d:meta", leaderboardID)
}

// Driver accrues points in Redis.
type Driver struct {
	client redis.UniversalClient
	logger tournament.Logger
	now    func() time.Time

	mu            sync.RWMutex
	leaderboardID int64
	started       bool
}

// New creates an idle driver. logger is optional.
func New(client redis.UniversalClient, logger tournament.Logger) *Driver {
	return &Driver{client: client, logger: logger, now: time.Now}
}

// Start records started_at and enables accrual.
func (d *Driver) Start(ctx context.Context, leaderboardID int64) error {
	err := d.client.HSet(ctx, MetaKey(leaderboardID),
		"leaderboard_id", leaderboardID,
		"started_at", d.now().UTC().Format(time.RFC3339Nano),
	).Err()
	if err != nil {
		return fmt.Errorf("failed to start leaderboard: %w", err)
	}

	d.mu.Lock()
	d.leaderboardID = leaderboardID
	d.started = true
	d.mu.Unlock()

	if d.logger != nil {
		d.logger.Info(ctx, "leaderboard started", "leaderboardID", leaderboardID)
	}
	return nil
}

// Shutdown records stopped_at. It does nothing when Start was never called.
func (d *Driver) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	id, started := d.leaderboardID, d.started
	d.started = false
	d.mu.Unlock()

	if !started {
		return nil
	}

	err := d.client.HSet(ctx, MetaKey(id), "stopped_at", d.now().UTC().Format(time.RFC3339Nano)).Err()
	if err != nil {
		return fmt.Errorf("failed to stop leaderboard: %w", err)
	}

	if d.logger != nil {
		d.logger.Info(ctx, "leaderboard stopped", "leaderboardID", id)
	}
	return nil
}

func (d *Driver) active() (int64, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.leaderboardID, d.started
}

// Accrue increments the user's score.
func (d *Driver) Accrue(ctx context.Context, userID string, points int64) error {
	id, started := d.active()
	if !started {
		return leaderboard.ErrNotStarted
	}

	if err := d.client.ZIncrBy(ctx, PointsKey(id), float64(points), userID).Err(); err != nil {
		return fmt.Errorf("failed to accrue points: %w", err)
	}
	return nil
}

// Position returns the user's 1-based rank, highest score first.
func (d *Driver) Position(ctx context.Context, userID string) (int, error) {
	d.mu.RLock()
	id := d.leaderboardID
	d.mu.RUnlock()

	rank, err := d.client.ZRevRank(ctx, PointsKey(id), userID).Result()
	if errors.Is(err, redis.Nil) {
		return 0, leaderboard.ErrNotRanked
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get position: %w", err)
	}
	return int(rank) + 1, nil
}

// KnockedOut reports whether the user is unranked or below cutoff.
func (d *Driver) KnockedOut(ctx context.Context, userID string, cutoff int) (bool, error) {
	position, err := d.Position(ctx, userID)
	return leaderboard.KnockedOutFromPosition(position, err, cutoff)
}

// Standings returns the top limit rows.
func (d *Driver) Standings(ctx context.Context, limit int) ([]leaderboard.Standing, error) {
	d.mu.RLock()
	id := d.leaderboardID
	d.mu.RUnlock()

	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}

	rows, err := d.client.ZRevRangeWithScores(ctx, PointsKey(id), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get standings: %w", err)
	}

	out := make([]leaderboard.Standing, 0, len(rows))
	for i, z := range rows {
		out = append(out, leaderboard.Standing{
			UserID:   fmt.Sprint(z.Member),
			Points:   int64(z.Score),
			Position: i + 1,
		})
	}
	return out, nil
}

var _ leaderboard.Driver = (*Driver)(nil)
