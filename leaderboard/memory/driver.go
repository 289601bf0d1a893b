// Package memory provides an in-process leaderboard driver.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/getpup/tournament-runtime/leaderboard"
)

// Driver keeps points in a map. Ties rank the lexicographically greater user
// first, matching Redis sorted set reverse ordering.
type Driver struct {
	mu            sync.RWMutex
	leaderboardID int64
	started       bool
	points        map[string]int64
}

// New creates an idle driver.
func New() *Driver {
	return &Driver{points: make(map[string]int64)}
}

// Start begins accrual for the leaderboard. Points from an earlier run are kept.
func (d *Driver) Start(ctx context.Context, leaderboardID int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.leaderboardID = leaderboardID
	d.started = true
	return nil
}

// Shutdown stops accrual.
func (d *Driver) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.started = false
	return nil
}

// Started reports whether accrual is active and for which leaderboard.
func (d *Driver) Started() (int64, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.leaderboardID, d.started
}

// Accrue adds points for the user.
func (d *Driver) Accrue(ctx context.Context, userID string, points int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.started {
		return leaderboard.ErrNotStarted
	}
	d.points[userID] += points
	return nil
}

// Position returns the user's 1-based rank.
func (d *Driver) Position(ctx context.Context, userID string) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if _, ok := d.points[userID]; !ok {
		return 0, leaderboard.ErrNotRanked
	}
	for _, s := range d.rankedLocked() {
		if s.UserID == userID {
			return s.Position, nil
		}
	}
	return 0, leaderboard.ErrNotRanked
}

// KnockedOut reports whether the user is unranked or below cutoff.
func (d *Driver) KnockedOut(ctx context.Context, userID string, cutoff int) (bool, error) {
	position, err := d.Position(ctx, userID)
	return leaderboard.KnockedOutFromPosition(position, err, cutoff)
}

// Standings returns the top limit rows.
func (d *Driver) Standings(ctx context.Context, limit int) ([]leaderboard.Standing, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ranked := d.rankedLocked()
	if limit > 0 && limit < len(ranked) {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

func (d *Driver) rankedLocked() []leaderboard.Standing {
	out := make([]leaderboard.Standing, 0, len(d.points))
	for user, pts := range d.points {
		out = append(out, leaderboard.Standing{UserID: user, Points: pts})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		return out[i].UserID > out[j].UserID
	})
	for i := range out {
		out[i].Position = i + 1
	}
	return out
}

var _ leaderboard.Driver = (*Driver)(nil)
