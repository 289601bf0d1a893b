// Package leaderboard drives point accrual for a tournament leaderboard.
package leaderboard

import (
	"context"
	"errors"
)

var (
	// ErrNotStarted is returned when points are accrued or queried outside Start/Shutdown.
	ErrNotStarted = errors.New("leaderboard not started")

	// ErrNotRanked is returned for a user with no points on the leaderboard.
	ErrNotRanked = errors.New("user not ranked")
)

// Standing is one row of a leaderboard. Position is 1-based.
type Standing struct {
	UserID   string `json:"user_id"`
	Points   int64  `json:"points"`
	Position int    `json:"position"`
}

// Driver starts and stops accrual for one leaderboard.
type Driver interface {
	// Start begins accrual for the leaderboard.
	Start(ctx context.Context, leaderboardID int64) error

	// Shutdown stops accrual. It is a no-op when Start was never called.
	Shutdown(ctx context.Context) error

	// Accrue adds points for a user.
	Accrue(ctx context.Context, userID string, points int64) error

	// Position returns the user's 1-based rank, highest points first.
	Position(ctx context.Context, userID string) (int, error)

	// KnockedOut reports whether the user is unranked or ranked below cutoff.
	KnockedOut(ctx context.Context, userID string, cutoff int) (bool, error)

	// Standings returns the top limit rows. A limit <= 0 returns every row.
	Standings(ctx context.Context, limit int) ([]Standing, error)
}

// KnockedOutFromPosition implements KnockedOut in terms of a position lookup.
func KnockedOutFromPosition(position int, err error, cutoff int) (bool, error) {
	if errors.Is(err, ErrNotRanked) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return position > cutoff, nil
}
