package store

import (
	"context"

	"github.com/getpup/tournament-runtime"
)

// TournamentStore provides access to the persisted tournament records driven by the runtime.
// Implementations must be safe for concurrent access.
type TournamentStore interface {
	// Get returns the tournament with the given ID.
	// Returns tournament.ErrTournamentNotFound if it does not exist.
	Get(ctx context.Context, id int64) (tournament.Tournament, error)

	// SetState persists a new lifecycle state for the tournament.
	// Returns tournament.ErrTournamentNotFound if it does not exist.
	SetState(ctx context.Context, id int64, state tournament.State) error

	// GetTaskID returns the ID of the task the scheduler assigned to drive the tournament.
	// Returns ErrNoTaskAssigned if no task has been assigned yet.
	GetTaskID(ctx context.Context, id int64) (string, error)
}

// GameStore provides read access to the game catalogue.
type GameStore interface {
	// Get returns the game with the given ID.
	// Returns tournament.ErrGameNotFound if it does not exist.
	Get(ctx context.Context, gameID string) (tournament.Game, error)
}
