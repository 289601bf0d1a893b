package tournament

import "errors"

var (
	// ErrTournamentNotFound indicates the tournament record does not exist.
	ErrTournamentNotFound = errors.New("tournament not found")

	// ErrGameNotFound indicates the game associated with a tournament does not exist.
	ErrGameNotFound = errors.New("game not found")

	// ErrTaskIdentityMismatch indicates this process is not the task assigned to drive the tournament.
	// Another runtime may already own it, e.g. after a redeploy raced a launch.
	ErrTaskIdentityMismatch = errors.New("task identity mismatch")

	// ErrUnexpectedState indicates the tournament is not in the state required for the operation.
	ErrUnexpectedState = errors.New("unexpected tournament state")

	// ErrInvalidTransition indicates a state change that would leave a terminal
	// state or move backwards.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrShuttingDown indicates the runtime has already started its shutdown sequence.
	ErrShuttingDown = errors.New("runtime shutting down")
)
