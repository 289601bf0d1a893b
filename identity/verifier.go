package identity

import (
	"context"
	"fmt"

	"github.com/getpup/tournament-runtime"
)

// AssignedTaskIDs returns the task the scheduler recorded for a tournament.
// store.TournamentStore satisfies it.
type AssignedTaskIDs interface {
	GetTaskID(ctx context.Context, tournamentID int64) (string, error)
}

// Verifier compares the assigned task with the current one.
type Verifier struct {
	Store  AssignedTaskIDs
	Source Source
}

// NewVerifier creates a Verifier.
func NewVerifier(store AssignedTaskIDs, source Source) *Verifier {
	return &Verifier{Store: store, Source: source}
}

// Verify returns nil only when both ids are non-empty and equal.
// A mismatch is reported as tournament.ErrTaskIdentityMismatch.
func (v *Verifier) Verify(ctx context.Context, tournamentID int64) error {
	assigned, err := v.Store.GetTaskID(ctx, tournamentID)
	if err != nil {
		return fmt.Errorf("failed to get assigned task id: %w", err)
	}

	current, err := v.Source.CurrentTaskID(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current task id: %w", err)
	}

	if assigned == "" || current == "" || assigned != current {
		return fmt.Errorf("%w: assigned %q, current %q", tournament.ErrTaskIdentityMismatch, assigned, current)
	}

	return nil
}
