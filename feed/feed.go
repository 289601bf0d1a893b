// Package feed defines the per-tournament inbound event channel that delivers
// round results and lifecycle signals to the runtime.
package feed

import (
	"context"
	"errors"

	"github.com/getpup/tournament-runtime"
)

var (
	// ErrClosed is returned when publishing to or acking on a feed that was shut down.
	ErrClosed = errors.New("feed closed")

	// ErrNotInitialised is returned when a feed is used before Init.
	ErrNotInitialised = errors.New("feed not initialised")
)

// Kind identifies what an event asks the runtime to do.
type Kind string

const (
	// KindRoundResults carries a batch of round results for the engine.
	KindRoundResults Kind = "round_results"

	// KindComplete asks the runtime to finalise the tournament.
	KindComplete Kind = "complete"

	// KindCancellation asks the runtime to cancel the tournament.
	KindCancellation Kind = "cancellation"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindRoundResults, KindComplete, KindCancellation:
		return true
	}
	return false
}

// Event is a single delivery. Delivery is at-least-once; ID is stable across redeliveries.
type Event struct {
	ID           string
	Kind         Kind
	TournamentID int64
	Results      []tournament.RoundResult
}

// Feed is a provisioned event channel for one tournament.
type Feed interface {
	// Init provisions transport resources and starts delivery.
	Init(ctx context.Context) error

	// Events returns the delivery channel. It is closed by Shutdown.
	Events() <-chan Event

	// Ack confirms an event was handled so it is not redelivered.
	Ack(ctx context.Context, ev Event) error

	// Shutdown stops delivery and tears down transport resources.
	// It is idempotent and safe to call when Init was never called.
	Shutdown(ctx context.Context) error
}

// Provisioner creates the feed bound to a tournament.
type Provisioner interface {
	Create(tournamentID int64) (Feed, error)
}

// ProvisionerFunc adapts a function to Provisioner.
type ProvisionerFunc func(tournamentID int64) (Feed, error)

// Create calls f.
func (f ProvisionerFunc) Create(tournamentID int64) (Feed, error) {
	return f(tournamentID)
}
