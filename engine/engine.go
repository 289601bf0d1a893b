// Package engine defines the lifecycle contract of a pluggable game engine.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/getpup/tournament-runtime"
)

var (
	// ErrUnknownGameType is returned when no factory is registered for a game type.
	ErrUnknownGameType = errors.New("unknown game type")

	// ErrDuplicateGameType is returned when a game type is registered twice.
	ErrDuplicateGameType = errors.New("game type already registered")
)

// Engine runs the game-specific part of a tournament.
type Engine interface {
	// Init prepares game resources once the tournament and game are loaded.
	Init(ctx context.Context) error

	// Start begins accepting rounds.
	Start(ctx context.Context) error

	// Cancel aborts gracefully.
	Cancel(ctx context.Context) error

	// Complete finalises game state once the tournament is ending.
	Complete(ctx context.Context) error

	// Shutdown releases all resources. It must be safe after a partial Init or Start.
	Shutdown(ctx context.Context) error

	// RoundResults applies a batch of results. Batches may be redelivered.
	RoundResults(ctx context.Context, results []tournament.RoundResult) error
}

// Host is the narrow view of the runtime an engine may call back into.
type Host interface {
	// TournamentID identifies the tournament being driven.
	TournamentID() int64

	// AccruePoints credits points on the tournament leaderboard, if any.
	AccruePoints(ctx context.Context, userID string, points int64) error

	// ReportComplete asks the runtime to finalise the tournament.
	ReportComplete(ctx context.Context)
}

// Factory builds an engine for a tournament and its game.
type Factory func(t tournament.Tournament, g tournament.Game, host Host) (Engine, error)

// Registry maps game types to engine factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory for gameType.
func (r *Registry) Register(gameType string, f Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.factories[gameType]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateGameType, gameType)
	}
	r.factories[gameType] = f
	return nil
}

// MustRegister is Register that panics on error, for program setup.
func (r *Registry) MustRegister(gameType string, f Factory) {
	if err := r.Register(gameType, f); err != nil {
		panic(err)
	}
}

// New builds the engine registered for g.Type.
func (r *Registry) New(t tournament.Tournament, g tournament.Game, host Host) (Engine, error) {
	r.mu.RLock()
	f, ok := r.factories[g.Type]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGameType, g.Type)
	}
	return f(t, g, host)
}

// Types returns the registered game types in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
