package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/getpup/tournament-runtime"
	"github.com/getpup/tournament-runtime/metrics"
	"github.com/getpup/tournament-runtime/store"
	"github.com/jonboulle/clockwork"
)

// Config holds configuration for the lifecycle Manager.
type Config struct {
	// TournamentID is the tournament whose state is managed (required).
	TournamentID int64

	// Store is the tournament store that owns the persisted state (required).
	Store store.TournamentStore

	// Clock timestamps transition history (default: real clock).
	Clock clockwork.Clock

	// Logger is for observability (optional).
	Logger tournament.Logger

	// Collector records transition metrics (optional).
	Collector *metrics.Collector
}

// Transition is a single recorded state change.
type Transition struct {
	From tournament.State `json:"from"`
	To   tournament.State `json:"to"`
	At   time.Time        `json:"at"`
}

// Manager holds the local copy of a tournament and is the only path through
// which its state is changed. Every transition is persisted first and then
// applied to the cached copy.
type Manager struct {
	config Config

	// opMu serialises store round trips so a refresh never overwrites a
	// transition that is in flight.
	opMu sync.Mutex

	mu      sync.RWMutex
	current tournament.Tournament
	loaded  bool
	history []Transition
}

// New creates a new lifecycle Manager with the given configuration.
// Applies a real clock if none is set.
func New(cfg Config) *Manager {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}

	return &Manager{
		config: cfg,
	}
}

// Load reads the tournament from the store and caches it.
func (m *Manager) Load(ctx context.Context) (tournament.Tournament, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	t, err := m.config.Store.Get(ctx, m.config.TournamentID)
	if err != nil {
		return tournament.Tournament{}, fmt.Errorf("failed to load tournament %d: %w", m.config.TournamentID, err)
	}

	m.mu.Lock()
	m.current = t
	m.loaded = true
	m.mu.Unlock()

	m.config.Collector.SetState(t.State)

	if m.config.Logger != nil {
		m.config.Logger.Debug(ctx, "tournament loaded", "tournamentID", t.ID, "state", t.State, "playerCount", t.PlayerCount)
	}

	return t, nil
}

// Refresh re-reads the tournament from the store, replacing the cached copy.
// State may have been changed externally, e.g. by an admin cancellation.
func (m *Manager) Refresh(ctx context.Context) (tournament.Tournament, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	t, err := m.config.Store.Get(ctx, m.config.TournamentID)
	if err != nil {
		return tournament.Tournament{}, fmt.Errorf("failed to refresh tournament %d: %w", m.config.TournamentID, err)
	}

	m.mu.Lock()
	previous := m.current.State
	m.current = t
	m.loaded = true
	m.mu.Unlock()

	if previous != t.State {
		m.config.Collector.SetState(t.State)
		if m.config.Logger != nil {
			m.config.Logger.Info(ctx, "tournament state changed externally", "tournamentID", t.ID, "from", previous, "to", t.State)
		}
	}

	return t, nil
}

// Current returns a copy of the cached tournament.
func (m *Manager) Current() tournament.Tournament {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// State returns the cached state. It is empty until Load succeeds.
func (m *Manager) State() tournament.State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.State
}

// Loaded reports whether the tournament has been read from the store.
func (m *Manager) Loaded() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loaded
}

// Transition moves the tournament to the given state. The move is checked
// against the cached state, persisted, and only then applied locally.
// Returns tournament.ErrInvalidTransition if the move is not allowed from
// the cached state.
func (m *Manager) Transition(ctx context.Context, to tournament.State) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	from := m.State()
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", tournament.ErrInvalidTransition, from, to)
	}

	if err := m.config.Store.SetState(ctx, m.config.TournamentID, to); err != nil {
		return fmt.Errorf("failed to persist state %s: %w", to, err)
	}

	at := m.config.Clock.Now()
	m.mu.Lock()
	m.current.State = to
	m.history = append(m.history, Transition{From: from, To: to, At: at})
	m.mu.Unlock()

	m.config.Collector.IncTransitions(from, to)
	m.config.Collector.SetState(to)

	if m.config.Logger != nil {
		m.config.Logger.Info(ctx, "tournament state updated", "tournamentID", m.config.TournamentID, "from", from, "to", to)
	}

	return nil
}

// History returns the transitions applied by this manager, oldest first.
func (m *Manager) History() []Transition {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Transition, len(m.history))
	copy(out, m.history)
	return out
}
