package memory

import (
	"context"
	"sync"

	"github.com/getpup/tournament-runtime"
	"github.com/getpup/tournament-runtime/store"
)

// Store is an in-memory implementation of TournamentStore for tests and local runs.
// It provides thread-safe access to tournament records using a sync.RWMutex.
type Store struct {
	mu          sync.RWMutex
	tournaments map[int64]tournament.Tournament // tournamentID -> record
	taskIDs     map[int64]string                // tournamentID -> assigned task
	history     map[int64][]tournament.State    // tournamentID -> states written via SetState
}

// New creates a new in-memory store with initialized maps.
func New() *Store {
	return &Store{
		tournaments: make(map[int64]tournament.Tournament),
		taskIDs:     make(map[int64]string),
		history:     make(map[int64][]tournament.State),
	}
}

// Put inserts or replaces a tournament record.
func (s *Store) Put(t tournament.Tournament) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tournaments[t.ID] = copyTournament(t)
}

// AssignTask records the task that owns the tournament, as the scheduler does at launch.
func (s *Store) AssignTask(id int64, taskID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.taskIDs[id] = taskID
}

// SetPlayerCount updates the number of entries for a tournament.
// Returns tournament.ErrTournamentNotFound if the tournament does not exist.
func (s *Store) SetPlayerCount(id int64, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tournaments[id]
	if !ok {
		return tournament.ErrTournamentNotFound
	}
	t.PlayerCount = count
	s.tournaments[id] = t
	return nil
}

// Get returns the tournament with the given ID.
// Returns tournament.ErrTournamentNotFound if it does not exist.
func (s *Store) Get(ctx context.Context, id int64) (tournament.Tournament, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tournaments[id]
	if !ok {
		return tournament.Tournament{}, tournament.ErrTournamentNotFound
	}

	return copyTournament(t), nil
}

// SetState persists a new lifecycle state for the tournament.
// Returns tournament.ErrTournamentNotFound if it does not exist.
func (s *Store) SetState(ctx context.Context, id int64, state tournament.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tournaments[id]
	if !ok {
		return tournament.ErrTournamentNotFound
	}

	t.State = state
	s.tournaments[id] = t
	s.history[id] = append(s.history[id], state)

	return nil
}

// GetTaskID returns the task assigned to the tournament.
// Returns store.ErrNoTaskAssigned if none was recorded.
func (s *Store) GetTaskID(ctx context.Context, id int64) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.tournaments[id]; !ok {
		return "", tournament.ErrTournamentNotFound
	}

	taskID, ok := s.taskIDs[id]
	if !ok {
		return "", store.ErrNoTaskAssigned
	}

	return taskID, nil
}

// History returns the states written through SetState for a tournament, oldest first.
func (s *Store) History(id int64) []tournament.State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]tournament.State(nil), s.history[id]...)
}

// GameStore is an in-memory implementation of GameStore.
type GameStore struct {
	mu    sync.RWMutex
	games map[string]tournament.Game
}

// NewGameStore creates an empty in-memory game catalogue.
func NewGameStore() *GameStore {
	return &GameStore{games: make(map[string]tournament.Game)}
}

// Put inserts or replaces a game.
func (s *GameStore) Put(g tournament.Game) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g.Metadata = copyMap(g.Metadata)
	s.games[g.ID] = g
}

// Get returns the game with the given ID.
// Returns tournament.ErrGameNotFound if it does not exist.
func (s *GameStore) Get(ctx context.Context, gameID string) (tournament.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.games[gameID]
	if !ok {
		return tournament.Game{}, tournament.ErrGameNotFound
	}

	g.Metadata = copyMap(g.Metadata)
	return g, nil
}

func copyTournament(t tournament.Tournament) tournament.Tournament {
	if t.EndTime != nil {
		end := *t.EndTime
		t.EndTime = &end
	}
	if t.LeaderboardID != nil {
		id := *t.LeaderboardID
		t.LeaderboardID = &id
	}
	t.GameMetadataOverride = copyMap(t.GameMetadataOverride)
	return t
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

var (
	_ store.TournamentStore = (*Store)(nil)
	_ store.GameStore       = (*GameStore)(nil)
)
