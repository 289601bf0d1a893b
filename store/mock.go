package store

import (
	"context"
	"sync"

	"github.com/getpup/tournament-runtime"
)

// MockTournamentStore is a configurable mock implementation of TournamentStore
// for use in tests. It allows setting up return values, tracking method
// calls, and injecting errors for testing error paths.
type MockTournamentStore struct {
	mu sync.RWMutex

	// GetFunc is called by Get if set.
	GetFunc func(ctx context.Context, id int64) (tournament.Tournament, error)

	// SetStateFunc is called by SetState if set.
	SetStateFunc func(ctx context.Context, id int64, state tournament.State) error

	// GetTaskIDFunc is called by GetTaskID if set.
	GetTaskIDFunc func(ctx context.Context, id int64) (string, error)

	// Call tracking
	GetCalls       []GetCall
	SetStateCalls  []SetStateCall
	GetTaskIDCalls []GetTaskIDCall
}

// Call tracking structs
type GetCall struct {
	ID int64
}

type SetStateCall struct {
	ID    int64
	State tournament.State
}

type GetTaskIDCall struct {
	ID int64
}

// NewMockTournamentStore creates a new mock tournament store.
func NewMockTournamentStore() *MockTournamentStore {
	return &MockTournamentStore{}
}

// Get implements TournamentStore.
func (m *MockTournamentStore) Get(ctx context.Context, id int64) (tournament.Tournament, error) {
	m.mu.Lock()
	m.GetCalls = append(m.GetCalls, GetCall{ID: id})
	m.mu.Unlock()

	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}

	return tournament.Tournament{}, tournament.ErrTournamentNotFound
}

// SetState implements TournamentStore.
func (m *MockTournamentStore) SetState(ctx context.Context, id int64, state tournament.State) error {
	m.mu.Lock()
	m.SetStateCalls = append(m.SetStateCalls, SetStateCall{ID: id, State: state})
	m.mu.Unlock()

	if m.SetStateFunc != nil {
		return m.SetStateFunc(ctx, id, state)
	}

	return nil
}

// GetTaskID implements TournamentStore.
func (m *MockTournamentStore) GetTaskID(ctx context.Context, id int64) (string, error) {
	m.mu.Lock()
	m.GetTaskIDCalls = append(m.GetTaskIDCalls, GetTaskIDCall{ID: id})
	m.mu.Unlock()

	if m.GetTaskIDFunc != nil {
		return m.GetTaskIDFunc(ctx, id)
	}

	return "", ErrNoTaskAssigned
}

// SetStates returns the states passed to SetState, in call order.
func (m *MockTournamentStore) SetStates() []tournament.State {
	m.mu.RLock()
	defer m.mu.RUnlock()

	states := make([]tournament.State, 0, len(m.SetStateCalls))
	for _, c := range m.SetStateCalls {
		states = append(states, c.State)
	}
	return states
}

// Reset clears all call tracking data.
func (m *MockTournamentStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.GetCalls = nil
	m.SetStateCalls = nil
	m.GetTaskIDCalls = nil
}

// MockGameStore is a configurable mock implementation of GameStore.
type MockGameStore struct {
	mu sync.Mutex

	// GetFunc is called by Get if set.
	GetFunc func(ctx context.Context, gameID string) (tournament.Game, error)

	GetCalls []string
}

// NewMockGameStore creates a new mock game store.
func NewMockGameStore() *MockGameStore {
	return &MockGameStore{}
}

// Get implements GameStore.
func (m *MockGameStore) Get(ctx context.Context, gameID string) (tournament.Game, error) {
	m.mu.Lock()
	m.GetCalls = append(m.GetCalls, gameID)
	m.mu.Unlock()

	if m.GetFunc != nil {
		return m.GetFunc(ctx, gameID)
	}

	return tournament.Game{}, tournament.ErrGameNotFound
}
