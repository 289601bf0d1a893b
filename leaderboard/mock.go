package leaderboard

import (
	"context"
	"sync"
)

// MockDriver is a configurable Driver for tests.
type MockDriver struct {
	StartFunc     func(ctx context.Context, leaderboardID int64) error
	ShutdownFunc  func(ctx context.Context) error
	AccrueFunc    func(ctx context.Context, userID string, points int64) error
	PositionFunc  func(ctx context.Context, userID string) (int, error)
	StandingsFunc func(ctx context.Context, limit int) ([]Standing, error)

	mu            sync.Mutex
	StartCalls    []int64
	ShutdownCalls int
	AccrueCalls   []AccrueCall
}

// AccrueCall records one Accrue invocation.
type AccrueCall struct {
	UserID string
	Points int64
}

// Start records the call and delegates to StartFunc.
func (m *MockDriver) Start(ctx context.Context, leaderboardID int64) error {
	m.mu.Lock()
	m.StartCalls = append(m.StartCalls, leaderboardID)
	m.mu.Unlock()

	if m.StartFunc != nil {
		return m.StartFunc(ctx, leaderboardID)
	}
	return nil
}

// Shutdown records the call and delegates to ShutdownFunc.
func (m *MockDriver) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.ShutdownCalls++
	m.mu.Unlock()

	if m.ShutdownFunc != nil {
		return m.ShutdownFunc(ctx)
	}
	return nil
}

// Accrue records the call and delegates to AccrueFunc.
func (m *MockDriver) Accrue(ctx context.Context, userID string, points int64) error {
	m.mu.Lock()
	m.AccrueCalls = append(m.AccrueCalls, AccrueCall{UserID: userID, Points: points})
	m.mu.Unlock()

	if m.AccrueFunc != nil {
		return m.AccrueFunc(ctx, userID, points)
	}
	return nil
}

// Position delegates to PositionFunc, defaulting to ErrNotRanked.
func (m *MockDriver) Position(ctx context.Context, userID string) (int, error) {
	if m.PositionFunc != nil {
		return m.PositionFunc(ctx, userID)
	}
	return 0, ErrNotRanked
}

// KnockedOut is derived from Position.
func (m *MockDriver) KnockedOut(ctx context.Context, userID string, cutoff int) (bool, error) {
	position, err := m.Position(ctx, userID)
	return KnockedOutFromPosition(position, err, cutoff)
}

// Standings delegates to StandingsFunc, defaulting to no rows.
func (m *MockDriver) Standings(ctx context.Context, limit int) ([]Standing, error) {
	if m.StandingsFunc != nil {
		return m.StandingsFunc(ctx, limit)
	}
	return nil, nil
}

// Counts returns a snapshot of the Start and Shutdown call counts.
func (m *MockDriver) Counts() (startCalls, shutdownCalls int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.StartCalls), m.ShutdownCalls
}

// Accrued returns a snapshot of Accrue calls.
func (m *MockDriver) Accrued() []AccrueCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]AccrueCall(nil), m.AccrueCalls...)
}

var _ Driver = (*MockDriver)(nil)
