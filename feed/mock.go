package feed

import (
	"context"
	"sync"
)

// MockFeed is a configurable Feed for tests.
// Events pushed with Push are delivered on Events.
type MockFeed struct {
	InitFunc     func(ctx context.Context) error
	AckFunc      func(ctx context.Context, ev Event) error
	ShutdownFunc func(ctx context.Context) error

	mu            sync.Mutex
	events        chan Event
	closed        bool
	InitCalls     int
	ShutdownCalls int
	Acked         []Event
}

// NewMockFeed creates a MockFeed with a buffered event channel.
func NewMockFeed() *MockFeed {
	return &MockFeed{events: make(chan Event, 64)}
}

// Init records the call and delegates to InitFunc.
func (m *MockFeed) Init(ctx context.Context) error {
	m.mu.Lock()
	m.InitCalls++
	m.mu.Unlock()

	if m.InitFunc != nil {
		return m.InitFunc(ctx)
	}
	return nil
}

// Events returns the delivery channel.
func (m *MockFeed) Events() <-chan Event {
	return m.events
}

// Push delivers ev unless the feed was shut down.
func (m *MockFeed) Push(ev Event) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return false
	}
	m.events <- ev
	return true
}

// Ack records ev and delegates to AckFunc.
func (m *MockFeed) Ack(ctx context.Context, ev Event) error {
	m.mu.Lock()
	m.Acked = append(m.Acked, ev)
	m.mu.Unlock()

	if m.AckFunc != nil {
		return m.AckFunc(ctx, ev)
	}
	return nil
}

// Shutdown records the call, closes the channel once and delegates to ShutdownFunc.
func (m *MockFeed) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.ShutdownCalls++
	if !m.closed {
		m.closed = true
		close(m.events)
	}
	m.mu.Unlock()

	if m.ShutdownFunc != nil {
		return m.ShutdownFunc(ctx)
	}
	return nil
}

// Counts returns the Init and Shutdown call counts.
func (m *MockFeed) Counts() (initCalls, shutdownCalls int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.InitCalls, m.ShutdownCalls
}

// AckedEvents returns a snapshot of acknowledged events.
func (m *MockFeed) AckedEvents() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.Acked...)
}

// MockProvisioner hands out a fixed feed and tracks Create calls.
type MockProvisioner struct {
	Feed       Feed
	CreateFunc func(tournamentID int64) (Feed, error)

	mu          sync.Mutex
	CreateCalls []int64
}

// Create records the call and returns CreateFunc's result or Feed.
func (m *MockProvisioner) Create(tournamentID int64) (Feed, error) {
	m.mu.Lock()
	m.CreateCalls = append(m.CreateCalls, tournamentID)
	m.mu.Unlock()

	if m.CreateFunc != nil {
		return m.CreateFunc(tournamentID)
	}
	return m.Feed, nil
}

// Created returns the tournament ids passed to Create.
func (m *MockProvisioner) Created() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int64(nil), m.CreateCalls...)
}
