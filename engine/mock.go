package engine

import (
	"context"
	"sync"

	"github.com/getpup/tournament-runtime"
)

// MockEngine is a mock implementation of Engine for testing.
// Each method records its call, then returns the matching Func's result or nil.
type MockEngine struct {
	InitFunc         func(ctx context.Context) error
	StartFunc        func(ctx context.Context) error
	CancelFunc       func(ctx context.Context) error
	CompleteFunc     func(ctx context.Context) error
	ShutdownFunc     func(ctx context.Context) error
	RoundResultsFunc func(ctx context.Context, results []tournament.RoundResult) error

	mu    sync.Mutex
	calls Calls
	order []string
}

// Calls counts invocations per lifecycle method.
type Calls struct {
	Init         int
	Start        int
	Cancel       int
	Complete     int
	Shutdown     int
	RoundResults [][]tournament.RoundResult
}

// NewMockEngine creates a MockEngine with an empty call history.
func NewMockEngine() *MockEngine {
	return &MockEngine{}
}

func (m *MockEngine) record(name string, bump func(*Calls)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bump(&m.calls)
	m.order = append(m.order, name)
}

// Init implements Engine.
func (m *MockEngine) Init(ctx context.Context) error {
	m.record("init", func(c *Calls) { c.Init++ })
	if m.InitFunc != nil {
		return m.InitFunc(ctx)
	}
	return nil
}

// Start implements Engine.
func (m *MockEngine) Start(ctx context.Context) error {
	m.record("start", func(c *Calls) { c.Start++ })
	if m.StartFunc != nil {
		return m.StartFunc(ctx)
	}
	return nil
}

// Cancel implements Engine.
func (m *MockEngine) Cancel(ctx context.Context) error {
	m.record("cancel", func(c *Calls) { c.Cancel++ })
	if m.CancelFunc != nil {
		return m.CancelFunc(ctx)
	}
	return nil
}

// Complete implements Engine.
func (m *MockEngine) Complete(ctx context.Context) error {
	m.record("complete", func(c *Calls) { c.Complete++ })
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx)
	}
	return nil
}

// Shutdown implements Engine.
func (m *MockEngine) Shutdown(ctx context.Context) error {
	m.record("shutdown", func(c *Calls) { c.Shutdown++ })
	if m.ShutdownFunc != nil {
		return m.ShutdownFunc(ctx)
	}
	return nil
}

// RoundResults implements Engine.
func (m *MockEngine) RoundResults(ctx context.Context, results []tournament.RoundResult) error {
	m.record("round_results", func(c *Calls) { c.RoundResults = append(c.RoundResults, results) })
	if m.RoundResultsFunc != nil {
		return m.RoundResultsFunc(ctx, results)
	}
	return nil
}

// Calls returns a snapshot of the call counters.
func (m *MockEngine) Calls() Calls {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.calls
	c.RoundResults = append([][]tournament.RoundResult(nil), m.calls.RoundResults...)
	return c
}

// Order returns the method names in call order.
func (m *MockEngine) Order() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.order...)
}

// Reset clears the call history.
func (m *MockEngine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = Calls{}
	m.order = nil
}

// Factory returns a Factory that always yields m and captures the host.
func (m *MockEngine) Factory(host *Host) Factory {
	return func(_ tournament.Tournament, _ tournament.Game, h Host) (Engine, error) {
		if host != nil {
			*host = h
		}
		return m, nil
	}
}

// MockHost records engine callbacks.
type MockHost struct {
	ID               int64
	AccruePointsFunc func(ctx context.Context, userID string, points int64) error

	mu             sync.Mutex
	Accrued        map[string]int64
	CompleteReport int
}

// NewMockHost creates a MockHost for the tournament.
func NewMockHost(id int64) *MockHost {
	return &MockHost{ID: id, Accrued: make(map[string]int64)}
}

// TournamentID implements Host.
func (h *MockHost) TournamentID() int64 { return h.ID }

// AccruePoints implements Host.
func (h *MockHost) AccruePoints(ctx context.Context, userID string, points int64) error {
	if h.AccruePointsFunc != nil {
		if err := h.AccruePointsFunc(ctx, userID, points); err != nil {
			return err
		}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Accrued[userID] += points
	return nil
}

// ReportComplete implements Host.
func (h *MockHost) ReportComplete(ctx context.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.CompleteReport++
}

// Snapshot returns accrued points and the completion report count.
func (h *MockHost) Snapshot() (map[string]int64, int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make(map[string]int64, len(h.Accrued))
	for k, v := range h.Accrued {
		out[k] = v
	}
	return out, h.CompleteReport
}

var (
	_ Engine = (*MockEngine)(nil)
	_ Host   = (*MockHost)(nil)
)
