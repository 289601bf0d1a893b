package report

import (
	"context"
	"sync"
)

// MockReporter records summaries for tests.
type MockReporter struct {
	mu sync.Mutex

	// ReportFunc is called by Report if set.
	ReportFunc func(ctx context.Context, s Summary) error

	ReportCalls []Summary
}

// NewMockReporter creates a new mock reporter.
func NewMockReporter() *MockReporter {
	return &MockReporter{}
}

// Report implements Reporter.
func (m *MockReporter) Report(ctx context.Context, s Summary) error {
	m.mu.Lock()
	m.ReportCalls = append(m.ReportCalls, s)
	m.mu.Unlock()

	if m.ReportFunc != nil {
		return m.ReportFunc(ctx, s)
	}
	return nil
}

// Reports returns a copy of the recorded summaries.
func (m *MockReporter) Reports() []Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Summary, len(m.ReportCalls))
	copy(out, m.ReportCalls)
	return out
}
