package tournament

import (
	"context"

	"github.com/getpup/pupsourcing/es"
)

// Logger is the structured logging contract used across the runtime. It is
// the event store's logger, so one implementation serves the runtime and the
// event store feed. Arguments after msg are alternating key/value pairs.
type Logger = es.Logger

// Runtime drives a single tournament from launch to a terminal state.
// It is what the process host interacts with.
type Runtime interface {
	// Init loads the tournament, verifies this process owns it and schedules
	// the start and end timers. A returned error means the runtime has already
	// terminated with a non-zero code.
	Init(ctx context.Context) error

	// Cancel gracefully cancels the tournament. Safe to call repeatedly.
	Cancel(ctx context.Context)

	// Fail records a fault, marks the tournament failed and shuts down.
	Fail(ctx context.Context, cause error)

	// Done is closed once the runtime has terminated.
	Done() <-chan struct{}

	// Termination returns the outcome. Only meaningful after Done is closed.
	Termination() Termination
}
