package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Lease holds a provisioned and initialised feed until Release.
// A nil Lease is valid and releases as a no-op.
type Lease struct {
	mu       sync.Mutex
	feed     Feed
	released bool
}

// Acquire creates the feed for the tournament and initialises it.
// If Init fails the feed is shut down before the error is returned.
func Acquire(ctx context.Context, p Provisioner, tournamentID int64) (*Lease, error) {
	f, err := p.Create(tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to create feed: %w", err)
	}

	if err := f.Init(ctx); err != nil {
		if shutdownErr := f.Shutdown(ctx); shutdownErr != nil {
			err = errors.Join(err, shutdownErr)
		}
		return nil, fmt.Errorf("failed to init feed: %w", err)
	}

	return &Lease{feed: f}, nil
}

// Events returns the feed's delivery channel, or nil for a nil lease.
func (l *Lease) Events() <-chan Event {
	if l == nil {
		return nil
	}
	return l.feed.Events()
}

// Ack acknowledges ev on the underlying feed.
func (l *Lease) Ack(ctx context.Context, ev Event) error {
	if l == nil {
		return ErrNotInitialised
	}

	l.mu.Lock()
	released := l.released
	l.mu.Unlock()
	if released {
		return ErrClosed
	}

	return l.feed.Ack(ctx, ev)
}

// Release shuts the feed down once. Later calls return nil.
func (l *Lease) Release(ctx context.Context) error {
	if l == nil {
		return nil
	}

	l.mu.Lock()
	if l.released {
		l.mu.Unlock()
		return nil
	}
	l.released = true
	l.mu.Unlock()

	if err := l.feed.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down feed: %w", err)
	}
	return nil
}

// Released reports whether Release has been called.
func (l *Lease) Released() bool {
	if l == nil {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.released
}
