// Package memory provides a channel-backed feed for tests and local runs.
package memory

import (
	"context"
	"sync"

	"github.com/getpup/tournament-runtime/feed"
	"github.com/google/uuid"
)

// DefaultBuffer is the event channel capacity used by New.
const DefaultBuffer = 256

// Feed is an in-process feed. Events published before Init are buffered.
type Feed struct {
	tournamentID int64

	events chan feed.Event
	done   chan struct{}

	mu          sync.RWMutex
	initialised bool
	closed      bool
	acked       []string

	closeOnce sync.Once
}

// New creates a feed for the tournament.
func New(tournamentID int64) *Feed {
	return &Feed{
		tournamentID: tournamentID,
		events:       make(chan feed.Event, DefaultBuffer),
		done:         make(chan struct{}),
	}
}

// Init marks the feed as provisioned.
func (f *Feed) Init(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return feed.ErrClosed
	}
	f.initialised = true
	return nil
}

// Events returns the delivery channel.
func (f *Feed) Events() <-chan feed.Event {
	return f.events
}

// Publish delivers ev, assigning an ID and the tournament when unset.
// It blocks while the buffer is full and returns feed.ErrClosed after Shutdown.
func (f *Feed) Publish(ctx context.Context, ev feed.Event) (string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return "", feed.ErrClosed
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.TournamentID == 0 {
		ev.TournamentID = f.tournamentID
	}

	select {
	case f.events <- ev:
		return ev.ID, nil
	case <-f.done:
		return "", feed.ErrClosed
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Ack records the event id.
func (f *Feed) Ack(ctx context.Context, ev feed.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return feed.ErrClosed
	}
	f.acked = append(f.acked, ev.ID)
	return nil
}

// Acked returns the acknowledged event ids in order.
func (f *Feed) Acked() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return append([]string(nil), f.acked...)
}

// Initialised reports whether Init succeeded.
func (f *Feed) Initialised() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.initialised
}

// Closed reports whether Shutdown was called.
func (f *Feed) Closed() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.closed
}

// Shutdown unblocks publishers and closes the event channel.
func (f *Feed) Shutdown(ctx context.Context) error {
	f.closeOnce.Do(func() {
		close(f.done)

		f.mu.Lock()
		f.closed = true
		close(f.events)
		f.mu.Unlock()
	})
	return nil
}

// Provisioner creates memory feeds and keeps them addressable by tournament.
type Provisioner struct {
	mu    sync.Mutex
	feeds map[int64]*Feed
}

// NewProvisioner creates an empty provisioner.
func NewProvisioner() *Provisioner {
	return &Provisioner{feeds: make(map[int64]*Feed)}
}

// Create returns the feed for the tournament, creating it on first use.
func (p *Provisioner) Create(tournamentID int64) (feed.Feed, error) {
	return p.Get(tournamentID), nil
}

// Get returns the feed for the tournament, creating it on first use.
func (p *Provisioner) Get(tournamentID int64) *Feed {
	p.mu.Lock()
	defer p.mu.Unlock()

	f, ok := p.feeds[tournamentID]
	if !ok {
		f = New(tournamentID)
		p.feeds[tournamentID] = f
	}
	return f
}

var (
	_ feed.Feed        = (*Feed)(nil)
	_ feed.Provisioner = (*Provisioner)(nil)
)
