// Package esfeed implements the round result feed on a pupsourcing event store.
//
// Feed events are appended to the shared events table and read back through a
// projection processor named after the tournament. The processor checkpoint
// only moves past an event once the runtime acked it, so a restarted task
// resumes where the previous one stopped.
package esfeed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/getpup/pupsourcing/es"
	"github.com/getpup/pupsourcing/es/adapters/postgres"
	"github.com/getpup/pupsourcing/es/projection"
	"github.com/getpup/pupsourcing/es/projection/runner"
	"github.com/getpup/tournament-runtime"
	"github.com/getpup/tournament-runtime/feed"
)

// Config configures feeds created by a Provisioner.
type Config struct {
	// DB is the connection used by projection processors (required).
	DB *sql.DB

	// EventStore is the event store feed events are read from (required).
	EventStore *postgres.Store

	// BatchSize is the number of events read per batch. Defaults to 100.
	BatchSize int

	// PollInterval is how often the processor polls for new events. Defaults to 100ms.
	PollInterval time.Duration

	// RetryInterval is the pause before a stopped processor is restarted. Defaults to 1s.
	RetryInterval time.Duration

	// OnDropped is called for each malformed event that was skipped. Optional.
	OnDropped func(err error)

	Logger tournament.Logger
}

func (c *Config) setDefaults() {
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 100 * time.Millisecond
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = time.Second
	}
}

// Provisioner creates event store backed feeds.
type Provisioner struct {
	config Config
}

// NewProvisioner creates a provisioner, filling config defaults.
func NewProvisioner(config Config) *Provisioner {
	config.setDefaults()
	return &Provisioner{config: config}
}

// Create returns an uninitialised feed for the tournament.
func (p *Provisioner) Create(tournamentID int64) (feed.Feed, error) {
	if p.config.DB == nil || p.config.EventStore == nil {
		return nil, errors.New("database and event store are required")
	}
	return newFeed(tournamentID, p.config), nil
}

// ProjectionName is the name of the projection, and so of the checkpoint,
// that reads a tournament's feed.
func ProjectionName(tournamentID int64) string {
	return "tournament_feed_" + strconv.FormatInt(tournamentID, 10)
}

// Feed delivers a tournament's events from the event store.
type Feed struct {
	config       Config
	tournamentID int64
	events       chan feed.Event

	mu          sync.Mutex
	initialised bool
	cancel      context.CancelFunc
	pending     map[string]chan struct{}
	wg          sync.WaitGroup

	shutdownOnce sync.Once
}

func newFeed(tournamentID int64, config Config) *Feed {
	return &Feed{
		config:       config,
		tournamentID: tournamentID,
		events:       make(chan feed.Event),
		pending:      make(map[string]chan struct{}),
	}
}

// Init checks the database and starts the projection processor.
func (f *Feed) Init(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.initialised {
		return nil
	}

	if err := f.config.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to reach event store: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel
	f.initialised = true

	f.wg.Add(1)
	go f.run(runCtx)

	f.info(ctx, "feed initialised", "projection", ProjectionName(f.tournamentID))
	return nil
}

// Events returns the delivery channel.
func (f *Feed) Events() <-chan feed.Event {
	return f.events
}

// Ack releases the processor waiting on ev. Acking an event that is not
// pending is a no-op.
func (f *Feed) Ack(ctx context.Context, ev feed.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if acked, ok := f.pending[ev.ID]; ok {
		delete(f.pending, ev.ID)
		close(acked)
	}
	return nil
}

// Shutdown stops the processor and closes Events. The checkpoint is kept.
func (f *Feed) Shutdown(ctx context.Context) error {
	f.shutdownOnce.Do(func() {
		f.mu.Lock()
		cancel := f.cancel
		f.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		f.wg.Wait()
		close(f.events)
		f.info(ctx, "feed shut down", "projection", ProjectionName(f.tournamentID))
	})
	return nil
}

// run keeps the processor alive until ctx is cancelled. A processor stops on
// the first handler error; restarting it replays from the last checkpoint.
func (f *Feed) run(ctx context.Context) {
	defer f.wg.Done()

	for ctx.Err() == nil {
		processor := postgres.NewProcessor(f.config.DB, f.config.EventStore, &projection.ProcessorConfig{
			BatchSize:         f.config.BatchSize,
			PartitionKey:      0,
			TotalPartitions:   1,
			PartitionStrategy: projection.HashPartitionStrategy{},
			Logger:            f.config.Logger,
			PollInterval:      f.config.PollInterval,
		})

		err := runner.New().Run(ctx, []runner.ProjectionRunner{{
			Projection: &reader{feed: f},
			Processor:  processor,
		}})
		if ctx.Err() != nil {
			return
		}

		f.error(ctx, "feed processor stopped", "error", err)
		select {
		case <-time.After(f.config.RetryInterval):
		case <-ctx.Done():
			return
		}
	}
}

// deliver hands ev to the consumer and waits for its ack.
func (f *Feed) deliver(ctx context.Context, ev feed.Event) error {
	acked := make(chan struct{})
	f.mu.Lock()
	f.pending[ev.ID] = acked
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		if f.pending[ev.ID] == acked {
			delete(f.pending, ev.ID)
		}
		f.mu.Unlock()
	}()

	select {
	case f.events <- ev:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-acked:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *Feed) info(ctx context.Context, msg string, keyvals ...any) {
	if f.config.Logger != nil {
		f.config.Logger.Info(ctx, msg, append(keyvals, "tournamentID", f.tournamentID)...)
	}
}

func (f *Feed) error(ctx context.Context, msg string, keyvals ...any) {
	if f.config.Logger != nil {
		f.config.Logger.Error(ctx, msg, append(keyvals, "tournamentID", f.tournamentID)...)
	}
}

// reader is the projection a feed's processor drives.
type reader struct {
	feed *Feed
}

func (r *reader) Name() string {
	return ProjectionName(r.feed.tournamentID)
}

func (r *reader) AggregateTypes() []string {
	return []string{AggregateType}
}

func (r *reader) BoundedContexts() []string {
	return []string{BoundedContext}
}

// Handle skips events of other tournaments and malformed events. Anything
// else blocks until acked, so the checkpoint never passes an unacked event.
func (r *reader) Handle(ctx context.Context, pe es.PersistedEvent) error {
	f := r.feed
	if !belongsTo(pe, f.tournamentID) {
		return nil
	}

	ev, err := decode(pe)
	if err != nil {
		f.error(ctx, "dropping malformed feed event", "eventID", pe.EventID.String(), "error", err)
		if f.config.OnDropped != nil {
			f.config.OnDropped(err)
		}
		return nil
	}
	if ev.TournamentID == 0 {
		ev.TournamentID = f.tournamentID
	}

	return f.deliver(ctx, ev)
}

// Publisher appends feed events to the event store.
type Publisher struct {
	db    *sql.DB
	store *postgres.Store
	now   func() time.Time
}

// NewPublisher creates a publisher.
func NewPublisher(db *sql.DB, store *postgres.Store) *Publisher {
	return &Publisher{db: db, store: store, now: time.Now}
}

// Publish appends ev and returns its event id.
func (p *Publisher) Publish(ctx context.Context, ev feed.Event) (string, error) {
	if !ev.Kind.Valid() {
		return "", fmt.Errorf("invalid event kind %q", ev.Kind)
	}

	event, err := encode(ev, p.now())
	if err != nil {
		return "", err
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := p.store.Append(ctx, tx, es.NoStream(), []es.Event{event}); err != nil {
		return "", fmt.Errorf("failed to append event: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit event: %w", err)
	}
	return event.EventID.String(), nil
}

var (
	_ feed.Feed             = (*Feed)(nil)
	_ feed.Provisioner      = (*Provisioner)(nil)
	_ projection.Projection = (*reader)(nil)
)
