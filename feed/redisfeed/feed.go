// Package redisfeed implements the round result feed on Redis Streams.
//
// Each tournament has its own stream read through a consumer group. Pending
// entries of this consumer are replayed first so events delivered to a
// crashed process are not lost.
package redisfeed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/getpup/tournament-runtime"
	"github.com/getpup/tournament-runtime/feed"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Config configures feeds created by a Provisioner.
type Config struct {
	Client redis.UniversalClient

	// Group is the consumer group name. Defaults to "runtime".
	Group string

	// Consumer names this process within the group. Defaults to a random uuid.
	Consumer string

	// BatchSize caps entries per read. Defaults to 50.
	BatchSize int64

	// BlockTimeout bounds each blocking read. Defaults to 2s.
	BlockTimeout time.Duration

	// KeepStream leaves the stream in place on Shutdown.
	KeepStream bool

	// OnDropped is called for each malformed message that was dropped. Optional.
	OnDropped func(err error)

	Logger tournament.Logger
}

func (c *Config) setDefaults() {
	if c.Group == "" {
		c.Group = "runtime"
	}
	if c.Consumer == "" {
		c.Consumer = uuid.NewString()
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 50
	}
	if c.BlockTimeout <= 0 {
		c.BlockTimeout = 2 * time.Second
	}
}

// Provisioner creates Redis-backed feeds.
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
	if p.config.Client == nil {
		return nil, errors.New("redis client is required")
	}
	return newFeed(tournamentID, p.config), nil
}

// Feed reads a tournament stream through a consumer group.
type Feed struct {
	config       Config
	tournamentID int64
	stream       string
	events       chan feed.Event

	mu          sync.Mutex
	initialised bool
	cancel      context.CancelFunc
	wg          sync.WaitGroup

	shutdownOnce sync.Once
	shutdownErr  error
}

func newFeed(tournamentID int64, config Config) *Feed {
	return &Feed{
		config:       config,
		tournamentID: tournamentID,
		stream:       StreamKey(tournamentID),
		events:       make(chan feed.Event),
	}
}

// Init creates the consumer group (and stream) and starts the reader.
func (f *Feed) Init(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.initialised {
		return nil
	}

	err := f.config.Client.XGroupCreateMkStream(ctx, f.stream, f.config.Group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	readCtx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel
	f.initialised = true

	f.wg.Add(1)
	go f.read(readCtx)

	f.info(ctx, "feed initialised", "stream", f.stream, "group", f.config.Group, "consumer", f.config.Consumer)
	return nil
}

// Events returns the delivery channel.
func (f *Feed) Events() <-chan feed.Event {
	return f.events
}

// Ack acknowledges the entry in the consumer group.
func (f *Feed) Ack(ctx context.Context, ev feed.Event) error {
	if err := f.config.Client.XAck(ctx, f.stream, f.config.Group, ev.ID).Err(); err != nil {
		return fmt.Errorf("failed to ack %s: %w", ev.ID, err)
	}
	return nil
}

// Shutdown stops the reader, closes Events and removes the group and stream.
func (f *Feed) Shutdown(ctx context.Context) error {
	f.shutdownOnce.Do(func() {
		f.mu.Lock()
		initialised := f.initialised
		cancel := f.cancel
		f.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		f.wg.Wait()
		close(f.events)

		if !initialised {
			return
		}

		var errs []error
		if err := f.config.Client.XGroupDestroy(ctx, f.stream, f.config.Group).Err(); err != nil {
			errs = append(errs, fmt.Errorf("failed to destroy consumer group: %w", err))
		}
		if !f.config.KeepStream {
			if err := f.config.Client.Del(ctx, f.stream).Err(); err != nil {
				errs = append(errs, fmt.Errorf("failed to delete stream: %w", err))
			}
		}
		f.shutdownErr = errors.Join(errs...)
		f.info(ctx, "feed shut down", "stream", f.stream)
	})
	return f.shutdownErr
}

func (f *Feed) read(ctx context.Context) {
	defer f.wg.Done()

	// "0" replays this consumer's pending entries, ">" reads new ones.
	cursor := "0"
	for ctx.Err() == nil {
		block := f.config.BlockTimeout
		if cursor == "0" {
			block = -1
		}

		streams, err := f.config.Client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    f.config.Group,
			Consumer: f.config.Consumer,
			Streams:  []string{f.stream, cursor},
			Count:    f.config.BatchSize,
			Block:    block,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			f.error(ctx, "failed to read feed", "stream", f.stream, "error", err)
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		received := 0
		for _, s := range streams {
			for _, msg := range s.Messages {
				received++
				if !f.deliver(ctx, msg) {
					return
				}
			}
		}

		if cursor == "0" && received == 0 {
			cursor = ">"
		}
	}
}

// deliver decodes msg and hands it to the consumer. It returns false when
// the reader is stopping.
func (f *Feed) deliver(ctx context.Context, msg redis.XMessage) bool {
	ev, err := decode(msg)
	if err != nil {
		f.error(ctx, "dropping malformed feed message", "stream", f.stream, "id", msg.ID, "error", err)
		if f.config.OnDropped != nil {
			f.config.OnDropped(err)
		}
		if ackErr := f.Ack(ctx, ev); ackErr != nil && ctx.Err() == nil {
			f.error(ctx, "failed to ack malformed message", "id", msg.ID, "error", ackErr)
		}
		return true
	}
	if ev.TournamentID == 0 {
		ev.TournamentID = f.tournamentID
	}

	select {
	case f.events <- ev:
		return true
	case <-ctx.Done():
		return false
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

// Publisher appends events to tournament streams.
type Publisher struct {
	client redis.UniversalClient
	maxLen int64
}

// NewPublisher creates a publisher. maxLen caps stream length approximately; zero disables trimming.
func NewPublisher(client redis.UniversalClient, maxLen int64) *Publisher {
	return &Publisher{client: client, maxLen: maxLen}
}

// Publish appends ev to the tournament's stream and returns the entry id.
func (p *Publisher) Publish(ctx context.Context, ev feed.Event) (string, error) {
	if !ev.Kind.Valid() {
		return "", fmt.Errorf("invalid event kind %q", ev.Kind)
	}

	values, err := encode(ev)
	if err != nil {
		return "", err
	}

	args := &redis.XAddArgs{
		Stream: StreamKey(ev.TournamentID),
		Values: values,
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}

	id, err := p.client.XAdd(ctx, args).Result()
	if err != nil {
		return "", fmt.Errorf("failed to publish event: %w", err)
	}
	return id, nil
}

var (
	_ feed.Feed        = (*Feed)(nil)
	_ feed.Provisioner = (*Provisioner)(nil)
)
