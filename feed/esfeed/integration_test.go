//go:build integration

package esfeed_test

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/getpup/pupsourcing/es/adapters/postgres"
	"github.com/getpup/tournament-runtime"
	"github.com/getpup/tournament-runtime/feed"
	"github.com/getpup/tournament-runtime/feed/esfeed"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	db, err := sql.Open("postgres", dbURL)
	require.NoError(t, err)
	require.NoError(t, db.Ping())
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func receive(t *testing.T, events <-chan feed.Event) feed.Event {
	t.Helper()

	select {
	case ev := <-events:
		return ev
	case <-time.After(10 * time.Second):
		t.Fatal("no event received")
		return feed.Event{}
	}
}

func TestFeed_DeliversInOrderAndResumesAfterRestart(t *testing.T) {
	db := getTestDB(t)
	ctx := context.Background()
	// a fresh id gives a fresh projection checkpoint
	tournamentID := 900000 + time.Now().UnixNano()%100000000

	require.NoError(t, esfeed.Migrate(ctx, db))
	require.NoError(t, esfeed.Migrate(ctx, db), "migrate is idempotent")
	store := postgres.NewStore(postgres.DefaultStoreConfig())
	publisher := esfeed.NewPublisher(db, store)
	points := int64(4)

	_, err := publisher.Publish(ctx, feed.Event{
		Kind:         feed.KindRoundResults,
		TournamentID: tournamentID,
		Results:      []tournament.RoundResult{{RoundID: "r1", UserID: "alice", Points: &points}},
	})
	require.NoError(t, err)
	_, err = publisher.Publish(ctx, feed.Event{Kind: feed.KindComplete, TournamentID: tournamentID + 1})
	require.NoError(t, err)
	_, err = publisher.Publish(ctx, feed.Event{Kind: feed.KindComplete, TournamentID: tournamentID})
	require.NoError(t, err)

	p := esfeed.NewProvisioner(esfeed.Config{DB: db, EventStore: store, PollInterval: 20 * time.Millisecond})

	first, err := p.Create(tournamentID)
	require.NoError(t, err)
	require.NoError(t, first.Init(ctx))

	ev := receive(t, first.Events())
	assert.Equal(t, feed.KindRoundResults, ev.Kind)
	require.Len(t, ev.Results, 1)
	assert.Equal(t, "alice", ev.Results[0].UserID)
	require.NoError(t, first.Ack(ctx, ev))

	// The complete event is delivered but never acked before shutdown.
	unacked := receive(t, first.Events())
	assert.Equal(t, feed.KindComplete, unacked.Kind)
	require.NoError(t, first.Shutdown(ctx))

	second, err := p.Create(tournamentID)
	require.NoError(t, err)
	require.NoError(t, second.Init(ctx))
	defer second.Shutdown(ctx)

	// Acked events of an uncommitted batch may be replayed as well.
	redelivered := receive(t, second.Events())
	for redelivered.Kind != feed.KindComplete {
		require.NoError(t, second.Ack(ctx, redelivered))
		redelivered = receive(t, second.Events())
	}
	assert.Equal(t, unacked.ID, redelivered.ID)
	assert.Equal(t, tournamentID, redelivered.TournamentID)
	require.NoError(t, second.Ack(ctx, redelivered))
}
