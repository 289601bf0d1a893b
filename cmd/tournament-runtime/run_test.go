package main

import (
	"context"
	"testing"
	"time"

	"github.com/getpup/tournament-runtime"
	"github.com/getpup/tournament-runtime/config"
	"github.com/getpup/tournament-runtime/engine"
	"github.com/getpup/tournament-runtime/feed"
	"github.com/getpup/tournament-runtime/feed/esfeed"
	"github.com/getpup/tournament-runtime/feed/redisfeed"
	"github.com/getpup/tournament-runtime/identity"
	"github.com/getpup/tournament-runtime/orchestrator"
	"github.com/getpup/tournament-runtime/store"
	"github.com/getpup/tournament-runtime/store/memory"
	"github.com/getpup/tournament-runtime/store/sqlstore"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLDriver(t *testing.T) {
	tests := []struct {
		driver  string
		name    string
		dialect sqlstore.Dialect
	}{
		{"postgres", "postgres", sqlstore.DialectPostgres},
		{"mysql", "mysql", sqlstore.DialectMySQL},
		{"sqlite", "sqlite3", sqlstore.DialectSQLite},
	}

	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			name, dialect, err := sqlDriver(tt.driver)
			require.NoError(t, err)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.dialect, dialect)
		})
	}

	_, _, err := sqlDriver("oracle")
	assert.Error(t, err)
}

func TestOpenDatabase_SQLite(t *testing.T) {
	db, dialect, err := openDatabase("sqlite", ":memory:")
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, sqlstore.DialectSQLite, dialect)
	assert.NoError(t, db.Ping())
}

func TestMigrate_SQLite(t *testing.T) {
	cfg := config.Default()
	cfg.DatabaseDriver = "sqlite"
	cfg.DatabaseURL = "file:" + t.TempDir() + "/runtime.db"

	require.NoError(t, migrate(context.Background(), cfg))
	assert.NoError(t, migrate(context.Background(), cfg), "migrate is idempotent")
}

func TestTaskSource(t *testing.T) {
	cfg := config.Default()
	cfg.TaskID = "task-1"
	assert.Equal(t, identity.Static("task-1"), taskSource(cfg))

	cfg.TaskID = ""
	cfg.ECSMetadataURI = "http://169.254.170.2/v4/abc"
	src, ok := taskSource(cfg).(*identity.ECSMetadata)
	require.True(t, ok)
	assert.Equal(t, "http://169.254.170.2/v4/abc", src.BaseURL)
}

func TestNewFeeds(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	defer client.Close()

	cfg := config.Default()
	cfg.DatabaseURL = "postgres://localhost/tournaments"

	feeds, closeFeeds, err := newFeeds(cfg, nil, client, nil)
	require.NoError(t, err)
	closeFeeds()
	assert.IsType(t, &redisfeed.Provisioner{}, feeds)

	cfg.FeedDriver = config.FeedEventStore
	cfg.EventStoreURL = "postgres://localhost/events"
	feeds, closeFeeds, err = newFeeds(cfg, nil, client, nil)
	require.NoError(t, err)
	closeFeeds()
	assert.IsType(t, &esfeed.Provisioner{}, feeds)

	cfg.FeedDriver = "kafka"
	_, _, err = newFeeds(cfg, nil, client, nil)
	assert.Error(t, err)
}

func TestNewReporter_DisabledWithoutBucket(t *testing.T) {
	r, err := newReporter(context.Background(), config.ReportConfig{})
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestExecute_InvalidConfig(t *testing.T) {
	t.Setenv("TOURNAMENT_RUNTIME_TOURNAMENT_ID", "")
	t.Setenv("DATABASE_URL", "")

	code, err := execute(context.Background(), nil)

	assert.ErrorIs(t, err, config.ErrInvalid)
	assert.Equal(t, 1, code)
}

func TestInitTournament_PanicTerminatesRuntime(t *testing.T) {
	tournaments := store.NewMockTournamentStore()
	tournaments.GetFunc = func(ctx context.Context, id int64) (tournament.Tournament, error) {
		return tournament.Tournament{ID: id, State: tournament.StateLaunching, GameID: "slot-1", StartTime: time.Now().Add(time.Hour)}, nil
	}
	tournaments.GetTaskIDFunc = func(ctx context.Context, id int64) (string, error) { return "task-1", nil }
	tournaments.SetStateFunc = func(ctx context.Context, id int64, state tournament.State) error {
		if state == tournament.StateWaiting {
			panic("connection reset")
		}
		return nil
	}

	games := memory.NewGameStore()
	games.Put(tournament.Game{ID: "slot-1", Type: "slot"})
	var host engine.Host
	engines := engine.NewRegistry()
	engines.MustRegister("slot", engine.NewMockEngine().Factory(&host))
	disabled := false

	o, err := orchestrator.New(orchestrator.Config{
		TournamentID:   9,
		Tournaments:    tournaments,
		Games:          games,
		Identity:       identity.NewVerifier(tournaments, identity.Static("task-1")),
		Feeds:          &feed.MockProvisioner{Feed: feed.NewMockFeed()},
		Engines:        engines,
		MetricsEnabled: &disabled,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = o.Close() })

	err = initTournament(context.Background(), o)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "init panicked")
	select {
	case <-o.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("runtime did not terminate")
	}
	assert.Equal(t, 1, o.Termination().Code)
}
