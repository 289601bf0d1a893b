//go:build integration

package integration_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"

	"github.com/getpup/tournament-runtime/pkg/migrations"
	"github.com/getpup/tournament-runtime/store/gormstore"
	"github.com/getpup/tournament-runtime/store/sqlstore"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	testSchema      = "tournament_runtime_it"
	testGamesTable  = "games_it"
	testStreamGroup = "runtime-it"
)

// getTestDB returns a database connection for integration tests.
// It reads the DATABASE_URL environment variable and skips the test if not set.
func getTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	if err := db.Ping(); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	return db
}

// getTestRedis returns a redis client for integration tests.
// It reads the REDIS_URL environment variable and skips the test if not set.
func getTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		t.Skip("REDIS_URL not set, skipping integration test")
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		t.Fatalf("invalid REDIS_URL: %v", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("failed to ping redis: %v", err)
	}

	return client
}

func migrationConfig() migrations.Config {
	config := migrations.DefaultConfig()
	config.SchemaName = testSchema
	return config
}

// setupTables creates the tournament tables in the test schema and the game
// table through gorm, returning the stores bound to them.
func setupTables(t *testing.T, db *sql.DB) (*sqlstore.Store, *gormstore.Store, *gorm.DB) {
	t.Helper()
	ctx := context.Background()

	config := migrationConfig()
	tournaments, entries, err := migrations.TableNames(migrations.AdapterPostgres, config)
	if err != nil {
		t.Fatalf("failed to resolve table names: %v", err)
	}

	tournamentStore := sqlstore.NewWithConfig(db, sqlstore.DialectPostgres, sqlstore.TableConfig{
		TournamentsTable: tournaments,
		EntriesTable:     entries,
	})
	if err := tournamentStore.Migrate(ctx, config); err != nil {
		t.Fatalf("failed to create tables: %v", err)
	}

	gameDB, err := gormstore.Open(os.Getenv("DATABASE_URL"))
	if err != nil {
		t.Fatalf("failed to open game database: %v", err)
	}
	games := gormstore.NewWithTable(gameDB, testGamesTable)
	if err := games.Migrate(ctx); err != nil {
		t.Fatalf("failed to create games table: %v", err)
	}

	return tournamentStore, games, gameDB
}

// teardownTables drops everything setupTables created.
// Errors are logged but don't fail the test.
func teardownTables(t *testing.T, db *sql.DB, gameDB *gorm.DB) {
	t.Helper()

	if _, err := db.Exec(fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", testSchema)); err != nil {
		t.Logf("warning: failed to drop schema: %v", err)
	}
	if err := gameDB.Migrator().DropTable(testGamesTable); err != nil {
		t.Logf("warning: failed to drop games table: %v", err)
	}
}
