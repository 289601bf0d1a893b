package migrations

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

// Supported adapters.
const (
	AdapterPostgres = "postgres"
	AdapterMySQL    = "mysql"
	AdapterSQLite   = "sqlite"
)

var identifierRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// validateIdentifier ensures an identifier contains only safe characters for SQL.
// Returns an error if the identifier contains characters that could be used for SQL injection.
func validateIdentifier(name, fieldName string) error {
	if name == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}
	if !identifierRegex.MatchString(name) {
		return fmt.Errorf("%s must start with a letter and contain only letters, numbers, and underscores (got: %s)", fieldName, name)
	}
	return nil
}

// validateConfig validates all configuration values to prevent SQL injection.
func validateConfig(config *Config) error {
	if err := validateIdentifier(config.SchemaName, "SchemaName"); err != nil {
		return err
	}
	if err := validateIdentifier(config.TournamentsTable, "TournamentsTable"); err != nil {
		return err
	}
	if err := validateIdentifier(config.EntriesTable, "EntriesTable"); err != nil {
		return err
	}
	return nil
}

// Config configures migration generation for the tournament runtime tables.
type Config struct {
	// OutputFolder is the directory where the migration file will be written
	OutputFolder string

	// OutputFilename is the name of the migration file
	OutputFilename string

	// SchemaName is the database schema name (PostgreSQL) or database name (MySQL).
	// For SQLite, table name prefixes are used instead of schemas (e.g., tournament_runtime_tournaments)
	SchemaName string

	// TournamentsTable is the name of the tournament records table
	TournamentsTable string

	// EntriesTable is the name of the tournament entries table used for player counts
	EntriesTable string
}

// DefaultConfig returns the default configuration for tournament runtime migrations.
func DefaultConfig() Config {
	timestamp := time.Now().Format("20060102150405")
	return Config{
		OutputFolder:     "migrations",
		OutputFilename:   fmt.Sprintf("%s_init_tournament_runtime.sql", timestamp),
		SchemaName:       "tournament_runtime",
		TournamentsTable: "tournaments",
		EntriesTable:     "tournament_entries",
	}
}

// TableNames returns the fully qualified tournaments and entries table names
// for the adapter, as they appear in the generated SQL.
func TableNames(adapter string, config Config) (tournaments, entries string, err error) {
	switch adapter {
	case AdapterPostgres, AdapterMySQL:
		return config.SchemaName + "." + config.TournamentsTable, config.SchemaName + "." + config.EntriesTable, nil
	case AdapterSQLite:
		return config.SchemaName + "_" + config.TournamentsTable, config.SchemaName + "_" + config.EntriesTable, nil
	default:
		return "", "", fmt.Errorf("unsupported adapter %q", adapter)
	}
}

// Render validates config and returns the migration SQL for the adapter without writing a file.
func Render(adapter string, config *Config) (string, error) {
	if err := validateConfig(config); err != nil {
		return "", fmt.Errorf("invalid configuration: %w", err)
	}

	switch adapter {
	case AdapterPostgres:
		return generatePostgresSQL(config), nil
	case AdapterMySQL:
		return generateMySQLSQL(config), nil
	case AdapterSQLite:
		return generateSQLiteSQL(config), nil
	default:
		return "", fmt.Errorf("unsupported adapter %q", adapter)
	}
}

// Generate writes the migration file for the adapter.
func Generate(adapter string, config *Config) error {
	sql, err := Render(adapter, config)
	if err != nil {
		return err
	}

	// Ensure output folder exists
	if err := os.MkdirAll(config.OutputFolder, 0o755); err != nil {
		return fmt.Errorf("failed to create output folder: %w", err)
	}

	outputPath := filepath.Join(config.OutputFolder, config.OutputFilename)
	if err := os.WriteFile(outputPath, []byte(sql), 0o600); err != nil {
		return fmt.Errorf("failed to write migration file: %w", err)
	}

	return nil
}

// GeneratePostgres generates a PostgreSQL migration file.
func GeneratePostgres(config *Config) error {
	return Generate(AdapterPostgres, config)
}

// GenerateMySQL generates a MySQL/MariaDB migration file.
func GenerateMySQL(config *Config) error {
	return Generate(AdapterMySQL, config)
}

// GenerateSQLite generates a SQLite migration file.
func GenerateSQLite(config *Config) error {
	return Generate(AdapterSQLite, config)
}

func generatePostgresSQL(config *Config) string {
	tournaments := config.SchemaName + "." + config.TournamentsTable
	entries := config.SchemaName + "." + config.EntriesTable

	return fmt.Sprintf(`-- Tournament Runtime Migration
-- Generated: %s
-- Database: PostgreSQL

CREATE SCHEMA IF NOT EXISTS %s;

-- One row per tournament. task_id is written by the scheduler when it launches a runtime.
CREATE TABLE IF NOT EXISTS %s (
    id BIGINT PRIMARY KEY,
    state TEXT NOT NULL DEFAULT 'scheduled' CHECK (state IN ('scheduled', 'launching', 'waiting', 'running', 'finalising', 'ended', 'cancelled', 'failed')),
    start_time TIMESTAMPTZ NOT NULL,
    end_time TIMESTAMPTZ,
    min_players INTEGER NOT NULL DEFAULT 0,
    allow_join_after_start BOOLEAN NOT NULL DEFAULT FALSE,
    leaderboard_id BIGINT,
    game_id TEXT NOT NULL,
    game_metadata_override TEXT,
    task_id TEXT,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_%s_state
    ON %s (state, start_time);

-- Entries are counted to derive the player count.
CREATE TABLE IF NOT EXISTS %s (
    tournament_id BIGINT NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
    user_id TEXT NOT NULL,
    joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (tournament_id, user_id)
);
`,
		time.Now().Format(time.RFC3339),
		config.SchemaName,
		tournaments,
		config.TournamentsTable, tournaments,
		entries, tournaments,
	)
}

func generateMySQLSQL(config *Config) string {
	tournaments := config.SchemaName + "." + config.TournamentsTable
	entries := config.SchemaName + "." + config.EntriesTable

	return fmt.Sprintf(`-- Tournament Runtime Migration
-- Generated: %s
-- Database: MySQL/MariaDB

-- In MySQL, we use a separate database instead of schema
CREATE DATABASE IF NOT EXISTS %s
    DEFAULT CHARACTER SET utf8mb4
    DEFAULT COLLATE utf8mb4_unicode_ci;

-- One row per tournament. task_id is written by the scheduler when it launches a runtime.
CREATE TABLE IF NOT EXISTS %s (
    id BIGINT PRIMARY KEY,
    state ENUM('scheduled', 'launching', 'waiting', 'running', 'finalising', 'ended', 'cancelled', 'failed') NOT NULL DEFAULT 'scheduled',
    start_time DATETIME(6) NOT NULL,
    end_time DATETIME(6) NULL,
    min_players INT NOT NULL DEFAULT 0,
    allow_join_after_start BOOLEAN NOT NULL DEFAULT FALSE,
    leaderboard_id BIGINT NULL,
    game_id VARCHAR(255) NOT NULL,
    game_metadata_override TEXT NULL,
    task_id VARCHAR(255) NULL,
    updated_at TIMESTAMP(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6) ON UPDATE CURRENT_TIMESTAMP(6),

    INDEX idx_%s_state (state, start_time)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;

-- Entries are counted to derive the player count.
CREATE TABLE IF NOT EXISTS %s (
    tournament_id BIGINT NOT NULL,
    user_id VARCHAR(255) NOT NULL,
    joined_at TIMESTAMP(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
    PRIMARY KEY (tournament_id, user_id),
    FOREIGN KEY (tournament_id) REFERENCES %s(id) ON DELETE CASCADE
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;
`,
		time.Now().Format(time.RFC3339),
		config.SchemaName,
		tournaments,
		config.TournamentsTable,
		entries, tournaments,
	)
}

func generateSQLiteSQL(config *Config) string {
	// SQLite doesn't support schemas, so we use table name prefixes instead
	tournaments := config.SchemaName + "_" + config.TournamentsTable
	entries := config.SchemaName + "_" + config.EntriesTable

	return fmt.Sprintf(`-- Tournament Runtime Migration
-- Generated: %s
-- Database: SQLite

-- One row per tournament. task_id is written by the scheduler when it launches a runtime.
CREATE TABLE IF NOT EXISTS %s (
    id INTEGER PRIMARY KEY,
    state TEXT NOT NULL DEFAULT 'scheduled' CHECK (state IN ('scheduled', 'launching', 'waiting', 'running', 'finalising', 'ended', 'cancelled', 'failed')),
    start_time DATETIME NOT NULL,
    end_time DATETIME,
    min_players INTEGER NOT NULL DEFAULT 0,
    allow_join_after_start BOOLEAN NOT NULL DEFAULT 0,
    leaderboard_id INTEGER,
    game_id TEXT NOT NULL,
    game_metadata_override TEXT,
    task_id TEXT,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_%s_state
    ON %s (state, start_time);

-- Entries are counted to derive the player count.
CREATE TABLE IF NOT EXISTS %s (
    tournament_id INTEGER NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
    user_id TEXT NOT NULL,
    joined_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (tournament_id, user_id)
);
`,
		time.Now().Format(time.RFC3339),
		tournaments,
		tournaments, tournaments,
		entries, tournaments,
	)
}
