package migrations

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testConfig(dir string) Config {
	return Config{
		OutputFolder:     dir,
		OutputFilename:   "test_migration.sql",
		SchemaName:       "tournament_runtime",
		TournamentsTable: "tournaments",
		EntriesTable:     "tournament_entries",
	}
}

func readGenerated(t *testing.T, config Config) string {
	t.Helper()

	content, err := os.ReadFile(filepath.Join(config.OutputFolder, config.OutputFilename))
	if err != nil {
		t.Fatalf("Failed to read generated file: %v", err)
	}
	return string(content)
}

func assertContainsAll(t *testing.T, sql string, required []string) {
	t.Helper()

	for _, s := range required {
		if !strings.Contains(sql, s) {
			t.Errorf("generated SQL missing required string: %s", s)
		}
	}
}

func TestGeneratePostgres(t *testing.T) {
	config := testConfig(t.TempDir())

	if err := GeneratePostgres(&config); err != nil {
		t.Fatalf("GeneratePostgres failed: %v", err)
	}

	sql := readGenerated(t, config)

	assertContainsAll(t, sql, []string{
		"-- Database: PostgreSQL",
		"CREATE SCHEMA IF NOT EXISTS tournament_runtime",
		"CREATE TABLE IF NOT EXISTS tournament_runtime.tournaments",
		"id BIGINT PRIMARY KEY",
		"state TEXT NOT NULL DEFAULT 'scheduled'",
		"'launching', 'waiting', 'running', 'finalising', 'ended', 'cancelled', 'failed'",
		"start_time TIMESTAMPTZ NOT NULL",
		"end_time TIMESTAMPTZ,",
		"leaderboard_id BIGINT,",
		"game_metadata_override TEXT",
		"task_id TEXT",
		"CREATE INDEX IF NOT EXISTS idx_tournaments_state",
		"CREATE TABLE IF NOT EXISTS tournament_runtime.tournament_entries",
		"REFERENCES tournament_runtime.tournaments(id) ON DELETE CASCADE",
		"PRIMARY KEY (tournament_id, user_id)",
	})
}

func TestGenerateMySQL(t *testing.T) {
	config := testConfig(t.TempDir())

	if err := GenerateMySQL(&config); err != nil {
		t.Fatalf("GenerateMySQL failed: %v", err)
	}

	sql := readGenerated(t, config)

	assertContainsAll(t, sql, []string{
		"-- Database: MySQL/MariaDB",
		"CREATE DATABASE IF NOT EXISTS tournament_runtime",
		"CREATE TABLE IF NOT EXISTS tournament_runtime.tournaments",
		"state ENUM('scheduled', 'launching', 'waiting', 'running', 'finalising', 'ended', 'cancelled', 'failed')",
		"start_time DATETIME(6) NOT NULL",
		"game_id VARCHAR(255) NOT NULL",
		"INDEX idx_tournaments_state (state, start_time)",
		"ENGINE=InnoDB",
		"FOREIGN KEY (tournament_id) REFERENCES tournament_runtime.tournaments(id) ON DELETE CASCADE",
	})

	if strings.Contains(sql, "CREATE SCHEMA") {
		t.Error("MySQL migration should not create a schema")
	}
}

func TestGenerateSQLite(t *testing.T) {
	config := testConfig(t.TempDir())

	if err := GenerateSQLite(&config); err != nil {
		t.Fatalf("GenerateSQLite failed: %v", err)
	}

	sql := readGenerated(t, config)

	assertContainsAll(t, sql, []string{
		"-- Database: SQLite",
		"CREATE TABLE IF NOT EXISTS tournament_runtime_tournaments",
		"id INTEGER PRIMARY KEY",
		"start_time DATETIME NOT NULL",
		"allow_join_after_start BOOLEAN NOT NULL DEFAULT 0",
		"CREATE TABLE IF NOT EXISTS tournament_runtime_tournament_entries",
		"REFERENCES tournament_runtime_tournaments(id)",
	})

	if strings.Contains(sql, "tournament_runtime.") {
		t.Error("SQLite migration should use table prefixes, not schema qualification")
	}
}

func TestGenerate_CustomNames(t *testing.T) {
	for _, adapter := range []string{AdapterPostgres, AdapterMySQL, AdapterSQLite} {
		t.Run(adapter, func(t *testing.T) {
			config := Config{
				OutputFolder:     t.TempDir(),
				OutputFilename:   "custom.sql",
				SchemaName:       "games",
				TournamentsTable: "cups",
				EntriesTable:     "cup_entries",
			}

			if err := Generate(adapter, &config); err != nil {
				t.Fatalf("Generate failed: %v", err)
			}

			sql := readGenerated(t, config)
			tournaments, entries, err := TableNames(adapter, config)
			if err != nil {
				t.Fatalf("TableNames failed: %v", err)
			}

			if !strings.Contains(sql, "CREATE TABLE IF NOT EXISTS "+tournaments) {
				t.Errorf("custom tournaments table %s not used", tournaments)
			}
			if !strings.Contains(sql, "CREATE TABLE IF NOT EXISTS "+entries) {
				t.Errorf("custom entries table %s not used", entries)
			}
		})
	}
}

func TestGenerate_CreatesOutputFolder(t *testing.T) {
	config := testConfig(filepath.Join(t.TempDir(), "nested", "migrations"))

	if err := GeneratePostgres(&config); err != nil {
		t.Fatalf("GeneratePostgres failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(config.OutputFolder, config.OutputFilename)); err != nil {
		t.Errorf("Expected migration file to exist: %v", err)
	}
}

func TestRender_UnsupportedAdapter(t *testing.T) {
	config := testConfig(t.TempDir())

	_, err := Render("oracle", &config)
	if err == nil {
		t.Fatal("Expected error for unsupported adapter, got nil")
	}
	if !strings.Contains(err.Error(), "unsupported adapter") {
		t.Errorf("Expected unsupported adapter error, got: %v", err)
	}
}

func TestTableNames(t *testing.T) {
	config := DefaultConfig()

	tests := []struct {
		adapter         string
		wantTournaments string
		wantEntries     string
	}{
		{AdapterPostgres, "tournament_runtime.tournaments", "tournament_runtime.tournament_entries"},
		{AdapterMySQL, "tournament_runtime.tournaments", "tournament_runtime.tournament_entries"},
		{AdapterSQLite, "tournament_runtime_tournaments", "tournament_runtime_tournament_entries"},
	}

	for _, tt := range tests {
		t.Run(tt.adapter, func(t *testing.T) {
			tournaments, entries, err := TableNames(tt.adapter, config)
			if err != nil {
				t.Fatalf("TableNames failed: %v", err)
			}
			if tournaments != tt.wantTournaments {
				t.Errorf("Expected tournaments table %s, got %s", tt.wantTournaments, tournaments)
			}
			if entries != tt.wantEntries {
				t.Errorf("Expected entries table %s, got %s", tt.wantEntries, entries)
			}
		})
	}

	if _, _, err := TableNames("oracle", config); err == nil {
		t.Error("Expected error for unsupported adapter")
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.OutputFolder != "migrations" {
		t.Errorf("Expected OutputFolder to be 'migrations', got '%s'", config.OutputFolder)
	}
	if config.SchemaName != "tournament_runtime" {
		t.Errorf("Expected SchemaName to be 'tournament_runtime', got '%s'", config.SchemaName)
	}
	if config.TournamentsTable != "tournaments" {
		t.Errorf("Expected TournamentsTable to be 'tournaments', got '%s'", config.TournamentsTable)
	}
	if config.EntriesTable != "tournament_entries" {
		t.Errorf("Expected EntriesTable to be 'tournament_entries', got '%s'", config.EntriesTable)
	}

	// Verify filename has timestamp format
	if !strings.HasSuffix(config.OutputFilename, "_init_tournament_runtime.sql") {
		t.Errorf("Expected OutputFilename to end with '_init_tournament_runtime.sql', got '%s'", config.OutputFilename)
	}
}

func TestValidateIdentifier(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		wantError bool
	}{
		{"valid simple", "table_name", false},
		{"valid with numbers", "table123", false},
		{"empty string", "", true},
		{"starts with number", "123table", true},
		{"contains spaces", "table name", true},
		{"contains dash", "table-name", true},
		{"contains dot", "schema.table", true},
		{"sql injection attempt", "table; DROP TABLE users--", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateIdentifier(tt.value, "TableName")
			if tt.wantError && err == nil {
				t.Errorf("Expected error for value '%s', got nil", tt.value)
			}
			if !tt.wantError && err != nil {
				t.Errorf("Expected no error for value '%s', got: %v", tt.value, err)
			}
		})
	}
}

func TestGenerate_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"schema", func(c *Config) { c.SchemaName = "schema'; DROP TABLE users--" }},
		{"tournaments table", func(c *Config) { c.TournamentsTable = "" }},
		{"entries table", func(c *Config) { c.EntriesTable = "entries;--" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := testConfig(t.TempDir())
			tt.mutate(&config)

			err := GenerateSQLite(&config)
			if err == nil {
				t.Fatal("Expected error for invalid configuration, got nil")
			}
			if !strings.Contains(err.Error(), "invalid configuration") {
				t.Errorf("Expected error to mention 'invalid configuration', got: %v", err)
			}
		})
	}
}
