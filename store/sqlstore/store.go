// Package sqlstore implements the tournament store on database/sql for
// PostgreSQL, MySQL/MariaDB and SQLite using the tables generated by pkg/migrations.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/getpup/tournament-runtime"
	"github.com/getpup/tournament-runtime/pkg/migrations"
	"github.com/getpup/tournament-runtime/store"
)

// Dialect selects placeholder style and table naming.
type Dialect string

const (
	DialectPostgres Dialect = migrations.AdapterPostgres
	DialectMySQL    Dialect = migrations.AdapterMySQL
	DialectSQLite   Dialect = migrations.AdapterSQLite
)

// TableConfig configures the fully qualified table names used by the store.
type TableConfig struct {
	// TournamentsTable is the name of the table storing tournament records.
	TournamentsTable string

	// EntriesTable is the name of the table storing tournament entries.
	EntriesTable string
}

// DefaultTableConfig returns the table names produced by migrations.DefaultConfig for the dialect.
func DefaultTableConfig(dialect Dialect) TableConfig {
	tournaments, entries, err := migrations.TableNames(string(dialect), migrations.DefaultConfig())
	if err != nil {
		// unknown dialects fall back to unqualified names
		return TableConfig{TournamentsTable: "tournaments", EntriesTable: "tournament_entries"}
	}
	return TableConfig{TournamentsTable: tournaments, EntriesTable: entries}
}

// Store is a database/sql implementation of store.TournamentStore.
type Store struct {
	db               *sql.DB
	dialect          Dialect
	tournamentsTable string
	entriesTable     string
}

// New creates a new store with default table names for the dialect.
func New(db *sql.DB, dialect Dialect) *Store {
	return NewWithConfig(db, dialect, DefaultTableConfig(dialect))
}

// NewWithConfig creates a new store with custom table names.
func NewWithConfig(db *sql.DB, dialect Dialect, config TableConfig) *Store {
	return &Store{
		db:               db,
		dialect:          dialect,
		tournamentsTable: config.TournamentsTable,
		entriesTable:     config.EntriesTable,
	}
}

// Migrate creates the tournament tables if they do not exist.
// MySQL connections must be opened with multiStatements=true.
func (s *Store) Migrate(ctx context.Context, config migrations.Config) error {
	ddl, err := migrations.Render(string(s.dialect), &config)
	if err != nil {
		return fmt.Errorf("failed to render migration: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to apply migration: %w", err)
	}

	return nil
}

// rebind rewrites ? placeholders into the dialect's form.
func (s *Store) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Get returns the tournament with its current player count.
// Returns tournament.ErrTournamentNotFound if no row exists.
func (s *Store) Get(ctx context.Context, id int64) (tournament.Tournament, error) {
	query := s.rebind(fmt.Sprintf(`
		SELECT t.id, t.state, t.start_time, t.end_time, t.min_players, t.allow_join_after_start,
		       t.leaderboard_id, t.game_id, t.game_metadata_override,
		       (SELECT COUNT(*) FROM %s e WHERE e.tournament_id = t.id)
		FROM %s t
		WHERE t.id = ?
	`, s.entriesTable, s.tournamentsTable))

	var (
		t           tournament.Tournament
		state       string
		endTime     sql.NullTime
		leaderboard sql.NullInt64
		override    sql.NullString
	)

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID,
		&state,
		&t.StartTime,
		&endTime,
		&t.MinPlayers,
		&t.AllowJoinAfterStart,
		&leaderboard,
		&t.GameID,
		&override,
		&t.PlayerCount,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return tournament.Tournament{}, tournament.ErrTournamentNotFound
	}
	if err != nil {
		return tournament.Tournament{}, fmt.Errorf("failed to get tournament: %w", err)
	}

	t.State = tournament.State(state)
	if endTime.Valid {
		end := endTime.Time
		t.EndTime = &end
	}
	if leaderboard.Valid {
		lb := leaderboard.Int64
		t.LeaderboardID = &lb
	}
	if override.Valid && override.String != "" {
		if err := json.Unmarshal([]byte(override.String), &t.GameMetadataOverride); err != nil {
			return tournament.Tournament{}, fmt.Errorf("failed to decode game metadata override: %w", err)
		}
	}

	return t, nil
}

// SetState persists a new lifecycle state.
// Returns tournament.ErrTournamentNotFound if no row was updated.
// MySQL connections should set clientFoundRows=true so unchanged rows still count.
func (s *Store) SetState(ctx context.Context, id int64, state tournament.State) error {
	query := s.rebind(fmt.Sprintf(`
		UPDATE %s
		SET state = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, s.tournamentsTable))

	result, err := s.db.ExecContext(ctx, query, string(state), id)
	if err != nil {
		return fmt.Errorf("failed to set tournament state: %w", err)
	}

	return requireRow(result)
}

// GetTaskID returns the task the scheduler assigned to the tournament.
// Returns store.ErrNoTaskAssigned if the column is null.
func (s *Store) GetTaskID(ctx context.Context, id int64) (string, error) {
	query := s.rebind(fmt.Sprintf(`SELECT task_id FROM %s WHERE id = ?`, s.tournamentsTable))

	var taskID sql.NullString
	err := s.db.QueryRowContext(ctx, query, id).Scan(&taskID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", tournament.ErrTournamentNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get task id: %w", err)
	}
	if !taskID.Valid || taskID.String == "" {
		return "", store.ErrNoTaskAssigned
	}

	return taskID.String, nil
}

// Create inserts a tournament record. PlayerCount is ignored; add entries with AddEntry.
func (s *Store) Create(ctx context.Context, t tournament.Tournament) error {
	query := s.rebind(fmt.Sprintf(`
		INSERT INTO %s (id, state, start_time, end_time, min_players, allow_join_after_start,
		                leaderboard_id, game_id, game_metadata_override)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.tournamentsTable))

	state := t.State
	if state == "" {
		state = tournament.StateScheduled
	}

	var endTime sql.NullTime
	if t.EndTime != nil {
		endTime = sql.NullTime{Time: *t.EndTime, Valid: true}
	}

	var leaderboard sql.NullInt64
	if t.LeaderboardID != nil {
		leaderboard = sql.NullInt64{Int64: *t.LeaderboardID, Valid: true}
	}

	var override sql.NullString
	if len(t.GameMetadataOverride) > 0 {
		raw, err := json.Marshal(t.GameMetadataOverride)
		if err != nil {
			return fmt.Errorf("failed to encode game metadata override: %w", err)
		}
		override = sql.NullString{String: string(raw), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, query,
		t.ID,
		string(state),
		t.StartTime,
		endTime,
		t.MinPlayers,
		t.AllowJoinAfterStart,
		leaderboard,
		t.GameID,
		override,
	)
	if err != nil {
		return fmt.Errorf("failed to create tournament: %w", err)
	}

	return nil
}

// AssignTask records the task that owns the tournament runtime.
func (s *Store) AssignTask(ctx context.Context, id int64, taskID string) error {
	query := s.rebind(fmt.Sprintf(`
		UPDATE %s
		SET task_id = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, s.tournamentsTable))

	result, err := s.db.ExecContext(ctx, query, taskID, id)
	if err != nil {
		return fmt.Errorf("failed to assign task: %w", err)
	}

	return requireRow(result)
}

// AddEntry registers a player for the tournament.
func (s *Store) AddEntry(ctx context.Context, id int64, userID string) error {
	query := s.rebind(fmt.Sprintf(`
		INSERT INTO %s (tournament_id, user_id, joined_at)
		VALUES (?, ?, ?)
	`, s.entriesTable))

	if _, err := s.db.ExecContext(ctx, query, id, userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to add entry: %w", err)
	}

	return nil
}

func requireRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return tournament.ErrTournamentNotFound
	}
	return nil
}

var _ store.TournamentStore = (*Store)(nil)
