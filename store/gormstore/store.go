// Package gormstore implements the game catalogue store on gorm.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/getpup/tournament-runtime"
	"github.com/getpup/tournament-runtime/store"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// DefaultGamesTable is the table used when no custom name is configured.
const DefaultGamesTable = "games"

// GameModel is the persisted form of a game. Metadata is stored as JSON.
type GameModel struct {
	ID        string         `json:"id" gorm:"primaryKey"`
	Name      string         `json:"name" gorm:"not null"`
	GameType  string         `json:"game_type" gorm:"index"`
	Metadata  map[string]any `json:"metadata" gorm:"serializer:json"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (m GameModel) toGame() tournament.Game {
	return tournament.Game{
		ID:       m.ID,
		Name:     m.Name,
		Type:     m.GameType,
		Metadata: m.Metadata,
	}
}

func fromGame(g tournament.Game) GameModel {
	return GameModel{
		ID:       g.ID,
		Name:     g.Name,
		GameType: g.Type,
		Metadata: g.Metadata,
	}
}

// Store is a gorm implementation of store.GameStore.
type Store struct {
	db    *gorm.DB
	table string
}

// Open connects to PostgreSQL through gorm.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to game database: %w", err)
	}
	return db, nil
}

// New creates a game store on the default games table.
func New(db *gorm.DB) *Store {
	return NewWithTable(db, DefaultGamesTable)
}

// NewWithTable creates a game store on a custom table.
func NewWithTable(db *gorm.DB, table string) *Store {
	return &Store{db: db, table: table}
}

// Migrate creates or updates the games table.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Table(s.table).AutoMigrate(&GameModel{}); err != nil {
		return fmt.Errorf("failed to migrate games table: %w", err)
	}
	return nil
}

// Get returns the game with the given ID.
// Returns tournament.ErrGameNotFound if no row exists.
func (s *Store) Get(ctx context.Context, gameID string) (tournament.Game, error) {
	var m GameModel
	err := s.db.WithContext(ctx).Table(s.table).First(&m, "id = ?", gameID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return tournament.Game{}, tournament.ErrGameNotFound
	}
	if err != nil {
		return tournament.Game{}, fmt.Errorf("failed to get game: %w", err)
	}

	return m.toGame(), nil
}

// Put inserts or replaces a game.
func (s *Store) Put(ctx context.Context, g tournament.Game) error {
	m := fromGame(g)
	if err := s.db.WithContext(ctx).Table(s.table).Save(&m).Error; err != nil {
		return fmt.Errorf("failed to save game: %w", err)
	}
	return nil
}

var _ store.GameStore = (*Store)(nil)
