//go:build integration

package gormstore_test

import (
	"context"
	"os"
	"testing"

	"github.com/getpup/tournament-runtime"
	"github.com/getpup/tournament-runtime/store/gormstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGameStore_Postgres(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	db, err := gormstore.Open(dsn)
	require.NoError(t, err)

	ctx := context.Background()
	s := gormstore.NewWithTable(db, "games_integration_test")
	require.NoError(t, db.Migrator().DropTable("games_integration_test"))
	require.NoError(t, s.Migrate(ctx))

	require.NoError(t, s.Put(ctx, tournament.Game{
		ID:       "slot-1",
		Name:     "Lucky Sevens",
		Type:     "slot",
		Metadata: map[string]any{"reels": float64(5), "target_points": float64(1000)},
	}))

	g, err := s.Get(ctx, "slot-1")
	require.NoError(t, err)
	assert.Equal(t, "Lucky Sevens", g.Name)
	assert.Equal(t, "slot", g.Type)
	assert.Equal(t, float64(5), g.Metadata["reels"])

	require.NoError(t, s.Put(ctx, tournament.Game{ID: "slot-1", Name: "Lucky Sevens II", Type: "slot"}))
	g, err = s.Get(ctx, "slot-1")
	require.NoError(t, err)
	assert.Equal(t, "Lucky Sevens II", g.Name)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, tournament.ErrGameNotFound)
}
