package points

import (
	"context"
	"errors"
	"testing"

	"github.com/getpup/tournament-runtime"
	"github.com/getpup/tournament-runtime/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pts(n int64) *int64 { return &n }

func newEngine(t *testing.T, metadata map[string]any) (*Engine, *engine.MockHost) {
	t.Helper()

	host := engine.NewMockHost(1)
	e, err := New(tournament.Tournament{ID: 1}, tournament.Game{Type: GameType, Metadata: metadata}, host)
	require.NoError(t, err)
	require.NoError(t, e.Init(context.Background()))
	return e.(*Engine), host
}

func TestRoundResults_SumsAndAccrues(t *testing.T) {
	e, host := newEngine(t, nil)
	ctx := context.Background()

	require.NoError(t, e.RoundResults(ctx, []tournament.RoundResult{
		{RoundID: "r1", UserID: "alice", Event: "spin", Points: pts(10)},
		{RoundID: "r2", UserID: "bob", Event: "spin", Points: pts(4)},
		{RoundID: "r3", UserID: "alice", Event: "bonus", Points: pts(5)},
		{RoundID: "r4", UserID: "bob", Event: "join"},
	}))

	assert.Equal(t, map[string]int64{"alice": 15, "bob": 4}, e.Totals())
	accrued, completions := host.Snapshot()
	assert.Equal(t, map[string]int64{"alice": 15, "bob": 4}, accrued)
	assert.Equal(t, 0, completions)
}

func TestRoundResults_DeduplicatesRedelivery(t *testing.T) {
	e, host := newEngine(t, nil)
	ctx := context.Background()
	batch := []tournament.RoundResult{{RoundID: "r1", UserID: "alice", Points: pts(10)}}

	require.NoError(t, e.RoundResults(ctx, batch))
	require.NoError(t, e.RoundResults(ctx, batch))

	assert.Equal(t, int64(10), e.Totals()["alice"])
	accrued, _ := host.Snapshot()
	assert.Equal(t, int64(10), accrued["alice"])
}

func TestRoundResults_SharedRoundCreditsEveryPlayer(t *testing.T) {
	e, host := newEngine(t, nil)
	ctx := context.Background()
	batch := []tournament.RoundResult{
		{RoundID: "r1", UserID: "alice", Points: pts(10)},
		{RoundID: "r1", UserID: "bob", Points: pts(7)},
	}

	require.NoError(t, e.RoundResults(ctx, batch))
	require.NoError(t, e.RoundResults(ctx, batch))

	assert.Equal(t, map[string]int64{"alice": 10, "bob": 7}, e.Totals())
	accrued, _ := host.Snapshot()
	assert.Equal(t, map[string]int64{"alice": 10, "bob": 7}, accrued)
}

func TestRoundResults_RedeliveryRetriesFailedAccrual(t *testing.T) {
	e, host := newEngine(t, nil)
	ctx := context.Background()
	boom := errors.New("leaderboard down")
	host.AccruePointsFunc = func(context.Context, string, int64) error { return boom }
	batch := []tournament.RoundResult{{RoundID: "r1", UserID: "alice", Points: pts(10)}}

	assert.ErrorIs(t, e.RoundResults(ctx, batch), boom)
	accrued, _ := host.Snapshot()
	assert.Empty(t, accrued)

	host.AccruePointsFunc = nil
	require.NoError(t, e.RoundResults(ctx, batch))
	require.NoError(t, e.RoundResults(ctx, batch))

	accrued, _ = host.Snapshot()
	assert.Equal(t, int64(10), accrued["alice"])
	assert.Equal(t, int64(10), e.Totals()["alice"], "a retried result is counted once")
}

func TestRoundResults_WithoutRoundIDAreNotDeduplicated(t *testing.T) {
	e, _ := newEngine(t, nil)
	ctx := context.Background()
	batch := []tournament.RoundResult{{UserID: "alice", Points: pts(1)}}

	require.NoError(t, e.RoundResults(ctx, batch))
	require.NoError(t, e.RoundResults(ctx, batch))

	assert.Equal(t, int64(2), e.Totals()["alice"])
}

func TestRoundResults_TargetReportsCompletionOnce(t *testing.T) {
	e, host := newEngine(t, map[string]any{MetadataTargetPoints: float64(20)})
	ctx := context.Background()

	require.NoError(t, e.RoundResults(ctx, []tournament.RoundResult{{RoundID: "r1", UserID: "alice", Points: pts(15)}}))
	_, completions := host.Snapshot()
	assert.Equal(t, 0, completions)

	require.NoError(t, e.RoundResults(ctx, []tournament.RoundResult{{RoundID: "r2", UserID: "alice", Points: pts(5)}}))
	require.NoError(t, e.RoundResults(ctx, []tournament.RoundResult{{RoundID: "r3", UserID: "bob", Points: pts(50)}}))

	_, completions = host.Snapshot()
	assert.Equal(t, 1, completions)
}

func TestRoundResults_BeforeInit(t *testing.T) {
	e, err := New(tournament.Tournament{}, tournament.Game{}, engine.NewMockHost(1))
	require.NoError(t, err)

	err = e.RoundResults(context.Background(), []tournament.RoundResult{{UserID: "u", Points: pts(1)}})
	assert.ErrorIs(t, err, ErrNotInitialised)
	assert.ErrorIs(t, e.Start(context.Background()), ErrNotInitialised)
}

func TestRoundResults_IgnoredAfterStop(t *testing.T) {
	for name, stop := range map[string]func(engine.Engine, context.Context) error{
		"cancel":   engine.Engine.Cancel,
		"complete": engine.Engine.Complete,
		"shutdown": engine.Engine.Shutdown,
	} {
		t.Run(name, func(t *testing.T) {
			e, host := newEngine(t, nil)
			ctx := context.Background()
			require.NoError(t, e.Start(ctx))
			require.NoError(t, stop(e, ctx))

			require.NoError(t, e.RoundResults(ctx, []tournament.RoundResult{{RoundID: "r1", UserID: "u", Points: pts(3)}}))

			accrued, _ := host.Snapshot()
			assert.Empty(t, accrued)
		})
	}
}

func TestRoundResults_AccrueErrorsAreJoined(t *testing.T) {
	e, host := newEngine(t, nil)
	boom := errors.New("leaderboard down")
	host.AccruePointsFunc = func(context.Context, string, int64) error { return boom }

	err := e.RoundResults(context.Background(), []tournament.RoundResult{
		{RoundID: "r1", UserID: "a", Points: pts(1)},
		{RoundID: "r2", UserID: "b", Points: pts(1)},
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, map[string]int64{"a": 1, "b": 1}, e.Totals(), "engine totals do not depend on leaderboard availability")
}

func TestShutdown_Idempotent(t *testing.T) {
	e, _ := newEngine(t, nil)
	ctx := context.Background()

	assert.NoError(t, e.Shutdown(ctx))
	assert.NoError(t, e.Shutdown(ctx))

	fresh, err := New(tournament.Tournament{}, tournament.Game{}, engine.NewMockHost(1))
	require.NoError(t, err)
	assert.NoError(t, fresh.Shutdown(ctx), "shutdown before init is safe")
}

func TestTargetPoints(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		want    int64
		wantErr bool
	}{
		{"absent", nil, 0, false},
		{"int", 10, 10, false},
		{"int64", int64(11), 11, false},
		{"float64 from json", float64(12), 12, false},
		{"string", "13", 13, false},
		{"bad string", "lots", 0, true},
		{"bad type", true, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := targetPoints(map[string]any{MetadataTargetPoints: tt.value})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := New(tournament.Tournament{}, tournament.Game{Metadata: map[string]any{MetadataTargetPoints: "x"}}, engine.NewMockHost(1))
	assert.Error(t, err)
}
