package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/getpup/tournament-runtime"
	"github.com/getpup/tournament-runtime/feed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Timer-driven runs on the real clock with shortened offsets.

func TestScenario_TimersDriveTournamentToEnded(t *testing.T) {
	tr := launchingTournament()
	tr.StartTime = time.Now().Add(100 * time.Millisecond)
	end := time.Now().Add(500 * time.Millisecond)
	tr.EndTime = &end
	h := newHarness(tr)
	o := h.orchestrator(t, func(c *Config) { c.CompleteDelay = 300 * time.Millisecond })

	require.NoError(t, o.Init(context.Background()))
	assert.Equal(t, tournament.StateWaiting, o.State())

	assert.Eventually(t, func() bool {
		return o.State() == tournament.StateRunning
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, h.engine.Calls().Start)

	assert.Eventually(t, func() bool {
		return o.State() == tournament.StateFinalising
	}, 2*time.Second, 5*time.Millisecond)
	finalisingAt := time.Now()

	term := waitDone(t, o)
	assert.GreaterOrEqual(t, time.Since(finalisingAt), 200*time.Millisecond, "complete waits for the drain delay")
	assert.Equal(t, tournament.Termination{Code: 0, Reason: tournament.ReasonEnded}, term)
	assert.Equal(t, []tournament.State{
		tournament.StateWaiting,
		tournament.StateRunning,
		tournament.StateFinalising,
		tournament.StateEnded,
	}, h.store.History(testTournamentID))

	calls := h.engine.Calls()
	assert.Equal(t, 1, calls.Complete)
	assert.Equal(t, 1, calls.Shutdown)
	assert.Equal(t, 0, calls.Cancel)
	assert.Equal(t, []string{"init", "start", "complete", "shutdown"}, h.engine.Order())

	reports := h.reporter.Reports()
	require.Len(t, reports, 1)
	assert.Equal(t, tournament.StateEnded, reports[0].FinalState)
	assert.Len(t, reports[0].Transitions, 4)
}

func TestScenario_InsufficientPlayersAtStart(t *testing.T) {
	tr := launchingTournament()
	tr.StartTime = time.Now().Add(100 * time.Millisecond)
	end := time.Now().Add(time.Hour)
	tr.EndTime = &end
	tr.PlayerCount = 1
	tr.AllowJoinAfterStart = false
	h := newHarness(tr)
	o := h.orchestrator(t)

	require.NoError(t, o.Init(context.Background()))

	term := waitDone(t, o)
	assert.Equal(t, tournament.Termination{Code: 0, Reason: tournament.ReasonInsufficientPlayers}, term)
	assert.Equal(t, tournament.StateCancelled, h.storedState(t))
	calls := h.engine.Calls()
	assert.Equal(t, 0, calls.Start)
	assert.Equal(t, 1, calls.Cancel)
	assert.Empty(t, o.timers.Names(), "end timer is cancelled on shutdown")
}

func TestScenario_CancellationEventWhileRunning(t *testing.T) {
	tr := launchingTournament()
	tr.StartTime = time.Now().Add(50 * time.Millisecond)
	h := newHarness(tr)
	o := h.orchestrator(t)

	require.NoError(t, o.Init(context.Background()))
	require.Eventually(t, func() bool {
		return o.State() == tournament.StateRunning
	}, time.Second, 5*time.Millisecond)

	h.feed.Push(feed.Event{ID: "c-1", Kind: feed.KindCancellation, TournamentID: testTournamentID})
	// at-least-once delivery
	h.feed.Push(feed.Event{ID: "c-1", Kind: feed.KindCancellation, TournamentID: testTournamentID})

	term := waitDone(t, o)
	assert.Equal(t, tournament.Termination{Code: 0, Reason: tournament.ReasonCancelled}, term)
	assert.Equal(t, tournament.StateCancelled, h.storedState(t))

	calls := h.engine.Calls()
	assert.Equal(t, 1, calls.Cancel)
	assert.Equal(t, 1, calls.Shutdown)
	_, feedShutdowns := h.feed.Counts()
	assert.Equal(t, 1, feedShutdowns)
	_, boardShutdowns := h.board.Counts()
	assert.Equal(t, 1, boardShutdowns)
	assert.Len(t, h.reporter.Reports(), 1)
}
