package metrics

import (
	"testing"
	"time"

	"github.com/getpup/tournament-runtime"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewCollector_CreatesCollectorWithTournamentLabel(t *testing.T) {
	collector := NewCollector(1234)

	assert.NotNil(t, collector)
	assert.Equal(t, "1234", collector.tournament)
}

func TestCollector_IncTransitions(t *testing.T) {
	collector := NewCollector(101)

	before := testutil.ToFloat64(TransitionsTotal.WithLabelValues("101", "waiting", "running"))
	collector.IncTransitions(tournament.StateWaiting, tournament.StateRunning)
	after := testutil.ToFloat64(TransitionsTotal.WithLabelValues("101", "waiting", "running"))

	assert.Equal(t, before+1, after)
}

func TestCollector_SetState(t *testing.T) {
	collector := NewCollector(102)

	collector.SetState(tournament.StateRunning)

	assert.Equal(t, float64(1), testutil.ToFloat64(TournamentState.WithLabelValues("102", "running")))
	assert.Equal(t, float64(0), testutil.ToFloat64(TournamentState.WithLabelValues("102", "waiting")))

	collector.SetState(tournament.StateEnded)

	assert.Equal(t, float64(0), testutil.ToFloat64(TournamentState.WithLabelValues("102", "running")))
	assert.Equal(t, float64(1), testutil.ToFloat64(TournamentState.WithLabelValues("102", "ended")))
}

func TestCollector_AddRoundResults(t *testing.T) {
	collector := NewCollector(103)

	before := testutil.ToFloat64(RoundResultsTotal.WithLabelValues("103"))
	collector.AddRoundResults(3)
	after := testutil.ToFloat64(RoundResultsTotal.WithLabelValues("103"))

	assert.Equal(t, before+3, after)
}

func TestCollector_IncFeedEvents(t *testing.T) {
	collector := NewCollector(104)

	before := testutil.ToFloat64(FeedEventsTotal.WithLabelValues("104", "complete"))
	collector.IncFeedEvents("complete")
	after := testutil.ToFloat64(FeedEventsTotal.WithLabelValues("104", "complete"))

	assert.Equal(t, before+1, after)
}

func TestCollector_IncFeedErrors(t *testing.T) {
	collector := NewCollector(105)

	before := testutil.ToFloat64(FeedErrorsTotal.WithLabelValues("105"))
	collector.IncFeedErrors()
	after := testutil.ToFloat64(FeedErrorsTotal.WithLabelValues("105"))

	assert.Equal(t, before+1, after)
}

func TestCollector_IncTimerFires(t *testing.T) {
	collector := NewCollector(106)

	before := testutil.ToFloat64(TimerFiresTotal.WithLabelValues("106", "start"))
	collector.IncTimerFires("start")
	after := testutil.ToFloat64(TimerFiresTotal.WithLabelValues("106", "start"))

	assert.Equal(t, before+1, after)
}

func TestCollector_ObserveStep(t *testing.T) {
	collector := NewCollector(107)

	collector.ObserveStep("engine_init", 250*time.Millisecond)
	count := testutil.CollectAndCount(StepDuration)

	assert.Greater(t, count, 0)
}

func TestCollector_IncTerminations(t *testing.T) {
	collector := NewCollector(108)

	before := testutil.ToFloat64(TerminationsTotal.WithLabelValues("108", "1", "failed"))
	collector.IncTerminations(tournament.Termination{Code: 1, Reason: tournament.ReasonFailed})
	after := testutil.ToFloat64(TerminationsTotal.WithLabelValues("108", "1", "failed"))

	assert.Equal(t, before+1, after)
}

func TestCollector_NilIsNoop(t *testing.T) {
	var collector *Collector

	assert.NotPanics(t, func() {
		collector.IncTransitions(tournament.StateWaiting, tournament.StateRunning)
		collector.SetState(tournament.StateRunning)
		collector.AddRoundResults(1)
		collector.IncFeedEvents("complete")
		collector.IncFeedErrors()
		collector.IncTimerFires("start")
		collector.ObserveStep("engine_init", time.Second)
		collector.IncTerminations(tournament.Termination{})
	})
}
