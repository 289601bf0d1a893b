package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestTransitionsTotal_Increment(t *testing.T) {
	before := testutil.ToFloat64(TransitionsTotal.WithLabelValues("t-1", "launching", "waiting"))
	TransitionsTotal.WithLabelValues("t-1", "launching", "waiting").Inc()
	after := testutil.ToFloat64(TransitionsTotal.WithLabelValues("t-1", "launching", "waiting"))

	assert.Equal(t, before+1, after)
}

func TestTournamentState_SetValue(t *testing.T) {
	TournamentState.WithLabelValues("t-2", "running").Set(1)
	value := testutil.ToFloat64(TournamentState.WithLabelValues("t-2", "running"))

	assert.Equal(t, float64(1), value)
}

func TestStepDuration_Observe(t *testing.T) {
	StepDuration.WithLabelValues("t-3", "engine_start").Observe(0.5)
	count := testutil.CollectAndCount(StepDuration)

	assert.Greater(t, count, 0)
}

func TestAllMetrics_Registered(t *testing.T) {
	collectors := []prometheus.Collector{
		TransitionsTotal,
		TournamentState,
		RoundResultsTotal,
		FeedEventsTotal,
		FeedErrorsTotal,
		TimerFiresTotal,
		StepDuration,
		TerminationsTotal,
	}

	for _, c := range collectors {
		err := prometheus.DefaultRegisterer.Register(c)
		_, already := err.(prometheus.AlreadyRegisteredError)
		assert.True(t, already, "expected collector to be registered with the default registry")
	}
}
