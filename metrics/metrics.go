package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// TransitionsTotal tracks persisted lifecycle transitions.
var TransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "tournament_runtime_transitions_total",
		Help: "Total lifecycle transitions persisted",
	},
	[]string{"tournament", "from", "to"},
)

// TournamentState tracks the cached tournament state (value 1 for current state, 0 otherwise).
var TournamentState = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "tournament_runtime_state",
		Help: "Tournament state (1 for current state, 0 otherwise)",
	},
	[]string{"tournament", "state"},
)

// RoundResultsTotal tracks the number of round results forwarded to the engine.
var RoundResultsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "tournament_runtime_round_results_total",
		Help: "Total round results forwarded to the engine",
	},
	[]string{"tournament"},
)

// FeedEventsTotal tracks feed events handled by kind.
var FeedEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "tournament_runtime_feed_events_total",
		Help: "Total feed events handled",
	},
	[]string{"tournament", "kind"},
)

// FeedErrorsTotal tracks feed events whose handling failed or that were dropped.
var FeedErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "tournament_runtime_feed_errors_total",
		Help: "Total feed events that failed handling or were dropped",
	},
	[]string{"tournament"},
)

// TimerFiresTotal tracks timer callbacks by timer name.
var TimerFiresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "tournament_runtime_timer_fires_total",
		Help: "Total timer callbacks fired",
	},
	[]string{"tournament", "name"},
)

// StepDuration tracks time spent in lifecycle calls into collaborators.
var StepDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "tournament_runtime_step_duration_seconds",
		Help:    "Time spent in lifecycle steps",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"tournament", "step"},
)

// TerminationsTotal tracks runtime terminations by exit code and reason.
var TerminationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "tournament_runtime_terminations_total",
		Help: "Total runtime terminations",
	},
	[]string{"tournament", "code", "reason"},
)
