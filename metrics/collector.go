package metrics

import (
	"strconv"
	"time"

	"github.com/getpup/tournament-runtime"
)

// Collector wraps metrics and provides helper methods with pre-filled labels.
// A nil *Collector is valid and records nothing.
type Collector struct {
	tournament string
}

// NewCollector creates a new Collector for the given tournament.
func NewCollector(tournamentID int64) *Collector {
	return &Collector{tournament: strconv.FormatInt(tournamentID, 10)}
}

// IncTransitions increments the transitions counter.
func (c *Collector) IncTransitions(from, to tournament.State) {
	if c == nil {
		return
	}
	TransitionsTotal.WithLabelValues(c.tournament, string(from), string(to)).Inc()
}

// SetState sets the state gauge. Sets value to 1 for the given state, 0 for others.
func (c *Collector) SetState(state tournament.State) {
	if c == nil {
		return
	}
	for _, s := range tournament.States {
		if s == state {
			TournamentState.WithLabelValues(c.tournament, string(s)).Set(1)
		} else {
			TournamentState.WithLabelValues(c.tournament, string(s)).Set(0)
		}
	}
}

// AddRoundResults adds n to the round results counter.
func (c *Collector) AddRoundResults(n int) {
	if c == nil {
		return
	}
	RoundResultsTotal.WithLabelValues(c.tournament).Add(float64(n))
}

// IncFeedEvents increments the feed events counter for a kind.
func (c *Collector) IncFeedEvents(kind string) {
	if c == nil {
		return
	}
	FeedEventsTotal.WithLabelValues(c.tournament, kind).Inc()
}

// IncFeedErrors increments the feed errors counter.
func (c *Collector) IncFeedErrors() {
	if c == nil {
		return
	}
	FeedErrorsTotal.WithLabelValues(c.tournament).Inc()
}

// IncTimerFires increments the timer fires counter for a timer name.
func (c *Collector) IncTimerFires(name string) {
	if c == nil {
		return
	}
	TimerFiresTotal.WithLabelValues(c.tournament, name).Inc()
}

// ObserveStep records the duration of a lifecycle step.
func (c *Collector) ObserveStep(step string, d time.Duration) {
	if c == nil {
		return
	}
	StepDuration.WithLabelValues(c.tournament, step).Observe(d.Seconds())
}

// IncTerminations increments the terminations counter.
func (c *Collector) IncTerminations(term tournament.Termination) {
	if c == nil {
		return
	}
	TerminationsTotal.WithLabelValues(c.tournament, strconv.Itoa(term.Code), term.Reason).Inc()
}
