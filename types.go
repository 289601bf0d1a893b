package tournament

import "time"

// State represents the lifecycle state of a tournament runtime.
type State string

const (
	// StateScheduled indicates the tournament exists but no runtime has been requested yet.
	StateScheduled State = "scheduled"

	// StateLaunching indicates the scheduler has started a runtime process for the tournament.
	StateLaunching State = "launching"

	// StateWaiting indicates the runtime is initialised and waiting for the start time.
	StateWaiting State = "waiting"

	// StateRunning indicates rounds are being played.
	StateRunning State = "running"

	// StateFinalising indicates the end time passed and in-flight results are draining.
	StateFinalising State = "finalising"

	// StateEnded indicates the tournament completed normally.
	StateEnded State = "ended"

	// StateCancelled indicates the tournament was cancelled before it ended.
	StateCancelled State = "cancelled"

	// StateFailed indicates the runtime hit a fault it could not recover from.
	StateFailed State = "failed"
)

// States lists every state in forward order, side branches last.
var States = []State{
	StateScheduled,
	StateLaunching,
	StateWaiting,
	StateRunning,
	StateFinalising,
	StateEnded,
	StateCancelled,
	StateFailed,
}

var stateRank = map[State]int{
	StateScheduled:  0,
	StateLaunching:  1,
	StateWaiting:    2,
	StateRunning:    3,
	StateFinalising: 4,
	StateEnded:      5,
}

// Rank returns the position of s on the forward path. Cancelled, Failed and
// unknown states return -1.
func (s State) Rank() int {
	if r, ok := stateRank[s]; ok {
		return r
	}
	return -1
}

// IsTerminal reports whether no further transitions are allowed out of s.
func (s State) IsTerminal() bool {
	return s == StateEnded || s == StateCancelled || s == StateFailed
}

// AtMost reports whether s is on the forward path and not past limit.
// Side-branch states are never at most a forward state.
func (s State) AtMost(limit State) bool {
	r := s.Rank()
	return r >= 0 && limit.Rank() >= 0 && r <= limit.Rank()
}

// Before reports whether s is on the forward path strictly before other.
func (s State) Before(other State) bool {
	r := s.Rank()
	return r >= 0 && other.Rank() >= 0 && r < other.Rank()
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s State) CanTransitionTo(next State) bool {
	if s.IsTerminal() {
		return false
	}
	switch next {
	case StateFailed:
		return s.Rank() >= 0
	case StateCancelled:
		return s.AtMost(StateRunning)
	default:
		return s.Before(next)
	}
}

// Tournament is the runtime's view of a tournament record.
type Tournament struct {
	// ID is the numeric tournament identifier.
	ID int64

	// State is the last known lifecycle state.
	State State

	// StartTime is when the start timer fires.
	StartTime time.Time

	// EndTime is when the end timer fires. Nil means the tournament ends on a
	// completion event instead of a timer.
	EndTime *time.Time

	// MinPlayers is the number of players required to run.
	MinPlayers int

	// AllowJoinAfterStart disables the minimum player check at start time.
	AllowJoinAfterStart bool

	// PlayerCount is the number of entries at the time the record was read.
	PlayerCount int

	// LeaderboardID activates leaderboard accrual when set.
	LeaderboardID *int64

	// GameID identifies the associated game.
	GameID string

	// GameMetadataOverride is merged over the game metadata for this tournament only.
	GameMetadataOverride map[string]any
}

// InsufficientPlayers reports whether the tournament is not allowed to start
// with its current player count.
func (t Tournament) InsufficientPlayers() bool {
	return !t.AllowJoinAfterStart && t.PlayerCount < t.MinPlayers
}

// HasLeaderboard reports whether a leaderboard is attached.
func (t Tournament) HasLeaderboard() bool {
	return t.LeaderboardID != nil
}

// Game is the slot/card/bingo configuration a tournament is played on.
type Game struct {
	ID       string
	Name     string
	Type     string
	Metadata map[string]any
}

// WithMetadataOverride returns a copy of g whose metadata has the keys of
// override merged over it. g itself is not modified.
func (g Game) WithMetadataOverride(override map[string]any) Game {
	if len(override) == 0 {
		return g
	}
	merged := make(map[string]any, len(g.Metadata)+len(override))
	for k, v := range g.Metadata {
		merged[k] = v
	}
	for k, v := range override {
		merged[k] = v
	}
	g.Metadata = merged
	return g
}

// RoundResult is a single scored event for a tournament entry.
type RoundResult struct {
	// RoundID identifies the round on the producer side. Used for de-duplication.
	RoundID string `json:"round_id,omitempty"`

	UserID string `json:"user_id"`

	// Event is the producer's event label, e.g. "spin", "bingo", "hand".
	Event string `json:"event"`

	// Points is nil for events that carry no score.
	Points *int64 `json:"points,omitempty"`
}

// Termination is the outcome the runtime reports to its host once it has
// reached a terminal state or aborted.
type Termination struct {
	// Code is the process exit code the host should use.
	Code int

	// Reason is a short machine-readable cause, e.g. "ended", "insufficient_players".
	Reason string

	// Forced is true when teardown was skipped.
	Forced bool
}

// Reasons reported in Termination.Reason.
const (
	ReasonEnded               = "ended"
	ReasonCancelled           = "cancelled"
	ReasonInsufficientPlayers = "insufficient_players"
	ReasonFailed              = "failed"
	ReasonInitAborted         = "init_aborted"
	ReasonShutdown            = "shutdown"
)

// ReasonForState returns the termination reason matching a terminal state,
// or ReasonShutdown for any other state.
func ReasonForState(s State) string {
	switch s {
	case StateEnded:
		return ReasonEnded
	case StateCancelled:
		return ReasonCancelled
	case StateFailed:
		return ReasonFailed
	}
	return ReasonShutdown
}
