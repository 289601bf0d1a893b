// Package report archives a summary of each finished tournament run.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/getpup/tournament-runtime"
	"github.com/getpup/tournament-runtime/lifecycle"
)

// Summary describes how a single runtime process ended.
type Summary struct {
	TournamentID int64                  `json:"tournament_id"`
	FinalState   tournament.State       `json:"final_state"`
	ExitCode     int                    `json:"exit_code"`
	Reason       string                 `json:"reason"`
	Forced       bool                   `json:"forced"`
	Error        string                 `json:"error,omitempty"`
	FinishedAt   time.Time              `json:"finished_at"`
	Transitions  []lifecycle.Transition `json:"transitions"`
}

// Reporter receives the summary once the runtime has shut down.
type Reporter interface {
	Report(ctx context.Context, s Summary) error
}

// Key returns the object key a summary is archived under.
func Key(prefix string, s Summary) string {
	return fmt.Sprintf("%s/%d/%d.json", prefix, s.TournamentID, s.FinishedAt.Unix())
}

// Marshal encodes a summary as indented JSON.
func Marshal(s Summary) ([]byte, error) {
	if s.Transitions == nil {
		s.Transitions = []lifecycle.Transition{}
	}
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal run summary: %w", err)
	}
	return b, nil
}
