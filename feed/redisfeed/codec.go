package redisfeed

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/getpup/tournament-runtime"
	"github.com/getpup/tournament-runtime/feed"
	"github.com/redis/go-redis/v9"
)

// Stream entry fields.
const (
	fieldKind         = "kind"
	fieldTournamentID = "tournament_id"
	fieldResults      = "results"
)

var errMalformed = errors.New("malformed feed message")

// StreamKey returns the stream that carries events for a tournament.
func StreamKey(tournamentID int64) string {
	return fmt.Sprintf("tournament:%d:round-results", tournamentID)
}

func encode(ev feed.Event) (map[string]any, error) {
	values := map[string]any{
		fieldKind:         string(ev.Kind),
		fieldTournamentID: strconv.FormatInt(ev.TournamentID, 10),
	}
	if len(ev.Results) > 0 {
		raw, err := json.Marshal(ev.Results)
		if err != nil {
			return nil, fmt.Errorf("failed to encode results: %w", err)
		}
		values[fieldResults] = string(raw)
	}
	return values, nil
}

func decode(msg redis.XMessage) (feed.Event, error) {
	ev := feed.Event{ID: msg.ID}

	kind, _ := msg.Values[fieldKind].(string)
	ev.Kind = feed.Kind(kind)
	if !ev.Kind.Valid() {
		return ev, fmt.Errorf("%w: unknown kind %q", errMalformed, kind)
	}

	if raw, ok := msg.Values[fieldTournamentID].(string); ok && raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return ev, fmt.Errorf("%w: tournament id %q", errMalformed, raw)
		}
		ev.TournamentID = id
	}

	if raw, ok := msg.Values[fieldResults].(string); ok && raw != "" {
		var results []tournament.RoundResult
		if err := json.Unmarshal([]byte(raw), &results); err != nil {
			return ev, fmt.Errorf("%w: %v", errMalformed, err)
		}
		ev.Results = results
	}

	if ev.Kind == feed.KindRoundResults && len(ev.Results) == 0 {
		return ev, fmt.Errorf("%w: round results without results", errMalformed)
	}

	return ev, nil
}
