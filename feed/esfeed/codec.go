package esfeed

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/getpup/pupsourcing/es"
	"github.com/getpup/tournament-runtime"
	"github.com/getpup/tournament-runtime/feed"
	"github.com/google/uuid"
)

const (
	// BoundedContext scopes feed events in a shared event store.
	BoundedContext = "TournamentRuntime"

	// AggregateType is the aggregate type of every feed event.
	AggregateType = "TournamentFeed"
)

var errMalformed = errors.New("malformed feed event")

type payload struct {
	TournamentID int64                    `json:"tournament_id"`
	Results      []tournament.RoundResult `json:"results,omitempty"`
}

// AggregatePrefix is the aggregate id prefix of events for a tournament.
func AggregatePrefix(tournamentID int64) string {
	return "tournament-" + strconv.FormatInt(tournamentID, 10) + "/"
}

func belongsTo(ev es.PersistedEvent, tournamentID int64) bool {
	return strings.HasPrefix(ev.AggregateID, AggregatePrefix(tournamentID))
}

// encode builds the event appended for ev. Each event is its own aggregate,
// so appends never contend on an aggregate version.
func encode(ev feed.Event, now time.Time) (es.Event, error) {
	raw, err := json.Marshal(payload{TournamentID: ev.TournamentID, Results: ev.Results})
	if err != nil {
		return es.Event{}, fmt.Errorf("failed to encode payload: %w", err)
	}

	return es.Event{
		EventID:        uuid.New(),
		AggregateID:    AggregatePrefix(ev.TournamentID) + uuid.NewString(),
		AggregateType:  AggregateType,
		EventType:      string(ev.Kind),
		EventVersion:   1,
		BoundedContext: BoundedContext,
		Payload:        raw,
		Metadata:       []byte(`{}`),
		CreatedAt:      now,
	}, nil
}

func decode(pe es.PersistedEvent) (feed.Event, error) {
	ev := feed.Event{
		ID:   pe.EventID.String(),
		Kind: feed.Kind(pe.EventType),
	}
	if !ev.Kind.Valid() {
		return ev, fmt.Errorf("%w: unknown kind %q", errMalformed, pe.EventType)
	}

	var p payload
	if err := json.Unmarshal(pe.Payload, &p); err != nil {
		return ev, fmt.Errorf("%w: %v", errMalformed, err)
	}
	ev.TournamentID = p.TournamentID
	ev.Results = p.Results

	if ev.Kind == feed.KindRoundResults && len(ev.Results) == 0 {
		return ev, fmt.Errorf("%w: round results without results", errMalformed)
	}
	return ev, nil
}
