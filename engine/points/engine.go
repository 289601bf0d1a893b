// Package points is a reference engine that sums round points per player.
//
// Results are de-duplicated per round and player, so redelivered feed batches
// are applied once. A result whose accrual failed is retried when it is
// redelivered. When the game metadata sets target_points, the first player
// to reach it triggers completion through the host.
package points

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/getpup/tournament-runtime"
	"github.com/getpup/tournament-runtime/engine"
)

// GameType is the registry key for this engine.
const GameType = "points"

// MetadataTargetPoints is the game metadata key holding the winning score.
const MetadataTargetPoints = "target_points"

// ErrNotInitialised is returned for results delivered before Init.
var ErrNotInitialised = errors.New("points engine not initialised")

type phase int

const (
	phaseNew phase = iota
	phaseInitialised
	phaseStarted
	phaseStopped
)

// Engine accumulates points.
type Engine struct {
	host   engine.Host
	target int64

	mu       sync.Mutex
	phase    phase
	counted  map[string]struct{} // keys already added to totals
	accrued  map[string]struct{} // keys the host accepted
	totals   map[string]int64
	reported bool
}

// New is an engine.Factory.
func New(t tournament.Tournament, g tournament.Game, host engine.Host) (engine.Engine, error) {
	target, err := targetPoints(g.Metadata)
	if err != nil {
		return nil, err
	}
	return &Engine{host: host, target: target}, nil
}

func targetPoints(metadata map[string]any) (int64, error) {
	raw, ok := metadata[MetadataTargetPoints]
	if !ok || raw == nil {
		return 0, nil
	}

	switch v := raw.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s %q: %w", MetadataTargetPoints, v, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("invalid %s type %T", MetadataTargetPoints, raw)
	}
}

// Init resets scoring state.
func (e *Engine) Init(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.counted = make(map[string]struct{})
	e.accrued = make(map[string]struct{})
	e.totals = make(map[string]int64)
	e.phase = phaseInitialised
	return nil
}

// Start marks the engine as running.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase == phaseNew {
		return ErrNotInitialised
	}
	e.phase = phaseStarted
	return nil
}

// Cancel stops accepting results.
func (e *Engine) Cancel(ctx context.Context) error {
	e.stop()
	return nil
}

// Complete stops accepting results. Totals remain readable.
func (e *Engine) Complete(ctx context.Context) error {
	e.stop()
	return nil
}

// Shutdown stops accepting results. It is idempotent.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.stop()
	return nil
}

func (e *Engine) stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase != phaseNew {
		e.phase = phaseStopped
	}
}

// RoundResults applies each result once and accrues its points through the host.
// Results arriving after the engine stopped are ignored.
func (e *Engine) RoundResults(ctx context.Context, results []tournament.RoundResult) error {
	type credit struct {
		key    string
		user   string
		points int64
	}

	e.mu.Lock()
	switch e.phase {
	case phaseNew:
		e.mu.Unlock()
		return ErrNotInitialised
	case phaseStopped:
		e.mu.Unlock()
		return nil
	}

	var credits []credit
	batch := make(map[string]struct{}, len(results))
	reachedTarget := false
	for _, r := range results {
		if r.Points == nil || r.UserID == "" {
			continue
		}

		key := resultKey(r)
		if key != "" {
			if _, done := e.accrued[key]; done {
				continue
			}
			if _, dup := batch[key]; dup {
				continue
			}
			batch[key] = struct{}{}
		}
		credits = append(credits, credit{key: key, user: r.UserID, points: *r.Points})

		if key != "" {
			if _, retry := e.counted[key]; retry {
				continue
			}
			e.counted[key] = struct{}{}
		}
		e.totals[r.UserID] += *r.Points

		if e.target > 0 && !e.reported && e.totals[r.UserID] >= e.target {
			e.reported = true
			reachedTarget = true
		}
	}
	e.mu.Unlock()

	var errs []error
	for _, c := range credits {
		if err := e.host.AccruePoints(ctx, c.user, c.points); err != nil {
			errs = append(errs, fmt.Errorf("failed to accrue %d points for %s: %w", c.points, c.user, err))
			continue
		}
		if c.key != "" {
			e.mu.Lock()
			e.accrued[c.key] = struct{}{}
			e.mu.Unlock()
		}
	}

	if reachedTarget {
		e.host.ReportComplete(ctx)
	}

	return errors.Join(errs...)
}

// resultKey identifies a result for de-duplication. Results without a round
// id are never de-duplicated.
func resultKey(r tournament.RoundResult) string {
	if r.RoundID == "" {
		return ""
	}
	return r.RoundID + "/" + r.UserID
}

// Totals returns a snapshot of points per user.
func (e *Engine) Totals() map[string]int64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make(map[string]int64, len(e.totals))
	for k, v := range e.totals {
		out[k] = v
	}
	return out
}

var _ engine.Factory = New
