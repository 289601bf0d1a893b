// Package orchestrator drives a single tournament from launch to a terminal
// state. It composes the tournament store, task identity verification, the
// round result feed, the leaderboard driver, the game engine and the timer
// registry, and reports how the run ended through a Termination value.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/getpup/tournament-runtime"
	"github.com/getpup/tournament-runtime/engine"
	"github.com/getpup/tournament-runtime/feed"
	"github.com/getpup/tournament-runtime/leaderboard"
	"github.com/getpup/tournament-runtime/lifecycle"
	"github.com/getpup/tournament-runtime/metrics"
	"github.com/getpup/tournament-runtime/report"
	"github.com/getpup/tournament-runtime/store"
	"github.com/getpup/tournament-runtime/timer"
	"github.com/jonboulle/clockwork"
)

// Timer names.
const (
	TimerStart    = "start"
	TimerEnd      = "end"
	TimerComplete = "complete"
)

// DefaultCompleteDelay is how long Finalise waits before Complete so
// in-flight round results can drain.
const DefaultCompleteDelay = 5 * time.Second

var (
	// ErrInvalidConfig is returned by New when a required dependency is missing.
	ErrInvalidConfig = errors.New("invalid orchestrator config")

	// ErrEngineNotReady is returned when round results arrive before the engine is initialised.
	ErrEngineNotReady = errors.New("engine not initialised")
)

// TaskVerifier confirms this process is the task assigned to the tournament.
// *identity.Verifier satisfies it.
type TaskVerifier interface {
	Verify(ctx context.Context, tournamentID int64) error
}

// Config holds configuration for the Orchestrator.
type Config struct {
	// TournamentID is the tournament this process drives (required).
	TournamentID int64

	// Tournaments is the tournament store (required).
	Tournaments store.TournamentStore

	// Games is the game catalogue (required).
	Games store.GameStore

	// Identity verifies task ownership during Init (required).
	Identity TaskVerifier

	// Feeds provisions the round result feed (required).
	Feeds feed.Provisioner

	// Engines builds the engine for the tournament's game type (required).
	Engines *engine.Registry

	// Leaderboard is driven when the tournament has a leaderboard (optional).
	Leaderboard leaderboard.Driver

	// Timers schedules the start, end and complete timers. If nil, the
	// orchestrator creates and owns one; Close stops it.
	Timers *timer.Registry

	// Clock is used for timer arithmetic (default: real clock).
	Clock clockwork.Clock

	// CompleteDelay is the delay between Finalise and Complete (default: 5s).
	CompleteDelay time.Duration

	// Reporter receives a run summary during shutdown (optional).
	Reporter report.Reporter

	// Logger is for observability (optional).
	Logger tournament.Logger

	// MetricsEnabled enables Prometheus metrics collection (default: true).
	// Set to false explicitly to disable metrics.
	MetricsEnabled *bool
}

// Orchestrator is the tournament runtime state machine.
type Orchestrator struct {
	config     Config
	state      *lifecycle.Manager
	timers     *timer.Registry
	ownsTimers bool
	collector  *metrics.Collector

	mu           sync.Mutex
	engine       engine.Engine
	engineReady  bool
	lease        *feed.Lease
	consumerDone chan struct{}
	cause        error
	term         tournament.Termination

	cancelling   atomic.Bool
	failing      atomic.Bool
	stopping     atomic.Bool
	shutdownOnce sync.Once
	done         chan struct{}
}

var (
	_ tournament.Runtime = (*Orchestrator)(nil)
	_ engine.Host        = (*Orchestrator)(nil)
)

// New creates a new Orchestrator with the given configuration.
// Applies default values for Clock and CompleteDelay if unset.
func New(cfg Config) (*Orchestrator, error) {
	switch {
	case cfg.Tournaments == nil:
		return nil, fmt.Errorf("%w: Tournaments is required", ErrInvalidConfig)
	case cfg.Games == nil:
		return nil, fmt.Errorf("%w: Games is required", ErrInvalidConfig)
	case cfg.Identity == nil:
		return nil, fmt.Errorf("%w: Identity is required", ErrInvalidConfig)
	case cfg.Feeds == nil:
		return nil, fmt.Errorf("%w: Feeds is required", ErrInvalidConfig)
	case cfg.Engines == nil:
		return nil, fmt.Errorf("%w: Engines is required", ErrInvalidConfig)
	}

	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.CompleteDelay == 0 {
		cfg.CompleteDelay = DefaultCompleteDelay
	}

	var collector *metrics.Collector
	metricsEnabled := true
	if cfg.MetricsEnabled != nil {
		metricsEnabled = *cfg.MetricsEnabled
	}
	if metricsEnabled {
		collector = metrics.NewCollector(cfg.TournamentID)
	}

	o := &Orchestrator{
		config:    cfg,
		collector: collector,
		done:      make(chan struct{}),
		state: lifecycle.New(lifecycle.Config{
			TournamentID: cfg.TournamentID,
			Store:        cfg.Tournaments,
			Clock:        cfg.Clock,
			Logger:       cfg.Logger,
			Collector:    collector,
		}),
	}

	o.timers = cfg.Timers
	if o.timers == nil {
		timers, err := timer.New(timer.Config{
			Clock:  cfg.Clock,
			Logger: cfg.Logger,
			PanicHandler: func(name string, recovered any) {
				o.Fail(context.Background(), fmt.Errorf("timer %s panicked: %v", name, recovered))
			},
			OnFire: collector.IncTimerFires,
		})
		if err != nil {
			return nil, err
		}
		o.timers = timers
		o.ownsTimers = true
	}

	return o, nil
}

// Init loads the tournament and its game, verifies this process owns the
// tournament, provisions the feed, initialises the engine, moves the
// tournament to Waiting and schedules the start and end timers.
//
// Errors before the state check pass are fatal: the runtime terminates with
// code 1 and nothing is scheduled. Later errors are routed to Fail. In both
// cases the returned error is non-nil and Done is closed. If shutdown starts
// while Init runs, Init releases what it acquired and returns ErrShuttingDown.
func (o *Orchestrator) Init(ctx context.Context) error {
	id := o.config.TournamentID

	var t tournament.Tournament
	err := o.step("load", func() error {
		var err error
		t, err = o.state.Load(ctx)
		return err
	})
	if err != nil {
		return o.abort(ctx, "tournament not loaded", err)
	}

	if err := o.step("verify_task", func() error { return o.config.Identity.Verify(ctx, id) }); err != nil {
		return o.abort(ctx, "task identity not verified", err)
	}

	if t.State != tournament.StateLaunching {
		err := fmt.Errorf("%w: expected %s, got %s", tournament.ErrUnexpectedState, tournament.StateLaunching, t.State)
		return o.abort(ctx, "tournament not launching", err)
	}

	var game tournament.Game
	err = o.step("load_game", func() error {
		var err error
		game, err = o.config.Games.Get(ctx, t.GameID)
		return err
	})
	if err != nil {
		return o.abort(ctx, "game not loaded", fmt.Errorf("failed to load game %s: %w", t.GameID, err))
	}
	game = game.WithMetadataOverride(t.GameMetadataOverride)

	// a cancellation may have landed while the tournament was loading
	if o.stopping.Load() {
		return o.interrupted(ctx)
	}

	var eng engine.Engine
	err = o.step("engine_new", func() error {
		var err error
		eng, err = o.config.Engines.New(t, game, o)
		return err
	})
	if err != nil {
		return o.abort(ctx, "engine not created", err)
	}

	// Init owns eng until it is initialised and published.
	var lease *feed.Lease
	err = o.step("feed_init", func() error {
		var err error
		lease, err = feed.Acquire(ctx, o.config.Feeds, id)
		return err
	})
	if err != nil {
		o.shutdownEngine(ctx, eng)
		return o.failInit(ctx, err)
	}
	if !o.adopt(func() { o.lease = lease }) {
		if err := o.step("feed_shutdown", func() error { return lease.Release(ctx) }); err != nil {
			o.error(ctx, "feed shutdown failed", "error", err)
		}
		o.shutdownEngine(ctx, eng)
		return o.interrupted(ctx)
	}

	if err := o.step("engine_init", func() error { return eng.Init(ctx) }); err != nil {
		o.shutdownEngine(ctx, eng)
		return o.failInit(ctx, fmt.Errorf("engine init failed: %w", err))
	}
	consumerDone := make(chan struct{})
	adopted := o.adopt(func() {
		o.engine = eng
		o.engineReady = true
		o.consumerDone = consumerDone
	})
	if !adopted {
		o.shutdownEngine(ctx, eng)
		return o.interrupted(ctx)
	}
	go o.consume(lease, consumerDone)

	if o.stopping.Load() {
		return o.interrupted(ctx)
	}
	if err := o.state.Transition(ctx, tournament.StateWaiting); err != nil {
		return o.failInit(ctx, err)
	}

	if _, err := o.timers.ScheduleAt(TimerStart, t.StartTime, o.onStart); err != nil {
		return o.failInit(ctx, err)
	}
	if t.EndTime != nil {
		if _, err := o.timers.ScheduleAt(TimerEnd, *t.EndTime, o.onEnd); err != nil {
			return o.failInit(ctx, err)
		}
	}

	o.info(ctx, "tournament initialised", "game", game.ID, "gameType", game.Type, "startTime", t.StartTime)
	return nil
}

// adopt records a resource acquired by Init. It returns false once shutdown
// has started; the caller then owns the release of that resource.
func (o *Orchestrator) adopt(set func()) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stopping.Load() {
		return false
	}
	set()
	return true
}

func (o *Orchestrator) interrupted(ctx context.Context) error {
	o.info(ctx, "init interrupted by shutdown")
	return fmt.Errorf("init interrupted: %w", tournament.ErrShuttingDown)
}

func (o *Orchestrator) shutdownEngine(ctx context.Context, eng engine.Engine) {
	if err := o.step("engine_shutdown", func() error { return eng.Shutdown(ctx) }); err != nil {
		o.error(ctx, "engine shutdown failed", "error", err)
	}
}

// settleTerminal shuts down when the refreshed state is already terminal,
// for example after an external cancellation.
func (o *Orchestrator) settleTerminal(ctx context.Context, state tournament.State) bool {
	if !state.IsTerminal() {
		return false
	}

	code := 0
	if state == tournament.StateFailed {
		code = 1
	}
	o.info(ctx, "tournament already terminal", "state", state)
	o.shutdown(ctx, tournament.Termination{Code: code, Reason: tournament.ReasonForState(state)})
	return true
}

// Run starts the tournament. It is fired by the start timer. If the player
// minimum is not met the tournament is cancelled instead.
func (o *Orchestrator) Run(ctx context.Context) error {
	if o.stopping.Load() {
		return tournament.ErrShuttingDown
	}

	t, err := o.state.Refresh(ctx)
	if err != nil {
		o.Fail(ctx, err)
		return err
	}

	if t.State != tournament.StateWaiting {
		if !o.settleTerminal(ctx, t.State) {
			o.info(ctx, "run skipped", "state", t.State)
		}
		return nil
	}

	if t.InsufficientPlayers() {
		o.info(ctx, "insufficient players, cancelling", "playerCount", t.PlayerCount, "minPlayers", t.MinPlayers)
		o.cancel(ctx, tournament.ReasonInsufficientPlayers)
		return nil
	}

	if err := o.state.Transition(ctx, tournament.StateRunning); err != nil {
		if errors.Is(err, tournament.ErrInvalidTransition) {
			if !o.settleTerminal(ctx, o.state.State()) {
				o.info(ctx, "run skipped", "reason", err.Error())
			}
			return nil
		}
		o.Fail(ctx, err)
		return err
	}

	eng := o.engineRef()
	if err := o.step("engine_start", func() error { return eng.Start(ctx) }); err != nil {
		err = fmt.Errorf("engine start failed: %w", err)
		o.Fail(ctx, err)
		return err
	}

	if t.HasLeaderboard() && o.config.Leaderboard != nil {
		err := o.step("leaderboard_start", func() error {
			return o.config.Leaderboard.Start(ctx, *t.LeaderboardID)
		})
		if err != nil {
			err = fmt.Errorf("leaderboard start failed: %w", err)
			o.Fail(ctx, err)
			return err
		}
	}

	o.info(ctx, "tournament running", "playerCount", t.PlayerCount)
	return nil
}

// RoundResults forwards a batch of results to the engine.
func (o *Orchestrator) RoundResults(ctx context.Context, results []tournament.RoundResult) error {
	if o.stopping.Load() {
		return tournament.ErrShuttingDown
	}

	o.mu.Lock()
	eng, ready := o.engine, o.engineReady
	o.mu.Unlock()
	if !ready {
		return ErrEngineNotReady
	}

	o.collector.AddRoundResults(len(results))
	return eng.RoundResults(ctx, results)
}

// Cancel gracefully cancels the tournament and shuts down. Concurrent and
// repeated calls after the first are ignored.
func (o *Orchestrator) Cancel(ctx context.Context) {
	o.cancel(ctx, tournament.ReasonCancelled)
}

func (o *Orchestrator) cancel(ctx context.Context, reason string) {
	if !o.cancelling.CompareAndSwap(false, true) {
		o.debug(ctx, "cancel already in progress")
		return
	}
	if o.stopping.Load() {
		o.debug(ctx, "cancel ignored, runtime shutting down")
		return
	}

	t, err := o.state.Refresh(ctx)
	if err != nil {
		o.Fail(ctx, err)
		return
	}

	if eng := o.engineRef(); eng != nil {
		if err := o.step("engine_cancel", func() error { return eng.Cancel(ctx) }); err != nil {
			o.Fail(ctx, fmt.Errorf("engine cancel failed: %w", err))
			return
		}
	}

	if t.State.AtMost(tournament.StateRunning) {
		if err := o.state.Transition(ctx, tournament.StateCancelled); err != nil && !errors.Is(err, tournament.ErrInvalidTransition) {
			o.Fail(ctx, err)
			return
		}
	} else {
		o.info(ctx, "cancel left state unchanged", "state", t.State)
		reason = tournament.ReasonForState(t.State)
	}

	o.shutdown(ctx, tournament.Termination{Code: 0, Reason: reason})
}

// Finalise moves the tournament to Finalising and schedules Complete after
// CompleteDelay. A repeated call replaces the pending complete timer.
func (o *Orchestrator) Finalise(ctx context.Context) error {
	if o.stopping.Load() {
		return tournament.ErrShuttingDown
	}

	t, err := o.state.Refresh(ctx)
	if err != nil {
		o.Fail(ctx, err)
		return err
	}

	switch t.State {
	case tournament.StateWaiting, tournament.StateRunning:
		if err := o.state.Transition(ctx, tournament.StateFinalising); err != nil {
			if errors.Is(err, tournament.ErrInvalidTransition) {
				if !o.settleTerminal(ctx, o.state.State()) {
					o.info(ctx, "finalise skipped", "reason", err.Error())
				}
				return nil
			}
			o.Fail(ctx, err)
			return err
		}
	case tournament.StateFinalising:
	default:
		if !o.settleTerminal(ctx, t.State) {
			o.info(ctx, "finalise skipped", "state", t.State)
		}
		return nil
	}

	at := o.config.Clock.Now().Add(o.config.CompleteDelay)
	if _, err := o.timers.ScheduleAt(TimerComplete, at, o.onComplete); err != nil {
		o.Fail(ctx, err)
		return err
	}

	o.info(ctx, "tournament finalising", "completeAt", at)
	return nil
}

// Complete asks the engine to finalise scoring, moves the tournament to
// Ended unless it was already moved past Finalising, and shuts down.
func (o *Orchestrator) Complete(ctx context.Context) error {
	if o.stopping.Load() {
		return tournament.ErrShuttingDown
	}

	t, err := o.state.Refresh(ctx)
	if err != nil {
		o.Fail(ctx, err)
		return err
	}

	if eng := o.engineRef(); eng != nil {
		if err := o.step("engine_complete", func() error { return eng.Complete(ctx) }); err != nil {
			err = fmt.Errorf("engine complete failed: %w", err)
			o.Fail(ctx, err)
			return err
		}
	}

	reason := tournament.ReasonEnded
	if t.State.AtMost(tournament.StateFinalising) {
		if err := o.state.Transition(ctx, tournament.StateEnded); err != nil && !errors.Is(err, tournament.ErrInvalidTransition) {
			o.Fail(ctx, err)
			return err
		}
	} else {
		o.info(ctx, "complete left state unchanged", "state", t.State)
		reason = tournament.ReasonForState(t.State)
	}

	o.shutdown(ctx, tournament.Termination{Code: 0, Reason: reason})
	return nil
}

// Fail marks the tournament failed and shuts down with code 1. If the failed
// state cannot be persisted, timers are cancelled and a forced termination is
// emitted without the teardown sequence.
func (o *Orchestrator) Fail(ctx context.Context, cause error) {
	if !o.failing.CompareAndSwap(false, true) {
		o.debug(ctx, "fail already in progress", "error", cause)
		return
	}
	if o.terminated() {
		o.error(ctx, "fault after termination", "error", cause)
		return
	}

	o.error(ctx, "tournament runtime failed", "error", cause)
	o.mu.Lock()
	o.cause = cause
	o.mu.Unlock()

	err := o.state.Transition(ctx, tournament.StateFailed)
	switch {
	case err == nil:
	case errors.Is(err, tournament.ErrInvalidTransition):
		o.info(ctx, "failed state not applied", "state", o.state.State())
	default:
		o.error(ctx, "failed to persist failed state, forcing termination", "error", err)
		o.forceTerminate(ctx)
		return
	}

	o.shutdown(ctx, tournament.Termination{Code: 1, Reason: tournament.ReasonFailed})
}

// Shutdown runs the teardown sequence and terminates with code. It is safe
// to call repeatedly; only the first call has an effect.
func (o *Orchestrator) Shutdown(ctx context.Context, code int) {
	o.shutdown(ctx, tournament.Termination{Code: code, Reason: tournament.ReasonForState(o.state.State())})
}

func (o *Orchestrator) shutdown(ctx context.Context, term tournament.Termination) {
	o.shutdownOnce.Do(func() {
		o.stopping.Store(true)
		o.info(ctx, "shutting down", "code", term.Code, "reason", term.Reason)

		o.timers.CancelAll()

		o.mu.Lock()
		lease, consumerDone, eng := o.lease, o.consumerDone, o.engine
		o.mu.Unlock()

		if err := o.step("feed_shutdown", func() error { return lease.Release(ctx) }); err != nil {
			o.error(ctx, "feed shutdown failed", "error", err)
		}
		if consumerDone != nil {
			select {
			case <-consumerDone:
			case <-ctx.Done():
				o.error(ctx, "feed consumer did not stop", "error", ctx.Err())
			}
		}

		if t := o.state.Current(); t.HasLeaderboard() && o.config.Leaderboard != nil {
			if err := o.step("leaderboard_shutdown", func() error { return o.config.Leaderboard.Shutdown(ctx) }); err != nil {
				o.error(ctx, "leaderboard shutdown failed", "error", err)
			}
		}

		if eng != nil {
			if err := o.step("engine_shutdown", func() error { return eng.Shutdown(ctx) }); err != nil {
				o.error(ctx, "engine shutdown failed", "error", err)
			}
		}

		o.report(ctx, term)
		o.terminate(ctx, term)
	})
}

func (o *Orchestrator) forceTerminate(ctx context.Context) {
	o.shutdownOnce.Do(func() {
		o.stopping.Store(true)
		o.timers.CancelAll()
		o.terminate(ctx, tournament.Termination{Code: 1, Reason: tournament.ReasonFailed, Forced: true})
	})
}

func (o *Orchestrator) terminate(ctx context.Context, term tournament.Termination) {
	o.collector.IncTerminations(term)
	o.mu.Lock()
	o.term = term
	o.mu.Unlock()
	close(o.done)
	o.info(ctx, "tournament runtime terminated", "code", term.Code, "reason", term.Reason, "forced", term.Forced)
}

func (o *Orchestrator) report(ctx context.Context, term tournament.Termination) {
	if o.config.Reporter == nil {
		return
	}

	summary := report.Summary{
		TournamentID: o.config.TournamentID,
		FinalState:   o.state.State(),
		ExitCode:     term.Code,
		Reason:       term.Reason,
		Forced:       term.Forced,
		FinishedAt:   o.config.Clock.Now(),
		Transitions:  o.state.History(),
	}
	o.mu.Lock()
	if o.cause != nil {
		summary.Error = o.cause.Error()
	}
	o.mu.Unlock()

	if err := o.step("report", func() error { return o.config.Reporter.Report(ctx, summary) }); err != nil {
		o.error(ctx, "run report failed", "error", err)
	}
}

// abort handles a fatal init error: nothing has been scheduled or mutated.
func (o *Orchestrator) abort(ctx context.Context, msg string, err error) error {
	o.error(ctx, msg, "error", err)
	o.mu.Lock()
	o.cause = err
	o.mu.Unlock()
	o.shutdown(ctx, tournament.Termination{Code: 1, Reason: tournament.ReasonInitAborted})
	return err
}

// failInit routes a fault after state validation to Fail. Once shutdown has
// started there is nothing left to mark.
func (o *Orchestrator) failInit(ctx context.Context, err error) error {
	if o.stopping.Load() {
		o.error(ctx, "init failed during shutdown", "error", err)
		return err
	}
	o.Fail(ctx, err)
	return err
}

// Done is closed once the runtime has terminated.
func (o *Orchestrator) Done() <-chan struct{} {
	return o.done
}

// Termination returns the outcome. It is the zero value until Done is closed.
func (o *Orchestrator) Termination() tournament.Termination {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.term
}

// State returns the cached tournament state.
func (o *Orchestrator) State() tournament.State {
	return o.state.State()
}

// History returns the transitions applied by this runtime.
func (o *Orchestrator) History() []lifecycle.Transition {
	return o.state.History()
}

// Status returns a snapshot for the status endpoint.
func (o *Orchestrator) Status() metrics.Status {
	s := metrics.Status{
		TournamentID: o.config.TournamentID,
		State:        string(o.state.State()),
		Timers:       o.timers.Names(),
	}
	if o.terminated() {
		term := o.Termination()
		s.Terminated = true
		s.ExitCode = &term.Code
		s.Reason = term.Reason
	}
	return s
}

// Close stops the timer registry if the orchestrator created it. It must
// not be called from a timer callback.
func (o *Orchestrator) Close() error {
	if !o.ownsTimers {
		return nil
	}
	return o.timers.Close()
}

// TournamentID implements engine.Host.
func (o *Orchestrator) TournamentID() int64 {
	return o.config.TournamentID
}

// AccruePoints implements engine.Host. Points are dropped when the
// tournament has no leaderboard.
func (o *Orchestrator) AccruePoints(ctx context.Context, userID string, points int64) error {
	if o.config.Leaderboard == nil || !o.state.Current().HasLeaderboard() {
		return nil
	}
	return o.config.Leaderboard.Accrue(ctx, userID, points)
}

// ReportComplete implements engine.Host. Finalise runs on its own goroutine
// so the engine is never re-entered from its own call.
func (o *Orchestrator) ReportComplete(ctx context.Context) {
	o.debug(ctx, "engine reported completion")
	o.async(func(ctx context.Context) {
		o.logSkipped(ctx, "finalise", o.Finalise(ctx))
	})
}

func (o *Orchestrator) onStart(ctx context.Context) {
	o.logSkipped(ctx, "run", o.Run(ctx))
}

func (o *Orchestrator) onEnd(ctx context.Context) {
	o.logSkipped(ctx, "finalise", o.Finalise(ctx))
}

func (o *Orchestrator) onComplete(ctx context.Context) {
	o.logSkipped(ctx, "complete", o.Complete(ctx))
}

// logSkipped logs calls refused because shutdown started. Other errors have
// already been routed to Fail.
func (o *Orchestrator) logSkipped(ctx context.Context, op string, err error) {
	if errors.Is(err, tournament.ErrShuttingDown) {
		o.debug(ctx, op+" skipped, runtime shutting down")
	}
}

// async runs fn on its own goroutine, routing panics to Fail.
func (o *Orchestrator) async(fn func(ctx context.Context)) {
	go func() {
		ctx := context.Background()
		defer func() {
			if recovered := recover(); recovered != nil {
				o.Fail(ctx, fmt.Errorf("panic: %v", recovered))
			}
		}()
		fn(ctx)
	}()
}

func (o *Orchestrator) engineRef() engine.Engine {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.engine
}

func (o *Orchestrator) terminated() bool {
	select {
	case <-o.done:
		return true
	default:
		return false
	}
}

// step times a call into a collaborator. A panic in fn is returned as an error.
func (o *Orchestrator) step(name string, fn func() error) (err error) {
	start := o.config.Clock.Now()
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("%s panicked: %v", name, recovered)
		}
		o.collector.ObserveStep(name, o.config.Clock.Since(start))
	}()
	return fn()
}

func (o *Orchestrator) debug(ctx context.Context, msg string, keyvals ...any) {
	if o.config.Logger != nil {
		o.config.Logger.Debug(ctx, msg, append([]any{"tournamentID", o.config.TournamentID}, keyvals...)...)
	}
}

func (o *Orchestrator) info(ctx context.Context, msg string, keyvals ...any) {
	if o.config.Logger != nil {
		o.config.Logger.Info(ctx, msg, append([]any{"tournamentID", o.config.TournamentID}, keyvals...)...)
	}
}

func (o *Orchestrator) error(ctx context.Context, msg string, keyvals ...any) {
	if o.config.Logger != nil {
		o.config.Logger.Error(ctx, msg, append([]any{"tournamentID", o.config.TournamentID}, keyvals...)...)
	}
}
