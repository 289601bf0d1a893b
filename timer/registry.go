// Package timer provides a registry of named, cancellable scheduled callbacks.
//
// At most one job is active per name. Scheduling under a name that is already
// in use removes the previous job first, so repeated schedules replace rather
// than accumulate. One-shot jobs leave the registry as soon as they fire.
package timer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/getpup/tournament-runtime"
	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// ErrEmptyName is returned when a job is scheduled without a name.
var ErrEmptyName = errors.New("timer name must not be empty")

// Func is a scheduled callback.
type Func func(ctx context.Context)

// PanicHandler receives panics recovered from a callback.
type PanicHandler func(name string, recovered any)

// Config configures a Registry.
type Config struct {
	// Clock drives the scheduler. Defaults to the real clock.
	Clock clockwork.Clock

	// Logger is optional.
	Logger tournament.Logger

	// PanicHandler is called when a callback panics. Optional.
	PanicHandler PanicHandler

	// OnFire is called with the job name each time a job fires. Optional.
	OnFire func(name string)
}

type entry struct {
	job     gocron.Job
	token   uuid.UUID
	oneShot bool
}

// Registry schedules named jobs on a gocron scheduler.
type Registry struct {
	scheduler gocron.Scheduler
	clock     clockwork.Clock
	logger    tournament.Logger
	onPanic   PanicHandler
	onFire    func(string)

	mu   sync.Mutex
	jobs map[string]entry
}

// New creates and starts a Registry.
func New(config Config) (*Registry, error) {
	if config.Clock == nil {
		config.Clock = clockwork.NewRealClock()
	}

	r := &Registry{
		clock:   config.Clock,
		logger:  config.Logger,
		onPanic: config.PanicHandler,
		onFire:  config.OnFire,
		jobs:    make(map[string]entry),
	}

	scheduler, err := gocron.NewScheduler(gocron.WithClock(config.Clock))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	r.scheduler = scheduler
	r.scheduler.Start()

	return r, nil
}

// ScheduleAt installs a one-shot job firing at at. Times not in the future fire immediately.
func (r *Registry) ScheduleAt(name string, at time.Time, fn Func) (uuid.UUID, error) {
	if !at.After(r.clock.Now()) {
		return r.schedule(name, true, gocron.OneTimeJob(gocron.OneTimeJobStartImmediately()), fn)
	}

	id, err := r.schedule(name, true, gocron.OneTimeJob(gocron.OneTimeJobStartDateTime(at)), fn)
	if errors.Is(err, gocron.ErrOneTimeJobStartDateTimePast) {
		// at passed while scheduling
		return r.schedule(name, true, gocron.OneTimeJob(gocron.OneTimeJobStartImmediately()), fn)
	}
	return id, err
}

// ScheduleAfter installs a one-shot job firing after d.
func (r *Registry) ScheduleAfter(name string, d time.Duration, fn Func) (uuid.UUID, error) {
	return r.ScheduleAt(name, r.clock.Now().Add(d), fn)
}

// ScheduleEvery installs a recurring job firing every interval.
func (r *Registry) ScheduleEvery(name string, interval time.Duration, fn Func) (uuid.UUID, error) {
	return r.schedule(name, false, gocron.DurationJob(interval), fn)
}

func (r *Registry) schedule(name string, oneShot bool, def gocron.JobDefinition, fn Func) (uuid.UUID, error) {
	if name == "" {
		return uuid.Nil, ErrEmptyName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.jobs[name]; ok {
		r.removeLocked(name)
		r.debug("timer replaced", "name", name)
	}

	token := uuid.New()
	job, err := r.scheduler.NewJob(
		def,
		gocron.NewTask(func() { r.fire(name, token, fn) }),
		gocron.WithName(name),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to schedule %s: %w", name, err)
	}

	r.jobs[name] = entry{job: job, token: token, oneShot: oneShot}
	r.debug("timer scheduled", "name", name, "jobID", job.ID().String())

	return job.ID(), nil
}

// fire runs fn unless the job was cancelled or replaced after it was triggered.
func (r *Registry) fire(name string, token uuid.UUID, fn Func) {
	r.mu.Lock()
	e, ok := r.jobs[name]
	if !ok || e.token != token {
		r.mu.Unlock()
		r.debug("stale timer skipped", "name", name)
		return
	}
	if e.oneShot {
		r.removeLocked(name)
	}
	r.mu.Unlock()

	if r.onFire != nil {
		r.onFire(name)
	}
	r.debug("timer fired", "name", name)

	defer func() {
		if recovered := recover(); recovered != nil {
			r.panicked(name, recovered)
		}
	}()
	fn(context.Background())
}

func (r *Registry) panicked(name string, recovered any) {
	if r.logger != nil {
		r.logger.Error(context.Background(), "timer callback panicked", "name", name, "panic", fmt.Sprint(recovered))
	}
	if r.onPanic != nil {
		r.onPanic(name, recovered)
	}
}

// removeLocked drops the job from the map and the scheduler. Caller holds r.mu.
func (r *Registry) removeLocked(name string) {
	e := r.jobs[name]
	delete(r.jobs, name)
	// the scheduler may already have dropped a finished one-shot
	if err := r.scheduler.RemoveJob(e.job.ID()); err != nil && !errors.Is(err, gocron.ErrJobNotFound) {
		r.error("failed to remove timer", "name", name, "error", err)
	}
}

// Cancel removes the named job. It reports whether a job was active.
func (r *Registry) Cancel(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.jobs[name]; !ok {
		return false
	}
	r.removeLocked(name)
	r.debug("timer cancelled", "name", name)
	return true
}

// CancelAll removes every job. It is safe to call from inside a callback.
func (r *Registry) CancelAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name := range r.jobs {
		r.removeLocked(name)
	}
}

// Has reports whether a job is active under name.
func (r *Registry) Has(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.jobs[name]
	return ok
}

// Names returns the active job names in sorted order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.jobs))
	for name := range r.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NextRun returns when the named job fires next.
func (r *Registry) NextRun(name string) (time.Time, bool) {
	r.mu.Lock()
	e, ok := r.jobs[name]
	r.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}

	next, err := e.job.NextRun()
	if err != nil {
		return time.Time{}, false
	}
	return next, true
}

// Close stops the scheduler and waits for running callbacks. It must not be
// called from inside a callback.
func (r *Registry) Close() error {
	r.CancelAll()
	if err := r.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("failed to shut down scheduler: %w", err)
	}
	return nil
}

func (r *Registry) debug(msg string, keyvals ...any) {
	if r.logger != nil {
		r.logger.Debug(context.Background(), msg, keyvals...)
	}
}

func (r *Registry) error(msg string, keyvals ...any) {
	if r.logger != nil {
		r.logger.Error(context.Background(), msg, keyvals...)
	}
}
