package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/getpup/tournament-runtime"
	"github.com/getpup/tournament-runtime/feed"
)

// consume handles feed events until the lease is released. Every event is
// acked after handling, including ones whose handling failed.
func (o *Orchestrator) consume(lease *feed.Lease, done chan<- struct{}) {
	defer close(done)

	ctx := context.Background()
	for ev := range lease.Events() {
		o.handle(ctx, ev)

		if err := lease.Ack(ctx, ev); err != nil && !errors.Is(err, feed.ErrClosed) {
			o.error(ctx, "failed to ack feed event", "eventID", ev.ID, "error", err)
		}
	}
	o.debug(ctx, "feed consumer stopped")
}

// handle dispatches one event. Errors and panics are logged and swallowed so
// one bad event never stops the consumer.
func (o *Orchestrator) handle(ctx context.Context, ev feed.Event) {
	defer func() {
		if recovered := recover(); recovered != nil {
			o.collector.IncFeedErrors()
			o.error(ctx, "feed event handler panicked", "eventID", ev.ID, "kind", ev.Kind, "panic", fmt.Sprint(recovered))
		}
	}()

	if ev.TournamentID != 0 && ev.TournamentID != o.config.TournamentID {
		o.collector.IncFeedErrors()
		o.error(ctx, "feed event for another tournament dropped", "eventID", ev.ID, "eventTournamentID", ev.TournamentID)
		return
	}

	o.collector.IncFeedEvents(string(ev.Kind))

	switch ev.Kind {
	case feed.KindRoundResults:
		err := o.RoundResults(ctx, ev.Results)
		switch {
		case err == nil:
		case errors.Is(err, ErrEngineNotReady), errors.Is(err, tournament.ErrShuttingDown):
			o.debug(ctx, "round results not applied", "eventID", ev.ID, "reason", err.Error())
		default:
			o.collector.IncFeedErrors()
			o.error(ctx, "round results failed", "eventID", ev.ID, "results", len(ev.Results), "error", err)
		}
	case feed.KindComplete:
		o.info(ctx, "complete event received", "eventID", ev.ID)
		o.async(func(ctx context.Context) {
			o.logSkipped(ctx, "finalise", o.Finalise(ctx))
		})
	case feed.KindCancellation:
		o.info(ctx, "cancellation event received", "eventID", ev.ID)
		o.async(o.Cancel)
	default:
		o.collector.IncFeedErrors()
		o.error(ctx, "unknown feed event dropped", "eventID", ev.ID, "kind", ev.Kind)
	}
}
