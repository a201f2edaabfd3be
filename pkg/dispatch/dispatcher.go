package dispatch

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ilyas-kalandar/slonogram/pkg/bus"
	"github.com/ilyas-kalandar/slonogram/pkg/events"
)

// Dispatcher drives rule evaluation: it consumes Inbound envelopes,
// builds one Context per update and walks the set tree against it.
//
// Distinct updates are processed concurrently on their own goroutines;
// within one update, rules run strictly in registration order. Contexts
// are read-only, so no locking is involved.
type Dispatcher[D, T any] struct {
	root *Set[D, T]
	log  zerolog.Logger
	sink *bus.Bus[events.Event]
	wg   sync.WaitGroup
}

// Option configures a Dispatcher.
type Option[D, T any] func(*Dispatcher[D, T])

// WithLogger sets the dispatcher's logger.
func WithLogger[D, T any](log zerolog.Logger) Option[D, T] {
	return func(d *Dispatcher[D, T]) { d.log = log }
}

// WithEventSink makes the dispatcher publish rule and update events to the
// given bus, for the inspector or any other observer.
func WithEventSink[D, T any](sink *bus.Bus[events.Event]) Option[D, T] {
	return func(d *Dispatcher[D, T]) { d.sink = sink }
}

// New creates a dispatcher over the given root set.
func New[D, T any](root *Set[D, T], opts ...Option[D, T]) *Dispatcher[D, T] {
	d := &Dispatcher[D, T]{
		root: root,
		log:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run consumes updates from in until ctx is done or the bus is closed,
// then waits for in-flight updates to finish. Each update is dispatched on
// its own goroutine.
func (d *Dispatcher[D, T]) Run(ctx context.Context, in *bus.Bus[Inbound[D, T]]) error {
	d.emit(events.New(events.DispatcherStarted, "dispatcher", nil))
	defer func() {
		d.wg.Wait()
		d.emit(events.New(events.DispatcherStopped, "dispatcher", nil))
	}()

	for {
		ib, ok := in.Consume(ctx)
		if !ok {
			return ctx.Err()
		}
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.Dispatch(ctx, ib)
		}()
	}
}

// Dispatch evaluates all registered rules against one update,
// synchronously, and returns the outcomes in evaluation order. It is safe
// to call concurrently for distinct updates.
func (d *Dispatcher[D, T]) Dispatch(ctx context.Context, ib Inbound[D, T]) []Outcome {
	if ib.TraceID == "" {
		ib.TraceID = uuid.NewString()
	}
	c := &Context[D, T]{
		Model:       ib.Model,
		Interaction: ib.Interaction,
		Kind:        ib.Kind,
		TraceID:     ib.TraceID,
	}

	log := d.log.With().Str("trace_id", c.TraceID).Str("kind", c.Kind.String()).Logger()
	log.Debug().Msg("dispatching update")
	d.emit(events.New(events.UpdateReceived, "dispatcher", events.UpdateEventData{
		TraceID: c.TraceID,
		Kind:    c.Kind.String(),
	}))

	var outcomes []Outcome
	d.root.Evaluate(ctx, c, func(set, rule string, o Outcome) {
		outcomes = append(outcomes, o)
		switch o.Status {
		case Handled:
			log.Debug().Str("set", set).Str("rule", rule).Msg("rule handled")
			d.emit(events.New(events.RuleHandled, "dispatcher", events.RuleEventData{
				TraceID: c.TraceID, Set: set, Rule: rule,
			}))
		case Failed:
			log.Error().Err(o.Err).
				Str("set", set).Str("rule", rule).Stringer("stage", o.Stage).
				Msg("rule failed")
			typ := events.RuleFilterFailed
			if o.Stage == StageHandler {
				typ = events.RuleHandlerFailed
			}
			d.emit(events.New(typ, "dispatcher", events.RuleEventData{
				TraceID: c.TraceID, Set: set, Rule: rule,
				Stage: o.Stage.String(), Error: o.Err.Error(),
			}))
		}
	})
	return outcomes
}

func (d *Dispatcher[D, T]) emit(ev events.Event) {
	if d.sink != nil {
		d.sink.Publish(ev)
	}
}
