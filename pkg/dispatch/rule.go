package dispatch

import "context"

// Rule is one registered (filter, handler) pair. Both halves are immutable
// after registration and owned by the rule.
type Rule[D, T any] struct {
	// Name labels the rule in logs and events. Optional.
	Name string

	filter  Filter[D, T]
	handler Handler[D, T]
}

// NewRule pairs an already-canonical handler with a filter. A nil filter
// means the rule matches every context.
func NewRule[D, T any](name string, filter Filter[D, T], handler Handler[D, T]) Rule[D, T] {
	if filter == nil {
		filter = AlwaysTrue[D, T]()
	}
	return Rule[D, T]{Name: name, filter: filter, handler: handler}
}

// Status classifies one TryRun attempt.
type Status int

const (
	// Skipped means the filter did not match; the handler never ran.
	Skipped Status = iota
	// Handled means the filter matched and the handler completed.
	Handled
	// Failed means the filter or the handler returned an error.
	Failed
)

func (s Status) String() string {
	switch s {
	case Skipped:
		return "skipped"
	case Handled:
		return "handled"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Stage says where a Failed outcome originated.
type Stage int

const (
	// StageFilter marks a predicate failure during filter evaluation.
	StageFilter Stage = iota
	// StageHandler marks a failure inside the handler body.
	StageHandler
)

func (s Stage) String() string {
	if s == StageFilter {
		return "filter"
	}
	return "handler"
}

// Outcome is the structured result of evaluating one rule against one
// context. Err is non-nil exactly when Status is Failed, and Stage then
// tells whether the filter or the handler produced it. The error itself is
// passed through unchanged; the core never translates or retries.
type Outcome struct {
	Status Status
	Stage  Stage
	Err    error
}

// TryRun evaluates one rule against one context: the filter first, the
// handler only on a match. A failure in either stage aborts this rule for
// this context and nothing else.
func TryRun[D, T any](ctx context.Context, rule Rule[D, T], c *Context[D, T]) Outcome {
	ok, err := rule.filter.Evaluate(ctx, c)
	if err != nil {
		return Outcome{Status: Failed, Stage: StageFilter, Err: err}
	}
	if !ok {
		return Outcome{Status: Skipped}
	}
	if err := rule.handler(ctx, c); err != nil {
		return Outcome{Status: Failed, Stage: StageHandler, Err: err}
	}
	return Outcome{Status: Handled}
}
