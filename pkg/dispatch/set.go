package dispatch

import "context"

// Set is an ordered, hierarchical registry of rules. A set may carry a
// gate filter: when the gate rejects a context the set's own rules and
// all included child sets are skipped for that context.
//
// Registration is a start-up activity and is not synchronized; once the
// tree is built it is read-only and safe for concurrent evaluation.
type Set[D, T any] struct {
	name     string
	gate     Filter[D, T]
	rules    map[Kind][]Rule[D, T]
	children []*Set[D, T]
}

// SetOption configures a Set at construction.
type SetOption[D, T any] func(*Set[D, T])

// WithGate sets the set's gate filter.
func WithGate[D, T any](gate Filter[D, T]) SetOption[D, T] {
	return func(s *Set[D, T]) { s.gate = gate }
}

// NewSet creates an empty set. The name appears in logs and events.
func NewSet[D, T any](name string, opts ...SetOption[D, T]) *Set[D, T] {
	s := &Set[D, T]{
		name:  name,
		rules: make(map[Kind][]Rule[D, T]),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the set's label.
func (s *Set[D, T]) Name() string { return s.name }

// Include adds a child set. Children are evaluated after the set's own
// rules, in inclusion order.
func (s *Set[D, T]) Include(child *Set[D, T]) {
	s.children = append(s.children, child)
}

// Handle registers an already-canonical handler under the given kind.
func (s *Set[D, T]) Handle(kind Kind, name string, filter Filter[D, T], h Handler[D, T]) {
	s.rules[kind] = append(s.rules[kind], NewRule(name, filter, h))
}

// On registers a callback of any accepted shape under the given kind,
// adapting it once. The callback is rejected, and not registered, when its
// shape cannot be resolved.
func (s *Set[D, T]) On(kind Kind, name string, filter Filter[D, T], callback any) error {
	h, err := Adapt[D, T](callback)
	if err != nil {
		return err
	}
	s.Handle(kind, name, filter, h)
	return nil
}

// OnSent registers a callback for newly sent messages.
func (s *Set[D, T]) OnSent(name string, filter Filter[D, T], callback any) error {
	return s.On(KindSent, name, filter, callback)
}

// OnEdited registers a callback for edited messages.
func (s *Set[D, T]) OnEdited(name string, filter Filter[D, T], callback any) error {
	return s.On(KindEdited, name, filter, callback)
}

// RuleReport receives the outcome of one rule evaluation during
// Set.Evaluate. A gate failure is reported with the set's name and an
// empty rule name.
type RuleReport func(set, rule string, o Outcome)

// Evaluate runs the set against one context: gate, then own rules for the
// context's kind in registration order, then child sets in inclusion
// order. Every evaluated rule is reported exactly once. A failing rule
// never stops the remaining rules; a failing or rejecting gate skips the
// whole subtree.
func (s *Set[D, T]) Evaluate(ctx context.Context, c *Context[D, T], report RuleReport) {
	if s.gate != nil {
		ok, err := s.gate.Evaluate(ctx, c)
		if err != nil {
			report(s.name, "", Outcome{Status: Failed, Stage: StageFilter, Err: err})
			return
		}
		if !ok {
			return
		}
	}
	for _, rule := range s.rules[c.Kind] {
		report(s.name, rule.Name, TryRun(ctx, rule, c))
	}
	for _, child := range s.children {
		child.Evaluate(ctx, c, report)
	}
}
