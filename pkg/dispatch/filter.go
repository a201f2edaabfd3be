package dispatch

import "context"

// Filter is an asynchronous predicate over a Context. A filter may suspend
// on I/O through ctx and must be side-effect-free with respect to the
// Context it reads.
//
// Filters compose with And, Or, Xor and Not. Combinators never evaluate
// their operands eagerly and never mutate them: each returns a new filter
// closing over both operands by reference.
type Filter[D, T any] func(ctx context.Context, c *Context[D, T]) (bool, error)

// Evaluate runs the predicate. It exists so call sites read as
// f.Evaluate(...) rather than a bare function call.
func (f Filter[D, T]) Evaluate(ctx context.Context, c *Context[D, T]) (bool, error) {
	return f(ctx, c)
}

// And returns a filter that is true when both f and other are true.
// other is not evaluated when f is false.
func (f Filter[D, T]) And(other Filter[D, T]) Filter[D, T] {
	return func(ctx context.Context, c *Context[D, T]) (bool, error) {
		ok, err := f(ctx, c)
		if err != nil || !ok {
			return false, err
		}
		return other(ctx, c)
	}
}

// Or returns a filter that is true when either f or other is true.
// other is not evaluated when f is true.
func (f Filter[D, T]) Or(other Filter[D, T]) Filter[D, T] {
	return func(ctx context.Context, c *Context[D, T]) (bool, error) {
		ok, err := f(ctx, c)
		if err != nil || ok {
			return ok, err
		}
		return other(ctx, c)
	}
}

// Xor returns a filter that is true when exactly one of f and other is
// true. Unlike And and Or it always evaluates both operands: neither side
// alone can determine an exclusive-or, so no short-circuit exists. Side
// effects in other still observe left-before-right ordering.
func (f Filter[D, T]) Xor(other Filter[D, T]) Filter[D, T] {
	return func(ctx context.Context, c *Context[D, T]) (bool, error) {
		lhs, err := f(ctx, c)
		if err != nil {
			return false, err
		}
		rhs, err := other(ctx, c)
		if err != nil {
			return false, err
		}
		return lhs != rhs, nil
	}
}

// Not returns a filter with the inverted outcome of f.
func (f Filter[D, T]) Not() Filter[D, T] {
	return func(ctx context.Context, c *Context[D, T]) (bool, error) {
		ok, err := f(ctx, c)
		if err != nil {
			return false, err
		}
		return !ok, nil
	}
}

// AlwaysTrue matches every context. It is the identity for And and the
// default gate of a Set.
func AlwaysTrue[D, T any]() Filter[D, T] {
	return func(context.Context, *Context[D, T]) (bool, error) {
		return true, nil
	}
}
