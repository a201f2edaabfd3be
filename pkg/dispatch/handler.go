package dispatch

import (
	"context"
	"fmt"
)

// Handler is the canonical callback form every registered handler is
// normalized to. Whatever shape the user wrote, dispatch invokes exactly
// this contract.
type Handler[D, T any] func(ctx context.Context, c *Context[D, T]) error

// RegistrationError reports a callback that could not be adapted to the
// canonical Handler form. It is raised at registration time only; a
// rejected callback never enters the active rule set.
type RegistrationError struct {
	// Callback is the concrete type of the offending callback.
	Callback string
	// Reason says why the shape was rejected.
	Reason string
	// Accepted lists the shapes Adapt understands, for the error text.
	Accepted []string
}

func (e *RegistrationError) Error() string {
	msg := fmt.Sprintf("dispatch: cannot adapt callback %s: %s", e.Callback, e.Reason)
	if len(e.Accepted) > 0 {
		msg += "; accepted shapes:"
		for _, s := range e.Accepted {
			msg += "\n\t" + s
		}
	}
	return msg
}

func acceptedShapes[D, T any]() []string {
	var (
		d D
		t T
	)
	return []string{
		fmt.Sprintf("func(context.Context, %T) error", t),
		fmt.Sprintf("func(context.Context, %T) error", d),
		fmt.Sprintf("func(context.Context, *dispatch.Context[%T, %T]) error", d, t),
		fmt.Sprintf("func(context.Context, %T, %T) error", d, t),
		fmt.Sprintf("func(context.Context, %T, %T) error", t, d),
	}
}

// sameDT reports whether D and T are the same type. When they are, the
// model-only, interaction-only and two-argument shapes cannot be told
// apart, so Adapt must refuse them instead of guessing a role.
func sameDT[D, T any]() bool {
	_, same := any((*D)(nil)).(*T)
	return same
}

// Adapt converts a callback of one of the accepted shapes into the
// canonical Handler. Shape resolution happens here, exactly once per
// registration; the returned closure does no further inspection, so
// runtime dispatch pays only one indirect call.
//
// Accepted shapes, with ctx always first:
//
//	func(ctx, model) error
//	func(ctx, interaction) error
//	func(ctx, *Context[D, T]) error
//	func(ctx, interaction, model) error
//	func(ctx, model, interaction) error
//
// Any other shape yields a *RegistrationError. So does any shape whose
// argument roles are ambiguous because the interaction and model types
// coincide.
func Adapt[D, T any](callback any) (Handler[D, T], error) {
	reject := func(reason string) (Handler[D, T], error) {
		return nil, &RegistrationError{
			Callback: fmt.Sprintf("%T", callback),
			Reason:   reason,
			Accepted: acceptedShapes[D, T](),
		}
	}

	switch fn := callback.(type) {
	case Handler[D, T]:
		return fn, nil

	case func(context.Context, *Context[D, T]) error:
		return fn, nil

	case func(context.Context, T) error:
		if sameDT[D, T]() {
			return reject("interaction and model types coincide, cannot tell which role the argument plays")
		}
		return func(ctx context.Context, c *Context[D, T]) error {
			return fn(ctx, c.Model)
		}, nil

	case func(context.Context, D) error:
		return func(ctx context.Context, c *Context[D, T]) error {
			return fn(ctx, c.Interaction)
		}, nil

	case func(context.Context, D, T) error:
		if sameDT[D, T]() {
			return reject("interaction and model types coincide, cannot tell which argument plays which role")
		}
		return func(ctx context.Context, c *Context[D, T]) error {
			return fn(ctx, c.Interaction, c.Model)
		}, nil

	case func(context.Context, T, D) error:
		return func(ctx context.Context, c *Context[D, T]) error {
			return fn(ctx, c.Model, c.Interaction)
		}, nil

	default:
		return reject("unsupported shape")
	}
}

// The constructors below are the statically-checked registration path:
// each states its shape in the signature, so a mismatch is a compile
// error rather than a RegistrationError.

// OnModel adapts a callback that wants only the update's model.
func OnModel[D, T any](fn func(ctx context.Context, model T) error) Handler[D, T] {
	return func(ctx context.Context, c *Context[D, T]) error {
		return fn(ctx, c.Model)
	}
}

// OnInteraction adapts a callback that wants only the interaction handle.
func OnInteraction[D, T any](fn func(ctx context.Context, inter D) error) Handler[D, T] {
	return func(ctx context.Context, c *Context[D, T]) error {
		return fn(ctx, c.Interaction)
	}
}

// OnContext adapts the identity shape.
func OnContext[D, T any](fn func(ctx context.Context, c *Context[D, T]) error) Handler[D, T] {
	return fn
}

// OnInteractionModel adapts a callback taking (interaction, model).
func OnInteractionModel[D, T any](fn func(ctx context.Context, inter D, model T) error) Handler[D, T] {
	return func(ctx context.Context, c *Context[D, T]) error {
		return fn(ctx, c.Interaction, c.Model)
	}
}

// OnModelInteraction adapts a callback taking (model, interaction).
func OnModelInteraction[D, T any](fn func(ctx context.Context, model T, inter D) error) Handler[D, T] {
	return func(ctx context.Context, c *Context[D, T]) error {
		return fn(ctx, c.Model, c.Interaction)
	}
}
