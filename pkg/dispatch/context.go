// Package dispatch is the routing core: it decides, for every inbound
// update, which registered handlers run and with what arguments.
//
// The package is generic over two types. D is the interaction type — the
// bot or session handle a handler uses to talk back to the backend. T is
// the model type — the decoded payload of one update, typically a message.
// Channel adapters pick the instantiation; the core never looks inside
// either type.
package dispatch

// Kind tells how the update's model came to exist.
type Kind int

const (
	// KindSent is a newly sent message.
	KindSent Kind = iota
	// KindEdited is an edit to an existing message.
	KindEdited
)

func (k Kind) String() string {
	switch k {
	case KindSent:
		return "sent"
	case KindEdited:
		return "edited"
	default:
		return "unknown"
	}
}

// Context bundles one inbound update for filters and handlers. It is built
// once per update and shared by reference across every filter and handler
// evaluated for that update; nothing may mutate it after construction.
type Context[D, T any] struct {
	// Model is the decoded update payload.
	Model T
	// Interaction carries the bot/session handle.
	Interaction D
	// Kind records whether the model was sent or edited.
	Kind Kind
	// TraceID correlates log lines and events for one update.
	TraceID string
}

// Inbound is one decoded update as published by a channel adapter,
// before a Context exists for it.
type Inbound[D, T any] struct {
	Kind        Kind
	Interaction D
	Model       T
	TraceID     string
}
