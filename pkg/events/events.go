// Package events defines the typed event contracts for the dispatch
// pipeline. Every event flowing to the event bus or the inspector MUST use
// one of these types. No ad-hoc map[string]interface{} events.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Event is the universal envelope for all dispatch events.
type Event struct {
	// ID uniquely identifies the event.
	ID string `json:"id"`

	// Type identifies the event (e.g., "rule.handled", "update.dropped")
	Type string `json:"type"`

	// Source identifies who emitted the event
	Source string `json:"source"`

	// Timestamp is when the event was emitted
	Timestamp time.Time `json:"timestamp"`

	// Data is the typed payload
	Data interface{} `json:"data"`
}

// New creates a timestamped event.
func New(eventType, source string, data interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    source,
		Timestamp: time.Now(),
		Data:      data,
	}
}

const (
	// Update flow events
	UpdateReceived = "update.received"
	UpdateDropped  = "update.dropped"

	// Rule evaluation events
	RuleHandled       = "rule.handled"
	RuleFilterFailed  = "rule.filter_failed"
	RuleHandlerFailed = "rule.handler_failed"

	// Dispatcher lifecycle events
	DispatcherStarted = "dispatcher.started"
	DispatcherStopped = "dispatcher.stopped"

	// Channel source lifecycle events
	SourceStarted = "source.started"
	SourceStopped = "source.stopped"
	SourceError   = "source.error"
)

// UpdateEventData is the payload for update flow events.
type UpdateEventData struct {
	TraceID string `json:"trace_id"`
	Kind    string `json:"kind"`
	Reason  string `json:"reason,omitempty"` // for drops
}

// RuleEventData is the payload for rule evaluation events.
type RuleEventData struct {
	TraceID string `json:"trace_id"`
	Set     string `json:"set"`
	Rule    string `json:"rule,omitempty"`
	Stage   string `json:"stage,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SourceEventData is the payload for channel source lifecycle events.
type SourceEventData struct {
	Channel string `json:"channel"`
	Error   string `json:"error,omitempty"`
}
