package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewFillsEnvelope(t *testing.T) {
	before := time.Now()
	ev := New(RuleHandled, "dispatcher", RuleEventData{TraceID: "t-1"})

	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, RuleHandled, ev.Type)
	assert.Equal(t, "dispatcher", ev.Source)
	assert.False(t, ev.Timestamp.Before(before))
	assert.Equal(t, RuleEventData{TraceID: "t-1"}, ev.Data)

	// IDs are unique per event.
	assert.NotEqual(t, ev.ID, New(RuleHandled, "dispatcher", nil).ID)
}
