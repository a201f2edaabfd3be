package dispatch_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilyas-kalandar/slonogram/pkg/bus"
	"github.com/ilyas-kalandar/slonogram/pkg/dispatch"
	"github.com/ilyas-kalandar/slonogram/pkg/events"
	"github.com/ilyas-kalandar/slonogram/pkg/filters"
)

type bot struct{ name string }

type msg struct{ text string }

func (m msg) MessageText() string { return m.text }

func inbound(text string) dispatch.Inbound[*bot, msg] {
	return dispatch.Inbound[*bot, msg]{
		Kind:        dispatch.KindSent,
		Interaction: &bot{name: "bot"},
		Model:       msg{text: text},
	}
}

// The scenario from the original slonogram example: Eq("сыр") fires on the
// exact text, Word("скажи") & Word("сыр","рыр") fires on the phrase.
func cheeseSet(t *testing.T, fired *[]string) *dispatch.Set[*bot, msg] {
	t.Helper()
	s := dispatch.NewSet[*bot, msg]("root")

	require.NoError(t, s.OnSent("handler_a",
		filters.Eq[*bot, msg]("сыр"),
		func(_ context.Context, _ msg) error {
			*fired = append(*fired, "A")
			return nil
		}))
	require.NoError(t, s.OnSent("handler_b",
		filters.Word[*bot, msg]("скажи").And(filters.Word[*bot, msg]("сыр", "рыр")),
		func(_ context.Context, _ msg) error {
			*fired = append(*fired, "B")
			return nil
		}))
	return s
}

func TestDispatchEndToEnd(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"сыр", []string{"A"}},
		{"скажи сыр", []string{"B"}},
		{"скажи рыр", []string{"B"}},
		{"что-то ещё", nil},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			var fired []string
			d := dispatch.New(cheeseSet(t, &fired))

			outcomes := d.Dispatch(context.Background(), inbound(tt.text))

			assert.Equal(t, tt.want, fired)
			require.Len(t, outcomes, 2)
		})
	}
}

func TestDispatchAssignsTraceID(t *testing.T) {
	var trace string
	s := dispatch.NewSet[*bot, msg]("root")
	require.NoError(t, s.OnSent("capture", nil,
		func(_ context.Context, c *dispatch.Context[*bot, msg]) error {
			trace = c.TraceID
			return nil
		}))

	dispatch.New(s).Dispatch(context.Background(), inbound("hi"))
	assert.NotEmpty(t, trace)
}

func TestRunConsumesFromBus(t *testing.T) {
	var mu sync.Mutex
	var got []string
	s := dispatch.NewSet[*bot, msg]("root")
	require.NoError(t, s.OnSent("collect", nil,
		func(_ context.Context, m msg) error {
			mu.Lock()
			got = append(got, m.text)
			mu.Unlock()
			return nil
		}))

	stream := bus.New[dispatch.Inbound[*bot, msg]](8)
	d := dispatch.New(s)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = d.Run(ctx, stream)
	}()

	stream.Publish(inbound("one"))
	stream.Publish(inbound("two"))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not stop after cancellation")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"one", "two"}, got)
}

func TestDispatchEmitsEvents(t *testing.T) {
	sink := bus.New[events.Event](32)
	tap := sink.Subscribe("test")

	var fired []string
	d := dispatch.New(cheeseSet(t, &fired), dispatch.WithEventSink[*bot, msg](sink))
	d.Dispatch(context.Background(), inbound("сыр"))

	types := make(map[string]int)
	deadline := time.After(time.Second)
	for len(types) < 2 {
		select {
		case ev := <-tap:
			types[ev.Type]++
		case <-deadline:
			t.Fatalf("timed out waiting for events, saw %v", types)
		}
	}
	assert.Equal(t, 1, types[events.UpdateReceived])
	assert.Equal(t, 1, types[events.RuleHandled])
}
