package inspect

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilyas-kalandar/slonogram/pkg/bus"
	"github.com/ilyas-kalandar/slonogram/pkg/events"
	"github.com/ilyas-kalandar/slonogram/pkg/logger"
)

func TestHubBroadcastsEvents(t *testing.T) {
	src := bus.New[events.Event](32)
	defer src.Close()

	h := NewHub("", src, logger.Default())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tap := src.Subscribe("inspector")
	go h.pump(ctx, tap)

	srv := httptest.NewServer(http.HandlerFunc(h.handleWS))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Wait for the client to be registered before publishing.
	require.Eventually(t, func() bool {
		h.mu.Lock()
		defer h.mu.Unlock()
		return len(h.clients) == 1
	}, time.Second, 5*time.Millisecond)

	src.Publish(events.New(events.RuleHandled, "dispatcher", events.RuleEventData{
		TraceID: "t-1", Set: "root", Rule: "r",
	}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev events.Event
	require.NoError(t, json.Unmarshal(data, &ev))
	assert.Equal(t, events.RuleHandled, ev.Type)
	assert.NotEmpty(t, ev.ID)
}
