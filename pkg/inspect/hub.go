// Package inspect serves the dispatch event stream over WebSocket, so a
// developer can watch which rules match, skip or fail while the bot runs.
package inspect

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/ilyas-kalandar/slonogram/pkg/bus"
	"github.com/ilyas-kalandar/slonogram/pkg/events"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // same-origin requests have no Origin header
		}
		for _, prefix := range []string{"http://localhost", "http://127.0.0.1", "https://localhost", "https://127.0.0.1"} {
			if strings.HasPrefix(origin, prefix) {
				return true
			}
		}
		return false
	},
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub broadcasts the event bus to connected WebSocket clients. Slow
// clients are disconnected rather than allowed to stall the rest.
type Hub struct {
	addr string
	src  *bus.Bus[events.Event]
	log  zerolog.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
}

// NewHub creates an inspector listening on addr and reading events from src.
func NewHub(addr string, src *bus.Bus[events.Event], log zerolog.Logger) *Hub {
	return &Hub{
		addr:    addr,
		src:     src,
		log:     log,
		clients: make(map[*client]struct{}),
	}
}

// Run serves /events until ctx is done.
func (h *Hub) Run(ctx context.Context) error {
	tap := h.src.Subscribe("inspector")
	go h.pump(ctx, tap)

	mux := http.NewServeMux()
	mux.HandleFunc("/events", h.handleWS)
	srv := &http.Server{Addr: h.addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	h.log.Info().Str("addr", h.addr).Msg("inspector listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (h *Hub) pump(ctx context.Context, tap <-chan events.Event) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case ev, ok := <-tap:
			if !ok {
				h.closeAll()
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- data:
				default:
					// client too slow, drop it
					close(c.send)
					delete(h.clients, c)
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

func (h *Hub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	c := &client{conn: conn, send: make(chan []byte, 256)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.log.Debug().Msg("inspector client connected")

	go c.writeLoop()
	go c.readLoop(h)
}

func (c *client) writeLoop() {
	defer c.conn.Close()
	for data := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (c *client) readLoop(h *Hub) {
	// Inbound frames are ignored; reading only detects disconnects.
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		close(c.send)
		delete(h.clients, c)
	}
	h.mu.Unlock()
	h.log.Debug().Msg("inspector client disconnected")
}
