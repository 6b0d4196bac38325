// Observer stream: pushes each newly published snapshot to websocket
// clients. Rendering layers subscribe here instead of polling.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/archipelago/internal/engine"
)

const (
	maxStreamConns = 16
	streamBacklog  = 4 // Frames buffered per client before frames are dropped
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
)

// Frame is one message on the observer stream.
type Frame struct {
	Type string `json:"type"` // "tick"
	*engine.Snapshot
}

// Hub fans published snapshots out to websocket clients. Slow clients
// lose frames rather than holding up the others.
type Hub struct {
	Eng      *engine.Engine
	Interval time.Duration // How often to look for a new snapshot

	upgrader websocket.Upgrader
	conns    atomic.Int32

	mu      sync.Mutex
	clients map[*streamClient]struct{}
	last    []byte // Most recent frame, sent to new clients on connect
	step    uint64
}

type streamClient struct {
	send chan []byte
}

// NewHub creates a hub polling eng four times per second.
func NewHub(eng *engine.Engine) *Hub {
	return &Hub{
		Eng:      eng,
		Interval: 250 * time.Millisecond,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*streamClient]struct{}),
	}
}

// Run broadcasts until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-ticker.C:
			h.Poll()
		}
	}
}

// Poll broadcasts the latest snapshot if its step has not been sent yet.
// It reports whether a frame went out.
func (h *Hub) Poll() bool {
	snap := h.Eng.Latest()
	if snap == nil {
		return false
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.last != nil && snap.Step == h.step {
		return false
	}

	b, err := json.Marshal(Frame{Type: "tick", Snapshot: snap})
	if err != nil {
		slog.Error("stream frame encode failed", "error", err)
		return false
	}
	h.last = b
	h.step = snap.Step

	for c := range h.clients {
		select {
		case c.send <- b:
		default:
			// Client is behind; it catches up on the next frame.
		}
	}
	return true
}

// Clients returns the number of connected observers.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) register() *streamClient {
	c := &streamClient{send: make(chan []byte, streamBacklog)}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	if h.last != nil {
		c.send <- h.last
	}
	return c
}

func (h *Hub) unregister(c *streamClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

// ServeHTTP upgrades the request and streams frames until the client goes
// away. Client messages are read only to detect disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Connection limit.
	if h.conns.Add(1) > maxStreamConns {
		h.conns.Add(-1)
		http.Error(w, "too many stream connections", http.StatusServiceUnavailable)
		return
	}
	defer h.conns.Add(-1)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	c := h.register()
	defer h.unregister(c)
	slog.Info("stream client connected", "remote", clientAddr(r))

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pongWait / 2)
	defer ping.Stop()

	for {
		select {
		case b, ok := <-c.send:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
					time.Now().Add(time.Second))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-done:
			slog.Info("stream client disconnected", "remote", clientAddr(r))
			return
		case <-r.Context().Done():
			return
		}
	}
}
