package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

type tickFrame struct {
	Type  string `json:"type"`
	RunID string `json:"run_id"`
	Step  uint64 `json:"step"`
}

func dialStream(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(url, "http") + "/api/v1/stream"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", wsURL, err)
	}
	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("handshake status %d", resp.StatusCode)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) tickFrame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	var f tickFrame
	if err := json.Unmarshal(msg, &f); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	return f
}

func waitClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for h.Clients() != n {
		if time.Now().After(deadline) {
			t.Fatalf("clients = %d, want %d", h.Clients(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestStreamBroadcastsNewSteps(t *testing.T) {
	eng := newTestEngine(t)
	s, ts := newTestServer(t, eng)
	hub := s.Stream

	if !hub.Poll() {
		t.Fatalf("first poll did not produce a frame")
	}
	if hub.Poll() {
		t.Fatalf("same step broadcast twice")
	}

	conn := dialStream(t, ts.URL)
	first := readFrame(t, conn)
	if first.Type != "tick" || first.RunID != "test-run" || first.Step != 0 {
		t.Fatalf("catch-up frame = %+v", first)
	}
	waitClients(t, hub, 1)

	// The hub is polled from the test goroutine, so stepping here does not
	// race with the stream.
	eng.Advance(time.Second / 60)
	eng.Publish()
	if !hub.Poll() {
		t.Fatalf("new step not broadcast")
	}
	next := readFrame(t, conn)
	if next.Step != 1 {
		t.Fatalf("frame step = %d, want 1", next.Step)
	}
}

func TestStreamRunClosesClients(t *testing.T) {
	eng := newTestEngine(t)
	s, ts := newTestServer(t, eng)
	hub := s.Stream
	hub.Interval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	conn := dialStream(t, ts.URL)
	waitClients(t, hub, 1)
	if f := readFrame(t, conn); f.Type != "tick" {
		t.Fatalf("frame = %+v", f)
	}

	cancel()
	<-done

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Fatalf("read after shutdown: %v, want going-away close", err)
	}
	waitClients(t, hub, 0)
}

func TestStreamRejectsPost(t *testing.T) {
	_, ts := newTestServer(t, newTestEngine(t))
	resp, err := http.Post(ts.URL+"/api/v1/stream", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}
