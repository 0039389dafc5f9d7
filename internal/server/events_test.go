package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"mindcare/internal/logging"
)

func (h *eventHub) clientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func dialHub(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestEventHubBroadcastReachesSubscribers(t *testing.T) {
	hub := newEventHub(logging.NewNop())
	ts := httptest.NewServer(http.HandlerFunc(hub.handleWebsocket))
	t.Cleanup(ts.Close)
	t.Cleanup(hub.close)

	conn := dialHub(t, ts)

	deadline := time.Now().Add(2 * time.Second)
	for hub.clientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	hub.broadcast(event{Type: "recording", PatientID: 3})

	var got event
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if got.Type != "recording" || got.PatientID != 3 {
		t.Fatalf("unexpected event: %+v", got)
	}
}

func TestEventHubDropsBrokenSubscribers(t *testing.T) {
	hub := newEventHub(logging.NewNop())
	ts := httptest.NewServer(http.HandlerFunc(hub.handleWebsocket))
	t.Cleanup(ts.Close)
	t.Cleanup(hub.close)

	conn := dialHub(t, ts)

	deadline := time.Now().Add(2 * time.Second)
	for hub.clientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if hub.clientCount() != 1 {
		t.Fatalf("subscriber not registered, count=%d", hub.clientCount())
	}

	// Tear the connection down without a close frame; broadcasts must shed
	// the dead subscriber instead of blocking on it.
	_ = conn.UnderlyingConn().Close()

	deadline = time.Now().Add(5 * time.Second)
	for hub.clientCount() > 0 && time.Now().Before(deadline) {
		hub.broadcast(event{Type: "data"})
		time.Sleep(10 * time.Millisecond)
	}
	if got := hub.clientCount(); got != 0 {
		t.Fatalf("broken subscriber still registered, count=%d", got)
	}
}
