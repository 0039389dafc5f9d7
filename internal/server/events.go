package server

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"mindcare/internal/logging"
)

// broadcastWriteWait bounds each subscriber write so one stalled connection
// cannot hold the hub lock indefinitely.
const broadcastWriteWait = 5 * time.Second

// event is one entity-change notification pushed to websocket subscribers.
type event struct {
	Type      string `json:"type"`
	PatientID int64  `json:"patientId,omitempty"`
}

// eventHub fans entity-change events out to websocket subscribers. Slow or
// broken subscribers are dropped rather than blocking the broadcaster.
type eventHub struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	closed  bool
}

func newEventHub(logger *slog.Logger) *eventHub {
	return &eventHub{
		logger: logging.NewComponentLogger(logger, "events"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Same-origin local surface; cross-origin pages are not served.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]struct{}),
	}
}

func (h *eventHub) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", logging.Error(err))
		return
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	h.clients[conn] = struct{}{}
	h.mu.Unlock()

	// Drain the read side so close frames and pings are processed; the hub
	// never expects client messages.
	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *eventHub) broadcast(evt event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		_ = conn.SetWriteDeadline(time.Now().Add(broadcastWriteWait))
		if err := conn.WriteJSON(evt); err != nil {
			delete(h.clients, conn)
			_ = conn.Close()
		}
	}
}

func (h *eventHub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	_ = conn.Close()
}

func (h *eventHub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for conn := range h.clients {
		_ = conn.Close()
		delete(h.clients, conn)
	}
}
