// Package ws pushes status snapshots to connected browsers so the panel does
// not have to poll its own server.
package ws

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"

	"cvpanel/internal/models"
)

type statusMessage struct {
	Type string `json:"type"`
	models.StatusSnapshot
}

// Hub fans one snapshot stream out to every connected WebSocket client.
type Hub struct {
	log *slog.Logger

	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	last    []byte
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		log:        log,
		broadcast:  make(chan []byte, 16),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		clients:    make(map[*websocket.Conn]struct{}),
	}
}

// Start runs the hub loop until the broadcast channel is exhausted. Call once.
func (h *Hub) Start() {
	go func() {
		for {
			select {
			case conn := <-h.register:
				h.mu.Lock()
				h.clients[conn] = struct{}{}
				last := h.last
				h.mu.Unlock()

				// New clients get the current snapshot immediately instead
				// of waiting for the next tick.
				if last != nil {
					if err := conn.WriteMessage(websocket.TextMessage, last); err != nil {
						h.drop(conn)
					}
				}

				h.log.Debug("websocket client connected")
			case conn := <-h.unregister:
				h.drop(conn)

				h.log.Debug("websocket client disconnected")
			case message := <-h.broadcast:
				h.mu.Lock()
				h.last = message
				conns := make([]*websocket.Conn, 0, len(h.clients))
				for conn := range h.clients {
					conns = append(conns, conn)
				}
				h.mu.Unlock()

				for _, conn := range conns {
					if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
						h.log.Debug("dropping websocket client", slog.String("error", err.Error()))

						h.drop(conn)
					}
				}
			}
		}
	}()
}

// Publish implements service.Notifier. It never blocks the reconciler: if the
// hub is backed up, the stale snapshot is skipped — the next one supersedes it
// anyway.
func (h *Hub) Publish(snap models.StatusSnapshot) {
	payload, err := json.Marshal(statusMessage{Type: "status", StatusSnapshot: snap})
	if err != nil {
		h.log.Error("failed to marshal snapshot", slog.String("error", err.Error()))

		return
	}

	select {
	case h.broadcast <- payload:
	default:
	}
}

// RegisterClient hands an upgraded connection to the hub.
func (h *Hub) RegisterClient(conn *websocket.Conn) {
	h.register <- conn
}

// UnregisterClient removes a connection and closes it.
func (h *Hub) UnregisterClient(conn *websocket.Conn) {
	h.unregister <- conn
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		conn.Close()
	}
}
