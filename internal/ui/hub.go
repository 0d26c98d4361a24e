package ui

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"bioterminal/internal/dto"
	"bioterminal/internal/logger"
)

const (
	// writeWait bounds each websocket write so a wedged viewer connection
	// cannot stall the hub loop.
	writeWait = 10 * time.Second

	// pingPeriod keeps idle viewer connections alive. Must be shorter than
	// the read deadline set by the websocket handler.
	pingPeriod = 30 * time.Second
)

// framePayload is the websocket message carrying a preview frame.
type framePayload struct {
	Type  string `json:"type"`
	Image string `json:"image"`
}

// statusPayload is the websocket message carrying a terminal status change.
type statusPayload struct {
	Type string `json:"type"`
	dto.Status
}

// Hub fans preview frames and status updates out to connected kiosk viewers.
// Frames and statuses travel on separate queues: frames are dropped under
// pressure, status transitions are not.
type Hub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	status     chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn

	mu         sync.RWMutex
	lastStatus []byte

	logger *logger.Logger
}

// NewHub creates an empty viewer hub.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, 8),
		status:     make(chan []byte, 8),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		logger:     log,
	}
}

// Run serves the hub loop until the context is canceled.
func (h *Hub) Run(ctx context.Context) {
	pings := time.NewTicker(pingPeriod)
	defer pings.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			last := h.lastStatus
			h.mu.Unlock()
			// New viewers get the current status immediately instead of
			// waiting for the next transition.
			if last != nil {
				h.writeTo(client, websocket.TextMessage, last)
			}
			h.logger.Info("Viewer connected. Total: %d", h.ClientCount())

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			h.mu.Unlock()
			h.logger.Info("Viewer disconnected. Total: %d", h.ClientCount())

		case message := <-h.status:
			h.writeAll(message)

		case message := <-h.broadcast:
			h.writeAll(message)

		case <-pings.C:
			h.mu.Lock()
			for client := range h.clients {
				if err := h.writeTo(client, websocket.PingMessage, nil); err != nil {
					delete(h.clients, client)
					client.Close()
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) writeTo(client *websocket.Conn, messageType int, data []byte) error {
	client.SetWriteDeadline(time.Now().Add(writeWait))
	return client.WriteMessage(messageType, data)
}

func (h *Hub) writeAll(message []byte) {
	h.mu.Lock()
	for client := range h.clients {
		if err := h.writeTo(client, websocket.TextMessage, message); err != nil {
			h.logger.Error("Error sending to viewer: %v", err)
			delete(h.clients, client)
			client.Close()
		}
	}
	h.mu.Unlock()
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		client.Close()
		delete(h.clients, client)
	}
}

// Register adds a viewer connection to the hub.
func (h *Hub) Register(client *websocket.Conn) {
	h.register <- client
}

// Unregister removes a viewer connection from the hub.
func (h *Hub) Unregister(client *websocket.Conn) {
	h.unregister <- client
}

// BroadcastFrame sends a preview JPEG to all viewers. Frames are dropped when
// the broadcast queue is full so the terminal loop never blocks on slow
// viewers.
func (h *Hub) BroadcastFrame(jpeg []byte) {
	msg, err := json.Marshal(framePayload{
		Type:  "frame",
		Image: base64.StdEncoding.EncodeToString(jpeg),
	})
	if err != nil {
		return
	}

	select {
	case h.broadcast <- msg:
	default:
	}
}

// BroadcastStatus sends a status update to all viewers and retains it for
// late joiners. Status updates never block the caller; when the queue is
// full the oldest entry is evicted so the newest state always reaches
// connected viewers.
func (h *Hub) BroadcastStatus(status dto.Status) {
	msg, err := json.Marshal(statusPayload{Type: "status", Status: status})
	if err != nil {
		return
	}

	h.mu.Lock()
	h.lastStatus = msg
	h.mu.Unlock()

	for {
		select {
		case h.status <- msg:
			return
		default:
			select {
			case <-h.status:
			default:
			}
		}
	}
}

// ClientCount returns the number of connected viewers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
