// Package live pushes newly created submissions and signatures to
// connected admin consoles over WebSocket, so the dashboards update
// without refetching.
package live

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/apex/log"
)

// Event is the broadcast envelope sent to admin consoles
type Event struct {
	Type      string    `json:"type"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Hub manages WebSocket connections and broadcasting
type Hub struct {
	clients map[*Client]bool

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu               sync.RWMutex
	connectedClients int
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.connectedClients = len(h.clients)
			h.mu.Unlock()
			log.Infof("Admin console connected. Total clients: %d", h.connectedClients)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.connectedClients = len(h.clients)
			}
			h.mu.Unlock()
			log.Infof("Admin console disconnected. Total clients: %d", h.connectedClients)

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.connectedClients = len(h.clients)
			h.mu.Unlock()
		}
	}
}

// Broadcast sends an event to every connected admin console
func (h *Hub) Broadcast(eventType string, data any) {
	message, err := json.Marshal(Event{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		log.WithError(err).Error("Failed to marshal broadcast event")
		return
	}

	select {
	case h.broadcast <- message:
	default:
		log.Warn("Broadcast channel full, dropping live event")
	}
}

// ConnectedClients returns the current client count
func (h *Hub) ConnectedClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.connectedClients
}
