package broadcast

import (
	"encoding/json"
	"sync"

	"github.com/go-monolith/mono/pkg/types"
)

// Hub tracks connected clients and fans frames out to them. Sends never
// block: a client whose queue is full is dropped.
type Hub struct {
	clients map[string]*Client
	mu      sync.RWMutex
	logger  types.Logger
}

// NewHub creates a new Hub.
func NewHub(logger types.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		logger:  logger,
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client
	h.logger.Debug("Client registered", "clientID", client.ID, "clients", len(h.clients))
}

// Unregister removes a client from the hub and stops its write pump.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	if cur, ok := h.clients[client.ID]; ok && cur == client {
		delete(h.clients, client.ID)
		h.logger.Debug("Client unregistered", "clientID", client.ID, "clients", len(h.clients))
	}
	h.mu.Unlock()

	client.close()
}

// Broadcast marshals v once and queues it for every client.
func (h *Hub) Broadcast(v any) {
	frame, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("Failed to marshal broadcast", "error", err)
		return
	}

	var slow []*Client
	h.mu.RLock()
	for _, client := range h.clients {
		if !client.enqueue(frame) {
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		h.logger.Warn("Dropping slow client", "clientID", client.ID)
		h.Unregister(client)
	}
}

// SendTo queues v for a single client. Unknown ids are ignored.
func (h *Hub) SendTo(clientID string, v any) {
	frame, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("Failed to marshal message", "clientID", clientID, "error", err)
		return
	}

	h.mu.RLock()
	client, ok := h.clients[clientID]
	queued := ok && client.enqueue(frame)
	h.mu.RUnlock()

	if ok && !queued {
		h.logger.Warn("Dropping slow client", "clientID", clientID)
		h.Unregister(client)
	}
}

// ClientCount returns the total number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// CloseAll unregisters every client.
func (h *Hub) CloseAll() int {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[string]*Client)
	h.mu.Unlock()

	for _, client := range clients {
		client.close()
	}
	return len(clients)
}
