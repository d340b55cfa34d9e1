// Package websocket pushes board changes to connected browsers.
package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/kandev/kanban/internal/common/logger"
)

// Hub manages all WebSocket client connections. Clients only ever see
// changes of their own owner.
type Hub struct {
	// Clients grouped by owner
	owners map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu     sync.RWMutex
	logger *logger.Logger
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		owners:     make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     log.WithFields(zap.String("component", "ws_hub")),
	}
}

// Run starts the hub's main processing loop
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("WebSocket hub started")
	defer h.logger.Info("WebSocket hub stopped")
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.closeAllClients()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.owners[client.OwnerID] == nil {
				h.owners[client.OwnerID] = make(map[*Client]bool)
			}
			h.owners[client.OwnerID][client] = true
			h.mu.Unlock()
			h.logger.Debug("Client registered",
				zap.String("client_id", client.ID),
				zap.String("owner_id", client.OwnerID))

		case client := <-h.unregister:
			h.removeClient(client)
		}
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, clients := range h.owners {
		for client := range clients {
			close(client.send)
		}
	}
	h.owners = make(map[string]map[*Client]bool)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.owners[client.OwnerID]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	if len(clients) == 0 {
		delete(h.owners, client.OwnerID)
	}
	close(client.send)
	h.logger.Debug("Client unregistered", zap.String("client_id", client.ID))
}

// Register adds a client to the hub. Once the hub has stopped the client's
// send channel is closed right away, which ends its write pump.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// BroadcastToOwner sends msg to the owner's clients that watch boardID.
func (h *Hub) BroadcastToOwner(ownerID, boardID string, msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Failed to marshal message", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.owners[ownerID] {
		if !client.watches(boardID) {
			continue
		}
		select {
		case client.send <- data:
		default:
			h.logger.Warn("Client send buffer full, dropping notification",
				zap.String("client_id", client.ID))
		}
	}
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, clients := range h.owners {
		n += len(clients)
	}
	return n
}
