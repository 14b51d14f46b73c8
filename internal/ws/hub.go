// Package ws streams scan results to WebSocket subscribers. Clients join
// ticker groups ("NVDA") or the firehose ("*") and receive zstd-compressed
// JSON frames as scans complete.
package ws

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// FirehoseGroup receives every scored opportunity regardless of ticker.
const FirehoseGroup = "*"

// Hub manages WebSocket connections and group subscriptions.
type Hub struct {
	clients    map[*Client]bool
	groups     map[string]map[*Client]bool // group -> clients
	register   chan *Client
	unregister chan *Client
	broadcast  chan *GroupMessage
	mu         sync.RWMutex
	logger     *zap.Logger
}

// GroupMessage represents a message to broadcast to a group.
type GroupMessage struct {
	Group   string
	Payload []byte
}

// NewHub creates a new Hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		groups:     make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *GroupMessage, 256),
		logger:     logger,
	}
}

// Run processes hub events. Call this in a goroutine.
// Returns when context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("hub shutting down")
			h.shutdown()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Debug("client registered", zap.String("connID", client.connID))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				// Remove from all groups
				for group := range client.groups {
					if clients, ok := h.groups[group]; ok {
						delete(clients, client)
						if len(clients) == 0 {
							delete(h.groups, group)
						}
					}
				}
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Debug("client unregistered", zap.String("connID", client.connID))

		case msg := <-h.broadcast:
			h.mu.RLock()
			if clients, ok := h.groups[msg.Group]; ok {
				for client := range clients {
					select {
					case client.send <- msg.Payload:
					default:
						// Buffer full, schedule disconnect
						go func(c *Client) {
							h.unregister <- c
						}(client)
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

// shutdown gracefully closes all client connections.
func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.groups = make(map[string]map[*Client]bool)
}

// JoinGroup adds a client to a group.
func (h *Hub) JoinGroup(client *Client, group string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.groups[group] == nil {
		h.groups[group] = make(map[*Client]bool)
	}
	h.groups[group][client] = true
	client.groups[group] = true

	h.logger.Debug("client joined group",
		zap.String("connID", client.connID),
		zap.String("group", group),
	)
}

// ActiveGroups returns all groups with at least one subscriber.
func (h *Hub) ActiveGroups() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var groups []string
	for group, clients := range h.groups {
		if len(clients) > 0 {
			groups = append(groups, group)
		}
	}
	return groups
}

// Broadcast sends a payload to all clients in a group.
func (h *Hub) Broadcast(group string, payload []byte) {
	h.broadcast <- &GroupMessage{Group: group, Payload: payload}
}
