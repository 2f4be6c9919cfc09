package websocket

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/lorrc/helpdesk/internal/core/domain"
	"github.com/lorrc/helpdesk/internal/core/ports"
	"github.com/lorrc/helpdesk/internal/core/services"
)

// Hub maintains the set of active Clients and fans query events out to them.
// An event reaches a client only if the client's actor can see the query.
type Hub struct {
	// clients maps user IDs to their active connections.
	// A single user can have multiple connections (multiple tabs/devices)
	clients map[uuid.UUID]map[*Client]bool

	broadcast chan domain.Event

	Register   chan *Client
	Unregister chan *Client

	// done is closed when Run returns.
	done chan struct{}

	// mu protects clients
	mu sync.RWMutex

	logger *slog.Logger
}

var _ ports.EventBroadcaster = (*Hub)(nil)

// NewHub creates a new WebSocket hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]bool),
		broadcast:  make(chan domain.Event, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger.With("component", "websocket_hub"),
	}
}

// Broadcast queues an event for delivery. It never blocks; when the queue is
// full the event is dropped and clients catch up on their next re-fetch.
func (h *Hub) Broadcast(event domain.Event) error {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("broadcast channel full, dropping event", "event_type", event.Type)
	}
	return nil
}

// Run starts the hub's event loop and returns when ctx is done,
// closing every remaining client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)

		case event := <-h.broadcast:
			h.broadcastEvent(event)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.Actor.ID] == nil {
		h.clients[client.Actor.ID] = make(map[*Client]bool)
	}
	h.clients[client.Actor.ID][client] = true

	h.logger.Info("client registered",
		"user_id", client.Actor.ID,
		"role", client.Actor.Role,
		"total_connections", len(h.clients[client.Actor.ID]),
	)
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

func (h *Hub) removeLocked(client *Client) {
	userClients, ok := h.clients[client.Actor.ID]
	if !ok || !userClients[client] {
		return
	}
	delete(userClients, client)
	if len(userClients) == 0 {
		delete(h.clients, client.Actor.ID)
	}
	client.CloseSend()

	h.logger.Info("client unregistered", "user_id", client.Actor.ID)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, userClients := range h.clients {
		for client := range userClients {
			client.CloseSend()
		}
	}
	h.clients = make(map[uuid.UUID]map[*Client]bool)
}

// broadcastEvent delivers event to every client allowed to see its query.
// Slow clients whose buffer is full are dropped.
func (h *Hub) broadcastEvent(event domain.Event) {
	if event.Query == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := 0
	for _, userClients := range h.clients {
		for client := range userClients {
			if !services.CanSee(client.Actor, event.Query) {
				continue
			}
			if client.trySend(event) {
				delivered++
				continue
			}
			h.logger.Warn("client send buffer full, unregistering", "user_id", client.Actor.ID)
			h.removeLocked(client)
		}
	}

	h.logger.Debug("broadcast event",
		"event_type", event.Type,
		"query_id", event.Query.ID,
		"client_count", delivered,
	)
}

// ClientCount returns the total number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, userClients := range h.clients {
		count += len(userClients)
	}
	return count
}

// IsUserConnected checks if a user has any active connections
func (h *Hub) IsUserConnected(userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.clients[userID]
	return ok && len(clients) > 0
}

// Attach registers client with a running hub. It reports false once the hub has stopped.
func (h *Hub) Attach(client *Client) bool {
	select {
	case h.Register <- client:
		return true
	case <-h.done:
		return false
	}
}
