package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/dom/task-tracker/internal/domain"
	"github.com/dom/task-tracker/internal/metrics"
	"github.com/google/uuid"
)

type delivery struct {
	userID uuid.UUID
	data   []byte
}

// Hub fans task events out to the websocket connections of the task's
// owner. Connections are indexed by user, and a delivery is only ever
// written to the connections of the user it is addressed to.
type Hub struct {
	clients    map[uuid.UUID]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	deliver    chan delivery
	stop       chan struct{}
	done       chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliver:    make(chan delivery, 256),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.stop:
			h.mu.Lock()
			for _, set := range h.clients {
				for client := range set {
					close(client.send)
					metrics.WebsocketConnections.Dec()
				}
			}
			h.clients = make(map[uuid.UUID]map[*Client]bool)
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			set, ok := h.clients[client.userID]
			if !ok {
				set = make(map[*Client]bool)
				h.clients[client.userID] = set
			}
			set[client] = true
			h.mu.Unlock()
			metrics.WebsocketConnections.Inc()

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()

		case d := <-h.deliver:
			h.mu.Lock()
			for client := range h.clients[d.userID] {
				select {
				case client.send <- d.data:
				default:
					slog.Warn("websocket client too slow, dropping connection", "user_id", client.userID)
					h.remove(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// remove must be called with h.mu held.
func (h *Hub) remove(client *Client) {
	set, ok := h.clients[client.userID]
	if !ok || !set[client] {
		return
	}
	delete(set, client)
	if len(set) == 0 {
		delete(h.clients, client.userID)
	}
	close(client.send)
	metrics.WebsocketConnections.Dec()
}

// Stop disconnects every client and waits for Run to exit.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
	<-h.done
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ClientCount returns the number of open connections for a user.
func (h *Hub) ClientCount(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// SendTo queues a message for every connection of userID.
func (h *Hub) SendTo(userID uuid.UUID, msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("failed to marshal websocket message", "type", msg.Type, "error", err)
		return
	}

	select {
	case h.deliver <- delivery{userID: userID, data: data}:
	case <-h.done:
	}
}

// PublishTaskEvent implements service.TaskEventPublisher.
func (h *Hub) PublishTaskEvent(event domain.TaskEvent) {
	msg, err := messageForEvent(event)
	if err != nil {
		slog.Error("failed to build task event", "type", event.Type, "error", err)
		return
	}
	h.SendTo(event.OwnerID, msg)
}
