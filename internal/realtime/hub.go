package realtime

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat.
	PingInterval = 30
	PongWait     = 60
)

// SeatsUpdate is the payload broadcast on the "seats" event whenever an
// event's attendee list changes.
type SeatsUpdate struct {
	EventID        uuid.UUID `json:"event_id"`
	AttendeeCount  int       `json:"attendee_count"`
	Capacity       int       `json:"capacity"`
	SeatsRemaining int       `json:"seats_remaining"`
}

// Hub maintains event_id -> set of connections and broadcasts seat updates.
// Uses Redis pub/sub for horizontal scaling: updates are published to Redis
// and every instance, including the publisher, delivers them to its watchers
// through its own subscription.
type Hub struct {
	// eventID -> map[clientID]*Client
	rooms  map[uuid.UUID]map[string]*Client
	subs   map[uuid.UUID]func() // cancel Redis subscription per event
	mu     sync.RWMutex
	logger *zap.Logger
	pub    RedisPublisher
	sub    RedisSubscriber
}

// RedisPublisher publishes to Redis for cross-instance broadcast.
type RedisPublisher interface {
	PublishEventUpdate(eventID uuid.UUID, event string, payload []byte) error
}

// RedisSubscriber subscribes to event channels and invokes handler for
// incoming messages.
type RedisSubscriber interface {
	SubscribeEvent(eventID uuid.UUID, handler func(event string, payload []byte)) (cancel func(), err error)
}

// NewHub creates a new WebSocket hub.
func NewHub(logger *zap.Logger, pub RedisPublisher, sub RedisSubscriber) *Hub {
	return &Hub{
		rooms:  make(map[uuid.UUID]map[string]*Client),
		subs:   make(map[uuid.UUID]func()),
		logger: logger,
		pub:    pub,
		sub:    sub,
	}
}

// Register adds a client to an event room. Starts the Redis subscription for
// this event when the first client joins.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.rooms[c.EventID] == nil {
		h.rooms[c.EventID] = make(map[string]*Client)
		if h.sub != nil {
			cancel, err := h.sub.SubscribeEvent(c.EventID, func(event string, payload []byte) {
				h.Broadcast(c.EventID, event, json.RawMessage(payload))
			})
			if err == nil {
				h.subs[c.EventID] = cancel
			}
		}
	}
	h.rooms[c.EventID][c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("client watching event", zap.String("client_id", c.ID), zap.String("event_id", c.EventID.String()))
}

// Unregister removes a client from an event room. Cancels the Redis
// subscription when the last client leaves.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if m, ok := h.rooms[c.EventID]; ok {
		delete(m, c.ID)
		if len(m) == 0 {
			delete(h.rooms, c.EventID)
			if cancel, ok := h.subs[c.EventID]; ok {
				cancel()
				delete(h.subs, c.EventID)
			}
		}
	}
	h.mu.Unlock()
	h.logger.Debug("client left event", zap.String("client_id", c.ID), zap.String("event_id", c.EventID.String()))
}

// Broadcast sends a message to all clients watching an event (local only).
func (h *Hub) Broadcast(eventID uuid.UUID, event string, payload interface{}) {
	var data []byte
	switch v := payload.(type) {
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		data, _ = json.Marshal(payload)
	}
	msg := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	clients := h.rooms[eventID]
	h.mu.RUnlock()

	if clients == nil {
		return
	}
	for _, c := range clients {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}

// SeatsChanged publishes the new seat availability for an event. With Redis
// wired, the publishing instance's own subscription delivers the update to
// local watchers, so publish is the only send here; without Redis it falls
// back to a direct local broadcast. It satisfies the registration service's
// notifier interface.
func (h *Hub) SeatsChanged(eventID uuid.UUID, attendeeCount, capacity int) {
	update := SeatsUpdate{
		EventID:        eventID,
		AttendeeCount:  attendeeCount,
		Capacity:       capacity,
		SeatsRemaining: capacity - attendeeCount,
	}
	data, err := json.Marshal(update)
	if err != nil {
		return
	}
	if h.pub != nil {
		if err := h.pub.PublishEventUpdate(eventID, "seats", data); err != nil {
			h.logger.Error("publish seats update failed", zap.Error(err), zap.String("event_id", eventID.String()))
		}
		return
	}
	h.Broadcast(eventID, "seats", json.RawMessage(data))
}

// WatcherCount returns the number of connected clients watching an event.
func (h *Hub) WatcherCount(eventID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[eventID])
}

// SendToClient sends a message to a single client watching an event.
func (h *Hub) SendToClient(eventID uuid.UUID, clientID string, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	msg := WSMessage{Event: event, Data: data}
	h.mu.RLock()
	clients := h.rooms[eventID]
	c, ok := clients[clientID]
	h.mu.RUnlock()
	if !ok || c == nil {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}
