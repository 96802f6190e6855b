package hub

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"parley/metrics"
	"parley/models"
)

// RoomGlobal is the broadcast channel every admitted connection joins.
const RoomGlobal = "global"

// UserRoom names the per-user inbox room. Every live connection of a user is
// a member, so direct delivery reaches all devices.
func UserRoom(userID string) string { return "user:" + userID }

// Hub is the connection registry: live connections and their room
// memberships. It is the only piece of in-memory shared mutable state and
// holds no business invariants; everything durable lives in the database.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
	users map[string]int // live connection count per user

	logger zerolog.Logger
}

func New(logger zerolog.Logger) *Hub {
	return &Hub{
		rooms:  make(map[string]map[*Client]struct{}),
		users:  make(map[string]int),
		logger: logger,
	}
}

// Register admits a verified connection: global room plus the user's own
// inbox room. Emits a best-effort presence event when this is the user's
// first live connection.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.join(c, RoomGlobal)
	h.join(c, UserRoom(c.identity.ID))
	h.users[c.identity.ID]++
	first := h.users[c.identity.ID] == 1
	h.mu.Unlock()

	metrics.ConnectionOpened()
	h.logger.Info().Str("user_id", c.identity.ID).Msg("connection registered")

	if first {
		h.Broadcast(RoomGlobal, models.Event{
			Type:    models.EventUserOnline,
			Payload: models.PresencePayload{UserID: c.identity.ID},
		})
	}
}

// Unregister removes the connection from every room and closes its send
// channel. Safe to call more than once. No persisted state changes here.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if c.closed {
		h.mu.Unlock()
		return
	}
	c.closed = true
	for room := range c.rooms {
		if members, ok := h.rooms[room]; ok {
			delete(members, c)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	c.rooms = nil
	h.users[c.identity.ID]--
	last := h.users[c.identity.ID] == 0
	if last {
		delete(h.users, c.identity.ID)
	}
	close(c.send)
	h.mu.Unlock()

	metrics.ConnectionClosed()
	h.logger.Info().Str("user_id", c.identity.ID).Msg("connection unregistered")

	if last {
		h.Broadcast(RoomGlobal, models.Event{
			Type:    models.EventUserOffline,
			Payload: models.PresencePayload{UserID: c.identity.ID},
		})
	}
}

// join adds c to a room. Caller holds h.mu.
func (h *Hub) join(c *Client, room string) {
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	c.rooms[room] = struct{}{}
}

// Broadcast delivers an event to every current member of a room. Delivery is
// best effort: a member whose send buffer is full loses the frame rather
// than blocking the rest of the room.
func (h *Hub) Broadcast(room string, event models.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Str("event", event.Type).Msg("marshal outbound event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[room] {
		select {
		case c.send <- data:
			metrics.EventDelivered(event.Type)
		default:
			h.logger.Warn().
				Str("user_id", c.identity.ID).
				Str("event", event.Type).
				Msg("send buffer full, frame dropped")
		}
	}
}

// IsOnline reports whether the user has at least one live connection.
// Best effort; not linearizable with connect/disconnect.
func (h *Hub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.users[userID] > 0
}

// OnlineUserIDs snapshots the ids of all currently connected users.
func (h *Hub) OnlineUserIDs() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.users))
	for id := range h.users {
		ids = append(ids, id)
	}
	return ids
}
