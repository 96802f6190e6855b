package hub

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parley/auth"
	"parley/models"
)

func newTestClient(h *Hub, userID string) *Client {
	return NewClient(h, nil, auth.Identity{ID: userID, DisplayName: userID}, nil, 8, time.Second)
}

func drain(c *Client) []models.Event {
	var events []models.Event
	for {
		select {
		case data := <-c.send:
			var e models.Event
			if err := json.Unmarshal(data, &e); err == nil {
				events = append(events, e)
			}
		default:
			return events
		}
	}
}

func TestRegisterJoinsGlobalAndUserRoom(t *testing.T) {
	h := New(zerolog.Nop())
	alice := newTestClient(h, "alice")
	h.Register(alice)
	drain(alice) // own online notice

	assert.True(t, h.IsOnline("alice"))

	h.Broadcast(RoomGlobal, models.Event{Type: "ping"})
	h.Broadcast(UserRoom("alice"), models.Event{Type: "direct"})
	h.Broadcast(UserRoom("bob"), models.Event{Type: "not-mine"})

	var types []string
	for _, e := range drain(alice) {
		types = append(types, e.Type)
	}
	assert.Equal(t, []string{"ping", "direct"}, types)
}

func TestMultiDeviceDelivery(t *testing.T) {
	h := New(zerolog.Nop())
	phone := newTestClient(h, "alice")
	laptop := newTestClient(h, "alice")
	h.Register(phone)
	h.Register(laptop)
	drain(phone)
	drain(laptop)

	h.Broadcast(UserRoom("alice"), models.Event{Type: "direct"})

	require.Len(t, drain(phone), 1, "every device is a member of the inbox room")
	require.Len(t, drain(laptop), 1)
}

func TestUnregisterLeavesAllRooms(t *testing.T) {
	h := New(zerolog.Nop())
	alice := newTestClient(h, "alice")
	bob := newTestClient(h, "bob")
	h.Register(alice)
	h.Register(bob)
	drain(alice)
	drain(bob)

	h.Unregister(alice)
	assert.False(t, h.IsOnline("alice"))
	assert.True(t, h.IsOnline("bob"))

	// Double unregister is a no-op, not a panic.
	h.Unregister(alice)

	h.Broadcast(RoomGlobal, models.Event{Type: "ping"})
	events := drain(bob)
	// bob sees alice's offline notice and the ping, nothing is stuck.
	var types []string
	for _, e := range events {
		types = append(types, e.Type)
	}
	assert.Equal(t, []string{models.EventUserOffline, "ping"}, types)
}

func TestPresenceEventsFireOnFirstAndLastConnection(t *testing.T) {
	h := New(zerolog.Nop())
	observer := newTestClient(h, "observer")
	h.Register(observer)
	drain(observer)

	phone := newTestClient(h, "alice")
	laptop := newTestClient(h, "alice")

	h.Register(phone)
	events := drain(observer)
	require.Len(t, events, 1)
	assert.Equal(t, models.EventUserOnline, events[0].Type)

	// Second device: no duplicate online notice.
	h.Register(laptop)
	assert.Empty(t, drain(observer))

	h.Unregister(phone)
	assert.Empty(t, drain(observer), "alice still has a live device")
	assert.True(t, h.IsOnline("alice"))

	h.Unregister(laptop)
	events = drain(observer)
	require.Len(t, events, 1)
	assert.Equal(t, models.EventUserOffline, events[0].Type)
	assert.False(t, h.IsOnline("alice"))
}

func TestOnlineUserIDs(t *testing.T) {
	h := New(zerolog.Nop())
	h.Register(newTestClient(h, "alice"))
	h.Register(newTestClient(h, "bob"))

	ids := h.OnlineUserIDs()
	assert.ElementsMatch(t, []string{"alice", "bob"}, ids)
}

func TestSlowConsumerLosesFramesNotNeighbors(t *testing.T) {
	h := New(zerolog.Nop())
	slow := NewClient(h, nil, auth.Identity{ID: "slow"}, nil, 1, time.Second)
	fast := newTestClient(h, "fast")
	h.Register(slow)
	h.Register(fast)
	drain(fast)
	drain(slow)

	// Fill slow's single-slot buffer, then keep broadcasting.
	for i := 0; i < 5; i++ {
		h.Broadcast(RoomGlobal, models.Event{Type: "tick"})
	}

	assert.Len(t, drain(slow), 1, "overflow frames are dropped")
	assert.Len(t, drain(fast), 5, "a slow member never blocks the room")
}
