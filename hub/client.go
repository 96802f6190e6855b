package hub

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"parley/auth"
	"parley/models"
	apperrors "parley/pkg/errors"
)

// EventHandler consumes inbound events from a live connection. A returned
// error is reported to the originating connection only, as an
// operation-failed event; it never tears the connection down.
type EventHandler interface {
	HandleEvent(ctx context.Context, sender auth.Identity, eventType string, payload json.RawMessage) error
}

// Client is the per-connection actor: the read pump feeds inbound events to
// the handler, the write pump drains the buffered send channel. Ordering and
// backpressure are per connection.
type Client struct {
	identity auth.Identity
	conn     *websocket.Conn
	send     chan []byte

	hub     *Hub
	handler EventHandler

	writeTimeout time.Duration

	// guarded by hub.mu
	rooms  map[string]struct{}
	closed bool
}

// NewClient binds an upgraded connection to its verified identity. The
// caller must Register the client and start its pumps.
func NewClient(h *Hub, conn *websocket.Conn, identity auth.Identity, handler EventHandler, sendBuffer int, writeTimeout time.Duration) *Client {
	return &Client{
		identity:     identity,
		conn:         conn,
		send:         make(chan []byte, sendBuffer),
		hub:          h,
		handler:      handler,
		writeTimeout: writeTimeout,
		rooms:        make(map[string]struct{}),
	}
}

// Identity returns the identity bound at admission.
func (c *Client) Identity() auth.Identity { return c.identity }

// Run starts both pumps. Blocks until the connection terminates.
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

type inboundFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn().Err(err).Str("user_id", c.identity.ID).Msg("read error")
			}
			return
		}

		var frame inboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.fail(apperrors.InvalidArg("malformed event frame"))
			continue
		}

		if err := c.handler.HandleEvent(context.Background(), c.identity, frame.Type, frame.Payload); err != nil {
			c.fail(err)
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
	// Registry closed the send channel; say goodbye politely.
	c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// Send queues an event for this connection only. Drops the frame when the
// buffer is full.
func (c *Client) Send(event models.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		c.hub.logger.Error().Err(err).Str("event", event.Type).Msg("marshal outbound event")
		return
	}
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (c *Client) fail(err error) {
	c.Send(models.Event{
		Type: models.EventOperationFailed,
		Payload: models.OperationFailedPayload{
			Kind:    string(apperrors.CodeOf(err)),
			Message: apperrors.MessageOf(err),
		},
	})
}
