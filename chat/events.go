package chat

import (
	"context"
	"encoding/json"

	"parley/auth"
	"parley/hub"
	"parley/models"
	apperrors "parley/pkg/errors"
)

// Inbound connection events. The coordinator implements hub.EventHandler so
// socket-originated sends go through exactly the same flows as HTTP ones.

type sendChannelPayload struct {
	Content    string            `json:"content"`
	Attachment *models.MediaBody `json:"attachment,omitempty"`
}

type sendPrivatePayload struct {
	ReceiverID string            `json:"receiver_id"`
	Content    string            `json:"content"`
	Attachment *models.MediaBody `json:"attachment,omitempty"`
}

type typingPayload struct {
	ReceiverID string `json:"receiver_id"`
	Typing     bool   `json:"typing"`
}

// HandleEvent dispatches one inbound frame from a live connection.
func (c *Coordinator) HandleEvent(ctx context.Context, sender auth.Identity, eventType string, payload json.RawMessage) error {
	switch eventType {
	case models.EventSendChannelMessage:
		var p sendChannelPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return apperrors.InvalidArg("malformed payload")
		}
		_, err := c.PostChannelMessage(ctx, sender, buildContent(p.Content, p.Attachment))
		return err

	case models.EventSendPrivateMessage:
		var p sendPrivatePayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return apperrors.InvalidArg("malformed payload")
		}
		if p.ReceiverID == "" {
			return apperrors.InvalidArg("receiver_id is required")
		}
		_, err := c.PostPrivateMessage(ctx, sender, p.ReceiverID, buildContent(p.Content, p.Attachment))
		return err

	case models.EventSendTyping:
		var p typingPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return apperrors.InvalidArg("malformed payload")
		}
		return c.relayTyping(ctx, sender, p)

	default:
		return apperrors.InvalidArg("unknown event type")
	}
}

// relayTyping forwards a typing indicator to the receiver's devices without
// touching the ledger. Gated on friendship like the messages themselves.
func (c *Coordinator) relayTyping(ctx context.Context, sender auth.Identity, p typingPayload) error {
	if p.ReceiverID == "" {
		return apperrors.InvalidArg("receiver_id is required")
	}
	ok, err := c.friends.AreFriends(ctx, sender.ID, p.ReceiverID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.ErrNotFriends
	}

	c.registry.Broadcast(hub.UserRoom(p.ReceiverID), models.Event{
		Type:    models.EventTyping,
		Payload: models.TypingPayload{UserID: sender.ID, Typing: p.Typing},
	})
	return nil
}

func buildContent(content string, attachment *models.MediaBody) models.MessageContent {
	if attachment != nil {
		return models.MessageContent{Body: *attachment}
	}
	return models.MessageContent{Body: models.TextBody{Content: content}}
}
