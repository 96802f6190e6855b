package chat

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"parley/auth"
	"parley/database"
	"parley/hub"
	"parley/metrics"
	"parley/models"
	apperrors "parley/pkg/errors"
)

// FriendChecker is the slice of the friend-request coordinator the
// messaging flows need.
type FriendChecker interface {
	AreFriends(ctx context.Context, userA, userB string) (bool, error)
}

// Registry is the connection-registry surface used for fan-out and
// presence queries.
type Registry interface {
	Broadcast(room string, event models.Event)
	IsOnline(userID string) bool
	OnlineUserIDs() []string
}

// AttachmentStore is the external blob store boundary. Only deletion is in
// scope here; upload happens before a message is posted.
type AttachmentStore interface {
	Delete(ctx context.Context, ref string) error
}

// Config bounds the messaging surface.
type Config struct {
	MaxMessageLength    int
	DefaultHistoryLimit int
	MaxHistoryLimit     int
}

// Coordinator orchestrates the two delivery paths. Both the HTTP layer and
// the connection layer call the same methods, so socket-originated and
// request-originated writes share one ordering authority: the ledger.
// Fan-out happens only after a successful ledger write and never affects
// the outcome of that write.
type Coordinator struct {
	db          *database.DB
	friends     FriendChecker
	registry    Registry
	attachments AttachmentStore
	cfg         Config
	logger      zerolog.Logger
}

func New(db *database.DB, friends FriendChecker, registry Registry, attachments AttachmentStore, cfg Config, logger zerolog.Logger) *Coordinator {
	return &Coordinator{
		db:          db,
		friends:     friends,
		registry:    registry,
		attachments: attachments,
		cfg:         cfg,
		logger:      logger,
	}
}

// PostChannelMessage persists a broadcast message and fans it out to the
// global room. A ledger failure aborts delivery entirely.
func (c *Coordinator) PostChannelMessage(ctx context.Context, sender auth.Identity, body models.MessageContent) (*models.ChannelMessage, error) {
	if err := c.validateBody(body); err != nil {
		return nil, err
	}

	msg := &models.ChannelMessage{
		ID:         uuid.NewString(),
		SenderID:   sender.ID,
		SenderName: sender.DisplayName,
		Body:       body,
		SentAt:     time.Now().UTC(),
	}
	if err := c.db.InsertChannelMessage(ctx, msg); err != nil {
		return nil, c.storage("append channel message", err)
	}
	metrics.MessagePersisted("channel")

	c.registry.Broadcast(hub.RoomGlobal, models.Event{
		Type:    models.EventChannelMessage,
		Payload: msg,
	})
	return msg, nil
}

// PostPrivateMessage persists a message into the pair's conversation and
// delivers it to the receiver's inbox room, echoing the server-assigned
// record back to all of the sender's own sessions.
func (c *Coordinator) PostPrivateMessage(ctx context.Context, sender auth.Identity, receiverID string, body models.MessageContent) (*models.PrivateMessage, error) {
	if err := c.validateBody(body); err != nil {
		return nil, err
	}

	ok, err := c.friends.AreFriends(ctx, sender.ID, receiverID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.ErrNotFriends
	}

	conv, err := c.db.FindOrCreateConversation(ctx, sender.ID, receiverID)
	if err != nil {
		return nil, c.storage("resolve conversation", err)
	}

	msg := &models.PrivateMessage{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		SenderID:       sender.ID,
		Body:           body,
		SentAt:         time.Now().UTC(),
	}
	if err := c.db.InsertPrivateMessage(ctx, msg); err != nil {
		return nil, c.storage("append private message", err)
	}
	metrics.MessagePersisted("private")

	// The message is durable at this point; a stale last-message pointer is
	// repaired by the next send, so this failure only gets logged.
	if err := c.db.SetLastMessage(ctx, conv.ID, msg.ID, msg.SentAt); err != nil {
		c.logger.Warn().Err(err).Str("conversation_id", conv.ID).Msg("last-message pointer update failed")
	}

	event := models.Event{Type: models.EventPrivateMessage, Payload: msg}
	c.registry.Broadcast(hub.UserRoom(receiverID), event)
	c.registry.Broadcast(hub.UserRoom(sender.ID), event)
	return msg, nil
}

// RecentChannelMessages returns the newest messages first; callers wanting
// chronological display order reverse the slice themselves.
func (c *Coordinator) RecentChannelMessages(ctx context.Context, limit int) ([]models.ChannelMessage, error) {
	messages, err := c.db.RecentChannelMessages(ctx, c.clampLimit(limit))
	if err != nil {
		return nil, c.storage("read channel history", err)
	}
	if messages == nil {
		messages = []models.ChannelMessage{}
	}
	return messages, nil
}

// ConversationHistory returns the newest messages of a conversation the
// actor participates in, newest first.
func (c *Coordinator) ConversationHistory(ctx context.Context, actor auth.Identity, conversationID string, limit int) ([]models.PrivateMessage, error) {
	conv, err := c.loadConversation(ctx, actor, conversationID)
	if err != nil {
		return nil, err
	}

	messages, err := c.db.ConversationHistory(ctx, conv.ID, c.clampLimit(limit))
	if err != nil {
		return nil, c.storage("read conversation history", err)
	}
	if messages == nil {
		messages = []models.PrivateMessage{}
	}
	return messages, nil
}

// ListConversations returns the actor's conversations, most recently active
// first, with the counterpart's live presence filled in.
func (c *Coordinator) ListConversations(ctx context.Context, actor auth.Identity) ([]models.ConversationSummary, error) {
	summaries, err := c.db.ListConversations(ctx, actor.ID)
	if err != nil {
		return nil, c.storage("list conversations", err)
	}
	for i := range summaries {
		summaries[i].Other.Online = c.registry.IsOnline(summaries[i].Other.ID)
	}
	if summaries == nil {
		summaries = []models.ConversationSummary{}
	}
	return summaries, nil
}

// MarkConversationRead applies read receipts to every unread message
// addressed to the actor in the conversation.
func (c *Coordinator) MarkConversationRead(ctx context.Context, actor auth.Identity, conversationID string) (int64, error) {
	conv, err := c.loadConversation(ctx, actor, conversationID)
	if err != nil {
		return 0, err
	}

	n, err := c.db.MarkConversationRead(ctx, conv.ID, actor.ID)
	if err != nil {
		return 0, c.storage("mark conversation read", err)
	}
	return n, nil
}

// DeleteChannelMessage removes a broadcast message and its attachment, sender
// only. No soft delete: once removed the record is gone from history.
func (c *Coordinator) DeleteChannelMessage(ctx context.Context, actor auth.Identity, messageID string) error {
	msg, err := c.db.GetChannelMessage(ctx, messageID)
	if err != nil {
		if database.IsNotFound(err) {
			return apperrors.ErrMessageNotFound
		}
		return c.storage("load channel message", err)
	}
	if msg.SenderID != actor.ID {
		return apperrors.ErrNotMessageSender
	}

	ok, err := c.db.DeleteChannelMessage(ctx, messageID)
	if err != nil {
		return c.storage("delete channel message", err)
	}
	if !ok {
		return apperrors.ErrMessageNotFound
	}

	if media, isMedia := msg.Body.Body.(models.MediaBody); isMedia {
		if err := c.attachments.Delete(ctx, media.Ref); err != nil {
			c.logger.Warn().Err(err).Str("ref", media.Ref).Msg("attachment delete failed")
		}
	}
	return nil
}

// OnlineUsers reports users with at least one live connection. Best effort.
func (c *Coordinator) OnlineUsers(ctx context.Context) ([]models.PublicUser, error) {
	ids := c.registry.OnlineUserIDs()
	users := make([]models.PublicUser, 0, len(ids))
	for _, id := range ids {
		user, err := c.db.GetUserByID(ctx, id)
		if err != nil {
			if database.IsNotFound(err) {
				continue
			}
			return nil, c.storage("load online user", err)
		}
		pub := user.ToPublic()
		pub.Online = true
		users = append(users, pub)
	}
	return users, nil
}

func (c *Coordinator) loadConversation(ctx context.Context, actor auth.Identity, conversationID string) (*models.Conversation, error) {
	conv, err := c.db.GetConversation(ctx, conversationID)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperrors.ErrConversationNotFound
		}
		return nil, c.storage("load conversation", err)
	}
	if !conv.HasParticipant(actor.ID) {
		return nil, apperrors.ErrNotParticipant
	}
	return conv, nil
}

func (c *Coordinator) validateBody(body models.MessageContent) error {
	switch b := body.Body.(type) {
	case models.TextBody:
		content := strings.TrimSpace(b.Content)
		if content == "" {
			return apperrors.ErrEmptyMessage
		}
		if len(b.Content) > c.cfg.MaxMessageLength {
			return apperrors.ErrMessageTooLong
		}
		return nil
	case models.MediaBody:
		if b.Ref == "" {
			return apperrors.InvalidArg("attachment reference is required")
		}
		return nil
	default:
		return apperrors.ErrEmptyMessage
	}
}

func (c *Coordinator) clampLimit(limit int) int {
	if limit <= 0 {
		return c.cfg.DefaultHistoryLimit
	}
	if limit > c.cfg.MaxHistoryLimit {
		return c.cfg.MaxHistoryLimit
	}
	return limit
}

func (c *Coordinator) storage(op string, err error) error {
	c.logger.Error().Err(err).Str("op", op).Msg("storage failure")
	return apperrors.Wrap(apperrors.CodeInternal, "storage failure", err)
}
