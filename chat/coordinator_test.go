package chat

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parley/auth"
	"parley/database"
	"parley/friends"
	"parley/hub"
	"parley/models"
	apperrors "parley/pkg/errors"
)

type recordedEvent struct {
	Room  string
	Event models.Event
}

// fakeRegistry records fan-out instead of delivering it.
type fakeRegistry struct {
	mu     sync.Mutex
	events []recordedEvent
	online map[string]bool
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{online: make(map[string]bool)}
}

func (f *fakeRegistry) Broadcast(room string, event models.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{Room: room, Event: event})
}

func (f *fakeRegistry) IsOnline(userID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.online[userID]
}

func (f *fakeRegistry) OnlineUserIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for id, on := range f.online {
		if on {
			ids = append(ids, id)
		}
	}
	return ids
}

func (f *fakeRegistry) recorded() []recordedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedEvent(nil), f.events...)
}

type failingAttachments struct{ calls []string }

func (f *failingAttachments) Delete(ctx context.Context, ref string) error {
	f.calls = append(f.calls, ref)
	return errors.New("blob store unavailable")
}

type fixture struct {
	coordinator *Coordinator
	friends     *friends.Coordinator
	registry    *fakeRegistry
	attachments *failingAttachments
	db          *database.DB
	alice       auth.Identity
	bob         auth.Identity
	carol       auth.Identity
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &fixture{
		registry:    newFakeRegistry(),
		attachments: &failingAttachments{},
		db:          db,
	}
	f.friends = friends.New(db, zerolog.Nop())
	f.coordinator = New(db, f.friends, f.registry, f.attachments, Config{
		MaxMessageLength:    100,
		DefaultHistoryLimit: 20,
		MaxHistoryLimit:     50,
	}, zerolog.Nop())

	f.alice = f.seed(t, "alice")
	f.bob = f.seed(t, "bob")
	f.carol = f.seed(t, "carol")
	return f
}

func (f *fixture) seed(t *testing.T, name string) auth.Identity {
	t.Helper()
	id := uuid.NewString()
	require.NoError(t, f.db.InsertUser(context.Background(), &models.User{
		ID:          id,
		DisplayName: name,
		Email:       name + "@example.com",
		Active:      true,
	}))
	return auth.Identity{ID: id, DisplayName: name}
}

func (f *fixture) befriend(t *testing.T, a, b auth.Identity) {
	t.Helper()
	req, err := f.friends.SendRequest(context.Background(), a, b.ID)
	require.NoError(t, err)
	_, err = f.friends.Accept(context.Background(), req.ID, b)
	require.NoError(t, err)
}

func text(s string) models.MessageContent {
	return models.MessageContent{Body: models.TextBody{Content: s}}
}

func TestPostChannelMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path - persists then fans out to global room", func(t *testing.T) {
		f := newFixture(t)

		msg, err := f.coordinator.PostChannelMessage(ctx, f.alice, text("hello world"))
		require.NoError(t, err)
		assert.Equal(t, "alice", msg.SenderName)
		assert.NotEmpty(t, msg.ID)

		events := f.registry.recorded()
		require.Len(t, events, 1)
		assert.Equal(t, hub.RoomGlobal, events[0].Room)
		assert.Equal(t, models.EventChannelMessage, events[0].Event.Type)
		assert.Equal(t, msg, events[0].Event.Payload)

		history, err := f.coordinator.RecentChannelMessages(ctx, 10)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, msg.ID, history[0].ID)
	})

	t.Run("sad path - empty content", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.coordinator.PostChannelMessage(ctx, f.alice, text("   "))
		assert.True(t, errors.Is(err, apperrors.ErrEmptyMessage))
		assert.Empty(t, f.registry.recorded(), "nothing unpersisted is delivered")
	})

	t.Run("sad path - content too long", func(t *testing.T) {
		f := newFixture(t)

		long := make([]byte, 101)
		for i := range long {
			long[i] = 'a'
		}
		_, err := f.coordinator.PostChannelMessage(ctx, f.alice, text(string(long)))
		assert.True(t, errors.Is(err, apperrors.ErrMessageTooLong))
	})
}

func TestPostPrivateMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("sad path - not friends", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.coordinator.PostPrivateMessage(ctx, f.alice, f.bob.ID, text("hi"))
		assert.True(t, errors.Is(err, apperrors.ErrNotFriends))
		assert.Empty(t, f.registry.recorded())
	})

	t.Run("happy path - identical call succeeds after accept", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.coordinator.PostPrivateMessage(ctx, f.alice, f.bob.ID, text("hi"))
		require.Error(t, err)

		f.befriend(t, f.alice, f.bob)

		msg, err := f.coordinator.PostPrivateMessage(ctx, f.alice, f.bob.ID, text("hi"))
		require.NoError(t, err)
		assert.Equal(t, f.alice.ID, msg.SenderID)
		assert.NotEmpty(t, msg.ConversationID)
	})

	t.Run("happy path - delivered to receiver and echoed to sender", func(t *testing.T) {
		f := newFixture(t)
		f.befriend(t, f.alice, f.bob)

		msg, err := f.coordinator.PostPrivateMessage(ctx, f.alice, f.bob.ID, text("hi"))
		require.NoError(t, err)

		events := f.registry.recorded()
		require.Len(t, events, 2)
		assert.Equal(t, hub.UserRoom(f.bob.ID), events[0].Room)
		assert.Equal(t, hub.UserRoom(f.alice.ID), events[1].Room)
		for _, e := range events {
			assert.Equal(t, models.EventPrivateMessage, e.Event.Type)
			assert.Equal(t, msg, e.Event.Payload)
		}
	})

	t.Run("happy path - advances the last-message pointer", func(t *testing.T) {
		f := newFixture(t)
		f.befriend(t, f.alice, f.bob)

		msg, err := f.coordinator.PostPrivateMessage(ctx, f.alice, f.bob.ID, text("hi"))
		require.NoError(t, err)

		conv, err := f.db.GetConversation(ctx, msg.ConversationID)
		require.NoError(t, err)
		require.NotNil(t, conv.LastMessageID)
		assert.Equal(t, msg.ID, *conv.LastMessageID)
	})
}

func TestConversationHistory(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path - newest first matches append order", func(t *testing.T) {
		f := newFixture(t)
		f.befriend(t, f.alice, f.bob)

		var convID string
		for i := 0; i < 4; i++ {
			msg, err := f.coordinator.PostPrivateMessage(ctx, f.alice, f.bob.ID, text(fmt.Sprintf("m-%d", i)))
			require.NoError(t, err)
			convID = msg.ConversationID
		}

		history, err := f.coordinator.ConversationHistory(ctx, f.bob, convID, 10)
		require.NoError(t, err)
		require.Len(t, history, 4)
		for i, msg := range history {
			assert.Equal(t, fmt.Sprintf("m-%d", 3-i), msg.Body.Body.(models.TextBody).Content)
		}
	})

	t.Run("sad path - outsider is rejected", func(t *testing.T) {
		f := newFixture(t)
		f.befriend(t, f.alice, f.bob)

		msg, err := f.coordinator.PostPrivateMessage(ctx, f.alice, f.bob.ID, text("secret"))
		require.NoError(t, err)

		_, err = f.coordinator.ConversationHistory(ctx, f.carol, msg.ConversationID, 10)
		assert.True(t, errors.Is(err, apperrors.ErrNotParticipant))
	})

	t.Run("sad path - unknown conversation", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.coordinator.ConversationHistory(ctx, f.alice, uuid.NewString(), 10)
		assert.True(t, errors.Is(err, apperrors.ErrConversationNotFound))
	})
}

func TestDeleteChannelMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("sad path - only the sender may delete", func(t *testing.T) {
		f := newFixture(t)

		msg, err := f.coordinator.PostChannelMessage(ctx, f.alice, text("mine"))
		require.NoError(t, err)

		err = f.coordinator.DeleteChannelMessage(ctx, f.bob, msg.ID)
		assert.True(t, errors.Is(err, apperrors.ErrNotMessageSender))
	})

	t.Run("happy path - removes record and attachment", func(t *testing.T) {
		f := newFixture(t)

		msg, err := f.coordinator.PostChannelMessage(ctx, f.alice, models.MessageContent{
			Body: models.MediaBody{Ref: "blob://x", MimeType: "image/png", Size: 1024},
		})
		require.NoError(t, err)

		// The blob store failing must not fail the delete.
		require.NoError(t, f.coordinator.DeleteChannelMessage(ctx, f.alice, msg.ID))
		assert.Equal(t, []string{"blob://x"}, f.attachments.calls)

		history, err := f.coordinator.RecentChannelMessages(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, history)
	})
}

func TestMarkConversationRead(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.befriend(t, f.alice, f.bob)

	msg, err := f.coordinator.PostPrivateMessage(ctx, f.alice, f.bob.ID, text("unread"))
	require.NoError(t, err)

	n, err := f.coordinator.MarkConversationRead(ctx, f.bob, msg.ConversationID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = f.coordinator.MarkConversationRead(ctx, f.carol, msg.ConversationID)
	assert.True(t, errors.Is(err, apperrors.ErrNotParticipant))
}

// Mirrors the full product flow: request, accept, message, then unfriend
// while history survives.
func TestEndToEndFriendshipAndMessaging(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	req, err := f.friends.SendRequest(ctx, f.alice, f.bob.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FriendStatusPending, req.Status)

	_, err = f.friends.Accept(ctx, req.ID, f.bob)
	require.NoError(t, err)

	msg, err := f.coordinator.PostPrivateMessage(ctx, f.alice, f.bob.ID, text("hello"))
	require.NoError(t, err)

	conv, err := f.db.FindConversationBetween(ctx, f.alice.ID, f.bob.ID)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, msg.ConversationID)

	history, err := f.coordinator.ConversationHistory(ctx, f.bob, conv.ID, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "hello", history[0].Body.Body.(models.TextBody).Content)
	assert.Equal(t, f.alice.ID, history[0].SenderID)

	require.NoError(t, f.friends.RemoveFriend(ctx, f.alice.ID, f.bob.ID))

	// Only the friend-request record is gone; the conversation and its
	// history remain readable.
	history, err = f.coordinator.ConversationHistory(ctx, f.bob, conv.ID, 10)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	_, err = f.coordinator.PostPrivateMessage(ctx, f.alice, f.bob.ID, text("again?"))
	assert.True(t, errors.Is(err, apperrors.ErrNotFriends))
}

func TestOnlineUsers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.registry.online[f.alice.ID] = true

	users, err := f.coordinator.OnlineUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, f.alice.ID, users[0].ID)
	assert.True(t, users[0].Online)
}
