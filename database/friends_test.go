package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parley/models"
)

func TestCreateRequest_PairUniqueness(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	require.NoError(t, db.CreateRequest(ctx, newRequest(alice, bob)))

	t.Run("same direction rejected", func(t *testing.T) {
		err := db.CreateRequest(ctx, newRequest(alice, bob))
		require.Error(t, err)
		assert.True(t, IsUniqueViolation(err))
	})

	t.Run("reversed direction rejected", func(t *testing.T) {
		err := db.CreateRequest(ctx, newRequest(bob, alice))
		require.Error(t, err)
		assert.True(t, IsUniqueViolation(err))
	})
}

func TestCreateRequest_ReplacesTerminalRecord(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	first := newRequest(alice, bob)
	require.NoError(t, db.CreateRequest(ctx, first))

	ok, err := db.TransitionRequest(ctx, first.ID, models.FriendStatusPending, models.FriendStatusDeclined)
	require.NoError(t, err)
	require.True(t, ok)

	// A terminal record no longer blocks; the retry replaces it, even from
	// the other side.
	second := newRequest(bob, alice)
	require.NoError(t, db.CreateRequest(ctx, second))

	current, err := db.FindRequestBetween(ctx, alice, bob)
	require.NoError(t, err)
	assert.Equal(t, second.ID, current.ID)
	assert.Equal(t, models.FriendStatusPending, current.Status)
}

func TestTransitionRequest_Conditional(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	req := newRequest(alice, bob)
	require.NoError(t, db.CreateRequest(ctx, req))

	ok, err := db.TransitionRequest(ctx, req.ID, models.FriendStatusPending, models.FriendStatusAccepted)
	require.NoError(t, err)
	assert.True(t, ok)

	// The record left pending; a second responder loses.
	ok, err = db.TransitionRequest(ctx, req.ID, models.FriendStatusPending, models.FriendStatusDeclined)
	require.NoError(t, err)
	assert.False(t, ok)

	current, err := db.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FriendStatusAccepted, current.Status)
}

func TestListFriendsAndPending(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	carol := seedUser(t, db, "carol")

	accepted := newRequest(alice, bob)
	require.NoError(t, db.CreateRequest(ctx, accepted))
	_, err := db.TransitionRequest(ctx, accepted.ID, models.FriendStatusPending, models.FriendStatusAccepted)
	require.NoError(t, err)

	require.NoError(t, db.CreateRequest(ctx, newRequest(carol, alice)))

	t.Run("friends projected to other participant", func(t *testing.T) {
		friendsOfAlice, err := db.ListFriends(ctx, alice)
		require.NoError(t, err)
		require.Len(t, friendsOfAlice, 1)
		assert.Equal(t, bob, friendsOfAlice[0].User.ID)

		friendsOfBob, err := db.ListFriends(ctx, bob)
		require.NoError(t, err)
		require.Len(t, friendsOfBob, 1)
		assert.Equal(t, alice, friendsOfBob[0].User.ID)
	})

	t.Run("pending lists receiver side only", func(t *testing.T) {
		pending, err := db.ListPendingFor(ctx, alice)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, carol, pending[0].Sender.ID)
		assert.Equal(t, "carol", pending[0].Sender.DisplayName)

		pending, err = db.ListPendingFor(ctx, carol)
		require.NoError(t, err)
		assert.Empty(t, pending)
	})
}

func TestDeleteAcceptedBetween(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	req := newRequest(alice, bob)
	require.NoError(t, db.CreateRequest(ctx, req))

	ok, err := db.DeleteAcceptedBetween(ctx, alice, bob)
	require.NoError(t, err)
	assert.False(t, ok, "pending record is not a friendship")

	_, err = db.TransitionRequest(ctx, req.ID, models.FriendStatusPending, models.FriendStatusAccepted)
	require.NoError(t, err)

	areFriends, err := db.AreFriends(ctx, bob, alice)
	require.NoError(t, err)
	assert.True(t, areFriends)

	ok, err = db.DeleteAcceptedBetween(ctx, bob, alice)
	require.NoError(t, err)
	assert.True(t, ok)

	areFriends, err = db.AreFriends(ctx, alice, bob)
	require.NoError(t, err)
	assert.False(t, areFriends)

	_, err = db.FindRequestBetween(ctx, alice, bob)
	assert.True(t, IsNotFound(err))
}
