package friends

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"parley/auth"
	"parley/database"
	"parley/models"
	apperrors "parley/pkg/errors"
)

// Coordinator drives the friend-request state machine:
// none -> pending -> accepted | declined | cancelled, with accepted -> none
// through RemoveFriend. At most one record exists per unordered pair; the
// storage layer's unique index is the correctness backstop, the read-first
// checks here only produce friendlier conflict answers.
type Coordinator struct {
	db     *database.DB
	logger zerolog.Logger
}

func New(db *database.DB, logger zerolog.Logger) *Coordinator {
	return &Coordinator{db: db, logger: logger}
}

// SendRequest proposes a friendship. Terminal (declined/cancelled) records
// for the pair do not block; pending or accepted ones do, each with its own
// conflict answer.
func (c *Coordinator) SendRequest(ctx context.Context, sender auth.Identity, receiverID string) (*models.FriendRequest, error) {
	if sender.ID == receiverID {
		return nil, apperrors.ErrSelfRequest
	}

	exists, err := c.db.UserExists(ctx, receiverID)
	if err != nil {
		return nil, c.storage("check receiver", err)
	}
	if !exists {
		return nil, apperrors.ErrUserNotFound
	}

	existing, err := c.db.FindRequestBetween(ctx, sender.ID, receiverID)
	if err != nil && !database.IsNotFound(err) {
		return nil, c.storage("lookup relationship", err)
	}
	if existing != nil && !existing.Status.Terminal() {
		return nil, c.conflictFor(existing, sender.ID)
	}

	now := time.Now().UTC()
	req := &models.FriendRequest{
		ID:         uuid.NewString(),
		SenderID:   sender.ID,
		ReceiverID: receiverID,
		Status:     models.FriendStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := c.db.CreateRequest(ctx, req); err != nil {
		if database.IsUniqueViolation(err) {
			// Raced another proposal for the same pair; answer from the
			// record that won.
			winner, ferr := c.db.FindRequestBetween(ctx, sender.ID, receiverID)
			if ferr == nil && winner != nil {
				return nil, c.conflictFor(winner, sender.ID)
			}
			return nil, apperrors.AlreadyExists("a relationship already exists with this user")
		}
		return nil, c.storage("create request", err)
	}

	c.logger.Info().
		Str("request_id", req.ID).
		Str("sender_id", sender.ID).
		Str("receiver_id", receiverID).
		Msg("friend request created")
	return req, nil
}

func (c *Coordinator) conflictFor(existing *models.FriendRequest, callerID string) error {
	switch existing.Status {
	case models.FriendStatusAccepted:
		return apperrors.ErrAlreadyFriends
	case models.FriendStatusPending:
		if existing.SenderID == callerID {
			return apperrors.ErrRequestPending
		}
		return apperrors.ErrRequestIncoming
	default:
		return apperrors.AlreadyExists("a relationship already exists with this user")
	}
}

// Accept transitions a pending request, receiver only.
func (c *Coordinator) Accept(ctx context.Context, requestID string, actor auth.Identity) (*models.FriendRequest, error) {
	return c.respond(ctx, requestID, actor, models.FriendStatusAccepted)
}

// Decline transitions a pending request, receiver only.
func (c *Coordinator) Decline(ctx context.Context, requestID string, actor auth.Identity) (*models.FriendRequest, error) {
	return c.respond(ctx, requestID, actor, models.FriendStatusDeclined)
}

// Cancel withdraws a pending request, sender only.
func (c *Coordinator) Cancel(ctx context.Context, requestID string, actor auth.Identity) (*models.FriendRequest, error) {
	return c.respond(ctx, requestID, actor, models.FriendStatusCancelled)
}

func (c *Coordinator) respond(ctx context.Context, requestID string, actor auth.Identity, to models.FriendRequestStatus) (*models.FriendRequest, error) {
	req, err := c.db.GetRequest(ctx, requestID)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperrors.ErrRequestNotFound
		}
		return nil, c.storage("load request", err)
	}

	if to == models.FriendStatusCancelled {
		if req.SenderID != actor.ID {
			return nil, apperrors.ErrNotSender
		}
	} else if req.ReceiverID != actor.ID {
		return nil, apperrors.ErrNotReceiver
	}

	if req.Status != models.FriendStatusPending {
		return nil, apperrors.ErrNotPending
	}

	ok, err := c.db.TransitionRequest(ctx, requestID, models.FriendStatusPending, to)
	if err != nil {
		return nil, c.storage("transition request", err)
	}
	if !ok {
		// Lost a race with another responder.
		return nil, apperrors.ErrNotPending
	}

	req.Status = to
	req.UpdatedAt = time.Now().UTC()
	c.logger.Info().
		Str("request_id", requestID).
		Str("actor_id", actor.ID).
		Str("status", string(to)).
		Msg("friend request transitioned")
	return req, nil
}

// ListPending returns pending requests addressed to userID.
func (c *Coordinator) ListPending(ctx context.Context, userID string) ([]models.PendingRequest, error) {
	requests, err := c.db.ListPendingFor(ctx, userID)
	if err != nil {
		return nil, c.storage("list pending", err)
	}
	if requests == nil {
		requests = []models.PendingRequest{}
	}
	return requests, nil
}

// ListFriends returns userID's accepted relationships projected to the
// other participant.
func (c *Coordinator) ListFriends(ctx context.Context, userID string) ([]models.Friend, error) {
	friends, err := c.db.ListFriends(ctx, userID)
	if err != nil {
		return nil, c.storage("list friends", err)
	}
	if friends == nil {
		friends = []models.Friend{}
	}
	return friends, nil
}

// RemoveFriend deletes the accepted record between two users. This is the
// only path from accepted back to none, and it frees the pair for a future
// proposal.
func (c *Coordinator) RemoveFriend(ctx context.Context, userID, otherID string) error {
	ok, err := c.db.DeleteAcceptedBetween(ctx, userID, otherID)
	if err != nil {
		return c.storage("remove friend", err)
	}
	if !ok {
		return apperrors.ErrFriendshipMissing
	}
	c.logger.Info().Str("user_id", userID).Str("other_id", otherID).Msg("friendship removed")
	return nil
}

// AreFriends reports whether exactly one accepted record joins the pair.
func (c *Coordinator) AreFriends(ctx context.Context, userA, userB string) (bool, error) {
	ok, err := c.db.AreFriends(ctx, userA, userB)
	if err != nil {
		return false, c.storage("friendship check", err)
	}
	return ok, nil
}

func (c *Coordinator) storage(op string, err error) error {
	c.logger.Error().Err(err).Str("op", op).Msg("storage failure")
	return apperrors.Wrap(apperrors.CodeInternal, "storage failure", err)
}
