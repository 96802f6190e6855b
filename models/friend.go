package models

import "time"

// FriendRequestStatus represents the lifecycle state of a friend request.
type FriendRequestStatus string

const (
	FriendStatusPending   FriendRequestStatus = "pending"
	FriendStatusAccepted  FriendRequestStatus = "accepted"
	FriendStatusDeclined  FriendRequestStatus = "declined"
	FriendStatusCancelled FriendRequestStatus = "cancelled"
)

// Terminal reports whether the status ends the request lifecycle. A terminal
// record no longer blocks a fresh proposal between the same pair.
func (s FriendRequestStatus) Terminal() bool {
	return s == FriendStatusDeclined || s == FriendStatusCancelled
}

// FriendRequest is a directed relationship proposal. At most one record
// exists per unordered user pair at any time.
type FriendRequest struct {
	ID         string              `json:"id"`
	SenderID   string              `json:"sender_id"`
	ReceiverID string              `json:"receiver_id"`
	Status     FriendRequestStatus `json:"status"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

// Involves reports whether userID is either participant.
func (r *FriendRequest) Involves(userID string) bool {
	return r.SenderID == userID || r.ReceiverID == userID
}

// Other returns the participant that is not userID.
func (r *FriendRequest) Other(userID string) string {
	if r.SenderID == userID {
		return r.ReceiverID
	}
	return r.SenderID
}

// PendingRequest is a pending friend request joined with its sender,
// as returned by the list-pending operation.
type PendingRequest struct {
	FriendRequest
	Sender PublicUser `json:"sender"`
}

// Friend projects an accepted friendship to the other participant.
type Friend struct {
	User  PublicUser `json:"user"`
	Since time.Time  `json:"since"`
}
