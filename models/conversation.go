package models

import "time"

// Conversation is the single record for a 1:1 private channel. The
// participant pair is stored in canonical (lexicographic) order so the
// uniqueness constraint holds regardless of who messaged first.
type Conversation struct {
	ID            string     `json:"id"`
	UserA         string     `json:"user_a"`
	UserB         string     `json:"user_b"`
	LastMessageID *string    `json:"last_message_id,omitempty"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// CanonicalPair orders two user ids deterministically.
func CanonicalPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

// HasParticipant reports whether userID belongs to the conversation.
func (c *Conversation) HasParticipant(userID string) bool {
	return c.UserA == userID || c.UserB == userID
}

// OtherParticipant returns the participant that is not userID.
func (c *Conversation) OtherParticipant(userID string) string {
	if c.UserA == userID {
		return c.UserB
	}
	return c.UserA
}

// ConversationSummary is a conversation joined with the counterpart user and
// the caller's unread count, as returned by the listing operation.
type ConversationSummary struct {
	Conversation
	Other       PublicUser `json:"other"`
	UnreadCount int        `json:"unread_count"`
}
