package models

import "time"

// ChannelMessage is a broadcast message on the global channel. The sender
// display name is denormalized at write time so history survives renames.
type ChannelMessage struct {
	ID         string         `json:"id"`
	SenderID   string         `json:"sender_id"`
	SenderName string         `json:"sender_name"`
	Body       MessageContent `json:"body"`
	SentAt     time.Time      `json:"sent_at"`
}

// PrivateMessage is scoped to a Conversation. The read receipt is the only
// mutation ever applied after the append.
type PrivateMessage struct {
	ID             string         `json:"id"`
	ConversationID string         `json:"conversation_id"`
	SenderID       string         `json:"sender_id"`
	Body           MessageContent `json:"body"`
	Read           bool           `json:"read"`
	ReadAt         *time.Time     `json:"read_at,omitempty"`
	SentAt         time.Time      `json:"sent_at"`
}
