package models

// Event is the envelope for every frame crossing a live connection,
// in both directions.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// Outbound event types.
const (
	EventChannelMessage  = "channel-message-received"
	EventPrivateMessage  = "private-message-received"
	EventUserOnline      = "user-online"
	EventUserOffline     = "user-offline"
	EventTyping          = "typing"
	EventOperationFailed = "operation-failed"
)

// Inbound event types.
const (
	EventSendChannelMessage = "send-channel-message"
	EventSendPrivateMessage = "send-private-message"
	EventSendTyping         = "typing"
)

// OperationFailedPayload reports a rejected inbound event back to the
// originating connection only.
type OperationFailedPayload struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// PresencePayload is broadcast best-effort when a user's first connection
// arrives or last connection leaves.
type PresencePayload struct {
	UserID string `json:"user_id"`
}

// TypingPayload is relayed without persistence.
type TypingPayload struct {
	UserID string `json:"user_id"`
	Typing bool   `json:"typing"`
}
