package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"parley/chat"
	"parley/models"
	apperrors "parley/pkg/errors"
)

// ChatAPI exposes the messaging coordinator over HTTP.
type ChatAPI struct {
	Coordinator *chat.Coordinator
}

type postMessageBody struct {
	Content    string            `json:"content"`
	Attachment *models.MediaBody `json:"attachment,omitempty"`
}

func (b postMessageBody) toContent() models.MessageContent {
	if b.Attachment != nil {
		return models.MessageContent{Body: *b.Attachment}
	}
	return models.MessageContent{Body: models.TextBody{Content: b.Content}}
}

func limitParam(r *http.Request) int {
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil {
			return parsed
		}
	}
	return 0
}

// PostChannelMessage handles post-channel-message.
func (api *ChatAPI) PostChannelMessage(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}

	var body postMessageBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperrors.InvalidArg("invalid request body"))
		return
	}

	msg, err := api.Coordinator.PostChannelMessage(r.Context(), actor, body.toContent())
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, msg)
}

// RecentChannelMessages handles get-recent-channel-messages.
func (api *ChatAPI) RecentChannelMessages(w http.ResponseWriter, r *http.Request) {
	if _, ok := identity(w, r); !ok {
		return
	}

	messages, err := api.Coordinator.RecentChannelMessages(r.Context(), limitParam(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, messages)
}

// DeleteChannelMessage handles delete-channel-message.
func (api *ChatAPI) DeleteChannelMessage(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}

	messageID := mux.Vars(r)["id"]
	if err := api.Coordinator.DeleteChannelMessage(r.Context(), actor, messageID); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]string{"message": "message deleted"})
}

// ListConversations handles list-conversations.
func (api *ChatAPI) ListConversations(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}

	conversations, err := api.Coordinator.ListConversations(r.Context(), actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, conversations)
}

// ConversationHistory handles get-conversation-history.
func (api *ChatAPI) ConversationHistory(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}

	conversationID := mux.Vars(r)["id"]
	messages, err := api.Coordinator.ConversationHistory(r.Context(), actor, conversationID, limitParam(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, messages)
}

// MarkConversationRead handles mark-conversation-read.
func (api *ChatAPI) MarkConversationRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}

	conversationID := mux.Vars(r)["id"]
	n, err := api.Coordinator.MarkConversationRead(r.Context(), actor, conversationID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]int64{"marked_read": n})
}

// OnlineUsers handles list-online-users.
func (api *ChatAPI) OnlineUsers(w http.ResponseWriter, r *http.Request) {
	if _, ok := identity(w, r); !ok {
		return
	}

	users, err := api.Coordinator.OnlineUsers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, users)
}
