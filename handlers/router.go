package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"parley/auth"
	"parley/middleware"
)

// NewRouter wires the HTTP surface. The websocket endpoint sits outside the
// logging middleware because the upgrade needs the raw response writer.
func NewRouter(friendAPI *FriendAPI, chatAPI *ChatAPI, wsAPI *WebSocketAPI, verifier auth.Verifier, logger zerolog.Logger) *mux.Router {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.RequestLogger(logger))
	api.Use(middleware.Auth(verifier))

	api.HandleFunc("/friends/requests", friendAPI.Create).Methods(http.MethodPost)
	api.HandleFunc("/friends/requests", friendAPI.ListPending).Methods(http.MethodGet)
	api.HandleFunc("/friends/requests/{id}/accept", friendAPI.Accept).Methods(http.MethodPost)
	api.HandleFunc("/friends/requests/{id}/decline", friendAPI.Decline).Methods(http.MethodPost)
	api.HandleFunc("/friends/requests/{id}/cancel", friendAPI.Cancel).Methods(http.MethodPost)
	api.HandleFunc("/friends", friendAPI.ListFriends).Methods(http.MethodGet)
	api.HandleFunc("/friends/{userId}", friendAPI.Remove).Methods(http.MethodDelete)

	api.HandleFunc("/conversations", chatAPI.ListConversations).Methods(http.MethodGet)
	api.HandleFunc("/conversations/{id}/messages", chatAPI.ConversationHistory).Methods(http.MethodGet)
	api.HandleFunc("/conversations/{id}/read", chatAPI.MarkConversationRead).Methods(http.MethodPost)
	api.HandleFunc("/channel/messages", chatAPI.RecentChannelMessages).Methods(http.MethodGet)
	api.HandleFunc("/channel/messages", chatAPI.PostChannelMessage).Methods(http.MethodPost)
	api.HandleFunc("/channel/messages/{id}", chatAPI.DeleteChannelMessage).Methods(http.MethodDelete)
	api.HandleFunc("/users/online", chatAPI.OnlineUsers).Methods(http.MethodGet)

	r.HandleFunc("/ws", wsAPI.Handle)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
