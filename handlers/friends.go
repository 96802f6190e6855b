package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"parley/auth"
	"parley/friends"
	"parley/middleware"
	"parley/models"
	apperrors "parley/pkg/errors"
)

// FriendAPI exposes the friend-request state machine over HTTP.
type FriendAPI struct {
	Coordinator *friends.Coordinator
}

type createRequestBody struct {
	ReceiverID string `json:"receiver_id"`
}

func identity(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id, ok := middleware.IdentityFromContext(r)
	if !ok {
		writeError(w, apperrors.ErrInvalidCredential)
	}
	return id, ok
}

// Create handles create-friend-request.
func (api *FriendAPI) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}

	var body createRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ReceiverID == "" {
		writeError(w, apperrors.InvalidArg("receiver_id is required"))
		return
	}

	req, err := api.Coordinator.SendRequest(r.Context(), actor, body.ReceiverID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, req)
}

// Accept handles respond-to-friend-request(accept).
func (api *FriendAPI) Accept(w http.ResponseWriter, r *http.Request) {
	api.respond(w, r, api.Coordinator.Accept)
}

// Decline handles respond-to-friend-request(decline).
func (api *FriendAPI) Decline(w http.ResponseWriter, r *http.Request) {
	api.respond(w, r, api.Coordinator.Decline)
}

// Cancel handles respond-to-friend-request(cancel).
func (api *FriendAPI) Cancel(w http.ResponseWriter, r *http.Request) {
	api.respond(w, r, api.Coordinator.Cancel)
}

func (api *FriendAPI) respond(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, requestID string, actor auth.Identity) (*models.FriendRequest, error)) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}

	requestID := mux.Vars(r)["id"]
	req, err := op(r.Context(), requestID, actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, req)
}

// ListPending handles list-pending.
func (api *FriendAPI) ListPending(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}

	requests, err := api.Coordinator.ListPending(r.Context(), actor.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, requests)
}

// ListFriends handles list-friends.
func (api *FriendAPI) ListFriends(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}

	list, err := api.Coordinator.ListFriends(r.Context(), actor.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, list)
}

// Remove handles remove-friend.
func (api *FriendAPI) Remove(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity(w, r)
	if !ok {
		return
	}

	otherID := mux.Vars(r)["userId"]
	if err := api.Coordinator.RemoveFriend(r.Context(), actor.ID, otherID); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]string{"message": "friend removed"})
}
