package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"parley/auth"
	"parley/chat"
	"parley/hub"
	"parley/middleware"
	apperrors "parley/pkg/errors"
)

// WebSocketAPI admits persistent connections. The credential is verified
// before the upgrade; an anonymous caller never reaches the registry.
type WebSocketAPI struct {
	Hub          *hub.Hub
	Verifier     auth.Verifier
	Coordinator  *chat.Coordinator
	SendBuffer   int
	WriteTimeout time.Duration
	Logger       zerolog.Logger

	upgrader websocket.Upgrader
}

func NewWebSocketAPI(h *hub.Hub, verifier auth.Verifier, coordinator *chat.Coordinator, sendBuffer int, handshakeTimeout, writeTimeout time.Duration, logger zerolog.Logger) *WebSocketAPI {
	return &WebSocketAPI{
		Hub:          h,
		Verifier:     verifier,
		Coordinator:  coordinator,
		SendBuffer:   sendBuffer,
		WriteTimeout: writeTimeout,
		Logger:       logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
			HandshakeTimeout: handshakeTimeout,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Handle upgrades an authenticated request into a live connection and runs
// its pumps until termination.
func (api *WebSocketAPI) Handle(w http.ResponseWriter, r *http.Request) {
	identity, err := api.Verifier.Verify(middleware.BearerToken(r))
	if err != nil {
		writeError(w, apperrors.ErrInvalidCredential)
		return
	}

	conn, err := api.upgrader.Upgrade(w, r, nil)
	if err != nil {
		api.Logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := hub.NewClient(api.Hub, conn, identity, api.Coordinator, api.SendBuffer, api.WriteTimeout)
	api.Hub.Register(client)

	go client.Run()
}
