package realtime

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"thriftstore/internal/common"
	"thriftstore/internal/logger"
)

type Handler struct {
	hub      *Hub
	tokens   *common.TokenManager
	upgrader websocket.Upgrader
}

func NewHandler(hub *Hub, tokens *common.TokenManager) *Handler {
	return &Handler{
		hub:    hub,
		tokens: tokens,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// mobile clients send no Origin header
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/ws", h.ServeWS).Methods(http.MethodGet)
}

// ServeWS authenticates with the bearer header or the token query parameter,
// then upgrades the connection.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token, ok := common.BearerToken(r)
	if !ok {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		common.WriteErrorMessage(w, http.StatusUnauthorized, "authorization required")
		return
	}
	claims, err := h.tokens.Validate(token)
	if err != nil {
		common.WriteErrorMessage(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	client := newClient(h.hub, conn, claims.UserID)
	h.hub.register(client)

	go client.writePump()
	go client.readPump()
}
