package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dom/task-tracker/internal/api/middleware"
	"github.com/dom/task-tracker/internal/api/response"
	"github.com/dom/task-tracker/internal/domain"
	"github.com/dom/task-tracker/internal/websocket"
	ws "github.com/gorilla/websocket"
)

type WebSocketHandler struct {
	hub           *websocket.Hub
	authenticator middleware.Authenticator
	upgrader      ws.Upgrader
}

func NewWebSocketHandler(hub *websocket.Hub, authenticator middleware.Authenticator, allowedOrigins []string) *WebSocketHandler {
	return &WebSocketHandler{
		hub:           hub,
		authenticator: authenticator,
		upgrader: ws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || middleware.OriginAllowed(allowedOrigins, origin)
			},
		},
	}
}

// Handle upgrades an authenticated request to the caller's task event
// stream. Browsers cannot set headers on websocket requests, so the token
// may also be passed as ?token=.
func (h *WebSocketHandler) Handle(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.BearerToken(r)
	if !ok {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		response.Error(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	userID, err := h.authenticator.Authenticate(r.Context(), token)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			response.Error(w, http.StatusUnauthorized, "unauthenticated")
			return
		}
		writeError(w, r, err, "Not found")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.WarnContext(r.Context(), "websocket upgrade failed", "error", err)
		return
	}

	client := websocket.NewClient(h.hub, conn, userID)

	// The greeting goes to this connection only, ahead of any task event.
	if msg, err := websocket.NewMessage(websocket.MessageTypeConnected, websocket.ConnectedPayload{UserID: userID.String()}); err == nil {
		client.Queue(msg)
	}
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
