package handlers

import (
	"net/http"
	"time"

	"moodsync/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const maxListenerMessage = 512

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // single-user app, any origin may watch
	},
}

// WebSocketHandler streams stored check-ins to live listeners
type WebSocketHandler struct {
	hub      *services.Hub
	pongWait time.Duration
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(hub *services.Hub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, pongWait: services.PongWait}
}

// HandleWebSocket handles GET /api/ws
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	// Pongs answer the hub's pings; a listener that stays silent past
	// pongWait is treated as gone.
	conn.SetReadLimit(maxListenerMessage)
	conn.SetReadDeadline(time.Now().Add(h.pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.pongWait))
	})

	id := h.hub.Register(conn)
	defer h.hub.Unregister(id)

	// The feed is one-way; reading only detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Int("listener", id).Msg("WebSocket error")
			}
			return
		}
	}
}
