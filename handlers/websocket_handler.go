package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/Dosada05/event-portal/realtime"
)

type WebSocketHandler struct {
	hub      *realtime.Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewWebSocketHandler создает обработчик. Пустой allowedOrigins или "*" разрешает любой Origin.
func NewWebSocketHandler(hub *realtime.Hub, allowedOrigins []string, logger *slog.Logger) *WebSocketHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &WebSocketHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || len(allowed) == 0 || allowed["*"] || allowed[origin]
			},
		},
		logger: logger,
	}
}

// ServeNotifications godoc
// @Summary Поток уведомлений пользователя
// @Tags notifications
// @Description WebSocket: уведомления и изменения состояния регистрации. Токен передается в ?token=.
// @Param token query string true "Bearer token"
// @Success 101
// @Failure 401 {object} map[string]string "Неавторизован"
// @Router /ws/notifications [get]
func (h *WebSocketHandler) ServeNotifications(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам отвечает клиенту
		h.logger.Warn("failed to upgrade websocket", slog.String("user_id", identity.ID), slog.Any("error", err))
		return
	}

	room := realtime.UserRoom(identity.ID)
	h.hub.Register(realtime.NewClient(h.hub, conn, room))
	h.logger.Debug("websocket client connected", slog.String("room", room))
}
