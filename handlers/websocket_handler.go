package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"slices"

	"github.com/gorilla/websocket"

	"github.com/Dosada05/promotion-results/live"
)

type WebSocketHandler struct {
	hub      *live.Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewWebSocketHandler accepts connections from allowedOrigins; "*" allows any origin.
func NewWebSocketHandler(hub *live.Hub, allowedOrigins []string, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

// ServeAnnouncements streams announcements to the client. With ?championship_id= the
// client only hears about that championship.
func (h *WebSocketHandler) ServeAnnouncements(w http.ResponseWriter, r *http.Request) {
	room := live.AnnouncementsRoom
	if r.URL.Query().Get("championship_id") != "" {
		championshipID, err := getIntQuery(r, "championship_id", 0)
		if err == nil && championshipID == 0 {
			err = errors.New("invalid championship_id: must be positive")
		}
		if err != nil {
			badRequestResponse(w, r, err)
			return
		}
		room = live.ChampionshipRoom(championshipID)
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade уже отправил клиенту HTTP ошибку.
		h.logger.Warn("websocket upgrade failed", slog.String("room", room), slog.Any("error", err))
		return
	}

	client := &live.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256),
		Room: room,
	}
	client.Hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
