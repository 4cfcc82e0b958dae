package websocket

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
)

// Handler upgrades HTTP requests and attaches them to a hub.
type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHandler creates a handler for hub. Browsers on any origin may subscribe;
// the stream is read-only.
func NewHandler(hub *Hub, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger: logger,
	}
}

// ServeHTTP implements http.Handler
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WarnContext(r.Context(), "WebSocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	client := NewClient(h.hub, connWrapper{conn}, h.logger)
	h.hub.register <- client

	go client.WritePump()
	go client.ReadPump()
}
