// internal/api/handler/ws.go
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"privatepay-relay/internal/notify"

	"github.com/gorilla/websocket"
)

const wsWriteWait = 10 * time.Second

// BalanceStreamHandler streams balance-changed events to websocket clients,
// replacing the UI's ambient event dispatch with a server-side observer.
type BalanceStreamHandler struct {
	hub      *notify.Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewBalanceStreamHandler creates a new BalanceStreamHandler.
func NewBalanceStreamHandler(hub *notify.Hub, logger *slog.Logger) *BalanceStreamHandler {
	return &BalanceStreamHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Stream upgrades the connection and forwards balance events for the
// requested username (all usernames when the parameter is absent).
// GET /ws/balance?username=
func (h *BalanceStreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("Websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	events, cancel := h.hub.Subscribe(username)
	defer cancel()

	// Drain client frames so close messages are processed; the stream is
	// one-directional otherwise.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	for ev := range events {
		conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(ev); err != nil {
			return
		}
	}
}
