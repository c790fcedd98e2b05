package http

import (
	"context"
	"log/slog"
	"net/http"

	"pairchat/infrastructure/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type WSHandler struct {
	log      *slog.Logger
	relay    *ws.Relay
	upgrader websocket.Upgrader
}

func NewWSHandler(log *slog.Logger, relay *ws.Relay) *WSHandler {
	return &WSHandler{
		log:   log,
		relay: relay,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Serve upgrades the request and hands the connection to the relay, which
// runs the handshake and message loop until the peer goes away. The relay
// gets a fresh context: the hijacked connection outlives the HTTP request.
func (h *WSHandler) Serve(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "remote", c.Request.RemoteAddr, "error", err)
		return
	}
	h.relay.HandleConn(context.Background(), conn)
}
