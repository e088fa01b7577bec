package handler

import (
	"net/http"
	"strings"

	"resolvenow/backend/internal/apperr"
	"resolvenow/backend/internal/chathub"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

func (h *Handler) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.origins) == 0 || containsWildcard(h.origins) {
		return true
	}
	for _, o := range h.origins {
		if strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

// ServeWebSocket upgrades an authenticated request to the event stream.
// Browsers cannot set headers on the handshake, so the token comes in ?token=.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		h.fail(c, apperr.Unauthorized("authorization token missing"))
		return
	}
	cl, err := h.Auth.Authenticate(c.Request.Context(), token)
	if err != nil {
		h.fail(c, err)
		return
	}

	up := h.upgrader()
	conn, err := up.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the error response.
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := chathub.NewWebSocketClient(h.Hub, conn, cl.UserID, h.log)
	if !h.Hub.Register(client) {
		conn.Close()
		return
	}
	client.Run()
}
