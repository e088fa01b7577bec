package chathub

import (
	"encoding/json"
	"sync"
	"time"

	"resolvenow/backend/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 256
)

// WebSocketClient implements chathub.Client over a gorilla/websocket connection.
// The stream is push-only: anything the browser sends is ignored.
type WebSocketClient struct {
	ID     string
	UserID string
	Conn   *websocket.Conn
	Hub    *ManagerService
	Send   chan models.Event

	closeOnce sync.Once
	log       *zap.Logger
}

func NewWebSocketClient(hub *ManagerService, conn *websocket.Conn, userID string, log *zap.Logger) *WebSocketClient {
	return &WebSocketClient{
		ID:     uuid.NewString(),
		UserID: userID,
		Conn:   conn,
		Hub:    hub,
		Send:   make(chan models.Event, sendBuffer),
		log:    log,
	}
}

func (c *WebSocketClient) GetID() string                       { return c.ID }
func (c *WebSocketClient) GetUserID() string                   { return c.UserID }
func (c *WebSocketClient) GetSendChannel() chan<- models.Event { return c.Send }

func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

// Close stops writePump, which closes the connection.
func (c *WebSocketClient) Close() {
	c.closeOnce.Do(func() { close(c.Send) })
}

// readPump keeps the read deadline fresh and notices when the peer goes away.
func (c *WebSocketClient) readPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Debug("websocket read failed", zap.String("client_id", c.ID), zap.Error(err))
			}
			return
		}
	}
}

// writePump writes queued events, one frame each, and pings the peer.
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// hub closed the channel
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.write(ev); err != nil {
				return
			}

			// drain what queued up meanwhile
			n := len(c.Send)
			for i := 0; i < n; i++ {
				next, ok := <-c.Send
				if !ok {
					c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}
				if err := c.write(next); err != nil {
					return
				}
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *WebSocketClient) write(ev models.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		c.log.Warn("encode event failed", zap.String("client_id", c.ID), zap.Error(err))
		return nil
	}
	return c.Conn.WriteMessage(websocket.TextMessage, data)
}
