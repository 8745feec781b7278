package ws

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/wyvern0us/proxy/internal/chat"
	"github.com/wyvern0us/proxy/internal/infrastructure/logging"
	"github.com/wyvern0us/proxy/internal/infrastructure/monitoring"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

// client couples one websocket connection to one hub session.
type client struct {
	conn    *websocket.Conn
	session *chat.Session
	hub     *chat.Hub
	logger  *logging.Logger
	metrics *monitoring.Metrics
}

// readPump pumps inbound payloads from the connection into the hub. It runs
// on the connection's handler goroutine; returning triggers teardown.
func (c *client) readPump() {
	defer func() {
		c.hub.Leave(c.session)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("WebSocket read error",
					zap.String("conn_id", c.session.ID().String()),
					zap.Error(err),
				)
			}
			return
		}

		var inbound chat.Inbound
		if err := json.Unmarshal(raw, &inbound); err != nil {
			// Unparseable framing: drop, keep the connection.
			c.logger.Debug("Dropping malformed payload",
				zap.String("conn_id", c.session.ID().String()),
				zap.Error(err),
			)
			continue
		}

		switch inbound.Type {
		case chat.TypeMessage:
			if c.metrics != nil {
				c.metrics.RecordWSMessage("in", chat.TypeMessage)
			}
			if _, err := c.hub.Post(inbound.User, inbound.Text, inbound.Color); err != nil {
				if errors.Is(err, chat.ErrHubClosed) {
					return
				}
				// Missing text: drop silently, the sender is not notified.
				c.logger.Debug("Dropping invalid message",
					zap.String("conn_id", c.session.ID().String()),
					zap.Error(err),
				)
			}
		default:
			// Unknown tags fall through to a no-op.
			if c.metrics != nil {
				c.metrics.RecordWSMessage("in", "unknown")
			}
		}
	}
}

// writePump pumps hub payloads to the connection and keeps it alive with
// pings. One goroutine per connection; the hub closing the session's channel
// shuts the pump down.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.session.Receive():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub released the session.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
