package ws

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/wyvern0us/proxy/internal/chat"
	"github.com/wyvern0us/proxy/internal/infrastructure/logging"
	"github.com/wyvern0us/proxy/internal/infrastructure/monitoring"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The desktop is served cross-origin from the same process; CORS is
		// enforced at the router layer.
		return true
	},
}

// Handler upgrades HTTP requests into hub sessions.
type Handler struct {
	hub     *chat.Hub
	logger  *logging.Logger
	metrics *monitoring.Metrics
}

// NewHandler creates a WebSocket handler bound to a hub.
func NewHandler(hub *chat.Hub, logger *logging.Logger) *Handler {
	return &Handler{
		hub:    hub,
		logger: logger,
	}
}

// WithMetrics attaches a metrics collector.
func (h *Handler) WithMetrics(m *monitoring.Metrics) *Handler {
	h.metrics = m
	return h
}

// HandleConnection upgrades the request and runs the session pumps. Blocks
// until the connection closes.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	session, err := h.hub.Join()
	if err != nil {
		h.logger.Warn("Join rejected", zap.Error(err))
		conn.Close()
		return
	}

	cl := &client{
		conn:    conn,
		session: session,
		hub:     h.hub,
		logger:  h.logger,
		metrics: h.metrics,
	}

	go cl.writePump()
	cl.readPump()
}
