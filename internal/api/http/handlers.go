package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wyvern0us/proxy/internal/auth"
	"github.com/wyvern0us/proxy/internal/chat"
	"github.com/wyvern0us/proxy/internal/infrastructure/logging"
	"github.com/wyvern0us/proxy/internal/relay"
)

// ServiceVersion is reported by the root and health endpoints.
const ServiceVersion = "0.3.0"

// Handlers contains all HTTP handlers.
type Handlers struct {
	relay  *relay.Relay
	hub    *chat.Hub
	store  *auth.Store
	tokens *auth.TokenIssuer
	logger *logging.Logger
}

// NewHandlers creates a new handler set.
func NewHandlers(
	relay *relay.Relay,
	hub *chat.Hub,
	store *auth.Store,
	tokens *auth.TokenIssuer,
	logger *logging.Logger,
) *Handlers {
	return &Handlers{
		relay:  relay,
		hub:    hub,
		store:  store,
		tokens: tokens,
		logger: logger,
	}
}

// Root handles the service banner.
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "Shared Desktop Service (Go)",
		"version": ServiceVersion,
	})
}

// Health handles detailed health check.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"version": ServiceVersion,
		"hub": gin.H{
			"history_length": h.hub.History().Len(),
		},
		"auth": gin.H{"enabled": h.store != nil},
	})
}
