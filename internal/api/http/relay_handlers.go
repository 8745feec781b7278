package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wyvern0us/proxy/internal/relay"
)

// Proxy fetches an arbitrary URL on behalf of the frontend and returns the
// body with framing restrictions rewritten so it can render inside an iframe.
func (h *Handlers) Proxy(c *gin.Context) {
	targetURL := c.Query("url")

	result, err := h.relay.Fetch(c.Request.Context(), targetURL)
	if err != nil {
		status := relayStatus(err)
		c.JSON(status, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	h.relay.Policy().Apply(c.Writer.Header())
	c.Data(result.StatusCode, contentTypeOrDefault(result.ContentType), result.Body)
}

// relayStatus maps relay sentinel errors onto HTTP status codes.
func relayStatus(err error) int {
	switch {
	case errors.Is(err, relay.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, relay.ErrUpstreamTimeout):
		return http.StatusGatewayTimeout
	default:
		// Unreachable upstreams and oversized bodies both read as a failed
		// gateway hop from the frontend's perspective.
		return http.StatusBadGateway
	}
}

func contentTypeOrDefault(ct string) string {
	if ct == "" {
		return "application/octet-stream"
	}
	return ct
}
