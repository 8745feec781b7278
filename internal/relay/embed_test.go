package relay

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmbedOverrideApply(t *testing.T) {
	h := http.Header{}
	h.Set("X-Frame-Options", "DENY")
	h.Set("Content-Security-Policy", "frame-ancestors 'none'")

	EmbedOverride{Enabled: true}.Apply(h)

	assert.Equal(t, "*", h.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "ALLOWALL", h.Get("X-Frame-Options"))
	assert.Equal(t, "frame-ancestors *", h.Get("Content-Security-Policy"))
}

func TestEmbedOverrideDisabled(t *testing.T) {
	h := http.Header{}
	h.Set("X-Frame-Options", "DENY")

	EmbedOverride{Enabled: false}.Apply(h)

	assert.Equal(t, "DENY", h.Get("X-Frame-Options"))
	assert.Empty(t, h.Get("Access-Control-Allow-Origin"))
}
