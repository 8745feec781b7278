package relay

import "net/http"

// EmbedOverride rewrites framing-related response headers so relayed content
// can be embedded in a third-party frame regardless of the upstream origin's
// own framing policy. This deliberately defeats clickjacking protections the
// upstream may have set; it exists because the desktop renders relayed pages
// inside iframes. Keep it behind configuration so deployments that do not
// need unrestricted embedding can turn it off.
type EmbedOverride struct {
	Enabled bool
}

// Apply rewrites h in place. Any frame-blocking directive the upstream sent
// is overridden, not merged.
func (p EmbedOverride) Apply(h http.Header) {
	if !p.Enabled {
		return
	}
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("X-Frame-Options", "ALLOWALL")
	h.Set("Content-Security-Policy", "frame-ancestors *")
}
