// Package relay fetches remote resources on behalf of desktop clients.
//
// The relay issues a single outbound GET with a bounded deadline and a fixed
// browser User-Agent, materializes the response body, and hands it back with
// the upstream Content-Type. Framing-related response headers are rewritten
// by the EmbedOverride policy so relayed content can be placed inside the
// desktop's iframes regardless of the upstream's own framing directives.
//
// Failure modes are classified so callers can render distinct error states:
//   - ErrInvalidRequest: missing or malformed target URL, caller error
//   - ErrUpstreamTimeout: the deadline expired before the upstream answered
//   - ErrUpstreamUnreachable: DNS, refused connection, or other transport failure
//   - ErrBodyTooLarge: response exceeded the configured size cap
//
// No retries, no caching: every call re-fetches, one attempt per call.
package relay
