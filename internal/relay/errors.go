package relay

import "errors"

// Sentinel errors for relay failure classification. Callers match with errors.Is.
var (
	// ErrInvalidRequest indicates a missing or malformed target URL.
	ErrInvalidRequest = errors.New("relay: invalid target url")

	// ErrUpstreamTimeout indicates the fetch deadline expired.
	ErrUpstreamTimeout = errors.New("relay: upstream timeout")

	// ErrUpstreamUnreachable indicates a transport-level failure (DNS,
	// connection refused, reset) before the deadline.
	ErrUpstreamUnreachable = errors.New("relay: upstream unreachable")

	// ErrBodyTooLarge indicates the upstream body exceeded the configured cap.
	ErrBodyTooLarge = errors.New("relay: response body too large")
)
