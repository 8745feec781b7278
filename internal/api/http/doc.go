// Package http provides the REST surface of the desktop service.
//
// Handlers are thin: they translate HTTP requests into calls on the relay,
// hub, and auth layers and map sentinel errors onto status codes. All
// responses are JSON except relayed content, which passes through with its
// upstream content type.
package http
