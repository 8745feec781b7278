// Package ws bridges WebSocket connections to the chat hub.
//
// Each upgraded connection becomes a hub session with two pumps: a read pump
// decoding inbound payloads and posting accepted messages, and a write pump
// draining the session's outbound queue. Either pump failing tears the
// connection down exactly once.
//
// Message Types (Client → Server):
//   - message: post a chat message ({type, user?, text, color?})
//   - anything else: ignored
//
// Message Types (Server → Client):
//   - init: history snapshot, sent once after the upgrade
//   - message: one accepted chat message per post
//
// Malformed inbound frames are dropped without closing the connection; only
// transport-level read/write errors end a session.
//
// Example Usage:
//
//	handler := ws.NewHandler(hub, logger)
//	router.GET("/ws", handler.HandleConnection)
package ws
