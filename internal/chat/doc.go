// Package chat implements the broadcast hub behind the desktop's shared chat.
//
// A Hub owns the set of live sessions and a bounded FIFO history of recent
// messages. All membership changes and posts funnel through a single run
// loop, which gives the hub its ordering guarantees:
//   - posts are appended to history and fanned out in one serialized step,
//     so every session observes messages in the same order (global FIFO)
//   - a session joining after a post completes sees that message in its
//     init snapshot, and never receives it twice
//
// Delivery to a session that is concurrently leaving is best-effort,
// at-most-once. Sessions whose send buffer fills are dropped rather than
// allowed to stall the loop.
//
// Message Types (Server → Client):
//   - init: full history snapshot, sent once at join
//   - message: one accepted chat message, sent on every post
package chat
