package chat

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/wyvern0us/proxy/internal/infrastructure/logging"
	"github.com/wyvern0us/proxy/internal/infrastructure/monitoring"
	"github.com/wyvern0us/proxy/internal/shared/id"
)

// Sentinel errors for hub operations. Callers match with errors.Is.
var (
	// ErrInvalidMessage indicates a post with no text. Callers drop or log;
	// the offending connection stays up.
	ErrInvalidMessage = errors.New("chat: message text required")

	// ErrHubClosed indicates the hub's run loop has stopped.
	ErrHubClosed = errors.New("chat: hub closed")
)

// Session is a live connection handle, valid between Join and Leave. The
// transport layer drains Receive and forwards each payload to its client.
type Session struct {
	id      id.ConnID
	send    chan []byte
	closed  sync.Once
	closeCh chan struct{}
}

func newSession(buffer int) *Session {
	return &Session{
		id:      id.NewConnID(),
		send:    make(chan []byte, buffer),
		closeCh: make(chan struct{}),
	}
}

// ID returns the session identifier.
func (s *Session) ID() id.ConnID {
	return s.id
}

// Receive returns the channel of outbound payloads. The hub closes it when
// the session leaves; a closed channel is the transport's signal to shut
// down its writer.
func (s *Session) Receive() <-chan []byte {
	return s.send
}

// Closed reports whether the session has left the hub.
func (s *Session) Closed() <-chan struct{} {
	return s.closeCh
}

// release is called by the hub loop exactly once per session.
func (s *Session) release() {
	s.closed.Do(func() {
		close(s.send)
		close(s.closeCh)
	})
}

// Config defines hub behavior.
type Config struct {
	// HistorySize bounds the retained message buffer.
	HistorySize int

	// SendBufferSize is the per-session outbound queue. A session that falls
	// this far behind is dropped.
	SendBufferSize int
}

// DefaultConfig returns the hub defaults.
func DefaultConfig() Config {
	return Config{
		HistorySize:    DefaultHistorySize,
		SendBufferSize: 256,
	}
}

type postRequest struct {
	msg  Message
	done chan struct{}
}

// Hub fans chat messages out to every live session and retains a bounded
// history for late joiners. Construct one per process (or per test) with
// NewHub and drive it with Run; there is no package-level instance.
type Hub struct {
	cfg     Config
	logger  *logging.Logger
	metrics *monitoring.Metrics

	history *History

	sessions   map[*Session]bool
	register   chan *Session
	unregister chan *Session
	posts      chan postRequest

	done chan struct{}
}

// NewHub creates a hub. Call Run to start its loop.
func NewHub(cfg Config, logger *logging.Logger) *Hub {
	if cfg.SendBufferSize <= 0 {
		cfg.SendBufferSize = DefaultConfig().SendBufferSize
	}
	return &Hub{
		cfg:        cfg,
		logger:     logger,
		history:    NewHistory(cfg.HistorySize),
		sessions:   make(map[*Session]bool),
		register:   make(chan *Session),
		unregister: make(chan *Session),
		posts:      make(chan postRequest),
		done:       make(chan struct{}),
	}
}

// WithMetrics attaches a metrics collector.
func (h *Hub) WithMetrics(m *monitoring.Metrics) *Hub {
	h.metrics = m
	return h
}

// History exposes the retained buffer for snapshots.
func (h *Hub) History() *History {
	return h.history
}

// Run processes membership changes and posts until ctx is cancelled. It must
// run in its own goroutine; all hub state is confined to this loop.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		for s := range h.sessions {
			delete(h.sessions, s)
			s.release()
		}
		close(h.done)
	}()

	for {
		select {
		case s := <-h.register:
			h.sessions[s] = true
			h.sendInit(s)
			h.logger.Info("Session joined",
				zap.String("conn_id", s.id.String()),
				zap.Int("sessions", len(h.sessions)),
			)
			if h.metrics != nil {
				h.metrics.IncWSConnections()
			}

		case s := <-h.unregister:
			if h.sessions[s] {
				delete(h.sessions, s)
				s.release()
				h.logger.Info("Session left",
					zap.String("conn_id", s.id.String()),
					zap.Int("sessions", len(h.sessions)),
				)
				if h.metrics != nil {
					h.metrics.DecWSConnections()
				}
			}

		case req := <-h.posts:
			h.history.Append(req.msg)
			h.broadcast(req.msg)
			if h.metrics != nil {
				h.metrics.IncChatMessages()
				h.metrics.SetHistoryLength(h.history.Len())
			}
			close(req.done)

		case <-ctx.Done():
			h.logger.Info("Hub shutting down", zap.Int("sessions", len(h.sessions)))
			return
		}
	}
}

// Join registers a new session. The session's first received payload is the
// init snapshot of the history buffer, ordered before any later broadcast.
func (h *Hub) Join() (*Session, error) {
	s := newSession(h.cfg.SendBufferSize)
	select {
	case h.register <- s:
		return s, nil
	case <-h.done:
		return nil, ErrHubClosed
	}
}

// Leave removes a session. Safe to call concurrently with a broadcast and
// more than once for the same session.
func (h *Hub) Leave(s *Session) {
	select {
	case h.unregister <- s:
	case <-h.done:
	}
}

// Post stamps and broadcasts a message. Only absent text is rejected; author
// and color default to their sentinels. When Post returns, the message is in
// history and queued to every session that was open at broadcast time.
func (h *Hub) Post(user, text, color string) (Message, error) {
	if text == "" {
		return Message{}, ErrInvalidMessage
	}

	req := postRequest{
		msg:  NewMessage(user, text, color),
		done: make(chan struct{}),
	}

	select {
	case h.posts <- req:
	case <-h.done:
		return Message{}, ErrHubClosed
	}

	select {
	case <-req.done:
	case <-h.done:
		// The loop may have completed the post in the same instant it shut
		// down; only report closure if the append never happened.
		select {
		case <-req.done:
		default:
			return Message{}, ErrHubClosed
		}
	}
	return req.msg, nil
}

// sendInit queues the history snapshot to a single session, point-to-point.
func (h *Hub) sendInit(s *Session) {
	payload, err := json.Marshal(InitPayload{
		Type:     TypeInit,
		Messages: h.history.Snapshot(),
	})
	if err != nil {
		h.logger.Error("Failed to encode init payload", zap.Error(err))
		return
	}
	h.deliver(s, payload)
	if h.metrics != nil {
		h.metrics.RecordWSMessage("out", TypeInit)
	}
}

// broadcast fans one accepted message out to every open session.
func (h *Hub) broadcast(msg Message) {
	payload, err := json.Marshal(MessagePayload{
		Type:    TypeMessage,
		Message: msg,
	})
	if err != nil {
		h.logger.Error("Failed to encode message payload", zap.Error(err))
		return
	}

	for s := range h.sessions {
		h.deliver(s, payload)
		if h.metrics != nil {
			h.metrics.RecordWSMessage("out", TypeMessage)
		}
	}
}

// deliver queues a payload without blocking the loop. A session with a full
// buffer is lagging or dead; it is dropped rather than allowed to stall
// everyone else.
func (h *Hub) deliver(s *Session, payload []byte) {
	select {
	case s.send <- payload:
	default:
		delete(h.sessions, s)
		s.release()
		h.logger.Warn("Dropping slow session",
			zap.String("conn_id", s.id.String()),
			zap.Int("sessions", len(h.sessions)),
		)
		if h.metrics != nil {
			h.metrics.DecWSConnections()
		}
	}
}
