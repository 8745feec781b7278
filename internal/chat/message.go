package chat

import (
	"time"

	"github.com/wyvern0us/proxy/internal/shared/id"
)

// Sentinels applied when a client omits optional message fields.
const (
	DefaultUser  = "Anonymous"
	DefaultColor = "#ffffff"
)

// Payload type tags shared by both directions of the wire protocol.
const (
	TypeInit    = "init"
	TypeMessage = "message"
)

// Message is one chat message. The ID and timestamp are server-assigned at
// ingestion; a message is immutable once created.
type Message struct {
	ID        string `json:"id"`
	User      string `json:"user"`
	Text      string `json:"text"`
	Color     string `json:"color"`
	Timestamp int64  `json:"timestamp"` // wall-clock milliseconds
}

// NewMessage stamps a message, applying the sentinel defaults for absent
// author and color. Text validation is the caller's concern.
func NewMessage(user, text, color string) Message {
	if user == "" {
		user = DefaultUser
	}
	if color == "" {
		color = DefaultColor
	}
	return Message{
		ID:        id.NewMessageID().String(),
		User:      user,
		Text:      text,
		Color:     color,
		Timestamp: time.Now().UnixMilli(),
	}
}

// InitPayload is the point-to-point history snapshot sent once at join.
type InitPayload struct {
	Type     string    `json:"type"`
	Messages []Message `json:"messages"`
}

// MessagePayload carries one accepted message to every open session.
type MessagePayload struct {
	Type    string  `json:"type"`
	Message Message `json:"message"`
}

// Inbound is the discriminated client payload. Dispatch switches on Type;
// unknown tags are a no-op.
type Inbound struct {
	Type  string `json:"type"`
	User  string `json:"user,omitempty"`
	Text  string `json:"text"`
	Color string `json:"color,omitempty"`
}
