package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyvern0us/proxy/internal/chat"
	"github.com/wyvern0us/proxy/internal/infrastructure/logging"
)

func newTestServer(t *testing.T) (*httptest.Server, *chat.Hub) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := chat.NewHub(chat.DefaultConfig(), logging.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	router := gin.New()
	router.GET("/ws", NewHandler(hub, logging.NewNop()).HandleConnection)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, hub
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readPayload(t *testing.T, conn *websocket.Conn, out any) {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}

func TestConnectionReceivesInit(t *testing.T) {
	srv, hub := newTestServer(t)

	_, err := hub.Post("alice", "before join", "")
	require.NoError(t, err)

	conn := dial(t, srv)

	var init chat.InitPayload
	readPayload(t, conn, &init)
	assert.Equal(t, chat.TypeInit, init.Type)
	require.Len(t, init.Messages, 1)
	assert.Equal(t, "before join", init.Messages[0].Text)
}

func TestMessageRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t)

	a := dial(t, srv)
	b := dial(t, srv)

	var init chat.InitPayload
	readPayload(t, a, &init)
	readPayload(t, b, &init)

	require.NoError(t, a.WriteJSON(chat.Inbound{
		Type:  chat.TypeMessage,
		User:  "alice",
		Text:  "hello",
		Color: "#fff",
	}))

	for _, conn := range []*websocket.Conn{a, b} {
		var payload chat.MessagePayload
		readPayload(t, conn, &payload)
		assert.Equal(t, chat.TypeMessage, payload.Type)
		assert.Equal(t, "alice", payload.Message.User)
		assert.Equal(t, "hello", payload.Message.Text)
	}
}

func TestEmptyTextDroppedSilently(t *testing.T) {
	srv, hub := newTestServer(t)

	conn := dial(t, srv)
	var init chat.InitPayload
	readPayload(t, conn, &init)

	require.NoError(t, conn.WriteJSON(chat.Inbound{Type: chat.TypeMessage, Text: ""}))
	require.NoError(t, conn.WriteJSON(chat.Inbound{Type: chat.TypeMessage, Text: "valid"}))

	// The invalid post never materializes; the next payload is the valid one.
	var payload chat.MessagePayload
	readPayload(t, conn, &payload)
	assert.Equal(t, "valid", payload.Message.Text)
	assert.Equal(t, 1, hub.History().Len())
}

func TestMalformedFrameKeepsConnectionAlive(t *testing.T) {
	srv, _ := newTestServer(t)

	conn := dial(t, srv)
	var init chat.InitPayload
	readPayload(t, conn, &init)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, conn.WriteJSON(chat.Inbound{Type: chat.TypeMessage, Text: "still here"}))

	var payload chat.MessagePayload
	readPayload(t, conn, &payload)
	assert.Equal(t, "still here", payload.Message.Text)
}

func TestUnknownTypeIgnored(t *testing.T) {
	srv, hub := newTestServer(t)

	conn := dial(t, srv)
	var init chat.InitPayload
	readPayload(t, conn, &init)

	require.NoError(t, conn.WriteJSON(chat.Inbound{Type: "presence", Text: "x"}))

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, hub.History().Len())
}

func TestDisconnectLeavesHub(t *testing.T) {
	srv, hub := newTestServer(t)

	a := dial(t, srv)
	b := dial(t, srv)
	var init chat.InitPayload
	readPayload(t, a, &init)
	readPayload(t, b, &init)

	require.NoError(t, a.Close())

	// Give the hub a moment to process the departure, then verify the
	// remaining connection still receives broadcasts.
	time.Sleep(100 * time.Millisecond)
	_, err := hub.Post("bob", "still broadcasting", "")
	require.NoError(t, err)

	var payload chat.MessagePayload
	readPayload(t, b, &payload)
	assert.Equal(t, "still broadcasting", payload.Message.Text)
}
