package realtime

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	go hub.Run()
	t.Cleanup(hub.Stop)
	return hub
}

func dialRoom(t *testing.T, hub *Hub, room string) *websocket.Conn {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Register(NewClient(hub, conn, room))
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return hub.ClientsInRoom(room) == 1 }, time.Second, 10*time.Millisecond)
	return conn
}

func TestHub_BroadcastToRoom_DeliversToRoomOnly(t *testing.T) {
	hub := newTestHub(t)
	alice := dialRoom(t, hub, UserRoom("alice"))

	hub.BroadcastToRoom(UserRoom("bob"), Message{Type: MessageNotification, Payload: "not for alice"})
	hub.BroadcastToRoom(UserRoom("alice"), Message{Type: MessageNotification, Payload: "hello"})

	require.NoError(t, alice.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := alice.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(raw, &msg))
	require.Equal(t, MessageNotification, msg.Type)
	require.Equal(t, "hello", msg.Payload)
}

func TestHub_ClientDisconnect_LeavesRoom(t *testing.T) {
	hub := newTestHub(t)
	conn := dialRoom(t, hub, UserRoom("carol"))

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.ClientsInRoom(UserRoom("carol")) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_BroadcastToEmptyRoom_IsNoop(t *testing.T) {
	hub := newTestHub(t)
	require.NotPanics(t, func() {
		hub.BroadcastToRoom(UserRoom("nobody"), Message{Type: MessageNotification})
	})
}
