package presence

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hubStub answers every announce with a snapshot holding the announced user and "B"
func hubStub(t *testing.T, cookies chan<- string) *httptest.Server {
	upgrader := websocket.Upgrader{}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("token"); err == nil {
			cookies <- c.Value
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		for {
			var msg struct {
				Type    string `json:"type"`
				Payload string `json:"payload"`
			}
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			if msg.Type != EventOnlineUsers {
				continue
			}
			reply := map[string]any{"type": EventOnlineUsers, "payload": []string{msg.Payload, "B"}}
			if err := conn.WriteJSON(reply); err != nil {
				return
			}
		}
	}))
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestSocketRoundTrip(t *testing.T) {
	cookies := make(chan string, 1)
	server := hubStub(t, cookies)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sock, err := Dial(ctx, wsURL(server), "secret")
	require.NoError(t, err)
	defer sock.Close()

	assert.Equal(t, "secret", <-cookies)
	assert.True(t, sock.Connected())

	snapshots := make(chan []string, 1)
	sock.On(EventOnlineUsers, func(payload json.RawMessage) {
		var ids []string
		if err := json.Unmarshal(payload, &ids); err == nil {
			snapshots <- ids
		}
	})
	require.NoError(t, sock.Emit(EventOnlineUsers, "A"))

	select {
	case ids := <-snapshots:
		assert.Equal(t, []string{"A", "B"}, ids)
	case <-ctx.Done():
		t.Fatal("no snapshot received")
	}
}

func TestSocketWithTracker(t *testing.T) {
	server := hubStub(t, make(chan string, 1))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sock, err := Dial(ctx, wsURL(server), "")
	require.NoError(t, err)

	tracker := NewTracker("A", nil)
	errCh := make(chan error, 1)
	go func() { errCh <- tracker.Watch(ctx, sock) }()

	require.Eventually(t, func() bool { return tracker.Online().Has("B") }, 2*time.Second, 10*time.Millisecond)
	assert.True(t, tracker.Online().Has("A"))

	require.NoError(t, sock.Close())
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-ctx.Done():
		t.Fatal("Watch did not return after socket close")
	}

	assert.Empty(t, tracker.Online())
	assert.False(t, sock.Connected())
	assert.ErrorIs(t, sock.Emit(EventOnlineUsers, "A"), ErrSocketClosed)
}
