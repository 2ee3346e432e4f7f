package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newFeedServer serves msgs to the first websocket client and records every
// text frame the client sends back.
func newFeedServer(t *testing.T, msgs ...string) (string, <-chan string) {
	t.Helper()
	replies := make(chan string, 16)
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, m := range msgs {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(m)); err != nil {
				return
			}
		}
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			replies <- string(data)
		}
	}))
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/watch/", replies
}

func TestWebSocket_ReceiveAndSend(t *testing.T) {
	url, replies := newFeedServer(t, `{"type":"PING"}`, `{"type":"MOVE","bet":5}`)
	ctx := context.Background()

	conn, err := DialWebSocket(ctx, url, time.Second)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, url, conn.Endpoint())

	msg, err := conn.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"type":"PING"}`, string(msg))

	require.NoError(t, conn.Send(ctx, []byte("PONG")))
	select {
	case reply := <-replies:
		assert.Equal(t, "PONG", reply)
	case <-time.After(2 * time.Second):
		t.Fatal("no reply reached the feed")
	}

	msg, err = conn.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"type":"MOVE","bet":5}`, string(msg))
}

func TestWebSocket_ReceiveHonoursContext(t *testing.T) {
	url, _ := newFeedServer(t)

	conn, err := DialWebSocket(context.Background(), url, time.Second)
	require.NoError(t, err)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = conn.Receive(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWebSocket_SendAfterCloseFails(t *testing.T) {
	url, _ := newFeedServer(t)

	conn, err := DialWebSocket(context.Background(), url, time.Second)
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	assert.Error(t, conn.Send(context.Background(), []byte("PONG")))
}
