package transport

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// WebSocketConn reads feed events from a websocket text stream and writes
// replies as text frames.
type WebSocketConn struct {
	conn *websocket.Conn
	url  string
}

func DialWebSocket(ctx context.Context, url string, timeout time.Duration) (*WebSocketConn, error) {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: timeout,
	}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return &WebSocketConn{conn: conn, url: url}, nil
}

// Receive returns the next complete data frame. Protocol pings are answered
// by the gorilla default handler while reading.
func (c *WebSocketConn) Receive(ctx context.Context) ([]byte, error) {
	if err := c.conn.SetReadDeadline(time.Time{}); err != nil {
		return nil, err
	}
	stop := context.AfterFunc(ctx, func() {
		c.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	_, data, err := c.conn.ReadMessage()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	return data, nil
}

func (c *WebSocketConn) Send(ctx context.Context, msg []byte) error {
	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, msg)
}

// Close sends a close frame when the peer is still there, then drops the
// connection.
func (c *WebSocketConn) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return c.conn.Close()
}

func (c *WebSocketConn) Endpoint() string { return c.url }
