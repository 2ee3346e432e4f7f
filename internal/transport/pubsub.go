package transport

import (
	"context"
	"time"

	"github.com/go-zeromq/zmq4"
)

// PubSubConn is a ZeroMQ SUB socket subscribed to every topic. SUB sockets
// have no send path, so Send always reports ErrSendUnsupported.
type PubSubConn struct {
	sock     zmq4.Socket
	endpoint string
	cancel   context.CancelFunc
}

func DialPubSub(ctx context.Context, endpoint string, timeout time.Duration) (*PubSubConn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// The socket outlives the dial context; Close cancels it.
	sockCtx, cancel := context.WithCancel(context.Background())
	sub := zmq4.NewSub(sockCtx,
		zmq4.WithDialerTimeout(timeout),
		zmq4.WithDialerMaxRetries(0),
	)
	if err := sub.Dial(endpoint); err != nil {
		sub.Close()
		cancel()
		return nil, err
	}
	if err := sub.SetOption(zmq4.OptionSubscribe, ""); err != nil {
		sub.Close()
		cancel()
		return nil, err
	}
	return &PubSubConn{sock: sub, endpoint: endpoint, cancel: cancel}, nil
}

func (c *PubSubConn) Receive(ctx context.Context) ([]byte, error) {
	stop := context.AfterFunc(ctx, c.cancel)
	defer stop()

	msg, err := c.sock.Recv()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	// one payload per receive; trailing frames of a multipart message are dropped
	if len(msg.Frames) == 0 {
		return []byte{}, nil
	}
	return msg.Frames[0], nil
}

func (c *PubSubConn) Send(context.Context, []byte) error {
	return ErrSendUnsupported
}

func (c *PubSubConn) Close() error {
	defer c.cancel()
	return c.sock.Close()
}

func (c *PubSubConn) Endpoint() string { return c.endpoint }
