package transport

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConn receives feed events from a Redis pub/sub channel. Replies are
// published to ReplyChannel when one is configured.
type RedisConn struct {
	client       *redis.Client
	pubsub       *redis.PubSub
	channel      string
	replyChannel string
}

func DialRedis(ctx context.Context, opts RedisOptions, timeout time.Duration) (*RedisConn, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DialTimeout:  timeout,
		WriteTimeout: 3 * time.Second,
		MaxRetries:   -1,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	pubsub := client.Subscribe(ctx, opts.Channel)
	// wait for the subscription to be confirmed so no publish is missed
	if _, err := pubsub.Receive(pingCtx); err != nil {
		pubsub.Close()
		client.Close()
		return nil, err
	}

	return &RedisConn{
		client:       client,
		pubsub:       pubsub,
		channel:      opts.Channel,
		replyChannel: opts.ReplyChannel,
	}, nil
}

func (c *RedisConn) Receive(ctx context.Context) ([]byte, error) {
	msg, err := c.pubsub.ReceiveMessage(ctx)
	if err != nil {
		return nil, err
	}
	return []byte(msg.Payload), nil
}

func (c *RedisConn) Send(ctx context.Context, msg []byte) error {
	if c.replyChannel == "" {
		return ErrSendUnsupported
	}
	return c.client.Publish(ctx, c.replyChannel, msg).Err()
}

func (c *RedisConn) Close() error {
	if err := c.pubsub.Close(); err != nil {
		c.client.Close()
		return err
	}
	return c.client.Close()
}

func (c *RedisConn) Endpoint() string {
	return "redis://" + c.client.Options().Addr + "/" + c.channel
}
