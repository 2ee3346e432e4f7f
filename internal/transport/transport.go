// Package transport connects the listener to an event feed. Every variant
// delivers one opaque message per Receive call, in feed order.
package transport

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"feed-listener/internal/logger"
)

// Conn is a single connection to the feed. Receive is the only call that
// blocks waiting on the feed.
type Conn interface {
	Receive(ctx context.Context) ([]byte, error)
	Send(ctx context.Context, msg []byte) error
	Close() error
	Endpoint() string
}

type Mode string

const (
	ModeWebSocket Mode = "websocket"
	ModePubSub    Mode = "pubsub"
	ModeRedis     Mode = "redis"
	ModeKafka     Mode = "kafka"
)

var (
	// ErrSendUnsupported is returned by variants with no reply path.
	ErrSendUnsupported = errors.New("transport: send not supported")
	ErrUnknownMode     = errors.New("transport: unknown mode")
)

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "websocket", "ws":
		return ModeWebSocket, nil
	case "pubsub", "zmq", "zeromq":
		return ModePubSub, nil
	case "redis":
		return ModeRedis, nil
	case "kafka":
		return ModeKafka, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// ConnectError reports a feed that could not be reached at startup.
type ConnectError struct {
	Mode     Mode
	Endpoint string
	Err      error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect %s %s: %v", e.Mode, e.Endpoint, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

type RedisOptions struct {
	Addr         string
	Password     string
	Channel      string
	ReplyChannel string
}

type KafkaOptions struct {
	Brokers    []string
	Topic      string
	GroupID    string
	ReplyTopic string
}

type Options struct {
	Mode           Mode
	WebSocketURL   string
	PubSubEndpoint string
	Redis          RedisOptions
	Kafka          KafkaOptions
	DialTimeout    time.Duration
}

func (o Options) endpoint() string {
	switch o.Mode {
	case ModePubSub:
		return o.PubSubEndpoint
	case ModeRedis:
		return o.Redis.Addr + "/" + o.Redis.Channel
	case ModeKafka:
		return strings.Join(o.Kafka.Brokers, ",") + "/" + o.Kafka.Topic
	default:
		return o.WebSocketURL
	}
}

// Connect opens the variant selected by opts.Mode. There is no retry: any
// failure is returned as a *ConnectError.
func Connect(ctx context.Context, opts Options) (Conn, error) {
	if opts.Mode == "" {
		opts.Mode = ModeWebSocket
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 5 * time.Second
	}
	log := logger.WithComponent("transport")

	var (
		conn Conn
		err  error
	)
	switch opts.Mode {
	case ModeWebSocket:
		conn, err = DialWebSocket(ctx, opts.WebSocketURL, opts.DialTimeout)
	case ModePubSub:
		conn, err = DialPubSub(ctx, opts.PubSubEndpoint, opts.DialTimeout)
	case ModeRedis:
		conn, err = DialRedis(ctx, opts.Redis, opts.DialTimeout)
	case ModeKafka:
		conn, err = DialKafka(ctx, opts.Kafka, opts.DialTimeout)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownMode, opts.Mode)
	}
	if err != nil {
		return nil, &ConnectError{Mode: opts.Mode, Endpoint: opts.endpoint(), Err: err}
	}

	log.Info().Str("mode", string(opts.Mode)).Str("endpoint", conn.Endpoint()).Msg("Connected to feed")
	return conn, nil
}
