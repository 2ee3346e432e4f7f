// Package listener drives the feed loop: receive, decode, answer heartbeats,
// print unfiltered events and stop on SHUTDOWN.
package listener

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"feed-listener/config"
	"feed-listener/internal/codec"
	"feed-listener/internal/logger"
	"feed-listener/internal/models"
	"feed-listener/internal/transport"

	"github.com/rs/zerolog"
)

type State int32

const (
	Running State = iota
	Terminated
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Terminated:
		return "terminated"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// DecodePolicy selects what happens to a payload that is not a JSON object.
type DecodePolicy int

const (
	// DecodeFail stops the loop and returns the *codec.DecodeError.
	DecodeFail DecodePolicy = iota
	// DecodeSkip logs the payload and keeps listening.
	DecodeSkip
)

func ParseDecodePolicy(s string) (DecodePolicy, error) {
	switch s {
	case "", "fail":
		return DecodeFail, nil
	case "skip":
		return DecodeSkip, nil
	}
	return DecodeFail, fmt.Errorf("unknown decode policy %q", s)
}

// ErrTerminated is returned by Handle once SHUTDOWN has been observed.
var ErrTerminated = errors.New("listener terminated")

// separator follows every printed event on the output stream.
const separator = " ,\n"

// SendError reports a heartbeat reply that could not be written.
type SendError struct {
	Err error
}

func (e *SendError) Error() string { return "send PONG: " + e.Err.Error() }

func (e *SendError) Unwrap() error { return e.Err }

type Option func(*Listener)

func WithDecodePolicy(p DecodePolicy) Option {
	return func(l *Listener) { l.decodePolicy = p }
}

func WithMetrics(m *config.Metrics) Option {
	return func(l *Listener) {
		if m != nil {
			l.metrics = m
		}
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(l *Listener) { l.log = log }
}

type Listener struct {
	conn         transport.Conn
	filter       models.FilterSet
	out          io.Writer
	decodePolicy DecodePolicy
	metrics      *config.Metrics
	log          zerolog.Logger
	state        atomic.Int32
}

func New(conn transport.Conn, filter models.FilterSet, out io.Writer, opts ...Option) *Listener {
	l := &Listener{
		conn:    conn,
		filter:  filter,
		out:     out,
		metrics: config.NewMetrics(),
		log:     logger.WithComponent("listener"),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.metrics.ListenerState.Set(1)
	return l
}

func (l *Listener) State() State {
	return State(l.state.Load())
}

// Run processes feed messages in delivery order until a SHUTDOWN event is
// handled (nil) or a receive, decode, send or write failure occurs.
func (l *Listener) Run(ctx context.Context) error {
	l.log.Info().
		Str("endpoint", l.conn.Endpoint()).
		Strs("filtered", l.filter.List()).
		Msg("Listening")

	for l.State() == Running {
		msg, err := l.conn.Receive(ctx)
		if err != nil {
			return fmt.Errorf("receive: %w", err)
		}
		if err := l.Handle(ctx, msg); err != nil {
			return err
		}
	}

	l.log.Info().Msg("Shutdown received, listener stopped")
	return nil
}

// Handle applies one raw message: a PING is answered even when filtered, an
// unfiltered event is printed, and SHUTDOWN terminates after both checks.
func (l *Listener) Handle(ctx context.Context, msg []byte) error {
	if l.State() == Terminated {
		return ErrTerminated
	}

	event, err := codec.Decode(msg)
	if err != nil {
		l.metrics.DecodeErrors.Inc()
		if l.decodePolicy == DecodeSkip {
			l.log.Warn().Err(err).Bytes("payload", msg).Msg("Skipping malformed message")
			return nil
		}
		return err
	}

	label := metricLabel(event)
	l.metrics.EventsReceived.WithLabelValues(label).Inc()
	l.log.Debug().Str("type", event.Type).Bool("typed", event.Typed).Msg("Event received")

	if event.IsPing() {
		if err := l.reply(ctx); err != nil {
			return err
		}
	}

	if l.filter.Contains(event.Type) {
		l.metrics.EventsFiltered.WithLabelValues(label).Inc()
	} else {
		if _, err := fmt.Fprintf(l.out, "%s%s", codec.Format(event), separator); err != nil {
			return fmt.Errorf("write event: %w", err)
		}
		l.metrics.EventsPrinted.WithLabelValues(label).Inc()
	}

	if event.IsShutdown() {
		l.state.Store(int32(Terminated))
		l.metrics.ListenerState.Set(0)
	}
	return nil
}

func (l *Listener) reply(ctx context.Context) error {
	err := l.conn.Send(ctx, codec.EncodePong())
	switch {
	case err == nil:
		l.metrics.PongsSent.Inc()
		return nil
	case errors.Is(err, transport.ErrSendUnsupported):
		l.log.Warn().Str("endpoint", l.conn.Endpoint()).Msg("PING received but transport cannot reply")
		return nil
	default:
		return &SendError{Err: err}
	}
}

// metricLabel keeps the label set bounded whatever types the feed sends.
func metricLabel(e models.Event) string {
	switch {
	case !e.Typed:
		return "untyped"
	case e.IsPing():
		return models.EventTypePing
	case e.IsShutdown():
		return models.EventTypeShutdown
	}
	return "other"
}
