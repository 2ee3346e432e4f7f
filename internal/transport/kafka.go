package transport

import (
	"context"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaConn reads feed events from a topic. Without a consumer group the
// reader starts at the tail of partition 0, so only live events are seen.
type KafkaConn struct {
	reader  *kafka.Reader
	writer  *kafka.Writer
	brokers []string
	topic   string
}

var errKafkaConfig = errors.New("kafka: brokers and topic are required")

func DialKafka(ctx context.Context, opts KafkaOptions, timeout time.Duration) (*KafkaConn, error) {
	if len(opts.Brokers) == 0 || opts.Topic == "" {
		return nil, errKafkaConfig
	}

	dialer := &kafka.Dialer{Timeout: timeout}
	probe, err := dialer.DialContext(ctx, "tcp", opts.Brokers[0])
	if err != nil {
		return nil, err
	}
	probe.Close()

	return newKafkaConn(opts, dialer)
}

func newKafkaConn(opts KafkaOptions, dialer *kafka.Dialer) (*KafkaConn, error) {
	if len(opts.Brokers) == 0 || opts.Topic == "" {
		return nil, errKafkaConfig
	}

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        opts.Brokers,
		Topic:          opts.Topic,
		GroupID:        opts.GroupID,
		Dialer:         dialer,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		MaxWait:        500 * time.Millisecond,
		CommitInterval: time.Second,
		StartOffset:    kafka.LastOffset,
	})
	if opts.GroupID == "" {
		if err := r.SetOffset(kafka.LastOffset); err != nil {
			r.Close()
			return nil, err
		}
	}

	c := &KafkaConn{reader: r, brokers: opts.Brokers, topic: opts.Topic}
	if opts.ReplyTopic != "" {
		c.writer = &kafka.Writer{
			Addr:         kafka.TCP(opts.Brokers...),
			Topic:        opts.ReplyTopic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 10 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		}
	}
	return c, nil
}

func (c *KafkaConn) Receive(ctx context.Context) ([]byte, error) {
	m, err := c.reader.ReadMessage(ctx)
	if err != nil {
		return nil, err
	}
	return m.Value, nil
}

func (c *KafkaConn) Send(ctx context.Context, msg []byte) error {
	if c.writer == nil {
		return ErrSendUnsupported
	}
	return c.writer.WriteMessages(ctx, kafka.Message{Value: msg})
}

func (c *KafkaConn) Close() error {
	err := c.reader.Close()
	if c.writer != nil {
		err = errors.Join(err, c.writer.Close())
	}
	return err
}

func (c *KafkaConn) Endpoint() string {
	return "kafka://" + c.brokers[0] + "/" + c.topic
}
