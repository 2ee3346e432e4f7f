package transport

import (
	"context"
	"net"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// kafkaTestBrokers returns the brokers from KAFKA_TEST_BROKERS, skipping the
// test when no broker is available.
func kafkaTestBrokers(t *testing.T) []string {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping Kafka integration test")
	}
	brokers := os.Getenv("KAFKA_TEST_BROKERS")
	if brokers == "" {
		t.Skip("KAFKA_TEST_BROKERS not set")
	}
	return strings.Split(brokers, ",")
}

func createTopics(t *testing.T, brokers []string, topics ...string) {
	t.Helper()
	conn, err := kafka.Dial("tcp", brokers[0])
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	cc, err := kafka.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer cc.Close()

	configs := make([]kafka.TopicConfig, 0, len(topics))
	for _, topic := range topics {
		configs = append(configs, kafka.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1})
	}
	require.NoError(t, cc.CreateTopics(configs...))
}

func TestKafka_ReceiveAndReply(t *testing.T) {
	brokers := kafkaTestBrokers(t)
	suffix := uuid.NewString()
	topic, replyTopic := "feed-"+suffix, "feed-reply-"+suffix
	createTopics(t, brokers, topic, replyTopic)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := DialKafka(ctx, KafkaOptions{Brokers: brokers, Topic: topic, ReplyTopic: replyTopic}, 5*time.Second)
	require.NoError(t, err)
	defer conn.Close()

	got := make(chan []byte, 1)
	go func() {
		msg, err := conn.Receive(ctx)
		if err == nil {
			got <- msg
		}
	}()

	feed := &kafka.Writer{Addr: kafka.TCP(brokers...), Topic: topic, BatchTimeout: 10 * time.Millisecond}
	defer feed.Close()

	// the reader starts at the tail, so keep producing until one write lands after it
	payload := []byte(`{"type":"PING"}`)
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
receive:
	for {
		select {
		case msg := <-got:
			assert.Equal(t, payload, msg)
			break receive
		case <-ticker.C:
			require.NoError(t, feed.WriteMessages(ctx, kafka.Message{Value: payload}))
		case <-ctx.Done():
			t.Fatal("no message received from topic")
		}
	}

	require.NoError(t, conn.Send(ctx, []byte("PONG")))

	replies := kafka.NewReader(kafka.ReaderConfig{Brokers: brokers, Topic: replyTopic, MaxWait: 500 * time.Millisecond})
	defer replies.Close()
	reply, err := replies.ReadMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "PONG", string(reply.Value))
}
