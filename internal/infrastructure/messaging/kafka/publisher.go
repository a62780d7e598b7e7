// Package kafka delivers outbox events to Kafka.
package kafka

import (
	"context"
	"fmt"
	"strings"

	"github.com/segmentio/kafka-go"

	"sorvetao/internal/infrastructure/storage/postgres"
	"sorvetao/pkg/logger"
)

// DefaultTopic carries placed orders.
const DefaultTopic = "orders.placed"

// Writer is the subset of *kafka.Writer the publisher needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewWriter builds a writer for topic on a comma-separated broker list.
func NewWriter(brokers, topic string) *kafka.Writer {
	if topic == "" {
		topic = DefaultTopic
	}
	return &kafka.Writer{
		Addr:                   kafka.TCP(splitBrokers(brokers)...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
}

func splitBrokers(brokers string) []string {
	var out []string
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	if len(out) == 0 {
		out = []string{"localhost:9092"}
	}
	return out
}

// OrderPublisher implements postgres.OutboxHandler. Messages are keyed by
// order number so all events of one order land on the same partition.
type OrderPublisher struct {
	writer Writer
}

// NewOrderPublisher wraps writer.
func NewOrderPublisher(writer Writer) *OrderPublisher {
	return &OrderPublisher{writer: writer}
}

// Handle writes one outbox message.
func (p *OrderPublisher) Handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	key := msg.MessageKey
	if key == "" {
		key = msg.AggregateID.String()
	}

	err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: msg.Payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(msg.EventType)},
			{Key: "aggregate_type", Value: []byte(msg.AggregateType)},
			{Key: "message_id", Value: []byte(msg.ID.String())},
		},
	})
	if err != nil {
		return fmt.Errorf("kafka write %s: %w", msg.EventType, err)
	}

	logger.Debug(ctx, "outbox message published", "id", msg.ID, "key", key, "event", msg.EventType)
	return nil
}

// Close closes the underlying writer.
func (p *OrderPublisher) Close() error {
	return p.writer.Close()
}

var _ postgres.OutboxHandler = (*OrderPublisher)(nil)
