package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sorvetao/internal/core/id"
	"sorvetao/internal/infrastructure/storage/postgres"
)

type recordingWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func headers(m kafka.Message) map[string]string {
	out := make(map[string]string, len(m.Headers))
	for _, h := range m.Headers {
		out[h.Key] = string(h.Value)
	}
	return out
}

func TestOrderPublisher_Handle(t *testing.T) {
	w := &recordingWriter{}
	p := NewOrderPublisher(w)

	msg := &postgres.OutboxMessage{
		ID:            id.New(),
		AggregateType: "Order",
		AggregateID:   id.New(),
		EventType:     postgres.EventOrderPlaced,
		MessageKey:    "PED-2026-00001",
		Payload:       []byte(`{"number":"PED-2026-00001"}`),
	}
	require.NoError(t, p.Handle(context.Background(), msg))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "PED-2026-00001", string(w.msgs[0].Key))
	assert.JSONEq(t, `{"number":"PED-2026-00001"}`, string(w.msgs[0].Value))
	h := headers(w.msgs[0])
	assert.Equal(t, "OrderPlaced", h["event_type"])
	assert.Equal(t, msg.ID.String(), h["message_id"])

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestOrderPublisher_KeyFallsBackToAggregate(t *testing.T) {
	w := &recordingWriter{}
	msg := &postgres.OutboxMessage{ID: id.New(), AggregateID: id.New(), EventType: "OrderPlaced"}
	require.NoError(t, NewOrderPublisher(w).Handle(context.Background(), msg))
	assert.Equal(t, msg.AggregateID.String(), string(w.msgs[0].Key))
}

func TestOrderPublisher_WriteError(t *testing.T) {
	w := &recordingWriter{err: errors.New("leader not available")}
	err := NewOrderPublisher(w).Handle(context.Background(), &postgres.OutboxMessage{EventType: "OrderPlaced"})
	assert.ErrorContains(t, err, "kafka write OrderPlaced")
}

func TestNewWriter(t *testing.T) {
	w := NewWriter(" broker-1:9092, ,broker-2:9092", "")
	assert.Equal(t, DefaultTopic, w.Topic)
	assert.NotNil(t, w.Addr)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, splitBrokers(" broker-1:9092, ,broker-2:9092"))

	assert.Equal(t, []string{"localhost:9092"}, splitBrokers(""))
}
