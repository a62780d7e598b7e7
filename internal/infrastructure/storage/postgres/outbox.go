package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"

	"sorvetao/internal/core/id"
	"sorvetao/internal/domain/checkout"
	"sorvetao/pkg/logger"
)

// OutboxStatus is the delivery state of an outbox message.
type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusPublished OutboxStatus = "published"
	OutboxStatusFailed    OutboxStatus = "failed"
)

// EventOrderPlaced is the event type written for every placed order.
const EventOrderPlaced = "OrderPlaced"

// OutboxMessage is a row of sys_outbox. Payload is always plain JSON by the
// time a handler sees it.
type OutboxMessage struct {
	ID            id.ID           `db:"id"`
	AggregateType string          `db:"aggregate_type"`
	AggregateID   id.ID           `db:"aggregate_id"`
	EventType     string          `db:"event_type"`
	MessageKey    string          `db:"message_key"`
	Payload       []byte          `db:"payload"`
	Encoding      PayloadEncoding `db:"encoding"`
	Status        OutboxStatus    `db:"status"`
	RetryCount    int             `db:"retry_count"`
	LastError     *string         `db:"last_error"`
	NextRetryAt   *time.Time      `db:"next_retry_at"`
	CreatedAt     time.Time       `db:"created_at"`
	PublishedAt   *time.Time      `db:"published_at"`
}

// OutboxEvent is what gets appended to the outbox.
type OutboxEvent struct {
	AggregateType string
	AggregateID   id.ID
	EventType     string
	// Key orders messages of one aggregate downstream.
	Key     string
	Payload any
}

// Outbox appends events inside the caller's transaction.
type Outbox struct {
	txManager *TxManager
	codec     *PayloadCodec
}

// NewOutbox creates an outbox writer.
func NewOutbox(txManager *TxManager, codec *PayloadCodec) *Outbox {
	return &Outbox{txManager: txManager, codec: codec}
}

// Append writes event to sys_outbox. It must run inside a transaction.
func (o *Outbox) Append(ctx context.Context, event OutboxEvent) error {
	t := o.txManager.GetTx(ctx)
	if t == nil {
		return errors.New("outbox append requires a transaction")
	}

	payload, enc, err := o.codec.Encode(event.Payload)
	if err != nil {
		return err
	}

	_, err = t.Exec(ctx, `
		INSERT INTO sys_outbox (id, aggregate_type, aggregate_id, event_type, message_key, payload, encoding, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, id.New(), event.AggregateType, event.AggregateID, event.EventType, event.Key,
		payload, enc, OutboxStatusPending, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert outbox message: %w", err)
	}
	return nil
}

// OrderPublisher hands placed orders to the outbox.
type OrderPublisher struct {
	outbox *Outbox
}

var _ checkout.Publisher = (*OrderPublisher)(nil)

// NewOrderPublisher creates the checkout publisher.
func NewOrderPublisher(outbox *Outbox) *OrderPublisher {
	return &OrderPublisher{outbox: outbox}
}

// Publish implements checkout.Publisher.
func (p *OrderPublisher) Publish(ctx context.Context, order *checkout.Order) error {
	return p.outbox.Append(ctx, OutboxEvent{
		AggregateType: "Order",
		AggregateID:   order.ID,
		EventType:     EventOrderPlaced,
		Key:           order.Number,
		Payload:       order,
	})
}

// OutboxHandler delivers a message downstream.
type OutboxHandler interface {
	Handle(ctx context.Context, msg *OutboxMessage) error
}

// RelayConfig configures the relay.
type RelayConfig struct {
	BatchSize  int
	MaxRetries int
}

// OutboxRelay moves pending messages to an OutboxHandler.
type OutboxRelay struct {
	txManager  *TxManager
	codec      *PayloadCodec
	handler    OutboxHandler
	batchSize  int
	maxRetries int
}

// NewOutboxRelay creates a relay.
func NewOutboxRelay(txManager *TxManager, codec *PayloadCodec, handler OutboxHandler, cfg RelayConfig) *OutboxRelay {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	return &OutboxRelay{
		txManager:  txManager,
		codec:      codec,
		handler:    handler,
		batchSize:  cfg.BatchSize,
		maxRetries: cfg.MaxRetries,
	}
}

// Run polls the outbox every interval until ctx is done.
func (r *OutboxRelay) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := r.ProcessBatch(ctx)
			if err != nil {
				logger.Error(ctx, "outbox batch failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Debug(ctx, "outbox batch relayed", "count", n)
			}
		}
	}
}

// ProcessBatch locks a batch of due messages, hands them to the handler and
// records the outcome in the same transaction. Returns the number delivered.
func (r *OutboxRelay) ProcessBatch(ctx context.Context) (int, error) {
	delivered := 0

	err := r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		q := r.txManager.GetQuerier(ctx)

		var messages []*OutboxMessage
		err := pgxscan.Select(ctx, q, &messages, `
			SELECT id, aggregate_type, aggregate_id, event_type, message_key, payload, encoding,
			       status, retry_count, last_error, next_retry_at, created_at, published_at
			FROM sys_outbox
			WHERE status = $1
			  AND (next_retry_at IS NULL OR next_retry_at <= NOW())
			ORDER BY created_at
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		`, OutboxStatusPending, r.batchSize)
		if err != nil {
			return fmt.Errorf("fetch outbox messages: %w", err)
		}

		for _, msg := range messages {
			handleErr := r.deliver(ctx, msg)
			if err := r.record(ctx, q, msg, handleErr); err != nil {
				return err
			}
			if handleErr == nil {
				delivered++
			} else {
				logger.Warn(ctx, "outbox delivery failed",
					"message_id", msg.ID.String(),
					"event", msg.EventType,
					"retry", msg.RetryCount+1,
					"error", handleErr)
			}
		}
		return nil
	})
	return delivered, err
}

func (r *OutboxRelay) deliver(ctx context.Context, msg *OutboxMessage) error {
	payload, err := r.codec.Decode(msg.Payload, msg.Encoding)
	if err != nil {
		return err
	}
	msg.Payload = payload
	msg.Encoding = EncodingJSON
	return r.handler.Handle(ctx, msg)
}

func (r *OutboxRelay) record(ctx context.Context, q Querier, msg *OutboxMessage, handleErr error) error {
	now := time.Now().UTC()
	if handleErr == nil {
		_, err := q.Exec(ctx, `
			UPDATE sys_outbox SET status = $1, published_at = $2, last_error = NULL
			WHERE id = $3
		`, OutboxStatusPublished, now, msg.ID)
		if err != nil {
			return fmt.Errorf("mark published: %w", err)
		}
		return nil
	}

	status := OutboxStatusPending
	if msg.RetryCount+1 >= r.maxRetries {
		status = OutboxStatusFailed
	}
	_, err := q.Exec(ctx, `
		UPDATE sys_outbox
		SET retry_count = retry_count + 1, last_error = $1, next_retry_at = $2, status = $3
		WHERE id = $4
	`, handleErr.Error(), now.Add(retryBackoff(msg.RetryCount)), status, msg.ID)
	if err != nil {
		return fmt.Errorf("record failed delivery: %w", err)
	}
	return nil
}

// retryBackoff grows linearly with the attempt and is capped at 15 minutes.
func retryBackoff(retries int) time.Duration {
	d := time.Duration(retries+1) * time.Minute
	if d > 15*time.Minute {
		return 15 * time.Minute
	}
	return d
}

// MoveToDLQ moves failed messages to sys_outbox_dlq.
func (r *OutboxRelay) MoveToDLQ(ctx context.Context) (int64, error) {
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, `
		WITH moved AS (
			DELETE FROM sys_outbox WHERE status = $1
			RETURNING id, aggregate_type, aggregate_id, event_type, message_key, payload, encoding, retry_count, last_error, created_at
		)
		INSERT INTO sys_outbox_dlq (id, aggregate_type, aggregate_id, event_type, message_key, payload, encoding, retry_count, last_error, created_at, failed_at)
		SELECT id, aggregate_type, aggregate_id, event_type, message_key, payload, encoding, retry_count, last_error, created_at, NOW()
		FROM moved
	`, OutboxStatusFailed)
	if err != nil {
		return 0, fmt.Errorf("move to DLQ: %w", err)
	}
	return tag.RowsAffected(), nil
}
