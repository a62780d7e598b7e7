package postgres

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"sorvetao/internal/core/apperror"
)

// IdempotencyStatus is the state of a keyed request.
type IdempotencyStatus string

const (
	IdempotencyStatusPending IdempotencyStatus = "pending"
	IdempotencyStatusSuccess IdempotencyStatus = "success"
	IdempotencyStatusFailed  IdempotencyStatus = "failed"
)

// stalePending is how long a pending key may sit before another request
// can reclaim it.
const stalePending = time.Minute

// IdempotencyReplay is a stored response to send again.
type IdempotencyReplay struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// IdempotencyStore keeps one row per Idempotency-Key in sys_idempotency.
type IdempotencyStore struct {
	txManager *TxManager
	ttl       time.Duration
	now       func() time.Time
}

// NewIdempotencyStore creates a store whose keys live for ttl.
func NewIdempotencyStore(txManager *TxManager, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{txManager: txManager, ttl: ttl, now: time.Now}
}

// Acquire claims key for a request.
// It returns (nil, nil) when the caller owns the key and must run the
// request, a replay when the request already finished, or an error when the
// key is in use or was used for a different request.
func (s *IdempotencyStore) Acquire(ctx context.Context, key, scope, operation, requestHash string) (*IdempotencyReplay, error) {
	now := s.now().UTC()

	var (
		inserted    bool
		storedScope string
		storedOp    string
		storedHash  string
		status      IdempotencyStatus
		body        []byte
		code        *int
		contentType *string
		updatedAt   time.Time
	)
	err := s.txManager.GetQuerier(ctx).QueryRow(ctx, `
		INSERT INTO sys_idempotency (idempotency_key, scope, operation, status, request_hash, created_at, updated_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6, $7)
		ON CONFLICT (idempotency_key) DO UPDATE SET expires_at = GREATEST(sys_idempotency.expires_at, $7)
		RETURNING (xmax = 0), scope, operation, request_hash, status, response, response_status, response_content_type, updated_at
	`, key, scope, operation, IdempotencyStatusPending, requestHash, now, now.Add(s.ttl)).Scan(
		&inserted, &storedScope, &storedOp, &storedHash, &status, &body, &code, &contentType, &updatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("acquire idempotency key: %w", err)
	}
	if inserted {
		return nil, nil
	}

	if storedScope != scope || storedOp != operation || storedHash != requestHash {
		return nil, apperror.NewValidation("idempotency key was used for a different request").
			WithDetail("key", key)
	}

	switch status {
	case IdempotencyStatusSuccess, IdempotencyStatusFailed:
		replay := &IdempotencyReplay{StatusCode: http.StatusOK, ContentType: "application/json", Body: body}
		if code != nil && *code != 0 {
			replay.StatusCode = *code
		}
		if contentType != nil && *contentType != "" {
			replay.ContentType = *contentType
		}
		return replay, nil
	}

	if now.Sub(updatedAt) > stalePending {
		tag, err := s.txManager.GetQuerier(ctx).Exec(ctx, `
			UPDATE sys_idempotency SET updated_at = $1
			WHERE idempotency_key = $2 AND status = $3 AND updated_at = $4
		`, now, key, IdempotencyStatusPending, updatedAt)
		if err != nil {
			return nil, fmt.Errorf("reclaim idempotency key: %w", err)
		}
		if tag.RowsAffected() == 1 {
			return nil, nil
		}
	}
	return nil, apperror.NewConflict("a request with this idempotency key is in progress").
		WithDetail("key", key)
}

// Complete stores the response of a finished request. Responses with a 5xx
// status release the key so the client can retry.
func (s *IdempotencyStore) Complete(ctx context.Context, key string, statusCode int, contentType string, body []byte) error {
	q := s.txManager.GetQuerier(ctx)
	if statusCode >= http.StatusInternalServerError {
		_, err := q.Exec(ctx, `DELETE FROM sys_idempotency WHERE idempotency_key = $1`, key)
		return err
	}

	status := IdempotencyStatusSuccess
	if statusCode >= http.StatusBadRequest {
		status = IdempotencyStatusFailed
	}
	_, err := q.Exec(ctx, `
		UPDATE sys_idempotency
		SET status = $1, response = $2, response_status = $3, response_content_type = $4, updated_at = $5
		WHERE idempotency_key = $6
	`, status, body, statusCode, contentType, s.now().UTC(), key)
	if err != nil {
		return fmt.Errorf("complete idempotency key: %w", err)
	}
	return nil
}

// CleanupExpired removes expired keys.
func (s *IdempotencyStore) CleanupExpired(ctx context.Context) (int64, error) {
	tag, err := s.txManager.GetQuerier(ctx).Exec(ctx,
		`DELETE FROM sys_idempotency WHERE expires_at < $1`, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("cleanup idempotency keys: %w", err)
	}
	return tag.RowsAffected(), nil
}
