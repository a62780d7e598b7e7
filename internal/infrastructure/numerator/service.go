// Package numerator implements numerator.Generator on a PostgreSQL
// sequence table.
package numerator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	corenumerator "sorvetao/internal/core/numerator"
)

// Querier is the subset of pgxpool.Pool the service needs.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type block struct {
	current int64
	max     int64
}

// Service reserves numbers from order_sequences.
type Service struct {
	db Querier

	mu     sync.Mutex
	blocks map[string]*block
}

var _ corenumerator.Generator = (*Service)(nil)

// New creates a numerator over db.
// Calls are made outside the caller's transaction so a rolled back
// checkout never reuses a number.
func New(db Querier) *Service {
	return &Service{
		db:     db,
		blocks: make(map[string]*block),
	}
}

const reserveSQL = `
INSERT INTO order_sequences (key, current_val)
VALUES ($1, $2)
ON CONFLICT (key) DO UPDATE SET current_val = order_sequences.current_val + $2
RETURNING current_val`

// Next implements numerator.Generator.
func (s *Service) Next(ctx context.Context, cfg corenumerator.Config, opts *corenumerator.Options, at time.Time) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	if opts == nil {
		opts = &corenumerator.Options{Strategy: corenumerator.StrategyStrict}
	}

	key := corenumerator.SequenceKey(cfg, at)

	var (
		n   int64
		err error
	)
	switch opts.Strategy {
	case corenumerator.StrategyCached:
		n, err = s.nextCached(ctx, key, opts.BlockSize)
	default:
		n, err = s.reserve(ctx, key, 1)
	}
	if err != nil {
		return "", err
	}
	return corenumerator.Format(cfg, at, n), nil
}

// reserve bumps the sequence by size and returns the new high-water mark.
func (s *Service) reserve(ctx context.Context, key string, size int64) (int64, error) {
	var max int64
	if err := s.db.QueryRow(ctx, reserveSQL, key, size).Scan(&max); err != nil {
		return 0, fmt.Errorf("reserve %d from %s: %w", size, key, err)
	}
	return max, nil
}

func (s *Service) nextCached(ctx context.Context, key string, size int64) (int64, error) {
	if size <= 0 {
		size = corenumerator.DefaultBlockSize
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.blocks[key]
	if !ok {
		b = &block{}
		s.blocks[key] = b
	}

	if b.current >= b.max {
		max, err := s.reserve(ctx, key, size)
		if err != nil {
			return 0, err
		}
		// the block is (max-size, max]
		b.current = max - size
		b.max = max
	}

	b.current++
	return b.current, nil
}

// Reset sets the last issued value of a sequence (data migration) and drops
// any cached block for it.
func (s *Service) Reset(ctx context.Context, cfg corenumerator.Config, at time.Time, value int64) error {
	key := corenumerator.SequenceKey(cfg, at)

	var stored int64
	err := s.db.QueryRow(ctx, `
		INSERT INTO order_sequences (key, current_val)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET current_val = $2
		RETURNING current_val`, key, value).Scan(&stored)

	s.mu.Lock()
	delete(s.blocks, key)
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("reset %s: %w", key, err)
	}
	return nil
}
