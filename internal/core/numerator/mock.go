package numerator

import (
	"context"
	"sync"
	"time"
)

// MockGenerator counts from 1 in memory. For tests.
type MockGenerator struct {
	mu   sync.Mutex
	next map[string]int64

	// Err, when set, is returned by every call.
	Err error
}

// Next implements Generator.
func (m *MockGenerator) Next(_ context.Context, cfg Config, _ *Options, at time.Time) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.next == nil {
		m.next = make(map[string]int64)
	}
	key := SequenceKey(cfg, at)
	m.next[key]++
	return Format(cfg, at, m.next[key]), nil
}

var _ Generator = (*MockGenerator)(nil)
