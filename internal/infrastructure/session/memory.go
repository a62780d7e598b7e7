// Package session keeps live order-entry sessions in process memory.
package session

import (
	"context"
	"sync"
	"time"

	"sorvetao/internal/core/apperror"
	"sorvetao/internal/core/id"
	"sorvetao/internal/domain/ordering"
	"sorvetao/pkg/logger"
)

// Config configures MemoryStore.
type Config struct {
	// TTL is the idle time after which a session expires. Zero disables expiry.
	TTL time.Duration

	// SweepInterval defaults to TTL/2, at least one second.
	SweepInterval time.Duration

	// Now defaults to time.Now
	Now func() time.Time
}

type entry struct {
	mu       sync.Mutex
	sess     *ordering.Session
	lastSeen time.Time
	gone     bool
}

// MemoryStore implements ordering.SessionStore. Each session has its own
// lock; the map lock is never held together with a session lock.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[id.ID]*entry

	ttl   time.Duration
	sweep time.Duration
	now   func() time.Time

	// Lifecycle
	lifecycleMu sync.Mutex
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	started     bool
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(cfg Config) *MemoryStore {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	sweep := cfg.SweepInterval
	if sweep <= 0 {
		sweep = cfg.TTL / 2
	}
	if sweep < time.Second {
		sweep = time.Second
	}

	return &MemoryStore{
		sessions: make(map[id.ID]*entry),
		ttl:      cfg.TTL,
		sweep:    sweep,
		now:      now,
	}
}

func notFound(sessionID id.ID) error {
	return apperror.NewNotFound("order session", sessionID.String())
}

// Create implements ordering.SessionStore.
func (s *MemoryStore) Create(ctx context.Context, sess *ordering.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[sess.ID]; exists {
		return apperror.NewConflict("order session already exists").
			WithDetail("sessionId", sess.ID.String())
	}
	s.sessions[sess.ID] = &entry{sess: sess, lastSeen: s.now()}
	return nil
}

// View implements ordering.SessionStore.
func (s *MemoryStore) View(ctx context.Context, sessionID id.ID, fn func(*ordering.Session) error) error {
	return s.with(sessionID, fn, false)
}

// Update implements ordering.SessionStore.
func (s *MemoryStore) Update(ctx context.Context, sessionID id.ID, fn func(*ordering.Session) error) error {
	return s.with(sessionID, fn, false)
}

// Finish implements ordering.SessionStore.
func (s *MemoryStore) Finish(ctx context.Context, sessionID id.ID, fn func(*ordering.Session) error) error {
	return s.with(sessionID, fn, true)
}

// Delete implements ordering.SessionStore.
func (s *MemoryStore) Delete(ctx context.Context, sessionID id.ID) error {
	e, ok := s.lookup(sessionID)
	if !ok {
		return nil
	}

	e.mu.Lock()
	e.gone = true
	e.mu.Unlock()

	s.remove(sessionID, e)
	return nil
}

// Len returns the number of sessions held, expired ones included until swept.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *MemoryStore) lookup(sessionID id.ID) (*entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[sessionID]
	return e, ok
}

func (s *MemoryStore) remove(sessionID id.ID, e *entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions[sessionID] == e {
		delete(s.sessions, sessionID)
	}
}

func (s *MemoryStore) with(sessionID id.ID, fn func(*ordering.Session) error, finish bool) error {
	e, ok := s.lookup(sessionID)
	if !ok {
		return notFound(sessionID)
	}

	drop, err := s.run(e, fn, finish)
	if drop {
		s.remove(sessionID, e)
	}
	return err
}

func (s *MemoryStore) run(e *entry, fn func(*ordering.Session) error, finish bool) (drop bool, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := s.now()
	if e.gone {
		return false, notFound(e.sess.ID)
	}
	if s.expired(e, now) {
		e.gone = true
		return true, notFound(e.sess.ID)
	}

	e.lastSeen = now
	if err := fn(e.sess); err != nil {
		return false, err
	}
	if finish {
		e.gone = true
		return true, nil
	}
	return false, nil
}

func (s *MemoryStore) expired(e *entry, now time.Time) bool {
	return s.ttl > 0 && now.Sub(e.lastSeen) > s.ttl
}

// Sweep removes expired sessions and returns how many were dropped.
func (s *MemoryStore) Sweep() int {
	s.mu.RLock()
	candidates := make(map[id.ID]*entry, len(s.sessions))
	for k, e := range s.sessions {
		candidates[k] = e
	}
	s.mu.RUnlock()

	now := s.now()
	removed := 0
	for k, e := range candidates {
		e.mu.Lock()
		drop := e.gone || s.expired(e, now)
		e.gone = drop
		e.mu.Unlock()

		if drop {
			s.remove(k, e)
			removed++
		}
	}
	return removed
}

// Start runs the expiry sweeper until Stop. No-op when TTL is zero.
func (s *MemoryStore) Start(ctx context.Context) {
	if s.ttl <= 0 {
		return
	}

	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()
	if s.started {
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.started = true

	s.wg.Add(1)
	go s.sweepLoop(ctx)
	logger.Info(ctx, "session store sweeper started", "ttl", s.ttl.String())
}

// Stop stops the sweeper and waits for it.
func (s *MemoryStore) Stop() {
	s.lifecycleMu.Lock()
	if !s.started {
		s.lifecycleMu.Unlock()
		return
	}
	cancel := s.cancel
	s.started = false
	s.cancel = nil
	s.lifecycleMu.Unlock()

	cancel()
	s.wg.Wait()
}

func (s *MemoryStore) sweepLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.sweep)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				logger.Debug(ctx, "expired order sessions removed", "count", n)
			}
		}
	}
}

// Ensure interface compliance at compile time.
var _ ordering.SessionStore = (*MemoryStore)(nil)
