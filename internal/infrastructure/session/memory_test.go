package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sorvetao/internal/core/apperror"
	"sorvetao/internal/core/id"
	"sorvetao/internal/domain/catalogs/assortment"
	"sorvetao/internal/domain/ordering"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newSession(t *testing.T) *ordering.Session {
	t.Helper()
	snap, err := assortment.NewSnapshot(context.Background(), assortment.SampleCategories())
	require.NoError(t, err)
	s, err := ordering.NewSession(ordering.ChannelAdmin, snap, time.Now())
	require.NoError(t, err)
	return s
}

func TestMemoryStore_CRUD(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(Config{TTL: time.Hour})
	sess := newSession(t)

	require.NoError(t, store.Create(ctx, sess))
	err := store.Create(ctx, sess)
	assert.True(t, apperror.HasCode(err, apperror.CodeConflict))

	err = store.Update(ctx, sess.ID, func(s *ordering.Session) error {
		_, _, err := s.ChangeQuantity("prod_balde_flocos", 2)
		return err
	})
	require.NoError(t, err)

	var qty int
	err = store.View(ctx, sess.ID, func(s *ordering.Session) error {
		qty = s.Quantity("prod_balde_flocos")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, qty)

	require.NoError(t, store.Delete(ctx, sess.ID))
	assert.Zero(t, store.Len())
	assert.NoError(t, store.Delete(ctx, sess.ID))

	err = store.View(ctx, sess.ID, func(*ordering.Session) error { return nil })
	assert.True(t, apperror.IsNotFound(err))
}

func TestMemoryStore_UnknownSession(t *testing.T) {
	store := NewMemoryStore(Config{})
	err := store.Update(context.Background(), id.New(), func(*ordering.Session) error {
		t.Fatal("must not be called")
		return nil
	})
	assert.True(t, apperror.IsNotFound(err))
}

func TestMemoryStore_Finish(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(Config{})
	sess := newSession(t)
	require.NoError(t, store.Create(ctx, sess))

	boom := errors.New("boom")
	err := store.Finish(ctx, sess.ID, func(*ordering.Session) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, store.Len())

	require.NoError(t, store.Finish(ctx, sess.ID, func(*ordering.Session) error { return nil }))
	assert.Zero(t, store.Len())

	err = store.Finish(ctx, sess.ID, func(*ordering.Session) error { return nil })
	assert.True(t, apperror.IsNotFound(err))
}

func TestMemoryStore_IdleSessionsExpire(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC)}
	store := NewMemoryStore(Config{TTL: 30 * time.Minute, Now: clock.Now})

	active := newSession(t)
	idle := newSession(t)
	require.NoError(t, store.Create(ctx, active))
	require.NoError(t, store.Create(ctx, idle))

	clock.Advance(20 * time.Minute)
	require.NoError(t, store.View(ctx, active.ID, func(*ordering.Session) error { return nil }))

	clock.Advance(20 * time.Minute)
	err := store.View(ctx, idle.ID, func(*ordering.Session) error { return nil })
	assert.True(t, apperror.IsNotFound(err))
	assert.NoError(t, store.View(ctx, active.ID, func(*ordering.Session) error { return nil }))
	assert.Equal(t, 1, store.Len())

	clock.Advance(31 * time.Minute)
	assert.Equal(t, 1, store.Sweep())
	assert.Zero(t, store.Len())
}

func TestMemoryStore_SerialisesUpdates(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(Config{})
	sess := newSession(t)
	require.NoError(t, store.Create(ctx, sess))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Update(ctx, sess.ID, func(s *ordering.Session) error {
				_, _, err := s.ChangeQuantity("prod_copo_baunilha", 1)
				return err
			})
		}()
	}
	wg.Wait()

	var qty int
	require.NoError(t, store.View(ctx, sess.ID, func(s *ordering.Session) error {
		qty = s.Quantity("prod_copo_baunilha")
		return nil
	}))
	assert.Equal(t, 50, qty)
}

func TestMemoryStore_PanicReleasesLock(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(Config{})
	sess := newSession(t)
	require.NoError(t, store.Create(ctx, sess))

	assert.Panics(t, func() {
		_ = store.Update(ctx, sess.ID, func(*ordering.Session) error { panic("integrity") })
	})
	assert.NoError(t, store.View(ctx, sess.ID, func(*ordering.Session) error { return nil }))
}

func TestMemoryStore_StartStop(t *testing.T) {
	store := NewMemoryStore(Config{TTL: time.Minute})
	store.Start(context.Background())
	store.Start(context.Background())
	store.Stop()
	store.Stop()

	// no ttl, no sweeper
	NewMemoryStore(Config{}).Start(context.Background())
}
