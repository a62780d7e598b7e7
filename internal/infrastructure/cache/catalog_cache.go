// Package cache provides caching infrastructure with PostgreSQL LISTEN/NOTIFY support.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"sorvetao/internal/domain/catalogs/assortment"
	"sorvetao/pkg/logger"
)

// ChannelCatalogChanged is the NOTIFY channel catalog writers signal on.
const ChannelCatalogChanged = "catalog_changed"

// CatalogCache serves the current catalog snapshot to new order-entry
// sessions and reloads it when PostgreSQL announces a change.
// Sessions already running keep the snapshot they started with.
type CatalogCache struct {
	pool   *pgxpool.Pool
	loader assortment.Provider

	mu       sync.RWMutex
	snapshot *assortment.Snapshot
	reloads  int
	failures int

	listeners   []InvalidationListener
	listenersMu sync.RWMutex

	lifecycleMu sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	started     bool
}

// InvalidationListener is called after a notification has been handled.
type InvalidationListener func(channel string, payload string)

// NewCatalogCache creates a cache in front of loader. A nil pool disables
// the LISTEN loop; Refresh must then be called explicitly.
func NewCatalogCache(pool *pgxpool.Pool, loader assortment.Provider) *CatalogCache {
	return &CatalogCache{pool: pool, loader: loader}
}

// Start loads the initial snapshot and begins listening for changes.
func (c *CatalogCache) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	c.lifecycleMu.Lock()
	if c.started {
		c.lifecycleMu.Unlock()
		return nil
	}
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.started = true
	c.lifecycleMu.Unlock()

	if err := c.Refresh(c.ctx); err != nil {
		c.Stop()
		return fmt.Errorf("load catalog: %w", err)
	}

	if c.pool != nil {
		c.wg.Add(1)
		go c.listenLoop()
	}
	logger.Info(c.ctx, "catalog cache started")
	return nil
}

// Stop gracefully stops the listener.
func (c *CatalogCache) Stop() {
	c.lifecycleMu.Lock()
	if !c.started {
		c.lifecycleMu.Unlock()
		return
	}
	cancel := c.cancel
	c.started = false
	c.cancel = nil
	c.lifecycleMu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.wg.Wait()
	logger.Info(context.Background(), "catalog cache stopped")
}

// Load implements assortment.Provider. The first call loads lazily when
// Start was never called.
func (c *CatalogCache) Load(ctx context.Context) (*assortment.Snapshot, error) {
	c.mu.RLock()
	snap := c.snapshot
	c.mu.RUnlock()
	if snap != nil {
		return snap, nil
	}

	if err := c.Refresh(ctx); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot, nil
}

// Refresh reloads the snapshot. On failure the previous snapshot stays.
func (c *CatalogCache) Refresh(ctx context.Context) error {
	snap, err := c.loader.Load(ctx)
	if err != nil {
		c.mu.Lock()
		c.failures++
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	c.snapshot = snap
	c.reloads++
	c.mu.Unlock()

	logger.Info(ctx, "loaded catalog",
		"categories", len(snap.Categories()),
		"products", snap.ProductCount())
	return nil
}

func (c *CatalogCache) listenLoop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		conn, err := c.pool.Acquire(c.ctx)
		if err != nil {
			logger.Error(c.ctx, "failed to acquire connection for LISTEN", "error", err)
			c.sleep(time.Second)
			continue
		}

		if _, err = conn.Exec(c.ctx, "LISTEN "+ChannelCatalogChanged); err != nil {
			logger.Error(c.ctx, "failed to LISTEN", "error", err)
			conn.Release()
			c.sleep(time.Second)
			continue
		}

		logger.Info(c.ctx, "listening for catalog notifications", "channel", ChannelCatalogChanged)

		// a reconnect may have missed notifications
		c.handleNotification(ChannelCatalogChanged, "reconnect")
		c.waitForNotifications(conn)
		conn.Release()
	}
}

func (c *CatalogCache) waitForNotifications(conn *pgxpool.Conn) {
	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		ctx, cancel := context.WithTimeout(c.ctx, 30*time.Second)
		notification, err := conn.Conn().WaitForNotification(ctx)
		cancel()

		if err != nil {
			if c.ctx.Err() != nil {
				return
			}
			if conn.Conn().IsClosed() {
				logger.Warn(c.ctx, "LISTEN connection lost", "error", err)
				return
			}
			continue
		}

		logger.Debug(c.ctx, "received notification",
			"channel", notification.Channel,
			"payload", notification.Payload)

		c.handleNotification(notification.Channel, notification.Payload)
	}
}

func (c *CatalogCache) handleNotification(channel, payload string) {
	if channel != ChannelCatalogChanged {
		return
	}

	ctx := c.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if err := c.Refresh(ctx); err != nil {
		logger.Error(ctx, "failed to reload catalog, keeping previous snapshot", "error", err)
	}

	c.listenersMu.RLock()
	for _, listener := range c.listeners {
		func(l InvalidationListener) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error(ctx, "listener panic recovered", "channel", channel, "panic", r)
				}
			}()
			l(channel, payload)
		}(listener)
	}
	c.listenersMu.RUnlock()
}

func (c *CatalogCache) sleep(d time.Duration) {
	select {
	case <-c.ctx.Done():
	case <-time.After(d):
	}
}

// LogReloads returns a listener that reports each notification-driven
// reload with the resulting stats.
func (c *CatalogCache) LogReloads(log *logger.Logger) InvalidationListener {
	return func(channel, payload string) {
		st := c.GetStats()
		log.Infow("catalog reloaded",
			"channel", channel,
			"table", payload,
			"categories", st.Categories,
			"products", st.Products,
			"reloads", st.Reloads,
			"failures", st.Failures)
	}
}

// OnInvalidation registers a callback for catalog change notifications.
func (c *CatalogCache) OnInvalidation(listener InvalidationListener) {
	c.listenersMu.Lock()
	c.listeners = append(c.listeners, listener)
	c.listenersMu.Unlock()
}

// CacheStats describes the cached catalog.
type CacheStats struct {
	Categories int
	Products   int
	LoadedAt   time.Time
	Reloads    int
	Failures   int
}

// GetStats returns current cache statistics.
func (c *CatalogCache) GetStats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	st := CacheStats{Reloads: c.reloads, Failures: c.failures}
	if c.snapshot != nil {
		st.Categories = len(c.snapshot.Categories())
		st.Products = c.snapshot.ProductCount()
		st.LoadedAt = c.snapshot.LoadedAt()
	}
	return st
}

var _ assortment.Provider = (*CatalogCache)(nil)
