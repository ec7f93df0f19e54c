package datasource

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/songo-bi/songo-engine/pkg/logging"
	"github.com/songo-bi/songo-engine/pkg/retry"
)

const (
	DefaultConnectionTTLMinutes = 5
	DefaultCleanupInterval      = 1 * time.Minute
	DefaultPoolMaxConns         = 10
	DefaultPoolMinConns         = 1
)

// ConnectionManagerConfig holds configuration for the connection manager
type ConnectionManagerConfig struct {
	TTLMinutes   int
	PoolMaxConns int32
	PoolMinConns int32
}

// PoolFactory creates the pool for a database on first use. The manager
// calls it at most once per database ID until the pool expires or turns
// unhealthy.
type PoolFactory func(ctx context.Context, cfg PoolConfig) (PoolConnector, error)

// ConnectionManager caches one connection pool per database ID for the
// process lifetime, with TTL-based eviction of idle pools. Pools for
// different databases are independent; concurrent requests for the same
// database share the pool and check out their own sessions from it.
type ConnectionManager struct {
	mu       sync.RWMutex
	pools    map[uuid.UUID]*managedPool
	ttl      time.Duration
	poolCfg  PoolConfig
	stopped  bool
	stopChan chan struct{}
	logger   *zap.Logger
}

type managedPool struct {
	pool     PoolConnector
	lastUsed time.Time
	mu       sync.Mutex // guards lastUsed and health-check sequencing
}

// NewConnectionManager creates a connection manager with the given configuration.
// Starts a background cleanup goroutine that runs until Close() is called.
func NewConnectionManager(cfg ConnectionManagerConfig, logger *zap.Logger) *ConnectionManager {
	if cfg.TTLMinutes <= 0 {
		cfg.TTLMinutes = DefaultConnectionTTLMinutes
	}
	if cfg.PoolMaxConns <= 0 {
		cfg.PoolMaxConns = DefaultPoolMaxConns
	}
	if cfg.PoolMinConns <= 0 {
		cfg.PoolMinConns = DefaultPoolMinConns
	}

	ttl := time.Duration(cfg.TTLMinutes) * time.Minute
	manager := &ConnectionManager{
		pools: make(map[uuid.UUID]*managedPool),
		ttl:   ttl,
		poolCfg: PoolConfig{
			MaxConns:    cfg.PoolMaxConns,
			MinConns:    cfg.PoolMinConns,
			MaxIdleTime: ttl,
		},
		stopChan: make(chan struct{}),
		logger:   logger,
	}

	go manager.cleanupExpiredPools()
	return manager
}

// GetOrCreate returns the pool for databaseID, creating it via factory on
// first use. An existing pool is health-checked before reuse and recreated
// if unreachable.
func (m *ConnectionManager) GetOrCreate(ctx context.Context, databaseID uuid.UUID, factory PoolFactory) (PoolConnector, error) {
	// Fast path: existing pool under read lock
	m.mu.RLock()
	managed, exists := m.pools[databaseID]
	m.mu.RUnlock()

	if exists {
		managed.mu.Lock()

		healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		err := retry.Do(healthCtx, retry.DefaultConfig(), func() error {
			return managed.pool.Ping(healthCtx)
		})
		if err != nil {
			m.logger.Warn("pool unhealthy, recreating",
				zap.String("databaseID", databaseID.String()),
				zap.String("error", logging.SanitizeError(err)),
			)
			managed.mu.Unlock() // unlock before removePool takes the write lock
			m.removePool(databaseID)
			return m.createPool(ctx, databaseID, factory)
		}

		managed.lastUsed = time.Now()
		managed.mu.Unlock()
		return managed.pool, nil
	}

	return m.createPool(ctx, databaseID, factory)
}

// createPool creates a new pool with retry logic.
// Caller must NOT hold any locks (this method acquires the write lock).
func (m *ConnectionManager) createPool(ctx context.Context, databaseID uuid.UUID, factory PoolFactory) (PoolConnector, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock (another goroutine may have created it)
	if managed, exists := m.pools[databaseID]; exists && managed != nil {
		managed.mu.Lock()
		defer managed.mu.Unlock()
		managed.lastUsed = time.Now()
		return managed.pool, nil
	}

	pool, err := retry.DoWithResult(ctx, retry.DefaultConfig(), func() (PoolConnector, error) {
		return factory(ctx, m.poolCfg)
	})
	if err != nil {
		m.logger.Error("failed to create pool after retries",
			zap.String("databaseID", databaseID.String()),
			zap.String("error", logging.SanitizeError(err)),
		)
		return nil, err
	}

	m.pools[databaseID] = &managedPool{
		pool:     pool,
		lastUsed: time.Now(),
	}

	m.logger.Info("created connection pool",
		zap.String("databaseID", databaseID.String()),
		zap.String("type", pool.Type()),
	)

	return pool, nil
}

// removePool removes a pool and closes it.
// Caller must NOT hold m.mu (this method acquires the write lock).
func (m *ConnectionManager) removePool(databaseID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if managed, exists := m.pools[databaseID]; exists && managed != nil {
		if managed.pool != nil {
			_ = managed.pool.Close()
		}
		delete(m.pools, databaseID)
		m.logger.Debug("removed pool", zap.String("databaseID", databaseID.String()))
	}
}

// cleanupExpiredPools runs periodically to remove idle pools.
// Runs in a background goroutine until stopChan is closed.
func (m *ConnectionManager) cleanupExpiredPools() {
	ticker := time.NewTicker(DefaultCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.performCleanup()
		case <-m.stopChan:
			return
		}
	}
}

// performCleanup removes pools that haven't been used within TTL.
// Lock ordering: manager lock before pool lock.
func (m *ConnectionManager) performCleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return
	}

	now := time.Now()
	var expired []uuid.UUID

	for id, managed := range m.pools {
		if managed == nil {
			continue
		}
		managed.mu.Lock()
		idle := now.Sub(managed.lastUsed)
		managed.mu.Unlock()

		if idle > m.ttl {
			expired = append(expired, id)
		}
	}

	for _, id := range expired {
		if managed := m.pools[id]; managed != nil {
			if managed.pool != nil {
				_ = managed.pool.Close()
			}
			delete(m.pools, id)
		}
	}

	if len(expired) > 0 {
		m.logger.Info("cleaned up idle pools",
			zap.Int("count", len(expired)),
			zap.Int("remaining", len(m.pools)),
		)
	}
}

// Close closes all pools and stops the cleanup goroutine.
// Idempotent and safe to call multiple times.
func (m *ConnectionManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return nil
	}

	m.stopped = true
	close(m.stopChan)

	for _, managed := range m.pools {
		if managed != nil && managed.pool != nil {
			_ = managed.pool.Close()
		}
	}

	m.pools = make(map[uuid.UUID]*managedPool)
	m.logger.Info("connection manager closed")
	return nil
}

// Stats returns statistics about the cached pools. Safe to call concurrently.
func (m *ConnectionManager) Stats() ConnectionStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := time.Now()
	stats := ConnectionStats{
		TotalPools:  len(m.pools),
		TTLMinutes:  int(m.ttl.Minutes()),
		PoolsByType: make(map[string]int),
	}

	for _, managed := range m.pools {
		if managed == nil {
			continue
		}
		stats.PoolsByType[managed.pool.Type()]++

		managed.mu.Lock()
		idleSeconds := int(now.Sub(managed.lastUsed).Seconds())
		managed.mu.Unlock()
		if idleSeconds > stats.OldestIdleSeconds {
			stats.OldestIdleSeconds = idleSeconds
		}
	}

	return stats
}

// ConnectionStats contains statistics about the connection manager state.
type ConnectionStats struct {
	TotalPools        int            `json:"total_pools"`
	TTLMinutes        int            `json:"ttl_minutes"`
	PoolsByType       map[string]int `json:"pools_by_type"`
	OldestIdleSeconds int            `json:"oldest_idle_seconds"`
}
