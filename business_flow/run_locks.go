package businessflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hotelops/tarifario/config"
	"github.com/redis/go-redis/v9"
)

func redisKey(cfg config.CacheConfig, key string) string {
	if cfg.RedisPrefix == "" {
		return key
	}
	return cfg.RedisPrefix + ":" + key
}

func runLockKey(hotelID string) string {
	return fmt.Sprintf("pipeline:run_lock:%s", hotelID)
}

// RunLockManager serializes pipeline runs per hotel. Runs for the same hotel
// are mutually exclusive; runs for disjoint hotels proceed in parallel. When
// redis is configured the lock is also held cluster-wide (SETNX with TTL) so
// two service instances cannot run the same hotel concurrently.
type RunLockManager struct {
	mu    sync.Mutex
	held  map[string]bool
	rc    *redis.Client
	cache *config.CacheConfig
}

// NewRunLockManager creates a new run lock manager
func NewRunLockManager(rc *redis.Client, cache *config.CacheConfig) *RunLockManager {
	return &RunLockManager{
		held:  make(map[string]bool),
		rc:    rc,
		cache: cache,
	}
}

// Acquire takes the per-hotel lock or fails with ConcurrentRunError.
func (m *RunLockManager) Acquire(ctx context.Context, hotelID string) error {
	m.mu.Lock()
	if m.held[hotelID] {
		m.mu.Unlock()
		return &ConcurrentRunError{HotelID: hotelID}
	}
	m.held[hotelID] = true
	m.mu.Unlock()

	if m.rc == nil || m.cache == nil || !m.cache.Enabled {
		return nil
	}

	ttl := m.cache.RunLockTTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}

	lockKey := redisKey(*m.cache, runLockKey(hotelID))
	ok, err := m.rc.SetNX(ctx, lockKey, "1", ttl).Result()
	if err != nil {
		m.releaseLocal(hotelID)
		return NewBusinessError("PIPELINE_RUN_LOCK_FAILED", "Failed to acquire run lock", err)
	}
	if !ok {
		m.releaseLocal(hotelID)
		return &ConcurrentRunError{HotelID: hotelID}
	}

	return nil
}

// Release frees the per-hotel lock.
func (m *RunLockManager) Release(hotelID string) {
	m.releaseLocal(hotelID)

	if m.rc == nil || m.cache == nil || !m.cache.Enabled {
		return
	}

	lockKey := redisKey(*m.cache, runLockKey(hotelID))
	_ = m.rc.Del(context.Background(), lockKey).Err()
}

func (m *RunLockManager) releaseLocal(hotelID string) {
	m.mu.Lock()
	delete(m.held, hotelID)
	m.mu.Unlock()
}
