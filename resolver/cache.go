// Copyright 2026 The Locator Authors
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/eventloc/locator/logging"
)

// DefaultCacheTTL is how long a resolution stays valid.
const DefaultCacheTTL = 7 * 24 * time.Hour

// Store is a keyed backing store for resolved locations. Implementations
// must tolerate concurrent calls.
type Store interface {
	// Get returns the entry stored under key, expired or not.
	Get(ctx context.Context, key string) (*ResolvedLocation, bool, error)

	// Set stores loc under key, replacing any previous entry.
	Set(ctx context.Context, key string, loc *ResolvedLocation) error

	// Purge deletes entries created before olderThan and returns how many were removed.
	Purge(ctx context.Context, olderThan time.Time) (int, error)

	// Len returns the number of stored entries.
	Len(ctx context.Context) (int, error)
}

// Cache applies the resolution TTL on top of a Store. Expiry is lazy: stale
// entries stay in the store until purged but are never returned.
type Cache struct {
	store  Store
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// NewCache wraps store with the given TTL. A zero ttl means DefaultCacheTTL.
func NewCache(store Store, ttl time.Duration, logger *zap.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	return &Cache{
		store:  store,
		ttl:    ttl,
		now:    time.Now,
		logger: logging.OrNop(logger).Named("cache"),
	}
}

// TTL returns the configured time to live.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Fresh reports whether loc is still within the TTL.
func (c *Cache) Fresh(loc *ResolvedLocation) bool {
	return c.now().Sub(loc.CreatedAt) < c.ttl
}

// Get returns a fresh entry for fingerprint. Store failures count as a miss.
func (c *Cache) Get(ctx context.Context, fingerprint string) (*ResolvedLocation, bool) {
	loc, ok, err := c.store.Get(ctx, fingerprint)
	if err != nil {
		c.logger.Warn("cache read failed", zap.String("fingerprint", fingerprint), zap.Error(err))

		return nil, false
	}

	if !ok || loc == nil {
		return nil, false
	}

	if !c.Fresh(loc) {
		c.logger.Debug("cache entry expired",
			zap.String("fingerprint", fingerprint),
			zap.Time("created_at", loc.CreatedAt))

		return nil, false
	}

	return loc, true
}

// Set stores loc under fingerprint. A failed write is logged and otherwise
// ignored: the resolution it belongs to already succeeded.
func (c *Cache) Set(ctx context.Context, fingerprint string, loc *ResolvedLocation) {
	if err := c.store.Set(ctx, fingerprint, loc); err != nil {
		c.logger.Warn("cache write failed", zap.String("fingerprint", fingerprint), zap.Error(err))
	}
}

// Purge removes expired entries from the store.
func (c *Cache) Purge(ctx context.Context) (int, error) {
	return c.store.Purge(ctx, c.now().Add(-c.ttl))
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len(ctx context.Context) (int, error) {
	return c.store.Len(ctx)
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]ResolvedLocation
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]ResolvedLocation)}
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, key string) (*ResolvedLocation, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	loc, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}

	return &loc, true, nil
}

// Set implements Store.
func (m *MemoryStore) Set(_ context.Context, key string, loc *ResolvedLocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = *loc

	return nil
}

// Purge implements Store.
func (m *MemoryStore) Purge(_ context.Context, olderThan time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0

	for k, loc := range m.entries {
		if loc.CreatedAt.Before(olderThan) {
			delete(m.entries, k)
			n++
		}
	}

	return n, nil
}

// Len implements Store.
func (m *MemoryStore) Len(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.entries), nil
}
