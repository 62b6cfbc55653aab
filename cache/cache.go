// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"context"
	"sync"
	"time"
)

const (
	// DefaultTTL is the fallback entry lifetime when none is given.
	DefaultTTL = 5 * time.Minute

	// DefaultMaxKeys bounds the store. When exceeded, the oldest entries are
	// evicted. Unbounded growth is a defect, not a tuning choice.
	DefaultMaxKeys = 1000
)

// entry is a stored value with its own expiry, checked lazily on read.
type entry struct {
	data     any
	storedAt time.Time
	ttl      time.Duration
}

func (e *entry) expired(now time.Time) bool {
	return now.Sub(e.storedAt) >= e.ttl
}

// Stats reports cache usage counters.
type Stats struct {
	Keys    int     `json:"keys"`
	Hits    uint64  `json:"hits"`
	Misses  uint64  `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

// Cache is a bounded in-memory TTL cache for API responses.
// It is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry

	defaultTTL time.Duration
	maxKeys    int
	now        func() time.Time

	hits   uint64
	misses uint64
}

// Option configures a Cache.
type Option func(*Cache)

// WithDefaultTTL sets the entry lifetime used when Set is called without one.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.defaultTTL = ttl
	}
}

// WithMaxKeys bounds the number of stored entries.
func WithMaxKeys(n int) Option {
	return func(c *Cache) {
		c.maxKeys = n
	}
}

// WithClock overrides the time source. Intended for TTL tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// New creates an empty cache with the given options.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries:    make(map[string]*entry),
		defaultTTL: DefaultTTL,
		maxKeys:    DefaultMaxKeys,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.defaultTTL <= 0 {
		c.defaultTTL = DefaultTTL
	}
	if c.maxKeys <= 0 {
		c.maxKeys = DefaultMaxKeys
	}
	return c
}

// Get returns the stored value for key if present and not expired.
// Expired entries are removed on read; a sweep is not required for correctness.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	if e.expired(c.now()) {
		delete(c.entries, key)
		c.misses++
		return nil, false
	}
	c.hits++
	return e.data, true
}

// Set stores a value under key with the default TTL, overwriting any existing entry.
func (c *Cache) Set(key string, value any) {
	c.SetWithTTL(key, value, c.defaultTTL)
}

// SetWithTTL stores a value under key with an explicit TTL, overwriting any
// existing entry. When the store is full, the oldest entry is evicted first.
func (c *Cache) SetWithTTL(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxKeys {
		c.evictOldestLocked()
	}
	c.entries[key] = &entry{data: value, storedAt: c.now(), ttl: ttl}
}

// evictOldestLocked removes the entry with the earliest store time.
// Callers must hold the mutex.
func (c *Cache) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time
	first := true
	for k, e := range c.entries {
		if first || e.storedAt.Before(oldestAt) {
			oldestKey = k
			oldestAt = e.storedAt
			first = false
		}
	}
	if !first {
		delete(c.entries, oldestKey)
	}
}

// Has reports whether a non-expired entry exists for key.
// Unlike Get, it does not touch the hit/miss counters.
func (c *Cache) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return false
	}
	if e.expired(c.now()) {
		delete(c.entries, key)
		return false
	}
	return true
}

// Delete removes the entry for key, if any.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear removes all entries. Counters are reset as well.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
	c.hits = 0
	c.misses = 0
}

// Sweep removes all expired entries and returns how many were purged.
// Running it periodically is optional; Get performs the same check lazily.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	purged := 0
	for k, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, k)
			purged++
		}
	}
	return purged
}

// Stats returns current usage counters. The hit rate is 0 when there have
// been no accesses, never NaN.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{Keys: len(c.entries), Hits: c.hits, Misses: c.misses}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total)
	}
	return s
}

// CacheAPIResponse stores an API payload under the deterministic key derived
// from the endpoint and its parameters.
func (c *Cache) CacheAPIResponse(endpoint string, params map[string]string, data any, ttl time.Duration) {
	c.SetWithTTL(GenerateKey(endpoint, params), data, ttl)
}

// GetCachedAPIResponse returns a previously cached API payload, if any.
func (c *Cache) GetCachedAPIResponse(endpoint string, params map[string]string) (any, bool) {
	return c.Get(GenerateKey(endpoint, params))
}

// Memoize wraps fn so that results are cached under the namespace plus the
// call's arguments. On a hit fn is not invoked at all; on a miss it runs once
// and its result is stored before being returned. Errors are never cached.
func Memoize[T any](
	c *Cache,
	namespace string,
	ttl time.Duration,
	fn func(ctx context.Context, args ...string) (T, error),
) func(ctx context.Context, args ...string) (T, error) {
	return func(ctx context.Context, args ...string) (T, error) {
		key := memoKey(namespace, args)
		if cached, ok := c.Get(key); ok {
			if typed, ok := cached.(T); ok {
				return typed, nil
			}
			// Type mismatch means the namespace is shared between incompatible
			// functions; treat as a miss and overwrite below.
		}

		result, err := fn(ctx, args...)
		if err != nil {
			var zero T
			return zero, err
		}
		c.SetWithTTL(key, result, ttl)
		return result, nil
	}
}
