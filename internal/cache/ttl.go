// Package cache implements the participant-membership cache (PC): two
// in-process TTL caches gating every conversation write and resolving a
// peer's default mailbox.
//
// Grounded on original_source's libcache.rs (Cache<T>, the local tier of
// its get(key, fallback) contract) and handlers.rs's PARTICIPANTS_CACHE/
// MBOX_CACHE usage. SPEC_FULL keeps only the local tier — spec.md names
// no Redis-backed cache layer, only "in-process TTL cache".
package cache

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Fallback produces the value for a cache miss.
type Fallback[V any] func(ctx context.Context) (V, error)

// TTLCache is a size-bounded cache with per-entry expiry. Get returns the
// cached value if present and unexpired; otherwise it runs fallback,
// caches the result on success, and returns it. A failing fallback is
// never cached (no negative caching). There is no explicit invalidation
// — staleness is bounded purely by ttl. Concurrent Get calls for the
// same key may run fallback more than once; this is accepted rather
// than coalesced, since the underlying write is idempotent.
type TTLCache[K comparable, V any] struct {
	mu  sync.Mutex
	lru *lru.Cache[K, entry[V]]
	ttl time.Duration
}

func New[K comparable, V any](capacity int, ttl time.Duration) *TTLCache[K, V] {
	l, err := lru.New[K, entry[V]](capacity)
	if err != nil {
		// Only returned by golang-lru for a non-positive size, which is a
		// wiring bug, not a runtime condition callers should handle.
		panic(err)
	}
	return &TTLCache[K, V]{lru: l, ttl: ttl}
}

func (c *TTLCache[K, V]) Get(ctx context.Context, key K, fallback Fallback[V]) (V, error) {
	c.mu.Lock()
	if e, ok := c.lru.Get(key); ok && time.Now().Before(e.expiresAt) {
		c.mu.Unlock()
		return e.value, nil
	}
	c.mu.Unlock()

	value, err := fallback(ctx)
	if err != nil {
		var zero V
		return zero, err
	}

	c.mu.Lock()
	c.lru.Add(key, entry[V]{value: value, expiresAt: time.Now().Add(c.ttl)})
	c.mu.Unlock()

	return value, nil
}

// Peek returns the cached value without triggering a fallback.
func (c *TTLCache[K, V]) Peek(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.lru.Get(key)
	if !ok || !time.Now().Before(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}
