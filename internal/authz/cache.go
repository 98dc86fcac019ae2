// Gatehouse - Access Control for Multi-Tenant Landing Page SaaS
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatehouse

package authz

import (
	"sync"
	"time"
)

const defaultCacheTTL = 5 * time.Minute

// ttlCache is a small expiring map with a background sweeper. It backs both
// the enforcer decision cache and the role cache.
type ttlCache[V any] struct {
	name     string
	ttl      time.Duration
	mu       sync.RWMutex
	items    map[string]cacheItem[V]
	stopChan chan struct{}
	stopOnce sync.Once
	now      func() time.Time
}

type cacheItem[V any] struct {
	value     V
	expiresAt time.Time
}

func newTTLCache[V any](name string, ttl time.Duration) *ttlCache[V] {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	c := &ttlCache[V]{
		name:     name,
		ttl:      ttl,
		items:    make(map[string]cacheItem[V]),
		stopChan: make(chan struct{}),
		now:      time.Now,
	}
	go c.cleanup()
	return c
}

func (c *ttlCache[V]) get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, ok := c.items[key]
	if !ok || c.now().After(item.expiresAt) {
		recordCacheLookup(c.name, false)
		var zero V
		return zero, false
	}
	recordCacheLookup(c.name, true)
	return item.value, true
}

func (c *ttlCache[V]) set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = cacheItem[V]{value: value, expiresAt: c.now().Add(c.ttl)}
	setCacheSize(c.name, len(c.items))
}

func (c *ttlCache[V]) invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	setCacheSize(c.name, len(c.items))
}

func (c *ttlCache[V]) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *ttlCache[V]) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for key, item := range c.items {
		if now.After(item.expiresAt) {
			delete(c.items, key)
		}
	}
	setCacheSize(c.name, len(c.items))
}

func (c *ttlCache[V]) cleanup() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

// stop ends the sweeper. Safe to call more than once.
func (c *ttlCache[V]) stop() {
	c.stopOnce.Do(func() {
		close(c.stopChan)
	})
}
