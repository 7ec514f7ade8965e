// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package cache

import (
	"hash/fnv"
	"math/bits"
	"sync"
	"sync/atomic"
)

// Hasher computes the hash used for shard selection.
type Hasher[K any] func(K) uint64

// StringHasher computes the FNV-1a hash of a string key.
func StringHasher(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s)) // fnv.Write never returns an error
	return h.Sum64()
}

// Sharded is a thread-safe LRU cache split into a power-of-two number of
// shards, each bounded by total entry weight.
type Sharded[K comparable, V any] struct {
	shards []*shard[K, V]
	mask   uint64
	hasher Hasher[K]
	budget int64 // per shard

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

type shard[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*entry[K, V]
	lru     lruList[K]
}

type entry[K comparable, V any] struct {
	value V
	node  *lruNode[K]
}

// Stats contains cache statistics.
type Stats struct {
	Len       int
	Weight    int64
	Budget    int64
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// NewSharded creates a cache with at least n shards (rounded up to a power
// of two) sharing a total weight budget. n <= 0 means one shard.
func NewSharded[K comparable, V any](n int, budget int64, hasher Hasher[K]) *Sharded[K, V] {
	if n <= 1 {
		n = 1
	} else {
		n = 1 << bits.Len(uint(n-1))
	}
	c := &Sharded[K, V]{
		shards: make([]*shard[K, V], n),
		mask:   uint64(n - 1),
		hasher: hasher,
		budget: max(budget/int64(n), 1),
	}
	for i := range c.shards {
		c.shards[i] = &shard[K, V]{entries: make(map[K]*entry[K, V])}
	}
	return c
}

func (c *Sharded[K, V]) shardFor(key K) *shard[K, V] {
	return c.shards[c.hasher(key)&c.mask]
}

// Get returns the cached value for key and marks it recently used.
func (c *Sharded[K, V]) Get(key K) (V, bool) {
	s := c.shardFor(key)
	s.mu.Lock()
	e, ok := s.entries[key]
	var value V
	if ok {
		s.lru.moveToFront(e.node)
		value = e.value
	}
	s.mu.Unlock()

	if !ok {
		c.misses.Add(1)
		return value, false
	}
	c.hits.Add(1)
	return value, true
}

// Set stores value under key with the given weight and evicts least
// recently used entries of the shard until it fits the budget.
func (c *Sharded[K, V]) Set(key K, value V, weight int64) {
	s := c.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok {
		e.value = value
		s.lru.reweigh(e.node, weight)
		s.lru.moveToFront(e.node)
	} else {
		s.entries[key] = &entry[K, V]{value: value, node: s.lru.pushFront(key, weight)}
	}

	for s.lru.weight > c.budget && s.lru.len > 1 {
		old := s.lru.oldest()
		s.lru.remove(old)
		delete(s.entries, old.key)
		c.evictions.Add(1)
	}
}

// Delete removes key and reports whether it was present.
func (c *Sharded[K, V]) Delete(key K) bool {
	s := c.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return false
	}
	s.lru.remove(e.node)
	delete(s.entries, key)
	return true
}

// Clear removes all entries.
func (c *Sharded[K, V]) Clear() {
	for _, s := range c.shards {
		s.mu.Lock()
		s.entries = make(map[K]*entry[K, V])
		s.lru = lruList[K]{}
		s.mu.Unlock()
	}
}

// Len returns the number of entries across all shards.
func (c *Sharded[K, V]) Len() int {
	total := 0
	for _, s := range c.shards {
		s.mu.Lock()
		total += len(s.entries)
		s.mu.Unlock()
	}
	return total
}

// Shards returns the number of shards.
func (c *Sharded[K, V]) Shards() int { return len(c.shards) }

// Stats returns current cache statistics.
func (c *Sharded[K, V]) Stats() Stats {
	st := Stats{
		Budget:    c.budget * int64(len(c.shards)),
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
	for _, s := range c.shards {
		s.mu.Lock()
		st.Len += len(s.entries)
		st.Weight += s.lru.weight
		s.mu.Unlock()
	}
	return st
}
