// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package cache

import (
	"fmt"
	"sync"
	"testing"
)

func TestNewShardedRoundsShards(t *testing.T) {
	tests := []struct{ in, want int }{
		{-1, 1}, {0, 1}, {1, 1}, {2, 2}, {3, 4}, {5, 8}, {16, 16},
	}
	for _, tt := range tests {
		c := NewSharded[string, int](tt.in, 100, StringHasher)
		if got := c.Shards(); got != tt.want {
			t.Errorf("NewSharded(%d).Shards() = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestShardedGetSet(t *testing.T) {
	c := NewSharded[string, int](4, 1<<20, StringHasher)
	if _, ok := c.Get("missing"); ok {
		t.Fatal("Get(missing) hit")
	}
	c.Set("a", 1, 10)
	c.Set("a", 2, 20)
	if v, ok := c.Get("a"); !ok || v != 2 {
		t.Errorf("Get(a) = %d, %v, want 2, true", v, ok)
	}
	st := c.Stats()
	if st.Len != 1 || st.Weight != 20 || st.Hits != 1 || st.Misses != 1 {
		t.Errorf("Stats() = %+v", st)
	}
	if !c.Delete("a") || c.Delete("a") {
		t.Error("Delete(a) should succeed once")
	}
	if c.Len() != 0 {
		t.Errorf("Len() after Delete = %d", c.Len())
	}
}

func TestShardedEvictsByWeight(t *testing.T) {
	c := NewSharded[string, int](1, 100, StringHasher)
	c.Set("a", 1, 40)
	c.Set("b", 2, 40)
	c.Get("a") // b is now least recently used
	c.Set("c", 3, 40)

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	for _, k := range []string{"a", "c"} {
		if _, ok := c.Get(k); !ok {
			t.Errorf("%s should be cached", k)
		}
	}
	if got := c.Stats().Evictions; got != 1 {
		t.Errorf("Evictions = %d, want 1", got)
	}
}

func TestShardedKeepsOversizedEntry(t *testing.T) {
	c := NewSharded[string, int](1, 10, StringHasher)
	c.Set("small", 1, 5)
	c.Set("huge", 2, 1000)
	if _, ok := c.Get("huge"); !ok {
		t.Error("most recent entry must survive even when over budget")
	}
	if _, ok := c.Get("small"); ok {
		t.Error("small should have been evicted")
	}
}

func TestShardedClear(t *testing.T) {
	c := NewSharded[string, int](2, 1000, StringHasher)
	for i := range 10 {
		c.Set(fmt.Sprint(i), i, 1)
	}
	c.Clear()
	if c.Len() != 0 || c.Stats().Weight != 0 {
		t.Errorf("after Clear: Len=%d Weight=%d", c.Len(), c.Stats().Weight)
	}
}

func TestShardedConcurrent(t *testing.T) {
	c := NewSharded[string, int](8, 1<<10, StringHasher)
	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 200 {
				k := fmt.Sprintf("%d-%d", g, i%20)
				c.Set(k, i, 8)
				c.Get(k)
			}
		}()
	}
	wg.Wait()
	if st := c.Stats(); st.Weight > st.Budget+8*int64(c.Shards()) {
		t.Errorf("weight %d exceeds budget %d", st.Weight, st.Budget)
	}
}
