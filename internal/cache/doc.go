// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package cache provides a sharded, weight-bounded LRU cache for decoded
// grids.
//
// Each entry carries a weight (its size in bytes). A shard evicts its least
// recently used entries until its total weight fits its share of the
// budget. The most recent entry of a shard is never evicted, so a single
// grid larger than the budget is still served.
//
//	c := cache.NewSharded[string, *grid.Grid](4, 256<<20, cache.StringHasher)
//	c.Set("temp/2024-03-20T12", g, int64(g.Bytes()))
//	g, ok := c.Get("temp/2024-03-20T12")
package cache
