// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package earth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/gogpu/earth/grid"
	"github.com/gogpu/earth/internal/cache"
)

// ErrSuperseded is returned by Loader.Load when a newer request for the
// same product replaced the call before it completed.
var ErrSuperseded = errors.New("earth: load superseded by a newer request")

// DefaultCacheBytes is the default budget for decoded grids kept by a
// Loader.
const DefaultCacheBytes = 256 << 20

// FetchFunc retrieves and decodes the grid identified by key.
type FetchFunc func(ctx context.Context, key string) (*grid.Grid, error)

// Loader loads grids asynchronously with supersession.
//
// Each product (e.g. "overlay", "primary") has at most one live request.
// Starting a new request for a product cancels the previous one, and a
// result reaching a superseded request is discarded with ErrSuperseded.
// Concurrent requests for the same key share one fetch. Decoded grids are
// cached by key.
type Loader struct {
	fetch FetchFunc
	cache *cache.Sharded[string, *grid.Grid]
	group singleflight.Group

	mu      sync.Mutex
	latest  map[string]*loadRequest // by product
	flights map[string]*loadFlight  // by key
}

type loadRequest struct {
	key    string
	cancel context.CancelFunc
}

// loadFlight owns the context of one shared fetch. It is canceled when its
// last waiter leaves.
type loadFlight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// LoaderOption configures a Loader.
type LoaderOption func(*loaderOptions)

type loaderOptions struct {
	cacheBytes int64
}

// WithCacheBytes sets the byte budget of the grid cache.
func WithCacheBytes(n int64) LoaderOption {
	return func(o *loaderOptions) { o.cacheBytes = n }
}

// NewLoader creates a loader that retrieves grids with fetch.
func NewLoader(fetch FetchFunc, opts ...LoaderOption) *Loader {
	o := loaderOptions{cacheBytes: DefaultCacheBytes}
	for _, opt := range opts {
		opt(&o)
	}
	return &Loader{
		fetch:   fetch,
		cache:   cache.NewSharded[string, *grid.Grid](4, o.cacheBytes, cache.StringHasher),
		latest:  make(map[string]*loadRequest),
		flights: make(map[string]*loadFlight),
	}
}

// Load returns the grid for key on behalf of product. It blocks until the
// grid is available, ctx is done, or a newer Load for the same product
// supersedes this one.
func (l *Loader) Load(ctx context.Context, product, key string) (*grid.Grid, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	req := l.begin(product, key, cancel)

	if g, ok := l.cache.Get(key); ok {
		if !l.finish(product, req) {
			return nil, ErrSuperseded
		}
		return g, nil
	}

	fctx := l.join(key)
	defer l.leave(key)
	ch := l.group.DoChan(key, func() (any, error) {
		g, err := l.fetch(fctx, key)
		if err != nil {
			return nil, err
		}
		l.cache.Set(key, g, int64(g.Bytes()))
		return g, nil
	})

	select {
	case <-ctx.Done():
		if !l.finish(product, req) {
			Logger().Debug("grid load superseded", "product", product, "key", key)
			return nil, ErrSuperseded
		}
		return nil, ctx.Err()
	case r := <-ch:
		if !l.finish(product, req) {
			Logger().Debug("grid load discarded", "product", product, "key", key)
			return nil, ErrSuperseded
		}
		if r.Err != nil {
			Logger().Warn("grid load failed", "product", product, "key", key, "err", r.Err)
			return nil, fmt.Errorf("earth: load %s: %w", key, r.Err)
		}
		return r.Val.(*grid.Grid), nil
	}
}

// Cached reports whether key is in the grid cache.
func (l *Loader) Cached(key string) bool {
	_, ok := l.cache.Get(key)
	return ok
}

// Stats returns grid cache statistics.
func (l *Loader) Stats() cache.Stats { return l.cache.Stats() }

// begin registers req as the live request for product and cancels the one
// it replaces.
func (l *Loader) begin(product, key string, cancel context.CancelFunc) *loadRequest {
	req := &loadRequest{key: key, cancel: cancel}
	l.mu.Lock()
	old := l.latest[product]
	l.latest[product] = req
	l.mu.Unlock()
	if old != nil {
		old.cancel()
	}
	return req
}

// finish reports whether req is still the live request for product and
// retires it.
func (l *Loader) finish(product string, req *loadRequest) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.latest[product] != req {
		return false
	}
	delete(l.latest, product)
	return true
}

func (l *Loader) join(key string) context.Context {
	l.mu.Lock()
	defer l.mu.Unlock()
	f, ok := l.flights[key]
	if !ok {
		ctx, cancel := context.WithCancel(context.Background())
		f = &loadFlight{ctx: ctx, cancel: cancel}
		l.flights[key] = f
	}
	f.waiters++
	return f.ctx
}

func (l *Loader) leave(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	f := l.flights[key]
	if f == nil {
		return
	}
	f.waiters--
	if f.waiters > 0 {
		return
	}
	f.cancel()
	delete(l.flights, key)
	// A later Load for key must start a fresh fetch, not join this one.
	l.group.Forget(key)
}

// HTTPFetcher returns a FetchFunc that GETs base/key and decodes the body
// with grid.Decode. A nil client means http.DefaultClient.
func HTTPFetcher(base string, client *http.Client) FetchFunc {
	if client == nil {
		client = http.DefaultClient
	}
	base = strings.TrimRight(base, "/")
	return func(ctx context.Context, key string) (*grid.Grid, error) {
		u, err := url.JoinPath(base, key)
		if err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		defer func() {
			_ = resp.Body.Close()
		}()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("GET %s: %s", u, resp.Status)
		}
		return grid.Decode(resp.Body)
	}
}
