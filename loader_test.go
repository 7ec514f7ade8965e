// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package earth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gogpu/earth/grid"
)

func TestLoaderCaches(t *testing.T) {
	var fetches atomic.Int32
	g := constantGrid(t, 1)
	l := NewLoader(func(ctx context.Context, key string) (*grid.Grid, error) {
		fetches.Add(1)
		return g, nil
	})
	for range 3 {
		got, err := l.Load(context.Background(), "overlay", "temp")
		if err != nil || got != g {
			t.Fatalf("Load = %v, %v", got, err)
		}
	}
	if n := fetches.Load(); n != 1 {
		t.Errorf("fetched %d times, want 1", n)
	}
	if !l.Cached("temp") {
		t.Error("Cached(temp) = false")
	}
}

func TestLoaderSupersedes(t *testing.T) {
	release := make(chan struct{})
	started := make(chan string, 2)
	g := constantGrid(t, 1)
	l := NewLoader(func(ctx context.Context, key string) (*grid.Grid, error) {
		started <- key
		if key == "slow" {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-release:
			}
		}
		return g, nil
	})
	defer close(release)

	errc := make(chan error, 1)
	go func() {
		_, err := l.Load(context.Background(), "overlay", "slow")
		errc <- err
	}()
	if k := <-started; k != "slow" {
		t.Fatalf("started %q", k)
	}

	got, err := l.Load(context.Background(), "overlay", "fast")
	if err != nil || got != g {
		t.Fatalf("Load(fast) = %v, %v", got, err)
	}
	select {
	case err := <-errc:
		if !errors.Is(err, ErrSuperseded) {
			t.Errorf("Load(slow) error = %v, want ErrSuperseded", err)
		}
	case <-time.After(time.Second):
		t.Fatal("superseded load did not return")
	}
	if l.Cached("slow") {
		t.Error("canceled fetch was cached")
	}
}

func TestLoaderSharesFetch(t *testing.T) {
	var fetches atomic.Int32
	release := make(chan struct{})
	g := constantGrid(t, 1)
	l := NewLoader(func(ctx context.Context, key string) (*grid.Grid, error) {
		fetches.Add(1)
		<-release
		return g, nil
	})

	var wg sync.WaitGroup
	for _, product := range []string{"a", "b", "c"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.Load(context.Background(), product, "wind"); err != nil {
				t.Errorf("Load(%s): %v", product, err)
			}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	if n := fetches.Load(); n != 1 {
		t.Errorf("fetched %d times, want 1", n)
	}
}

func TestLoaderFetchError(t *testing.T) {
	boom := errors.New("boom")
	l := NewLoader(func(ctx context.Context, key string) (*grid.Grid, error) {
		return nil, boom
	})
	if _, err := l.Load(context.Background(), "overlay", "x"); !errors.Is(err, boom) {
		t.Errorf("Load error = %v, want boom", err)
	}
	if l.Cached("x") {
		t.Error("failed fetch was cached")
	}
}

func TestLoaderContextCanceled(t *testing.T) {
	l := NewLoader(func(ctx context.Context, key string) (*grid.Grid, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := l.Load(ctx, "overlay", "x"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Load error = %v, want DeadlineExceeded", err)
	}
}

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/data/temp.json" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`[{"header":{"lo1":0,"la1":90,"dx":90,"dy":90,"nx":4,"ny":3,` +
			`"parameterCategory":0,"parameterNumber":0},"data":[1,2,3,4,5,6,7,8,9,10,11,12]}]`))
	}))
	defer srv.Close()

	fetch := HTTPFetcher(srv.URL+"/data/", nil)
	g, err := fetch(context.Background(), "temp.json")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if s, ok := g.At(1, 1); !ok || s.Value != 6 {
		t.Errorf("At(1, 1) = %v, %v, want 6", s, ok)
	}
	if _, err := fetch(context.Background(), "missing.json"); err == nil {
		t.Error("fetch(missing) succeeded")
	}
}
