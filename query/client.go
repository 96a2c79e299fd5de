// Package query layers a keyed, freshness-aware result cache over a fetch
// function, in the manner of client-side data-fetching hooks: fresh entries are
// served without a network call, concurrent loads of one key share a single
// call, and failures are never cached.
package query

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/goforj/usersearch/cache"
)

// DefaultStaleTime is how long a resolved entry is served without refetching.
const DefaultStaleTime = 5 * time.Minute

// Params is implemented by values that key a query. Equal params must produce
// equal keys.
type Params interface {
	Key() string
}

// FetchFunc loads the value for params.
type FetchFunc[P Params, T any] func(ctx context.Context, params P) (T, error)

// Source reports where a fetched value came from.
type Source string

const (
	SourceCache   Source = "cache"
	SourceNetwork Source = "network"
	SourceShared  Source = "shared"
)

// Observer receives one event per Fetch call.
type Observer interface {
	OnFetch(ctx context.Context, key string, source Source, err error, dur time.Duration)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, key string, source Source, err error, dur time.Duration)

// OnFetch implements Observer.
func (f ObserverFunc) OnFetch(ctx context.Context, key string, source Source, err error, dur time.Duration) {
	if f == nil {
		return
	}
	f(ctx, key, source, err, dur)
}

// entry is the stored form of a resolved value.
type entry[T any] struct {
	Value     T         `json:"value"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Option configures a Client.
type Option func(*options)

type options struct {
	staleTime time.Duration
	now       func() time.Time
	observer  Observer
}

// WithStaleTime overrides DefaultStaleTime.
func WithStaleTime(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.staleTime = d
		}
	}
}

// WithClock replaces time.Now for freshness checks.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithObserver attaches a fetch observer.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

// Client resolves params to values through the cache.
type Client[P Params, T any] struct {
	cache *cache.Cache
	fetch FetchFunc[P, T]
	opts  options
	group singleflight.Group
}

// NewClient binds fetch to c.
func NewClient[P Params, T any](c *cache.Cache, fetch FetchFunc[P, T], opts ...Option) *Client[P, T] {
	o := options{staleTime: DefaultStaleTime, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Client[P, T]{cache: c, fetch: fetch, opts: o}
}

// StaleTime reports the configured freshness window.
func (c *Client[P, T]) StaleTime() time.Duration {
	return c.opts.staleTime
}

// Fetch returns the value for params and the time it was fetched.
//
// A cache entry younger than the stale time is returned as is. Otherwise the
// fetch function runs once per key no matter how many callers are waiting;
// each caller stops waiting when its own ctx is done.
func (c *Client[P, T]) Fetch(ctx context.Context, params P) (T, time.Time, error) {
	var zero T
	start := time.Now()
	key := params.Key()

	if e, ok := c.lookup(ctx, key); ok {
		c.observe(ctx, key, SourceCache, nil, start)
		return e.Value, e.FetchedAt, nil
	}

	ch := c.group.DoChan(key, func() (any, error) {
		// Detached so one caller giving up does not fail the others.
		return c.load(context.WithoutCancel(ctx), key, params)
	})
	select {
	case <-ctx.Done():
		c.observe(ctx, key, SourceNetwork, ctx.Err(), start)
		return zero, time.Time{}, ctx.Err()
	case res := <-ch:
		source := SourceNetwork
		if res.Shared {
			source = SourceShared
		}
		c.observe(ctx, key, source, res.Err, start)
		if res.Err != nil {
			return zero, time.Time{}, res.Err
		}
		e := res.Val.(entry[T])
		return e.Value, e.FetchedAt, nil
	}
}

// Invalidate drops the cached entry for params.
func (c *Client[P, T]) Invalidate(ctx context.Context, params P) error {
	return c.cache.Delete(ctx, params.Key())
}

// InvalidateAll drops every cached entry in the cache scope.
func (c *Client[P, T]) InvalidateAll(ctx context.Context) error {
	return c.cache.Flush(ctx)
}

func (c *Client[P, T]) load(ctx context.Context, key string, params P) (entry[T], error) {
	// Another flight may have finished between lookup and here.
	if e, ok := c.lookup(ctx, key); ok {
		return e, nil
	}
	if c.fetch == nil {
		return entry[T]{}, errors.New("query: fetch function is nil")
	}
	value, err := c.fetch(ctx, params)
	if err != nil {
		return entry[T]{}, err
	}
	e := entry[T]{Value: value, FetchedAt: c.opts.now()}
	// A failed write only costs a refetch later; the value is still good.
	_ = cache.SetJSON(ctx, c.cache, key, e, c.opts.staleTime)
	return e, nil
}

// lookup returns a fresh entry. Unreadable entries count as misses.
func (c *Client[P, T]) lookup(ctx context.Context, key string) (entry[T], bool) {
	e, ok, err := cache.GetJSON[entry[T]](ctx, c.cache, key)
	if err != nil || !ok {
		return entry[T]{}, false
	}
	if c.opts.now().Sub(e.FetchedAt) >= c.opts.staleTime {
		return entry[T]{}, false
	}
	return e, true
}

func (c *Client[P, T]) observe(ctx context.Context, key string, source Source, err error, start time.Time) {
	if c.opts.observer == nil {
		return
	}
	c.opts.observer.OnFetch(ctx, key, source, err, time.Since(start))
}
