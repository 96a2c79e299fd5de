package cache

import (
	"context"
	"encoding/json"
	"time"
)

// Cache is the facade the query layer talks to. It resolves default TTLs and
// reports every operation to an optional Observer.
type Cache struct {
	store      Store
	defaultTTL time.Duration
	observer   Observer
}

// NewCache creates a cache facade bound to a concrete store.
//
// Example: cache from store
//
//	ctx := context.Background()
//	c := cache.NewCache(cache.NewMemoryStore(ctx))
//	fmt.Println(c.Driver()) // memory
func NewCache(store Store) *Cache {
	return NewCacheWithTTL(store, defaultCacheTTL)
}

// NewCacheWithTTL lets callers override the default TTL applied when ttl <= 0.
func NewCacheWithTTL(store Store, defaultTTL time.Duration) *Cache {
	if defaultTTL <= 0 {
		defaultTTL = defaultCacheTTL
	}
	return &Cache{
		store:      store,
		defaultTTL: defaultTTL,
	}
}

// WithObserver attaches an observer to receive operation events.
func (c *Cache) WithObserver(o Observer) *Cache {
	c.observer = o
	return c
}

// Store returns the underlying store implementation.
func (c *Cache) Store() Store {
	return c.store
}

// Driver reports the underlying store driver.
func (c *Cache) Driver() Driver {
	return c.store.Driver()
}

// Get returns raw bytes for key when present.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	start := time.Now()
	body, ok, err := c.store.Get(ctx, key)
	c.observe(ctx, "get", key, ok, err, start)
	return body, ok, err
}

// Set writes raw bytes to key.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	start := time.Now()
	err := c.store.Set(ctx, key, value, c.resolveTTL(ttl))
	c.observe(ctx, "set", key, false, err, start)
	return err
}

// Delete removes a single key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := c.store.Delete(ctx, key)
	c.observe(ctx, "delete", key, err == nil, err, start)
	return err
}

// DeleteMany removes multiple keys.
func (c *Cache) DeleteMany(ctx context.Context, keys ...string) error {
	start := time.Now()
	err := c.store.DeleteMany(ctx, keys...)
	for _, key := range keys {
		c.observe(ctx, "delete_many", key, err == nil, err, start)
	}
	return err
}

// Flush clears all keys for this store scope.
func (c *Cache) Flush(ctx context.Context) error {
	start := time.Now()
	err := c.store.Flush(ctx)
	c.observe(ctx, "flush", "", err == nil, err, start)
	return err
}

// Close releases backend resources when the store holds any.
func (c *Cache) Close() error {
	return closeStore(c.store)
}

// GetJSON decodes a JSON value into T when key exists.
func GetJSON[T any](ctx context.Context, c *Cache, key string) (T, bool, error) {
	var zero T
	start := time.Now()
	body, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		c.observe(ctx, "get_json", key, ok, err, start)
		return zero, ok, err
	}
	var out T
	if err := json.Unmarshal(body, &out); err != nil {
		c.observe(ctx, "get_json", key, false, err, start)
		return zero, false, err
	}
	c.observe(ctx, "get_json", key, true, nil, start)
	return out, true, nil
}

// SetJSON encodes value as JSON and writes it to key.
func SetJSON[T any](ctx context.Context, c *Cache, key string, value T, ttl time.Duration) error {
	start := time.Now()
	body, err := json.Marshal(value)
	if err != nil {
		c.observe(ctx, "set_json", key, false, err, start)
		return err
	}
	err = c.Set(ctx, key, body, ttl)
	c.observe(ctx, "set_json", key, false, err, start)
	return err
}

func (c *Cache) resolveTTL(ttl time.Duration) time.Duration {
	if ttl > 0 {
		return ttl
	}
	return c.defaultTTL
}

func (c *Cache) observe(ctx context.Context, op, key string, hit bool, err error, start time.Time) {
	if c.observer == nil {
		return
	}
	c.observer.OnCacheOp(ctx, op, key, hit, err, time.Since(start), c.Driver())
}
