package cache

import (
	"context"
	"io"
	"time"
)

// Store is the byte-level contract every backend implements.
//
// A ttl <= 0 means the backend default TTL. Get returns ok=false on a miss and
// never reports a miss as an error.
type Store interface {
	Driver() Driver
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeleteMany(ctx context.Context, keys ...string) error
	Flush(ctx context.Context) error
}

func cloneBytes(value []byte) []byte {
	if value == nil {
		return nil
	}
	clone := make([]byte, len(value))
	copy(clone, value)
	return clone
}

// closeStore releases resources held by store, if it holds any.
func closeStore(store Store) error {
	if closer, ok := store.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// orDefault returns d, or fallback when d is not positive.
func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
