package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// memoryStore keeps encoded query results in a go-cache owned by this
// process. go-cache enforces expiry on read and sweeps expired entries every
// cleanup interval.
type memoryStore struct {
	entries *gocache.Cache
	ttl     time.Duration
}

func newMemoryStore(ttl, sweep time.Duration) Store {
	ttl = orDefault(ttl, defaultCacheTTL)
	return &memoryStore{
		entries: gocache.New(ttl, orDefault(sweep, defaultMemoryCleanupInterval)),
		ttl:     ttl,
	}
}

func (s *memoryStore) Driver() Driver { return DriverMemory }

func (s *memoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, found := s.entries.Get(key)
	body, isBytes := v.([]byte)
	if !found || !isBytes {
		return nil, false, nil
	}
	return cloneBytes(body), true, nil
}

func (s *memoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.entries.Set(key, cloneBytes(value), orDefault(ttl, s.ttl))
	return nil
}

func (s *memoryStore) Delete(ctx context.Context, key string) error {
	return s.DeleteMany(ctx, key)
}

func (s *memoryStore) DeleteMany(_ context.Context, keys ...string) error {
	for _, key := range keys {
		s.entries.Delete(key)
	}
	return nil
}

// Flush empties the whole instance; a memory store is never shared.
func (s *memoryStore) Flush(_ context.Context) error {
	s.entries.Flush()
	return nil
}
