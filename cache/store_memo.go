package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// NewMemoStore puts a process-local read memo in front of store. Memoized
// reads expire after ttl (the default cache TTL when ttl <= 0) and expired
// memos are swept, so the memo never outgrows the live working set. Writes and
// deletes through the decorator drop the memo for the touched keys. The query
// layer still checks entry freshness, so a memoized stale value is only ever
// used as placeholder data.
func NewMemoStore(store Store, ttl time.Duration) Store {
	ttl = orDefault(ttl, defaultCacheTTL)
	return &memoStore{
		Store: store,
		memo:  gocache.New(ttl, 2*ttl),
	}
}

type memoStore struct {
	Store
	memo *gocache.Cache
}

func (s *memoStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if v, found := s.memo.Get(key); found {
		return cloneBytes(v.([]byte)), true, nil
	}
	body, ok, err := s.Store.Get(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	s.memo.SetDefault(key, cloneBytes(body))
	return body, true, nil
}

func (s *memoStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	defer s.memo.Delete(key)
	return s.Store.Set(ctx, key, value, ttl)
}

func (s *memoStore) Delete(ctx context.Context, key string) error {
	defer s.memo.Delete(key)
	return s.Store.Delete(ctx, key)
}

func (s *memoStore) DeleteMany(ctx context.Context, keys ...string) error {
	defer func() {
		for _, key := range keys {
			s.memo.Delete(key)
		}
	}()
	return s.Store.DeleteMany(ctx, keys...)
}

func (s *memoStore) Flush(ctx context.Context) error {
	defer s.memo.Flush()
	return s.Store.Flush(ctx)
}

func (s *memoStore) Close() error { return closeStore(s.Store) }
