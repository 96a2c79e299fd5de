package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient is the part of *redis.Client the store calls.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
}

var errRedisUnavailable = errors.New("redis cache client unavailable")

const (
	// redisScanCount is the COUNT hint passed to each SCAN page.
	redisScanCount = 200
	// redisDeleteBatch caps the keys sent in one DEL.
	redisDeleteBatch = 500
)

// redisStore keeps query results as plain string values under
// "<prefix>:<key>" and relies on redis key expiry for TTLs.
type redisStore struct {
	client RedisClient
	ttl    time.Duration
	prefix string
}

func newRedisStore(client RedisClient, ttl time.Duration, prefix string) Store {
	if prefix == "" {
		prefix = defaultCachePrefix
	}
	return &redisStore{client: client, ttl: orDefault(ttl, defaultCacheTTL), prefix: prefix}
}

func (s *redisStore) Driver() Driver { return DriverRedis }

func (s *redisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := s.ready(); err != nil {
		return nil, false, err
	}
	body, err := s.client.Get(ctx, s.redisKey(key)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, false, nil
	case err != nil:
		return nil, false, err
	}
	return body, true, nil
}

func (s *redisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.client.Set(ctx, s.redisKey(key), value, orDefault(ttl, s.ttl)).Err()
}

func (s *redisStore) Delete(ctx context.Context, key string) error {
	return s.DeleteMany(ctx, key)
}

func (s *redisStore) DeleteMany(ctx context.Context, keys ...string) error {
	if err := s.ready(); err != nil {
		return err
	}
	redisKeys := make([]string, len(keys))
	for i, key := range keys {
		redisKeys[i] = s.redisKey(key)
	}
	return s.del(ctx, redisKeys)
}

// Flush scans for this store's prefix and deletes what it finds. Other keys
// in the database are left alone.
func (s *redisStore) Flush(ctx context.Context) error {
	if err := s.ready(); err != nil {
		return err
	}
	match := redisGlobEscaper.Replace(s.prefix) + ":*"
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, match, redisScanCount).Result()
		if err != nil {
			return err
		}
		if err := s.del(ctx, keys); err != nil {
			return err
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func (s *redisStore) del(ctx context.Context, redisKeys []string) error {
	for len(redisKeys) > 0 {
		n := min(len(redisKeys), redisDeleteBatch)
		if err := s.client.Del(ctx, redisKeys[:n]...).Err(); err != nil {
			return err
		}
		redisKeys = redisKeys[n:]
	}
	return nil
}

func (s *redisStore) ready() error {
	if s.client == nil {
		return errRedisUnavailable
	}
	return nil
}

func (s *redisStore) redisKey(key string) string {
	return s.prefix + ":" + key
}

// redisGlobEscaper quotes SCAN MATCH metacharacters in a literal prefix.
var redisGlobEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)
