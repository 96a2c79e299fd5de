package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	"github.com/goforj/usersearch/cache"
)

// CacheOptions translates the cache settings into store options. Driver
// clients are not created here; see OpenCache.
func (c Config) CacheOptions() ([]cache.StoreOption, error) {
	codec, err := cache.ParseCompression(c.CacheCompression)
	if err != nil {
		return nil, fmt.Errorf("USERSEARCH_CACHE_COMPRESSION: %w", err)
	}
	key, err := c.encryptionKey()
	if err != nil {
		return nil, err
	}
	opts := []cache.StoreOption{
		cache.WithPrefix(c.CachePrefix),
		cache.WithDefaultTTL(c.StaleTime),
		cache.WithSQL(c.SQLDriver, c.SQLDSN, c.SQLTable),
		cache.WithDynamo(c.DynamoRegion, c.DynamoEndpoint, c.DynamoTable),
		cache.WithFileDir(c.FileDir),
		cache.WithCompression(codec, c.CacheMaxBytes),
	}
	if key != nil {
		opts = append(opts, cache.WithEncryptionKey(key))
	}
	if c.CacheMemo {
		opts = append(opts, cache.WithMemo())
	}
	return opts, nil
}

// OpenCache builds the configured cache, dialing redis or NATS when the
// driver needs them. The returned close func releases the store and any
// connection opened here.
func (c Config) OpenCache(ctx context.Context) (*cache.Cache, func() error, error) {
	opts, err := c.CacheOptions()
	if err != nil {
		return nil, nil, err
	}
	driver, err := cache.ParseDriver(c.CacheDriver)
	if err != nil {
		return nil, nil, fmt.Errorf("USERSEARCH_CACHE_DRIVER: %w", err)
	}

	var closers []func() error
	switch driver {
	case cache.DriverRedis:
		client := redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		closers = append(closers, client.Close)
		opts = append(opts, cache.WithRedisClient(client))
	case cache.DriverNATS:
		nc, kv, err := openNATSKeyValue(c.NATSURL, c.NATSBucket)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() error {
			nc.Close()
			return nil
		})
		opts = append(opts, cache.WithNATSKeyValue(kv, false))
	}

	cc := cache.NewCacheWithTTL(cache.NewStoreWith(ctx, driver, opts...), c.StaleTime)
	closeAll := func() error {
		errs := []error{cc.Close()}
		for _, fn := range closers {
			errs = append(errs, fn())
		}
		return errors.Join(errs...)
	}
	return cc, closeAll, nil
}

func openNATSKeyValue(url, bucket string) (*nats.Conn, nats.KeyValue, error) {
	nc, err := nats.Connect(url, nats.Name("usersearch"))
	if err != nil {
		return nil, nil, fmt.Errorf("connect nats: %w", err)
	}
	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("jetstream context: %w", err)
	}
	kv, err := js.KeyValue(bucket)
	if errors.Is(err, nats.ErrBucketNotFound) {
		kv, err = js.CreateKeyValue(&nats.KeyValueConfig{Bucket: bucket})
	}
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("open nats bucket %q: %w", bucket, err)
	}
	return nc, kv, nil
}
