package cache

import (
	"context"
	"fmt"
)

// NewStore returns a concrete store for the requested driver with the configured
// shaping, encryption and memo decorators applied.
//
// Construction never fails outright: a driver that cannot be built yields a store
// that reports the construction error on every call.
//
// Example: memory store
//
//	ctx := context.Background()
//	store := cache.NewStore(ctx, cache.StoreConfig{Driver: cache.DriverMemory})
//	fmt.Println(store.Driver()) // memory
func NewStore(ctx context.Context, cfg StoreConfig) Store {
	cfg = cfg.withDefaults()
	store, err := newDriverStore(ctx, cfg)
	if err != nil {
		return &errorStore{driver: cfg.Driver, err: fmt.Errorf("init %s cache store: %w", cfg.Driver, err)}
	}
	// Compress before sealing; ciphertext does not compress.
	store, err = newEncryptingStore(store, cfg.EncryptionKey)
	if err != nil {
		return &errorStore{driver: cfg.Driver, err: err}
	}
	store = newShapingStore(store, cfg.Compression, cfg.MaxValueBytes)
	if cfg.Memoize {
		store = NewMemoStore(store, cfg.DefaultTTL)
	}
	return store
}

// NewStoreWith builds a store using a driver and a set of functional options.
func NewStoreWith(ctx context.Context, driver Driver, opts ...StoreOption) Store {
	cfg := StoreConfig{Driver: driver}
	for _, opt := range opts {
		cfg = opt(cfg)
	}
	return NewStore(ctx, cfg)
}

// NewMemoryStore is a convenience for an in-process store.
func NewMemoryStore(ctx context.Context, opts ...StoreOption) Store {
	return NewStoreWith(ctx, DriverMemory, opts...)
}

func newDriverStore(ctx context.Context, cfg StoreConfig) (Store, error) {
	switch cfg.Driver {
	case DriverNull:
		return newNullStore(), nil
	case DriverFile:
		return newFileStore(cfg.FileDir, cfg.Prefix, cfg.DefaultTTL)
	case DriverRedis:
		if cfg.RedisClient == nil {
			return nil, ErrMissingClient
		}
		return newRedisStore(cfg.RedisClient, cfg.DefaultTTL, cfg.Prefix), nil
	case DriverNATS:
		if cfg.NATSKeyValue == nil {
			return nil, ErrMissingClient
		}
		return newNATSStore(cfg.NATSKeyValue, cfg.DefaultTTL, cfg.Prefix, cfg.NATSBucketTTL), nil
	case DriverSQL:
		return newSQLStore(ctx, cfg)
	case DriverDynamo:
		return newDynamoStore(ctx, cfg)
	default:
		return newMemoryStore(cfg.DefaultTTL, cfg.MemoryCleanupInterval), nil
	}
}
