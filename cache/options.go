package cache

import "time"

// StoreOption mutates StoreConfig when constructing a store.
type StoreOption func(StoreConfig) StoreConfig

// WithDefaultTTL overrides the fallback TTL used when ttl <= 0.
func WithDefaultTTL(ttl time.Duration) StoreOption {
	return func(cfg StoreConfig) StoreConfig {
		cfg.DefaultTTL = ttl
		return cfg
	}
}

// WithPrefix sets the key prefix for shared backends.
func WithPrefix(prefix string) StoreOption {
	return func(cfg StoreConfig) StoreConfig {
		cfg.Prefix = prefix
		return cfg
	}
}

// WithRedisClient sets the redis client; required when using DriverRedis.
func WithRedisClient(client RedisClient) StoreOption {
	return func(cfg StoreConfig) StoreConfig {
		cfg.RedisClient = client
		return cfg
	}
}

// WithNATSKeyValue sets the JetStream key-value bucket; required when using DriverNATS.
func WithNATSKeyValue(kv NATSKeyValue, bucketTTL bool) StoreOption {
	return func(cfg StoreConfig) StoreConfig {
		cfg.NATSKeyValue = kv
		cfg.NATSBucketTTL = bucketTTL
		return cfg
	}
}

// WithSQL selects the database/sql driver name, DSN and table.
func WithSQL(driverName, dsn, table string) StoreOption {
	return func(cfg StoreConfig) StoreConfig {
		cfg.SQLDriverName = driverName
		cfg.SQLDSN = dsn
		cfg.SQLTable = table
		return cfg
	}
}

// WithDynamo configures the dynamodb driver.
func WithDynamo(region, endpoint, table string) StoreOption {
	return func(cfg StoreConfig) StoreConfig {
		cfg.DynamoRegion = region
		cfg.DynamoEndpoint = endpoint
		cfg.DynamoTable = table
		return cfg
	}
}

// WithFileDir sets the directory used by the file driver.
func WithFileDir(dir string) StoreOption {
	return func(cfg StoreConfig) StoreConfig {
		cfg.FileDir = dir
		return cfg
	}
}

// WithCompression enables value compression and an optional size cap.
func WithCompression(codec CompressionCodec, maxValueBytes int) StoreOption {
	return func(cfg StoreConfig) StoreConfig {
		cfg.Compression = codec
		cfg.MaxValueBytes = maxValueBytes
		return cfg
	}
}

// WithEncryptionKey enables AES-GCM encryption of stored values.
func WithEncryptionKey(key []byte) StoreOption {
	return func(cfg StoreConfig) StoreConfig {
		cfg.EncryptionKey = key
		return cfg
	}
}

// WithMemo adds a per-process read memo in front of the backend.
func WithMemo() StoreOption {
	return func(cfg StoreConfig) StoreConfig {
		cfg.Memoize = true
		return cfg
	}
}
