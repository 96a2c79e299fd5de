package cache

import (
	"os"
	"path/filepath"
	"time"
)

const (
	defaultCachePrefix           = "usersearch"
	defaultCacheTTL              = 5 * time.Minute
	defaultMemoryCleanupInterval = 10 * time.Minute
	defaultSQLTable              = "query_cache"
	defaultDynamoTable           = "usersearch_cache"
	defaultDynamoRegion          = "us-east-1"
)

func defaultFileDir() string {
	return filepath.Join(os.TempDir(), "usersearch-cache")
}

// StoreConfig controls how a Store is constructed.
type StoreConfig struct {
	Driver Driver

	// DefaultTTL is used when a call provides ttl <= 0.
	DefaultTTL time.Duration

	// MemoryCleanupInterval controls in-process eviction sweeps.
	MemoryCleanupInterval time.Duration

	// Prefix namespaces keys on shared backends.
	Prefix string

	// RedisClient is required when DriverRedis is used.
	RedisClient RedisClient

	// NATSKeyValue is required when DriverNATS is used.
	NATSKeyValue NATSKeyValue
	// NATSBucketTTL reports that the bucket enforces TTL itself, so values are
	// stored without an expiry envelope.
	NATSBucketTTL bool

	// SQLDriverName is sqlite, mysql, or pgx. postgres and postgresql are
	// accepted as aliases for pgx.
	SQLDriverName string
	SQLDSN        string
	SQLTable      string

	// DynamoClient overrides the client built from region/endpoint.
	DynamoClient   DynamoAPI
	DynamoRegion   string
	DynamoEndpoint string
	DynamoTable    string

	// FileDir controls where the file driver writes entries.
	FileDir string

	// Compression and MaxValueBytes shape values before they reach the backend.
	Compression   CompressionCodec
	MaxValueBytes int

	// EncryptionKey enables AES-GCM at rest when set (16, 24 or 32 bytes).
	EncryptionKey []byte

	// Memoize adds a per-process read memo in front of the backend.
	Memoize bool
}

func (c StoreConfig) withDefaults() StoreConfig {
	if c.Driver == "" {
		c.Driver = DriverMemory
	}
	if c.DefaultTTL <= 0 {
		c.DefaultTTL = defaultCacheTTL
	}
	if c.MemoryCleanupInterval <= 0 {
		c.MemoryCleanupInterval = defaultMemoryCleanupInterval
	}
	if c.Prefix == "" {
		c.Prefix = defaultCachePrefix
	}
	if c.SQLTable == "" {
		c.SQLTable = defaultSQLTable
	}
	if c.DynamoTable == "" {
		c.DynamoTable = defaultDynamoTable
	}
	if c.DynamoRegion == "" {
		c.DynamoRegion = defaultDynamoRegion
	}
	if c.FileDir == "" {
		c.FileDir = defaultFileDir()
	}
	if c.Compression == "" {
		c.Compression = CompressionNone
	}
	return c
}
