// Package config loads runtime settings from the environment.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/goforj/usersearch/cache"
	"github.com/goforj/usersearch/directory"
)

// DefaultEnvFile is loaded when present. Variables already set in the
// process environment win over it.
const DefaultEnvFile = ".env"

// Config holds every USERSEARCH_* setting.
type Config struct {
	APIURL    string        `env:"USERSEARCH_API_URL"`
	HTTPAddr  string        `env:"USERSEARCH_HTTP_ADDR" envDefault:"localhost:8080"`
	StaleTime time.Duration `env:"USERSEARCH_STALE_TIME" envDefault:"5m"`
	Debounce  time.Duration `env:"USERSEARCH_DEBOUNCE" envDefault:"300ms"`

	CacheDriver        string `env:"USERSEARCH_CACHE_DRIVER" envDefault:"memory"`
	CachePrefix        string `env:"USERSEARCH_CACHE_PREFIX" envDefault:"usersearch"`
	CacheCompression   string `env:"USERSEARCH_CACHE_COMPRESSION"`
	CacheMaxBytes      int    `env:"USERSEARCH_CACHE_MAX_BYTES"`
	CacheEncryptionKey string `env:"USERSEARCH_CACHE_ENCRYPTION_KEY"`
	CacheMemo          bool   `env:"USERSEARCH_CACHE_MEMO"`

	RedisAddr string `env:"USERSEARCH_REDIS_ADDR" envDefault:"localhost:6379"`

	NATSURL    string `env:"USERSEARCH_NATS_URL" envDefault:"nats://127.0.0.1:4222"`
	NATSBucket string `env:"USERSEARCH_NATS_BUCKET" envDefault:"usersearch"`

	SQLDriver string `env:"USERSEARCH_SQL_DRIVER" envDefault:"sqlite"`
	SQLDSN    string `env:"USERSEARCH_SQL_DSN" envDefault:"file:usersearch.db"`
	SQLTable  string `env:"USERSEARCH_SQL_TABLE"`

	DynamoRegion   string `env:"USERSEARCH_DYNAMO_REGION"`
	DynamoEndpoint string `env:"USERSEARCH_DYNAMO_ENDPOINT"`
	DynamoTable    string `env:"USERSEARCH_DYNAMO_TABLE"`

	FileDir string `env:"USERSEARCH_FILE_DIR"`

	OTLPEndpoint string `env:"USERSEARCH_OTLP_ENDPOINT"`
}

// Load reads the optional env files (DefaultEnvFile when none are given) and
// then parses the process environment.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{DefaultEnvFile}
	}
	for _, path := range envFiles {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", path, err)
		}
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Parse builds a Config from an explicit environment instead of the process.
func Parse(environ map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate reports settings the program cannot start without.
func (c Config) Validate() error {
	if strings.TrimSpace(c.APIURL) == "" {
		return &directory.ConfigurationError{Reason: "USERSEARCH_API_URL is not set"}
	}
	if _, err := cache.ParseDriver(c.CacheDriver); err != nil {
		return fmt.Errorf("USERSEARCH_CACHE_DRIVER: %w", err)
	}
	if _, err := cache.ParseCompression(c.CacheCompression); err != nil {
		return fmt.Errorf("USERSEARCH_CACHE_COMPRESSION: %w", err)
	}
	if _, err := c.encryptionKey(); err != nil {
		return err
	}
	return nil
}

// encryptionKey decodes the base64 cache encryption key. An empty setting
// disables encryption.
func (c Config) encryptionKey() ([]byte, error) {
	if c.CacheEncryptionKey == "" {
		return nil, nil
	}
	key, err := base64.StdEncoding.DecodeString(c.CacheEncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("USERSEARCH_CACHE_ENCRYPTION_KEY: %w", err)
	}
	switch len(key) {
	case 16, 24, 32:
		return key, nil
	default:
		return nil, fmt.Errorf("USERSEARCH_CACHE_ENCRYPTION_KEY: %w", cache.ErrEncryptionKey)
	}
}
