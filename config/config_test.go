package config

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goforj/usersearch/cache"
	"github.com/goforj/usersearch/directory"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(map[string]string{"USERSEARCH_API_URL": "https://example.test/users"})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.APIURL != "https://example.test/users" || cfg.HTTPAddr != "localhost:8080" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.StaleTime != 5*time.Minute || cfg.Debounce != 300*time.Millisecond {
		t.Fatalf("stale=%v debounce=%v", cfg.StaleTime, cfg.Debounce)
	}
	if cfg.CacheDriver != "memory" || cfg.CachePrefix != "usersearch" {
		t.Fatalf("driver=%q prefix=%q", cfg.CacheDriver, cfg.CachePrefix)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestParseOverrides(t *testing.T) {
	cfg, err := Parse(map[string]string{
		"USERSEARCH_API_URL":           "http://localhost:9000",
		"USERSEARCH_STALE_TIME":        "30s",
		"USERSEARCH_DEBOUNCE":          "50ms",
		"USERSEARCH_CACHE_DRIVER":      "sql",
		"USERSEARCH_CACHE_COMPRESSION": "gzip",
		"USERSEARCH_CACHE_MAX_BYTES":   "4096",
	})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.StaleTime != 30*time.Second || cfg.Debounce != 50*time.Millisecond || cfg.CacheMaxBytes != 4096 {
		t.Fatalf("unexpected config %+v", cfg)
	}

	if _, err := Parse(map[string]string{"USERSEARCH_STALE_TIME": "soon"}); err == nil {
		t.Fatalf("expected parse error for bad duration")
	}
}

func TestValidateRequiresAPIURL(t *testing.T) {
	cfg, err := Parse(map[string]string{})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	err = cfg.Validate()
	var cfgErr *directory.ConfigurationError
	if !errors.As(err, &cfgErr) || !errors.Is(err, directory.ErrNotConfigured) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestValidateCacheSettings(t *testing.T) {
	base := map[string]string{"USERSEARCH_API_URL": "http://x"}

	cfg, _ := Parse(base)
	cfg.CacheCompression = "zstd"
	if err := cfg.Validate(); !errors.Is(err, cache.ErrUnsupportedCodec) {
		t.Fatalf("expected unsupported codec, got %v", err)
	}

	cfg, _ = Parse(base)
	cfg.CacheEncryptionKey = base64.StdEncoding.EncodeToString([]byte("short"))
	if err := cfg.Validate(); !errors.Is(err, cache.ErrEncryptionKey) {
		t.Fatalf("expected key length error, got %v", err)
	}

	cfg.CacheEncryptionKey = "%%%"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected base64 error")
	}

	cfg, _ = Parse(base)
	cfg.CacheDriver = "reddis"
	if err := cfg.Validate(); !errors.Is(err, cache.ErrUnknownDriver) {
		t.Fatalf("expected unknown driver, got %v", err)
	}
}

func TestOpenCacheRejectsUnknownDriver(t *testing.T) {
	cfg, _ := Parse(map[string]string{
		"USERSEARCH_API_URL":      "http://x",
		"USERSEARCH_CACHE_DRIVER": "reddis",
	})
	if _, _, err := cfg.OpenCache(context.Background()); !errors.Is(err, cache.ErrUnknownDriver) {
		t.Fatalf("expected unknown driver, got %v", err)
	}
}

func TestLoadReadsEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("USERSEARCH_API_URL=http://from-dotenv.test\nUSERSEARCH_HTTP_ADDR=:9999\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("USERSEARCH_HTTP_ADDR", ":7000")
	t.Cleanup(func() { _ = os.Unsetenv("USERSEARCH_API_URL") })

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIURL != "http://from-dotenv.test" {
		t.Fatalf("APIURL = %q", cfg.APIURL)
	}
	if cfg.HTTPAddr != ":7000" {
		t.Fatalf("process env should win over the env file, got %q", cfg.HTTPAddr)
	}
}

func TestLoadIgnoresMissingEnvFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
}

func TestOpenCacheSQLite(t *testing.T) {
	ctx := context.Background()
	cfg, _ := Parse(map[string]string{
		"USERSEARCH_API_URL":              "http://x",
		"USERSEARCH_CACHE_DRIVER":         "sql",
		"USERSEARCH_SQL_DRIVER":           "sqlite",
		"USERSEARCH_SQL_DSN":              "file:config_open_cache?mode=memory&cache=shared",
		"USERSEARCH_CACHE_COMPRESSION":    "gzip",
		"USERSEARCH_CACHE_ENCRYPTION_KEY": base64.StdEncoding.EncodeToString([]byte("0123456789abcdef")),
	})
	c, closeFn, err := cfg.OpenCache(ctx)
	if err != nil {
		t.Fatalf("OpenCache() error = %v", err)
	}
	defer func() {
		if err := closeFn(); err != nil {
			t.Fatalf("close: %v", err)
		}
	}()
	if c.Driver() != cache.DriverSQL {
		t.Fatalf("driver = %q", c.Driver())
	}
	if err := c.Set(ctx, "users:name=Leanne", []byte(`[{"id":1}]`), 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, ok, err := c.Get(ctx, "users:name=Leanne")
	if err != nil || !ok || string(got) != `[{"id":1}]` {
		t.Fatalf("Get() = %q, %v, %v", got, ok, err)
	}
}

func TestOpenCacheNATSUnreachable(t *testing.T) {
	cfg, _ := Parse(map[string]string{
		"USERSEARCH_CACHE_DRIVER": "nats",
		"USERSEARCH_NATS_URL":     "nats://127.0.0.1:1",
	})
	if _, _, err := cfg.OpenCache(context.Background()); err == nil {
		t.Fatalf("expected connect error")
	}
}
