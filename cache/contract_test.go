package cache

import (
	"context"
	"strings"
	"testing"
	"time"
)

type contractOptions struct {
	// nullSemantics relaxes expectations for stores that never retain values.
	nullSemantics bool
	ttl           time.Duration
	ttlWait       time.Duration
}

// runStoreContract checks the behavior the query layer relies on from every backend.
func runStoreContract(t *testing.T, store Store, opts contractOptions) {
	t.Helper()

	ttl := opts.ttl
	if ttl <= 0 {
		ttl = 50 * time.Millisecond
	}
	wait := opts.ttlWait
	if wait <= 0 {
		wait = 150 * time.Millisecond
	}
	ctx := context.Background()
	key := func(s string) string {
		return strings.ReplaceAll(t.Name(), "/", "_") + ":" + s
	}

	if err := store.Set(ctx, key("alpha"), []byte("value"), time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	body, ok, err := store.Get(ctx, key("alpha"))
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if opts.nullSemantics {
		if ok {
			t.Fatalf("expected miss for null semantics")
		}
	} else {
		if !ok || string(body) != "value" {
			t.Fatalf("unexpected get result: ok=%v body=%q", ok, body)
		}
		body[0] = 'X'
		again, ok, err := store.Get(ctx, key("alpha"))
		if err != nil || !ok || string(again) != "value" {
			t.Fatalf("expected stored value unchanged, got ok=%v body=%q err=%v", ok, again, err)
		}
	}

	if _, ok, err := store.Get(ctx, key("missing")); err != nil || ok {
		t.Fatalf("expected clean miss, ok=%v err=%v", ok, err)
	}

	if err := store.Set(ctx, key("ttl"), []byte("v"), ttl); err != nil {
		t.Fatalf("set ttl failed: %v", err)
	}
	time.Sleep(wait)
	if _, ok, err := store.Get(ctx, key("ttl")); err != nil || ok {
		t.Fatalf("expected ttl expiry, ok=%v err=%v", ok, err)
	}

	if err := store.Set(ctx, key("a"), []byte("1"), time.Minute); err != nil {
		t.Fatalf("set a failed: %v", err)
	}
	if err := store.Set(ctx, key("b"), []byte("2"), time.Minute); err != nil {
		t.Fatalf("set b failed: %v", err)
	}
	if err := store.Delete(ctx, key("a")); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, ok, _ := store.Get(ctx, key("a")); ok {
		t.Fatalf("expected a deleted")
	}
	if err := store.DeleteMany(ctx, key("b"), key("never-set")); err != nil {
		t.Fatalf("delete many failed: %v", err)
	}
	if _, ok, _ := store.Get(ctx, key("b")); ok {
		t.Fatalf("expected b deleted")
	}

	if err := store.Set(ctx, key("c"), []byte("3"), time.Minute); err != nil {
		t.Fatalf("set c failed: %v", err)
	}
	if err := store.Flush(ctx); err != nil {
		t.Fatalf("flush failed: %v", err)
	}
	if _, ok, _ := store.Get(ctx, key("c")); ok {
		t.Fatalf("expected c removed after flush")
	}
}

func TestStoreContractMemory(t *testing.T) {
	runStoreContract(t, newMemoryStore(0, 0), contractOptions{})
}

func TestStoreContractFile(t *testing.T) {
	store, err := newFileStore(t.TempDir(), "pfx", 0)
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	runStoreContract(t, store, contractOptions{})
}

func TestStoreContractNull(t *testing.T) {
	runStoreContract(t, newNullStore(), contractOptions{nullSemantics: true})
}

func TestStoreContractSQLite(t *testing.T) {
	runStoreContract(t, newSQLiteStore(t), contractOptions{})
}

func TestStoreContractDecorated(t *testing.T) {
	ctx := context.Background()
	store := NewStore(ctx, StoreConfig{
		Driver:        DriverMemory,
		Compression:   CompressionGzip,
		EncryptionKey: []byte("0123456789abcdef"),
		Memoize:       false,
	})
	runStoreContract(t, store, contractOptions{})
}

func TestStoreContractNATSStub(t *testing.T) {
	runStoreContract(t, newNATSStore(newStubNATSKeyValue("bucket"), 0, "pfx", false), contractOptions{})
}

func TestStoreContractRedisStub(t *testing.T) {
	runStoreContract(t, newRedisStore(newStubRedisClient(), 0, "pfx"), contractOptions{})
}

func TestStoreContractDynamoStub(t *testing.T) {
	store, err := newDynamoStore(context.Background(), StoreConfig{
		DynamoClient: newStubDynamo(),
		DynamoTable:  "cache",
		Prefix:       "pfx",
	})
	if err != nil {
		t.Fatalf("dynamo store: %v", err)
	}
	runStoreContract(t, store, contractOptions{})
}
