package cache

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"
)

func TestCompressionRoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte(`{"id":1,"name":"Leanne Graham"}`), 50)
	encoded, err := encodeValue(CompressionGzip, 0, payload)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(encoded) >= len(payload) {
		t.Fatalf("expected compressed payload to shrink")
	}
	decoded, err := decodeValue(encoded)
	if err != nil || !bytes.Equal(decoded, payload) {
		t.Fatalf("decode mismatch: err=%v", err)
	}
	plain, err := decodeValue([]byte("[]"))
	if err != nil || string(plain) != "[]" {
		t.Fatalf("expected uncompressed passthrough, got %q err=%v", plain, err)
	}
	if _, err := decodeValue(append(append([]byte{}, compressMagic...), "junk"...)); !errors.Is(err, ErrCorruptCompression) {
		t.Fatalf("expected corrupt error, got %v", err)
	}
}

func TestCompressionLimits(t *testing.T) {
	if _, err := encodeValue(CompressionNone, 2, []byte("abc")); !errors.Is(err, ErrValueTooLarge) {
		t.Fatalf("expected too large, got %v", err)
	}
	if _, err := encodeValue("lz4", 0, []byte("abc")); !errors.Is(err, ErrUnsupportedCodec) {
		t.Fatalf("expected unsupported codec, got %v", err)
	}
	if _, err := ParseCompression("snappy"); !errors.Is(err, ErrUnsupportedCodec) {
		t.Fatalf("expected unsupported codec, got %v", err)
	}
	if codec, err := ParseCompression(""); err != nil || codec != CompressionNone {
		t.Fatalf("expected none, got %s err=%v", codec, err)
	}
}

func TestEncryptingStoreHoldsCiphertext(t *testing.T) {
	ctx := context.Background()
	inner := newMemoryStore(0, 0)
	store, err := newEncryptingStore(inner, []byte("0123456789abcdef0123456789abcdef"))
	if err != nil {
		t.Fatalf("new encrypting store: %v", err)
	}
	secret := []byte(`[{"email":"Sincere@april.biz"}]`)
	if err := store.Set(ctx, "k", secret, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	raw, _, _ := inner.Get(ctx, "k")
	if bytes.Contains(raw, []byte("Sincere")) {
		t.Fatalf("expected ciphertext at rest")
	}
	plain, ok, err := store.Get(ctx, "k")
	if err != nil || !ok || !bytes.Equal(plain, secret) {
		t.Fatalf("decrypt mismatch: ok=%v err=%v", ok, err)
	}

	_ = inner.Set(ctx, "plain", []byte("not sealed"), time.Minute)
	if _, _, err := store.Get(ctx, "plain"); !errors.Is(err, ErrDecryptFailed) {
		t.Fatalf("expected decrypt failure, got %v", err)
	}
}

func TestMemoStoreServesRepeatReadsLocally(t *testing.T) {
	ctx := context.Background()
	inner := newMemoryStore(0, 0)
	store := NewMemoStore(inner, time.Minute)

	_ = inner.Set(ctx, "k", []byte("v1"), time.Minute)
	if body, ok, _ := store.Get(ctx, "k"); !ok || string(body) != "v1" {
		t.Fatalf("expected first read from backend")
	}
	_ = inner.Set(ctx, "k", []byte("v2"), time.Minute)
	if body, _, _ := store.Get(ctx, "k"); string(body) != "v1" {
		t.Fatalf("expected memoized value, got %q", body)
	}
	if err := store.Set(ctx, "k", []byte("v3"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if body, _, _ := store.Get(ctx, "k"); string(body) != "v3" {
		t.Fatalf("expected write-through invalidation, got %q", body)
	}
}

func TestMemoStoreEntriesExpire(t *testing.T) {
	ctx := context.Background()
	inner := newMemoryStore(0, 0)
	store := NewMemoStore(inner, 20*time.Millisecond)

	_ = inner.Set(ctx, "users:name=Ervin", []byte("v1"), time.Minute)
	if _, ok, _ := store.Get(ctx, "users:name=Ervin"); !ok {
		t.Fatalf("expected backend hit")
	}
	_ = inner.Set(ctx, "users:name=Ervin", []byte("v2"), time.Minute)
	time.Sleep(50 * time.Millisecond)
	if body, _, _ := store.Get(ctx, "users:name=Ervin"); string(body) != "v2" {
		t.Fatalf("expected memo to expire, got %q", body)
	}

	memo := store.(*memoStore).memo
	_ = inner.Delete(ctx, "users:name=Ervin")
	time.Sleep(50 * time.Millisecond)
	memo.DeleteExpired()
	if n := memo.ItemCount(); n != 0 {
		t.Fatalf("expected expired memos swept, %d left", n)
	}
	if _, ok, _ := store.Get(ctx, "users:name=Ervin"); ok {
		t.Fatalf("expected miss once backend entry is gone")
	}
}
