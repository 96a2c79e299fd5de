package cache

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestFileStoreFlushKeepsOtherPrefixes(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	users, err := newFileStore(dir, "usersearch", time.Minute)
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	other, err := newFileStore(dir, "reports", time.Minute)
	if err != nil {
		t.Fatalf("file store: %v", err)
	}

	if err := users.Set(ctx, "users:name=Leanne", []byte("a"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := other.Set(ctx, "users:name=Leanne", []byte("b"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got, ok, _ := other.Get(ctx, "users:name=Leanne"); !ok || string(got) != "b" {
		t.Fatalf("prefixes collided: %q ok=%v", got, ok)
	}

	if err := users.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if _, ok, _ := users.Get(ctx, "users:name=Leanne"); ok {
		t.Fatalf("expected flushed entry gone")
	}
	if got, ok, _ := other.Get(ctx, "users:name=Leanne"); !ok || string(got) != "b" {
		t.Fatalf("flush removed another prefix's entry: %q ok=%v", got, ok)
	}
}

func TestFileStoreFlushLeavesForeignFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := newFileStore(dir, "usersearch", time.Minute)
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	foreign := dir + "/notes.entry"
	if err := os.WriteFile(foreign, []byte("keep"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := store.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if _, err := os.Stat(foreign); err != nil {
		t.Fatalf("foreign file removed: %v", err)
	}
}
