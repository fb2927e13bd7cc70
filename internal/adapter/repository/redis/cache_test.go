package redis

import (
	"context"
	"testing"
	"time"
)

func TestCacheSetIfNewerAndGet(t *testing.T) {
	client, srv := newMiniredis(t)
	cache := NewCache(client)
	ctx := context.Background()

	stored, err := cache.SetIfNewer(ctx, "stock:balance:i-1", 3, []byte("42"), time.Minute)
	if err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if !stored {
		t.Fatal("expected first write to be stored")
	}

	val, err := cache.Get(ctx, "stock:balance:i-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if string(val) != "42" {
		t.Fatalf("expected 42, got %s", val)
	}

	if !srv.Exists("cache:stock:balance:i-1") || !srv.Exists("cache:stock:balance:i-1:version") {
		t.Fatal("expected prefixed value and version keys")
	}
}

func TestCacheSetIfNewerRejectsOlderVersion(t *testing.T) {
	client, srv := newMiniredis(t)
	cache := NewCache(client)
	ctx := context.Background()

	seedVersion(t, srv, "stock:balance:i-1", "9", "6")

	for _, version := range []int64{5, 6} {
		stored, err := cache.SetIfNewer(ctx, "stock:balance:i-1", version, []byte("7"), time.Minute)
		if err != nil {
			t.Fatalf("set failed: %v", err)
		}
		if stored {
			t.Fatalf("version %d must not replace version 6", version)
		}
	}

	val, _ := cache.Get(ctx, "stock:balance:i-1")
	if string(val) != "9" {
		t.Fatalf("expected newer value 9 to survive, got %s", val)
	}

	stored, err := cache.SetIfNewer(ctx, "stock:balance:i-1", 7, []byte("11"), time.Minute)
	if err != nil || !stored {
		t.Fatalf("expected version 7 to be stored, stored=%v err=%v", stored, err)
	}
	val, _ = cache.Get(ctx, "stock:balance:i-1")
	if string(val) != "11" {
		t.Fatalf("expected 11, got %s", val)
	}
}

func TestCacheGetMissing(t *testing.T) {
	client, _ := newMiniredis(t)

	val, err := NewCache(client).Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("expected no error for missing key, got %v", err)
	}
	if val != nil {
		t.Fatalf("expected nil value, got %q", val)
	}
}

func TestCacheExpires(t *testing.T) {
	client, srv := newMiniredis(t)
	cache := NewCache(client)
	ctx := context.Background()

	if _, err := cache.SetIfNewer(ctx, "k", 1, []byte("v"), time.Second); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	srv.FastForward(2 * time.Second)

	val, err := cache.Get(ctx, "k")
	if err != nil || val != nil {
		t.Fatalf("expected expired key, got %q err=%v", val, err)
	}
	if srv.Exists("cache:k:version") {
		t.Fatal("expected version to expire with the value")
	}
}

func TestCacheDelete(t *testing.T) {
	client, srv := newMiniredis(t)
	cache := NewCache(client)
	ctx := context.Background()

	if _, err := cache.SetIfNewer(ctx, "k", 4, []byte("v"), time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := cache.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	val, _ := cache.Get(ctx, "k")
	if val != nil {
		t.Fatalf("expected key to be deleted, got %q", val)
	}
	if srv.Exists("cache:k:version") {
		t.Fatal("expected version to be deleted")
	}
}
