package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

type verifier struct {
	Value    string `json:"value"`
	Redirect string `json:"redirect"`
}

func TestMemoryCacheSetGetDelete(t *testing.T) {
	mc := NewMemoryCache(0)
	defer mc.Close()
	ctx := context.Background()

	if err := mc.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	var got string
	if err := mc.Get(ctx, "k", &got); err != nil || got != "v" {
		t.Fatalf("expected v, got %q (%v)", got, err)
	}

	if err := mc.Set(ctx, "s", verifier{Value: "abc", Redirect: "/dashboard"}, 0); err != nil {
		t.Fatalf("Set struct returned error: %v", err)
	}
	var v verifier
	if err := mc.Get(ctx, "s", &v); err != nil || v.Value != "abc" || v.Redirect != "/dashboard" {
		t.Fatalf("unexpected struct %+v (%v)", v, err)
	}

	mc.Delete(ctx, "k")
	if err := mc.Get(ctx, "k", &got); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := mc.Set(ctx, "", "v", 0); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	mc := NewMemoryCache(0)
	defer mc.Close()
	now := time.Now()
	mc.now = func() time.Time { return now }

	mc.Set(context.Background(), "k", "v", time.Second)
	now = now.Add(2 * time.Second)

	var got string
	if err := mc.Get(context.Background(), "k", &got); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected expired entry to be missing, got %v", err)
	}
	if mc.Size() != 1 {
		t.Fatalf("expected expired entry to linger until cleanup, size %d", mc.Size())
	}
	mc.cleanup()
	if mc.Size() != 0 {
		t.Fatalf("expected cleanup to remove expired entry, size %d", mc.Size())
	}
}

func TestMemoryCacheClosed(t *testing.T) {
	mc := NewMemoryCache(time.Hour)
	mc.Close()
	mc.Close()

	if err := mc.Set(context.Background(), "k", "v", 0); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestRedisCache(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	defer mr.Close()

	rc := NewRedisCache(mr.Addr(), "pkce:")
	defer rc.Close()
	ctx := context.Background()

	if err := rc.Ping(ctx); err != nil {
		t.Fatalf("Ping returned error: %v", err)
	}
	if err := rc.Set(ctx, "state-1", verifier{Value: "abc"}, time.Minute); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if !mr.Exists("pkce:state-1") {
		t.Fatal("expected prefixed key in redis")
	}

	var v verifier
	if err := rc.Get(ctx, "state-1", &v); err != nil || v.Value != "abc" {
		t.Fatalf("unexpected value %+v (%v)", v, err)
	}

	mr.FastForward(2 * time.Minute)
	if err := rc.Get(ctx, "state-1", &v); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after ttl, got %v", err)
	}

	rc.Set(ctx, "plain", "text", 0)
	rc.Delete(ctx, "plain")
	var s string
	if err := rc.Get(ctx, "plain", &s); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
