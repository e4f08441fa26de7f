package statscache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
)

func setupTestCache(t *testing.T, ttl time.Duration) (*RedisCache, *miniredis.Miniredis) {
	s := miniredis.RunT(t)
	cache, err := NewRedisCache("redis://"+s.Addr(), ttl)
	if err != nil {
		t.Fatalf("failed to create redis cache: %v", err)
	}
	t.Cleanup(func() { _ = cache.Close() })
	return cache, s
}

func TestNewRedisCacheRejectsBadURL(t *testing.T) {
	if _, err := NewRedisCache("not a url", time.Second); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestSetAndGet(t *testing.T) {
	cache, _ := setupTestCache(t, time.Minute)
	ctx := context.Background()
	key := Key("team-1", "user-1", "documents", "7d", "")
	want := map[string]int{"DRAFT": 2, "PENDING": 1, "ALL": 3}

	if err := cache.Set(ctx, key, want); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, ok, err := cache.Get(ctx, key)
	if err != nil || !ok {
		t.Fatalf("Get = ok %v, err %v", ok, err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("cached stats mismatch (-want +got):\n%s", diff)
	}
}

func TestGetMiss(t *testing.T) {
	cache, _ := setupTestCache(t, time.Minute)
	got, ok, err := cache.Get(context.Background(), "missing")
	if err != nil || ok || got != nil {
		t.Fatalf("Get(missing) = %v, %v, %v", got, ok, err)
	}
}

func TestEntriesExpire(t *testing.T) {
	cache, s := setupTestCache(t, 10*time.Second)
	ctx := context.Background()
	if err := cache.Set(ctx, "k", map[string]int{"ALL": 1}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	s.FastForward(11 * time.Second)

	if _, ok, err := cache.Get(ctx, "k"); err != nil || ok {
		t.Fatalf("expected expired entry, got ok=%v err=%v", ok, err)
	}
}

func TestDefaultTTLApplied(t *testing.T) {
	cache, s := setupTestCache(t, 0)
	if err := cache.Set(context.Background(), "k", map[string]int{}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if ttl := s.TTL("stats:k"); ttl != defaultTTL {
		t.Fatalf("TTL = %v, want %v", ttl, defaultTTL)
	}
}

func TestInvalidateTeam(t *testing.T) {
	cache, s := setupTestCache(t, time.Minute)
	ctx := context.Background()
	for _, key := range []string{Key("team-1", "a"), Key("team-1", "b"), Key("team-10", "a")} {
		if err := cache.Set(ctx, key, map[string]int{"ALL": 1}); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
	}

	if err := cache.InvalidateTeam(ctx, "team-1"); err != nil {
		t.Fatalf("InvalidateTeam failed: %v", err)
	}
	if s.Exists("stats:" + Key("team-1", "a")) {
		t.Error("team-1 entry survived invalidation")
	}
	if !s.Exists("stats:" + Key("team-10", "a")) {
		t.Error("team-10 entry was invalidated by prefix")
	}
}

func TestKeyEscapesSeparators(t *testing.T) {
	if Key("a|b", "c") == Key("a", "b|c") {
		t.Fatal("distinct parts produced the same key")
	}
}
