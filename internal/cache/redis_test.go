package cache

import (
	"context"
	"testing"
	"time"

	"github.com/toolshelf/internal/config"
)

func TestCacheDisabledIsNoop(t *testing.T) {
	if err := InitRedis(&config.RedisConfig{Enabled: false}); err != nil {
		t.Fatalf("init disabled redis failed: %v", err)
	}
	if Enabled() || Client() != nil {
		t.Fatalf("cache should be disabled")
	}
	ctx := context.Background()
	if err := SetJSON(ctx, "k", map[string]int{"a": 1}, time.Minute); err != nil {
		t.Fatalf("set json on disabled cache should be noop: %v", err)
	}
	var dest map[string]int
	hit, err := GetJSON(ctx, "k", &dest)
	if err != nil || hit {
		t.Fatalf("get json on disabled cache should miss, hit=%v err=%v", hit, err)
	}
	if err := InvalidateCreatorEarnings(ctx, 7); err != nil {
		t.Fatalf("invalidate on disabled cache should be noop: %v", err)
	}
}

func TestBuildKeyUsesPrefix(t *testing.T) {
	redisPrefix = "shop"
	defer func() { redisPrefix = "" }()
	if got := buildKey(CreatorEarningsKey(9)); got != "shop:earnings:creator:9" {
		t.Fatalf("unexpected key: %s", got)
	}
	if got := buildKey("  "); got != "shop" {
		t.Fatalf("empty key should fall back to prefix, got %s", got)
	}
}

func TestCreatorEarningsVersionedKeyWhenDisabled(t *testing.T) {
	if err := InitRedis(&config.RedisConfig{Enabled: false}); err != nil {
		t.Fatalf("init disabled redis failed: %v", err)
	}
	key, err := CreatorEarningsVersionedKey(context.Background(), 9)
	if err != nil {
		t.Fatalf("versioned key failed: %v", err)
	}
	if key != "earnings:creator:9:v0" {
		t.Fatalf("unexpected versioned key: %s", key)
	}
	if got := CreatorEarningsGenerationKey(9); got != "earnings:creator:9:gen" {
		t.Fatalf("unexpected generation key: %s", got)
	}
}
